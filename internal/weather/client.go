package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultEndpoint is the OpenWeatherMap current-weather endpoint.
	DefaultEndpoint = "https://api.openweathermap.org/data/2.5/weather"

	// Units is fixed; the renderer assumes Celsius and m/s.
	Units = "metric"

	defaultTimeout = 10 * time.Second
)

// ErrNoConditions is returned when the provider answers 2xx without a main block,
// which is how it shapes most error payloads.
var ErrNoConditions = errors.New("response carries no weather conditions")

// FetchError is the only failure kind a lookup produces. Network errors, bad
// status codes and malformed payloads are not distinguished by callers.
type FetchError struct {
	City string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching weather for %q: %v", e.City, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches current weather from OpenWeatherMap.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithEndpoint points the client at a different base URL (tests, proxies).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// NewClient constructs a Client with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type owmResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Coord struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coord"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
}

// requestURL builds the lookup URL. The city is query-escaped but otherwise
// passed through as typed.
func (c *Client) requestURL(city string) string {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", Units)
	return c.endpoint + "?" + q.Encode()
}

// Fetch performs exactly one request for city. Every failure is a *FetchError.
func (c *Client) Fetch(ctx context.Context, city string) (*Record, error) {
	var raw owmResponse
	if err := doGet(ctx, c.client, c.requestURL(city), &raw); err != nil {
		return nil, &FetchError{City: city, Err: err}
	}
	if raw.Main == nil {
		return nil, &FetchError{City: city, Err: ErrNoConditions}
	}

	rec := &Record{
		ID:         raw.ID,
		Name:       raw.Name,
		Country:    raw.Sys.Country,
		Temp:       raw.Main.Temp,
		FeelsLike:  raw.Main.FeelsLike,
		TempMin:    raw.Main.TempMin,
		TempMax:    raw.Main.TempMax,
		Humidity:   raw.Main.Humidity,
		Pressure:   raw.Main.Pressure,
		Cloudiness: raw.Clouds.All,
		WindSpeed:  raw.Wind.Speed,
		WindDeg:    raw.Wind.Deg,
		Visibility: raw.Visibility,
		Coord:      Coord{Lat: raw.Coord.Lat, Lon: raw.Coord.Lon},
		Sunrise:    raw.Sys.Sunrise,
		Sunset:     raw.Sys.Sunset,
	}
	if len(raw.Weather) > 0 {
		rec.Description = raw.Weather[0].Description
		rec.Icon = raw.Weather[0].Icon
	}

	return rec, nil
}

// doGet performs a GET request and decodes the JSON response into dst.
// The API key travels in the query string, so errors name the endpoint only.
func doGet(ctx context.Context, client *http.Client, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("GET %s: %w", req.URL.Host+req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s returned status %d", req.URL.Host+req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
