package weather_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weatherwidget/internal/weather"
)

// torontoPayload mirrors a real OpenWeatherMap current-weather response.
func torontoPayload() map[string]any {
	return map[string]any{
		"coord":   map[string]any{"lon": -79.4163, "lat": 43.7001},
		"weather": []map[string]any{{"id": 803, "main": "Clouds", "description": "broken clouds", "icon": "04d"}},
		"main": map[string]any{
			"temp":       10.6,
			"feels_like": 9.4,
			"temp_min":   8.9,
			"temp_max":   12.2,
			"pressure":   1014,
			"humidity":   72,
		},
		"visibility": 8000,
		"wind":       map[string]any{"speed": 4.12, "deg": 240},
		"clouds":     map[string]any{"all": 75},
		"dt":         1700003600,
		"sys":        map[string]any{"country": "CA", "sunrise": 1700000000, "sunset": 1700035000},
		"id":         6167865,
		"name":       "Toronto",
		"cod":        200,
	}
}

func jsonHandler(t *testing.T, status int, body any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, torontoPayload()))
	defer srv.Close()

	c := weather.NewClient("key", weather.WithEndpoint(srv.URL))
	rec, err := c.Fetch(context.Background(), "Toronto")
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, int64(6167865), rec.ID)
	assert.Equal(t, "Toronto", rec.Name)
	assert.Equal(t, "CA", rec.Country)
	assert.InDelta(t, 10.6, rec.Temp, 0.001)
	assert.InDelta(t, 9.4, rec.FeelsLike, 0.001)
	assert.InDelta(t, 8.9, rec.TempMin, 0.001)
	assert.InDelta(t, 12.2, rec.TempMax, 0.001)
	assert.Equal(t, 72, rec.Humidity)
	assert.Equal(t, 1014, rec.Pressure)
	assert.Equal(t, 75, rec.Cloudiness)
	assert.InDelta(t, 4.12, rec.WindSpeed, 0.001)
	assert.Equal(t, 240, rec.WindDeg)
	assert.Equal(t, 8000, rec.Visibility)
	assert.InDelta(t, 43.7001, rec.Coord.Lat, 0.0001)
	assert.InDelta(t, -79.4163, rec.Coord.Lon, 0.0001)
	assert.Equal(t, int64(1700000000), rec.Sunrise)
	assert.Equal(t, int64(1700035000), rec.Sunset)
	assert.Equal(t, "broken clouds", rec.Description)
	assert.Equal(t, "04d", rec.Icon)
}

func TestClient_Fetch_BuildsQuery(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		jsonHandler(t, http.StatusOK, torontoPayload())(w, r)
	}))
	defer srv.Close()

	c := weather.NewClient("secret", weather.WithEndpoint(srv.URL+"/data/2.5/weather"))
	_, err := c.Fetch(context.Background(), "New York")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/data/2.5/weather", got.URL.Path)
	assert.Equal(t, "New York", got.URL.Query().Get("q"))
	assert.Equal(t, "secret", got.URL.Query().Get("appid"))
	assert.Equal(t, "metric", got.URL.Query().Get("units"))
}

func TestClient_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusNotFound, map[string]any{
		"cod":     "404",
		"message": "city not found",
	}))
	defer srv.Close()

	c := weather.NewClient("key", weather.WithEndpoint(srv.URL))
	rec, err := c.Fetch(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Nil(t, rec)

	var fe *weather.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Atlantis", fe.City)
	assert.Contains(t, err.Error(), "status 404")
}

func TestClient_Fetch_MissingMainBlock(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, map[string]any{"cod": "404", "message": "city not found"}))
	defer srv.Close()

	c := weather.NewClient("key", weather.WithEndpoint(srv.URL))
	_, err := c.Fetch(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrNoConditions)
}

func TestClient_Fetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	c := weather.NewClient("key", weather.WithEndpoint(srv.URL))
	_, err := c.Fetch(context.Background(), "Toronto")
	require.Error(t, err)

	var fe *weather.FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_Fetch_ErrorDoesNotLeakKey(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusUnauthorized, map[string]any{"cod": 401}))
	defer srv.Close()

	c := weather.NewClient("super-secret-key", weather.WithEndpoint(srv.URL))
	_, err := c.Fetch(context.Background(), "Toronto")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "super-secret-key")
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := weather.NewClient("key", weather.WithEndpoint(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Fetch(ctx, "Toronto")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ---- httpmock: default endpoint, one request per call ----

func newMockedClient(t *testing.T) *weather.Client {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)
	return weather.NewClient("test-api-key", weather.WithHTTPClient(hc))
}

func TestClient_Fetch_DefaultEndpoint(t *testing.T) {
	c := newMockedClient(t)

	responder, err := httpmock.NewJsonResponder(http.StatusOK, torontoPayload())
	require.NoError(t, err)
	httpmock.RegisterResponder(http.MethodGet, weather.DefaultEndpoint, responder)

	rec, err := c.Fetch(context.Background(), "Toronto")
	require.NoError(t, err)
	assert.Equal(t, "Toronto", rec.Name)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestClient_Fetch_NoRetryOnFailure(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, weather.DefaultEndpoint,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "unavailable"))

	_, err := c.Fetch(context.Background(), "Toronto")
	require.Error(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "a failed lookup must not be retried")
}

func TestClient_Fetch_TransportError(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, weather.DefaultEndpoint,
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.Fetch(context.Background(), "Toronto")
	require.Error(t, err)

	var fe *weather.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe.Err.Error(), "connection refused")
}

func TestClient_Fetch_NoConditionsArray(t *testing.T) {
	c := newMockedClient(t)

	payload := torontoPayload()
	delete(payload, "weather")
	responder, err := httpmock.NewJsonResponder(http.StatusOK, payload)
	require.NoError(t, err)
	httpmock.RegisterResponder(http.MethodGet, weather.DefaultEndpoint, responder)

	rec, err := c.Fetch(context.Background(), "Toronto")
	require.NoError(t, err)
	assert.Empty(t, rec.Description)
	assert.Empty(t, rec.Icon)
}
