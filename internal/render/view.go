// Package render projects a weather.Record into the fixed set of display
// fields shown by the widget. Projection is pure; the HTML and text writers
// only lay the projected View out.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/neexbeast/weatherwidget/internal/weather"
)

// DefaultIconBase is the provider's icon CDN host.
const DefaultIconBase = "http://openweathermap.org"

// ClockLayout is the wall-clock layout used for sunrise and sunset.
const ClockLayout = "3:04:05 PM"

// Field is one labeled entry in the details grid.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// View is everything the panel shows for one record.
type View struct {
	Header      string  `json:"header"`
	IconURL     string  `json:"icon_url"`
	Temperature string  `json:"temperature"`
	Description string  `json:"description"`
	Details     []Field `json:"details"`
}

// Options controls the environment-dependent parts of the projection.
type Options struct {
	// Location is the zone sunrise and sunset are shown in. nil means time.Local.
	Location *time.Location
	// IconBase is the scheme and host icons are served from.
	IconBase string
}

// Render returns nil when rec is nil, so callers can skip the panel entirely.
func Render(rec *weather.Record, opts Options) *View {
	if rec == nil {
		return nil
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	iconBase := opts.IconBase
	if iconBase == "" {
		iconBase = DefaultIconBase
	}

	return &View{
		Header:      rec.Name + ", " + rec.Country,
		IconURL:     IconURL(iconBase, rec.Icon),
		Temperature: celsius(rec.Temp),
		Description: rec.Description,
		Details: []Field{
			{Label: "Feels Like", Value: celsius(rec.FeelsLike)},
			{Label: "Low", Value: celsius(rec.TempMin)},
			{Label: "High", Value: celsius(rec.TempMax)},
			{Label: "Humidity", Value: fmt.Sprintf("%d%%", rec.Humidity)},
			{Label: "Pressure", Value: fmt.Sprintf("%d hPa", rec.Pressure)},
			{Label: "Cloudiness", Value: fmt.Sprintf("%d%%", rec.Cloudiness)},
			{Label: "Wind Speed", Value: number(rec.WindSpeed) + " m/s"},
			{Label: "Wind Direction", Value: fmt.Sprintf("%d°", rec.WindDeg)},
			{Label: "Visibility", Value: Kilometers(rec.Visibility)},
			{Label: "Coordinates", Value: number(rec.Coord.Lat) + "°, " + number(rec.Coord.Lon) + "°"},
			{Label: "Sunrise", Value: Clock(rec.Sunrise, loc)},
			{Label: "Sunset", Value: Clock(rec.Sunset, loc)},
		},
	}
}

// IconURL addresses an icon id on the provider CDN.
func IconURL(base, icon string) string {
	return strings.TrimSuffix(base, "/") + "/img/wn/" + icon + "@2x.png"
}

// RoundHalfUp rounds to the nearest integer with ties toward +Inf, so -2.5
// becomes -2 and 2.5 becomes 3.
func RoundHalfUp(v float64) int {
	f := math.Floor(v)
	if v-f >= 0.5 {
		f++
	}
	return int(f)
}

// Kilometers formats a distance in meters as kilometers with one decimal,
// rounding half a tenth up.
func Kilometers(meters int) string {
	neg := meters < 0
	if neg {
		meters = -meters
	}
	tenths := (meters + 50) / 100
	s := strconv.Itoa(tenths/10) + "." + strconv.Itoa(tenths%10) + " km"
	if neg && tenths != 0 {
		s = "-" + s
	}
	return s
}

// Clock converts epoch seconds to the time of day in loc.
func Clock(epoch int64, loc *time.Location) string {
	return time.Unix(epoch, 0).In(loc).Format(ClockLayout)
}

func celsius(v float64) string {
	return strconv.Itoa(RoundHalfUp(v)) + "°C"
}

// number prints the shortest decimal that round-trips, so 4 prints as "4"
// and 4.12 as "4.12".
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
