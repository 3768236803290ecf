package weather

// Coord is a geographic position in decimal degrees.
type Coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is a snapshot of current conditions for one city at one point in time.
// Records are never mutated after Fetch returns them.
type Record struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	TempMin     float64 `json:"temp_min"`
	TempMax     float64 `json:"temp_max"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	Cloudiness  int     `json:"cloudiness"`
	WindSpeed   float64 `json:"wind_speed"`
	WindDeg     int     `json:"wind_deg"`
	Visibility  int     `json:"visibility"`
	Coord       Coord   `json:"coord"`
	Sunrise     int64   `json:"sunrise"`
	Sunset      int64   `json:"sunset"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}
