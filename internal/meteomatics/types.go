package meteomatics

import "time"

// DateValue is one forecasted value at one timestamp.
type DateValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// CoordinateData holds the per-coordinate series for a parameter. The API
// returns one entry per requested coordinate; we request a single point.
type CoordinateData struct {
	Lat   float64     `json:"lat"`
	Lon   float64     `json:"lon"`
	Dates []DateValue `json:"dates"`
}

// ParameterData is the per-parameter block of a forecast response.
type ParameterData struct {
	Parameter   string           `json:"parameter"`
	Coordinates []CoordinateData `json:"coordinates"`
}

// forecastResponse is the top-level response envelope.
type forecastResponse struct {
	Data []ParameterData `json:"data"`
}
