package weather

import (
	"strconv"
	"time"
)

// Condition is one entry of the provider's condition list.
type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

// Measurements holds the "main" group of a current-weather response.
// Temperatures are in Kelvin.
type Measurements struct {
	TempK      float64 `json:"temp"`
	FeelsLikeK float64 `json:"feelsLike"`
	TempMinK   float64 `json:"tempMin"`
	TempMaxK   float64 `json:"tempMax"`
	Pressure   float64 `json:"pressure"`
	Humidity   float64 `json:"humidity"`
}

// SunEvents holds sunrise and sunset as Unix seconds.
type SunEvents struct {
	Sunrise int64 `json:"sunrise"`
	Sunset  int64 `json:"sunset"`
}

// RawObservation is a parsed current-weather response, before any unit
// conversion. Timestamps are Unix seconds; Timezone is the city's offset
// from UTC in seconds.
type RawObservation struct {
	Name       string       `json:"name"`
	Conditions []Condition  `json:"conditions"`
	Main       Measurements `json:"main"`
	WindSpeed  float64      `json:"windSpeed"`
	Dt         int64        `json:"dt"`
	Timezone   int64        `json:"timezone"`
	Sys        SunEvents    `json:"sys"`
}

// NormalizedRecord is the single flat row produced per pipeline run.
// Time fields are naive local times: the UTC offset is already applied and
// the values carry the UTC location.
type NormalizedRecord struct {
	City         string    `json:"city"`
	Description  string    `json:"description"`
	TemperatureF float64   `json:"temperatureF"`
	FeelsLikeF   float64   `json:"feelsLikeF"`
	MinTempF     float64   `json:"minTempF"`
	MaxTempF     float64   `json:"maxTempF"`
	Pressure     float64   `json:"pressure"`
	Humidity     float64   `json:"humidity"`
	WindSpeed    float64   `json:"windSpeed"`
	RecordedAt   time.Time `json:"recordedAt"`
	SunriseLocal time.Time `json:"sunriseLocal"`
	SunsetLocal  time.Time `json:"sunsetLocal"`
}

// LocalTimeLayout renders naive local timestamps in staged files.
const LocalTimeLayout = "2006-01-02 15:04:05"

// CSVHeader lists the staged file columns in record order.
var CSVHeader = []string{
	"City",
	"Description",
	"Temperature (F)",
	"Feels Like (F)",
	"Minimum Temp (F)",
	"Maximum Temp (F)",
	"Pressure",
	"Humidity",
	"Wind Speed",
	"Time of Record",
	"Sunrise (Local Time)",
	"Sunset (Local Time)",
}

// CSVRow returns the record's values in CSVHeader order.
func (r NormalizedRecord) CSVRow() []string {
	return []string{
		r.City,
		r.Description,
		formatFloat(r.TemperatureF),
		formatFloat(r.FeelsLikeF),
		formatFloat(r.MinTempF),
		formatFloat(r.MaxTempF),
		formatFloat(r.Pressure),
		formatFloat(r.Humidity),
		formatFloat(r.WindSpeed),
		r.RecordedAt.Format(LocalTimeLayout),
		r.SunriseLocal.Format(LocalTimeLayout),
		r.SunsetLocal.Format(LocalTimeLayout),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
