package weather

import "time"

const absoluteZeroC = 273.15

// KelvinToFahrenheit converts an absolute temperature to Fahrenheit.
func KelvinToFahrenheit(k float64) float64 {
	return (k-absoluteZeroC)*(9.0/5.0) + 32
}

// FahrenheitToKelvin is the inverse of KelvinToFahrenheit.
func FahrenheitToKelvin(f float64) float64 {
	return (f-32)/(9.0/5.0) + absoluteZeroC
}

// LocalTime shifts a Unix timestamp by a UTC offset and returns it as a
// naive wall-clock time in the UTC location.
func LocalTime(epoch, offsetSeconds int64) time.Time {
	return time.Unix(epoch+offsetSeconds, 0).UTC()
}

// Transform maps a raw observation onto a NormalizedRecord. It is pure and
// deterministic; the only failure is an empty condition list.
func Transform(raw RawObservation) (NormalizedRecord, error) {
	if len(raw.Conditions) == 0 {
		return NormalizedRecord{}, &MissingDataError{Field: "weather"}
	}

	return NormalizedRecord{
		City:         raw.Name,
		Description:  raw.Conditions[0].Description,
		TemperatureF: KelvinToFahrenheit(raw.Main.TempK),
		FeelsLikeF:   KelvinToFahrenheit(raw.Main.FeelsLikeK),
		MinTempF:     KelvinToFahrenheit(raw.Main.TempMinK),
		MaxTempF:     KelvinToFahrenheit(raw.Main.TempMaxK),
		Pressure:     raw.Main.Pressure,
		Humidity:     raw.Main.Humidity,
		WindSpeed:    raw.WindSpeed,
		RecordedAt:   LocalTime(raw.Dt, raw.Timezone),
		SunriseLocal: LocalTime(raw.Sys.Sunrise, raw.Timezone),
		SunsetLocal:  LocalTime(raw.Sys.Sunset, raw.Timezone),
	}, nil
}
