package weather

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report missing fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// currentPayload mirrors the OpenWeatherMap current-weather body. Pointers
// distinguish an absent field from a zero value.
type currentPayload struct {
	Name    *string `json:"name" validate:"required"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather" validate:"required"`
	Main *struct {
		Temp      *float64 `json:"temp" validate:"required"`
		FeelsLike *float64 `json:"feels_like" validate:"required"`
		TempMin   *float64 `json:"temp_min" validate:"required"`
		TempMax   *float64 `json:"temp_max" validate:"required"`
		Pressure  *float64 `json:"pressure" validate:"required"`
		Humidity  *float64 `json:"humidity" validate:"required"`
	} `json:"main" validate:"required"`
	Wind *struct {
		Speed *float64 `json:"speed" validate:"required"`
	} `json:"wind" validate:"required"`
	Dt       *int64 `json:"dt" validate:"required"`
	Timezone *int64 `json:"timezone" validate:"required"`
	Sys      *struct {
		Sunrise *int64 `json:"sunrise" validate:"required"`
		Sunset  *int64 `json:"sunset" validate:"required"`
	} `json:"sys" validate:"required"`
}

// ParseObservation decodes a current-weather response body. It returns a
// *ParseError when the body is not JSON or a field consumed by Transform is
// absent. An empty (but present) condition list is accepted here and
// rejected by Transform.
func ParseObservation(body []byte) (RawObservation, error) {
	var p currentPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return RawObservation{}, &ParseError{Err: err}
	}

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return RawObservation{}, &ParseError{Err: err}
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			// Drop the leading struct name from the namespace.
			ns := fe.Namespace()
			if i := strings.IndexByte(ns, '.'); i >= 0 {
				ns = ns[i+1:]
			}
			missing = append(missing, ns)
		}
		return RawObservation{}, &ParseError{Missing: missing, Err: err}
	}

	conditions := make([]Condition, 0, len(p.Weather))
	for _, w := range p.Weather {
		conditions = append(conditions, Condition{Main: w.Main, Description: w.Description})
	}

	return RawObservation{
		Name:       *p.Name,
		Conditions: conditions,
		Main: Measurements{
			TempK:      *p.Main.Temp,
			FeelsLikeK: *p.Main.FeelsLike,
			TempMinK:   *p.Main.TempMin,
			TempMaxK:   *p.Main.TempMax,
			Pressure:   *p.Main.Pressure,
			Humidity:   *p.Main.Humidity,
		},
		WindSpeed: *p.Wind.Speed,
		Dt:        *p.Dt,
		Timezone:  *p.Timezone,
		Sys: SunEvents{
			Sunrise: *p.Sys.Sunrise,
			Sunset:  *p.Sys.Sunset,
		},
	}, nil
}
