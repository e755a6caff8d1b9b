package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// ConfigurationError reports a missing or invalid setting. It is fatal at
// startup and never retried.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

type AppConfig struct {
	WeatherAPIKey string
	BucketName    string

	// City is queried at the weather endpoint and embedded in staged file names.
	City       string `env:"WEATHER_CITY" validate:"required"`
	APIBaseURL string `env:"WEATHER_API_BASE_URL" validate:"required,url"`
	APIPath    string `env:"WEATHER_API_PATH" validate:"required,startswith=/"`

	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" validate:"gt=0"`

	// Readiness polling.
	PollInterval     time.Duration `env:"READINESS_POLL_INTERVAL" validate:"gt=0"`
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" validate:"gtefield=PollInterval"`

	// Staging and upload.
	DataDir    string `env:"LOCAL_DATA_DIR" validate:"required"`
	KeyPrefix  string
	Replace    bool
	AWSRegion  string `env:"AWS_REGION" validate:"required"`
	S3Endpoint string `env:"S3_ENDPOINT" validate:"omitempty,url"`

	// Run scheduling and run-level retry policy.
	ScheduleCron  string        `env:"SCHEDULE_CRON" validate:"required"`
	RunRetries    int           `env:"RUN_RETRIES" validate:"gte=0"`
	RunRetryDelay time.Duration `env:"RUN_RETRY_DELAY" validate:"gte=0"`
	RunTimeout    time.Duration `env:"RUN_TIMEOUT" validate:"gt=0"`

	// Run history retention.
	RunsMaxHistory int           // max number of runs kept (0 = unlimited)
	RunsMaxAge     time.Duration // max age of runs (0 = unlimited)

	Port string
}

var validate = newValidator()

// newValidator reports failing fields by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if env := f.Tag.Get("env"); env != "" {
			return env
		}
		return f.Name
	})
	return v
}

// Load reads configuration from the environment (and .env, when present)
// with sensible defaults. Missing credentials fail immediately.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	var err error
	if cfg.WeatherAPIKey, err = requireEnv("WEATHER_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.BucketName, err = requireEnv("S3_BUCKET_NAME"); err != nil {
		return nil, err
	}

	cfg.City = getenvDefault("WEATHER_CITY", "Kansas")
	cfg.APIBaseURL = getenvDefault("WEATHER_API_BASE_URL", "https://api.openweathermap.org")
	cfg.APIPath = getenvDefault("WEATHER_API_PATH", "/data/2.5/weather")
	cfg.DataDir = getenvDefault("LOCAL_DATA_DIR", "./data_files")
	cfg.KeyPrefix = getenvDefault("S3_KEY_PREFIX", "weather_data")
	cfg.AWSRegion = getenvDefault("AWS_REGION", "us-east-1")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.ScheduleCron = getenvDefault("SCHEDULE_CRON", "0 * * * *")
	cfg.Port = getenvDefault("PORT", "8080")

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"HTTP_TIMEOUT", "30s", &cfg.HTTPTimeout},
		{"READINESS_POLL_INTERVAL", "5s", &cfg.PollInterval},
		{"READINESS_TIMEOUT", "20s", &cfg.ReadinessTimeout},
		{"RUN_RETRY_DELAY", "2m", &cfg.RunRetryDelay},
		{"RUN_TIMEOUT", "15m", &cfg.RunTimeout},
		{"RUNS_MAX_AGE", "168h", &cfg.RunsMaxAge},
	}
	for _, d := range durations {
		if *d.dest, err = getenvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	if cfg.RunRetries, err = getenvInt("RUN_RETRIES", 2); err != nil {
		return nil, err
	}
	if cfg.RunsMaxHistory, err = getenvInt("RUNS_MAX_HISTORY", 168); err != nil {
		return nil, err
	}
	if cfg.Replace, err = getenvBool("S3_REPLACE", true); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, &ConfigurationError{Key: fe.Field(), Reason: fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), fe.Value())}
		}
		return nil, &ConfigurationError{Key: "config", Reason: err.Error()}
	}

	return cfg, nil
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", &ConfigurationError{Key: key, Reason: "missing environment variable; set it in .env or the environment"}
	}
	return v, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid integer %q", v)}
	}
	return n, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid boolean %q", v)}
	}
	return b, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid duration %q", v)}
	}
	return d, nil
}
