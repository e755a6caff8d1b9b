package providers

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
)

// OpenWeatherConfig identifies the current-weather endpoint to poll.
type OpenWeatherConfig struct {
	BaseURL string
	Path    string
	APIKey  string
	City    string
}

// OpenWeatherProvider talks to the OpenWeatherMap current-weather endpoint.
// Ping serves the readiness check and Fetch serves extraction; both hit the
// same URL. Responses are left in Kelvin (no units parameter).
type OpenWeatherProvider struct {
	name    string
	cfg     OpenWeatherConfig
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, cfg OpenWeatherConfig) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		cfg:     cfg,
		client:  client,
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) buildRequest() (*http.Request, error) {
	if p.cfg.APIKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("q", p.cfg.City)
	values.Set("appid", p.cfg.APIKey)

	u := fmt.Sprintf("%s%s?%s", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.Path, values.Encode())
	return http.NewRequest(http.MethodGet, u, nil)
}

// Ping issues one lightweight request and reports whether it succeeded.
func (p *OpenWeatherProvider) Ping(ctx context.Context) error {
	resp, err := doRequest(ctx, "ping "+p.name, p.client, p.circuit, p.buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Fetch issues exactly one GET and returns the raw response body.
func (p *OpenWeatherProvider) Fetch(ctx context.Context) ([]byte, error) {
	op := "fetch " + p.name
	resp, err := doRequest(ctx, op, p.client, p.circuit, p.buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HTTPError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	log.Printf("DEBUG: %s response for %s: %s", p.name, p.cfg.City, string(body))
	return body, nil
}
