package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-lookup-app/internal/models"
)

// WeatherClient is the upstream weather API as the lookup controller sees it.
type WeatherClient interface {
	GetCurrentWeather(ctx context.Context, city string) (models.CurrentWeatherReading, error)
	GetIcon(ctx context.Context, iconID string) ([]byte, error)
	// GetHistoricalTemperature returns ok=false when the answer carries no current reading.
	GetHistoricalTemperature(ctx context.Context, lat, lon float64, at time.Time) (temp float64, ok bool, err error)
}

var (
	ErrInvalidAPIKey   = errors.New("invalid API key")
	ErrCityNotFound    = errors.New("city not found")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
)

const (
	DefaultBaseURL = "https://api.openweathermap.org"
	DefaultIconURL = "https://openweathermap.org"

	currentWeatherPath = "/data/2.5/weather"
	timeMachinePath    = "/data/2.5/onecall/timemachine"

	// maxBodyBytes bounds every upstream body; icons are a few KB.
	maxBodyBytes = 1 << 20
)

type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	iconURL string
	getter  *getter
}

// NewOpenWeatherClient builds a client for the current-weather, icon and
// time-machine endpoints. limiter may be nil to send calls unpaced.
func NewOpenWeatherClient(apiKey, baseURL, iconURL string, timeout time.Duration, limiter *rate.Limiter) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if iconURL == "" {
		iconURL = DefaultIconURL
	}

	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		iconURL: strings.TrimRight(iconURL, "/"),
		getter:  newGetter(timeout, limiter),
	}, nil
}

type currentWeatherResponse struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Coord   struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Name string `json:"name"`
}

type timeMachineResponse struct {
	Cod     json.RawMessage `json:"cod"`
	Message string          `json:"message"`
	Current *struct {
		Temp *float64 `json:"temp"`
	} `json:"current"`
}

// GetCurrentWeather looks up current conditions by free-text city name.
// Any answer other than a success status with cod 200 is ErrCityNotFound;
// a 401 additionally wraps ErrInvalidAPIKey so callers can log the real cause.
func (c *OpenWeatherClient) GetCurrentWeather(ctx context.Context, city string) (models.CurrentWeatherReading, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	body, status, err := c.getter.get(ctx, endpointCurrent, c.baseURL+currentWeatherPath, params, "application/json")
	if err != nil {
		return models.CurrentWeatherReading{}, err
	}

	var apiResp currentWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		if status < 200 || status >= 300 {
			return models.CurrentWeatherReading{}, notFoundError(status, 0, "")
		}
		return models.CurrentWeatherReading{}, fmt.Errorf("parse current weather: %w", err)
	}

	cod, codOK := parseCod(apiResp.Cod)
	if status < 200 || status >= 300 || !codOK || cod != http.StatusOK {
		return models.CurrentWeatherReading{}, notFoundError(status, cod, apiResp.Message)
	}
	if len(apiResp.Weather) == 0 {
		return models.CurrentWeatherReading{}, fmt.Errorf("parse current weather: no weather entries")
	}

	return models.CurrentWeatherReading{
		City:        city,
		Description: apiResp.Weather[0].Description,
		Temperature: apiResp.Main.Temp,
		FeelsLike:   apiResp.Main.FeelsLike,
		Humidity:    apiResp.Main.Humidity,
		WindSpeed:   apiResp.Wind.Speed,
		Country:     apiResp.Sys.Country,
		IconID:      apiResp.Weather[0].Icon,
		Latitude:    apiResp.Coord.Lat,
		Longitude:   apiResp.Coord.Lon,
	}, nil
}

// GetIcon fetches the 2x PNG for a weather icon id (e.g. "04d").
func (c *OpenWeatherClient) GetIcon(ctx context.Context, iconID string) ([]byte, error) {
	if strings.TrimSpace(iconID) == "" {
		return nil, fmt.Errorf("icon id is empty")
	}
	u := fmt.Sprintf("%s/img/wn/%s@2x.png", c.iconURL, url.PathEscape(iconID))

	body, status, err := c.getter.get(ctx, endpointIcon, u, nil, "image/png")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: icon HTTP %d", ErrUpstreamFailure, status)
	}
	return body, nil
}

// GetHistoricalTemperature asks the time-machine endpoint for the reading at `at`.
// Answers without a current temperature (including the provider's refusal
// bodies) are reported as ok=false, not as errors. A body that is not JSON is an error.
func (c *OpenWeatherClient) GetHistoricalTemperature(ctx context.Context, lat, lon float64, at time.Time) (float64, bool, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("dt", strconv.FormatInt(at.Unix(), 10))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	body, _, err := c.getter.get(ctx, endpointHistory, c.baseURL+timeMachinePath, params, "application/json")
	if err != nil {
		return 0, false, err
	}

	var apiResp timeMachineResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return 0, false, fmt.Errorf("parse historical weather: %w", err)
	}
	if apiResp.Current == nil || apiResp.Current.Temp == nil {
		return 0, false, nil
	}
	return *apiResp.Current.Temp, true, nil
}

func notFoundError(status, cod int, message string) error {
	detail := fmt.Sprintf("HTTP %d", status)
	if cod != 0 && cod != status {
		detail += fmt.Sprintf(", cod %d", cod)
	}
	if message != "" {
		detail += ": " + message
	}
	if status == http.StatusUnauthorized || cod == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w: %s", ErrCityNotFound, ErrInvalidAPIKey, detail)
	}
	if status == http.StatusTooManyRequests || cod == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w: %s", ErrCityNotFound, ErrRateLimited, detail)
	}
	return fmt.Errorf("%w: %s", ErrCityNotFound, detail)
}

// parseCod reads the API's cod field, which is a number on success and a string on errors.
func parseCod(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	s := strings.Trim(string(raw), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

type ctxKey struct{}

// WithCorrelationID attaches an id sent as X-Correlation-ID on every upstream call made with ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// CorrelationID returns the id attached by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

func readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
