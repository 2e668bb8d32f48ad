package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-lookup-app/internal/chart"
	"github.com/kjstillabower/weather-lookup-app/internal/client"
	"github.com/kjstillabower/weather-lookup-app/internal/history"
	"github.com/kjstillabower/weather-lookup-app/internal/models"
	"github.com/kjstillabower/weather-lookup-app/internal/observability"
	"github.com/kjstillabower/weather-lookup-app/internal/validation"
)

// View is the window the controller drives. Implementations must accept
// calls from a non-UI goroutine.
type View interface {
	SetCityInput(city string)
	ShowIcon(img image.Image)
	ShowSummary(text string)
	ShowHistory(entries []string)
	ShowChart(img image.Image)
	ClearChart()
	ShowWarning(title, message string)
	ShowError(title, message string)
}

// Dialog titles and fixed messages.
const (
	TitleInputError = "Input Error"
	TitleError      = "Error"
	TitleChartError = "Chart Error"

	msgEnterCity     = "Please enter a city name."
	msgNoCity        = "Could not detect city."
	dayLabelLayout   = "Jan 02"
	defaultChartDays = 5
)

// Options tunes the controller. Zero values fall back to the defaults.
type Options struct {
	HistoryLimit  int
	CityMaxLength int
	ChartDays     int
	ChartWidth    int
	ChartHeight   int
	// Location is the zone whose midnights bound the trailing days. Defaults to time.Local.
	Location *time.Location
	Now      func() time.Time
}

// RenderFunc draws a temperature series into an image.
type RenderFunc func(series models.TemperatureSeries, width, height int) (image.Image, error)

// WeatherLookupController runs the lookups behind the window's buttons.
// Each operation is one best-effort pass: the first failure is shown in a
// dialog and ends the pass. Nothing is retried.
type WeatherLookupController struct {
	weather client.WeatherClient
	geo     client.GeoLocator
	view    View
	history *history.SearchHistory
	logger  *zap.Logger
	render  RenderFunc

	cityMaxLength int
	chartDays     int
	chartWidth    int
	chartHeight   int
	location      *time.Location
	now           func() time.Time
}

func New(weather client.WeatherClient, geo client.GeoLocator, view View, logger *zap.Logger, opts Options) *WeatherLookupController {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ChartDays <= 0 {
		opts.ChartDays = defaultChartDays
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &WeatherLookupController{
		weather:       weather,
		geo:           geo,
		view:          view,
		history:       history.New(opts.HistoryLimit),
		logger:        logger,
		render:        chart.RenderTemperatureChart,
		cityMaxLength: opts.CityMaxLength,
		chartDays:     opts.ChartDays,
		chartWidth:    opts.ChartWidth,
		chartHeight:   opts.ChartHeight,
		location:      opts.Location,
		now:           opts.Now,
	}
}

// SetRenderer replaces the chart renderer. Used by tests.
func (c *WeatherLookupController) SetRenderer(fn RenderFunc) {
	c.render = fn
}

// History returns the recent searches, most recent first.
func (c *WeatherLookupController) History() []string {
	return c.history.Entries()
}

// HistoryLimit is the most entries History will hold.
func (c *WeatherLookupController) HistoryLimit() int {
	return c.history.Limit()
}

// DetectLocalCity resolves the city from the network address, puts it in the
// input field and looks it up.
func (c *WeatherLookupController) DetectLocalCity(ctx context.Context) error {
	logger := c.logger.With(zap.String("operation", "detect_city"))

	loc, err := c.geo.Lookup(ctx)
	if err != nil {
		observability.RecordLookup("detect_city", "error")
		logger.Warn("auto-detect failed", zap.Error(err), zap.String("category", string(client.CategorizeError(err))))
		if errors.Is(err, client.ErrCityNotDetected) {
			c.view.ShowError(TitleError, msgNoCity)
		} else {
			c.view.ShowError(TitleError, fmt.Sprintf("Auto-detect failed:\n%v", err))
		}
		return err
	}

	observability.RecordLookup("detect_city", "success")
	logger.Info("city detected", zap.String("city", loc.City), zap.String("country", loc.Country))
	c.view.SetCityInput(loc.City)
	return c.FetchWeather(ctx, loc.City)
}

// FetchWeather looks up current conditions for input and, on success, shows
// the icon and summary, records the city in the history and refreshes the
// chart. A chart failure is reported separately and does not fail the lookup.
func (c *WeatherLookupController) FetchWeather(ctx context.Context, input string) error {
	corrID := uuid.New().String()
	ctx = client.WithCorrelationID(ctx, corrID)
	logger := c.logger.With(zap.String("correlation_id", corrID))
	start := time.Now()

	city, err := validation.ValidateCity(input, c.cityMaxLength)
	if err != nil {
		observability.RecordLookup("fetch_weather", "validation")
		logger.Debug("city rejected", zap.String("input", input), zap.Error(err))
		c.view.ShowWarning(TitleInputError, c.validationMessage(err))
		return err
	}
	logger = logger.With(zap.String("city", city))

	reading, err := c.weather.GetCurrentWeather(ctx, city)
	if err != nil {
		return c.lookupFailed(logger, city, err)
	}

	img, err := c.fetchIcon(ctx, reading.IconID)
	if err != nil {
		return c.lookupFailed(logger, city, err)
	}
	c.view.ShowIcon(img)
	c.view.ShowSummary(FormatSummary(reading))

	if c.history.Add(city) {
		c.view.ShowHistory(c.history.Entries())
	}
	observability.HistorySize.Set(float64(c.history.Len()))

	observability.RecordLookup("fetch_weather", "success")
	logger.Info("weather shown",
		zap.String("country", reading.Country),
		zap.Float64("temp", reading.Temperature),
		zap.Duration("duration", time.Since(start)))

	_ = c.RefreshTemperatureChart(ctx, reading.Latitude, reading.Longitude)
	return nil
}

// RefreshTemperatureChart fetches the temperature at local midnight for each
// trailing day (today first), drops days without a reading, and replaces the
// chart with the remaining points in chronological order. With no points left
// the chart is an empty titled frame; that is not an error.
func (c *WeatherLookupController) RefreshTemperatureChart(ctx context.Context, lat, lon float64) error {
	logger := c.logger.With(zap.String("operation", "chart"))
	if corrID := client.CorrelationID(ctx); corrID != "" {
		logger = logger.With(zap.String("correlation_id", corrID))
	}

	today := c.now().In(c.location)
	series := make(models.TemperatureSeries, 0, c.chartDays)
	for i := 0; i < c.chartDays; i++ {
		day := time.Date(today.Year(), today.Month(), today.Day()-i, 0, 0, 0, 0, c.location)
		temp, ok, err := c.weather.GetHistoricalTemperature(ctx, lat, lon, day)
		if err != nil {
			return c.chartFailed(logger, err)
		}
		if !ok {
			observability.ChartDaysMissingTotal.Inc()
			logger.Debug("no temperature for day", zap.Time("day", day))
			continue
		}
		series = append(series, models.TemperaturePoint{
			Date:        day,
			Label:       day.Format(dayLabelLayout),
			Temperature: temp,
		})
	}
	slices.Reverse(series)
	if len(series) == 0 {
		logger.Debug("no temperatures for any day", zap.Int("days", c.chartDays))
	}

	c.view.ClearChart()
	img, err := c.render(series, c.chartWidth, c.chartHeight)
	if err != nil {
		return c.chartFailed(logger, err)
	}
	c.view.ShowChart(img)

	observability.RecordLookup("chart", "success")
	logger.Debug("chart rendered", zap.Int("points", len(series)))
	return nil
}

func (c *WeatherLookupController) fetchIcon(ctx context.Context, iconID string) (image.Image, error) {
	raw, err := c.weather.GetIcon(ctx, iconID)
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode icon %s: %w", iconID, err)
	}
	return img, nil
}

func (c *WeatherLookupController) lookupFailed(logger *zap.Logger, city string, err error) error {
	category := client.CategorizeError(err)
	if errors.Is(err, client.ErrCityNotFound) {
		observability.RecordLookup("fetch_weather", "not_found")
		logger.Warn("city not found", zap.Error(err), zap.String("category", string(category)))
		c.view.ShowError(TitleError, "City not found: "+city)
		return err
	}
	observability.RecordLookup("fetch_weather", "error")
	logger.Error("weather lookup failed", zap.Error(err), zap.String("category", string(category)))
	c.view.ShowError(TitleError, fmt.Sprintf("Something went wrong:\n%v", err))
	return err
}

func (c *WeatherLookupController) chartFailed(logger *zap.Logger, err error) error {
	observability.RecordLookup("chart", "error")
	logger.Warn("chart refresh failed", zap.Error(err), zap.String("category", string(client.CategorizeError(err))))
	c.view.ShowError(TitleChartError, fmt.Sprintf("Failed to load chart:\n%v", err))
	return err
}

func (c *WeatherLookupController) validationMessage(err error) string {
	switch {
	case errors.Is(err, validation.ErrCityEmpty):
		return msgEnterCity
	case errors.Is(err, validation.ErrCityTooLong):
		return fmt.Sprintf("City name must be at most %d characters.", c.cityMaxLength)
	case errors.Is(err, validation.ErrCityInvalidChars):
		return "City name may only contain letters, digits, spaces and , - . ' ( ) /"
	default:
		return err.Error()
	}
}
