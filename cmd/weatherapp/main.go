package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-lookup-app/internal/client"
	"github.com/kjstillabower/weather-lookup-app/internal/config"
	"github.com/kjstillabower/weather-lookup-app/internal/controller"
	httphandler "github.com/kjstillabower/weather-lookup-app/internal/http"
	"github.com/kjstillabower/weather-lookup-app/internal/lifecycle"
	"github.com/kjstillabower/weather-lookup-app/internal/observability"
	"github.com/kjstillabower/weather-lookup-app/internal/ui"
)

const appID = "com.kjstillabower.weatherlookup"

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	weatherClient, err := client.NewOpenWeatherClient(
		cfg.WeatherAPIKey,
		cfg.WeatherAPIBaseURL,
		cfg.WeatherIconURL,
		cfg.WeatherAPITimeout,
		limiter,
	)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}
	geoClient := client.NewIPInfoClient(cfg.GeolocationURL, cfg.WeatherAPITimeout, limiter)

	a := app.NewWithID(appID)
	win := ui.NewWindow(a, cfg.ChartWidth, cfg.ChartHeight, logger)

	ctrl := controller.New(weatherClient, geoClient, win, logger, controller.Options{
		HistoryLimit:  cfg.HistoryLimit,
		CityMaxLength: cfg.CityMaxLength,
		ChartDays:     cfg.ChartDays,
		ChartWidth:    cfg.ChartWidth,
		ChartHeight:   cfg.ChartHeight,
	})
	win.Bind(ctrl)

	var metricsSrv *httphandler.Server
	if cfg.MetricsAddr != "" {
		handler := httphandler.NewHandler(ctrl, httphandler.HealthConfig{
			DegradedWindow:   cfg.HealthDegradedWindow,
			DegradedErrorPct: cfg.HealthDegradedErrorPct,
		}, logger)
		router := httphandler.NewRouter(handler, logger)
		metricsSrv = httphandler.NewServer(cfg.MetricsAddr, router, logger)
		if err := metricsSrv.Start(); err != nil {
			logger.Error("metrics server disabled", zap.Error(err))
			metricsSrv = nil
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		fyne.Do(a.Quit)
	}()

	logger.Info("window starting",
		zap.Int("history_limit", cfg.HistoryLimit),
		zap.Int("chart_days", cfg.ChartDays),
		zap.Bool("rate_limited", limiter != nil))
	lifecycle.Set(lifecycle.Running)
	win.ShowAndRun()
	stop()

	lifecycle.Set(lifecycle.Closing)
	logger.Info("window closed")
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown", zap.Error(err))
		}
		cancel()
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
