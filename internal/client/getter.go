package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-lookup-app/internal/observability"
	"github.com/kjstillabower/weather-lookup-app/internal/traffic"
)

// Metric label values for the upstream endpoints.
const (
	endpointCurrent     = "current"
	endpointIcon        = "icon"
	endpointHistory     = "history"
	endpointGeolocation = "geolocation"
)

// getter performs one paced, timed, instrumented GET. No retries.
// The per-call deadline lives on the request context so timeouts always
// surface as context.DeadlineExceeded.
type getter struct {
	client  *http.Client
	timeout time.Duration
	limiter *rate.Limiter
}

func newGetter(timeout time.Duration, limiter *rate.Limiter) *getter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &getter{
		client:  &http.Client{},
		timeout: timeout,
		limiter: limiter,
	}
}

// get returns the body and status code. Transport failures are errors; HTTP
// error statuses are not, since each endpoint interprets them differently.
func (g *getter) get(ctx context.Context, endpoint, rawURL string, params url.Values, accept string) ([]byte, int, error) {
	if g.limiter != nil {
		waitStart := time.Now()
		if err := g.limiter.Wait(ctx); err != nil {
			observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
			return nil, 0, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		observability.RateLimitWaitSeconds.Observe(time.Since(waitStart).Seconds())
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid API URL: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u.String(), nil)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if corrID := CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.WeatherAPIDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		traffic.RecordError()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, 0, fmt.Errorf("request timeout: %w", err)
		}
		return nil, 0, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body)
	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(endpoint, status).Observe(time.Since(start).Seconds())
	if resp.StatusCode >= 500 {
		traffic.RecordError()
	} else {
		traffic.RecordSuccess()
	}
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
