package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-lookup-app/internal/models"
)

// ErrCityNotDetected is returned when the geolocation answer has no city.
var ErrCityNotDetected = errors.New("could not detect city")

const DefaultGeolocationURL = "https://ipinfo.io/json"

// GeoLocator resolves the caller's network-visible address to a location.
type GeoLocator interface {
	Lookup(ctx context.Context) (models.GeoLocation, error)
}

// IPInfoClient queries an ipinfo.io-compatible endpoint.
type IPInfoClient struct {
	url    string
	getter *getter
}

func NewIPInfoClient(url string, timeout time.Duration, limiter *rate.Limiter) *IPInfoClient {
	if url == "" {
		url = DefaultGeolocationURL
	}
	return &IPInfoClient{url: url, getter: newGetter(timeout, limiter)}
}

// Lookup returns the detected location. A blank or missing city is ErrCityNotDetected.
func (c *IPInfoClient) Lookup(ctx context.Context) (models.GeoLocation, error) {
	body, status, err := c.getter.get(ctx, endpointGeolocation, c.url, nil, "application/json")
	if err != nil {
		return models.GeoLocation{}, err
	}
	if status < 200 || status >= 300 {
		return models.GeoLocation{}, fmt.Errorf("%w: geolocation HTTP %d", ErrUpstreamFailure, status)
	}

	var loc models.GeoLocation
	if err := json.Unmarshal(body, &loc); err != nil {
		return models.GeoLocation{}, fmt.Errorf("parse geolocation: %w", err)
	}
	loc.City = strings.TrimSpace(loc.City)
	if loc.City == "" {
		return loc, ErrCityNotDetected
	}
	return loc, nil
}
