package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func newGeoServer(t *testing.T, status int, body interface{}) *httptest.Server {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/json", func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(w, status, body)
	}).Methods("GET")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestIPInfoClient_Lookup(t *testing.T) {
	server := newGeoServer(t, http.StatusOK, map[string]interface{}{
		"ip": "203.0.113.7", "city": "Lisbon", "region": "Lisbon", "country": "PT", "loc": "38.7167,-9.1333",
	})
	c := NewIPInfoClient(server.URL+"/json", time.Second, nil)

	got, err := c.Lookup(context.Background())
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.City != "Lisbon" || got.Country != "PT" {
		t.Errorf("Lookup() = %+v", got)
	}
}

func TestIPInfoClient_Lookup_NoCity(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing", map[string]interface{}{"ip": "203.0.113.7"}},
		{"blank", map[string]interface{}{"ip": "203.0.113.7", "city": "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newGeoServer(t, http.StatusOK, tt.body)
			c := NewIPInfoClient(server.URL+"/json", time.Second, nil)
			_, err := c.Lookup(context.Background())
			if !errors.Is(err, ErrCityNotDetected) {
				t.Errorf("error = %v, want ErrCityNotDetected", err)
			}
		})
	}
}

func TestIPInfoClient_Lookup_UpstreamError(t *testing.T) {
	server := newGeoServer(t, http.StatusServiceUnavailable, map[string]interface{}{"error": "down"})
	c := NewIPInfoClient(server.URL+"/json", time.Second, nil)

	_, err := c.Lookup(context.Background())
	if !errors.Is(err, ErrUpstreamFailure) {
		t.Errorf("error = %v, want ErrUpstreamFailure", err)
	}
}

func TestIPInfoClient_DefaultURL(t *testing.T) {
	c := NewIPInfoClient("", 0, nil)
	if c.url != DefaultGeolocationURL {
		t.Errorf("url = %q, want %q", c.url, DefaultGeolocationURL)
	}
}
