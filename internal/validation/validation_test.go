package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateCity_EmptyAndWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tab", "\t"},
		{"mixed", " \t\n "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input, 100)
			if !errors.Is(err, ErrCityEmpty) {
				t.Errorf("error = %v, want ErrCityEmpty", err)
			}
		})
	}
}

func TestValidateCity_TooLong(t *testing.T) {
	_, err := ValidateCity(strings.Repeat("a", 101), 100)
	if !errors.Is(err, ErrCityTooLong) {
		t.Errorf("error = %v, want ErrCityTooLong", err)
	}
}

func TestValidateCity_NoMaxLength(t *testing.T) {
	if _, err := ValidateCity(strings.Repeat("a", 500), 0); err != nil {
		t.Errorf("unexpected error with maxLen 0: %v", err)
	}
}

func TestValidateCity_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"control", "lon\tdon"},
		{"query", "london?x=1"},
		{"ampersand", "london&appid=x"},
		{"semicolon", "paris;"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCity(tc.input, 100)
			if !errors.Is(err, ErrCityInvalidChars) {
				t.Errorf("error = %v, want ErrCityInvalidChars", err)
			}
		})
	}
}

func TestValidateCity_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"London", "London"},
		{"  london  ", "london"},
		{"London, GB", "London, GB"},
		{"St. John's", "St. John's"},
		{"Winston-Salem", "Winston-Salem"},
		{"São Paulo", "São Paulo"},
		{"東京", "東京"},
		{"Frankfurt (Oder)", "Frankfurt (Oder)"},
		{"Halle/Saale", "Halle/Saale"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ValidateCity(tc.input, 100)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ValidateCity(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
