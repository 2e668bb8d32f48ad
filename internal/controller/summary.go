package controller

import (
	"fmt"
	"strings"

	"github.com/kjstillabower/weather-lookup-app/internal/format"
	"github.com/kjstillabower/weather-lookup-app/internal/models"
)

// FormatSummary renders the current-conditions text shown under the icon.
func FormatSummary(r models.CurrentWeatherReading) string {
	lines := []string{
		fmt.Sprintf("📍 %s, %s", format.Title(r.City), r.Country),
		fmt.Sprintf("🌡 %s°C (Feels like %s°C)", format.Number(r.Temperature), format.Number(r.FeelsLike)),
		fmt.Sprintf("🌤 %s", format.Title(r.Description)),
		fmt.Sprintf("💧 Humidity: %d%%", r.Humidity),
		fmt.Sprintf("💨 Wind: %s m/s", format.Number(r.WindSpeed)),
	}
	return strings.Join(lines, "\n")
}
