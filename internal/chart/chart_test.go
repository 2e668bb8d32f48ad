package chart

import (
	"image"
	"testing"
	"time"

	"github.com/kjstillabower/weather-lookup-app/internal/models"
)

func series(temps ...float64) models.TemperatureSeries {
	start := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	out := make(models.TemperatureSeries, len(temps))
	for i, v := range temps {
		d := start.AddDate(0, 0, i)
		out[i] = models.TemperaturePoint{Date: d, Label: d.Format("Jan 02"), Temperature: v}
	}
	return out
}

// TestRenderTemperatureChart_Empty verifies a series with no points still
// renders the titled frame at the requested size.
func TestRenderTemperatureChart_Empty(t *testing.T) {
	img, err := RenderTemperatureChart(nil, 500, 300)
	if err != nil {
		t.Fatalf("RenderTemperatureChart(nil) error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 500 || b.Dy() != 300 {
		t.Errorf("size = %dx%d, want 500x300", b.Dx(), b.Dy())
	}
}

func TestRenderTemperatureChart_Sizes(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"explicit", 640, 360, 640, 360},
		{"defaults", 0, 0, DefaultWidth, DefaultHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := RenderTemperatureChart(series(12.1, 13.4, 11.0, 14.2, 15), tt.width, tt.height)
			if err != nil {
				t.Fatalf("RenderTemperatureChart() error = %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

// TestRenderTemperatureChart_SinglePoint verifies one day draws its marker:
// the marker color appears in the rendered image.
func TestRenderTemperatureChart_SinglePoint(t *testing.T) {
	img, err := RenderTemperatureChart(series(9.5), 500, 300)
	if err != nil {
		t.Fatalf("single point error = %v", err)
	}
	if !hasBlue(img) {
		t.Error("single point marker not drawn")
	}
}

func TestRenderTemperatureChart_EmptyHasNoMarker(t *testing.T) {
	img, err := RenderTemperatureChart(models.TemperatureSeries{}, 500, 300)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if hasBlue(img) {
		t.Error("empty chart should not draw a series")
	}
}

// hasBlue reports whether any pixel is close to the series color.
func hasBlue(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if bl>>8 > 200 && r>>8 < 120 && g>>8 < 200 {
				return true
			}
		}
	}
	return false
}

func TestRenderTemperatureChart_FlatSeries(t *testing.T) {
	if _, err := RenderTemperatureChart(series(0, 0, 0), 500, 300); err != nil {
		t.Errorf("flat series error = %v", err)
	}
}

func TestPaddedRange(t *testing.T) {
	tests := []struct {
		name   string
		ys     []float64
		lo, hi float64
	}{
		{"spread", []float64{10, 20}, 9, 21},
		{"flat", []float64{5, 5}, 4, 6},
		{"negative", []float64{-3.5, 2}, -5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := paddedRange(tt.ys)
			if lo != tt.lo || hi != tt.hi {
				t.Errorf("paddedRange(%v) = (%v, %v), want (%v, %v)", tt.ys, lo, hi, tt.lo, tt.hi)
			}
		})
	}
}
