package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/kjstillabower/weather-lookup-app/internal/models"
)

const (
	Title     = "Last 5 Days Temp (°C)"
	YAxisName = "Temperature"

	DefaultWidth  = 500
	DefaultHeight = 300

	// y range of a chart with no points.
	emptyMin = 0
	emptyMax = 10
)

var gridStyle = gochart.Style{
	StrokeColor: drawing.ColorFromHex("d9d9d9"),
	StrokeWidth: 1.0,
}

// RenderTemperatureChart draws series as a line with point markers: day labels
// on x, temperature on y, major grid on both axes. The series must already be
// in display order. An empty series renders the titled, gridded frame alone.
// Width or height <= 0 uses the defaults.
func RenderTemperatureChart(series models.TemperatureSeries, width, height int) (image.Image, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	// go-chart takes the x range from the ticks, so unlabeled ticks half a
	// slot outside the data keep it non-zero for one point and for none.
	slots := max(len(series), 1)
	ticks := []gochart.Tick{{Value: -0.5}}
	xs := make([]float64, len(series))
	for i, label := range series.Labels() {
		xs[i] = float64(i)
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: label})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(slots) - 0.5})

	ys := series.Temperatures()
	yMin, yMax := float64(emptyMin), float64(emptyMax)
	if len(ys) > 0 {
		yMin, yMax = paddedRange(ys)
	}

	var plotted gochart.Series
	if len(series) > 0 {
		plotted = gochart.ContinuousSeries{
			Name:    "temperature",
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: gochart.ColorBlue,
				StrokeWidth: 2,
				DotColor:    gochart.ColorBlue,
				DotWidth:    4,
			},
		}
	} else {
		plotted = gochart.ContinuousSeries{
			Name:    "frame",
			XValues: []float64{-0.5, 0.5},
			YValues: []float64{yMin, yMin},
			Style: gochart.Style{
				StrokeColor: drawing.ColorTransparent,
				StrokeWidth: 1,
			},
		}
	}

	ch := gochart.Chart{
		Title:  Title,
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 30, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: gochart.XAxis{
			Ticks:          ticks,
			GridMajorStyle: gridStyle,
			GridMinorStyle: gridStyle,
		},
		YAxis: gochart.YAxis{
			Name:           YAxisName,
			Range:          &gochart.ContinuousRange{Min: yMin, Max: yMax},
			GridMajorStyle: gridStyle,
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f", f)
				}
				return ""
			},
		},
		Series: []gochart.Series{plotted},
	}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	return img, nil
}

// paddedRange returns a y range with headroom around the data. A flat series
// gets +/-1 so the range is never zero-width.
func paddedRange(ys []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	return math.Floor(lo - pad), math.Ceil(hi + pad)
}
