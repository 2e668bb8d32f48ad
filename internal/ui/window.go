package ui

import (
	"context"
	"image"
	"strings"
	"sync/atomic"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

const (
	WindowTitle  = "Weather App with Auto-Detect & Chart"
	windowWidth  = 600
	windowHeight = 650
)

// Actions is what the buttons trigger. Both calls block until the pass is done.
type Actions interface {
	FetchWeather(ctx context.Context, city string) error
	DetectLocalCity(ctx context.Context) error
}

// Window is the single app window. Its exported show/set methods implement
// the controller's view and may be called from any goroutine.
type Window struct {
	win    fyne.Window
	logger *zap.Logger

	entry      *widget.Entry
	getBtn     *widget.Button
	locateBtn  *widget.Button
	icon       *canvas.Image
	result     *widget.Label
	historyBox *widget.Label
	chart      *canvas.Image

	actions Actions
	busy    atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	// done is signalled after each action finishes; nil outside tests.
	done chan struct{}
}

// NewWindow builds the window on app a. Call Bind before showing it.
func NewWindow(a fyne.App, chartWidth, chartHeight int, logger *zap.Logger) *Window {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Window{
		win:    a.NewWindow(WindowTitle),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	w.entry = widget.NewEntry()
	w.entry.SetPlaceHolder("e.g. London")
	w.entry.OnSubmitted = func(string) { w.onGetWeather() }

	w.getBtn = widget.NewButtonWithIcon("Get Weather", theme.SearchIcon(), w.onGetWeather)
	w.locateBtn = widget.NewButtonWithIcon("Use My Location", theme.HomeIcon(), w.onUseMyLocation)

	w.icon = canvas.NewImageFromImage(nil)
	w.icon.FillMode = canvas.ImageFillContain
	w.icon.SetMinSize(fyne.NewSize(100, 100))

	w.result = widget.NewLabel("")
	w.historyBox = widget.NewLabel("")

	w.chart = canvas.NewImageFromImage(nil)
	w.chart.FillMode = canvas.ImageFillContain
	w.chart.SetMinSize(fyne.NewSize(float32(chartWidth), float32(chartHeight)))
	w.chart.Hide()

	content := container.NewVBox(
		widget.NewLabelWithStyle("Enter City Name:", fyne.TextAlignCenter, fyne.TextStyle{}),
		w.entry,
		container.NewCenter(container.NewHBox(w.getBtn, w.locateBtn)),
		container.NewCenter(w.icon),
		container.NewCenter(w.result),
		widget.NewLabelWithStyle("Recent Searches:", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		container.NewCenter(w.historyBox),
		container.NewCenter(w.chart),
	)
	w.win.SetContent(content)
	w.win.Resize(fyne.NewSize(windowWidth, windowHeight))
	w.win.SetFixedSize(true)
	w.win.SetOnClosed(w.cancel)
	return w
}

// Bind attaches the button actions.
func (w *Window) Bind(actions Actions) {
	w.actions = actions
}

// ShowAndRun shows the window and runs the app event loop until it closes.
func (w *Window) ShowAndRun() {
	w.win.ShowAndRun()
}

func (w *Window) onGetWeather() {
	city := w.entry.Text
	w.run("fetch_weather", func(ctx context.Context) error {
		return w.actions.FetchWeather(ctx, city)
	})
}

func (w *Window) onUseMyLocation() {
	w.run("detect_city", func(ctx context.Context) error {
		return w.actions.DetectLocalCity(ctx)
	})
}

// run executes one action off the UI thread. Buttons stay disabled until it
// returns so actions never overlap.
func (w *Window) run(name string, fn func(ctx context.Context) error) {
	if w.actions == nil || !w.busy.CompareAndSwap(false, true) {
		return
	}
	w.setButtonsEnabled(false)

	go func() {
		defer func() {
			fyne.Do(func() {
				w.setButtonsEnabled(true)
				w.busy.Store(false)
				if w.done != nil {
					w.done <- struct{}{}
				}
			})
		}()
		if err := fn(w.ctx); err != nil {
			w.logger.Debug("action finished with error", zap.String("action", name), zap.Error(err))
		}
	}()
}

func (w *Window) setButtonsEnabled(enabled bool) {
	for _, b := range []*widget.Button{w.getBtn, w.locateBtn} {
		if enabled {
			b.Enable()
		} else {
			b.Disable()
		}
	}
}

func (w *Window) SetCityInput(city string) {
	fyne.Do(func() { w.entry.SetText(city) })
}

func (w *Window) ShowIcon(img image.Image) {
	fyne.Do(func() {
		w.icon.Image = img
		w.icon.Refresh()
	})
}

func (w *Window) ShowSummary(text string) {
	fyne.Do(func() { w.result.SetText(text) })
}

func (w *Window) ShowHistory(entries []string) {
	text := strings.Join(entries, "\n")
	fyne.Do(func() { w.historyBox.SetText(text) })
}

func (w *Window) ShowChart(img image.Image) {
	fyne.Do(func() {
		w.chart.Image = img
		w.chart.Show()
		w.chart.Refresh()
	})
}

func (w *Window) ClearChart() {
	fyne.Do(func() {
		w.chart.Image = nil
		w.chart.Hide()
	})
}

func (w *Window) ShowWarning(title, message string) {
	fyne.Do(func() { w.showDialog(title, message, theme.WarningIcon()) })
}

func (w *Window) ShowError(title, message string) {
	fyne.Do(func() { w.showDialog(title, message, theme.ErrorIcon()) })
}

func (w *Window) showDialog(title, message string, icon fyne.Resource) {
	dialog.NewCustom(title, "OK", dialogContent(message, icon), w.win).Show()
}

func dialogContent(message string, icon fyne.Resource) *fyne.Container {
	return container.NewHBox(widget.NewIcon(icon), widget.NewLabel(message))
}
