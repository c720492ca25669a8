package controllers

import (
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/gui/state"
	"github.com/sleepsense/sleepview/internal/render"
	"github.com/sleepsense/sleepview/internal/viewer"
	"github.com/sleepsense/sleepview/internal/viewport"
)

// PlotController connects the plot widgets to a viewer session. All methods
// except Extended must run on the fyne main goroutine.
type PlotController struct {
	logger  *zap.Logger
	session *viewer.Session
	state   *state.AppState
	redraw  *render.Coalescer

	// UI components
	image   *canvas.Image
	slider  *widget.Slider
	syncing bool
	frames  int
}

func NewPlotController(logger *zap.Logger, session *viewer.Session, appState *state.AppState, redrawEvery time.Duration) *PlotController {
	pc := &PlotController{
		logger:  logger,
		session: session,
		state:   appState,
	}
	pc.redraw = render.NewCoalescer(redrawEvery, pc.scheduleDraw)
	session.OnRender(pc.handleRender)
	return pc
}

// SetUIComponents sets the widgets this controller drives.
func (pc *PlotController) SetUIComponents(image *canvas.Image, slider *widget.Slider) {
	pc.image = image
	pc.slider = slider
	pc.syncSlider()
}

// handleRender receives every distinct render command.
func (pc *PlotController) handleRender(cmd render.Command) {
	pc.state.SetStatus(cmd.Status)
	from, to := pc.session.AxisLabels()
	pc.state.SetRange(from, to, pc.session.Unit.String())
	pc.syncSlider()
	pc.redraw.Request()
}

// scheduleDraw runs on the coalescer's goroutine.
func (pc *PlotController) scheduleDraw() {
	fyne.Do(pc.Draw)
}

// Draw renders the current command into the image widget.
func (pc *PlotController) Draw() {
	if pc.image == nil {
		return
	}
	img, err := pc.session.Frame(pc.session.Current())
	if err != nil {
		pc.logger.Debug("Frame not drawn", zap.Error(err))
	}
	pc.image.Image = img
	pc.image.Refresh()
	pc.frames++
}

func (pc *PlotController) syncSlider() {
	if pc.slider == nil {
		return
	}
	st := pc.session.Controller.State()
	pc.syncing = true
	pc.slider.Min = 0
	pc.slider.Max = float64(max(st.MaxTick, 1))
	pc.slider.SetValue(float64(st.Tick))
	pc.syncing = false
}

// HandleSlider maps a slider move to a scroll.
func (pc *PlotController) HandleSlider(value float64) {
	if pc.syncing {
		return
	}
	pc.session.Controller.Dispatch(viewport.ScrollEvent{Tick: int(value)})
}

func (pc *PlotController) HandleZoomIn() {
	pc.session.Controller.Dispatch(viewport.ZoomEvent{})
}

func (pc *PlotController) HandleZoomOut() {
	pc.session.Controller.Dispatch(viewport.ZoomEvent{Out: true})
}

// HandleUnit switches axis labels between seconds and minutes.
func (pc *PlotController) HandleUnit(minutes bool) {
	if (pc.session.Unit == viewport.Minutes) != minutes {
		pc.session.ToggleUnit()
	}
	from, to := pc.session.AxisLabels()
	pc.state.SetRange(from, to, pc.session.Unit.String())
}

// HandleKey maps arrow and zoom keys.
func (pc *PlotController) HandleKey(ev *fyne.KeyEvent) {
	c := pc.session.Controller
	st := c.State()
	switch ev.Name {
	case fyne.KeyLeft:
		c.Dispatch(viewport.ScrollEvent{Tick: c.TimeToTick(st.Offset - st.Width*0.1)})
	case fyne.KeyRight:
		c.Dispatch(viewport.ScrollEvent{Tick: c.TimeToTick(st.Offset + st.Width*0.1)})
	case fyne.KeyHome:
		c.Dispatch(viewport.ScrollEvent{Tick: 0})
	case fyne.KeyEnd:
		c.Dispatch(viewport.ScrollEvent{Tick: c.MaxTick()})
	case fyne.KeyPlus, fyne.KeyEqual:
		pc.HandleZoomIn()
	case fyne.KeyMinus:
		pc.HandleZoomOut()
	}
}

// Extended is called from the ingest goroutine.
func (pc *PlotController) Extended(start, end float64) {
	fyne.Do(func() {
		pc.session.Extended(start, end)
		pc.state.SetSource(pc.session.Store.Source(), pc.session.Store.Snapshot().Len())
	})
}

// Refresh forces a status update and a redraw.
func (pc *PlotController) Refresh() {
	pc.session.Refresh()
}

func (pc *PlotController) Close() {
	pc.redraw.Close()
}
