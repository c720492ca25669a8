package panels

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/sleepsense/sleepview/internal/gui"
	"github.com/sleepsense/sleepview/internal/gui/controllers"
	"github.com/sleepsense/sleepview/internal/gui/state"
	"github.com/sleepsense/sleepview/internal/viewer"
	"github.com/sleepsense/sleepview/internal/viewport"
)

// PlotPanel holds the chart, the scroll slider and the width controls.
type PlotPanel struct {
	controller *controllers.PlotController
	state      *state.AppState

	// UI components
	image   *canvas.Image
	slider  *widget.Slider
	zoomIn  *widget.Button
	zoomOut *widget.Button
	presets []*widget.Button
	unit    *gui.ToggleButton
}

func NewPlotPanel(session *viewer.Session, appState *state.AppState, controller *controllers.PlotController) *PlotPanel {
	panel := &PlotPanel{controller: controller, state: appState}
	panel.createUI(session)
	panel.controller.SetUIComponents(panel.image, panel.slider)
	return panel
}

func (pp *PlotPanel) createUI(session *viewer.Session) {
	pp.image = canvas.NewImageFromImage(nil)
	pp.image.FillMode = canvas.ImageFillContain
	pp.image.ScaleMode = canvas.ImageScaleSmooth
	pp.image.SetMinSize(fyne.NewSize(800, 400))

	pp.slider = widget.NewSlider(0, 1)
	pp.slider.Step = 1
	pp.slider.OnChanged = pp.controller.HandleSlider

	pp.zoomIn = widget.NewButton("Zoom In", pp.controller.HandleZoomIn)
	pp.zoomOut = widget.NewButton("Zoom Out", pp.controller.HandleZoomOut)

	for _, b := range session.Buttons() {
		pp.presets = append(pp.presets, widget.NewButton(b.Label, b.Activate))
	}

	pp.unit = gui.NewToggleButton("Seconds", "Minutes",
		color.NRGBA{R: 0x3b, G: 0x6e, B: 0xa5, A: 0xff},
		color.NRGBA{R: 0x8e, G: 0x44, B: 0xad, A: 0xff})
	pp.unit.Set(session.Unit == viewport.Minutes)
	pp.unit.OnChanged = pp.controller.HandleUnit
}

// GetContent returns the plot card.
func (pp *PlotPanel) GetContent() fyne.CanvasObject {
	controls := container.NewHBox(pp.zoomIn, pp.zoomOut, widget.NewSeparator())
	for _, b := range pp.presets {
		controls.Add(b)
	}
	controls.Add(widget.NewSeparator())
	controls.Add(pp.unit)

	scroll := container.NewBorder(nil, nil,
		widget.NewLabelWithData(pp.state.StartBinding),
		widget.NewLabelWithData(pp.state.EndBinding),
		pp.slider)
	bottom := container.NewVBox(scroll, controls)
	return container.NewBorder(nil, bottom, nil, nil, pp.image)
}
