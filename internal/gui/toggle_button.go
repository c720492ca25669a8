package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

// ToggleButton is a two-state button with its own label and color per state.
// It drives the seconds/minutes axis toggle.
type ToggleButton struct {
	widget.BaseWidget
	on        bool
	offText   string
	onText    string
	offColor  color.Color
	onColor   color.Color
	OnChanged func(bool)
}

func NewToggleButton(offText, onText string, offColor, onColor color.Color) *ToggleButton {
	tb := &ToggleButton{
		offText:  offText,
		onText:   onText,
		offColor: offColor,
		onColor:  onColor,
	}
	tb.ExtendBaseWidget(tb)
	return tb
}

type toggleRenderer struct {
	tb   *ToggleButton
	rect *canvas.Rectangle
	txt  *canvas.Text
	obj  *fyne.Container
}

func (r *toggleRenderer) Layout(size fyne.Size) {
	r.obj.Resize(size)
	r.rect.Resize(size)
	r.txt.Move(fyne.NewPos(12, (size.Height-r.txt.MinSize().Height)/2))
}

func (r *toggleRenderer) MinSize() fyne.Size {
	return r.obj.MinSize().Add(fyne.NewSize(24, 8))
}

func (r *toggleRenderer) Refresh() {
	r.rect.FillColor, r.txt.Text = r.tb.offColor, r.tb.offText
	if r.tb.on {
		r.rect.FillColor, r.txt.Text = r.tb.onColor, r.tb.onText
	}
	r.rect.Refresh()
	r.txt.Refresh()
}

func (r *toggleRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.rect, r.txt}
}

func (r *toggleRenderer) Destroy() {}

func (tb *ToggleButton) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(tb.offColor)
	txt := canvas.NewText(tb.offText, color.White)
	txt.TextSize = 14
	cont := container.New(layout.NewStackLayout(), rect, txt)
	r := &toggleRenderer{tb: tb, rect: rect, txt: txt, obj: cont}
	r.Refresh()
	return r
}

func (tb *ToggleButton) Tapped(*fyne.PointEvent) {
	tb.on = !tb.on
	tb.Refresh()
	if tb.OnChanged != nil {
		tb.OnChanged(tb.on)
	}
}

// Set changes the state without calling OnChanged.
func (tb *ToggleButton) Set(on bool) {
	tb.on = on
	tb.Refresh()
}

func (tb *ToggleButton) On() bool {
	return tb.on
}
