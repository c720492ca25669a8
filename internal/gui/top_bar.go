package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"
)

// CreateTopBar shows the render status and the visible range.
func CreateTopBar(statusBinding, rangeBinding binding.String) fyne.CanvasObject {
	statusLabel := widget.NewLabelWithData(statusBinding)
	statusLabel.Importance = widget.MediumImportance

	return container.NewHBox(
		statusLabel,
		widget.NewSeparator(),
		widget.NewLabelWithData(rangeBinding),
	)
}
