package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"
)

// CreateBottomBar shows the data source and the session id.
func CreateBottomBar(sourceBinding binding.String, sessionID string) fyne.CanvasObject {
	return container.NewHBox(
		widget.NewLabel("Source:"),
		widget.NewLabelWithData(sourceBinding),
		widget.NewSeparator(),
		widget.NewLabel("Session:"),
		widget.NewLabel(sessionID),
	)
}
