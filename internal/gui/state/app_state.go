package state

import (
	"fmt"

	"fyne.io/fyne/v2/data/binding"
)

// AppState holds the labels shared between panels.
type AppState struct {
	StatusBinding binding.String
	RangeBinding  binding.String
	StartBinding  binding.String
	EndBinding    binding.String
	SourceBinding binding.String

	Following bool
}

func NewAppState() *AppState {
	return &AppState{
		StatusBinding: binding.NewString(),
		RangeBinding:  binding.NewString(),
		StartBinding:  binding.NewString(),
		EndBinding:    binding.NewString(),
		SourceBinding: binding.NewString(),
	}
}

// SetStatus shows the render status line.
func (s *AppState) SetStatus(status string) {
	_ = s.StatusBinding.Set(status)
}

// SetRange shows the visible range in the selected unit, both in the top
// bar and beside the slider.
func (s *AppState) SetRange(from, to, unit string) {
	_ = s.RangeBinding.Set(fmt.Sprintf("%s to %s (%s)", from, to, unit))
	_ = s.StartBinding.Set(from)
	_ = s.EndBinding.Set(to)
}

// SetSource shows where samples come from and how many are loaded.
func (s *AppState) SetSource(path string, samples int) {
	label := fmt.Sprintf("%s: %d samples", path, samples)
	if s.Following {
		label += " (following)"
	}
	_ = s.SourceBinding.Set(label)
}
