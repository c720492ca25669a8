package viewport

import "fmt"

// Preset is a fixed window duration selectable with one action.
type Preset struct {
	Seconds int
}

// Catalog is the default set of preset widths.
var Catalog = []Preset{{5}, {10}, {15}, {30}, {60}, {120}, {300}}

// Label is "Ns" below a minute and "Mm" otherwise. Minutes are truncated, so
// 90 seconds reads "1m".
func (p Preset) Label() string {
	if p.Seconds < 60 {
		return fmt.Sprintf("%ds", p.Seconds)
	}
	return fmt.Sprintf("%dm", p.Seconds/60)
}

// Apply makes a Preset usable as an Event.
func (p Preset) Apply(c *Controller) { c.PresetWidth(float64(p.Seconds)) }

// PresetButton is what a control surface needs to draw one preset button.
type PresetButton struct {
	Label    string
	Preset   Preset
	Activate func()
}

type boundPreset struct {
	c *Controller
	p Preset
}

func (b boundPreset) activate() { b.p.Apply(b.c) }

// Buttons binds each preset to c. Every handler carries its own preset value.
func Buttons(c *Controller, presets []Preset) []PresetButton {
	out := make([]PresetButton, 0, len(presets))
	for _, p := range presets {
		b := boundPreset{c: c, p: p}
		out = append(out, PresetButton{Label: p.Label(), Preset: p, Activate: b.activate})
	}
	return out
}

// ParsePresets converts configured durations, skipping non-positive ones.
// An empty input yields the default catalog.
func ParsePresets(seconds []int) []Preset {
	var out []Preset
	for _, s := range seconds {
		if s > 0 {
			out = append(out, Preset{Seconds: s})
		}
	}
	if len(out) == 0 {
		return append([]Preset(nil), Catalog...)
	}
	return out
}
