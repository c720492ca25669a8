package render

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sleepsense/sleepview/internal/annotation"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

const (
	DefaultTitle   = "Sleepsense Plotting with Body Position Arrows"
	DefaultSpacing = 1.2
	// ArrowLift is how far above the body-position trace the glyphs sit.
	ArrowLift = 0.5
	// ArrowLength scales the unit displacement of each arrow.
	ArrowLength = 0.5
)

// DefaultChannels is the stacking order of the recorded-file viewer.
var DefaultChannels = []schema.Channel{
	schema.ChannelBodyPosition,
	schema.ChannelPulse,
	schema.ChannelSpO2,
	schema.ChannelFlow,
}

var defaultPalette = []drawing.Color{chart.ColorBlack, chart.ColorRed, chart.ColorGreen, chart.ColorBlack}

// Layout describes how channels are stacked.
type Layout struct {
	Channels   []schema.Channel
	Spacing    float64
	Title      string
	Colors     []string // hex, cycled; empty uses the default palette
	Highlights []float64
}

func DefaultLayout() Layout {
	return Layout{Channels: DefaultChannels, Spacing: DefaultSpacing, Title: DefaultTitle}
}

func (l Layout) color(i int) drawing.Color {
	if len(l.Colors) > 0 {
		return drawing.ColorFromHex(l.Colors[i%len(l.Colors)])
	}
	return defaultPalette[i%len(defaultPalette)]
}

// Trace is one normalized channel shifted to its lane.
type Trace struct {
	Channel schema.Channel
	Label   string
	Color   drawing.Color
	Offset  float64
	// LabelY is where the axis label sits: mean of the lane.
	LabelY float64
	Values []float64
}

// Scene is the full-timeline drawing built once per load or extension.
type Scene struct {
	Title      string
	Times      []float64
	Traces     []Trace
	Marks      []annotation.Mark
	ArrowY     float64
	Highlights []float64
	YMin       float64
	YMax       float64
	Start      float64
	End        float64
}

// BuildScene normalizes and stacks the layout's channels. Channels missing
// from rec are skipped. Annotations are computed over the whole timeline.
func BuildScene(rec *signal.Recording, layout Layout, sampler annotation.Sampler) *Scene {
	if layout.Spacing <= 0 {
		layout.Spacing = DefaultSpacing
	}
	if len(layout.Channels) == 0 {
		layout.Channels = DefaultChannels
	}
	s := &Scene{
		Title:      layout.Title,
		Times:      rec.Times(),
		Highlights: layout.Highlights,
		YMin:       -0.5,
	}
	s.Start, s.End = rec.Extent()

	bodyLane := -1.0
	for _, ch := range layout.Channels {
		if !rec.Has(ch) {
			continue
		}
		i := len(s.Traces)
		offset := float64(i) * layout.Spacing
		norm := signal.Normalize(rec.Values(ch))
		for j := range norm {
			norm[j] += offset
		}
		s.Traces = append(s.Traces, Trace{
			Channel: ch,
			Label:   ch.Label(),
			Color:   layout.color(i),
			Offset:  offset,
			LabelY:  signal.Mean(norm),
			Values:  norm,
		})
		if ch == schema.ChannelBodyPosition {
			bodyLane = offset
		}
	}

	s.YMax = 1
	if n := len(s.Traces); n > 0 {
		s.YMax = s.Traces[n-1].Offset + 1
	}
	if bodyLane >= 0 {
		s.ArrowY = bodyLane + ArrowLift
		s.Marks = sampler.SampleRecording(rec)
	}
	return s
}

// YTicks labels each lane at its mean.
func (s *Scene) YTicks() []chart.Tick {
	ticks := make([]chart.Tick, 0, len(s.Traces))
	for _, tr := range s.Traces {
		ticks = append(ticks, chart.Tick{Value: tr.LabelY, Label: tr.Label})
	}
	return ticks
}
