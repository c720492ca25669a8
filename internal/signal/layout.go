package signal

import (
	"fmt"

	"github.com/sleepsense/sleepview/pkg/schema"
)

// Layout maps delimited columns to channels. Time is always in milliseconds.
type Layout struct {
	Name       string
	TimeColumn int
	Columns    map[schema.Channel]int
	// CodeTable names the body-position code table of this source.
	CodeTable string
	// Ranges are the limits a lenient read of this source filters with.
	// Channels without an entry are unchecked.
	Ranges map[schema.Channel]Range
}

// Range is an inclusive physiological range.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// RecordedLayout is the format of files written by the recorder. Its body
// position column holds indexed codes, so it carries no default ranges.
func RecordedLayout() Layout {
	return Layout{
		Name:       "recorded",
		TimeColumn: 0,
		Columns: map[schema.Channel]int{
			schema.ChannelBodyPosition: 1,
			schema.ChannelPulse:        2,
			schema.ChannelSpO2:         3,
			schema.ChannelFlow:         7,
		},
		CodeTable: "indexed",
	}
}

// StreamingLayout is the format of the live device log:
// Time, Pleth, SpO2, Pulse, Flow, BodyPos, Snore, then unused columns.
func StreamingLayout() Layout {
	return Layout{
		Name:       "streaming",
		TimeColumn: 0,
		Columns: map[schema.Channel]int{
			schema.ChannelPleth:        1,
			schema.ChannelSpO2:         2,
			schema.ChannelPulse:        3,
			schema.ChannelFlow:         4,
			schema.ChannelBodyPosition: 5,
			schema.ChannelSnore:        6,
		},
		CodeTable: "banded",
		Ranges: map[schema.Channel]Range{
			schema.ChannelSpO2:         {Min: 85, Max: 100},
			schema.ChannelPulse:        {Min: 49, Max: 170},
			schema.ChannelBodyPosition: {Min: 5, Max: 45},
			schema.ChannelPleth:        {Min: 0, Max: 1000},
			schema.ChannelFlow:         {Min: -100, Max: 100},
			schema.ChannelSnore:        {Min: 0, Max: 1000},
		},
	}
}

func LayoutByName(name string) (Layout, error) {
	switch name {
	case "", "recorded":
		return RecordedLayout(), nil
	case "streaming":
		return StreamingLayout(), nil
	}
	return Layout{}, fmt.Errorf("unknown layout %q", name)
}

// WithOverrides returns a copy with columns replaced by name. A negative
// index removes the channel.
func (l Layout) WithOverrides(overrides map[string]int) (Layout, error) {
	out := l
	out.Columns = make(map[schema.Channel]int, len(l.Columns))
	for ch, i := range l.Columns {
		out.Columns[ch] = i
	}
	if l.Ranges != nil {
		out.Ranges = make(map[schema.Channel]Range, len(l.Ranges))
		for ch, r := range l.Ranges {
			out.Ranges[ch] = r
		}
	}
	for name, idx := range overrides {
		if name == "time" {
			if idx < 0 {
				return l, fmt.Errorf("time column cannot be removed")
			}
			out.TimeColumn = idx
			continue
		}
		ch, ok := schema.ParseChannel(name)
		if !ok {
			return l, fmt.Errorf("unknown channel %q in column overrides", name)
		}
		if idx < 0 {
			delete(out.Columns, ch)
			continue
		}
		out.Columns[ch] = idx
	}
	return out, nil
}

// Arity is the minimum number of fields a row needs.
func (l Layout) Arity() int {
	n := l.TimeColumn + 1
	for _, i := range l.Columns {
		n = max(n, i+1)
	}
	return n
}

// Channels lists the mapped channels in canonical order.
func (l Layout) Channels() []schema.Channel {
	var out []schema.Channel
	for _, ch := range schema.AllChannels {
		if _, ok := l.Columns[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}
