package schema

import "time"

type Channel string

const (
	ChannelBodyPosition Channel = "body_position"
	ChannelPulse        Channel = "pulse"
	ChannelSpO2         Channel = "spo2"
	ChannelFlow         Channel = "flow"
	ChannelPleth        Channel = "pleth"
	ChannelSnore        Channel = "snore"
)

// AllChannels lists every channel a recording may carry, in storage order.
var AllChannels = []Channel{
	ChannelBodyPosition,
	ChannelPulse,
	ChannelSpO2,
	ChannelFlow,
	ChannelPleth,
	ChannelSnore,
}

// Label returns the axis label used for stacked display.
func (c Channel) Label() string {
	switch c {
	case ChannelBodyPosition:
		return "Body Position"
	case ChannelPulse:
		return "Pulse (BPM)"
	case ChannelSpO2:
		return "SpO2 (%)"
	case ChannelFlow:
		return "Airflow"
	case ChannelPleth:
		return "Pleth"
	case ChannelSnore:
		return "Snore"
	default:
		return string(c)
	}
}

// ParseChannel maps a config/channel name to a Channel.
func ParseChannel(name string) (Channel, bool) {
	for _, c := range AllChannels {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

type Mode string

const (
	ModeFinite  Mode = "finite"
	ModeGrowing Mode = "growing"
)

// Sample is one parsed row of a recording. TimeMS is the raw device clock.
type Sample struct {
	TimeMS float64
	Values map[Channel]float64
}

// Seconds returns the sample time in seconds.
func (s Sample) Seconds() float64 {
	return s.TimeMS / 1000
}

// FeedFrame is the JSON frame pushed by a live sample feed.
type FeedFrame struct {
	T            float64  `json:"t"`
	Pleth        *float64 `json:"pleth,omitempty"`
	SpO2         *float64 `json:"spo2,omitempty"`
	Pulse        *float64 `json:"pulse,omitempty"`
	Flow         *float64 `json:"flow,omitempty"`
	BodyPosition *float64 `json:"body_position,omitempty"`
	Snore        *float64 `json:"snore,omitempty"`
}

// Sample converts the frame, keeping only the fields that were present.
func (f FeedFrame) Sample() Sample {
	s := Sample{TimeMS: f.T, Values: make(map[Channel]float64, 6)}
	put := func(c Channel, v *float64) {
		if v != nil {
			s.Values[c] = *v
		}
	}
	put(ChannelPleth, f.Pleth)
	put(ChannelSpO2, f.SpO2)
	put(ChannelPulse, f.Pulse)
	put(ChannelFlow, f.Flow)
	put(ChannelBodyPosition, f.BodyPosition)
	put(ChannelSnore, f.Snore)
	return s
}

// RecordingManifest describes a cached recording file.
type RecordingManifest struct {
	SessionID  string    `json:"session_id"`
	SourcePath string    `json:"source_path"`
	Layout     string    `json:"layout"`
	Channels   []Channel `json:"channels"`
	Samples    int       `json:"samples"`
	StartS     float64   `json:"start_s"`
	EndS       float64   `json:"end_s"`
	CreatedAt  time.Time `json:"created_at"`
}
