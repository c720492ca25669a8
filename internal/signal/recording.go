package signal

import (
	"fmt"
	"math"
	"sort"

	"github.com/sleepsense/sleepview/pkg/schema"
)

// Source is the read-only view the windowing engine consumes.
type Source interface {
	Extent() (start, end float64)
	Len() int
	ValueAt(ch schema.Channel, i int) float64
}

// Recording is an immutable set of channels sharing one time axis (seconds).
// Slices returned by accessors must not be modified.
type Recording struct {
	times    []float64
	channels []schema.Channel
	values   map[schema.Channel][]float64
}

// NewRecording validates and wraps columns. The time axis must be non-empty,
// finite and non-decreasing, and every channel must match its length.
func NewRecording(source string, times []float64, columns map[schema.Channel][]float64) (*Recording, error) {
	if len(times) == 0 {
		return nil, &DataFormatError{Source: source, Column: -1, Reason: "empty time axis", Err: ErrEmptyRecording}
	}
	if err := checkTimeAxis(source, times); err != nil {
		return nil, err
	}
	return newRecording(source, times, columns)
}

func newRecording(source string, times []float64, columns map[schema.Channel][]float64) (*Recording, error) {
	r := &Recording{
		times:  times,
		values: make(map[schema.Channel][]float64, len(columns)),
	}
	for _, ch := range schema.AllChannels {
		col, ok := columns[ch]
		if !ok {
			continue
		}
		if len(col) != len(times) {
			return nil, &DataFormatError{
				Source: source,
				Column: -1,
				Reason: fmt.Sprintf("channel %s has %d samples, time axis has %d", ch, len(col), len(times)),
				Err:    ErrLengthMismatch,
			}
		}
		r.channels = append(r.channels, ch)
		r.values[ch] = col
	}
	return r, nil
}

func checkTimeAxis(source string, times []float64) error {
	prev := math.Inf(-1)
	for i, t := range times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return &DataFormatError{Source: source, Line: i + 1, Column: 0, Reason: "time is not finite"}
		}
		if t < prev {
			return &DataFormatError{
				Source: source,
				Line:   i + 1,
				Column: 0,
				Reason: fmt.Sprintf("time decreases from %.3f to %.3f", prev, t),
			}
		}
		prev = t
	}
	return nil
}

func (r *Recording) Len() int {
	if r == nil {
		return 0
	}
	return len(r.times)
}

// Extent returns the first and last sample times, or (0, 0) when empty.
func (r *Recording) Extent() (start, end float64) {
	if r.Len() == 0 {
		return 0, 0
	}
	return r.times[0], r.times[len(r.times)-1]
}

func (r *Recording) Times() []float64 {
	if r == nil {
		return nil
	}
	return r.times
}

func (r *Recording) TimeAt(i int) float64 {
	return r.times[i]
}

func (r *Recording) Channels() []schema.Channel {
	if r == nil {
		return nil
	}
	return r.channels
}

func (r *Recording) Has(ch schema.Channel) bool {
	if r == nil {
		return false
	}
	_, ok := r.values[ch]
	return ok
}

// Values returns the raw column, or nil if the channel is absent.
func (r *Recording) Values(ch schema.Channel) []float64 {
	if r == nil {
		return nil
	}
	return r.values[ch]
}

// ValueAt returns NaN for an absent channel.
func (r *Recording) ValueAt(ch schema.Channel, i int) float64 {
	col, ok := r.values[ch]
	if !ok {
		return math.NaN()
	}
	return col[i]
}

// MeanPeriod is the average spacing between samples over the whole series.
func (r *Recording) MeanPeriod() float64 {
	return MeanPeriod(r.Times())
}

// IndexRange returns the half-open index range [lo, hi) of samples whose
// time lies within [from, to].
func (r *Recording) IndexRange(from, to float64) (lo, hi int) {
	ts := r.Times()
	lo = sort.SearchFloat64s(ts, from)
	hi = sort.Search(len(ts), func(i int) bool { return ts[i] > to })
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// MeanPeriod returns (t[n-1]-t[0])/(n-1), or 0 when it is undefined.
func MeanPeriod(times []float64) float64 {
	n := len(times)
	if n < 2 {
		return 0
	}
	return (times[n-1] - times[0]) / float64(n-1)
}
