package annotation

import (
	"iter"
	"math"

	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// DefaultInterval is the real-time spacing between arrows, in seconds.
const DefaultInterval = 5.0

// Mark is one resolved annotation on the timeline.
type Mark struct {
	Index  int
	T      float64
	Code   float64
	Symbol Symbol
}

// Sampler walks a timeline at a fixed real-time interval.
type Sampler struct {
	Table    CodeTable
	Interval float64
}

func NewSampler(table CodeTable, interval float64) Sampler {
	if table == nil {
		table = IndexedCodes
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Sampler{Table: table, Interval: interval}
}

// Stride converts the interval into an index step using the mean sampling
// period of the whole series, so jitter between the first samples does not
// skew it. The result is at least 1.
func Stride(times []float64, interval float64) int {
	period := signal.MeanPeriod(times)
	if period <= 0 || interval <= 0 {
		return 1
	}
	step := int(math.Round(interval / period))
	if step < 1 {
		return 1
	}
	return step
}

// Sample yields one mark every Stride samples. codes is the body-position
// channel, indexed like times. The sequence is computed lazily.
func (s Sampler) Sample(times, codes []float64) iter.Seq[Mark] {
	return func(yield func(Mark) bool) {
		n := min(len(times), len(codes))
		if n == 0 {
			return
		}
		step := Stride(times[:n], s.Interval)
		for i := 0; i < n; i += step {
			m := Mark{Index: i, T: times[i], Code: codes[i], Symbol: s.Table.Lookup(codes[i])}
			if !yield(m) {
				return
			}
		}
	}
}

// SampleRecording samples the body-position channel of rec. It returns nil
// when the channel is absent.
func (s Sampler) SampleRecording(rec *signal.Recording) []Mark {
	codes := rec.Values(schema.ChannelBodyPosition)
	if rec.Len() == 0 || codes == nil {
		return nil
	}
	var out []Mark
	for m := range s.Sample(rec.Times(), codes) {
		out = append(out, m)
	}
	return out
}

// Visible returns the marks inside [from, to]. marks must be sorted by T.
func Visible(marks []Mark, from, to float64) []Mark {
	lo, hi := 0, len(marks)
	for lo < hi {
		mid := (lo + hi) / 2
		if marks[mid].T < from {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	end := lo
	for end < len(marks) && marks[end].T <= to {
		end++
	}
	return marks[lo:end]
}
