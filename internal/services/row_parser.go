package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// RowPolicy decides what happens to a malformed row.
type RowPolicy string

const (
	// PolicyStrict fails the whole load on the first bad row.
	PolicyStrict RowPolicy = "strict"
	// PolicyLenient drops bad rows and counts them.
	PolicyLenient RowPolicy = "lenient"
)

func ParseRowPolicy(s string) (RowPolicy, error) {
	switch RowPolicy(s) {
	case "", PolicyStrict:
		return PolicyStrict, nil
	case PolicyLenient:
		return PolicyLenient, nil
	}
	return "", fmt.Errorf("unknown row policy %q", s)
}

// Range is an inclusive physiological range.
type Range = signal.Range

// Ranges holds per-channel limits. Channels without an entry are unchecked.
type Ranges map[schema.Channel]Range

// RangesFor copies the default limits of layout. The result is nil when the
// layout has none.
func RangesFor(layout signal.Layout) Ranges {
	if len(layout.Ranges) == 0 {
		return nil
	}
	out := make(Ranges, len(layout.Ranges))
	for ch, r := range layout.Ranges {
		out[ch] = r
	}
	return out
}

// DefaultRanges are the limits the streaming device is filtered with.
func DefaultRanges() Ranges {
	return RangesFor(signal.StreamingLayout())
}

// ReadStats counts what happened to the rows of one read.
type ReadStats struct {
	Rows       int
	Accepted   int
	Dropped    int // wrong arity, non-numeric or out of order
	OutOfRange int
}

func (s *ReadStats) Add(o ReadStats) {
	s.Rows += o.Rows
	s.Accepted += o.Accepted
	s.Dropped += o.Dropped
	s.OutOfRange += o.OutOfRange
}

// RowParser turns delimited fields into samples.
type RowParser struct {
	Source string
	Layout signal.Layout
	Policy RowPolicy
	Ranges Ranges
}

// SplitFields splits a raw line on commas and trims each field.
func SplitFields(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), ",")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// Parse converts one row. ok is false when a lenient parser dropped the row;
// a strict parser returns a DataFormatError instead. stats is updated.
func (p *RowParser) Parse(fields []string, line int, stats *ReadStats) (smp schema.Sample, ok bool, err error) {
	stats.Rows++
	if len(fields) < p.Layout.Arity() {
		return smp, false, p.reject(stats, false, line, -1,
			fmt.Sprintf("expected at least %d fields, got %d", p.Layout.Arity(), len(fields)), nil)
	}

	t, perr := parseFinite(fields[p.Layout.TimeColumn])
	if perr != nil {
		return smp, false, p.reject(stats, false, line, p.Layout.TimeColumn, "time is not numeric", perr)
	}
	if p.Policy == PolicyLenient && t < 0 {
		return smp, false, p.reject(stats, true, line, p.Layout.TimeColumn, "negative time", nil)
	}

	smp = schema.Sample{TimeMS: t, Values: make(map[schema.Channel]float64, len(p.Layout.Columns))}
	for _, ch := range p.Layout.Channels() {
		col := p.Layout.Columns[ch]
		v, perr := parseFinite(fields[col])
		if perr != nil {
			return smp, false, p.reject(stats, false, line, col, fmt.Sprintf("%s is not numeric", ch), perr)
		}
		if r, has := p.Ranges[ch]; has && !r.Contains(v) {
			return smp, false, p.reject(stats, true, line, col,
				fmt.Sprintf("%s %.2f outside [%.0f, %.0f]", ch, v, r.Min, r.Max), nil)
		}
		smp.Values[ch] = v
	}
	stats.Accepted++
	return smp, true, nil
}

// CheckSample applies the range limits to a sample that did not come from a
// delimited row, such as a websocket frame.
func (p *RowParser) CheckSample(smp schema.Sample, stats *ReadStats) bool {
	stats.Rows++
	if math.IsNaN(smp.TimeMS) || math.IsInf(smp.TimeMS, 0) || smp.TimeMS < 0 {
		stats.OutOfRange++
		return false
	}
	for _, ch := range p.Layout.Channels() {
		v, has := smp.Values[ch]
		if !has || math.IsNaN(v) || math.IsInf(v, 0) {
			stats.Dropped++
			return false
		}
		if r, limited := p.Ranges[ch]; limited && !r.Contains(v) {
			stats.OutOfRange++
			return false
		}
	}
	stats.Accepted++
	return true
}

func (p *RowParser) reject(stats *ReadStats, outOfRange bool, line, col int, reason string, cause error) error {
	if p.Policy == PolicyStrict {
		return &signal.DataFormatError{Source: p.Source, Line: line, Column: col, Reason: reason, Err: cause}
	}
	if outOfRange {
		stats.OutOfRange++
	} else {
		stats.Dropped++
	}
	return nil
}

func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %q is not finite", s)
	}
	return v, nil
}
