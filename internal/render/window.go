package render

import (
	"sort"

	"github.com/sleepsense/sleepview/internal/annotation"
)

// DefaultMaxPoints bounds the points drawn per trace.
const DefaultMaxPoints = 2000

// View is the part of a scene inside the visible range.
type View struct {
	Times  []float64
	Values [][]float64 // parallel to Scene.Traces
	Marks  []annotation.Mark
}

// Window slices the scene to [from, to] and strides it down to at most
// maxPoints per trace. One point on each side of the range is kept so lines
// reach the plot edges.
func (s *Scene) Window(from, to float64, maxPoints int) View {
	if maxPoints < 2 {
		maxPoints = DefaultMaxPoints
	}
	lo := sort.SearchFloat64s(s.Times, from)
	hi := sort.Search(len(s.Times), func(i int) bool { return s.Times[i] > to })
	if lo > 0 {
		lo--
	}
	if hi < len(s.Times) {
		hi++
	}

	idx := strideIndices(lo, hi, maxPoints)
	v := View{
		Times:  pick(s.Times, idx),
		Values: make([][]float64, len(s.Traces)),
		Marks:  annotation.Visible(s.Marks, from, to),
	}
	for i, tr := range s.Traces {
		v.Values[i] = pick(tr.Values, idx)
	}
	return v
}

// strideIndices returns indices in [lo, hi) spaced evenly, always keeping the
// last one.
func strideIndices(lo, hi, maxPoints int) []int {
	n := hi - lo
	if n <= 0 {
		return nil
	}
	step := 1
	if n > maxPoints {
		step = (n + maxPoints - 1) / maxPoints
	}
	out := make([]int, 0, n/step+1)
	for i := lo; i < hi; i += step {
		out = append(out, i)
	}
	if out[len(out)-1] != hi-1 {
		out = append(out, hi-1)
	}
	return out
}

func pick(src []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
