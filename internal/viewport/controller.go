package viewport

import "math"

const (
	DefaultWidth   = 10.0
	MinWidth       = 1.0
	ZoomFactor     = 1.5
	TicksPerSecond = 100.0
)

// State is a copy of the controller's state after an operation.
type State struct {
	Offset   float64
	Width    float64
	Start    float64
	End      float64
	MinWidth float64
	MaxWidth float64
	MaxTick  int
	Tick     int
}

// Range returns the visible interval [Offset, Offset+Width].
func (s State) Range() (from, to float64) {
	return s.Offset, s.Offset + s.Width
}

// Listener is notified once per controller operation.
type Listener func(State)

type Option func(*Controller)

// WithWidth sets the initial requested width.
func WithWidth(w float64) Option {
	return func(c *Controller) {
		if w > 0 && !math.IsInf(w, 0) {
			c.desired = w
		}
	}
}

// WithMinWidth overrides the 1 second lower bound.
func WithMinWidth(w float64) Option {
	return func(c *Controller) {
		if w > 0 && !math.IsInf(w, 0) {
			c.minFloor = w
		}
	}
}

// WithTickDensity overrides the number of scroll ticks per second of offset.
func WithTickDensity(d float64) Option {
	return func(c *Controller) {
		if d > 0 && !math.IsInf(d, 0) {
			c.density = d
		}
	}
}

// WithFollow starts the view pinned to the end of the extent.
func WithFollow() Option {
	return func(c *Controller) { c.follow = true }
}

// Controller owns the viewport. It is not safe for concurrent use; all
// calls must come from the goroutine that owns the UI.
type Controller struct {
	start, end float64
	minFloor   float64
	minW, maxW float64

	width   float64
	desired float64
	offset  float64
	density float64
	follow  bool

	listeners []Listener
}

// New creates a controller over [start, end]. Bounds are derived from the
// extent: width in [1s, (end-start)/2].
func New(start, end float64, opts ...Option) *Controller {
	c := &Controller{
		minFloor: MinWidth,
		desired:  DefaultWidth,
		density:  TicksPerSecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.setExtent(start, end)
	c.width = c.clampWidth(c.desired)
	c.offset = c.start
	if c.follow {
		c.offset = c.maxOffset()
	}
	return c
}

// Subscribe registers l for every subsequent operation.
func (c *Controller) Subscribe(l Listener) {
	c.listeners = append(c.listeners, l)
}

func (c *Controller) State() State {
	return State{
		Offset:   c.offset,
		Width:    c.width,
		Start:    c.start,
		End:      c.end,
		MinWidth: c.minW,
		MaxWidth: c.maxW,
		MaxTick:  c.MaxTick(),
		Tick:     c.TimeToTick(c.offset),
	}
}

// SetWidth clamps the requested width to the bounds and pulls the offset back
// if the window would run past the end.
func (c *Controller) SetWidth(requested float64) {
	if !math.IsNaN(requested) {
		c.desired = requested
		c.resize(requested)
	}
	c.notify()
}

func (c *Controller) ZoomIn() {
	c.zoom(c.width / ZoomFactor)
}

func (c *Controller) ZoomOut() {
	c.zoom(c.width * ZoomFactor)
}

func (c *Controller) zoom(requested float64) {
	c.resize(requested)
	c.desired = c.width
	c.notify()
}

// PresetWidth is SetWidth for one of the catalog durations.
func (c *Controller) PresetWidth(seconds float64) {
	c.SetWidth(seconds)
}

// ScrollTo moves the offset to the time mapped from tick.
func (c *Controller) ScrollTo(tick int) {
	c.offset = c.clampOffset(c.TickToTime(tick))
	c.notify()
}

// Extend applies a new extent from a growing source. The relative scroll
// position is kept, so a view pinned to the end stays pinned.
func (c *Controller) Extend(start, end float64) {
	frac := 1.0
	if r := c.maxOffset() - c.start; r > 0 {
		frac = (c.offset - c.start) / r
	}
	c.setExtent(start, end)
	c.width = c.clampWidth(c.desired)
	c.offset = c.clampOffset(c.start + frac*(c.maxOffset()-c.start))
	c.notify()
}

// MaxTick is the upper end of the scroll control's domain.
func (c *Controller) MaxTick() int {
	return int(math.Round((c.maxOffset() - c.start) * c.density))
}

// TimeToTick maps an offset to the scroll control.
func (c *Controller) TimeToTick(t float64) int {
	tick := int(math.Round((t - c.start) * c.density))
	return max(0, min(tick, c.MaxTick()))
}

// TickToTime maps a scroll position to an offset. The result is not clamped.
func (c *Controller) TickToTime(tick int) float64 {
	return c.start + float64(tick)/c.density
}

func (c *Controller) setExtent(start, end float64) {
	if math.IsNaN(start) || math.IsInf(start, 0) {
		start = 0
	}
	if math.IsNaN(end) || end < start {
		end = start
	}
	c.start, c.end = start, end
	c.minW = c.minFloor
	c.maxW = math.Max((end-start)/2, c.minW)
}

func (c *Controller) resize(requested float64) {
	c.width = c.clampWidth(requested)
	c.offset = c.clampOffset(c.offset)
}

// clampWidth saturates w to the bounds. Recordings shorter than the minimum
// width are shown whole.
func (c *Controller) clampWidth(w float64) float64 {
	w = math.Max(c.minW, math.Min(w, c.maxW))
	return math.Min(w, c.end-c.start)
}

func (c *Controller) maxOffset() float64 {
	return c.end - c.width
}

func (c *Controller) clampOffset(t float64) float64 {
	if math.IsNaN(t) {
		t = c.start
	}
	return math.Max(c.start, math.Min(t, c.maxOffset()))
}

func (c *Controller) notify() {
	if len(c.listeners) == 0 {
		return
	}
	s := c.State()
	for _, l := range c.listeners {
		l(s)
	}
}
