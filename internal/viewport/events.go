package viewport

// Event is one discrete input applied to the controller.
type Event interface {
	Apply(c *Controller)
}

// ScrollEvent moves the scroll control to Tick.
type ScrollEvent struct {
	Tick int
}

func (e ScrollEvent) Apply(c *Controller) { c.ScrollTo(e.Tick) }

// ZoomEvent narrows the view, or widens it when Out is set.
type ZoomEvent struct {
	Out bool
}

func (e ZoomEvent) Apply(c *Controller) {
	if e.Out {
		c.ZoomOut()
		return
	}
	c.ZoomIn()
}

// WidthEvent requests an arbitrary width.
type WidthEvent struct {
	Seconds float64
}

func (e WidthEvent) Apply(c *Controller) { c.SetWidth(e.Seconds) }

// ExtendEvent carries the new extent of a growing recording.
type ExtendEvent struct {
	Start, End float64
}

func (e ExtendEvent) Apply(c *Controller) { c.Extend(e.Start, e.End) }

// Dispatch applies ev. A nil event is ignored.
func (c *Controller) Dispatch(ev Event) {
	if ev == nil {
		return
	}
	ev.Apply(c)
}
