package render

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/viewport"
)

// Command is what a render surface needs to redraw the visible range.
type Command struct {
	XMin   float64
	XMax   float64
	Status string
}

// StatusText is the label shown under the chart.
func StatusText(xmin, xmax float64) string {
	return fmt.Sprintf("Showing: %.1fs to %.1fs", xmin, xmax)
}

// NewCommand derives the command for a viewport. It depends only on the state,
// so equal states give equal commands.
func NewCommand(s viewport.State) Command {
	xmin, xmax := s.Range()
	xmin = math.Max(s.Start, math.Min(xmin, s.End))
	xmax = math.Max(xmin, math.Min(xmax, s.End))
	return Command{XMin: xmin, XMax: xmax, Status: StatusText(xmin, xmax)}
}

// Sink receives render commands.
type Sink func(Command)

// Trigger turns viewport notifications into render commands and forwards a
// command only when it differs from the last one sent.
type Trigger struct {
	logger *zap.Logger
	sink   Sink

	last    Command
	hasLast bool
	sent    int
}

func NewTrigger(logger *zap.Logger, sink Sink) *Trigger {
	return &Trigger{logger: logger, sink: sink}
}

// OnViewportChanged can be passed straight to viewport.Controller.Subscribe.
func (t *Trigger) OnViewportChanged(s viewport.State) {
	t.Emit(NewCommand(s))
}

// Emit forwards cmd unless it repeats the previous command. It reports
// whether the sink was called.
func (t *Trigger) Emit(cmd Command) bool {
	if t.hasLast && cmd == t.last {
		return false
	}
	t.last, t.hasLast = cmd, true
	t.sent++
	t.logger.Debug("Render requested",
		zap.Float64("x_min", cmd.XMin),
		zap.Float64("x_max", cmd.XMax))
	if t.sink != nil {
		t.sink(cmd)
	}
	return true
}

// Invalidate makes the next command go through even if it repeats the last
// one. Used after the scene itself changed.
func (t *Trigger) Invalidate() {
	t.hasLast = false
}

// Last returns the most recent forwarded command.
func (t *Trigger) Last() (Command, bool) {
	return t.last, t.hasLast
}

// Sent is the number of commands forwarded so far.
func (t *Trigger) Sent() int {
	return t.sent
}
