package viewer

import (
	"fmt"
	"image"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/config"
	"github.com/sleepsense/sleepview/internal/ingest"
	"github.com/sleepsense/sleepview/internal/render"
	"github.com/sleepsense/sleepview/internal/services"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/internal/sink/arrow"
	"github.com/sleepsense/sleepview/internal/viewport"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// Session owns everything one viewer needs: the store, the controller and
// the render trigger. Apart from the store, it belongs to the UI goroutine.
type Session struct {
	ID     string
	logger *zap.Logger
	cfg    *config.Config
	opts   Options
	reader *services.RecordingReader
	Stats  services.ReadStats

	Store      *signal.Store
	Controller *viewport.Controller
	Trigger    *render.Trigger
	Renderer   *render.Renderer
	Unit       viewport.TimeUnit

	sink      render.Sink
	scene     *render.Scene
	sceneSnap *signal.Recording
}

// Open loads the recording (finite mode) or prepares an empty store
// (growing mode) and wires the controller to the trigger.
func Open(logger *zap.Logger, cfg *config.Config) (*Session, error) {
	opts, err := ResolveOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	id := uuid.New().String()
	logger = logger.With(zap.String("session", id))

	s := &Session{
		ID:       id,
		logger:   logger,
		cfg:      cfg,
		opts:     opts,
		reader:   services.NewRecordingReader(logger, opts.Layout, opts.Policy, opts.Ranges),
		Renderer: render.NewRenderer(logger, cfg.Render.Width, cfg.Render.Height, cfg.Render.MaxPoints),
		Unit:     opts.Unit,
	}

	switch opts.Mode {
	case schema.ModeGrowing:
		s.Store = signal.NewEmptyStore(logger, opts.Path, opts.Layout.Channels())
	default:
		if opts.Path == "" {
			return nil, fmt.Errorf("%w: recording.path is required", config.ErrInvalidConfig)
		}
		rec, stats, err := s.load(opts.Path)
		if err != nil {
			return nil, err
		}
		s.Stats = stats
		s.Store = signal.NewStore(logger, opts.Path, rec)
	}

	start, end := s.Store.Snapshot().Extent()
	s.Controller = viewport.New(start, end, opts.Controller...)
	s.Trigger = render.NewTrigger(logger, s.forward)
	s.Controller.Subscribe(s.Trigger.OnViewportChanged)

	logger.Info("Session opened",
		zap.String("mode", string(opts.Mode)),
		zap.String("layout", opts.Layout.Name),
		zap.String("path", opts.Path),
		zap.Float64("start_s", start),
		zap.Float64("end_s", end))
	return s, nil
}

func (s *Session) Mode() schema.Mode { return s.opts.Mode }

func (s *Session) Presets() []viewport.Preset { return s.opts.Presets }

func (s *Session) Logger() *zap.Logger { return s.logger }

// OnRender sets where render commands go.
func (s *Session) OnRender(sink render.Sink) {
	s.sink = sink
}

func (s *Session) forward(cmd render.Command) {
	if s.sink != nil {
		s.sink(cmd)
	}
}

// Current is the command for the present viewport, whether or not it was
// already forwarded.
func (s *Session) Current() render.Command {
	return render.NewCommand(s.Controller.State())
}

// Refresh forwards the current command even if it repeats the last one.
func (s *Session) Refresh() {
	s.Trigger.Invalidate()
	s.Trigger.Emit(s.Current())
}

// Scene returns the full-timeline drawing for the latest snapshot. It is
// rebuilt only when the store published a new snapshot.
func (s *Session) Scene() *render.Scene {
	snap := s.Store.Snapshot()
	if s.scene == nil || snap != s.sceneSnap {
		s.scene = render.BuildScene(snap, s.opts.Display, s.opts.Sampler)
		s.sceneSnap = snap
	}
	return s.scene
}

// Frame rasterises the given command.
func (s *Session) Frame(cmd render.Command) (image.Image, error) {
	return s.Renderer.Image(s.Scene(), cmd)
}

// Extended applies a new extent reported by an ingest source. It must run on
// the UI goroutine.
func (s *Session) Extended(start, end float64) {
	s.Trigger.Invalidate()
	s.Controller.Dispatch(viewport.ExtendEvent{Start: start, End: end})
}

// Source builds the producer for growing mode. onExtend is called from the
// producer goroutine.
func (s *Session) Source(onExtend ingest.ExtendFunc) (ingest.Source, error) {
	if s.opts.Mode != schema.ModeGrowing {
		return nil, fmt.Errorf("session is not in growing mode")
	}
	ic := s.cfg.Ingest
	switch ic.Source {
	case "websocket":
		return ingest.NewFeedSource(s.logger, ic.WebSocket.URL, s.Store, s.reader.Parser(ic.WebSocket.URL),
			ic.WebSocket.ReconnectInterval, ic.WebSocket.ReadTimeout, onExtend), nil
	default:
		return ingest.NewTailSource(s.logger, s.opts.Path, s.Store, s.reader.Parser(s.opts.Path),
			ic.PollInterval, onExtend), nil
	}
}

// Export writes the current snapshot to an Arrow file.
func (s *Session) Export(path string) (schema.RecordingManifest, error) {
	w := arrow.NewWriter(s.logger, s.cfg.Storage.BatchRows)
	return w.WriteRecording(path, s.Store.Snapshot(), schema.RecordingManifest{
		SessionID:  s.ID,
		SourcePath: s.opts.Path,
		Layout:     s.opts.Layout.Name,
	})
}

// Buttons binds the configured presets to the controller.
func (s *Session) Buttons() []viewport.PresetButton {
	return viewport.Buttons(s.Controller, s.opts.Presets)
}

// AxisLabels formats the visible range in the selected time unit.
func (s *Session) AxisLabels() (from, to string) {
	a, b := s.Controller.State().Range()
	return s.Unit.Format(a), s.Unit.Format(b)
}

// ToggleUnit switches between seconds and minutes for axis labels.
func (s *Session) ToggleUnit() viewport.TimeUnit {
	s.Unit = s.Unit.Toggle()
	return s.Unit
}
