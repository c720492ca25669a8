package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/config"
	"github.com/sleepsense/sleepview/internal/ingest"
	"github.com/sleepsense/sleepview/internal/render"
	"github.com/sleepsense/sleepview/internal/viewer"
	"github.com/sleepsense/sleepview/pkg/schema"
)

const statusInterval = 30 * time.Second

type extent struct{ start, end float64 }

// NoGUIApplication renders snapshots to PNG files. A finite recording gets
// one image per preset; a growing one keeps live.png current until SIGINT or
// SIGTERM.
type NoGUIApplication struct {
	cfg        *config.Config
	logger     *zap.Logger
	session    *viewer.Session
	exportPath string
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	extents chan extent
	redraws chan struct{}
	frames  int
}

func NewNoGUIApplication(logger *zap.Logger, cfg *config.Config, session *viewer.Session, exportPath string) *NoGUIApplication {
	ctx, cancel := context.WithCancel(context.Background())
	session.Renderer.Overlay = true
	return &NoGUIApplication{
		cfg:        cfg,
		logger:     logger,
		session:    session,
		exportPath: exportPath,
		ctx:        ctx,
		cancel:     cancel,
		extents:    make(chan extent, 1),
		redraws:    make(chan struct{}, 1),
	}
}

func (a *NoGUIApplication) Run() error {
	defer a.cancel()
	if err := os.MkdirAll(a.cfg.Render.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if a.session.Mode() == schema.ModeGrowing {
		if err := a.follow(); err != nil {
			return err
		}
	} else if err := a.snapshotPresets(); err != nil {
		return err
	}

	if a.exportPath != "" {
		m, err := a.session.Export(a.exportPath)
		if err != nil {
			return fmt.Errorf("failed to export recording: %w", err)
		}
		fmt.Printf("Exported %d samples to %s\n", m.Samples, a.exportPath)
	}
	return nil
}

// snapshotPresets writes one PNG per preset width at the start of the recording.
func (a *NoGUIApplication) snapshotPresets() error {
	base := strings.TrimSuffix(filepath.Base(a.session.Store.Source()), filepath.Ext(a.session.Store.Source()))
	for _, b := range a.session.Buttons() {
		b.Activate()
		path := filepath.Join(a.cfg.Render.OutputDir, fmt.Sprintf("%s_%s.png", base, b.Label))
		cmd := a.session.Current()
		if err := a.session.Renderer.SnapshotPNG(path, a.session.Scene(), cmd); err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", path, cmd.Status)
	}
	return nil
}

// follow runs the ingest source and redraws live.png as samples arrive. The
// session is only touched from this goroutine.
func (a *NoGUIApplication) follow() error {
	src, err := a.session.Source(a.onExtend)
	if err != nil {
		return err
	}
	redraw := render.NewCoalescer(a.cfg.Render.RedrawInterval, a.requestRedraw)
	defer redraw.Close()
	a.session.OnRender(func(cmd render.Command) {
		a.logger.Debug("Render command", zap.Float64("xmin", cmd.XMin), zap.Float64("xmax", cmd.XMax), zap.String("status", cmd.Status))
		redraw.Request()
	})

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := src.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("Ingest source stopped", zap.Error(err))
			a.cancel()
		}
	}()

	fmt.Printf("Following %s, press Ctrl+C to stop...\n", a.describeSource())
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	live := filepath.Join(a.cfg.Render.OutputDir, "live.png")
	for {
		select {
		case ext := <-a.extents:
			a.session.Extended(ext.start, ext.end)
		case <-a.redraws:
			if err := a.session.Renderer.SnapshotPNG(live, a.session.Scene(), a.session.Current()); err != nil {
				a.logger.Debug("Live frame not written", zap.Error(err))
				continue
			}
			a.frames++
		case <-ticker.C:
			a.reportStatus(src)
		case sig := <-signalChan:
			a.logger.Info("Received signal", zap.String("signal", sig.String()))
			a.shutdown(src)
			return nil
		case <-a.ctx.Done():
			a.shutdown(src)
			return nil
		}
	}
}

// onExtend is called from the ingest goroutine. Only the latest extent
// matters, so an unread one is replaced.
func (a *NoGUIApplication) onExtend(start, end float64) {
	ext := extent{start, end}
	select {
	case a.extents <- ext:
		return
	default:
	}
	select {
	case <-a.extents:
	default:
	}
	select {
	case a.extents <- ext:
	default:
	}
}

func (a *NoGUIApplication) requestRedraw() {
	select {
	case a.redraws <- struct{}{}:
	default:
	}
}

func (a *NoGUIApplication) reportStatus(src ingest.Source) {
	stats := src.Stats()
	st := a.session.Controller.State()
	a.logger.Info("Status Report",
		zap.Int("rows", stats.Rows),
		zap.Int("accepted", stats.Accepted),
		zap.Int("dropped", stats.Dropped),
		zap.Int("out_of_range", stats.OutOfRange),
		zap.Float64("end_s", st.End),
		zap.Int("frames", a.frames))
}

func (a *NoGUIApplication) shutdown(src ingest.Source) {
	a.logger.Info("Shutting down gracefully...")
	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		a.logger.Warn("Timeout waiting for ingest to stop")
	}
	a.reportStatus(src)
}

func (a *NoGUIApplication) describeSource() string {
	if a.cfg.Ingest.Source == "websocket" {
		return a.cfg.Ingest.WebSocket.URL
	}
	return a.cfg.Recording.Path
}
