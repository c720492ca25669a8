package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/services"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

const DefaultPollInterval = time.Second

// TailSource follows a delimited file that another process appends to.
// fsnotify events wake it early; the poll ticker covers filesystems that do
// not deliver them.
type TailSource struct {
	appender
	path   string
	parser *services.RowParser
	poll   time.Duration

	offset  int64
	partial []byte
	line    int
}

func NewTailSource(logger *zap.Logger, path string, store *signal.Store, parser *services.RowParser, poll time.Duration, onExtend ExtendFunc) *TailSource {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &TailSource{
		appender: appender{logger: logger.With(zap.String("tail", path)), store: store, onExtend: onExtend},
		path:     filepath.Clean(path),
		parser:   parser,
		poll:     poll,
	}
}

// Run reads what is already in the file, then follows it until ctx is done.
func (t *TailSource) Run(ctx context.Context) error {
	var events <-chan fsnotify.Event
	var watchErrs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.logger.Warn("File watcher unavailable, polling only", zap.Error(err))
	} else {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(t.path)); err != nil {
			t.logger.Warn("Failed to watch directory, polling only", zap.Error(err))
		} else {
			events, watchErrs = watcher.Events, watcher.Errors
		}
	}

	t.logger.Info("Tailing recording", zap.Duration("poll", t.poll))
	if err := t.readNew(); err != nil {
		return err
	}

	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Tail stopped", zap.Int("rows", t.Stats().Rows))
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != t.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			t.logger.Warn("File watcher error", zap.Error(err))
			continue
		case <-ticker.C:
		}
		if err := t.readNew(); err != nil {
			return err
		}
	}
}

// readNew parses complete lines appended since the last call. A trailing
// line without a newline is kept until it is completed.
func (t *TailSource) readNew() error {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrSourceClosed, t.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrSourceClosed, t.path, err)
	}
	if info.Size() < t.offset {
		t.logger.Warn("Recording truncated, reading from start",
			zap.Int64("old_offset", t.offset),
			zap.Int64("size", info.Size()))
		t.offset, t.partial, t.line = 0, nil, 0
	}
	if info.Size() == t.offset {
		return nil
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek %s: %v", ErrSourceClosed, t.path, err)
	}
	chunk, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrSourceClosed, t.path, err)
	}
	t.offset += int64(len(chunk))

	data := append(t.partial, chunk...)
	cut := bytes.LastIndexByte(data, '\n')
	if cut < 0 {
		t.partial = data
		return nil
	}
	t.partial = append([]byte(nil), data[cut+1:]...)

	var parsed services.ReadStats
	var samples []schema.Sample
	for _, raw := range bytes.Split(data[:cut], []byte{'\n'}) {
		t.line++
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		smp, ok, err := t.parser.Parse(services.SplitFields(string(raw)), t.line, &parsed)
		if err != nil {
			return err
		}
		if ok {
			samples = append(samples, smp)
		}
	}
	t.deliver(samples, parsed)
	return nil
}
