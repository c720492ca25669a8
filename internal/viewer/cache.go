package viewer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/services"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/internal/sink/arrow"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// cachePath names the Arrow copy of a text recording. The key covers the
// absolute path, size, modification time, column layout, row policy and
// range limits, so an edited file or a different read of it misses.
func cachePath(dir, path string, opts Options) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	// fmt prints maps in key order, so the key is stable.
	key := fmt.Sprintf("%s|%d|%d|%s|%d|%v|%s|%v", abs, info.Size(), info.ModTime().UnixNano(),
		opts.Layout.Name, opts.Layout.TimeColumn, opts.Layout.Columns, opts.Policy, opts.Ranges)
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(key))
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(dir, base+"-"+id.String()[:8]+".arrow"), nil
}

// load reads a finite recording, going through the Arrow cache when
// storage.cache_dir is set. Lenient reads bypass the cache.
func (s *Session) load(path string) (*signal.Recording, services.ReadStats, error) {
	dir := s.cfg.Storage.CacheDir
	if dir == "" || s.opts.Policy != services.PolicyStrict || strings.EqualFold(filepath.Ext(path), ".arrow") {
		return s.reader.Load(path)
	}
	cp, err := cachePath(dir, path, s.opts)
	if err != nil {
		return s.reader.Load(path)
	}

	if _, err := os.Stat(cp); err == nil {
		rec, stats, err := s.reader.Load(cp)
		if err == nil {
			s.logger.Debug("Loaded recording from cache", zap.String("cache", cp))
			return rec, stats, nil
		}
		s.logger.Warn("Ignoring unreadable cache entry", zap.String("cache", cp), zap.Error(err))
	}

	rec, stats, err := s.reader.Load(path)
	if err != nil {
		return nil, stats, err
	}
	w := arrow.NewWriter(s.logger, s.cfg.Storage.BatchRows)
	if _, err := w.WriteRecording(cp, rec, schema.RecordingManifest{
		SessionID:  s.ID,
		SourcePath: path,
		Layout:     s.opts.Layout.Name,
	}); err != nil {
		s.logger.Warn("Failed to cache recording", zap.String("cache", cp), zap.Error(err))
	}
	return rec, stats, nil
}
