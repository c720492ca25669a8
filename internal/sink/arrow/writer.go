package arrow

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// DefaultBatchRows is the number of rows per record batch.
const DefaultBatchRows = 64 * 1024

// Writer writes recordings as Arrow IPC files.
type Writer struct {
	logger    *zap.Logger
	batchRows int
	pool      memory.Allocator
}

func NewWriter(logger *zap.Logger, batchRows int) *Writer {
	if batchRows <= 0 {
		batchRows = DefaultBatchRows
	}
	return &Writer{logger: logger, batchRows: batchRows, pool: memory.NewGoAllocator()}
}

// WriteRecording writes rec to path through a temp file that is renamed into
// place once complete. Missing manifest fields are filled in.
func (w *Writer) WriteRecording(path string, rec *signal.Recording, manifest schema.RecordingManifest) (schema.RecordingManifest, error) {
	if rec.Len() == 0 {
		return manifest, fmt.Errorf("write %s: %w", path, signal.ErrEmptyRecording)
	}
	if manifest.SessionID == "" {
		manifest.SessionID = uuid.New().String()
	}
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = time.Now().UTC()
	}
	manifest.Channels = rec.Channels()
	manifest.Samples = rec.Len()
	manifest.StartS, manifest.EndS = rec.Extent()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return manifest, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return manifest, fmt.Errorf("failed to create temp file %s: %w", tempPath, err)
	}

	meta := arrow.NewMetadata(
		[]string{MetaSessionID, MetaSource, MetaLayout, MetaCreatedAt, MetaSamples},
		[]string{manifest.SessionID, manifest.SourcePath, manifest.Layout, manifest.CreatedAt.Format(time.RFC3339), strconv.Itoa(manifest.Samples)},
	)
	sc := RecordingSchema(manifest.Channels, &meta)

	fw, err := ipc.NewFileWriter(file, ipc.WithSchema(sc), ipc.WithAllocator(w.pool))
	if err != nil {
		file.Close()
		os.Remove(tempPath)
		return manifest, fmt.Errorf("failed to create arrow file writer: %w", err)
	}

	if err := w.writeBatches(fw, sc, rec); err != nil {
		fw.Close()
		file.Close()
		os.Remove(tempPath)
		return manifest, err
	}
	if err := fw.Close(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return manifest, fmt.Errorf("failed to close arrow writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return manifest, fmt.Errorf("failed to close %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return manifest, fmt.Errorf("failed to rename %s: %w", tempPath, err)
	}

	w.logger.Info("Recording cached",
		zap.String("path", path),
		zap.String("session_id", manifest.SessionID),
		zap.Int("samples", manifest.Samples),
		zap.Int("channels", len(manifest.Channels)))
	return manifest, nil
}

func (w *Writer) writeBatches(fw *ipc.FileWriter, sc *arrow.Schema, rec *signal.Recording) error {
	b := array.NewRecordBuilder(w.pool, sc)
	defer b.Release()

	cols := make([][]float64, 0, len(rec.Channels())+1)
	cols = append(cols, rec.Times())
	for _, ch := range rec.Channels() {
		cols = append(cols, rec.Values(ch))
	}

	for lo := 0; lo < rec.Len(); lo += w.batchRows {
		hi := min(lo+w.batchRows, rec.Len())
		for i, col := range cols {
			b.Field(i).(*array.Float64Builder).AppendValues(col[lo:hi], nil)
		}
		batch := b.NewRecord()
		err := fw.Write(batch)
		batch.Release()
		if err != nil {
			return fmt.Errorf("failed to write record batch at row %d: %w", lo, err)
		}
	}
	return nil
}
