package arrow

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// FileReader loads cached recordings.
type FileReader struct {
	logger *zap.Logger
}

func NewFileReader(logger *zap.Logger) *FileReader {
	return &FileReader{logger: logger}
}

// batchReader hides the difference between the File and Stream formats.
// Records returned by Next are released by the caller.
type batchReader interface {
	Schema() *arrow.Schema
	Next() (arrow.Record, error)
	Close() error
}

type fileBatches struct {
	r *ipc.FileReader
	i int
}

func (f *fileBatches) Schema() *arrow.Schema { return f.r.Schema() }

func (f *fileBatches) Next() (arrow.Record, error) {
	if f.i >= f.r.NumRecords() {
		return nil, io.EOF
	}
	rec, err := f.r.RecordAt(f.i)
	f.i++
	return rec, err
}

func (f *fileBatches) Close() error { return f.r.Close() }

type streamBatches struct {
	r *ipc.Reader
}

func (s *streamBatches) Schema() *arrow.Schema { return s.r.Schema() }

func (s *streamBatches) Next() (arrow.Record, error) {
	if s.r.Next() {
		rec := s.r.Record()
		rec.Retain()
		return rec, nil
	}
	if err := s.r.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (s *streamBatches) Close() error {
	s.r.Release()
	return nil
}

// open tries the File format first and falls back to the Stream format.
func (r *FileReader) open(file *os.File, path string) (batchReader, error) {
	if fr, err := ipc.NewFileReader(file); err == nil {
		return &fileBatches{r: fr}, nil
	} else {
		r.logger.Debug("Not an Arrow file, trying stream format", zap.String("file", path), zap.Error(err))
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", path, err)
	}
	sr, err := ipc.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader (tried both File and Stream formats): %w", err)
	}
	return &streamBatches{r: sr}, nil
}

// ReadRecording loads a file written by Writer.WriteRecording. Columns with
// unknown names are ignored; a missing time column is a DataFormatError.
func (r *FileReader) ReadRecording(path string) (*signal.Recording, schema.RecordingManifest, error) {
	var manifest schema.RecordingManifest

	file, err := os.Open(path)
	if err != nil {
		return nil, manifest, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	br, err := r.open(file, path)
	if err != nil {
		return nil, manifest, &signal.DataFormatError{Source: path, Column: -1, Reason: "not an arrow file", Err: err}
	}
	defer br.Close()

	sc := br.Schema()
	manifest = manifestFromMetadata(sc.Metadata())

	timeIdx := -1
	colIdx := make(map[schema.Channel]int)
	for i, f := range sc.Fields() {
		if f.Name == TimeField {
			timeIdx = i
			continue
		}
		if ch, ok := schema.ParseChannel(f.Name); ok && arrow.TypeEqual(f.Type, arrow.PrimitiveTypes.Float64) {
			colIdx[ch] = i
		}
	}
	if timeIdx < 0 {
		return nil, manifest, &signal.DataFormatError{Source: path, Column: -1, Reason: "missing " + TimeField + " column"}
	}

	var times []float64
	cols := make(map[schema.Channel][]float64, len(colIdx))
	for {
		batch, err := br.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, manifest, fmt.Errorf("failed to read record batch: %w", err)
		}
		tcol, ok := batch.Column(timeIdx).(*array.Float64)
		if !ok {
			batch.Release()
			return nil, manifest, &signal.DataFormatError{Source: path, Column: timeIdx, Reason: "time column is not float64"}
		}
		times = append(times, tcol.Float64Values()...)
		for ch, i := range colIdx {
			cols[ch] = append(cols[ch], batch.Column(i).(*array.Float64).Float64Values()...)
		}
		batch.Release()
	}

	rec, err := signal.NewRecording(path, times, cols)
	if err != nil {
		return nil, manifest, err
	}
	manifest.Channels = rec.Channels()
	manifest.Samples = rec.Len()
	manifest.StartS, manifest.EndS = rec.Extent()

	r.logger.Info("Cached recording loaded",
		zap.String("file", path),
		zap.String("session_id", manifest.SessionID),
		zap.Int("samples", manifest.Samples))
	return rec, manifest, nil
}

func manifestFromMetadata(md arrow.Metadata) schema.RecordingManifest {
	var m schema.RecordingManifest
	get := func(key string) string {
		if i := md.FindKey(key); i >= 0 {
			return md.Values()[i]
		}
		return ""
	}
	m.SessionID = get(MetaSessionID)
	m.SourcePath = get(MetaSource)
	m.Layout = get(MetaLayout)
	if t, err := time.Parse(time.RFC3339, get(MetaCreatedAt)); err == nil {
		m.CreatedAt = t
	}
	if n, err := strconv.Atoi(get(MetaSamples)); err == nil {
		m.Samples = n
	}
	return m
}
