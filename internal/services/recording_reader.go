package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/internal/sink/arrow"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// RecordingReader loads a whole recording, either a delimited text file or
// an Arrow cache written by sink/arrow.
type RecordingReader struct {
	logger      *zap.Logger
	layout      signal.Layout
	policy      RowPolicy
	ranges      Ranges
	arrowReader *arrow.FileReader
}

func NewRecordingReader(logger *zap.Logger, layout signal.Layout, policy RowPolicy, ranges Ranges) *RecordingReader {
	return &RecordingReader{
		logger:      logger,
		layout:      layout,
		policy:      policy,
		ranges:      ranges,
		arrowReader: arrow.NewFileReader(logger),
	}
}

// Parser returns a row parser configured like this reader.
func (r *RecordingReader) Parser(source string) *RowParser {
	return &RowParser{Source: source, Layout: r.layout, Policy: r.policy, Ranges: r.ranges}
}

// Load reads path. Any problem that makes the recording unusable is returned
// as a *signal.DataFormatError.
func (r *RecordingReader) Load(path string) (*signal.Recording, ReadStats, error) {
	if strings.EqualFold(filepath.Ext(path), ".arrow") {
		rec, _, err := r.arrowReader.ReadRecording(path)
		if err != nil {
			return nil, ReadStats{}, err
		}
		return rec, ReadStats{Rows: rec.Len(), Accepted: rec.Len()}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		r.logger.Error("Failed to open recording", zap.String("file", path), zap.Error(err))
		return nil, ReadStats{}, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return r.Read(f, path)
}

// Read parses delimited rows from src. Rows must be in time order; a
// lenient reader drops rows that go back in time.
func (r *RecordingReader) Read(src io.Reader, name string) (*signal.Recording, ReadStats, error) {
	var stats ReadStats
	parser := r.Parser(name)

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	channels := r.layout.Channels()
	var times []float64
	cols := make(map[schema.Channel][]float64, len(channels))
	for _, ch := range channels {
		cols[ch] = nil
	}

	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if r.policy == PolicyStrict {
				line := 0
				var pe *csv.ParseError
				if errors.As(err, &pe) {
					line = pe.Line
				}
				return nil, stats, &signal.DataFormatError{Source: name, Line: line, Column: -1, Reason: "malformed row", Err: err}
			}
			stats.Rows++
			stats.Dropped++
			continue
		}
		line, _ := cr.FieldPos(0)
		smp, ok, err := parser.Parse(fields, line, &stats)
		if err != nil {
			r.logger.Error("Recording rejected", zap.String("file", name), zap.Error(err))
			return nil, stats, err
		}
		if !ok {
			continue
		}
		t := smp.Seconds()
		if n := len(times); n > 0 && t < times[n-1] && r.policy == PolicyLenient {
			stats.Accepted--
			stats.Dropped++
			continue
		}
		times = append(times, t)
		for _, ch := range channels {
			cols[ch] = append(cols[ch], smp.Values[ch])
		}
	}

	rec, err := signal.NewRecording(name, times, cols)
	if err != nil {
		r.logger.Error("Recording rejected", zap.String("file", name), zap.Error(err))
		return nil, stats, err
	}

	start, end := rec.Extent()
	r.logger.Info("Recording loaded",
		zap.String("file", name),
		zap.String("layout", r.layout.Name),
		zap.Int("rows", stats.Rows),
		zap.Int("accepted", stats.Accepted),
		zap.Int("dropped", stats.Dropped),
		zap.Int("out_of_range", stats.OutOfRange),
		zap.Float64("start_s", start),
		zap.Float64("end_s", end))
	return rec, stats, nil
}
