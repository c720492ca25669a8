package arrow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

func sampleRecording(t *testing.T, n int) *signal.Recording {
	t.Helper()
	times := make([]float64, n)
	pulse := make([]float64, n)
	body := make([]float64, n)
	for i := range n {
		times[i] = float64(i) / 10
		pulse[i] = 60 + float64(i%7)
		body[i] = float64(i % 4)
	}
	rec, err := signal.NewRecording("test", times, map[schema.Channel][]float64{
		schema.ChannelPulse:        pulse,
		schema.ChannelBodyPosition: body,
	})
	require.NoError(t, err)
	return rec
}

func TestWriteReadRecording(t *testing.T) {
	logger := zaptest.NewLogger(t)
	rec := sampleRecording(t, 250)
	path := filepath.Join(t.TempDir(), "cache", "night.arrow")

	w := NewWriter(logger, 100) // three batches
	written, err := w.WriteRecording(path, rec, schema.RecordingManifest{SourcePath: "night.txt", Layout: "recorded"})
	require.NoError(t, err)
	assert.NotEmpty(t, written.SessionID)
	assert.Equal(t, 250, written.Samples)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed")

	got, manifest, err := NewFileReader(logger).ReadRecording(path)
	require.NoError(t, err)
	assert.Equal(t, written.SessionID, manifest.SessionID)
	assert.Equal(t, "night.txt", manifest.SourcePath)
	assert.Equal(t, "recorded", manifest.Layout)
	assert.Equal(t, rec.Channels(), got.Channels())
	assert.Equal(t, rec.Times(), got.Times())
	assert.Equal(t, rec.Values(schema.ChannelPulse), got.Values(schema.ChannelPulse))
	assert.Equal(t, rec.Values(schema.ChannelBodyPosition), got.Values(schema.ChannelBodyPosition))
}

func TestReadRecording_StreamFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.arrow")
	sc := RecordingSchema([]schema.Channel{schema.ChannelSpO2}, nil)

	f, err := os.Create(path)
	require.NoError(t, err)
	sw := ipc.NewWriter(f, ipc.WithSchema(sc))
	b := array.NewRecordBuilder(memory.NewGoAllocator(), sc)
	b.Field(0).(*array.Float64Builder).AppendValues([]float64{0, 1, 2}, nil)
	b.Field(1).(*array.Float64Builder).AppendValues([]float64{97, 96, 98}, nil)
	batch := b.NewRecord()
	require.NoError(t, sw.Write(batch))
	batch.Release()
	b.Release()
	require.NoError(t, sw.Close())
	require.NoError(t, f.Close())

	rec, _, err := NewFileReader(zaptest.NewLogger(t)).ReadRecording(path)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Len())
	assert.Equal(t, 96.0, rec.ValueAt(schema.ChannelSpO2, 1))
}

func TestReadRecording_Rejects(t *testing.T) {
	dir := t.TempDir()
	junk := filepath.Join(dir, "junk.arrow")
	require.NoError(t, os.WriteFile(junk, []byte("not arrow at all"), 0o644))

	_, _, err := NewFileReader(zaptest.NewLogger(t)).ReadRecording(junk)
	require.Error(t, err)
	assert.True(t, signal.IsDataFormat(err))

	_, err = NewWriter(zaptest.NewLogger(t), 0).WriteRecording(filepath.Join(dir, "x.arrow"), nil, schema.RecordingManifest{})
	assert.ErrorIs(t, err, signal.ErrEmptyRecording)
}
