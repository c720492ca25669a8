package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/internal/sink/arrow"
	"github.com/sleepsense/sleepview/pkg/schema"
)

const recordedRows = `0,0,60,97,0,0,0,10
500,1,61,97,0,0,0,12
1000,2,62,96,0,0,0,-3
1500,3,63,95,0,0,0,4
`

func TestRecordingReader_Recorded(t *testing.T) {
	r := NewRecordingReader(zaptest.NewLogger(t), signal.RecordedLayout(), PolicyStrict, nil)
	rec, stats, err := r.Read(strings.NewReader(recordedRows), "DATA2304.TXT")
	require.NoError(t, err)

	assert.Equal(t, ReadStats{Rows: 4, Accepted: 4}, stats)
	start, end := rec.Extent()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 1.5, end)
	assert.Equal(t, -3.0, rec.ValueAt(schema.ChannelFlow, 2))
	assert.Equal(t, 3.0, rec.ValueAt(schema.ChannelBodyPosition, 3))
	assert.False(t, rec.Has(schema.ChannelPleth))
}

func TestRecordingReader_StrictFailures(t *testing.T) {
	cases := map[string]string{
		"short row":     "0,0,60,97,0,0,0,10\n500,1,61\n",
		"non-numeric":   "0,0,60,97,0,0,0,10\n500,x,61,97,0,0,0,1\n",
		"empty":         "",
		"decreasing":    "1000,0,60,97,0,0,0,1\n500,0,60,97,0,0,0,1\n",
		"nan time":      "NaN,0,60,97,0,0,0,1\n",
		"missing flow":  "0,0,60,97\n",
		"quoted broken": "0,\"0,60\n",
	}
	r := NewRecordingReader(zaptest.NewLogger(t), signal.RecordedLayout(), PolicyStrict, nil)
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := r.Read(strings.NewReader(body), "bad.txt")
			require.Error(t, err)
			assert.True(t, signal.IsDataFormat(err), "got %v", err)
		})
	}
}

func TestRecordingReader_LenientStreaming(t *testing.T) {
	rows := strings.Join([]string{
		"0,500,97,60,1,10,3,0,0,0",    // ok
		"100,500,80,60,1,10,3,0,0,0",  // spo2 low
		"200,500,97,200,1,10,3,0,0,0", // pulse high
		"300,500,97,60,1,50,3,0,0,0",  // body out of band
		"400,abc,97,60,1,10,3,0,0,0",  // non-numeric
		"500,500,97,60,1",             // short
		"-5,500,97,60,1,10,3,0,0,0",   // negative time
		"600,500,97,60,1,20,3,0,0,0",  // ok
		"550,500,97,60,1,20,3,0,0,0",  // back in time
	}, "\n")
	r := NewRecordingReader(zaptest.NewLogger(t), signal.StreamingLayout(), PolicyLenient, DefaultRanges())
	rec, stats, err := r.Read(strings.NewReader(rows), "live.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, rec.Len())
	assert.Equal(t, ReadStats{Rows: 9, Accepted: 2, Dropped: 3, OutOfRange: 4}, stats)
	assert.Equal(t, 20.0, rec.ValueAt(schema.ChannelBodyPosition, 1))
}

func TestRecordingReader_LoadDispatchesArrow(t *testing.T) {
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()
	txt := filepath.Join(dir, "night.txt")
	require.NoError(t, os.WriteFile(txt, []byte(recordedRows), 0o644))

	r := NewRecordingReader(logger, signal.RecordedLayout(), PolicyStrict, nil)
	rec, _, err := r.Load(txt)
	require.NoError(t, err)

	cache := filepath.Join(dir, "night.arrow")
	_, err = arrow.NewWriter(logger, 0).WriteRecording(cache, rec, schema.RecordingManifest{SourcePath: txt})
	require.NoError(t, err)

	cached, stats, err := r.Load(cache)
	require.NoError(t, err)
	assert.Equal(t, rec.Times(), cached.Times())
	assert.Equal(t, 4, stats.Accepted)

	_, _, err = r.Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestRowParser_CheckSample(t *testing.T) {
	p := &RowParser{Layout: signal.StreamingLayout(), Policy: PolicyLenient, Ranges: DefaultRanges()}
	var stats ReadStats
	good := schema.Sample{TimeMS: 10, Values: map[schema.Channel]float64{
		schema.ChannelPleth: 1, schema.ChannelSpO2: 97, schema.ChannelPulse: 60,
		schema.ChannelFlow: 0, schema.ChannelBodyPosition: 10, schema.ChannelSnore: 0,
	}}
	assert.True(t, p.CheckSample(good, &stats))

	partial := schema.Sample{TimeMS: 20, Values: map[schema.Channel]float64{schema.ChannelSpO2: 97}}
	assert.False(t, p.CheckSample(partial, &stats))
	assert.Equal(t, ReadStats{Rows: 2, Accepted: 1, Dropped: 1}, stats)
}

func TestRowParser_ChecksChannelsInStorageOrder(t *testing.T) {
	// pulse is not numeric and spo2 is out of range; pulse comes first.
	fields := SplitFields("100,5,70,abc,0,10,0")
	for range 50 {
		lenient := &RowParser{Layout: signal.StreamingLayout(), Policy: PolicyLenient, Ranges: DefaultRanges()}
		var stats ReadStats
		_, ok, err := lenient.Parse(fields, 1, &stats)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, ReadStats{Rows: 1, Dropped: 1}, stats)

		strict := &RowParser{Source: "dev", Layout: signal.StreamingLayout(), Policy: PolicyStrict, Ranges: DefaultRanges()}
		_, _, err = strict.Parse(fields, 1, &ReadStats{})
		var dfe *signal.DataFormatError
		require.ErrorAs(t, err, &dfe)
		assert.Equal(t, 3, dfe.Column)
	}
}

func TestRangesFor(t *testing.T) {
	assert.Nil(t, RangesFor(signal.RecordedLayout()))
	r := RangesFor(signal.StreamingLayout())
	assert.Equal(t, DefaultRanges(), r)
	r[schema.ChannelPulse] = Range{Min: 0, Max: 1}
	assert.Equal(t, Range{Min: 49, Max: 170}, DefaultRanges()[schema.ChannelPulse], "copies are independent")
}

func TestParseRowPolicy(t *testing.T) {
	p, err := ParseRowPolicy("lenient")
	require.NoError(t, err)
	assert.Equal(t, PolicyLenient, p)
	_, err = ParseRowPolicy("loose")
	assert.Error(t, err)
}
