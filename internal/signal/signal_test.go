package signal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/pkg/schema"
)

func TestNormalize_DistinctRange(t *testing.T) {
	out := Normalize([]float64{2, 4, 6, 10})
	require.Len(t, out, 4)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 1.0, out[3])
	assert.InDelta(t, 0.25, out[1], 1e-12)
	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestNormalize_ConstantChannelIsZero(t *testing.T) {
	out := Normalize([]float64{97, 97, 97})
	for i, v := range out {
		assert.False(t, math.IsNaN(v), "index %d is NaN", i)
		assert.Equal(t, 0.0, v)
	}
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(nil))
}

func TestNewRecording_Validation(t *testing.T) {
	cases := []struct {
		name  string
		times []float64
		cols  map[schema.Channel][]float64
		want  error
	}{
		{"empty", nil, nil, ErrEmptyRecording},
		{"nan time", []float64{0, math.NaN()}, nil, nil},
		{"decreasing", []float64{0, 2, 1}, nil, nil},
		{"length mismatch", []float64{0, 1}, map[schema.Channel][]float64{schema.ChannelPulse: {60}}, ErrLengthMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRecording("test", tc.times, tc.cols)
			require.Error(t, err)
			assert.True(t, IsDataFormat(err))
			if tc.want != nil {
				assert.True(t, errors.Is(err, tc.want))
			}
		})
	}
}

func TestRecording_ExtentAndIndexRange(t *testing.T) {
	rec, err := NewRecording("test", []float64{0, 1, 2, 3, 4, 5}, map[schema.Channel][]float64{
		schema.ChannelPulse: {60, 61, 62, 63, 64, 65},
	})
	require.NoError(t, err)

	start, end := rec.Extent()
	assert.Equal(t, 0.0, start)
	assert.Equal(t, 5.0, end)
	assert.InDelta(t, 1.0, rec.MeanPeriod(), 1e-12)

	lo, hi := rec.IndexRange(1.5, 3)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 4, hi)

	assert.Equal(t, 63.0, rec.ValueAt(schema.ChannelPulse, 3))
	assert.True(t, math.IsNaN(rec.ValueAt(schema.ChannelSpO2, 3)))
	assert.False(t, rec.Has(schema.ChannelSpO2))
}

func TestStore_AppendPublishesSnapshots(t *testing.T) {
	channels := []schema.Channel{schema.ChannelPulse, schema.ChannelSpO2}
	s := NewEmptyStore(zap.NewNop(), "live", channels)
	require.Equal(t, 0, s.Snapshot().Len())

	first := s.Snapshot()
	res := s.Append([]schema.Sample{
		{TimeMS: 1000, Values: map[schema.Channel]float64{schema.ChannelPulse: 60, schema.ChannelSpO2: 97}},
		{TimeMS: 2000, Values: map[schema.Channel]float64{schema.ChannelPulse: 61, schema.ChannelSpO2: 96}},
		{TimeMS: 1500, Values: map[schema.Channel]float64{schema.ChannelPulse: 62, schema.ChannelSpO2: 96}},
		{TimeMS: 3000, Values: map[schema.Channel]float64{schema.ChannelPulse: 62}},
	})
	assert.Equal(t, AppendResult{Accepted: 2, Dropped: 2}, res)

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Len())
	start, end := snap.Extent()
	assert.Equal(t, 1.0, start)
	assert.Equal(t, 2.0, end)
	assert.Equal(t, 0, first.Len(), "earlier snapshot must not change")

	s.Append([]schema.Sample{
		{TimeMS: 4000, Values: map[schema.Channel]float64{schema.ChannelPulse: 70, schema.ChannelSpO2: 95}},
	})
	assert.Equal(t, 2, snap.Len())
	assert.Equal(t, 3, s.Snapshot().Len())
	assert.Equal(t, 70.0, s.Snapshot().ValueAt(schema.ChannelPulse, 2))
}

func TestStore_WrapsLoadedRecording(t *testing.T) {
	rec, err := NewRecording("file", []float64{0, 1}, map[schema.Channel][]float64{schema.ChannelFlow: {1, 2}})
	require.NoError(t, err)

	s := NewStore(zap.NewNop(), "file", rec)
	assert.Same(t, rec, s.Snapshot())
	assert.Equal(t, []schema.Channel{schema.ChannelFlow}, s.Channels())
}

func TestLayouts(t *testing.T) {
	rec := RecordedLayout()
	assert.Equal(t, 8, rec.Arity())
	assert.Equal(t, 7, rec.Columns[schema.ChannelFlow])

	st, err := LayoutByName("streaming")
	require.NoError(t, err)
	assert.Equal(t, 7, st.Arity())
	assert.Len(t, st.Channels(), 6)

	o, err := rec.WithOverrides(map[string]int{"flow": 4, "spo2": -1})
	require.NoError(t, err)
	assert.Equal(t, 4, o.Columns[schema.ChannelFlow])
	assert.NotContains(t, o.Columns, schema.ChannelSpO2)
	assert.Equal(t, 7, rec.Columns[schema.ChannelFlow], "receiver untouched")

	_, err = rec.WithOverrides(map[string]int{"heart": 2})
	assert.Error(t, err)
	_, err = LayoutByName("other")
	assert.Error(t, err)
}
