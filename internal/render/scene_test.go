package render

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sleepsense/sleepview/internal/annotation"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

func testRecording(t *testing.T, n int) *signal.Recording {
	t.Helper()
	times := make([]float64, n)
	body := make([]float64, n)
	pulse := make([]float64, n)
	spo2 := make([]float64, n)
	for i := range n {
		times[i] = float64(i) * 0.5
		body[i] = float64(i / 20 % 4)
		pulse[i] = 60 + float64(i%10)
		spo2[i] = 97
	}
	rec, err := signal.NewRecording("test", times, map[schema.Channel][]float64{
		schema.ChannelBodyPosition: body,
		schema.ChannelPulse:        pulse,
		schema.ChannelSpO2:         spo2,
	})
	require.NoError(t, err)
	return rec
}

func TestBuildScene_StacksLanes(t *testing.T) {
	rec := testRecording(t, 200)
	scene := BuildScene(rec, DefaultLayout(), annotation.NewSampler(annotation.IndexedCodes, 5))

	require.Len(t, scene.Traces, 3, "flow is absent and skipped")
	assert.Equal(t, []float64{0, 1.2, 2.4}, []float64{scene.Traces[0].Offset, scene.Traces[1].Offset, scene.Traces[2].Offset})
	assert.Equal(t, "Body Position", scene.Traces[0].Label)
	assert.Equal(t, -0.5, scene.YMin)
	assert.InDelta(t, 3.4, scene.YMax, 1e-9)
	assert.InDelta(t, 0.5, scene.ArrowY, 1e-9)

	// constant SpO2 lands flat on its lane
	for _, v := range scene.Traces[2].Values {
		assert.InDelta(t, 2.4, v, 1e-9)
	}
	assert.InDelta(t, 2.4, scene.Traces[2].LabelY, 1e-9)

	require.Len(t, scene.Marks, 20)
	assert.Equal(t, annotation.Up, scene.Marks[0].Symbol)
	assert.Equal(t, annotation.Left, scene.Marks[2].Symbol)
	assert.Len(t, scene.YTicks(), 3)
}

func TestScene_WindowSlicesAndDownsamples(t *testing.T) {
	rec := testRecording(t, 200)
	scene := BuildScene(rec, DefaultLayout(), annotation.NewSampler(nil, 5))

	v := scene.Window(10, 20, 1000)
	assert.Equal(t, 9.5, v.Times[0])
	assert.Equal(t, 20.5, v.Times[len(v.Times)-1])
	assert.Len(t, v.Values, 3)
	assert.Len(t, v.Values[1], len(v.Times))
	assert.Len(t, v.Marks, 3)

	small := scene.Window(0, 99.5, 10)
	assert.LessOrEqual(t, len(small.Times), 11)
	assert.Equal(t, 99.5, small.Times[len(small.Times)-1])
}

func TestRenderer_ImageAndSnapshot(t *testing.T) {
	rec := testRecording(t, 200)
	layout := DefaultLayout()
	layout.Highlights = []float64{12}
	scene := BuildScene(rec, layout, annotation.NewSampler(nil, 5))
	r := NewRenderer(zaptest.NewLogger(t), 400, 300, 500)

	ch, err := r.Chart(scene, Command{XMin: 10, XMax: 30, Status: StatusText(10, 30)})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(ch.Series), 5)

	img, err := r.Image(scene, Command{XMin: 10, XMax: 30, Status: StatusText(10, 30)})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 400, 300), img.Bounds())

	path := filepath.Join(t.TempDir(), "out", "view.png")
	require.NoError(t, r.SnapshotPNG(path, scene, Command{XMin: 0, XMax: 5, Status: StatusText(0, 5)}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderer_EmptyRangeFallsBack(t *testing.T) {
	scene := BuildScene(testRecording(t, 10), DefaultLayout(), annotation.NewSampler(nil, 5))
	r := NewRenderer(zaptest.NewLogger(t), 200, 100, 0)
	img, err := r.Image(scene, Command{XMin: 3, XMax: 3})
	assert.Error(t, err)
	assert.NotNil(t, img)
}

func TestDrawStatus(t *testing.T) {
	src := blank(200, 40)
	out := DrawStatus(src, "Showing: 0.0s to 10.0s")
	assert.NotEqual(t, src.At(10, 30), out.At(10, 30))
	assert.Same(t, src, DrawStatus(src, "  "))
}
