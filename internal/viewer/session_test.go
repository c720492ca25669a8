package viewer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sleepsense/sleepview/internal/config"
	"github.com/sleepsense/sleepview/internal/ingest"
	"github.com/sleepsense/sleepview/internal/render"
	"github.com/sleepsense/sleepview/internal/services"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/internal/sink/arrow"
	"github.com/sleepsense/sleepview/internal/viewport"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// writeRecorded writes n rows at 10 Hz in the recorded layout.
func writeRecorded(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "%d,%d,%d,%d,0,0,0,%d\n", i*100, (i/50)%4, 60+i%10, 95+i%3, i%7-3)
	}
	path := filepath.Join(t.TempDir(), "night.txt")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestResolveOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Columns = map[string]int{"flow": -1}
	cfg.Recording.Ranges = map[string]config.Range{"pulse": {Min: 40, Max: 180}}
	cfg.Viewport.TimeUnit = "minutes"

	o, err := ResolveOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.ModeFinite, o.Mode)
	assert.Equal(t, services.PolicyStrict, o.Policy)
	assert.NotContains(t, o.Layout.Channels(), schema.ChannelFlow)
	assert.Equal(t, services.Range{Min: 40, Max: 180}, o.Ranges[schema.ChannelPulse])
	assert.Len(t, o.Ranges, 1, "strict mode only carries configured ranges")
	assert.Equal(t, viewport.Minutes, o.Unit)
	assert.Len(t, o.Presets, 7)
	assert.Equal(t, schema.ChannelBodyPosition, o.Display.Channels[0])

	cfg = config.Default()
	cfg.Ingest.Mode = "growing"
	cfg.Recording.Layout = "streaming"
	o, err = ResolveOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, services.PolicyLenient, o.Policy)
	assert.Equal(t, services.DefaultRanges(), o.Ranges)
	assert.Equal(t, "banded", o.Layout.CodeTable)
}

func TestResolveOptions_LenientRecordedKeepsIndexedCodes(t *testing.T) {
	cfg := config.Default()
	cfg.Ingest.Mode = "growing"
	o, err := ResolveOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, services.PolicyLenient, o.Policy)
	assert.NotContains(t, o.Ranges, schema.ChannelBodyPosition)

	p := &services.RowParser{Layout: o.Layout, Policy: o.Policy, Ranges: o.Ranges}
	var stats services.ReadStats
	_, ok, err := p.Parse(services.SplitFields("100,0,60,97,0,0,0,2"), 1, &stats)
	require.NoError(t, err)
	assert.True(t, ok, "body code 0 is a valid recorded position")

	cfg = config.Default()
	cfg.Recording.RowPolicy = "lenient"
	cfg.Recording.Ranges = map[string]config.Range{"spo2": {Min: 90, Max: 100}}
	o, err = ResolveOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, services.Ranges{schema.ChannelSpO2: {Min: 90, Max: 100}}, o.Ranges)
}

func TestOpen_LenientRecordedKeepsRows(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Path = writeRecorded(t, 200)
	cfg.Recording.RowPolicy = "lenient"

	s, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, 200, s.Store.Snapshot().Len())
	assert.Equal(t, 200, s.Stats.Accepted)
	assert.Zero(t, s.Stats.OutOfRange)
}

func TestResolveOptions_RejectsUnknownNames(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Channels = []string{"eeg"}
	_, err := ResolveOptions(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Recording.Layout = "sideways"
	_, err = ResolveOptions(cfg)
	assert.Error(t, err)
}

func TestOpen_FiniteRecording(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Path = writeRecorded(t, 400)

	s, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 400, s.Stats.Accepted)

	st := s.Controller.State()
	assert.Equal(t, 0.0, st.Start)
	assert.InDelta(t, 39.9, st.End, 1e-9)
	assert.Equal(t, 10.0, st.Width)

	var got []render.Command
	s.OnRender(func(c render.Command) { got = append(got, c) })

	s.Controller.ZoomIn()
	s.Controller.ScrollTo(500)
	s.Controller.ScrollTo(500)
	require.Len(t, got, 2, "repeated scroll is deduplicated")
	assert.Equal(t, 5.0, got[1].XMin)
	assert.Equal(t, "Showing: 5.0s to 11.7s", got[1].Status)

	s.Refresh()
	assert.Len(t, got, 3, "refresh always forwards")

	scene := s.Scene()
	assert.Len(t, scene.Traces, 4)
	assert.Same(t, scene, s.Scene(), "scene is cached per snapshot")
	assert.NotEmpty(t, scene.Marks)

	from, to := s.AxisLabels()
	assert.Equal(t, "5.0s", from)
	assert.Equal(t, "11.7s", to)
	assert.Equal(t, viewport.Minutes, s.ToggleUnit())
}

func TestOpen_MissingPath(t *testing.T) {
	_, err := Open(zaptest.NewLogger(t), config.Default())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg := config.Default()
	cfg.Recording.Path = filepath.Join(t.TempDir(), "absent.txt")
	_, err = Open(zaptest.NewLogger(t), cfg)
	assert.Error(t, err)
}

func TestSession_Buttons(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Path = writeRecorded(t, 3000) // 300 s
	s, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)

	buttons := s.Buttons()
	require.Len(t, buttons, 7)
	assert.Equal(t, "1m", buttons[4].Label)
	buttons[4].Activate()
	assert.Equal(t, 60.0, s.Controller.State().Width)
}

func TestSession_GrowingExtends(t *testing.T) {
	cfg := config.Default()
	cfg.Ingest.Mode = "growing"
	cfg.Recording.Path = filepath.Join(t.TempDir(), "live.txt")

	s, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, schema.ModeGrowing, s.Mode())
	assert.Equal(t, 0, s.Store.Snapshot().Len())

	src, err := s.Source(func(start, end float64) {})
	require.NoError(t, err)
	assert.IsType(t, &ingest.TailSource{}, src)

	var got []render.Command
	s.OnRender(func(c render.Command) { got = append(got, c) })

	s.Store.Append([]schema.Sample{
		{TimeMS: 0, Values: map[schema.Channel]float64{schema.ChannelBodyPosition: 0, schema.ChannelPulse: 60, schema.ChannelSpO2: 97, schema.ChannelFlow: 1}},
		{TimeMS: 200_000, Values: map[schema.Channel]float64{schema.ChannelBodyPosition: 1, schema.ChannelPulse: 61, schema.ChannelSpO2: 96, schema.ChannelFlow: -1}},
	})
	before := s.Scene()
	s.Extended(s.Store.Snapshot().Extent())

	st := s.Controller.State()
	assert.Equal(t, 60.0, st.Width)
	assert.Equal(t, 140.0, st.Offset, "follow keeps the view pinned to the end")
	require.NotEmpty(t, got)
	assert.Equal(t, 200.0, got[len(got)-1].XMax)
	assert.Same(t, before, s.Scene())

	cfg.Ingest.Source = "websocket"
	cfg.Ingest.WebSocket.URL = "ws://127.0.0.1:1/feed"
	src, err = s.Source(nil)
	require.NoError(t, err)
	assert.IsType(t, &ingest.FeedSource{}, src)
}

func TestSession_SourceRequiresGrowing(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Path = writeRecorded(t, 20)
	s, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	_, err = s.Source(nil)
	assert.Error(t, err)
}

func TestSession_ExportRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Path = writeRecorded(t, 120)
	s, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "night.arrow")
	m, err := s.Export(out)
	require.NoError(t, err)
	assert.Equal(t, s.ID, m.SessionID)
	assert.Equal(t, 120, m.Samples)

	rec, manifest, err := arrow.NewFileReader(zaptest.NewLogger(t)).ReadRecording(out)
	require.NoError(t, err)
	assert.Equal(t, 120, rec.Len())
	assert.Equal(t, "recorded", manifest.Layout)

	// The exported file can be reopened as a session.
	cfg.Recording.Path = out
	again, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, 120, again.Store.Snapshot().Len())
}

func TestSession_Frame(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Path = writeRecorded(t, 300)
	cfg.Render.Width, cfg.Render.Height = 400, 200
	s, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)

	img, err := s.Frame(s.Current())
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestOpen_UsesArrowCache(t *testing.T) {
	cfg := config.Default()
	cfg.Recording.Path = writeRecorded(t, 250)
	cfg.Storage.CacheDir = t.TempDir()

	first, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	entries, err := filepath.Glob(filepath.Join(cfg.Storage.CacheDir, "night-*.arrow"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	second, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, first.Store.Snapshot().Times(), second.Store.Snapshot().Times())
	assert.Equal(t, 250, second.Stats.Accepted)

	// A different layout gets its own entry.
	cfg.Recording.Columns = map[string]int{"flow": -1}
	_, err = Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	entries, _ = filepath.Glob(filepath.Join(cfg.Storage.CacheDir, "night-*.arrow"))
	assert.Len(t, entries, 2)
}

func TestOpen_LenientLoadDoesNotMaskStrictError(t *testing.T) {
	path := writeRecorded(t, 100)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.SplitAfter(string(raw), "\n")
	lines[50] = "5000,1,abc,96,0,0,0,1\n"
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "")), 0o644))

	cfg := config.Default()
	cfg.Recording.Path = path
	cfg.Storage.CacheDir = t.TempDir()

	_, err = Open(zaptest.NewLogger(t), cfg)
	require.Error(t, err)
	assert.True(t, signal.IsDataFormat(err))

	cfg.Recording.RowPolicy = "lenient"
	s, err := Open(zaptest.NewLogger(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, 99, s.Store.Snapshot().Len())
	entries, _ := filepath.Glob(filepath.Join(cfg.Storage.CacheDir, "*.arrow"))
	assert.Empty(t, entries, "lenient reads are not cached")

	cfg.Recording.RowPolicy = "strict"
	_, err = Open(zaptest.NewLogger(t), cfg)
	require.Error(t, err)
	assert.True(t, signal.IsDataFormat(err))
}

func TestCachePath_KeysOnReadOptions(t *testing.T) {
	path := writeRecorded(t, 10)
	dir := t.TempDir()
	cfg := config.Default()
	strict, err := ResolveOptions(cfg)
	require.NoError(t, err)

	a, err := cachePath(dir, path, strict)
	require.NoError(t, err)
	again, err := cachePath(dir, path, strict)
	require.NoError(t, err)
	assert.Equal(t, a, again)

	limited := strict
	limited.Ranges = services.Ranges{schema.ChannelPulse: {Min: 40, Max: 180}}
	b, err := cachePath(dir, path, limited)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	lenient := strict
	lenient.Policy = services.PolicyLenient
	c, err := cachePath(dir, path, lenient)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
