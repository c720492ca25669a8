package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 600
	// maxArrows bounds the annotation series drawn in one frame.
	maxArrows = 400
)

// Renderer rasterises a scene for one render command.
type Renderer struct {
	logger    *zap.Logger
	Width     int
	Height    int
	MaxPoints int
	// Overlay draws the status text onto the image.
	Overlay bool
}

func NewRenderer(logger *zap.Logger, width, height, maxPoints int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if maxPoints < 2 {
		maxPoints = DefaultMaxPoints
	}
	return &Renderer{logger: logger, Width: width, Height: height, MaxPoints: maxPoints, Overlay: true}
}

// Chart builds the go-chart definition for cmd. It fails when the visible
// range is empty, which go-chart cannot draw.
func (r *Renderer) Chart(scene *Scene, cmd Command) (chart.Chart, error) {
	if !(cmd.XMax > cmd.XMin) {
		return chart.Chart{}, fmt.Errorf("empty visible range [%.3f, %.3f]", cmd.XMin, cmd.XMax)
	}
	view := scene.Window(cmd.XMin, cmd.XMax, r.MaxPoints)
	if len(view.Times) < 2 {
		return chart.Chart{}, fmt.Errorf("fewer than two samples in [%.3f, %.3f]", cmd.XMin, cmd.XMax)
	}

	var series []chart.Series
	for i, tr := range scene.Traces {
		series = append(series, chart.ContinuousSeries{
			Name:    tr.Label,
			XValues: view.Times,
			YValues: view.Values[i],
			Style:   chart.Style{StrokeColor: tr.Color, StrokeWidth: 1},
		})
	}
	series = append(series, r.highlightSeries(scene, cmd)...)
	series = append(series, r.arrowSeries(scene, view, cmd)...)

	return chart.Chart{
		Title:      scene.Title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 12, Bottom: 36}},
		XAxis: chart.XAxis{
			Name:           "Time (s)",
			Range:          &chart.ContinuousRange{Min: cmd.XMin, Max: cmd.XMax},
			ValueFormatter: func(v interface{}) string { return fmt.Sprintf("%.1f", v.(float64)) },
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: scene.YMin, Max: scene.YMax},
			Ticks: scene.YTicks(),
		},
		Series: series,
	}, nil
}

func (r *Renderer) highlightSeries(scene *Scene, cmd Command) []chart.Series {
	var out []chart.Series
	style := chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1, StrokeDashArray: []float64{5, 5}}
	for _, t := range scene.Highlights {
		if t < cmd.XMin || t > cmd.XMax {
			continue
		}
		out = append(out, chart.ContinuousSeries{
			XValues: []float64{t, t},
			YValues: []float64{scene.YMin, scene.YMax},
			Style:   style,
		})
	}
	return out
}

// arrowSeries draws each visible mark as a short segment plus its glyph.
// Horizontal displacement is corrected for the plot's aspect ratio so arrows
// keep their length at every zoom level.
func (r *Renderer) arrowSeries(scene *Scene, view View, cmd Command) []chart.Series {
	marks := view.Marks
	if len(marks) == 0 {
		return nil
	}
	step := 1
	if len(marks) > maxArrows {
		step = (len(marks) + maxArrows - 1) / maxArrows
	}
	xPerY := (cmd.XMax - cmd.XMin) / (scene.YMax - scene.YMin) * float64(r.Height) / float64(r.Width)

	stroke := chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 1.5}
	labels := chart.AnnotationSeries{
		Style: chart.Style{
			FontColor:   drawing.ColorFromHex("0000ff"),
			StrokeColor: drawing.ColorTransparent,
			FillColor:   drawing.ColorTransparent,
		},
	}
	var out []chart.Series
	for i := 0; i < len(marks); i += step {
		m := marks[i]
		dx, dy := m.Symbol.Vector()
		x2 := m.T + dx*ArrowLength*xPerY
		y2 := scene.ArrowY + dy*ArrowLength
		if dx != 0 || dy != 0 {
			out = append(out, chart.ContinuousSeries{
				XValues: []float64{m.T, x2},
				YValues: []float64{scene.ArrowY, y2},
				Style:   stroke,
			})
		}
		labels.Annotations = append(labels.Annotations, chart.Value2{XValue: x2, YValue: y2, Label: m.Symbol.ASCII()})
	}
	return append(out, labels)
}

// Image renders cmd to an image. Failures fall back to a blank frame so a
// surface always has something to show.
func (r *Renderer) Image(scene *Scene, cmd Command) (image.Image, error) {
	ch, err := r.Chart(scene, cmd)
	if err != nil {
		return r.decorate(blank(r.Width, r.Height), cmd), err
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		r.logger.Warn("Chart render failed", zap.Error(err), zap.String("status", cmd.Status))
		return r.decorate(blank(r.Width, r.Height), cmd), fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return r.decorate(blank(r.Width, r.Height), cmd), fmt.Errorf("decode chart: %w", err)
	}
	return r.decorate(img, cmd), nil
}

func (r *Renderer) decorate(img image.Image, cmd Command) image.Image {
	if !r.Overlay {
		return img
	}
	return DrawStatus(img, cmd.Status)
}

// SnapshotPNG renders cmd and writes it to path.
func (r *Renderer) SnapshotPNG(path string, scene *Scene, cmd Command) error {
	img, err := r.Image(scene, cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	r.logger.Debug("Snapshot written", zap.String("path", path), zap.String("status", cmd.Status))
	return nil
}

func blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}
