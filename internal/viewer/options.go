package viewer

import (
	"fmt"

	"github.com/sleepsense/sleepview/internal/annotation"
	"github.com/sleepsense/sleepview/internal/config"
	"github.com/sleepsense/sleepview/internal/render"
	"github.com/sleepsense/sleepview/internal/services"
	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/internal/viewport"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// Options is the config resolved into the types the packages consume.
type Options struct {
	Mode       schema.Mode
	Path       string
	Layout     signal.Layout
	Policy     services.RowPolicy
	Ranges     services.Ranges
	Sampler    annotation.Sampler
	Display    render.Layout
	Presets    []viewport.Preset
	Unit       viewport.TimeUnit
	Controller []viewport.Option
}

// ResolveOptions converts cfg. cfg should already have passed Validate.
func ResolveOptions(cfg *config.Config) (Options, error) {
	var o Options
	o.Mode = schema.Mode(cfg.Ingest.Mode)
	o.Path = cfg.Recording.Path

	layout, err := signal.LayoutByName(cfg.Recording.Layout)
	if err != nil {
		return o, err
	}
	if o.Layout, err = layout.WithOverrides(cfg.Recording.Columns); err != nil {
		return o, err
	}

	if o.Policy, err = services.ParseRowPolicy(cfg.Recording.RowPolicy); err != nil {
		return o, err
	}
	if o.Mode == schema.ModeGrowing {
		o.Policy = services.PolicyLenient
	}
	if o.Policy == services.PolicyLenient {
		o.Ranges = services.RangesFor(o.Layout)
	}
	for name, r := range cfg.Recording.Ranges {
		ch, ok := schema.ParseChannel(name)
		if !ok {
			return o, fmt.Errorf("unknown channel %q in ranges", name)
		}
		if o.Ranges == nil {
			o.Ranges = services.Ranges{}
		}
		o.Ranges[ch] = services.Range{Min: r.Min, Max: r.Max}
	}

	tableName := cfg.Annotation.CodeTable
	if tableName == "" {
		tableName = o.Layout.CodeTable
	}
	table, err := annotation.TableByName(tableName)
	if err != nil {
		return o, err
	}
	o.Sampler = annotation.NewSampler(table, cfg.Annotation.Interval)

	o.Display = render.Layout{
		Spacing:    cfg.Display.Spacing,
		Title:      cfg.Display.Title,
		Colors:     cfg.Display.Colors,
		Highlights: cfg.Display.Highlights,
	}
	for _, name := range cfg.Display.Channels {
		ch, ok := schema.ParseChannel(name)
		if !ok {
			return o, fmt.Errorf("unknown display channel %q", name)
		}
		o.Display.Channels = append(o.Display.Channels, ch)
	}

	o.Presets = viewport.ParsePresets(cfg.Viewport.Presets)
	if o.Unit, err = viewport.ParseTimeUnit(cfg.Viewport.TimeUnit); err != nil {
		return o, err
	}

	o.Controller = []viewport.Option{
		viewport.WithMinWidth(cfg.Viewport.MinWidth),
		viewport.WithTickDensity(cfg.Viewport.TicksPerSecond),
		viewport.WithWidth(cfg.Viewport.DefaultWidth),
	}
	if o.Mode == schema.ModeGrowing {
		o.Controller = append(o.Controller, viewport.WithWidth(cfg.Ingest.FollowWidth), viewport.WithFollow())
	}
	return o, nil
}
