package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sleepsense/sleepview/internal/signal"
	"github.com/sleepsense/sleepview/pkg/schema"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Application Application `yaml:"application"`
	Recording   Recording   `yaml:"recording"`
	Viewport    Viewport    `yaml:"viewport"`
	Annotation  Annotation  `yaml:"annotation"`
	Display     Display     `yaml:"display"`
	Ingest      Ingest      `yaml:"ingest"`
	Render      Render      `yaml:"render"`
	Storage     Storage     `yaml:"storage"`
	Monitoring  Monitoring  `yaml:"monitoring"`
	GUI         GUI         `yaml:"gui"`
}

type Application struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	LogLevel string `yaml:"log_level"`
}

type Recording struct {
	Path      string           `yaml:"path"`
	Layout    string           `yaml:"layout"`
	Columns   map[string]int   `yaml:"columns,omitempty"`
	RowPolicy string           `yaml:"row_policy"`
	Ranges    map[string]Range `yaml:"ranges,omitempty"`
}

type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type Viewport struct {
	DefaultWidth   float64 `yaml:"default_width"`
	MinWidth       float64 `yaml:"min_width"`
	TicksPerSecond float64 `yaml:"ticks_per_second"`
	Presets        []int   `yaml:"presets"`
	TimeUnit       string  `yaml:"time_unit"`
}

type Annotation struct {
	Interval  float64 `yaml:"interval"`
	CodeTable string  `yaml:"code_table"`
}

type Display struct {
	Channels   []string  `yaml:"channels"`
	Spacing    float64   `yaml:"spacing"`
	Title      string    `yaml:"title"`
	Colors     []string  `yaml:"colors,omitempty"`
	Highlights []float64 `yaml:"highlights,omitempty"`
}

type Ingest struct {
	Mode         string        `yaml:"mode"`
	Source       string        `yaml:"source"`
	FollowWidth  float64       `yaml:"follow_width"`
	PollInterval time.Duration `yaml:"poll_interval"`
	WebSocket    WebSocket     `yaml:"websocket"`
}

type WebSocket struct {
	URL               string        `yaml:"url"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
}

type Render struct {
	Width          int           `yaml:"width"`
	Height         int           `yaml:"height"`
	MaxPoints      int           `yaml:"max_points"`
	RedrawInterval time.Duration `yaml:"redraw_interval"`
	OutputDir      string        `yaml:"output_dir"`
}

type Storage struct {
	CacheDir  string `yaml:"cache_dir"`
	BatchRows int    `yaml:"batch_rows"`
}

type Monitoring struct {
	Logging LoggingConfig `yaml:"logging"`
}

type LoggingConfig struct {
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GUI struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Default returns a config that views a recorded file.
func Default() *Config {
	return &Config{
		Application: Application{Name: "sleepview", Version: "0.1.0", LogLevel: "info"},
		Recording:   Recording{Layout: "recorded", RowPolicy: "strict"},
		Viewport: Viewport{
			DefaultWidth:   10,
			MinWidth:       1,
			TicksPerSecond: 100,
			Presets:        []int{5, 10, 15, 30, 60, 120, 300},
			TimeUnit:       "seconds",
		},
		Annotation: Annotation{Interval: 5, CodeTable: ""},
		Display: Display{
			Channels: []string{"body_position", "pulse", "spo2", "flow"},
			Spacing:  1.2,
			Title:    "Sleepsense Plotting with Body Position Arrows",
		},
		Ingest: Ingest{
			Mode:         "finite",
			Source:       "tail",
			FollowWidth:  60,
			PollInterval: time.Second,
			WebSocket: WebSocket{
				ReconnectInterval: 5 * time.Second,
				ReadTimeout:       30 * time.Second,
			},
		},
		Render: Render{
			Width:          1200,
			Height:         600,
			MaxPoints:      2000,
			RedrawInterval: 33 * time.Millisecond,
			OutputDir:      "screenshots",
		},
		Storage:    Storage{BatchRows: 65536},
		Monitoring: Monitoring{Logging: LoggingConfig{Format: "console", Output: "stderr"}},
		GUI:        GUI{Title: "Sleepsense Plotting", Width: 1280, Height: 800},
	}
}

var hexColor = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// Validate checks what the JSON schema cannot express.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	layout, err := signal.LayoutByName(c.Recording.Layout)
	if err != nil {
		add("recording.layout: %v", err)
	} else if _, err := layout.WithOverrides(c.Recording.Columns); err != nil {
		add("recording.columns: %v", err)
	}
	switch c.Recording.RowPolicy {
	case "", "strict", "lenient":
	default:
		add("recording.row_policy: unknown policy %q", c.Recording.RowPolicy)
	}
	for name, r := range c.Recording.Ranges {
		if _, ok := schema.ParseChannel(name); !ok {
			add("recording.ranges: unknown channel %q", name)
		}
		if r.Min > r.Max {
			add("recording.ranges.%s: min %.2f above max %.2f", name, r.Min, r.Max)
		}
	}

	if c.Viewport.DefaultWidth <= 0 {
		add("viewport.default_width must be positive")
	}
	if c.Viewport.MinWidth <= 0 {
		add("viewport.min_width must be positive")
	}
	if c.Viewport.TicksPerSecond <= 0 {
		add("viewport.ticks_per_second must be positive")
	}
	for _, p := range c.Viewport.Presets {
		if p <= 0 {
			add("viewport.presets: %d is not a positive duration", p)
		}
	}
	switch c.Viewport.TimeUnit {
	case "", "seconds", "minutes":
	default:
		add("viewport.time_unit: unknown unit %q", c.Viewport.TimeUnit)
	}

	if c.Annotation.Interval <= 0 {
		add("annotation.interval must be positive")
	}
	switch c.Annotation.CodeTable {
	case "", "indexed", "banded":
	default:
		add("annotation.code_table: unknown table %q", c.Annotation.CodeTable)
	}

	for _, name := range c.Display.Channels {
		if _, ok := schema.ParseChannel(name); !ok {
			add("display.channels: unknown channel %q", name)
		}
	}
	for _, col := range c.Display.Colors {
		if !hexColor.MatchString(col) {
			add("display.colors: %q is not a hex colour", col)
		}
	}

	switch schema.Mode(c.Ingest.Mode) {
	case schema.ModeFinite:
	case schema.ModeGrowing:
		switch c.Ingest.Source {
		case "tail":
			if c.Recording.Path == "" {
				add("recording.path is required to tail a file")
			}
		case "websocket":
			if c.Ingest.WebSocket.URL == "" {
				add("ingest.websocket.url is required for the websocket source")
			}
		default:
			add("ingest.source: unknown source %q", c.Ingest.Source)
		}
	default:
		add("ingest.mode: unknown mode %q", c.Ingest.Mode)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
