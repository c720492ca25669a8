package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/config"
	"github.com/sleepsense/sleepview/internal/tui"
	"github.com/sleepsense/sleepview/internal/viewer"
)

const defaultConfigPath = "config.yml"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code, so deferred cleanup finishes before
// main exits.
func run(args []string) int {
	fs := flag.NewFlagSet("sleepview", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	dataPath := fs.String("data", "", "Recording to open (overrides recording.path)")
	follow := fs.Bool("follow", false, "Follow a growing recording")
	noGUI := fs.Bool("nogui", false, "Render PNG snapshots instead of opening a window")
	useTUI := fs.Bool("tui", false, "Run the terminal viewer")
	outDir := fs.String("out", "", "Snapshot directory (overrides render.output_dir)")
	exportPath := fs.String("export", "", "Write the loaded samples to an Arrow file")
	initConfig := fs.Bool("init-config", false, "Write the default configuration to -config and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *initConfig {
		if err := config.Default().Save(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Wrote default configuration to %s\n", *configPath)
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *dataPath != "" {
		cfg.Recording.Path = *dataPath
	}
	if *follow {
		cfg.Ingest.Mode = "growing"
	}
	if *outDir != "" {
		cfg.Render.OutputDir = *outDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger, err := createLogger(cfg, *useTUI)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	session, err := viewer.Open(logger, cfg)
	if err != nil {
		logger.Error("Failed to open recording", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	switch {
	case *useTUI:
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err = tui.Run(ctx, session)
		if err == nil && *exportPath != "" {
			_, err = session.Export(*exportPath)
		}
	case *noGUI:
		err = NewNoGUIApplication(logger, cfg, session, *exportPath).Run()
	default:
		err = createGUIApp(logger, cfg, session)
	}
	if err != nil {
		logger.Error("Application failed", zap.Error(err))
		return 1
	}
	return 0
}

// loadConfig reads path. The default path may be absent, in which case the
// built-in defaults apply.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.Load("")
		}
	}
	return config.Load(path)
}
