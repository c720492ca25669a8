//go:build gui
// +build gui

package main

import (
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/config"
	"github.com/sleepsense/sleepview/internal/gui/app"
	"github.com/sleepsense/sleepview/internal/viewer"
)

// createGUIApp opens the window for session and blocks until it is closed.
func createGUIApp(logger *zap.Logger, cfg *config.Config, session *viewer.Session) error {
	guiApp := app.NewApplication(logger, cfg, session)

	if err := guiApp.Initialize(); err != nil {
		return err
	}

	guiApp.Run()

	return nil
}
