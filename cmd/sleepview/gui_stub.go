//go:build !gui
// +build !gui

package main

import (
	"errors"

	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/config"
	"github.com/sleepsense/sleepview/internal/viewer"
)

// createGUIApp is a stub function when GUI is not enabled
func createGUIApp(logger *zap.Logger, cfg *config.Config, session *viewer.Session) error {
	return errors.New("GUI support is not enabled in this build; use -nogui, -tui or build with -tags gui")
}
