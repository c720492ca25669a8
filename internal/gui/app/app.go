package app

import (
	"context"
	"errors"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/config"
	"github.com/sleepsense/sleepview/internal/gui"
	"github.com/sleepsense/sleepview/internal/gui/controllers"
	"github.com/sleepsense/sleepview/internal/gui/panels"
	"github.com/sleepsense/sleepview/internal/gui/state"
	"github.com/sleepsense/sleepview/internal/viewer"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// Application represents the main GUI application
type Application struct {
	logger  *zap.Logger
	cfg     *config.Config
	session *viewer.Session

	// Fyne app and window
	fyneApp fyne.App
	window  fyne.Window

	// Application state
	state *state.AppState

	// Controllers and panels
	plotController *controllers.PlotController
	plotPanel      *panels.PlotPanel

	// Context and lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApplication creates the window for an open session.
func NewApplication(logger *zap.Logger, cfg *config.Config, session *viewer.Session) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	fyneApp := app.NewWithID("io.sleepsense.sleepview")
	window := fyneApp.NewWindow(cfg.GUI.Title)
	window.Resize(fyne.NewSize(float32(cfg.GUI.Width), float32(cfg.GUI.Height)))

	appState := state.NewAppState()
	appState.Following = session.Mode() == schema.ModeGrowing

	plotController := controllers.NewPlotController(logger, session, appState, cfg.Render.RedrawInterval)
	plotPanel := panels.NewPlotPanel(session, appState, plotController)

	return &Application{
		logger:         logger,
		cfg:            cfg,
		session:        session,
		fyneApp:        fyneApp,
		window:         window,
		state:          appState,
		plotController: plotController,
		plotPanel:      plotPanel,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Initialize builds the layout and starts ingestion in growing mode.
func (a *Application) Initialize() error {
	a.state.SetSource(a.session.Store.Source(), a.session.Store.Snapshot().Len())
	a.createLayout()

	a.window.Canvas().SetOnTypedKey(a.plotController.HandleKey)
	a.window.SetCloseIntercept(a.handleWindowClose)

	if a.session.Mode() == schema.ModeGrowing {
		src, err := a.session.Source(a.plotController.Extended)
		if err != nil {
			return err
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := src.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("Ingest source stopped", zap.Error(err))
			}
		}()
	}

	a.plotController.Refresh()
	return nil
}

func (a *Application) createLayout() {
	topBar := gui.CreateTopBar(a.state.StatusBinding, a.state.RangeBinding)
	bottomBar := gui.CreateBottomBar(a.state.SourceBinding, a.session.ID)

	content := container.NewBorder(
		topBar,    // top
		bottomBar, // bottom
		nil, nil,  // left, right
		a.plotPanel.GetContent(), // center
	)
	a.window.SetContent(content)
}

// Run shows the window and blocks until it is closed.
func (a *Application) Run() {
	a.window.ShowAndRun()
}

func (a *Application) handleWindowClose() {
	a.logger.Info("GUI: Window close requested")

	a.cancel()
	a.wg.Wait()
	a.plotController.Close()

	a.fyneApp.Quit()
}
