package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"phototriage/internal/config"
	"phototriage/internal/logger"
	"phototriage/internal/repository/sqlite"
	"phototriage/internal/route"
	"phototriage/internal/service/ai"
	"phototriage/internal/service/ai/dnn"
	"phototriage/internal/service/capture"
	"phototriage/internal/service/capture/device"
	"phototriage/internal/service/ledger"
	"phototriage/internal/service/pipeline"
	"phototriage/internal/service/storage"
	"phototriage/internal/service/websocket"
)

// ShutdownTimeout bounds how long Run waits for an attempt in flight.
const ShutdownTimeout = 30 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	ledger     *ledger.Service
	hubService *websocket.HubService
	controller *pipeline.Controller
	scheduler  *pipeline.Scheduler
	server     *http.Server
	closers    []io.Closer
}

// NewApp opens the ledger, picks the capture source and face classifier named
// in cfg, and wires them into a controller driven by the scheduler.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{config: cfg, logger: log}

	db, err := sqlite.New(cfg.DatabasePath, log)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.ledger = ledger.NewService(sqlite.NewPhotoRepository(db), log)

	source, err := a.newSource()
	if err != nil {
		a.Close()
		return nil, err
	}
	classifier, err := a.newClassifier()
	if err != nil {
		a.Close()
		return nil, err
	}

	detector := ai.NewPresenceDetector(classifier, cfg.ClassifierTimeout, log)
	writer := storage.NewImageWriter(cfg, log)

	a.hubService = websocket.NewHubService(log)
	a.controller = pipeline.NewController(source, detector, writer, a.ledger, pipeline.OptionsFromConfig(cfg), log)
	a.controller.Subscribe(func(res pipeline.Result) { a.hubService.Publish(res) })

	a.scheduler = pipeline.NewScheduler(cfg.CaptureInterval, func(ctx context.Context) {
		a.controller.Run(ctx)
	}, log)

	if cfg.HTTPPort > 0 {
		a.server = &http.Server{
			Addr: net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort)),
			Handler: route.SetupRoutes(route.Services{
				Ledger:    a.ledger,
				Scheduler: a.scheduler,
				Attempts:  a.controller,
				Hub:       a.hubService,
				ImageDir:  cfg.ImageDirectory,
				LogDir:    cfg.LogDirectory,
			}, log),
		}
	}

	return a, nil
}

func (a *App) newSource() (capture.Source, error) {
	switch a.config.CaptureSource {
	case config.SourceSpool:
		return capture.NewSpoolSource(a.config.SpoolDirectory, a.logger, capture.WithSettle(a.config.SpoolSettle)), nil
	case config.SourceDevice:
		camera := device.NewCamera(a.config.CameraDevice, a.logger)
		a.closers = append(a.closers, camera)
		return camera, nil
	}
	return nil, fmt.Errorf("unknown capture source %q", a.config.CaptureSource)
}

func (a *App) newClassifier() (ai.Classifier, error) {
	switch a.config.Classifier {
	case config.ClassifierDNN:
		detector, err := dnn.NewFaceDetector(a.config, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, detector)
		return detector, nil
	case config.ClassifierPigo:
		return ai.NewPigoClassifier(a.config.PigoCascadePath, a.config.PigoMinScore)
	case config.ClassifierRemote:
		return ai.NewRemoteClassifier(a.config.FaceServiceURL, &http.Client{Timeout: a.config.ClassifierTimeout}), nil
	}
	return nil, fmt.Errorf("unknown classifier %q", a.config.Classifier)
}

// Run starts the scheduler and, when enabled, the status server, then blocks
// until ctx is cancelled and shuts everything down in order.
func (a *App) Run(ctx context.Context) error {
	go a.hubService.Run()

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
		a.logger.Info("📍 Status server on http://%s", a.server.Addr)
	}

	a.logger.Info("📷 Capture source: %s", a.config.CaptureSource)
	a.logger.Info("🤖 Face classifier: %s", a.config.Classifier)
	a.logger.Info("📁 Images: %s", a.config.ImageDirectory)

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		a.logger.Error("Status server failed: %v", runErr)
	}

	return errors.Join(runErr, a.shutdown())
}

// RunOnce performs a single attempt outside the scheduler.
func (a *App) RunOnce(ctx context.Context) pipeline.Result {
	return a.controller.Run(ctx)
}

// Ledger exposes the photo ledger.
func (a *App) Ledger() *ledger.Service {
	return a.ledger
}

func (a *App) shutdown() error {
	a.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.controller.Shutdown(ctx); err != nil {
		a.logger.Warning("Attempt still in flight at shutdown: %v", err)
		errs = append(errs, err)
	}
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.hubService.Stop()

	a.logger.Info("👋 Shut down, %d attempt(s) fired", a.scheduler.Fired())
	return errors.Join(errs...)
}

// Close releases the camera, classifier and database.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
		a.db = nil
	}
	return errors.Join(errs...)
}
