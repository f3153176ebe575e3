package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"MacroPull/internal/usecase"
	"MacroPull/pkg/config"
	xhttp "MacroPull/pkg/http"
	pkgkafka "MacroPull/pkg/kafka"
	applogger "MacroPull/pkg/logger"
)

// Run modes.
const (
	ModeServe   = "serve"
	ModeBuild   = "build"
	ModeTrain   = "train"
	ModePredict = "predict"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	builder    *usecase.PipelineBuilder
	trainer    *usecase.Trainer
	predictor  *usecase.Predictor
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	rh         pkgkafka.MessageHandler
}

// New creates a new App instance with all dependencies. consumer may be nil
// when Kafka is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	builder *usecase.PipelineBuilder,
	trainer *usecase.Trainer,
	predictor *usecase.Predictor,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	rh pkgkafka.MessageHandler,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		builder:    builder,
		trainer:    trainer,
		predictor:  predictor,
		httpServer: httpServer,
		consumer:   consumer,
		rh:         rh,
	}
}

// RunMode executes one CLI mode. One-shot modes print their JSON result to out.
func (a *App) RunMode(ctx context.Context, mode string, req usecase.BuildRequest, out io.Writer) error {
	var (
		res interface{}
		err error
	)
	switch mode {
	case ModeServe, "":
		return a.Run(ctx)
	case ModeBuild:
		var report usecase.BuildReport
		_, report, err = a.builder.Run(ctx, req)
		res = report
	case ModeTrain:
		res, err = a.trainer.Train(ctx, req)
	case ModePredict:
		res, err = a.predictor.Predict(ctx, req)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// Run starts the HTTP server and the run consumer, then blocks until
// interrupted or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.consumer != nil && a.rh != nil {
		a.consumer.RegisterHandler(a.rh)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.rh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	select {
	case <-sigCh:
		a.l.Info("shutdown signal received")
	case <-ctx.Done():
	}
	return a.shutdown()
}

// shutdown gracefully stops all services. Infrastructure clients are closed
// by the DI cleanup.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	a.l.Info("shutdown complete")
	return nil
}
