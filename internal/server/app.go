// Package server wires the certvault server: record stores, issuance and
// verification services, the gRPC API and the metrics endpoint.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/certvault/internal/archive"
	"github.com/dmitrijs2005/certvault/internal/config"
	"github.com/dmitrijs2005/certvault/internal/cryptox"
	"github.com/dmitrijs2005/certvault/internal/logging"
	"github.com/dmitrijs2005/certvault/internal/metrics"
	"github.com/dmitrijs2005/certvault/internal/repositories/records"
	"github.com/dmitrijs2005/certvault/internal/services"
	"github.com/prometheus/client_golang/prometheus"

	gs "github.com/dmitrijs2005/certvault/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    *records.Chain
	registry *prometheus.Registry
	issuer   *services.Issuer
	verifier *services.Verifier
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) *App {
	registry := prometheus.NewRegistry()
	m := metrics.New()
	m.Register(registry)

	store := records.Open(ctx, c, logger)
	logger.Info(ctx, "record stores", "backends", store.Backends())

	return &App{
		config:   c,
		logger:   logger,
		store:    store,
		registry: registry,
		issuer:   services.NewIssuer(c, store, archive.New(c.S3), logger, m),
		verifier: services.NewVerifier(store, cryptox.NewStamper(c.StamperConfig("")), logger, m),
	}
}

// Run serves gRPC and metrics until ctx is cancelled or a termination signal
// arrives. A failing server stops the other one.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "Starting app...")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				app.logger.Error(ctx, name+" stopped", "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				cancel()
			}
		}()
	}

	grpcServer := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.issuer, app.verifier, app.config.AuthSecret)
	run("gRPC server", grpcServer.Run)
	if app.config.MetricsAddr != "" {
		run("metrics server", app.serveMetrics)
	}

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Warn(context.Background(), "closing record stores", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	return errors.Join(errs...)
}

func (app *App) serveMetrics(ctx context.Context) error {
	lis, err := net.Listen("tcp", app.config.MetricsAddr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(app.registry))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Main loads the configuration, builds the App and runs it.
func Main() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.NewJSON(os.Stderr, false).Error(context.Background(), "config", "error", err)
		return 2
	}
	logger := logging.NewJSON(os.Stdout, cfg.Debug)

	ctx := context.Background()
	if err := NewApp(ctx, cfg, logger).Run(ctx); err != nil {
		return 1
	}
	return 0
}
