package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/log"
	"github.com/vovakirdan/wirechat-relay/internal/store"
	"github.com/vovakirdan/wirechat-relay/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirechat-relay/internal/transport/http"
	"github.com/vovakirdan/wirechat-relay/internal/transport/tcp"
)

// App wires together core, transport and storage layers.
type App struct {
	cfg             config.Config
	hub             *core.Hub
	tcp             *tcp.Server
	http            *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	sinks := core.MultiSink{log.NewSink(logger)}

	var st store.Store
	if cfg.AuditDBPath != "" {
		s, err := sqlite.New(cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.AuditDBPath).Msg("presence audit enabled")
		st = s
		sinks = append(sinks, store.NewAuditSink(s, logger))
	}

	hub := core.NewHub(logger, sinks, core.Options{
		WriteTimeout: cfg.WriteTimeout,
		RateLimit:    cfg.RateLimit,
	})

	a := &App{
		cfg:             *cfg,
		hub:             hub,
		tcp:             tcp.NewServer(hub, cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
		stopCh:          make(chan struct{}),
	}

	if cfg.HTTPAddr != "" {
		a.http = transporthttp.NewServer(hub, st, cfg, logger)
	}

	return a, nil
}

// Members returns the display names currently registered.
func (a *App) Members() []string {
	return a.hub.Members()
}

// Stop asks a running Run to shut down. It is safe to call more than once.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}

// TCPAddr returns the chat listener address once Run is accepting.
func (a *App) TCPAddr() net.Addr {
	return a.tcp.Addr()
}

// Run starts the listeners and blocks until ctx is cancelled, Stop is called,
// or a listener fails.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info().Str("host", a.cfg.Host).Int("port", a.cfg.Port).Msg("starting chat relay")
		if err := a.tcp.Start(a.cfg.Port); err != nil && !errors.Is(err, tcp.ErrServerStopped) {
			return fmt.Errorf("tcp server: %w", err)
		}
		return nil
	})

	if a.http != nil {
		g.Go(func() error {
			a.log.Info().Str("addr", a.http.Addr).Msg("starting admin http server")
			if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-a.stopCh:
		}
		return a.shutdown()
	})

	return g.Wait()
}

func (a *App) shutdown() error {
	a.log.Info().Msg("shutting down")

	var errs []error
	if err := a.tcp.Stop(); err != nil {
		errs = append(errs, err)
	}

	if a.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()
		if err := a.http.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	return errors.Join(errs...)
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
