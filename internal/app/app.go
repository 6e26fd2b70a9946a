package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/labconnect/internal/config"
	"github.com/vovakirdan/labconnect/internal/core"
	applog "github.com/vovakirdan/labconnect/internal/log"
	"github.com/vovakirdan/labconnect/internal/session"
	"github.com/vovakirdan/labconnect/internal/session/redisstore"
	"github.com/vovakirdan/labconnect/internal/session/sqlite"
	transporthttp "github.com/vovakirdan/labconnect/internal/transport/http"
)

// App wires together the session registry, the relay and the HTTP transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	sessions        *session.Service
	store           session.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := newStore(ctx, cfg.Session, logger)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}

	sessions := session.NewService(st, session.Config{
		CodeLength:        cfg.Session.CodeLength,
		TTL:               cfg.Session.TTL,
		MaxCreateAttempts: cfg.Session.MaxCreateAttempts,
		SweepInterval:     cfg.Session.SweepInterval,
	}, applog.Component(logger, "session"))

	hub := core.NewHub(applog.Component(logger, "relay"), core.Options{
		EventBuffer:     cfg.Relay.EventBuffer,
		MaxMessageBytes: cfg.Relay.MaxMessageBytes,
	})
	server := transporthttp.NewServer(hub, sessions, cfg, applog.Component(logger, "http"))

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		sessions:        sessions,
		store:           st,
		log:             logger,
	}, nil
}

func newStore(ctx context.Context, cfg config.SessionConfig, logger *zerolog.Logger) (session.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		logger.Info().Msg("using in-memory session store")
		return session.NewMemoryStore(), nil
	case config.BackendSQLite:
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
		return st, nil
	case config.BackendRedis:
		st, err := redisstore.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("redis session store connected")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and the session sweeper and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.sessions.RunSweeper(sweepCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("starting labconnect server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Hijacked websocket connections are not tracked by Shutdown; closing
		// the hub ends their write loops.
		a.hub.Close()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the hub and the session store.
func (a *App) cleanup() {
	a.hub.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close session store")
		} else {
			a.log.Info().Msg("session store closed")
		}
	}
}
