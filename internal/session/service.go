package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/labconnect/internal/metrics"
)

// Config holds the session policy knobs.
type Config struct {
	CodeLength        int
	TTL               time.Duration
	MaxCreateAttempts int
	SweepInterval     time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithGenerator replaces the random code source.
func WithGenerator(gen CodeGenerator) Option {
	return func(s *Service) { s.generate = gen }
}

// Service creates and verifies sessions on top of a Store.
type Service struct {
	store    Store
	cfg      Config
	log      *zerolog.Logger
	now      func() time.Time
	generate CodeGenerator
}

// NewService builds a session service. Zero config values fall back to defaults.
func NewService(store Store, cfg Config, logger *zerolog.Logger, opts ...Option) *Service {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxCreateAttempts <= 0 {
		cfg.MaxCreateAttempts = 8
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	s := &Service{
		store:    store,
		cfg:      cfg,
		log:      logger,
		now:      time.Now,
		generate: RandomCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession stores a new session and returns its code.
// With a requested code the call is idempotent: a code that is already live
// is returned as is. Without one, random codes are drawn until a free one is
// found or MaxCreateAttempts is exhausted.
func (s *Service) CreateSession(ctx context.Context, requested string) (string, error) {
	if code := Canonical(requested); code != "" {
		if !ValidCode(code, s.cfg.CodeLength) {
			return "", ErrInvalidCode
		}
		created, err := s.insert(ctx, New(code, s.now(), s.cfg.TTL))
		if err != nil {
			metrics.SessionsCreated.WithLabelValues("error").Inc()
			return "", fmt.Errorf("create session %s: %w", code, err)
		}
		if created {
			metrics.SessionsCreated.WithLabelValues("new").Inc()
			s.log.Info().Str("code", code).Msg("session created")
		} else {
			metrics.SessionsCreated.WithLabelValues("existing").Inc()
			s.log.Debug().Str("code", code).Msg("session already exists")
		}
		return code, nil
	}

	for attempt := 1; attempt <= s.cfg.MaxCreateAttempts; attempt++ {
		code, err := s.generate(s.cfg.CodeLength)
		if err != nil {
			metrics.SessionsCreated.WithLabelValues("error").Inc()
			return "", fmt.Errorf("generate code: %w", err)
		}
		created, err := s.insert(ctx, New(code, s.now(), s.cfg.TTL))
		if err != nil {
			metrics.SessionsCreated.WithLabelValues("error").Inc()
			return "", fmt.Errorf("create session: %w", err)
		}
		if created {
			metrics.SessionsCreated.WithLabelValues("new").Inc()
			s.log.Info().Str("code", code).Int("attempt", attempt).Msg("session created")
			return code, nil
		}
		metrics.SessionCodeCollisions.Inc()
		s.log.Debug().Str("code", code).Int("attempt", attempt).Msg("session code collision")
	}

	metrics.SessionsCreated.WithLabelValues("error").Inc()
	return "", ErrCodeSpaceExhausted
}

// VerifySession reports whether code names a live session. Codes match
// case-insensitively. Unknown and expired codes are not errors.
func (s *Service) VerifySession(ctx context.Context, code string) (bool, error) {
	code = Canonical(code)
	if code == "" {
		metrics.SessionVerifications.WithLabelValues("invalid").Inc()
		return false, nil
	}

	timer := prometheus.NewTimer(metrics.StoreLatency.WithLabelValues("get"))
	_, err := s.store.Get(ctx, code, s.now())
	timer.ObserveDuration()

	switch {
	case err == nil:
		metrics.SessionVerifications.WithLabelValues("valid").Inc()
		return true, nil
	case errors.Is(err, ErrNotFound):
		metrics.SessionVerifications.WithLabelValues("invalid").Inc()
		return false, nil
	default:
		metrics.SessionVerifications.WithLabelValues("error").Inc()
		return false, fmt.Errorf("verify session %s: %w", code, err)
	}
}

// Sweep removes expired sessions from the store.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(metrics.StoreLatency.WithLabelValues("sweep"))
	removed, err := s.store.DeleteExpired(ctx, s.now())
	timer.ObserveDuration()
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	metrics.SessionsSwept.Add(float64(removed))
	return removed, nil
}

// RunSweeper sweeps every SweepInterval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn().Err(err).Msg("session sweep failed")
				continue
			}
			if removed > 0 {
				s.log.Debug().Int("removed", removed).Msg("expired sessions swept")
			}
		}
	}
}

// CodeLength is the configured length of session codes.
func (s *Service) CodeLength() int {
	return s.cfg.CodeLength
}

func (s *Service) insert(ctx context.Context, sess Session) (bool, error) {
	timer := prometheus.NewTimer(metrics.StoreLatency.WithLabelValues("insert"))
	defer timer.ObserveDuration()
	return s.store.Insert(ctx, sess)
}
