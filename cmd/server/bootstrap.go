package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/soaringjerry/Pulse/internal/api"
	"github.com/soaringjerry/Pulse/internal/config"
	"github.com/soaringjerry/Pulse/internal/db"
	"github.com/soaringjerry/Pulse/internal/logger"
	"github.com/soaringjerry/Pulse/internal/middleware"
	"github.com/soaringjerry/Pulse/internal/services"
	"github.com/soaringjerry/Pulse/internal/session"
	"github.com/soaringjerry/Pulse/internal/utils"
)

type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// bootstrap opens storage, loads reference data, checks the scoring
// configuration against it and builds the HTTP handler. Any failure aborts
// startup.
func bootstrap(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{}
	store, err := db.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	if err := store.Bootstrap(ctx, cfg.Database.MigrationsDir, cfg.Database.Seed); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}

	policy := reversePolicy(cfg.Scoring)
	if err := policy.Validate(ctx, store); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("invalid scoring.reverse_rules: %w", err)
	}

	sessions, err := sessionStore(ctx, cfg.Redis, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if c, ok := sessions.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	rt := api.NewRouter(api.Deps{
		Store:       store,
		Sessions:    session.NewManager(sessions, cfg.Session.TTL),
		Tokens:      middleware.NewAuthenticator(cfg.JWT.Secret),
		Policy:      policy,
		Log:         log,
		CORSOrigins: cfg.Server.CORSOrigins,
		StaticDir:   cfg.Server.StaticDir,
		Commit:      utils.SafeEnv("PULSE_COMMIT", "dev"),
		BuildTime:   utils.SafeEnv("PULSE_BUILD_TIME", ""),
	})
	a.handler = rt.Handler()
	return a, nil
}

func reversePolicy(cfg config.ScoringConfig) services.ReversePolicy {
	policy := services.ReversePolicy{}
	for code, rule := range cfg.ReverseRules {
		policy[code] = services.ReverseRule{Positions: rule.Positions, ScaleMax: rule.ScaleMax}
	}
	return policy
}

// sessionStore uses Redis when an address is configured so sessions
// survive restarts and are shared across instances.
func sessionStore(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (session.Store, error) {
	if cfg.Addr == "" {
		log.Info("using in-memory session store")
		return session.NewMemoryStore(), nil
	}
	rs, err := session.NewRedisStore(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	log.Info("using redis session store", "addr", cfg.Addr)
	return rs, nil
}
