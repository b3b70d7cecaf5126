// Package service wires configuration, persistence, and the scheduling
// engine behind one facade the CLI talks to.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/demoworks/rota/internal/adapters/repository"
	"github.com/demoworks/rota/internal/config"
	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/engine"
	"github.com/demoworks/rota/internal/solve"
	"github.com/demoworks/rota/pkg/logger"
)

// Service owns the store and the engine for one process.
type Service struct {
	cfg    *config.Config
	store  *repository.Store
	engine *engine.Engine
	log    logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStore injects an already-open store; the Service then does not own
// its lifecycle.
func WithStore(store *repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// New builds the service from configuration.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg: cfg,
		log: logger.Get().Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		store, err := repository.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}

	solverOpts := []solve.Option{
		solve.WithTimeLimit(cfg.TimeLimit()),
		solve.WithWorkers(cfg.Workers),
		solve.WithLogger(s.log.Named("solve")),
	}
	if cfg.Seed != 0 {
		solverOpts = append(solverOpts, solve.WithSeed(cfg.Seed))
	}

	eng, err := engine.New(
		engine.WithSource(s.store),
		engine.WithRecorder(s.store),
		engine.WithRules(cfg.Rules()),
		engine.WithWeights(cfg.Weights),
		engine.WithSolver(solve.New(solverOpts...)),
		engine.WithLogger(s.log.Named("engine")),
		engine.WithLeadDays(cfg.LeadDays),
		engine.WithHorizonWeeks(cfg.HorizonWeeks),
	)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	s.engine = eng

	return s, nil
}

// Run executes one scheduling run.
func (s *Service) Run(ctx context.Context, runType string) (model.Run, error) {
	return s.engine.Run(ctx, runType)
}

// Runs lists the most recent runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]model.Run, error) {
	return s.store.ListRuns(ctx, limit)
}

// Proposals lists all proposal rows of one run.
func (s *Service) Proposals(ctx context.Context, runID uuid.UUID) ([]model.Proposal, error) {
	return s.store.ProposalsForRun(ctx, runID)
}

// Close releases the store.
func (s *Service) Close() error {
	return s.store.Close()
}
