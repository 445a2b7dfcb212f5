package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/yashikart/gurukul-backend--sub000/internal/config"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/lifecycle"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/reward"
	"github.com/yashikart/gurukul-backend--sub000/internal/domain/scoring"
	"github.com/yashikart/gurukul-backend--sub000/internal/events"
	"github.com/yashikart/gurukul-backend--sub000/internal/gate"
	"github.com/yashikart/gurukul-backend--sub000/internal/platform/postgres"
	"github.com/yashikart/gurukul-backend--sub000/internal/service"
	"github.com/yashikart/gurukul-backend--sub000/internal/service/auth"
)

// application holds the wired dependencies of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	authorityClient gate.AuthorityClient
	gate            *gate.Gate

	jwtService       auth.JWTService
	subjectService   service.SubjectService
	karmaService     service.KarmaService
	lifecycleService service.LifecycleService
	debtService      service.DebtService
	networkService   service.NetworkService
}

// newApplication wires every component of the server: database, stores,
// the authorization gate, domain machinery and services. The gate's health
// monitor and decision workers are started here; cleanup stops them.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	subjects := postgres.NewPostgresSubjectStore(db, logger)
	balances := postgres.NewPostgresBalanceStore(db, logger)
	debts := postgres.NewPostgresDebtStore(db, logger)
	records := postgres.NewPostgresLifecycleRecordStore(db, logger)
	nonces := postgres.NewPostgresConsumedNonceStore(db, logger)

	authorityClient := gate.NewHTTPAuthorityClient(cfg.Authority.URL, cfg.Authority.AttemptTimeout)
	authorityGate, err := gate.NewGate(cfg.Authority, authorityClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization gate: %w", err)
	}
	authorityGate.Start()

	lifecycleParams := lifecycle.Params{
		DeathThreshold:   cfg.Karma.DeathThreshold,
		MeritInheritance: cfg.Karma.MeritInheritance,
		DebtInheritance:  cfg.Karma.DebtInheritance,
	}
	rewardParams := reward.DefaultParams()
	rewardParams.LearningRate = cfg.Karma.LearningRate
	rewardParams.DiscountFactor = cfg.Karma.DiscountFactor

	scorer := scoring.NewScorer(scoring.DefaultKeywordStrategy())
	rewards := reward.NewTable(rewardParams)
	emitter := events.NewInMemoryEventEmitter(logger)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	subjectService, err := service.NewSubjectService(db, subjects, balances, logger)
	if err != nil {
		return nil, err
	}
	karmaService, err := service.NewKarmaService(
		db, subjects, balances, nonces, authorityGate,
		scorer, rewards, lifecycleParams, emitter, logger)
	if err != nil {
		return nil, err
	}
	lifecycleService, err := service.NewLifecycleService(
		db, subjects, balances, records, nonces, authorityGate,
		lifecycleParams, emitter, logger)
	if err != nil {
		return nil, err
	}
	debtService, err := service.NewDebtService(
		db, subjects, debts, nonces, authorityGate, emitter, logger)
	if err != nil {
		return nil, err
	}
	networkService, err := service.NewNetworkService(subjects, debts, logger)
	if err != nil {
		return nil, err
	}

	return &application{
		config:           cfg,
		logger:           logger,
		db:               db,
		authorityClient:  authorityClient,
		gate:             authorityGate,
		jwtService:       jwtService,
		subjectService:   subjectService,
		karmaService:     karmaService,
		lifecycleService: lifecycleService,
		debtService:      debtService,
		networkService:   networkService,
	}, nil
}

// cleanup releases resources on shutdown.
func (app *application) cleanup() {
	app.gate.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database connection", "error", err)
	}
}
