package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/deliverynote-service/internal/config"
	"github.com/spec-kit/deliverynote-service/internal/repository"
	"github.com/spec-kit/deliverynote-service/internal/repository/memory"
)

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

// Repositories bundles the stores the services depend on.
type Repositories struct {
	Users          repository.UserRepository
	PasswordResets repository.PasswordResetRepository
	Clients        repository.ClientRepository
	Projects       repository.ProjectRepository
	DeliveryNotes  repository.DeliveryNoteRepository
}

// NewPostgres establishes a connection pool when DSN is provided. Without a DSN the
// returned value has no pool and Repositories falls back to the in-memory store.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not provided; using in-memory store")
		return &Postgres{}, nil
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to postgres",
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
		zap.Int32("min_conns", poolCfg.MinConns))
	return &Postgres{Pool: pool}, nil
}

func poolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse POSTGRES_DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	return poolCfg, nil
}

// Repositories returns Postgres-backed repositories, or one shared in-memory store
// when no pool is configured.
func (p *Postgres) Repositories() Repositories {
	if p.Enabled() {
		return Repositories{
			Users:          repository.NewUserRepository(p.Pool),
			PasswordResets: repository.NewPasswordResetRepository(p.Pool),
			Clients:        repository.NewClientRepository(p.Pool),
			Projects:       repository.NewProjectRepository(p.Pool),
			DeliveryNotes:  repository.NewDeliveryNoteRepository(p.Pool),
		}
	}
	store := memory.NewStore()
	return Repositories{
		Users:          store.Users(),
		PasswordResets: store.PasswordResets(),
		Clients:        store.Clients(),
		Projects:       store.Projects(),
		DeliveryNotes:  store.DeliveryNotes(),
	}
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p.Enabled() {
		p.Pool.Close()
	}
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}

// Enabled reports whether a pool is configured.
func (p *Postgres) Enabled() bool {
	return p != nil && p.Pool != nil
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return errors.New("postgres not configured")
	}
	return p.Pool.Ping(ctx)
}
