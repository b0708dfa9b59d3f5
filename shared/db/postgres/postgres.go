package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dfryer1193/pressroom/shared/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	defaultMaxConns        = 25
	defaultConnMaxLifetime = 5 * time.Minute
	connectTimeout         = 5 * time.Second
)

type PostgresConfig struct {
	DSN             string
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// NewPostgresConfig returns a config for dsn with pool defaults applied
func NewPostgresConfig(dsn string, maxConns int) *PostgresConfig {
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}

	return &PostgresConfig{
		DSN:             dsn,
		MaxConns:        maxConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
	}
}

// PostgresDB implements the db.Database interface on top of pgx's database/sql adapter
type PostgresDB struct {
	cfg *PostgresConfig
	db  *sqlx.DB
}

func NewPostgresDB(cfg *PostgresConfig) *PostgresDB {
	return &PostgresDB{cfg: cfg}
}

// Connect opens the pool, verifies the server is reachable and applies pending migrations
func (p *PostgresDB) Connect() error {
	if p.db != nil {
		return fmt.Errorf("database already connected")
	}

	pgxCfg, err := pgx.ParseConfig(p.cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Fail fast on startup if postgres is unreachable
	pgxCfg.ConnectTimeout = connectTimeout

	conn := sqlx.NewDb(stdlib.OpenDB(*pgxCfg), "pgx")
	conn.SetMaxOpenConns(p.cfg.MaxConns)
	conn.SetMaxIdleConns(p.cfg.MaxConns)
	conn.SetConnMaxLifetime(p.cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	p.db = conn
	return nil
}

func (p *PostgresDB) Close() error {
	if p.db == nil {
		return nil
	}

	err := p.db.Close()
	p.db = nil
	return err
}

func (p *PostgresDB) DB() *sqlx.DB {
	return p.db
}
