package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
)

// PoolConfig bounds the number of connections and how long a unit of work
// may wait for one.
type PoolConfig struct {
	MinConns       int
	MaxConns       int
	AcquireTimeout time.Duration
}

// Pool hands one pooled connection to each unit of work and always returns
// it, whatever the outcome.
type Pool struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

var sqlOpen = sql.Open

// Open opens the database with the named driver and applies cfg.
func Open(ctx context.Context, driver, dsn string, cfg PoolConfig) (*Pool, error) {
	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	p, err := NewPool(ctx, db, cfg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPool applies cfg to db and opens MinConns connections up front.
func NewPool(ctx context.Context, db *sql.DB, cfg PoolConfig) (*Pool, error) {
	if cfg.MaxConns < 1 {
		return nil, fmt.Errorf("pool max connections must be positive, got %d", cfg.MaxConns)
	}
	if cfg.MinConns < 0 || cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("pool min connections must be within [0, %d], got %d", cfg.MaxConns, cfg.MinConns)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)

	p := &Pool{db: db, acquireTimeout: cfg.AcquireTimeout}
	if err := p.warm(ctx, cfg.MinConns); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pool) warm(ctx context.Context, n int) error {
	conns := make([]*sql.Conn, 0, n)
	defer func() {
		for _, c := range conns {
			_ = c.Close()
		}
	}()
	for i := 0; i < n; i++ {
		c, err := p.acquire(ctx)
		if err != nil {
			return fmt.Errorf("warm pool: %w", err)
		}
		conns = append(conns, c)
		if err := c.PingContext(ctx); err != nil {
			return fmt.Errorf("warm pool: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle for migrations and health checks.
func (p *Pool) DB() *sql.DB { return p.db }

func (p *Pool) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Pool) Close() error { return p.db.Close() }

// WithTx acquires a connection, waiting at most the acquire timeout, and
// runs fn inside a transaction on it. ErrPoolExhausted is returned when no
// connection became free in time.
func (p *Pool) WithTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	return WithTx(ctx, conn, nil, fn)
}

func (p *Pool) acquire(ctx context.Context) (*sql.Conn, error) {
	acquireCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	conn, err := p.db.Conn(acquireCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrPoolExhausted
		}
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return conn, nil
}
