package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"smm-studio/internal/domain"
	"smm-studio/internal/infra/metrics"
)

// Postgres реализует domain.KV поверх таблицы app_state (key text pk, value jsonb).
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.KV = (*Postgres)(nil)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Get возвращает значение ключа или domain.ErrNotFound.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM app_state WHERE key = $1`, key).Scan(&value)
	metrics.ObserveNetworkRequest("postgres", "app_state_select", "app_state", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("чтение app_state %s: %w", key, err)
	}
	return value, nil
}

// Set записывает значение ключа.
func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO app_state (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`, key, value)
	metrics.ObserveNetworkRequest("postgres", "app_state_upsert", "app_state", start, err)
	if err != nil {
		return fmt.Errorf("запись app_state %s: %w", key, err)
	}
	return nil
}
