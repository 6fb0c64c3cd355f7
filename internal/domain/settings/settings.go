package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/casebook/casebook/internal/platform/db"
)

var ErrNotFound = errors.New("setting not found")

// Setting is one row of the system_settings key/value store. Value is
// arbitrary JSON: notification toggles, UI preferences and the like.
type Setting struct {
	Key       string      `db:"key" json:"key"`
	Value     interface{} `db:"value" json:"value"`
	UpdatedBy string      `db:"updated_by" json:"updatedBy"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// Repository is the storage contract for system settings.
type Repository interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, s *Setting) error
	List(ctx context.Context) ([]*Setting, error)
	Delete(ctx context.Context, key string) error
}

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Get(ctx context.Context, key string) (*Setting, error) {
	var s Setting
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT key, value, updated_by, updated_at FROM system_settings WHERE key = $1`, key).
		Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) Set(ctx context.Context, s *Setting) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO system_settings (key, value, updated_by, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = EXCLUDED.updated_at`,
		s.Key, s.Value, s.UpdatedBy, s.UpdatedAt)
	return err
}

func (r *repoPG) List(ctx context.Context) ([]*Setting, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT key, value, updated_by, updated_at FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, key string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM system_settings WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Service wraps the settings store with validation and actor stamping.
type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) Get(ctx context.Context, key string) (*Setting, error) {
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	return s.repo.Get(ctx, key)
}

func (s *Service) Set(ctx context.Context, key string, value interface{}, actor string) (*Setting, error) {
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	setting := &Setting{
		Key:       key,
		Value:     value,
		UpdatedBy: actor,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.Set(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *Service) List(ctx context.Context) ([]*Setting, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	return s.repo.Delete(ctx, key)
}
