package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/casebook/casebook/internal/platform/db"
)

// Aggregate is one row of the derived usage_aggregates table: the total
// quantity of an item consumed by a (date, country, department) slice of
// non-cancelled cases.
type Aggregate struct {
	UsageDate     time.Time `db:"usage_date" json:"usageDate"`
	Country       string    `db:"country" json:"country"`
	Department    string    `db:"department" json:"department"`
	ItemType      string    `db:"item_type" json:"itemType"`
	ItemName      string    `db:"item_name" json:"itemName"`
	TotalQuantity int       `db:"total_quantity" json:"totalQuantity"`
}

// Repository is the storage contract for usage aggregates.
type Repository interface {
	// Rebuild replaces the (date, country, department) slice with totals
	// derived from the quantity rows of that day's non-cancelled cases.
	Rebuild(ctx context.Context, usageDate time.Time, country, department string) error
	QueryRange(ctx context.Context, country, department string, from, to time.Time) ([]*Aggregate, error)
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

func (r *repoPG) Rebuild(ctx context.Context, usageDate time.Time, country, department string) error {
	c := r.conn(ctx)
	day := usageDate.UTC().Truncate(24 * time.Hour)

	if _, err := c.Exec(ctx, `
		DELETE FROM usage_aggregates
		WHERE usage_date = $1 AND country = $2 AND department = $3`,
		day, country, department); err != nil {
		return fmt.Errorf("clear usage slice: %w", err)
	}

	_, err := c.Exec(ctx, `
		INSERT INTO usage_aggregates (usage_date, country, department, item_type, item_name, total_quantity)
		SELECT $1, $2, $3, q.item_type, q.item_name, SUM(q.quantity)
		FROM case_booking_quantities q
		JOIN case_bookings cb ON cb.id = q.case_id
		WHERE cb.surgery_date::date = $1
		  AND cb.country = $2
		  AND cb.department = $3
		  AND cb.status <> 'Case Cancelled'
		GROUP BY q.item_type, q.item_name`,
		day, country, department)
	if err != nil {
		return fmt.Errorf("rebuild usage slice: %w", err)
	}
	return nil
}

func (r *repoPG) QueryRange(ctx context.Context, country, department string, from, to time.Time) ([]*Aggregate, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT usage_date, country, department, item_type, item_name, total_quantity
		FROM usage_aggregates
		WHERE usage_date >= $1 AND usage_date <= $2
		  AND ($3 = '' OR country = $3)
		  AND ($4 = '' OR department = $4)
		ORDER BY usage_date, item_type, item_name`,
		from, to, country, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Aggregate
	for rows.Next() {
		var a Aggregate
		if err := rows.Scan(&a.UsageDate, &a.Country, &a.Department, &a.ItemType, &a.ItemName, &a.TotalQuantity); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}

// Service maintains and serves usage aggregates. Its Recalculate method is
// the hook the booking service calls after quantity-affecting amendments.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Recalculate rebuilds the aggregate slice for one surgery date.
func (s *Service) Recalculate(ctx context.Context, usageDate time.Time, country, department string) error {
	if country == "" || department == "" {
		return fmt.Errorf("country and department are required")
	}
	if err := s.repo.Rebuild(ctx, usageDate, country, department); err != nil {
		return err
	}
	s.logger.Debug().
		Time("date", usageDate).
		Str("country", country).
		Str("department", department).
		Msg("usage aggregates rebuilt")
	return nil
}

// Query returns aggregates for a date range, optionally narrowed by country
// and department.
func (s *Service) Query(ctx context.Context, country, department string, from, to time.Time) ([]*Aggregate, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: to precedes from")
	}
	return s.repo.QueryRange(ctx, country, department, from, to)
}
