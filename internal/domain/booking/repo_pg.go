package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/casebook/casebook/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// PgTxRunner runs functions inside a pgx transaction carried on the context,
// so repository calls made within join it.
type PgTxRunner struct{ pool *pgxpool.Pool }

func NewPgTxRunner(pool *pgxpool.Pool) *PgTxRunner { return &PgTxRunner{pool: pool} }

func (r *PgTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

// =========== Case Repository ===========

type caseRepoPG struct{ pool *pgxpool.Pool }

func NewCaseRepoPG(pool *pgxpool.Pool) CaseRepository { return &caseRepoPG{pool: pool} }

func (r *caseRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const caseCols = `id, reference_number, hospital, department, surgery_date,
	procedure_type, procedure_name, doctor_id, doctor_name, time_of_procedure,
	special_instruction, surgery_set_selection, implant_box, status, country,
	is_amended, amended_by, amended_at, submitted_by, submitted_at,
	processed_by, processed_at, process_order_details, created_at, updated_at`

func (r *caseRepoPG) scanCase(row pgx.Row) (*CaseBooking, error) {
	var cb CaseBooking
	err := row.Scan(&cb.ID, &cb.ReferenceNumber, &cb.Hospital, &cb.Department, &cb.SurgeryDate,
		&cb.ProcedureType, &cb.ProcedureName, &cb.DoctorID, &cb.DoctorName, &cb.TimeOfProcedure,
		&cb.SpecialInstruction, &cb.SurgerySetSelection, &cb.ImplantBox, &cb.Status, &cb.Country,
		&cb.IsAmended, &cb.AmendedBy, &cb.AmendedAt, &cb.SubmittedBy, &cb.SubmittedAt,
		&cb.ProcessedBy, &cb.ProcessedAt, &cb.ProcessOrderDetails, &cb.CreatedAt, &cb.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &cb, err
}

func (r *caseRepoPG) Create(ctx context.Context, cb *CaseBooking) error {
	cb.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO case_bookings (id, reference_number, hospital, department, surgery_date,
			procedure_type, procedure_name, doctor_id, doctor_name, time_of_procedure,
			special_instruction, surgery_set_selection, implant_box, status, country,
			submitted_by, submitted_at, process_order_details, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$19)`,
		cb.ID, cb.ReferenceNumber, cb.Hospital, cb.Department, cb.SurgeryDate,
		cb.ProcedureType, cb.ProcedureName, cb.DoctorID, cb.DoctorName, cb.TimeOfProcedure,
		cb.SpecialInstruction, cb.SurgerySetSelection, cb.ImplantBox, cb.Status, cb.Country,
		cb.SubmittedBy, cb.SubmittedAt, cb.ProcessOrderDetails, cb.CreatedAt)
	return err
}

func (r *caseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*CaseBooking, error) {
	return r.scanCase(r.conn(ctx).QueryRow(ctx, `SELECT `+caseCols+` FROM case_bookings WHERE id = $1`, id))
}

func (r *caseRepoPG) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, status CaseStatus, actor string, prevUpdatedAt, now time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_bookings SET status=$2, processed_by=$3, processed_at=$4, updated_at=$4
		WHERE id = $1 AND updated_at = $5`,
		id, status, actor, now, prevUpdatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *caseRepoPG) UpdateAmended(ctx context.Context, cb *CaseBooking) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE case_bookings SET hospital=$2, department=$3, surgery_date=$4,
			procedure_type=$5, procedure_name=$6, doctor_id=$7, doctor_name=$8,
			time_of_procedure=$9, special_instruction=$10,
			surgery_set_selection=$11, implant_box=$12,
			is_amended=true, amended_by=$13, amended_at=$14, updated_at=$14
		WHERE id = $1`,
		cb.ID, cb.Hospital, cb.Department, cb.SurgeryDate,
		cb.ProcedureType, cb.ProcedureName, cb.DoctorID, cb.DoctorName,
		cb.TimeOfProcedure, cb.SpecialInstruction,
		cb.SurgerySetSelection, cb.ImplantBox,
		cb.AmendedBy, cb.AmendedAt)
	return err
}

func (r *caseRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	// History and quantity rows cascade via foreign keys.
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM case_bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *caseRepoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*CaseBooking, int, error) {
	where := ""
	args := []interface{}{}
	add := func(clause string, val interface{}) {
		args = append(args, val)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.Country != "" {
		add("country = $%d", filter.Country)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Department != "" {
		add("department = $%d", filter.Department)
	}
	if filter.DoctorName != "" {
		add("doctor_name = $%d", filter.DoctorName)
	}
	if filter.SubmittedBy != "" {
		add("submitted_by = $%d", filter.SubmittedBy)
	}
	if filter.DateFrom != nil {
		add("surgery_date >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("surgery_date <= $%d", *filter.DateTo)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM case_bookings`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+caseCols+` FROM case_bookings%s ORDER BY surgery_date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*CaseBooking
	for rows.Next() {
		cb, err := r.scanCase(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, cb)
	}
	return items, total, rows.Err()
}

// -- Status history --

const historyCols = `id, case_id, status, timestamp, processed_by, details, attachments`

func (r *caseRepoPG) scanHistory(row pgx.Row) (*StatusHistoryEntry, error) {
	var e StatusHistoryEntry
	err := row.Scan(&e.ID, &e.CaseID, &e.Status, &e.Timestamp, &e.ProcessedBy, &e.Details, &e.Attachments)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &e, err
}

func (r *caseRepoPG) AddStatusHistory(ctx context.Context, e *StatusHistoryEntry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO status_history (id, case_id, status, timestamp, processed_by, details, attachments)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.CaseID, e.Status, e.Timestamp, e.ProcessedBy, e.Details, e.Attachments)
	return err
}

func (r *caseRepoPG) ListStatusHistory(ctx context.Context, caseID uuid.UUID) ([]*StatusHistoryEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+historyCols+` FROM status_history WHERE case_id = $1 ORDER BY timestamp`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*StatusHistoryEntry
	for rows.Next() {
		e, err := r.scanHistory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (r *caseRepoPG) CountRecentSameStatus(ctx context.Context, caseID uuid.UUID, status CaseStatus, cutoff time.Time) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM status_history
		WHERE case_id = $1 AND status = $2 AND timestamp > $3`,
		caseID, status, cutoff).Scan(&count)
	return count, err
}

func (r *caseRepoPG) LatestStatusHistory(ctx context.Context, caseID uuid.UUID) (*StatusHistoryEntry, error) {
	return r.scanHistory(r.conn(ctx).QueryRow(ctx, `
		SELECT `+historyCols+` FROM status_history
		WHERE case_id = $1 ORDER BY timestamp DESC LIMIT 1`, caseID))
}

// -- Amendments --

func (r *caseRepoPG) AddAmendment(ctx context.Context, e *AmendmentHistoryEntry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO amendment_history (id, case_id, amended_by, timestamp, reason, changes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.ID, e.CaseID, e.AmendedBy, e.Timestamp, e.Reason, e.Changes)
	return err
}

func (r *caseRepoPG) ListAmendments(ctx context.Context, caseID uuid.UUID) ([]*AmendmentHistoryEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, amended_by, timestamp, reason, changes
		FROM amendment_history WHERE case_id = $1 ORDER BY timestamp`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*AmendmentHistoryEntry
	for rows.Next() {
		var e AmendmentHistoryEntry
		if err := rows.Scan(&e.ID, &e.CaseID, &e.AmendedBy, &e.Timestamp, &e.Reason, &e.Changes); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}

// -- Quantities --

func (r *caseRepoPG) ReplaceQuantities(ctx context.Context, caseID uuid.UUID, quantities []*CaseQuantity) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM case_booking_quantities WHERE case_id = $1`, caseID); err != nil {
		return err
	}
	for _, q := range quantities {
		q.ID = uuid.New()
		q.CaseID = caseID
		if _, err := c.Exec(ctx, `
			INSERT INTO case_booking_quantities (id, case_id, item_type, item_name, quantity)
			VALUES ($1,$2,$3,$4,$5)`,
			q.ID, q.CaseID, q.ItemType, q.ItemName, q.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (r *caseRepoPG) GetQuantities(ctx context.Context, caseID uuid.UUID) ([]*CaseQuantity, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, item_type, item_name, quantity
		FROM case_booking_quantities WHERE case_id = $1 ORDER BY item_type, item_name`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CaseQuantity
	for rows.Next() {
		var q CaseQuantity
		if err := rows.Scan(&q.ID, &q.CaseID, &q.ItemType, &q.ItemName, &q.Quantity); err != nil {
			return nil, err
		}
		items = append(items, &q)
	}
	return items, rows.Err()
}

// =========== Counter Repository ===========

type counterRepoPG struct{ pool *pgxpool.Pool }

func NewCounterRepoPG(pool *pgxpool.Pool) CounterRepository { return &counterRepoPG{pool: pool} }

func (r *counterRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// NextSequence increments the (country, year) counter in a single upsert so
// concurrent minters for the same pair cannot observe the same value.
func (r *counterRepoPG) NextSequence(ctx context.Context, country string, year int) (int, error) {
	var seq int
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO case_counters (country, year, seq) VALUES ($1, $2, 1)
		ON CONFLICT (country, year) DO UPDATE SET seq = case_counters.seq + 1
		RETURNING seq`,
		country, year).Scan(&seq)
	return seq, err
}
