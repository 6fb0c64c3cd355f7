package catalog

import (
	"context"
	"errors"
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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func requireRow(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// -- Departments --

func (r *repoPG) CreateDepartment(ctx context.Context, d *Department) error {
	d.ID = uuid.New()
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO departments (id, name, country, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$5)`,
		d.ID, d.Name, d.Country, d.IsActive, now)
	return err
}

func (r *repoPG) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	var d Department
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, country, is_active, created_at, updated_at
		FROM departments WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Country, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	return &d, nil
}

func (r *repoPG) UpdateDepartment(ctx context.Context, d *Department) error {
	d.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE departments SET name=$2, country=$3, is_active=$4, updated_at=$5 WHERE id = $1`,
		d.ID, d.Name, d.Country, d.IsActive, d.UpdatedAt)
	return requireRow(tag, err)
}

func (r *repoPG) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	return requireRow(tag, err)
}

func (r *repoPG) ListDepartments(ctx context.Context, country string, activeOnly bool) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, country, is_active, created_at, updated_at
		FROM departments
		WHERE ($1 = '' OR country = $1) AND (NOT $2 OR is_active)
		ORDER BY name`, country, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.Country, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

// -- Doctors --

func (r *repoPG) CreateDoctor(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (id, name, department, country, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$6)`,
		d.ID, d.Name, d.Department, d.Country, d.IsActive, now)
	return err
}

func (r *repoPG) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, department, country, is_active, created_at, updated_at
		FROM doctors WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Department, &d.Country, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	return &d, nil
}

func (r *repoPG) UpdateDoctor(ctx context.Context, d *Doctor) error {
	d.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctors SET name=$2, department=$3, country=$4, is_active=$5, updated_at=$6 WHERE id = $1`,
		d.ID, d.Name, d.Department, d.Country, d.IsActive, d.UpdatedAt)
	return requireRow(tag, err)
}

func (r *repoPG) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	return requireRow(tag, err)
}

func (r *repoPG) ListDoctors(ctx context.Context, country, department string, activeOnly bool) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, department, country, is_active, created_at, updated_at
		FROM doctors
		WHERE ($1 = '' OR country = $1) AND ($2 = '' OR department = $2) AND (NOT $3 OR is_active)
		ORDER BY name`, country, department, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Department, &d.Country, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	return items, rows.Err()
}

// -- Doctor-procedure links --

func (r *repoPG) UpsertDoctorProcedure(ctx context.Context, dp *DoctorProcedure) error {
	if dp.ID == uuid.Nil {
		dp.ID = uuid.New()
	}
	now := time.Now().UTC()
	dp.UpdatedAt = now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_procedures (id, doctor_id, procedure_type, surgery_sets, implant_boxes, country, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
		ON CONFLICT (doctor_id, procedure_type) DO UPDATE
		SET surgery_sets = EXCLUDED.surgery_sets,
		    implant_boxes = EXCLUDED.implant_boxes,
		    updated_at = EXCLUDED.updated_at`,
		dp.ID, dp.DoctorID, dp.ProcedureType, dp.SurgerySets, dp.ImplantBoxes, dp.Country, now)
	return err
}

func (r *repoPG) GetDoctorProcedure(ctx context.Context, doctorID uuid.UUID, procedureType string) (*DoctorProcedure, error) {
	var dp DoctorProcedure
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, doctor_id, procedure_type, surgery_sets, implant_boxes, country, created_at, updated_at
		FROM doctor_procedures WHERE doctor_id = $1 AND procedure_type = $2`,
		doctorID, procedureType).
		Scan(&dp.ID, &dp.DoctorID, &dp.ProcedureType, &dp.SurgerySets, &dp.ImplantBoxes, &dp.Country, &dp.CreatedAt, &dp.UpdatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	return &dp, nil
}

func (r *repoPG) ListDoctorProcedures(ctx context.Context, doctorID uuid.UUID) ([]*DoctorProcedure, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, doctor_id, procedure_type, surgery_sets, implant_boxes, country, created_at, updated_at
		FROM doctor_procedures WHERE doctor_id = $1 ORDER BY procedure_type`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*DoctorProcedure
	for rows.Next() {
		var dp DoctorProcedure
		if err := rows.Scan(&dp.ID, &dp.DoctorID, &dp.ProcedureType, &dp.SurgerySets, &dp.ImplantBoxes, &dp.Country, &dp.CreatedAt, &dp.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &dp)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteDoctorProcedure(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM doctor_procedures WHERE id = $1`, id)
	return requireRow(tag, err)
}

// -- Surgery sets --

func (r *repoPG) CreateSurgerySet(ctx context.Context, s *SurgerySet) error {
	s.ID = uuid.New()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	// New sets append at the end of the country's display order.
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO surgery_sets (id, name, country, is_active, sort_order, created_at, updated_at)
		VALUES ($1,$2,$3,$4,
			(SELECT COALESCE(MAX(sort_order), 0) + 1 FROM surgery_sets WHERE country = $3),
			$5,$5)`,
		s.ID, s.Name, s.Country, s.IsActive, now)
	return err
}

func (r *repoPG) UpdateSurgerySet(ctx context.Context, s *SurgerySet) error {
	s.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE surgery_sets SET name=$2, is_active=$3, updated_at=$4 WHERE id = $1`,
		s.ID, s.Name, s.IsActive, s.UpdatedAt)
	return requireRow(tag, err)
}

func (r *repoPG) DeleteSurgerySet(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM surgery_sets WHERE id = $1`, id)
	return requireRow(tag, err)
}

func (r *repoPG) ListSurgerySets(ctx context.Context, country string, activeOnly bool) ([]*SurgerySet, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, country, is_active, sort_order, created_at, updated_at
		FROM surgery_sets
		WHERE ($1 = '' OR country = $1) AND (NOT $2 OR is_active)
		ORDER BY sort_order, name`, country, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*SurgerySet
	for rows.Next() {
		var s SurgerySet
		if err := rows.Scan(&s.ID, &s.Name, &s.Country, &s.IsActive, &s.SortOrder, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &s)
	}
	return items, rows.Err()
}

func (r *repoPG) ReorderSurgerySets(ctx context.Context, country string, orderedIDs []uuid.UUID) error {
	c := r.conn(ctx)
	for i, id := range orderedIDs {
		if _, err := c.Exec(ctx, `
			UPDATE surgery_sets SET sort_order = $3, updated_at = NOW()
			WHERE id = $1 AND country = $2`, id, country, i+1); err != nil {
			return err
		}
	}
	return nil
}

// -- Implant boxes --

func (r *repoPG) CreateImplantBox(ctx context.Context, b *ImplantBox) error {
	b.ID = uuid.New()
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO implant_boxes (id, name, country, is_active, sort_order, created_at, updated_at)
		VALUES ($1,$2,$3,$4,
			(SELECT COALESCE(MAX(sort_order), 0) + 1 FROM implant_boxes WHERE country = $3),
			$5,$5)`,
		b.ID, b.Name, b.Country, b.IsActive, now)
	return err
}

func (r *repoPG) UpdateImplantBox(ctx context.Context, b *ImplantBox) error {
	b.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE implant_boxes SET name=$2, is_active=$3, updated_at=$4 WHERE id = $1`,
		b.ID, b.Name, b.IsActive, b.UpdatedAt)
	return requireRow(tag, err)
}

func (r *repoPG) DeleteImplantBox(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM implant_boxes WHERE id = $1`, id)
	return requireRow(tag, err)
}

func (r *repoPG) ListImplantBoxes(ctx context.Context, country string, activeOnly bool) ([]*ImplantBox, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, country, is_active, sort_order, created_at, updated_at
		FROM implant_boxes
		WHERE ($1 = '' OR country = $1) AND (NOT $2 OR is_active)
		ORDER BY sort_order, name`, country, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ImplantBox
	for rows.Next() {
		var b ImplantBox
		if err := rows.Scan(&b.ID, &b.Name, &b.Country, &b.IsActive, &b.SortOrder, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &b)
	}
	return items, rows.Err()
}

func (r *repoPG) ReorderImplantBoxes(ctx context.Context, country string, orderedIDs []uuid.UUID) error {
	c := r.conn(ctx)
	for i, id := range orderedIDs {
		if _, err := c.Exec(ctx, `
			UPDATE implant_boxes SET sort_order = $3, updated_at = NOW()
			WHERE id = $1 AND country = $2`, id, country, i+1); err != nil {
			return err
		}
	}
	return nil
}

// -- Code tables --

func (r *repoPG) UpsertCodeTableEntry(ctx context.Context, e *CodeTableEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO code_tables (id, list_name, code, display, country, is_active, sort_order, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		ON CONFLICT (list_name, code, country) DO UPDATE
		SET display = EXCLUDED.display,
		    is_active = EXCLUDED.is_active,
		    sort_order = EXCLUDED.sort_order`,
		e.ID, e.ListName, e.Code, e.Display, e.Country, e.IsActive, e.SortOrder)
	return err
}

func (r *repoPG) ListCodeTable(ctx context.Context, listName, country string) ([]*CodeTableEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, list_name, code, display, country, is_active, sort_order, created_at
		FROM code_tables
		WHERE list_name = $1 AND ($2 = '' OR country = $2) AND is_active
		ORDER BY sort_order, display`, listName, country)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*CodeTableEntry
	for rows.Next() {
		var e CodeTableEntry
		if err := rows.Scan(&e.ID, &e.ListName, &e.Code, &e.Display, &e.Country, &e.IsActive, &e.SortOrder, &e.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}

func (r *repoPG) DeleteCodeTableEntry(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM code_tables WHERE id = $1`, id)
	return requireRow(tag, err)
}
