package relationship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelog/carelog/internal/platform/apperr"
	"github.com/carelog/carelog/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the PostgreSQL relationship repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const relCols = `id, patient_id, doctor_id, relationship_type, status, priority,
	start_date, end_date, notes, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rel *Relationship) error {
	rel.ID = uuid.New()
	now := time.Now().UTC()
	rel.CreatedAt = now
	rel.UpdatedAt = now

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_doctor_relationships (id, patient_id, doctor_id,
			relationship_type, status, priority, start_date, end_date, notes,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		rel.ID, rel.PatientID, rel.DoctorID, rel.RelationshipType, rel.Status,
		rel.Priority, rel.StartDate, rel.EndDate, rel.Notes, rel.CreatedAt, rel.UpdatedAt)
	if db.IsConstraintViolation(err, db.PgUniqueViolation) {
		return apperr.Conflict("relationship of this type already exists for this patient and doctor")
	}
	return err
}

func (r *repoPG) scanRel(row pgx.Row) (*Relationship, error) {
	var rel Relationship
	err := row.Scan(&rel.ID, &rel.PatientID, &rel.DoctorID, &rel.RelationshipType,
		&rel.Status, &rel.Priority, &rel.StartDate, &rel.EndDate, &rel.Notes,
		&rel.CreatedAt, &rel.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("relationship not found")
	}
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Relationship, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+relCols+` FROM patient_doctor_relationships WHERE id = $1`, id)
	return r.scanRel(row)
}

func (r *repoPG) Update(ctx context.Context, rel *Relationship) error {
	rel.UpdatedAt = time.Now().UTC()
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_doctor_relationships
		SET status = $2, priority = $3, end_date = $4, notes = $5, updated_at = $6
		WHERE id = $1`,
		rel.ID, rel.Status, rel.Priority, rel.EndDate, rel.Notes, rel.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("relationship not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM patient_doctor_relationships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("relationship not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Relationship, int, error) {
	var clauses []string
	var args []interface{}
	add := func(clause string, val interface{}) {
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.PatientID != nil {
		add("patient_id = $%d", *f.PatientID)
	}
	if f.DoctorID != nil {
		add("doctor_id = $%d", *f.DoctorID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_doctor_relationships`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+relCols+` FROM patient_doctor_relationships%s
		ORDER BY priority ASC, created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	rels := make([]*Relationship, 0, limit)
	for rows.Next() {
		rel, err := r.scanRel(rows)
		if err != nil {
			return nil, 0, err
		}
		rels = append(rels, rel)
	}
	return rels, total, rows.Err()
}
