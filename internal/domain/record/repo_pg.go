package record

import (
	"context"
	"encoding/json"
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

// NewRepoPG returns the PostgreSQL medical record repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const recordCols = `id, patient_id, doctor_id, appointment_id, created_by, title,
	record_type, diagnosis, treatment, notes, vitals, lab_results,
	imaging_results, attachments, status, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rec *MedicalRecord) error {
	rec.ID = uuid.New()
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	vitals, labs, imaging, attachments, err := marshalJSONFields(rec)
	if err != nil {
		return fmt.Errorf("marshal record fields: %w", err)
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_records (id, patient_id, doctor_id, appointment_id,
			created_by, title, record_type, diagnosis, treatment, notes, vitals,
			lab_results, imaging_results, attachments, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		rec.ID, rec.PatientID, rec.DoctorID, rec.AppointmentID,
		rec.CreatedBy, rec.Title, rec.RecordType, rec.Diagnosis, rec.Treatment, rec.Notes,
		vitals, labs, imaging, attachments, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	return err
}

func (r *repoPG) scanRecord(row pgx.Row) (*MedicalRecord, error) {
	var rec MedicalRecord
	var vitals, labs, imaging, attachments []byte
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.DoctorID, &rec.AppointmentID,
		&rec.CreatedBy, &rec.Title, &rec.RecordType, &rec.Diagnosis, &rec.Treatment,
		&rec.Notes, &vitals, &labs, &imaging, &attachments, &rec.Status,
		&rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medical record not found")
	}
	if err != nil {
		return nil, err
	}
	if len(vitals) > 0 {
		_ = json.Unmarshal(vitals, &rec.Vitals)
	}
	if len(labs) > 0 {
		_ = json.Unmarshal(labs, &rec.LabResults)
	}
	if len(imaging) > 0 {
		_ = json.Unmarshal(imaging, &rec.ImagingResults)
	}
	if len(attachments) > 0 {
		_ = json.Unmarshal(attachments, &rec.Attachments)
	}
	return &rec, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+recordCols+` FROM medical_records WHERE id = $1`, id)
	return r.scanRecord(row)
}

func (r *repoPG) Update(ctx context.Context, rec *MedicalRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	vitals, labs, imaging, attachments, err := marshalJSONFields(rec)
	if err != nil {
		return fmt.Errorf("marshal record fields: %w", err)
	}

	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_records
		SET title = $2, record_type = $3, diagnosis = $4, treatment = $5, notes = $6,
			vitals = $7, lab_results = $8, imaging_results = $9, attachments = $10,
			status = $11, updated_at = $12
		WHERE id = $1`,
		rec.ID, rec.Title, rec.RecordType, rec.Diagnosis, rec.Treatment, rec.Notes,
		vitals, labs, imaging, attachments, rec.Status, rec.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("medical record not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*MedicalRecord, int, error) {
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
	} else {
		clauses = append(clauses, "status <> 'deleted'")
	}

	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+recordCols+` FROM medical_records%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]*MedicalRecord, 0, limit)
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func marshalJSONFields(rec *MedicalRecord) (vitals, labs, imaging, attachments []byte, err error) {
	if rec.Vitals != nil {
		if vitals, err = json.Marshal(rec.Vitals); err != nil {
			return
		}
	}
	if rec.LabResults != nil {
		if labs, err = json.Marshal(rec.LabResults); err != nil {
			return
		}
	}
	if rec.ImagingResults != nil {
		if imaging, err = json.Marshal(rec.ImagingResults); err != nil {
			return
		}
	}
	if rec.Attachments != nil {
		attachments, err = json.Marshal(rec.Attachments)
	}
	return
}
