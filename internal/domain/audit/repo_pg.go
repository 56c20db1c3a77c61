package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelog/carelog/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the PostgreSQL audit repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const entryCols = `id, actor_id, actor_role, action, resource, resource_id,
	method, path, status_code, success, severity, category, description,
	request_data, response_summary, ip_address, user_agent, request_id, created_at`

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	reqData, err := marshalMap(e.RequestData)
	if err != nil {
		return fmt.Errorf("marshal request data: %w", err)
	}
	respSummary, err := marshalMap(e.ResponseSummary)
	if err != nil {
		return fmt.Errorf("marshal response summary: %w", err)
	}

	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_log (id, actor_id, actor_role, action, resource, resource_id,
			method, path, status_code, success, severity, category, description,
			request_data, response_summary, ip_address, user_agent, request_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		e.ID, e.ActorID, e.ActorRole, e.Action, e.Resource, e.ResourceID,
		e.Method, e.Path, e.StatusCode, e.Success, e.Severity, e.Category, e.Description,
		reqData, respSummary, e.IPAddress, e.UserAgent, e.RequestID, e.CreatedAt)
	return err
}

func (r *repoPG) scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var reqData, respSummary []byte
	err := row.Scan(&e.ID, &e.ActorID, &e.ActorRole, &e.Action, &e.Resource, &e.ResourceID,
		&e.Method, &e.Path, &e.StatusCode, &e.Success, &e.Severity, &e.Category, &e.Description,
		&reqData, &respSummary, &e.IPAddress, &e.UserAgent, &e.RequestID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(reqData) > 0 {
		_ = json.Unmarshal(reqData, &e.RequestData)
	}
	if len(respSummary) > 0 {
		_ = json.Unmarshal(respSummary, &e.ResponseSummary)
	}
	return &e, nil
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Entry, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	add := func(clause string, val interface{}) {
		where += fmt.Sprintf(clause, idx)
		args = append(args, val)
		idx++
	}

	if f.ActorID != nil {
		add(` AND actor_id = $%d`, *f.ActorID)
	}
	if f.Action != "" {
		add(` AND action = $%d`, f.Action)
	}
	if f.Resource != "" {
		add(` AND resource = $%d`, f.Resource)
	}
	if len(f.Categories) > 0 {
		add(` AND category = ANY($%d)`, f.Categories)
	}
	if f.Severity != "" {
		add(` AND severity = $%d`, f.Severity)
	}
	if f.Success != nil {
		add(` AND success = $%d`, *f.Success)
	}
	if !f.From.IsZero() {
		add(` AND created_at >= $%d`, f.From)
	}
	if !f.To.IsZero() {
		add(` AND created_at < $%d`, f.To)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + entryCols + ` FROM audit_log` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Entry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, e)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Overview(ctx context.Context, since time.Time) (*Overview, error) {
	ov := &Overview{
		ByCategory: make(map[string]int),
		BySeverity: make(map[string]int),
		ByAction:   make(map[string]int),
		ByResource: make(map[string]int),
	}

	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE created_at >= $1`, since).Scan(&ov.Total); err != nil {
		return nil, err
	}

	counters := []struct {
		column string
		dest   map[string]int
	}{
		{"category", ov.ByCategory},
		{"severity", ov.BySeverity},
		{"action", ov.ByAction},
		{"resource", ov.ByResource},
	}
	for _, counter := range counters {
		rows, err := r.conn(ctx).Query(ctx,
			`SELECT `+counter.column+`, COUNT(*) FROM audit_log WHERE created_at >= $1 GROUP BY `+counter.column, since)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var key string
			var count int
			if err := rows.Scan(&key, &count); err != nil {
				rows.Close()
				return nil, err
			}
			counter.dest[key] = count
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT created_at::date AS day, COUNT(*)
		FROM audit_log WHERE created_at >= $1
		GROUP BY day ORDER BY day ASC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var day time.Time
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		ov.Daily = append(ov.Daily, DailyCount{Date: day.Format("2006-01-02"), Count: count})
	}
	return ov, rows.Err()
}

func marshalMap(m map[string]interface{}) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}
