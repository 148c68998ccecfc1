package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	apperrors "secdash/internal/errors"
	"secdash/internal/records"
)

const table = "uploads"

// Fixed-width timestamps keep created_at sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var columns = []string{"id", "user_id", "service", "filename", "file_size", "version", "status", "report_url", "created_at", "finished_at"}

// Repository stores upload history rows.
type Repository struct {
	DB  *sql.DB
	SQ  sq.StatementBuilderType
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{DB: db, SQ: sq.StatementBuilder, now: time.Now}
}

// Create inserts f. Missing ID, status and creation time are filled in.
func (r *Repository) Create(ctx context.Context, f *records.UploadedFile) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = records.StatusProcessing
	}
	if f.CreateTime.IsZero() {
		f.CreateTime = r.now().UTC()
	}
	q := r.SQ.Insert(table).Columns(columns...).
		Values(f.ID, f.UserID, f.Service, f.Filename, f.FileSize, f.Version, string(f.Status), f.ReportURL,
			formatTime(f.CreateTime), nullTime(f.FinishTime))
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.DB.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	return nil
}

// Get returns the upload with id.
func (r *Repository) Get(ctx context.Context, id string) (records.UploadedFile, error) {
	q := r.SQ.Select(columns...).From(table).Where(sq.Eq{"id": id}).Limit(1)
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return records.UploadedFile{}, fmt.Errorf("build select: %w", err)
	}
	f, err := scanUpload(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return records.UploadedFile{}, apperrors.ErrUploadNotFound
	}
	return f, err
}

// ListByUser returns the user's uploads for service, newest first. An empty
// service lists every service.
func (r *Repository) ListByUser(ctx context.Context, userID, service string) ([]records.UploadedFile, error) {
	where := sq.Eq{"user_id": userID}
	if strings.TrimSpace(service) != "" {
		where["service"] = service
	}
	q := r.SQ.Select(columns...).From(table).Where(where).OrderBy("created_at DESC", "id DESC")
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()
	out := []records.UploadedFile{}
	for rows.Next() {
		f, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpdateStatus moves an upload to status. Terminal states stamp the finish time.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status records.Status, reportURL string) error {
	sqlStr, args, err := r.statusUpdate(id, status, reportURL).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("update upload: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrUploadNotFound
	}
	return nil
}

// SyncStatuses applies backend statuses to the matching local rows in one
// transaction. Unknown IDs and rows already at the given status are left
// alone. It returns the number of rows changed.
func (r *Repository) SyncStatuses(ctx context.Context, statuses map[string]records.Status) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	changed := 0
	for id, status := range statuses {
		q := r.statusUpdate(id, status, "").Where(sq.NotEq{"status": string(status)})
		sqlStr, args, err := q.ToSql()
		if err != nil {
			return 0, fmt.Errorf("build sync: %w", err)
		}
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return 0, fmt.Errorf("sync upload %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		changed += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit sync: %w", err)
	}
	return changed, nil
}

func (r *Repository) statusUpdate(id string, status records.Status, reportURL string) sq.UpdateBuilder {
	q := r.SQ.Update(table).Set("status", string(status)).Where(sq.Eq{"id": id})
	if reportURL != "" {
		q = q.Set("report_url", reportURL)
	}
	if status.Terminal() {
		q = q.Set("finished_at", formatTime(r.now().UTC()))
	}
	return q
}

// CountByStatus aggregates every upload by status.
func (r *Repository) CountByStatus(ctx context.Context) (map[records.Status]int, error) {
	return r.CountByStatusSince(ctx, time.Time{})
}

// CountByStatusSince aggregates uploads created at or after since. A zero
// since counts every upload.
func (r *Repository) CountByStatusSince(ctx context.Context, since time.Time) (map[records.Status]int, error) {
	q := r.SQ.Select("status", "COUNT(*)").From(table).GroupBy("status")
	if !since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": formatTime(since)})
	}
	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("count uploads: %w", err)
	}
	defer rows.Close()
	out := make(map[records.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[records.Status(status)] = n
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUpload(row scanner) (records.UploadedFile, error) {
	var (
		f         records.UploadedFile
		status    string
		createdAt string
		finished  sql.NullString
	)
	if err := row.Scan(&f.ID, &f.UserID, &f.Service, &f.Filename, &f.FileSize, &f.Version, &status, &f.ReportURL, &createdAt, &finished); err != nil {
		return records.UploadedFile{}, err
	}
	f.Status = records.Status(status)
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		f.CreateTime = t
	}
	if finished.Valid {
		if t, err := time.Parse(timeLayout, finished.String); err == nil {
			f.FinishTime = &t
		}
	}
	return f, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
