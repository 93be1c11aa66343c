package review

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int, stage string) error
	SetJobVersionID(ctx context.Context, id, versionID string) error

	CreateDerivative(ctx context.Context, d *Derivative) error
	ListDerivativesByJob(ctx context.Context, jobID string) ([]*Derivative, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const jobColumns = `id, status, shot, task, artist, input_path, output_path,
	first_frame, last_frame, width, height, colorspace, version, comment,
	stage, progress, error, tracker_version_id, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Status, j.Shot, nullString(j.Task), nullString(j.Artist),
		j.InputPath, j.OutputPath, j.FirstFrame, j.LastFrame, j.Width, j.Height,
		nullString(j.Colorspace), j.Version, nullString(j.Comment),
		nullString(j.Stage), j.Progress, nullString(j.Error),
		nullString(j.TrackerVersionID),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE id = ?
	`, id)
	return r.scanJob(row)
}

func (r *SQLiteRepository) scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var task, artist, colorspace, comment, stage, errMsg, versionID sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Status, &j.Shot, &task, &artist, &j.InputPath,
		&j.OutputPath, &j.FirstFrame, &j.LastFrame, &j.Width, &j.Height,
		&colorspace, &j.Version, &comment, &stage, &j.Progress, &errMsg,
		&versionID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.Task = task.String
	j.Artist = artist.String
	j.Colorspace = colorspace.String
	j.Comment = comment.String
	j.Stage = stage.String
	j.Error = errMsg.String
	j.TrackerVersionID = versionID.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var task, artist, colorspace, comment, stage, errMsg, versionID sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Status, &j.Shot, &task, &artist,
			&j.InputPath, &j.OutputPath, &j.FirstFrame, &j.LastFrame,
			&j.Width, &j.Height, &colorspace, &j.Version, &comment, &stage,
			&j.Progress, &errMsg, &versionID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.Task = task.String
		j.Artist = artist.String
		j.Colorspace = colorspace.String
		j.Comment = comment.String
		j.Stage = stage.String
		j.Error = errMsg.String
		j.TrackerVersionID = versionID.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int, stage string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, stage = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, nullString(stage), id)
	return err
}

func (r *SQLiteRepository) SetJobVersionID(ctx context.Context, id, versionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET tracker_version_id = ?, updated_at = datetime('now') WHERE id = ?
	`, versionID, id)
	return err
}

func (r *SQLiteRepository) CreateDerivative(ctx context.Context, d *Derivative) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO derivatives (id, job_id, kind, path, exit_code, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.JobID, d.Kind, d.Path, d.ExitCode, nullString(d.Error),
		d.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) ListDerivativesByJob(ctx context.Context, jobID string) ([]*Derivative, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, job_id, kind, path, exit_code, error, created_at
		FROM derivatives WHERE job_id = ? ORDER BY kind
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var derivatives []*Derivative
	for rows.Next() {
		var d Derivative
		var errMsg sql.NullString
		var createdAt string

		if err := rows.Scan(&d.ID, &d.JobID, &d.Kind, &d.Path, &d.ExitCode, &errMsg, &createdAt); err != nil {
			return nil, err
		}
		d.Error = errMsg.String
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		derivatives = append(derivatives, &d)
	}
	return derivatives, rows.Err()
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
