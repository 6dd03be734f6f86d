package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// AnnouncementRepo implements AnnouncementRepository using PostgreSQL.
type AnnouncementRepo struct{ db *DB }

// NewAnnouncementRepo constructs an announcement repository.
func NewAnnouncementRepo(db *DB) *AnnouncementRepo { return &AnnouncementRepo{db: db} }

// Create inserts an announcement and fills CreatedAt.
func (r *AnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	const q = `
INSERT INTO announcements (id, title, description, link, created_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`
	return r.db.Pool.QueryRow(ctx, q, a.ID, a.Title, a.Description, a.Link, a.CreatedBy).Scan(&a.CreatedAt)
}

// List returns live announcements, newest first.
func (r *AnnouncementRepo) List(ctx context.Context) ([]model.Announcement, error) {
	const q = `
SELECT id, title, description, link, created_by, created_at
FROM announcements WHERE NOT deleted
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Announcement
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.Link, &a.CreatedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SoftDelete sets the tombstone flag.
func (r *AnnouncementRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, `UPDATE announcements SET deleted=true WHERE id=$1 AND NOT deleted`, id)
}

// DocumentRepo implements DocumentRepository using PostgreSQL.
type DocumentRepo struct{ db *DB }

// NewDocumentRepo constructs a document repository.
func NewDocumentRepo(db *DB) *DocumentRepo { return &DocumentRepo{db: db} }

const documentColumns = `id, user_id, file_name, doc_type, file_url, status, rejection_reason, uploaded_by, uploaded_at, reviewed_by, reviewed_at`

// Create inserts a pending document and fills UploadedAt.
func (r *DocumentRepo) Create(ctx context.Context, d *model.Document) error {
	const q = `
INSERT INTO documents (id, user_id, file_name, doc_type, file_url, status, uploaded_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING uploaded_at`
	return r.db.Pool.QueryRow(ctx, q, d.ID, d.UserID, d.FileName, d.Type, d.FileURL, string(d.Status), d.UploadedBy).
		Scan(&d.UploadedAt)
}

// Get returns a non-deleted document.
func (r *DocumentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	d, err := scanDocument(r.db.Pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1 AND NOT deleted`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByUser returns a user's live documents, newest first.
func (r *DocumentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE user_id=$1 AND NOT deleted ORDER BY uploaded_at DESC`
	return r.list(ctx, q, userID)
}

// List returns live documents filtered by status (empty = all), newest first.
func (r *DocumentRepo) List(ctx context.Context, status model.ReviewStatus) ([]model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE NOT deleted AND ($1 = '' OR status = $1) ORDER BY uploaded_at DESC`
	return r.list(ctx, q, string(status))
}

func (r *DocumentRepo) list(ctx context.Context, q string, arg any) ([]model.Document, error) {
	rows, err := r.db.Pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Resubmit replaces link fields and puts the document back into review.
func (r *DocumentRepo) Resubmit(ctx context.Context, id uuid.UUID, fileName, docType, fileURL string) error {
	const q = `
UPDATE documents
SET file_name=$2, doc_type=$3, file_url=$4, status='pending', rejection_reason='', reviewed_by=NULL, reviewed_at=NULL
WHERE id=$1 AND NOT deleted`
	return execOne(ctx, r.db, q, id, fileName, docType, fileURL)
}

// SetReview stores status, reviewer, review time and rejection reason.
func (r *DocumentRepo) SetReview(ctx context.Context, d *model.Document) error {
	const q = `
UPDATE documents
SET status=$2, rejection_reason=$3, reviewed_by=$4, reviewed_at=$5
WHERE id=$1 AND NOT deleted`
	return execOne(ctx, r.db, q, d.ID, string(d.Status), d.RejectionReason, d.ReviewedBy, d.ReviewedAt)
}

// SoftDelete sets the tombstone flag.
func (r *DocumentRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, `UPDATE documents SET deleted=true WHERE id=$1 AND NOT deleted`, id)
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	var (
		d          model.Document
		status     string
		reviewedBy *uuid.UUID
		reviewedAt *time.Time
	)
	err := row.Scan(&d.ID, &d.UserID, &d.FileName, &d.Type, &d.FileURL, &status, &d.RejectionReason,
		&d.UploadedBy, &d.UploadedAt, &reviewedBy, &reviewedAt)
	if err != nil {
		return nil, err
	}
	d.Status = model.ReviewStatus(status)
	if reviewedBy != nil {
		d.ReviewedBy = *reviewedBy
	}
	if reviewedAt != nil {
		d.ReviewedAt = *reviewedAt
	}
	return &d, nil
}

// MaterialRepo implements MaterialRepository using PostgreSQL.
type MaterialRepo struct{ db *DB }

// NewMaterialRepo constructs a material repository.
func NewMaterialRepo(db *DB) *MaterialRepo { return &MaterialRepo{db: db} }

const materialColumns = `id, title, material_type, link, status, rejection_reason, created_by, created_at`

// Create inserts a material and fills CreatedAt.
func (r *MaterialRepo) Create(ctx context.Context, m *model.Material) error {
	const q = `
INSERT INTO materials (id, title, material_type, link, status, created_by)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at`
	return r.db.Pool.QueryRow(ctx, q, m.ID, m.Title, m.Type, m.Link, string(m.Status), m.CreatedBy).Scan(&m.CreatedAt)
}

// Get returns a material by id.
func (r *MaterialRepo) Get(ctx context.Context, id uuid.UUID) (*model.Material, error) {
	m, err := scanMaterial(r.db.Pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM materials WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns materials filtered by status (empty = all), newest first.
func (r *MaterialRepo) List(ctx context.Context, status model.ReviewStatus) ([]model.Material, error) {
	const q = `SELECT ` + materialColumns + ` FROM materials WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// SetReview stores a review decision.
func (r *MaterialRepo) SetReview(ctx context.Context, id uuid.UUID, status model.ReviewStatus, reason string) error {
	return execOne(ctx, r.db, `UPDATE materials SET status=$2, rejection_reason=$3 WHERE id=$1`, id, string(status), reason)
}

// Delete removes a material permanently.
func (r *MaterialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return execOne(ctx, r.db, `DELETE FROM materials WHERE id=$1`, id)
}

func scanMaterial(row pgx.Row) (*model.Material, error) {
	var (
		m      model.Material
		status string
	)
	if err := row.Scan(&m.ID, &m.Title, &m.Type, &m.Link, &status, &m.RejectionReason, &m.CreatedBy, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Status = model.ReviewStatus(status)
	return &m, nil
}

// execOne executes a single-row write and maps "no rows affected" to ErrNotFound.
func execOne(ctx context.Context, db *DB, q string, args ...any) error {
	tag, err := db.Pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
