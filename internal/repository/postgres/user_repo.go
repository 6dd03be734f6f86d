package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL. It never writes total_points.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, role, status, total_points, full_name, register_number, year, department, phone, wing, squad, rank, must_change_password, pwd_hash, salt_auth, created_at`

// Create inserts a new user row. Points always start at zero.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, role, status, full_name, register_number, year, department, phone, wing, squad, rank, must_change_password, pwd_hash, salt_auth)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q,
		u.ID, u.Email, string(u.Role), string(u.Status), u.FullName, u.RegisterNumber, u.Year, u.Department,
		u.Phone, u.Wing, u.Squad, u.Rank, u.MustChangePassword, u.PwdHash, u.SaltAuth,
	).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

// GetByEmail selects a user by login email (case-insensitive).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email)=$1`, strings.ToLower(email))
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// List returns users matching the role and status filters, ordered by name.
func (r *UserRepo) List(ctx context.Context, role model.Role, status model.Status) ([]model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE ($1 = '' OR role = $1) AND ($2 = '' OR status = $2)
ORDER BY full_name, id`
	rows, err := r.db.Pool.Query(ctx, q, string(role), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateProfile overwrites editable profile columns.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, p model.ProfileUpdate) error {
	const q = `
UPDATE users
SET full_name=$2, register_number=$3, year=$4, department=$5, phone=$6, wing=$7, squad=$8, rank=$9
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, p.FullName, p.RegisterNumber, p.Year, p.Department, p.Phone, p.Wing, p.Squad, p.Rank)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetStatus moves a member between active and alumni.
func (r *UserRepo) SetStatus(ctx context.Context, id uuid.UUID, status model.Status) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE users SET status=$2 WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetPassword replaces credentials and clears must_change_password.
func (r *UserRepo) SetPassword(ctx context.Context, id uuid.UUID, hash, salt []byte) error {
	const q = `UPDATE users SET pwd_hash=$2, salt_auth=$3, must_change_password=false WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, hash, salt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// CountActiveCadets returns the number of active cadets.
func (r *UserRepo) CountActiveCadets(ctx context.Context) (int, error) {
	const q = `SELECT count(*) FROM users WHERE role='cadet' AND status='active'`
	var n int
	if err := r.db.Pool.QueryRow(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u            model.User
		role, status string
	)
	err := row.Scan(&u.ID, &u.Email, &role, &status, &u.TotalPoints, &u.FullName, &u.RegisterNumber, &u.Year,
		&u.Department, &u.Phone, &u.Wing, &u.Squad, &u.Rank, &u.MustChangePassword, &u.PwdHash, &u.SaltAuth, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role, u.Status = model.Role(role), model.Status(status)
	return &u, nil
}
