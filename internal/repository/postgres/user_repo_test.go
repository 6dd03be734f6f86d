package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/cadetcorps/internal/errs"
	"github.com/and161185/cadetcorps/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "email", "role", "status", "total_points", "full_name", "register_number", "year",
	"department", "phone", "wing", "squad", "rank", "must_change_password", "pwd_hash", "salt_auth", "created_at"}

func userRow(rows *pgxmock.Rows, id uuid.UUID, email string, role model.Role, points int64) *pgxmock.Rows {
	return rows.AddRow(id, email, string(role), "active", points, "Asha Nair", "REG1", "2", "CSE",
		"9999", "Army", "A", model.DefaultRank, false, []byte("h"), []byte("s"), time.Now())
}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{
		ID:                 uuid.Must(uuid.NewV4()),
		Email:              "asha@corps.test",
		Role:               model.RoleCadet,
		Status:             model.StatusActive,
		FullName:           "Asha Nair",
		Rank:               model.DefaultRank,
		MustChangePassword: true,
		PwdHash:            []byte("h"),
		SaltAuth:           []byte("s"),
	}
	args := []any{u.ID, u.Email, "cadet", "active", u.FullName, "", "", "", "", "", "", u.Rank, true, u.PwdHash, u.SaltAuth}
	created := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users \(id, email, role, status, full_name`).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	require.NoError(t, r.Create(ctx, u))
	require.Equal(t, created, u.CreatedAt)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(args...).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, u), errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID_and_GetByEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(userRow(pgxmock.NewRows(userCols), id, "asha@corps.test", model.RoleCadet, 25))
	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, model.RoleCadet, u.Role)
	require.Equal(t, model.StatusActive, u.Status)
	require.Equal(t, int64(25), u.TotalPoints)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`FROM users WHERE lower\(email\)=\$1`).
		WithArgs("asha@corps.test").
		WillReturnRows(userRow(pgxmock.NewRows(userCols), id, "asha@corps.test", model.RoleCadet, 0))
	u, err = r.GetByEmail(ctx, "Asha@Corps.Test")
	require.NoError(t, err)
	require.Equal(t, "asha@corps.test", u.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)

	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	rows := pgxmock.NewRows(userCols)
	userRow(rows, a, "a@corps.test", model.RoleCadet, 10)
	userRow(rows, b, "b@corps.test", model.RoleCadet, 20)
	mock.ExpectQuery(`WHERE \(\$1 = '' OR role = \$1\) AND \(\$2 = '' OR status = \$2\) ORDER BY full_name, id`).
		WithArgs("cadet", "active").
		WillReturnRows(rows)

	got, err := r.List(context.Background(), model.RoleCadet, model.StatusActive)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, b, got[1].ID)
}

func TestUserRepo_Updates(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	p := model.ProfileUpdate{FullName: "Asha N", Rank: "Corporal"}
	mock.ExpectExec(`UPDATE users SET full_name=\$2`).
		WithArgs(id, p.FullName, "", "", "", "", "", "", p.Rank).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.UpdateProfile(ctx, id, p))

	mock.ExpectExec(`UPDATE users SET status=\$2 WHERE id=\$1`).
		WithArgs(id, "alumni").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.SetStatus(ctx, id, model.StatusAlumni), errs.ErrNotFound)

	mock.ExpectExec(`UPDATE users SET pwd_hash=\$2, salt_auth=\$3, must_change_password=false WHERE id=\$1`).
		WithArgs(id, []byte("h2"), []byte("s2")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.SetPassword(ctx, id, []byte("h2"), []byte("s2")))

	mock.ExpectQuery(`SELECT count\(\*\) FROM users WHERE role='cadet' AND status='active'`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(5))
	n, err := r.CountActiveCadets(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	require.NoError(t, mock.ExpectationsWereMet())
}
