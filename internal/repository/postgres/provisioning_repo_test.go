package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/supermock-admin/internal/errs"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestProfileRepo_FindByEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT id, email, COALESCE\(full_name, ''\) FROM profiles WHERE lower\(email\)=\$1`).
		WithArgs("a@b.co").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name"}).AddRow(id, "a@b.co", "Ann"))
	p, err := r.FindByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
	require.Equal(t, "Ann", p.FullName)

	mock.ExpectQuery(`FROM profiles WHERE lower\(email\)=\$1`).
		WithArgs("x@b.co").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.FindByEmail(ctx, "x@b.co")
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`FROM profiles WHERE lower\(email\)=\$1`).
		WithArgs("y@b.co").
		WillReturnError(errors.New("conn reset"))
	_, err = r.FindByEmail(ctx, "y@b.co")
	require.Error(t, err)
	require.NotErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_Upsert(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)
	ctx := context.Background()
	p := model.Profile{ID: uuid.Must(uuid.NewV4()), Email: "a@b.co", FullName: "Ann"}

	mock.ExpectExec(`INSERT INTO profiles \(id, email, full_name\) VALUES \(\$1, \$2, \$3\) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(p.ID, p.Email, p.FullName).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	created, err := r.Upsert(ctx, p)
	require.NoError(t, err)
	require.True(t, created)

	mock.ExpectExec(`INSERT INTO profiles`).
		WithArgs(p.ID, p.Email, p.FullName).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	created, err = r.Upsert(ctx, p)
	require.NoError(t, err)
	require.False(t, created)

	mock.ExpectExec(`INSERT INTO profiles`).
		WithArgs(p.ID, p.Email, p.FullName).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.Upsert(ctx, p)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_Delete(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)
	id := uuid.Must(uuid.NewV4())

	mock.ExpectExec(`DELETE FROM profiles WHERE id=\$1`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, r.Delete(context.Background(), id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepo_AuthUserByEmail(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	confirmed := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, email, email_confirmed_at FROM admin_get_auth_user_by_email\(\$1\)`).
		WithArgs("a@b.co").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "email_confirmed_at"}).AddRow(id, "a@b.co", &confirmed))
	u, err := r.AuthUserByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.True(t, u.Confirmed())

	mock.ExpectQuery(`admin_get_auth_user_by_email`).
		WithArgs("z@b.co").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.AuthUserByEmail(ctx, "z@b.co")
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCenterRepo_OwnerAndMember(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCenterRepo(db)
	ctx := context.Background()
	center, user := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM centers WHERE id=\$1 AND owner_id=\$2\)`).
		WithArgs(center, user).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := r.IsOwner(ctx, center, user)
	require.NoError(t, err)
	require.True(t, ok)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM center_members WHERE center_id=\$1 AND user_id=\$2\)`).
		WithArgs(center, user).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	ok, err = r.IsMember(ctx, center, user)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCenterRepo_CreateMembership(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewCenterRepo(db)
	ctx := context.Background()
	m := model.Membership{CenterID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4()), Role: model.RoleExaminer}
	id := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO center_members \(center_id, user_id, role\) VALUES \(\$1, \$2, \$3\) RETURNING id, created_at`).
		WithArgs(m.CenterID, m.UserID, "examiner").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, now))
	got, err := r.CreateMembership(ctx, m)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, model.RoleExaminer, got.Role)

	mock.ExpectQuery(`INSERT INTO center_members`).
		WithArgs(m.CenterID, m.UserID, "examiner").
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.CreateMembership(ctx, m)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepo_Create(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewStudentRepo(db)
	ctx := context.Background()
	phone := "+998901234567"
	s := model.StudentProfile{
		UserID:         uuid.Must(uuid.NewV4()),
		CenterID:       uuid.Must(uuid.NewV4()),
		Name:           "Bekzod",
		Email:          "b@mail.uz",
		Phone:          &phone,
		EnrollmentType: model.EnrollmentRegular,
	}
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`INSERT INTO students`).
		WithArgs(s.UserID, s.CenterID, s.Name, s.Email, s.Phone, s.Guardian, s.GuardianPhone, s.DateOfBirth, s.Address, "regular").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, time.Now()))
	got, err := r.Create(ctx, s)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Nil(t, got.Guardian)

	mock.ExpectQuery(`INSERT INTO students`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	_, err = r.Create(ctx, s)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}
