package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"user_no", "eml_addr", "user_nm", "encpt_pswd", "resh_token", "user_role",
	"profl_img", "user_biogp", "use_yn", "del_yn", "last_lgn_dt", "last_pswd_chg_dt",
	"crt_no", "crt_dt", "updt_no", "updt_dt", "del_no", "del_dt",
}

const created = "2025-01-02T03:04:05Z"

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func aliceRow(token any) *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(
		int64(7), "alice@example.com", "alice", "$2a$10$hash", token, "USER",
		nil, nil, "Y", "N", nil, nil,
		nil, created, nil, created, nil, nil,
	)
}

func TestFindByEmail_Found(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+user_no,\s*eml_addr,.*del_dt\s+FROM\s+user_info\s+WHERE\s+eml_addr\s*=\s*\$1$`
	mock.ExpectQuery(q).WithArgs("alice@example.com").WillReturnRows(aliceRow("tok"))

	got, err := repo.FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.No)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Equal(t, models.Yes, got.UseYn)
	assert.Equal(t, models.No, got.DelYn)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "tok", *got.RefreshToken)
	assert.Nil(t, got.LastLoginAt)
	assert.Nil(t, got.UpdatedBy)
	assert.Equal(t, created, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+user_info\s+WHERE\s+eml_addr`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByName_NullToken(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+user_info\s+WHERE\s+user_nm\s*=\s*\$1$`).
		WithArgs("alice").
		WillReturnRows(aliceRow(nil))

	got, err := repo.FindByName(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, got.RefreshToken)
}

func TestFindByNo_DBError(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+user_info\s+WHERE\s+user_no\s*=\s*\$1$`).
		WithArgs(int64(7)).
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByNo(context.Background(), 7)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+user_info\s*\(eml_addr,\s*user_nm,\s*encpt_pswd,\s*user_role,\s*use_yn,\s*del_yn,\s*crt_dt,\s*updt_dt\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$7\)\s*RETURNING\s+user_no,.*del_dt$`
	mock.ExpectQuery(q).
		WithArgs("alice@example.com", "alice", "$2a$10$hash", models.RoleUser, models.Yes, models.No, sqlmock.AnyArg()).
		WillReturnRows(aliceRow(nil))

	got, err := repo.Create(context.Background(), &models.Account{
		Email: "alice@example.com", Name: "alice", PasswordHash: "$2a$10$hash",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.No)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		constraint string
		field      string
	}{
		{"user_info_eml_addr_key", FieldEmail},
		{"user_info_user_nm_key", FieldName},
	}

	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			t.Parallel()
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+user_info`).
				WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: tc.constraint})

			_, err := repo.Create(context.Background(), &models.Account{Email: "a@b.c", Name: "a"})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrConstraintViolation)

			var ce *ConstraintError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}

func TestCreate_OtherPgError(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+user_info`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.NotNullViolation})

	_, err := repo.Create(context.Background(), &models.Account{Email: "a@b.c", Name: "a"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrConstraintViolation)
}

func TestUpdateRefreshToken(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+user_info\s+SET\s+resh_token\s*=\s*\$2,\s*updt_no\s*=\s*\$1,\s*updt_dt\s*=\s*\$3\s+WHERE\s+user_no\s*=\s*\$1\s+RETURNING`
	tok := "new-token"
	mock.ExpectQuery(q).WithArgs(int64(7), &tok, sqlmock.AnyArg()).WillReturnRows(aliceRow("new-token"))

	got, err := repo.UpdateRefreshToken(context.Background(), 7, &tok)
	require.NoError(t, err)
	assert.Equal(t, "new-token", *got.RefreshToken)
}

func TestUpdateRefreshToken_MissingRow(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+user_info\s+SET\s+resh_token`).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.UpdateRefreshToken(context.Background(), 99, nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSwapRefreshToken(t *testing.T) {
	t.Parallel()
	q := `(?s)^UPDATE\s+user_info\s+SET\s+resh_token\s*=\s*\$3,.*WHERE\s+user_no\s*=\s*\$1\s+AND\s+resh_token\s*=\s*\$2\s+RETURNING`

	t.Run("matched", func(t *testing.T) {
		t.Parallel()
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs(int64(7), "old", "next", sqlmock.AnyArg()).WillReturnRows(aliceRow("next"))

		got, err := repo.SwapRefreshToken(context.Background(), 7, "old", "next")
		require.NoError(t, err)
		assert.Equal(t, "next", *got.RefreshToken)
	})

	t.Run("stale", func(t *testing.T) {
		t.Parallel()
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs(int64(7), "old", "next", sqlmock.AnyArg()).WillReturnRows(sqlmock.NewRows(columns))

		_, err := repo.SwapRefreshToken(context.Background(), 7, "old", "next")
		assert.ErrorIs(t, err, common.ErrStaleRefreshToken)
	})
}

func TestUpdatePasswordHash(t *testing.T) {
	t.Parallel()
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+user_info\s+SET\s+encpt_pswd\s*=\s*\$2,\s*last_pswd_chg_dt\s*=\s*\$3,\s*updt_no\s*=\s*\$1,\s*updt_dt\s*=\s*\$3\s+WHERE\s+user_no\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs(int64(7), "$2a$10$other", sqlmock.AnyArg()).WillReturnRows(aliceRow(nil))

	_, err := repo.UpdatePasswordHash(context.Background(), 7, "$2a$10$other")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Not parallel: pins the package clock.
func TestUpdateLastLoginTimestamp_UsesClock(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }
	defer func() { now = orig }()

	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+user_info\s+SET\s+last_lgn_dt\s*=\s*\$2,\s*updt_no\s*=\s*\$1,\s*updt_dt\s*=\s*\$2\s+WHERE\s+user_no\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs(int64(7), "2025-06-01T11:00:00Z").WillReturnRows(aliceRow(nil))

	_, err := repo.UpdateLastLoginTimestamp(context.Background(), 7)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
