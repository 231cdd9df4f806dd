package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/api"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func getSession(t *testing.T, db *sql.DB, key string) string {
	t.Helper()
	v, _, err := session.NewSQLiteRepository(db).Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func putSession(t *testing.T, db *sql.DB, kv map[string]string) {
	t.Helper()
	repo := session.NewSQLiteRepository(db)
	for k, v := range kv {
		require.NoError(t, repo.Set(context.Background(), k, v))
	}
}

// ---- fake client ----

type fakeClient struct {
	access, refresh string

	account *api.Account
	err     error

	// rotate simulates a transparent refresh during a protected call.
	rotate bool

	lastEmail, lastName, lastPassword, lastRole string
	lastCurrent                                 string
	closed                                      bool
}

func (f *fakeClient) Close() error                     { f.closed = true; return nil }
func (f *fakeClient) Tokens() (string, string)         { return f.access, f.refresh }
func (f *fakeClient) SetTokens(access, refresh string) { f.access, f.refresh = access, refresh }
func (f *fakeClient) Ping(context.Context) error       { return f.err }

func (f *fakeClient) SignUp(_ context.Context, email, name, password, role string) (*api.Account, error) {
	f.lastEmail, f.lastName, f.lastPassword, f.lastRole = email, name, password, role
	if f.err != nil {
		return nil, f.err
	}
	f.SetTokens("A1", "R1")
	return f.account, nil
}

func (f *fakeClient) SignIn(_ context.Context, email, password string) (*api.Account, error) {
	f.lastEmail, f.lastPassword = email, password
	if f.err != nil {
		return nil, f.err
	}
	f.SetTokens("A1", "R1")
	return f.account, nil
}

func (f *fakeClient) Refresh(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.SetTokens(f.access+"'", f.refresh+"'")
	return nil
}

func (f *fakeClient) protected() (*api.Account, error) {
	if f.rotate {
		f.SetTokens("A2", "R2")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.account, nil
}

func (f *fakeClient) GetSession(context.Context) (*api.Account, error) { return f.protected() }

func (f *fakeClient) ChangePassword(_ context.Context, current, next string) (*api.Account, error) {
	f.lastCurrent, f.lastPassword = current, next
	return f.protected()
}

func (f *fakeClient) ResetPassword(_ context.Context, email, next string) (*api.Account, error) {
	f.lastEmail, f.lastPassword = email, next
	if f.err != nil {
		return nil, f.err
	}
	return f.account, nil
}

var ann = &api.Account{No: 1, Email: "ann@example.com", Name: "ann"}

// ---- TESTS ----

func TestSignUp_PersistsSession(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{account: ann}
	svc := NewAuthService(fc, db)

	acc, err := svc.SignUp(context.Background(), "ann@example.com", "ann", []byte("secret123"), "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, ann, acc)
	assert.Equal(t, "secret123", fc.lastPassword)
	assert.Equal(t, "ADMIN", fc.lastRole)

	assert.Equal(t, "A1", getSession(t, db, session.KeyAccessToken))
	assert.Equal(t, "R1", getSession(t, db, session.KeyRefreshToken))
	assert.Equal(t, "ann@example.com", getSession(t, db, session.KeyEmail))
}

func TestSignIn_ErrorLeavesSessionUntouched(t *testing.T) {
	db := setupDB(t)
	putSession(t, db, map[string]string{session.KeyAccessToken: "old", session.KeyRefreshToken: "oldR"})

	fc := &fakeClient{err: client.ErrUnauthorized}
	svc := NewAuthService(fc, db)

	_, err := svc.SignIn(context.Background(), "ann@example.com", []byte("bad"))
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, "old", getSession(t, db, session.KeyAccessToken))
}

func TestSignIn_PersistsSession(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{account: ann}
	svc := NewAuthService(fc, db)

	_, err := svc.SignIn(context.Background(), "ann@example.com", []byte("secret123"))
	require.NoError(t, err)
	assert.Equal(t, "R1", getSession(t, db, session.KeyRefreshToken))
}

func TestRefresh(t *testing.T) {
	t.Run("no session", func(t *testing.T) {
		svc := NewAuthService(&fakeClient{}, setupDB(t))
		require.ErrorIs(t, svc.Refresh(context.Background()), client.ErrNoSession)
	})

	t.Run("rotates and persists", func(t *testing.T) {
		db := setupDB(t)
		putSession(t, db, map[string]string{session.KeyAccessToken: "A", session.KeyRefreshToken: "R"})
		svc := NewAuthService(&fakeClient{}, db)

		require.NoError(t, svc.Refresh(context.Background()))
		assert.Equal(t, "A'", getSession(t, db, session.KeyAccessToken))
		assert.Equal(t, "R'", getSession(t, db, session.KeyRefreshToken))
	})

	t.Run("server rejects", func(t *testing.T) {
		db := setupDB(t)
		putSession(t, db, map[string]string{session.KeyRefreshToken: "R"})
		svc := NewAuthService(&fakeClient{err: client.ErrUnauthorized}, db)

		require.ErrorIs(t, svc.Refresh(context.Background()), client.ErrUnauthorized)
		assert.Equal(t, "R", getSession(t, db, session.KeyRefreshToken))
	})
}

func TestMe_RestoresAndPersistsRotation(t *testing.T) {
	db := setupDB(t)
	putSession(t, db, map[string]string{session.KeyAccessToken: "A1", session.KeyRefreshToken: "R1"})

	fc := &fakeClient{account: ann, rotate: true}
	svc := NewAuthService(fc, db)

	acc, err := svc.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ann, acc)
	assert.Equal(t, "A2", getSession(t, db, session.KeyAccessToken))
	assert.Equal(t, "R2", getSession(t, db, session.KeyRefreshToken))
}

func TestMe_NoSession(t *testing.T) {
	svc := NewAuthService(&fakeClient{}, setupDB(t))

	_, err := svc.Me(context.Background())
	require.ErrorIs(t, err, client.ErrNoSession)
}

func TestChangePassword(t *testing.T) {
	db := setupDB(t)
	putSession(t, db, map[string]string{session.KeyAccessToken: "A1", session.KeyRefreshToken: "R1"})

	fc := &fakeClient{account: ann}
	svc := NewAuthService(fc, db)

	_, err := svc.ChangePassword(context.Background(), []byte("old12345"), []byte("new12345"))
	require.NoError(t, err)
	assert.Equal(t, "old12345", fc.lastCurrent)
	assert.Equal(t, "new12345", fc.lastPassword)
	assert.Equal(t, "A1", getSession(t, db, session.KeyAccessToken))
}

func TestChangePassword_ErrorStillPersistsRotation(t *testing.T) {
	db := setupDB(t)
	putSession(t, db, map[string]string{session.KeyAccessToken: "A1", session.KeyRefreshToken: "R1"})

	wrong := &client.RemoteError{Message: "current password is incorrect"}
	fc := &fakeClient{err: wrong, rotate: true}
	svc := NewAuthService(fc, db)

	_, err := svc.ChangePassword(context.Background(), []byte("bad"), []byte("new12345"))
	require.ErrorIs(t, err, wrong)
	assert.Equal(t, "R2", getSession(t, db, session.KeyRefreshToken))
}

func TestResetPassword_NeedsNoSession(t *testing.T) {
	fc := &fakeClient{account: ann}
	svc := NewAuthService(fc, setupDB(t))

	acc, err := svc.ResetPassword(context.Background(), "ann@example.com", []byte("new12345"))
	require.NoError(t, err)
	assert.Equal(t, ann, acc)
	assert.Equal(t, "ann@example.com", fc.lastEmail)
}

func TestSignOut_ClearsSession(t *testing.T) {
	db := setupDB(t)
	putSession(t, db, map[string]string{session.KeyAccessToken: "A1", session.KeyEmail: "ann@example.com"})

	fc := &fakeClient{access: "A1", refresh: "R1"}
	svc := NewAuthService(fc, db)

	require.NoError(t, svc.SignOut(context.Background()))
	assert.Empty(t, getSession(t, db, session.KeyAccessToken))
	assert.Empty(t, getSession(t, db, session.KeyEmail))
	access, refresh := fc.Tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestPingAndClose(t *testing.T) {
	down := errors.New("down")
	fc := &fakeClient{err: down}
	db := setupDB(t)
	svc := NewAuthService(fc, db)

	require.ErrorIs(t, svc.Ping(context.Background()), down)
	require.NoError(t, svc.Close(context.Background()))
	assert.True(t, fc.closed)
	assert.Error(t, db.PingContext(context.Background()))
}
