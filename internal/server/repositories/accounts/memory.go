package accounts

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// MemoryRepository is an in-process Repository guarded by a mutex.
// It enforces the same uniqueness and compare-and-swap rules as the
// Postgres store. Callers always receive copies.
type MemoryRepository struct {
	mu     sync.Mutex
	nextNo int64
	rows   map[int64]*models.Account
}

// NewMemoryRepository returns an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: make(map[int64]*models.Account)}
}

func (r *MemoryRepository) find(match func(*models.Account) bool) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if match(a) {
			c := *a
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Email == email })
}

func (r *MemoryRepository) FindByName(_ context.Context, name string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Name == name })
}

func (r *MemoryRepository) FindByNo(_ context.Context, no int64) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.No == no })
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Email is checked across every row before name, so a request clashing
	// on both always reports the email.
	for _, a := range r.rows {
		if a.Email == account.Email {
			return nil, &ConstraintError{Field: FieldEmail}
		}
	}
	for _, a := range r.rows {
		if a.Name == account.Name {
			return nil, &ConstraintError{Field: FieldName}
		}
	}

	r.nextNo++
	ts := models.Timestamp(now())
	row := &models.Account{
		No:           r.nextNo,
		Email:        account.Email,
		Name:         account.Name,
		PasswordHash: account.PasswordHash,
		Role:         account.Role,
		UseYn:        account.UseYn,
		DelYn:        account.DelYn,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if row.Role == "" {
		row.Role = models.RoleUser
	}
	if row.UseYn == "" {
		row.UseYn = models.Yes
	}
	if row.DelYn == "" {
		row.DelYn = models.No
	}
	r.rows[row.No] = row

	c := *row
	return &c, nil
}

// update applies fn to the row under the lock and stamps the audit columns.
// fn returning an error leaves the row untouched.
func (r *MemoryRepository) update(no int64, fn func(a *models.Account, ts string) error) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rows[no]
	if !ok {
		return nil, common.ErrorNotFound
	}
	ts := models.Timestamp(now())
	if err := fn(row, ts); err != nil {
		return nil, err
	}
	by := row.No
	row.UpdatedBy = &by
	row.UpdatedAt = ts

	c := *row
	return &c, nil
}

func (r *MemoryRepository) UpdateRefreshToken(_ context.Context, no int64, token *string) (*models.Account, error) {
	return r.update(no, func(a *models.Account, _ string) error {
		a.RefreshToken = cloneString(token)
		return nil
	})
}

func (r *MemoryRepository) SwapRefreshToken(_ context.Context, no int64, expected, next string) (*models.Account, error) {
	a, err := r.update(no, func(a *models.Account, _ string) error {
		if a.RefreshToken == nil || *a.RefreshToken != expected {
			return common.ErrStaleRefreshToken
		}
		a.RefreshToken = &next
		return nil
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrStaleRefreshToken
	}
	return a, err
}

func (r *MemoryRepository) UpdatePasswordHash(_ context.Context, no int64, hash string) (*models.Account, error) {
	return r.update(no, func(a *models.Account, ts string) error {
		a.PasswordHash = hash
		a.LastPasswordChangeAt = &ts
		return nil
	})
}

func (r *MemoryRepository) UpdateLastLoginTimestamp(_ context.Context, no int64) (*models.Account, error) {
	return r.update(no, func(a *models.Account, ts string) error {
		a.LastLoginAt = &ts
		return nil
	})
}

// SetFlags overwrites the lifecycle flags of an account. Operators flip
// these outside the session flow; the store contract has no such write.
func (r *MemoryRepository) SetFlags(no int64, useYn, delYn models.YN) error {
	_, err := r.update(no, func(a *models.Account, _ string) error {
		a.UseYn = useYn
		a.DelYn = delYn
		return nil
	})
	return err
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
