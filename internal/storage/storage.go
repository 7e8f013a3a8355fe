// Package storage defines the persistence interfaces and shared errors
// for user accounts and saved analyses.
package storage

import (
	"context"
	"errors"

	"github.com/bobmcallan/stocklens/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTicker is returned when a user already holds an
	// analysis for the ticker. The existing record is kept untouched.
	ErrDuplicateTicker = errors.New("ticker already analyzed")
)

// UserStore persists user accounts.
type UserStore interface {
	SaveUser(ctx context.Context, user *models.UserAccount) error
	GetUser(ctx context.Context, email string) (*models.UserAccount, error)
}

// AnalysisStore persists per-user analyses. Save is first-write-wins:
// a second analysis for the same (user, ticker) returns
// ErrDuplicateTicker and leaves the original untouched.
type AnalysisStore interface {
	Save(ctx context.Context, userID string, a *models.Analysis) error
	List(ctx context.Context, userID string) ([]*models.Analysis, error)
	RetrieveLatest(ctx context.Context, userID string) (*models.Analysis, error)
	Get(ctx context.Context, userID, ticker string) (*models.Analysis, error)
	Close() error
}
