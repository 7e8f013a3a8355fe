// Package memory provides in-process stores used by default and in tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/bobmcallan/stocklens/internal/models"
	"github.com/bobmcallan/stocklens/internal/storage"
)

// UserStore is a mutex-guarded in-memory account store keyed by email.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*models.UserAccount
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*models.UserAccount)}
}

func (s *UserStore) SaveUser(_ context.Context, user *models.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(user.Email)] = user
	return nil
}

func (s *UserStore) GetUser(_ context.Context, email string) (*models.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return user, nil
}

// AnalysisStore keeps analyses per user in insertion order.
type AnalysisStore struct {
	mu       sync.RWMutex
	byUser   map[string][]*models.Analysis
	byTicker map[string]map[string]*models.Analysis
}

func NewAnalysisStore() *AnalysisStore {
	return &AnalysisStore{
		byUser:   make(map[string][]*models.Analysis),
		byTicker: make(map[string]map[string]*models.Analysis),
	}
}

func (s *AnalysisStore) Save(_ context.Context, userID string, a *models.Analysis) error {
	ticker := strings.ToUpper(a.Ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	tickers, ok := s.byTicker[userID]
	if !ok {
		tickers = make(map[string]*models.Analysis)
		s.byTicker[userID] = tickers
	}
	if _, exists := tickers[ticker]; exists {
		return storage.ErrDuplicateTicker
	}
	tickers[ticker] = a
	s.byUser[userID] = append(s.byUser[userID], a)
	return nil
}

func (s *AnalysisStore) List(_ context.Context, userID string) ([]*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.byUser[userID]
	out := make([]*models.Analysis, len(list))
	copy(out, list)
	return out, nil
}

func (s *AnalysisStore) RetrieveLatest(_ context.Context, userID string) (*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Analysis
	for _, a := range s.byUser[userID] {
		if latest == nil || a.LastDate.After(latest.LastDate) {
			latest = a
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return latest, nil
}

func (s *AnalysisStore) Get(_ context.Context, userID, ticker string) (*models.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byTicker[userID][strings.ToUpper(ticker)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return a, nil
}

func (s *AnalysisStore) Close() error { return nil }
