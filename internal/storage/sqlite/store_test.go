package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/stocklens/internal/models"
	"github.com/bobmcallan/stocklens/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	user := &models.UserAccount{
		UserID:       "u1",
		Email:        "Alice@Example.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		ModifiedAt:   now,
	}
	if err := s.SaveUser(ctx, user); err != nil {
		t.Fatalf("save user failed: %v", err)
	}

	got, err := s.GetUser(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if got.UserID != "u1" || got.PasswordHash != "$2a$10$hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetUser(context.Background(), "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func sampleAnalysis(ticker string, lastDate time.Time) *models.Analysis {
	acc := 97.5
	return &models.Analysis{
		StockName:       ticker + " Corp",
		Ticker:          ticker,
		LastPrice:       12,
		LastDate:        lastDate,
		PredictionToday: 12.24,
		Prediction30:    12.6,
		Prediction60:    13.2,
		Prediction90:    13.8,
		Summary:         "summary",
		Accuracy:        &acc,
		Series: models.PriceSeries{
			{Date: lastDate.AddDate(0, 0, -1), Close: 11},
			{Date: lastDate, Close: 12},
		},
		UploadedAt: lastDate.Add(time.Hour),
	}
}

func TestAnalysisRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, "u1", sampleAnalysis("ACME", day)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := s.Get(ctx, "u1", "acme")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.StockName != "ACME Corp" || got.PredictionToday != 12.24 {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if got.Accuracy == nil || *got.Accuracy != 97.5 {
		t.Fatalf("accuracy = %v, want 97.5", got.Accuracy)
	}
	if len(got.Series) != 2 || got.Series[1].Close != 12 {
		t.Fatalf("series did not round-trip: %+v", got.Series)
	}
}

func TestSaveDuplicateTicker(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	if err := s.Save(ctx, "u1", sampleAnalysis("ACME", day)); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	dup := sampleAnalysis("ACME", day.AddDate(0, 0, 5))
	dup.LastPrice = 99
	if err := s.Save(ctx, "u1", dup); !errors.Is(err, storage.ErrDuplicateTicker) {
		t.Fatalf("expected ErrDuplicateTicker, got %v", err)
	}

	got, err := s.Get(ctx, "u1", "ACME")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.LastPrice != 12 {
		t.Fatalf("original record was replaced: price = %v", got.LastPrice)
	}

	// same ticker for a different user is fine
	if err := s.Save(ctx, "u2", sampleAnalysis("ACME", day)); err != nil {
		t.Fatalf("save for second user failed: %v", err)
	}
}

func TestListInsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, ticker := range []string{"CCC", "AAA", "BBB"} {
		if err := s.Save(ctx, "u1", sampleAnalysis(ticker, day.AddDate(0, 0, i))); err != nil {
			t.Fatalf("save %s failed: %v", ticker, err)
		}
	}

	list, err := s.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for i, want := range []string{"CCC", "AAA", "BBB"} {
		if list[i].Ticker != want {
			t.Fatalf("list[%d] = %s, want %s", i, list[i].Ticker, want)
		}
	}
}

func TestRetrieveLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := s.RetrieveLatest(ctx, "u1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	s.Save(ctx, "u1", sampleAnalysis("OLD", day))
	s.Save(ctx, "u1", sampleAnalysis("NEW", day.AddDate(0, 2, 0)))
	s.Save(ctx, "u1", sampleAnalysis("MID", day.AddDate(0, 1, 0)))

	latest, err := s.RetrieveLatest(ctx, "u1")
	if err != nil {
		t.Fatalf("retrieve latest failed: %v", err)
	}
	if latest.Ticker != "NEW" {
		t.Fatalf("latest = %s, want NEW", latest.Ticker)
	}
}
