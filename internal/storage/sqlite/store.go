// Package sqlite implements the persistence interfaces on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bobmcallan/stocklens/internal/models"
	"github.com/bobmcallan/stocklens/internal/storage"
)

// Store implements storage.UserStore and storage.AnalysisStore on a
// single SQLite database file.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and ensures the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		modified_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS charts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		ticker TEXT NOT NULL,
		stock_name TEXT NOT NULL,
		last_price REAL NOT NULL,
		last_date DATETIME NOT NULL,
		prediction_today REAL NOT NULL,
		prediction_30 REAL NOT NULL,
		prediction_60 REAL NOT NULL,
		prediction_90 REAL NOT NULL,
		summary TEXT,
		prediction_accuracy REAL,
		chart_data TEXT,
		uploaded_at DATETIME NOT NULL,
		UNIQUE(user_id, ticker)
	);

	CREATE TABLE IF NOT EXISTS admin_management (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_charts_user ON charts(user_id);
	CREATE INDEX IF NOT EXISTS idx_charts_last_date ON charts(last_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveUser inserts or updates an account keyed by user_id.
func (s *Store) SaveUser(ctx context.Context, user *models.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, email, password_hash, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email = excluded.email,
			password_hash = excluded.password_hash,
			modified_at = excluded.modified_at
	`, user.UserID, strings.ToLower(user.Email), user.PasswordHash, user.CreatedAt, user.ModifiedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// GetUser looks an account up by email.
func (s *Store) GetUser(ctx context.Context, email string) (*models.UserAccount, error) {
	var user models.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, created_at, modified_at
		FROM users WHERE email = ?
	`, strings.ToLower(email)).Scan(&user.UserID, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Save inserts an analysis. A second analysis for the same (user, ticker)
// returns storage.ErrDuplicateTicker and leaves the original row alone.
func (s *Store) Save(ctx context.Context, userID string, a *models.Analysis) error {
	series, err := json.Marshal(a.Series)
	if err != nil {
		return fmt.Errorf("failed to encode series: %w", err)
	}

	var accuracy interface{}
	if a.Accuracy != nil {
		accuracy = *a.Accuracy
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO charts
			(user_id, ticker, stock_name, last_price, last_date,
			 prediction_today, prediction_30, prediction_60, prediction_90,
			 summary, prediction_accuracy, chart_data, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, strings.ToUpper(a.Ticker), a.StockName, a.LastPrice, a.LastDate,
		a.PredictionToday, a.Prediction30, a.Prediction60, a.Prediction90,
		a.Summary, accuracy, string(series), a.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	rows, _ := res.RowsAffected()
	if rows == 0 {
		return storage.ErrDuplicateTicker
	}
	return nil
}

// List returns a user's analyses in insertion order.
func (s *Store) List(ctx context.Context, userID string) ([]*models.Analysis, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stock_name, ticker, last_price, last_date,
		       prediction_today, prediction_30, prediction_60, prediction_90,
		       summary, prediction_accuracy, chart_data, uploaded_at
		FROM charts WHERE user_id = ? ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// RetrieveLatest returns the analysis with the most recent last trading
// date for the user.
func (s *Store) RetrieveLatest(ctx context.Context, userID string) (*models.Analysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT stock_name, ticker, last_price, last_date,
		       prediction_today, prediction_30, prediction_60, prediction_90,
		       summary, prediction_accuracy, chart_data, uploaded_at
		FROM charts WHERE user_id = ? ORDER BY last_date DESC LIMIT 1
	`, userID)
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns a user's analysis for one ticker.
func (s *Store) Get(ctx context.Context, userID, ticker string) (*models.Analysis, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT stock_name, ticker, last_price, last_date,
		       prediction_today, prediction_30, prediction_60, prediction_90,
		       summary, prediction_accuracy, chart_data, uploaded_at
		FROM charts WHERE user_id = ? AND ticker = ?
	`, userID, strings.ToUpper(ticker))
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*models.Analysis, error) {
	var a models.Analysis
	var summary sql.NullString
	var accuracy sql.NullFloat64
	var seriesJSON sql.NullString

	err := row.Scan(&a.StockName, &a.Ticker, &a.LastPrice, &a.LastDate,
		&a.PredictionToday, &a.Prediction30, &a.Prediction60, &a.Prediction90,
		&summary, &accuracy, &seriesJSON, &a.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	a.Summary = summary.String
	if accuracy.Valid {
		v := accuracy.Float64
		a.Accuracy = &v
	}
	if seriesJSON.Valid && seriesJSON.String != "" {
		if err := json.Unmarshal([]byte(seriesJSON.String), &a.Series); err != nil {
			return nil, fmt.Errorf("failed to decode series: %w", err)
		}
	}
	return &a, nil
}
