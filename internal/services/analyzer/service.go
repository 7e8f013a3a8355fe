// Package analyzer runs the upload pipeline: parse the spreadsheet,
// project prices, build the analysis record, render the chart, persist.
package analyzer

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/bobmcallan/stocklens/internal/analysis"
	"github.com/bobmcallan/stocklens/internal/chart"
	"github.com/bobmcallan/stocklens/internal/common"
	"github.com/bobmcallan/stocklens/internal/ingest"
	"github.com/bobmcallan/stocklens/internal/models"
	"github.com/bobmcallan/stocklens/internal/projection"
	"github.com/bobmcallan/stocklens/internal/storage"
)

// Service executes analyses for authenticated users.
type Service struct {
	store    storage.AnalysisStore
	policy   projection.Policy
	scale    string
	chartDir string
	logger   *common.Logger
	now      func() time.Time
}

// UploadResult reports what one upload produced. Saved is false when an
// earlier analysis for the ticker already existed; the earlier record
// stays authoritative.
type UploadResult struct {
	Analysis  *models.Analysis `json:"analysis"`
	Saved     bool             `json:"saved"`
	ChartPath string           `json:"chart_path,omitempty"`
}

func NewService(store storage.AnalysisStore, policy projection.Policy, scale, chartDir string, logger *common.Logger) *Service {
	return &Service{
		store:    store,
		policy:   policy,
		scale:    scale,
		chartDir: chartDir,
		logger:   logger,
		now:      time.Now,
	}
}

// Analyze runs the full pipeline on an uploaded spreadsheet. policyName
// overrides the configured policy for this upload when non-empty.
func (s *Service) Analyze(ctx context.Context, userID, stockName, ticker, policyName string, spreadsheet io.Reader) (*UploadResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	series, err := ingest.Parse(spreadsheet)
	if err != nil {
		return nil, err
	}

	policy := s.policy
	if policyName != "" {
		policy = projection.ForName(policyName, s.scale)
	}

	res, err := policy.Project(series)
	if err != nil {
		return nil, err
	}

	record := analysis.Build(stockName, ticker, series, res, s.now().UTC())
	result := &UploadResult{Analysis: record}

	// Single-point series are valid for the fixed policy but cannot be
	// charted; skip the illustration rather than failing the upload.
	if len(series) >= 2 {
		path, err := chart.WriteIllustration(s.chartDir, stockName, ticker, series)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("chart render failed, continuing without illustration")
		} else {
			result.ChartPath = path
		}
	} else {
		s.logger.Warn().Str("ticker", ticker).Int("points", len(series)).Msg("series too short to chart")
	}

	err = s.store.Save(ctx, userID, record)
	switch {
	case errors.Is(err, storage.ErrDuplicateTicker):
		s.logger.Info().Str("ticker", ticker).Str("user_id", userID).Msg("duplicate ticker ignored")
		existing, gerr := s.store.Get(ctx, userID, ticker)
		if gerr == nil {
			result.Analysis = existing
		}
		result.Saved = false
		return result, nil
	case err != nil:
		return nil, err
	}

	result.Saved = true
	s.logger.Info().
		Str("ticker", ticker).
		Str("user_id", userID).
		Str("policy", policy.Name()).
		Float64("prediction_today", record.PredictionToday).
		Msg("analysis saved")
	return result, nil
}

// List returns the user's saved analyses.
func (s *Service) List(ctx context.Context, userID string) ([]*models.Analysis, error) {
	return s.store.List(ctx, userID)
}

// Get returns the user's analysis for one ticker.
func (s *Service) Get(ctx context.Context, userID, ticker string) (*models.Analysis, error) {
	return s.store.Get(ctx, userID, ticker)
}

// Latest returns the user's analysis with the most recent trading date.
func (s *Service) Latest(ctx context.Context, userID string) (*models.Analysis, error) {
	return s.store.RetrieveLatest(ctx, userID)
}

// ChartPath returns the on-disk chart location for a ticker.
func (s *Service) ChartPath(ticker string) string {
	return chart.IllustrationPath(s.chartDir, ticker)
}
