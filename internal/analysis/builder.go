// Package analysis assembles projection results into a stored analysis
// record with a human-readable summary.
package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/bobmcallan/stocklens/internal/models"
	"github.com/bobmcallan/stocklens/internal/projection"
)

// Build combines a parsed series and projection result into an Analysis.
// All monetary figures are rounded to cents; accuracy is clamped to
// [0,100] for display.
func Build(stockName, ticker string, series models.PriceSeries, res *projection.Result, now time.Time) *models.Analysis {
	last := series.Last()

	a := &models.Analysis{
		StockName:       stockName,
		Ticker:          ticker,
		LastPrice:       round2(last.Close),
		LastDate:        last.Date,
		PredictionToday: round2(res.Today),
		Prediction30:    round2(res.Days30),
		Prediction60:    round2(res.Days60),
		Prediction90:    round2(res.Days90),
		Series:          series,
		UploadedAt:      now,
	}
	if res.Accuracy != nil {
		clamped := clamp(*res.Accuracy, 0, 100)
		clamped = round2(clamped)
		a.Accuracy = &clamped
	}
	a.Summary = summarize(a)
	return a
}

func summarize(a *models.Analysis) string {
	s := fmt.Sprintf(
		"The stock %s (%s) is currently priced at $%.2f. "+
			"In 30 days, the price is predicted to reach $%.2f. "+
			"In 60 days, the price is predicted to reach $%.2f. "+
			"In 90 days, the price is predicted to reach $%.2f.",
		a.StockName, a.Ticker, a.LastPrice,
		a.Prediction30, a.Prediction60, a.Prediction90,
	)
	if a.Accuracy != nil {
		s += fmt.Sprintf(" The prediction accuracy is estimated to be %.2f%%.", *a.Accuracy)
	}
	s += " Based on the current trends, the stock is showing a bullish pattern."
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
