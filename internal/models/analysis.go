package models

import "time"

// Analysis is the stored result of one spreadsheet upload.
// Owned by exactly one user; unique per ticker within that owner.
type Analysis struct {
	StockName       string    `json:"stock_name"`
	Ticker          string    `json:"ticker"`
	LastPrice       float64   `json:"last_price"`
	LastDate        time.Time `json:"last_date"`
	PredictionToday float64   `json:"prediction_today"`
	Prediction30    float64   `json:"prediction_30_days"`
	Prediction60    float64   `json:"prediction_60_days"`
	Prediction90    float64   `json:"prediction_90_days"`
	Summary         string    `json:"summary"`
	// Accuracy is the linear-fit goodness score in [0,100];
	// nil for policies that do not report one.
	Accuracy   *float64    `json:"prediction_accuracy,omitempty"`
	Series     PriceSeries `json:"series,omitempty"`
	UploadedAt time.Time   `json:"uploaded_at"`
}

// HorizonPredictions returns the horizon-in-days to predicted-price mapping.
func (a *Analysis) HorizonPredictions() map[int]float64 {
	return map[int]float64{
		30: a.Prediction30,
		60: a.Prediction60,
		90: a.Prediction90,
	}
}
