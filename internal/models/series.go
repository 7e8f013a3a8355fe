package models

import "time"

// PricePoint is one observed closing price.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is a chronological sequence of closing prices.
// Ingestion guarantees it is non-empty and sorted ascending by date
// (ties keep original file order).
type PriceSeries []PricePoint

// Last returns the most recent observation. Callers must not invoke
// Last on an empty series.
func (s PriceSeries) Last() PricePoint {
	return s[len(s)-1]
}

// First returns the earliest observation.
func (s PriceSeries) First() PricePoint {
	return s[0]
}

// Closes returns the closing prices in series order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Close
	}
	return out
}
