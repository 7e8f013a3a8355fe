package models

import (
	"testing"
	"time"
)

func TestPriceSeriesAccessors(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := PriceSeries{
		{Date: start, Close: 10},
		{Date: start.AddDate(0, 0, 1), Close: 11},
		{Date: start.AddDate(0, 0, 2), Close: 12},
	}

	if s.First().Close != 10 {
		t.Fatalf("First().Close = %v, want 10", s.First().Close)
	}
	if s.Last().Close != 12 {
		t.Fatalf("Last().Close = %v, want 12", s.Last().Close)
	}
	closes := s.Closes()
	if len(closes) != 3 || closes[1] != 11 {
		t.Fatalf("Closes() = %v", closes)
	}
}
