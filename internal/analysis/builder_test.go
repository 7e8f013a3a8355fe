package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/stocklens/internal/models"
	"github.com/bobmcallan/stocklens/internal/projection"
)

func testSeries() models.PriceSeries {
	return models.PriceSeries{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 10},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 11},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: 12},
	}
}

func TestBuildRoundsAndFills(t *testing.T) {
	res := &projection.Result{Today: 12.239999, Days30: 12.6, Days60: 13.2, Days90: 13.8}
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	a := Build("Acme Corp", "ACME", testSeries(), res, now)

	if a.PredictionToday != 12.24 {
		t.Fatalf("today = %v, want 12.24", a.PredictionToday)
	}
	if a.LastPrice != 12 {
		t.Fatalf("last price = %v, want 12", a.LastPrice)
	}
	if !a.LastDate.Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("last date = %v", a.LastDate)
	}
	if !a.UploadedAt.Equal(now) {
		t.Fatalf("uploaded at = %v", a.UploadedAt)
	}
	if a.Accuracy != nil {
		t.Fatal("accuracy should be nil when policy reports none")
	}
}

func TestBuildSummaryTemplate(t *testing.T) {
	res := &projection.Result{Today: 12.24, Days30: 12.6, Days60: 13.2, Days90: 13.8}
	a := Build("Acme Corp", "ACME", testSeries(), res, time.Now())
	for _, want := range []string{
		"The stock Acme Corp (ACME) is currently priced at $12.00.",
		"In 30 days, the price is predicted to reach $12.60.",
		"In 60 days, the price is predicted to reach $13.20.",
		"In 90 days, the price is predicted to reach $13.80.",
		"Based on the current trends, the stock is showing a bullish pattern.",
	} {
		if !strings.Contains(a.Summary, want) {
			t.Fatalf("summary missing %q: %q", want, a.Summary)
		}
	}
}

func TestBuildSummaryDecliningSeriesStillBullish(t *testing.T) {
	res := &projection.Result{Today: 11, Days30: 10, Days60: 9, Days90: 8}
	a := Build("Acme Corp", "ACME", testSeries(), res, time.Now())
	if !strings.Contains(a.Summary, "showing a bullish pattern") {
		t.Fatalf("summary missing fixed bullish claim: %q", a.Summary)
	}
	if strings.Contains(a.Summary, "bearish") {
		t.Fatalf("summary must not vary with trend: %q", a.Summary)
	}
}

func TestBuildSummaryIncludesAccuracy(t *testing.T) {
	acc := 97.5
	res := &projection.Result{Today: 12.24, Days30: 12.6, Days60: 13.2, Days90: 13.8, Accuracy: &acc}
	a := Build("Acme Corp", "ACME", testSeries(), res, time.Now())
	if !strings.Contains(a.Summary, "The prediction accuracy is estimated to be 97.50%.") {
		t.Fatalf("summary missing accuracy sentence: %q", a.Summary)
	}
}

func TestBuildClampsAccuracy(t *testing.T) {
	bad := -12.5
	res := &projection.Result{Today: 12, Days30: 12, Days60: 12, Days90: 12, Accuracy: &bad}
	a := Build("Acme Corp", "ACME", testSeries(), res, time.Now())
	if a.Accuracy == nil || *a.Accuracy != 0 {
		t.Fatalf("accuracy = %v, want clamped to 0", a.Accuracy)
	}

	high := 104.2
	res.Accuracy = &high
	a = Build("Acme Corp", "ACME", testSeries(), res, time.Now())
	if *a.Accuracy != 100 {
		t.Fatalf("accuracy = %v, want clamped to 100", *a.Accuracy)
	}
}

func TestHorizonPredictions(t *testing.T) {
	res := &projection.Result{Today: 12.24, Days30: 12.6, Days60: 13.2, Days90: 13.8}
	a := Build("Acme Corp", "ACME", testSeries(), res, time.Now())
	h := a.HorizonPredictions()
	if h[30] != 12.6 || h[60] != 13.2 || h[90] != 13.8 {
		t.Fatalf("unexpected horizons: %v", h)
	}
}
