package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/stocklens/internal/models"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func testSeries(n int) models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var s models.PriceSeries
	for i := 0; i < n; i++ {
		s = append(s, models.PricePoint{Date: start.AddDate(0, 0, i), Close: 10 + float64(i)})
	}
	return s
}

func TestRenderIllustrationProducesPNG(t *testing.T) {
	png, err := RenderIllustration("Acme Corp", "ACME", testSeries(5))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}

func TestRenderIllustrationTooFewPoints(t *testing.T) {
	if _, err := RenderIllustration("Acme Corp", "ACME", testSeries(1)); err == nil {
		t.Fatal("expected error for single-point series")
	}
}

func TestIllustrationPath(t *testing.T) {
	got := IllustrationPath("data/charts", "acme")
	want := filepath.Join("data/charts", "ACME_illustration.png")
	if got != want {
		t.Fatalf("path = %s, want %s", got, want)
	}
}

func TestIllustrationPathSanitizes(t *testing.T) {
	got := IllustrationPath("charts", "brk/../b ")
	want := filepath.Join("charts", "BRK..B_illustration.png")
	if got != want {
		t.Fatalf("path = %s, want %s", got, want)
	}
}

func TestWriteIllustration(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteIllustration(filepath.Join(dir, "charts"), "Acme Corp", "ACME", testSeries(3))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatal("written file is not a PNG")
	}
}
