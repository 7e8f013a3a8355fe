// Package chart renders price-history illustrations as PNG images.
package chart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stocklens/internal/models"
)

// RenderIllustration renders a PNG line chart of the close-price series.
// Returns raw PNG bytes.
func RenderIllustration(stockName, ticker string, series models.PriceSeries) ([]byte, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(series))
	}

	xValues := make([]time.Time, len(series))
	yValues := make([]float64, len(series))
	for i, p := range series {
		xValues[i] = p.Date
		yValues[i] = p.Close
	}

	closeSeries := chart.TimeSeries{
		Name: fmt.Sprintf("%s Close", ticker),
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s (%s) Price History", stockName, ticker),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			closeSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// IllustrationPath returns the on-disk path for a ticker's chart image.
// The ticker is uppercased and stripped of path separators before use.
func IllustrationPath(dir, ticker string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_illustration.png", sanitizeTicker(ticker)))
}

// WriteIllustration renders the chart and writes it under dir, creating
// the directory if needed. Returns the written path.
func WriteIllustration(dir, stockName, ticker string, series models.PriceSeries) (string, error) {
	png, err := RenderIllustration(stockName, ticker, series)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}
	path := IllustrationPath(dir, ticker)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write chart: %w", err)
	}
	return path, nil
}

func sanitizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	t = strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-':
			return r
		}
		return -1
	}, t)
	return t
}
