package main

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/bobmcallan/stocklens/internal/models"
)

const reportDisclaimer = "Disclaimer: This analysis is not financial advice. Please consult a financial professional before making investment decisions."

// renderReport formats a stored analysis as a shareable report in the
// requested format ("text" or "csv"), with the disclaimer appended.
func renderReport(a *models.Analysis, format string) (string, error) {
	switch strings.ToLower(format) {
	case "text":
		var b strings.Builder
		fmt.Fprintf(&b, "Analysis Report for %s\n\n", a.StockName)
		fmt.Fprintf(&b, "Ticker: %s\n", a.Ticker)
		fmt.Fprintf(&b, "Last Price: $%.2f on %s\n", a.LastPrice, a.LastDate.Format("2006-01-02"))
		fmt.Fprintf(&b, "Prediction Today: $%.2f\n", a.PredictionToday)
		fmt.Fprintf(&b, "30-Day Prediction: $%.2f\n", a.Prediction30)
		fmt.Fprintf(&b, "60-Day Prediction: $%.2f\n", a.Prediction60)
		fmt.Fprintf(&b, "90-Day Prediction: $%.2f\n", a.Prediction90)
		if a.Accuracy != nil {
			fmt.Fprintf(&b, "Prediction Accuracy: %.2f%%\n", *a.Accuracy)
		}
		fmt.Fprintf(&b, "Summary: %s\n", a.Summary)
		return b.String() + "\n" + reportDisclaimer + "\n", nil
	case "csv":
		accuracy := ""
		if a.Accuracy != nil {
			accuracy = fmt.Sprintf("%.2f", *a.Accuracy)
		}
		var b strings.Builder
		w := csv.NewWriter(&b)
		w.Write([]string{
			"stock_name", "ticker", "last_price", "last_date",
			"prediction_today", "prediction_30_days", "prediction_60_days", "prediction_90_days",
			"prediction_accuracy", "summary",
		})
		w.Write([]string{
			a.StockName, a.Ticker,
			fmt.Sprintf("%.2f", a.LastPrice), a.LastDate.Format("2006-01-02"),
			fmt.Sprintf("%.2f", a.PredictionToday),
			fmt.Sprintf("%.2f", a.Prediction30),
			fmt.Sprintf("%.2f", a.Prediction60),
			fmt.Sprintf("%.2f", a.Prediction90),
			accuracy, a.Summary,
		})
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("failed to write csv report: %w", err)
		}
		return b.String() + "\n" + reportDisclaimer + "\n", nil
	default:
		return "", fmt.Errorf("unknown report format %q (use text or csv)", format)
	}
}
