// Package ingest parses uploaded historical-quote spreadsheets into a
// normalized price series.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/stocklens/internal/models"
)

// MalformedInputError reports a row or cell that could not be interpreted.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input in %s: %s", e.Field, e.Reason)
}

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// CleanPrice converts a currency-formatted cell into a float.
// Leading/trailing whitespace, a dollar sign and thousands commas are
// stripped before conversion.
func CleanPrice(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, &MalformedInputError{Field: "price", Reason: "empty value"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &MalformedInputError{Field: "price", Reason: fmt.Sprintf("not a number: %q", raw)}
	}
	return v, nil
}

// Parse reads a CSV of historical quotes and returns the series sorted by
// date ascending. The header must contain a Date column and one of
// "Close/Last" or "Close"; when both appear, "Close/Last" wins.
func Parse(r io.Reader) (models.PriceSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &MalformedInputError{Field: "file", Reason: "empty file"}
	}
	if err != nil {
		return nil, &MalformedInputError{Field: "header", Reason: err.Error()}
	}

	dateIdx, closeIdx, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var series models.PriceSeries
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &MalformedInputError{Field: "row", Reason: err.Error()}
		}
		if dateIdx >= len(record) || closeIdx >= len(record) {
			return nil, &MalformedInputError{Field: "row", Reason: "missing columns"}
		}

		date, err := parseDate(record[dateIdx])
		if err != nil {
			return nil, err
		}
		price, err := CleanPrice(record[closeIdx])
		if err != nil {
			return nil, err
		}
		if price < 0 {
			return nil, &MalformedInputError{Field: "price", Reason: fmt.Sprintf("negative price %v", price)}
		}
		series = append(series, models.PricePoint{Date: date, Close: price})
	}

	if len(series) == 0 {
		return nil, &MalformedInputError{Field: "file", Reason: "no data rows"}
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series, nil
}

func locateColumns(header []string) (dateIdx, closeIdx int, err error) {
	dateIdx, closeIdx = -1, -1
	closeFallback := -1
	for i, col := range header {
		name := strings.TrimSpace(col)
		switch {
		case strings.EqualFold(name, "Date"):
			dateIdx = i
		case strings.EqualFold(name, "Close/Last"):
			closeIdx = i
		case strings.EqualFold(name, "Close"):
			closeFallback = i
		}
	}
	if closeIdx == -1 {
		closeIdx = closeFallback
	}
	if dateIdx == -1 {
		return 0, 0, &MalformedInputError{Field: "header", Reason: "missing Date column"}
	}
	if closeIdx == -1 {
		return 0, 0, &MalformedInputError{Field: "header", Reason: "missing Close/Last or Close column"}
	}
	return dateIdx, closeIdx, nil
}

func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &MalformedInputError{Field: "date", Reason: fmt.Sprintf("unrecognized date %q", raw)}
}
