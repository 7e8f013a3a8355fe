package main

import (
	"fmt"
	"regexp"
	"strings"
)

// quotesFilenameRe matches "<Stock Name> (<TICKER>) Historical Quotes.csv".
var quotesFilenameRe = regexp.MustCompile(`^(.+) \(([A-Za-z0-9.\-]+)\) Historical Quotes\.csv$`)

// parseQuotesFilename extracts the stock name and ticker from an export
// filename of the standard form.
func parseQuotesFilename(filename string) (name, ticker string, err error) {
	m := quotesFilenameRe.FindStringSubmatch(filename)
	if m == nil {
		return "", "", fmt.Errorf("filename %q does not match \"<Stock Name> (<TICKER>) Historical Quotes.csv\"", filename)
	}
	return strings.TrimSpace(m[1]), strings.ToUpper(m[2]), nil
}
