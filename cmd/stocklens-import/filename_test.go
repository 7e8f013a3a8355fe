package main

import "testing"

func TestParseQuotesFilename(t *testing.T) {
	cases := []struct {
		in         string
		wantName   string
		wantTicker string
	}{
		{"Acme Corp (ACME) Historical Quotes.csv", "Acme Corp", "ACME"},
		{"Berkshire Hathaway (brk.b) Historical Quotes.csv", "Berkshire Hathaway", "BRK.B"},
		{"Some Long Company Name Inc (SLCN) Historical Quotes.csv", "Some Long Company Name Inc", "SLCN"},
	}
	for _, tc := range cases {
		name, ticker, err := parseQuotesFilename(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if name != tc.wantName || ticker != tc.wantTicker {
			t.Fatalf("parse %q = (%q, %q), want (%q, %q)", tc.in, name, ticker, tc.wantName, tc.wantTicker)
		}
	}
}

func TestParseQuotesFilenameRejects(t *testing.T) {
	for _, in := range []string{
		"quotes.csv",
		"Acme Corp Historical Quotes.csv",
		"Acme Corp (ACME) Quotes.csv",
	} {
		if _, _, err := parseQuotesFilename(in); err == nil {
			t.Fatalf("parse %q should fail", in)
		}
	}
}
