package engine

// csv.go implements the statement tokenizer.
//
// Bank exports in the wild are not RFC 4180: stray quotes, unterminated
// spans, and mixed line endings all show up. The tokenizer therefore uses
// the same forgiving rules the upstream feeds were validated against: a
// double quote toggles quoted state, a comma outside quotes is a separator,
// and everything else is passed through untouched.

import (
	"errors"
	"strings"
)

// ErrInsufficientRows is returned when a statement has no data rows
// (fewer than two non-empty lines including the header).
var ErrInsufficientRows = errors.New("CSV file must contain at least a header row and one data row")

// HeaderIndex maps lowercased column names to their position in the header.
type HeaderIndex map[string]int

// SplitLines splits raw statement text into trimmed, non-empty lines.
func SplitLines(content string) []string {
	raw := strings.Split(content, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// SplitFields splits a single CSV line into fields. A double quote toggles
// the in-quotes state; commas inside quotes are not separators. Quote
// characters themselves are not retained.
func SplitFields(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// MakeHeaderIndex builds a case-insensitive column index from a header row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

// Tokenize splits statement text into a header index and data lines.
// It fails with ErrInsufficientRows when no data rows are present.
func Tokenize(content string) (HeaderIndex, []string, error) {
	lines := SplitLines(content)
	if len(lines) < 2 {
		return nil, nil, ErrInsufficientRows
	}
	return MakeHeaderIndex(SplitFields(lines[0])), lines[1:], nil
}
