package engine

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "plain fields",
			line: "a,b,c",
			want: []string{"a", "b", "c"},
		},
		{
			name: "quoted comma is not a separator",
			line: `TX1,"Acme, Inc",100.00`,
			want: []string{"TX1", "Acme, Inc", "100.00"},
		},
		{
			name: "quotes are stripped",
			line: `"TX1","100.00"`,
			want: []string{"TX1", "100.00"},
		},
		{
			name: "empty fields preserved",
			line: "a,,c",
			want: []string{"a", "", "c"},
		},
		{
			name: "trailing comma yields empty field",
			line: "a,b,",
			want: []string{"a", "b", ""},
		},
		{
			name: "unterminated quote swallows the rest",
			line: `a,"b,c`,
			want: []string{"a", "b,c"},
		},
		{
			name: "single field",
			line: "lonely",
			want: []string{"lonely"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitFields(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitFields(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "unix line endings",
			content: "h\na\nb",
			want:    []string{"h", "a", "b"},
		},
		{
			name:    "windows line endings trimmed",
			content: "h\r\na\r\n",
			want:    []string{"h", "a"},
		},
		{
			name:    "blank lines dropped",
			content: "h\n\n\na\n   \nb\n",
			want:    []string{"h", "a", "b"},
		},
		{
			name:    "empty input",
			content: "",
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLines(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	idx, lines, err := Tokenize("ID,Account_Number,Direction,Amount,Transaction_Date\nTX1,ACC1,I,10.00,2024-01-01")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d data lines, want 1", len(lines))
	}
	// Header lookup is case-insensitive.
	for i, col := range []string{"id", "account_number", "direction", "amount", "transaction_date"} {
		got, ok := idx[col]
		if !ok || got != i {
			t.Errorf("header index for %q = %d (present=%v), want %d", col, got, ok, i)
		}
	}
}

func TestTokenizeInsufficientRows(t *testing.T) {
	for _, content := range []string{"", "id,amount", "id,amount\n\n\n"} {
		if _, _, err := Tokenize(content); !errors.Is(err, ErrInsufficientRows) {
			t.Errorf("Tokenize(%q) error = %v, want ErrInsufficientRows", content, err)
		}
	}
}
