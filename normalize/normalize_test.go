package normalize

import "testing"

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"collapse runs", "a  b\t\tc", "a b c"},
		{"trim", "  padded  ", "padded"},
		{"newlines", "line1\n\nline2", "line1 line2"},
		{"empty", "", ""},
		{"whitespace only", " \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.in); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"bare digits", "12000", 12000},
		{"yen grouped", "¥12,345", 12345},
		{"yen spaced", "¥ 8,500", 8500},
		{"decimal rounds", "99.6", 100},
		{"text around", "price: 3000 yen", 3000},
		{"empty", "", 0},
		{"no digits", "free shipping", 0},
		{"zero", "0", 0},
		{"multiple dots", "1.2.3", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Amount(tt.in); got != tt.want {
				t.Errorf("Amount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatJPY(t *testing.T) {
	if got := FormatJPY(12345); got != "¥ 12,345" {
		t.Errorf("FormatJPY(12345) = %q, want %q", got, "¥ 12,345")
	}
	if got := FormatJPY(500); got != "¥ 500" {
		t.Errorf("FormatJPY(500) = %q, want %q", got, "¥ 500")
	}
	if got := FormatJPY(0); got != "" {
		t.Errorf("FormatJPY(0) = %q, want empty", got)
	}
	if got := FormatJPY(-1); got != "" {
		t.Errorf("FormatJPY(-1) = %q, want empty", got)
	}
}

// FormatJPY(Amount(s)) must round-trip well-formed display strings to the
// canonical form.
func TestRoundTrip(t *testing.T) {
	inputs := []string{"¥12,345", "¥ 12,345", "12345"}
	for _, in := range inputs {
		if got := FormatJPY(Amount(in)); got != "¥ 12,345" {
			t.Errorf("FormatJPY(Amount(%q)) = %q, want %q", in, got, "¥ 12,345")
		}
	}
}
