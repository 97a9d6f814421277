package sanitize

import "testing"

func TestSanitizeField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", ""},
		{"Plain", "abc123", "abc123"},
		{"Surrounding whitespace", "  \tabc123\r\n", "abc123"},
		{"Zero-width space", "abc\u200B123", "abc123"},
		{"BOM prefix", "\uFEFFhttps://files.example.com", "https://files.example.com"},
		{"Inner spaces kept", "a b", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeField(tt.input); got != tt.expected {
				t.Errorf("SanitizeField(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRemoveInvisibleChars(t *testing.T) {
	input := "\u200B\u200C\u200D\uFEFF\u00ADtest\u2060\u180E"
	expected := "test"
	result := removeInvisibleChars(input)
	if result != expected {
		t.Errorf("removeInvisibleChars() = %q, want %q", result, expected)
	}
}
