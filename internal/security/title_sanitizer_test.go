package security

import "testing"

// Sanitizeがタグを除去しプレーンテキストを残すことを検証
func TestTitleSanitizer_Sanitize(t *testing.T) {
	s := NewTitleSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "毎朝ランニング", "毎朝ランニング"},
		{"script tag removed", `<script>alert("xss")</script>走る`, "走る"},
		{"inline tags stripped", "<b>read</b> a <i>book</i>", "read a book"},
		{"event handler removed", `<img src=x onerror=alert(1)>meditate`, "meditate"},
		{"whitespace trimmed", "  drink water  ", "drink water"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// Sanitizeが冪等であることを検証
func TestTitleSanitizer_Sanitize_Idempotent(t *testing.T) {
	s := NewTitleSanitizer()

	input := `<a href="https://example.com">link</a> title`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("Sanitize is not idempotent: %q != %q", once, twice)
	}
}
