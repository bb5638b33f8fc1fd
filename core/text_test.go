package core

import "testing"

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace runs", "  major \n\tdepressive   disorder ", "major depressive disorder"},
		{"compatibility forms", "ﬁbrosis", "fibrosis"},
		{"fullwidth", "ＳＳＲＩ", "SSRI"},
		{"control characters", "sero\x00tonin", "serotonin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
