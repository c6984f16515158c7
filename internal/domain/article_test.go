package domain

import "testing"

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"technology", CategoryTechnology},
		{"Business", CategoryBusiness},
		{"  health  ", CategoryHealth},
		{"GENERAL", CategoryGeneral},
		{"gossip", ""},
		{"", ""},
		{"tech", ""}, // keyword aliases are the router's job, not the category set's
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseCategory(tt.in); got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
