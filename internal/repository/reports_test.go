package repository

import (
	"testing"
)

func TestLikePattern(t *testing.T) {
	tests := []struct {
		keyword string
		want    string
	}{
		{"paracetamol", "%paracetamol%"},
		{"", "%%"},
		{"vitamin c", "%vitamin c%"},
	}

	for _, tt := range tests {
		if got := likePattern(tt.keyword); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}
