package gormrepository

import "testing"

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		limit, fallback, want int
	}{
		{0, 100, 100},
		{-5, 100, 100},
		{25, 100, 25},
		{9999, 100, 500},
	}
	for _, tt := range tests {
		if got := normalizeLimit(tt.limit, tt.fallback); got != tt.want {
			t.Fatalf("normalizeLimit(%d, %d)=%d want=%d", tt.limit, tt.fallback, got, tt.want)
		}
	}
}

func TestNormalizeOffset(t *testing.T) {
	if got := normalizeOffset(-1); got != 0 {
		t.Fatalf("normalizeOffset(-1)=%d want 0", got)
	}
	if got := normalizeOffset(40); got != 40 {
		t.Fatalf("normalizeOffset(40)=%d want 40", got)
	}
}
