package helpers

import (
	"math"
	"testing"
	"time"
)

func TestCalculateSliceIndices(t *testing.T) {
	tests := []struct {
		page, size, total int
		start, end        int
	}{
		{1, 10, 25, 0, 10},
		{3, 10, 25, 20, 25},
		{4, 10, 25, 25, 25},
		{0, 0, 5, 0, 5},
		{922337203685477581, 20, 5, 5, 5},
		{math.MaxInt, 100, 5, 5, 5},
	}
	for _, tt := range tests {
		start, end := CalculateSliceIndices(tt.page, tt.size, tt.total)
		if start != tt.start || end != tt.end {
			t.Errorf("CalculateSliceIndices(%d,%d,%d) = %d,%d; want %d,%d", tt.page, tt.size, tt.total, start, end, tt.start, tt.end)
		}
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(41, 9, 20)
	if info.TotalPages != 3 || info.CurrentPage != 3 {
		t.Fatalf("unexpected %+v", info)
	}
	if empty := NewPaginationInfo(0, 1, 20); empty.TotalPages != 1 {
		t.Fatalf("empty list should still have one page, got %+v", empty)
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("got %v", got)
	}
	if got := ParseDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestNullIfEmpty(t *testing.T) {
	if NullIfEmpty("   ") != nil {
		t.Fatal("blank should be nil")
	}
	if v := NullIfEmpty(" x "); v == nil || *v != "x" {
		t.Fatal("expected trimmed value")
	}
}
