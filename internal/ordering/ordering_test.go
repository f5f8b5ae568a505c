package ordering

import (
	"math"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func ptr(f float64) *float64 { return &f }

func TestPositionBetween(t *testing.T) {
	tests := []struct {
		name string
		prev *float64
		next *float64
		want float64
	}{
		{"empty list", nil, nil, 1000},
		{"head of list", nil, ptr(3000), 4000},
		{"between neighbours", ptr(3000), ptr(2000), 2500},
		{"tail of list", ptr(1000), nil, 0},
		{"fractional", ptr(2500), ptr(2000), 2250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PositionBetween(tt.prev, tt.next); got != tt.want {
				t.Errorf("PositionBetween = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeadPosition(t *testing.T) {
	if got := HeadPosition(nil); got != Gap {
		t.Errorf("HeadPosition(nil) = %v, want %v", got, Gap)
	}
	if got := HeadPosition([]float64{1000, 3000, 2000}); got != 4000 {
		t.Errorf("HeadPosition = %v, want 4000", got)
	}
}

func TestRenormalize(t *testing.T) {
	got := Renormalize(3)
	want := []float64{3000, 2000, 1000}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Renormalize(3) = %v, want %v", got, want)
		}
	}
	if len(Renormalize(0)) != 0 {
		t.Error("Renormalize(0) should be empty")
	}
}

func TestLess(t *testing.T) {
	now := time.Now()
	if !Less(2000, 1000, now, now) {
		t.Error("Higher position should sort first")
	}
	if !Less(1000, 1000, now.Add(time.Second), now) {
		t.Error("Equal positions should sort by most recent update")
	}
	if Less(1000, 1000, now, now) {
		t.Error("Identical keys are not less")
	}
}

func TestDensityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(-1e9, 1e9).Draw(t, "a")
		b := rapid.Float64Range(-1e9, 1e9).Draw(t, "b")
		lo, hi := math.Min(a, b), math.Max(a, b)
		// the mean of adjacent floats collapses onto one of them
		if math.Nextafter(lo, hi) >= hi {
			t.Skip("no representable value between neighbours")
		}

		mid := PositionBetween(&hi, &lo)
		if !(lo < mid && mid < hi) {
			t.Fatalf("PositionBetween(%v, %v) = %v not strictly between", hi, lo, mid)
		}
	})
}
