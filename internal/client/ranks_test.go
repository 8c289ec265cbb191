package client

import "testing"

func TestTierFor(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{-50, "bronze"},
		{0, "bronze"},
		{999, "bronze"},
		{1000, "silver"},
		{2499, "silver"},
		{2500, "gold"},
		{5000, "platinum"},
		{10000, "master"},
		{250000, "master"},
	}
	for _, tt := range tests {
		if got := TierFor(tt.points).Name; got != tt.want {
			t.Errorf("TierFor(%d) = %q, want %q", tt.points, got, tt.want)
		}
	}
}

func TestNextTier(t *testing.T) {
	next, ok := NextTier(1200)
	if !ok || next.Name != "gold" || next.MinPoints != 2500 {
		t.Errorf("NextTier(1200) = %+v, %v", next, ok)
	}
	if _, ok := NextTier(10000); ok {
		t.Error("master has no next tier")
	}
}

func TestTierIndex(t *testing.T) {
	tests := map[string]int{"bronze": 0, "Gold": 2, "MAESTRO": 4, "master": 4, "diamond": -1}
	for name, want := range tests {
		if got := TierIndex(name); got != want {
			t.Errorf("TierIndex(%q) = %d, want %d", name, got, want)
		}
	}
}
