package convert

import "testing"

func TestBerriesForPoints(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 0},
		{9, 0},
		{10, 1},
		{99, 9},
		{100, 10},
		{125, 12},
		{-50, 0},
	}
	for _, tt := range tests {
		if got := BerriesForPoints(tt.points); got != tt.want {
			t.Errorf("BerriesForPoints(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestPurchaseCost(t *testing.T) {
	tests := []struct {
		berries    int
		wantPaise  int64
		wantRupees string
	}{
		{0, 0, "0.00"},
		{1, 1, "0.01"},
		{250, 250, "2.50"},
		{10000, 10000, "100.00"},
		{-3, 0, "0.00"},
	}
	for _, tt := range tests {
		got := PurchaseCost(tt.berries)
		if got.Paise != tt.wantPaise || got.Rupees != tt.wantRupees {
			t.Errorf("PurchaseCost(%d) = %+v, want %d paise (%s)", tt.berries, got, tt.wantPaise, tt.wantRupees)
		}
	}
}
