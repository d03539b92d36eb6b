package valuation

import (
	"math"
	"testing"
)

func TestResalePrice(t *testing.T) {
	tests := []struct {
		name   string
		mrp    float64
		damage string
		cnn    float64
		ml     float64
		want   float64
	}{
		{
			name:   "pristine with perfect scores",
			mrp:    30000,
			damage: "no_broken",
			cnn:    1.0,
			ml:     1.0,
			want:   24000,
		},
		{
			name:   "light damage with mid scores",
			mrp:    30000,
			damage: "light_broken",
			cnn:    0.8,
			ml:     0.6,
			want:   16156.80,
		},
		{
			name:   "severe damage",
			mrp:    20000,
			damage: "severe_broken",
			cnn:    0.5,
			ml:     0.5,
			want:   4590,
		},
		{
			name:   "unknown damage class falls to harshest weight",
			mrp:    10000,
			damage: "shattered",
			cnn:    1.0,
			ml:     1.0,
			want:   3200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResalePrice(tt.mrp, tt.damage, tt.cnn, tt.ml)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("ResalePrice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResalePrice_RoundsToTwoDecimals(t *testing.T) {
	got := ResalePrice(999.99, "moderately_broken", 0.731, 0.642)
	rounded := math.Round(got*100) / 100
	if got != rounded {
		t.Errorf("price %v not rounded to two decimals", got)
	}
	if got <= 0 {
		t.Errorf("price %v should be positive", got)
	}
}
