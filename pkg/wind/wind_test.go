package wind

import (
	"math"
	"testing"
)

func TestToDirection(t *testing.T) {
	tests := []struct {
		name string
		u    float64
		v    float64
		want float64
	}{
		{"from north", 0, -1, 0},
		{"from east", -1, 0, 90},
		{"from south", 0, 1, 180},
		{"from west", 1, 0, 270},
		{"from northeast", -1, -1, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDirection(tt.u, tt.v)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ToDirection(%v, %v) = %v, want %v", tt.u, tt.v, got, tt.want)
			}
		})
	}
}

func TestToComponents(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		dir   float64
		wantU float64
		wantV float64
	}{
		{"from north", 2, 0, 0, -2},
		{"from east", 3, 90, -3, 0},
		{"from south", 1.5, 180, 0, 1.5},
		{"from west", 4, 270, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v := ToComponents(tt.speed, tt.dir)
			if math.Abs(u-tt.wantU) > 1e-9 || math.Abs(v-tt.wantV) > 1e-9 {
				t.Errorf("ToComponents(%v, %v) = (%v, %v), want (%v, %v)",
					tt.speed, tt.dir, u, v, tt.wantU, tt.wantV)
			}
		})
	}
}

func TestDirectionRoundTrip(t *testing.T) {
	tests := []struct {
		speed float64
		dir   float64
	}{
		{5, 37.5},
		{12.3, 181},
		{0.1, 359},
		{20, 90},
		{7, 0.25},
	}

	for _, tt := range tests {
		u, v := ToComponents(tt.speed, tt.dir)
		gotSpeed := math.Hypot(u, v)
		gotDir := ToDirection(u, v)
		if math.Abs(gotSpeed-tt.speed) > 1e-9 {
			t.Errorf("round trip speed for (%v, %v): got %v", tt.speed, tt.dir, gotSpeed)
		}
		if math.Abs(gotDir-tt.dir) > 1e-9 {
			t.Errorf("round trip direction for (%v, %v): got %v", tt.speed, tt.dir, gotDir)
		}
	}

	// A sweep of the whole compass at fixed speed.
	for dir := 0.0; dir < 360; dir += 2.5 {
		u, v := ToComponents(8, dir)
		if got := ToDirection(u, v); math.Abs(got-dir) > 1e-9 {
			t.Errorf("round trip for direction %v: got %v", dir, got)
		}
	}
}

func TestSmoothDirections(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{
			name: "wrap through north",
			in:   []float64{350, 10, 350},
			want: []float64{-10, 10, -10},
		},
		{
			name: "already smooth",
			in:   []float64{10, 20, 30},
			want: []float64{10, 20, 30},
		},
		{
			name: "mean shifted into range",
			in:   []float64{350, 355, 350},
			want: []float64{-10, -5, -10},
		},
		{
			name: "single value",
			in:   []float64{42},
			want: []float64{42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SmoothDirections(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("length = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("smoothed[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSmoothDirectionsContinuity(t *testing.T) {
	// A series that crosses the 0/360 boundary several times.
	in := []float64{355, 5, 15, 350, 340, 2, 358, 12}
	got := SmoothDirections(in)

	for i := 1; i < len(got); i++ {
		if math.Abs(got[i]-got[i-1]) > 180 {
			t.Errorf("jump between smoothed[%d]=%v and smoothed[%d]=%v exceeds 180",
				i-1, got[i-1], i, got[i])
		}
	}
	for i := range got {
		diff := math.Mod(got[i]-in[i], 360)
		if diff < 0 {
			diff += 360
		}
		if diff > 1e-9 && math.Abs(diff-360) > 1e-9 {
			t.Errorf("smoothed[%d]=%v is not congruent to input %v modulo 360", i, got[i], in[i])
		}
	}

	mean := 0.0
	for _, d := range got {
		mean += d
	}
	mean /= float64(len(got))
	if mean < -180 || mean > 180 {
		t.Errorf("mean of smoothed series = %v, want within [-180, 180]", mean)
	}
}

func TestSmoothDirectionsEmpty(t *testing.T) {
	if got := SmoothDirections(nil); got != nil {
		t.Errorf("SmoothDirections(nil) = %v, want nil", got)
	}
}
