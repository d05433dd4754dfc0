package interp

import "testing"

func TestHermite4IdentityOnLinearRamp(t *testing.T) {
	xm1, x0, x1, x2 := -1.0, 0.0, 1.0, 2.0
	for _, tc := range []struct {
		t float64
		w float64
	}{
		{t: 0.0, w: 0.0},
		{t: 0.25, w: 0.25},
		{t: 0.5, w: 0.5},
		{t: 1.0, w: 1.0},
	} {
		got := Hermite4(tc.t, xm1, x0, x1, x2)
		if diff := got - tc.w; diff < -1e-12 || diff > 1e-12 {
			t.Fatalf("t=%v: got %v want %v", tc.t, got, tc.w)
		}
	}
}

func TestModeAt(t *testing.T) {
	tests := []struct {
		mode Mode
		want float64
	}{
		{mode: Linear, want: 2.5},
		{mode: Hermite, want: Hermite4(0.25, 0, 2, 4, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got := tt.mode.At(0.25, 0, 2, 4, 0)
			if got != tt.want {
				t.Fatalf("At() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModeEndpointsExact(t *testing.T) {
	for _, m := range []Mode{Linear, Hermite} {
		if got := m.At(0, 7, 3, -5, 11); got != 3 {
			t.Fatalf("%s: At(0) = %v, want 3", m, got)
		}
	}
	if Mode(9).String() != "unknown" {
		t.Fatal("unexpected name for invalid mode")
	}
}
