package utils

import (
	"testing"
)

func floatsAlmostEqual(a, b []float64, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func abs(a float64) float64 {
	if a < 0 {
		return -a
	}
	return a
}

func TestDegreesToRadiansAndBack(t *testing.T) {
	// Test values
	testValues := []float64{-180.0, -90.0, 0.0, 90.0, 180.0}
	expectedRadians := []float64{-3.141592653589793, -1.5707963267948966, 0.0, 1.5707963267948966, 3.141592653589793}

	for i, deg := range testValues {
		rad := DegreesToRadians(deg)
		expectedRad := expectedRadians[i]
		if rad != expectedRad {
			t.Errorf("Degrees to radians failed: got %f, want %f", rad, expectedRad)
		}
		degBack := RadiansToDegrees(rad)

		if deg != degBack {
			t.Errorf("Radians to degrees and back failed: got %f, want %f", degBack, deg)
		}
	}
}

func TestDegreesSliceToRadians(t *testing.T) {
	got := DegreesSliceToRadians([]float64{-60, 0, 60})
	want := []float64{-1.0471975511965976, 0, 1.0471975511965976}
	if !floatsAlmostEqual(got, want, 1e-12) {
		t.Errorf("Degrees slice to radians failed: got %v, want %v", got, want)
	}

	if got := DegreesSliceToRadians(nil); len(got) != 0 {
		t.Errorf("Empty slice conversion failed: got %v", got)
	}
}

func TestParseFloatList(t *testing.T) {
	testValues := []struct {
		in   string
		want []float64
	}{
		{"0.15,0.25", []float64{0.15, 0.25}},
		{"-60,-40,-20,0,20,40,60", []float64{-60, -40, -20, 0, 20, 40, 60}},
		{" 1.5 , , 2.5 ,", []float64{1.5, 2.5}},
		{"", nil},
	}

	for _, tv := range testValues {
		got, err := ParseFloatList(tv.in)
		if err != nil {
			t.Errorf("ParseFloatList(%q) returned error: %v", tv.in, err)
			continue
		}
		if !floatsAlmostEqual(got, tv.want, 0) {
			t.Errorf("ParseFloatList(%q) failed: got %v, want %v", tv.in, got, tv.want)
		}
	}

	if _, err := ParseFloatList("1.5,abc"); err == nil {
		t.Error("ParseFloatList with a non-number should fail")
	}
}
