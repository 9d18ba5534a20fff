package geo

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name      string
		a, b      Point
		expected  float64
		tolerance float64
	}{
		{
			name:      "identical points",
			a:         Point{Lat: 12.9716, Lon: 77.5946},
			b:         Point{Lat: 12.9716, Lon: 77.5946},
			expected:  0,
			tolerance: 0,
		},
		{
			name:      "one degree of longitude at the equator",
			a:         Point{Lat: 0, Lon: 0},
			b:         Point{Lat: 0, Lon: 1},
			expected:  111.19,
			tolerance: 0.5,
		},
		{
			name:      "one degree of latitude",
			a:         Point{Lat: 0, Lon: 0},
			b:         Point{Lat: 1, Lon: 0},
			expected:  111.19,
			tolerance: 0.5,
		},
		{
			name:      "antipodal points are half the circumference",
			a:         Point{Lat: 0, Lon: 0},
			b:         Point{Lat: 0, Lon: 180},
			expected:  math.Pi * EarthRadiusKm,
			tolerance: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.a, tt.b)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Errorf("expected %.2f km (±%.2f), got %.4f km", tt.expected, tt.tolerance, got)
			}
		})
	}
}

func TestHaversineKmCommutative(t *testing.T) {
	a := Point{Lat: 12.9716, Lon: 77.5946}
	b := Point{Lat: 13.0827, Lon: 80.2707}

	if HaversineKm(a, b) != HaversineKm(b, a) {
		t.Errorf("distance must be symmetric: %v vs %v", HaversineKm(a, b), HaversineKm(b, a))
	}
}

func TestTotalDistanceKm(t *testing.T) {
	if d := TotalDistanceKm(nil); d != 0 {
		t.Errorf("empty sequence: expected 0, got %v", d)
	}
	if d := TotalDistanceKm([]Point{{Lat: 1, Lon: 1}}); d != 0 {
		t.Errorf("single point: expected 0, got %v", d)
	}

	// Three collinear points along the equator: total equals the direct leg sum.
	pts := []Point{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 0, Lon: 2}}
	want := HaversineKm(pts[0], pts[1]) + HaversineKm(pts[1], pts[2])
	if got := TotalDistanceKm(pts); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}
