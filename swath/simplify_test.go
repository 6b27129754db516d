package swath

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
)

// densify inserts n evenly spaced points into every edge of the closed
// ring r.
func densify(r []geom.Point, n int) []geom.Point {
	var out []geom.Point
	for i := 0; i < len(r)-1; i++ {
		a, b := r[i], r[i+1]
		for j := 0; j <= n; j++ {
			f := float64(j) / float64(n+1)
			out = append(out, geom.Point{X: a.X + f*(b.X-a.X), Y: a.Y + f*(b.Y-a.Y)})
		}
	}
	out = append(out, r[len(r)-1])
	return out
}

func TestSimplifyRemovesCollinearPoints(t *testing.T) {
	dense := densify(square(0, 100), 9)
	g, err := Simplify(geom.LineString(dense), 0.1)
	if err != nil {
		t.Fatal(err)
	}
	simp := g.(geom.LineString)
	if len(simp) >= len(dense) {
		t.Errorf("simplification did not remove points: %d >= %d", len(simp), len(dense))
	}
	if len(simp) < 4 {
		t.Fatalf("over-simplified to %d points", len(simp))
	}
	if !simp[0].Equals(simp[len(simp)-1]) {
		t.Error("simplified ring is not closed")
	}
	// The corners must survive.
	for _, want := range square(0, 100)[:4] {
		found := false
		for _, pt := range simp {
			if pt.Equals(want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("corner %v lost in simplification", want)
		}
	}
}

func TestSimplifyPolygon(t *testing.T) {
	p := geom.Polygon{densify(square(0, 100), 4), reverse(densify(square(40, 60), 4))}
	g, err := Simplify(p, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	simp := g.(geom.Polygon)
	if len(simp) != 2 {
		t.Fatalf("want 2 rings, have %d", len(simp))
	}
	for i, r := range simp {
		if len(r) < 4 {
			t.Errorf("ring %d: too few points (%d)", i, len(r))
		}
		if !r[0].Equals(r[len(r)-1]) {
			t.Errorf("ring %d: not closed", i)
		}
	}
}

func TestSimplifyFewPointsBackoff(t *testing.T) {
	// At 5 m tolerance a 1 m square collapses below 4 points, so the
	// tolerance has to back off until the ring survives.
	tiny := square(0, 1)
	g, err := Simplify(geom.LineString(tiny), 5)
	if err != nil {
		t.Fatal(err)
	}
	simp := g.(geom.LineString)
	if len(simp) < 4 {
		t.Errorf("want at least 4 points after back-off, have %d", len(simp))
	}
	if !simp[0].Equals(simp[len(simp)-1]) {
		t.Error("result ring is not closed")
	}
}

func TestSimplifyTightZigzag(t *testing.T) {
	// A ring with a tight sawtooth edge: simplification must never return
	// a self-intersecting result, whatever tolerance ends up being used.
	var ring []geom.Point
	for i := 0; i <= 20; i++ {
		y := 0.0
		if i%2 == 1 {
			y = 0.4
		}
		ring = append(ring, geom.Point{X: float64(i * 5), Y: y})
	}
	ring = append(ring, geom.Point{X: 100, Y: 50}, geom.Point{X: 0, Y: 50}, ring[0])
	if err := Validate(geom.LineString(ring)); err != nil {
		t.Fatalf("test ring is invalid: %v", err)
	}
	g, err := Simplify(geom.LineString(ring), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	simp := g.(geom.LineString)
	if err := Validate(simp); err != nil {
		if failureOf(err) != FailureWrongOrientation {
			t.Errorf("simplified ring is invalid: %v", err)
		}
	}
}

func TestSimplifyRejectsTinyTolerance(t *testing.T) {
	if _, err := Simplify(geom.LineString(square(0, 100)), 0.001); err == nil {
		t.Error("want error for tolerance below 0.01 m, have nil")
	}
}

func TestSimplifyToleranceKeptShape(t *testing.T) {
	// Simplification at a small tolerance must not move the shape: the
	// area change of a square with redundant vertices is zero.
	dense := geom.Polygon{densify(square(0, 100), 3)}
	g, err := Simplify(dense, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if a := g.(geom.Polygon).Area(); math.Abs(a-10000) > 1e-6 {
		t.Errorf("area changed: want 10000, have %g", a)
	}
}
