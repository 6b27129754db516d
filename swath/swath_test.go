package swath

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/unit"
)

func TestExtractSwathsCoversRing(t *testing.T) {
	ring := densify(square(0, 100), 2)
	corners := []int{0, 3, 6, 9}
	swaths := ExtractSwaths(ring, corners)

	if len(swaths) != len(corners) {
		t.Fatalf("want %d swaths, have %d", len(corners), len(swaths))
	}
	for i, sw := range swaths {
		if len(sw) < 2 {
			t.Errorf("swath %d has fewer than 2 points", i)
		}
	}
	// Adjacent swaths share their joint vertex.
	for i := 0; i < len(swaths); i++ {
		next := swaths[(i+1)%len(swaths)]
		last := swaths[i][len(swaths[i])-1]
		if !last.Equals(next[0]) {
			t.Errorf("swath %d does not end where swath %d starts", i, (i+1)%len(swaths))
		}
	}
	// Concatenating the swaths with joints collapsed reproduces the ring.
	have := concatSwaths(swaths)
	want := ring[:len(ring)-1]
	if len(have) != len(want) {
		t.Fatalf("concatenated cover: want %d points, have %d", len(want), len(have))
	}
	for i := range want {
		if !have[i].Equals(want[i]) {
			t.Fatalf("concatenated cover differs at %d: want %v, have %v", i, want[i], have[i])
		}
	}
}

// concatSwaths joins the swaths, collapsing the duplicated corner
// vertices and the closing vertex.
func concatSwaths(swaths geom.MultiLineString) []geom.Point {
	var out []geom.Point
	for i, sw := range swaths {
		if i == 0 {
			out = append(out, sw...)
		} else {
			out = append(out, sw[1:]...)
		}
	}
	return out[:len(out)-1] // drop the closing duplicate
}

func TestExtractSwathsPreconditions(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("want panic for unadjusted corner list")
		}
	}()
	ExtractSwaths(square(0, 100), []int{1, 2})
}

func TestBoundarySwathsSquare(t *testing.T) {
	res, err := BoundarySwaths(geom.Polygon{square(0, 100)},
		unit.New(5, unit.Meter), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Fatalf("want 1 inset polygon, have %d", len(res))
	}
	if len(res[0].Holes) != 0 {
		t.Fatalf("want no hole swaths, have %d", len(res[0].Holes))
	}
	outer := res[0].Outer
	if len(outer) != 4 {
		t.Fatalf("want 4 swaths, have %d", len(outer))
	}
	// Adjacent swaths share each corner.
	for i := range outer {
		next := outer[(i+1)%len(outer)]
		if !outer[i][len(outer[i])-1].Equals(next[0]) {
			t.Errorf("swath %d does not join swath %d", i, (i+1)%len(outer))
		}
	}
	// The concatenated swaths trace the inset square in order. The ring
	// may carry a leftover collinear vertex at the clipper's start point,
	// which does not change the traced shape.
	have := collapseCollinear(concatSwaths(outer))
	want := []geom.Point{
		{X: 5, Y: 5}, {X: 95, Y: 5}, {X: 95, Y: 95}, {X: 5, Y: 95},
	}
	if !cyclicSimilar(have, want, 1e-6) {
		t.Errorf("inset trace: want cyclic %v, have %v", want, have)
	}
}

// collapseCollinear removes vertices that lie on the segment between
// their cyclic neighbors.
func collapseCollinear(pts []geom.Point) []geom.Point {
	var out []geom.Point
	n := len(pts)
	for i := 0; i < n; i++ {
		prev := pts[(i-1+n)%n]
		next := pts[(i+1)%n]
		c := (next.X-prev.X)*(pts[i].Y-prev.Y) - (next.Y-prev.Y)*(pts[i].X-prev.X)
		if math.Abs(c) > 1e-6 {
			out = append(out, pts[i])
		}
	}
	return out
}

// cyclicSimilar reports whether have equals some rotation of want to
// within tol.
func cyclicSimilar(have, want []geom.Point, tol float64) bool {
	if len(have) != len(want) {
		return false
	}
	n := len(want)
	for shift := 0; shift < n; shift++ {
		ok := true
		for i := 0; i < n; i++ {
			a := have[i]
			b := want[(i+shift)%n]
			if math.Abs(a.X-b.X) > tol || math.Abs(a.Y-b.Y) > tol {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestBoundarySwathsCollapse(t *testing.T) {
	rect := geom.Polygon{{
		{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 8}, {X: 0, Y: 8},
		{X: 0, Y: 0},
	}}
	res, err := BoundarySwaths(rect, unit.New(5, unit.Meter), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 0 {
		t.Errorf("want empty result, have %d polygons", len(res))
	}
}

func TestBoundarySwathsHole(t *testing.T) {
	p := geom.Polygon{square(0, 100), reverse(square(40, 60))}
	res, err := BoundarySwaths(p, unit.New(2, unit.Meter), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Fatalf("want 1 inset polygon, have %d", len(res))
	}
	if len(res[0].Outer) != 4 {
		t.Errorf("outer: want 4 swaths, have %d", len(res[0].Outer))
	}
	if len(res[0].Holes) != 1 {
		t.Fatalf("want 1 hole, have %d", len(res[0].Holes))
	}
	if len(res[0].Holes[0]) != 4 {
		t.Errorf("hole: want 4 swaths, have %d", len(res[0].Holes[0]))
	}
}

func TestBoundarySwathsPentagon(t *testing.T) {
	res, err := BoundarySwaths(geom.Polygon{pentagon(50)}, unit.New(2, unit.Meter), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Fatalf("want 1 inset polygon, have %d", len(res))
	}
	if len(res[0].Outer) != 5 {
		t.Errorf("want 5 swaths, have %d", len(res[0].Outer))
	}
}

func TestBoundarySwathsGeo(t *testing.T) {
	// A 100 m square field centered at 45°N 0°E, built by unprojecting
	// planar corners.
	proj, err := NewProjectionOrigin(geom.Point{X: 0, Y: 45})
	if err != nil {
		t.Fatal(err)
	}
	inv := proj.Inverse()
	corners := []geom.Point{
		{X: -50, Y: -50}, {X: 50, Y: -50}, {X: 50, Y: 50}, {X: -50, Y: 50},
	}
	ring := make([]geom.Point, 0, 5)
	for _, c := range corners {
		lon, lat, err := inv(c.X, c.Y)
		if err != nil {
			t.Fatal(err)
		}
		ring = append(ring, geom.Point{X: lon, Y: lat})
	}
	ring = append(ring, ring[0])
	geoPoly := geom.Polygon{ring}

	res, err := BoundarySwathsGeo(geoPoly, unit.New(5, unit.Meter), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Fatalf("want 1 inset polygon, have %d", len(res))
	}
	outer := res[0].Outer
	if len(outer) != 4 {
		t.Fatalf("want 4 swaths, have %d", len(outer))
	}

	// Project the output back into the same frame BoundarySwathsGeo used
	// and check the geometry there.
	frame, err := NewProjection(geoPoly)
	if err != nil {
		t.Fatal(err)
	}
	fwd := frame.Forward()
	var planar geom.MultiLineString
	for _, sw := range outer {
		g, err := sw.Transform(fwd)
		if err != nil {
			t.Fatal(err)
		}
		planar = append(planar, g.(geom.LineString))
	}
	b := planar.Bounds()
	if b.Min.X < -50.01 || b.Min.Y < -50.01 || b.Max.X > 50.01 || b.Max.Y > 50.01 {
		t.Errorf("output exceeds the field's bounding box: %+v", b)
	}
	for i, sw := range planar {
		first, last := sw[0], sw[len(sw)-1]
		d := math.Hypot(last.X-first.X, last.Y-first.Y)
		if math.Abs(d-90) > 0.01 {
			t.Errorf("swath %d: edge length want 90±0.01 m, have %g", i, d)
		}
	}
}

func TestBoundarySwathsUnitCheck(t *testing.T) {
	p := geom.Polygon{square(0, 100)}
	if _, err := BoundarySwaths(p, unit.New(5, unit.Kilogram), nil); err == nil {
		t.Error("want error for a non-length offset, have nil")
	}
	if _, err := BoundarySwaths(p, nil, nil); err == nil {
		t.Error("want error for a nil offset, have nil")
	}
	if _, err := BoundarySwaths(p, unit.New(5, unit.Meter),
		unit.New(0.1, unit.Second)); err == nil {
		t.Error("want error for a non-length tolerance, have nil")
	}
}
