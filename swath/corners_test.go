package swath

import (
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

func TestRingCornersSquare(t *testing.T) {
	want := []int{0, 1, 2, 3}
	if have := ringCorners(square(0, 100)); !reflect.DeepEqual(have, want) {
		t.Errorf("counter-clockwise square: want %v, have %v", want, have)
	}
	if have := ringCorners(reverse(square(0, 100))); !reflect.DeepEqual(have, want) {
		t.Errorf("clockwise square: want %v, have %v", want, have)
	}
}

func TestRingCornersObtuse(t *testing.T) {
	// A 150° interior angle turns only 30°: not a corner.
	ring := []geom.Point{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 186.6, Y: 50}, {X: 0, Y: 50},
		{X: 0, Y: 0},
	}
	have := ringCorners(ring)
	for _, c := range have {
		if c == 1 {
			t.Errorf("obtuse vertex 1 reported as a corner: %v", have)
		}
	}
}

func TestRingCornersPentagon(t *testing.T) {
	ring := pentagon(50)
	have := ringCorners(ring)
	want := []int{0, 1, 2, 3, 4}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("pentagon: want %v, have %v", want, have)
	}
}

// pentagon is a closed counter-clockwise regular pentagon with the given
// circumradius, centered on the origin.
func pentagon(r float64) []geom.Point {
	ring := make([]geom.Point, 6)
	for i := 0; i < 5; i++ {
		th := 2 * math.Pi * float64(i) / 5
		ring[i] = geom.Point{X: r * math.Cos(th), Y: r * math.Sin(th)}
	}
	ring[5] = ring[0]
	return ring
}

func TestMapCorners(t *testing.T) {
	orig := densify(square(0, 100), 9)
	simp := square(0, 100)
	have := mapCorners(orig, simp, []int{0, 1, 2, 3})
	want := []int{0, 10, 20, 30}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("want %v, have %v", want, have)
	}
}

func TestMapCornersDistinct(t *testing.T) {
	// Two simplified corners near the same original vertex must not both
	// claim it.
	orig := []geom.Point{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 0, Y: 50},
		{X: 0, Y: 0},
	}
	simp := []geom.Point{
		{X: 0, Y: 0}, {X: 50, Y: 1}, {X: 49, Y: 0}, {X: 0, Y: 50},
		{X: 0, Y: 0},
	}
	have := mapCorners(orig, simp, []int{1, 2})
	if len(have) != 2 || have[0] == have[1] {
		t.Errorf("corners must map to distinct ascending vertices, have %v", have)
	}
}

func TestAdjustCornersAlreadyAtZero(t *testing.T) {
	ring, cs := adjustCorners(square(0, 100), []int{0, 1, 2, 3})
	if !reflect.DeepEqual(cs, []int{0, 1, 2, 3}) {
		t.Errorf("corners changed: %v", cs)
	}
	if !reflect.DeepEqual(ring, square(0, 100)) {
		t.Errorf("ring changed: %v", ring)
	}
}

func TestAdjustCornersForwardRotation(t *testing.T) {
	// First corner at 1, last at 2 on a 4-vertex ring: the forward shift
	// (1) beats the backward shift (2-4 = -2).
	ring, cs := adjustCorners(square(0, 100), []int{1, 2})
	checkAdjusted(t, ring, cs)
	if cs[0] != 0 || cs[1] != 1 {
		t.Errorf("want corners [0 1], have %v", cs)
	}
	if want := (geom.Point{X: 100, Y: 0}); !ring[0].Equals(want) {
		t.Errorf("ring should start at the old vertex 1, have %v", ring[0])
	}
}

func TestAdjustCornersBackwardRotation(t *testing.T) {
	// First corner at 3 on a 4-vertex ring: the backward shift (3-4 = -1)
	// beats the forward shift (3).
	ring, cs := adjustCorners(square(0, 100), []int{3})
	checkAdjusted(t, ring, cs)
	if want := (geom.Point{X: 0, Y: 100}); !ring[0].Equals(want) {
		t.Errorf("ring should start at the old vertex 3, have %v", ring[0])
	}
}

func TestAdjustCornersEmpty(t *testing.T) {
	ring, cs := adjustCorners(square(0, 100), nil)
	checkAdjusted(t, ring, cs)
	if cs[0] != 0 {
		t.Errorf("want first corner 0, have %v", cs)
	}
	// The second corner is the vertex farthest from the start: the
	// diagonal one.
	if want := (geom.Point{X: 100, Y: 100}); !ring[cs[1]].Equals(want) {
		t.Errorf("second corner should be the farthest vertex, have %v", ring[cs[1]])
	}
}

func checkAdjusted(t *testing.T, ring []geom.Point, cs []int) {
	t.Helper()
	if len(cs) < 2 {
		t.Fatalf("want at least 2 corners, have %v", cs)
	}
	if cs[0] != 0 {
		t.Fatalf("want corners[0] == 0, have %v", cs)
	}
	for i := 1; i < len(cs); i++ {
		if cs[i] <= cs[i-1] {
			t.Fatalf("corners not strictly increasing: %v", cs)
		}
	}
	if cs[len(cs)-1] >= len(ring)-1 {
		t.Fatalf("corner index %d out of range for ring of %d points",
			cs[len(cs)-1], len(ring))
	}
	if !ring[0].Equals(ring[len(ring)-1]) {
		t.Fatal("adjusted ring is not closed")
	}
}

func TestCornersMapsBack(t *testing.T) {
	// Corners on a densified square must land on the true corner
	// vertices of the dense ring.
	dense := densify(square(0, 100), 9)
	cs, err := Corners(dense)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs) != 4 {
		t.Fatalf("want 4 corners, have %v", cs)
	}
	for _, c := range cs {
		pt := dense[c]
		onCorner := false
		for _, want := range square(0, 100)[:4] {
			if pt.Equals(want) {
				onCorner = true
				break
			}
		}
		if !onCorner {
			t.Errorf("corner index %d maps to %v, not a square corner", c, pt)
		}
	}
}

func TestPolygonCorners(t *testing.T) {
	p := geom.Polygon{square(0, 100), reverse(square(40, 60))}
	adjusted, corners, err := PolygonCorners(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(corners) != 2 {
		t.Fatalf("want corner lists for outer plus 1 hole, have %d", len(corners))
	}
	for i, cs := range corners {
		checkAdjusted(t, adjusted[i], cs)
	}
	if len(corners[0]) != 4 {
		t.Errorf("outer: want 4 corners, have %v", corners[0])
	}
	if len(corners[1]) != 4 {
		t.Errorf("hole: want 4 corners, have %v", corners[1])
	}
}
