/*
Copyright © 2026 the FarmDB authors.
This file is part of FarmDB.

FarmDB is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FarmDB is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FarmDB.  If not, see <http://www.gnu.org/licenses/>.
*/

package swath

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// Failure identifies the way a geometry failed validation. The simplifier
// reacts differently to different failures, so they must be
// distinguishable.
type Failure int

const (
	// FailureFewPoints means a ring has fewer than four points
	// (including the closing duplicate).
	FailureFewPoints Failure = iota + 1
	// FailureNotClosed means a ring's first point differs from its last.
	FailureNotClosed
	// FailureSelfIntersection means two ring edges cross.
	FailureSelfIntersection
	// FailureWrongOrientation means an outer ring is clockwise or a hole
	// counter-clockwise. Callers usually correct this instead of failing.
	FailureWrongOrientation
	// FailureHoleOutsideShell means a hole is not inside its outer ring.
	FailureHoleOutsideShell
	// FailureNestedHoles means two holes of the same polygon overlap.
	FailureNestedHoles
)

func (f Failure) String() string {
	switch f {
	case FailureFewPoints:
		return "too few points"
	case FailureNotClosed:
		return "ring is not closed"
	case FailureSelfIntersection:
		return "self-intersections"
	case FailureWrongOrientation:
		return "wrong orientation"
	case FailureHoleOutsideShell:
		return "interior ring outside exterior ring"
	case FailureNestedHoles:
		return "overlapping interior rings"
	default:
		return fmt.Sprintf("unknown failure (%d)", int(f))
	}
}

// A ValidityError describes why a geometry is invalid.
type ValidityError struct {
	Failure Failure
	Detail  string
}

func (e *ValidityError) Error() string {
	if e.Detail == "" {
		return "invalid geometry: " + e.Failure.String()
	}
	return "invalid geometry: " + e.Failure.String() + ": " + e.Detail
}

// Validate checks g against the simple-features rules this package relies
// on: rings are closed with at least four points and free of
// self-intersections; outer rings are counter-clockwise and holes
// clockwise; holes lie inside their outer ring and do not overlap each
// other. LineStrings are validated as rings.
func Validate(g geom.Geom) error {
	switch t := g.(type) {
	case geom.LineString:
		return validateRing(t)
	case geom.Polygon:
		return validatePolygon(t)
	case geom.MultiPolygon:
		for i, p := range t {
			if err := validatePolygon(p); err != nil {
				return wrapDetail(err, fmt.Sprintf("polygon %d", i+1))
			}
		}
		return nil
	default:
		return fmt.Errorf("swath: cannot validate geometry type %T", g)
	}
}

func validateRing(r []geom.Point) error {
	if len(r) < 4 {
		return &ValidityError{Failure: FailureFewPoints,
			Detail: fmt.Sprintf("%d points", len(r))}
	}
	if !r[0].Equals(r[len(r)-1]) {
		return &ValidityError{Failure: FailureNotClosed}
	}
	if ringSelfIntersects(r) {
		return &ValidityError{Failure: FailureSelfIntersection}
	}
	return nil
}

func validatePolygon(p geom.Polygon) error {
	if len(p) == 0 {
		return &ValidityError{Failure: FailureFewPoints, Detail: "no rings"}
	}
	for i, r := range p {
		if err := validateRing(r); err != nil {
			return wrapDetail(err, fmt.Sprintf("ring %d", i+1))
		}
	}
	// Rings of the same polygon must not cross each other.
	for i := 0; i < len(p); i++ {
		for j := i + 1; j < len(p); j++ {
			if ringsCross(p[i], p[j]) {
				return &ValidityError{Failure: FailureSelfIntersection,
					Detail: fmt.Sprintf("rings %d and %d cross", i+1, j+1)}
			}
		}
	}
	if ringArea(p[0]) < 0 {
		return &ValidityError{Failure: FailureWrongOrientation,
			Detail: "exterior ring is clockwise"}
	}
	for i, r := range p[1:] {
		if ringArea(r) > 0 {
			return &ValidityError{Failure: FailureWrongOrientation,
				Detail: fmt.Sprintf("interior ring %d is counter-clockwise", i+1)}
		}
		if !pointInRing(r[0], p[0]) {
			return &ValidityError{Failure: FailureHoleOutsideShell,
				Detail: fmt.Sprintf("interior ring %d", i+1)}
		}
	}
	for i := 1; i < len(p); i++ {
		for j := i + 1; j < len(p); j++ {
			if pointInRing(p[i][0], p[j]) || pointInRing(p[j][0], p[i]) {
				return &ValidityError{Failure: FailureNestedHoles,
					Detail: fmt.Sprintf("interior rings %d and %d", i, j)}
			}
		}
	}
	return nil
}

func wrapDetail(err error, where string) error {
	ve, ok := err.(*ValidityError)
	if !ok {
		return err
	}
	detail := where
	if ve.Detail != "" {
		detail += ": " + ve.Detail
	}
	return &ValidityError{Failure: ve.Failure, Detail: detail}
}

// failureOf extracts the validation failure kind from err, or zero if err
// is not a ValidityError.
func failureOf(err error) Failure {
	if ve, ok := err.(*ValidityError); ok {
		return ve.Failure
	}
	return 0
}

// ringSelfIntersects reports whether any two non-adjacent edges of the
// closed ring r properly intersect, or adjacent edges overlap.
func ringSelfIntersects(r []geom.Point) bool {
	n := len(r) - 1 // number of edges
	for i := 0; i < n; i++ {
		a1, a2 := r[i], r[i+1]
		for j := i + 1; j < n; j++ {
			adjacent := j == i+1 || (i == 0 && j == n-1)
			b1, b2 := r[j], r[j+1]
			if !segmentBoundsOverlap(a1, a2, b1, b2) {
				continue
			}
			if adjacent {
				// Adjacent edges share exactly one endpoint; they must not
				// otherwise overlap.
				if segmentsOverlapCollinear(a1, a2, b1, b2) {
					return true
				}
				continue
			}
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// ringsCross reports whether any edge of a properly intersects any edge
// of b.
func ringsCross(a, b []geom.Point) bool {
	for i := 0; i < len(a)-1; i++ {
		for j := 0; j < len(b)-1; j++ {
			if !segmentBoundsOverlap(a[i], a[i+1], b[j], b[j+1]) {
				continue
			}
			if segmentsProperlyIntersect(a[i], a[i+1], b[j], b[j+1]) {
				return true
			}
		}
	}
	return false
}

func segmentBoundsOverlap(a1, a2, b1, b2 geom.Point) bool {
	return math.Min(a1.X, a2.X) <= math.Max(b1.X, b2.X) &&
		math.Min(b1.X, b2.X) <= math.Max(a1.X, a2.X) &&
		math.Min(a1.Y, a2.Y) <= math.Max(b1.Y, b2.Y) &&
		math.Min(b1.Y, b2.Y) <= math.Max(a1.Y, a2.Y)
}

// orient returns >0 if c is left of a->b, <0 if right, 0 if collinear.
func orient(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// segmentsIntersect reports whether segments a1a2 and b1b2 share any
// point, excluding the case of merely sharing an endpoint.
func segmentsIntersect(a1, a2, b1, b2 geom.Point) bool {
	shared := 0
	if a1.Equals(b1) || a1.Equals(b2) {
		shared++
	}
	if a2.Equals(b1) || a2.Equals(b2) {
		shared++
	}
	if shared > 0 {
		// Segments that meet only at endpoints are fine (this happens at
		// the closing vertex); overlapping collinear segments are not.
		return segmentsOverlapCollinear(a1, a2, b1, b2)
	}
	return segmentsProperlyIntersect(a1, a2, b1, b2)
}

func segmentsProperlyIntersect(a1, a2, b1, b2 geom.Point) bool {
	d1 := orient(b1, b2, a1)
	d2 := orient(b1, b2, a2)
	d3 := orient(a1, a2, b1)
	d4 := orient(a1, a2, b2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(b1, b2, a1) {
		return true
	}
	if d2 == 0 && onSegment(b1, b2, a2) {
		return true
	}
	if d3 == 0 && onSegment(a1, a2, b1) {
		return true
	}
	if d4 == 0 && onSegment(a1, a2, b2) {
		return true
	}
	return false
}

// segmentsOverlapCollinear reports whether the two segments are collinear
// and overlap in more than a single point.
func segmentsOverlapCollinear(a1, a2, b1, b2 geom.Point) bool {
	if orient(a1, a2, b1) != 0 || orient(a1, a2, b2) != 0 {
		return false
	}
	// Project onto the dominant axis.
	if math.Abs(a2.X-a1.X) >= math.Abs(a2.Y-a1.Y) {
		aMin, aMax := math.Min(a1.X, a2.X), math.Max(a1.X, a2.X)
		bMin, bMax := math.Min(b1.X, b2.X), math.Max(b1.X, b2.X)
		return math.Min(aMax, bMax) > math.Max(aMin, bMin)
	}
	aMin, aMax := math.Min(a1.Y, a2.Y), math.Max(a1.Y, a2.Y)
	bMin, bMax := math.Min(b1.Y, b2.Y), math.Max(b1.Y, b2.Y)
	return math.Min(aMax, bMax) > math.Max(aMin, bMin)
}

// onSegment reports whether c, known to be collinear with a->b, lies
// strictly between a and b (not at an endpoint).
func onSegment(a, b, c geom.Point) bool {
	if c.Equals(a) || c.Equals(b) {
		return false
	}
	return math.Min(a.X, b.X) <= c.X && c.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= c.Y && c.Y <= math.Max(a.Y, b.Y)
}

// ringArea is the signed area of closed ring r; positive means
// counter-clockwise.
func ringArea(r []geom.Point) float64 {
	a := 0.0
	for i := 0; i < len(r)-1; i++ {
		a += r[i].X*r[i+1].Y - r[i+1].X*r[i].Y
	}
	return a / 2
}

// pointInRing reports whether pt is inside the closed ring r, by crossing
// count. A point exactly on an edge may be reported either way.
func pointInRing(pt geom.Point, r []geom.Point) bool {
	in := false
	for i := 0; i < len(r)-1; i++ {
		p1, p2 := r[i], r[i+1]
		if (p1.Y > pt.Y) != (p2.Y > pt.Y) {
			x := p1.X + (pt.Y-p1.Y)/(p2.Y-p1.Y)*(p2.X-p1.X)
			if x > pt.X {
				in = !in
			}
		}
	}
	return in
}
