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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/op"
)

// circlePoints is the number of segments used to approximate a full
// circle in round buffer joins and caps.
const circlePoints = 32

// MinInsetOffset is the smallest accepted inset distance in metres.
const MinInsetOffset = 1.0

// Inset computes the negative-offset morphological buffer of the planar
// polygon p: the set of points of p at least offset metres from its
// boundary. Joins are round, approximated with circlePoints segments per
// full circle.
//
// The result may be the input shrunk inward, may split into several
// disjoint polygons where narrow waists collapse, or may be empty if the
// polygon is everywhere narrower than twice the offset. An empty result is
// not an error.
func Inset(p geom.Polygon, offset float64) (geom.MultiPolygon, error) {
	if offset < MinInsetOffset {
		return nil, fmt.Errorf("swath: inset offset %g m is less than the minimum %g m",
			offset, MinInsetOffset)
	}
	if err := Validate(p); err != nil {
		return nil, err
	}

	shield := boundaryShield(p, offset)
	clipped := p.Difference(shield).(geom.Polygon)
	mp := regroup(clipped)
	if len(mp) == 0 {
		return geom.MultiPolygon{}, nil
	}
	if err := Validate(mp); err != nil {
		if failureOf(err) != FailureWrongOrientation {
			return nil, err
		}
		if err := op.FixOrientation(mp); err != nil {
			return nil, err
		}
	}
	return mp, nil
}

// boundaryShield dilates the boundary of p by r: the union of round-capped
// capsules over every ring edge. Subtracting it from p erodes p by r.
func boundaryShield(p geom.Polygon, r float64) geom.Polygon {
	var pieces []geom.Polygon
	for _, ring := range p {
		n := len(ring)
		if n > 1 && ring[0].Equals(ring[n-1]) {
			n-- // skip the closing duplicate
		}
		for i := 0; i < n; i++ {
			a := ring[i]
			b := ring[(i+1)%n]
			if rect := edgeRectangle(a, b, r); rect != nil {
				pieces = append(pieces, rect)
			}
			pieces = append(pieces, circle(a, r))
		}
	}
	return unionAll(pieces)
}

// edgeRectangle is the rectangle of half-width r centered on segment ab,
// or nil for a degenerate segment.
func edgeRectangle(a, b geom.Point, r float64) geom.Polygon {
	dx := b.X - a.X
	dy := b.Y - a.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		return nil
	}
	// Unit normal.
	nx := -dy / d * r
	ny := dx / d * r
	return geom.Polygon{{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
		{X: a.X + nx, Y: a.Y + ny},
	}}
}

// circle is a counter-clockwise regular polygon approximating the circle
// of radius r around c.
func circle(c geom.Point, r float64) geom.Polygon {
	ring := make([]geom.Point, circlePoints+1)
	for i := 0; i < circlePoints; i++ {
		th := 2 * math.Pi * float64(i) / circlePoints
		ring[i] = geom.Point{X: c.X + r*math.Cos(th), Y: c.Y + r*math.Sin(th)}
	}
	ring[circlePoints] = ring[0]
	return geom.Polygon{ring}
}

// unionAll merges the polygons pairwise in rounds, which keeps the
// intermediate results small compared to folding them one at a time.
func unionAll(ps []geom.Polygon) geom.Polygon {
	if len(ps) == 0 {
		return geom.Polygon{}
	}
	for len(ps) > 1 {
		merged := make([]geom.Polygon, 0, (len(ps)+1)/2)
		for i := 0; i+1 < len(ps); i += 2 {
			merged = append(merged, ps[i].Union(ps[i+1]).(geom.Polygon))
		}
		if len(ps)%2 == 1 {
			merged = append(merged, ps[len(ps)-1])
		}
		ps = merged
	}
	return ps[0]
}

// regroup sorts the flat contour set produced by the clipping library into
// a MultiPolygon: contours nested at even depth become outer rings, and
// each odd-depth contour becomes a hole of the innermost shell containing
// it. Shells are oriented counter-clockwise and holes clockwise.
func regroup(p geom.Polygon) geom.MultiPolygon {
	type contour struct {
		ring  []geom.Point
		area  float64 // absolute area
		depth int
		shell int // index into shells, for holes
	}

	var contours []*contour
	for _, r := range p {
		if len(r) < 4 {
			continue
		}
		a := ringArea(r)
		if a == 0 {
			continue
		}
		contours = append(contours, &contour{ring: r, area: math.Abs(a)})
	}
	if len(contours) == 0 {
		return nil
	}

	for i, c := range contours {
		for j, other := range contours {
			if i == j {
				continue
			}
			if other.area > c.area && pointInRing(c.ring[0], other.ring) {
				c.depth++
			}
		}
	}

	// Process shells in decreasing area so holes can find their shells.
	sort.SliceStable(contours, func(i, j int) bool {
		return contours[i].area > contours[j].area
	})

	var out geom.MultiPolygon
	shellIdx := make([]*contour, 0, len(contours))
	for _, c := range contours {
		if c.depth%2 != 0 {
			continue
		}
		c.shell = len(out)
		shellIdx = append(shellIdx, c)
		out = append(out, geom.Polygon{orientRing(c.ring, true)})
	}
	for _, c := range contours {
		if c.depth%2 == 0 {
			continue
		}
		// The innermost containing shell is the smallest shell that
		// contains this hole and is nested one level above it.
		for i := len(shellIdx) - 1; i >= 0; i-- {
			s := shellIdx[i]
			if s.depth == c.depth-1 && s.area >= c.area &&
				pointInRing(c.ring[0], s.ring) {
				out[s.shell] = append(out[s.shell], orientRing(c.ring, false))
				break
			}
		}
	}
	return out
}

// orientRing returns ring with counter-clockwise winding if ccw is true,
// clockwise otherwise.
func orientRing(ring []geom.Point, ccw bool) []geom.Point {
	if (ringArea(ring) > 0) == ccw {
		return ring
	}
	rev := make([]geom.Point, len(ring))
	for i, pt := range ring {
		rev[len(ring)-1-i] = pt
	}
	return rev
}
