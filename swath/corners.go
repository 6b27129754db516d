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
	"math"
	"sort"

	"github.com/ctessum/geom"
)

const (
	// cornerSimplifyTolerance is the aggressive simplification applied
	// before corner detection, in metres.
	cornerSimplifyTolerance = 10.0

	// cornerTurn is the minimum rightward heading change that makes a
	// vertex a corner.
	cornerTurn = 45 * math.Pi / 180
)

// ringCorners returns the indices of the vertices of the closed ring r
// where the heading turns toward the enclosed area by at least
// cornerTurn: the convex corners of the traversed shape, whichever way
// the ring is wound. The closing duplicate vertex is not a candidate.
func ringCorners(r []geom.Point) []int {
	if len(r) < 3 {
		panic("swath: ringCorners: ring has fewer than 3 points")
	}
	if !r[0].Equals(r[len(r)-1]) {
		panic("swath: ringCorners: ring is not closed")
	}
	sign := 1.0 // counter-clockwise: convex corners turn left
	if ringArea(r) < 0 {
		sign = -1.0 // clockwise: convex corners turn right
	}
	var corners []int
	n := len(r) - 1
	curr := sub(r[0], r[n-1]) // closing edge
	for i := 0; i < n; i++ {
		prev := curr
		curr = sub(r[i+1], r[i])
		th := math.Atan2(cross(prev, curr), dot(prev, curr))
		if sign*th >= cornerTurn {
			corners = append(corners, i)
		}
	}
	return corners
}

// mapCorners maps the corner vertices of the simplified ring simp back to
// vertex indices of the original ring orig. Matches scan forward from a
// moving start cursor so that two distinct simplified corners cannot claim
// the same original vertex; the result is ascending and duplicate-free.
func mapCorners(orig, simp []geom.Point, simpCorners []int) []int {
	out := make([]int, 0, len(simpCorners))
	if len(orig) == 0 || len(simp) == 0 || len(simpCorners) == 0 {
		return out
	}
	n := len(orig) - 1
	start := 0
	for _, sc := range simpCorners {
		if start >= n {
			break
		}
		corner := simp[sc]
		best := start
		bestD := dist2(orig[start], corner)
		for i := start + 1; i < n; i++ {
			if d := dist2(orig[i], corner); d < bestD {
				bestD = d
				best = i
			}
		}
		out = append(out, best)
		start = best + 1
	}
	sort.Ints(out)
	return dedupInts(out)
}

// Corners finds the corner vertices of the closed ring r by simplifying
// it, detecting corners on the simplified ring, and mapping them back.
func Corners(r []geom.Point) ([]int, error) {
	simp, err := simplifyRing(r, cornerSimplifyTolerance)
	if err != nil {
		return nil, err
	}
	return mapCorners(r, simp, ringCorners(simp)), nil
}

// adjustCorners rotates the closed ring r so that it begins at a corner
// and guarantees at least two corners, returning the adjusted ring and
// corner list. On return corners[0] == 0, len(corners) >= 2, the corners
// are strictly increasing, and every corner index is less than
// len(ring)-1.
func adjustCorners(r []geom.Point, corners []int) ([]geom.Point, []int) {
	ring := make([]geom.Point, len(r)-1)
	copy(ring, r[:len(r)-1]) // drop the closing duplicate

	cs := make([]int, len(corners))
	copy(cs, corners)
	if len(cs) == 0 {
		cs = []int{0}
	}
	if cs[0] != 0 {
		// Rotate the ring to start at a corner, picking the shorter of
		// shifting forward to the first corner or backward to the last.
		shift1 := cs[0]
		shift2 := cs[len(cs)-1] - len(ring)
		mid := shift2
		if shift1 < -shift2 {
			mid = shift1
		}
		if mid >= 0 {
			for i := range cs {
				cs[i] -= mid
			}
			ring = append(ring[mid:], ring[:mid]...)
		} else {
			mid = -mid
			cs = cs[:len(cs)-1]
			for i := range cs {
				cs[i] += mid
			}
			cs = append([]int{0}, cs...)
			ring = append(ring[len(ring)-mid:], ring[:len(ring)-mid]...)
		}
	}
	if len(cs) < 2 {
		// Only one corner: add another at the vertex farthest from the
		// start.
		farthest := 1
		farthestD := dist2(ring[1], ring[0])
		for i := 2; i < len(ring); i++ {
			if d := dist2(ring[i], ring[0]); d > farthestD {
				farthest = i
				farthestD = d
			}
		}
		cs = append(cs, farthest)
	}
	ring = append(ring, ring[0]) // close the ring again
	return ring, cs
}

// PolygonCorners finds and adjusts the corner lists for the outer ring
// and every hole of p. Because adjustment may rotate rings, the adjusted
// polygon is returned along with one corner list per ring, outer first.
func PolygonCorners(p geom.Polygon) (geom.Polygon, [][]int, error) {
	adjusted := make(geom.Polygon, len(p))
	all := make([][]int, len(p))
	for i, ring := range p {
		cs, err := Corners(ring)
		if err != nil {
			return nil, nil, err
		}
		adjusted[i], all[i] = adjustCorners(ring, cs)
	}
	return adjusted, all, nil
}

func sub(a, b geom.Point) geom.Point { return geom.Point{X: a.X - b.X, Y: a.Y - b.Y} }

func dot(u, v geom.Point) float64 { return u.X*v.X + u.Y*v.Y }

func cross(u, v geom.Point) float64 { return u.X*v.Y - u.Y*v.X }

func dist2(a, b geom.Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

func dedupInts(s []int) []int {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}
