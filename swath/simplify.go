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

	"github.com/ctessum/geom"
)

// MinSimplifyTolerance is the smallest accepted simplification tolerance
// in metres. The retry loop in Simplify gives up once halving drops the
// tolerance below this value.
const MinSimplifyTolerance = 0.01

// Simplify removes points from g (a ring-like LineString, Polygon or
// MultiPolygon) within the given tolerance in metres, without letting the
// result become invalid. If simplification produces self-intersections or
// leaves a ring with too few points, the tolerance is halved and the
// operation retried; if no tolerance of at least MinSimplifyTolerance
// succeeds, the original geometry is returned unchanged. A result whose
// only defect is ring orientation is returned as-is for the caller to
// re-orient. Any other validity failure is an error.
func Simplify(g geom.Geom, tolerance float64) (geom.Geom, error) {
	if tolerance < MinSimplifyTolerance {
		return nil, fmt.Errorf("swath: simplify tolerance %g m is less than the minimum %g m",
			tolerance, MinSimplifyTolerance)
	}
	s, ok := g.(geom.Simplifier)
	if !ok {
		return nil, fmt.Errorf("swath: cannot simplify geometry type %T", g)
	}
	for tolerance >= MinSimplifyTolerance {
		simp := s.Simplify(tolerance)
		err := Validate(simp)
		if err == nil {
			return simp, nil
		}
		switch failureOf(err) {
		case FailureWrongOrientation:
			return simp, nil
		case FailureSelfIntersection, FailureFewPoints:
			tolerance /= 2
		default:
			return nil, fmt.Errorf("swath: simplify produced an invalid result: %w", err)
		}
	}
	return g, nil
}

// simplifyRing simplifies the closed ring r, with the same back-off
// behaviour as Simplify.
func simplifyRing(r []geom.Point, tolerance float64) ([]geom.Point, error) {
	g, err := Simplify(geom.LineString(r), tolerance)
	if err != nil {
		return nil, err
	}
	return []geom.Point(g.(geom.LineString)), nil
}
