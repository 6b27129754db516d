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

// Package swath computes boundary-inset guidance swaths for field
// polygons: polylines that trace the boundary at a fixed interior offset,
// split at the convex corners of the inset contour.
//
// The package is pure with respect to its geometric inputs; operations may
// be called concurrently on disjoint inputs without synchronization.
package swath

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/unit"
)

// DefaultSimplifyTolerance is the cleanup tolerance applied to the inset
// contour when the caller does not supply one.
var DefaultSimplifyTolerance = unit.New(0.10, unit.Meter)

// PolygonSwaths holds the swaths extracted from one inset polygon: one
// MultiLineString covering the outer ring and one per hole.
type PolygonSwaths struct {
	Outer geom.MultiLineString
	Holes []geom.MultiLineString
}

// ExtractSwaths partitions the closed ring r into open polylines between
// consecutive corners. Adjacent swaths share the corner vertex at their
// join, so each corner appears in exactly two swaths and the ring's edges
// are covered exactly once. The corner list must satisfy the
// postconditions of corner adjustment (corners[0] == 0, at least two
// strictly increasing corners, all less than len(r)-1); violations are
// programming errors and panic.
func ExtractSwaths(r []geom.Point, corners []int) geom.MultiLineString {
	if len(corners) < 2 || corners[0] != 0 {
		panic("swath: ExtractSwaths: corner list is not adjusted")
	}
	if !r[0].Equals(r[len(r)-1]) {
		panic("swath: ExtractSwaths: ring is not closed")
	}
	swaths := make(geom.MultiLineString, 0, len(corners))
	for i, start := range corners {
		end := len(r) - 1
		if i+1 < len(corners) {
			end = corners[i+1]
		}
		if start >= end || end >= len(r) {
			panic("swath: ExtractSwaths: corner list is not strictly increasing")
		}
		line := make(geom.LineString, end-start+1)
		copy(line, r[start:end+1])
		swaths = append(swaths, line)
	}
	return swaths
}

// BoundarySwaths computes guidance swaths for the planar polygon p
// (metres): the inset contour at the given offset, cleaned at the given
// simplification tolerance (DefaultSimplifyTolerance if nil), split into
// swaths at its convex corners. One PolygonSwaths is returned per inset
// polygon; an empty slice means the polygon collapsed entirely.
func BoundarySwaths(p geom.Polygon, offset, simplifyTol *unit.Unit) ([]PolygonSwaths, error) {
	offM, err := lengthValue("offset", offset)
	if err != nil {
		return nil, err
	}
	if simplifyTol == nil {
		simplifyTol = DefaultSimplifyTolerance
	}
	tolM, err := lengthValue("simplification tolerance", simplifyTol)
	if err != nil {
		return nil, err
	}

	insetMP, err := Inset(p, offM)
	if err != nil {
		return nil, err
	}
	if len(insetMP) == 0 {
		return nil, nil
	}
	simp, err := Simplify(insetMP, tolM)
	if err != nil {
		return nil, err
	}
	var out []PolygonSwaths
	for _, poly := range simp.(geom.MultiPolygon) {
		adjusted, corners, err := PolygonCorners(poly)
		if err != nil {
			return nil, err
		}
		ps := PolygonSwaths{Outer: ExtractSwaths(adjusted[0], corners[0])}
		for k, hole := range adjusted[1:] {
			ps.Holes = append(ps.Holes, ExtractSwaths(hole, corners[1+k]))
		}
		out = append(out, ps)
	}
	return out, nil
}

// BoundarySwathsGeo is like BoundarySwaths but takes a geographic polygon
// (degrees, X=longitude, Y=latitude) and returns geographic swaths. The
// polygon is projected into a locally equidistant planar frame, processed
// there, and the results projected back.
func BoundarySwathsGeo(p geom.Polygon, offset, simplifyTol *unit.Unit) ([]PolygonSwaths, error) {
	proj, err := NewProjection(p)
	if err != nil {
		return nil, err
	}
	xyGeom, err := p.Transform(proj.Forward())
	if err != nil {
		return nil, fmt.Errorf("swath: projecting polygon: %w", err)
	}
	planar, err := BoundarySwaths(xyGeom.(geom.Polygon), offset, simplifyTol)
	if err != nil {
		return nil, err
	}
	inv := proj.Inverse()
	out := make([]PolygonSwaths, len(planar))
	for i, ps := range planar {
		o, err := ps.Outer.Transform(inv)
		if err != nil {
			return nil, fmt.Errorf("swath: unprojecting swaths: %w", err)
		}
		out[i].Outer = o.(geom.MultiLineString)
		for _, hole := range ps.Holes {
			h, err := hole.Transform(inv)
			if err != nil {
				return nil, fmt.Errorf("swath: unprojecting swaths: %w", err)
			}
			out[i].Holes = append(out[i].Holes, h.(geom.MultiLineString))
		}
	}
	return out, nil
}

// lengthValue checks that u is a length quantity and returns its value in
// metres.
func lengthValue(what string, u *unit.Unit) (float64, error) {
	if u == nil {
		return 0, fmt.Errorf("swath: %s is nil", what)
	}
	if err := u.Check(unit.Meter); err != nil {
		return 0, fmt.Errorf("swath: %s: %w", what, err)
	}
	return u.Value(), nil
}
