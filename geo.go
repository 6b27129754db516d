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

package farmdb

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/op"

	"github.com/spatialmodel/farmdb/swath"
)

// Geometry interchange between the model's geodetic types and the geom
// types the swath package computes with. Geographic geom.Points hold
// degrees with X=longitude, Y=latitude.

func (p LatLon) point() geom.Point {
	return geom.Point{X: p.Lon, Y: p.Lat}
}

func latLonOf(pt geom.Point) LatLon {
	return LatLon{Lat: pt.Y, Lon: pt.X}
}

func (p Path) lineString() geom.LineString {
	ls := make(geom.LineString, len(p))
	for i, pt := range p {
		ls[i] = pt.point()
	}
	return ls
}

func pathOf(ls geom.LineString) Path {
	p := make(Path, len(ls))
	for i, pt := range ls {
		p[i] = latLonOf(pt)
	}
	return p
}

func pathsOf(mls geom.MultiLineString) []Path {
	paths := make([]Path, len(mls))
	for i, ls := range mls {
		paths[i] = pathOf(ls)
	}
	return paths
}

// guidanceSwath wraps one extracted guidance MultiLineString as a Curve
// swath record.
func guidanceSwath(name string, mls geom.MultiLineString) Swath {
	return Swath{Name: name, Type: SwathCurve, Paths: pathsOf(mls)}
}

// closedRing converts r to a closed geom ring, appending the closing
// duplicate if the input lacks one.
func closedRing(r Ring) []geom.Point {
	ring := make([]geom.Point, 0, len(r)+1)
	for _, pt := range r {
		ring = append(ring, pt.point())
	}
	if len(ring) > 0 && !ring[0].Equals(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring
}

// Geom converts the boundary to a validated geom.Polygon: rings closed,
// outer counter-clockwise and holes clockwise.
func (b *Boundary) Geom() (geom.Polygon, error) {
	p := make(geom.Polygon, 0, 1+len(b.Inners))
	p = append(p, closedRing(b.Outer))
	for _, r := range b.Inners {
		p = append(p, closedRing(r))
	}
	if err := op.FixOrientation(p); err != nil {
		return nil, fmt.Errorf("correcting ring orientation: %w", err)
	}
	if err := swath.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Area is the boundary's area in square metres, measured in a locally
// equidistant planar frame.
func (b *Boundary) Area() (float64, error) {
	p, err := b.Geom()
	if err != nil {
		return 0, err
	}
	proj, err := swath.NewProjection(p)
	if err != nil {
		return 0, err
	}
	xy, err := p.Transform(proj.Forward())
	if err != nil {
		return 0, err
	}
	return xy.(geom.Polygon).Area(), nil
}

// boundaryOf converts a validated geom.Polygon back to a Boundary.
func boundaryOf(p geom.Polygon) Boundary {
	var b Boundary
	for i, ring := range p {
		r := make(Ring, len(ring))
		for j, pt := range ring {
			r[j] = latLonOf(pt)
		}
		if i == 0 {
			b.Outer = r
		} else {
			b.Inners = append(b.Inners, r)
		}
	}
	return b
}
