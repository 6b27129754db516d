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
	"io"

	tgeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// wktDecimalDigits bounds coordinate precision in WKT output.
const wktDecimalDigits = 15

// WriteWKT writes the database as a tab-separated Well-Known-Text table:
// one line per boundary part and one per swath, each carrying the field
// name, the part name, and the geometry. Boundary parts are named
// "Boundary", or "Boundary F<k>" when the field has more than one part;
// swath names are the ones assigned by the inset operation.
func (db *FarmDb) WriteWKT(w io.Writer) error {
	for _, field := range db.Fields {
		multi := len(field.Parts) > 1
		for i, part := range field.Parts {
			partName := "Boundary"
			if multi {
				partName = fmt.Sprintf("Boundary F%d", i+1)
			}
			s, err := wkt.Marshal(boundaryWKTGeom(&part),
				wkt.EncodeOptionWithMaxDecimalDigits(wktDecimalDigits))
			if err != nil {
				return fmt.Errorf("field %q %s: %w", field.Name, partName, err)
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", field.Name, partName, s); err != nil {
				return err
			}
		}
		for _, sw := range field.Swaths {
			s, err := wkt.Marshal(swathWKTGeom(&sw),
				wkt.EncodeOptionWithMaxDecimalDigits(wktDecimalDigits))
			if err != nil {
				return fmt.Errorf("field %q swath %q: %w", field.Name, sw.Name, err)
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", field.Name, sw.Name, s); err != nil {
				return err
			}
		}
	}
	return nil
}

// boundaryWKTGeom converts a boundary to a WKT polygon, closing unclosed
// rings.
func boundaryWKTGeom(b *Boundary) *tgeom.Polygon {
	rings := make([][]tgeom.Coord, 0, 1+len(b.Inners))
	rings = append(rings, ringCoords(b.Outer))
	for _, r := range b.Inners {
		rings = append(rings, ringCoords(r))
	}
	return tgeom.NewPolygon(tgeom.XY).MustSetCoords(rings)
}

// swathWKTGeom converts a swath's guidance lines to a WKT
// multi-linestring.
func swathWKTGeom(sw *Swath) *tgeom.MultiLineString {
	lines := make([][]tgeom.Coord, len(sw.Paths))
	for i, p := range sw.Paths {
		lines[i] = pathCoords(p)
	}
	return tgeom.NewMultiLineString(tgeom.XY).MustSetCoords(lines)
}

func pathCoords(p []LatLon) []tgeom.Coord {
	coords := make([]tgeom.Coord, len(p))
	for i, pt := range p {
		coords[i] = tgeom.Coord{pt.Lon, pt.Lat}
	}
	return coords
}

func ringCoords(r Ring) []tgeom.Coord {
	coords := pathCoords(r)
	if len(coords) > 0 && !coords[0].Equal(tgeom.XY, coords[len(coords)-1]) {
		coords = append(coords, coords[0])
	}
	return coords
}
