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

// Package farmdb holds a relational database of customers, farms, and
// fields with their boundary geometries and guidance swaths, read from and
// written to ISO 11783-10 TASKDATA files, ESRI Shapefiles, and Well-Known
// Text tables. The Inset operation replaces every field's swaths with
// boundary-inset guidance lines computed by the swath package.
package farmdb

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/ctessum/unit"

	"github.com/spatialmodel/farmdb/swath"
)

// An Attr is an attribute that is not part of the model but is preserved
// verbatim for round-trip fidelity. Order is significant.
type Attr struct {
	Key, Value string
}

// A LatLon is a geodetic point on WGS-84, in degrees.
type LatLon struct {
	Lat, Lon float64
}

// NewLatLon validates the coordinate ranges.
func NewLatLon(lat, lon float64) (LatLon, error) {
	if lat < -90 || lat > 90 {
		return LatLon{}, fmt.Errorf("latitude %g out of range [-90,90]", lat)
	}
	if lon <= -180 || lon > 180 {
		return LatLon{}, fmt.Errorf("longitude %g out of range (-180,180]", lon)
	}
	return LatLon{Lat: lat, Lon: lon}, nil
}

// A Path is an ordered open sequence of geodetic points.
type Path []LatLon

// A Ring is a closed sequence of geodetic points (first equals last).
type Ring []LatLon

// A Boundary is one part of a field boundary: an outer ring plus zero or
// more holes.
type Boundary struct {
	Outer      Ring
	Inners     []Ring
	OtherAttrs []Attr
}

// SwathType is the ISO 11783 guidance pattern type (GPN attribute C).
type SwathType int

// Guidance pattern types.
const (
	SwathAB SwathType = iota + 1
	SwathAPlus
	SwathCurve
	SwathPivot
	SwathSpiral
)

// SwathOption is the GPN propagation option (attribute D).
type SwathOption int

// Propagation options.
const (
	OptionCW SwathOption = iota + 1
	OptionCCW
	OptionFull
)

// SwathDirection is the GPN propagation direction (attribute E).
type SwathDirection int

// Propagation directions.
const (
	DirectionBoth SwathDirection = iota + 1
	DirectionLeft
	DirectionRight
	DirectionNone
)

// SwathExtension is the GPN extension behaviour (attribute F).
type SwathExtension int

// Extension behaviours.
const (
	ExtensionBoth SwathExtension = iota + 1
	ExtensionFirst
	ExtensionLast
	ExtensionNone
)

// SwathMethod is the GPN GNSS method (attribute I).
type SwathMethod int

// GNSS methods.
const (
	MethodNoGPS SwathMethod = iota
	MethodGNSS
	MethodDGNSS
	MethodPreciseGNSS
	MethodRTKInt
	MethodRTKFloat
	MethodDR
	MethodManual
	MethodSim
	MethodPC SwathMethod = 16
	MethodOther
)

// A Swath is a guidance pattern: one or more guidance polylines under a
// common name. Optional attributes are nil when absent from the input.
type Swath struct {
	Name       string
	Type       SwathType
	Option     *SwathOption
	Direction  *SwathDirection
	Extension  *SwathExtension
	Heading    *float64 // degrees
	Method     *SwathMethod
	OtherAttrs []Attr
	Paths      []Path
}

// A Customer owns farms and fields.
type Customer struct {
	Name       string
	OtherAttrs []Attr
}

// A Farm belongs to at most one customer. Customer is an index into
// FarmDb.Customers, or -1.
type Farm struct {
	Name       string
	Customer   int
	OtherAttrs []Attr
}

// A Field owns its boundary parts and swaths. Customer and Farm are
// indexes into the owning FarmDb, or -1.
type Field struct {
	Name       string
	Code       string
	Area       uint
	Customer   int
	Farm       int
	OtherAttrs []Attr
	Parts      []Boundary
	Swaths     []Swath
}

// A ValuePreset is a VPN value presentation record.
type ValuePreset struct {
	ID         string
	Offset     int
	Scale      float64
	Decimals   int
	Units      string
	Color      string
	OtherAttrs []Attr
}

// A FarmDb is the flattened relational container. It is the sole owner of
// all customer, farm, and field records; cross-references between them are
// integer handles.
type FarmDb struct {
	VersionMajor       int
	VersionMinor       int
	DataTransferOrigin int // -1 means unset

	SoftwareManufacturer string
	SoftwareVersion      string

	OtherAttrs []Attr

	Customers []*Customer
	Farms     []*Farm
	Fields    []*Field
	Values    []ValuePreset
}

// NewFarmDb returns an empty database with the default schema version.
func NewFarmDb() *FarmDb {
	return &FarmDb{
		VersionMajor:       3,
		VersionMinor:       0,
		DataTransferOrigin: -1,
	}
}

var idRe = regexp.MustCompile(`^(CTR|FRM|PFD|GPN|GGP)-?([0-9]+)$`)

// parseID extracts the numeric part of an ISO 11783 id such as "CTR1",
// checking the prefix. A "-" between prefix and number is accepted.
func parseID(prefix, s string) (int, error) {
	m := idRe.FindStringSubmatch(s)
	if m == nil || m[1] != prefix {
		return 0, fmt.Errorf("invalid %s id %q", prefix, s)
	}
	var n int
	if _, err := fmt.Sscanf(m[2], "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s id %q", prefix, s)
	}
	return n, nil
}

// Inset replaces every field's swath collection with boundary-inset
// guidance swaths at the given distance (a length quantity). For a field
// with several boundary parts the swath covering part f is named name for
// the first part and "name F<f>" after that; when the inset of one part
// splits into several polygons each polygon gets a "_<n>" suffix; hole
// swaths are named "name I<i>" with i counting up per field.
func (db *FarmDb) Inset(name string, distance *unit.Unit) error {
	for _, field := range db.Fields {
		var swaths []Swath
		holeN := 0
		for f, part := range field.Parts {
			poly, err := part.Geom()
			if err != nil {
				return fmt.Errorf("farmdb: field %q part %d: %w", field.Name, f+1, err)
			}
			res, err := swath.BoundarySwathsGeo(poly, distance, nil)
			if err != nil {
				return fmt.Errorf("farmdb: field %q part %d: %w", field.Name, f+1, err)
			}
			base := name
			if f > 0 {
				base = fmt.Sprintf("%s F%d", name, f+1)
			}
			for n, ps := range res {
				outerName := base
				if len(res) > 1 {
					outerName = fmt.Sprintf("%s_%d", base, n+1)
				}
				swaths = append(swaths, guidanceSwath(outerName, ps.Outer))
				for _, hole := range ps.Holes {
					holeN++
					swaths = append(swaths, guidanceSwath(fmt.Sprintf("%s I%d", name, holeN), hole))
				}
			}
		}
		field.Swaths = swaths
	}
	return nil
}

// SortPartsByArea orders the field's boundary parts by descending area,
// measured in a locally equidistant planar frame.
func (f *Field) SortPartsByArea() error {
	if len(f.Parts) < 2 {
		return nil
	}
	areas := make([]float64, len(f.Parts))
	for i, part := range f.Parts {
		a, err := part.Area()
		if err != nil {
			return fmt.Errorf("farmdb: field %q part %d: %w", f.Name, i+1, err)
		}
		areas[i] = a
	}
	idx := make([]int, len(f.Parts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return areas[idx[a]] > areas[idx[b]] })
	sorted := make([]Boundary, len(f.Parts))
	for i, j := range idx {
		sorted[i] = f.Parts[j]
	}
	f.Parts = sorted
	return nil
}

// farm returns the farm for handle i, or nil.
func (db *FarmDb) farm(i int) *Farm {
	if i < 0 || i >= len(db.Farms) {
		return nil
	}
	return db.Farms[i]
}
