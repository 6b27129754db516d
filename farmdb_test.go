package farmdb

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/unit"

	"github.com/spatialmodel/farmdb/swath"
)

// geoRing unprojects a closed planar ring (metres) into geodetic
// coordinates around 45°N 0°E.
func geoRing(t *testing.T, planar [][2]float64) Ring {
	t.Helper()
	proj, err := swath.NewProjectionOrigin(geom.Point{X: 0, Y: 45})
	if err != nil {
		t.Fatal(err)
	}
	inv := proj.Inverse()
	ring := make(Ring, 0, len(planar)+1)
	for _, c := range planar {
		lon, lat, err := inv(c[0], c[1])
		if err != nil {
			t.Fatal(err)
		}
		ring = append(ring, LatLon{Lat: lat, Lon: lon})
	}
	ring = append(ring, ring[0])
	return ring
}

func planarSquare(lo, hi, dx float64) [][2]float64 {
	return [][2]float64{{lo + dx, lo}, {hi + dx, lo}, {hi + dx, hi}, {lo + dx, hi}}
}

func TestInsetNaming(t *testing.T) {
	db := NewFarmDb()
	db.Customers = append(db.Customers, &Customer{Name: "Brown"})
	db.Farms = append(db.Farms, &Farm{Name: "Home", Customer: 0})
	field := &Field{Name: "North 40", Customer: 0, Farm: 0}
	field.Parts = append(field.Parts,
		Boundary{
			Outer:  geoRing(t, planarSquare(0, 100, 0)),
			Inners: []Ring{geoRing(t, planarSquare(40, 60, 0))},
		},
		Boundary{
			Outer: geoRing(t, planarSquare(0, 80, 300)),
		},
	)
	db.Fields = append(db.Fields, field)

	if err := db.Inset("Inset", unit.New(5, unit.Meter)); err != nil {
		t.Fatal(err)
	}
	want := []string{"Inset", "Inset I1", "Inset F2"}
	if len(field.Swaths) != len(want) {
		t.Fatalf("want %d swaths, have %d", len(want), len(field.Swaths))
	}
	for i, name := range want {
		if field.Swaths[i].Name != name {
			t.Errorf("swath %d: want name %q, have %q", i, name, field.Swaths[i].Name)
		}
		if field.Swaths[i].Type != SwathCurve {
			t.Errorf("swath %d: want Curve type, have %d", i, field.Swaths[i].Type)
		}
		if len(field.Swaths[i].Paths) == 0 {
			t.Errorf("swath %d: no paths", i)
		}
	}
}

func TestInsetSplitNaming(t *testing.T) {
	// A dumbbell part whose inset splits into two polygons: the swaths
	// get _1 and _2 suffixes.
	dumbbell := [][2]float64{
		{0, 0}, {40, 0}, {40, 15}, {60, 15}, {60, 0}, {100, 0},
		{100, 40}, {60, 40}, {60, 25}, {40, 25}, {40, 40}, {0, 40},
	}
	db := NewFarmDb()
	field := &Field{Name: "Split", Customer: -1, Farm: -1}
	field.Parts = append(field.Parts, Boundary{Outer: geoRing(t, dumbbell)})
	db.Fields = append(db.Fields, field)

	if err := db.Inset("Inset", unit.New(6, unit.Meter)); err != nil {
		t.Fatal(err)
	}
	want := []string{"Inset_1", "Inset_2"}
	if len(field.Swaths) != len(want) {
		t.Fatalf("want %d swaths, have %d", len(want), len(field.Swaths))
	}
	for i, name := range want {
		if field.Swaths[i].Name != name {
			t.Errorf("swath %d: want name %q, have %q", i, name, field.Swaths[i].Name)
		}
	}
}

func TestInsetReplacesSwaths(t *testing.T) {
	db := NewFarmDb()
	field := &Field{Name: "F", Customer: -1, Farm: -1}
	field.Parts = append(field.Parts, Boundary{Outer: geoRing(t, planarSquare(0, 100, 0))})
	field.Swaths = append(field.Swaths, Swath{Name: "Old", Type: SwathAB})
	db.Fields = append(db.Fields, field)

	if err := db.Inset("New", unit.New(5, unit.Meter)); err != nil {
		t.Fatal(err)
	}
	for _, sw := range field.Swaths {
		if sw.Name == "Old" {
			t.Error("pre-existing swath survived the inset")
		}
	}
}

func TestSortPartsByArea(t *testing.T) {
	field := &Field{Name: "F", Customer: -1, Farm: -1}
	field.Parts = append(field.Parts,
		Boundary{Outer: geoRing(t, planarSquare(0, 50, 0))},
		Boundary{Outer: geoRing(t, planarSquare(0, 100, 300))},
	)
	if err := field.SortPartsByArea(); err != nil {
		t.Fatal(err)
	}
	a0, err := field.Parts[0].Area()
	if err != nil {
		t.Fatal(err)
	}
	a1, err := field.Parts[1].Area()
	if err != nil {
		t.Fatal(err)
	}
	if a0 < a1 {
		t.Errorf("parts not sorted by descending area: %g < %g", a0, a1)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		prefix, id string
		want       int
		ok         bool
	}{
		{"CTR", "CTR1", 1, true},
		{"CTR", "CTR-12", 12, true},
		{"PFD", "PFD007", 7, true},
		{"CTR", "FRM1", 0, false},
		{"CTR", "CTR", 0, false},
		{"CTR", "CTRx", 0, false},
		{"GPN", "GPN42", 42, true},
	}
	for _, test := range tests {
		have, err := parseID(test.prefix, test.id)
		if test.ok && err != nil {
			t.Errorf("parseID(%q, %q): unexpected error %v", test.prefix, test.id, err)
			continue
		}
		if !test.ok {
			if err == nil {
				t.Errorf("parseID(%q, %q): want error, have %d", test.prefix, test.id, have)
			}
			continue
		}
		if have != test.want {
			t.Errorf("parseID(%q, %q): want %d, have %d", test.prefix, test.id, test.want, have)
		}
	}
}

func TestNewLatLon(t *testing.T) {
	if _, err := NewLatLon(45, -93); err != nil {
		t.Errorf("valid point rejected: %v", err)
	}
	if _, err := NewLatLon(91, 0); err == nil {
		t.Error("latitude 91 accepted")
	}
	if _, err := NewLatLon(0, -180); err == nil {
		t.Error("longitude -180 accepted (range is (-180,180])")
	}
	if _, err := NewLatLon(0, 181); err == nil {
		t.Error("longitude 181 accepted")
	}
}
