package farmdb

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteWKT(t *testing.T) {
	db := NewFarmDb()
	field := &Field{Name: "North 40", Customer: -1, Farm: -1}
	field.Parts = append(field.Parts,
		Boundary{Outer: Ring{
			{Lat: 45, Lon: 0}, {Lat: 45, Lon: 0.001},
			{Lat: 45.001, Lon: 0.001}, {Lat: 45.001, Lon: 0},
			{Lat: 45, Lon: 0},
		}},
		Boundary{Outer: Ring{
			{Lat: 45.01, Lon: 0}, {Lat: 45.01, Lon: 0.001},
			{Lat: 45.011, Lon: 0.001}, {Lat: 45.011, Lon: 0},
			{Lat: 45.01, Lon: 0},
		}},
	)
	field.Swaths = append(field.Swaths, Swath{
		Name: "Inset",
		Type: SwathCurve,
		Paths: []Path{
			{{Lat: 45.0001, Lon: 0.0001}, {Lat: 45.0001, Lon: 0.0009}},
			{{Lat: 45.0001, Lon: 0.0009}, {Lat: 45.0009, Lon: 0.0009}},
		},
	})
	db.Fields = append(db.Fields, field)

	var buf bytes.Buffer
	if err := db.WriteWKT(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, have %d:\n%s", len(lines), buf.String())
	}

	wantPrefixes := []struct {
		part, geomType string
	}{
		{"Boundary F1", "POLYGON"},
		{"Boundary F2", "POLYGON"},
		{"Inset", "MULTILINESTRING"},
	}
	for i, line := range lines {
		cols := strings.Split(line, "\t")
		if len(cols) != 3 {
			t.Fatalf("line %d: want 3 tab-separated columns, have %d: %q", i, len(cols), line)
		}
		if cols[0] != "North 40" {
			t.Errorf("line %d: field name %q", i, cols[0])
		}
		if cols[1] != wantPrefixes[i].part {
			t.Errorf("line %d: want part %q, have %q", i, wantPrefixes[i].part, cols[1])
		}
		if !strings.HasPrefix(cols[2], wantPrefixes[i].geomType) {
			t.Errorf("line %d: want %s geometry, have %q", i, wantPrefixes[i].geomType, cols[2])
		}
	}
}

func TestWriteWKTSinglePart(t *testing.T) {
	db := NewFarmDb()
	field := &Field{Name: "F", Customer: -1, Farm: -1}
	field.Parts = append(field.Parts, Boundary{Outer: Ring{
		{Lat: 45, Lon: 0}, {Lat: 45, Lon: 0.001},
		{Lat: 45.001, Lon: 0.001}, {Lat: 45, Lon: 0},
	}})
	db.Fields = append(db.Fields, field)

	var buf bytes.Buffer
	if err := db.WriteWKT(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "F\tBoundary\tPOLYGON") {
		t.Errorf("single-part boundary should be named \"Boundary\":\n%s", buf.String())
	}
}
