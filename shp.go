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
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	shpencoding "github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/op"
	goshp "github.com/jonas-p/go-shp"
)

// dbfSchema is the exact DBF layout the importer accepts, in order.
var dbfSchema = [...]string{"fid", "CLIENTNAME", "FARM_NAME", "FIELD_NAME", "WITH_HOLES"}

// ReadShapefile reads a FarmDb from an ESRI Shapefile. The importer is
// intentionally strict:
//
//   - only polygon shapefiles are accepted;
//   - the sibling .shx and .dbf files must exist;
//   - the DBF schema must match dbfSchema exactly;
//   - the record counts of the .shp and .dbf must agree.
//
// Ring points are read as (lon, lat) degrees exactly as stored (part 0 is
// the outer ring, remaining parts are holes), with a single
// orientation-correcting pass afterwards. Customers, farms, and fields are
// deduplicated by client, (client, farm), and (client, farm, field) name
// keys, and the cross-reference invariants are checked for every record.
func ReadShapefile(path string) (*FarmDb, error) {
	if filepath.Ext(path) != ".shp" {
		return nil, fmt.Errorf("farmdb: %s: expected a .shp file", path)
	}
	base := strings.TrimSuffix(path, ".shp")
	for _, ext := range []string{".shx", ".dbf"} {
		if _, err := os.Stat(base + ext); err != nil {
			return nil, fmt.Errorf("farmdb: %s: missing required sibling %s file", path, ext)
		}
	}

	dec, err := shpencoding.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("farmdb: %s: %w", path, err)
	}
	defer dec.Close()

	if dec.GeometryType != goshp.POLYGON {
		return nil, fmt.Errorf("farmdb: %s: unsupported shape type %d (only polygons are allowed)",
			path, dec.GeometryType)
	}
	if err := checkDBFSchema(path, dec.Fields()); err != nil {
		return nil, err
	}

	db := NewFarmDb()
	customers := map[string]int{}
	farms := map[[2]string]int{}
	fields := map[[3]string]int{}

	row := 0
	for {
		g, attrs, more := dec.DecodeRowFields("CLIENTNAME", "FARM_NAME", "FIELD_NAME")
		if !more {
			break
		}
		row++
		clientName, err := requireDBFString(path, row, attrs, "CLIENTNAME")
		if err != nil {
			return nil, err
		}
		farmName, err := requireDBFString(path, row, attrs, "FARM_NAME")
		if err != nil {
			return nil, err
		}
		fieldName, err := requireDBFString(path, row, attrs, "FIELD_NAME")
		if err != nil {
			return nil, err
		}

		custIdx, ok := customers[clientName]
		if !ok {
			custIdx = len(db.Customers)
			db.Customers = append(db.Customers, &Customer{Name: clientName})
			customers[clientName] = custIdx
		}

		farmKey := [2]string{clientName, farmName}
		farmIdx, ok := farms[farmKey]
		if !ok {
			farmIdx = len(db.Farms)
			db.Farms = append(db.Farms, &Farm{Name: farmName, Customer: custIdx})
			farms[farmKey] = farmIdx
		}
		if db.Farms[farmIdx].Customer != custIdx {
			return nil, fmt.Errorf("farmdb: %s(%d): farm customer mismatch for this record", path, row)
		}

		fieldKey := [3]string{clientName, farmName, fieldName}
		fieldIdx, ok := fields[fieldKey]
		if !ok {
			fieldIdx = len(db.Fields)
			db.Fields = append(db.Fields, &Field{Name: fieldName, Customer: custIdx, Farm: farmIdx})
			fields[fieldKey] = fieldIdx
		}
		field := db.Fields[fieldIdx]
		if field.Farm != farmIdx || field.Customer != custIdx {
			return nil, fmt.Errorf("farmdb: %s(%d): field farm/customer mismatch for this record", path, row)
		}
		if db.Farms[field.Farm].Customer != field.Customer {
			return nil, fmt.Errorf("farmdb: %s(%d): invariant violated: field.farm.customer != field.customer",
				path, row)
		}

		poly, ok := g.(geom.Polygon)
		if !ok || len(poly) == 0 {
			return nil, fmt.Errorf("farmdb: %s(%d): polygon has no rings", path, row)
		}
		// Literal preservation: no closure, reordering, or validation;
		// only a final orientation pass.
		if err := op.FixOrientation(poly); err != nil {
			return nil, fmt.Errorf("farmdb: %s(%d): %w", path, row, err)
		}
		field.Parts = append(field.Parts, boundaryOf(poly))
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("farmdb: %s: %w", path, err)
	}
	if n := dec.AttributeCount(); n != row {
		return nil, fmt.Errorf("farmdb: %s: record count mismatch: SHP has %d, DBF has %d",
			path, row, n)
	}
	return db, nil
}

func checkDBFSchema(path string, fields []goshp.Field) error {
	if len(fields) != len(dbfSchema) {
		return fmt.Errorf("farmdb: %s: DBF field count mismatch: expected %d, got %d",
			path, len(dbfSchema), len(fields))
	}
	for i, want := range dbfSchema {
		if got := fields[i].String(); got != want {
			return fmt.Errorf("farmdb: %s: DBF schema mismatch at field index %d: expected %q, got %q",
				path, i, want, got)
		}
	}
	return nil
}

func requireDBFString(path string, row int, attrs map[string]string, key string) (string, error) {
	v := strings.TrimSpace(attrs[key])
	if v == "" {
		return "", fmt.Errorf("farmdb: %s(%d): missing or empty DBF field %q", path, row, key)
	}
	return v, nil
}

// ReadShapefileZip reads a FarmDb from a zip archive holding a shapefile
// set.
func ReadShapefileZip(path string) (*FarmDb, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("farmdb: %s: %w", path, err)
	}
	defer zr.Close()
	return readShapefileZip(path, &zr.Reader)
}

// readShapefileZip extracts the shapefile set in zr into a temporary
// directory, which is removed again on all paths, and imports it. The
// archive must hold between 3 and 8 entries including the .shp, .shx, and
// .dbf members; .prj and .cpg members are carried along when present.
func readShapefileZip(path string, zr *zip.Reader) (*FarmDb, error) {
	if len(zr.File) < 3 {
		return nil, fmt.Errorf("farmdb: %s: zip contains too few entries", path)
	}
	if len(zr.File) > 8 {
		return nil, fmt.Errorf("farmdb: %s: zip contains too many entries", path)
	}

	var shpEntry *zip.File
	for _, f := range zr.File {
		if filepath.Ext(f.Name) == ".shp" {
			shpEntry = f
			break
		}
	}
	if shpEntry == nil {
		return nil, fmt.Errorf("farmdb: %s: cannot find .shp file", path)
	}
	find := func(ext string) *zip.File {
		want := strings.TrimSuffix(shpEntry.Name, ".shp") + ext
		for _, f := range zr.File {
			if f.Name == want {
				return f
			}
		}
		return nil
	}
	shxEntry := find(".shx")
	dbfEntry := find(".dbf")
	if shxEntry == nil || dbfEntry == nil {
		return nil, fmt.Errorf("farmdb: %s: cannot find .shx and .dbf files", path)
	}

	tmpDir, err := os.MkdirTemp("", "farmdb_shp_")
	if err != nil {
		return nil, fmt.Errorf("farmdb: %s: %w", path, err)
	}
	defer os.RemoveAll(tmpDir)

	stem := strings.TrimSuffix(filepath.Base(shpEntry.Name), ".shp")
	base := filepath.Join(tmpDir, stem)
	// Each required entry is extracted exactly once.
	for ext, entry := range map[string]*zip.File{
		".shp": shpEntry, ".shx": shxEntry, ".dbf": dbfEntry,
		".prj": find(".prj"), ".cpg": find(".cpg"),
	} {
		if entry == nil {
			continue
		}
		if err := extractEntry(entry, base+ext); err != nil {
			return nil, fmt.Errorf("farmdb: %s: %w", path, err)
		}
	}
	return ReadShapefile(base + ".shp")
}

func extractEntry(f *zip.File, outPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	defer rc.Close()
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	return out.Close()
}
