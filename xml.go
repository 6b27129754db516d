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
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Log receives warnings about ignored elements and attributes. The model
// and the swath package never log.
var Log logrus.FieldLogger = logrus.StandardLogger()

// ISO 11783-10 constants shared by the reader and the writer.
const (
	rootName         = "ISO11783_TaskData"
	taskDataZipEntry = "TASKDATA/TASKDATA.XML"

	attrVersionMajor       = "VersionMajor"
	attrVersionMinor       = "VersionMinor"
	attrDataTransferOrigin = "DataTransferOrigin"
	attrSWManufacturer     = "ManagementSoftwareManufacturer"
	attrSWVersion          = "ManagementSoftwareVersion"
)

// ISO 11783 type codes.
const (
	polygonBoundary = 1

	lineExterior = 1
	lineInterior = 2
	lineGuidance = 5

	pointGuideA     = 6
	pointGuideB     = 7
	pointGuidePoint = 9
	pointField      = 10
)

// ReadFile reads a FarmDb from path. A ".xml" or ".XML" file is parsed as
// an ISO 11783-10 TASKDATA document. A ".zip" archive containing
// TASKDATA/TASKDATA.XML is read the same way; any other zip archive is
// treated as a zipped shapefile set.
func ReadFile(path string) (*FarmDb, error) {
	switch filepath.Ext(path) {
	case ".xml", ".XML":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("farmdb: %w", err)
		}
		defer f.Close()
		db, err := Read(f)
		if err != nil {
			return nil, fmt.Errorf("farmdb: %s: %w", path, err)
		}
		return db, nil
	case ".zip":
		return readZip(path)
	default:
		return nil, fmt.Errorf("farmdb: %s: invalid filename extension", path)
	}
}

// readZip reads a zip archive: TASKDATA if it contains the standard entry,
// otherwise a shapefile set.
func readZip(path string) (*FarmDb, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("farmdb: %s: %w", path, err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != taskDataZipEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("farmdb: %s: %s: %w", path, f.Name, err)
		}
		defer rc.Close()
		db, err := Read(rc)
		if err != nil {
			return nil, fmt.Errorf("farmdb: %s: %s: %w", path, f.Name, err)
		}
		return db, nil
	}
	return readShapefileZip(path, &zr.Reader)
}

// Read parses an ISO 11783-10 TASKDATA document.
func Read(r io.Reader) (*FarmDb, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("missing root <%s>", rootName)
		}
		if err != nil {
			return nil, fmt.Errorf("XML parse error: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != rootName {
			return nil, fmt.Errorf("unexpected root <%s>, want <%s>", se.Name.Local, rootName)
		}
		return readRoot(dec, se)
	}
}

type reader struct {
	db *FarmDb

	custIDs  []int
	farmIDs  []int
	fieldIDs []int
}

func readRoot(dec *xml.Decoder, root xml.StartElement) (*FarmDb, error) {
	rd := &reader{db: NewFarmDb()}
	db := rd.db
	db.VersionMajor = -1
	db.VersionMinor = -1
	for _, a := range root.Attr {
		switch a.Name.Local {
		case attrVersionMajor:
			v, err := strconv.Atoi(a.Value)
			if err != nil {
				return nil, invalidAttr(root, attrVersionMajor, a.Value)
			}
			db.VersionMajor = v
		case attrVersionMinor:
			v, err := strconv.Atoi(a.Value)
			if err != nil {
				return nil, invalidAttr(root, attrVersionMinor, a.Value)
			}
			db.VersionMinor = v
		case attrDataTransferOrigin:
			v, err := strconv.Atoi(a.Value)
			if err != nil {
				return nil, invalidAttr(root, attrDataTransferOrigin, a.Value)
			}
			db.DataTransferOrigin = v
		case attrSWManufacturer:
			db.SoftwareManufacturer = a.Value
		case attrSWVersion:
			db.SoftwareVersion = a.Value
		default:
			db.OtherAttrs = append(db.OtherAttrs, Attr{a.Name.Local, a.Value})
		}
	}
	if db.VersionMajor < 0 || db.VersionMinor < 0 {
		return nil, fmt.Errorf("missing %s/%s", attrVersionMajor, attrVersionMinor)
	}
	err := eachChild(dec, func(se xml.StartElement) error {
		switch se.Name.Local {
		case "CTR":
			return rd.readCustomer(dec, se)
		case "FRM":
			return rd.readFarm(dec, se)
		case "PFD":
			return rd.readField(dec, se)
		case "VPN":
			return rd.readValue(dec, se)
		default:
			Log.Warnf("farmdb: root: ignored element: %s", se.Name.Local)
			return dec.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (rd *reader) readCustomer(dec *xml.Decoder, se xml.StartElement) error {
	idStr, err := requireAttr(se, "A")
	if err != nil {
		return err
	}
	id, err := parseID("CTR", idStr)
	if err != nil {
		return err
	}
	if indexOf(rd.custIDs, id) >= 0 {
		return fmt.Errorf("duplicate customer %q", idStr)
	}
	name, err := requireAttr(se, "B")
	if err != nil {
		return err
	}
	cust := &Customer{Name: name, OtherAttrs: otherAttrs(se, "A", "B")}
	rd.custIDs = append(rd.custIDs, id)
	rd.db.Customers = append(rd.db.Customers, cust)
	return dec.Skip()
}

func (rd *reader) readFarm(dec *xml.Decoder, se xml.StartElement) error {
	idStr, err := requireAttr(se, "A")
	if err != nil {
		return err
	}
	id, err := parseID("FRM", idStr)
	if err != nil {
		return err
	}
	if indexOf(rd.farmIDs, id) >= 0 {
		return fmt.Errorf("duplicate farm %q", idStr)
	}
	name, err := requireAttr(se, "B")
	if err != nil {
		return err
	}
	farm := &Farm{Name: name, Customer: -1}
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "A", "B":
		case "I":
			ctrID, err := parseID("CTR", a.Value)
			if err != nil {
				return fmt.Errorf("farm %q: %w", idStr, err)
			}
			idx := indexOf(rd.custIDs, ctrID)
			if idx < 0 {
				return fmt.Errorf("farm %q: unknown customer id %q", idStr, a.Value)
			}
			farm.Customer = idx
		default:
			farm.OtherAttrs = append(farm.OtherAttrs, Attr{a.Name.Local, a.Value})
		}
	}
	rd.farmIDs = append(rd.farmIDs, id)
	rd.db.Farms = append(rd.db.Farms, farm)
	return dec.Skip()
}

func (rd *reader) readField(dec *xml.Decoder, se xml.StartElement) error {
	idStr, err := requireAttr(se, "A")
	if err != nil {
		return err
	}
	id, err := parseID("PFD", idStr)
	if err != nil {
		return err
	}
	if indexOf(rd.fieldIDs, id) >= 0 {
		return fmt.Errorf("duplicate field %q", idStr)
	}
	name, err := requireAttr(se, "C")
	if err != nil {
		return err
	}
	areaStr, err := requireAttr(se, "D")
	if err != nil {
		return err
	}
	area, err := strconv.ParseUint(areaStr, 10, 32)
	if err != nil {
		return invalidAttr(se, "D", areaStr)
	}
	field := &Field{Name: name, Area: uint(area), Customer: -1, Farm: -1}
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "A", "C", "D":
		case "B":
			field.Code = a.Value
		case "E":
			ctrID, err := parseID("CTR", a.Value)
			if err != nil {
				return fmt.Errorf("field %q: %w", idStr, err)
			}
			idx := indexOf(rd.custIDs, ctrID)
			if idx < 0 {
				return fmt.Errorf("field %q: unknown customer id %q", idStr, a.Value)
			}
			field.Customer = idx
		case "F":
			frmID, err := parseID("FRM", a.Value)
			if err != nil {
				return fmt.Errorf("field %q: %w", idStr, err)
			}
			idx := indexOf(rd.farmIDs, frmID)
			if idx < 0 {
				return fmt.Errorf("field %q: unknown farm id %q", idStr, a.Value)
			}
			field.Farm = idx
		default:
			field.OtherAttrs = append(field.OtherAttrs, Attr{a.Name.Local, a.Value})
		}
	}
	if f := rd.db.farm(field.Farm); f != nil && f.Customer != field.Customer {
		return fmt.Errorf("field %q: farm customer mismatch", idStr)
	}
	err = eachChild(dec, func(ce xml.StartElement) error {
		switch ce.Name.Local {
		case "PLN":
			part, err := readBoundary(dec, ce)
			if err != nil {
				return fmt.Errorf("field %q: %w", idStr, err)
			}
			field.Parts = append(field.Parts, part)
			return nil
		case "GGP":
			sw, err := readSwath(dec, ce)
			if err != nil {
				return fmt.Errorf("field %q: %w", idStr, err)
			}
			field.Swaths = append(field.Swaths, sw)
			return nil
		default:
			Log.Warnf("farmdb: field %s: ignored element: %s", idStr, ce.Name.Local)
			return dec.Skip()
		}
	})
	if err != nil {
		return err
	}
	if err := field.SortPartsByArea(); err != nil {
		return err
	}
	rd.fieldIDs = append(rd.fieldIDs, id)
	rd.db.Fields = append(rd.db.Fields, field)
	return nil
}

func (rd *reader) readValue(dec *xml.Decoder, se xml.StartElement) error {
	var v ValuePreset
	var err error
	if v.ID, err = requireAttr(se, "A"); err != nil {
		return err
	}
	offStr, err := requireAttr(se, "B")
	if err != nil {
		return err
	}
	if v.Offset, err = strconv.Atoi(offStr); err != nil {
		return invalidAttr(se, "B", offStr)
	}
	scaleStr, err := requireAttr(se, "C")
	if err != nil {
		return err
	}
	if v.Scale, err = strconv.ParseFloat(scaleStr, 64); err != nil {
		return invalidAttr(se, "C", scaleStr)
	}
	decStr, err := requireAttr(se, "D")
	if err != nil {
		return err
	}
	if v.Decimals, err = strconv.Atoi(decStr); err != nil {
		return invalidAttr(se, "D", decStr)
	}
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "A", "B", "C", "D":
		case "E":
			v.Units = a.Value
		case "F":
			v.Color = a.Value
		default:
			v.OtherAttrs = append(v.OtherAttrs, Attr{a.Name.Local, a.Value})
		}
	}
	rd.db.Values = append(rd.db.Values, v)
	return dec.Skip()
}

// readBoundary parses a PLN of type Boundary: one exterior LSG and any
// number of interior LSGs, all of Field-typed points.
func readBoundary(dec *xml.Decoder, se xml.StartElement) (Boundary, error) {
	var b Boundary
	typStr, err := requireAttr(se, "A")
	if err != nil {
		return b, err
	}
	if typ, err := strconv.Atoi(typStr); err != nil || typ != polygonBoundary {
		return b, fmt.Errorf("polygon: unexpected type %q", typStr)
	}
	b.OtherAttrs = otherAttrs(se, "A")
	err = eachChild(dec, func(ce xml.StartElement) error {
		if ce.Name.Local != "LSG" {
			Log.Warnf("farmdb: polygon: ignored element: %s", ce.Name.Local)
			return dec.Skip()
		}
		typ, ring, err := readRing(dec, ce)
		if err != nil {
			return err
		}
		switch typ {
		case lineExterior:
			if b.Outer != nil {
				return fmt.Errorf("polygon: multiple exterior rings")
			}
			b.Outer = ring
		case lineInterior:
			b.Inners = append(b.Inners, ring)
		default:
			return fmt.Errorf("polygon: unexpected line string type %d", typ)
		}
		return nil
	})
	if err != nil {
		return b, err
	}
	if b.Outer == nil {
		return b, fmt.Errorf("polygon: missing exterior ring")
	}
	if len(b.Outer) < 4 {
		return b, fmt.Errorf("polygon: exterior ring too small")
	}
	for _, r := range b.Inners {
		if len(r) < 4 {
			return b, fmt.Errorf("polygon: interior ring too small")
		}
	}
	return b, nil
}

// readRing parses a boundary LSG: returns its type code and points, which
// must all be Field-typed.
func readRing(dec *xml.Decoder, se xml.StartElement) (int, Ring, error) {
	typStr, err := requireAttr(se, "A")
	if err != nil {
		return 0, nil, err
	}
	typ, err := strconv.Atoi(typStr)
	if err != nil {
		return 0, nil, invalidAttr(se, "A", typStr)
	}
	for _, a := range se.Attr {
		if a.Name.Local != "A" {
			Log.Warnf("farmdb: line string: extra attribute ignored: %s", a.Name.Local)
		}
	}
	var ring Ring
	err = eachChild(dec, func(ce xml.StartElement) error {
		if ce.Name.Local != "PNT" {
			Log.Warnf("farmdb: line string: ignored element: %s", ce.Name.Local)
			return dec.Skip()
		}
		ptType, pt, err := readPoint(ce)
		if err != nil {
			return err
		}
		if ptType != pointField {
			return fmt.Errorf("line string: unexpected point type %d", ptType)
		}
		ring = append(ring, pt)
		return dec.Skip()
	})
	return typ, ring, err
}

// readPoint parses a PNT: type code, latitude (C), longitude (D).
func readPoint(se xml.StartElement) (int, LatLon, error) {
	typStr, err := requireAttr(se, "A")
	if err != nil {
		return 0, LatLon{}, err
	}
	typ, err := strconv.Atoi(typStr)
	if err != nil {
		return 0, LatLon{}, invalidAttr(se, "A", typStr)
	}
	latStr, err := requireAttr(se, "C")
	if err != nil {
		return 0, LatLon{}, err
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, LatLon{}, invalidAttr(se, "C", latStr)
	}
	lonStr, err := requireAttr(se, "D")
	if err != nil {
		return 0, LatLon{}, err
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, LatLon{}, invalidAttr(se, "D", lonStr)
	}
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "A", "C", "D":
		default:
			Log.Warnf("farmdb: point: extra attribute ignored: %s", a.Name.Local)
		}
	}
	pt, err := NewLatLon(lat, lon)
	if err != nil {
		return 0, LatLon{}, fmt.Errorf("point: %w", err)
	}
	return typ, pt, nil
}

// readSwath parses a GGP guidance group and its GPN patterns.
func readSwath(dec *xml.Decoder, se xml.StartElement) (Swath, error) {
	var sw Swath
	idStr, err := requireAttr(se, "A")
	if err != nil {
		return sw, err
	}
	id, err := parseID("GGP", idStr)
	if err != nil {
		return sw, err
	}
	if sw.Name, err = requireAttr(se, "B"); err != nil {
		return sw, err
	}
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "A", "B":
		default:
			Log.Warnf("farmdb: guide %s: attribute ignored: %s", idStr, a.Name.Local)
		}
	}
	sw.Type = SwathCurve
	seen := false
	err = eachChild(dec, func(ce xml.StartElement) error {
		if ce.Name.Local != "GPN" {
			Log.Warnf("farmdb: guide %s: ignored element: %s", idStr, ce.Name.Local)
			return dec.Skip()
		}
		if seen {
			return fmt.Errorf("guide %q: too many patterns", idStr)
		}
		seen = true
		return readPattern(dec, ce, id, &sw)
	})
	if err != nil {
		return sw, err
	}
	if len(sw.Paths) == 0 {
		return sw, fmt.Errorf("guide %q: missing path", idStr)
	}
	return sw, nil
}

// readPattern parses a GPN and fills sw.
func readPattern(dec *xml.Decoder, se xml.StartElement, guideID int, sw *Swath) error {
	idStr, err := requireAttr(se, "A")
	if err != nil {
		return err
	}
	id, err := parseID("GPN", idStr)
	if err != nil {
		return err
	}
	if id != guideID {
		return fmt.Errorf("pattern id mismatch: GGP%d != %s", guideID, idStr)
	}
	typStr, err := requireAttr(se, "C")
	if err != nil {
		return err
	}
	typ, err := strconv.Atoi(typStr)
	if err != nil {
		return invalidAttr(se, "C", typStr)
	}
	sw.Type = SwathType(typ)
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "A", "C":
		case "B":
			if a.Value != sw.Name {
				Log.Warnf("farmdb: pattern %s: name mismatch ignored: %q != %q",
					idStr, sw.Name, a.Value)
			}
		case "D":
			if v, err := strconv.Atoi(a.Value); err == nil {
				o := SwathOption(v)
				sw.Option = &o
			}
		case "E":
			if v, err := strconv.Atoi(a.Value); err == nil {
				d := SwathDirection(v)
				sw.Direction = &d
			}
		case "F":
			if v, err := strconv.Atoi(a.Value); err == nil {
				e := SwathExtension(v)
				sw.Extension = &e
			}
		case "G":
			if v, err := strconv.ParseFloat(a.Value, 64); err == nil {
				sw.Heading = &v
			}
		case "I":
			if v, err := strconv.Atoi(a.Value); err == nil {
				m := SwathMethod(v)
				sw.Method = &m
			}
		default:
			sw.OtherAttrs = append(sw.OtherAttrs, Attr{a.Name.Local, a.Value})
		}
	}
	return eachChild(dec, func(ce xml.StartElement) error {
		if ce.Name.Local != "LSG" {
			Log.Warnf("farmdb: pattern %s: ignored element: %s", idStr, ce.Name.Local)
			return dec.Skip()
		}
		path, err := readGuidancePath(dec, ce)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", idStr, err)
		}
		sw.Paths = append(sw.Paths, path)
		return nil
	})
}

// readGuidancePath parses a Guidance LSG: GuideA first, GuideB last,
// GuidePoints between.
func readGuidancePath(dec *xml.Decoder, se xml.StartElement) (Path, error) {
	typStr, err := requireAttr(se, "A")
	if err != nil {
		return nil, err
	}
	if typ, err := strconv.Atoi(typStr); err != nil || typ != lineGuidance {
		return nil, fmt.Errorf("line string type mismatch: %q", typStr)
	}
	var path Path
	first := true
	last := false
	err = eachChild(dec, func(ce xml.StartElement) error {
		if ce.Name.Local != "PNT" {
			Log.Warnf("farmdb: guidance path: ignored element: %s", ce.Name.Local)
			return dec.Skip()
		}
		ptType, pt, err := readPoint(ce)
		if err != nil {
			return err
		}
		bad := false
		switch ptType {
		case pointGuideA:
			bad = !first || last
		case pointGuidePoint:
			bad = first || last
		case pointGuideB:
			bad = first || last
			last = true
		default:
			bad = true
		}
		if bad {
			return fmt.Errorf("unexpected point type %d", ptType)
		}
		first = false
		path = append(path, pt)
		return dec.Skip()
	})
	return path, err
}

// eachChild calls fn for every child StartElement of the current element
// until the matching EndElement. fn must consume its element (for example
// with dec.Skip or by reading to its end).
func eachChild(dec *xml.Decoder, fn func(se xml.StartElement) error) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("XML parse error: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := fn(t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func findAttr(se xml.StartElement, key string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == key {
			return a.Value, true
		}
	}
	return "", false
}

func requireAttr(se xml.StartElement, key string) (string, error) {
	v, ok := findAttr(se, key)
	if !ok || v == "" {
		return "", fmt.Errorf("attribute %q is missing on <%s>", key, se.Name.Local)
	}
	return v, nil
}

func invalidAttr(se xml.StartElement, key, value string) error {
	return fmt.Errorf("invalid attribute %q = %q on <%s>", key, value, se.Name.Local)
}

// otherAttrs collects the attributes of se not named in known, preserving
// order.
func otherAttrs(se xml.StartElement, known ...string) []Attr {
	var out []Attr
	for _, a := range se.Attr {
		skip := false
		for _, k := range known {
			if a.Name.Local == k {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, Attr{a.Name.Local, a.Value})
		}
	}
	return out
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// ---------------------------------------------------------------------
// Writing.

// WriteFile writes the database to path: ISO 11783-10 XML for ".xml" and
// ".XML", a zip archive holding TASKDATA/TASKDATA.XML for ".zip", and a
// Well-Known-Text table for ".wkt" and ".WKT".
func (db *FarmDb) WriteFile(path string) error {
	switch filepath.Ext(path) {
	case ".xml", ".XML":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("farmdb: %w", err)
		}
		if err := db.Write(f); err != nil {
			f.Close()
			return fmt.Errorf("farmdb: %s: %w", path, err)
		}
		return f.Close()
	case ".zip":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("farmdb: %w", err)
		}
		zw := zip.NewWriter(f)
		w, err := zw.Create(taskDataZipEntry)
		if err == nil {
			err = db.Write(w)
		}
		if err == nil {
			err = zw.Close()
		} else {
			zw.Close()
		}
		if err != nil {
			f.Close()
			return fmt.Errorf("farmdb: %s: %w", path, err)
		}
		return f.Close()
	case ".wkt", ".WKT":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("farmdb: %w", err)
		}
		if err := db.WriteWKT(f); err != nil {
			f.Close()
			return fmt.Errorf("farmdb: %s: %w", path, err)
		}
		return f.Close()
	default:
		return fmt.Errorf("farmdb: %s: invalid filename extension", path)
	}
}

// elem is a lightweight element tree used to assemble output documents.
type elem struct {
	name     string
	attrs    []xml.Attr
	children []*elem
}

func (e *elem) attr(key string, value interface{}) *elem {
	e.attrs = append(e.attrs, xml.Attr{
		Name:  xml.Name{Local: key},
		Value: cast.ToString(value),
	})
	return e
}

func (e *elem) child(name string) *elem {
	c := &elem{name: name}
	e.children = append(e.children, c)
	return c
}

func (e *elem) encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: e.name}, Attr: e.attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range e.children {
		if err := c.encode(enc); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Write emits the database as an indented ISO 11783-10 TASKDATA document.
// Customer, farm, field, and swath ids are renumbered sequentially.
func (db *FarmDb) Write(w io.Writer) error {
	if db.VersionMajor < 0 || db.VersionMinor < 0 {
		return fmt.Errorf("invalid version: %d.%d", db.VersionMajor, db.VersionMinor)
	}
	root := &elem{name: rootName}
	for _, a := range db.OtherAttrs {
		root.attr(a.Key, a.Value)
	}
	root.attr(attrVersionMajor, db.VersionMajor)
	root.attr(attrVersionMinor, db.VersionMinor)
	root.attr(attrSWManufacturer, db.SoftwareManufacturer)
	root.attr(attrSWVersion, db.SoftwareVersion)
	if db.DataTransferOrigin != -1 {
		root.attr(attrDataTransferOrigin, db.DataTransferOrigin)
	}

	for i, cust := range db.Customers {
		ctr := root.child("CTR")
		ctr.attr("A", fmt.Sprintf("CTR%d", i+1))
		ctr.attr("B", cust.Name)
		for _, a := range cust.OtherAttrs {
			ctr.attr(a.Key, a.Value)
		}
	}
	for i, farm := range db.Farms {
		frm := root.child("FRM")
		frm.attr("A", fmt.Sprintf("FRM%d", i+1))
		frm.attr("B", farm.Name)
		if farm.Customer >= 0 {
			frm.attr("I", fmt.Sprintf("CTR%d", farm.Customer+1))
		}
		for _, a := range farm.OtherAttrs {
			frm.attr(a.Key, a.Value)
		}
	}
	swathID := 0
	for i, field := range db.Fields {
		writeField(root, field, i+1, &swathID)
	}
	writeValues(root, db.Values)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := root.encode(enc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func writeField(root *elem, field *Field, id int, swathID *int) {
	pfd := root.child("PFD")
	pfd.attr("A", fmt.Sprintf("PFD%d", id))
	if field.Code != "" {
		pfd.attr("B", field.Code)
	}
	pfd.attr("C", field.Name)
	pfd.attr("D", field.Area)
	if field.Customer >= 0 {
		pfd.attr("E", fmt.Sprintf("CTR%d", field.Customer+1))
	}
	if field.Farm >= 0 {
		pfd.attr("F", fmt.Sprintf("FRM%d", field.Farm+1))
	}
	for _, a := range field.OtherAttrs {
		pfd.attr(a.Key, a.Value)
	}
	for _, part := range field.Parts {
		writeBoundary(pfd, &part)
	}
	for _, sw := range field.Swaths {
		*swathID++
		writeSwath(pfd, &sw, *swathID)
	}
}

func writeBoundary(pfd *elem, b *Boundary) {
	pln := pfd.child("PLN")
	pln.attr("A", polygonBoundary)
	for _, a := range b.OtherAttrs {
		pln.attr(a.Key, a.Value)
	}
	writeRing(pln, b.Outer, lineExterior)
	for _, r := range b.Inners {
		writeRing(pln, r, lineInterior)
	}
}

func writeRing(pln *elem, r Ring, lsgType int) {
	lsg := pln.child("LSG")
	lsg.attr("A", lsgType)
	for _, pt := range r {
		writePoint(lsg, pt, pointField)
	}
}

func writePoint(parent *elem, pt LatLon, ptType int) {
	pnt := parent.child("PNT")
	pnt.attr("A", ptType)
	pnt.attr("C", pt.Lat)
	pnt.attr("D", pt.Lon)
}

func writeSwath(pfd *elem, sw *Swath, id int) {
	name := sw.Name
	if name == "" {
		name = fmt.Sprintf("Swath%d", id)
	}
	ggp := pfd.child("GGP")
	ggp.attr("A", fmt.Sprintf("GGP%d", id))
	ggp.attr("B", name)
	gpn := ggp.child("GPN")
	gpn.attr("A", fmt.Sprintf("GPN%d", id))
	gpn.attr("B", name)
	gpn.attr("C", int(sw.Type))
	if sw.Option != nil {
		gpn.attr("D", int(*sw.Option))
	}
	direction := DirectionBoth
	if sw.Direction != nil {
		direction = *sw.Direction
	}
	gpn.attr("E", int(direction))
	extension := ExtensionBoth
	if sw.Extension != nil {
		extension = *sw.Extension
	}
	gpn.attr("F", int(extension))
	heading := 0.0
	if sw.Heading != nil {
		heading = *sw.Heading
	}
	gpn.attr("G", heading)
	method := MethodNoGPS
	if sw.Method != nil {
		method = *sw.Method
	}
	gpn.attr("I", int(method))
	for _, a := range sw.OtherAttrs {
		gpn.attr(a.Key, a.Value)
	}
	for _, path := range sw.Paths {
		writeGuidancePath(gpn, path)
	}
}

func writeGuidancePath(gpn *elem, path Path) {
	lsg := gpn.child("LSG")
	lsg.attr("A", lineGuidance)
	if len(path) == 0 {
		return
	}
	writePoint(lsg, path[0], pointGuideA)
	if len(path) == 1 {
		return
	}
	for _, pt := range path[1 : len(path)-1] {
		writePoint(lsg, pt, pointGuidePoint)
	}
	writePoint(lsg, path[len(path)-1], pointGuideB)
}

// writeValues emits the database's value presets, or the canonical preset
// table when it has none.
func writeValues(root *elem, values []ValuePreset) {
	if len(values) > 0 {
		for _, v := range values {
			vpn := root.child("VPN")
			vpn.attr("A", v.ID)
			vpn.attr("B", v.Offset)
			vpn.attr("C", v.Scale)
			vpn.attr("D", v.Decimals)
			if v.Units != "" {
				vpn.attr("E", v.Units)
			}
			if v.Color != "" {
				vpn.attr("F", v.Color)
			}
			for _, a := range v.OtherAttrs {
				vpn.attr(a.Key, a.Value)
			}
		}
		return
	}
	canonical := []struct {
		scale  string
		digits int
		units  string
	}{
		{"0.001", 2, "l"},
		{"0.001", 2, "kg"},
		{"0.01", 2, "l/ha"},
		{"0.01", 2, "kg/ha"},
		{"1", 0, "sds/m^2"},
		{"1", 0, "mm"},
		{"1", 0, "N/m"},
		{"1", 0, "sds"},
		{"1", 0, "°"},
	}
	for i, v := range canonical {
		vpn := root.child("VPN")
		vpn.attr("A", fmt.Sprintf("VPN%d", i+1))
		vpn.attr("B", 0)
		vpn.attr("C", v.scale)
		vpn.attr("D", v.digits)
		vpn.attr("E", v.units)
	}
}
