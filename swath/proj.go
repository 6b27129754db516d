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
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// WGS-84 ellipsoid parameters.
const (
	wgs84A = 6378137.0
	wgs84B = 6356752.314245179
)

const (
	deg2Rad = math.Pi / 180
	rad2Deg = 180 / math.Pi
	halfPi  = math.Pi / 2
	epsln   = 1.0e-10
)

// A Projection is an azimuthal equidistant map projection on the WGS-84
// ellipsoid, centered on a reference origin. Distances along radials from
// the origin are preserved to within the accuracy of the series expansion,
// so planar buffer offsets of up to a few kilometres can be treated as
// true metres.
//
// Geographic coordinates are geom.Points holding degrees with X=longitude
// and Y=latitude; projected coordinates are metres.
type Projection struct {
	lon0, lat0 float64 // origin, radians

	a, es, e       float64
	sinP0, cosP0   float64
	e0, e1, e2, e3 float64
}

// NewProjection creates a Projection whose origin is the centroid of the
// axis-aligned envelope of the geographic polygon p.
func NewProjection(p geom.Polygon) (*Projection, error) {
	b := p.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("swath: cannot build a projection for an empty polygon")
	}
	origin := geom.Point{X: (b.Min.X + b.Max.X) / 2, Y: (b.Min.Y + b.Max.Y) / 2}
	return NewProjectionOrigin(origin)
}

// NewProjectionOrigin creates a Projection centered on the given geographic
// point (degrees, X=longitude, Y=latitude).
func NewProjectionOrigin(origin geom.Point) (*Projection, error) {
	if math.Abs(origin.Y) > 90 || math.Abs(origin.X) > 180 {
		return nil, fmt.Errorf("swath: projection origin (%g, %g) is out of range",
			origin.Y, origin.X)
	}
	p := &Projection{
		lon0: origin.X * deg2Rad,
		lat0: origin.Y * deg2Rad,
		a:    wgs84A,
	}
	t := wgs84B / wgs84A
	p.es = 1 - t*t
	p.e = math.Sqrt(p.es)
	p.sinP0 = math.Sin(p.lat0)
	p.cosP0 = math.Cos(p.lat0)
	p.e0 = e0fn(p.es)
	p.e1 = e1fn(p.es)
	p.e2 = e2fn(p.es)
	p.e3 = e3fn(p.es)
	return p, nil
}

// Forward returns a transformer from geographic degrees to projected
// metres, suitable for use with geom.Geom.Transform.
func (p *Projection) Forward() proj.Transformer {
	return func(lonDeg, latDeg float64) (x, y float64, err error) {
		return p.forward(lonDeg*deg2Rad, latDeg*deg2Rad)
	}
}

// Inverse returns a transformer from projected metres back to geographic
// degrees.
func (p *Projection) Inverse() proj.Transformer {
	return func(x, y float64) (lonDeg, latDeg float64, err error) {
		lon, lat, err := p.inverse(x, y)
		return lon * rad2Deg, lat * rad2Deg, err
	}
}

// forward implements the ellipsoidal azimuthal equidistant forward
// equations, including the polar special cases.
func (p *Projection) forward(lon, lat float64) (x, y float64, err error) {
	sinphi := math.Sin(lat)
	cosphi := math.Cos(lat)
	dlon := adjustLon(lon - p.lon0)

	switch {
	case math.Abs(p.sinP0-1) <= epsln: // north pole
		mlp := p.a * mlfn(p.e0, p.e1, p.e2, p.e3, halfPi)
		ml := p.a * mlfn(p.e0, p.e1, p.e2, p.e3, lat)
		x = (mlp - ml) * math.Sin(dlon)
		y = -(mlp - ml) * math.Cos(dlon)
		return x, y, nil
	case math.Abs(p.sinP0+1) <= epsln: // south pole
		mlp := p.a * mlfn(p.e0, p.e1, p.e2, p.e3, halfPi)
		ml := p.a * mlfn(p.e0, p.e1, p.e2, p.e3, lat)
		x = (mlp + ml) * math.Sin(dlon)
		y = (mlp + ml) * math.Cos(dlon)
		return x, y, nil
	}

	if math.Abs(cosphi) < epsln {
		return 0, 0, fmt.Errorf("swath: latitude %g rad is too close to a pole", lat)
	}
	tanphi := sinphi / cosphi
	nl1 := gN(p.a, p.e, p.sinP0)
	nl := gN(p.a, p.e, sinphi)
	psi := math.Atan((1-p.es)*tanphi + p.es*nl1*p.sinP0/(nl*cosphi))
	az := math.Atan2(math.Sin(dlon), p.cosP0*math.Tan(psi)-p.sinP0*math.Cos(dlon))
	var s float64
	switch {
	case az == 0:
		s = math.Asin(p.cosP0*math.Sin(psi) - p.sinP0*math.Cos(psi))
	case math.Abs(math.Abs(az)-math.Pi) <= epsln:
		s = -math.Asin(p.cosP0*math.Sin(psi) - p.sinP0*math.Cos(psi))
	default:
		s = math.Asin(math.Sin(dlon) * math.Cos(psi) / math.Sin(az))
	}
	g := p.e * p.sinP0 / math.Sqrt(1-p.es)
	h := p.e * p.cosP0 * math.Cos(az) / math.Sqrt(1-p.es)
	gh := g * h
	hs := h * h
	s2 := s * s
	s3 := s2 * s
	s4 := s3 * s
	s5 := s4 * s
	c := nl1 * s * (1 - s2*hs*(1-hs)/6 +
		s3/8*gh*(1-2*hs) +
		s4/120*(hs*(4-7*hs)-3*g*g*(1-7*hs)) -
		s5/48*gh)
	return c * math.Sin(az), c * math.Cos(az), nil
}

// inverse implements the ellipsoidal azimuthal equidistant inverse
// equations.
func (p *Projection) inverse(x, y float64) (lon, lat float64, err error) {
	switch {
	case math.Abs(p.sinP0-1) <= epsln: // north pole
		mlp := p.a * mlfn(p.e0, p.e1, p.e2, p.e3, halfPi)
		rh := math.Hypot(x, y)
		m := mlp - rh
		lat, err = imlfn(m/p.a, p.e0, p.e1, p.e2, p.e3)
		if err != nil {
			return 0, 0, err
		}
		lon = adjustLon(p.lon0 + math.Atan2(x, -y))
		return lon, lat, nil
	case math.Abs(p.sinP0+1) <= epsln: // south pole
		mlp := p.a * mlfn(p.e0, p.e1, p.e2, p.e3, halfPi)
		rh := math.Hypot(x, y)
		m := rh - mlp
		lat, err = imlfn(m/p.a, p.e0, p.e1, p.e2, p.e3)
		if err != nil {
			return 0, 0, err
		}
		lon = adjustLon(p.lon0 + math.Atan2(x, y))
		return lon, lat, nil
	}

	rh := math.Hypot(x, y)
	if rh <= epsln {
		return p.lon0, p.lat0, nil
	}
	az := math.Atan2(x, y)
	n1 := gN(p.a, p.e, p.sinP0)
	cosAz := math.Cos(az)
	tmp := p.e * p.cosP0 * cosAz
	a := -tmp * tmp / (1 - p.es)
	b := 3 * p.es * (1 - a) * p.sinP0 * p.cosP0 * cosAz / (1 - p.es)
	d := rh / n1
	e := d - a*(1+a)*d*d*d/6 - b*(1+3*a)*d*d*d*d/24
	f := 1 - a*e*e/2 - d*e*e*e/6
	psi := math.Asin(p.sinP0*math.Cos(e) + p.cosP0*math.Sin(e)*cosAz)
	lon = adjustLon(p.lon0 + math.Asin(math.Sin(az)*math.Sin(e)/math.Cos(psi)))
	sinpsi := math.Sin(psi)
	lat = math.Atan2((1-p.es*f*p.sinP0/sinpsi)*math.Tan(psi), 1-p.es)
	return lon, lat, nil
}

// Series coefficients for the meridional arc, as in the proj4 code base.

func e0fn(x float64) float64 { return 1 - 0.25*x*(1+x/16*(3+1.25*x)) }

func e1fn(x float64) float64 { return 0.375 * x * (1 + 0.25*x*(1+0.46875*x)) }

func e2fn(x float64) float64 { return 0.05859375 * x * x * (1 + 0.75*x) }

func e3fn(x float64) float64 { return x * x * x * (35.0 / 3072.0) }

// mlfn computes the meridional arc length from the equator to latitude phi.
func mlfn(e0, e1, e2, e3, phi float64) float64 {
	return e0*phi - e1*math.Sin(2*phi) + e2*math.Sin(4*phi) - e3*math.Sin(6*phi)
}

// imlfn inverts mlfn by Newton iteration.
func imlfn(ml, e0, e1, e2, e3 float64) (float64, error) {
	phi := ml / e0
	for i := 0; i < 15; i++ {
		dphi := (ml - (e0*phi - e1*math.Sin(2*phi) + e2*math.Sin(4*phi) - e3*math.Sin(6*phi))) /
			(e0 - 2*e1*math.Cos(2*phi) + 4*e2*math.Cos(4*phi) - 6*e3*math.Cos(6*phi))
		phi += dphi
		if math.Abs(dphi) <= 1.0e-10 {
			return phi, nil
		}
	}
	return 0, fmt.Errorf("swath: inverse meridional arc failed to converge")
}

// gN is the radius of curvature in the prime vertical.
func gN(a, e, sinphi float64) float64 {
	return a / math.Sqrt(1-e*e*sinphi*sinphi)
}

func adjustLon(x float64) float64 {
	if math.Abs(x) <= math.Pi {
		return x
	}
	return x - math.Copysign(2*math.Pi, x)
}
