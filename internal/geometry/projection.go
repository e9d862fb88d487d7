package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// The service targets a single country, so one fixed metric projection is
// enough: UTM zone 33N (central meridian 15°E) covers the whole of Czechia.
// Buffering is never done in degrees; one degree of longitude shrinks with
// latitude, so a degree-space buffer would produce a corridor of uneven
// real-world width.

// WGS84 ellipsoid and UTM zone 33N parameters.
const (
	semiMajorAxis = 6378137.0
	flattening    = 1.0 / 298.257223563

	scaleFactor     = 0.9996
	centralMeridian = 15.0 * math.Pi / 180.0
	falseEasting    = 500000.0
	falseNorthing   = 0.0
)

var (
	ecc2  = flattening * (2 - flattening) // first eccentricity squared
	ecc4  = ecc2 * ecc2
	ecc6  = ecc4 * ecc2
	eccP2 = ecc2 / (1 - ecc2) // second eccentricity squared
)

// ToMetric projects a geographic point (lon, lat in degrees) into the metric
// plane (easting, northing in meters).
func ToMetric(p orb.Point) orb.Point {
	lat := p[1] * math.Pi / 180.0
	lon := p[0] * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	tanLat := math.Tan(lat)

	n := semiMajorAxis / math.Sqrt(1-ecc2*sinLat*sinLat)
	t := tanLat * tanLat
	c := eccP2 * cosLat * cosLat
	a := (lon - centralMeridian) * cosLat

	m := semiMajorAxis * ((1-ecc2/4-3*ecc4/64-5*ecc6/256)*lat -
		(3*ecc2/8+3*ecc4/32+45*ecc6/1024)*math.Sin(2*lat) +
		(15*ecc4/256+45*ecc6/1024)*math.Sin(4*lat) -
		(35*ecc6/3072)*math.Sin(6*lat))

	easting := falseEasting + scaleFactor*n*(a+
		(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*eccP2)*a*a*a*a*a/120)

	northing := falseNorthing + scaleFactor*(m+n*tanLat*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*eccP2)*a*a*a*a*a*a/720))

	return orb.Point{easting, northing}
}

// ToGeographic is the inverse of ToMetric.
func ToGeographic(p orb.Point) orb.Point {
	x := p[0] - falseEasting
	y := p[1] - falseNorthing

	m := y / scaleFactor
	mu := m / (semiMajorAxis * (1 - ecc2/4 - 3*ecc4/64 - 5*ecc6/256))

	e1 := (1 - math.Sqrt(1-ecc2)) / (1 + math.Sqrt(1-ecc2))

	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := eccP2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := semiMajorAxis / math.Sqrt(1-ecc2*sinPhi1*sinPhi1)
	r1 := semiMajorAxis * (1 - ecc2) / math.Pow(1-ecc2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * scaleFactor)

	lat := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*eccP2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*eccP2-3*c1*c1)*d*d*d*d*d*d/720)

	lon := centralMeridian + (d-
		(1+2*t1+c1)*d*d*d/6+
		(5-2*c1+28*t1-3*c1*c1+8*eccP2+24*t1*t1)*d*d*d*d*d/120)/cosPhi1

	return orb.Point{lon * 180.0 / math.Pi, lat * 180.0 / math.Pi}
}

// LineToMetric projects every vertex of a line.
func LineToMetric(line orb.LineString) orb.LineString {
	out := make(orb.LineString, len(line))
	for i, p := range line {
		out[i] = ToMetric(p)
	}
	return out
}

// RingToGeographic unprojects every vertex of a ring.
func RingToGeographic(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		out[i] = ToGeographic(p)
	}
	return out
}
