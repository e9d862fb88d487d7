package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// arcStep is the angular resolution of join and cap arcs.
const arcStep = math.Pi / 12

// BufferLine buffers a line in the metric plane by dist meters, producing a
// closed outline ring with round joins and round end caps. The outline may
// self-touch on the inner side of sharp turns; containment tests therefore
// use the nonzero winding rule (see RingWinding).
func BufferLine(line orb.LineString, dist float64) orb.Ring {
	pts := dropDuplicatePoints(line)
	if len(pts) == 0 {
		return nil
	}
	if len(pts) == 1 {
		return circleRing(pts[0], dist)
	}

	n := len(pts)
	var out []orb.Point
	var prev orb.Point

	// Left side, walking forward.
	for i := 0; i < n-1; i++ {
		nv := leftNormal(pts[i], pts[i+1], dist)
		if i > 0 {
			out = appendJoinArc(out, pts[i], prev, nv)
		}
		out = append(out, vecAdd(pts[i], nv), vecAdd(pts[i+1], nv))
		prev = nv
	}

	// Round cap around the last point.
	out = appendSweepArc(out, pts[n-1], math.Atan2(prev[1], prev[0]), -math.Pi, dist)

	// Right side, walking backward.
	for i := n - 1; i > 0; i-- {
		nv := leftNormal(pts[i], pts[i-1], dist)
		if i < n-1 {
			out = appendJoinArc(out, pts[i], prev, nv)
		}
		out = append(out, vecAdd(pts[i], nv), vecAdd(pts[i-1], nv))
		prev = nv
	}

	// Round cap around the first point, closing the outline.
	out = appendSweepArc(out, pts[0], math.Atan2(prev[1], prev[0]), -math.Pi, dist)
	out = append(out, out[0])

	return orb.Ring(out)
}

// RingWinding returns the winding number of p with respect to ring. Zero
// means outside.
func RingWinding(ring orb.Ring, p orb.Point) int {
	wn := 0
	n := len(ring)
	for i := 0; i < n; i++ {
		a := ring[i]
		b := ring[(i+1)%n]
		if a[1] <= p[1] {
			if b[1] > p[1] && isLeft(a, b, p) > 0 {
				wn++
			}
		} else {
			if b[1] <= p[1] && isLeft(a, b, p) < 0 {
				wn--
			}
		}
	}
	return wn
}

// PolygonContains tests point membership under the nonzero winding rule.
func PolygonContains(poly orb.Polygon, p orb.Point) bool {
	if len(poly) == 0 {
		return false
	}
	if RingWinding(poly[0], p) == 0 {
		return false
	}
	for _, hole := range poly[1:] {
		if RingWinding(hole, p) != 0 {
			return false
		}
	}
	return true
}

func isLeft(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (p[0]-a[0])*(b[1]-a[1])
}

func leftNormal(from, to orb.Point, dist float64) orb.Point {
	dx := to[0] - from[0]
	dy := to[1] - from[1]
	l := math.Hypot(dx, dy)
	return orb.Point{-dy / l * dist, dx / l * dist}
}

func vecAdd(p, v orb.Point) orb.Point {
	return orb.Point{p[0] + v[0], p[1] + v[1]}
}

// appendJoinArc inserts arc points around center rotating from offset vector
// a to offset vector b the short way.
func appendJoinArc(out []orb.Point, center, a, b orb.Point) []orb.Point {
	a0 := math.Atan2(a[1], a[0])
	a1 := math.Atan2(b[1], b[0])
	sweep := math.Mod(a1-a0, 2*math.Pi)
	if sweep > math.Pi {
		sweep -= 2 * math.Pi
	} else if sweep < -math.Pi {
		sweep += 2 * math.Pi
	}
	return appendSweepArc(out, center, a0, sweep, math.Hypot(a[0], a[1]))
}

// appendSweepArc inserts the interior points of an arc around center,
// starting at angle a0 and rotating by sweep radians.
func appendSweepArc(out []orb.Point, center orb.Point, a0, sweep, dist float64) []orb.Point {
	steps := int(math.Ceil(math.Abs(sweep) / arcStep))
	for k := 1; k < steps; k++ {
		ang := a0 + sweep*float64(k)/float64(steps)
		out = append(out, orb.Point{
			center[0] + dist*math.Cos(ang),
			center[1] + dist*math.Sin(ang),
		})
	}
	return out
}

func circleRing(center orb.Point, dist float64) orb.Ring {
	const segments = 24
	ring := make(orb.Ring, 0, segments+1)
	for k := 0; k < segments; k++ {
		ang := 2 * math.Pi * float64(k) / segments
		ring = append(ring, orb.Point{
			center[0] + dist*math.Cos(ang),
			center[1] + dist*math.Sin(ang),
		})
	}
	ring = append(ring, ring[0])
	return ring
}

func dropDuplicatePoints(line orb.LineString) []orb.Point {
	var pts []orb.Point
	for _, p := range line {
		if len(pts) > 0 {
			last := pts[len(pts)-1]
			if math.Hypot(p[0]-last[0], p[1]-last[1]) < 1e-9 {
				continue
			}
		}
		pts = append(pts, p)
	}
	return pts
}
