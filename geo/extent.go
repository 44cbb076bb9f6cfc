package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/sfomuseum/go-webmap-layers/host"
)

// edge_samples is the number of points sampled along each edge of a bounding box when transforming it.
const edge_samples = 21

// TransformBound transforms b from src to dst, returning the bounding box of the transformed outline.
// Edges are densified so that curved edges in the destination system are not under-estimated.
func TransformBound(b orb.Bound, src host.CRS, dst host.CRS) (orb.Bound, error) {

	fn, err := NewTransform(src, dst)

	if err != nil {
		return orb.Bound{}, err
	}

	out := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}

	dx := (b.Max[0] - b.Min[0]) / float64(edge_samples-1)
	dy := (b.Max[1] - b.Min[1]) / float64(edge_samples-1)

	for i := 0; i < edge_samples; i++ {

		x := b.Min[0] + dx*float64(i)
		y := b.Min[1] + dy*float64(i)

		for _, pt := range []orb.Point{
			{x, b.Min[1]},
			{x, b.Max[1]},
			{b.Min[0], y},
			{b.Max[0], y},
		} {
			out = out.Extend(fn(pt))
		}
	}

	return out, nil
}

// Intersects reports whether g shares at least one point with b. This is an exact test: a
// geometry whose bounding box overlaps b but whose shape does not is not considered intersecting.
func Intersects(g orb.Geometry, b orb.Bound) bool {

	if g == nil {
		return false
	}

	if !g.Bound().Intersects(b) {
		return false
	}

	switch g := g.(type) {
	case orb.Point:
		return b.Contains(g)
	case orb.MultiPoint:
		for _, pt := range g {
			if b.Contains(pt) {
				return true
			}
		}
		return false
	case orb.Polygon:
		return polygonIntersects(g, b)
	case orb.MultiPolygon:
		for _, p := range g {
			if polygonIntersects(p, b) {
				return true
			}
		}
		return false
	case orb.Collection:
		for _, c := range g {
			if Intersects(c, b) {
				return true
			}
		}
		return false
	}

	clipped := clip.Geometry(b, orb.Clone(g))
	return !isEmpty(clipped)
}

// polygonIntersects reports whether p and b share at least one point. Holes are honoured for the
// corners of b only, since any ring vertex or edge is part of the polygon's boundary.
func polygonIntersects(p orb.Polygon, b orb.Bound) bool {

	if len(p) == 0 {
		return false
	}

	corners := []orb.Point{
		b.Min,
		{b.Max[0], b.Min[1]},
		b.Max,
		{b.Min[0], b.Max[1]},
	}

	for _, c := range corners {
		if polygonContains(p, c) {
			return true
		}
	}

	for _, r := range p {

		for i, pt := range r {

			if b.Contains(pt) {
				return true
			}

			prev := r[(i+len(r)-1)%len(r)]

			for j := range corners {
				if segmentsIntersect(prev, pt, corners[j], corners[(j+1)%len(corners)]) {
					return true
				}
			}
		}
	}

	return false
}

// segmentsIntersect reports whether the closed segments a1-a2 and b1-b2 share a point.
func segmentsIntersect(a1, a2, b1, b2 orb.Point) bool {

	d1 := orientation(b1, b2, a1)
	d2 := orientation(b1, b2, a2)
	d3 := orientation(a1, a2, b1)
	d4 := orientation(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(b1, b2, a1):
		return true
	case d2 == 0 && onSegment(b1, b2, a2):
		return true
	case d3 == 0 && onSegment(a1, a2, b1):
		return true
	case d4 == 0 && onSegment(a1, a2, b2):
		return true
	}

	return false
}

func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether pt, known to be collinear with a-b, lies between a and b.
func onSegment(a, b, pt orb.Point) bool {
	return math.Min(a[0], b[0]) <= pt[0] && pt[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= pt[1] && pt[1] <= math.Max(a[1], b[1])
}

// polygonContains reports whether pt is inside the outer ring of p and outside all of its holes.
func polygonContains(p orb.Polygon, pt orb.Point) bool {

	if len(p) == 0 || !ringContains(p[0], pt) {
		return false
	}

	for _, hole := range p[1:] {
		if ringContains(hole, pt) {
			return false
		}
	}

	return true
}

// ringContains is a ray casting point in ring test.
func ringContains(r orb.Ring, pt orb.Point) bool {

	in := false

	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {

		a := r[i]
		b := r[j]

		if (a[1] > pt[1]) != (b[1] > pt[1]) &&
			pt[0] < (b[0]-a[0])*(pt[1]-a[1])/(b[1]-a[1])+a[0] {
			in = !in
		}
	}

	return in
}

func isEmpty(g orb.Geometry) bool {

	switch g := g.(type) {
	case nil:
		return true
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.MultiLineString:
		for _, ls := range g {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.Ring:
		return len(g) == 0
	case orb.Polygon:
		return len(g) == 0 || len(g[0]) == 0
	case orb.MultiPolygon:
		for _, p := range g {
			if !isEmpty(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, c := range g {
			if !isEmpty(c) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
