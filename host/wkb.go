package host

import (
	"strings"
)

// WkbType enumerates the geometry types a vector layer may declare.
type WkbType int

const (
	WkbUnknown WkbType = iota
	WkbNoGeometry
	WkbPoint
	WkbPoint25D
	WkbPointZ
	WkbPointM
	WkbPointZM
	WkbLineString
	WkbLineString25D
	WkbLineStringZ
	WkbLineStringM
	WkbLineStringZM
	WkbCircularString
	WkbCircularStringZ
	WkbCircularStringM
	WkbCircularStringZM
	WkbCompoundCurve
	WkbCompoundCurveZ
	WkbCompoundCurveM
	WkbCompoundCurveZM
	WkbPolygon
	WkbPolygon25D
	WkbPolygonZ
	WkbPolygonM
	WkbPolygonZM
	WkbCurvePolygon
	WkbCurvePolygonZ
	WkbCurvePolygonM
	WkbCurvePolygonZM
	WkbTriangle
	WkbTriangleZ
	WkbTriangleM
	WkbTriangleZM
	WkbMultiPoint
	WkbMultiPoint25D
	WkbMultiPointZ
	WkbMultiPointM
	WkbMultiPointZM
	WkbMultiLineString
	WkbMultiLineString25D
	WkbMultiLineStringZ
	WkbMultiLineStringM
	WkbMultiLineStringZM
	WkbMultiCurve
	WkbMultiCurveZ
	WkbMultiCurveM
	WkbMultiCurveZM
	WkbMultiPolygon
	WkbMultiPolygon25D
	WkbMultiPolygonZ
	WkbMultiPolygonM
	WkbMultiPolygonZM
)

// GeometryKind is the coarse (point, line, polygon) classification of a WkbType.
type GeometryKind int

const (
	GeometryUnknown GeometryKind = iota
	GeometryPoint
	GeometryLine
	GeometryPolygon
	GeometryNull
)

// Kind returns the coarse geometry classification of t.
func (t WkbType) Kind() GeometryKind {

	switch {
	case t == WkbNoGeometry:
		return GeometryNull
	case t >= WkbPoint && t <= WkbPointZM, t >= WkbMultiPoint && t <= WkbMultiPointZM:
		return GeometryPoint
	case t >= WkbLineString && t <= WkbCompoundCurveZM, t >= WkbMultiLineString && t <= WkbMultiCurveZM:
		return GeometryLine
	case t >= WkbPolygon && t <= WkbTriangleZM, t >= WkbMultiPolygon && t <= WkbMultiPolygonZM:
		return GeometryPolygon
	default:
		return GeometryUnknown
	}
}

var wkb_names = []string{
	"Unknown",
	"NoGeometry",
	"Point",
	"Point25D",
	"PointZ",
	"PointM",
	"PointZM",
	"LineString",
	"LineString25D",
	"LineStringZ",
	"LineStringM",
	"LineStringZM",
	"CircularString",
	"CircularStringZ",
	"CircularStringM",
	"CircularStringZM",
	"CompoundCurve",
	"CompoundCurveZ",
	"CompoundCurveM",
	"CompoundCurveZM",
	"Polygon",
	"Polygon25D",
	"PolygonZ",
	"PolygonM",
	"PolygonZM",
	"CurvePolygon",
	"CurvePolygonZ",
	"CurvePolygonM",
	"CurvePolygonZM",
	"Triangle",
	"TriangleZ",
	"TriangleM",
	"TriangleZM",
	"MultiPoint",
	"MultiPoint25D",
	"MultiPointZ",
	"MultiPointM",
	"MultiPointZM",
	"MultiLineString",
	"MultiLineString25D",
	"MultiLineStringZ",
	"MultiLineStringM",
	"MultiLineStringZM",
	"MultiCurve",
	"MultiCurveZ",
	"MultiCurveM",
	"MultiCurveZM",
	"MultiPolygon",
	"MultiPolygon25D",
	"MultiPolygonZ",
	"MultiPolygonM",
	"MultiPolygonZM",
}

func (t WkbType) String() string {

	if t < 0 || int(t) >= len(wkb_names) {
		return "Unknown"
	}

	return wkb_names[t]
}

// ParseWkbType parses a geometry type name such as "MultiPolygonZ". Matching is case-insensitive.
func ParseWkbType(name string) (WkbType, bool) {

	for i, n := range wkb_names {
		if strings.EqualFold(n, name) {
			return WkbType(i), true
		}
	}

	return WkbUnknown, false
}
