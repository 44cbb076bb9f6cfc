// Package mapping provides lookup tables translating host enumerations into web standard names.
package mapping

import (
	"github.com/sfomuseum/go-webmap-layers/host"
)

var geometry_types = map[host.WkbType]string{
	host.WkbPoint:              "Point",
	host.WkbPoint25D:           "Point",
	host.WkbPointZ:             "Point",
	host.WkbPointM:             "Point",
	host.WkbPointZM:            "Point",
	host.WkbLineString:         "LineString",
	host.WkbLineStringM:        "LineString",
	host.WkbLineStringZ:        "LineString",
	host.WkbLineStringZM:       "LineString",
	host.WkbLineString25D:      "LineString",
	host.WkbCircularString:     "LineString",
	host.WkbCircularStringZ:    "LineString",
	host.WkbCircularStringM:    "LineString",
	host.WkbCircularStringZM:   "LineString",
	host.WkbCompoundCurveZ:     "LineString",
	host.WkbCompoundCurveM:     "LineString",
	host.WkbCompoundCurveZM:    "LineString",
	host.WkbMultiCurve:         "LineString",
	host.WkbMultiCurveM:        "LineString",
	host.WkbMultiCurveZ:        "LineString",
	host.WkbMultiCurveZM:       "LineString",
	host.WkbPolygon:            "Polygon",
	host.WkbPolygonZ:           "Polygon",
	host.WkbPolygonM:           "Polygon",
	host.WkbPolygonZM:          "Polygon",
	host.WkbPolygon25D:         "Polygon",
	host.WkbCurvePolygon:       "Polygon",
	host.WkbCurvePolygonZ:      "Polygon",
	host.WkbCurvePolygonM:      "Polygon",
	host.WkbCurvePolygonZM:     "Polygon",
	host.WkbTriangle:           "Polygon",
	host.WkbTriangleZ:          "Polygon",
	host.WkbTriangleM:          "Polygon",
	host.WkbTriangleZM:         "Polygon",
	host.WkbMultiPoint:         "MultiPoint",
	host.WkbMultiPoint25D:      "MultiPoint",
	host.WkbMultiPointZ:        "MultiPoint",
	host.WkbMultiPointM:        "MultiPoint",
	host.WkbMultiPointZM:       "MultiPoint",
	host.WkbMultiLineString:    "MultiLineString",
	host.WkbMultiLineStringM:   "MultiLineString",
	host.WkbMultiLineStringZ:   "MultiLineString",
	host.WkbMultiLineStringZM:  "MultiLineString",
	host.WkbMultiLineString25D: "MultiLineString",
	host.WkbMultiPolygon:       "MultiPolygon",
	host.WkbMultiPolygon25D:    "MultiPolygon",
	host.WkbMultiPolygonZ:      "MultiPolygon",
	host.WkbMultiPolygonZM:     "MultiPolygon",
	host.WkbMultiPolygonM:      "MultiPolygon",
}

var blend_modes = map[host.BlendMode]string{
	host.BlendSourceOver: "normal",
	host.BlendMultiply:   "multiply",
	host.BlendScreen:     "screen",
	host.BlendOverlay:    "overlay",
	host.BlendDarken:     "darken",
	host.BlendLighten:    "lighten",
	host.BlendColorDodge: "color-dodge",
	host.BlendColorBurn:  "color-burn",
	host.BlendHardLight:  "hard-light",
	host.BlendSoftLight:  "soft-light",
	host.BlendDifference: "difference",
	host.BlendExclusion:  "exclusion",
}

var mapbox_types = map[string]string{
	"Point":      "symbol",
	"LineString": "line",
	"Polygon":    "fill",
}

// GeometryType returns the GeoJSON geometry type for t. Plain compound curves (and types without
// geometry) have no mapping.
func GeometryType(t host.WkbType) (string, bool) {
	str, ok := geometry_types[t]
	return str, ok
}

// BlendMode returns the CSS mix-blend-mode for m.
func BlendMode(m host.BlendMode) (string, bool) {
	str, ok := blend_modes[m]
	return str, ok
}

// MapboxLayerType returns the Mapbox GL layer type for a (single part) GeoJSON geometry type.
func MapboxLayerType(geometry_type string) (string, bool) {
	str, ok := mapbox_types[geometry_type]
	return str, ok
}
