package project

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-webmap-layers/host"
)

// readGeoJSON reads the features of a GeoJSON FeatureCollection, returning them along with the
// schema (declared or inferred) they are aligned to.
func readGeoJSON(path string, declared []host.Field) ([]*host.Feature, []host.Field, host.WkbType, error) {

	body, err := os.ReadFile(path)

	if err != nil {
		return nil, nil, host.WkbUnknown, fmt.Errorf("Failed to read %s, %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)

	if err != nil {
		return nil, nil, host.WkbUnknown, fmt.Errorf("Failed to parse %s, %w", path, err)
	}

	fields := declared

	if len(fields) == 0 {

		props := make([]map[string]any, len(fc.Features))

		for i, f := range fc.Features {
			props[i] = f.Properties
		}

		fields = inferFields(props)
	}

	features := make([]*host.Feature, len(fc.Features))
	wkb_type := host.WkbNoGeometry

	for i, f := range fc.Features {

		attrs := make([]any, len(fields))

		for j, fld := range fields {
			attrs[j] = convertValue(f.Properties[fld.Name], fld)
		}

		features[i] = &host.Feature{
			ID:         int64(i + 1),
			Geometry:   f.Geometry,
			Attributes: attrs,
		}

		if wkb_type == host.WkbNoGeometry && f.Geometry != nil {
			wkb_type = geometryWkbType(f.Geometry)
		}
	}

	return features, fields, wkb_type, nil
}

func geometryWkbType(g orb.Geometry) host.WkbType {

	switch g.(type) {
	case orb.Point:
		return host.WkbPoint
	case orb.MultiPoint:
		return host.WkbMultiPoint
	case orb.LineString:
		return host.WkbLineString
	case orb.MultiLineString:
		return host.WkbMultiLineString
	case orb.Polygon, orb.Ring, orb.Bound:
		return host.WkbPolygon
	case orb.MultiPolygon:
		return host.WkbMultiPolygon
	default:
		return host.WkbUnknown
	}
}
