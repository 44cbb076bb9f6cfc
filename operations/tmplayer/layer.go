// Package tmplayer builds the temporary, in-memory layers that vector exports are written from.
package tmplayer

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/host"
)

var (
	// ErrInvalidLayer is returned when a temporary layer can not be constructed.
	ErrInvalidLayer = errors.New("Invalid temporary layer")
	// ErrAttributeMismatch is returned when a feature's attributes are not aligned with the layer's fields.
	ErrAttributeMismatch = errors.New("Attribute count mismatch")
)

// Output field types.
const (
	TypeDouble = "double"
	TypeString = "string"
)

// Field is a field of a temporary layer.
type Field struct {
	Name   string
	Type   string
	Length int
}

// Feature is a feature of a temporary layer.
type Feature struct {
	// SourceID is the id of the source layer feature this feature was derived from.
	SourceID   int64
	Geometry   orb.Geometry
	Attributes []any
}

// Layer is an in-memory layer holding exactly the fields, and features, that are exported.
type Layer struct {
	name      string
	geometry  string
	crs       host.CRS
	fields    []Field
	features  []*Feature
	by_source map[int64]int
}

// New returns an empty Layer. geometry_type is a GeoJSON geometry type ("Point", "MultiPolygon", ...).
func New(name string, geometry_type string, crs host.CRS, fields []Field) (*Layer, error) {

	if geometry_type == "" {
		return nil, fmt.Errorf("%w, missing geometry type", ErrInvalidLayer)
	}

	l := &Layer{
		name:      name,
		geometry:  geometry_type,
		crs:       crs,
		fields:    make([]Field, 0, len(fields)),
		features:  make([]*Feature, 0),
		by_source: make(map[int64]int),
	}

	err := l.AddFields(fields...)

	if err != nil {
		return nil, err
	}

	return l, nil
}

func (l *Layer) Name() string {
	return l.name
}

// GeometryType returns the GeoJSON geometry type of the layer.
func (l *Layer) GeometryType() string {
	return l.geometry
}

func (l *Layer) CRS() host.CRS {
	return l.crs
}

func (l *Layer) Fields() []Field {
	return l.fields
}

func (l *Layer) Features() []*Feature {
	return l.features
}

// FieldIndex returns the index of the field named name, or -1.
func (l *Layer) FieldIndex(name string) int {

	for i, f := range l.fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}

// FeatureIndex returns the position of the feature derived from the source feature with id source_id.
func (l *Layer) FeatureIndex(source_id int64) (int, bool) {
	idx, ok := l.by_source[source_id]
	return idx, ok
}

// AddFields appends fields to the layer. Existing features receive a null value for each new field.
func (l *Layer) AddFields(fields ...Field) error {

	for _, f := range fields {

		if f.Name == "" {
			return fmt.Errorf("%w, empty field name", ErrInvalidLayer)
		}

		if l.FieldIndex(f.Name) != -1 {
			return fmt.Errorf("%w, duplicate field name '%s'", ErrInvalidLayer, f.Name)
		}

		switch f.Type {
		case TypeDouble, TypeString:
			// pass
		default:
			return fmt.Errorf("%w, unsupported type '%s' for field '%s'", ErrInvalidLayer, f.Type, f.Name)
		}

		l.fields = append(l.fields, f)
	}

	for _, f := range l.features {
		for len(f.Attributes) < len(l.fields) {
			f.Attributes = append(f.Attributes, nil)
		}
	}

	return nil
}

// AddFeature appends f to the layer. Features whose attribute count differs from the layer's field count
// are rejected with ErrAttributeMismatch.
func (l *Layer) AddFeature(f *Feature) error {

	if len(f.Attributes) != len(l.fields) {
		return fmt.Errorf("%w, feature %d has %d attributes for %d fields", ErrAttributeMismatch, f.SourceID, len(f.Attributes), len(l.fields))
	}

	l.by_source[f.SourceID] = len(l.features)
	l.features = append(l.features, f)

	return nil
}

// SetAttributes assigns values, keyed by field name, to the feature at position idx.
func (l *Layer) SetAttributes(idx int, values map[string]any) error {

	if idx < 0 || idx >= len(l.features) {
		return fmt.Errorf("Invalid feature index %d", idx)
	}

	f := l.features[idx]

	for name, v := range values {

		i := l.FieldIndex(name)

		if i == -1 {
			return fmt.Errorf("Unknown field '%s'", name)
		}

		f.Attributes[i] = v
	}

	return nil
}
