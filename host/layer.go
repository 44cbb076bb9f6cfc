// Package host defines the read-only view of a desktop GIS project that export operations consume.
// Nothing in this package renders, styles or writes data; implementations are provided by the
// hosting application (or by the project package for command line use).
package host

import (
	"context"
	"image"

	"github.com/paulmach/orb"
)

// LayerKind distinguishes vector, raster and other (plugin, mesh, etc.) layers.
type LayerKind int

const (
	KindOther LayerKind = iota
	KindVector
	KindRaster
)

// Custom property keys read by export operations.
const (
	PropertyLabelsEnabled    = "labeling/enabled"
	PropertyLabelsFieldName  = "labeling/fieldName"
	PropertyVectorTileSource = "VectorTilesReader/vector_tile_source"
)

// Editor widget types that change how a field is exported.
const (
	WidgetHidden           = "Hidden"
	WidgetExternalResource = "ExternalResource"
)

// Provider types that are treated as live services rather than exportable data.
const (
	ProviderWFS = "WFS"
	ProviderWMS = "wms"
)

// ScaleRange is the (inclusive) scale based visibility range of a layer. A zero value for either
// bound means "no limit".
type ScaleRange struct {
	Enabled  bool
	MinScale float64
	MaxScale float64
}

// Layer is the common interface for all layers in a project.
type Layer interface {
	// ID is the unique (within a project) identifier of the layer.
	ID() string
	// Name is the display name of the layer.
	Name() string
	Kind() LayerKind
	CRS() CRS
	// ProviderType is the name of the data provider backing the layer ("ogr", "memory", "WFS", "wms", "gdal", ...)
	ProviderType() string
	// CustomProperty returns a layer custom property and whether it is set.
	CustomProperty(string) (string, bool)
	BlendMode() BlendMode
	ScaleRange() ScaleRange
}

// VectorLayer is a Layer containing features.
type VectorLayer interface {
	Layer
	WkbType() WkbType
	Fields() []Field
	// EditorWidget returns the editor widget type for the field at index i.
	EditorWidget(i int) string
	Style() *Style
	// Variable returns a layer scoped expression variable.
	Variable(string) (string, bool)
	// Features dispatches every feature matching req (which may be nil) to cb. Iteration stops
	// on the first error returned by cb.
	Features(ctx context.Context, req *FeatureRequest, cb func(*Feature) error) error
}

// RasterLayer is a Layer backed by gridded data.
type RasterLayer interface {
	Layer
	Extent() orb.Bound
	Width() int
	Height() int
	// Pipe returns a clone of the layer's data provider and renderer.
	Pipe() (Pipe, error)
}

// Pipe is a cloned provider/renderer pair that can render a raster layer independent of the layer itself.
type Pipe interface {
	// Render renders extent into an image of width x height pixels. A height <= 0 means derive the height
	// from width and the aspect ratio of extent.
	Render(ctx context.Context, width int, height int, extent orb.Bound) (image.Image, error)
}

// RasterFileWriter is an opaque encoder for the (lossless, georeferenced) intermediate raster file.
type RasterFileWriter interface {
	// Extension is the filename extension, including the leading ".", of files produced by the writer.
	Extension() string
	WriteRaster(ctx context.Context, pipe Pipe, path string, width int, height int, extent orb.Bound, crs CRS) error
}

// CRS is a coordinate reference system identified by its authority id, for example "EPSG:4326".
type CRS string

const (
	WGS84       CRS = "EPSG:4326"
	WebMercator CRS = "EPSG:3857"
)

// IsValid reports whether crs has a non-empty authority id.
func (crs CRS) IsValid() bool {
	return crs != ""
}

// IsVector reports whether l is a vector layer (and returns it as such).
func IsVector(l Layer) (VectorLayer, bool) {

	if l.Kind() != KindVector {
		return nil, false
	}

	v, ok := l.(VectorLayer)
	return v, ok
}

// IsRaster reports whether l is a raster layer (and returns it as such).
func IsRaster(l Layer) (RasterLayer, bool) {

	if l.Kind() != KindRaster {
		return nil, false
	}

	r, ok := l.(RasterLayer)
	return r, ok
}

// HasVectorTileSource reports whether l is backed by an externally tiled vector source.
func HasVectorTileSource(l Layer) bool {
	_, ok := l.CustomProperty(PropertyVectorTileSource)
	return ok
}
