// Package project builds an in-memory snapshot of a GIS project (layers, styles, relations and
// the current map view) from a TOML description so that layers can be exported from the command line.
package project

import (
	"github.com/sfomuseum/go-webmap-layers/host"
)

// LayerOptions are the properties common to all layers.
type LayerOptions struct {
	ID           string
	Name         string
	CRS          host.CRS
	ProviderType string
	Properties   map[string]string
	BlendMode    host.BlendMode
	ScaleRange   host.ScaleRange
}

type layer struct {
	opts *LayerOptions
}

func (l *layer) ID() string {
	return l.opts.ID
}

func (l *layer) Name() string {
	return l.opts.Name
}

func (l *layer) CRS() host.CRS {
	return l.opts.CRS
}

func (l *layer) ProviderType() string {
	return l.opts.ProviderType
}

func (l *layer) CustomProperty(key string) (string, bool) {

	if l.opts.Properties == nil {
		return "", false
	}

	v, ok := l.opts.Properties[key]
	return v, ok
}

func (l *layer) BlendMode() host.BlendMode {
	return l.opts.BlendMode
}

func (l *layer) ScaleRange() host.ScaleRange {
	return l.opts.ScaleRange
}

// ServiceLayer is a layer backed by a live service (or an unsupported layer type) that is never
// exported directly.
type ServiceLayer struct {
	layer
	kind host.LayerKind
}

// NewServiceLayer returns a layer of kind k with no exportable data.
func NewServiceLayer(opts *LayerOptions, k host.LayerKind) *ServiceLayer {

	l := &ServiceLayer{
		layer: layer{opts: opts},
		kind:  k,
	}

	return l
}

func (l *ServiceLayer) Kind() host.LayerKind {
	return l.kind
}
