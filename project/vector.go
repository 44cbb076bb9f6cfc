package project

import (
	"context"

	"github.com/sfomuseum/go-webmap-layers/geo"
	"github.com/sfomuseum/go-webmap-layers/host"
)

// VectorLayerOptions describe an in-memory vector layer.
type VectorLayerOptions struct {
	LayerOptions
	WkbType host.WkbType
	Fields  []host.Field
	// Widgets maps field names to editor widget types.
	Widgets   map[string]string
	Style     *host.Style
	Variables map[string]string
	Features  []*host.Feature
}

// VectorLayer is an in-memory implementation of host.VectorLayer.
type VectorLayer struct {
	layer
	vector_opts *VectorLayerOptions
}

// NewVectorLayer returns a new VectorLayer. Feature IDs of zero are assigned sequentially.
func NewVectorLayer(opts *VectorLayerOptions) *VectorLayer {

	for i, f := range opts.Features {
		if f.ID == 0 {
			f.ID = int64(i + 1)
		}
	}

	l := &VectorLayer{
		layer:       layer{opts: &opts.LayerOptions},
		vector_opts: opts,
	}

	return l
}

func (l *VectorLayer) Kind() host.LayerKind {
	return host.KindVector
}

func (l *VectorLayer) WkbType() host.WkbType {
	return l.vector_opts.WkbType
}

func (l *VectorLayer) Fields() []host.Field {
	return l.vector_opts.Fields
}

func (l *VectorLayer) EditorWidget(i int) string {

	if i < 0 || i >= len(l.vector_opts.Fields) || l.vector_opts.Widgets == nil {
		return ""
	}

	return l.vector_opts.Widgets[l.vector_opts.Fields[i].Name]
}

func (l *VectorLayer) Style() *host.Style {
	return l.vector_opts.Style
}

func (l *VectorLayer) Variable(name string) (string, bool) {

	if l.vector_opts.Variables == nil {
		return "", false
	}

	v, ok := l.vector_opts.Variables[name]
	return v, ok
}

// Features dispatches a copy of each matching feature to cb, so callers can never modify the layer.
func (l *VectorLayer) Features(ctx context.Context, req *host.FeatureRequest, cb func(*host.Feature) error) error {

	for _, f := range l.vector_opts.Features {

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			// pass
		}

		if req != nil && req.Bound != nil {

			if f.Geometry == nil {
				continue
			}

			if req.ExactIntersect {

				if !geo.Intersects(f.Geometry, *req.Bound) {
					continue
				}

			} else if !f.Geometry.Bound().Intersects(*req.Bound) {
				continue
			}
		}

		if !req.MatchesAttributes(l.vector_opts.Fields, f) {
			continue
		}

		attrs := make([]any, len(f.Attributes))
		copy(attrs, f.Attributes)

		out := &host.Feature{
			ID:         f.ID,
			Geometry:   f.Geometry,
			Attributes: attrs,
		}

		err := cb(out)

		if err != nil {
			return err
		}
	}

	return nil
}
