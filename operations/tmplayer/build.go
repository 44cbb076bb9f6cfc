package tmplayer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/fields"
	"github.com/sfomuseum/go-webmap-layers/geo"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/mapping"
	"github.com/sfomuseum/go-webmap-layers/related"
)

// ExtentCanvas is the extent mode restricting exports to the current map view.
const ExtentCanvas = "Canvas extent"

// RelatedDataField is the name of the field holding the serialized related features of each feature.
const RelatedDataField = "qgis2web_related_data"

// RelatedDataLength is the capacity of RelatedDataField.
const RelatedDataLength = 50000

// Options configure how a temporary layer is built.
type Options struct {
	RestrictToExtent bool
	ExtentMode       string
	ExportRelated    bool
}

// Build derives a temporary layer from layer containing only the used fields (see fields.UsedFields) and,
// optionally, the serialized related data of each feature. It returns nil, nil for layers without geometry
// and an error wrapping ErrInvalidLayer if the temporary layer can not be constructed. Features whose
// attributes do not line up with the temporary layer's fields are logged and dropped.
func Build(ctx context.Context, p *host.Project, layer host.VectorLayer, opts *Options) (*Layer, error) {

	logger := common.Logger().With("layer", layer.Name())

	if layer.WkbType().Kind() == host.GeometryNull {
		return nil, nil
	}

	geom_type, ok := mapping.GeometryType(layer.WkbType())

	if !ok {
		return nil, fmt.Errorf("%w, unsupported geometry type %s", ErrInvalidLayer, layer.WkbType())
	}

	source_fields := layer.Fields()
	used := fields.UsedFields(layer)

	tmp_fields := make([]Field, 0, len(used)+1)

	for _, i := range used {

		t := TypeString

		if source_fields[i].Type.IsNumeric() {
			t = TypeDouble
		}

		tmp_fields = append(tmp_fields, Field{
			Name:   fields.ExportName(layer, i),
			Type:   t,
			Length: source_fields[i].Length,
		})
	}

	if opts.ExportRelated {
		tmp_fields = append(tmp_fields, Field{
			Name:   RelatedDataField,
			Type:   TypeString,
			Length: RelatedDataLength,
		})
	}

	tmp, err := New(layer.Name(), geom_type, layer.CRS(), tmp_fields)

	if err != nil {
		return nil, err
	}

	req, err := Request(p, layer, opts)

	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidLayer, err)
	}

	cb := func(f *host.Feature) error {

		attrs := make([]any, 0, len(tmp_fields))

		for _, i := range used {
			if i < len(f.Attributes) {
				attrs = append(attrs, f.Attributes[i])
			}
		}

		if opts.ExportRelated {
			attrs = append(attrs, relatedValue(ctx, p, layer, f))
		}

		var geom orb.Geometry

		if f.Geometry != nil {
			geom = orb.Clone(f.Geometry)
		}

		err := tmp.AddFeature(&Feature{
			SourceID:   f.ID,
			Geometry:   geom,
			Attributes: attrs,
		})

		if err != nil {

			if !errors.Is(err, ErrAttributeMismatch) {
				return err
			}

			logger.Warn("Attribute count mismatch, dropping feature", "feature", f.ID, "error", err)
		}

		return nil
	}

	err = layer.Features(ctx, req, cb)

	if err != nil {
		return nil, fmt.Errorf("Failed to populate temporary layer, %w", err)
	}

	return tmp, nil
}

// Request returns the feature request for the features of layer that are exported. When exports are
// restricted to the canvas extent the request selects features that intersect the canvas extent,
// transformed into the layer's CRS. Otherwise it is nil and every feature is exported.
func Request(p *host.Project, layer host.VectorLayer, opts *Options) (*host.FeatureRequest, error) {

	if !opts.RestrictToExtent || opts.ExtentMode != ExtentCanvas {
		return nil, nil
	}

	b, err := geo.TransformBound(p.Canvas.Extent, p.Canvas.CRS, layer.CRS())

	if err != nil {
		return nil, fmt.Errorf("Failed to transform canvas extent, %w", err)
	}

	req := &host.FeatureRequest{
		Bound:          &b,
		ExactIntersect: true,
	}

	return req, nil
}

func relatedValue(ctx context.Context, p *host.Project, layer host.VectorLayer, f *host.Feature) any {

	data := related.RelatedData(ctx, p, layer, f)

	if len(data) == 0 {
		return nil
	}

	enc, err := json.Marshal(data)

	if err != nil {
		common.Logger().Warn("Failed to serialize related data", "layer", layer.Name(), "feature", f.ID, "error", err)
		return nil
	}

	return string(enc)
}
