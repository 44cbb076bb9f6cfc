// Package related flattens the features related to a feature, through the project's relations, into
// plain attribute maps.
package related

import (
	"context"
	"errors"
	"fmt"

	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/host"
)

// ErrRequest is returned when the request for the related features of a relation can not be built.
var ErrRequest = errors.New("Failed to build related features request")

// Data maps sanitized relation names to the attributes of each related feature.
type Data map[string][]map[string]any

// RelatedData returns the attributes of the features related to f (a feature of layer) for every relation
// in which layer participates, on either side. Relations without related features are omitted.
// Failures for a single relation or related feature are logged and skipped.
func RelatedData(ctx context.Context, p *host.Project, layer host.VectorLayer, f *host.Feature) Data {

	logger := common.Logger()
	data := make(Data)

	for _, rel := range p.Relations {

		related_layer, req, err := Request(rel, layer, f)

		if err != nil {

			if !errors.Is(err, errNotParticipating) {
				logger.Warn("Failed to get related features request", "relation", rel.Name, "feature", f.ID, "error", err)
			}

			continue
		}

		rel_name := common.SafeName(rel.Name)
		related_fields := related_layer.Fields()

		rows := make([]map[string]any, 0)

		err = related_layer.Features(ctx, req, func(related_f *host.Feature) error {

			if len(related_f.Attributes) != len(related_fields) {
				logger.Warn("Attribute count mismatch, skipping feature", "layer", related_layer.Name(), "feature", related_f.ID, "fields", len(related_fields), "attributes", len(related_f.Attributes))
				return nil
			}

			row := make(map[string]any)

			for i, fld := range related_fields {
				row[fld.Name] = Value(related_f.Attributes[i])
			}

			rows = append(rows, row)
			return nil
		})

		if err != nil {
			logger.Warn("Failed to process related features", "relation", rel.Name, "layer", related_layer.Name(), "error", err)
			continue
		}

		if len(rows) > 0 {
			data[rel_name] = rows
		}
	}

	return data
}

var errNotParticipating = errors.New("Layer does not participate in relation")

// Request returns the layer on the other side of rel from layer and the request selecting the features
// related to f.
func Request(rel *host.Relation, layer host.VectorLayer, f *host.Feature) (host.VectorLayer, *host.FeatureRequest, error) {

	var related_layer host.VectorLayer
	var from_referencing bool

	switch {
	case rel.Referencing != nil && rel.Referencing.ID() == layer.ID():
		related_layer = rel.Referenced
		from_referencing = true
	case rel.Referenced != nil && rel.Referenced.ID() == layer.ID():
		related_layer = rel.Referencing
		from_referencing = false
	default:
		return nil, nil, errNotParticipating
	}

	if related_layer == nil {
		return nil, nil, fmt.Errorf("%w, relation '%s' is missing a layer", ErrRequest, rel.Name)
	}

	if len(rel.FieldPairs) == 0 {
		return nil, nil, fmt.Errorf("%w, relation '%s' has no field pairs", ErrRequest, rel.Name)
	}

	fields := layer.Fields()
	req := &host.FeatureRequest{
		Filters: make([]host.AttributeFilter, 0, len(rel.FieldPairs)),
	}

	for _, pair := range rel.FieldPairs {

		local := pair.Referenced
		remote := pair.Referencing

		if from_referencing {
			local = pair.Referencing
			remote = pair.Referenced
		}

		v, ok := f.Attribute(fields, local)

		if !ok {
			return nil, nil, fmt.Errorf("%w, feature %d has no field '%s'", ErrRequest, f.ID, local)
		}

		if host.FieldIndex(related_layer.Fields(), remote) == -1 {
			return nil, nil, fmt.Errorf("%w, layer '%s' has no field '%s'", ErrRequest, related_layer.Name(), remote)
		}

		req.Filters = append(req.Filters, host.AttributeFilter{Field: remote, Value: v})
	}

	return related_layer, req, nil
}

// Value renders an attribute value for serialization: null and invalid values become nil, dates
// and times ISO-8601 text and everything else text (or a typed placeholder).
func Value(v any) any {

	str, ok := host.ValueString(v)

	if !ok {
		return nil
	}

	return str
}
