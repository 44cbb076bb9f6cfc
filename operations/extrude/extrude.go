// Package extrude detects polygon layers styled as extruded (2.5D) buildings and derives the height and
// wall/roof colour attributes web maps need to draw them.
package extrude

import (
	"context"
	"fmt"

	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/mapping"
	"github.com/sfomuseum/go-webmap-layers/operations/tmplayer"
)

// HeightExpression is evaluated for each feature to derive its extrusion height.
const HeightExpression = "eval(@qgis_25d_height)"

// Names of the fields appended by Add25DAttributes.
const (
	HeightField = "height"
	WallField   = "wallColor"
	RoofField   = "roofColor"
)

// Is25D reports whether layer is a polygon layer styled as extruded buildings: either with a 2.5D style
// or with a symbol whose second and third paint layers are both geometry generators. Styles that
// resolve symbols per feature are evaluated for the features that would be exported given opts.
func Is25D(ctx context.Context, p *host.Project, layer host.Layer, opts *tmplayer.Options) bool {

	v, ok := host.IsVector(layer)

	if !ok {
		return false
	}

	if v.WkbType().Kind() != host.GeometryPolygon {
		return false
	}

	if host.HasVectorTileSource(v) {
		return false
	}

	style := v.Style()

	if style == nil || style.Kind == host.StyleNull {
		return false
	}

	if style.Kind == host.Style25D {
		return true
	}

	symbols, ok := style.RepresentativeSymbols()

	if !ok {

		s, err := featureSymbols(ctx, p, v, opts)

		if err != nil {
			common.Logger().Warn("Failed to resolve feature symbols", "layer", v.Name(), "error", err)
			return false
		}

		symbols = s
	}

	for _, s := range symbols {
		if isExtruded(s) {
			return true
		}
	}

	return false
}

func featureSymbols(ctx context.Context, p *host.Project, layer host.VectorLayer, opts *tmplayer.Options) ([]*host.Symbol, error) {

	req, err := tmplayer.Request(p, layer, opts)

	if err != nil {
		return nil, err
	}

	style := layer.Style()
	fields := layer.Fields()

	symbols := make([]*host.Symbol, 0)

	err = layer.Features(ctx, req, func(f *host.Feature) error {

		s, err := style.ResolveSymbol(fields, f)

		if err != nil {
			common.Logger().Debug("Failed to resolve symbol", "layer", layer.Name(), "feature", f.ID, "error", err)
			return nil
		}

		if s != nil {
			symbols = append(symbols, s)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return symbols, nil
}

// Symbols with fewer than three paint layers are never extruded.
func isExtruded(s *host.Symbol) bool {

	walls, ok := s.Layer(1)

	if !ok {
		return false
	}

	roof, ok := s.Layer(2)

	if !ok {
		return false
	}

	return walls.Kind == host.SymbolLayerGeometryGenerator && roof.Kind == host.SymbolLayerGeometryGenerator
}

// Add25DAttributes appends height, wallColor and roofColor fields to tmp, the temporary layer derived from
// layer, and populates them for each feature. Values that can not be derived are left null.
func Add25DAttributes(ctx context.Context, p *host.Project, tmp *tmplayer.Layer, layer host.VectorLayer) error {

	logger := common.Logger().With("layer", layer.Name())

	err := tmp.AddFields(
		tmplayer.Field{Name: HeightField, Type: tmplayer.TypeDouble},
		tmplayer.Field{Name: WallField, Type: tmplayer.TypeString},
		tmplayer.Field{Name: RoofField, Type: tmplayer.TypeString},
	)

	if err != nil {
		return fmt.Errorf("Failed to add 2.5D fields, %w", err)
	}

	style := layer.Style()
	fields := layer.Fields()

	cb := func(f *host.Feature) error {

		idx, ok := tmp.FeatureIndex(f.ID)

		if !ok {
			return nil
		}

		values := map[string]any{
			HeightField: height(ctx, p, layer, f),
		}

		symbol, err := style.ResolveSymbol(fields, f)

		if err != nil {
			logger.Debug("Failed to resolve symbol", "feature", f.ID, "error", err)
		} else {
			values[WallField] = subSymbolColor(symbol, 1)
			values[RoofField] = subSymbolColor(symbol, 2)
		}

		return tmp.SetAttributes(idx, values)
	}

	err = layer.Features(ctx, nil, cb)

	if err != nil {
		return fmt.Errorf("Failed to add 2.5D attributes, %w", err)
	}

	return nil
}

func height(ctx context.Context, p *host.Project, layer host.VectorLayer, f *host.Feature) any {

	if p.Evaluator == nil {
		return nil
	}

	v, err := p.Evaluator.Evaluate(ctx, layer, HeightExpression, f)

	if err != nil {
		common.Logger().Debug("Failed to evaluate height", "layer", layer.Name(), "feature", f.ID, "error", err)
		return nil
	}

	h, ok := host.ValueFloat(v)

	if !ok {
		return nil
	}

	return h
}

func subSymbolColor(s *host.Symbol, i int) any {

	sl, ok := s.Layer(i)

	if !ok || sl.SubSymbol == nil {
		return nil
	}

	hex, err := mapping.HexColor(sl.SubSymbol.Color)

	if err != nil {
		return nil
	}

	return hex
}
