package project

import (
	"fmt"
	"strings"

	"github.com/sfomuseum/go-webmap-layers/host"
)

var blend_modes = map[string]host.BlendMode{
	"normal":      host.BlendSourceOver,
	"multiply":    host.BlendMultiply,
	"screen":      host.BlendScreen,
	"overlay":     host.BlendOverlay,
	"darken":      host.BlendDarken,
	"lighten":     host.BlendLighten,
	"color-dodge": host.BlendColorDodge,
	"color-burn":  host.BlendColorBurn,
	"hard-light":  host.BlendHardLight,
	"soft-light":  host.BlendSoftLight,
	"difference":  host.BlendDifference,
	"exclusion":   host.BlendExclusion,
}

func parseBlendMode(str string) (host.BlendMode, error) {

	if str == "" {
		return host.BlendSourceOver, nil
	}

	m, ok := blend_modes[strings.ToLower(str)]

	if !ok {
		return host.BlendOther, fmt.Errorf("Unknown blend mode '%s'", str)
	}

	return m, nil
}

func newStyle(cfg *StyleConfig) (*host.Style, error) {

	if cfg == nil {
		s := &host.Style{
			Kind:   host.StyleSingle,
			Symbol: &host.Symbol{},
		}
		return s, nil
	}

	s := &host.Style{
		ClassAttribute: cfg.Attribute,
		Symbol:         newSymbol(cfg.Symbol),
	}

	switch strings.ToLower(cfg.Kind) {
	case "", "single":
		s.Kind = host.StyleSingle
	case "categorized":

		s.Kind = host.StyleCategorized

		for _, c := range cfg.Categories {

			s.Categories = append(s.Categories, host.Category{
				Value:  c.Value,
				Label:  c.Label,
				Symbol: newSymbol(c.Symbol),
			})
		}

	case "graduated":

		s.Kind = host.StyleGraduated

		for _, r := range cfg.Ranges {

			s.Ranges = append(s.Ranges, host.Range{
				Lower:  r.Lower,
				Upper:  r.Upper,
				Label:  r.Label,
				Symbol: newSymbol(r.Symbol),
			})
		}

	case "rule", "rule-based":

		s.Kind = host.StyleRuleBased

		for _, r := range cfg.Rules {

			rule := host.Rule{
				Label:  r.Label,
				Symbol: newSymbol(r.Symbol),
			}

			if r.Field != "" {

				req := &host.FeatureRequest{
					Filters: []host.AttributeFilter{
						{Field: r.Field, Value: r.Value},
					},
				}

				rule.Filter = func(fields []host.Field, f *host.Feature) bool {
					return req.MatchesAttributes(fields, f)
				}
			}

			s.Rules = append(s.Rules, rule)
		}

	case "null":
		s.Kind = host.StyleNull
	case "25d", "2.5d":
		s.Kind = host.Style25D
	default:
		return nil, fmt.Errorf("Unknown style kind '%s'", cfg.Kind)
	}

	return s, nil
}

func newSymbol(cfg *SymbolConfig) *host.Symbol {

	if cfg == nil {
		return nil
	}

	s := &host.Symbol{
		Color:  cfg.Color,
		Layers: make([]host.SymbolLayer, len(cfg.Layers)),
	}

	for i, l := range cfg.Layers {

		kind := host.SymbolLayerOther

		switch strings.ToLower(l.Kind) {
		case "", "simple":
			kind = host.SymbolLayerSimple
		case "geometry_generator", "geometrygenerator":
			kind = host.SymbolLayerGeometryGenerator
		}

		s.Layers[i] = host.SymbolLayer{
			Kind:      kind,
			Color:     l.Color,
			SubSymbol: newSymbol(l.SubSymbol),
		}
	}

	return s
}
