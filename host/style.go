package host

import (
	"fmt"
)

// StyleKind is the closed set of feature renderers export operations understand.
type StyleKind int

const (
	StyleOther StyleKind = iota
	StyleSingle
	StyleCategorized
	StyleGraduated
	StyleRuleBased
	StyleNull
	Style25D
)

// SymbolLayerKind identifies the type of a single paint layer inside a Symbol.
type SymbolLayerKind int

const (
	SymbolLayerSimple SymbolLayerKind = iota
	SymbolLayerGeometryGenerator
	SymbolLayerOther
)

// SymbolLayer is one paint layer of a Symbol.
type SymbolLayer struct {
	Kind SymbolLayerKind
	// Color is the layer's colour in any CSS-ish notation ("#rrggbb", "rgb(...)", "r,g,b,a").
	Color string
	// SubSymbol is the symbol used to paint the geometry produced by a geometry generator layer.
	SubSymbol *Symbol
}

// Symbol is an ordered stack of paint layers.
type Symbol struct {
	Color  string
	Layers []SymbolLayer
}

// Layer returns the paint layer at index i.
func (s *Symbol) Layer(i int) (SymbolLayer, bool) {

	if s == nil || i < 0 || i >= len(s.Layers) {
		return SymbolLayer{}, false
	}

	return s.Layers[i], true
}

// Category assigns a symbol to features whose classification value equals Value.
type Category struct {
	Value  any
	Label  string
	Symbol *Symbol
}

// Range assigns a symbol to features whose classification value falls within [Lower, Upper].
type Range struct {
	Lower  float64
	Upper  float64
	Label  string
	Symbol *Symbol
}

// Rule assigns a symbol to features matching Filter. A nil Filter matches everything.
type Rule struct {
	Label  string
	Filter func(fields []Field, f *Feature) bool
	Symbol *Symbol
}

// Style describes how the features of a vector layer are painted.
type Style struct {
	Kind StyleKind
	// ClassAttribute is the field driving categorized and graduated styles.
	ClassAttribute string
	Categories     []Category
	Ranges         []Range
	Rules          []Rule
	// Symbol is the symbol for single (and 2.5D) styles.
	Symbol *Symbol
	// SymbolFunc resolves the symbol for a feature for styles not otherwise described here.
	SymbolFunc func(fields []Field, f *Feature) *Symbol
}

// ClassificationField returns the field that drives the style, if any.
func (s *Style) ClassificationField() (string, bool) {

	if s == nil {
		return "", false
	}

	switch s.Kind {
	case StyleCategorized, StyleGraduated:
		return s.ClassAttribute, s.ClassAttribute != ""
	default:
		return "", false
	}
}

// RepresentativeSymbols returns one symbol per category, range or rule. ok is false for styles that
// can only resolve symbols on a per-feature basis.
func (s *Style) RepresentativeSymbols() ([]*Symbol, bool) {

	if s == nil {
		return nil, false
	}

	symbols := make([]*Symbol, 0)

	switch s.Kind {
	case StyleCategorized:
		for _, c := range s.Categories {
			symbols = append(symbols, c.Symbol)
		}
	case StyleGraduated:
		for _, r := range s.Ranges {
			symbols = append(symbols, r.Symbol)
		}
	case StyleRuleBased:
		for _, r := range s.Rules {
			symbols = append(symbols, r.Symbol)
		}
	default:
		return nil, false
	}

	return symbols, true
}

// ResolveSymbol returns the symbol used to paint f. Categorized and graduated styles are resolved by
// matching the feature's classification value; everything else defers to the rules, SymbolFunc or Symbol.
func (s *Style) ResolveSymbol(fields []Field, f *Feature) (*Symbol, error) {

	if s == nil {
		return nil, fmt.Errorf("Missing style")
	}

	switch s.Kind {
	case StyleNull:
		return nil, nil
	case StyleCategorized:

		v, ok := f.Attribute(fields, s.ClassAttribute)

		if !ok {
			return nil, fmt.Errorf("Feature %d is missing classification attribute '%s'", f.ID, s.ClassAttribute)
		}

		for _, c := range s.Categories {
			if categoryMatches(c.Value, v) {
				return c.Symbol, nil
			}
		}

		return nil, fmt.Errorf("No category for value '%v'", v)

	case StyleGraduated:

		v, ok := f.Attribute(fields, s.ClassAttribute)

		if !ok {
			return nil, fmt.Errorf("Feature %d is missing classification attribute '%s'", f.ID, s.ClassAttribute)
		}

		fl, ok := ValueFloat(v)

		if !ok {
			return nil, fmt.Errorf("Classification value '%v' is not numeric", v)
		}

		var symbol *Symbol

		// last matching range wins, ranges may share bounds
		for _, r := range s.Ranges {
			if fl >= r.Lower && fl <= r.Upper {
				symbol = r.Symbol
			}
		}

		if symbol == nil {
			return nil, fmt.Errorf("No range for value '%v'", v)
		}

		return symbol, nil

	case StyleRuleBased:

		for _, r := range s.Rules {
			if r.Filter == nil || r.Filter(fields, f) {
				return r.Symbol, nil
			}
		}

		return nil, fmt.Errorf("No rule matches feature %d", f.ID)

	default:

		if s.SymbolFunc != nil {
			return s.SymbolFunc(fields, f), nil
		}

		return s.Symbol, nil
	}
}

func categoryMatches(category any, value any) bool {

	if IsNull(value) {
		return category == nil || category == ""
	}

	cf, c_ok := ValueFloat(category)
	vf, v_ok := ValueFloat(value)

	if c_ok && v_ok {
		return cf == vf
	}

	cs, _ := ValueString(category)
	vs, _ := ValueString(value)

	return cs == vs
}
