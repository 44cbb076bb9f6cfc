package fields

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sfomuseum/go-webmap-layers/host"
)

// Domain is the set (or range) of values a web map filter offers for a field.
type Domain struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
	// Values is either the sorted distinct values (str, bool) or a [min, max] pair.
	Values []any `json:"values"`
}

// FilterDomain derives the filter domain for the field named name across all the vector layers in layers
// whose same-named field classifies as t. It returns nil if no (non-null) values are found.
func FilterDomain(ctx context.Context, layers []host.Layer, name string, t Type) (*Domain, error) {

	if t == Bool {

		d := &Domain{
			Name:   name,
			Type:   t,
			Values: []any{"true", "false"},
		}

		return d, nil
	}

	values := make([]any, 0)

	for _, l := range layers {

		v, ok := host.IsVector(l)

		if !ok {
			continue
		}

		idx := matchingField(v.Fields(), name, t)

		if idx == -1 {
			continue
		}

		err := v.Features(ctx, nil, func(f *host.Feature) error {

			if idx < len(f.Attributes) && !host.IsNull(f.Attributes[idx]) {
				values = append(values, f.Attributes[idx])
			}

			return nil
		})

		if err != nil {
			return nil, fmt.Errorf("Failed to iterate features for %s, %w", v.Name(), err)
		}
	}

	if len(values) == 0 {
		return nil, nil
	}

	d := &Domain{
		Name: name,
		Type: t,
	}

	switch t {
	case Str:
		d.Values = distinctStrings(values)
	case Int:
		d.Values = intRange(values)
	case Real:
		d.Values = realRange(values)
	case Date, DateTime, Time:
		d.Values = textRange(values)
	default:
		return nil, fmt.Errorf("Unsupported filter type '%s'", t)
	}

	if d.Values == nil {
		return nil, nil
	}

	return d, nil
}

func matchingField(fields []host.Field, name string, t Type) int {

	for i, f := range fields {

		if f.Name != name {
			continue
		}

		ft, ok := Classify(f.TypeName)

		if ok && ft == t {
			return i
		}
	}

	return -1
}

func distinctStrings(values []any) []any {

	seen := make(map[string]bool)
	str_values := make([]string, 0)

	for _, v := range values {

		str, ok := host.ValueString(v)

		if !ok || seen[str] {
			continue
		}

		seen[str] = true
		str_values = append(str_values, str)
	}

	sort.Strings(str_values)

	out := make([]any, len(str_values))

	for i, str := range str_values {
		out[i] = str
	}

	return out
}

func intRange(values []any) []any {

	min := int64(math.MaxInt64)
	max := int64(math.MinInt64)
	found := false

	for _, v := range values {

		fl, ok := host.ValueFloat(v)

		if !ok {
			continue
		}

		i := int64(fl)
		found = true

		if i < min {
			min = i
		}

		if i > max {
			max = i
		}
	}

	if !found {
		return nil
	}

	if min < 0 {
		min = 0
	}

	if max < 0 {
		max = 0
	}

	if min == max {
		max = min + 1
	}

	return []any{min, max}
}

func realRange(values []any) []any {

	min := math.Inf(1)
	max := math.Inf(-1)
	found := false

	for _, v := range values {

		fl, ok := host.ValueFloat(v)

		if !ok || math.IsNaN(fl) {
			continue
		}

		found = true
		min = math.Min(min, fl)
		max = math.Max(max, fl)
	}

	if !found {
		return nil
	}

	if min == max {

		nudge := math.Abs(min) / 10

		if nudge == 0 {
			nudge = 1
		}

		max = min + nudge
	}

	return []any{min, max}
}

// textRange returns the [min, max] of ISO-8601 renderings, which sort lexically.
func textRange(values []any) []any {

	var min string
	var max string
	found := false

	for _, v := range values {

		str, ok := host.ValueString(v)

		if !ok || str == "" {
			continue
		}

		if !found {
			min = str
			max = str
			found = true
			continue
		}

		if str < min {
			min = str
		}

		if str > max {
			max = str
		}
	}

	if !found {
		return nil
	}

	return []any{min, max}
}
