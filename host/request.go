package host

import (
	"github.com/paulmach/orb"
)

// AttributeFilter matches features whose Field attribute equals Value.
type AttributeFilter struct {
	Field string
	Value any
}

// FeatureRequest narrows the set of features returned by VectorLayer.Features.
type FeatureRequest struct {
	// Bound, if not nil, limits results to features intersecting it.
	Bound *orb.Bound
	// ExactIntersect requires a true geometric intersection with Bound rather than a bounding box test.
	ExactIntersect bool
	// Filters are ANDed together.
	Filters []AttributeFilter
	// Attributes, if not nil, are the indices of the only attributes the caller needs. Providers
	// may ignore it.
	Attributes []int
}

// MatchesAttributes reports whether f satisfies every attribute filter in req.
func (req *FeatureRequest) MatchesAttributes(fields []Field, f *Feature) bool {

	if req == nil {
		return true
	}

	for _, flt := range req.Filters {

		v, ok := f.Attribute(fields, flt.Field)

		if !ok {
			return false
		}

		if IsNull(v) || IsNull(flt.Value) {
			return false
		}

		if !categoryMatches(flt.Value, v) {
			return false
		}
	}

	return true
}
