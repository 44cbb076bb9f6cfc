package tmplayer

import (
	"context"
	"errors"
	"testing"

	"github.com/go-test/deep"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/project"
)

func testLayer() *project.VectorLayer {

	return project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{
			ID:   "buildings",
			Name: "Buildings",
			CRS:  host.WGS84,
			Properties: map[string]string{
				host.PropertyLabelsEnabled:   "true",
				host.PropertyLabelsFieldName: "label",
			},
		},
		WkbType: host.WkbPolygon,
		Fields: []host.Field{
			{Name: "name", Type: host.FieldString, Length: 80},
			{Name: "floors", Type: host.FieldInt, Length: 4},
			{Name: "kind", Type: host.FieldString},
			{Name: "label", Type: host.FieldString},
			{Name: "secret", Type: host.FieldString},
		},
		Widgets: map[string]string{
			"kind":   host.WidgetHidden,
			"label":  host.WidgetHidden,
			"secret": host.WidgetHidden,
		},
		Style: &host.Style{
			Kind:           host.StyleCategorized,
			ClassAttribute: "kind",
		},
		Features: []*host.Feature{
			{Geometry: square(0, 0), Attributes: []any{"Terminal", int64(3), "a", "T", "x"}},
			{Geometry: square(20, 20), Attributes: []any{"Hangar", int64(1), "b", "H", "y"}},
			// misaligned
			{Geometry: square(0, 0), Attributes: []any{"Tower", int64(9)}},
		},
	})
}

func square(x float64, y float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y}}}
}

func TestBuild(t *testing.T) {

	ctx := context.Background()
	layer := testLayer()

	p := &host.Project{
		Layers: []host.Layer{layer},
	}

	tmp, err := Build(ctx, p, layer, &Options{})

	if err != nil {
		t.Fatalf("Failed to build temporary layer, %v", err)
	}

	if tmp.GeometryType() != "Polygon" {
		t.Errorf("Unexpected geometry type %s", tmp.GeometryType())
	}

	expected_fields := []Field{
		{Name: "name", Type: TypeString, Length: 80},
		{Name: "floors", Type: TypeDouble, Length: 4},
		{Name: "q2wHide_kind", Type: TypeString},
		{Name: "q2wHide_label", Type: TypeString},
	}

	if diff := deep.Equal(tmp.Fields(), expected_fields); diff != nil {
		t.Errorf("Unexpected fields, %v", diff)
	}

	features := tmp.Features()

	if len(features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(features))
	}

	for _, f := range features {
		if len(f.Attributes) != len(tmp.Fields()) {
			t.Errorf("Feature %d is not aligned with fields", f.SourceID)
		}
	}

	if diff := deep.Equal(features[1].Attributes, []any{"Hangar", int64(1), "b", "H"}); diff != nil {
		t.Errorf("Unexpected attributes, %v", diff)
	}

	idx, ok := tmp.FeatureIndex(2)

	if !ok || idx != 1 {
		t.Errorf("Unexpected index for source feature 2, %d (%t)", idx, ok)
	}
}

func TestBuildCanvasExtent(t *testing.T) {

	ctx := context.Background()
	layer := testLayer()

	p := &host.Project{
		Layers: []host.Layer{layer},
		Canvas: host.Canvas{
			Extent: orb.Bound{Min: orb.Point{-5, -5}, Max: orb.Point{5, 5}},
			CRS:    host.WGS84,
		},
	}

	opts := &Options{
		RestrictToExtent: true,
		ExtentMode:       ExtentCanvas,
	}

	tmp, err := Build(ctx, p, layer, opts)

	if err != nil {
		t.Fatalf("Failed to build temporary layer, %v", err)
	}

	if len(tmp.Features()) != 1 {
		t.Fatalf("Expected 1 feature, got %d", len(tmp.Features()))
	}

	if tmp.Features()[0].SourceID != 1 {
		t.Errorf("Unexpected source feature %d", tmp.Features()[0].SourceID)
	}

	opts.ExtentMode = "Layer extent"

	tmp, err = Build(ctx, p, layer, opts)

	if err != nil {
		t.Fatalf("Failed to build temporary layer, %v", err)
	}

	if len(tmp.Features()) != 2 {
		t.Errorf("Expected 2 features, got %d", len(tmp.Features()))
	}
}

func TestBuildRelated(t *testing.T) {

	ctx := context.Background()

	airports := project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{ID: "airports", Name: "Airports", CRS: host.WGS84},
		WkbType:      host.WkbPoint,
		Fields:       []host.Field{{Name: "code", Type: host.FieldString}},
		Features: []*host.Feature{
			{Geometry: orb.Point{0, 0}, Attributes: []any{"SFO"}},
			{Geometry: orb.Point{1, 1}, Attributes: []any{"LAX"}},
		},
	})

	gates := project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{ID: "gates", Name: "Gates", CRS: host.WGS84},
		WkbType:      host.WkbPoint,
		Fields: []host.Field{
			{Name: "gate", Type: host.FieldString},
			{Name: "airport", Type: host.FieldString},
		},
		Features: []*host.Feature{
			{Geometry: orb.Point{0, 0}, Attributes: []any{"A1", "SFO"}},
		},
	})

	p := &host.Project{
		Layers: []host.Layer{airports, gates},
		Relations: []*host.Relation{
			{
				ID:          "airport_gates",
				Name:        "Gates",
				Referencing: gates,
				Referenced:  airports,
				FieldPairs:  []host.FieldPair{{Referencing: "airport", Referenced: "code"}},
			},
		},
	}

	tmp, err := Build(ctx, p, airports, &Options{ExportRelated: true})

	if err != nil {
		t.Fatalf("Failed to build temporary layer, %v", err)
	}

	fields := tmp.Fields()
	last := fields[len(fields)-1]

	if last.Name != RelatedDataField || last.Length != RelatedDataLength {
		t.Errorf("Unexpected related data field %v", last)
	}

	features := tmp.Features()

	if len(features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(features))
	}

	if features[0].Attributes[1] != `{"Gates":[{"airport":"SFO","gate":"A1"}]}` {
		t.Errorf("Unexpected related data %v", features[0].Attributes[1])
	}

	if features[1].Attributes[1] != nil {
		t.Errorf("Unexpected related data %v", features[1].Attributes[1])
	}
}

func TestBuildInvalid(t *testing.T) {

	ctx := context.Background()
	p := &host.Project{}

	no_geom := project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{ID: "table", Name: "Table"},
		WkbType:      host.WkbNoGeometry,
	})

	tmp, err := Build(ctx, p, no_geom, &Options{})

	if err != nil || tmp != nil {
		t.Errorf("Expected no layer and no error for layer without geometry, %v", err)
	}

	curves := project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{ID: "curves", Name: "Curves"},
		WkbType:      host.WkbCompoundCurve,
	})

	_, err = Build(ctx, p, curves, &Options{})

	if !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("Expected ErrInvalidLayer, got %v", err)
	}

	duplicate := project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{ID: "dupes", Name: "Dupes"},
		WkbType:      host.WkbPoint,
		Fields: []host.Field{
			{Name: "name", Type: host.FieldString},
			{Name: "name", Type: host.FieldString},
		},
	})

	_, err = Build(ctx, p, duplicate, &Options{})

	if !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("Expected ErrInvalidLayer, got %v", err)
	}
}

func TestLayer(t *testing.T) {

	l, err := New("test", "Point", host.WGS84, []Field{{Name: "name", Type: TypeString}})

	if err != nil {
		t.Fatalf("Failed to create layer, %v", err)
	}

	err = l.AddFeature(&Feature{SourceID: 1, Attributes: []any{"a", "b"}})

	if !errors.Is(err, ErrAttributeMismatch) {
		t.Errorf("Expected ErrAttributeMismatch, got %v", err)
	}

	err = l.AddFeature(&Feature{SourceID: 1, Geometry: orb.Point{0, 0}, Attributes: []any{"a"}})

	if err != nil {
		t.Fatalf("Failed to add feature, %v", err)
	}

	err = l.AddFields(Field{Name: "height", Type: TypeDouble})

	if err != nil {
		t.Fatalf("Failed to add field, %v", err)
	}

	err = l.SetAttributes(0, map[string]any{"height": 12.5})

	if err != nil {
		t.Fatalf("Failed to set attributes, %v", err)
	}

	if diff := deep.Equal(l.Features()[0].Attributes, []any{"a", 12.5}); diff != nil {
		t.Errorf("Unexpected attributes, %v", diff)
	}

	err = l.SetAttributes(0, map[string]any{"missing": 1})

	if err == nil {
		t.Errorf("Expected error setting unknown field")
	}

	err = l.AddFields(Field{Name: "blob", Type: "binary"})

	if !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("Expected ErrInvalidLayer, got %v", err)
	}
}
