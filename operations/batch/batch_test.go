package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/go-test/deep"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/fields"
	"github.com/sfomuseum/go-webmap-layers/gdal"
	"github.com/sfomuseum/go-webmap-layers/geo"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/project"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
)

type failingWarper struct{}

func (w *failingWarper) Warp(ctx context.Context, req *gdal.WarpRequest) error {
	return errors.New("simulated reprojection failure")
}

type failingTranslator struct{}

func (t *failingTranslator) Translate(ctx context.Context, req *gdal.TranslateRequest) error {
	return errors.New("simulated resampling failure")
}

func pointLayer(id string, name string, provider string, props map[string]string) *project.VectorLayer {

	return project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{
			ID:           id,
			Name:         name,
			CRS:          host.WGS84,
			ProviderType: provider,
			Properties:   props,
			BlendMode:    host.BlendMultiply,
		},
		WkbType: host.WkbPoint,
		Fields: []host.Field{
			{Name: "kind", TypeName: "String", Type: host.FieldString},
		},
		Features: []*host.Feature{
			{Geometry: orb.Point{-122.38, 37.62}, Attributes: []any{"terminal"}},
			{Geometry: orb.Point{-122.39, 37.61}, Attributes: []any{"hangar"}},
			{Geometry: orb.Point{-122.37, 37.63}, Attributes: []any{"terminal"}},
		},
	})
}

func testProject() *host.Project {

	buildings := pointLayer("buildings", "Buildings", "ogr", nil)
	wfs := pointLayer("wfs", "Remote", host.ProviderWFS, nil)
	tiles := pointLayer("tiles", "Tiles", "ogr", map[string]string{host.PropertyVectorTileSource: "https://example.com/tiles"})

	elevation := project.NewRasterLayer(&project.RasterLayerOptions{
		LayerOptions: project.LayerOptions{ID: "elevation", Name: "Elevation", CRS: host.WGS84, ProviderType: "gdal"},
		Extent:       orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{8, 4}},
		Image:        image.NewRGBA(image.Rect(0, 0, 8, 4)),
	})

	basemap := project.NewServiceLayer(&project.LayerOptions{ID: "basemap", Name: "Basemap", ProviderType: host.ProviderWMS}, host.KindRaster)

	gates := pointLayer("gates", "Gates", host.ProviderWFS, nil)

	table := project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{ID: "table", Name: "Table", CRS: host.WGS84},
		WkbType:      host.WkbNoGeometry,
	})

	p := &host.Project{
		Layers: []host.Layer{buildings, wfs, tiles, elevation, basemap, gates, table},
		Canvas: host.Canvas{
			Extent: orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}},
			CRS:    host.WebMercator,
		},
	}

	return p
}

func testOptions(t *testing.T, bucket *blob.Bucket) *Options {

	return &Options{
		Bucket:     bucket,
		ScratchDir: t.TempDir(),
		Precision:  geo.Decimals(6),
		Minify:     true,
		Layers: []LayerOptions{
			{Popup: PopupAllAttributes},
			{},
			{},
			{},
			{},
			{EncodeJSON: true},
		},
		Writer:       &project.TIFFWriter{},
		Warper:       &failingWarper{},
		Translator:   &failingTranslator{},
		FilterFields: []string{"kind", "missing"},
	}
}

func TestExportLayers(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	feedback := &host.LogFeedback{}

	opts := testOptions(t, bucket)
	opts.Feedback = feedback

	results := ExportLayers(ctx, testProject(), opts)

	keys := make([]string, len(results.Artifacts))

	for i, a := range results.Artifacts {
		keys[i] = a.Key
	}

	expected := []string{
		"layers/Buildings_0.js",
		"layers/Elevation_3.png",
		"layers/Gates_5.js",
	}

	if diff := deep.Equal(keys, expected); diff != nil {
		t.Fatalf("Unexpected artifacts, %v", diff)
	}

	for _, k := range expected {

		exists, err := bucket.Exists(ctx, k)

		if err != nil || !exists {
			t.Errorf("Expected %s to exist, %v", k, err)
		}
	}

	buildings := results.Artifacts[0]

	if buildings.GeometryType != "Point" || buildings.BlendMode != "multiply" || buildings.Popup != PopupAllAttributes {
		t.Errorf("Unexpected artifact %v", buildings)
	}

	// four attempted exports plus the final step
	if feedback.Steps() != 5 {
		t.Errorf("Expected 5 completed steps, got %d", feedback.Steps())
	}

	expected_filters := []*fields.Domain{
		{Name: "kind", Type: fields.Str, Values: []any{"hangar", "terminal"}},
	}

	if diff := deep.Equal(results.Filters, expected_filters); diff != nil {
		t.Errorf("Unexpected filters, %v", diff)
	}
}

func TestExportLayersIdempotent(t *testing.T) {

	ctx := context.Background()

	first := memblob.OpenBucket(nil)
	defer first.Close()

	second := memblob.OpenBucket(nil)
	defer second.Close()

	first_results := ExportLayers(ctx, testProject(), testOptions(t, first))
	second_results := ExportLayers(ctx, testProject(), testOptions(t, second))

	if diff := deep.Equal(first_results.Artifacts, second_results.Artifacts); diff != nil {
		t.Fatalf("Expected identical artifacts, %v", diff)
	}

	for _, a := range first_results.Artifacts {

		if a.Kind != KindVector {
			continue
		}

		first_body, err := first.ReadAll(ctx, a.Key)

		if err != nil {
			t.Fatalf("Failed to read %s, %v", a.Key, err)
		}

		second_body, err := second.ReadAll(ctx, a.Key)

		if err != nil {
			t.Fatalf("Failed to read %s, %v", a.Key, err)
		}

		if !bytes.Equal(first_body, second_body) {
			t.Errorf("Expected identical contents for %s", a.Key)
		}
	}
}
