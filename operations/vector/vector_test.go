package vector

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/geo"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/project"
	"github.com/tidwall/gjson"
	"gocloud.dev/blob/memblob"
)

func testLayer(photos ...any) *project.VectorLayer {

	features := []*host.Feature{
		{Geometry: orb.Point{1113194.9079327357, 0}, Attributes: []any{"Terminal One", int64(3), nil}},
		{Geometry: orb.Point{0, 0}, Attributes: []any{"Hangar", host.Null{}, nil}},
	}

	for i, ph := range photos {
		if i < len(features) {
			features[i].Attributes[2] = ph
		} else {
			features = append(features, &host.Feature{Geometry: orb.Point{0, 0}, Attributes: []any{"Extra", int64(0), ph}})
		}
	}

	return project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{
			ID:   "poi",
			Name: "Points of interest",
			CRS:  host.WebMercator,
		},
		WkbType: host.WkbPoint,
		Fields: []host.Field{
			{Name: "name", Type: host.FieldString},
			{Name: "rank", Type: host.FieldInt},
			{Name: "photo", Type: host.FieldString},
		},
		Widgets: map[string]string{
			"photo": host.WidgetExternalResource,
		},
		Features: features,
	})
}

func TestExportVector(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	scratch := t.TempDir()
	layer := testLayer()

	p := &host.Project{
		Layers: []host.Layer{layer},
	}

	opts := &ExportVectorOptions{
		Bucket:     bucket,
		ScratchDir: scratch,
		Name:       common.ArtifactName(layer.Name(), 0),
		Precision:  geo.Decimals(4),
		Minify:     true,
	}

	key, err := ExportVector(ctx, p, layer, opts)

	if err != nil {
		t.Fatalf("Failed to export layer, %v", err)
	}

	if key != "layers/Pointsofinterest_0.js" {
		t.Errorf("Unexpected key %s", key)
	}

	body, err := bucket.ReadAll(ctx, key)

	if err != nil {
		t.Fatalf("Failed to read %s, %v", key, err)
	}

	prefix := "var json_Pointsofinterest_0 = "

	if !bytes.HasPrefix(body, []byte(prefix)) {
		t.Fatalf("Unexpected script %s", body)
	}

	if bytes.Contains(body, []byte("\n")) {
		t.Errorf("Expected minified script")
	}

	doc := body[len(prefix):]

	if !gjson.ValidBytes(doc) {
		t.Fatalf("Invalid GeoJSON %s", doc)
	}

	if gjson.GetBytes(doc, "name").String() != "Pointsofinterest_0" {
		t.Errorf("Unexpected name")
	}

	if gjson.GetBytes(doc, "crs.properties.name").String() != crs84 {
		t.Errorf("Unexpected crs")
	}

	if gjson.GetBytes(doc, "features.#").Int() != 2 {
		t.Fatalf("Unexpected feature count")
	}

	coords := []float64{
		gjson.GetBytes(doc, "features.0.geometry.coordinates.0").Float(),
		gjson.GetBytes(doc, "features.0.geometry.coordinates.1").Float(),
	}

	if diff := deep.Equal(coords, []float64{10, 0}); diff != nil {
		t.Errorf("Unexpected coordinates, %v", diff)
	}

	if gjson.GetBytes(doc, "features.0.properties.name").String() != "Terminal One" {
		t.Errorf("Expected whitespace in string values to be preserved")
	}

	if gjson.GetBytes(doc, "features.0.properties.rank").Float() != 3 {
		t.Errorf("Unexpected rank")
	}

	if gjson.GetBytes(doc, "features.1.properties.rank").Type != gjson.Null {
		t.Errorf("Expected null rank")
	}

	entries, err := os.ReadDir(scratch)

	if err != nil {
		t.Fatalf("Failed to read scratch dir, %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("Expected intermediate files to be removed, found %d", len(entries))
	}

	// same layer, fresh destination

	other := memblob.OpenBucket(nil)
	defer other.Close()

	opts.Bucket = other

	other_key, err := ExportVector(ctx, p, layer, opts)

	if err != nil {
		t.Fatalf("Failed to export layer, %v", err)
	}

	other_body, err := other.ReadAll(ctx, other_key)

	if err != nil {
		t.Fatalf("Failed to read %s, %v", other_key, err)
	}

	if other_key != key || !bytes.Equal(body, other_body) {
		t.Errorf("Expected identical artifacts")
	}

	opts.Minify = false

	_, err = ExportVector(ctx, p, layer, opts)

	if err != nil {
		t.Fatalf("Failed to export layer, %v", err)
	}

	pretty_body, err := other.ReadAll(ctx, key)

	if err != nil {
		t.Fatalf("Failed to read %s, %v", key, err)
	}

	if !bytes.Contains(pretty_body, []byte("\n")) {
		t.Errorf("Expected indented script")
	}
}

func TestExportVectorNationalGrid(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	layer := project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{
			ID:   "bng",
			Name: "London",
			CRS:  "EPSG:27700",
		},
		WkbType: host.WkbPoint,
		Fields: []host.Field{
			{Name: "name", Type: host.FieldString},
		},
		Features: []*host.Feature{
			{Geometry: orb.Point{530000, 180000}, Attributes: []any{"Trafalgar"}},
		},
	})

	opts := &ExportVectorOptions{
		Bucket:     bucket,
		ScratchDir: t.TempDir(),
		Name:       "London_0",
		Precision:  geo.Decimals(3),
	}

	key, err := ExportVector(ctx, &host.Project{Layers: []host.Layer{layer}}, layer, opts)

	if err != nil {
		t.Fatalf("Failed to export layer, %v", err)
	}

	body, err := bucket.ReadAll(ctx, key)

	if err != nil {
		t.Fatalf("Failed to read %s, %v", key, err)
	}

	doc := body[len("var json_London_0 = "):]

	lon := gjson.GetBytes(doc, "features.0.geometry.coordinates.0").Float()
	lat := gjson.GetBytes(doc, "features.0.geometry.coordinates.1").Float()

	if lon < -0.2 || lon > -0.05 || lat < 51.45 || lat > 51.55 {
		t.Errorf("Unexpected coordinates %f, %f", lon, lat)
	}
}

func TestExportVectorNoGeometry(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	layer := project.NewVectorLayer(&project.VectorLayerOptions{
		LayerOptions: project.LayerOptions{ID: "table", Name: "Table"},
		WkbType:      host.WkbNoGeometry,
	})

	opts := &ExportVectorOptions{
		Bucket:     bucket,
		ScratchDir: t.TempDir(),
		Name:       "Table_0",
		Precision:  geo.Maintain,
	}

	_, err := ExportVector(ctx, &host.Project{}, layer, opts)

	if err != ErrNoGeometry {
		t.Errorf("Expected ErrNoGeometry, got %v", err)
	}
}

func TestExportImages(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	root := t.TempDir()
	other := t.TempDir()

	err := os.MkdirAll(filepath.Join(root, "photos"), 0755)

	if err != nil {
		t.Fatalf("Failed to create photos dir, %v", err)
	}

	err = os.WriteFile(filepath.Join(root, "photos", "a.png"), []byte("a"), 0644)

	if err != nil {
		t.Fatalf("Failed to write attachment, %v", err)
	}

	abs_path := filepath.Join(other, "b.png")

	err = os.WriteFile(abs_path, []byte("b"), 0644)

	if err != nil {
		t.Fatalf("Failed to write attachment, %v", err)
	}

	layer := testLayer("photos/a.png", abs_path, "photos/missing.png")

	p := &host.Project{
		FileName: filepath.Join(root, "project.toml"),
		Layers:   []host.Layer{layer},
	}

	keys, err := ExportImages(ctx, p, layer, &ExportImagesOptions{Bucket: bucket})

	if err != nil {
		t.Fatalf("Failed to export images, %v", err)
	}

	expected := []string{
		"images/photos_a.png",
		"images/" + common.ImageFileName(abs_path),
	}

	if diff := deep.Equal(keys, expected); diff != nil {
		t.Fatalf("Unexpected keys, %v", diff)
	}

	body, err := bucket.ReadAll(ctx, "images/photos_a.png")

	if err != nil {
		t.Fatalf("Failed to read attachment, %v", err)
	}

	if string(body) != "a" {
		t.Errorf("Unexpected attachment contents %s", body)
	}

	if strings.Contains(keys[1], "/b.png") {
		t.Errorf("Expected path separators to be replaced in %s", keys[1])
	}
}
