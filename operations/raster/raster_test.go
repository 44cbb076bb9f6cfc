package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/nfnt/resize"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/gdal"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/project"
	"gocloud.dev/blob/memblob"
)

type failingWarper struct {
	calls int
}

func (w *failingWarper) Warp(ctx context.Context, req *gdal.WarpRequest) error {
	w.calls += 1
	return errors.New("simulated reprojection failure")
}

type failingTranslator struct {
	calls int
}

func (t *failingTranslator) Translate(ctx context.Context, req *gdal.TranslateRequest) error {
	t.calls += 1
	return errors.New("simulated resampling failure")
}

func testLayer() *project.RasterLayer {

	im := image.NewRGBA(image.Rect(0, 0, 40, 20))

	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			im.Set(x, y, color.RGBA{uint8(x * 6), uint8(y * 12), 64, 255})
		}
	}

	return project.NewRasterLayer(&project.RasterLayerOptions{
		LayerOptions: project.LayerOptions{ID: "elevation", Name: "Elevation", CRS: host.WGS84},
		Extent:       orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{40, 20}},
		Image:        im,
	})
}

func testProject(layer host.Layer) *host.Project {

	return &host.Project{
		Layers: []host.Layer{layer},
		Canvas: host.Canvas{
			Extent: orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{40, 20}},
			CRS:    host.WGS84,
		},
	}
}

func TestExportRasterFallback(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	scratch := t.TempDir()
	layer := testLayer()

	warper := &failingWarper{}
	translator := &failingTranslator{}

	opts := &ExportRasterOptions{
		Bucket:     bucket,
		ScratchDir: scratch,
		Name:       "Elevation_1",
		Index:      1,
		Writer:     &project.TIFFWriter{},
		Warper:     warper,
		Translator: translator,
	}

	key, err := ExportRaster(ctx, testProject(layer), layer, opts)

	if err != nil {
		t.Fatalf("Failed to export raster, %v", err)
	}

	if key != "layers/Elevation_1.png" {
		t.Errorf("Unexpected key %s", key)
	}

	exists, err := bucket.Exists(ctx, key)

	if err != nil || !exists {
		t.Fatalf("Expected %s to exist, %v", key, err)
	}

	if warper.calls != 1 || translator.calls != 1 {
		t.Errorf("Unexpected calls, warp %d translate %d", warper.calls, translator.calls)
	}

	entries, err := os.ReadDir(scratch)

	if err != nil {
		t.Fatalf("Failed to read scratch dir, %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("Expected scratch files to be removed, found %d", len(entries))
	}
}

func TestExportRasterNative(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	layer := testLayer()

	opts := &ExportRasterOptions{
		Bucket:     bucket,
		ScratchDir: t.TempDir(),
		Name:       "Elevation_0",
		Writer:     &project.TIFFWriter{},
		Warper:     &failingWarper{},
		Translator: &gdal.NativeTranslator{Interpolation: resize.Bilinear},
	}

	key, err := ExportRaster(ctx, testProject(layer), layer, opts)

	if err != nil {
		t.Fatalf("Failed to export raster, %v", err)
	}

	body, err := bucket.ReadAll(ctx, key)

	if err != nil {
		t.Fatalf("Failed to read %s, %v", key, err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(body))

	if err != nil {
		t.Fatalf("Expected PNG image, %v", err)
	}

	if cfg.Width != 40 {
		t.Errorf("Unexpected width %d", cfg.Width)
	}
}

func TestExportRasterMatchCRS(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	scratch := t.TempDir()
	layer := testLayer()

	warper := &failingWarper{}

	opts := &ExportRasterOptions{
		Bucket:      bucket,
		ScratchDir:  scratch,
		Name:        "Elevation_0",
		MatchCRS:    true,
		Writer:      &project.TIFFWriter{},
		Warper:      warper,
		Translator:  &gdal.NativeTranslator{Interpolation: resize.Bilinear},
		KeepScratch: true,
	}

	key, err := ExportRaster(ctx, testProject(layer), layer, opts)

	if err != nil {
		t.Fatalf("Failed to export raster, %v", err)
	}

	if warper.calls != 0 {
		t.Errorf("Did not expect layer to be reprojected")
	}

	body, err := bucket.ReadAll(ctx, key)

	if err != nil {
		t.Fatalf("Failed to read %s, %v", key, err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(body))

	if err != nil {
		t.Fatalf("Expected PNG image, %v", err)
	}

	if cfg.Width != 40 || cfg.Height != 20 {
		t.Errorf("Unexpected size %dx%d", cfg.Width, cfg.Height)
	}

	entries, err := os.ReadDir(scratch)

	if err != nil {
		t.Fatalf("Failed to read scratch dir, %v", err)
	}

	// intermediate raster, world file and final image
	if len(entries) != 3 {
		t.Errorf("Expected scratch files to be kept, found %d", len(entries))
	}
}
