package gdal

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/nfnt/resize"
	"github.com/paulmach/orb"
)

type fakeRunner struct {
	failures int
	calls    [][]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {

	r.calls = append(r.calls, append([]string{name}, args...))

	if len(r.calls) <= r.failures {
		return nil, errors.New("simulated failure")
	}

	return nil, nil
}

func TestWarpArgs(t *testing.T) {

	extent := orb.Bound{Min: orb.Point{-100, -50}, Max: orb.Point{100, 50}}
	req := NewWarpRequest("in.tif", "out.tif", "EPSG:4326", "EPSG:3857", extent)

	args, err := WarpArgs(req, WarpParamsV3)

	if err != nil {
		t.Fatalf("Failed to derive arguments, %v", err)
	}

	for _, expected := range []string{"-s_srs", "-t_srs", "-te", "-te_srs", "-r", "-dstnodata", "COMPRESS=DEFLATE", "ZLEVEL=6"} {
		if !slices.Contains(args, expected) {
			t.Errorf("Expected argument %s in %v", expected, args)
		}
	}

	if args[len(args)-2] != "in.tif" || args[len(args)-1] != "out.tif" {
		t.Errorf("Expected input and output to be last arguments, %v", args)
	}

	minimal := []string{"INPUT", "TARGET_CRS", "OUTPUT"}

	args, err = WarpArgs(req, minimal)

	if err != nil {
		t.Fatalf("Failed to derive arguments, %v", err)
	}

	expected := []string{"-overwrite", "-t_srs", "EPSG:3857", "in.tif", "out.tif"}

	if !slices.Equal(args, expected) {
		t.Errorf("Expected %v, got %v", expected, args)
	}

	_, err = WarpArgs(req, []string{"INPUT"})

	if err == nil {
		t.Errorf("Expected error without OUTPUT parameter")
	}
}

func TestGDALWarperRetries(t *testing.T) {

	ctx := context.Background()
	req := NewWarpRequest("in.tif", "out.tif", "EPSG:4326", "EPSG:3857", orb.Bound{})

	r := &fakeRunner{failures: 2}

	w := NewGDALWarper(r)
	w.Retries = 2
	w.Interval = 0

	err := w.Warp(ctx, req)

	if err != nil {
		t.Fatalf("Expected warp to succeed after retries, %v", err)
	}

	if len(r.calls) != 3 {
		t.Errorf("Expected 3 calls, got %d", len(r.calls))
	}

	r = &fakeRunner{failures: 10}

	w = NewGDALWarper(r)
	w.Retries = 1
	w.Interval = 0

	err = w.Warp(ctx, req)

	if err == nil {
		t.Fatalf("Expected warp to fail")
	}

	if len(r.calls) != 2 {
		t.Errorf("Expected 2 calls, got %d", len(r.calls))
	}
}

func TestTranslateArgs(t *testing.T) {

	req := NewTranslateRequest("in.tif", "out.png", orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{10, 20}})

	expected := []string{"-of", "PNG", "-outsize", "100%", "0", "-a_nodata", "0", "-projwin", "0", "20", "10", "0", "in.tif", "out.png"}
	args := TranslateArgs(req)

	if !slices.Equal(args, expected) {
		t.Errorf("Expected %v, got %v", expected, args)
	}
}

func TestWorldFile(t *testing.T) {

	extent := orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
	wf := NewWorldFile(extent, 360, 180)

	if wf.PixelWidth != 1 || wf.PixelHeight != -1 || wf.X != -179.5 || wf.Y != 89.5 {
		t.Errorf("Unexpected world file %+v", wf)
	}

	path := filepath.Join(t.TempDir(), "world.tfw")

	err := WriteWorldFile(path, wf)

	if err != nil {
		t.Fatalf("Failed to write world file, %v", err)
	}

	wf2, err := ReadWorldFile(path)

	if err != nil {
		t.Fatalf("Failed to read world file, %v", err)
	}

	if wf2.Bound(360, 180) != extent {
		t.Errorf("Unexpected bound %v", wf2.Bound(360, 180))
	}

	paths := map[string]string{
		"a/b.tif": "a/b.tfw",
		"c.png":   "c.pgw",
		"d.jpeg":  "d.jgw",
		"noext":   "noext.wld",
	}

	for input, expected := range paths {
		if WorldFilePath(input) != expected {
			t.Errorf("Expected %s for %s, got %s", expected, input, WorldFilePath(input))
		}
	}
}

func TestNativeTranslator(t *testing.T) {

	ctx := context.Background()
	root := t.TempDir()

	input := filepath.Join(root, "in.png")
	output := filepath.Join(root, "out.png")

	im := image.NewRGBA(image.Rect(0, 0, 40, 20))

	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			im.Set(x, y, color.RGBA{uint8(x * 6), uint8(y * 12), 128, 255})
		}
	}

	fh, err := os.Create(input)

	if err != nil {
		t.Fatalf("Failed to create input, %v", err)
	}

	err = png.Encode(fh, im)
	fh.Close()

	if err != nil {
		t.Fatalf("Failed to encode input, %v", err)
	}

	extent := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{40, 20}}

	err = WriteWorldFile(WorldFilePath(input), NewWorldFile(extent, 40, 20))

	if err != nil {
		t.Fatalf("Failed to write world file, %v", err)
	}

	req := NewTranslateRequest(input, output, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 20}})
	req.OutSizePercent = 50

	tr := &NativeTranslator{Interpolation: resize.Bilinear}

	err = tr.Translate(ctx, req)

	if err != nil {
		t.Fatalf("Failed to translate, %v", err)
	}

	out_fh, err := os.Open(output)

	if err != nil {
		t.Fatalf("Failed to open output, %v", err)
	}

	defer out_fh.Close()

	cfg, err := png.DecodeConfig(out_fh)

	if err != nil {
		t.Fatalf("Failed to decode output, %v", err)
	}

	if cfg.Width != 10 || math.Abs(float64(cfg.Height)-10) > 1 {
		t.Errorf("Unexpected output size %dx%d", cfg.Width, cfg.Height)
	}
}
