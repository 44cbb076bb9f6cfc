package project

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/natefinch/atomic"
	"github.com/nfnt/resize"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/gdal"
	"github.com/sfomuseum/go-webmap-layers/host"
	"golang.org/x/image/tiff"
)

// RasterLayerOptions describe an in-memory raster layer.
type RasterLayerOptions struct {
	LayerOptions
	Extent orb.Bound
	Image  image.Image
}

// RasterLayer is an in-memory implementation of host.RasterLayer backed by a decoded image.
type RasterLayer struct {
	layer
	raster_opts *RasterLayerOptions
}

// NewRasterLayer returns a new RasterLayer.
func NewRasterLayer(opts *RasterLayerOptions) *RasterLayer {

	l := &RasterLayer{
		layer:       layer{opts: &opts.LayerOptions},
		raster_opts: opts,
	}

	return l
}

func (l *RasterLayer) Kind() host.LayerKind {
	return host.KindRaster
}

func (l *RasterLayer) Extent() orb.Bound {
	return l.raster_opts.Extent
}

func (l *RasterLayer) Width() int {
	return l.raster_opts.Image.Bounds().Dx()
}

func (l *RasterLayer) Height() int {
	return l.raster_opts.Image.Bounds().Dy()
}

func (l *RasterLayer) Pipe() (host.Pipe, error) {

	if l.raster_opts.Image == nil {
		return nil, fmt.Errorf("Layer %s has no image", l.Name())
	}

	p := &imagePipe{
		image:  l.raster_opts.Image,
		extent: l.raster_opts.Extent,
	}

	return p, nil
}

// imagePipe renders windows of a georeferenced image. Images are never modified so clones share them.
type imagePipe struct {
	image  image.Image
	extent orb.Bound
}

func (p *imagePipe) Render(ctx context.Context, width int, height int, extent orb.Bound) (image.Image, error) {

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		// pass
	}

	b := p.image.Bounds()

	src_w := p.extent.Max[0] - p.extent.Min[0]
	src_h := p.extent.Max[1] - p.extent.Min[1]

	if src_w <= 0 || src_h <= 0 {
		return nil, fmt.Errorf("Invalid layer extent %v", p.extent)
	}

	x0 := int(math.Floor((extent.Min[0] - p.extent.Min[0]) / src_w * float64(b.Dx())))
	x1 := int(math.Ceil((extent.Max[0] - p.extent.Min[0]) / src_w * float64(b.Dx())))
	y0 := int(math.Floor((p.extent.Max[1] - extent.Max[1]) / src_h * float64(b.Dy())))
	y1 := int(math.Ceil((p.extent.Max[1] - extent.Min[1]) / src_h * float64(b.Dy())))

	r := image.Rect(b.Min.X+x0, b.Min.Y+y0, b.Min.X+x1, b.Min.Y+y1).Intersect(b)

	if r.Empty() {
		return nil, fmt.Errorf("Extent %v does not overlap layer extent %v", extent, p.extent)
	}

	window := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(window, window.Bounds(), p.image, r.Min, draw.Src)

	if width <= 0 {
		width = r.Dx()
	}

	if height <= 0 {
		height = int(math.Round(float64(width) * float64(r.Dy()) / float64(r.Dx())))
	}

	if width == r.Dx() && height == r.Dy() {
		return window, nil
	}

	return resize.Resize(uint(width), uint(height), window, resize.Bilinear), nil
}

// TIFFWriter writes intermediate rasters as deflate compressed TIFF files with a world file.
type TIFFWriter struct{}

func (w *TIFFWriter) Extension() string {
	return ".tif"
}

func (w *TIFFWriter) WriteRaster(ctx context.Context, pipe host.Pipe, path string, width int, height int, extent orb.Bound, crs host.CRS) error {

	im, err := pipe.Render(ctx, width, height, extent)

	if err != nil {
		return fmt.Errorf("Failed to render raster, %w", err)
	}

	var buf bytes.Buffer

	tiff_opts := &tiff.Options{
		Compression: tiff.Deflate,
		Predictor:   true,
	}

	err = tiff.Encode(&buf, im, tiff_opts)

	if err != nil {
		return fmt.Errorf("Failed to encode %s, %w", path, err)
	}

	err = atomic.WriteFile(path, &buf)

	if err != nil {
		return fmt.Errorf("Failed to write %s, %w", path, err)
	}

	ib := im.Bounds()
	wf := gdal.NewWorldFile(extent, ib.Dx(), ib.Dy())

	return gdal.WriteWorldFile(gdal.WorldFilePath(path), wf)
}
