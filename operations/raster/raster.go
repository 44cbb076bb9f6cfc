// Package raster exports raster layers as PNG images, reprojecting them to Web Mercator when necessary.
package raster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aaronland/go-string/random"
	"github.com/natefinch/atomic"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/gdal"
	"github.com/sfomuseum/go-webmap-layers/geo"
	"github.com/sfomuseum/go-webmap-layers/host"
	"gocloud.dev/blob"
)

// LayersFolder is the prefix of exported layer artifacts.
const LayersFolder = "layers"

type ExportRasterOptions struct {
	// Bucket is the export destination.
	Bucket *blob.Bucket
	// ScratchDir is the local directory intermediate files are written to.
	ScratchDir string
	// Name is the (sanitized) name of the layer's artifacts, for example "Elevation_1".
	Name string
	// Index is the position of the layer in the export.
	Index int
	// MatchCRS skips reprojection for layers whose CRS matches the map canvas.
	MatchCRS bool
	// Writer writes the intermediate, full resolution, raster.
	Writer     host.RasterFileWriter
	Warper     gdal.Warper
	Translator gdal.Translator
	// KeepScratch leaves intermediate files in ScratchDir.
	KeepScratch bool
	ACL         string
}

// ExportRaster renders layer to "layers/{opts.Name}.png" in opts.Bucket and returns its key. Failures to
// reproject or resample the rendered image are logged and replaced by a copy of their input, so a PNG
// is written whenever the layer can be rendered.
func ExportRaster(ctx context.Context, p *host.Project, layer host.RasterLayer, opts *ExportRasterOptions) (string, error) {

	logger := common.Logger().With("layer", layer.Name())

	if opts.Writer == nil {
		return "", errors.New("Missing raster file writer")
	}

	warper := opts.Warper

	if warper == nil {
		warper = gdal.NewGDALWarper(&gdal.ExecRunner{})
	}

	translator := opts.Translator

	if translator == nil {
		translator = &gdal.GDALTranslator{Runner: &gdal.ExecRunner{}}
	}

	prefix, err := scratchPrefix(layer, opts.Index)

	if err != nil {
		return "", err
	}

	prefix = filepath.Join(opts.ScratchDir, prefix)

	scratch := make([]string, 0)

	defer func() {

		if opts.KeepScratch {
			return
		}

		for _, path := range scratch {
			os.Remove(path)
		}
	}()

	piped := prefix + "_piped" + opts.Writer.Extension()
	scratch = append(scratch, piped, gdal.WorldFilePath(piped))

	pipe, err := layer.Pipe()

	if err != nil {
		return "", fmt.Errorf("Failed to clone raster pipe, %w", err)
	}

	err = opts.Writer.WriteRaster(ctx, pipe, piped, layer.Width(), -1, layer.Extent(), layer.CRS())

	if err != nil {
		return "", fmt.Errorf("Failed to write intermediate raster, %w", err)
	}

	out := prefix + ".png"
	scratch = append(scratch, out)

	if opts.MatchCRS && geo.Normalize(layer.CRS()) == geo.Normalize(p.Canvas.CRS) {

		req := gdal.NewTranslateRequest(piped, out, layer.Extent())
		translate(ctx, translator, req)

	} else {

		extent, err := geo.TransformBound(layer.Extent(), layer.CRS(), host.WebMercator)

		if err != nil {
			logger.Warn("Failed to transform raster extent, using full extent", "error", err)
			extent = orb.Bound{}
		}

		piped_3857 := prefix + "_piped_3857.tif"
		scratch = append(scratch, piped_3857, gdal.WorldFilePath(piped_3857))

		warp_req := gdal.NewWarpRequest(piped, piped_3857, string(layer.CRS()), string(host.WebMercator), extent)
		warp_req.TFW = true

		err = warper.Warp(ctx, warp_req)

		if err != nil {

			logger.Warn("Failed to reproject raster, copying source", "error", err)

			err = copyFile(piped, piped_3857)

			if err != nil {
				return "", err
			}
		}

		req := gdal.NewTranslateRequest(piped_3857, out, extent)
		translate(ctx, translator, req)
	}

	fh, err := os.Open(out)

	if err != nil {
		return "", fmt.Errorf("Failed to open %s, %w", out, err)
	}

	defer fh.Close()

	key := filepath.ToSlash(filepath.Join(LayersFolder, opts.Name+".png"))
	wr_opts := common.WriterOptions("image/png", opts.ACL)

	err = common.CopyToBucket(ctx, opts.Bucket, key, fh, wr_opts)

	if err != nil {
		return "", err
	}

	logger.Debug("Exported raster layer", "key", key)
	return key, nil
}

// translate resamples req.Input into req.Output, falling back to a copy of the input.
func translate(ctx context.Context, translator gdal.Translator, req *gdal.TranslateRequest) {

	err := translator.Translate(ctx, req)

	if err == nil {
		return
	}

	common.Logger().Warn("Failed to resample raster, copying source", "input", req.Input, "error", err)

	err = copyFile(req.Input, req.Output)

	if err != nil {
		common.Logger().Error("Failed to copy raster", "input", req.Input, "error", err)
	}
}

func scratchPrefix(layer host.Layer, index int) (string, error) {

	rand_opts := random.DefaultOptions()
	rand_opts.AlphaNumeric = true
	rand_opts.Length = 8

	suffix, err := random.String(rand_opts)

	if err != nil {
		return "", fmt.Errorf("Failed to generate scratch suffix, %w", err)
	}

	ts := strconv.FormatInt(time.Now().Unix(), 10)
	return common.SafeName(layer.Name()) + strconv.Itoa(index) + ts + "_" + suffix, nil
}

func copyFile(source string, target string) error {

	fh, err := os.Open(source)

	if err != nil {
		return fmt.Errorf("Failed to open %s, %w", source, err)
	}

	defer fh.Close()

	err = atomic.WriteFile(target, fh)

	if err != nil {
		return fmt.Errorf("Failed to copy %s to %s, %w", source, target, err)
	}

	return nil
}
