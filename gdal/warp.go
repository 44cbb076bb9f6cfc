package gdal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/paulmach/orb"
)

// WarpParams is the full template of reprojection parameters, in the order they are applied.
var WarpParams = []string{
	"INPUT",
	"SOURCE_CRS",
	"TARGET_CRS",
	"NODATA",
	"TARGET_RESOLUTION",
	"RESAMPLING",
	"TARGET_EXTENT",
	"TARGET_EXTENT_CRS",
	"DATA_TYPE",
	"COMPRESS",
	"JPEGCOMPRESSION",
	"ZLEVEL",
	"PREDICTOR",
	"TILED",
	"BIGTIFF",
	"TFW",
	"MULTITHREADING",
	"EXTRA",
	"OUTPUT",
}

// WarpParamsV3 is the allow-list of parameters supported by gdalwarp 3.x.
var WarpParamsV3 = []string{
	"INPUT",
	"SOURCE_CRS",
	"TARGET_CRS",
	"NODATA",
	"TARGET_RESOLUTION",
	"RESAMPLING",
	"TARGET_EXTENT",
	"TARGET_EXTENT_CRS",
	"COMPRESS",
	"ZLEVEL",
	"PREDICTOR",
	"TILED",
	"BIGTIFF",
	"TFW",
	"MULTITHREADING",
	"EXTRA",
	"OUTPUT",
}

// WarpRequest describes a single reprojection.
type WarpRequest struct {
	Input     string
	Output    string
	SourceCRS string
	TargetCRS string
	// TargetExtent is expressed in TargetExtentCRS. A zero value means the full input extent.
	TargetExtent     orb.Bound
	TargetExtentCRS  string
	NoData           float64
	TargetResolution float64
	Resampling       string
	Compress         string
	JPEGQuality      int
	ZLevel           int
	Predictor        int
	Tiled            bool
	BigTIFF          bool
	TFW              bool
	Multithreading   bool
	Extra            []string
}

// NewWarpRequest returns a WarpRequest with the defaults used for web map rasters: bilinear
// resampling, zero nodata and deflate compression.
func NewWarpRequest(input string, output string, source_crs string, target_crs string, extent orb.Bound) *WarpRequest {

	req := &WarpRequest{
		Input:           input,
		Output:          output,
		SourceCRS:       source_crs,
		TargetCRS:       target_crs,
		TargetExtent:    extent,
		TargetExtentCRS: target_crs,
		NoData:          0,
		Resampling:      "bilinear",
		Compress:        "DEFLATE",
		JPEGQuality:     75,
		ZLevel:          6,
		Predictor:       1,
	}

	return req
}

// Warper reprojects raster files.
type Warper interface {
	Warp(context.Context, *WarpRequest) error
}

// GDALWarper reprojects raster files with gdalwarp.
type GDALWarper struct {
	Runner Runner
	// Params is the allow-list of supported parameters. If empty WarpParamsV3 is used.
	Params []string
	// Retries is the number of times a failed reprojection is retried.
	Retries uint64
	// Interval is the delay between retries.
	Interval time.Duration
}

// NewGDALWarper returns a GDALWarper using r and the WarpParamsV3 allow-list.
func NewGDALWarper(r Runner) *GDALWarper {

	w := &GDALWarper{
		Runner:   r,
		Params:   WarpParamsV3,
		Retries:  0,
		Interval: time.Second,
	}

	return w
}

func (w *GDALWarper) Warp(ctx context.Context, req *WarpRequest) error {

	params := w.Params

	if len(params) == 0 {
		params = WarpParamsV3
	}

	args, err := WarpArgs(req, params)

	if err != nil {
		return err
	}

	attempt := 0

	op := func() error {

		attempt += 1

		_, err := w.Runner.Run(ctx, "gdalwarp", args...)

		if err == nil {
			return nil
		}

		if errors.Is(err, exec.ErrNotFound) {
			return backoff.Permanent(err)
		}

		slog.Debug("Reprojection failed", "input", req.Input, "attempt", attempt, "error", err)
		return err
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(w.Interval), w.Retries), ctx)

	err = backoff.Retry(op, bo)

	if err != nil {
		return fmt.Errorf("Failed to reproject %s, %w", req.Input, err)
	}

	return nil
}

// WarpArgs derives the gdalwarp arguments for req from the parameters in WarpParams that are
// also present in allowed.
func WarpArgs(req *WarpRequest, allowed []string) ([]string, error) {

	allowed_map := make(map[string]bool)

	for _, p := range allowed {
		allowed_map[p] = true
	}

	if !allowed_map["INPUT"] || !allowed_map["OUTPUT"] {
		return nil, fmt.Errorf("Parameter list must include INPUT and OUTPUT")
	}

	args := []string{"-overwrite"}
	creation := make([]string, 0)

	for _, p := range WarpParams {

		if !allowed_map[p] {
			continue
		}

		switch p {
		case "SOURCE_CRS":
			if req.SourceCRS != "" {
				args = append(args, "-s_srs", req.SourceCRS)
			}
		case "TARGET_CRS":
			if req.TargetCRS != "" {
				args = append(args, "-t_srs", req.TargetCRS)
			}
		case "NODATA":
			args = append(args, "-dstnodata", formatFloat(req.NoData))
		case "TARGET_RESOLUTION":
			if req.TargetResolution > 0 {
				res := formatFloat(req.TargetResolution)
				args = append(args, "-tr", res, res)
			}
		case "RESAMPLING":
			if req.Resampling != "" {
				args = append(args, "-r", req.Resampling)
			}
		case "TARGET_EXTENT":
			if !req.TargetExtent.IsZero() {
				b := req.TargetExtent
				args = append(args, "-te", formatFloat(b.Min[0]), formatFloat(b.Min[1]), formatFloat(b.Max[0]), formatFloat(b.Max[1]))
			}
		case "TARGET_EXTENT_CRS":
			if req.TargetExtentCRS != "" && !req.TargetExtent.IsZero() && allowed_map["TARGET_EXTENT"] {
				args = append(args, "-te_srs", req.TargetExtentCRS)
			}
		case "COMPRESS":
			if req.Compress != "" {
				creation = append(creation, "COMPRESS="+req.Compress)
			}
		case "JPEGCOMPRESSION":
			if req.Compress == "JPEG" && req.JPEGQuality > 0 {
				creation = append(creation, "JPEG_QUALITY="+strconv.Itoa(req.JPEGQuality))
			}
		case "ZLEVEL":
			if req.Compress == "DEFLATE" && req.ZLevel > 0 {
				creation = append(creation, "ZLEVEL="+strconv.Itoa(req.ZLevel))
			}
		case "PREDICTOR":
			if req.Predictor > 0 {
				creation = append(creation, "PREDICTOR="+strconv.Itoa(req.Predictor))
			}
		case "TILED":
			if req.Tiled {
				creation = append(creation, "TILED=YES")
			}
		case "BIGTIFF":
			if req.BigTIFF {
				creation = append(creation, "BIGTIFF=YES")
			}
		case "TFW":
			if req.TFW {
				creation = append(creation, "TFW=YES")
			}
		case "MULTITHREADING":
			if req.Multithreading {
				args = append(args, "-multi")
			}
		case "EXTRA":
			args = append(args, req.Extra...)
		}
	}

	for _, co := range creation {
		args = append(args, "-co", co)
	}

	args = append(args, req.Input, req.Output)
	return args, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
