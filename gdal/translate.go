package gdal

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"math"
	"os"

	"github.com/aaronland/go-image-tools/util"
	"github.com/natefinch/atomic"
	"github.com/nfnt/resize"
	"github.com/paulmach/orb"
	_ "golang.org/x/image/tiff"
)

// TranslateRequest describes the conversion of a (georeferenced) raster file into the final PNG image.
type TranslateRequest struct {
	Input  string
	Output string
	// OutSizePercent is the output width as a percentage of the input width. The height is
	// derived from the aspect ratio of the input.
	OutSizePercent float64
	// ProjWin is the window of the input, in its own coordinates, to keep. A zero value means
	// the whole input.
	ProjWin orb.Bound
	NoData  float64
}

// NewTranslateRequest returns a TranslateRequest for a full size PNG covering projwin.
func NewTranslateRequest(input string, output string, projwin orb.Bound) *TranslateRequest {

	req := &TranslateRequest{
		Input:          input,
		Output:         output,
		OutSizePercent: 100,
		ProjWin:        projwin,
		NoData:         0,
	}

	return req
}

// Translator resamples raster files into their final PNG form.
type Translator interface {
	Translate(context.Context, *TranslateRequest) error
}

// GDALTranslator resamples raster files with gdal_translate.
type GDALTranslator struct {
	Runner Runner
}

func (t *GDALTranslator) Translate(ctx context.Context, req *TranslateRequest) error {

	args := TranslateArgs(req)

	_, err := t.Runner.Run(ctx, "gdal_translate", args...)

	if err != nil {
		return fmt.Errorf("Failed to translate %s, %w", req.Input, err)
	}

	return nil
}

// TranslateArgs returns the gdal_translate arguments for req.
func TranslateArgs(req *TranslateRequest) []string {

	pct := req.OutSizePercent

	if pct <= 0 {
		pct = 100
	}

	args := []string{
		"-of", "PNG",
		"-outsize", formatFloat(pct) + "%", "0",
		"-a_nodata", formatFloat(req.NoData),
	}

	if !req.ProjWin.IsZero() {
		b := req.ProjWin
		args = append(args, "-projwin", formatFloat(b.Min[0]), formatFloat(b.Max[1]), formatFloat(b.Max[0]), formatFloat(b.Min[1]))
	}

	args = append(args, req.Input, req.Output)
	return args
}

// NativeTranslator resamples raster files without GDAL. The input's world file, if present, is used
// to honour ProjWin.
type NativeTranslator struct {
	Interpolation resize.InterpolationFunction
}

func (t *NativeTranslator) Translate(ctx context.Context, req *TranslateRequest) error {

	fh, err := os.Open(req.Input)

	if err != nil {
		return fmt.Errorf("Failed to open %s, %w", req.Input, err)
	}

	defer fh.Close()

	im, _, err := util.DecodeImageFromReader(fh)

	if err != nil {
		return fmt.Errorf("Failed to decode %s, %w", req.Input, err)
	}

	if !req.ProjWin.IsZero() {

		wf, err := ReadWorldFile(WorldFilePath(req.Input))

		if err == nil {
			im = Crop(im, wf, req.ProjWin)
		}
	}

	pct := req.OutSizePercent

	if pct <= 0 {
		pct = 100
	}

	width := uint(math.Round(float64(im.Bounds().Dx()) * pct / 100))

	if width == 0 {
		width = 1
	}

	if width != uint(im.Bounds().Dx()) {
		im = resize.Resize(width, 0, im, t.Interpolation)
	}

	var buf bytes.Buffer

	err = util.EncodeImage(im, "png", &buf)

	if err != nil {
		return fmt.Errorf("Failed to encode %s, %w", req.Output, err)
	}

	err = atomic.WriteFile(req.Output, &buf)

	if err != nil {
		return fmt.Errorf("Failed to write %s, %w", req.Output, err)
	}

	return nil
}

// Crop returns the part of im (georeferenced by wf) that falls within window.
func Crop(im image.Image, wf *WorldFile, window orb.Bound) image.Image {

	b := im.Bounds()
	extent := wf.Bound(b.Dx(), b.Dy())

	px_w := (extent.Max[0] - extent.Min[0]) / float64(b.Dx())
	px_h := (extent.Max[1] - extent.Min[1]) / float64(b.Dy())

	if px_w <= 0 || px_h <= 0 {
		return im
	}

	x0 := int(math.Floor((window.Min[0] - extent.Min[0]) / px_w))
	x1 := int(math.Ceil((window.Max[0] - extent.Min[0]) / px_w))
	y0 := int(math.Floor((extent.Max[1] - window.Max[1]) / px_h))
	y1 := int(math.Ceil((extent.Max[1] - window.Min[1]) / px_h))

	r := image.Rect(b.Min.X+x0, b.Min.Y+y0, b.Min.X+x1, b.Min.Y+y1).Intersect(b)

	if r.Empty() || r == b {
		return im
	}

	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), im, r.Min, draw.Src)

	return out
}
