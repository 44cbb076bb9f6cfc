package gdal

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/paulmach/orb"
)

// WorldFile is the six parameter affine transform that georeferences an image.
type WorldFile struct {
	PixelWidth  float64
	RotationY   float64
	RotationX   float64
	PixelHeight float64
	// X and Y are the coordinates of the centre of the upper left pixel.
	X float64
	Y float64
}

// NewWorldFile returns the WorldFile for an image of width x height pixels covering extent.
func NewWorldFile(extent orb.Bound, width int, height int) *WorldFile {

	px_w := (extent.Max[0] - extent.Min[0]) / float64(width)
	px_h := (extent.Max[1] - extent.Min[1]) / float64(height)

	wf := &WorldFile{
		PixelWidth:  px_w,
		PixelHeight: -px_h,
		X:           extent.Min[0] + px_w/2,
		Y:           extent.Max[1] - px_h/2,
	}

	return wf
}

// Bound returns the extent covered by an image of width x height pixels.
func (wf *WorldFile) Bound(width int, height int) orb.Bound {

	min_x := wf.X - wf.PixelWidth/2
	max_y := wf.Y - wf.PixelHeight/2

	b := orb.Bound{
		Min: orb.Point{min_x, max_y + wf.PixelHeight*float64(height)},
		Max: orb.Point{min_x + wf.PixelWidth*float64(width), max_y},
	}

	return b
}

// WorldFilePath returns the conventional world file path for an image ("a.tif" becomes "a.tfw").
func WorldFilePath(image_path string) string {

	ext := filepath.Ext(image_path)
	base := strings.TrimSuffix(image_path, ext)

	ext = strings.TrimPrefix(ext, ".")

	if len(ext) < 2 {
		return base + ".wld"
	}

	return fmt.Sprintf("%s.%c%cw", base, ext[0], ext[len(ext)-1])
}

// WriteWorldFile atomically writes wf to path.
func WriteWorldFile(path string, wf *WorldFile) error {

	var buf bytes.Buffer

	for _, v := range []float64{wf.PixelWidth, wf.RotationY, wf.RotationX, wf.PixelHeight, wf.X, wf.Y} {
		buf.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		buf.WriteString("\n")
	}

	err := atomic.WriteFile(path, &buf)

	if err != nil {
		return fmt.Errorf("Failed to write world file %s, %w", path, err)
	}

	return nil
}

// ReadWorldFile reads the world file at path.
func ReadWorldFile(path string) (*WorldFile, error) {

	fh, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("Failed to open world file %s, %w", path, err)
	}

	defer fh.Close()

	values := make([]float64, 0, 6)
	scanner := bufio.NewScanner(fh)

	for scanner.Scan() {

		ln := strings.TrimSpace(scanner.Text())

		if ln == "" {
			continue
		}

		v, err := strconv.ParseFloat(ln, 64)

		if err != nil {
			return nil, fmt.Errorf("Invalid world file parameter '%s', %w", ln, err)
		}

		values = append(values, v)
	}

	err = scanner.Err()

	if err != nil {
		return nil, fmt.Errorf("Failed to read world file %s, %w", path, err)
	}

	if len(values) != 6 {
		return nil, fmt.Errorf("Invalid world file %s, expected 6 parameters but found %d", path, len(values))
	}

	wf := &WorldFile{
		PixelWidth:  values[0],
		RotationY:   values[1],
		RotationX:   values[2],
		PixelHeight: values[3],
		X:           values[4],
		Y:           values[5],
	}

	return wf, nil
}
