// Package vector exports vector layers as GeoJSON documents wrapped in JavaScript variable assignments.
package vector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"
	"github.com/paulmach/orb/geojson"
	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/geo"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/operations/extrude"
	"github.com/sfomuseum/go-webmap-layers/operations/tmplayer"
	"github.com/tidwall/pretty"
	"gocloud.dev/blob"
)

// ErrNoGeometry is returned when a layer has no geometries to export.
var ErrNoGeometry = errors.New("Layer has no geometry")

// LayersFolder is the prefix of exported layer artifacts.
const LayersFolder = "layers"

const crs84 = "urn:ogc:def:crs:OGC:1.3:CRS84"

type ExportVectorOptions struct {
	// Bucket is the export destination.
	Bucket *blob.Bucket
	// ScratchDir is the local directory intermediate files are written to.
	ScratchDir string
	// Name is the (sanitized) name of the layer's artifacts, for example "Buildings_0".
	Name      string
	Precision geo.Precision
	Minify    bool
	// TmpLayer are the options used to derive the exported features from the layer.
	TmpLayer *tmplayer.Options
	// ACL is an optional access control policy applied to artifacts written to S3.
	ACL string
}

// ExportVector writes the features of layer, transformed to WGS84, to "layers/{opts.Name}.js" in opts.Bucket
// as "var json_{opts.Name} = {GeoJSON}". It returns the key of the artifact.
func ExportVector(ctx context.Context, p *host.Project, layer host.VectorLayer, opts *ExportVectorOptions) (string, error) {

	logger := common.Logger().With("layer", layer.Name())

	tmp_opts := opts.TmpLayer

	if tmp_opts == nil {
		tmp_opts = &tmplayer.Options{}
	}

	tmp, err := tmplayer.Build(ctx, p, layer, tmp_opts)

	if err != nil {
		return "", fmt.Errorf("Failed to build temporary layer, %w", err)
	}

	if tmp == nil {
		return "", ErrNoGeometry
	}

	if extrude.Is25D(ctx, p, layer, tmp_opts) {

		err := extrude.Add25DAttributes(ctx, p, tmp, layer)

		if err != nil {
			logger.Warn("Failed to add 2.5D attributes", "error", err)
		}
	}

	body, err := FeatureCollection(tmp, opts.Name, opts.Precision)

	if err != nil {
		return "", err
	}

	tmp_path := filepath.Join(opts.ScratchDir, opts.Name+".json")

	err = atomic.WriteFile(tmp_path, bytes.NewReader(pretty.Pretty(body)))

	if err != nil {
		return "", fmt.Errorf("Failed to write %s, %w", tmp_path, err)
	}

	defer os.Remove(tmp_path)

	script, err := wrapScript(tmp_path, opts.Name, opts.Minify)

	if err != nil {
		return "", err
	}

	key := filepath.ToSlash(filepath.Join(LayersFolder, opts.Name+".js"))
	wr_opts := common.WriterOptions("application/javascript", opts.ACL)

	err = common.WriteBytes(ctx, opts.Bucket, key, script, wr_opts)

	if err != nil {
		return "", err
	}

	logger.Debug("Exported vector layer", "key", key, "features", len(tmp.Features()))
	return key, nil
}

// FeatureCollection encodes the features of tmp, transformed to WGS84 and rounded to precision, as a GeoJSON
// FeatureCollection named name.
func FeatureCollection(tmp *tmplayer.Layer, name string, precision geo.Precision) ([]byte, error) {

	transform, err := geo.NewTransform(tmp.CRS(), host.WGS84)

	if err != nil {
		return nil, fmt.Errorf("Failed to create transform for %s, %w", tmp.Name(), err)
	}

	fields := tmp.Fields()

	fc := geojson.NewFeatureCollection()

	fc.ExtraMembers = geojson.Properties{
		"name": name,
		"crs": map[string]any{
			"type": "name",
			"properties": map[string]any{
				"name": crs84,
			},
		},
	}

	for _, f := range tmp.Features() {

		g := geo.Round(geo.Geometry(f.Geometry, transform), precision)

		geojson_f := geojson.NewFeature(g)

		for i, fld := range fields {
			geojson_f.Properties[fld.Name] = propertyValue(fld, f.Attributes[i])
		}

		fc.Append(geojson_f)
	}

	body, err := fc.MarshalJSON()

	if err != nil {
		return nil, fmt.Errorf("Failed to encode %s, %w", tmp.Name(), err)
	}

	return body, nil
}

func propertyValue(fld tmplayer.Field, v any) any {

	if host.IsNull(v) {
		return nil
	}

	if fld.Type == tmplayer.TypeDouble {

		fl, ok := host.ValueFloat(v)

		if ok {
			return fl
		}

		str, _ := host.ValueString(v)
		fl, err := strconv.ParseFloat(strings.TrimSpace(str), 64)

		if err != nil {
			return nil
		}

		return fl
	}

	str, _ := host.ValueString(v)
	return str
}

func wrapScript(path string, name string, minify bool) ([]byte, error) {

	body, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("Failed to read %s, %w", path, err)
	}

	if minify {
		body = common.Minify(body)
	}

	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("var json_%s = ", name))
	buf.Write(body)

	return buf.Bytes(), nil
}
