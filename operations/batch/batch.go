// Package batch exports every layer of a project, in order, into a destination bucket.
package batch

import (
	"context"
	"fmt"

	"github.com/sfomuseum/go-webmap-layers/common"
	"github.com/sfomuseum/go-webmap-layers/fields"
	"github.com/sfomuseum/go-webmap-layers/gdal"
	"github.com/sfomuseum/go-webmap-layers/geo"
	"github.com/sfomuseum/go-webmap-layers/host"
	"github.com/sfomuseum/go-webmap-layers/mapping"
	"github.com/sfomuseum/go-webmap-layers/operations/raster"
	"github.com/sfomuseum/go-webmap-layers/operations/tmplayer"
	"github.com/sfomuseum/go-webmap-layers/operations/vector"
	"gocloud.dev/blob"
)

// Popup modes.
const (
	PopupNone          = "none"
	PopupAllAttributes = "all-attributes"
)

// Artifact kinds.
const (
	KindVector = "vector"
	KindRaster = "raster"
	KindImage  = "image"
)

// LayerOptions are the per-layer export settings.
type LayerOptions struct {
	// EncodeJSON exports WFS layers as GeoJSON rather than leaving them to be read from the service.
	EncodeJSON    bool
	Popup         string
	ExportRelated bool
}

type Options struct {
	Bucket           *blob.Bucket
	ScratchDir       string
	Precision        geo.Precision
	Minify           bool
	RestrictToExtent bool
	ExtentMode       string
	MatchCRS         bool
	// Layers are aligned with the project's layers. Missing entries use the zero value.
	Layers     []LayerOptions
	Feedback   host.Feedback
	Writer     host.RasterFileWriter
	Warper     gdal.Warper
	Translator gdal.Translator
	// FilterFields are the names of the fields to derive filter domains for.
	FilterFields []string
	KeepScratch  bool
	ACL          string
}

// Artifact describes a file written by an export.
type Artifact struct {
	Layer        string `json:"layer"`
	Index        int    `json:"index"`
	Kind         string `json:"kind"`
	Key          string `json:"key"`
	GeometryType string `json:"geometry_type,omitempty"`
	BlendMode    string `json:"blend_mode,omitempty"`
	Popup        string `json:"popup,omitempty"`
	MinZoom      int    `json:"min_zoom"`
	MaxZoom      int    `json:"max_zoom"`
}

// Results are the artifacts, in export order, and filter domains produced by ExportLayers.
type Results struct {
	Artifacts []*Artifact
	Filters   []*fields.Domain
}

// ExportLayers exports the layers of p in order. Vector layers are written as GeoJSON scripts unless they
// are backed by vector tiles or by a WFS service (and not explicitly encoded as JSON). Raster layers are
// written as PNG images unless they are backed by a WMS service. Other layers are skipped. Errors exporting
// a layer are logged and never stop the export of subsequent layers.
func ExportLayers(ctx context.Context, p *host.Project, opts *Options) *Results {

	logger := common.Logger()

	feedback := opts.Feedback

	if feedback == nil {
		feedback = &host.LogFeedback{Logger: logger}
	}

	results := &Results{
		Artifacts: make([]*Artifact, 0),
		Filters:   make([]*fields.Domain, 0),
	}

	feedback.ShowFeedback("Exporting layers...")

	for idx, layer := range p.Layers {

		select {
		case <-ctx.Done():
			logger.Warn("Export cancelled", "error", ctx.Err())
			return results
		default:
			// pass
		}

		layer_opts := LayerOptions{}

		if idx < len(opts.Layers) {
			layer_opts = opts.Layers[idx]
		}

		name := common.ArtifactName(layer.Name(), idx)

		if v, ok := host.IsVector(layer); ok && isExportableVector(v, layer_opts) {

			feedback.ShowFeedback(fmt.Sprintf("Exporting %s to JSON...", layer.Name()))

			artifacts, err := exportVector(ctx, p, v, idx, name, layer_opts, opts)

			if err != nil {
				logger.Error("Failed to export vector layer", "layer", layer.Name(), "error", err)
			}

			results.Artifacts = append(results.Artifacts, artifacts...)
			feedback.CompleteStep()
			continue
		}

		if r, ok := host.IsRaster(layer); ok && r.ProviderType() != host.ProviderWMS {

			feedback.ShowFeedback(fmt.Sprintf("Exporting %s as raster...", layer.Name()))

			a, err := exportRaster(ctx, p, r, idx, name, opts)

			if err != nil {
				logger.Error("Failed to export raster layer", "layer", layer.Name(), "error", err)
			} else {
				results.Artifacts = append(results.Artifacts, a)
			}

			feedback.CompleteStep()
			continue
		}

		logger.Debug("Skipping layer", "layer", layer.Name(), "provider", layer.ProviderType())
	}

	feedback.CompleteStep()

	results.Filters = filterDomains(ctx, p, opts.FilterFields)
	return results
}

func isExportableVector(layer host.VectorLayer, opts LayerOptions) bool {

	if host.HasVectorTileSource(layer) {
		return false
	}

	return layer.ProviderType() != host.ProviderWFS || opts.EncodeJSON
}

func exportVector(ctx context.Context, p *host.Project, layer host.VectorLayer, idx int, name string, layer_opts LayerOptions, opts *Options) ([]*Artifact, error) {

	artifacts := make([]*Artifact, 0)

	vector_opts := &vector.ExportVectorOptions{
		Bucket:     opts.Bucket,
		ScratchDir: opts.ScratchDir,
		Name:       name,
		Precision:  opts.Precision,
		Minify:     opts.Minify,
		TmpLayer: &tmplayer.Options{
			RestrictToExtent: opts.RestrictToExtent,
			ExtentMode:       opts.ExtentMode,
			ExportRelated:    layer_opts.ExportRelated,
		},
		ACL: opts.ACL,
	}

	key, err := vector.ExportVector(ctx, p, layer, vector_opts)

	if err != nil {
		return artifacts, err
	}

	a := newArtifact(layer, idx, KindVector, key)
	a.GeometryType, _ = mapping.GeometryType(layer.WkbType())
	a.Popup = layer_opts.Popup

	artifacts = append(artifacts, a)

	images_opts := &vector.ExportImagesOptions{
		Bucket: opts.Bucket,
		ACL:    opts.ACL,
	}

	keys, err := vector.ExportImages(ctx, p, layer, images_opts)

	for _, k := range keys {
		artifacts = append(artifacts, newArtifact(layer, idx, KindImage, k))
	}

	if err != nil {
		return artifacts, fmt.Errorf("Failed to export images, %w", err)
	}

	return artifacts, nil
}

func exportRaster(ctx context.Context, p *host.Project, layer host.RasterLayer, idx int, name string, opts *Options) (*Artifact, error) {

	raster_opts := &raster.ExportRasterOptions{
		Bucket:      opts.Bucket,
		ScratchDir:  opts.ScratchDir,
		Name:        name,
		Index:       idx,
		MatchCRS:    opts.MatchCRS,
		Writer:      opts.Writer,
		Warper:      opts.Warper,
		Translator:  opts.Translator,
		KeepScratch: opts.KeepScratch,
		ACL:         opts.ACL,
	}

	key, err := raster.ExportRaster(ctx, p, layer, raster_opts)

	if err != nil {
		return nil, err
	}

	return newArtifact(layer, idx, KindRaster, key), nil
}

func newArtifact(layer host.Layer, idx int, kind string, key string) *Artifact {

	a := &Artifact{
		Layer:   layer.Name(),
		Index:   idx,
		Kind:    kind,
		Key:     key,
		MinZoom: 0,
		MaxZoom: 19,
	}

	a.BlendMode, _ = mapping.BlendMode(layer.BlendMode())

	sr := layer.ScaleRange()

	if sr.Enabled {

		// the largest scale denominator is the furthest zoom level
		if sr.MinScale > 0 {
			a.MinZoom = mapping.ScaleToZoom(sr.MinScale)
		}

		if sr.MaxScale > 0 {
			a.MaxZoom = mapping.ScaleToZoom(sr.MaxScale)
		}
	}

	return a
}

func filterDomains(ctx context.Context, p *host.Project, names []string) []*fields.Domain {

	logger := common.Logger()
	domains := make([]*fields.Domain, 0)

	for _, name := range names {

		t, ok := filterType(p, name)

		if !ok {
			logger.Warn("Unable to classify filter field, skipping", "field", name)
			continue
		}

		d, err := fields.FilterDomain(ctx, p.Layers, name, t)

		if err != nil {
			logger.Warn("Failed to derive filter domain", "field", name, "error", err)
			continue
		}

		if d != nil {
			domains = append(domains, d)
		}
	}

	return domains
}

// filterType returns the canonical type of the first field named name in the project's vector layers.
func filterType(p *host.Project, name string) (fields.Type, bool) {

	for _, l := range p.Layers {

		v, ok := host.IsVector(l)

		if !ok {
			continue
		}

		idx := host.FieldIndex(v.Fields(), name)

		if idx == -1 {
			continue
		}

		return fields.Classify(v.Fields()[idx].TypeName)
	}

	return "", false
}
