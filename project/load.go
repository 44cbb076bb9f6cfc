package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aaronland/go-image-tools/util"
	"github.com/paulmach/orb"
	"github.com/sfomuseum/go-webmap-layers/gdal"
	"github.com/sfomuseum/go-webmap-layers/host"
	_ "golang.org/x/image/tiff"
)

// Load reads the TOML project description at path and returns the project it describes.
func Load(ctx context.Context, path string) (*host.Project, error) {
	p, _, err := LoadWithConfig(ctx, path)
	return p, err
}

// LoadWithConfig reads the TOML project description at path and returns the project it describes along
// with the decoded description.
func LoadWithConfig(ctx context.Context, path string) (*host.Project, *Config, error) {

	var cfg Config

	_, err := toml.DecodeFile(path, &cfg)

	if err != nil {
		return nil, nil, fmt.Errorf("Failed to decode %s, %w", path, err)
	}

	abs_path, err := filepath.Abs(path)

	if err != nil {
		return nil, nil, fmt.Errorf("Failed to derive absolute path for %s, %w", path, err)
	}

	p, err := New(ctx, &cfg, filepath.Dir(abs_path), abs_path)

	if err != nil {
		return nil, nil, err
	}

	return p, &cfg, nil
}

// New returns the project described by cfg. Relative source paths resolve against root.
func New(ctx context.Context, cfg *Config, root string, default_filename string) (*host.Project, error) {

	p := &host.Project{
		FileName:  default_filename,
		Layers:    make([]host.Layer, 0),
		Relations: make([]*host.Relation, 0),
		Evaluator: &Evaluator{},
	}

	if cfg.FileName != "" {
		p.FileName = resolvePath(root, cfg.FileName)
	}

	p.Canvas.CRS = host.CRS(cfg.Canvas.CRS)

	if !p.Canvas.CRS.IsValid() {
		p.Canvas.CRS = host.WebMercator
	}

	if len(cfg.Canvas.Extent) > 0 {

		b, err := newBound(cfg.Canvas.Extent)

		if err != nil {
			return nil, fmt.Errorf("Invalid canvas extent, %w", err)
		}

		p.Canvas.Extent = b
	}

	vector_layers := make(map[string]host.VectorLayer)

	for i, l_cfg := range cfg.Layers {

		if l_cfg.ID == "" {
			l_cfg.ID = fmt.Sprintf("layer_%d", i)
		}

		if l_cfg.Name == "" {
			l_cfg.Name = l_cfg.ID
		}

		l, err := newLayer(ctx, l_cfg, root)

		if err != nil {
			return nil, fmt.Errorf("Failed to create layer %s, %w", l_cfg.ID, err)
		}

		slog.Debug("Loaded layer", "id", l.ID(), "name", l.Name())

		p.Layers = append(p.Layers, l)

		v, ok := host.IsVector(l)

		if ok {
			vector_layers[l.ID()] = v
		}
	}

	for _, r_cfg := range cfg.Relations {

		rel := &host.Relation{
			ID:         r_cfg.ID,
			Name:       r_cfg.Name,
			FieldPairs: make([]host.FieldPair, len(r_cfg.FieldPairs)),
		}

		// missing layers are left nil, relation lookups report them
		rel.Referencing = vector_layers[r_cfg.Referencing]
		rel.Referenced = vector_layers[r_cfg.Referenced]

		for i, fp := range r_cfg.FieldPairs {
			rel.FieldPairs[i] = host.FieldPair{
				Referencing: fp.Referencing,
				Referenced:  fp.Referenced,
			}
		}

		if rel.Name == "" {
			rel.Name = rel.ID
		}

		p.Relations = append(p.Relations, rel)
	}

	return p, nil
}

func newLayer(ctx context.Context, cfg *LayerConfig, root string) (host.Layer, error) {

	blend, err := parseBlendMode(cfg.BlendMode)

	if err != nil {
		return nil, err
	}

	opts := LayerOptions{
		ID:           cfg.ID,
		Name:         cfg.Name,
		CRS:          host.CRS(cfg.CRS),
		ProviderType: cfg.Provider,
		Properties:   cfg.Properties,
		BlendMode:    blend,
		ScaleRange: host.ScaleRange{
			Enabled:  cfg.MinScale != 0 || cfg.MaxScale != 0,
			MinScale: cfg.MinScale,
			MaxScale: cfg.MaxScale,
		},
	}

	switch strings.ToLower(cfg.Type) {
	case "", "vector":
		return newVectorLayer(ctx, cfg, opts, root)
	case "raster":
		return newRasterLayer(cfg, opts, root)
	case "wms":

		if opts.ProviderType == "" {
			opts.ProviderType = host.ProviderWMS
		}

		return NewServiceLayer(&opts, host.KindRaster), nil

	case "other":
		return NewServiceLayer(&opts, host.KindOther), nil
	default:
		return nil, fmt.Errorf("Unknown layer type '%s'", cfg.Type)
	}
}

func newVectorLayer(ctx context.Context, cfg *LayerConfig, opts LayerOptions, root string) (*VectorLayer, error) {

	style, err := newStyle(cfg.Style)

	if err != nil {
		return nil, err
	}

	v_opts := &VectorLayerOptions{
		LayerOptions: opts,
		WkbType:      host.WkbNoGeometry,
		Fields:       newFields(cfg.Fields),
		Widgets:      cfg.Widgets,
		Style:        style,
		Variables:    cfg.Variables,
		Features:     make([]*host.Feature, 0),
	}

	if v_opts.ProviderType == "" {
		v_opts.ProviderType = "ogr"
	}

	if cfg.Source != "" {

		src := resolvePath(root, cfg.Source)

		switch strings.ToLower(filepath.Ext(src)) {
		case ".gpkg":

			table := cfg.Table

			if table == "" {
				table = cfg.ID
			}

			features, fields, t, err := readGeoPackage(ctx, src, table, v_opts.Fields)

			if err != nil {
				return nil, err
			}

			v_opts.Features = features
			v_opts.Fields = fields

			wkb_type, ok := host.ParseWkbType(t.GeometryType)

			if ok {
				v_opts.WkbType = wkb_type
			} else if len(features) > 0 {
				v_opts.WkbType = firstWkbType(features)
			}

			if !v_opts.CRS.IsValid() {
				v_opts.CRS = t.CRS
			}

		default:

			features, fields, wkb_type, err := readGeoJSON(src, v_opts.Fields)

			if err != nil {
				return nil, err
			}

			v_opts.Features = features
			v_opts.Fields = fields
			v_opts.WkbType = wkb_type
		}
	}

	if cfg.Geometry != "" {

		wkb_type, ok := host.ParseWkbType(cfg.Geometry)

		if !ok {
			return nil, fmt.Errorf("Unknown geometry type '%s'", cfg.Geometry)
		}

		v_opts.WkbType = wkb_type
	}

	if !v_opts.CRS.IsValid() {
		v_opts.CRS = host.WGS84
	}

	return NewVectorLayer(v_opts), nil
}

func newRasterLayer(cfg *LayerConfig, opts LayerOptions, root string) (*RasterLayer, error) {

	if cfg.Source == "" {
		return nil, fmt.Errorf("Raster layers require a source")
	}

	src := resolvePath(root, cfg.Source)

	fh, err := os.Open(src)

	if err != nil {
		return nil, fmt.Errorf("Failed to open %s, %w", src, err)
	}

	defer fh.Close()

	im, _, err := util.DecodeImageFromReader(fh)

	if err != nil {
		return nil, fmt.Errorf("Failed to decode %s, %w", src, err)
	}

	var extent orb.Bound

	if len(cfg.Extent) > 0 {

		extent, err = newBound(cfg.Extent)

		if err != nil {
			return nil, err
		}

	} else {

		wf, err := gdal.ReadWorldFile(gdal.WorldFilePath(src))

		if err != nil {
			return nil, fmt.Errorf("Raster layers require an extent or a world file, %w", err)
		}

		extent = wf.Bound(im.Bounds().Dx(), im.Bounds().Dy())
	}

	if opts.ProviderType == "" {
		opts.ProviderType = "gdal"
	}

	if !opts.CRS.IsValid() {
		opts.CRS = host.WGS84
	}

	r_opts := &RasterLayerOptions{
		LayerOptions: opts,
		Extent:       extent,
		Image:        im,
	}

	return NewRasterLayer(r_opts), nil
}

func firstWkbType(features []*host.Feature) host.WkbType {

	for _, f := range features {
		if f.Geometry != nil {
			return geometryWkbType(f.Geometry)
		}
	}

	return host.WkbNoGeometry
}

func newBound(values []float64) (orb.Bound, error) {

	if len(values) != 4 {
		return orb.Bound{}, fmt.Errorf("Extent must have 4 values (min x, min y, max x, max y)")
	}

	if values[0] > values[2] || values[1] > values[3] {
		return orb.Bound{}, fmt.Errorf("Extent minimum exceeds maximum")
	}

	b := orb.Bound{
		Min: orb.Point{values[0], values[1]},
		Max: orb.Point{values[2], values[3]},
	}

	return b, nil
}

func resolvePath(root string, path string) string {

	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(root, path)
}
