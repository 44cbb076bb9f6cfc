package project

// Config is the TOML description of a project.
type Config struct {
	// FileName is the nominal project file; relative attachment paths resolve against its directory.
	// It defaults to the path of the TOML file itself.
	FileName  string            `toml:"file_name"`
	Canvas    CanvasConfig      `toml:"canvas"`
	Layers    []*LayerConfig    `toml:"layers"`
	Relations []*RelationConfig `toml:"relations"`
}

// CanvasConfig is the current map view.
type CanvasConfig struct {
	// Extent is [min x, min y, max x, max y] in CRS.
	Extent []float64 `toml:"extent"`
	CRS    string    `toml:"crs"`
}

// LayerConfig describes a single layer.
type LayerConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
	// Type is one of "vector", "raster" or "other".
	Type string `toml:"type"`
	// Source is the path of a GeoJSON, GeoPackage or image file, relative to the TOML file.
	Source string `toml:"source"`
	// Table is the GeoPackage table to read features from.
	Table      string            `toml:"table"`
	Provider   string            `toml:"provider"`
	CRS        string            `toml:"crs"`
	BlendMode  string            `toml:"blend_mode"`
	MinScale   float64           `toml:"min_scale"`
	MaxScale   float64           `toml:"max_scale"`
	Properties map[string]string `toml:"properties"`
	// Widgets maps field names to editor widget types ("Hidden", "ExternalResource", ...)
	Widgets   map[string]string `toml:"widgets"`
	Variables map[string]string `toml:"variables"`
	// Fields, if present, declare the layer schema. Otherwise it is inferred from the data.
	Fields []*FieldConfig `toml:"fields"`
	// Geometry overrides the geometry type derived from the data ("Point", "MultiPolygonZ", ...)
	Geometry string `toml:"geometry"`
	// Extent is the georeferenced extent of raster layers.
	Extent []float64    `toml:"extent"`
	Style  *StyleConfig `toml:"style"`
	// Export are the settings used when the layer is exported.
	Export ExportConfig `toml:"export"`
}

// ExportConfig are the per-layer export settings.
type ExportConfig struct {
	// JSON exports WFS layers as GeoJSON.
	JSON bool `toml:"json"`
	// Popup is the popup mode ("none" or "all-attributes").
	Popup   string `toml:"popup"`
	Related bool   `toml:"related"`
}

// FieldConfig declares a single field.
type FieldConfig struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Length int    `toml:"length"`
}

// StyleConfig describes a layer's renderer.
type StyleConfig struct {
	// Kind is one of "single", "categorized", "graduated", "rule", "null" or "25d".
	Kind       string            `toml:"kind"`
	Attribute  string            `toml:"attribute"`
	Symbol     *SymbolConfig     `toml:"symbol"`
	Categories []*CategoryConfig `toml:"categories"`
	Ranges     []*RangeConfig    `toml:"ranges"`
	Rules      []*RuleConfig     `toml:"rules"`
}

// SymbolConfig describes a symbol and its paint layers.
type SymbolConfig struct {
	Color  string               `toml:"color"`
	Layers []*SymbolLayerConfig `toml:"layers"`
}

// SymbolLayerConfig describes a single paint layer.
type SymbolLayerConfig struct {
	// Kind is one of "simple", "geometry_generator" or "other".
	Kind      string        `toml:"kind"`
	Color     string        `toml:"color"`
	SubSymbol *SymbolConfig `toml:"sub_symbol"`
}

type CategoryConfig struct {
	Value  any           `toml:"value"`
	Label  string        `toml:"label"`
	Symbol *SymbolConfig `toml:"symbol"`
}

type RangeConfig struct {
	Lower  float64       `toml:"lower"`
	Upper  float64       `toml:"upper"`
	Label  string        `toml:"label"`
	Symbol *SymbolConfig `toml:"symbol"`
}

// RuleConfig matches features whose Field equals Value. An empty Field matches everything.
type RuleConfig struct {
	Label  string        `toml:"label"`
	Field  string        `toml:"field"`
	Value  any           `toml:"value"`
	Symbol *SymbolConfig `toml:"symbol"`
}

// RelationConfig describes a relation between two vector layers, referenced by layer id.
type RelationConfig struct {
	ID          string             `toml:"id"`
	Name        string             `toml:"name"`
	Referencing string             `toml:"referencing"`
	Referenced  string             `toml:"referenced"`
	FieldPairs  []*FieldPairConfig `toml:"field_pairs"`
}

type FieldPairConfig struct {
	Referencing string `toml:"referencing"`
	Referenced  string `toml:"referenced"`
}
