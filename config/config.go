// Package config holds the YAML build settings of a navmesh build and their
// conversion to voxel units.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gorustyt/recastgo/common"
	"github.com/gorustyt/recastgo/logging"
	"github.com/gorustyt/recastgo/recast"
	"github.com/invopop/jsonschema"
	"github.com/mazznoer/csscolorparser"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const MaxVertsPerPoly = 12

type AgentConfig struct {
	// Agent height in world units
	Height float32 `yaml:"height" json:"height" jsonschema:"minimum=0"`
	// Agent radius in world units
	Radius float32 `yaml:"radius" json:"radius" jsonschema:"minimum=0"`
	// Agent max climb in world units
	MaxClimb float32 `yaml:"max_climb" json:"max_climb" jsonschema:"minimum=0"`
	// Agent max slope in degrees
	MaxSlope float32 `yaml:"max_slope" json:"max_slope" jsonschema:"minimum=0,maximum=90"`
}

type RasterConfig struct {
	// Cell size in world units
	CellSize float32 `yaml:"cell_size" json:"cell_size" jsonschema:"minimum=0"`
	// Cell height in world units
	CellHeight float32 `yaml:"cell_height" json:"cell_height" jsonschema:"minimum=0"`
	// Non-navigable border around the grid in cells
	BorderSize int `yaml:"border_size" json:"border_size,omitempty" jsonschema:"minimum=0"`
}

type FilterConfig struct {
	LowHangingObstacles    bool `yaml:"low_hanging_obstacles" json:"low_hanging_obstacles"`
	LedgeSpans             bool `yaml:"ledge_spans" json:"ledge_spans"`
	WalkableLowHeightSpans bool `yaml:"walkable_low_height_spans" json:"walkable_low_height_spans"`
}

type RegionConfig struct {
	// watershed, monotone or layers
	Partition string `yaml:"partition" json:"partition" jsonschema:"enum=watershed,enum=monotone,enum=layers"`
	// Region minimum size in voxels. region_min_size = sqrt(region_min_area)
	MinSize float32 `yaml:"min_size" json:"min_size" jsonschema:"minimum=0"`
	// Region merge size in voxels. region_merge_size = sqrt(region_merge_area)
	MergeSize float32 `yaml:"merge_size" json:"merge_size" jsonschema:"minimum=0"`
	// Also build the heightfield layer set from the partitioned field.
	BuildLayers bool `yaml:"build_layers" json:"build_layers,omitempty"`
}

type PolyConfig struct {
	// Edge max length in world units
	EdgeMaxLen float32 `yaml:"edge_max_len" json:"edge_max_len" jsonschema:"minimum=0"`
	// Edge max error in voxels
	EdgeMaxError float32 `yaml:"edge_max_error" json:"edge_max_error" jsonschema:"minimum=0"`
	VertsPerPoly int     `yaml:"verts_per_poly" json:"verts_per_poly" jsonschema:"minimum=3,maximum=12"`
}

type DetailConfig struct {
	// Detail sample distance in voxels, below 0.9 disables sampling
	SampleDist float32 `yaml:"sample_dist" json:"sample_dist" jsonschema:"minimum=0"`
	// Detail sample max error in voxel heights.
	SampleMaxError float32 `yaml:"sample_max_error" json:"sample_max_error" jsonschema:"minimum=0"`
}

// VolumeConfig is a convex prism painted after erosion.
type VolumeConfig struct {
	Points [][3]float32 `yaml:"points" json:"points" jsonschema:"minItems=3,maxItems=12"`
	Hmin   float32      `yaml:"hmin" json:"hmin"`
	Hmax   float32      `yaml:"hmax" json:"hmax"`
	Offset float32      `yaml:"offset" json:"offset,omitempty" jsonschema:"minimum=0"`
	Area   string       `yaml:"area" json:"area"`
}

type BoxConfig struct {
	Min  [3]float32 `yaml:"min" json:"min"`
	Max  [3]float32 `yaml:"max" json:"max"`
	Area string     `yaml:"area" json:"area"`
}

type CylinderConfig struct {
	Center [3]float32 `yaml:"center" json:"center"`
	Radius float32    `yaml:"radius" json:"radius" jsonschema:"minimum=0"`
	Height float32    `yaml:"height" json:"height" jsonschema:"minimum=0"`
	Area   string     `yaml:"area" json:"area"`
}

type AreaConfig struct {
	Volumes   []VolumeConfig   `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	Boxes     []BoxConfig      `yaml:"boxes,omitempty" json:"boxes,omitempty"`
	Cylinders []CylinderConfig `yaml:"cylinders,omitempty" json:"cylinders,omitempty"`
}

type OutputConfig struct {
	Dir string `yaml:"dir" json:"dir,omitempty"`
	// Write BMP snapshots of areas, distances and regions.
	Images bool `yaml:"images" json:"images,omitempty"`
	// Pixels per cell of the BMP snapshots.
	ImageScale int `yaml:"image_scale" json:"image_scale,omitempty" jsonschema:"minimum=1"`
}

// Config is the full set of build settings.
type Config struct {
	Agent   AgentConfig       `yaml:"agent" json:"agent"`
	Raster  RasterConfig      `yaml:"raster" json:"raster"`
	Filters FilterConfig      `yaml:"filters" json:"filters"`
	Region  RegionConfig      `yaml:"region" json:"region"`
	Poly    PolyConfig        `yaml:"poly" json:"poly"`
	Detail  DetailConfig      `yaml:"detail" json:"detail"`
	Areas   AreaConfig        `yaml:"areas" json:"areas,omitempty"`
	Palette map[string]string `yaml:"palette" json:"palette,omitempty"`
	Output  OutputConfig      `yaml:"output" json:"output,omitempty"`
	Log     logging.Config    `yaml:"log" json:"log,omitempty"`
}

// Default returns the settings a fresh sample starts with.
func Default() *Config {
	return &Config{
		Agent:   AgentConfig{Height: 2.0, Radius: 0.6, MaxClimb: 0.9, MaxSlope: 45.0},
		Raster:  RasterConfig{CellSize: 0.3, CellHeight: 0.2},
		Filters: FilterConfig{LowHangingObstacles: true, LedgeSpans: true, WalkableLowHeightSpans: true},
		Region:  RegionConfig{Partition: "watershed", MinSize: 8, MergeSize: 20},
		Poly:    PolyConfig{EdgeMaxLen: 12.0, EdgeMaxError: 1.3, VertsPerPoly: 6},
		Detail:  DetailConfig{SampleDist: 6.0, SampleMaxError: 1.0},
		Palette: map[string]string{
			"ground": "rgb(0,192,255)",
			"water":  "blue",
			"road":   "rgb(50,20,12)",
			"door":   "cyan",
			"grass":  "lime",
			"jump":   "yellow",
		},
		Output: OutputConfig{ImageScale: 4},
		Log:    logging.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf(format, args...))
		}
	}
	wrap := func(field string, err error) {
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", field, err))
		}
	}

	check(c.Raster.CellSize > 0, "raster.cell_size must be > 0, got %v", c.Raster.CellSize)
	check(c.Raster.CellHeight > 0, "raster.cell_height must be > 0, got %v", c.Raster.CellHeight)
	check(c.Raster.BorderSize >= 0, "raster.border_size must be >= 0, got %d", c.Raster.BorderSize)
	check(c.Agent.Height > 0, "agent.height must be > 0, got %v", c.Agent.Height)
	check(c.Agent.Radius >= 0, "agent.radius must be >= 0, got %v", c.Agent.Radius)
	check(c.Agent.MaxClimb >= 0, "agent.max_climb must be >= 0, got %v", c.Agent.MaxClimb)
	check(c.Agent.MaxSlope >= 0 && c.Agent.MaxSlope < 90, "agent.max_slope must be in [0, 90), got %v", c.Agent.MaxSlope)
	if c.Raster.CellHeight > 0 && c.Agent.Height > 0 {
		wh := walkableHeight(c.Agent.Height, c.Raster.CellHeight)
		check(wh >= 3, "agent.height is %d voxels, needs at least 3", wh)
	}
	_, err := ParsePartition(c.Region.Partition)
	wrap("region.partition", err)
	check(c.Region.MinSize >= 0, "region.min_size must be >= 0, got %v", c.Region.MinSize)
	check(c.Region.MergeSize >= 0, "region.merge_size must be >= 0, got %v", c.Region.MergeSize)
	check(c.Poly.EdgeMaxLen >= 0, "poly.edge_max_len must be >= 0, got %v", c.Poly.EdgeMaxLen)
	check(c.Poly.EdgeMaxError >= 0, "poly.edge_max_error must be >= 0, got %v", c.Poly.EdgeMaxError)
	check(c.Poly.VertsPerPoly >= 3 && c.Poly.VertsPerPoly <= MaxVertsPerPoly,
		"poly.verts_per_poly must be in [3, %d], got %d", MaxVertsPerPoly, c.Poly.VertsPerPoly)
	check(c.Detail.SampleDist >= 0, "detail.sample_dist must be >= 0, got %v", c.Detail.SampleDist)
	check(c.Detail.SampleMaxError >= 0, "detail.sample_max_error must be >= 0, got %v", c.Detail.SampleMaxError)

	for i, v := range c.Areas.Volumes {
		field := fmt.Sprintf("areas.volumes[%d]", i)
		check(len(v.Points) >= 3, "%s needs at least 3 points, got %d", field, len(v.Points))
		check(v.Hmax > v.Hmin, "%s hmax %v must be above hmin %v", field, v.Hmax, v.Hmin)
		_, err := AreaID(v.Area)
		wrap(field, err)
	}
	for i, b := range c.Areas.Boxes {
		field := fmt.Sprintf("areas.boxes[%d]", i)
		check(b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2], "%s min must not exceed max", field)
		_, err := AreaID(b.Area)
		wrap(field, err)
	}
	for i, cy := range c.Areas.Cylinders {
		field := fmt.Sprintf("areas.cylinders[%d]", i)
		check(cy.Radius > 0 && cy.Height > 0, "%s needs a positive radius and height", field)
		_, err := AreaID(cy.Area)
		wrap(field, err)
	}
	for name, col := range c.Palette {
		if _, err := AreaID(name); err != nil {
			wrap("palette", err)
		}
		if _, err := csscolorparser.Parse(col); err != nil {
			wrap("palette."+name, err)
		}
	}
	check(c.Output.ImageScale >= 0, "output.image_scale must be >= 0, got %d", c.Output.ImageScale)
	if c.Log.Level != "" {
		_, err := zapcore.ParseLevel(c.Log.Level)
		wrap("log.level", err)
	}
	check(c.Log.Format == "" || c.Log.Format == logging.FormatConsole || c.Log.Format == logging.FormatJSON,
		"log.format must be %q or %q, got %q", logging.FormatConsole, logging.FormatJSON, c.Log.Format)
	return errs
}

func walkableHeight(height, ch float32) int {
	return int(math.Ceil(float64(height / ch)))
}

// PartitionType returns SAMPLE_PARTITION_* for the configured partition.
func (c *Config) PartitionType() int {
	p, err := ParsePartition(c.Region.Partition)
	common.AssertTrue(err == nil, err)
	return p
}

// / Converts the world unit settings to a voxel build config over the given bounds.
// / @param[in]	bmin	Mesh minimum bounds.
// / @param[in]	bmax	Mesh maximum bounds.
func (c *Config) RcConfig(bmin, bmax [3]float32) recast.RcConfig {
	cs, ch := c.Raster.CellSize, c.Raster.CellHeight
	cfg := recast.RcConfig{
		Cs:                     cs,
		Ch:                     ch,
		BorderSize:             c.Raster.BorderSize,
		WalkableSlopeAngle:     c.Agent.MaxSlope,
		WalkableHeight:         walkableHeight(c.Agent.Height, ch),
		WalkableClimb:          int(math.Floor(float64(c.Agent.MaxClimb / ch))),
		WalkableRadius:         int(math.Ceil(float64(c.Agent.Radius / cs))),
		MaxEdgeLen:             int(c.Poly.EdgeMaxLen / cs),
		MaxSimplificationError: c.Poly.EdgeMaxError,
		MinRegionArea:          int(common.Sqr(c.Region.MinSize)),
		MergeRegionArea:        int(common.Sqr(c.Region.MergeSize)),
		MaxVertsPerPoly:        c.Poly.VertsPerPoly,
		DetailSampleMaxError:   ch * c.Detail.SampleMaxError,
		Bmin:                   bmin,
		Bmax:                   bmax,
	}
	if c.Detail.SampleDist >= 0.9 {
		cfg.DetailSampleDist = cs * c.Detail.SampleDist
	}
	pad := float32(cfg.BorderSize) * cs
	cfg.Bmin[0] -= pad
	cfg.Bmin[2] -= pad
	cfg.Bmax[0] += pad
	cfg.Bmax[2] += pad
	cfg.Width, cfg.Height = recast.RcCalcGridSize(cfg.Bmin[:], cfg.Bmax[:], cs)
	return cfg
}

// Schema returns the JSON schema of the YAML layout.
func Schema() ([]byte, error) {
	return json.MarshalIndent(jsonschema.Reflect(&Config{}), "", "  ")
}
