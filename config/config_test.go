package config

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/gorustyt/recastgo/recast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
agent:
  height: 1.8
region:
  partition: monotone
palette:
  water: "#123456"
areas:
  volumes:
    - points: [[0, 0, 0], [1, 0, 0], [1, 0, 1]]
      hmin: -1
      hmax: 1
      area: water
`))
	require.NoError(t, err)
	assert.Equal(t, float32(1.8), cfg.Agent.Height)
	assert.Equal(t, float32(0.6), cfg.Agent.Radius, "untouched fields keep defaults")
	assert.Equal(t, SAMPLE_PARTITION_MONOTONE, cfg.PartitionType())
	assert.Equal(t, "#123456", cfg.Palette["water"])
	assert.Equal(t, "lime", cfg.Palette["grass"])
	require.Len(t, cfg.Areas.Volumes, 1)
}

func TestParseEmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("agent:\n  heigth: 2\n"))
	assert.ErrorContains(t, err, "heigth")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Raster.CellSize = 0
	cfg.Agent.MaxSlope = 90
	cfg.Poly.VertsPerPoly = 2
	cfg.Region.Partition = "watershd"
	cfg.Palette["grass"] = "not-a-colour"
	cfg.Areas.Boxes = []BoxConfig{{Min: [3]float32{1, 1, 1}, Max: [3]float32{0, 2, 2}, Area: "watr"}}

	err := cfg.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 7)
	assert.ErrorContains(t, err, `did you mean "watershed"?`)
	assert.ErrorContains(t, err, `did you mean "water"?`)
	assert.ErrorContains(t, err, "palette.grass")
}

func TestValidateWalkableHeightVoxels(t *testing.T) {
	cfg := Default()
	cfg.Agent.Height = 0.3 // 2 voxels at ch 0.2
	assert.ErrorContains(t, cfg.Validate(), "needs at least 3")
}

func TestAreaID(t *testing.T) {
	id, err := AreaID("ground")
	require.NoError(t, err)
	assert.EqualValues(t, recast.RC_WALKABLE_AREA, id)
	id, err = AreaID("Water")
	require.NoError(t, err)
	assert.EqualValues(t, SAMPLE_POLYAREA_WATER, id)
	id, err = AreaID(AreaNull)
	require.NoError(t, err)
	assert.EqualValues(t, recast.RC_NULL_AREA, id)
	_, err = AreaID("lava")
	assert.ErrorContains(t, err, "expected one of")

	assert.Equal(t, "ground", PolyAreaName(SAMPLE_POLYAREA_GROUND))
	assert.Equal(t, "door", PolyAreaName(SAMPLE_POLYAREA_DOOR))
	assert.Equal(t, AreaNull, PolyAreaName(200))
}

func TestRcConfigConversion(t *testing.T) {
	cfg := Default()
	rc := cfg.RcConfig([3]float32{0, 0, 0}, [3]float32{30, 5, 15})

	assert.Equal(t, 100, rc.Width)
	assert.Equal(t, 50, rc.Height)
	assert.Equal(t, 10, rc.WalkableHeight, "ceil(2.0 / 0.2)")
	assert.Equal(t, 4, rc.WalkableClimb, "floor(0.9 / 0.2)")
	assert.Equal(t, 2, rc.WalkableRadius, "ceil(0.6 / 0.3)")
	assert.InDelta(t, 40, rc.MaxEdgeLen, 1)
	assert.Equal(t, 64, rc.MinRegionArea)
	assert.Equal(t, 400, rc.MergeRegionArea)
	assert.InDelta(t, 1.8, rc.DetailSampleDist, 1e-5)
	assert.InDelta(t, 0.2, rc.DetailSampleMaxError, 1e-5)

	cfg.Detail.SampleDist = 0.5
	cfg.Raster.BorderSize = 2
	rc = cfg.RcConfig([3]float32{0, 0, 0}, [3]float32{30, 5, 15})
	assert.Zero(t, rc.DetailSampleDist, "sampling disabled below 0.9")
	assert.Equal(t, 104, rc.Width, "border widens the grid on both sides")
	assert.InDelta(t, -0.6, rc.Bmin[0], 1e-5)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Region.Partition = "layers"
	cfg.Areas.Cylinders = []CylinderConfig{{Center: [3]float32{1, 0, 1}, Radius: 1, Height: 2, Area: "grass"}}
	p := filepath.Join(t.TempDir(), "build.yaml")
	require.NoError(t, cfg.Save(p))

	loaded, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, string(data), "verts_per_poly")
	assert.Contains(t, string(data), "watershed")
}

func TestAreaPalette(t *testing.T) {
	c := Default()
	p := c.AreaPalette()
	assert.Equal(t, "rgb(0,192,255)", p[recast.RC_WALKABLE_AREA])
	assert.Equal(t, "rgb(0,192,255)", p[SAMPLE_POLYAREA_GROUND])
	assert.Equal(t, "lime", p[SAMPLE_POLYAREA_GRASS])
	assert.Len(t, p, 7)
}
