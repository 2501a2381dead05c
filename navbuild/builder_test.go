package navbuild

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorustyt/recastgo/config"
	"github.com/gorustyt/recastgo/geom"
	"github.com/gorustyt/recastgo/recast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// floorGeom is a flat size x size quad at y 0.
func floorGeom(t *testing.T, size float32) *geom.InputGeom {
	t.Helper()
	src := fmt.Sprintf("v 0 0 0\nv 0 0 %[1]g\nv %[1]g 0 %[1]g\nv %[1]g 0 0\nf 1 2 3 4\n", size)
	m, err := geom.ParseObj(strings.NewReader(src), 1)
	require.NoError(t, err)
	return geom.NewInputGeom(m)
}

func TestBuildFloor(t *testing.T) {
	for _, partition := range []string{"watershed", "monotone", "layers"} {
		t.Run(partition, func(t *testing.T) {
			cfg := config.Default()
			cfg.Region.Partition = partition
			cfg.Region.BuildLayers = true
			b := New(cfg, zaptest.NewLogger(t))

			res, err := b.Build(context.Background(), floorGeom(t, 10))
			require.NoError(t, err)
			assert.False(t, b.Busy())
			require.NotNil(t, res.Mesh)
			assert.Greater(t, res.Mesh.Npolys, 0)
			assert.Equal(t, res.Mesh.Npolys, res.Detail.Nmeshes())
			assert.Equal(t, 1, res.Layers.Nlayers())
			assert.Positive(t, res.BuildTime)
			assert.Positive(t, res.Context.AccumulatedTime(recast.RC_TIMER_TOTAL))
			for i := 0; i < res.Mesh.Npolys; i++ {
				assert.EqualValues(t, config.SAMPLE_POLYAREA_GROUND, res.Mesh.Areas[i])
				assert.EqualValues(t, config.SAMPLE_POLYFLAGS_WALK, res.Mesh.Flags[i])
			}
			// Erosion by the agent radius keeps every vertex off the edge.
			for i := 0; i < res.Mesh.Nverts; i++ {
				v := res.Mesh.Vert(i)
				assert.GreaterOrEqual(t, int(v[0]), res.Config.WalkableRadius)
				assert.LessOrEqual(t, int(v[0]), res.Config.Width-res.Config.WalkableRadius)
			}
		})
	}
}

func TestBuildMarksWaterVolume(t *testing.T) {
	cfg := config.Default()
	cfg.Areas.Volumes = []config.VolumeConfig{{
		Points: [][3]float32{{0, 0, 0}, {5, 0, 0}, {5, 0, 10}, {0, 0, 10}},
		Hmin:   -1,
		Hmax:   1,
		Area:   "water",
	}}
	g := floorGeom(t, 10)
	require.NoError(t, AddConfigVolumes(g, cfg))
	require.Len(t, g.ConvexVolumes(), 1)

	res, err := New(cfg, zaptest.NewLogger(t)).Build(context.Background(), g)
	require.NoError(t, err)
	var water, ground int
	for i := 0; i < res.Mesh.Npolys; i++ {
		switch res.Mesh.Areas[i] {
		case config.SAMPLE_POLYAREA_WATER:
			water++
			assert.EqualValues(t, config.SAMPLE_POLYFLAGS_SWIM, res.Mesh.Flags[i])
		case config.SAMPLE_POLYAREA_GROUND:
			ground++
		}
	}
	assert.Positive(t, water)
	assert.Positive(t, ground)
}

func TestBuildNullBoxRemovesEverything(t *testing.T) {
	cfg := config.Default()
	cfg.Areas.Boxes = []config.BoxConfig{{Min: [3]float32{-1, -1, -1}, Max: [3]float32{11, 1, 11}, Area: config.AreaNull}}
	res, err := New(cfg, zaptest.NewLogger(t)).Build(context.Background(), floorGeom(t, 10))
	require.NoError(t, err)
	assert.Zero(t, res.Mesh.Npolys)
	assert.Zero(t, res.Detail.Ntris())
}

func TestBuildRejectsEmptyMesh(t *testing.T) {
	g := geom.NewInputGeom(&geom.Mesh{})
	_, err := New(config.Default(), nil).Build(context.Background(), g)
	assert.ErrorContains(t, err, "no triangles")
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(config.Default(), nil).Build(ctx, floorGeom(t, 10))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildBusy(t *testing.T) {
	b := New(config.Default(), nil)
	b.busy.Set()
	_, err := b.Build(context.Background(), floorGeom(t, 10))
	assert.ErrorIs(t, err, ErrBusy)
}

func TestAssignPolyFlags(t *testing.T) {
	pmesh := &recast.RcPolyMesh{
		Npolys: 4,
		Areas:  []uint8{recast.RC_WALKABLE_AREA, config.SAMPLE_POLYAREA_DOOR, config.SAMPLE_POLYAREA_JUMP, config.SAMPLE_POLYAREA_ROAD},
		Flags:  make([]uint16, 4),
	}
	AssignPolyFlags(pmesh)
	assert.Equal(t, []uint8{config.SAMPLE_POLYAREA_GROUND, config.SAMPLE_POLYAREA_DOOR, config.SAMPLE_POLYAREA_JUMP, config.SAMPLE_POLYAREA_ROAD}, pmesh.Areas)
	assert.Equal(t, []uint16{
		config.SAMPLE_POLYFLAGS_WALK,
		config.SAMPLE_POLYFLAGS_WALK | config.SAMPLE_POLYFLAGS_DOOR,
		config.SAMPLE_POLYFLAGS_JUMP,
		config.SAMPLE_POLYFLAGS_WALK,
	}, pmesh.Flags)
}

func TestWatchRebuildsOnWrite(t *testing.T) {
	p := filepath.Join(t.TempDir(), "level.obj")
	require.NoError(t, os.WriteFile(p, []byte("v 0 0 0\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var builds atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, zaptest.NewLogger(t), []string{p}, func() error {
			builds.Add(1)
			return nil
		})
	}()

	// The watcher registers asynchronously; keep touching the file until
	// a rebuild is observed.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(p, []byte("v 1 0 0\n"), 0o644)
		return builds.Load() > 0
	}, 5*time.Second, 300*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
