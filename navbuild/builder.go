// Package navbuild runs the whole single mesh pipeline for one input
// geometry.
package navbuild

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorustyt/recastgo/config"
	"github.com/gorustyt/recastgo/geom"
	"github.com/gorustyt/recastgo/recast"
	"github.com/tevino/abool"
	"go.uber.org/zap"
)

var ErrBusy = errors.New("navbuild: a build is already running")

// Result holds the build output and, for inspection, the intermediate
// stages that are still valid once the build finishes.
type Result struct {
	Config   recast.RcConfig
	Solid    *recast.RcHeightfield
	Regions  *recast.RcRegionHeightfield
	Layers   *recast.RcHeightfieldLayerSet
	Contours *recast.RcContourSet
	Mesh     *recast.RcPolyMesh
	Detail   *recast.RcPolyMeshDetail
	Context  *recast.RcContext

	BuildTime time.Duration
}

// Builder builds navmeshes from geometry using one config. Builds do not
// overlap; a second Build while one runs fails with ErrBusy.
type Builder struct {
	cfg    *config.Config
	logger *zap.Logger
	busy   *abool.AtomicBool
}

func New(cfg *config.Config, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, logger: logger, busy: abool.New()}
}

// Busy reports whether a build is running.
func (b *Builder) Busy() bool { return b.busy.IsSet() }

// AddConfigVolumes turns the configured convex volumes into geometry volumes.
func AddConfigVolumes(g *geom.InputGeom, cfg *config.Config) error {
	for i, v := range cfg.Areas.Volumes {
		area, err := config.AreaID(v.Area)
		if err != nil {
			return fmt.Errorf("areas.volumes[%d]: %w", i, err)
		}
		pts := make([]float32, 0, len(v.Points)*3)
		for _, p := range v.Points {
			pts = append(pts, p[:]...)
		}
		vol, err := geom.NewConvexVolume(pts, v.Hmin, v.Hmax, v.Offset, area)
		if err != nil {
			return fmt.Errorf("areas.volumes[%d]: %w", i, err)
		}
		if err := g.AddConvexVolume(vol); err != nil {
			return err
		}
	}
	return nil
}

// Build runs every stage over g. The context is checked between stages.
func (b *Builder) Build(ctx context.Context, g *geom.InputGeom) (*Result, error) {
	if !b.busy.SetToIf(false, true) {
		return nil, ErrBusy
	}
	defer b.busy.UnSet()

	start := time.Now()
	rc := recast.NewRcContext(b.logger)
	res := &Result{Context: rc}
	if err := b.build(ctx, rc, g, res); err != nil {
		return nil, err
	}
	res.BuildTime = time.Since(start)
	rc.LogBuildTimes()
	b.logger.Info("polymesh built",
		zap.Int("verts", res.Mesh.Nverts),
		zap.Int("polys", res.Mesh.Npolys),
		zap.Int("detailTris", res.Detail.Ntris()),
		zap.Duration("took", res.BuildTime))
	return res, nil
}

func (b *Builder) build(ctx context.Context, rc *recast.RcContext, g *geom.InputGeom, res *Result) error {
	mesh := g.Mesh()
	if mesh.TriCount() == 0 {
		return errors.New("navbuild: input mesh has no triangles")
	}

	//
	// Step 1. Initialize build config.
	//
	cfg := b.cfg.RcConfig(g.MeshBoundsMin(), g.MeshBoundsMax())
	res.Config = cfg

	rc.ResetTimers()
	rc.StartTimer(recast.RC_TIMER_TOTAL)
	defer rc.StopTimer(recast.RC_TIMER_TOTAL)

	b.logger.Info("building navigation",
		zap.Int("width", cfg.Width), zap.Int("height", cfg.Height),
		zap.Int("verts", mesh.VertCount()), zap.Int("tris", mesh.TriCount()))

	//
	// Step 2. Rasterize input polygon soup.
	//
	solid, err := recast.RcCreateHeightfield(rc, cfg.Width, cfg.Height, cfg.Bmin[:], cfg.Bmax[:], cfg.Cs, cfg.Ch)
	if err != nil {
		return err
	}
	areas := g.Areas(cfg.WalkableSlopeAngle)
	if err := recast.RcRasterizeIndexedTriangles(rc, mesh.Verts, mesh.Tris, areas, solid, cfg.WalkableClimb); err != nil {
		return err
	}
	res.Solid = solid
	if err := ctx.Err(); err != nil {
		return err
	}

	//
	// Step 3. Filter walkable surfaces.
	//
	if b.cfg.Filters.LowHangingObstacles {
		recast.RcFilterLowHangingWalkableObstacles(rc, cfg.WalkableClimb, solid)
	}
	if b.cfg.Filters.LedgeSpans {
		recast.RcFilterLedgeSpans(rc, cfg.WalkableHeight, cfg.WalkableClimb, solid)
	}
	if b.cfg.Filters.WalkableLowHeightSpans {
		recast.RcFilterWalkableLowHeightSpans(rc, cfg.WalkableHeight, solid)
	}

	//
	// Step 4. Partition walkable surface to simple regions.
	//
	chf, err := recast.RcBuildCompactHeightfield(rc, cfg.WalkableHeight, cfg.WalkableClimb, solid)
	if err != nil {
		return err
	}
	if err := recast.RcErodeWalkableArea(rc, cfg.WalkableRadius, chf); err != nil {
		return err
	}
	if err := b.markAreas(rc, g, chf); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var params recast.RcPartitionParams
	switch b.cfg.PartitionType() {
	case config.SAMPLE_PARTITION_WATERSHED:
		params = recast.RcWatershedParams{BorderSize: cfg.BorderSize, MinRegionArea: cfg.MinRegionArea, MergeRegionArea: cfg.MergeRegionArea}
	case config.SAMPLE_PARTITION_MONOTONE:
		params = recast.RcMonotoneParams{BorderSize: cfg.BorderSize, MinRegionArea: cfg.MinRegionArea, MergeRegionArea: cfg.MergeRegionArea}
	default:
		params = recast.RcLayerRegionParams{BorderSize: cfg.BorderSize, MinRegionArea: cfg.MinRegionArea}
	}
	rhf, err := recast.RcPartition(rc, chf, params)
	if err != nil {
		return err
	}
	res.Regions = rhf

	if b.cfg.Region.BuildLayers {
		if res.Layers, err = recast.RcBuildHeightfieldLayers(rc, rhf, cfg.BorderSize, cfg.WalkableHeight); err != nil {
			return err
		}
	}

	//
	// Step 5. Trace and simplify region contours.
	//
	cset, err := recast.RcBuildContours(rc, rhf, cfg.MaxSimplificationError, cfg.MaxEdgeLen, recast.RcDefaultContourFlags)
	if err != nil {
		return err
	}
	res.Contours = cset
	if err := ctx.Err(); err != nil {
		return err
	}

	//
	// Step 6. Build polygons mesh from contours.
	//
	pmesh, err := recast.RcBuildPolyMesh(rc, cset, cfg.MaxVertsPerPoly)
	if err != nil {
		return err
	}
	res.Mesh = pmesh

	//
	// Step 7. Create detail mesh which allows to access approximate height on each polygon.
	//
	dmesh, err := recast.RcBuildPolyMeshDetail(rc, pmesh, rhf, cfg.DetailSampleDist, cfg.DetailSampleMaxError)
	if err != nil {
		return err
	}
	res.Detail = dmesh

	// Update poly flags from areas.
	AssignPolyFlags(pmesh)
	return nil
}

// markAreas paints convex volumes, boxes and cylinders, in that order.
func (b *Builder) markAreas(rc *recast.RcContext, g *geom.InputGeom, chf *recast.RcCompactHeightfield) error {
	for _, vol := range g.ConvexVolumes() {
		vol.Mark(rc, chf)
	}
	for i, box := range b.cfg.Areas.Boxes {
		area, err := config.AreaID(box.Area)
		if err != nil {
			return fmt.Errorf("areas.boxes[%d]: %w", i, err)
		}
		recast.RcMarkBoxArea(rc, box.Min[:], box.Max[:], area, chf)
	}
	for i, cy := range b.cfg.Areas.Cylinders {
		area, err := config.AreaID(cy.Area)
		if err != nil {
			return fmt.Errorf("areas.cylinders[%d]: %w", i, err)
		}
		recast.RcMarkCylinderArea(rc, cy.Center[:], cy.Radius, cy.Height, area, chf)
	}
	return nil
}

// AssignPolyFlags maps the plain walkable area to ground and derives the
// ability flags of every polygon from its area.
func AssignPolyFlags(pmesh *recast.RcPolyMesh) {
	for i := 0; i < pmesh.Npolys; i++ {
		if pmesh.Areas[i] == recast.RC_WALKABLE_AREA {
			pmesh.Areas[i] = config.SAMPLE_POLYAREA_GROUND
		}
		switch pmesh.Areas[i] {
		case config.SAMPLE_POLYAREA_GROUND, config.SAMPLE_POLYAREA_GRASS, config.SAMPLE_POLYAREA_ROAD:
			pmesh.Flags[i] = config.SAMPLE_POLYFLAGS_WALK
		case config.SAMPLE_POLYAREA_WATER:
			pmesh.Flags[i] = config.SAMPLE_POLYFLAGS_SWIM
		case config.SAMPLE_POLYAREA_DOOR:
			pmesh.Flags[i] = config.SAMPLE_POLYFLAGS_WALK | config.SAMPLE_POLYFLAGS_DOOR
		case config.SAMPLE_POLYAREA_JUMP:
			pmesh.Flags[i] = config.SAMPLE_POLYFLAGS_JUMP
		}
	}
}
