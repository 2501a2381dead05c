package recast

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func assertTrue(t *testing.T, value bool, msg string) {
	t.Helper()
	if !value {
		t.Errorf(msg)
	}
}

func assertPanics(t *testing.T, fn func(), msg string) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf(msg)
		}
	}()
	fn()
}

func newTestContext(t *testing.T) *RcContext {
	return NewRcContext(zaptest.NewLogger(t))
}

// The room is a flat quad at y=0.5 over [0,0,0]-[5,5,5], one cell per unit.
var (
	roomBmin  = [3]float32{0, 0, 0}
	roomBmax  = [3]float32{5, 5, 5}
	roomVerts = []float32{
		0, 0.5, 0,
		0, 0.5, 5,
		5, 0.5, 5,
		5, 0.5, 0,
	}
	roomTris = []int{0, 1, 2, 0, 2, 3}
)

const (
	roomWalkableHeight = 3
	roomWalkableClimb  = 0
)

func rasterizeRoom(t *testing.T, ctx *RcContext) *RcHeightfield {
	t.Helper()
	hf, err := RcCreateHeightfield(ctx, 5, 5, roomBmin[:], roomBmax[:], 1, 1)
	if err != nil {
		t.Fatalf("create heightfield: %v", err)
	}
	areas := make([]uint8, len(roomTris)/3)
	RcMarkWalkableTriangles(45, roomVerts, roomTris, areas)
	if err := RcRasterizeIndexedTriangles(ctx, roomVerts, roomTris, areas, hf, 1); err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	return hf
}

func compactRoom(t *testing.T, ctx *RcContext) *RcCompactHeightfield {
	t.Helper()
	chf, err := RcBuildCompactHeightfield(ctx, roomWalkableHeight, roomWalkableClimb, rasterizeRoom(t, ctx))
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	return chf
}

func erodedRoom(t *testing.T, ctx *RcContext) *RcCompactHeightfield {
	t.Helper()
	chf := compactRoom(t, ctx)
	if err := RcErodeWalkableArea(ctx, 1, chf); err != nil {
		t.Fatalf("erode: %v", err)
	}
	return chf
}

func walkableCount(chf *RcCompactHeightfield) int {
	n := 0
	for i := 0; i < chf.SpanCount(); i++ {
		if chf.Area(i) != RC_NULL_AREA {
			n++
		}
	}
	return n
}

func TestCalcBounds(t *testing.T) {
	verts := []float32{1, 2, 3}
	bmin, bmax := RcCalcBounds(verts, 1)
	msg := "bounds of one vector"
	assertTrue(t, bmin == [3]float32{1, 2, 3}, msg)
	assertTrue(t, bmax == [3]float32{1, 2, 3}, msg)

	verts = []float32{
		1, 2, 3,
		0, 2, 5,
	}
	bmin, bmax = RcCalcBounds(verts, 2)
	msg = "bounds of more than one vector"
	assertTrue(t, bmin == [3]float32{0, 2, 3}, msg)
	assertTrue(t, bmax == [3]float32{1, 2, 5}, msg)
}

func TestCalcGridSize(t *testing.T) {
	verts := []float32{
		1, 2, 3,
		0, 2, 6,
	}
	bmin, bmax := RcCalcBounds(verts, 2)
	width, height := RcCalcGridSize(bmin[:], bmax[:], 1.5)
	assertTrue(t, width == 1, "computes the size of an x & z axis grid")
	assertTrue(t, height == 2, "computes the size of an x & z axis grid")
}

func TestCreateHeightfield(t *testing.T) {
	ctx := newTestContext(t)
	verts := []float32{
		1, 2, 3,
		0, 2, 6,
	}
	bmin, bmax := RcCalcBounds(verts, 2)
	var cellSize, cellHeight float32 = 1.5, 2
	width, height := RcCalcGridSize(bmin[:], bmax[:], cellSize)

	hf, err := RcCreateHeightfield(ctx, width, height, bmin[:], bmax[:], cellSize, cellHeight)
	msg := "create a heightfield"
	assertTrue(t, err == nil, msg)
	assertTrue(t, hf.Width == width, msg)
	assertTrue(t, hf.Height == height, msg)
	assertTrue(t, hf.Bmin == bmin, msg)
	assertTrue(t, hf.Bmax == bmax, msg)
	assertTrue(t, hf.Cs == cellSize, msg)
	assertTrue(t, hf.Ch == cellHeight, msg)
	assertTrue(t, len(hf.columns) == width*height, msg)
	assertTrue(t, len(hf.pool) == 0, msg)
	assertTrue(t, hf.freelist == rcNullSpan, msg)

	_, err = RcCreateHeightfield(ctx, 1, 1, bmin[:], bmax[:], 0, cellHeight)
	assertTrue(t, errors.Is(err, ErrRasterize), "zero cell size is a rasterize failure")
	assertTrue(t, errors.Is(err, ErrBuildFailed), "stage errors wrap ErrBuildFailed")
}

func TestMarkWalkableTriangles(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	walkableTri := []int{0, 1, 2}
	unwalkableTri := []int{0, 2, 1}

	areas := []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(45, verts, walkableTri, areas)
	assertTrue(t, areas[0] == RC_WALKABLE_AREA, "One walkable triangle")

	areas = []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(45, verts, unwalkableTri, areas)
	assertTrue(t, areas[0] == RC_NULL_AREA, "One non-walkable triangle")

	areas = []uint8{42}
	RcMarkWalkableTriangles(45, verts, unwalkableTri, areas)
	assertTrue(t, areas[0] == 42, "Non-walkable triangle area id's are not modified")

	areas = []uint8{RC_NULL_AREA}
	RcMarkWalkableTriangles(0, verts, walkableTri, areas)
	assertTrue(t, areas[0] == RC_NULL_AREA, "Slopes equal to the max slope are considered unwalkable.")

	assertPanics(t, func() {
		RcMarkWalkableTriangles(45, verts, []int{0, 1, 3}, []uint8{0})
	}, "Out of range vertex index panics")
}

func TestClearUnwalkableTriangles(t *testing.T) {
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	walkableTri := []uint16{0, 1, 2}
	unwalkableTri := []uint16{0, 2, 1}

	areas := []uint8{42}
	RcClearUnwalkableTriangles(45, verts, unwalkableTri, areas)
	assertTrue(t, areas[0] == RC_NULL_AREA, "Sets area ID of unwalkable triangle to RC_NULL_AREA")

	areas = []uint8{42}
	RcClearUnwalkableTriangles(45, verts, walkableTri, areas)
	assertTrue(t, areas[0] == 42, "Does not modify walkable triangle aread ID's")

	areas = []uint8{42}
	RcClearUnwalkableTriangles(0, verts, walkableTri, areas)
	assertTrue(t, areas[0] == RC_NULL_AREA, "Slopes equal to the max slope are considered unwalkable.")
}

func TestAddSpan(t *testing.T) {
	ctx := newTestContext(t)
	reset := func() *RcHeightfield {
		verts := []float32{
			1, 2, 3,
			0, 2, 6,
		}
		bmin, bmax := RcCalcBounds(verts, 2)
		width, height := RcCalcGridSize(bmin[:], bmax[:], 1.5)
		hf, err := RcCreateHeightfield(ctx, width, height, bmin[:], bmax[:], 1.5, 2)
		if err != nil {
			t.Fatalf("rcAddSpan: %v", err)
		}
		return hf
	}
	const area = 42
	const flagMergeThr = 1

	hf := reset()
	msg := "Add a span to an empty heightfield."
	assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 0, 1, area, flagMergeThr) == nil, msg)
	col := hf.Column(0, 0)
	assertTrue(t, len(col) == 1, msg)
	assertTrue(t, col[0].Smin == 0 && col[0].Smax == 1 && col[0].Area == area, msg)

	msg = "Add a span that gets merged with an existing span."
	assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 1, 2, area, flagMergeThr) == nil, msg)
	col = hf.Column(0, 0)
	assertTrue(t, len(col) == 1, msg)
	assertTrue(t, col[0].Smin == 0 && col[0].Smax == 2 && col[0].Area == area, msg)

	hf = reset()
	msg = "Add a span that merges with two spans above and below."
	assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 0, 1, area, flagMergeThr) == nil, msg)
	assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 2, 3, area, flagMergeThr) == nil, msg)
	col = hf.Column(0, 0)
	assertTrue(t, len(col) == 2, msg)
	assertTrue(t, col[1].Smin == 2 && col[1].Smax == 3 && col[1].Area == area, msg)

	assertTrue(t, RcAddSpan(ctx, hf, 0, 0, 1, 2, area, flagMergeThr) == nil, msg)
	col = hf.Column(0, 0)
	assertTrue(t, len(col) == 1, msg)
	assertTrue(t, col[0].Smin == 0 && col[0].Smax == 3 && col[0].Area == area, msg)
	assertTrue(t, hf.SpanCount() == 1, msg)

	assertPanics(t, func() {
		_ = RcAddSpan(ctx, hf, hf.Width, 0, 0, 1, area, flagMergeThr)
	}, "Adding outside the grid panics")
}

func TestRasterizeTriangle(t *testing.T) {
	ctx := newTestContext(t)
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
	}
	bmin, bmax := RcCalcBounds(verts, 3)
	width, height := RcCalcGridSize(bmin[:], bmax[:], 0.5)
	solid, err := RcCreateHeightfield(ctx, width, height, bmin[:], bmax[:], 0.5, 0.5)
	assertTrue(t, err == nil, "Rasterize a triangle")

	const area = 42
	msg := "Rasterize a triangle"
	assertTrue(t, RcRasterizeTriangle(ctx, verts[0:], verts[3:], verts[6:], area, solid, 1) == nil, msg)

	assertTrue(t, len(solid.Column(0, 0)) == 1, msg)
	assertTrue(t, len(solid.Column(1, 0)) == 0, msg)
	assertTrue(t, len(solid.Column(0, 1)) == 1, msg)
	assertTrue(t, len(solid.Column(1, 1)) == 1, msg)
	for _, c := range [][2]int{{0, 0}, {0, 1}, {1, 1}} {
		s := solid.Column(c[0], c[1])[0]
		assertTrue(t, s.Smin == 0 && s.Smax == 1 && s.Area == area, msg)
	}
}

func TestRasterizeTriangleOutsideGrid(t *testing.T) {
	// Minimal repro for a triangle whose bounding box overlaps the
	// heightfield while the triangle itself does not.
	ctx := newTestContext(t)
	bmin := []float32{0, 0, 0}
	bmax := []float32{10, 10, 10}
	hf, err := RcCreateHeightfield(ctx, 10, 10, bmin, bmax, 1, 1)
	msg := "rcRasterizeTriangle overlapping bb but non-overlapping triangle"
	assertTrue(t, err == nil, msg)

	verts := []float32{
		-10.0, 5.5, -10.0,
		-10.0, 5.5, 3,
		3.0, 5.5, -10.0,
	}
	assertTrue(t, RcRasterizeTriangle(ctx, verts[0:], verts[3:], verts[6:], 42, hf, 1) == nil, msg)
	assertTrue(t, hf.SpanCount() == 0, msg)
}

func TestRasterizeSkinnyTriangles(t *testing.T) {
	ctx := newTestContext(t)
	cases := map[string][]float32{
		"Skinny triangle along x axis": {
			5, 0, 0.005,
			5, 0, -0.005,
			-5, 0, 0.005,

			-5, 0, 0.005,
			5, 0, -0.005,
			-5, 0, -0.005,
		},
		"Skinny triangle along z axis": {
			0.005, 0, 5,
			-0.005, 0, 5,
			0.005, 0, -5,

			0.005, 0, -5,
			-0.005, 0, 5,
			-0.005, 0, -5,
		},
	}
	for msg, verts := range cases {
		bmin, bmax := RcCalcBounds(verts, 6)
		width, height := RcCalcGridSize(bmin[:], bmax[:], 1)
		solid, err := RcCreateHeightfield(ctx, width, height, bmin[:], bmax[:], 1, 1)
		assertTrue(t, err == nil, msg)
		assertTrue(t, RcRasterizeTriangles(ctx, verts, []uint8{42, 42}, solid, 1) == nil, msg)
	}
}

func checkTwoTriangleSpans(t *testing.T, solid *RcHeightfield, msg string) {
	t.Helper()
	filled := map[[2]int]uint8{
		{0, 0}: 1, {0, 1}: 1, {0, 2}: 2, {0, 3}: 2,
		{1, 1}: 1, {1, 2}: 2,
	}
	for x := 0; x < 2; x++ {
		for z := 0; z < 4; z++ {
			col := solid.Column(x, z)
			area, ok := filled[[2]int{x, z}]
			if !ok {
				assertTrue(t, len(col) == 0, msg)
				continue
			}
			assertTrue(t, len(col) == 1, msg)
			if len(col) == 1 {
				assertTrue(t, col[0].Smin == 0 && col[0].Smax == 1 && col[0].Area == area, msg)
			}
		}
	}
}

func TestRasterizeIndexedTriangles(t *testing.T) {
	ctx := newTestContext(t)
	verts := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
		0, 0, 1,
	}
	areas := []uint8{1, 2}
	bmin, bmax := RcCalcBounds(verts, 4)
	width, height := RcCalcGridSize(bmin[:], bmax[:], 0.5)

	solid, err := RcCreateHeightfield(ctx, width, height, bmin[:], bmax[:], 0.5, 0.5)
	assertTrue(t, err == nil, "rcRasterizeTriangles")
	assertTrue(t, RcRasterizeIndexedTriangles(ctx, verts, []int{0, 1, 2, 0, 3, 1}, areas, solid, 1) == nil, "Rasterize some triangles")
	checkTwoTriangleSpans(t, solid, "Rasterize some triangles")

	solid, _ = RcCreateHeightfield(ctx, width, height, bmin[:], bmax[:], 0.5, 0.5)
	assertTrue(t, RcRasterizeIndexedTriangles(ctx, verts, []uint16{0, 1, 2, 0, 3, 1}, areas, solid, 1) == nil, "Unsigned short overload")
	checkTwoTriangleSpans(t, solid, "Unsigned short overload")

	solid, _ = RcCreateHeightfield(ctx, width, height, bmin[:], bmax[:], 0.5, 0.5)
	vertsList := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 0, -1,
		0, 0, 0,
		0, 0, 1,
		1, 0, 0,
	}
	assertTrue(t, RcRasterizeTriangles(ctx, vertsList, areas, solid, 1) == nil, "Triangle list overload")
	checkTwoTriangleSpans(t, solid, "Triangle list overload")

	assertPanics(t, func() {
		_ = RcRasterizeIndexedTriangles(ctx, verts, []int{0, 1, 9}, areas[:1], solid, 1)
	}, "Invalid triangle index panics")
}

func TestRasterizeRoom(t *testing.T) {
	ctx := newTestContext(t)
	hf := rasterizeRoom(t, ctx)
	msg := "one walkable span per column of a flat quad"
	for z := 0; z < hf.Height; z++ {
		for x := 0; x < hf.Width; x++ {
			col := hf.Column(x, z)
			assertTrue(t, len(col) == 1, msg)
			if len(col) == 1 {
				assertTrue(t, col[0].Smin == 0 && col[0].Smax == 1 && col[0].Area == RC_WALKABLE_AREA, msg)
			}
		}
	}
}

func TestFilterLowHangingWalkableObstacles(t *testing.T) {
	ctx := newTestContext(t)
	hf, _ := RcCreateHeightfield(ctx, 1, 1, []float32{0, 0, 0}, []float32{1, 1, 1}, 1, 1)
	_ = RcAddSpan(ctx, hf, 0, 0, 0, 1, RC_WALKABLE_AREA, 1)
	_ = RcAddSpan(ctx, hf, 0, 0, 2, 3, RC_NULL_AREA, 1)
	_ = RcAddSpan(ctx, hf, 0, 0, 4, 5, RC_NULL_AREA, 1)

	RcFilterLowHangingWalkableObstacles(ctx, 2, hf)
	col := hf.Column(0, 0)
	assertTrue(t, col[1].Area == RC_WALKABLE_AREA, "Obstacle within climb above a walkable span becomes walkable")
	assertTrue(t, col[2].Area == RC_NULL_AREA, "Walkable flag does not propagate past one obstacle")
}

func TestFilterLedgeSpans(t *testing.T) {
	ctx := newTestContext(t)
	hf, _ := RcCreateHeightfield(ctx, 3, 3, []float32{0, 0, 0}, []float32{3, 3, 3}, 1, 1)
	for z := 0; z < 3; z++ {
		for x := 0; x < 3; x++ {
			_ = RcAddSpan(ctx, hf, x, z, 0, 1, RC_WALKABLE_AREA, 1)
		}
	}
	RcFilterLedgeSpans(ctx, 3, 0, hf)
	for z := 0; z < 3; z++ {
		for x := 0; x < 3; x++ {
			area := hf.Column(x, z)[0].Area
			if x == 1 && z == 1 {
				assertTrue(t, area == RC_WALKABLE_AREA, "Span surrounded by equal neighbours stays walkable")
			} else {
				assertTrue(t, area == RC_NULL_AREA, "Span at the grid edge is a ledge")
			}
		}
	}
}

func TestFilterWalkableLowHeightSpans(t *testing.T) {
	ctx := newTestContext(t)
	hf, _ := RcCreateHeightfield(ctx, 1, 1, []float32{0, 0, 0}, []float32{1, 1, 1}, 1, 1)
	_ = RcAddSpan(ctx, hf, 0, 0, 0, 1, RC_WALKABLE_AREA, 1)
	_ = RcAddSpan(ctx, hf, 0, 0, 3, 4, RC_WALKABLE_AREA, 1)

	RcFilterWalkableLowHeightSpans(ctx, 3, hf)
	col := hf.Column(0, 0)
	assertTrue(t, col[0].Area == RC_NULL_AREA, "Span with too little clearance is unwalkable")
	assertTrue(t, col[1].Area == RC_WALKABLE_AREA, "Top span has unbounded clearance")
}

func TestBuildCompactHeightfield(t *testing.T) {
	ctx := newTestContext(t)
	chf := compactRoom(t, ctx)
	msg := "compact room"
	assertTrue(t, chf.Width() == 5 && chf.Height() == 5, msg)
	assertTrue(t, chf.SpanCount() == 25, msg)
	assertTrue(t, chf.Bmax()[1] == 8, "bmax y is raised by walkableHeight")
	for z := 0; z < 5; z++ {
		for x := 0; x < 5; x++ {
			cell := chf.Cell(x, z)
			assertTrue(t, cell.Count == 1, msg)
			s := chf.Span(int(cell.Index))
			assertTrue(t, s.Y == 1, "span starts at the top of the solid span")
			assertTrue(t, s.H == 255, "open space height is clamped")
			assertTrue(t, int(s.Y)+int(s.H) == 256, "top span ends at the cap")
			for dir := 0; dir < 4; dir++ {
				nx := x + []int{-1, 0, 1, 0}[dir]
				nz := z + []int{0, 1, 0, -1}[dir]
				inside := nx >= 0 && nz >= 0 && nx < 5 && nz < 5
				assertTrue(t, (RcGetCon(&s, dir) != RC_NOT_CONNECTED) == inside, "spans connect to in-grid neighbours only")
			}
		}
	}
}

func TestErodeWalkableArea(t *testing.T) {
	ctx := newTestContext(t)
	chf := compactRoom(t, ctx)
	before := walkableCount(chf)
	assertTrue(t, RcErodeWalkableArea(ctx, 1, chf) == nil, "erode")
	assertTrue(t, walkableCount(chf) <= before, "Erosion never adds walkable spans")
	for z := 0; z < 5; z++ {
		for x := 0; x < 5; x++ {
			interior := x >= 1 && x <= 3 && z >= 1 && z <= 3
			area := chf.Area(int(chf.Cell(x, z).Index))
			assertTrue(t, (area == RC_WALKABLE_AREA) == interior, "Radius 1 removes exactly the outer ring")
		}
	}
}

func TestMarkAreas(t *testing.T) {
	ctx := newTestContext(t)
	chf := compactRoom(t, ctx)
	spanAt := func(x, z int) int { return int(chf.Cell(x, z).Index) }

	RcMarkBoxArea(ctx, []float32{1.2, 0, 1.2}, []float32{1.8, 2, 1.8}, 7, chf)
	assertTrue(t, chf.Area(spanAt(1, 1)) == 7, "Box marks the span inside it")
	assertTrue(t, chf.Area(spanAt(2, 1)) == RC_WALKABLE_AREA, "Box leaves other spans alone")

	RcMarkCylinderArea(ctx, []float32{2.5, 0, 2.5}, 0.6, 2, 8, chf)
	assertTrue(t, chf.Area(spanAt(2, 2)) == 8, "Cylinder marks the span under its centre")
	assertTrue(t, chf.Area(spanAt(3, 2)) == RC_WALKABLE_AREA, "Cylinder leaves spans outside its radius")

	poly := []float32{
		2.9, 0, 2.9,
		2.9, 0, 4.1,
		4.1, 0, 4.1,
		4.1, 0, 2.9,
	}
	RcMarkConvexPolyArea(ctx, poly, 0, 2, 9, chf)
	assertTrue(t, chf.Area(spanAt(3, 3)) == 9, "Convex polygon marks cells whose centre is inside")
	assertTrue(t, chf.Area(spanAt(4, 4)) == RC_WALKABLE_AREA, "Convex polygon leaves cells whose centre is outside")

	chf.SetArea(spanAt(0, 0), RC_NULL_AREA)
	RcMarkBoxArea(ctx, []float32{0, 0, 0}, []float32{0.5, 2, 0.5}, 7, chf)
	assertTrue(t, chf.Area(spanAt(0, 0)) == RC_NULL_AREA, "Removed spans are never marked")
}

func TestMedianFilterWalkableArea(t *testing.T) {
	ctx := newTestContext(t)
	chf := compactRoom(t, ctx)
	center := int(chf.Cell(2, 2).Index)
	chf.SetArea(center, 5)
	assertTrue(t, RcMedianFilterWalkableArea(ctx, chf) == nil, "median filter")
	assertTrue(t, chf.Area(center) == RC_WALKABLE_AREA, "An isolated area id is replaced by the neighbourhood median")
	assertTrue(t, chf.Area(int(chf.Cell(0, 0).Index)) == RC_WALKABLE_AREA, "Corner keeps its area")
}

func TestOffsetPoly(t *testing.T) {
	square := []float32{
		0, 0, 0,
		0, 0, 1,
		1, 0, 1,
		1, 0, 0,
	}
	out := RcOffsetPoly(square, 0.1)
	assertTrue(t, len(out)%3 == 0 && len(out) >= len(square), "Offset keeps or bevels every vertex")
}

func TestBuildRegions(t *testing.T) {
	builders := map[string]func(ctx *RcContext, chf *RcCompactHeightfield) (*RcRegionHeightfield, error){
		"watershed": func(ctx *RcContext, chf *RcCompactHeightfield) (*RcRegionHeightfield, error) {
			return RcBuildRegions(ctx, chf, 0, 1, 1)
		},
		"monotone": func(ctx *RcContext, chf *RcCompactHeightfield) (*RcRegionHeightfield, error) {
			return RcBuildRegionsMonotone(ctx, chf, 0, 1, 1)
		},
		"layers": func(ctx *RcContext, chf *RcCompactHeightfield) (*RcRegionHeightfield, error) {
			return RcBuildLayerRegions(ctx, chf, 0, 1)
		},
	}
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			ctx := newTestContext(t)
			chf := erodedRoom(t, ctx)
			rhf, err := build(ctx, chf)
			assertTrue(t, err == nil, "build regions")
			if err != nil {
				return
			}
			assertTrue(t, rhf.MaxRegionID() == 2, "one interior region plus the null region")
			assertTrue(t, rhf.MaxDistance() == 2, "centre span is one step from the border")
			for z := 0; z < 5; z++ {
				for x := 0; x < 5; x++ {
					i := int(rhf.Cell(x, z).Index)
					interior := x >= 1 && x <= 3 && z >= 1 && z <= 3
					if interior {
						assertTrue(t, rhf.Region(i) == 1, "interior spans share region 1")
					} else {
						assertTrue(t, rhf.Region(i) == 0, "eroded spans have no region")
					}
				}
			}
		})
	}
}

func TestMaxRegionIDCountsSplitRoom(t *testing.T) {
	builders := map[string]func(ctx *RcContext, chf *RcCompactHeightfield) (*RcRegionHeightfield, error){
		"watershed": func(ctx *RcContext, chf *RcCompactHeightfield) (*RcRegionHeightfield, error) {
			return RcBuildRegions(ctx, chf, 0, 1, 1)
		},
		"monotone": func(ctx *RcContext, chf *RcCompactHeightfield) (*RcRegionHeightfield, error) {
			return RcBuildRegionsMonotone(ctx, chf, 0, 1, 1)
		},
	}
	for name, build := range builders {
		t.Run(name, func(t *testing.T) {
			ctx := newTestContext(t)
			chf := erodedRoom(t, ctx)
			// Cut the middle column so the interior falls apart into two strips.
			RcMarkBoxArea(ctx, []float32{2.1, 0, 0}, []float32{2.9, 5, 5}, RC_NULL_AREA, chf)
			rhf, err := build(ctx, chf)
			assertTrue(t, err == nil, "build regions")
			if err != nil {
				return
			}
			highest := 0
			for i := 0; i < rhf.SpanCount(); i++ {
				highest = max(highest, int(rhf.Region(i)))
			}
			assertTrue(t, highest == 2, "each strip gets its own region")
			assertTrue(t, rhf.MaxRegionID() == highest+1, "max region id is one past the highest id")
		})
	}
}

func TestPartitionConsumesSource(t *testing.T) {
	ctx := newTestContext(t)
	chf := erodedRoom(t, ctx)
	_, err := RcPartition(ctx, chf, RcWatershedParams{MinRegionArea: 1, MergeRegionArea: 1})
	assertTrue(t, err == nil, "partition")
	assertPanics(t, func() { chf.Width() }, "Reading a consumed heightfield panics")
	assertPanics(t, func() { chf.SetArea(0, RC_WALKABLE_AREA) }, "Editing a consumed heightfield panics")
	assertPanics(t, func() { _, _ = RcBuildRegions(ctx, chf, 0, 1, 1) }, "Partitioning twice panics")
}

func TestBuildHeightfieldLayers(t *testing.T) {
	ctx := newTestContext(t)
	chf := erodedRoom(t, ctx)
	lset, err := RcBuildHeightfieldLayers(ctx, chf, 0, roomWalkableHeight)
	assertTrue(t, err == nil, "build layers")
	if err != nil {
		return
	}
	assertTrue(t, lset.Nlayers() == 1, "a single floor gives one layer")
	layer := lset.Layers[0]
	assertTrue(t, layer.Width == 5 && layer.Height == 5, "layer covers the whole grid")
	assertTrue(t, layer.GridMinBounds() == [3]int{1, 1, 1}, "layer bounds are inset by the eroded ring")
	assertTrue(t, layer.GridMaxBounds() == [3]int{3, 1, 3}, "layer bounds are inset by the eroded ring")

	wantCons := [3][3]uint8{
		{0b0110, 0b0111, 0b0011},
		{0b1110, 0b1111, 0b1011},
		{0b1100, 0b1101, 0b1001},
	}
	for z := 0; z < 5; z++ {
		for x := 0; x < 5; x++ {
			idx := x + z*layer.Width
			if x >= 1 && x <= 3 && z >= 1 && z <= 3 {
				assertTrue(t, layer.Heights[idx] == 0, "walkable cells sit at the layer floor")
				assertTrue(t, layer.Areas[idx] == RC_WALKABLE_AREA, "walkable cells keep their area")
				assertTrue(t, layer.Cons[idx] == wantCons[z-1][x-1], "connections link interior neighbours only")
			} else {
				assertTrue(t, layer.Heights[idx] == 0xff, "cells outside the layer are unset")
				assertTrue(t, layer.Areas[idx] == RC_NULL_AREA, "cells outside the layer have no area")
			}
		}
	}
}

func buildRoomMesh(t *testing.T, ctx *RcContext, erode bool) (*RcRegionHeightfield, *RcContourSet, *RcPolyMesh) {
	t.Helper()
	chf := compactRoom(t, ctx)
	if erode {
		if err := RcErodeWalkableArea(ctx, 1, chf); err != nil {
			t.Fatalf("erode: %v", err)
		}
	}
	rhf, err := RcBuildRegions(ctx, chf, 0, 1, 1)
	if err != nil {
		t.Fatalf("regions: %v", err)
	}
	cset, err := RcBuildContours(ctx, rhf, 1.0, 10, RcDefaultContourFlags)
	if err != nil {
		t.Fatalf("contours: %v", err)
	}
	mesh, err := RcBuildPolyMesh(ctx, cset, 5)
	if err != nil {
		t.Fatalf("poly mesh: %v", err)
	}
	return rhf, cset, mesh
}

func TestBuildContours(t *testing.T) {
	ctx := newTestContext(t)
	_, cset, _ := buildRoomMesh(t, ctx, false)
	assertTrue(t, cset.Nconts() == 1, "one region gives one contour")
	assertTrue(t, cset.Bmax[1] == 8, "contour set keeps the compact bounds")
	cont := cset.Conts[0]
	assertTrue(t, cont.Reg == 1 && cont.Area == RC_WALKABLE_AREA, "contour carries region and area")
	assertTrue(t, cont.Nverts() == 4, "a square room simplifies to its corners")
	assertTrue(t, cont.Nrverts() >= cont.Nverts(), "raw contour is at least as detailed")
	for i := 0; i < cont.Nverts(); i++ {
		v := cont.Verts[i*4 : i*4+4]
		assertTrue(t, v[0] == 0 || v[0] == 5, "corner x lies on the room edge")
		assertTrue(t, v[2] == 0 || v[2] == 5, "corner z lies on the room edge")
		assertTrue(t, v[1] == 1, "corner height is the floor")
	}
}

func TestBuildPolyMesh(t *testing.T) {
	ctx := newTestContext(t)
	_, _, mesh := buildRoomMesh(t, ctx, false)
	assertTrue(t, mesh.Npolys == 1 && mesh.Nverts == 4, "single 4-vertex polygon")
	assertTrue(t, mesh.Nvp == 5, "nvp is kept")
	assertTrue(t, mesh.Bmax[1] == 8, "mesh keeps the compact bounds")
	assertTrue(t, mesh.MaxEdgeError == 1, "mesh records the contour error")

	want := [][3]uint16{{0, 1, 0}, {0, 1, 5}, {5, 1, 5}, {5, 1, 0}}
	for i, w := range want {
		v := mesh.Vert(i)
		assertTrue(t, v[0] == w[0] && v[1] == w[1] && v[2] == w[2], "room corner vertex")
	}
	poly := mesh.Poly(0)
	assertTrue(t, poly[0] == 0 && poly[1] == 1 && poly[2] == 2 && poly[3] == 3 && poly[4] == RC_MESH_NULL_IDX, "polygon walks the corners")
	for _, nei := range mesh.PolyNeighbours(0) {
		assertTrue(t, nei == RC_MESH_NULL_IDX, "lonely polygon has no neighbours")
	}
	assertTrue(t, mesh.Regs[0] == 1 && mesh.Areas[0] == RC_WALKABLE_AREA, "polygon carries region and area")

	assertPanics(t, func() { _, _ = RcBuildPolyMesh(ctx, &RcContourSet{}, 2) }, "Fewer than 3 verts per poly panics")
}

func TestPolyMeshAdjacencyIsSymmetric(t *testing.T) {
	ctx := newTestContext(t)
	// An L-shaped floor gives several regions and polygons.
	verts := []float32{
		0, 0, 0,
		0, 0, 8,
		4, 0, 8,
		4, 0, 4,
		8, 0, 4,
		8, 0, 0,
		4, 0, 0,
	}
	tris := []int{
		0, 1, 2,
		0, 2, 3,
		0, 3, 6,
		6, 3, 4,
		6, 4, 5,
	}
	areas := make([]uint8, len(tris)/3)
	RcMarkWalkableTriangles(45, verts, tris, areas)
	hf, _ := RcCreateHeightfield(ctx, 8, 8, []float32{0, -1, 0}, []float32{8, 4, 8}, 1, 1)
	assertTrue(t, RcRasterizeIndexedTriangles(ctx, verts, tris, areas, hf, 1) == nil, "rasterize")
	chf, err := RcBuildCompactHeightfield(ctx, 2, 1, hf)
	assertTrue(t, err == nil, "compact")
	rhf, err := RcBuildRegionsMonotone(ctx, chf, 0, 1, 1)
	assertTrue(t, err == nil, "regions")
	cset, err := RcBuildContours(ctx, rhf, 1.3, 12, RcDefaultContourFlags)
	assertTrue(t, err == nil, "contours")
	mesh, err := RcBuildPolyMesh(ctx, cset, 6)
	assertTrue(t, err == nil, "poly mesh")
	if err != nil {
		return
	}
	assertTrue(t, mesh.Npolys > 0, "L-shape produces polygons")

	for i := 0; i < mesh.Npolys; i++ {
		pv := mesh.PolyVerts(i)
		neis := mesh.PolyNeighbours(i)
		for k := range pv {
			nei := neis[k]
			if nei == RC_MESH_NULL_IDX || nei&RC_PORTAL_FLAG != 0 {
				continue
			}
			found := false
			for _, back := range mesh.PolyNeighbours(int(nei)) {
				if int(back) == i {
					found = true
				}
			}
			assertTrue(t, found, "neighbour lists the polygon back across the shared edge")
		}
	}
}

func TestBuildPolyMeshDetail(t *testing.T) {
	ctx := newTestContext(t)
	rhf, _, mesh := buildRoomMesh(t, ctx, false)
	dmesh, err := RcBuildPolyMeshDetail(ctx, mesh, rhf, 1.0, 0.1)
	assertTrue(t, err == nil, "detail mesh")
	if err != nil {
		return
	}
	assertTrue(t, dmesh.Nmeshes() == 1, "one sub-mesh per polygon")
	vbase, vcount, tbase, tcount := dmesh.SubMesh(0)
	assertTrue(t, vbase == 0 && vcount == 4, "a flat square needs no extra samples")
	assertTrue(t, tbase == 0 && tcount == 2, "a square is two triangles")
	for i := 0; i < dmesh.Nverts(); i++ {
		assertTrue(t, dmesh.Verts[i*3+1] == 2, "detail vertices sit on the floor surface")
	}

	wantTris := [][3]uint8{{3, 0, 2}, {0, 1, 2}}
	wantFlags := [][3]bool{{true, false, true}, {true, true, false}}
	boundary := 0
	for tri := 0; tri < tcount; tri++ {
		tv := dmesh.Tri(tbase + tri)
		assertTrue(t, tv[0] == wantTris[tri][0] && tv[1] == wantTris[tri][1] && tv[2] == wantTris[tri][2], "hull triangulation")
		flags := dmesh.TriEdgeFlags(tbase + tri)
		assertTrue(t, flags == wantFlags[tri], "boundary edge flags")
		for _, f := range flags {
			if f {
				boundary++
			}
		}
	}
	assertTrue(t, boundary == 4, "boundary flags cover the four square edges once")
}

func TestMergeMeshes(t *testing.T) {
	ctx := newTestContext(t)
	rhf, _, mesh := buildRoomMesh(t, ctx, false)

	copied := RcCopyPolyMesh(mesh)
	assertTrue(t, copied.Npolys == mesh.Npolys && copied.Nverts == mesh.Nverts, "copy keeps counts")
	copied.Verts[0] = 42
	assertTrue(t, mesh.Verts[0] != 42, "copy does not alias the source")

	merged, err := RcMergePolyMeshes(ctx, []*RcPolyMesh{mesh, mesh})
	assertTrue(t, err == nil, "merge poly meshes")
	if err == nil {
		assertTrue(t, merged.Npolys == 2, "merged mesh has every polygon")
		assertTrue(t, merged.Nverts == 4, "coincident vertices are welded")
	}

	other := RcCopyPolyMesh(mesh)
	other.Nvp = 6
	_, err = RcMergePolyMeshes(ctx, []*RcPolyMesh{mesh, other})
	assertTrue(t, errors.Is(err, ErrMerge), "meshes with different nvp do not merge")
	_, err = RcMergePolyMeshes(ctx, nil)
	assertTrue(t, errors.Is(err, ErrMerge), "nothing to merge")

	dmesh, err := RcBuildPolyMeshDetail(ctx, mesh, rhf, 1.0, 0.1)
	assertTrue(t, err == nil, "detail mesh")
	if err != nil {
		return
	}
	dmerged := RcMergePolyMeshDetails(ctx, []*RcPolyMeshDetail{dmesh, nil, dmesh})
	assertTrue(t, dmerged.Nmeshes() == 2, "merged detail has both sub-meshes")
	assertTrue(t, dmerged.Nverts() == 2*dmesh.Nverts(), "merged detail has every vertex")
	vbase, _, tbase, _ := dmerged.SubMesh(1)
	assertTrue(t, vbase == dmesh.Nverts() && tbase == dmesh.Ntris(), "second sub-mesh is rebased")
}

func TestBuildFlatRoom(t *testing.T) {
	ctx := newTestContext(t)
	rhf, cset, mesh := buildRoomMesh(t, ctx, true)
	assertTrue(t, cset.Nconts() == 1, "eroded room has one contour")
	assertTrue(t, mesh.Npolys == 1 && mesh.Nverts == 4, "eroded room is a single 4-vertex polygon")
	for i := 0; i < mesh.Nverts; i++ {
		v := mesh.Vert(i)
		assertTrue(t, v[0] == 1 || v[0] == 4, "polygon x spans the walkable interior")
		assertTrue(t, v[2] == 1 || v[2] == 4, "polygon z spans the walkable interior")
	}
	dmesh, err := RcBuildPolyMeshDetail(ctx, mesh, rhf, 1.0, 0.1)
	assertTrue(t, err == nil, "detail mesh")
	if err == nil {
		_, _, _, tcount := dmesh.SubMesh(0)
		assertTrue(t, tcount == 2, "flat interior is two detail triangles")
	}
	ctx.LogBuildTimes()
	assertTrue(t, ctx.AccumulatedTime(RC_TIMER_BUILD_POLYMESHDETAIL) >= 0, "timers accumulate")
}

func TestContextToggles(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := NewRcContext(zap.New(core))

	ctx.Log(RC_LOG_WARNING, "rcTest: %d", 1)
	assertTrue(t, logs.Len() == 1, "enabled context logs")
	ctx.EnableLog(false)
	ctx.Log(RC_LOG_ERROR, "rcTest: %d", 2)
	assertTrue(t, logs.Len() == 1, "disabled context drops messages")
	ctx.EnableLog(true)

	assertTrue(t, ctx.AccumulatedTime(RC_TIMER_TEMP) < 0, "unused timer reports -1")
	stop := ctx.ScopedTimer(RC_TIMER_TEMP)
	stop()
	assertTrue(t, ctx.AccumulatedTime(RC_TIMER_TEMP) >= 0, "stopped timer accumulates")
	ctx.LogBuildTimes()

	ctx.EnableTimer(false)
	assertTrue(t, ctx.AccumulatedTime(RC_TIMER_TEMP) < 0, "disabled timers report -1")

	var nilCtx *RcContext
	nilCtx.Log(RC_LOG_ERROR, "ignored")
	nilCtx.StartTimer(RC_TIMER_TOTAL)
	assertTrue(t, nilCtx.AccumulatedTime(RC_TIMER_TOTAL) < 0, "nil context is inert")
}
