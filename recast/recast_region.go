package recast

import (
	"slices"

	"github.com/gorustyt/recastgo/common"
)

const (
	/// Heightfield border flag.
	/// If a heightfield region ID has this bit set, then the region is a border
	/// region and its spans are considered un-walkable.
	/// (Used during the region and contour build process.)
	/// @see RcRegionHeightfield::Region
	RC_BORDER_REG = 0x8000

	RC_NULL_NEI = 0xffff
)

// RcPartitionParams selects the region partitioning algorithm and carries
// its settings. Implemented by RcWatershedParams, RcMonotoneParams and
// RcLayerRegionParams.
type RcPartitionParams interface {
	partition(ctx *RcContext, chf *compactData) error
}

// RcWatershedParams partitions with the classic watershed algorithm.
// Produces the nicest tessellation but is the slowest, and may create
// holes and overlaps in narrow corridors.
type RcWatershedParams struct {
	BorderSize      int ///< The size of the non-navigable border around the heightfield. [Limit: >=0] [Units: vx]
	MinRegionArea   int ///< The minimum number of cells allowed to form isolated island areas. [Limit: >=0] [Units: vx]
	MergeRegionArea int ///< Any regions with a span count smaller than this value will, if possible, be merged with larger regions. [Limit: >=0] [Units: vx]
}

// RcMonotoneParams partitions with monotone row sweeps. Fastest, never
// produces holes or overlaps, but can create long thin polygons.
type RcMonotoneParams struct {
	BorderSize      int
	MinRegionArea   int
	MergeRegionArea int
}

// RcLayerRegionParams partitions into non-overlapping 2D layers, suited
// to tiled meshes with small tiles.
type RcLayerRegionParams struct {
	BorderSize    int
	MinRegionArea int
}

func (p RcWatershedParams) partition(ctx *RcContext, chf *compactData) error {
	return buildRegionsWatershed(ctx, chf, p.BorderSize, p.MinRegionArea, p.MergeRegionArea)
}

func (p RcMonotoneParams) partition(ctx *RcContext, chf *compactData) error {
	return buildRegionsMonotone(ctx, chf, p.BorderSize, p.MinRegionArea, p.MergeRegionArea)
}

func (p RcLayerRegionParams) partition(ctx *RcContext, chf *compactData) error {
	return buildLayerRegions(ctx, chf, p.BorderSize, p.MinRegionArea)
}

// RcPartition builds the distance field and then the regions of chf with
// the algorithm selected by params.
//
// chf is consumed whatever the outcome: its data moves into the returned
// RcRegionHeightfield and any later use of chf panics.
func RcPartition(ctx *RcContext, chf *RcCompactHeightfield, params RcPartitionParams) (*RcRegionHeightfield, error) {
	common.AssertTrue(params != nil, "nil partition params")
	d := chf.take()

	if err := buildDistanceField(ctx, d); err != nil {
		return nil, err
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS)
	err := params.partition(ctx, d)
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS)
	if err != nil {
		return nil, err
	}
	return &RcRegionHeightfield{compactData: d}, nil
}

// / Builds region data for the heightfield using watershed partitioning.
// /
// / Non-null regions will consist of connected, non-overlapping walkable spans that form a single contour.
// / Contours will form simple polygons.
// /
// / If multiple regions form an area that is smaller than @p minRegionArea, then all spans will be
// / re-assigned to the zero (null) region.
// /
// / Watershed partitioning can result in smaller than necessary regions, especially in diagonal corridors.
// / @p mergeRegionArea helps reduce unnecessarily small regions.
// /
// / @param[in]		ctx				The build context to use during the operation.
// / @param[in,out]	chf				A populated compact heightfield. Consumed.
// / @param[in]		borderSize		The size of the non-navigable border around the heightfield.
// / 								[Limit: >=0] [Units: vx]
// / @param[in]		minRegionArea	The minimum number of cells allowed to form isolated island areas.
// / 								[Limit: >=0] [Units: vx].
// / @param[in]		mergeRegionArea		Any regions with a span count smaller than this value will, if possible,
// / 								be merged with larger regions. [Limit: >=0] [Units: vx]
func RcBuildRegions(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) (*RcRegionHeightfield, error) {
	return RcPartition(ctx, chf, RcWatershedParams{BorderSize: borderSize, MinRegionArea: minRegionArea, MergeRegionArea: mergeRegionArea})
}

// / Builds region data for the heightfield using simple monotone partitioning.
// / @see RcBuildRegions
func RcBuildRegionsMonotone(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) (*RcRegionHeightfield, error) {
	return RcPartition(ctx, chf, RcMonotoneParams{BorderSize: borderSize, MinRegionArea: minRegionArea, MergeRegionArea: mergeRegionArea})
}

// / Builds region data for the heightfield by partitioning the heightfield in non-overlapping layers.
// / @see RcBuildRegions
func RcBuildLayerRegions(ctx *RcContext, chf *RcCompactHeightfield, borderSize, minRegionArea int) (*RcRegionHeightfield, error) {
	return RcPartition(ctx, chf, RcLayerRegionParams{BorderSize: borderSize, MinRegionArea: minRegionArea})
}

// / Builds the distance field for the specified compact heightfield.
// /
// / Region builders run this themselves; calling it directly is only useful
// / for inspecting distances with Dist.
func RcBuildDistanceField(ctx *RcContext, chf *RcCompactHeightfield) error {
	return buildDistanceField(ctx, chf.compact())
}

func buildDistanceField(ctx *RcContext, chf *compactData) error {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_DISTANCEFIELD)()

	src := make([]uint16, chf.spanCount)
	dst := make([]uint16, chf.spanCount)

	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)
	chf.maxDistance = calculateDistanceField(chf, src)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_DIST)

	// Blur
	ctx.StartTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)
	chf.dist = boxBlur(chf, 1, src, dst)
	ctx.StopTimer(RC_TIMER_BUILD_DISTANCEFIELD_BLUR)
	return nil
}

func calculateDistanceField(chf *compactData, src []uint16) (maxDist uint16) {
	w := chf.width
	h := chf.height

	// Init distance and points.
	for i := range src {
		src[i] = 0xffff
	}

	// Mark boundary cells.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				s := &chf.spans[i]
				area := chf.areas[i]

				nc := 0
				for dir := 0; dir < 4; dir++ {
					if RcGetCon(s, dir) != RC_NOT_CONNECTED {
						_, _, ai := chf.neighbour(x, y, dir, s)
						if area == chf.areas[ai] {
							nc++
						}
					}
				}
				if nc != 4 {
					src[i] = 0
				}
			}
		}
	}

	relax := func(i, from, cost int) {
		if int(src[from])+cost < int(src[i]) {
			src[i] = uint16(int(src[from]) + cost)
		}
	}

	// Pass 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				s := &chf.spans[i]

				if RcGetCon(s, 0) != RC_NOT_CONNECTED {
					// (-1,0)
					ax, ay, ai := chf.neighbour(x, y, 0, s)
					relax(i, ai, 2)

					// (-1,-1)
					as := &chf.spans[ai]
					if RcGetCon(as, 3) != RC_NOT_CONNECTED {
						_, _, aai := chf.neighbour(ax, ay, 3, as)
						relax(i, aai, 3)
					}
				}
				if RcGetCon(s, 3) != RC_NOT_CONNECTED {
					// (0,-1)
					ax, ay, ai := chf.neighbour(x, y, 3, s)
					relax(i, ai, 2)

					// (1,-1)
					as := &chf.spans[ai]
					if RcGetCon(as, 2) != RC_NOT_CONNECTED {
						_, _, aai := chf.neighbour(ax, ay, 2, as)
						relax(i, aai, 3)
					}
				}
			}
		}
	}

	// Pass 2
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				s := &chf.spans[i]

				if RcGetCon(s, 2) != RC_NOT_CONNECTED {
					// (1,0)
					ax, ay, ai := chf.neighbour(x, y, 2, s)
					relax(i, ai, 2)

					// (1,1)
					as := &chf.spans[ai]
					if RcGetCon(as, 1) != RC_NOT_CONNECTED {
						_, _, aai := chf.neighbour(ax, ay, 1, as)
						relax(i, aai, 3)
					}
				}
				if RcGetCon(s, 1) != RC_NOT_CONNECTED {
					// (0,1)
					ax, ay, ai := chf.neighbour(x, y, 1, s)
					relax(i, ai, 2)

					// (-1,1)
					as := &chf.spans[ai]
					if RcGetCon(as, 0) != RC_NOT_CONNECTED {
						_, _, aai := chf.neighbour(ax, ay, 0, as)
						relax(i, aai, 3)
					}
				}
			}
		}
	}

	for i := range src {
		maxDist = max(src[i], maxDist)
	}
	return maxDist
}

func boxBlur(chf *compactData, thr int, src, dst []uint16) []uint16 {
	w := chf.width
	h := chf.height

	thr *= 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				s := &chf.spans[i]
				cd := int(src[i])
				if cd <= thr {
					dst[i] = uint16(cd)
					continue
				}

				d := cd
				for dir := 0; dir < 4; dir++ {
					if RcGetCon(s, dir) != RC_NOT_CONNECTED {
						ax, ay, ai := chf.neighbour(x, y, dir, s)
						d += int(src[ai])

						as := &chf.spans[ai]
						dir2 := (dir + 1) & 0x3
						if RcGetCon(as, dir2) != RC_NOT_CONNECTED {
							_, _, ai2 := chf.neighbour(ax, ay, dir2, as)
							d += int(src[ai2])
						} else {
							d += cd
						}
					} else {
						d += cd * 2
					}
				}
				dst[i] = uint16((d + 5) / 9)
			}
		}
	}
	return dst
}

type levelStackEntry struct {
	x     int
	y     int
	index int
}

func floodRegion(x, y, i int, level, r uint16,
	chf *compactData, srcReg, srcDist []uint16, stack *Stack[levelStackEntry]) bool {
	area := chf.areas[i]

	// Flood fill mark region.
	stack.Clear()
	stack.Push(levelStackEntry{x, y, i})
	srcReg[i] = r
	srcDist[i] = 0

	var lev uint16
	if level >= 2 {
		lev = level - 2
	}
	count := 0

	for !stack.Empty() {
		back := stack.Pop()
		cx, cy, ci := back.x, back.y, back.index

		cs := &chf.spans[ci]

		// Check if any of the neighbours already have a valid region set.
		var ar uint16
		for dir := 0; dir < 4; dir++ {
			// 8 connected
			if RcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax, ay, ai := chf.neighbour(cx, cy, dir, cs)
			if chf.areas[ai] != area {
				continue
			}
			nr := srcReg[ai]
			if nr&RC_BORDER_REG != 0 { // Do not take borders into account.
				continue
			}
			if nr != 0 && nr != r {
				ar = nr
				break
			}

			as := &chf.spans[ai]
			dir2 := (dir + 1) & 0x3
			if RcGetCon(as, dir2) != RC_NOT_CONNECTED {
				_, _, ai2 := chf.neighbour(ax, ay, dir2, as)
				if chf.areas[ai2] != area {
					continue
				}
				nr2 := srcReg[ai2]
				if nr2 != 0 && nr2 != r {
					ar = nr2
					break
				}
			}
		}
		if ar != 0 {
			srcReg[ci] = 0
			continue
		}

		count++

		// Expand neighbours.
		for dir := 0; dir < 4; dir++ {
			if RcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax, ay, ai := chf.neighbour(cx, cy, dir, cs)
			if chf.areas[ai] != area {
				continue
			}
			if chf.dist[ai] >= lev && srcReg[ai] == 0 {
				srcReg[ai] = r
				srcDist[ai] = 0
				stack.Push(levelStackEntry{ax, ay, ai})
			}
		}
	}

	return count > 0
}

// Struct to keep track of entries in the region table that have been changed.
type dirtyEntry struct {
	index     int
	region    uint16
	distance2 uint16
}

func expandRegions(maxIter int, level uint16,
	chf *compactData,
	srcReg, srcDist []uint16,
	stack *Stack[levelStackEntry],
	fillStack bool) {
	w := chf.width
	h := chf.height

	if fillStack {
		// Find cells revealed by the raised level.
		stack.Clear()
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := chf.cells[x+y*w]
				for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
					if chf.dist[i] >= level && srcReg[i] == 0 && chf.areas[i] != RC_NULL_AREA {
						stack.Push(levelStackEntry{x, y, i})
					}
				}
			}
		}
	} else { // use cells in the input stack
		// mark all cells which already have a region
		for j := 0; j < stack.Len(); j++ {
			e := stack.At(j)
			if e.index >= 0 && srcReg[e.index] != 0 {
				e.index = -1
			}
		}
	}

	dirtyEntries := NewStack[dirtyEntry](256)
	iter := 0
	for stack.Len() > 0 {
		failed := 0
		dirtyEntries.Clear()

		for j := 0; j < stack.Len(); j++ {
			e := stack.At(j)
			x, y, i := e.x, e.y, e.index
			if i < 0 {
				failed++
				continue
			}

			r := srcReg[i]
			d2 := 0xffff
			area := chf.areas[i]
			s := &chf.spans[i]
			for dir := 0; dir < 4; dir++ {
				if RcGetCon(s, dir) == RC_NOT_CONNECTED {
					continue
				}
				_, _, ai := chf.neighbour(x, y, dir, s)
				if chf.areas[ai] != area {
					continue
				}
				if srcReg[ai] > 0 && (srcReg[ai]&RC_BORDER_REG) == 0 {
					if int(srcDist[ai])+2 < d2 {
						r = srcReg[ai]
						d2 = int(srcDist[ai]) + 2
					}
				}
			}
			if r != 0 {
				e.index = -1 // mark as used
				dirtyEntries.Push(dirtyEntry{i, r, uint16(d2)})
			} else {
				failed++
			}
		}

		// Copy entries that differ between src and dst to keep them in sync.
		for _, de := range dirtyEntries.Data() {
			srcReg[de.index] = de.region
			srcDist[de.index] = de.distance2
		}

		if failed == stack.Len() {
			break
		}

		if level > 0 {
			iter++
			if iter >= maxIter {
				break
			}
		}
	}
}

func sortCellsByLevel(startLevel uint16,
	chf *compactData,
	srcReg []uint16,
	stacks []*Stack[levelStackEntry],
	loglevelsPerStack uint) { // the levels per stack (2 in our case) as a bit shift
	w := chf.width
	h := chf.height
	start := int(startLevel >> loglevelsPerStack)

	for _, s := range stacks {
		s.Clear()
	}

	// put all cells in the level range into the appropriate stacks
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				if chf.areas[i] == RC_NULL_AREA || srcReg[i] != 0 {
					continue
				}

				level := int(chf.dist[i] >> loglevelsPerStack)
				sId := start - level
				if sId >= len(stacks) {
					continue
				}
				if sId < 0 {
					sId = 0
				}
				stacks[sId].Push(levelStackEntry{x, y, i})
			}
		}
	}
}

func appendStacks(srcStack, dstStack *Stack[levelStackEntry], srcReg []uint16) {
	for _, e := range srcStack.Data() {
		if e.index < 0 || srcReg[e.index] != 0 {
			continue
		}
		dstStack.Push(e)
	}
}

type rcRegion struct {
	spanCount        int    // Number of spans belonging to this region
	id               uint16 // ID of the region
	areaType         uint8  // Are type.
	remap            bool
	visited          bool
	overlap          bool
	connectsToBorder bool
	ymin, ymax       uint16
	connections      []int
	floors           []int
}

func newRegions(nreg int) []*rcRegion {
	regions := make([]*rcRegion, nreg)
	for i := range regions {
		regions[i] = &rcRegion{id: uint16(i), ymin: 0xffff}
	}
	return regions
}

func removeAdjacentNeighbours(reg *rcRegion) {
	// Remove adjacent duplicates.
	for i := 0; i < len(reg.connections) && len(reg.connections) > 1; {
		ni := (i + 1) % len(reg.connections)
		if reg.connections[i] == reg.connections[ni] {
			reg.connections = slices.Delete(reg.connections, i, i+1)
		} else {
			i++
		}
	}
}

func replaceNeighbour(reg *rcRegion, oldId, newId uint16) {
	neiChanged := false
	for i := range reg.connections {
		if reg.connections[i] == int(oldId) {
			reg.connections[i] = int(newId)
			neiChanged = true
		}
	}
	for i := range reg.floors {
		if reg.floors[i] == int(oldId) {
			reg.floors[i] = int(newId)
		}
	}
	if neiChanged {
		removeAdjacentNeighbours(reg)
	}
}

func canMergeWithRegion(rega, regb *rcRegion) bool {
	if rega.areaType != regb.areaType {
		return false
	}
	n := 0
	for _, c := range rega.connections {
		if c == int(regb.id) {
			n++
		}
	}
	if n > 1 {
		return false
	}
	return !slices.Contains(rega.floors, int(regb.id))
}

func addUniqueFloorRegion(reg *rcRegion, n int) {
	if !slices.Contains(reg.floors, n) {
		reg.floors = append(reg.floors, n)
	}
}

func addUniqueConnection(reg *rcRegion, n int) {
	if !slices.Contains(reg.connections, n) {
		reg.connections = append(reg.connections, n)
	}
}

func mergeRegions(rega, regb *rcRegion) bool {
	aid := int(rega.id)
	bid := int(regb.id)

	// Duplicate current neighbourhood.
	acon := slices.Clone(rega.connections)
	bcon := regb.connections

	// Find insertion point on A.
	insa := slices.Index(acon, bid)
	if insa == -1 {
		return false
	}

	// Find insertion point on B.
	insb := slices.Index(bcon, aid)
	if insb == -1 {
		return false
	}

	// Merge neighbours.
	rega.connections = rega.connections[:0]
	for i, ni := 0, len(acon); i < ni-1; i++ {
		rega.connections = append(rega.connections, acon[(insa+1+i)%ni])
	}
	for i, ni := 0, len(bcon); i < ni-1; i++ {
		rega.connections = append(rega.connections, bcon[(insb+1+i)%ni])
	}

	removeAdjacentNeighbours(rega)

	for _, f := range regb.floors {
		addUniqueFloorRegion(rega, f)
	}
	rega.spanCount += regb.spanCount
	regb.spanCount = 0
	regb.connections = nil

	return true
}

func isRegionConnectedToBorder(reg *rcRegion) bool {
	// Region is connected to border if
	// one of the neighbours is null id.
	return slices.Contains(reg.connections, 0)
}

func isSolidEdge(chf *compactData, srcReg []uint16, x, y, i, dir int) bool {
	s := &chf.spans[i]
	var r uint16
	if RcGetCon(s, dir) != RC_NOT_CONNECTED {
		_, _, ai := chf.neighbour(x, y, dir, s)
		r = srcReg[ai]
	}
	return r != srcReg[i]
}

func regionWalkContour(x, y, i, dir int, chf *compactData, srcReg []uint16) []int {
	startDir := dir
	starti := i

	ss := &chf.spans[i]
	var curReg uint16
	if RcGetCon(ss, dir) != RC_NOT_CONNECTED {
		_, _, ai := chf.neighbour(x, y, dir, ss)
		curReg = srcReg[ai]
	}
	cont := []int{int(curReg)}

	for iter := 1; iter < 40000; iter++ {
		s := &chf.spans[i]

		if isSolidEdge(chf, srcReg, x, y, i, dir) {
			// Choose the edge corner
			var r uint16
			if RcGetCon(s, dir) != RC_NOT_CONNECTED {
				_, _, ai := chf.neighbour(x, y, dir, s)
				r = srcReg[ai]
			}
			if r != curReg {
				curReg = r
				cont = append(cont, int(curReg))
			}
			dir = (dir + 1) & 0x3 // Rotate CW
		} else {
			if RcGetCon(s, dir) == RC_NOT_CONNECTED {
				// Should not happen.
				return cont
			}
			x, y, i = chf.neighbour(x, y, dir, s)
			dir = (dir + 3) & 0x3 // Rotate CCW
		}

		if starti == i && startDir == dir {
			break
		}
	}

	// Remove adjacent duplicates.
	if len(cont) > 1 {
		for j := 0; j < len(cont); {
			nj := (j + 1) % len(cont)
			if cont[j] == cont[nj] {
				cont = slices.Delete(cont, j, j+1)
			} else {
				j++
			}
		}
	}
	return cont
}

// compressRegionIds renumbers the surviving non-border regions 1..n and
// remaps srcReg. Returns n.
func compressRegionIds(regions []*rcRegion, chf *compactData, srcReg []uint16) uint16 {
	nreg := len(regions)
	for _, reg := range regions {
		reg.remap = false
		if reg.id == 0 { // Skip nil regions.
			continue
		}
		if reg.id&RC_BORDER_REG != 0 { // Skip external regions.
			continue
		}
		reg.remap = true
	}

	var regIdGen uint16
	for i := 0; i < nreg; i++ {
		if !regions[i].remap {
			continue
		}
		oldId := regions[i].id
		regIdGen++
		newId := regIdGen
		for j := i; j < nreg; j++ {
			if regions[j].id == oldId {
				regions[j].id = newId
				regions[j].remap = false
			}
		}
	}

	// Remap regions.
	for i := 0; i < chf.spanCount; i++ {
		if srcReg[i]&RC_BORDER_REG == 0 {
			srcReg[i] = regions[srcReg[i]].id
		}
	}
	return regIdGen
}

func mergeAndFilterRegions(ctx *RcContext, minRegionArea, mergeRegionSize int,
	maxRegionId uint16,
	chf *compactData,
	srcReg []uint16) (newMaxRegionId uint16, overlaps []uint16) {
	w := chf.width
	h := chf.height

	nreg := int(maxRegionId) + 1
	regions := newRegions(nreg)

	// Find edge of a region and find connections around the contour.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+y*w]
			ni := int(c.Index) + int(c.Count)
			for i := int(c.Index); i < ni; i++ {
				r := srcReg[i]
				if r == 0 || int(r) >= nreg {
					continue
				}

				reg := regions[r]
				reg.spanCount++

				// Update floors.
				for j := int(c.Index); j < ni; j++ {
					if i == j {
						continue
					}
					floorId := srcReg[j]
					if floorId == 0 || int(floorId) >= nreg {
						continue
					}
					if floorId == r {
						reg.overlap = true
					}
					addUniqueFloorRegion(reg, int(floorId))
				}

				// Have found contour
				if len(reg.connections) > 0 {
					continue
				}

				reg.areaType = chf.areas[i]

				// Check if this cell is next to a border.
				ndir := -1
				for dir := 0; dir < 4; dir++ {
					if isSolidEdge(chf, srcReg, x, y, i, dir) {
						ndir = dir
						break
					}
				}

				if ndir != -1 {
					// The cell is at border.
					// Walk around the contour to find all the neighbours.
					reg.connections = regionWalkContour(x, y, i, ndir, chf, srcReg)
				}
			}
		}
	}

	// Remove too small regions.
	stack := NewStack[int](32)
	trace := NewStack[int](32)
	for i := 0; i < nreg; i++ {
		reg := regions[i]
		if reg.id == 0 || reg.id&RC_BORDER_REG != 0 {
			continue
		}
		if reg.spanCount == 0 {
			continue
		}
		if reg.visited {
			continue
		}

		// Count the total size of all the connected regions.
		// Also keep track of the regions connects to a tile border.
		connectsToBorder := false
		spanCount := 0
		stack.Clear()
		trace.Clear()

		reg.visited = true
		stack.Push(i)

		for !stack.Empty() {
			// Pop
			ri := stack.Pop()
			creg := regions[ri]

			spanCount += creg.spanCount
			trace.Push(ri)

			for _, con := range creg.connections {
				if con&RC_BORDER_REG != 0 {
					connectsToBorder = true
					continue
				}
				neireg := regions[con]
				if neireg.visited {
					continue
				}
				if neireg.id == 0 || neireg.id&RC_BORDER_REG != 0 {
					continue
				}
				// Visit
				stack.Push(int(neireg.id))
				neireg.visited = true
			}
		}

		// If the accumulated regions size is too small, remove it.
		// Do not remove areas which connect to tile borders
		// as their size cannot be estimated correctly and removing them
		// can potentially remove necessary areas.
		if spanCount < minRegionArea && !connectsToBorder {
			// Kill all visited regions.
			for _, t := range trace.Data() {
				regions[t].spanCount = 0
				regions[t].id = 0
			}
		}
	}

	// Merge too small regions to neighbour regions.
	for {
		mergeCount := 0
		for i := 0; i < nreg; i++ {
			reg := regions[i]
			if reg.id == 0 || reg.id&RC_BORDER_REG != 0 {
				continue
			}
			if reg.overlap {
				continue
			}
			if reg.spanCount == 0 {
				continue
			}

			// Check to see if the region should be merged.
			if reg.spanCount > mergeRegionSize && isRegionConnectedToBorder(reg) {
				continue
			}

			// Small region with more than 1 connection.
			// Or region which is not connected to a border at all.
			// Find smallest neighbour region that connects to this one.
			smallest := 0xfffffff
			mergeId := reg.id
			for _, con := range reg.connections {
				if con&RC_BORDER_REG != 0 {
					continue
				}
				mreg := regions[con]
				if mreg.id == 0 || mreg.id&RC_BORDER_REG != 0 || mreg.overlap {
					continue
				}
				if mreg.spanCount < smallest &&
					canMergeWithRegion(reg, mreg) &&
					canMergeWithRegion(mreg, reg) {
					smallest = mreg.spanCount
					mergeId = mreg.id
				}
			}
			// Found new id.
			if mergeId != reg.id {
				oldId := reg.id
				target := regions[mergeId]

				// Merge neighbours.
				if mergeRegions(target, reg) {
					// Fixup regions pointing to current region.
					for _, other := range regions {
						if other.id == 0 || other.id&RC_BORDER_REG != 0 {
							continue
						}
						// If another region was already merged into current region
						// change the nid of the previous region too.
						if other.id == oldId {
							other.id = mergeId
						}
						// Replace the current region with the new one if the
						// current regions is neighbour.
						replaceNeighbour(other, oldId, mergeId)
					}
					mergeCount++
				}
			}
		}
		if mergeCount == 0 {
			break
		}
	}

	newMaxRegionId = compressRegionIds(regions, chf, srcReg)

	// Return regions that we found to be overlapping.
	for _, reg := range regions {
		if reg.overlap {
			overlaps = append(overlaps, reg.id)
		}
	}
	return newMaxRegionId, overlaps
}

func mergeAndFilterLayerRegions(minRegionArea int, maxRegionId uint16, chf *compactData, srcReg []uint16) uint16 {
	w := chf.width
	h := chf.height

	nreg := int(maxRegionId) + 1
	regions := newRegions(nreg)

	// Find region neighbours and overlapping regions.
	lregs := NewStack[int](32)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+y*w]

			lregs.Clear()
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				s := &chf.spans[i]
				ri := srcReg[i]
				if ri == 0 || int(ri) >= nreg {
					continue
				}
				reg := regions[ri]

				reg.spanCount++
				reg.areaType = chf.areas[i]
				reg.ymin = min(reg.ymin, s.Y)
				reg.ymax = max(reg.ymax, s.Y)

				// Collect all region layers.
				lregs.Push(int(ri))

				// Update neighbours
				for dir := 0; dir < 4; dir++ {
					if RcGetCon(s, dir) == RC_NOT_CONNECTED {
						continue
					}
					_, _, ai := chf.neighbour(x, y, dir, s)
					rai := srcReg[ai]
					if rai > 0 && int(rai) < nreg && rai != ri {
						addUniqueConnection(reg, int(rai))
					}
					if rai&RC_BORDER_REG != 0 {
						reg.connectsToBorder = true
					}
				}
			}

			// Update overlapping regions.
			for i := 0; i < lregs.Len()-1; i++ {
				for j := i + 1; j < lregs.Len(); j++ {
					if lregs.Index(i) != lregs.Index(j) {
						ri := regions[lregs.Index(i)]
						rj := regions[lregs.Index(j)]
						addUniqueFloorRegion(ri, lregs.Index(j))
						addUniqueFloorRegion(rj, lregs.Index(i))
					}
				}
			}
		}
	}

	// Create 2D layers from regions.
	var layerId uint16 = 1

	for _, reg := range regions {
		reg.id = 0
	}

	// Merge montone regions to create non-overlapping areas.
	queue := make([]int, 0, 32)
	for i := 1; i < nreg; i++ {
		root := regions[i]
		// Skip already visited.
		if root.id != 0 {
			continue
		}

		// Start search.
		root.id = layerId

		queue = append(queue[:0], i)
		for len(queue) > 0 {
			// Pop front
			reg := regions[queue[0]]
			queue = queue[1:]

			for _, nei := range reg.connections {
				regn := regions[nei]
				// Skip already visited.
				if regn.id != 0 {
					continue
				}
				// Skip if different area type, do not connect regions with different area type.
				if reg.areaType != regn.areaType {
					continue
				}
				// Skip if the neighbour is overlapping root region.
				if slices.Contains(root.floors, nei) {
					continue
				}

				// Deepen
				queue = append(queue, nei)

				// Mark layer id
				regn.id = layerId
				// Merge current layers to root.
				for _, f := range regn.floors {
					addUniqueFloorRegion(root, f)
				}
				root.ymin = min(root.ymin, regn.ymin)
				root.ymax = max(root.ymax, regn.ymax)
				root.spanCount += regn.spanCount
				regn.spanCount = 0
				root.connectsToBorder = root.connectsToBorder || regn.connectsToBorder
			}
		}

		layerId++
	}

	// Remove small regions
	for i := 0; i < nreg; i++ {
		if regions[i].spanCount > 0 && regions[i].spanCount < minRegionArea && !regions[i].connectsToBorder {
			reg := regions[i].id
			for j := 0; j < nreg; j++ {
				if regions[j].id == reg {
					regions[j].id = 0
				}
			}
		}
	}

	return compressRegionIds(regions, chf, srcReg)
}

func paintRectRegion(minx, maxx, miny, maxy int, regId uint16, chf *compactData, srcReg []uint16) {
	w := chf.width
	for y := miny; y < maxy; y++ {
		for x := minx; x < maxx; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				if chf.areas[i] != RC_NULL_AREA {
					srcReg[i] = regId
				}
			}
		}
	}
}

// paintBorderRegions marks the four border strips with their own border
// region ids and returns the next free id.
func paintBorderRegions(chf *compactData, borderSize int, id uint16, srcReg []uint16) uint16 {
	if borderSize <= 0 {
		return id
	}
	w := chf.width
	h := chf.height
	// Make sure border will not overflow.
	bw := min(w, borderSize)
	bh := min(h, borderSize)

	// Paint regions
	paintRectRegion(0, bw, 0, h, id|RC_BORDER_REG, chf, srcReg)
	id++
	paintRectRegion(w-bw, w, 0, h, id|RC_BORDER_REG, chf, srcReg)
	id++
	paintRectRegion(0, w, 0, bh, id|RC_BORDER_REG, chf, srcReg)
	id++
	paintRectRegion(0, w, h-bh, h, id|RC_BORDER_REG, chf, srcReg)
	id++
	return id
}

// storeRegions writes srcReg to the spans. regionCount already includes the
// null region, so it is one past the highest id in use.
func storeRegions(chf *compactData, srcReg []uint16, regionCount uint16) {
	for i := 0; i < chf.spanCount; i++ {
		chf.spans[i].reg = srcReg[i]
	}
	chf.maxRegions = regionCount
}

type rcSweepSpan struct {
	rid uint16 // row id
	id  uint16 // region id
	ns  int    // number samples
	nei uint16 // neighbour id
}

// sweepRows runs the monotone row sweep shared by the monotone and layer
// partitioners and returns the next free region id.
func sweepRows(ctx *RcContext, chf *compactData, borderSize int, id uint16, srcReg []uint16) (uint16, error) {
	w := chf.width
	h := chf.height

	sweeps := make([]rcSweepSpan, max(w, h)+1)
	prev := NewStackArray[int](256)

	// Sweep one line at a time.
	for y := borderSize; y < h-borderSize; y++ {
		// Collect spans from this row.
		prev.Resize(int(id) + 1)
		clear(prev.Data()[:id])
		var rid uint16 = 1

		for x := borderSize; x < w-borderSize; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				s := &chf.spans[i]
				if chf.areas[i] == RC_NULL_AREA {
					continue
				}

				// -x
				var previd uint16
				if RcGetCon(s, 0) != RC_NOT_CONNECTED {
					_, _, ai := chf.neighbour(x, y, 0, s)
					if srcReg[ai]&RC_BORDER_REG == 0 && chf.areas[i] == chf.areas[ai] {
						previd = srcReg[ai]
					}
				}

				if previd == 0 {
					previd = rid
					rid++
					if int(previd) >= len(sweeps) {
						sweeps = append(sweeps, make([]rcSweepSpan, len(sweeps))...)
					}
					sweeps[previd] = rcSweepSpan{rid: previd}
				}

				// -y
				if RcGetCon(s, 3) != RC_NOT_CONNECTED {
					_, _, ai := chf.neighbour(x, y, 3, s)
					if srcReg[ai] != 0 && srcReg[ai]&RC_BORDER_REG == 0 && chf.areas[i] == chf.areas[ai] {
						nr := srcReg[ai]
						if sweeps[previd].nei == 0 || sweeps[previd].nei == nr {
							sweeps[previd].nei = nr
							sweeps[previd].ns++
							*prev.At(int(nr)) += 1
						} else {
							sweeps[previd].nei = RC_NULL_NEI
						}
					}
				}

				srcReg[i] = previd
			}
		}

		// Create unique ID.
		for i := uint16(1); i < rid; i++ {
			if sweeps[i].nei != RC_NULL_NEI && sweeps[i].nei != 0 && prev.Index(int(sweeps[i].nei)) == sweeps[i].ns {
				sweeps[i].id = sweeps[i].nei
			} else {
				if id >= RC_BORDER_REG-1 {
					return 0, stageError(ctx, ErrRegions, "rcBuildRegionsMonotone: Region ID overflow")
				}
				sweeps[i].id = id
				id++
			}
		}

		// Remap IDs
		for x := borderSize; x < w-borderSize; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				if srcReg[i] > 0 && srcReg[i] < rid {
					srcReg[i] = sweeps[srcReg[i]].id
				}
			}
		}
	}
	return id, nil
}

func buildRegionsMonotone(ctx *RcContext, chf *compactData, borderSize, minRegionArea, mergeRegionArea int) error {
	srcReg := make([]uint16, chf.spanCount)

	id := paintBorderRegions(chf, borderSize, 1, srcReg)
	chf.borderSize = borderSize

	id, err := sweepRows(ctx, chf, borderSize, id, srcReg)
	if err != nil {
		return err
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge regions and filter out small regions.
	// Monotone partitioning does not generate overlapping regions.
	regionCount, _ := mergeAndFilterRegions(ctx, minRegionArea, mergeRegionArea, id, chf, srcReg)
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Store the result out.
	storeRegions(chf, srcReg, regionCount)
	return nil
}

func buildRegionsWatershed(ctx *RcContext, chf *compactData, borderSize, minRegionArea, mergeRegionArea int) error {
	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)

	const logNbStacks = 3
	const nbStacks = 1 << logNbStacks
	lvlStacks := make([]*Stack[levelStackEntry], nbStacks)
	for i := range lvlStacks {
		lvlStacks[i] = NewStack[levelStackEntry](256)
	}
	stack := NewStack[levelStackEntry](256)

	srcReg := make([]uint16, chf.spanCount)
	srcDist := make([]uint16, chf.spanCount)

	regionId := paintBorderRegions(chf, borderSize, 1, srcReg)
	chf.borderSize = borderSize

	level := (chf.maxDistance + 1) &^ 1

	// TODO: Figure better formula, expandIters defines how much the
	// watershed "overflows" and simplifies the regions. Tying it to
	// agent radius was usually good indication how greedy it could be.
	//	const int expandIters = 4 + walkableRadius * 2;
	const expandIters = 8

	sId := -1
	for level > 0 {
		if level >= 2 {
			level -= 2
		} else {
			level = 0
		}
		sId = (sId + 1) & (nbStacks - 1)

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_EXPAND)
		if sId == 0 {
			sortCellsByLevel(level, chf, srcReg, lvlStacks, 1)
		} else {
			appendStacks(lvlStacks[sId-1], lvlStacks[sId], srcReg) // copy left overs from last level
		}

		// Expand current regions until no empty connected cells found.
		expandRegions(expandIters, level, chf, srcReg, srcDist, lvlStacks[sId], false)
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_EXPAND)

		ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
		// Mark new regions with IDs.
		for _, current := range lvlStacks[sId].Data() {
			if current.index >= 0 && srcReg[current.index] == 0 {
				if floodRegion(current.x, current.y, current.index, level, regionId, chf, srcReg, srcDist, stack) {
					if regionId >= RC_BORDER_REG-1 {
						ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
						ctx.StopTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)
						return stageError(ctx, ErrRegions, "rcBuildRegions: Region ID overflow")
					}
					regionId++
				}
			}
		}
		ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FLOOD)
	}

	// Expand current regions until no empty connected cells found.
	expandRegions(expandIters*8, 0, chf, srcReg, srcDist, stack, true)

	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_WATERSHED)

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge regions and filter out small regions.
	regionCount, overlaps := mergeAndFilterRegions(ctx, minRegionArea, mergeRegionArea, regionId, chf, srcReg)

	// If overlapping regions were found during merging, split those regions.
	if len(overlaps) > 0 {
		ctx.Log(RC_LOG_ERROR, "rcBuildRegions: %d overlapping regions.", len(overlaps))
	}
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Write the result out.
	storeRegions(chf, srcReg, regionCount)
	return nil
}

func buildLayerRegions(ctx *RcContext, chf *compactData, borderSize, minRegionArea int) error {
	srcReg := make([]uint16, chf.spanCount)

	id := paintBorderRegions(chf, borderSize, 1, srcReg)
	chf.borderSize = borderSize

	id, err := sweepRows(ctx, chf, borderSize, id, srcReg)
	if err != nil {
		return err
	}

	ctx.StartTimer(RC_TIMER_BUILD_REGIONS_FILTER)
	// Merge monotone regions to layers and remove small regions.
	regionCount := mergeAndFilterLayerRegions(minRegionArea, id, chf, srcReg)
	ctx.StopTimer(RC_TIMER_BUILD_REGIONS_FILTER)

	// Store the result out.
	storeRegions(chf, srcReg, regionCount)
	return nil
}
