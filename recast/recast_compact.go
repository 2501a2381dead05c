package recast

import "github.com/gorustyt/recastgo/common"

const (
	/// The value returned by #RcGetCon if the specified direction is not connected
	/// to another span. (Has no neighbor.)
	RC_NOT_CONNECTED = 0x3f

	// Highest neighbour layer index a connection can encode.
	rcMaxLayers = RC_NOT_CONNECTED - 1
)

// / Provides information on the content of a cell column in a compact heightfield.
type RcCompactCell struct {
	Index uint32 ///< Index to the first span in the column.
	Count uint8  ///< Number of spans in the column.
}

// / Represents a span of unobstructed space within a compact heightfield.
type RcCompactSpan struct {
	Y   uint16 ///< The lower extent of the span. (Measured from the heightfield's base.)
	reg uint16 // region id, zero when not in a region.
	con uint32 // packed neighbor connection data, 6 bits per direction.
	H   uint8  ///< The height of the span.  (Measured from #Y.)
}

// / Gets neighbor connection data for the specified direction.
// / @param[in]		span		The span to check.
// / @param[in]		direction	The direction to check. [Limits: 0 <= value < 4]
// / @return The neighbor connection data for the specified direction,
// / or #RC_NOT_CONNECTED if there is no connection.
func RcGetCon(span *RcCompactSpan, direction int) int {
	shift := uint(direction * 6)
	return int((span.con >> shift) & 0x3f)
}

// / Sets the neighbor connection data for the specified direction.
// / @param[in]		span			The span to update.
// / @param[in]		direction		The direction to set. [Limits: 0 <= value < 4]
// / @param[in]		neighborIndex	The index of the neighbor span.
func rcSetCon(span *RcCompactSpan, direction, neighborIndex int) {
	shift := uint(direction * 6)
	con := span.con
	span.con = (con &^ (0x3f << shift)) | ((uint32(neighborIndex) & 0x3f) << shift)
}

// compactData is the storage shared by both compact heightfield states.
// Ownership moves from RcCompactHeightfield to RcRegionHeightfield when
// regions are built; the source is left without data.
type compactData struct {
	width          int
	height         int
	spanCount      int
	walkableHeight int
	walkableClimb  int
	borderSize     int
	maxDistance    uint16
	maxRegions     uint16
	bmin           [3]float32
	bmax           [3]float32
	cs             float32
	ch             float32
	cells          []RcCompactCell
	spans          []RcCompactSpan
	dist           []uint16
	areas          []uint8
}

func (d *compactData) mustLive() *compactData {
	if d == nil {
		panic("recast: compact heightfield consumed")
	}
	return d
}

// Width is the number of cells along the x-axis.
func (d *compactData) Width() int { return d.mustLive().width }

// Height is the number of cells along the z-axis.
func (d *compactData) Height() int { return d.mustLive().height }

func (d *compactData) SpanCount() int      { return d.mustLive().spanCount }
func (d *compactData) WalkableHeight() int { return d.mustLive().walkableHeight }
func (d *compactData) WalkableClimb() int  { return d.mustLive().walkableClimb }
func (d *compactData) Bmin() [3]float32    { return d.mustLive().bmin }
func (d *compactData) Bmax() [3]float32    { return d.mustLive().bmax }
func (d *compactData) Cs() float32         { return d.mustLive().cs }
func (d *compactData) Ch() float32         { return d.mustLive().ch }

// Cell returns the column at (x, z).
func (d *compactData) Cell(x, z int) RcCompactCell {
	d.mustLive()
	common.AssertTruef(x >= 0 && z >= 0 && x < d.width && z < d.height, "cell (%d,%d) out of range", x, z)
	return d.cells[x+z*d.width]
}

// Span returns span i.
func (d *compactData) Span(i int) RcCompactSpan { return d.mustLive().spans[i] }

// Area returns the area id of span i.
func (d *compactData) Area(i int) uint8 { return d.mustLive().areas[i] }

// Dist returns the border distance of span i, or zero when no distance
// field has been built.
func (d *compactData) Dist(i int) uint16 {
	d.mustLive()
	if d.dist == nil {
		return 0
	}
	return d.dist[i]
}

// ColumnSpans returns the indices of the spans in column (x, z).
func (d *compactData) ColumnSpans(x, z int) (begin, end int) {
	c := d.Cell(x, z)
	return int(c.Index), int(c.Index) + int(c.Count)
}

// / A compact, static heightfield representing unobstructed space, before
// / regions have been assigned. Area ids may still be edited.
// / @ingroup recast
type RcCompactHeightfield struct {
	*compactData
}

// SetArea overrides the area id of span i.
func (chf *RcCompactHeightfield) SetArea(i int, area uint8) {
	chf.compactData.mustLive().areas[i] = area
}

func (chf *RcCompactHeightfield) compact() *compactData { return chf.compactData.mustLive() }

// / A compact heightfield partitioned into regions. Area ids are frozen.
// / @ingroup recast
type RcRegionHeightfield struct {
	*compactData
}

// BorderSize is the AABB border size used while building regions.
func (rhf *RcRegionHeightfield) BorderSize() int { return rhf.mustLive().borderSize }

// MaxDistance is the largest border distance of any span.
func (rhf *RcRegionHeightfield) MaxDistance() int { return int(rhf.mustLive().maxDistance) }

// MaxRegionID is one past the highest region id of any span.
func (rhf *RcRegionHeightfield) MaxRegionID() int { return int(rhf.mustLive().maxRegions) }

// Region returns the region id of span i.
func (rhf *RcRegionHeightfield) Region(i int) uint16 { return rhf.mustLive().spans[i].reg }

func (rhf *RcRegionHeightfield) compact() *compactData { return rhf.compactData.mustLive() }

// RcCompactView is satisfied by both compact heightfield states, for
// operations that only read spans and areas.
type RcCompactView interface {
	compact() *compactData
}

// take moves the data out of chf.
func (chf *RcCompactHeightfield) take() *compactData {
	d := chf.compactData.mustLive()
	chf.compactData = nil
	return d
}

// / Builds a compact heightfield representing open space, from a heightfield representing solid space.
// /
// / This is just the beginning of the process of fully building a compact heightfield.
// / Various filters may be applied, then the distance field and regions built.
// / E.g: #RcBuildDistanceField and #RcBuildRegions
// /
// / @param[in]		ctx				The build context to use during the operation.
// / @param[in]		walkableHeight	Minimum floor to 'ceiling' height that will still allow the floor area
// / 								to be considered walkable. [Limit: >= 3] [Units: vx]
// / @param[in]		walkableClimb	Maximum ledge height that is considered to still be traversable.
// / 								[Limit: >=0] [Units: vx]
// / @param[in]		heightfield		The heightfield to be compacted.
func RcBuildCompactHeightfield(ctx *RcContext, walkableHeight, walkableClimb int,
	heightfield *RcHeightfield) (*RcCompactHeightfield, error) {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_COMPACTHEIGHTFIELD)()

	xSize := heightfield.Width
	zSize := heightfield.Height
	spanCount := rcGetHeightFieldSpanCount(heightfield)
	if spanCount > 1<<24 {
		return nil, stageError(ctx, ErrCompact, "rcBuildCompactHeightfield: Too many spans (%d)", spanCount)
	}

	// Fill in header.
	d := &compactData{
		width:          xSize,
		height:         zSize,
		spanCount:      spanCount,
		walkableHeight: walkableHeight,
		walkableClimb:  walkableClimb,
		bmin:           heightfield.Bmin,
		bmax:           heightfield.Bmax,
		cs:             heightfield.Cs,
		ch:             heightfield.Ch,
		cells:          make([]RcCompactCell, xSize*zSize),
		spans:          make([]RcCompactSpan, spanCount),
		areas:          make([]uint8, spanCount),
	}
	d.bmax[1] += float32(walkableHeight) * heightfield.Ch

	// Fill in cells and spans.
	currentCellIndex := 0
	numColumns := xSize * zSize
	for columnIndex := 0; columnIndex < numColumns; columnIndex++ {
		s := heightfield.columns[columnIndex]

		// If there are no spans at this cell, just leave the data to index=0, count=0.
		if s == rcNullSpan {
			continue
		}

		cell := &d.cells[columnIndex]
		cell.Index = uint32(currentCellIndex)
		cell.Count = 0

		for ; s != rcNullSpan; s = heightfield.pool[s].next {
			span := &heightfield.pool[s]
			if span.Area == RC_NULL_AREA {
				continue
			}
			bot := int(span.Smax)
			top := rcSpanTopHeight
			if span.next != rcNullSpan {
				top = int(heightfield.pool[span.next].Smin)
			}
			d.spans[currentCellIndex].Y = uint16(common.Clamp(bot, 0, 0xffff))
			d.spans[currentCellIndex].H = uint8(common.Clamp(top-bot, 0, 0xff))
			d.areas[currentCellIndex] = span.Area
			currentCellIndex++
			cell.Count++
		}
	}

	// Find neighbour connections.
	maxLayerIndex := 0
	zStride := xSize // for readability
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := d.cells[x+z*zStride]
			for i := int(cell.Index); i < int(cell.Index)+int(cell.Count); i++ {
				span := &d.spans[i]

				for dir := 0; dir < 4; dir++ {
					rcSetCon(span, dir, RC_NOT_CONNECTED)
					neighborX := x + common.GetDirOffsetX(dir)
					neighborZ := z + common.GetDirOffsetY(dir)
					// First check that the neighbour cell is in bounds.
					if neighborX < 0 || neighborZ < 0 || neighborX >= xSize || neighborZ >= zSize {
						continue
					}

					// Iterate over all neighbour spans and check if any of the is
					// accessible from current cell.
					neighborCell := d.cells[neighborX+neighborZ*zStride]
					for k := int(neighborCell.Index); k < int(neighborCell.Index)+int(neighborCell.Count); k++ {
						neighborSpan := &d.spans[k]
						bot := max(int(span.Y), int(neighborSpan.Y))
						top := min(int(span.Y)+int(span.H), int(neighborSpan.Y)+int(neighborSpan.H))

						// Check that the gap between the spans is walkable,
						// and that the climb height between the gaps is not too high.
						if (top-bot) >= walkableHeight && common.Abs(int(neighborSpan.Y)-int(span.Y)) <= walkableClimb {
							// Mark direction as walkable.
							layerIndex := k - int(neighborCell.Index)
							if layerIndex < 0 || layerIndex > rcMaxLayers {
								maxLayerIndex = max(maxLayerIndex, layerIndex)
								continue
							}
							rcSetCon(span, dir, layerIndex)
							break
						}
					}
				}
			}
		}
	}

	if maxLayerIndex > rcMaxLayers {
		ctx.Log(RC_LOG_ERROR, "rcBuildCompactHeightfield: Heightfield has too many layers %d (max: %d)", maxLayerIndex, rcMaxLayers)
	}

	return &RcCompactHeightfield{compactData: d}, nil
}

// neighbour returns the cell and span index that s connects to in dir.
// The connection must exist.
func (d *compactData) neighbour(x, z, dir int, s *RcCompactSpan) (nx, nz, ni int) {
	nx = x + common.GetDirOffsetX(dir)
	nz = z + common.GetDirOffsetY(dir)
	ni = int(d.cells[nx+nz*d.width].Index) + RcGetCon(s, dir)
	return
}
