package recast

import "math"

const (
	/// Defines the number of bits allocated to RcSpan::Smin and RcSpan::Smax.
	RC_SPAN_HEIGHT_BITS = 13
	/// Defines the maximum value for RcSpan::Smin and RcSpan::Smax.
	RC_SPAN_MAX_HEIGHT = (1 << RC_SPAN_HEIGHT_BITS) - 1
	/// The maximum number of spans a single heightfield may hold.
	RC_SPAN_MAX_COUNT = math.MaxInt32

	// Column gap top used by filters and compaction for the open space above
	// the highest span.
	rcSpanTopHeight = 0xffff

	rcNullSpan int32 = -1
)

// / Represents a span in a heightfield.
// / @see RcHeightfield
type RcSpan struct {
	Smin uint16 ///< The lower limit of the span. [Limit: < #Smax]
	Smax uint16 ///< The upper limit of the span. [Limit: <= #RC_SPAN_MAX_HEIGHT]
	Area uint8  ///< The area id assigned to the span.
	next int32  // arena index of the next span higher up in the column.
}

// / A dynamic heightfield representing obstructed space.
// / @ingroup recast
// /
// / Spans live in an arena owned by the heightfield; columns link them by
// / index in increasing height order.
type RcHeightfield struct {
	Width  int        ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height int        ///< The height of the heightfield. (Along the z-axis in cell units.)
	Bmin   [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax   [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs     float32    ///< The size of each cell. (On the xz-plane.)
	Ch     float32    ///< The height of each cell. (The minimum increment along the y-axis.)

	columns  []int32  // first span of each column (width*height), rcNullSpan when empty.
	pool     []RcSpan // span arena.
	freelist int32
	maxSpans int
}

// / Initializes a new heightfield.
// / @param[in]		ctx			The build context to use during the operation.
// / @param[in]		sizeX		The width of the field along the x-axis. [Limit: >= 0] [Units: vx]
// / @param[in]		sizeZ		The height of the field along the z-axis. [Limit: >= 0] [Units: vx]
// / @param[in]		minBounds	The minimum bounds of the field's AABB. [(x, y, z)] [Units: wu]
// / @param[in]		maxBounds	The maximum bounds of the field's AABB. [(x, y, z)] [Units: wu]
// / @param[in]		cellSize	The xz-plane cell size to use for the field. [Limit: > 0] [Units: wu]
// / @param[in]		cellHeight	The y-axis cell size to use for field. [Limit: > 0] [Units: wu]
func RcCreateHeightfield(ctx *RcContext, sizeX, sizeZ int,
	minBounds, maxBounds []float32,
	cellSize, cellHeight float32) (*RcHeightfield, error) {
	if sizeX < 0 || sizeZ < 0 || cellSize <= 0 || cellHeight <= 0 {
		return nil, stageError(ctx, ErrRasterize, "rcCreateHeightfield: invalid grid %dx%d cs=%f ch=%f", sizeX, sizeZ, cellSize, cellHeight)
	}
	hf := &RcHeightfield{
		Width:    sizeX,
		Height:   sizeZ,
		Cs:       cellSize,
		Ch:       cellHeight,
		columns:  make([]int32, sizeX*sizeZ),
		freelist: rcNullSpan,
		maxSpans: RC_SPAN_MAX_COUNT,
	}
	copy(hf.Bmin[:], minBounds)
	copy(hf.Bmax[:], maxBounds)
	for i := range hf.columns {
		hf.columns[i] = rcNullSpan
	}
	return hf, nil
}

// RcNewHeightfieldFromBounds creates a heightfield whose grid covers the
// bounds with cellSize columns.
func RcNewHeightfieldFromBounds(ctx *RcContext, minBounds, maxBounds []float32, cellSize, cellHeight float32) (*RcHeightfield, error) {
	w, h := RcCalcGridSize(minBounds, maxBounds, cellSize)
	return RcCreateHeightfield(ctx, w, h, minBounds, maxBounds, cellSize, cellHeight)
}

// Column returns a copy of the spans of column (x, z) from bottom to top.
func (hf *RcHeightfield) Column(x, z int) []RcSpan {
	var res []RcSpan
	for s := hf.columns[x+z*hf.Width]; s != rcNullSpan; s = hf.pool[s].next {
		span := hf.pool[s]
		span.next = rcNullSpan
		res = append(res, span)
	}
	return res
}

// SpanCount returns the number of live spans.
func (hf *RcHeightfield) SpanCount() int {
	n := 0
	for _, head := range hf.columns {
		for s := head; s != rcNullSpan; s = hf.pool[s].next {
			n++
		}
	}
	return n
}

// / Returns the number of spans contained in the specified heightfield whose
// / area is not #RC_NULL_AREA.
func rcGetHeightFieldSpanCount(hf *RcHeightfield) int {
	spanCount := 0
	for _, head := range hf.columns {
		for s := head; s != rcNullSpan; s = hf.pool[s].next {
			if hf.pool[s].Area != RC_NULL_AREA {
				spanCount++
			}
		}
	}
	return spanCount
}

// / Allocates a new span in the heightfield.
// / Re-uses freed spans before growing the arena.
// /
// / @returns The arena index of the span, or rcNullSpan when the arena is full.
func allocSpan(hf *RcHeightfield) int32 {
	if hf.freelist != rcNullSpan {
		s := hf.freelist
		hf.freelist = hf.pool[s].next
		return s
	}
	if len(hf.pool) >= hf.maxSpans {
		return rcNullSpan
	}
	hf.pool = append(hf.pool, RcSpan{next: rcNullSpan})
	return int32(len(hf.pool) - 1)
}

// / Releases the span back to the heightfield, so it can be re-used for new spans.
func freeSpan(hf *RcHeightfield, s int32) {
	if s == rcNullSpan {
		return
	}
	// Add the span to the front of the free list.
	hf.pool[s] = RcSpan{next: hf.freelist}
	hf.freelist = s
}
