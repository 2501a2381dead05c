package recast

import (
	"math"

	"github.com/gorustyt/recastgo/common"
)

type rcAxis int

const (
	RC_AXIS_X rcAxis = 0
	RC_AXIS_Y rcAxis = 1
	RC_AXIS_Z rcAxis = 2
)

// / Adds a span to the heightfield.  If the new span overlaps existing spans,
// / it will merge the new span with the existing ones.
// /
// / @param[in]	hf					Heightfield to add spans to
// / @param[in]	x					The new span's column cell x index
// / @param[in]	z					The new span's column cell z index
// / @param[in]	spanMin				The new span's minimum cell index
// / @param[in]	spanMax				The new span's maximum cell index
// / @param[in]	areaID				The new span's area type ID
// / @param[in]	flagMergeThreshold	How close two spans maximum extents need to be to merge area type IDs
func addSpan(hf *RcHeightfield, x, z int, spanMin, spanMax uint16, areaID uint8, flagMergeThreshold int) bool {
	// Create the new span.
	newIndex := allocSpan(hf)
	if newIndex == rcNullSpan {
		return false
	}
	newSpan := RcSpan{Smin: spanMin, Smax: spanMax, Area: areaID, next: rcNullSpan}

	columnIndex := x + z*hf.Width
	previous := rcNullSpan
	current := hf.columns[columnIndex]

	// Insert the new span, possibly merging it with existing spans.
	for current != rcNullSpan {
		cur := &hf.pool[current]
		if cur.Smin > newSpan.Smax {
			// Current span is completely after the new span, break.
			break
		}

		if cur.Smax < newSpan.Smin {
			// Current span is completely before the new span.  Keep going.
			previous = current
			current = cur.next
			continue
		}

		// The new span overlaps with an existing span.  Merge them.
		if cur.Smin < newSpan.Smin {
			newSpan.Smin = cur.Smin
		}
		if cur.Smax > newSpan.Smax {
			newSpan.Smax = cur.Smax
		}

		// Merge flags.
		if common.Abs(int(newSpan.Smax)-int(cur.Smax)) <= flagMergeThreshold {
			// Higher area ID numbers indicate higher resolution priority.
			newSpan.Area = max(newSpan.Area, cur.Area)
		}

		// Remove the current span since it's now merged with newSpan.
		// Keep going because there might be other overlapping spans that also need to be merged.
		next := cur.next
		freeSpan(hf, current)
		if previous != rcNullSpan {
			hf.pool[previous].next = next
		} else {
			hf.columns[columnIndex] = next
		}
		current = next
	}

	// Insert new span after prev
	if previous != rcNullSpan {
		newSpan.next = hf.pool[previous].next
		hf.pool[previous].next = newIndex
	} else {
		// This span should go before the others in the list
		newSpan.next = hf.columns[columnIndex]
		hf.columns[columnIndex] = newIndex
	}
	hf.pool[newIndex] = newSpan
	return true
}

// / Adds a span to the specified heightfield.
// /
// / The span addition can be set to favor flags. If the span is merged to
// / another span and the new @p spanMax is within @p flagMergeThreshold units
// / from the existing span, the span flags are merged.
// /
// / @param[in]		ctx					The build context to use during the operation.
// / @param[in,out]	hf					An initialized heightfield.
// / @param[in]		x					The column x index where the span is to be added. [Limits: 0 <= value < RcHeightfield::Width]
// / @param[in]		z					The column z index where the span is to be added. [Limits: 0 <= value < RcHeightfield::Height]
// / @param[in]		spanMin				The minimum height of the span. [Limit: < @p spanMax] [Units: vx]
// / @param[in]		spanMax				The maximum height of the span. [Limit: <= #RC_SPAN_MAX_HEIGHT] [Units: vx]
// / @param[in]		areaID				The area id of the span. [Limit: <= #RC_WALKABLE_AREA)
// / @param[in]		flagMergeThreshold	The merge threshold. [Limit: >= 0] [Units: vx]
func RcAddSpan(ctx *RcContext, hf *RcHeightfield, x, z int, spanMin, spanMax uint16, areaID uint8, flagMergeThreshold int) error {
	common.AssertTruef(x >= 0 && x < hf.Width && z >= 0 && z < hf.Height, "rcAddSpan: column (%d, %d) outside %dx%d", x, z, hf.Width, hf.Height)
	if !addSpan(hf, x, z, spanMin, spanMax, areaID, flagMergeThreshold) {
		return stageError(ctx, ErrRasterize, "rcAddSpan: Out of memory.")
	}
	return nil
}

// / Divides a convex polygon of max 12 vertices into two convex polygons
// / across a separating axis.
// /
// / @param[in]	inVerts			The input polygon vertices
// / @param[in]	inVertsCount	The number of input polygon vertices
// / @param[out]	outVerts1		Resulting polygon 1's vertices
// / @param[out]	outVerts2		Resulting polygon 2's vertices
// / @param[in]	axisOffset		THe offset along the specified axis
// / @param[in]	axis			The separating axis
// / @returns the vertex counts of polygon 1 and polygon 2
func dividePoly(inVerts []float32, inVertsCount int,
	outVerts1, outVerts2 []float32,
	axisOffset float32, axis rcAxis) (outVerts1Count, outVerts2Count int) {
	common.AssertTrue(inVertsCount <= 12)

	// How far positive or negative away from the separating axis is each vertex.
	var inVertAxisDelta [12]float32
	for inVert := 0; inVert < inVertsCount; inVert++ {
		inVertAxisDelta[inVert] = axisOffset - inVerts[inVert*3+int(axis)]
	}

	poly1Vert := 0
	poly2Vert := 0
	for inVertA, inVertB := 0, inVertsCount-1; inVertA < inVertsCount; inVertB, inVertA = inVertA, inVertA+1 {
		// If the two vertices are on the same side of the separating axis
		sameSide := (inVertAxisDelta[inVertA] >= 0) == (inVertAxisDelta[inVertB] >= 0)

		if !sameSide {
			s := inVertAxisDelta[inVertB] / (inVertAxisDelta[inVertB] - inVertAxisDelta[inVertA])
			out := common.GetVert3(outVerts1, poly1Vert)
			common.Vlerp(out, common.GetVert3(inVerts, inVertB), common.GetVert3(inVerts, inVertA), s)
			copy(common.GetVert3(outVerts2, poly2Vert), out)
			poly1Vert++
			poly2Vert++

			// add the inVertA point to the right polygon. Do NOT add points that are on the dividing line
			// since these were already added above
			if inVertAxisDelta[inVertA] > 0 {
				copy(common.GetVert3(outVerts1, poly1Vert), common.GetVert3(inVerts, inVertA))
				poly1Vert++
			} else if inVertAxisDelta[inVertA] < 0 {
				copy(common.GetVert3(outVerts2, poly2Vert), common.GetVert3(inVerts, inVertA))
				poly2Vert++
			}
			continue
		}

		// add the inVertA point to the right polygon. Addition is done even for points on the dividing line
		if inVertAxisDelta[inVertA] >= 0 {
			copy(common.GetVert3(outVerts1, poly1Vert), common.GetVert3(inVerts, inVertA))
			poly1Vert++
			if inVertAxisDelta[inVertA] != 0 {
				continue
			}
		}
		copy(common.GetVert3(outVerts2, poly2Vert), common.GetVert3(inVerts, inVertA))
		poly2Vert++
	}
	return poly1Vert, poly2Vert
}

// /	Rasterize a single triangle to the heightfield.
// /
// /	This code is extremely hot, so much care should be given to maintaining maximum perf here.
// /
// / @param[in] 	v0					Triangle vertex 0
// / @param[in] 	v1					Triangle vertex 1
// / @param[in] 	v2					Triangle vertex 2
// / @param[in] 	areaID				The area ID to assign to the rasterized spans
// / @param[in] 	hf					Heightfield to rasterize into
// / @param[in] 	inverseCellSize		1 / cellSize
// / @param[in] 	inverseCellHeight	1 / cellHeight
// / @param[in] 	flagMergeThreshold	The threshold in which area flags will be merged
// / @param[in] 	buf					Scratch space for clipping, at least 7*3*4 floats
// / @returns true if the operation completes successfully.  false if there was an error adding spans to the heightfield.
func rasterizeTri(v0, v1, v2 []float32,
	areaID uint8, hf *RcHeightfield,
	inverseCellSize, inverseCellHeight float32,
	flagMergeThreshold int, buf []float32) bool {
	heightfieldBBMin := hf.Bmin[:]
	heightfieldBBMax := hf.Bmax[:]
	cellSize := hf.Cs

	// Calculate the bounding box of the triangle.
	var triBBMin, triBBMax [3]float32
	copy(triBBMin[:], v0)
	common.Vmin(triBBMin[:], v1)
	common.Vmin(triBBMin[:], v2)
	copy(triBBMax[:], v0)
	common.Vmax(triBBMax[:], v1)
	common.Vmax(triBBMax[:], v2)

	// If the triangle does not touch the bounding box of the heightfield, skip the triangle.
	if !common.OverlapBounds(triBBMin[:], triBBMax[:], heightfieldBBMin, heightfieldBBMax) {
		return true
	}

	w := hf.Width
	h := hf.Height
	by := heightfieldBBMax[1] - heightfieldBBMin[1]

	// Calculate the footprint of the triangle on the grid's z-axis
	z0 := int((triBBMin[2] - heightfieldBBMin[2]) * inverseCellSize)
	z1 := int((triBBMax[2] - heightfieldBBMin[2]) * inverseCellSize)

	// use -1 rather than 0 to cut the polygon properly at the start of the tile
	z0 = common.Clamp(z0, -1, h-1)
	z1 = common.Clamp(z1, 0, h-1)

	// Clip the triangle into all grid cells it touches.
	in := buf[0 : 7*3]
	inRow := buf[7*3 : 7*3*2]
	p1 := buf[7*3*2 : 7*3*3]
	p2 := buf[7*3*3 : 7*3*4]

	copy(in[0:], v0)
	copy(in[3:], v1)
	copy(in[6:], v2)
	nvIn := 3

	for z := z0; z <= z1; z++ {
		// Clip polygon to row. Store the remaining polygon as well
		cellZ := heightfieldBBMin[2] + float32(z)*cellSize
		var nvRow int
		nvRow, nvIn = dividePoly(in, nvIn, inRow, p1, cellZ+cellSize, RC_AXIS_Z)
		in, p1 = p1, in

		if nvRow < 3 {
			continue
		}
		if z < 0 {
			continue
		}

		// find X-axis bounds of the row
		minX := inRow[0]
		maxX := inRow[0]
		for vert := 1; vert < nvRow; vert++ {
			minX = min(minX, inRow[vert*3])
			maxX = max(maxX, inRow[vert*3])
		}
		x0 := int((minX - heightfieldBBMin[0]) * inverseCellSize)
		x1 := int((maxX - heightfieldBBMin[0]) * inverseCellSize)
		if x1 < 0 || x0 >= w {
			continue
		}
		x0 = common.Clamp(x0, -1, w-1)
		x1 = common.Clamp(x1, 0, w-1)

		nv2 := nvRow
		for x := x0; x <= x1; x++ {
			// Clip polygon to column. store the remaining polygon as well
			cx := heightfieldBBMin[0] + float32(x)*cellSize
			var nv int
			nv, nv2 = dividePoly(inRow, nv2, p1, p2, cx+cellSize, RC_AXIS_X)
			inRow, p2 = p2, inRow

			if nv < 3 {
				continue
			}
			if x < 0 {
				continue
			}

			// Calculate min and max of the span.
			spanMin := p1[1]
			spanMax := p1[1]
			for vert := 1; vert < nv; vert++ {
				spanMin = min(spanMin, p1[vert*3+1])
				spanMax = max(spanMax, p1[vert*3+1])
			}
			spanMin -= heightfieldBBMin[1]
			spanMax -= heightfieldBBMin[1]

			// Skip the span if it's completely outside the heightfield bounding box
			if spanMax < 0.0 {
				continue
			}
			if spanMin > by {
				continue
			}

			// Clamp the span to the heightfield bounding box.
			if spanMin < 0.0 {
				spanMin = 0
			}
			if spanMax > by {
				spanMax = by
			}

			// Snap the span to the heightfield height grid.
			spanMinCellIndex := common.Clamp(int(math.Floor(float64(spanMin*inverseCellHeight))), 0, RC_SPAN_MAX_HEIGHT)
			spanMaxCellIndex := common.Clamp(int(math.Ceil(float64(spanMax*inverseCellHeight))), spanMinCellIndex+1, RC_SPAN_MAX_HEIGHT)

			if !addSpan(hf, x, z, uint16(spanMinCellIndex), uint16(spanMaxCellIndex), areaID, flagMergeThreshold) {
				return false
			}
		}
	}

	return true
}

func newClipBuffer() []float32 {
	return make([]float32, 7*3*4)
}

// / Rasterizes a single triangle into the specified heightfield.
// /
// / Calling this for each triangle in a mesh is less efficient than calling rcRasterizeTriangles
// /
// / No spans will be added if the triangle does not overlap the heightfield grid.
// /
// / @param[in]		ctx					The build context to use during the operation.
// / @param[in]		v0					Triangle vertex 0 [(x, y, z)]
// / @param[in]		v1					Triangle vertex 1 [(x, y, z)]
// / @param[in]		v2					Triangle vertex 2 [(x, y, z)]
// / @param[in]		areaID				The area id of the triangle. [Limit: <= #RC_WALKABLE_AREA]
// / @param[in,out]	hf					An initialized heightfield.
// / @param[in]		flagMergeThreshold	The distance where the walkable flag is favored over the non-walkable flag.
// /									[Limit: >= 0] [Units: vx]
func RcRasterizeTriangle(ctx *RcContext, v0, v1, v2 []float32, areaID uint8, hf *RcHeightfield, flagMergeThreshold int) error {
	defer ctx.ScopedTimer(RC_TIMER_RASTERIZE_TRIANGLES)()

	// Rasterize the single triangle.
	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	if !rasterizeTri(v0, v1, v2, areaID, hf, inverseCellSize, inverseCellHeight, flagMergeThreshold, newClipBuffer()) {
		return stageError(ctx, ErrRasterize, "rcRasterizeTriangle: Out of memory.")
	}
	return nil
}

// / Rasterizes an indexed triangle mesh into the specified heightfield.
// /
// / Spans will only be added for triangles that overlap the heightfield grid.
// / Indices must address vertices in @p verts; malformed input panics.
// /
// / @param[in]		ctx					The build context to use during the operation.
// / @param[in]		verts				The vertices. [(x, y, z) * nv]
// / @param[in]		tris				The triangle indices. [(vertA, vertB, vertC) * nt]
// / @param[in]		triAreaIDs			The area id's of the triangles. [Limit: <= #RC_WALKABLE_AREA] [Size: numTris]
// / @param[in,out]	hf					An initialized heightfield.
// / @param[in]		flagMergeThreshold	The distance where the walkable flag is favored over the non-walkable flag.
// /									[Limit: >= 0] [Units: vx]
func RcRasterizeIndexedTriangles[I uint16 | int32 | int](ctx *RcContext, verts []float32, tris []I, triAreaIDs []uint8,
	hf *RcHeightfield, flagMergeThreshold int) error {
	checkTriangleInput(verts, tris, triAreaIDs)
	defer ctx.ScopedTimer(RC_TIMER_RASTERIZE_TRIANGLES)()

	// Rasterize the triangles.
	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	buf := newClipBuffer()
	numTris := len(tris) / 3
	for triIndex := 0; triIndex < numTris; triIndex++ {
		v0 := common.GetVert3(verts, tris[triIndex*3+0])
		v1 := common.GetVert3(verts, tris[triIndex*3+1])
		v2 := common.GetVert3(verts, tris[triIndex*3+2])
		if !rasterizeTri(v0, v1, v2, triAreaIDs[triIndex], hf, inverseCellSize, inverseCellHeight, flagMergeThreshold, buf) {
			return stageError(ctx, ErrRasterize, "rcRasterizeTriangles: Out of memory.")
		}
	}
	return nil
}

// / Rasterizes a triangle list into the specified heightfield.
// /
// / Expects each triangle to be specified as three sequential vertices of 3 floats.
// /
// / @param[in]		ctx					The build context to use during the operation.
// / @param[in]		verts				The triangle vertices. [(ax, ay, az, bx, by, bz, cx, by, cx) * nt]
// / @param[in]		triAreaIDs			The area id's of the triangles. [Limit: <= #RC_WALKABLE_AREA] [Size: numTris]
// / @param[in,out]	hf					An initialized heightfield.
// / @param[in]		flagMergeThreshold	The distance where the walkable flag is favored over the non-walkable flag.
// /									[Limit: >= 0] [Units: vx]
func RcRasterizeTriangles(ctx *RcContext, verts []float32, triAreaIDs []uint8, hf *RcHeightfield, flagMergeThreshold int) error {
	common.AssertTruef(len(verts)%9 == 0, "rcRasterizeTriangles: vertex count %d is not a whole number of triangles", len(verts)/3)
	numTris := len(verts) / 9
	common.AssertTruef(len(triAreaIDs) >= numTris, "rcRasterizeTriangles: %d area ids for %d triangles", len(triAreaIDs), numTris)
	defer ctx.ScopedTimer(RC_TIMER_RASTERIZE_TRIANGLES)()

	// Rasterize the triangles.
	inverseCellSize := 1.0 / hf.Cs
	inverseCellHeight := 1.0 / hf.Ch
	buf := newClipBuffer()
	for triIndex := 0; triIndex < numTris; triIndex++ {
		v0 := common.GetVert3(verts, triIndex*3+0)
		v1 := common.GetVert3(verts, triIndex*3+1)
		v2 := common.GetVert3(verts, triIndex*3+2)
		if !rasterizeTri(v0, v1, v2, triAreaIDs[triIndex], hf, inverseCellSize, inverseCellHeight, flagMergeThreshold, buf) {
			return stageError(ctx, ErrRasterize, "rcRasterizeTriangles: Out of memory.")
		}
	}
	return nil
}
