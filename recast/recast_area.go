package recast

import (
	"slices"

	"github.com/gorustyt/recastgo/common"
)

// / Erodes the walkable area within the heightfield by the specified radius.
// /
// / Basically, any spans that are closer to a boundary or obstruction than the specified radius
// / are marked as unwalkable.
// /
// / This method is usually called immediately after the heightfield has been built.
// /
// / @param[in]		ctx					The build context to use during the operation.
// / @param[in]		erosionRadius		The radius of erosion. [Limits: 0 < value < 255] [Units: vx]
// / @param[in,out]	compactHeightfield	The populated compact heightfield to erode.
func RcErodeWalkableArea(ctx *RcContext, erosionRadius int, compactHeightfield *RcCompactHeightfield) error {
	defer ctx.ScopedTimer(RC_TIMER_ERODE_AREA)()

	chf := compactHeightfield.compact()
	xSize := chf.width
	zSize := chf.height
	zStride := xSize // For readability

	distanceToBoundary := make([]uint8, chf.spanCount)
	for i := range distanceToBoundary {
		distanceToBoundary[i] = 0xff
	}

	// Mark boundary cells.
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.cells[x+z*zStride]
			for spanIndex := int(cell.Index); spanIndex < int(cell.Index)+int(cell.Count); spanIndex++ {
				if chf.areas[spanIndex] == RC_NULL_AREA {
					distanceToBoundary[spanIndex] = 0
					continue
				}
				span := &chf.spans[spanIndex]

				// Check that there is a non-null adjacent span in each of the 4 cardinal directions.
				neighborCount := 0
				for direction := 0; direction < 4; direction++ {
					if RcGetCon(span, direction) == RC_NOT_CONNECTED {
						break
					}
					_, _, neighborSpanIndex := chf.neighbour(x, z, direction, span)
					if chf.areas[neighborSpanIndex] == RC_NULL_AREA {
						break
					}
					neighborCount++
				}

				// At least one missing neighbour, so this is a boundary cell.
				if neighborCount != 4 {
					distanceToBoundary[spanIndex] = 0
				}
			}
		}
	}

	relax := func(spanIndex, from int, cost uint8) {
		newDistance := uint8(min(int(distanceToBoundary[from])+int(cost), 255))
		if newDistance < distanceToBoundary[spanIndex] {
			distanceToBoundary[spanIndex] = newDistance
		}
	}

	// Pass 1
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.cells[x+z*zStride]
			for spanIndex := int(cell.Index); spanIndex < int(cell.Index)+int(cell.Count); spanIndex++ {
				span := &chf.spans[spanIndex]

				if RcGetCon(span, 0) != RC_NOT_CONNECTED {
					// (-1,0)
					aX, aZ, aIndex := chf.neighbour(x, z, 0, span)
					relax(spanIndex, aIndex, 2)

					// (-1,-1)
					aSpan := &chf.spans[aIndex]
					if RcGetCon(aSpan, 3) != RC_NOT_CONNECTED {
						_, _, bIndex := chf.neighbour(aX, aZ, 3, aSpan)
						relax(spanIndex, bIndex, 3)
					}
				}
				if RcGetCon(span, 3) != RC_NOT_CONNECTED {
					// (0,-1)
					aX, aZ, aIndex := chf.neighbour(x, z, 3, span)
					relax(spanIndex, aIndex, 2)

					// (1,-1)
					aSpan := &chf.spans[aIndex]
					if RcGetCon(aSpan, 2) != RC_NOT_CONNECTED {
						_, _, bIndex := chf.neighbour(aX, aZ, 2, aSpan)
						relax(spanIndex, bIndex, 3)
					}
				}
			}
		}
	}

	// Pass 2
	for z := zSize - 1; z >= 0; z-- {
		for x := xSize - 1; x >= 0; x-- {
			cell := chf.cells[x+z*zStride]
			for spanIndex := int(cell.Index); spanIndex < int(cell.Index)+int(cell.Count); spanIndex++ {
				span := &chf.spans[spanIndex]

				if RcGetCon(span, 2) != RC_NOT_CONNECTED {
					// (1,0)
					aX, aZ, aIndex := chf.neighbour(x, z, 2, span)
					relax(spanIndex, aIndex, 2)

					// (1,1)
					aSpan := &chf.spans[aIndex]
					if RcGetCon(aSpan, 1) != RC_NOT_CONNECTED {
						_, _, bIndex := chf.neighbour(aX, aZ, 1, aSpan)
						relax(spanIndex, bIndex, 3)
					}
				}
				if RcGetCon(span, 1) != RC_NOT_CONNECTED {
					// (0,1)
					aX, aZ, aIndex := chf.neighbour(x, z, 1, span)
					relax(spanIndex, aIndex, 2)

					// (-1,1)
					aSpan := &chf.spans[aIndex]
					if RcGetCon(aSpan, 0) != RC_NOT_CONNECTED {
						_, _, bIndex := chf.neighbour(aX, aZ, 0, aSpan)
						relax(spanIndex, bIndex, 3)
					}
				}
			}
		}
	}

	minBoundaryDistance := erosionRadius * 2
	for spanIndex := 0; spanIndex < chf.spanCount; spanIndex++ {
		if int(distanceToBoundary[spanIndex]) < minBoundaryDistance {
			chf.areas[spanIndex] = RC_NULL_AREA
		}
	}

	return nil
}

// / Applies a median filter to walkable area types (based on area id), removing noise.
// /
// / This filter is usually applied after applying area id's using functions
// / such as #RcMarkBoxArea, #RcMarkConvexPolyArea, and #RcMarkCylinderArea.
// /
// / The 3x3 neighbourhood is sorted and its middle value kept. A neighbour that
// / is not connected or is unwalkable counts as the span's own area.
// /
// / @param[in]		ctx		The build context to use during the operation.
// / @param[in,out]	compactHeightfield		A populated compact heightfield.
func RcMedianFilterWalkableArea(ctx *RcContext, compactHeightfield *RcCompactHeightfield) error {
	defer ctx.ScopedTimer(RC_TIMER_MEDIAN_AREA)()

	chf := compactHeightfield.compact()
	xSize := chf.width
	zSize := chf.height
	zStride := xSize // For readability

	areas := make([]uint8, chf.spanCount)
	for i := range areas {
		areas[i] = 0xff
	}

	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			cell := chf.cells[x+z*zStride]
			for spanIndex := int(cell.Index); spanIndex < int(cell.Index)+int(cell.Count); spanIndex++ {
				span := &chf.spans[spanIndex]
				if chf.areas[spanIndex] == RC_NULL_AREA {
					areas[spanIndex] = chf.areas[spanIndex]
					continue
				}

				var neighborAreas [9]uint8
				for neighborIndex := range neighborAreas {
					neighborAreas[neighborIndex] = chf.areas[spanIndex]
				}

				for dir := 0; dir < 4; dir++ {
					if RcGetCon(span, dir) == RC_NOT_CONNECTED {
						continue
					}
					aX, aZ, aIndex := chf.neighbour(x, z, dir, span)
					if chf.areas[aIndex] != RC_NULL_AREA {
						neighborAreas[dir*2+0] = chf.areas[aIndex]
					}

					aSpan := &chf.spans[aIndex]
					dir2 := (dir + 1) & 0x3
					if RcGetCon(aSpan, dir2) != RC_NOT_CONNECTED {
						_, _, bIndex := chf.neighbour(aX, aZ, dir2, aSpan)
						if chf.areas[bIndex] != RC_NULL_AREA {
							neighborAreas[dir*2+1] = chf.areas[bIndex]
						}
					}
				}
				slices.Sort(neighborAreas[:])
				areas[spanIndex] = neighborAreas[4]
			}
		}
	}
	chf.areas = areas
	return nil
}

// gridFootprint converts a world-space box to clamped cell coordinates.
// ok is false when the box misses the grid.
func (d *compactData) gridFootprint(bmin, bmax []float32) (minX, minY, minZ, maxX, maxY, maxZ int, ok bool) {
	minX = int((bmin[0] - d.bmin[0]) / d.cs)
	minY = int((bmin[1] - d.bmin[1]) / d.ch)
	minZ = int((bmin[2] - d.bmin[2]) / d.cs)
	maxX = int((bmax[0] - d.bmin[0]) / d.cs)
	maxY = int((bmax[1] - d.bmin[1]) / d.ch)
	maxZ = int((bmax[2] - d.bmin[2]) / d.cs)

	// Early-out if the box is outside the bounds of the grid.
	if maxX < 0 || minX >= d.width || maxZ < 0 || minZ >= d.height {
		return 0, 0, 0, 0, 0, 0, false
	}

	// Clamp relevant bound coordinates to the grid.
	minX = max(minX, 0)
	maxX = min(maxX, d.width-1)
	minZ = max(minZ, 0)
	maxZ = min(maxZ, d.height-1)
	return minX, minY, minZ, maxX, maxY, maxZ, true
}

// / Applies an area id to all spans within the specified bounding box. (AABB)
// /
// / @param[in]		ctx				The build context to use during the operation.
// / @param[in]		boxMinBounds	The minimum extents of the bounding box. [(x, y, z)] [Units: wu]
// / @param[in]		boxMaxBounds	The maximum extents of the bounding box. [(x, y, z)] [Units: wu]
// / @param[in]		areaId			The area id to apply. [Limit: <= #RC_WALKABLE_AREA]
// / @param[in,out]	compactHeightfield	A populated compact heightfield.
func RcMarkBoxArea(ctx *RcContext, boxMinBounds, boxMaxBounds []float32, areaId uint8, compactHeightfield *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_MARK_BOX_AREA)()

	chf := compactHeightfield.compact()
	minX, minY, minZ, maxX, maxY, maxZ, ok := chf.gridFootprint(boxMinBounds, boxMaxBounds)
	if !ok {
		return
	}

	// Mark relevant cells.
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			cell := chf.cells[x+z*chf.width]
			for spanIndex := int(cell.Index); spanIndex < int(cell.Index)+int(cell.Count); spanIndex++ {
				span := &chf.spans[spanIndex]

				// Skip if the span is outside the box extents.
				if int(span.Y) < minY || int(span.Y) > maxY {
					continue
				}

				// Skip if the span has been removed.
				if chf.areas[spanIndex] == RC_NULL_AREA {
					continue
				}

				// Mark the span.
				chf.areas[spanIndex] = areaId
			}
		}
	}
}

// / Applies the area id to the all spans within the specified convex polygon.
// /
// / The value of spacial parameters are in world units.
// /
// / The y-values of the polygon vertices are ignored. So the polygon is effectively
// / projected onto the xz-plane, translated to @p minY, and extruded to @p maxY.
// /
// / @param[in]		ctx			The build context to use during the operation.
// / @param[in]		verts		The vertices of the polygon [For: (x, y, z) * @p numVerts]
// / @param[in]		minY		The height of the base of the polygon. [Units: wu]
// / @param[in]		maxY		The height of the top of the polygon. [Units: wu]
// / @param[in]		areaId		The area id to apply. [Limit: <= #RC_WALKABLE_AREA]
// / @param[in,out]	compactHeightfield		A populated compact heightfield.
func RcMarkConvexPolyArea(ctx *RcContext, verts []float32, minY, maxY float32, areaId uint8, compactHeightfield *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_MARK_CONVEXPOLY_AREA)()

	common.AssertTrue(len(verts) >= 9 && len(verts)%3 == 0, "convex polygon needs at least 3 vertices")
	chf := compactHeightfield.compact()
	numVerts := len(verts) / 3

	// Compute the bounding box of the polygon
	bmin := make([]float32, 3)
	bmax := make([]float32, 3)
	copy(bmin, verts)
	copy(bmax, verts)
	for i := 1; i < numVerts; i++ {
		common.Vmin(bmin, common.GetVert3(verts, i))
		common.Vmax(bmax, common.GetVert3(verts, i))
	}
	bmin[1] = minY
	bmax[1] = maxY

	// Compute the grid footprint of the polygon
	minx, miny, minz, maxx, maxy, maxz, ok := chf.gridFootprint(bmin, bmax)
	if !ok {
		return
	}

	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			cell := chf.cells[x+z*chf.width]
			for spanIndex := int(cell.Index); spanIndex < int(cell.Index)+int(cell.Count); spanIndex++ {
				span := &chf.spans[spanIndex]

				// Skip if span is removed.
				if chf.areas[spanIndex] == RC_NULL_AREA {
					continue
				}

				// Skip if y extents don't overlap.
				if int(span.Y) < miny || int(span.Y) > maxy {
					continue
				}

				point := []float32{
					chf.bmin[0] + (float32(x)+0.5)*chf.cs,
					0,
					chf.bmin[2] + (float32(z)+0.5)*chf.cs,
				}

				if common.PointInPoly(numVerts, verts, point) {
					chf.areas[spanIndex] = areaId
				}
			}
		}
	}
}

// / Applies the area id to all spans within the specified y-axis-aligned cylinder.
// /
// / @param[in]		ctx		The build context to use during the operation.
// / @param[in]		position	The center of the base of the cylinder. [Form: (x, y, z)] [Units: wu]
// / @param[in]		radius	The radius of the cylinder. [Units: wu] [Limit: > 0]
// / @param[in]		height	The height of the cylinder. [Units: wu] [Limit: > 0]
// / @param[in]		areaId	The area id to apply. [Limit: <= #RC_WALKABLE_AREA]
// / @param[in,out]	compactHeightfield	A populated compact heightfield.
func RcMarkCylinderArea(ctx *RcContext, position []float32, radius, height float32, areaId uint8, compactHeightfield *RcCompactHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_MARK_CYLINDER_AREA)()

	chf := compactHeightfield.compact()

	// Compute the bounding box of the cylinder
	cylinderBBMin := []float32{position[0] - radius, position[1], position[2] - radius}
	cylinderBBMax := []float32{position[0] + radius, position[1] + height, position[2] + radius}

	// Compute the grid footprint of the cylinder
	minx, miny, minz, maxx, maxy, maxz, ok := chf.gridFootprint(cylinderBBMin, cylinderBBMax)
	if !ok {
		return
	}

	radiusSq := radius * radius
	for z := minz; z <= maxz; z++ {
		for x := minx; x <= maxx; x++ {
			cell := chf.cells[x+z*chf.width]

			cellX := chf.bmin[0] + (float32(x)+0.5)*chf.cs
			cellZ := chf.bmin[2] + (float32(z)+0.5)*chf.cs
			deltaX := cellX - position[0]
			deltaZ := cellZ - position[2]

			// Skip this column if it's too far from the center point of the cylinder.
			if common.Sqr(deltaX)+common.Sqr(deltaZ) >= radiusSq {
				continue
			}

			// Mark all overlapping spans
			for spanIndex := int(cell.Index); spanIndex < int(cell.Index)+int(cell.Count); spanIndex++ {
				span := &chf.spans[spanIndex]

				// Skip if span is removed.
				if chf.areas[spanIndex] == RC_NULL_AREA {
					continue
				}

				// Mark if y extents overlap.
				if int(span.Y) >= miny && int(span.Y) <= maxy {
					chf.areas[spanIndex] = areaId
				}
			}
		}
	}
}

const epsilon = 1e-6

// / Normalizes the vector if the length is greater than zero.
// / If the magnitude is zero, the vector is unchanged.
func rcVsafeNormalize(v []float32) {
	sqMag := common.Sqr(v[0]) + common.Sqr(v[1]) + common.Sqr(v[2])
	if sqMag > epsilon {
		inverseMag := 1.0 / common.Sqrt(sqMag)
		v[0] *= inverseMag
		v[1] *= inverseMag
		v[2] *= inverseMag
	}
}

// / Expands a convex polygon along its vertex normals by the given offset amount.
// / Inserts extra vertices to bevel sharp corners.
// /
// / Helper function to offset convex polygons for RcMarkConvexPolyArea.
// /
// / @param[in]		verts		The vertices of the polygon [Form: (x, y, z) * numVerts]
// / @param[in]		offset		How much to offset the polygon by. [Units: wu]
// / @return The offset polygon vertices.
func RcOffsetPoly(verts []float32, offset float32) []float32 {
	// Defines the limit at which a miter becomes a bevel.
	// Similar in behavior to https://developer.mozilla.org/en-US/docs/Web/SVG/Attribute/stroke-miterlimit
	const miterLimit float32 = 1.20

	numVerts := len(verts) / 3
	outVerts := make([]float32, 0, len(verts)*2)
	prevSegmentDir := make([]float32, 3)
	currSegmentDir := make([]float32, 3)

	for vertIndex := 0; vertIndex < numVerts; vertIndex++ {
		// Grab three vertices of the polygon.
		vertA := common.GetVert3(verts, (vertIndex+numVerts-1)%numVerts)
		vertB := common.GetVert3(verts, vertIndex)
		vertC := common.GetVert3(verts, (vertIndex+1)%numVerts)

		// From A to B on the x/z plane
		common.Vsub(prevSegmentDir, vertB, vertA)
		prevSegmentDir[1] = 0 // Squash onto x/z plane
		rcVsafeNormalize(prevSegmentDir)

		// From B to C on the x/z plane
		common.Vsub(currSegmentDir, vertC, vertB)
		currSegmentDir[1] = 0 // Squash onto x/z plane
		rcVsafeNormalize(currSegmentDir)

		// The y component of the cross product of the two normalized segment directions.
		// The X and Z components of the cross product are both zero because the two
		// segment direction vectors fall within the x/z plane.
		cross := currSegmentDir[0]*prevSegmentDir[2] - prevSegmentDir[0]*currSegmentDir[2]

		// CCW perpendicular vector to AB.  The segment normal.
		prevSegmentNormX := -prevSegmentDir[2]
		prevSegmentNormZ := prevSegmentDir[0]

		// CCW perpendicular vector to BC.  The segment normal.
		currSegmentNormX := -currSegmentDir[2]
		currSegmentNormZ := currSegmentDir[0]

		// Average the two segment normals to get the proportional miter offset for B.
		// This isn't normalized because it's defining the distance and direction the corner will need to be
		// adjusted proportionally to the edge offsets to properly miter the adjoining edges.
		cornerMiterX := (prevSegmentNormX + currSegmentNormX) * 0.5
		cornerMiterZ := (prevSegmentNormZ + currSegmentNormZ) * 0.5
		cornerMiterSqMag := common.Sqr(cornerMiterX) + common.Sqr(cornerMiterZ)

		// If the magnitude of the segment normal average is less than about .69444,
		// the corner is an acute enough angle that the result should be beveled.
		bevel := cornerMiterSqMag*miterLimit*miterLimit < 1.0

		// Scale the corner miter so it's proportional to how much the corner should be offset compared to the edges.
		if cornerMiterSqMag > epsilon {
			scale := 1.0 / cornerMiterSqMag
			cornerMiterX *= scale
			cornerMiterZ *= scale
		}

		if bevel && cross < 0.0 { // If the corner is convex and an acute enough angle, generate a bevel.
			// Generate two bevel vertices at a distances from B proportional to the angle between the two segments.
			// Move each bevel vertex out proportional to the given offset.
			d := 1.0 - (prevSegmentDir[0]*currSegmentDir[0]+prevSegmentDir[2]*currSegmentDir[2])*0.5

			outVerts = append(outVerts,
				vertB[0]+(-prevSegmentNormX+prevSegmentDir[0]*d)*offset,
				vertB[1],
				vertB[2]+(-prevSegmentNormZ+prevSegmentDir[2]*d)*offset,
				vertB[0]+(-currSegmentNormX-currSegmentDir[0]*d)*offset,
				vertB[1],
				vertB[2]+(-currSegmentNormZ-currSegmentDir[2]*d)*offset,
			)
		} else {
			// Move B along the miter direction by the specified offset.
			outVerts = append(outVerts,
				vertB[0]-cornerMiterX*offset,
				vertB[1],
				vertB[2]-cornerMiterZ*offset,
			)
		}
	}

	return outVerts
}
