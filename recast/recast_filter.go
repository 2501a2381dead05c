package recast

import "github.com/gorustyt/recastgo/common"

// / Marks non-walkable spans as walkable if their maximum is within @p walkableClimb of the span below them.
// /
// / This removes small obstacles and rasterization artifacts that the agent would be able to walk over
// / such as curbs.  It also allows agents to move up terraced structures like stairs.
// /
// / Obstacle spans are marked walkable if: <tt>obstacleSpan.smax - walkableSpan.smax < walkableClimb</tt>
// /
// / @warning Will override the effect of #RcFilterLedgeSpans.  If both filters are used, call #RcFilterLedgeSpans only after applying this filter.
func RcFilterLowHangingWalkableObstacles(ctx *RcContext, walkableClimb int, hf *RcHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_FILTER_LOW_OBSTACLES)()

	xSize := hf.Width
	zSize := hf.Height
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			previous := rcNullSpan
			previousWasWalkable := false
			previousAreaID := uint8(RC_NULL_AREA)

			for s := hf.columns[x+z*xSize]; s != rcNullSpan; s = hf.pool[s].next {
				span := &hf.pool[s]
				walkable := span.Area != RC_NULL_AREA

				// If current span is not walkable, but there is walkable
				// span just below it, mark the span above it walkable too.
				if !walkable && previousWasWalkable {
					if common.Abs(int(span.Smax)-int(hf.pool[previous].Smax)) <= walkableClimb {
						span.Area = previousAreaID
					}
				}

				// Copy walkable flag so that it cannot propagate
				// past multiple non-walkable objects.
				previousWasWalkable = walkable
				previousAreaID = span.Area
				previous = s
			}
		}
	}
}

// / Marks spans that are ledges as not-walkable.
// /
// / A ledge is a span with one or more neighbors whose maximum is further away than @p walkableClimb
// / from the current span's maximum.
// / This method removes the impact of the overestimation of conservative voxelization
// / so the resulting mesh will not have regions hanging in the air over ledges.
// /
// / A span is a ledge if: <tt>rcAbs(currentSpan.smax - neighborSpan.smax) > walkableClimb</tt>
func RcFilterLedgeSpans(ctx *RcContext, walkableHeight, walkableClimb int, hf *RcHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_FILTER_BORDER)()

	xSize := hf.Width
	zSize := hf.Height

	// Mark spans that are adjacent to a ledge as unwalkable..
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			for s := hf.columns[x+z*xSize]; s != rcNullSpan; s = hf.pool[s].next {
				span := &hf.pool[s]
				// Skip non-walkable spans.
				if span.Area == RC_NULL_AREA {
					continue
				}

				floor := int(span.Smax)
				ceiling := rcSpanTopHeight
				if span.next != rcNullSpan {
					ceiling = int(hf.pool[span.next].Smin)
				}

				// The difference between this walkable area and the lowest neighbor walkable area.
				// This is the difference between the current span and all neighbor spans that have
				// enough space for an agent to move between, but not accounting at all for surface slope.
				lowestNeighborFloorDifference := rcSpanTopHeight

				// Min and max height of accessible neighbours.
				lowestTraversableNeighborFloor := int(span.Smax)
				highestTraversableNeighborFloor := int(span.Smax)

				for direction := 0; direction < 4; direction++ {
					neighborX := x + common.GetDirOffsetX(direction)
					neighborZ := z + common.GetDirOffsetY(direction)

					// Skip neighbours which are out of bounds.
					if neighborX < 0 || neighborZ < 0 || neighborX >= xSize || neighborZ >= zSize {
						lowestNeighborFloorDifference = -walkableClimb - 1
						break
					}

					neighbor := hf.columns[neighborX+neighborZ*xSize]

					// The most we can step down to the neighbor is the walkable climb distance.
					// Start with the area under the neighbor span
					neighborCeiling := rcSpanTopHeight
					if neighbor != rcNullSpan {
						neighborCeiling = int(hf.pool[neighbor].Smin)
					}

					// Skip neighbour if the gap between the spans is too small.
					if min(ceiling, neighborCeiling)-floor >= walkableHeight {
						lowestNeighborFloorDifference = -walkableClimb - 1
						break
					}

					// For each span in the neighboring column...
					for ; neighbor != rcNullSpan; neighbor = hf.pool[neighbor].next {
						neighborFloor := int(hf.pool[neighbor].Smax)
						neighborCeiling = rcSpanTopHeight
						if next := hf.pool[neighbor].next; next != rcNullSpan {
							neighborCeiling = int(hf.pool[next].Smin)
						}

						// Only consider neighboring areas that have enough overlap to be potentially traversable.
						if min(ceiling, neighborCeiling)-max(floor, neighborFloor) < walkableHeight {
							// No space to traverse between them.
							continue
						}

						neighborFloorDifference := neighborFloor - floor
						lowestNeighborFloorDifference = min(lowestNeighborFloorDifference, neighborFloorDifference)

						// Find min/max accessible neighbor height.
						// Only consider neighbors that are at most walkableClimb away.
						if common.Abs(neighborFloorDifference) <= walkableClimb {
							// There is space to move to the neighbor cell and the slope isn't too much.
							lowestTraversableNeighborFloor = min(lowestTraversableNeighborFloor, neighborFloor)
							highestTraversableNeighborFloor = max(highestTraversableNeighborFloor, neighborFloor)
						} else if neighborFloorDifference < -walkableClimb {
							// We already know this will be considered a ledge span so we can early-out
							break
						}
					}
				}

				// The current span is close to a ledge if the magnitude of the drop to any neighbour span is greater than the walkableClimb distance.
				// That is, there is a gap that is large enough to let an agent move between them, but the drop (surface slope) is too large to allow it.
				// (If this is the case, then biggestNeighborStepDown will be negative, so compare against the negative walkableClimb as a means of checking
				// the magnitude of the delta)
				if lowestNeighborFloorDifference < -walkableClimb {
					span.Area = RC_NULL_AREA
				} else if highestTraversableNeighborFloor-lowestTraversableNeighborFloor > walkableClimb {
					// If the difference between all neighbor floors is too large, this is a steep slope, so mark the span as an unwalkable ledge.
					span.Area = RC_NULL_AREA
				}
			}
		}
	}
}

// / Marks walkable spans as not walkable if the clearance above the span is less than the specified walkableHeight.
// /
// / For this filter, the clearance above the span is the distance from the span's
// / maximum to the minimum of the next higher span in the same column.
// / If there is no higher span in the column, the clearance is computed as the
// / distance from the top of the span to the maximum heightfield height.
func RcFilterWalkableLowHeightSpans(ctx *RcContext, walkableHeight int, hf *RcHeightfield) {
	defer ctx.ScopedTimer(RC_TIMER_FILTER_WALKABLE)()

	xSize := hf.Width
	zSize := hf.Height

	// Remove walkable flag from spans which do not have enough
	// space above them for the agent to stand there.
	for z := 0; z < zSize; z++ {
		for x := 0; x < xSize; x++ {
			for s := hf.columns[x+z*xSize]; s != rcNullSpan; s = hf.pool[s].next {
				span := &hf.pool[s]
				floor := int(span.Smax)
				ceiling := rcSpanTopHeight
				if span.next != rcNullSpan {
					ceiling = int(hf.pool[span.next].Smin)
				}
				if ceiling-floor < walkableHeight {
					span.Area = RC_NULL_AREA
				}
			}
		}
	}
}
