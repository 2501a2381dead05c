package recast

import "slices"

const (
	RC_MAX_LAYERS = 63
	RC_MAX_NEIS   = 16

	rcLayerNone = 0xff
)

type rcLayerRegion struct {
	layers     []uint8
	neis       []uint8
	ymin, ymax uint16
	layerId    uint8 // Layer ID
	base       bool  // Flag indicating if the region is the base of merged regions.
}

// addUnique appends v unless present. Returns false when a is full.
func addUnique(a *[]uint8, anMax int, v uint8) bool {
	if slices.Contains(*a, v) {
		return true
	}
	if len(*a) >= anMax {
		return false
	}
	*a = append(*a, v)
	return true
}

func layersOverlapRange(amin, amax, bmin, bmax int) bool {
	return !(amin > bmax || amax < bmin)
}

type rcLayerSweepSpan struct {
	ns  int   // number samples
	id  uint8 // region id
	nei uint8 // neighbour id
}

// / Represents a set of heightfield layers.
// / @ingroup recast
// / @see RcBuildHeightfieldLayers
type RcHeightfieldLayerSet struct {
	Layers []*RcHeightfieldLayer ///< The layers in the set.
}

// Nlayers is the number of layers in the set.
func (lset *RcHeightfieldLayerSet) Nlayers() int { return len(lset.Layers) }

// / Represents a heightfield layer within a layer set.
// / @see RcHeightfieldLayerSet
type RcHeightfieldLayer struct {
	Bmin    [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax    [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs      float32    ///< The size of each cell. (On the xz-plane.)
	Ch      float32    ///< The height of each cell. (The minimum increment along the y-axis.)
	Width   int        ///< The width of the heightfield. (Along the x-axis in cell units.)
	Height  int        ///< The height of the heightfield. (Along the z-axis in cell units.)
	Minx    int        ///< The minimum x-bounds of usable data.
	Maxx    int        ///< The maximum x-bounds of usable data.
	Miny    int        ///< The minimum y-bounds of usable data. (Along the z-axis.)
	Maxy    int        ///< The maximum y-bounds of usable data. (Along the z-axis.)
	Hmin    int        ///< The minimum height bounds of usable data. (Along the y-axis.)
	Hmax    int        ///< The maximum height bounds of usable data. (Along the y-axis.)
	Heights []uint8    ///< The heightfield. [Size: width * height]
	Areas   []uint8    ///< Area ids. [Size: Same as #heights]
	Cons    []uint8    ///< Packed neighbor connection information. [Size: Same as #heights]
}

// GridMinBounds returns the lower corner of the usable data in cells as (x, y, z).
func (l *RcHeightfieldLayer) GridMinBounds() [3]int { return [3]int{l.Minx, l.Hmin, l.Miny} }

// GridMaxBounds returns the upper corner of the usable data in cells as (x, y, z).
func (l *RcHeightfieldLayer) GridMaxBounds() [3]int { return [3]int{l.Maxx, l.Hmax, l.Maxy} }

// / Builds a layer set from the specified compact heightfield.
// /
// / Works on a compact heightfield with or without regions; region data is
// / not used.
// /
// / @param[in]		ctx				The build context to use during the operation.
// / @param[in]		chf				A fully built compact heightfield.
// / @param[in]		borderSize		The size of the non-navigable border around the heightfield. [Limit: >=0]
// / 								[Units: vx]
// / @param[in]		walkableHeight	Minimum floor to 'ceiling' height that will still allow the floor area
// / 								to be considered walkable. [Limit: >= 3] [Units: vx]
func RcBuildHeightfieldLayers(ctx *RcContext, view RcCompactView, borderSize, walkableHeight int) (*RcHeightfieldLayerSet, error) {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_LAYERS)()

	chf := view.compact()
	w := chf.width
	h := chf.height
	srcReg := make([]uint8, chf.spanCount)
	for i := range srcReg {
		srcReg[i] = rcLayerNone
	}

	sweeps := make([]rcLayerSweepSpan, chf.width+1)

	// Partition walkable area into monotone regions.
	var prevCount [256]int
	regId := 0

	for y := borderSize; y < h-borderSize; y++ {
		clear(prevCount[:regId])
		sweepId := 0

		for x := borderSize; x < w-borderSize; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				s := &chf.spans[i]
				if chf.areas[i] == RC_NULL_AREA {
					continue
				}

				sid := rcLayerNone

				// -x
				if RcGetCon(s, 0) != RC_NOT_CONNECTED {
					_, _, ai := chf.neighbour(x, y, 0, s)
					if chf.areas[ai] != RC_NULL_AREA && srcReg[ai] != rcLayerNone {
						sid = int(srcReg[ai])
					}
				}

				if sid == rcLayerNone {
					sid = sweepId
					sweepId++
					if sweepId > rcLayerNone {
						return nil, stageError(ctx, ErrLayers, "rcBuildHeightfieldLayers: Sweep overflow.")
					}
					if sid >= len(sweeps) {
						sweeps = append(sweeps, make([]rcLayerSweepSpan, len(sweeps))...)
					}
					sweeps[sid].nei = rcLayerNone
					sweeps[sid].ns = 0
				}

				// -y
				if RcGetCon(s, 3) != RC_NOT_CONNECTED {
					_, _, ai := chf.neighbour(x, y, 3, s)
					nr := srcReg[ai]
					if nr != rcLayerNone {
						// Set neighbour when first valid neighbour is encoutered.
						if sweeps[sid].ns == 0 {
							sweeps[sid].nei = nr
						}

						if sweeps[sid].nei == nr {
							// Update existing neighbour
							sweeps[sid].ns++
							prevCount[nr]++
						} else {
							// This is hit if there is nore than one neighbour.
							// Invalidate the neighbour.
							sweeps[sid].nei = rcLayerNone
						}
					}
				}

				srcReg[i] = uint8(sid)
			}
		}

		// Create unique ID.
		for i := 0; i < sweepId; i++ {
			// If the neighbour is set and there is only one continuous connection to it,
			// the sweep will be merged with the previous one, else new region is created.
			if sweeps[i].nei != rcLayerNone && prevCount[sweeps[i].nei] == sweeps[i].ns {
				sweeps[i].id = sweeps[i].nei
			} else {
				if regId == rcLayerNone {
					return nil, stageError(ctx, ErrLayers, "rcBuildHeightfieldLayers: Region ID overflow.")
				}
				sweeps[i].id = uint8(regId)
				regId++
			}
		}

		// Remap local sweep ids to region ids.
		for x := borderSize; x < w-borderSize; x++ {
			c := chf.cells[x+y*w]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				if srcReg[i] != rcLayerNone {
					srcReg[i] = sweeps[srcReg[i]].id
				}
			}
		}
	}

	// Allocate and init layer regions.
	nregs := regId
	regs := make([]*rcLayerRegion, nregs)
	for i := range regs {
		regs[i] = &rcLayerRegion{layerId: rcLayerNone, ymin: 0xffff}
	}

	// Find region neighbours and overlapping regions.
	lregs := make([]uint8, 0, RC_MAX_LAYERS)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+y*w]

			lregs = lregs[:0]
			for i := int(c.Index); i < int(c.Index)+int(c.Count); i++ {
				s := &chf.spans[i]
				ri := srcReg[i]
				if ri == rcLayerNone {
					continue
				}

				regs[ri].ymin = min(regs[ri].ymin, s.Y)
				regs[ri].ymax = max(regs[ri].ymax, s.Y)

				// Collect all region layers.
				if len(lregs) < RC_MAX_LAYERS {
					lregs = append(lregs, ri)
				}

				// Update neighbours
				for dir := 0; dir < 4; dir++ {
					if RcGetCon(s, dir) == RC_NOT_CONNECTED {
						continue
					}
					_, _, ai := chf.neighbour(x, y, dir, s)
					rai := srcReg[ai]
					if rai != rcLayerNone && rai != ri {
						// Don't check return value -- if we cannot add the neighbor
						// it will just cause a few more regions to be created, which
						// is fine.
						addUnique(&regs[ri].neis, RC_MAX_NEIS, rai)
					}
				}
			}

			// Update overlapping regions.
			for i := 0; i < len(lregs)-1; i++ {
				for j := i + 1; j < len(lregs); j++ {
					if lregs[i] != lregs[j] {
						ri := regs[lregs[i]]
						rj := regs[lregs[j]]
						if !addUnique(&ri.layers, RC_MAX_LAYERS, lregs[j]) ||
							!addUnique(&rj.layers, RC_MAX_LAYERS, lregs[i]) {
							return nil, stageError(ctx, ErrLayers, "rcBuildHeightfieldLayers: layer overflow (too many overlapping walkable platforms). Try increasing RC_MAX_LAYERS.")
						}
					}
				}
			}
		}
	}

	// Create 2D layers from regions.
	var layerId uint8

	const maxStack = 64
	stack := make([]uint8, 0, maxStack)

	for i := 0; i < nregs; i++ {
		root := regs[i]
		// Skip already visited.
		if root.layerId != rcLayerNone {
			continue
		}

		// Start search.
		root.layerId = layerId
		root.base = true

		stack = append(stack[:0], uint8(i))
		for len(stack) > 0 {
			// Pop front
			reg := regs[stack[0]]
			stack = append(stack[:0], stack[1:]...)

			for _, nei := range reg.neis {
				regn := regs[nei]
				// Skip already visited.
				if regn.layerId != rcLayerNone {
					continue
				}
				// Skip if the neighbour is overlapping root region.
				if slices.Contains(root.layers, nei) {
					continue
				}
				// Skip if the height range would become too large.
				ymin := min(root.ymin, regn.ymin)
				ymax := max(root.ymax, regn.ymax)
				if int(ymax)-int(ymin) >= 255 {
					continue
				}

				if len(stack) < maxStack {
					// Deepen
					stack = append(stack, nei)

					// Mark layer id
					regn.layerId = layerId
					// Merge current layers to root.
					for _, l := range regn.layers {
						if !addUnique(&root.layers, RC_MAX_LAYERS, l) {
							return nil, stageError(ctx, ErrLayers, "rcBuildHeightfieldLayers: layer overflow (too many overlapping walkable platforms). Try increasing RC_MAX_LAYERS.")
						}
					}
					root.ymin = min(root.ymin, regn.ymin)
					root.ymax = max(root.ymax, regn.ymax)
				}
			}
		}

		layerId++
	}

	// Merge non-overlapping regions that are close in height.
	mergeHeight := walkableHeight * 4

	for i := 0; i < nregs; i++ {
		ri := regs[i]
		if !ri.base {
			continue
		}

		newId := ri.layerId

		for {
			oldId := uint8(rcLayerNone)

			for j := 0; j < nregs; j++ {
				if i == j {
					continue
				}
				rj := regs[j]
				if !rj.base {
					continue
				}

				// Skip if the regions are not close to each other.
				if !layersOverlapRange(int(ri.ymin), int(ri.ymax)+mergeHeight, int(rj.ymin), int(rj.ymax)+mergeHeight) {
					continue
				}

				// Skip if the height range would become too large.
				ymin := min(ri.ymin, rj.ymin)
				ymax := max(ri.ymax, rj.ymax)
				if int(ymax)-int(ymin) >= 255 {
					continue
				}

				// Make sure that there is no overlap when merging 'ri' and 'rj'.
				overlap := false
				// Iterate over all regions which have the same layerId as 'rj'
				for k := 0; k < nregs; k++ {
					if regs[k].layerId != rj.layerId {
						continue
					}
					// Check if region 'k' is overlapping region 'ri'
					// Index to 'regs' is the same as region id.
					if slices.Contains(ri.layers, uint8(k)) {
						overlap = true
						break
					}
				}
				// Cannot merge of regions overlap.
				if overlap {
					continue
				}

				// Can merge i and j.
				oldId = rj.layerId
				break
			}

			// Could not find anything to merge with, stop.
			if oldId == rcLayerNone {
				break
			}

			// Merge
			for j := 0; j < nregs; j++ {
				rj := regs[j]
				if rj.layerId != oldId {
					continue
				}
				rj.base = false
				// Remap layerIds.
				rj.layerId = newId
				// Add overlaid layers from 'rj' to 'ri'.
				for _, l := range rj.layers {
					if !addUnique(&ri.layers, RC_MAX_LAYERS, l) {
						return nil, stageError(ctx, ErrLayers, "rcBuildHeightfieldLayers: layer overflow (too many overlapping walkable platforms). Try increasing RC_MAX_LAYERS.")
					}
				}
				// Update height bounds.
				ri.ymin = min(ri.ymin, rj.ymin)
				ri.ymax = max(ri.ymax, rj.ymax)
			}
		}
	}

	// Compact layerIds
	var remap [256]uint8

	// Find number of unique layers.
	used := [256]bool{}
	for i := 0; i < nregs; i++ {
		used[regs[i].layerId] = true
	}
	nlayers := 0
	for i := range remap {
		if used[i] {
			remap[i] = uint8(nlayers)
			nlayers++
		} else {
			remap[i] = rcLayerNone
		}
	}
	// Remap ids.
	for i := 0; i < nregs; i++ {
		regs[i].layerId = remap[regs[i].layerId]
	}

	lset := &RcHeightfieldLayerSet{}

	// No layers, return empty.
	if nlayers == 0 {
		return lset, nil
	}

	// Create layers.
	lw := w - borderSize*2
	lh := h - borderSize*2

	// Build contracted bbox for layers.
	bmin := chf.bmin
	bmax := chf.bmax
	bmin[0] += float32(borderSize) * chf.cs
	bmin[2] += float32(borderSize) * chf.cs
	bmax[0] -= float32(borderSize) * chf.cs
	bmax[2] -= float32(borderSize) * chf.cs

	lset.Layers = make([]*RcHeightfieldLayer, nlayers)

	// Store layers.
	for curId := range lset.Layers {
		gridSize := lw * lh
		layer := &RcHeightfieldLayer{
			Heights: make([]uint8, gridSize),
			Areas:   make([]uint8, gridSize),
			Cons:    make([]uint8, gridSize),
		}
		lset.Layers[curId] = layer
		for i := range layer.Heights {
			layer.Heights[i] = 0xff
		}

		// Find layer height bounds.
		hmin, hmax := 0, 0
		for j := 0; j < nregs; j++ {
			if regs[j].base && int(regs[j].layerId) == curId {
				hmin = int(regs[j].ymin)
				hmax = int(regs[j].ymax)
			}
		}

		layer.Width = lw
		layer.Height = lh
		layer.Cs = chf.cs
		layer.Ch = chf.ch

		// Adjust the bbox to fit the heightfield.
		layer.Bmin = bmin
		layer.Bmax = bmax
		layer.Bmin[1] = bmin[1] + float32(hmin)*chf.ch
		layer.Bmax[1] = bmin[1] + float32(hmax)*chf.ch
		layer.Hmin = hmin
		layer.Hmax = hmax

		// Update usable data region.
		layer.Minx = layer.Width
		layer.Maxx = 0
		layer.Miny = layer.Height
		layer.Maxy = 0

		// Copy height and area from compact heightfield.
		for y := 0; y < lh; y++ {
			for x := 0; x < lw; x++ {
				cx := borderSize + x
				cy := borderSize + y
				c := chf.cells[cx+cy*w]
				for j := int(c.Index); j < int(c.Index)+int(c.Count); j++ {
					s := &chf.spans[j]
					// Skip unassigned regions.
					if srcReg[j] == rcLayerNone {
						continue
					}
					// Skip of does nto belong to current layer.
					lid := regs[srcReg[j]].layerId
					if int(lid) != curId {
						continue
					}

					// Update data bounds.
					layer.Minx = min(layer.Minx, x)
					layer.Maxx = max(layer.Maxx, x)
					layer.Miny = min(layer.Miny, y)
					layer.Maxy = max(layer.Maxy, y)

					// Store height and area type.
					idx := x + y*lw
					layer.Heights[idx] = uint8(int(s.Y) - hmin)
					layer.Areas[idx] = chf.areas[j]

					// Check connection.
					var portal, con uint8
					for dir := 0; dir < 4; dir++ {
						if RcGetCon(s, dir) == RC_NOT_CONNECTED {
							continue
						}
						ax, ay, ai := chf.neighbour(cx, cy, dir, s)
						alid := uint8(rcLayerNone)
						if srcReg[ai] != rcLayerNone {
							alid = regs[srcReg[ai]].layerId
						}
						// Portal mask
						if chf.areas[ai] != RC_NULL_AREA && lid != alid {
							portal |= 1 << dir
							// Update height so that it matches on both sides of the portal.
							as := &chf.spans[ai]
							if int(as.Y) > hmin {
								layer.Heights[idx] = max(layer.Heights[idx], uint8(int(as.Y)-hmin))
							}
						}
						// Valid connection mask
						if chf.areas[ai] != RC_NULL_AREA && lid == alid {
							nx := ax - borderSize
							ny := ay - borderSize
							if nx >= 0 && ny >= 0 && nx < lw && ny < lh {
								con |= 1 << dir
							}
						}
					}

					layer.Cons[idx] = (portal << 4) | con
				}
			}
		}

		if layer.Minx > layer.Maxx {
			layer.Minx = 0
			layer.Maxx = 0
		}
		if layer.Miny > layer.Maxy {
			layer.Miny = 0
			layer.Maxy = 0
		}
	}

	return lset, nil
}
