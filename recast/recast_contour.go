package recast

import (
	"sort"

	"github.com/gorustyt/recastgo/common"
)

const (
	/// Applied to the region id field of contour vertices in order to extract the region id.
	/// The region id field of a vertex may have several flags applied to it.  So the
	/// fields value can't be used directly.
	/// @see RcContour::Verts, RcContour::RVerts
	RC_CONTOUR_REG_MASK = 0xffff
	/// Area border flag.
	/// If a region ID has this bit set, then the associated element lies on
	/// the border of an area.
	RC_AREA_BORDER = 0x20000
	/// Border vertex flag.
	/// If a region ID has this bit set, then the associated element lies on
	/// a tile border. If a contour vertex's region ID has this bit set, the
	/// vertex will later be removed in order to match the segments and vertices
	/// at tile boundaries.
	RC_BORDER_VERTEX = 0x10000

	rcMaxContourWalk = 40000
)

// RcBuildContoursFlags selects which edges are tessellated by maxEdgeLen.
type RcBuildContoursFlags int

const (
	RC_CONTOUR_TESS_WALL_EDGES RcBuildContoursFlags = 0x01 ///< Tessellate solid (impassable) edges during contour simplification.
	RC_CONTOUR_TESS_AREA_EDGES RcBuildContoursFlags = 0x02 ///< Tessellate edges between areas during contour simplification.

	RcDefaultContourFlags = RC_CONTOUR_TESS_WALL_EDGES
)

// / Represents a simple, non-overlapping contour in field space.
type RcContour struct {
	Verts  []int  ///< Simplified contour vertex and connection data. [Size: 4 * #Nverts]
	RVerts []int  ///< Raw contour vertex and connection data. [Size: 4 * #Nrverts]
	Reg    uint16 ///< The region id of the contour.
	Area   uint8  ///< The area id of the contour.
}

// Nverts is the number of simplified vertices.
func (c *RcContour) Nverts() int { return len(c.Verts) / 4 }

// Nrverts is the number of raw vertices.
func (c *RcContour) Nrverts() int { return len(c.RVerts) / 4 }

// / Represents a group of related contours.
type RcContourSet struct {
	Conts      []*RcContour ///< An array of the contours in the set.
	Bmin       [3]float32   ///< The minimum bounds in world space. [(x, y, z)]
	Bmax       [3]float32   ///< The maximum bounds in world space. [(x, y, z)]
	Cs         float32      ///< The size of each cell. (On the xz-plane.)
	Ch         float32      ///< The height of each cell. (The minimum increment along the y-axis.)
	Width      int          ///< The width of the set. (Along the x-axis in cell units.)
	Height     int          ///< The height of the set. (Along the z-axis in cell units.)
	BorderSize int          ///< The AABB border size used to generate the source data from which the contours were derived.
	MaxError   float32      ///< The max edge error that this contour set was simplified with.
}

func (cset *RcContourSet) Nconts() int { return len(cset.Conts) }

func getCornerHeight(x, z, i, dir int, chf *compactData) (height int, isBorderVertex bool) {
	s := &chf.spans[i]
	height = int(s.Y)
	dirp := (dir + 1) & 0x3

	var regs [4]int

	// Combine region and area codes in order to prevent
	// border vertices which are in between two areas to be removed.
	regs[0] = int(s.reg) | int(chf.areas[i])<<16

	if RcGetCon(s, dir) != RC_NOT_CONNECTED {
		ax, az, ai := chf.neighbour(x, z, dir, s)
		as := &chf.spans[ai]
		height = max(height, int(as.Y))
		regs[1] = int(as.reg) | int(chf.areas[ai])<<16
		if RcGetCon(as, dirp) != RC_NOT_CONNECTED {
			_, _, ai2 := chf.neighbour(ax, az, dirp, as)
			as2 := &chf.spans[ai2]
			height = max(height, int(as2.Y))
			regs[2] = int(as2.reg) | int(chf.areas[ai2])<<16
		}
	}
	if RcGetCon(s, dirp) != RC_NOT_CONNECTED {
		ax, az, ai := chf.neighbour(x, z, dirp, s)
		as := &chf.spans[ai]
		height = max(height, int(as.Y))
		regs[3] = int(as.reg) | int(chf.areas[ai])<<16
		if RcGetCon(as, dir) != RC_NOT_CONNECTED {
			_, _, ai2 := chf.neighbour(ax, az, dir, as)
			as2 := &chf.spans[ai2]
			height = max(height, int(as2.Y))
			regs[2] = int(as2.reg) | int(chf.areas[ai2])<<16
		}
	}

	// Check if the vertex is special edge vertex, these vertices will be removed later.
	for j := 0; j < 4; j++ {
		a := j
		b := (j + 1) & 0x3
		c := (j + 2) & 0x3
		d := (j + 3) & 0x3

		// The vertex is a border vertex there are two same exterior cells in a row,
		// followed by two interior cells and none of the regions are out of bounds.
		twoSameExts := (regs[a]&regs[b]&RC_BORDER_REG) != 0 && regs[a] == regs[b]
		twoInts := ((regs[c] | regs[d]) & RC_BORDER_REG) == 0
		intsSameArea := (regs[c] >> 16) == (regs[d] >> 16)
		noZeros := regs[a] != 0 && regs[b] != 0 && regs[c] != 0 && regs[d] != 0
		if twoSameExts && twoInts && intsSameArea && noZeros {
			isBorderVertex = true
			break
		}
	}
	return height, isBorderVertex
}

// walkContour follows the unvisited boundary edges of span i clockwise and
// appends (x, y, z, flags) tuples to points.
func walkContour(x, z, i int, chf *compactData, flags []uint8, points *Stack[int]) {
	// Choose the first non-connected edge
	dir := 0
	for flags[i]&(1<<dir) == 0 {
		dir++
	}

	startDir := dir
	starti := i

	area := chf.areas[i]

	for iter := 0; iter < rcMaxContourWalk; iter++ {
		if flags[i]&(1<<dir) != 0 {
			// Choose the edge corner
			px := x
			py, isBorderVertex := getCornerHeight(x, z, i, dir, chf)
			pz := z
			switch dir {
			case 0:
				pz++
			case 1:
				px++
				pz++
			case 2:
				px++
			}
			r := 0
			isAreaBorder := false
			s := &chf.spans[i]
			if RcGetCon(s, dir) != RC_NOT_CONNECTED {
				_, _, ai := chf.neighbour(x, z, dir, s)
				r = int(chf.spans[ai].reg)
				isAreaBorder = area != chf.areas[ai]
			}
			if isBorderVertex {
				r |= RC_BORDER_VERTEX
			}
			if isAreaBorder {
				r |= RC_AREA_BORDER
			}
			points.Push(px)
			points.Push(py)
			points.Push(pz)
			points.Push(r)

			flags[i] &^= 1 << dir // Remove visited edges
			dir = (dir + 1) & 0x3 // Rotate CW
		} else {
			s := &chf.spans[i]
			if RcGetCon(s, dir) == RC_NOT_CONNECTED {
				// Should not happen.
				return
			}
			x, z, i = chf.neighbour(x, z, dir, s)
			dir = (dir + 3) & 0x3 // Rotate CCW
		}

		if starti == i && startDir == dir {
			break
		}
	}
}

func contourDistancePtSeg(x, z, px, pz, qx, qz int) float32 {
	pqx := float32(qx - px)
	pqz := float32(qz - pz)
	dx := float32(x - px)
	dz := float32(z - pz)
	d := pqx*pqx + pqz*pqz
	t := pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	t = common.Clamp(t, 0, 1)

	dx = float32(px) + t*pqx - float32(x)
	dz = float32(pz) + t*pqz - float32(z)
	return dx*dx + dz*dz
}

// insertSimplified puts raw point rawIndex after simplified vertex i.
func insertSimplified(simplified *Stack[int], points *Stack[int], i, rawIndex int) {
	simplified.Resize(simplified.Len() + 4)
	data := simplified.Data()
	copy(data[(i+2)*4:], data[(i+1)*4:len(data)-4])
	data[(i+1)*4+0] = points.Index(rawIndex*4 + 0)
	data[(i+1)*4+1] = points.Index(rawIndex*4 + 1)
	data[(i+1)*4+2] = points.Index(rawIndex*4 + 2)
	data[(i+1)*4+3] = rawIndex
}

// simplifyContour reduces the raw trace in points to the mandatory vertices
// plus whatever is needed to stay within maxError and maxEdgeLen. While
// running, the fourth component of each simplified vertex is the raw index
// it came from; on return it holds the vertex flags.
func simplifyContour(points, simplified *Stack[int], maxError float32, maxEdgeLen int, buildFlags RcBuildContoursFlags) {
	pn := points.Len() / 4

	// Add initial points.
	hasConnections := false
	for i := 0; i < pn; i++ {
		if points.Index(i*4+3)&RC_CONTOUR_REG_MASK != 0 {
			hasConnections = true
			break
		}
	}

	if hasConnections {
		// The contour has some portals to other regions.
		// Add a new point to every location where the region changes.
		for i := 0; i < pn; i++ {
			ii := (i + 1) % pn
			differentRegs := points.Index(i*4+3)&RC_CONTOUR_REG_MASK != points.Index(ii*4+3)&RC_CONTOUR_REG_MASK
			areaBorders := points.Index(i*4+3)&RC_AREA_BORDER != points.Index(ii*4+3)&RC_AREA_BORDER
			if differentRegs || areaBorders {
				simplified.Push(points.Index(i*4 + 0))
				simplified.Push(points.Index(i*4 + 1))
				simplified.Push(points.Index(i*4 + 2))
				simplified.Push(i)
			}
		}
	}

	if simplified.Empty() {
		// If there is no connections at all,
		// create some initial points for the simplification process.
		// Find lower-left and upper-right vertices of the contour.
		lli, uri := 0, 0
		for i := 1; i < pn; i++ {
			x := points.Index(i*4 + 0)
			z := points.Index(i*4 + 2)
			llx, llz := points.Index(lli*4+0), points.Index(lli*4+2)
			urx, urz := points.Index(uri*4+0), points.Index(uri*4+2)
			if x < llx || (x == llx && z < llz) {
				lli = i
			}
			if x > urx || (x == urx && z > urz) {
				uri = i
			}
		}
		for _, idx := range [2]int{lli, uri} {
			simplified.Push(points.Index(idx*4 + 0))
			simplified.Push(points.Index(idx*4 + 1))
			simplified.Push(points.Index(idx*4 + 2))
			simplified.Push(idx)
		}
	}

	// Add points until all raw points are within
	// error tolerance to the simplified shape.
	for i := 0; i < simplified.Len()/4; {
		ii := (i + 1) % (simplified.Len() / 4)

		ax := simplified.Index(i*4 + 0)
		az := simplified.Index(i*4 + 2)
		ai := simplified.Index(i*4 + 3)

		bx := simplified.Index(ii*4 + 0)
		bz := simplified.Index(ii*4 + 2)
		bi := simplified.Index(ii*4 + 3)

		// Find maximum deviation from the segment.
		var maxd float32
		maxi := -1
		var ci, cinc, endi int

		// Traverse the segment in lexilogical order so that the
		// max deviation is calculated similarly when traversing
		// opposite segments.
		if bx > ax || (bx == ax && bz > az) {
			cinc = 1
			ci = (ai + cinc) % pn
			endi = bi
		} else {
			cinc = pn - 1
			ci = (bi + cinc) % pn
			endi = ai
			ax, bx = bx, ax
			az, bz = bz, az
		}

		// Tessellate only outer edges or edges between areas.
		if points.Index(ci*4+3)&RC_CONTOUR_REG_MASK == 0 || points.Index(ci*4+3)&RC_AREA_BORDER != 0 {
			for ci != endi {
				d := contourDistancePtSeg(points.Index(ci*4+0), points.Index(ci*4+2), ax, az, bx, bz)
				if d > maxd {
					maxd = d
					maxi = ci
				}
				ci = (ci + cinc) % pn
			}
		}

		// If the max deviation is larger than accepted error,
		// add new point, else continue to next segment.
		if maxi != -1 && maxd > maxError*maxError {
			insertSimplified(simplified, points, i, maxi)
		} else {
			i++
		}
	}

	// Split too long edges.
	if maxEdgeLen > 0 && buildFlags&(RC_CONTOUR_TESS_WALL_EDGES|RC_CONTOUR_TESS_AREA_EDGES) != 0 {
		for i := 0; i < simplified.Len()/4; {
			ii := (i + 1) % (simplified.Len() / 4)

			ax := simplified.Index(i*4 + 0)
			az := simplified.Index(i*4 + 2)
			ai := simplified.Index(i*4 + 3)

			bx := simplified.Index(ii*4 + 0)
			bz := simplified.Index(ii*4 + 2)
			bi := simplified.Index(ii*4 + 3)

			maxi := -1
			ci := (ai + 1) % pn

			tess := false
			// Wall edges.
			if buildFlags&RC_CONTOUR_TESS_WALL_EDGES != 0 && points.Index(ci*4+3)&RC_CONTOUR_REG_MASK == 0 {
				tess = true
			}
			// Edges between areas.
			if buildFlags&RC_CONTOUR_TESS_AREA_EDGES != 0 && points.Index(ci*4+3)&RC_AREA_BORDER != 0 {
				tess = true
			}

			if tess {
				dx := bx - ax
				dz := bz - az
				if dx*dx+dz*dz > maxEdgeLen*maxEdgeLen {
					// Round based on the segments in lexilogical order so that the
					// max tesselation is consistent regardless in which direction
					// segments are traversed.
					n := bi - ai
					if bi < ai {
						n = bi + pn - ai
					}
					if n > 1 {
						if bx > ax || (bx == ax && bz > az) {
							maxi = (ai + n/2) % pn
						} else {
							maxi = (ai + (n+1)/2) % pn
						}
					}
				}
			}

			if maxi != -1 {
				insertSimplified(simplified, points, i, maxi)
			} else {
				i++
			}
		}
	}

	for i := 0; i < simplified.Len()/4; i++ {
		// The edge vertex flag is take from the current raw point,
		// and the neighbour region is take from the next raw point.
		ai := (simplified.Index(i*4+3) + 1) % pn
		bi := simplified.Index(i*4 + 3)
		v := points.Index(ai*4+3)&(RC_CONTOUR_REG_MASK|RC_AREA_BORDER) | points.Index(bi*4+3)&RC_BORDER_VERTEX
		simplified.SetByIndex(i*4+3, v)
	}
}

// removeDegenerateSegments drops adjacent vertices which are equal on the
// xz-plane, or else the triangulator will get confused.
func removeDegenerateSegments(simplified *Stack[int]) {
	npts := simplified.Len() / 4
	for i := 0; i < npts; i++ {
		ni := common.Next(i, npts)
		if common.Vequal2D(common.GetVert4(simplified.Data(), i), common.GetVert4(simplified.Data(), ni)) {
			data := simplified.Data()
			copy(data[i*4:], data[(i+1)*4:])
			simplified.Resize(simplified.Len() - 4)
			npts--
		}
	}
}

func calcAreaOfPolygon2D(verts []int) int {
	nverts := len(verts) / 4
	area := 0
	for i, j := 0, nverts-1; i < nverts; j, i = i, i+1 {
		vi := common.GetVert4(verts, i)
		vj := common.GetVert4(verts, j)
		area += vi[0]*vj[2] - vj[0]*vi[2]
	}
	return (area + 1) / 2
}

func contourInCone(i int, verts []int, pj []int) bool {
	n := len(verts) / 4
	pi := common.GetVert4(verts, i)
	pi1 := common.GetVert4(verts, common.Next(i, n))
	pin1 := common.GetVert4(verts, common.Prev(i, n))

	// If P[i] is a convex vertex [ i+1 left or on (i-1,i) ].
	if common.LeftOn(pin1, pi, pi1) {
		return common.Left(pi, pj, pin1) && common.Left(pj, pi, pi1)
	}
	// Assume (i-1,i,i+1) not collinear.
	// else P[i] is reflex.
	return !(common.LeftOn(pi, pj, pi1) && common.LeftOn(pj, pi, pin1))
}

func intersectSegContour(d0, d1 []int, i int, verts []int) bool {
	n := len(verts) / 4
	// For each edge (k,k+1) of P
	for k := 0; k < n; k++ {
		k1 := common.Next(k, n)
		// Skip edges incident to i.
		if i == k || i == k1 {
			continue
		}
		p0 := common.GetVert4(verts, k)
		p1 := common.GetVert4(verts, k1)
		if common.Vequal2D(d0, p0) || common.Vequal2D(d1, p0) || common.Vequal2D(d0, p1) || common.Vequal2D(d1, p1) {
			continue
		}
		if common.Intersect(d0, d1, p0, p1) {
			return true
		}
	}
	return false
}

// mergeContours splices cb into ca through the diagonal (ia, ib), leaving
// cb empty.
func mergeContours(ca, cb *RcContour, ia, ib int) {
	na := ca.Nverts()
	nb := cb.Nverts()
	verts := make([]int, 0, (na+nb+2)*4)

	// Copy contour A.
	for i := 0; i <= na; i++ {
		verts = append(verts, common.GetVert4(ca.Verts, (ia+i)%na)...)
	}
	// Copy contour B
	for i := 0; i <= nb; i++ {
		verts = append(verts, common.GetVert4(cb.Verts, (ib+i)%nb)...)
	}

	ca.Verts = verts
	cb.Verts = nil
}

type rcContourHole struct {
	contour              *RcContour
	minx, minz, leftmost int
}

type rcContourRegion struct {
	outline *RcContour
	holes   []*rcContourHole
}

type rcPotentialDiagonal struct {
	vert int
	dist int
}

// Finds the lowest leftmost vertex of a contour.
func findLeftMostVertex(contour *RcContour) (minx, minz, leftmost int) {
	minx = contour.Verts[0]
	minz = contour.Verts[2]
	for i := 1; i < contour.Nverts(); i++ {
		x := contour.Verts[i*4+0]
		z := contour.Verts[i*4+2]
		if x < minx || (x == minx && z < minz) {
			minx = x
			minz = z
			leftmost = i
		}
	}
	return
}

func mergeRegionHoles(ctx *RcContext, region *rcContourRegion) {
	// Sort holes from left to right.
	for _, hole := range region.holes {
		hole.minx, hole.minz, hole.leftmost = findLeftMostVertex(hole.contour)
	}
	sort.SliceStable(region.holes, func(i, j int) bool {
		a, b := region.holes[i], region.holes[j]
		if a.minx == b.minx {
			return a.minz < b.minz
		}
		return a.minx < b.minx
	})

	outline := region.outline
	var diags []rcPotentialDiagonal

	// Merge holes into the outline one by one.
	for i, h := range region.holes {
		hole := h.contour

		index := -1
		bestVertex := h.leftmost
		for iter := 0; iter < hole.Nverts(); iter++ {
			// Find potential diagonals.
			// The 'best' vertex must be in the cone described by 3 consecutive vertices of the outline.
			// ..o j-1
			//   |
			//   |   * best
			//   |
			// j o-----o j+1
			//         :
			diags = diags[:0]
			corner := common.GetVert4(hole.Verts, bestVertex)
			for j := 0; j < outline.Nverts(); j++ {
				if contourInCone(j, outline.Verts, corner) {
					dx := outline.Verts[j*4+0] - corner[0]
					dz := outline.Verts[j*4+2] - corner[2]
					diags = append(diags, rcPotentialDiagonal{vert: j, dist: dx*dx + dz*dz})
				}
			}
			// Sort potential diagonals by distance, we want to make the connection as short as possible.
			sort.SliceStable(diags, func(a, b int) bool { return diags[a].dist < diags[b].dist })

			// Find a diagonal that is not intersecting the outline not the remaining holes.
			index = -1
			for _, diag := range diags {
				pt := common.GetVert4(outline.Verts, diag.vert)
				intersect := intersectSegContour(pt, corner, diag.vert, outline.Verts)
				for k := i; k < len(region.holes) && !intersect; k++ {
					intersect = intersectSegContour(pt, corner, -1, region.holes[k].contour.Verts)
				}
				if !intersect {
					index = diag.vert
					break
				}
			}
			// If found non-intersecting diagonal, stop looking.
			if index != -1 {
				break
			}
			// All the potential diagonals for the current vertex were intersecting, try next vertex.
			bestVertex = (bestVertex + 1) % hole.Nverts()
		}

		if index == -1 {
			ctx.Log(RC_LOG_WARNING, "mergeHoles: Failed to find merge points for %d hole vertices.", hole.Nverts())
			continue
		}
		mergeContours(region.outline, hole, index, bestVertex)
	}
}

// / Builds a contour set from the region outlines in the provided compact heightfield.
// /
// / The raw contours will match the region outlines exactly. The @p maxError and @p maxEdgeLen
// / parameters control how closely the simplified contours will match the raw contours.
// /
// / Simplified contours are generated such that the vertices for portals between areas match up.
// / (They are considered mandatory vertices.)
// /
// / Setting @p maxEdgeLen to zero will disabled the edge length feature.
// /
// / @param[in]		ctx			The build context to use during the operation.
// / @param[in]		chf			A fully built compact heightfield.
// / @param[in]		maxError	The maximum distance a simplified contour's border edges should deviate
// / 							the original raw contour. [Limit: >=0] [Units: wu]
// / @param[in]		maxEdgeLen	The maximum allowed length for contour edges along the border of the mesh.
// / 							[Limit: >=0] [Units: vx]
// / @param[in]		buildFlags	The build flags. (See: #RcBuildContoursFlags)
func RcBuildContours(ctx *RcContext, rhf *RcRegionHeightfield,
	maxError float32, maxEdgeLen int, buildFlags RcBuildContoursFlags) (*RcContourSet, error) {
	chf := rhf.compact()
	w := chf.width
	h := chf.height
	borderSize := chf.borderSize

	defer ctx.ScopedTimer(RC_TIMER_BUILD_CONTOURS)()

	cset := &RcContourSet{
		Bmin:       chf.bmin,
		Bmax:       chf.bmax,
		Cs:         chf.cs,
		Ch:         chf.ch,
		Width:      chf.width - borderSize*2,
		Height:     chf.height - borderSize*2,
		BorderSize: borderSize,
		MaxError:   maxError,
	}
	if borderSize > 0 {
		// If the heightfield was build with bordersize, remove the offset.
		pad := float32(borderSize) * chf.cs
		cset.Bmin[0] += pad
		cset.Bmin[2] += pad
		cset.Bmax[0] -= pad
		cset.Bmax[2] -= pad
	}
	cset.Conts = make([]*RcContour, 0, max(int(chf.maxRegions), 8))

	flags := make([]uint8, chf.spanCount)

	ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_TRACE)

	// Mark boundaries.
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			begin, end := chf.ColumnSpans(x, z)
			for i := begin; i < end; i++ {
				s := &chf.spans[i]
				if s.reg == 0 || s.reg&RC_BORDER_REG != 0 {
					flags[i] = 0
					continue
				}
				var res uint8
				for dir := 0; dir < 4; dir++ {
					var r uint16
					if RcGetCon(s, dir) != RC_NOT_CONNECTED {
						_, _, ai := chf.neighbour(x, z, dir, s)
						r = chf.spans[ai].reg
					}
					if r == s.reg {
						res |= 1 << dir
					}
				}
				flags[i] = res ^ 0xf // Inverse, mark non connected edges.
			}
		}
	}

	ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_TRACE)

	verts := NewStack[int](256)
	simplified := NewStack[int](64)

	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			begin, end := chf.ColumnSpans(x, z)
			for i := begin; i < end; i++ {
				if flags[i] == 0 || flags[i] == 0xf {
					flags[i] = 0
					continue
				}
				reg := chf.spans[i].reg
				if reg == 0 || reg&RC_BORDER_REG != 0 {
					continue
				}
				area := chf.areas[i]

				verts.Clear()
				simplified.Clear()

				ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_TRACE)
				walkContour(x, z, i, chf, flags, verts)
				ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_TRACE)

				ctx.StartTimer(RC_TIMER_BUILD_CONTOURS_SIMPLIFY)
				simplifyContour(verts, simplified, maxError, maxEdgeLen, buildFlags)
				removeDegenerateSegments(simplified)
				ctx.StopTimer(RC_TIMER_BUILD_CONTOURS_SIMPLIFY)

				// Create contour.
				if simplified.Len()/4 < 3 {
					continue
				}
				cont := &RcContour{
					Verts:  append([]int(nil), simplified.Data()...),
					RVerts: append([]int(nil), verts.Data()...),
					Reg:    reg,
					Area:   area,
				}
				if borderSize > 0 {
					// If the heightfield was build with bordersize, remove the offset.
					for j := 0; j < cont.Nverts(); j++ {
						cont.Verts[j*4+0] -= borderSize
						cont.Verts[j*4+2] -= borderSize
					}
					for j := 0; j < cont.Nrverts(); j++ {
						cont.RVerts[j*4+0] -= borderSize
						cont.RVerts[j*4+2] -= borderSize
					}
				}
				cset.Conts = append(cset.Conts, cont)
			}
		}
	}

	mergeContourHoles(ctx, cset, int(chf.maxRegions))
	return cset, nil
}

// mergeContourHoles folds every backwards wound contour into the outline
// of its region.
func mergeContourHoles(ctx *RcContext, cset *RcContourSet, maxRegions int) {
	if len(cset.Conts) == 0 {
		return
	}
	// Calculate winding of all polygons.
	holes := make([]bool, len(cset.Conts))
	nholes := 0
	for i, cont := range cset.Conts {
		// If the contour is wound backwards, it is a hole.
		if calcAreaOfPolygon2D(cont.Verts) < 0 {
			holes[i] = true
			nholes++
		}
	}
	if nholes == 0 {
		return
	}

	// Collect outline contour and holes contours per region.
	// We assume that there is one outline and multiple holes.
	regions := make([]rcContourRegion, maxRegions+1)
	for i, cont := range cset.Conts {
		reg := &regions[cont.Reg]
		if !holes[i] {
			if reg.outline != nil {
				ctx.Log(RC_LOG_ERROR, "rcBuildContours: Multiple outlines for region %d.", cont.Reg)
			}
			reg.outline = cont
		} else {
			reg.holes = append(reg.holes, &rcContourHole{contour: cont})
		}
	}

	// Finally merge each regions holes into the outline.
	for i := range regions {
		reg := &regions[i]
		if len(reg.holes) == 0 {
			continue
		}
		if reg.outline != nil {
			mergeRegionHoles(ctx, reg)
		} else {
			// The region does not have an outline.
			// This can happen if the contour becomes selfoverlapping because of
			// too aggressive simplification settings.
			ctx.Log(RC_LOG_ERROR, "rcBuildContours: Bad outline for region %d, contour simplification is likely too aggressive.", i)
		}
	}

	// Drop the holes that were merged away.
	kept := cset.Conts[:0]
	for _, cont := range cset.Conts {
		if cont.Nverts() > 0 {
			kept = append(kept, cont)
		}
	}
	cset.Conts = kept
}
