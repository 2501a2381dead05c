package recast

import (
	"math"

	"github.com/gorustyt/recastgo/common"
)

const (
	VERTEX_BUCKET_COUNT = 1 << 12
	/// Represents the null index. When a vertex or neighbour slot of a polygon
	/// is unused it holds this value.
	RC_MESH_NULL_IDX = 0xffff
	/// Polygon touches multiple regions.
	/// If a polygon has this region ID it was merged with or created
	/// from polygons of different regions during the polymesh
	/// build step that removes redundant border vertices.
	RC_MULTIPLE_REGS = 0
	/// Neighbour slots with this bit set are portals to an adjacent tile; the
	/// low nibble holds the side (0: x-, 1: z+, 2: x+, 3: z-).
	RC_PORTAL_FLAG = 0x8000
)

// / Represents a polygon mesh suitable for use in building a navigation mesh.
type RcPolyMesh struct {
	Verts        []uint16   ///< The mesh vertices. [Form: (x, y, z) * #Nverts]
	Polys        []uint16   ///< Polygon and neighbor data. [Length: #Npolys * 2 * #Nvp]
	Regs         []uint16   ///< The region id assigned to each polygon. [Length: #Npolys]
	Flags        []uint16   ///< The user defined flags for each polygon. [Length: #Npolys]
	Areas        []uint8    ///< The area id assigned to each polygon. [Length: #Npolys]
	Nverts       int        ///< The number of vertices.
	Npolys       int        ///< The number of polygons.
	Nvp          int        ///< The maximum number of vertices per polygon.
	Bmin         [3]float32 ///< The minimum bounds in world space. [(x, y, z)]
	Bmax         [3]float32 ///< The maximum bounds in world space. [(x, y, z)]
	Cs           float32    ///< The size of each cell. (On the xz-plane.)
	Ch           float32    ///< The height of each cell. (The minimum increment along the y-axis.)
	BorderSize   int        ///< The AABB border size used to generate the source data from which the mesh was derived.
	MaxEdgeError float32    ///< The max error of the polygon edges in the mesh.
}

// Poly returns the 2*Nvp slots of polygon i: vertex indices then neighbours.
func (m *RcPolyMesh) Poly(i int) []uint16 {
	return m.Polys[i*2*m.Nvp : (i+1)*2*m.Nvp]
}

// PolyVerts returns the used vertex indices of polygon i.
func (m *RcPolyMesh) PolyVerts(i int) []uint16 {
	p := m.Poly(i)
	return p[:countPolyVerts(p, m.Nvp)]
}

// PolyNeighbours returns the neighbour slots matching PolyVerts(i). Entry j
// describes the edge from vertex j to vertex j+1.
func (m *RcPolyMesh) PolyNeighbours(i int) []uint16 {
	p := m.Poly(i)
	return p[m.Nvp : m.Nvp+countPolyVerts(p, m.Nvp)]
}

// Vert returns vertex i in cell coordinates.
func (m *RcPolyMesh) Vert(i int) []uint16 {
	return m.Verts[i*3 : i*3+3]
}

// polyMeshWork is the int-typed working copy used while polygons are
// merged and border vertices removed.
type polyMeshWork struct {
	verts []int // 3 per vertex
	polys []int // 2*nvp per polygon
	regs  []int
	areas []uint8
	nvp   int
}

func (w *polyMeshWork) nverts() int { return len(w.verts) / 3 }
func (w *polyMeshWork) npolys() int { return len(w.regs) }
func (w *polyMeshWork) poly(i int) []int {
	return w.polys[i*2*w.nvp : (i+1)*2*w.nvp]
}

// appendPoly adds a polygon whose vertex slots are copied from verts, with
// every neighbour slot cleared.
func (w *polyMeshWork) appendPoly(verts []int, reg int, area uint8) {
	for j := 0; j < w.nvp; j++ {
		w.polys = append(w.polys, verts[j])
	}
	for j := 0; j < w.nvp; j++ {
		w.polys = append(w.polys, RC_MESH_NULL_IDX)
	}
	w.regs = append(w.regs, reg)
	w.areas = append(w.areas, area)
}

// removePoly replaces polygon i by the last one.
func (w *polyMeshWork) removePoly(i int) {
	last := w.npolys() - 1
	if i != last {
		copy(w.poly(i), w.poly(last))
		w.regs[i] = w.regs[last]
		w.areas[i] = w.areas[last]
	}
	w.polys = w.polys[:last*2*w.nvp]
	w.regs = w.regs[:last]
	w.areas = w.areas[:last]
}

type rcEdge struct {
	vert     [2]int
	polyEdge [2]int
	poly     [2]int
}

func buildMeshAdjacency(polys []int, npolys, nverts, vertsPerPoly int) {
	// Based on code by Eric Lengyel from:
	// https://web.archive.org/web/20080704083314/http://www.terathon.com/code/edges.php

	maxEdgeCount := npolys * vertsPerPoly
	firstEdge := make([]int, nverts)
	nextEdge := make([]int, maxEdgeCount)
	edges := make([]rcEdge, 0, maxEdgeCount)
	for i := range firstEdge {
		firstEdge[i] = RC_MESH_NULL_IDX
	}

	stride := vertsPerPoly * 2
	edgeVerts := func(t []int, j int) (int, int) {
		v0 := t[j]
		if j+1 >= vertsPerPoly || t[j+1] == RC_MESH_NULL_IDX {
			return v0, t[0]
		}
		return v0, t[j+1]
	}

	for i := 0; i < npolys; i++ {
		t := polys[i*stride : (i+1)*stride]
		for j := 0; j < vertsPerPoly; j++ {
			if t[j] == RC_MESH_NULL_IDX {
				break
			}
			v0, v1 := edgeVerts(t, j)
			if v0 < v1 {
				// Insert edge
				nextEdge[len(edges)] = firstEdge[v0]
				firstEdge[v0] = len(edges)
				edges = append(edges, rcEdge{
					vert:     [2]int{v0, v1},
					poly:     [2]int{i, i},
					polyEdge: [2]int{j, 0},
				})
			}
		}
	}

	for i := 0; i < npolys; i++ {
		t := polys[i*stride : (i+1)*stride]
		for j := 0; j < vertsPerPoly; j++ {
			if t[j] == RC_MESH_NULL_IDX {
				break
			}
			v0, v1 := edgeVerts(t, j)
			if v0 > v1 {
				for e := firstEdge[v1]; e != RC_MESH_NULL_IDX; e = nextEdge[e] {
					edge := &edges[e]
					if edge.vert[1] == v0 && edge.poly[0] == edge.poly[1] {
						edge.poly[1] = i
						edge.polyEdge[1] = j
						break
					}
				}
			}
		}
	}

	// Store adjacency
	for _, e := range edges {
		if e.poly[0] != e.poly[1] {
			p0 := polys[e.poly[0]*stride:]
			p1 := polys[e.poly[1]*stride:]
			p0[vertsPerPoly+e.polyEdge[0]] = e.poly[1]
			p1[vertsPerPoly+e.polyEdge[1]] = e.poly[0]
		}
	}
}

func computeVertexHash(x, y, z int) int {
	const h1 = 0x8da6b343 // Large multiplicative constants;
	const h2 = 0xd8163841 // here arbitrarily chosen primes
	const h3 = 0xcb1ab31f
	n := h1*uint32(x) + h2*uint32(y) + h3*uint32(z)
	return int(n & (VERTEX_BUCKET_COUNT - 1))
}

// vertexWelder merges vertices that share x/z and lie within 2 cells in y.
type vertexWelder struct {
	firstVert [VERTEX_BUCKET_COUNT]int
	nextVert  []int
}

func newVertexWelder() *vertexWelder {
	w := &vertexWelder{}
	for i := range w.firstVert {
		w.firstVert[i] = -1
	}
	return w
}

// addVertex returns the index of (x, y, z) in *verts, appending it when no
// matching vertex exists.
func (w *vertexWelder) addVertex(x, y, z int, verts *[]int) int {
	bucket := computeVertexHash(x, 0, z)
	for i := w.firstVert[bucket]; i != -1; i = w.nextVert[i] {
		v := (*verts)[i*3:]
		if v[0] == x && common.Abs(v[1]-y) <= 2 && v[2] == z {
			return i
		}
	}

	// Could not find, create new.
	i := len(*verts) / 3
	*verts = append(*verts, x, y, z)
	w.nextVert = append(w.nextVert, w.firstVert[bucket])
	w.firstVert[bucket] = i
	return i
}

func countPolyVerts[T int | uint16](p []T, nvp int) int {
	for i := 0; i < nvp; i++ {
		if p[i] == RC_MESH_NULL_IDX {
			return i
		}
	}
	return nvp
}

func uleft(a, b, c []int) bool {
	return (b[0]-a[0])*(c[2]-a[2])-(c[0]-a[0])*(b[2]-a[2]) < 0
}

// getPolyMergeValue returns the squared length of the shared edge of pa and
// pb, or -1 when they cannot merge into a convex polygon of at most nvp
// vertices. ea and eb are the shared edge indices.
func getPolyMergeValue(pa, pb []int, verts []int, nvp int) (value, ea, eb int) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	// If the merged polygon would be too big, do not merge.
	if na+nb-2 > nvp {
		return -1, -1, -1
	}

	// Check if the polygons share an edge.
	ea, eb = -1, -1
	for i := 0; i < na && ea == -1; i++ {
		va0 := pa[i]
		va1 := pa[(i+1)%na]
		if va0 > va1 {
			va0, va1 = va1, va0
		}
		for j := 0; j < nb; j++ {
			vb0 := pb[j]
			vb1 := pb[(j+1)%nb]
			if vb0 > vb1 {
				vb0, vb1 = vb1, vb0
			}
			if va0 == vb0 && va1 == vb1 {
				ea = i
				eb = j
				break
			}
		}
	}

	// No common edge, cannot merge.
	if ea == -1 || eb == -1 {
		return -1, -1, -1
	}

	// Check to see if the merged polygon would be convex.
	vert := func(i int) []int { return verts[i*3 : i*3+3] }

	va := pa[(ea+na-1)%na]
	vb := pa[ea]
	vc := pb[(eb+2)%nb]
	if !uleft(vert(va), vert(vb), vert(vc)) {
		return -1, -1, -1
	}

	va = pb[(eb+nb-1)%nb]
	vb = pb[eb]
	vc = pa[(ea+2)%na]
	if !uleft(vert(va), vert(vb), vert(vc)) {
		return -1, -1, -1
	}

	va = pa[ea]
	vb = pa[(ea+1)%na]

	dx := verts[va*3+0] - verts[vb*3+0]
	dz := verts[va*3+2] - verts[vb*3+2]
	return dx*dx + dz*dz, ea, eb
}

// mergePolyVerts writes the union of pa and pb, joined along (ea, eb),
// into pa.
func mergePolyVerts(pa, pb []int, ea, eb int, tmp []int, nvp int) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	for i := 0; i < nvp; i++ {
		tmp[i] = RC_MESH_NULL_IDX
	}
	// Merge polygons.
	n := 0
	// Add pa
	for i := 0; i < na-1; i++ {
		tmp[n] = pa[(ea+1+i)%na]
		n++
	}
	// Add pb
	for i := 0; i < nb-1; i++ {
		tmp[n] = pb[(eb+1+i)%nb]
		n++
	}
	copy(pa[:nvp], tmp[:nvp])
}

// mergeConvexPolys greedily merges the polygons in polys (nvp slots each)
// by longest shared edge. regs is updated alongside when not nil.
func mergeConvexPolys(polys []int, npolys int, verts []int, nvp int, regs []int, areas []uint8) int {
	tmpPoly := make([]int, nvp)
	for {
		// Find best polygons to merge.
		bestMergeVal := 0
		bestPa, bestPb, bestEa, bestEb := 0, 0, 0, 0
		for j := 0; j < npolys-1; j++ {
			pj := polys[j*nvp : (j+1)*nvp]
			for k := j + 1; k < npolys; k++ {
				pk := polys[k*nvp : (k+1)*nvp]
				v, ea, eb := getPolyMergeValue(pj, pk, verts, nvp)
				if v > bestMergeVal {
					bestMergeVal = v
					bestPa = j
					bestPb = k
					bestEa = ea
					bestEb = eb
				}
			}
		}
		if bestMergeVal <= 0 {
			// Could not merge any polygons, stop.
			return npolys
		}

		// Found best, merge.
		pa := polys[bestPa*nvp : (bestPa+1)*nvp]
		pb := polys[bestPb*nvp : (bestPb+1)*nvp]
		mergePolyVerts(pa, pb, bestEa, bestEb, tmpPoly, nvp)
		if regs != nil && regs[bestPa] != regs[bestPb] {
			regs[bestPa] = RC_MULTIPLE_REGS
		}
		last := npolys - 1
		if bestPb != last {
			copy(pb, polys[last*nvp:(last+1)*nvp])
			if regs != nil {
				regs[bestPb] = regs[last]
				areas[bestPb] = areas[last]
			}
		}
		npolys--
	}
}

func canRemoveVertex(mesh *polyMeshWork, rem int) bool {
	nvp := mesh.nvp

	// Count number of polygons to remove.
	numTouchedVerts := 0
	numRemainingEdges := 0
	for i := 0; i < mesh.npolys(); i++ {
		p := mesh.poly(i)
		nv := countPolyVerts(p, nvp)
		numRemoved := 0
		numVerts := 0
		for j := 0; j < nv; j++ {
			if p[j] == rem {
				numTouchedVerts++
				numRemoved++
			}
			numVerts++
		}
		if numRemoved > 0 {
			numRemainingEdges += numVerts - (numRemoved + 1)
		}
	}

	// There would be too few edges remaining to create a polygon.
	// This can happen for example when a tip of a triangle is marked
	// as deletion, but there are no other polys that share the vertex.
	// In this case, the vertex should not be removed.
	if numRemainingEdges <= 2 {
		return false
	}

	// Find edges which share the removed vertex.
	edges := make([][3]int, 0, numTouchedVerts*2)
	for i := 0; i < mesh.npolys(); i++ {
		p := mesh.poly(i)
		nv := countPolyVerts(p, nvp)

		// Collect edges which touches the removed vertex.
		for j, k := 0, nv-1; j < nv; k, j = j, j+1 {
			if p[j] != rem && p[k] != rem {
				continue
			}
			// Arrange edge so that a=rem.
			a, b := p[j], p[k]
			if b == rem {
				a, b = b, a
			}

			// Check if the edge exists
			exists := false
			for m := range edges {
				if edges[m][1] == b {
					// Exists, increment vertex share count.
					edges[m][2]++
					exists = true
				}
			}
			// Add new edge.
			if !exists {
				edges = append(edges, [3]int{a, b, 1})
			}
		}
	}

	// There should be no more than 2 open edges.
	// This catches the case that two non-adjacent polygons
	// share the removed vertex. In that case, do not remove the vertex.
	numOpenEdges := 0
	for _, e := range edges {
		if e[2] < 2 {
			numOpenEdges++
		}
	}
	return numOpenEdges <= 2
}

// removeVertex deletes vertex rem, retriangulates the hole it leaves and
// merges the result back into convex polygons.
func removeVertex(ctx *RcContext, mesh *polyMeshWork, rem int) {
	nvp := mesh.nvp

	// edge: a, b, region, area
	type holeEdge struct {
		a, b, reg int
		area      uint8
	}
	var edges []holeEdge

	for i := 0; i < mesh.npolys(); i++ {
		p := mesh.poly(i)
		nv := countPolyVerts(p, nvp)
		hasRem := false
		for j := 0; j < nv; j++ {
			if p[j] == rem {
				hasRem = true
			}
		}
		if !hasRem {
			continue
		}
		// Collect edges which does not touch the removed vertex.
		for j, k := 0, nv-1; j < nv; k, j = j, j+1 {
			if p[j] != rem && p[k] != rem {
				edges = append(edges, holeEdge{a: p[k], b: p[j], reg: mesh.regs[i], area: mesh.areas[i]})
			}
		}
		// Remove the polygon.
		mesh.removePoly(i)
		i--
	}

	// Remove vertex.
	mesh.verts = append(mesh.verts[:rem*3], mesh.verts[(rem+1)*3:]...)

	// Adjust indices to match the removed vertex layout.
	for i := 0; i < mesh.npolys(); i++ {
		p := mesh.poly(i)
		nv := countPolyVerts(p, nvp)
		for j := 0; j < nv; j++ {
			if p[j] > rem {
				p[j]--
			}
		}
	}
	for i := range edges {
		if edges[i].a > rem {
			edges[i].a--
		}
		if edges[i].b > rem {
			edges[i].b--
		}
	}

	if len(edges) == 0 {
		return
	}

	// Start with one vertex, keep appending connected
	// segments to the start and end of the hole.
	hole := []int{edges[0].a}
	hreg := []int{edges[0].reg}
	harea := []uint8{edges[0].area}

	for len(edges) > 0 {
		match := false
		for i := 0; i < len(edges); i++ {
			e := edges[i]
			add := false
			if hole[0] == e.b {
				// The segment matches the beginning of the hole boundary.
				hole = append([]int{e.a}, hole...)
				hreg = append([]int{e.reg}, hreg...)
				harea = append([]uint8{e.area}, harea...)
				add = true
			} else if hole[len(hole)-1] == e.a {
				// The segment matches the end of the hole boundary.
				hole = append(hole, e.b)
				hreg = append(hreg, e.reg)
				harea = append(harea, e.area)
				add = true
			}
			if add {
				// The edge segment was added, remove it.
				edges[i] = edges[len(edges)-1]
				edges = edges[:len(edges)-1]
				match = true
				i--
			}
		}
		if !match {
			break
		}
	}

	nhole := len(hole)
	tris := make([]int, nhole*3)
	tverts := make([]int, nhole*4)
	thole := make([]int, nhole)

	// Generate temp vertex array for triangulation.
	for i, pi := range hole {
		copy(tverts[i*4:i*4+3], mesh.verts[pi*3:pi*3+3])
		thole[i] = i
	}

	// Triangulate the hole.
	ntris := common.Triangulate(nhole, tverts, thole, tris)
	if ntris < 0 {
		ntris = -ntris
		ctx.Log(RC_LOG_WARNING, "removeVertex: triangulate() returned bad results.")
	}

	// Merge the hole triangles back to polygons.
	polys := make([]int, ntris*nvp)
	pregs := make([]int, ntris)
	pareas := make([]uint8, ntris)
	for i := range polys {
		polys[i] = RC_MESH_NULL_IDX
	}

	// Build initial polygons.
	npolys := 0
	for j := 0; j < ntris; j++ {
		t := tris[j*3 : j*3+3]
		if t[0] == t[1] || t[0] == t[2] || t[1] == t[2] {
			continue
		}
		polys[npolys*nvp+0] = hole[t[0]]
		polys[npolys*nvp+1] = hole[t[1]]
		polys[npolys*nvp+2] = hole[t[2]]

		// If this polygon covers multiple region types then
		// mark it as such
		if hreg[t[0]] != hreg[t[1]] || hreg[t[1]] != hreg[t[2]] {
			pregs[npolys] = RC_MULTIPLE_REGS
		} else {
			pregs[npolys] = hreg[t[0]]
		}
		pareas[npolys] = harea[t[0]]
		npolys++
	}
	if npolys == 0 {
		return
	}

	// Merge polygons.
	if nvp > 3 {
		npolys = mergeConvexPolys(polys, npolys, mesh.verts, nvp, pregs, pareas)
	}

	// Store polygons.
	for i := 0; i < npolys; i++ {
		mesh.appendPoly(polys[i*nvp:(i+1)*nvp], pregs[i], pareas[i])
	}
}

// / Builds a polygon mesh from the provided contours.
// /
// / @note If the mesh data is to be used to construct a Detour navigation mesh, then the upper
// / limit must be restricted to <= #DT_VERTS_PER_POLYGON.
// /
// / @param[in]		ctx		The build context to use during the operation.
// / @param[in]		cset	A fully built contour set.
// / @param[in]		nvp		The maximum number of vertices allowed for polygons generated during the
// / 						contour to polygon conversion process. [Limit: >= 3]
func RcBuildPolyMesh(ctx *RcContext, cset *RcContourSet, nvp int) (*RcPolyMesh, error) {
	common.AssertTruef(nvp >= 3, "rcBuildPolyMesh: nvp must be at least 3, got %d", nvp)
	defer ctx.ScopedTimer(RC_TIMER_BUILD_POLYMESH)()

	maxVertices := 0
	maxVertsPerCont := 0
	for _, cont := range cset.Conts {
		// Skip null contours.
		if cont.Nverts() < 3 {
			continue
		}
		maxVertices += cont.Nverts()
		maxVertsPerCont = max(maxVertsPerCont, cont.Nverts())
	}
	if maxVertices >= 0xfffe {
		return nil, stageError(ctx, ErrPolyMesh, "rcBuildPolyMesh: Too many vertices %d.", maxVertices)
	}

	vflags := make([]bool, 0, maxVertices)
	work := &polyMeshWork{
		verts: make([]int, 0, maxVertices*3),
		nvp:   nvp,
	}
	welder := newVertexWelder()

	indices := make([]int, maxVertsPerCont)
	tris := make([]int, maxVertsPerCont*3)
	polys := make([]int, maxVertsPerCont*nvp)

	for i, cont := range cset.Conts {
		// Skip null contours.
		if cont.Nverts() < 3 {
			continue
		}
		nverts := cont.Nverts()

		// Triangulate contour
		for j := 0; j < nverts; j++ {
			indices[j] = j
		}
		ntris := common.Triangulate(nverts, cont.Verts, indices[:nverts], tris)
		if ntris <= 0 {
			// Bad triangulation, should not happen.
			ctx.Log(RC_LOG_WARNING, "rcBuildPolyMesh: Bad triangulation Contour %d.", i)
			ntris = -ntris
		}

		// Add and merge vertices.
		for j := 0; j < nverts; j++ {
			v := cont.Verts[j*4 : j*4+4]
			indices[j] = welder.addVertex(v[0], v[1], v[2], &work.verts)
			if indices[j] >= len(vflags) {
				vflags = append(vflags, false)
			}
			if v[3]&RC_BORDER_VERTEX != 0 {
				// This vertex should be removed.
				vflags[indices[j]] = true
			}
		}

		// Build initial polygons.
		npolys := 0
		for j := range polys {
			polys[j] = RC_MESH_NULL_IDX
		}
		for j := 0; j < ntris; j++ {
			t := tris[j*3 : j*3+3]
			if t[0] != t[1] && t[0] != t[2] && t[1] != t[2] {
				polys[npolys*nvp+0] = indices[t[0]]
				polys[npolys*nvp+1] = indices[t[1]]
				polys[npolys*nvp+2] = indices[t[2]]
				npolys++
			}
		}
		if npolys == 0 {
			continue
		}

		// Merge polygons.
		if nvp > 3 {
			npolys = mergeConvexPolys(polys, npolys, work.verts, nvp, nil, nil)
		}

		// Store polygons.
		for j := 0; j < npolys; j++ {
			work.appendPoly(polys[j*nvp:(j+1)*nvp], int(cont.Reg), cont.Area)
		}
	}

	// Remove edge vertices.
	for i := 0; i < work.nverts(); i++ {
		if !vflags[i] {
			continue
		}
		if !canRemoveVertex(work, i) {
			continue
		}
		removeVertex(ctx, work, i)
		// Remove vertex
		// Note: the vertex count is already decremented inside removeVertex()!
		// Fixup vertex flags
		vflags = append(vflags[:i], vflags[i+1:]...)
		i--
	}

	// Calculate adjacency.
	buildMeshAdjacency(work.polys, work.npolys(), work.nverts(), nvp)

	// Find portal edges
	if cset.BorderSize > 0 {
		markPortalEdges(work, cset.Width, cset.Height)
	}

	if work.nverts() > 0xffff {
		return nil, stageError(ctx, ErrPolyMesh, "rcBuildPolyMesh: The resulting mesh has too many vertices %d (max %d). Data can be corrupted.", work.nverts(), 0xffff)
	}
	if work.npolys() > 0xfffe {
		return nil, stageError(ctx, ErrPolyMesh, "rcBuildPolyMesh: The resulting mesh has too many polygons %d (max %d). Data can be corrupted.", work.npolys(), 0xfffe)
	}

	mesh := &RcPolyMesh{
		Nvp:          nvp,
		Bmin:         cset.Bmin,
		Bmax:         cset.Bmax,
		Cs:           cset.Cs,
		Ch:           cset.Ch,
		BorderSize:   cset.BorderSize,
		MaxEdgeError: cset.MaxError,
	}
	mesh.storeWork(work)
	return mesh, nil
}

func markPortalEdges(work *polyMeshWork, w, h int) {
	nvp := work.nvp
	for i := 0; i < work.npolys(); i++ {
		p := work.poly(i)
		for j := 0; j < nvp; j++ {
			if p[j] == RC_MESH_NULL_IDX {
				break
			}
			// Skip connected edges.
			if p[nvp+j] != RC_MESH_NULL_IDX {
				continue
			}
			nj := j + 1
			if nj >= nvp || p[nj] == RC_MESH_NULL_IDX {
				nj = 0
			}
			va := work.verts[p[j]*3 : p[j]*3+3]
			vb := work.verts[p[nj]*3 : p[nj]*3+3]

			switch {
			case va[0] == 0 && vb[0] == 0:
				p[nvp+j] = RC_PORTAL_FLAG | 0
			case va[2] == h && vb[2] == h:
				p[nvp+j] = RC_PORTAL_FLAG | 1
			case va[0] == w && vb[0] == w:
				p[nvp+j] = RC_PORTAL_FLAG | 2
			case va[2] == 0 && vb[2] == 0:
				p[nvp+j] = RC_PORTAL_FLAG | 3
			}
		}
	}
}

// storeWork narrows the working arrays into the exported uint16 layout.
func (m *RcPolyMesh) storeWork(work *polyMeshWork) {
	m.Nverts = work.nverts()
	m.Npolys = work.npolys()
	m.Verts = make([]uint16, len(work.verts))
	for i, v := range work.verts {
		m.Verts[i] = uint16(v)
	}
	m.Polys = make([]uint16, len(work.polys))
	for i, v := range work.polys {
		m.Polys[i] = uint16(v)
	}
	m.Regs = make([]uint16, m.Npolys)
	for i, v := range work.regs {
		m.Regs[i] = uint16(v)
	}
	m.Areas = append([]uint8(nil), work.areas...)
	m.Flags = make([]uint16, m.Npolys)
}

// / Merges multiple polygon meshes into a single mesh.
// /
// / The meshes must share cell sizes and vertex-per-polygon limits; portal
// / edges are kept only on the sides that are still on the outer border.
func RcMergePolyMeshes(ctx *RcContext, meshes []*RcPolyMesh) (*RcPolyMesh, error) {
	if len(meshes) == 0 {
		return nil, stageError(ctx, ErrMerge, "rcMergePolyMeshes: no meshes to merge")
	}
	defer ctx.ScopedTimer(RC_TIMER_MERGE_POLYMESH)()

	first := meshes[0]
	mesh := &RcPolyMesh{
		Nvp:  first.Nvp,
		Cs:   first.Cs,
		Ch:   first.Ch,
		Bmin: first.Bmin,
		Bmax: first.Bmax,
	}
	nvp := mesh.Nvp

	maxVerts := 0
	maxPolys := 0
	maxVertsPerMesh := 0
	for _, pm := range meshes {
		if pm.Nvp != nvp || pm.Cs != mesh.Cs || pm.Ch != mesh.Ch {
			return nil, stageError(ctx, ErrMerge, "rcMergePolyMeshes: incompatible mesh (nvp %d, cs %f, ch %f)", pm.Nvp, pm.Cs, pm.Ch)
		}
		common.Vmin(mesh.Bmin[:], pm.Bmin[:])
		common.Vmax(mesh.Bmax[:], pm.Bmax[:])
		maxVertsPerMesh = max(maxVertsPerMesh, pm.Nverts)
		maxVerts += pm.Nverts
		maxPolys += pm.Npolys
	}
	if maxVerts > 0xffff {
		return nil, stageError(ctx, ErrMerge, "rcMergePolyMeshes: Too many vertices %d.", maxVerts)
	}

	work := &polyMeshWork{
		verts: make([]int, 0, maxVerts*3),
		polys: make([]int, 0, maxPolys*2*nvp),
		nvp:   nvp,
	}
	welder := newVertexWelder()
	vremap := make([]int, maxVertsPerMesh)

	for _, pm := range meshes {
		ox := int(math.Floor(float64((pm.Bmin[0]-mesh.Bmin[0])/mesh.Cs + 0.5)))
		oz := int(math.Floor(float64((pm.Bmin[2]-mesh.Bmin[2])/mesh.Cs + 0.5)))

		isMinX := ox == 0
		isMinZ := oz == 0
		isMaxX := int(math.Floor(float64((mesh.Bmax[0]-pm.Bmax[0])/mesh.Cs+0.5))) == 0
		isMaxZ := int(math.Floor(float64((mesh.Bmax[2]-pm.Bmax[2])/mesh.Cs+0.5))) == 0
		isOnBorder := isMinX || isMinZ || isMaxX || isMaxZ

		for j := 0; j < pm.Nverts; j++ {
			v := pm.Vert(j)
			vremap[j] = welder.addVertex(int(v[0])+ox, int(v[1]), int(v[2])+oz, &work.verts)
		}

		for j := 0; j < pm.Npolys; j++ {
			src := pm.Poly(j)
			tgt := make([]int, nvp)
			for k := range tgt {
				tgt[k] = RC_MESH_NULL_IDX
			}
			for k := 0; k < nvp && src[k] != RC_MESH_NULL_IDX; k++ {
				tgt[k] = vremap[src[k]]
			}
			work.appendPoly(tgt, int(pm.Regs[j]), pm.Areas[j])
			if !isOnBorder {
				continue
			}
			dst := work.poly(work.npolys() - 1)
			for k := 0; k < nvp; k++ {
				if src[k] == RC_MESH_NULL_IDX {
					break
				}
				nei := src[nvp+k]
				if nei&RC_PORTAL_FLAG == 0 || nei == RC_MESH_NULL_IDX {
					continue
				}
				keep := false
				switch nei & 0xf {
				case 0: // Portal x-
					keep = isMinX
				case 1: // Portal z
					keep = isMaxZ
				case 2: // Portal x+
					keep = isMaxX
				case 3: // Portal z-
					keep = isMinZ
				}
				if keep {
					dst[nvp+k] = int(nei)
				}
			}
		}
	}

	// Calculate adjacency.
	buildMeshAdjacency(work.polys, work.npolys(), work.nverts(), nvp)

	mesh.storeWork(work)
	for _, pm := range meshes {
		mesh.BorderSize = max(mesh.BorderSize, pm.BorderSize)
		mesh.MaxEdgeError = max(mesh.MaxEdgeError, pm.MaxEdgeError)
	}
	return mesh, nil
}

// / Copies the poly mesh data from src to a new mesh.
func RcCopyPolyMesh(src *RcPolyMesh) *RcPolyMesh {
	dst := *src
	dst.Verts = append([]uint16(nil), src.Verts...)
	dst.Polys = append([]uint16(nil), src.Polys...)
	dst.Regs = append([]uint16(nil), src.Regs...)
	dst.Flags = append([]uint16(nil), src.Flags...)
	dst.Areas = append([]uint8(nil), src.Areas...)
	return &dst
}
