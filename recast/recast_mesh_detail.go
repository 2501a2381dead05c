package recast

import (
	"math"

	"github.com/gorustyt/recastgo/common"
	"gopkg.in/eapache/queue.v1"
)

const (
	RC_UNSET_HEIGHT = 0xffff

	rcDetailMaxVerts        = 127
	rcDetailMaxTris         = 255 // Max tris for delaunay is 2n-2-k (n=num verts, k=num hull verts).
	rcDetailMaxVertsPerEdge = 32

	EV_UNDEF = -1
	EV_HULL  = -2

	/// Detail triangle edge flag: the edge lies on the boundary of the source polygon.
	RC_DETAIL_EDGE_BOUNDARY = 0x01
)

// / Contains triangle meshes that represent detailed height data associated
// / with the polygons in its associated polygon mesh object.
type RcPolyMeshDetail struct {
	Meshes []uint32  ///< The sub-mesh data. [Size: 4*#Nmeshes]
	Verts  []float32 ///< The mesh vertices. [Size: 3*#Nverts]
	Tris   []uint8   ///< The mesh triangles. [Size: 4*#Ntris]
}

func (d *RcPolyMeshDetail) Nmeshes() int { return len(d.Meshes) / 4 }
func (d *RcPolyMeshDetail) Nverts() int  { return len(d.Verts) / 3 }
func (d *RcPolyMeshDetail) Ntris() int   { return len(d.Tris) / 4 }

// SubMesh returns the vertex and triangle ranges of the detail mesh of
// polygon i. Triangle vertex indices are relative to vertBase.
func (d *RcPolyMeshDetail) SubMesh(i int) (vertBase, vertCount, triBase, triCount int) {
	m := d.Meshes[i*4 : i*4+4]
	return int(m[0]), int(m[1]), int(m[2]), int(m[3])
}

// Tri returns triangle t: three sub-mesh local vertex indices and flags.
func (d *RcPolyMeshDetail) Tri(t int) []uint8 {
	return d.Tris[t*4 : t*4+4]
}

// TriEdgeFlags reports, for edges (v0,v1), (v1,v2) and (v2,v0) of triangle
// t, whether the edge lies on the boundary of its polygon.
func (d *RcPolyMeshDetail) TriEdgeFlags(t int) [3]bool {
	flags := d.Tris[t*4+3]
	var res [3]bool
	for k := 0; k < 3; k++ {
		res[k] = (flags>>(k*2))&0x3 == RC_DETAIL_EDGE_BOUNDARY
	}
	return res
}

// heightSeed is a span (x, y in bordered cells, i span index) queued by the
// height patch flood fill.
type heightSeed struct {
	x, y, i int
}

type rcHeightPatch struct {
	data                      []uint16
	xmin, ymin, width, height int
}

func polyMinExtent(verts []float32, nverts int) float32 {
	minDist := float32(math.MaxFloat32)
	for i := 0; i < nverts; i++ {
		ni := (i + 1) % nverts
		p1 := common.GetVert3(verts, i)
		p2 := common.GetVert3(verts, ni)
		var maxEdgeDist float32
		for j := 0; j < nverts; j++ {
			if j == i || j == ni {
				continue
			}
			d := common.DistancePtSeg2D(common.GetVert3(verts, j), p1, p2)
			maxEdgeDist = max(maxEdgeDist, d)
		}
		minDist = min(minDist, maxEdgeDist)
	}
	return common.Sqrt(minDist)
}

func triangulateHull(verts []float32, hull []int, nin int, tris []int) []int {
	nhull := len(hull)
	start, left, right := 0, 1, nhull-1
	vert := func(i int) []float32 { return common.GetVert3(verts, hull[i]) }

	// Start from an ear with shortest perimeter.
	// This tends to favor well formed triangles as starting point.
	dmin := float32(math.MaxFloat32)
	for i := 0; i < nhull; i++ {
		// Ears are triangles with original vertices as middle vertex while others are actually line segments on edges
		if hull[i] >= nin {
			continue
		}
		pi := common.Prev(i, nhull)
		ni := common.Next(i, nhull)
		pv, cv, nv := vert(pi), vert(i), vert(ni)
		d := common.Vdist2(pv, cv) + common.Vdist2(cv, nv) + common.Vdist2(nv, pv)
		if d < dmin {
			start = i
			left = ni
			right = pi
			dmin = d
		}
	}

	// Add first triangle
	tris = append(tris, hull[start], hull[left], hull[right], 0)

	// Triangulate the polygon by moving left or right,
	// depending on which triangle has shorter perimeter.
	// This heuristic was chose empirically, since it seems
	// handle tessellated straight edges well.
	for common.Next(left, nhull) != right {
		// Check to see if se should advance left or right.
		nleft := common.Next(left, nhull)
		nright := common.Prev(right, nhull)

		cvleft, nvleft := vert(left), vert(nleft)
		cvright, nvright := vert(right), vert(nright)
		dleft := common.Vdist2(cvleft, nvleft) + common.Vdist2(nvleft, cvright)
		dright := common.Vdist2(cvright, nvright) + common.Vdist2(cvleft, nvright)

		if dleft < dright {
			tris = append(tris, hull[left], hull[nleft], hull[right], 0)
			left = nleft
		} else {
			tris = append(tris, hull[left], hull[nright], hull[right], 0)
			right = nright
		}
	}
	return tris
}

func getJitterX(i int) float32 {
	return float32((uint32(i)*0x8da6b343)&0xffff)/65535.0*2.0 - 1.0
}

func getJitterY(i int) float32 {
	return float32((uint32(i)*0xd8163841)&0xffff)/65535.0*2.0 - 1.0
}

func getHeight(fx, fy, fz, ics, ch float32, radius int, hp *rcHeightPatch) uint16 {
	ix := int(math.Floor(float64(fx*ics + 0.01)))
	iz := int(math.Floor(float64(fz*ics + 0.01)))
	ix = common.Clamp(ix-hp.xmin, 0, hp.width-1)
	iz = common.Clamp(iz-hp.ymin, 0, hp.height-1)
	h := hp.data[ix+iz*hp.width]
	if h != RC_UNSET_HEIGHT {
		return h
	}

	// Special case when data might be bad.
	// Walk adjacent cells in a spiral up to 'radius', and look
	// for a pixel which has a valid height.
	x, z, dx, dz := 1, 0, 1, 0
	maxSize := radius*2 + 1
	maxIter := maxSize*maxSize - 1

	nextRingIterStart := 8
	nextRingIters := 16

	dmin := float32(math.MaxFloat32)
	for i := 0; i < maxIter; i++ {
		nx := ix + x
		nz := iz + z

		if nx >= 0 && nz >= 0 && nx < hp.width && nz < hp.height {
			nh := hp.data[nx+nz*hp.width]
			if nh != RC_UNSET_HEIGHT {
				d := common.Abs(float32(nh)*ch - fy)
				if d < dmin {
					h = nh
					dmin = d
				}
			}
		}

		// We want to find the best height as close to the center cell as
		// possible, so stop at the first ring that produced a height.
		if i+1 == nextRingIterStart {
			if h != RC_UNSET_HEIGHT {
				break
			}
			nextRingIterStart += nextRingIters
			nextRingIters += 8
		}

		if x == z || (x < 0 && x == -z) || (x > 0 && x == 1-z) {
			dx, dz = -dz, dx
		}
		x += dx
		z += dz
	}
	return h
}

// delaunayEdges stores triangulation edges as (s, t, left face, right face).
type delaunayEdges struct {
	data     []int
	maxEdges int
}

func (e *delaunayEdges) n() int { return len(e.data) / 4 }

func (e *delaunayEdges) at(i int) []int { return e.data[i*4 : i*4+4] }

func (e *delaunayEdges) find(s, t int) int {
	for i := 0; i < e.n(); i++ {
		edge := e.at(i)
		if (edge[0] == s && edge[1] == t) || (edge[0] == t && edge[1] == s) {
			return i
		}
	}
	return EV_UNDEF
}

// add inserts the edge if not already in the triangulation.
func (e *delaunayEdges) add(ctx *RcContext, s, t, l, r int) int {
	if e.n() >= e.maxEdges {
		ctx.Log(RC_LOG_ERROR, "addEdge: Too many edges (%d/%d).", e.n(), e.maxEdges)
		return EV_UNDEF
	}
	if e.find(s, t) != EV_UNDEF {
		return EV_UNDEF
	}
	e.data = append(e.data, s, t, l, r)
	return e.n() - 1
}

func updateLeftFace(e []int, s, t, f int) {
	if e[0] == s && e[1] == t && e[2] == EV_UNDEF {
		e[2] = f
	} else if e[1] == s && e[0] == t && e[3] == EV_UNDEF {
		e[3] = f
	}
}

func overlapSegSeg2d(a, b, c, d []float32) bool {
	a1 := common.Vcross2(a, b, d)
	a2 := common.Vcross2(a, b, c)
	if a1*a2 < 0 {
		a3 := common.Vcross2(c, d, a)
		a4 := a3 + a2 - a1
		if a3*a4 < 0 {
			return true
		}
	}
	return false
}

func overlapEdges(pts []float32, edges *delaunayEdges, s1, t1 int) bool {
	for i := 0; i < edges.n(); i++ {
		s0 := edges.data[i*4+0]
		t0 := edges.data[i*4+1]
		// Same or connected edges do not overlap.
		if s0 == s1 || s0 == t1 || t0 == s1 || t0 == t1 {
			continue
		}
		if overlapSegSeg2d(common.GetVert3(pts, s0), common.GetVert3(pts, t0), common.GetVert3(pts, s1), common.GetVert3(pts, t1)) {
			return true
		}
	}
	return false
}

func completeFacet(ctx *RcContext, pts []float32, npts int, edges *delaunayEdges, nfaces *int, e int) {
	const eps = 1e-5
	edge := edges.at(e)

	// Cache s and t.
	var s, t int
	switch {
	case edge[2] == EV_UNDEF:
		s, t = edge[0], edge[1]
	case edge[3] == EV_UNDEF:
		s, t = edge[1], edge[0]
	default:
		// Edge already completed.
		return
	}

	// Find best point on left of edge.
	pt := npts
	c := []float32{0, 0, 0}
	r := float32(-1)
	ps, pt0 := common.GetVert3(pts, s), common.GetVert3(pts, t)
	for u := 0; u < npts; u++ {
		if u == s || u == t {
			continue
		}
		pu := common.GetVert3(pts, u)
		if common.Vcross2(ps, pt0, pu) <= eps {
			continue
		}
		if r < 0 {
			// The circle is not updated yet, do it now.
			pt = u
			common.CircumCircle(ps, pt0, pu, c, &r)
			continue
		}
		d := common.Vdist2(c, pu)
		const tol = 0.001
		switch {
		case d > r*(1+tol):
			// Outside current circumcircle, skip.
			continue
		case d < r*(1-tol):
			// Inside safe circumcircle, update circle.
			pt = u
			common.CircumCircle(ps, pt0, pu, c, &r)
		default:
			// Inside epsilon circum circle, do extra tests to make sure the edge is valid.
			// s-u and t-u cannot overlap with s-pt nor t-pt if they exists.
			if overlapEdges(pts, edges, s, u) || overlapEdges(pts, edges, t, u) {
				continue
			}
			// Edge is valid.
			pt = u
			common.CircumCircle(ps, pt0, pu, c, &r)
		}
	}

	// Add new triangle or update edge info if s-t is on hull.
	if pt < npts {
		// Update face information of edge being completed.
		updateLeftFace(edges.at(e), s, t, *nfaces)

		// Add new edge or update face info of old edge.
		if e := edges.find(pt, s); e == EV_UNDEF {
			edges.add(ctx, pt, s, *nfaces, EV_UNDEF)
		} else {
			updateLeftFace(edges.at(e), pt, s, *nfaces)
		}

		// Add new edge or update face info of old edge.
		if e := edges.find(t, pt); e == EV_UNDEF {
			edges.add(ctx, t, pt, *nfaces, EV_UNDEF)
		} else {
			updateLeftFace(edges.at(e), t, pt, *nfaces)
		}

		*nfaces++
	} else {
		updateLeftFace(edges.at(e), s, t, EV_HULL)
	}
}

func delaunayHull(ctx *RcContext, npts int, pts []float32, hull []int, tris []int, edges *delaunayEdges) []int {
	nfaces := 0
	edges.data = edges.data[:0]
	edges.maxEdges = npts * 10

	for i, j := 0, len(hull)-1; i < len(hull); j, i = i, i+1 {
		edges.add(ctx, hull[j], hull[i], EV_HULL, EV_UNDEF)
	}

	for currentEdge := 0; currentEdge < edges.n(); currentEdge++ {
		if edges.data[currentEdge*4+2] == EV_UNDEF {
			completeFacet(ctx, pts, npts, edges, &nfaces, currentEdge)
		}
		if edges.data[currentEdge*4+3] == EV_UNDEF {
			completeFacet(ctx, pts, npts, edges, &nfaces, currentEdge)
		}
	}

	// Create tris
	tris = tris[:0]
	for i := 0; i < nfaces*4; i++ {
		tris = append(tris, -1)
	}
	for i := 0; i < edges.n(); i++ {
		e := edges.at(i)
		if e[3] >= 0 {
			// Left face
			t := tris[e[3]*4 : e[3]*4+4]
			if t[0] == -1 {
				t[0] = e[0]
				t[1] = e[1]
			} else if t[0] == e[1] {
				t[2] = e[0]
			} else if t[1] == e[0] {
				t[2] = e[1]
			}
		}
		if e[2] >= 0 {
			// Right
			t := tris[e[2]*4 : e[2]*4+4]
			if t[0] == -1 {
				t[0] = e[1]
				t[1] = e[0]
			} else if t[0] == e[0] {
				t[2] = e[1]
			} else if t[1] == e[1] {
				t[2] = e[0]
			}
		}
	}

	for i := 0; i < len(tris)/4; i++ {
		t := tris[i*4 : i*4+4]
		if t[0] == -1 || t[1] == -1 || t[2] == -1 {
			ctx.Log(RC_LOG_WARNING, "delaunayHull: Removing dangling face %d [%d,%d,%d].", i, t[0], t[1], t[2])
			copy(t, tris[len(tris)-4:])
			tris = tris[:len(tris)-4]
			i--
		}
	}
	return tris
}

// getEdgeFlags reports whether edge (va,vb) is part of the polygon boundary.
func getEdgeFlags(va, vb, vpoly []float32, npoly int) uint8 {
	const thrSqr = 0.001 * 0.001
	for i, j := 0, npoly-1; i < npoly; j, i = i, i+1 {
		vj := common.GetVert3(vpoly, j)
		vi := common.GetVert3(vpoly, i)
		if common.DistancePtSeg2D(va, vj, vi) < thrSqr && common.DistancePtSeg2D(vb, vj, vi) < thrSqr {
			return RC_DETAIL_EDGE_BOUNDARY
		}
	}
	return 0
}

func getTriFlags(va, vb, vc, vpoly []float32, npoly int) uint8 {
	var flags uint8
	flags |= getEdgeFlags(va, vb, vpoly, npoly) << 0
	flags |= getEdgeFlags(vb, vc, vpoly, npoly) << 2
	flags |= getEdgeFlags(vc, va, vpoly, npoly) << 4
	return flags
}

// polyDetailScratch holds the buffers reused between polygons.
type polyDetailScratch struct {
	verts   []float32
	tris    []int
	edges   delaunayEdges
	samples []int
	seeds   []int
	hull    []int
	edge    []float32
}

func newPolyDetailScratch() *polyDetailScratch {
	return &polyDetailScratch{
		verts:   make([]float32, 256*3),
		tris:    make([]int, 0, 512),
		edges:   delaunayEdges{data: make([]int, 0, 64)},
		samples: make([]int, 0, 512),
		seeds:   make([]int, 0, 512),
		hull:    make([]int, 0, rcDetailMaxVerts),
		edge:    make([]float32, (rcDetailMaxVertsPerEdge+1)*3),
	}
}

// buildPolyDetail tessellates polygon in (nin vertices) into sc.tris and
// returns the number of vertices written to sc.verts.
func buildPolyDetail(ctx *RcContext, in []float32, nin int,
	sampleDist, sampleMaxError float32, heightSearchRadius int,
	chf *compactData, hp *rcHeightPatch, sc *polyDetailScratch) int {
	verts := sc.verts
	edge := sc.edge
	hull := sc.hull[:0]

	nverts := nin
	copy(verts, in[:nin*3])

	sc.edges.data = sc.edges.data[:0]
	sc.tris = sc.tris[:0]

	cs := chf.cs
	ics := 1.0 / cs

	// Calculate minimum extents of the polygon based on input data.
	minExtent := polyMinExtent(verts, nverts)

	// Tessellate outlines.
	// This is done in separate pass in order to ensure
	// seamless height values across the ply boundaries.
	if sampleDist > 0 {
		for i, j := 0, nin-1; i < nin; j, i = i, i+1 {
			vj := common.GetVert3(in, j)
			vi := common.GetVert3(in, i)
			swapped := false
			// Make sure the segments are always handled in same order
			// using lexological sort or else there will be seams.
			if common.Abs(vj[0]-vi[0]) < 1e-6 {
				if vj[2] > vi[2] {
					vj, vi = vi, vj
					swapped = true
				}
			} else if vj[0] > vi[0] {
				vj, vi = vi, vj
				swapped = true
			}

			// Create samples along the edge.
			dx := vi[0] - vj[0]
			dy := vi[1] - vj[1]
			dz := vi[2] - vj[2]
			d := common.Sqrt(dx*dx + dz*dz)
			nn := 1 + int(math.Floor(float64(d/sampleDist)))
			if nn >= rcDetailMaxVertsPerEdge {
				nn = rcDetailMaxVertsPerEdge - 1
			}
			if nverts+nn >= rcDetailMaxVerts {
				nn = rcDetailMaxVerts - 1 - nverts
			}

			for k := 0; k <= nn; k++ {
				u := float32(k) / float32(nn)
				pos := edge[k*3 : k*3+3]
				pos[0] = vj[0] + dx*u
				pos[1] = vj[1] + dy*u
				pos[2] = vj[2] + dz*u
				pos[1] = float32(getHeight(pos[0], pos[1], pos[2], ics, chf.ch, heightSearchRadius, hp)) * chf.ch
			}

			// Simplify samples.
			idx := make([]int, 2, rcDetailMaxVertsPerEdge)
			idx[0], idx[1] = 0, nn
			for k := 0; k < len(idx)-1; {
				a := idx[k]
				b := idx[k+1]
				va := edge[a*3 : a*3+3]
				vb := edge[b*3 : b*3+3]
				// Find maximum deviation along the segment.
				var maxd float32
				maxi := -1
				for m := a + 1; m < b; m++ {
					dev := common.DistancePtSeg(edge[m*3:m*3+3], va, vb)
					if dev > maxd {
						maxd = dev
						maxi = m
					}
				}
				// If the max deviation is larger than accepted error,
				// add new point, else continue to next segment.
				if maxi != -1 && maxd > common.Sqr(sampleMaxError) {
					idx = append(idx, 0)
					copy(idx[k+2:], idx[k+1:])
					idx[k+1] = maxi
				} else {
					k++
				}
			}

			hull = append(hull, j)
			// Add new vertices.
			addEdgeVert := func(k int) {
				copy(verts[nverts*3:nverts*3+3], edge[idx[k]*3:idx[k]*3+3])
				hull = append(hull, nverts)
				nverts++
			}
			if swapped {
				for k := len(idx) - 2; k > 0; k-- {
					addEdgeVert(k)
				}
			} else {
				for k := 1; k < len(idx)-1; k++ {
					addEdgeVert(k)
				}
			}
		}
	}
	sc.hull = hull

	// If the polygon minimum extent is small (sliver or small triangle), do not try to add internal points.
	if minExtent < sampleDist*2 {
		sc.tris = triangulateHull(verts[:nverts*3], hull, nin, sc.tris)
		return nverts
	}

	// Tessellate the base mesh.
	// We're using the triangulateHull instead of delaunayHull as it tends to
	// create a bit better triangulation for long thin triangles when there
	// are no internal points.
	sc.tris = triangulateHull(verts[:nverts*3], hull, nin, sc.tris)

	if len(sc.tris) == 0 {
		// Could not triangulate the poly, make sure there is some valid data there.
		ctx.Log(RC_LOG_WARNING, "buildPolyDetail: Could not triangulate polygon (%d verts).", nverts)
		return nverts
	}

	if sampleDist > 0 {
		// Create sample locations in a grid.
		var bmin, bmax [3]float32
		copy(bmin[:], in[:3])
		copy(bmax[:], in[:3])
		for i := 1; i < nin; i++ {
			common.Vmin(bmin[:], common.GetVert3(in, i))
			common.Vmax(bmax[:], common.GetVert3(in, i))
		}
		x0 := int(math.Floor(float64(bmin[0] / sampleDist)))
		x1 := int(math.Ceil(float64(bmax[0] / sampleDist)))
		z0 := int(math.Floor(float64(bmin[2] / sampleDist)))
		z1 := int(math.Ceil(float64(bmax[2] / sampleDist)))
		samples := sc.samples[:0]
		for z := z0; z < z1; z++ {
			for x := x0; x < x1; x++ {
				pt := []float32{float32(x) * sampleDist, (bmax[1] + bmin[1]) * 0.5, float32(z) * sampleDist}
				// Make sure the samples are not too close to the edges.
				if common.DistToPoly(nin, in, pt) > -sampleDist/2 {
					continue
				}
				samples = append(samples, x, int(getHeight(pt[0], pt[1], pt[2], ics, chf.ch, heightSearchRadius, hp)), z, 0) // Not added
			}
		}
		sc.samples = samples

		// Add the samples starting from the one that has the most
		// error. The procedure stops when all samples are added
		// or when the max error is within treshold.
		nsamples := len(samples) / 4
		for iter := 0; iter < nsamples; iter++ {
			if nverts >= rcDetailMaxVerts {
				break
			}

			// Find sample with most error.
			var bestpt [3]float32
			var bestd float32
			besti := -1
			for i := 0; i < nsamples; i++ {
				s := samples[i*4 : i*4+4]
				if s[3] != 0 {
					continue // skip added.
				}
				// The sample location is jittered to get rid of some bad triangulations
				// which are cause by symmetrical data from the grid structure.
				pt := []float32{
					float32(s[0])*sampleDist + getJitterX(i)*cs*0.1,
					float32(s[1]) * chf.ch,
					float32(s[2])*sampleDist + getJitterY(i)*cs*0.1,
				}
				d := common.DistToTriMesh(pt, verts, sc.tris, len(sc.tris)/4)
				if d < 0 {
					continue // did not hit the mesh.
				}
				if d > bestd {
					bestd = d
					besti = i
					copy(bestpt[:], pt)
				}
			}
			// If the max error is within accepted threshold, stop tesselating.
			if bestd <= sampleMaxError || besti == -1 {
				break
			}
			// Mark sample as added.
			samples[besti*4+3] = 1
			// Add the new sample point.
			copy(verts[nverts*3:nverts*3+3], bestpt[:])
			nverts++

			// Create new triangulation.
			// TODO: Incremental add instead of full rebuild.
			sc.tris = delaunayHull(ctx, nverts, verts, hull, sc.tris, &sc.edges)
		}
	}

	if ntris := len(sc.tris) / 4; ntris > rcDetailMaxTris {
		sc.tris = sc.tris[:rcDetailMaxTris*4]
		ctx.Log(RC_LOG_ERROR, "rcBuildPolyMeshDetail: Shrinking triangle count from %d to max %d.", ntris, rcDetailMaxTris)
	}
	return nverts
}

// seedArrayWithPolyCenter walks from the span closest to a polygon vertex
// towards the polygon centre and leaves that span as the only seed.
//
// Reads to the compact heightfield are offset by border size (bs) since the
// polygon vertices are in the heightfield border-less space.
func seedArrayWithPolyCenter(ctx *RcContext, chf *compactData, poly []uint16, npoly int,
	verts []uint16, bs int, hp *rcHeightPatch, stack []int) []int {
	offset := [9 * 2]int{0, 0, -1, -1, 0, -1, 1, -1, 1, 0, 1, 1, 0, 1, -1, 1, -1, 0}

	// Find cell closest to a poly vertex
	startCellX, startCellY, startSpanIndex := 0, 0, -1
	dmin := RC_UNSET_HEIGHT
	for j := 0; j < npoly && dmin > 0; j++ {
		for k := 0; k < 9 && dmin > 0; k++ {
			v := verts[int(poly[j])*3:]
			ax := int(v[0]) + offset[k*2+0]
			ay := int(v[1])
			az := int(v[2]) + offset[k*2+1]
			if ax < hp.xmin || ax >= hp.xmin+hp.width || az < hp.ymin || az >= hp.ymin+hp.height {
				continue
			}
			begin, end := chf.ColumnSpans(ax+bs, az+bs)
			for i := begin; i < end && dmin > 0; i++ {
				d := common.Abs(ay - int(chf.spans[i].Y))
				if d < dmin {
					startCellX = ax
					startCellY = az
					startSpanIndex = i
					dmin = d
				}
			}
		}
	}
	common.AssertTrue(startSpanIndex != -1, "seedArrayWithPolyCenter: no span near polygon")

	// Find center of the polygon
	pcx, pcy := 0, 0
	for j := 0; j < npoly; j++ {
		pcx += int(verts[int(poly[j])*3+0])
		pcy += int(verts[int(poly[j])*3+2])
	}
	pcx /= npoly
	pcy /= npoly

	// Use the seed array as a stack for DFS
	stack = append(stack[:0], startCellX, startCellY, startSpanIndex)

	dirs := [4]int{0, 1, 2, 3}
	clear(hp.data[:hp.width*hp.height])
	// DFS to move to the center. Note that we need a DFS here and can not just move
	// directly towards the center without recording intermediate nodes, even though the polygons
	// are convex. In very rare we can get stuck due to contour simplification if we do not
	// record nodes.
	cx, cy, ci := -1, -1, -1
	for {
		if len(stack) < 3 {
			ctx.Log(RC_LOG_WARNING, "Walk towards polygon center failed to reach center")
			break
		}
		n := len(stack)
		cx, cy, ci = stack[n-3], stack[n-2], stack[n-1]
		stack = stack[:n-3]

		if cx == pcx && cy == pcy {
			break
		}

		// If we are already at the correct X-position, prefer direction
		// directly towards the center in the Y-axis; otherwise prefer
		// direction in the X-axis
		var directDir int
		if cx == pcx {
			directDir = common.GetDirForOffset(0, sign(pcy-cy))
		} else {
			directDir = common.GetDirForOffset(sign(pcx-cx), 0)
		}

		// Push the direct dir last so we start with this on next iteration
		dirs[directDir], dirs[3] = dirs[3], dirs[directDir]

		cs := &chf.spans[ci]
		for _, dir := range dirs {
			if RcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			newX := cx + common.GetDirOffsetX(dir)
			newY := cy + common.GetDirOffsetY(dir)

			hpx := newX - hp.xmin
			hpy := newY - hp.ymin
			if hpx < 0 || hpx >= hp.width || hpy < 0 || hpy >= hp.height {
				continue
			}
			if hp.data[hpx+hpy*hp.width] != 0 {
				continue
			}
			hp.data[hpx+hpy*hp.width] = 1
			stack = append(stack, newX, newY, int(chf.cells[(newX+bs)+(newY+bs)*chf.width].Index)+RcGetCon(cs, dir))
		}

		dirs[directDir], dirs[3] = dirs[3], dirs[directDir]
	}

	// getHeightData seeds are given in coordinates with borders
	stack = append(stack[:0], cx+bs, cy+bs, ci)

	for i := range hp.data[:hp.width*hp.height] {
		hp.data[i] = RC_UNSET_HEIGHT
	}
	hp.data[cx-hp.xmin+(cy-hp.ymin)*hp.width] = chf.spans[ci].Y
	return stack
}

func sign(v int) int {
	if v > 0 {
		return 1
	}
	return -1
}

// getHeightData fills hp with span heights reachable from the polygon's
// region, flood filling out of the region where needed.
func getHeightData(ctx *RcContext, chf *compactData, poly []uint16, npoly int,
	verts []uint16, bs int, hp *rcHeightPatch, seeds []int, region uint16) []int {
	seeds = seeds[:0]
	// Set all heights to RC_UNSET_HEIGHT.
	for i := range hp.data[:hp.width*hp.height] {
		hp.data[i] = RC_UNSET_HEIGHT
	}

	empty := true

	// We cannot sample from this poly if it was created from polys
	// of different regions. If it was then it could potentially be overlapping
	// with polys of that region and the heights sampled here could be wrong.
	if region != RC_MULTIPLE_REGS {
		// Copy the height from the same region, and mark region borders
		// as seed points to fill the rest.
		for hy := 0; hy < hp.height; hy++ {
			y := hp.ymin + hy + bs
			for hx := 0; hx < hp.width; hx++ {
				x := hp.xmin + hx + bs
				begin, end := chf.ColumnSpans(x, y)
				for i := begin; i < end; i++ {
					s := &chf.spans[i]
					if s.reg != region {
						continue
					}
					// Store height
					hp.data[hx+hy*hp.width] = s.Y
					empty = false

					// If any of the neighbours is not in same region,
					// add the current location as flood fill start
					border := false
					for dir := 0; dir < 4; dir++ {
						if RcGetCon(s, dir) != RC_NOT_CONNECTED {
							_, _, ai := chf.neighbour(x, y, dir, s)
							if chf.spans[ai].reg != region {
								border = true
								break
							}
						}
					}
					if border {
						seeds = append(seeds, x, y, i)
					}
					break
				}
			}
		}
	}

	// if the polygon does not contain any points from the current region (rare, but happens)
	// or if it could potentially be overlapping polygons of the same region,
	// then use the center as the seed point.
	if empty {
		seeds = seedArrayWithPolyCenter(ctx, chf, poly, npoly, verts, bs, hp, seeds)
	}

	// We assume the seed is centered in the polygon, so a BFS to collect
	// height data will ensure we do not move onto overlapping polygons and
	// sample wrong heights.
	bfs := queue.New()
	for i := 0; i+2 < len(seeds); i += 3 {
		bfs.Add(heightSeed{x: seeds[i], y: seeds[i+1], i: seeds[i+2]})
	}
	for bfs.Length() > 0 {
		c := bfs.Remove().(heightSeed)
		cs := &chf.spans[c.i]
		for dir := 0; dir < 4; dir++ {
			if RcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax, ay, ai := chf.neighbour(c.x, c.y, dir, cs)
			hx := ax - hp.xmin - bs
			hy := ay - hp.ymin - bs
			if hx < 0 || hx >= hp.width || hy < 0 || hy >= hp.height {
				continue
			}
			if hp.data[hx+hy*hp.width] != RC_UNSET_HEIGHT {
				continue
			}
			hp.data[hx+hy*hp.width] = chf.spans[ai].Y
			bfs.Add(heightSeed{x: ax, y: ay, i: ai})
		}
	}
	return seeds
}

// / Builds a detail mesh from the provided polygon mesh.
// /
// / @param[in]		ctx				The build context to use during the operation.
// / @param[in]		mesh			A fully built polygon mesh.
// / @param[in]		chf				The compact heightfield used to build the polygon mesh.
// / @param[in]		sampleDist		Sets the distance to use when sampling the heightfield. [Limit: >=0] [Units: wu]
// / @param[in]		sampleMaxError	The maximum distance the detail mesh surface should deviate from
// / 								heightfield data. [Limit: >=0] [Units: wu]
func RcBuildPolyMeshDetail(ctx *RcContext, mesh *RcPolyMesh, view RcCompactView,
	sampleDist, sampleMaxError float32) (*RcPolyMeshDetail, error) {
	defer ctx.ScopedTimer(RC_TIMER_BUILD_POLYMESHDETAIL)()

	dmesh := &RcPolyMeshDetail{}
	if mesh.Nverts == 0 || mesh.Npolys == 0 {
		return dmesh, nil
	}
	chf := view.compact()

	nvp := mesh.Nvp
	cs := mesh.Cs
	ch := mesh.Ch
	orig := mesh.Bmin
	borderSize := mesh.BorderSize
	heightSearchRadius := max(1, int(math.Ceil(float64(mesh.MaxEdgeError))))

	sc := newPolyDetailScratch()
	var hp rcHeightPatch
	nPolyVerts := 0
	maxhw, maxhh := 0, 0

	bounds := make([]int, mesh.Npolys*4)
	poly := make([]float32, nvp*3)

	// Find max size for a polygon area.
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)
		xmin, xmax := chf.width, 0
		ymin, ymax := chf.height, 0
		for j := 0; j < nvp; j++ {
			if p[j] == RC_MESH_NULL_IDX {
				break
			}
			v := mesh.Vert(int(p[j]))
			xmin = min(xmin, int(v[0]))
			xmax = max(xmax, int(v[0]))
			ymin = min(ymin, int(v[2]))
			ymax = max(ymax, int(v[2]))
			nPolyVerts++
		}
		xmin = max(0, xmin-1)
		xmax = min(chf.width, xmax+1)
		ymin = max(0, ymin-1)
		ymax = min(chf.height, ymax+1)
		bounds[i*4+0], bounds[i*4+1], bounds[i*4+2], bounds[i*4+3] = xmin, xmax, ymin, ymax
		if xmin >= xmax || ymin >= ymax {
			continue
		}
		maxhw = max(maxhw, xmax-xmin)
		maxhh = max(maxhh, ymax-ymin)
	}

	hp.data = make([]uint16, maxhw*maxhh)

	vcap := nPolyVerts + nPolyVerts/2
	tcap := vcap * 2
	dmesh.Meshes = make([]uint32, 0, mesh.Npolys*4)
	dmesh.Verts = make([]float32, 0, vcap*3)
	dmesh.Tris = make([]uint8, 0, tcap*4)

	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.Poly(i)

		// Store polygon vertices for processing.
		npoly := 0
		for j := 0; j < nvp; j++ {
			if p[j] == RC_MESH_NULL_IDX {
				break
			}
			v := mesh.Vert(int(p[j]))
			poly[j*3+0] = float32(v[0]) * cs
			poly[j*3+1] = float32(v[1]) * ch
			poly[j*3+2] = float32(v[2]) * cs
			npoly++
		}

		// Get the height data from the area of the polygon.
		hp.xmin = bounds[i*4+0]
		hp.ymin = bounds[i*4+2]
		hp.width = bounds[i*4+1] - bounds[i*4+0]
		hp.height = bounds[i*4+3] - bounds[i*4+2]
		if hp.width <= 0 || hp.height <= 0 {
			return nil, stageError(ctx, ErrDetailMesh, "rcBuildPolyMeshDetail: polygon %d has an empty height patch.", i)
		}
		sc.seeds = getHeightData(ctx, chf, p, npoly, mesh.Verts, borderSize, &hp, sc.seeds, mesh.Regs[i])

		// Build detail mesh.
		nverts := buildPolyDetail(ctx, poly, npoly, sampleDist, sampleMaxError, heightSearchRadius, chf, &hp, sc)
		verts := sc.verts

		// Move detail verts to world space.
		for j := 0; j < nverts; j++ {
			verts[j*3+0] += orig[0]
			verts[j*3+1] += orig[1] + chf.ch // Is this offset necessary?
			verts[j*3+2] += orig[2]
		}
		// Offset poly too, will be used to flag checking.
		for j := 0; j < npoly; j++ {
			poly[j*3+0] += orig[0]
			poly[j*3+1] += orig[1]
			poly[j*3+2] += orig[2]
		}

		// Store detail submesh.
		ntris := len(sc.tris) / 4
		dmesh.Meshes = append(dmesh.Meshes,
			uint32(dmesh.Nverts()), uint32(nverts),
			uint32(dmesh.Ntris()), uint32(ntris))

		// Store vertices.
		dmesh.Verts = append(dmesh.Verts, verts[:nverts*3]...)

		// Store triangles.
		for j := 0; j < ntris; j++ {
			t := sc.tris[j*4 : j*4+4]
			flags := getTriFlags(common.GetVert3(verts, t[0]), common.GetVert3(verts, t[1]), common.GetVert3(verts, t[2]), poly, npoly)
			dmesh.Tris = append(dmesh.Tris, uint8(t[0]), uint8(t[1]), uint8(t[2]), flags)
		}
	}
	return dmesh, nil
}

// / Merges multiple detail meshes into a single detail mesh.
func RcMergePolyMeshDetails(ctx *RcContext, meshes []*RcPolyMeshDetail) *RcPolyMeshDetail {
	defer ctx.ScopedTimer(RC_TIMER_MERGE_POLYMESHDETAIL)()

	maxVerts, maxTris, maxMeshes := 0, 0, 0
	for _, dm := range meshes {
		if dm == nil {
			continue
		}
		maxVerts += dm.Nverts()
		maxTris += dm.Ntris()
		maxMeshes += dm.Nmeshes()
	}

	mesh := &RcPolyMeshDetail{
		Meshes: make([]uint32, 0, maxMeshes*4),
		Verts:  make([]float32, 0, maxVerts*3),
		Tris:   make([]uint8, 0, maxTris*4),
	}

	// Merge datas.
	for _, dm := range meshes {
		if dm == nil {
			continue
		}
		vbase := uint32(mesh.Nverts())
		tbase := uint32(mesh.Ntris())
		for j := 0; j < dm.Nmeshes(); j++ {
			src := dm.Meshes[j*4 : j*4+4]
			mesh.Meshes = append(mesh.Meshes, vbase+src[0], src[1], tbase+src[2], src[3])
		}
		mesh.Verts = append(mesh.Verts, dm.Verts...)
		mesh.Tris = append(mesh.Tris, dm.Tris...)
	}
	return mesh
}
