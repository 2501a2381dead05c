package common

import "math"

// Triangulation vertex indices carry a "removable" flag in bit 31; the low
// 28 bits hold the vertex index.
const (
	TriIndexMask = 0x0fffffff
	TriIndexFlag = 0x80000000
)

func Prev[T IT](i, n T) T {
	if i-1 >= 0 {
		return i - 1
	}
	return n - 1
}

func Next[T IT](i, n T) T {
	if i+1 < n {
		return i + 1
	}
	return 0
}

// Area2 is twice the signed xz-area of the triangle abc.
func Area2[T IT](a, b, c []T) T {
	return (b[0]-a[0])*(c[2]-a[2]) - (c[0]-a[0])*(b[2]-a[2])
}

// Returns true iff c is strictly to the left of the directed
// line through a to b.
func Left[T IT](a, b, c []T) bool {
	return Area2(a, b, c) < 0
}

func LeftOn[T IT](a, b, c []T) bool {
	return Area2(a, b, c) <= 0
}

func Collinear[T IT](a, b, c []T) bool {
	return Area2(a, b, c) == 0
}

// Exclusive or: true iff exactly one argument is true.
func Xorb(x, y bool) bool {
	return x != y
}

// Returns true iff ab properly intersects cd: they share
// a point interior to both segments.  The properness of the
// intersection is ensured by using strict leftness.
func IntersectProp[T IT](a, b, c, d []T) bool {
	// Eliminate improper cases.
	if Collinear(a, b, c) || Collinear(a, b, d) ||
		Collinear(c, d, a) || Collinear(c, d, b) {
		return false
	}
	return Xorb(Left(a, b, c), Left(a, b, d)) && Xorb(Left(c, d, a), Left(c, d, b))
}

// Returns T iff (a,b,c) are collinear and point c lies
// on the closed segement ab.
func Between[T IT](a, b, c []T) bool {
	if !Collinear(a, b, c) {
		return false
	}
	// If ab not vertical, check betweenness on x; else on z.
	if a[0] != b[0] {
		return ((a[0] <= c[0]) && (c[0] <= b[0])) || ((a[0] >= c[0]) && (c[0] >= b[0]))
	}
	return ((a[2] <= c[2]) && (c[2] <= b[2])) || ((a[2] >= c[2]) && (c[2] >= b[2]))
}

// Returns true iff segments ab and cd intersect, properly or improperly.
func Intersect[T IT](a, b, c, d []T) bool {
	if IntersectProp(a, b, c, d) {
		return true
	}
	return Between(a, b, c) || Between(a, b, d) ||
		Between(c, d, a) || Between(c, d, b)
}

// Vequal2D compares the x and z components.
func Vequal2D[T IT](a, b []T) bool {
	return a[0] == b[0] && a[2] == b[2]
}

func triVert(verts []int, index int) []int {
	return GetVert4(verts, index&TriIndexMask)
}

// Returns T iff (v_i, v_j) is a proper internal *or* external
// diagonal of P, *ignoring edges incident to v_i and v_j*.
func diagonalie(i, j, n int, verts, indices []int, loose bool) bool {
	d0 := triVert(verts, indices[i])
	d1 := triVert(verts, indices[j])

	// For each edge (k,k+1) of P
	for k := 0; k < n; k++ {
		k1 := Next(k, n)
		// Skip edges incident to i or j
		if (k == i) || (k1 == i) || (k == j) || (k1 == j) {
			continue
		}
		p0 := triVert(verts, indices[k])
		p1 := triVert(verts, indices[k1])
		if Vequal2D(d0, p0) || Vequal2D(d1, p0) || Vequal2D(d0, p1) || Vequal2D(d1, p1) {
			continue
		}
		if loose {
			if IntersectProp(d0, d1, p0, p1) {
				return false
			}
		} else if Intersect(d0, d1, p0, p1) {
			return false
		}
	}
	return true
}

// Returns true iff the diagonal (i,j) is strictly internal to the
// polygon P in the neighborhood of the i endpoint.
func inCone(i, j, n int, verts, indices []int, loose bool) bool {
	pi := triVert(verts, indices[i])
	pj := triVert(verts, indices[j])
	pi1 := triVert(verts, indices[Next(i, n)])
	pin1 := triVert(verts, indices[Prev(i, n)])

	// If P[i] is a convex vertex [ i+1 left or on (i-1,i) ].
	if LeftOn(pin1, pi, pi1) {
		if loose {
			return LeftOn(pi, pj, pin1) && LeftOn(pj, pi, pi1)
		}
		return Left(pi, pj, pin1) && Left(pj, pi, pi1)
	}
	// Assume (i-1,i,i+1) not collinear.
	// else P[i] is reflex.
	return !(LeftOn(pi, pj, pi1) && LeftOn(pj, pi, pin1))
}

// Diagonal reports whether (i,j) is a proper internal diagonal of the
// polygon described by indices into verts (stride 4).
func Diagonal(i, j, n int, verts, indices []int) bool {
	return inCone(i, j, n, verts, indices, false) && diagonalie(i, j, n, verts, indices, false)
}

func DiagonalLoose(i, j, n int, verts, indices []int) bool {
	return inCone(i, j, n, verts, indices, true) && diagonalie(i, j, n, verts, indices, true)
}

// Triangulate ear-clips the polygon described by n indices into verts
// (stride 4, x/z used) and writes triangles into tris. The return value is
// the triangle count, negated when the polygon could not be fully
// triangulated.
func Triangulate(n int, verts, indices, tris []int) int {
	ntris := 0
	dst := 0

	// The last bit of the index is used to indicate if the vertex can be removed.
	for i := 0; i < n; i++ {
		i1 := Next(i, n)
		i2 := Next(i1, n)
		if Diagonal(i, i2, n, verts, indices) {
			indices[i1] |= TriIndexFlag
		}
	}

	for n > 3 {
		minLen := -1
		mini := -1
		for i := 0; i < n; i++ {
			i1 := Next(i, n)
			if indices[i1]&TriIndexFlag != 0 {
				p0 := triVert(verts, indices[i])
				p2 := triVert(verts, indices[Next(i1, n)])
				dx := p2[0] - p0[0]
				dy := p2[2] - p0[2]
				length := dx*dx + dy*dy
				if minLen < 0 || length < minLen {
					minLen = length
					mini = i
				}
			}
		}

		if mini == -1 {
			// We might get here because the contour has overlapping segments, like this:
			//
			//  A o-o=====o---o B
			//   /  |C   D|    \.
			//  o   o     o     o
			//  :   :     :     :
			// We'll try to recover by loosing up the inCone test a bit so that a diagonal
			// like A-B or C-D can be found and we can continue.
			minLen = -1
			mini = -1
			for i := 0; i < n; i++ {
				i1 := Next(i, n)
				i2 := Next(i1, n)
				if DiagonalLoose(i, i2, n, verts, indices) {
					p0 := triVert(verts, indices[i])
					p2 := triVert(verts, indices[Next(i2, n)])
					dx := p2[0] - p0[0]
					dy := p2[2] - p0[2]
					length := dx*dx + dy*dy
					if minLen < 0 || length < minLen {
						minLen = length
						mini = i
					}
				}
			}
			if mini == -1 {
				// The contour is messed up. This sometimes happens
				// if the contour simplification is too aggressive.
				return -ntris
			}
		}

		i := mini
		i1 := Next(i, n)
		i2 := Next(i1, n)

		tris[dst] = indices[i] & TriIndexMask
		tris[dst+1] = indices[i1] & TriIndexMask
		tris[dst+2] = indices[i2] & TriIndexMask
		dst += 3
		ntris++

		// Removes P[i1] by copying P[i+1]...P[n-1] left one index.
		n--
		for k := i1; k < n; k++ {
			indices[k] = indices[k+1]
		}

		if i1 >= n {
			i1 = 0
		}
		i = Prev(i1, n)
		// Update diagonal flags.
		if Diagonal(Prev(i, n), i1, n, verts, indices) {
			indices[i] |= TriIndexFlag
		} else {
			indices[i] &= TriIndexMask
		}

		if Diagonal(i, Next(i1, n), n, verts, indices) {
			indices[i1] |= TriIndexFlag
		} else {
			indices[i1] &= TriIndexMask
		}
	}

	// Append the remaining triangle.
	tris[dst] = indices[0] & TriIndexMask
	tris[dst+1] = indices[1] & TriIndexMask
	tris[dst+2] = indices[2] & TriIndexMask
	ntris++

	return ntris
}

// / Checks if a point is contained within a polygon
// /
// / @param[in]	numVerts	Number of vertices in the polygon
// / @param[in]	verts		The polygon vertices
// / @param[in]	point		The point to check
// / @returns true if the point lies within the polygon, false otherwise.
func PointInPoly(numVerts int, verts []float32, point []float32) bool {
	inPoly := false
	for i, j := 0, numVerts-1; i < numVerts; j, i = i, i+1 {
		vi := GetVert3(verts, i)
		vj := GetVert3(verts, j)
		if (vi[2] > point[2]) == (vj[2] > point[2]) {
			continue
		}
		if point[0] >= (vj[0]-vi[0])*(point[2]-vi[2])/(vj[2]-vi[2])+vi[0] {
			continue
		}
		inPoly = !inPoly
	}
	return inPoly
}

func Vcross2(p1, p2, p3 []float32) float32 {
	u1 := p2[0] - p1[0]
	v1 := p2[2] - p1[2]
	u2 := p3[0] - p1[0]
	v2 := p3[2] - p1[2]
	return u1*v2 - v1*u2
}

func Vdot2(a, b []float32) float32 {
	return a[0]*b[0] + a[2]*b[2]
}

func VdistSq2(p, q []float32) float32 {
	dx := q[0] - p[0]
	dy := q[2] - p[2]
	return dx*dx + dy*dy
}

func Vdist2(p, q []float32) float32 {
	return Sqrt(VdistSq2(p, q))
}

// CircumCircle computes the xz circumcircle of p1 p2 p3 into c and r.
// It returns false for degenerate triangles.
func CircumCircle(p1, p2, p3, c []float32, r *float32) bool {
	const eps = 1e-6
	// Calculate the circle relative to p1, to avoid some precision issues.
	v1 := []float32{0, 0, 0}
	v2 := make([]float32, 3)
	v3 := make([]float32, 3)
	Vsub(v2, p2, p1)
	Vsub(v3, p3, p1)

	cp := Vcross2(v1, v2, v3)
	if Abs(cp) > eps {
		v1Sq := Vdot2(v1, v1)
		v2Sq := Vdot2(v2, v2)
		v3Sq := Vdot2(v3, v3)
		c[0] = (v1Sq*(v2[2]-v3[2]) + v2Sq*(v3[2]-v1[2]) + v3Sq*(v1[2]-v2[2])) / (2 * cp)
		c[1] = 0
		c[2] = (v1Sq*(v3[0]-v2[0]) + v2Sq*(v1[0]-v3[0]) + v3Sq*(v2[0]-v1[0])) / (2 * cp)
		*r = Vdist2(c, v1)
		Vadd(c, c, p1)
		return true
	}

	copy(c, p1)
	*r = 0
	return false
}

// DistPtTri returns the vertical distance of p to triangle abc when p
// projects inside it, MaxFloat32 otherwise.
func DistPtTri(p, a, b, c []float32) float32 {
	v0 := make([]float32, 3)
	v1 := make([]float32, 3)
	v2 := make([]float32, 3)
	Vsub(v0, c, a)
	Vsub(v1, b, a)
	Vsub(v2, p, a)

	dot00 := Vdot2(v0, v0)
	dot01 := Vdot2(v0, v1)
	dot02 := Vdot2(v0, v2)
	dot11 := Vdot2(v1, v1)
	dot12 := Vdot2(v1, v2)

	// Compute barycentric coordinates
	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	// If point lies inside the triangle, return interpolated y-coord.
	const eps = 1e-4
	if u >= -eps && v >= -eps && (u+v) <= 1+eps {
		y := a[1] + v0[1]*u + v1[1]*v
		return Abs(y - p[1])
	}
	return math.MaxFloat32
}

// DistancePtSeg returns the squared 3D distance from pt to segment pq.
func DistancePtSeg(pt, p, q []float32) float32 {
	pqx := q[0] - p[0]
	pqy := q[1] - p[1]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dy := pt[1] - p[1]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqy*pqy + pqz*pqz
	t := pqx*dx + pqy*dy + pqz*dz
	if d > 0 {
		t /= d
	}
	t = Clamp(t, 0, 1)

	dx = p[0] + t*pqx - pt[0]
	dy = p[1] + t*pqy - pt[1]
	dz = p[2] + t*pqz - pt[2]
	return dx*dx + dy*dy + dz*dz
}

// DistancePtSeg2D returns the squared xz distance from pt to segment pq.
func DistancePtSeg2D(pt, p, q []float32) float32 {
	pqx := q[0] - p[0]
	pqz := q[2] - p[2]
	dx := pt[0] - p[0]
	dz := pt[2] - p[2]
	d := pqx*pqx + pqz*pqz
	t := pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	t = Clamp(t, 0, 1)

	dx = p[0] + t*pqx - pt[0]
	dz = p[2] + t*pqz - pt[2]
	return dx*dx + dz*dz
}

// DistToTriMesh returns the smallest vertical distance from p to the
// triangles (stride 4), or -1 when p is outside all of them.
func DistToTriMesh(p, verts []float32, tris []int, ntris int) float32 {
	dmin := float32(math.MaxFloat32)
	for i := 0; i < ntris; i++ {
		va := GetVert3(verts, tris[i*4+0])
		vb := GetVert3(verts, tris[i*4+1])
		vc := GetVert3(verts, tris[i*4+2])
		d := DistPtTri(p, va, vb, vc)
		if d < dmin {
			dmin = d
		}
	}
	if dmin == math.MaxFloat32 {
		return -1
	}
	return dmin
}

// DistToPoly returns the squared xz distance from p to the nearest polygon edge,
// negated when p lies inside.
func DistToPoly(nvert int, verts []float32, p []float32) float32 {
	dmin := float32(math.MaxFloat32)
	c := false
	for i, j := 0, nvert-1; i < nvert; j, i = i, i+1 {
		vi := GetVert3(verts, i)
		vj := GetVert3(verts, j)
		if ((vi[2] > p[2]) != (vj[2] > p[2])) &&
			(p[0] < (vj[0]-vi[0])*(p[2]-vi[2])/(vj[2]-vi[2])+vi[0]) {
			c = !c
		}
		dmin = min(dmin, DistancePtSeg2D(p, vj, vi))
	}
	if c {
		return -dmin
	}
	return dmin
}

// / Determines if two axis-aligned bounding boxes overlap.
// /  @param[in]		amin	Minimum bounds of box A. [(x, y, z)]
// /  @param[in]		amax	Maximum bounds of box A. [(x, y, z)]
// /  @param[in]		bmin	Minimum bounds of box B. [(x, y, z)]
// /  @param[in]		bmax	Maximum bounds of box B. [(x, y, z)]
// / @return True if the two AABB's overlap.
func OverlapBounds(amin, amax, bmin, bmax []float32) bool {
	return amin[0] <= bmax[0] && amax[0] >= bmin[0] &&
		amin[1] <= bmax[1] && amax[1] >= bmin[1] &&
		amin[2] <= bmax[2] && amax[2] >= bmin[2]
}
