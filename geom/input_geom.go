package geom

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gorustyt/recastgo/common"
	"github.com/gorustyt/recastgo/recast"
)

const (
	MAX_CONVEXVOL_PTS = 12
	MAX_VOLUMES       = 256
)

var (
	ErrTooManyVolumes = errors.New("geom: too many convex volumes")
	ErrDegenerateHull = errors.New("geom: convex volume needs at least 3 hull points")
)

// ConvexVolume is a prism over a convex xz polygon whose spans get Area.
type ConvexVolume struct {
	Verts []float32 // (x, y, z) per hull vertex, counter-clockwise
	Hmin  float32
	Hmax  float32
	Area  uint8
}

func (v *ConvexVolume) Nverts() int { return len(v.Verts) / 3 }

// Contains reports whether p lies inside the prism.
func (v *ConvexVolume) Contains(p []float32) bool {
	if p[1] < v.Hmin || p[1] > v.Hmax {
		return false
	}
	return common.PointInPoly(v.Nverts(), v.Verts, p)
}

// Mark stamps the volume's area onto the compact heightfield.
func (v *ConvexVolume) Mark(ctx *recast.RcContext, chf *recast.RcCompactHeightfield) {
	recast.RcMarkConvexPolyArea(ctx, v.Verts, v.Hmin, v.Hmax, v.Area, chf)
}

// / Builds a convex volume from loose points.
// / @param[in]	pts		Points (x, y, z), at most #MAX_CONVEXVOL_PTS are used.
// / @param[in]	hmin	Bottom of the prism.
// / @param[in]	hmax	Top of the prism.
// / @param[in]	offset	Outward offset of the hull. Zero keeps the hull as is.
// / @param[in]	area	Area id applied by Mark.
func NewConvexVolume(pts []float32, hmin, hmax, offset float32, area uint8) (*ConvexVolume, error) {
	npts := min(len(pts)/3, MAX_CONVEXVOL_PTS)
	hull := ConvexHull(pts[:npts*3])
	if len(hull) < 3 {
		return nil, ErrDegenerateHull
	}
	verts := make([]float32, 0, len(hull)*3)
	for _, i := range hull {
		verts = append(verts, common.GetVert3(pts, i)...)
	}
	if offset > 0.01 {
		verts = recast.RcOffsetPoly(verts, offset)
	}
	return &ConvexVolume{Verts: verts, Hmin: hmin, Hmax: hmax, Area: area}, nil
}

// Returns true if 'c' is left of line 'a'-'b'.
func left(a, b, c []float32) bool {
	u1 := b[0] - a[0]
	v1 := b[2] - a[2]
	u2 := c[0] - a[0]
	v2 := c[2] - a[2]
	return u1*v2-v1*u2 < 0
}

// Returns true if 'a' is more lower-left than 'b'.
func cmppt(a, b []float32) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[2] < b[2]
}

// ConvexHull gift-wraps the xz projection of pts and returns the indices of
// the hull points.
func ConvexHull(pts []float32) []int {
	npts := len(pts) / 3
	if npts == 0 {
		return nil
	}
	// Find lower-leftmost point.
	hull := 0
	for i := 1; i < npts; i++ {
		if cmppt(pts[i*3:], pts[hull*3:]) {
			hull = i
		}
	}
	// Gift wrap hull.
	var out []int
	for {
		out = append(out, hull)
		endpt := 0
		for j := 1; j < npts; j++ {
			if hull == endpt || left(pts[hull*3:], pts[endpt*3:], pts[j*3:]) {
				endpt = j
			}
		}
		hull = endpt
		if endpt == out[0] || len(out) > npts {
			break
		}
	}
	return out
}

// InputGeom is the source mesh plus the convex volumes painted on it.
type InputGeom struct {
	mesh    *Mesh
	bmin    mgl32.Vec3
	bmax    mgl32.Vec3
	volumes []*ConvexVolume
}

func NewInputGeom(mesh *Mesh) *InputGeom {
	bmin, bmax := recast.RcCalcBounds(mesh.Verts, mesh.VertCount())
	return &InputGeom{mesh: mesh, bmin: bmin, bmax: bmax}
}

func (g *InputGeom) Mesh() *Mesh                    { return g.mesh }
func (g *InputGeom) MeshBoundsMin() mgl32.Vec3      { return g.bmin }
func (g *InputGeom) MeshBoundsMax() mgl32.Vec3      { return g.bmax }
func (g *InputGeom) ConvexVolumes() []*ConvexVolume { return g.volumes }

func (g *InputGeom) AddConvexVolume(vol *ConvexVolume) error {
	if len(g.volumes) >= MAX_VOLUMES {
		return ErrTooManyVolumes
	}
	g.volumes = append(g.volumes, vol)
	return nil
}

// DeleteConvexVolume removes volume i, moving the last volume into its slot.
func (g *InputGeom) DeleteConvexVolume(i int) {
	last := len(g.volumes) - 1
	g.volumes[i] = g.volumes[last]
	g.volumes[last] = nil
	g.volumes = g.volumes[:last]
}

// Areas returns one area id per mesh triangle, marked walkable by slope.
func (g *InputGeom) Areas(walkableSlopeAngle float32) []uint8 {
	areas := make([]uint8, g.mesh.TriCount())
	recast.RcMarkWalkableTriangles(walkableSlopeAngle, g.mesh.Verts, g.mesh.Tris, areas)
	return areas
}
