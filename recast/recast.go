package recast

import (
	"math"

	"github.com/gorustyt/recastgo/common"
)

// / Specifies a configuration to use when performing Recast builds.
// / @ingroup recast
type RcConfig struct {
	/// The width of the field along the x-axis. [Limit: >= 0] [Units: vx]
	Width int

	/// The height of the field along the z-axis. [Limit: >= 0] [Units: vx]
	Height int

	/// The width/height size of tile's on the xz-plane. [Limit: >= 0] [Units: vx]
	TileSize int

	/// The size of the non-navigable border around the heightfield. [Limit: >=0] [Units: vx]
	BorderSize int

	/// The xz-plane cell size to use for fields. [Limit: > 0] [Units: wu]
	Cs float32

	/// The y-axis cell size to use for fields. [Limit: > 0] [Units: wu]
	Ch float32

	/// The minimum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmin [3]float32

	/// The maximum bounds of the field's AABB. [(x, y, z)] [Units: wu]
	Bmax [3]float32

	/// The maximum slope that is considered walkable. [Limits: 0 <= value < 90] [Units: Degrees]
	WalkableSlopeAngle float32

	/// Minimum floor to 'ceiling' height that will still allow the floor area to
	/// be considered walkable. [Limit: >= 3] [Units: vx]
	WalkableHeight int

	/// Maximum ledge height that is considered to still be traversable. [Limit: >=0] [Units: vx]
	WalkableClimb int

	/// The distance to erode/shrink the walkable area of the heightfield away from
	/// obstructions.  [Limit: >=0] [Units: vx]
	WalkableRadius int

	/// The maximum allowed length for contour edges along the border of the mesh. [Limit: >=0] [Units: vx]
	MaxEdgeLen int

	/// The maximum distance a simplified contour's border edges should deviate
	/// the original raw contour. [Limit: >=0] [Units: vx]
	MaxSimplificationError float32

	/// The minimum number of cells allowed to form isolated island areas. [Limit: >=0] [Units: vx]
	MinRegionArea int

	/// Any regions with a span count smaller than this value will, if possible,
	/// be merged with larger regions. [Limit: >=0] [Units: vx]
	MergeRegionArea int

	/// The maximum number of vertices allowed for polygons generated during the
	/// contour to polygon conversion process. [Limit: >= 3]
	MaxVertsPerPoly int

	/// Sets the sampling distance to use when generating the detail mesh.
	/// (For height detail only.) [Limits: 0 or >= 0.9] [Units: wu]
	DetailSampleDist float32

	/// The maximum distance the detail mesh surface should deviate from heightfield
	/// data. (For height detail only.) [Limit: >=0] [Units: wu]
	DetailSampleMaxError float32
}

const (
	// / The default area id used to indicate a walkable polygon.
	// / This is also the maximum allowed area id, and the only non-null area id
	// / recognized by some steps in the build process.
	RC_WALKABLE_AREA = 63

	// / Represents the null area.
	// / When a data element is given this value it is considered to no longer be
	// / assigned to a usable area.  (E.g. It is un-walkable.)
	RC_NULL_AREA = 0
)

// RcCalcBounds returns the bounds of the first numVerts vertices.
func RcCalcBounds(verts []float32, numVerts int) (minBounds, maxBounds [3]float32) {
	// Calculate bounding box.
	copy(minBounds[:], verts)
	copy(maxBounds[:], verts)
	for i := 1; i < numVerts; i++ {
		v := common.GetVert3(verts, i)
		common.Vmin(minBounds[:], v)
		common.Vmax(maxBounds[:], v)
	}
	return minBounds, maxBounds
}

// RcCalcGridSize returns the number of columns covering the bounds along x
// and z. Partial cells count as whole cells.
func RcCalcGridSize(minBounds, maxBounds []float32, cellSize float32) (sizeX, sizeZ int) {
	sizeX = int(math.Ceil(float64((maxBounds[0] - minBounds[0]) / cellSize)))
	sizeZ = int(math.Ceil(float64((maxBounds[2] - minBounds[2]) / cellSize)))
	return sizeX, sizeZ
}

func calcTriNormal(v0, v1, v2 []float32, faceNormal []float32) {
	e0 := make([]float32, 3)
	e1 := make([]float32, 3)
	common.Vsub(e0, v1, v0)
	common.Vsub(e1, v2, v0)
	common.Vcross(faceNormal, e0, e1)
	common.Vnormalize(faceNormal)
}

func walkableThreshold(walkableSlopeAngle float32) float32 {
	return float32(math.Cos(float64(walkableSlopeAngle) / 180.0 * math.Pi))
}

// / Sets the area id of all triangles with a slope below the specified value
// / to #RC_WALKABLE_AREA.
// /
// / Only sets the area id's for the walkable triangles.  Does not alter the
// / area id's for un-walkable triangles.
// /
// / @param[in]		walkableSlopeAngle	The maximum slope that is considered walkable.
// /									[Limits: 0 <= value < 90] [Units: Degrees]
// / @param[in]		verts				The vertices. [(x, y, z) * nv]
// / @param[in]		tris				The triangle vertex indices. [(vertA, vertB, vertC) * nt]
// / @param[out]	triAreaIDs			The triangle area ids. [Length: >= nt]
func RcMarkWalkableTriangles[I uint16 | int32 | int](walkableSlopeAngle float32, verts []float32, tris []I, triAreaIDs []uint8) {
	walkableThr := walkableThreshold(walkableSlopeAngle)
	norm := make([]float32, 3)
	numTris := len(tris) / 3
	checkTriangleInput(verts, tris, triAreaIDs)
	for i := 0; i < numTris; i++ {
		tri := tris[i*3:]
		calcTriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]), norm)
		// Check if the face is walkable.
		if norm[1] > walkableThr {
			triAreaIDs[i] = RC_WALKABLE_AREA
		}
	}
}

// / Sets the area id of all triangles with a slope greater than or equal to the specified value to #RC_NULL_AREA.
// /
// / Only sets the area id's for the un-walkable triangles.  Does not alter the
// / area id's for walkable triangles.
func RcClearUnwalkableTriangles[I uint16 | int32 | int](walkableSlopeAngle float32, verts []float32, tris []I, triAreaIDs []uint8) {
	// The minimum Y value for a face normal of a triangle with a walkable slope.
	walkableLimitY := walkableThreshold(walkableSlopeAngle)
	faceNormal := make([]float32, 3)
	numTris := len(tris) / 3
	checkTriangleInput(verts, tris, triAreaIDs)
	for i := 0; i < numTris; i++ {
		tri := tris[i*3:]
		calcTriNormal(common.GetVert3(verts, tri[0]), common.GetVert3(verts, tri[1]), common.GetVert3(verts, tri[2]), faceNormal)
		// Check if the face is walkable.
		if faceNormal[1] <= walkableLimitY {
			triAreaIDs[i] = RC_NULL_AREA
		}
	}
}

// checkTriangleInput panics on malformed indexed triangle input: the index
// list must hold whole triangles, every index must address a vertex and
// there must be one area id per triangle.
func checkTriangleInput[I uint16 | int32 | int](verts []float32, tris []I, triAreaIDs []uint8) {
	numVerts := len(verts) / 3
	common.AssertTruef(len(tris)%3 == 0, "recast: triangle index count %d is not a multiple of 3", len(tris))
	common.AssertTruef(len(triAreaIDs) >= len(tris)/3, "recast: %d area ids for %d triangles", len(triAreaIDs), len(tris)/3)
	for i, index := range tris {
		common.AssertTruef(index >= 0 && int(index) < numVerts, "recast: triangle index %d at %d out of range [0, %d)", index, i, numVerts)
	}
}
