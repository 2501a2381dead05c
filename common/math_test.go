package common

import (
	"fmt"
	"strconv"
	"testing"
)

func assertTrue(t *testing.T, value bool, msg string) {
	t.Helper()
	if !value {
		t.Errorf(msg)
	}
}

func TestClamp(t *testing.T) {
	assertTrue(t, Clamp(2, 0, 1) == 1, "Higher than range error")
	assertTrue(t, Clamp(1, 0, 2) == 1, "Within range error")
	assertTrue(t, Clamp(0, 1, 2) == 1, "Lower than range error")
}

func TestSqr(t *testing.T) {
	if Sqr(2) != 4 {
		t.Errorf("Sqr squares a number")
	}
	if Sqr(-4) != 16 {
		t.Errorf("Sqr squares a number")
	}
	if Sqr(0) != 0 {
		t.Errorf("Sqr squares a number")
	}
}

func TestVcross(t *testing.T) {
	v1 := []float32{3, -3, 1}
	v2 := []float32{4, 9, 2}
	result := make([]float32, 3)
	Vcross(result, v1, v2)
	assertTrue(t, result[0] == -15, "Computes cross product")
	assertTrue(t, result[1] == -2, "Computes cross product")
	assertTrue(t, result[2] == 39, "Computes cross product")

	result = make([]float32, 3)
	Vcross(result, v1, v1)
	assertTrue(t, result[0] == 0, "Cross product with itself is zero")
	assertTrue(t, result[1] == 0, "Cross product with itself is zero")
	assertTrue(t, result[2] == 0, "Cross product with itself is zero")
}

func TestVdot(t *testing.T) {
	v1 := []float32{1, 0, 0}
	assertTrue(t, Vdot(v1, v1) == 1, "Dot normalized vector with itself")

	v1 = []float32{1, 2, 3}
	v2 := []float32{0, 0, 0}
	assertTrue(t, Vdot(v1, v2) == 0, "Dot zero vector with anything is zero")
}

func TestVdist(t *testing.T) {
	v1 := []float32{3, 1, 3}
	v2 := []float32{1, 3, 1}
	value, _ := strconv.ParseFloat(fmt.Sprintf("%.4f", Vdist(v1, v2)), 64)
	assertTrue(t, value == 3.4641, "distance between two vectors")

	assertTrue(t, Vdist(v1, v1) == 0, "Distance from someplace to itself is always zero")
}

func TestVdistSqr(t *testing.T) {
	v1 := []float32{3, 1, 3}
	v2 := []float32{1, 3, 1}
	assertTrue(t, VdistSqr(v1, v2) == 12, "squared distance between two vectors")
	assertTrue(t, VdistSqr(v1, v1) == 0, "squared distance from someplace to itself is always zero")
}

func TestVnormalize(t *testing.T) {
	v := []float32{3, 3, 3}
	Vnormalize(v)
	value, _ := strconv.ParseFloat(fmt.Sprintf("%.4f", v[0]), 64)
	assertTrue(t, value == 0.5774, "normalizing reduces magnitude to 1")
	magnitude, _ := strconv.ParseFloat(fmt.Sprintf("%.4f", Sqrt(Sqr(v[0])+Sqr(v[1])+Sqr(v[2]))), 64)
	assertTrue(t, magnitude == 1, "normalizing reduces magnitude to 1")
}

func TestDirOffsets(t *testing.T) {
	for dir := 0; dir < 4; dir++ {
		dx, dz := GetDirOffsetX(dir), GetDirOffsetY(dir)
		assertTrue(t, GetDirForOffset(dx, dz) == dir, "direction round trips through its offset")
	}
}

func TestTriangulate(t *testing.T) {
	// Square, counter-clockwise in xz, stride 4.
	verts := []int{
		0, 0, 0, 0,
		0, 0, 4, 0,
		4, 0, 4, 0,
		4, 0, 0, 0,
	}
	indices := []int{0, 1, 2, 3}
	tris := make([]int, 6)
	ntris := Triangulate(4, verts, indices, tris)
	assertTrue(t, ntris == 2, "square splits into two triangles")
	seen := map[int]bool{}
	for _, v := range tris {
		seen[v] = true
	}
	assertTrue(t, len(seen) == 4, "triangles use every vertex")
}

func TestPointInPoly(t *testing.T) {
	square := []float32{0, 0, 0, 0, 0, 2, 2, 0, 2, 2, 0, 0}
	assertTrue(t, PointInPoly(4, square, []float32{1, 0, 1}), "centre is inside")
	assertTrue(t, !PointInPoly(4, square, []float32{3, 0, 1}), "point right of the square is outside")
}

func TestDistToPoly(t *testing.T) {
	square := []float32{0, 0, 0, 0, 0, 2, 2, 0, 2, 2, 0, 0}
	assertTrue(t, DistToPoly(4, square, []float32{1, 0, 1}) < 0, "inside points have negative distance")
	assertTrue(t, DistToPoly(4, square, []float32{3, 0, 1}) == 1, "squared distance to the nearest edge")
}

func panicMessage(fn func()) (msg any) {
	defer func() { msg = recover() }()
	fn()
	return nil
}

func TestAssertTrue(t *testing.T) {
	assertTrue(t, panicMessage(func() { AssertTrue(true, "unused") }) == nil, "true condition does not panic")
	assertTrue(t, panicMessage(func() { AssertTrue(false) }) == "assertion failed", "bare assertion has a default message")
	assertTrue(t, panicMessage(func() { AssertTrue(false, "nvp ", 2) }) == "nvp 2", "message parts are joined")
	assertTrue(t, panicMessage(func() { AssertTruef(false, "column (%d, %d) outside", 7, 9) }) == "column (7, 9) outside", "format arguments are applied")
	assertTrue(t, panicMessage(func() { AssertTruef(true, "%d", 1) }) == nil, "true condition does not panic")
}
