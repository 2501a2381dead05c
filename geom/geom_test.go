package geom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadObj = `# unit quad
v 0 0 0
v 0 0 1
v 1 0 1
v 1 0 0
vn 0 1 0
f 1//1 2//1 3//1 4//1
`

func TestParseObjFansQuad(t *testing.T) {
	m, err := ParseObj(strings.NewReader(quadObj), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, m.VertCount())
	assert.Equal(t, 2, m.TriCount())
	assert.Equal(t, []int{0, 1, 2, 0, 2, 3}, m.Tris)
	assert.Equal(t, []float32{2, 0, 2}, m.Verts[6:9])
	for i := 0; i < m.TriCount(); i++ {
		assert.InDelta(t, 1.0, m.Normals[i*3+1], 1e-6, "triangle %d faces up", i)
	}
}

func TestParseObjNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 0 0 1\nv 1 0 1\nf -3 -2 -1\nf 1 2 9\n"
	m, err := ParseObj(strings.NewReader(src), 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, m.Tris, "out of range face is skipped")
}

func TestParseObjBadVertex(t *testing.T) {
	_, err := ParseObj(strings.NewReader("v 0 zero 0\n"), 1)
	assert.ErrorContains(t, err, "line 1")
}

func TestLoadObj(t *testing.T) {
	p := filepath.Join(t.TempDir(), "quad.obj")
	require.NoError(t, os.WriteFile(p, []byte(quadObj), 0o644))
	m, err := LoadObj(p, 1)
	require.NoError(t, err)
	assert.Equal(t, "quad.obj", m.Name)

	_, err = LoadObj(filepath.Join(t.TempDir(), "missing.obj"), 1)
	assert.Error(t, err)
}

func TestConvexHull(t *testing.T) {
	pts := []float32{
		0, 0, 0,
		2, 0, 0,
		1, 0, 1, // interior
		2, 0, 2,
		0, 0, 2,
	}
	hull := ConvexHull(pts)
	assert.ElementsMatch(t, []int{0, 1, 3, 4}, hull)
	assert.Equal(t, 0, hull[0], "hull starts at the lower-left point")
}

func TestConvexVolume(t *testing.T) {
	pts := []float32{0, 0, 0, 4, 0, 0, 4, 0, 4, 0, 0, 4}
	vol, err := NewConvexVolume(pts, -1, 2, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 4, vol.Nverts())
	assert.True(t, vol.Contains([]float32{2, 0, 2}))
	assert.False(t, vol.Contains([]float32{2, 3, 2}), "above the prism")
	assert.False(t, vol.Contains([]float32{5, 0, 2}))

	grown, err := NewConvexVolume(pts, -1, 2, 0.5, 5)
	require.NoError(t, err)
	assert.True(t, grown.Contains([]float32{4.25, 0, 2}), "offset hull grows outward")

	_, err = NewConvexVolume([]float32{0, 0, 0, 1, 0, 0}, 0, 1, 0, 1)
	assert.ErrorIs(t, err, ErrDegenerateHull)
}

func TestInputGeomVolumes(t *testing.T) {
	m, err := ParseObj(strings.NewReader(quadObj), 1)
	require.NoError(t, err)
	g := NewInputGeom(m)
	assert.Equal(t, float32(1), g.MeshBoundsMax()[0])

	areas := g.Areas(45)
	assert.Len(t, areas, 2)

	vol := &ConvexVolume{Verts: []float32{0, 0, 0, 0, 0, 1, 1, 0, 1}, Hmin: 0, Hmax: 1, Area: 3}
	for i := 0; i < MAX_VOLUMES; i++ {
		require.NoError(t, g.AddConvexVolume(vol))
	}
	assert.ErrorIs(t, g.AddConvexVolume(vol), ErrTooManyVolumes)
	g.DeleteConvexVolume(0)
	assert.Len(t, g.ConvexVolumes(), MAX_VOLUMES-1)
}
