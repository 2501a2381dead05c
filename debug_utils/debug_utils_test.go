package debug_utils

import (
	"bufio"
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/gorustyt/recastgo/common/rw"
	"github.com/gorustyt/recastgo/recast"
	"github.com/jsummers/gobmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type room struct {
	rhf   *recast.RcRegionHeightfield
	cset  *recast.RcContourSet
	pmesh *recast.RcPolyMesh
	dmesh *recast.RcPolyMeshDetail
}

// buildRoom runs the pipeline over a flat quad at y 0.5 in a 5x5x5 box.
func buildRoom(t *testing.T) room {
	t.Helper()
	ctx := recast.NewRcContext(zaptest.NewLogger(t))
	bmin, bmax := [3]float32{0, 0, 0}, [3]float32{5, 5, 5}
	verts := []float32{0, 0.5, 0, 0, 0.5, 5, 5, 0.5, 5, 5, 0.5, 0}
	tris := []int{0, 1, 2, 0, 2, 3}
	areas := []uint8{recast.RC_WALKABLE_AREA, recast.RC_WALKABLE_AREA}

	hf, err := recast.RcCreateHeightfield(ctx, 5, 5, bmin[:], bmax[:], 1, 1)
	require.NoError(t, err)
	require.NoError(t, recast.RcRasterizeIndexedTriangles(ctx, verts, tris, areas, hf, 1))
	chf, err := recast.RcBuildCompactHeightfield(ctx, 3, 0, hf)
	require.NoError(t, err)
	rhf, err := recast.RcBuildRegions(ctx, chf, 0, 1, 1)
	require.NoError(t, err)
	cset, err := recast.RcBuildContours(ctx, rhf, 1.0, 10, recast.RcDefaultContourFlags)
	require.NoError(t, err)
	pmesh, err := recast.RcBuildPolyMesh(ctx, cset, 5)
	require.NoError(t, err)
	dmesh, err := recast.RcBuildPolyMeshDetail(ctx, pmesh, rhf, 1.0, 0.1)
	require.NoError(t, err)
	return room{rhf: rhf, cset: cset, pmesh: pmesh, dmesh: dmesh}
}

func countPrefix(t *testing.T, data []byte, prefix string) int {
	t.Helper()
	n := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), prefix) {
			n++
		}
	}
	return n
}

func TestDumpPolyMeshToObj(t *testing.T) {
	r := buildRoom(t)
	var buf bytes.Buffer
	require.NoError(t, DuDumpPolyMeshToObj(r.pmesh, &buf))
	assert.Equal(t, 4, countPrefix(t, buf.Bytes(), "v "))
	assert.Equal(t, 2, countPrefix(t, buf.Bytes(), "f "), "quad is fanned into two faces")
}

func TestDumpPolyMeshDetailToObj(t *testing.T) {
	r := buildRoom(t)
	var buf bytes.Buffer
	require.NoError(t, DuDumpPolyMeshDetailToObj(r.dmesh, &buf))
	assert.Equal(t, r.dmesh.Nverts(), countPrefix(t, buf.Bytes(), "v "))
	assert.Equal(t, r.dmesh.Ntris(), countPrefix(t, buf.Bytes(), "f "))
}

func TestPolyMeshBinaryRoundTrip(t *testing.T) {
	r := buildRoom(t)
	w := rw.NewWriter()
	DuDumpPolyMesh(r.pmesh, w)
	got, err := DuReadPolyMesh(rw.NewReader(w.GetWriteBytes()))
	require.NoError(t, err)
	assert.Equal(t, r.pmesh, got)

	w = rw.NewWriter()
	DuDumpPolyMeshDetail(r.dmesh, w)
	gotDetail, err := DuReadPolyMeshDetail(rw.NewReader(w.GetWriteBytes()))
	require.NoError(t, err)
	assert.Equal(t, r.dmesh, gotDetail)
}

func TestContourSetRoundTrip(t *testing.T) {
	r := buildRoom(t)
	w := rw.NewWriter()
	DuDumpContourSet(r.cset, w)
	got, err := DuReadContourSet(rw.NewReader(w.GetWriteBytes()))
	require.NoError(t, err)
	assert.Equal(t, r.cset.Nconts(), got.Nconts())
	for i, c := range r.cset.Conts {
		assert.Equal(t, c.Verts, got.Conts[i].Verts)
		assert.Equal(t, c.RVerts, got.Conts[i].RVerts)
		assert.Equal(t, c.Reg, got.Conts[i].Reg)
	}
	assert.Equal(t, r.cset.MaxError, got.MaxError)
}

func TestReadRejectsBadInput(t *testing.T) {
	w := rw.NewWriter()
	w.WriteInt32(CSET_MAGIC)
	_, err := DuReadPolyMesh(rw.NewReader(w.GetWriteBytes()))
	assert.ErrorIs(t, err, ErrBadMagic)
	assert.Contains(t, err.Error(), "duReadPolyMesh")

	w = rw.NewWriter()
	w.WriteInt32(CSET_MAGIC)
	w.WriteInt32(CSET_VERSION + 1)
	_, err = DuReadContourSet(rw.NewReader(w.GetWriteBytes()))
	assert.ErrorIs(t, err, ErrBadVersion)
	assert.Contains(t, err.Error(), "duReadContourSet")
	assert.Contains(t, err.Error(), "4", "reports the version found")

	r := buildRoom(t)
	w = rw.NewWriter()
	DuDumpPolyMesh(r.pmesh, w)
	data := w.GetWriteBytes()
	_, err = DuReadPolyMesh(rw.NewReader(data[:len(data)-3]))
	assert.ErrorIs(t, err, rw.ErrShortBuffer)
}

func TestDumpCompactHeightfield(t *testing.T) {
	r := buildRoom(t)
	w := rw.NewWriter()
	DuDumpCompactHeightfield(r.rhf, w)
	header := 6*4 + 2*2 + 6*4 + 2*4
	cells := r.rhf.Width() * r.rhf.Height() * 5
	spans := r.rhf.SpanCount() * (9 + 2 + 1)
	assert.Equal(t, header+cells+spans, w.Size())
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette(map[uint8]string{1: "lime", 2: "#ff000080"})
	require.NoError(t, err)
	assert.Equal(t, Colorb{0, 255, 0, 255}, p.AreaToCol(1))
	assert.Equal(t, Colorb{255, 0, 0, 128}, p.AreaToCol(2))
	assert.Equal(t, DuRGBA(0, 192, 255, 255), p.AreaToCol(0), "unlisted ground keeps the default")
	assert.Equal(t, DuIntToCol(7, 255), p.AreaToCol(7))

	_, err = ParsePalette(map[uint8]string{3: "nope"})
	assert.Error(t, err)
}

func TestColorHelpers(t *testing.T) {
	c := DuRGBA(200, 100, 50, 255)
	var back Colorb
	back.FromInt(c.Int())
	assert.Equal(t, c, back)
	assert.Equal(t, Colorb{100, 50, 25, 255}, DuDarkenCol(c))
	assert.Equal(t, Colorb{200, 100, 50, 10}, DuTransCol(c, 10))
	assert.Equal(t, c, DuLerpCol(c, DuRGBA(0, 0, 0, 0), 0))
	assert.Equal(t, color.NRGBAModel.Convert(c), color.NRGBA{R: 200, G: 100, B: 50, A: 255})
}

func TestImageDrawQuad(t *testing.T) {
	dd := NewImageDraw([3]float32{0, 0, 0}, [3]float32{4, 1, 4}, 1, 2, nil)
	assert.Equal(t, 8, dd.Image().Rect.Dx())

	red := DuRGBA(255, 0, 0, 255)
	dd.Begin(DU_DRAW_QUADS)
	dd.Vertex1(1, 0, 1, red)
	dd.Vertex1(1, 0, 3, red)
	dd.Vertex1(3, 0, 3, red)
	dd.Vertex1(3, 0, 1, red)
	dd.End()

	assert.Equal(t, color.NRGBA{R: 255, A: 255}, dd.Image().NRGBAAt(3, 3))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, dd.Image().NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, dd.Image().NRGBAAt(6, 6))
}

func TestDisplayListReplay(t *testing.T) {
	list := NewDuDisplayList(0)
	list.begin(DU_DRAW_LINES, 1)
	black := DuRGBA(0, 0, 0, 255)
	list.vertex(0, 0, 0.5, black)
	list.vertex(4, 0, 0.5, black)
	assert.Equal(t, 2, list.Size())

	dd := NewImageDraw([3]float32{0, 0, 0}, [3]float32{4, 1, 4}, 1, 1, nil)
	list.Draw(dd)
	assert.Equal(t, color.NRGBA{A: 255}, dd.Image().NRGBAAt(2, 0))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, dd.Image().NRGBAAt(2, 3))
}

func TestRenderBMPDecodes(t *testing.T) {
	r := buildRoom(t)
	views := []struct {
		name   string
		filled bool
		draw   func(dd DuDebugDraw)
	}{
		{"areas", true, func(dd DuDebugDraw) { DuDebugDrawCompactHeightfieldSolid(dd, r.rhf) }},
		{"regions", true, func(dd DuDebugDraw) { DuDebugDrawCompactHeightfieldRegions(dd, r.rhf) }},
		{"distance", false, func(dd DuDebugDraw) { DuDebugDrawCompactHeightfieldDistance(dd, r.rhf) }},
		{"contours", false, func(dd DuDebugDraw) { DuDebugDrawContours(dd, r.cset) }},
		{"polymesh", true, func(dd DuDebugDraw) { DuDebugDrawPolyMesh(dd, r.pmesh) }},
		{"detail", false, func(dd DuDebugDraw) { DuDebugDrawPolyMeshDetail(dd, r.dmesh) }},
	}
	for _, v := range views {
		t.Run(v.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderBMP(&buf, r.rhf.Bmin(), r.rhf.Bmax(), r.rhf.Cs(), 4, nil, v.draw))
			img, err := gobmp.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, 20, img.Bounds().Dx())
			assert.Equal(t, 20, img.Bounds().Dy())
			if v.filled {
				cr, cg, cb, _ := img.At(10, 10).RGBA()
				assert.False(t, cr == 0xffff && cg == 0xffff && cb == 0xffff, "centre pixel is drawn")
			}
		})
	}
}

func TestDrawHeightfieldLayers(t *testing.T) {
	r := buildRoom(t)
	ctx := recast.NewRcContext(zaptest.NewLogger(t))
	lset, err := recast.RcBuildHeightfieldLayers(ctx, r.rhf, 0, 3)
	require.NoError(t, err)
	require.Equal(t, 1, lset.Nlayers())

	dd := NewImageDraw(r.rhf.Bmin(), r.rhf.Bmax(), r.rhf.Cs(), 1, nil)
	DuDebugDrawHeightfieldLayers(dd, lset)
	assert.NotEqual(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, dd.Image().NRGBAAt(2, 2))
}
