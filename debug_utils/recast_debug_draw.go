package debug_utils

import (
	"github.com/gorustyt/recastgo/recast"
)

// CompactView is the read access shared by both compact heightfield states.
type CompactView interface {
	Width() int
	Height() int
	Bmin() [3]float32
	Cs() float32
	Ch() float32
	ColumnSpans(x, z int) (begin, end int)
	Span(i int) recast.RcCompactSpan
	Area(i int) uint8
}

// drawCompactSpans emits one quad per compact span, coloured by color(i).
func drawCompactSpans(dd DuDebugDraw, chf CompactView, color func(i int) Colorb) {
	cs := chf.Cs()
	ch := chf.Ch()
	bmin := chf.Bmin()

	dd.Begin(DU_DRAW_QUADS)
	for y := 0; y < chf.Height(); y++ {
		for x := 0; x < chf.Width(); x++ {
			fx := bmin[0] + float32(x)*cs
			fz := bmin[2] + float32(y)*cs
			begin, end := chf.ColumnSpans(x, y)
			for i := begin; i < end; i++ {
				s := chf.Span(i)
				fy := bmin[1] + float32(s.Y+1)*ch
				col := color(i)
				dd.Vertex1(fx, fy, fz, col)
				dd.Vertex1(fx, fy, fz+cs, col)
				dd.Vertex1(fx+cs, fy, fz+cs, col)
				dd.Vertex1(fx+cs, fy, fz, col)
			}
		}
	}
	dd.End()
}

func DuDebugDrawCompactHeightfieldSolid(dd DuDebugDraw, chf CompactView) {
	if dd == nil {
		return
	}
	drawCompactSpans(dd, chf, func(i int) Colorb {
		area := chf.Area(i)
		if area == recast.RC_WALKABLE_AREA {
			return DuRGBA(0, 192, 255, 64)
		} else if area == recast.RC_NULL_AREA {
			return DuRGBA(0, 0, 0, 64)
		}
		return dd.AreaToCol(int(area))
	})
}

func DuDebugDrawCompactHeightfieldRegions(dd DuDebugDraw, rhf *recast.RcRegionHeightfield) {
	if dd == nil {
		return
	}
	drawCompactSpans(dd, rhf, func(i int) Colorb {
		if reg := rhf.Region(i); reg != 0 {
			return DuIntToCol(int(reg), 192)
		}
		return DuRGBA(0, 0, 0, 64)
	})
}

func DuDebugDrawCompactHeightfieldDistance(dd DuDebugDraw, rhf *recast.RcRegionHeightfield) {
	if dd == nil {
		return
	}
	maxd := float32(max(rhf.MaxDistance(), 1))
	dscale := 255.0 / maxd
	drawCompactSpans(dd, rhf, func(i int) Colorb {
		cd := int(float32(rhf.Dist(i)) * dscale)
		return DuRGBA(cd, cd, cd, 255)
	})
}

func drawLayerPortals(dd DuDebugDraw, layer *recast.RcHeightfieldLayer) {
	cs := layer.Cs
	ch := layer.Ch
	w := layer.Width
	h := layer.Height

	pcol := DuRGBA(255, 255, 255, 255)

	segs := [4 * 4]int{0, 0, 0, 1, 0, 1, 1, 1, 1, 1, 1, 0, 1, 0, 0, 0}

	// Layer portals
	dd.Begin(DU_DRAW_LINES, 2.0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := x + y*w
			lh := int(layer.Heights[idx])
			if lh == 0xff {
				continue
			}
			for dir := 0; dir < 4; dir++ {
				if layer.Cons[idx]&(1<<(dir+4)) == 0 {
					continue
				}
				seg := segs[dir*4:]
				fy := layer.Bmin[1] + float32(lh+2)*ch
				dd.Vertex1(layer.Bmin[0]+float32(x+seg[0])*cs, fy, layer.Bmin[2]+float32(y+seg[1])*cs, pcol)
				dd.Vertex1(layer.Bmin[0]+float32(x+seg[2])*cs, fy, layer.Bmin[2]+float32(y+seg[3])*cs, pcol)
			}
		}
	}
	dd.End()
}

func DuDebugDrawHeightfieldLayer(dd DuDebugDraw, layer *recast.RcHeightfieldLayer, idx int) {
	cs := layer.Cs
	ch := layer.Ch
	w := layer.Width
	h := layer.Height

	color := DuIntToCol(idx+1, 255)

	// Layer height
	dd.Begin(DU_DRAW_QUADS)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lidx := x + y*w
			lh := int(layer.Heights[lidx])
			if lh == 0xff {
				continue
			}
			area := layer.Areas[lidx]

			var col Colorb
			if area == recast.RC_WALKABLE_AREA {
				col = DuLerpCol(color, DuRGBA(0, 192, 255, 64), 32)
			} else if area == recast.RC_NULL_AREA {
				col = DuLerpCol(color, DuRGBA(0, 0, 0, 64), 32)
			} else {
				col = DuLerpCol(color, dd.AreaToCol(int(area)), 32)
			}

			fx := layer.Bmin[0] + float32(x)*cs
			fy := layer.Bmin[1] + float32(lh+1)*ch
			fz := layer.Bmin[2] + float32(y)*cs

			dd.Vertex1(fx, fy, fz, col)
			dd.Vertex1(fx, fy, fz+cs, col)
			dd.Vertex1(fx+cs, fy, fz+cs, col)
			dd.Vertex1(fx+cs, fy, fz, col)
		}
	}
	dd.End()

	// Portals
	drawLayerPortals(dd, layer)
}

func DuDebugDrawHeightfieldLayers(dd DuDebugDraw, lset *recast.RcHeightfieldLayerSet) {
	if dd == nil {
		return
	}
	for i, layer := range lset.Layers {
		DuDebugDrawHeightfieldLayer(dd, layer, i)
	}
}

func DuDebugDrawContours(dd DuDebugDraw, cset *recast.RcContourSet, alphas ...float32) {
	alpha := float32(1.0)
	if len(alphas) > 0 {
		alpha = alphas[0]
	}
	if dd == nil {
		return
	}

	orig := cset.Bmin
	cs := cset.Cs
	ch := cset.Ch

	a := int(alpha * 255.0)

	vertex := func(v []int, i int, off float32, col Colorb) {
		fx := orig[0] + float32(v[0])*cs
		fy := orig[1] + float32(v[1]+1+(i&1))*ch + off
		fz := orig[2] + float32(v[2])*cs
		dd.Vertex1(fx, fy, fz, col)
	}

	dd.Begin(DU_DRAW_LINES, 2.5)
	for i, c := range cset.Conts {
		if c.Nverts() == 0 {
			continue
		}
		color := DuIntToCol(int(c.Reg), a)
		bcolor := DuLerpCol(color, DuRGBA(255, 255, 255, a), 128)
		for j, k := 0, c.Nverts()-1; j < c.Nverts(); k, j = j, j+1 {
			va := c.Verts[k*4:]
			vb := c.Verts[j*4:]
			col := color
			if va[3]&recast.RC_AREA_BORDER != 0 {
				col = bcolor
			}
			vertex(va, i, 0, col)
			vertex(vb, i, 0, col)
		}
	}
	dd.End()

	dd.Begin(DU_DRAW_POINTS, 3.0)
	for i, c := range cset.Conts {
		color := DuDarkenCol(DuIntToCol(int(c.Reg), a))
		for j := 0; j < c.Nverts(); j++ {
			v := c.Verts[j*4:]
			off := float32(0.0)
			colv := color
			if v[3]&recast.RC_BORDER_VERTEX != 0 {
				colv = DuRGBA(255, 255, 255, a)
				off = ch * 2
			}
			vertex(v, i, off, colv)
		}
	}
	dd.End()
}

func DuDebugDrawPolyMesh(dd DuDebugDraw, mesh *recast.RcPolyMesh) {
	if dd == nil {
		return
	}

	cs := mesh.Cs
	ch := mesh.Ch
	orig := mesh.Bmin

	vertex := func(vi int, off float32, col Colorb) {
		v := mesh.Vert(vi)
		x := orig[0] + float32(v[0])*cs
		y := orig[1] + float32(v[1]+1)*ch + off
		z := orig[2] + float32(v[2])*cs
		dd.Vertex1(x, y, z, col)
	}

	dd.Begin(DU_DRAW_TRIS)
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.PolyVerts(i)
		area := mesh.Areas[i]

		var color Colorb
		if area == recast.RC_WALKABLE_AREA {
			color = DuRGBA(0, 192, 255, 64)
		} else if area == recast.RC_NULL_AREA {
			color = DuRGBA(0, 0, 0, 64)
		} else {
			color = dd.AreaToCol(int(area))
		}

		for j := 2; j < len(p); j++ {
			vertex(int(p[0]), 0, color)
			vertex(int(p[j-1]), 0, color)
			vertex(int(p[j]), 0, color)
		}
	}
	dd.End()

	// Draw neighbours edges
	coln := DuRGBA(0, 48, 64, 32)
	dd.Begin(DU_DRAW_LINES, 1.5)
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.PolyVerts(i)
		nei := mesh.PolyNeighbours(i)
		for j := range p {
			if nei[j]&recast.RC_PORTAL_FLAG != 0 || nei[j] == recast.RC_MESH_NULL_IDX {
				continue
			}
			nj := (j + 1) % len(p)
			vertex(int(p[j]), 0.1, coln)
			vertex(int(p[nj]), 0.1, coln)
		}
	}
	dd.End()

	// Draw boundary edges
	colb := DuRGBA(0, 48, 64, 220)
	dd.Begin(DU_DRAW_LINES, 2.5)
	for i := 0; i < mesh.Npolys; i++ {
		p := mesh.PolyVerts(i)
		nei := mesh.PolyNeighbours(i)
		for j := range p {
			if nei[j] != recast.RC_MESH_NULL_IDX && nei[j]&recast.RC_PORTAL_FLAG == 0 {
				continue
			}
			nj := (j + 1) % len(p)
			col := colb
			if nei[j] != recast.RC_MESH_NULL_IDX && nei[j]&0xf != 0xf {
				col = DuRGBA(255, 255, 255, 128)
			}
			vertex(int(p[j]), 0.1, col)
			vertex(int(p[nj]), 0.1, col)
		}
	}
	dd.End()

	dd.Begin(DU_DRAW_POINTS, 3.0)
	colv := DuRGBA(0, 0, 0, 220)
	for i := 0; i < mesh.Nverts; i++ {
		vertex(i, 0.1, colv)
	}
	dd.End()
}

func DuDebugDrawPolyMeshDetail(dd DuDebugDraw, dmesh *recast.RcPolyMeshDetail) {
	if dd == nil {
		return
	}

	vert := func(bverts int, t uint8) []float32 {
		i := bverts + int(t)
		return dmesh.Verts[i*3 : i*3+3]
	}

	dd.Begin(DU_DRAW_TRIS)
	for i := 0; i < dmesh.Nmeshes(); i++ {
		bverts, _, btris, ntris := dmesh.SubMesh(i)
		color := DuIntToCol(i, 192)
		for j := btris; j < btris+ntris; j++ {
			t := dmesh.Tri(j)
			dd.Vertex(vert(bverts, t[0]), color)
			dd.Vertex(vert(bverts, t[1]), color)
			dd.Vertex(vert(bverts, t[2]), color)
		}
	}
	dd.End()

	// Internal edges, then external edges.
	for _, boundary := range []bool{false, true} {
		col := DuRGBA(0, 0, 0, 64)
		width := float32(1.0)
		if boundary {
			width = 2.0
		}
		dd.Begin(DU_DRAW_LINES, width)
		for i := 0; i < dmesh.Nmeshes(); i++ {
			bverts, _, btris, ntris := dmesh.SubMesh(i)
			for j := btris; j < btris+ntris; j++ {
				t := dmesh.Tri(j)
				flags := dmesh.TriEdgeFlags(j)
				for k, kp := 0, 2; k < 3; kp, k = k, k+1 {
					if flags[kp] != boundary {
						continue
					}
					// Internal edges are shared; draw them once.
					if !boundary && t[kp] > t[k] {
						continue
					}
					dd.Vertex(vert(bverts, t[kp]), col)
					dd.Vertex(vert(bverts, t[k]), col)
				}
			}
		}
		dd.End()
	}

	dd.Begin(DU_DRAW_POINTS, 3.0)
	colv := DuRGBA(0, 0, 0, 64)
	for i := 0; i < dmesh.Nverts(); i++ {
		dd.Vertex(dmesh.Verts[i*3:i*3+3], colv)
	}
	dd.End()
}
