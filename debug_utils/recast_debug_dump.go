package debug_utils

import (
	"errors"
	"fmt"
	"io"

	"github.com/gorustyt/recastgo/common/rw"
	"github.com/gorustyt/recastgo/recast"
)

var (
	ErrBadMagic   = errors.New("debug_utils: bad magic")
	ErrBadVersion = errors.New("debug_utils: bad version")
)

func DuDumpPolyMeshToObj(pmesh *recast.RcPolyMesh, w io.Writer) error {
	out := rw.NewWriter()
	cs := pmesh.Cs
	ch := pmesh.Ch
	orig := pmesh.Bmin

	out.WriteString("# Recast Navmesh\n")
	out.WriteString("o NavMesh\n")
	out.WriteString("\n")

	for i := 0; i < pmesh.Nverts; i++ {
		v := pmesh.Vert(i)
		x := orig[0] + float32(v[0])*cs
		y := orig[1] + float32(v[1]+1)*ch + 0.1
		z := orig[2] + float32(v[2])*cs
		out.WriteString(fmt.Sprintf("v %f %f %f\n", x, y, z))
	}

	out.WriteString("\n")

	for i := 0; i < pmesh.Npolys; i++ {
		p := pmesh.PolyVerts(i)
		for j := 2; j < len(p); j++ {
			out.WriteString(fmt.Sprintf("f %d %d %d\n", int(p[0])+1, int(p[j-1])+1, int(p[j])+1))
		}
	}
	_, err := out.WriteTo(w)
	return err
}

func DuDumpPolyMeshDetailToObj(dmesh *recast.RcPolyMeshDetail, w io.Writer) error {
	out := rw.NewWriter()
	out.WriteString("# Recast Navmesh\n")
	out.WriteString("o NavMesh\n")
	out.WriteString("\n")

	for i := 0; i < dmesh.Nverts(); i++ {
		v := dmesh.Verts[i*3:]
		out.WriteString(fmt.Sprintf("v %f %f %f\n", v[0], v[1], v[2]))
	}

	out.WriteString("\n")

	for i := 0; i < dmesh.Nmeshes(); i++ {
		bverts, _, btris, ntris := dmesh.SubMesh(i)
		for j := btris; j < btris+ntris; j++ {
			t := dmesh.Tri(j)
			out.WriteString(fmt.Sprintf("f %d %d %d\n",
				bverts+int(t[0])+1,
				bverts+int(t[1])+1,
				bverts+int(t[2])+1))
		}
	}
	_, err := out.WriteTo(w)
	return err
}

func checkHeader(r *rw.ReaderWriter, name string, magic, version uint32) error {
	if m := r.ReadUInt32(); m != magic {
		return fmt.Errorf("%s: %w %#08x", name, ErrBadMagic, m)
	}
	if v := r.ReadUInt32(); v != version {
		return fmt.Errorf("%s: %w %d", name, ErrBadVersion, v)
	}
	return nil
}

func writeInts(w *rw.ReaderWriter, v []int) {
	for _, x := range v {
		w.WriteInt32(uint32(int32(x)))
	}
}

func readInts(r *rw.ReaderWriter, n int) []int {
	v := make([]int, n)
	for i := range v {
		v[i] = int(r.ReadInt32())
	}
	return v
}

const CSET_MAGIC = ('c' << 24) | ('s' << 16) | ('e' << 8) | 't'

const CSET_VERSION = 3

func DuDumpContourSet(cset *recast.RcContourSet, w *rw.ReaderWriter) {
	w.WriteInt32(CSET_MAGIC)
	w.WriteInt32(CSET_VERSION)
	w.WriteInt32(uint32(cset.Nconts()))
	w.WriteFloat32s(cset.Bmin[:])
	w.WriteFloat32s(cset.Bmax[:])

	w.WriteFloat32(cset.Cs)
	w.WriteFloat32(cset.Ch)

	w.WriteInt32(uint32(cset.Width))
	w.WriteInt32(uint32(cset.Height))
	w.WriteInt32(uint32(cset.BorderSize))
	w.WriteFloat32(cset.MaxError)
	for _, cont := range cset.Conts {
		w.WriteInt32(uint32(cont.Nverts()))
		w.WriteInt32(uint32(cont.Nrverts()))

		w.WriteInt16(cont.Reg)
		w.WriteInt8(cont.Area)
		writeInts(w, cont.Verts)
		writeInts(w, cont.RVerts)
	}
}

func DuReadContourSet(r *rw.ReaderWriter) (*recast.RcContourSet, error) {
	if err := checkHeader(r, "duReadContourSet", CSET_MAGIC, CSET_VERSION); err != nil {
		return nil, err
	}
	cset := &recast.RcContourSet{}
	nconts := int(r.ReadUInt32())
	r.ReadFloat32s(cset.Bmin[:])
	r.ReadFloat32s(cset.Bmax[:])

	cset.Cs = r.ReadFloat32()
	cset.Ch = r.ReadFloat32()
	cset.Width = int(r.ReadInt32())
	cset.Height = int(r.ReadInt32())
	cset.BorderSize = int(r.ReadInt32())
	cset.MaxError = r.ReadFloat32()
	for i := 0; i < nconts && r.Err() == nil; i++ {
		cont := &recast.RcContour{}
		nverts := int(r.ReadUInt32())
		nrverts := int(r.ReadUInt32())
		if (nverts+nrverts)*4*4 > r.Size() {
			return nil, rw.ErrShortBuffer
		}
		cont.Reg = r.ReadUInt16()
		cont.Area = r.ReadUInt8()
		cont.Verts = readInts(r, 4*nverts)
		cont.RVerts = readInts(r, 4*nrverts)
		cset.Conts = append(cset.Conts, cont)
	}
	return cset, r.Err()
}

const PMESH_MAGIC = ('p' << 24) | ('m' << 16) | ('s' << 8) | 'h'

const PMESH_VERSION = 1

func DuDumpPolyMesh(pmesh *recast.RcPolyMesh, w *rw.ReaderWriter) {
	w.WriteInt32(PMESH_MAGIC)
	w.WriteInt32(PMESH_VERSION)
	w.WriteInt32(uint32(pmesh.Nverts))
	w.WriteInt32(uint32(pmesh.Npolys))
	w.WriteInt32(uint32(pmesh.Nvp))
	w.WriteFloat32s(pmesh.Bmin[:])
	w.WriteFloat32s(pmesh.Bmax[:])
	w.WriteFloat32(pmesh.Cs)
	w.WriteFloat32(pmesh.Ch)
	w.WriteInt32(uint32(pmesh.BorderSize))
	w.WriteFloat32(pmesh.MaxEdgeError)
	w.WriteUInt16s(pmesh.Verts)
	w.WriteUInt16s(pmesh.Polys)
	w.WriteUInt16s(pmesh.Regs)
	w.WriteUInt16s(pmesh.Flags)
	w.WriteUInt8s(pmesh.Areas)
}

func DuReadPolyMesh(r *rw.ReaderWriter) (*recast.RcPolyMesh, error) {
	if err := checkHeader(r, "duReadPolyMesh", PMESH_MAGIC, PMESH_VERSION); err != nil {
		return nil, err
	}
	pmesh := &recast.RcPolyMesh{}
	pmesh.Nverts = int(r.ReadUInt32())
	pmesh.Npolys = int(r.ReadUInt32())
	pmesh.Nvp = int(r.ReadUInt32())
	r.ReadFloat32s(pmesh.Bmin[:])
	r.ReadFloat32s(pmesh.Bmax[:])
	pmesh.Cs = r.ReadFloat32()
	pmesh.Ch = r.ReadFloat32()
	pmesh.BorderSize = int(r.ReadInt32())
	pmesh.MaxEdgeError = r.ReadFloat32()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if pmesh.Nverts*3 > r.Size() || pmesh.Npolys*pmesh.Nvp*2 > r.Size() {
		return nil, rw.ErrShortBuffer
	}
	pmesh.Verts = make([]uint16, pmesh.Nverts*3)
	pmesh.Polys = make([]uint16, pmesh.Npolys*pmesh.Nvp*2)
	pmesh.Regs = make([]uint16, pmesh.Npolys)
	pmesh.Flags = make([]uint16, pmesh.Npolys)
	pmesh.Areas = make([]uint8, pmesh.Npolys)
	r.ReadUInt16s(pmesh.Verts)
	r.ReadUInt16s(pmesh.Polys)
	r.ReadUInt16s(pmesh.Regs)
	r.ReadUInt16s(pmesh.Flags)
	r.ReadUInt8s(pmesh.Areas)
	return pmesh, r.Err()
}

const DMESH_MAGIC = ('d' << 24) | ('m' << 16) | ('s' << 8) | 'h'

const DMESH_VERSION = 1

func DuDumpPolyMeshDetail(dmesh *recast.RcPolyMeshDetail, w *rw.ReaderWriter) {
	w.WriteInt32(DMESH_MAGIC)
	w.WriteInt32(DMESH_VERSION)
	w.WriteInt32(uint32(dmesh.Nmeshes()))
	w.WriteInt32(uint32(dmesh.Nverts()))
	w.WriteInt32(uint32(dmesh.Ntris()))
	w.WriteUInt32s(dmesh.Meshes)
	w.WriteFloat32s(dmesh.Verts)
	w.WriteUInt8s(dmesh.Tris)
}

func DuReadPolyMeshDetail(r *rw.ReaderWriter) (*recast.RcPolyMeshDetail, error) {
	if err := checkHeader(r, "duReadPolyMeshDetail", DMESH_MAGIC, DMESH_VERSION); err != nil {
		return nil, err
	}
	nmeshes := int(r.ReadUInt32())
	nverts := int(r.ReadUInt32())
	ntris := int(r.ReadUInt32())
	if err := r.Err(); err != nil {
		return nil, err
	}
	if nmeshes*4*4+nverts*3*4+ntris*4 > r.Size() {
		return nil, rw.ErrShortBuffer
	}
	dmesh := &recast.RcPolyMeshDetail{
		Meshes: make([]uint32, nmeshes*4),
		Verts:  make([]float32, nverts*3),
		Tris:   make([]uint8, ntris*4),
	}
	r.ReadUInt32s(dmesh.Meshes)
	r.ReadFloat32s(dmesh.Verts)
	r.ReadUInt8s(dmesh.Tris)
	return dmesh, r.Err()
}

const CHF_MAGIC = ('r' << 24) | ('c' << 16) | ('h' << 8) | 'f'

const CHF_VERSION = 4

// DuDumpCompactHeightfield writes the partitioned compact heightfield:
// header, cells, spans (y, region, connections, h), distances and areas.
func DuDumpCompactHeightfield(rhf *recast.RcRegionHeightfield, w *rw.ReaderWriter) {
	w.WriteInt32(CHF_MAGIC)
	w.WriteInt32(CHF_VERSION)
	w.WriteInt32(uint32(rhf.Width()))
	w.WriteInt32(uint32(rhf.Height()))
	w.WriteInt32(uint32(rhf.SpanCount()))
	w.WriteInt32(uint32(rhf.WalkableHeight()))
	w.WriteInt32(uint32(rhf.WalkableClimb()))
	w.WriteInt32(uint32(rhf.BorderSize()))
	w.WriteInt16(uint16(rhf.MaxDistance()))
	w.WriteInt16(uint16(rhf.MaxRegionID()))
	bmin, bmax := rhf.Bmin(), rhf.Bmax()
	w.WriteFloat32s(bmin[:])
	w.WriteFloat32s(bmax[:])
	w.WriteFloat32(rhf.Cs())
	w.WriteFloat32(rhf.Ch())

	for z := 0; z < rhf.Height(); z++ {
		for x := 0; x < rhf.Width(); x++ {
			c := rhf.Cell(x, z)
			w.WriteInt32(c.Index)
			w.WriteInt8(c.Count)
		}
	}
	for i := 0; i < rhf.SpanCount(); i++ {
		s := rhf.Span(i)
		var con uint32
		for dir := 0; dir < 4; dir++ {
			con |= uint32(recast.RcGetCon(&s, dir)) << (dir * 6)
		}
		w.WriteInt16(s.Y)
		w.WriteInt16(rhf.Region(i))
		w.WriteInt32(con)
		w.WriteInt8(s.H)
	}
	for i := 0; i < rhf.SpanCount(); i++ {
		w.WriteInt16(rhf.Dist(i))
	}
	for i := 0; i < rhf.SpanCount(); i++ {
		w.WriteInt8(rhf.Area(i))
	}
}
