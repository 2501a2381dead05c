package message

import (
	"errors"
	"fmt"
	"math"

	"github.com/gorustyt/recastgo/recast"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var ErrMalformed = errors.New("message: malformed navmesh")

func Encode(msg proto.Message) ([]byte, error) {
	return proto.Marshal(msg)
}

func Decode(data []byte, msg proto.Message) error {
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

func field(m protoreflect.Message, name protoreflect.Name) protoreflect.FieldDescriptor {
	return m.Descriptor().Fields().ByName(name)
}

func setList[T uint16 | uint32 | float32](m protoreflect.Message, name protoreflect.Name, v []T) {
	if len(v) == 0 {
		return
	}
	l := m.Mutable(field(m, name)).List()
	for _, x := range v {
		switch x := any(x).(type) {
		case float32:
			l.Append(protoreflect.ValueOfFloat32(x))
		case uint16:
			l.Append(protoreflect.ValueOfUint32(uint32(x)))
		case uint32:
			l.Append(protoreflect.ValueOfUint32(x))
		}
	}
}

func setBytes(m protoreflect.Message, name protoreflect.Name, b []byte) {
	if len(b) > 0 {
		m.Set(field(m, name), protoreflect.ValueOfBytes(append([]byte(nil), b...)))
	}
}

func uint32s(m protoreflect.Message, name protoreflect.Name) []uint64 {
	l := m.Get(field(m, name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]uint64, l.Len())
	for i := range out {
		out[i] = l.Get(i).Uint()
	}
	return out
}

func float32s(m protoreflect.Message, name protoreflect.Name) []float32 {
	l := m.Get(field(m, name)).List()
	if l.Len() == 0 {
		return nil
	}
	out := make([]float32, l.Len())
	for i := range out {
		out[i] = float32(l.Get(i).Float())
	}
	return out
}

func uint16s(m protoreflect.Message, name protoreflect.Name) ([]uint16, error) {
	vs := uint32s(m, name)
	if vs == nil {
		return nil, nil
	}
	out := make([]uint16, len(vs))
	for i, v := range vs {
		if v > math.MaxUint16 {
			return nil, fmt.Errorf("%w: %s value %d overflows uint16", ErrMalformed, name, v)
		}
		out[i] = uint16(v)
	}
	return out, nil
}

func bytesOf(m protoreflect.Message, name protoreflect.Name) []byte {
	b := m.Get(field(m, name)).Bytes()
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// NewPolyMesh converts m to a PolyMesh message.
func NewPolyMesh(m *recast.RcPolyMesh) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(polyMeshDesc)
	setList(msg, "verts", m.Verts[:m.Nverts*3])
	setList(msg, "polys", m.Polys[:m.Npolys*m.Nvp*2])
	setList(msg, "regs", m.Regs[:m.Npolys])
	setList(msg, "flags", m.Flags[:m.Npolys])
	setBytes(msg, "areas", m.Areas[:m.Npolys])
	msg.Set(field(msg, "nvp"), protoreflect.ValueOfUint32(uint32(m.Nvp)))
	setList(msg, "bmin", m.Bmin[:])
	setList(msg, "bmax", m.Bmax[:])
	msg.Set(field(msg, "cs"), protoreflect.ValueOfFloat32(m.Cs))
	msg.Set(field(msg, "ch"), protoreflect.ValueOfFloat32(m.Ch))
	msg.Set(field(msg, "border_size"), protoreflect.ValueOfUint32(uint32(m.BorderSize)))
	msg.Set(field(msg, "max_edge_error"), protoreflect.ValueOfFloat32(m.MaxEdgeError))
	return msg
}

// NewPolyMeshDetail converts d to a PolyMeshDetail message.
func NewPolyMeshDetail(d *recast.RcPolyMeshDetail) *dynamicpb.Message {
	msg := dynamicpb.NewMessage(detailMeshDesc)
	setList(msg, "meshes", d.Meshes)
	setList(msg, "verts", d.Verts)
	setBytes(msg, "tris", d.Tris)
	return msg
}

// PolyMeshFrom reads a PolyMesh message back and checks it is self consistent.
func PolyMeshFrom(msg protoreflect.Message) (*recast.RcPolyMesh, error) {
	m := &recast.RcPolyMesh{
		Areas:        bytesOf(msg, "areas"),
		Nvp:          int(msg.Get(field(msg, "nvp")).Uint()),
		Cs:           float32(msg.Get(field(msg, "cs")).Float()),
		Ch:           float32(msg.Get(field(msg, "ch")).Float()),
		BorderSize:   int(msg.Get(field(msg, "border_size")).Uint()),
		MaxEdgeError: float32(msg.Get(field(msg, "max_edge_error")).Float()),
	}
	var err error
	if m.Verts, err = uint16s(msg, "verts"); err != nil {
		return nil, err
	}
	if m.Polys, err = uint16s(msg, "polys"); err != nil {
		return nil, err
	}
	if m.Regs, err = uint16s(msg, "regs"); err != nil {
		return nil, err
	}
	if m.Flags, err = uint16s(msg, "flags"); err != nil {
		return nil, err
	}
	for _, b := range []struct {
		name protoreflect.Name
		dst  *[3]float32
	}{{"bmin", &m.Bmin}, {"bmax", &m.Bmax}} {
		v := float32s(msg, b.name)
		if len(v) != 3 {
			return nil, fmt.Errorf("%w: %s needs 3 values, got %d", ErrMalformed, b.name, len(v))
		}
		copy(b.dst[:], v)
	}

	if len(m.Verts)%3 != 0 {
		return nil, fmt.Errorf("%w: %d vertex components", ErrMalformed, len(m.Verts))
	}
	m.Nverts = len(m.Verts) / 3
	m.Npolys = len(m.Areas)
	if m.Npolys > 0 && (m.Nvp < 3 || len(m.Polys) != m.Npolys*m.Nvp*2) {
		return nil, fmt.Errorf("%w: %d poly slots for %d polys of %d verts", ErrMalformed, len(m.Polys), m.Npolys, m.Nvp)
	}
	if len(m.Regs) != m.Npolys || len(m.Flags) != m.Npolys {
		return nil, fmt.Errorf("%w: per-poly arrays disagree", ErrMalformed)
	}
	for i := 0; i < m.Npolys; i++ {
		for _, v := range m.PolyVerts(i) {
			if int(v) >= m.Nverts {
				return nil, fmt.Errorf("%w: poly %d vertex %d out of range", ErrMalformed, i, v)
			}
		}
		for _, v := range m.PolyNeighbours(i) {
			if v&recast.RC_PORTAL_FLAG == 0 && int(v) >= m.Npolys {
				return nil, fmt.Errorf("%w: poly %d neighbour %d out of range", ErrMalformed, i, v)
			}
		}
	}
	return m, nil
}

// PolyMeshDetailFrom reads a PolyMeshDetail message back.
func PolyMeshDetailFrom(msg protoreflect.Message) (*recast.RcPolyMeshDetail, error) {
	d := &recast.RcPolyMeshDetail{
		Verts: float32s(msg, "verts"),
		Tris:  bytesOf(msg, "tris"),
	}
	if vs := uint32s(msg, "meshes"); vs != nil {
		d.Meshes = make([]uint32, len(vs))
		for i, v := range vs {
			d.Meshes[i] = uint32(v)
		}
	}
	if len(d.Meshes)%4 != 0 || len(d.Verts)%3 != 0 || len(d.Tris)%4 != 0 {
		return nil, fmt.Errorf("%w: detail arrays are not whole records", ErrMalformed)
	}
	return d, nil
}

// EncodeNavMesh wraps both meshes in a NavMesh message. A nil detail mesh is
// omitted.
func EncodeNavMesh(m *recast.RcPolyMesh, d *recast.RcPolyMeshDetail) ([]byte, error) {
	msg := dynamicpb.NewMessage(navMeshDesc)
	msg.Set(field(msg, "mesh"), protoreflect.ValueOfMessage(NewPolyMesh(m)))
	if d != nil {
		msg.Set(field(msg, "detail"), protoreflect.ValueOfMessage(NewPolyMeshDetail(d)))
	}
	return Encode(msg)
}

// DecodeNavMesh parses a NavMesh message. The detail mesh is nil when absent.
func DecodeNavMesh(data []byte) (*recast.RcPolyMesh, *recast.RcPolyMeshDetail, error) {
	msg := dynamicpb.NewMessage(navMeshDesc)
	if err := Decode(data, msg); err != nil {
		return nil, nil, err
	}
	meshField, detailField := field(msg, "mesh"), field(msg, "detail")
	if !msg.Has(meshField) {
		return nil, nil, fmt.Errorf("%w: missing poly mesh", ErrMalformed)
	}
	m, err := PolyMeshFrom(msg.Get(meshField).Message())
	if err != nil {
		return nil, nil, err
	}
	if !msg.Has(detailField) {
		return m, nil, nil
	}
	d, err := PolyMeshDetailFrom(msg.Get(detailField).Message())
	if err != nil {
		return nil, nil, err
	}
	return m, d, nil
}
