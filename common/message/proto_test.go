package message

import (
	"testing"

	"github.com/gorustyt/recastgo/recast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/dynamicpb"
)

func squareMesh() *recast.RcPolyMesh {
	null := uint16(recast.RC_MESH_NULL_IDX)
	return &recast.RcPolyMesh{
		Verts:        []uint16{0, 1, 0, 0, 1, 4, 4, 1, 4, 4, 1, 0},
		Polys:        []uint16{0, 1, 2, 3, null, null, null, null, null, null},
		Regs:         []uint16{1},
		Flags:        []uint16{1},
		Areas:        []uint8{0},
		Nverts:       4,
		Npolys:       1,
		Nvp:          5,
		Bmin:         [3]float32{-1, 0, -1},
		Bmax:         [3]float32{3, 2, 3},
		Cs:           0.5,
		Ch:           0.25,
		BorderSize:   2,
		MaxEdgeError: 1.3,
	}
}

func squareDetail() *recast.RcPolyMeshDetail {
	return &recast.RcPolyMeshDetail{
		Meshes: []uint32{0, 4, 0, 2},
		Verts:  []float32{-1, 0.5, -1, -1, 0.5, 1, 1, 0.5, 1, 1, 0.5, -1},
		Tris:   []uint8{0, 1, 2, 0, 0, 2, 3, 0},
	}
}

func TestNavMeshRoundTrip(t *testing.T) {
	m, d := squareMesh(), squareDetail()
	data, err := EncodeNavMesh(m, d)
	require.NoError(t, err)
	gotMesh, gotDetail, err := DecodeNavMesh(data)
	require.NoError(t, err)
	assert.Equal(t, m, gotMesh)
	assert.Equal(t, d, gotDetail)
}

func TestDecodeWithoutDetail(t *testing.T) {
	data, err := EncodeNavMesh(squareMesh(), nil)
	require.NoError(t, err)
	gotMesh, gotDetail, err := DecodeNavMesh(data)
	require.NoError(t, err)
	assert.Nil(t, gotDetail)
	assert.Equal(t, 1, gotMesh.Npolys)
}

func TestPolyMeshWireLayout(t *testing.T) {
	data, err := Encode(NewPolyMesh(squareMesh()))
	require.NoError(t, err)
	// nvp is field 6, a varint.
	var nvp uint64
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		require.Positive(t, n)
		data = data[n:]
		if num == 6 && typ == protowire.VarintType {
			nvp, n = protowire.ConsumeVarint(data)
		} else {
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		require.Positive(t, n)
		data = data[n:]
	}
	assert.Equal(t, uint64(5), nvp)
}

func TestDecodeSkipsUnknownFields(t *testing.T) {
	data, err := Encode(NewPolyMesh(squareMesh()))
	require.NoError(t, err)
	data = protowire.AppendTag(data, 99, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("future"))
	msg := dynamicpb.NewMessage(polyMeshDesc)
	require.NoError(t, Decode(data, msg))
	m, err := PolyMeshFrom(msg)
	require.NoError(t, err)
	assert.Equal(t, squareMesh(), m)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, _, err := DecodeNavMesh(nil)
	assert.ErrorIs(t, err, ErrMalformed, "navmesh without a poly mesh")

	data, err := EncodeNavMesh(squareMesh(), squareDetail())
	require.NoError(t, err)
	_, _, err = DecodeNavMesh(data[:len(data)-2])
	assert.ErrorIs(t, err, ErrMalformed, "truncated")

	bad := squareMesh()
	bad.Polys[1] = 9
	_, err = PolyMeshFrom(NewPolyMesh(bad))
	assert.ErrorIs(t, err, ErrMalformed, "vertex index out of range")

	bad = squareMesh()
	bad.Polys[6] = 3
	_, err = PolyMeshFrom(NewPolyMesh(bad))
	assert.ErrorIs(t, err, ErrMalformed, "neighbour index out of range")

	noBounds := NewPolyMesh(squareMesh())
	noBounds.Clear(noBounds.Descriptor().Fields().ByName("bmax"))
	_, err = PolyMeshFrom(noBounds)
	assert.ErrorIs(t, err, ErrMalformed, "missing bounds")

	_, err = PolyMeshDetailFrom(NewPolyMeshDetail(&recast.RcPolyMeshDetail{Tris: []uint8{1, 2, 3}}))
	assert.ErrorIs(t, err, ErrMalformed, "partial triangle")
}
