package geom

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// maxFaceVerts caps the number of corners read from one face row.
const maxFaceVerts = 32

// Mesh is triangle soup loaded from a Wavefront OBJ file.
type Mesh struct {
	Name    string
	Verts   []float32 // (x, y, z) * VertCount
	Tris    []int     // (a, b, c) * TriCount
	Normals []float32 // unit face normal per triangle
	scale   float32
}

func (m *Mesh) VertCount() int { return len(m.Verts) / 3 }
func (m *Mesh) TriCount() int  { return len(m.Tris) / 3 }

// LoadObj reads the OBJ file at p, scaling every vertex by scale.
func LoadObj(p string, scale float32) (*Mesh, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ParseObj(f, scale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	m.Name = path.Base(p)
	return m, nil
}

// ParseObj reads vertices and faces from r. Faces with more than three
// corners are fanned; texture and normal references are ignored.
func ParseObj(r io.Reader, scale float32) (*Mesh, error) {
	m := &Mesh{scale: scale}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		row := strings.TrimSpace(scanner.Text())
		if row == "" || strings.HasPrefix(row, "#") {
			continue
		}
		if err := m.parseRow(strings.Fields(row)); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	m.calcNormals()
	return m, nil
}

func (m *Mesh) parseRow(ss []string) error {
	switch ss[0] {
	case "v":
		return m.parseVertex(ss[1:])
	case "f":
		return m.parseFace(ss[1:])
	}
	return nil
}

func (m *Mesh) parseVertex(ss []string) error {
	if len(ss) < 3 {
		return fmt.Errorf("vertex needs 3 coordinates, got %d", len(ss))
	}
	var v [3]float32
	for i := range v {
		f, err := strconv.ParseFloat(ss[i], 32)
		if err != nil {
			return err
		}
		v[i] = float32(f)
	}
	m.addVertex(v[0], v[1], v[2])
	return nil
}

func (m *Mesh) parseFace(ss []string) error {
	nverts := m.VertCount()
	data := make([]int, 0, min(len(ss), maxFaceVerts))
	for _, s := range ss {
		if len(data) >= maxFaceVerts {
			break
		}
		vs := strings.Split(s, "/")
		vi, err := strconv.Atoi(vs[0])
		if err != nil {
			return err
		}
		if vi < 0 {
			vi += nverts
		} else {
			vi--
		}
		data = append(data, vi)
	}
	for i := 2; i < len(data); i++ {
		a, b, c := data[0], data[i-1], data[i]
		if a < 0 || a >= nverts || b < 0 || b >= nverts || c < 0 || c >= nverts {
			continue
		}
		m.addTriangle(a, b, c)
	}
	return nil
}

func (m *Mesh) addVertex(x, y, z float32) {
	m.Verts = append(m.Verts, x*m.scale, y*m.scale, z*m.scale)
}

func (m *Mesh) addTriangle(a, b, c int) {
	m.Tris = append(m.Tris, a, b, c)
}

func (m *Mesh) vec(i int) mgl32.Vec3 {
	return mgl32.Vec3{m.Verts[i*3], m.Verts[i*3+1], m.Verts[i*3+2]}
}

func (m *Mesh) calcNormals() {
	m.Normals = make([]float32, len(m.Tris))
	for i := 0; i < len(m.Tris); i += 3 {
		v0 := m.vec(m.Tris[i])
		e0 := m.vec(m.Tris[i+1]).Sub(v0)
		e1 := m.vec(m.Tris[i+2]).Sub(v0)
		n := e0.Cross(e1)
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		copy(m.Normals[i:i+3], n[:])
	}
}
