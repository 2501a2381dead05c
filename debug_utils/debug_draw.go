package debug_utils

type DuDebugDrawPrimitives int

const (
	DU_DRAW_POINTS DuDebugDrawPrimitives = iota
	DU_DRAW_LINES
	DU_DRAW_TRIS
	DU_DRAW_QUADS
)

// / Abstract debug draw interface.
type DuDebugDraw interface {
	/// Begin drawing primitives.
	///  @param prim [in] primitive type to draw, one of rcDebugDrawPrimitives.
	///  @param size [in] size of a primitive, applies to point size and line width only.
	Begin(prim DuDebugDrawPrimitives, size ...float32)

	/// Submit a vertex
	///  @param pos [in] position of the verts.
	///  @param color [in] color of the verts.
	Vertex(pos []float32, color Colorb)

	/// Submit a vertex
	///  @param x,y,z [in] position of the verts.
	///  @param color [in] color of the verts.
	Vertex1(x, y, z float32, color Colorb)

	/// End drawing primitives.
	End()

	/// Compute a color for given area.
	AreaToCol(area int) Colorb
}

// DuDisplayList records one batch of primitives.
type DuDisplayList struct {
	pos      []float32
	color    []Colorb
	prim     DuDebugDrawPrimitives
	primSize float32
}

func NewDuDisplayList(capacity int) *DuDisplayList {
	capacity = max(capacity, 8)
	return &DuDisplayList{
		pos:      make([]float32, 0, capacity*3),
		color:    make([]Colorb, 0, capacity),
		prim:     DU_DRAW_LINES,
		primSize: 1.0,
	}
}

func (d *DuDisplayList) Size() int { return len(d.color) }

func (d *DuDisplayList) clear() {
	d.pos = d.pos[:0]
	d.color = d.color[:0]
}

func (d *DuDisplayList) begin(prim DuDebugDrawPrimitives, size float32) {
	d.clear()
	d.prim = prim
	d.primSize = size
}

func (d *DuDisplayList) vertex(x, y, z float32, color Colorb) {
	d.pos = append(d.pos, x, y, z)
	d.color = append(d.color, color)
}

func (d *DuDisplayList) at(i int) ([]float32, Colorb) {
	return d.pos[i*3 : i*3+3], d.color[i]
}

// Draw replays the batch into dd.
func (d *DuDisplayList) Draw(dd DuDebugDraw) {
	if dd == nil || d.Size() == 0 {
		return
	}
	dd.Begin(d.prim, d.primSize)
	for i := 0; i < d.Size(); i++ {
		dd.Vertex(d.at(i))
	}
	dd.End()
}
