package debug_utils

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/gorustyt/recastgo/common"
	"golang.org/x/image/bmp"
)

// ImageDraw renders primitives seen from above (x right, z down) into an
// image. Height is ignored; later primitives paint over earlier ones.
type ImageDraw struct {
	img     *image.NRGBA
	bmin    [3]float32
	scale   float32 // pixels per world unit
	palette Palette
	list    *DuDisplayList
}

var imageBackground = DuRGBA(255, 255, 255, 255)

// / Creates an image covering the xz extent of the bounds.
// / @param[in]	cs			The cell size.
// / @param[in]	cellPixels	Pixels per cell edge. [Limit: >= 1]
func NewImageDraw(bmin, bmax [3]float32, cs float32, cellPixels int, palette Palette) *ImageDraw {
	cellPixels = max(cellPixels, 1)
	w := max(int(math.Ceil(float64((bmax[0]-bmin[0])/cs))), 1) * cellPixels
	h := max(int(math.Ceil(float64((bmax[2]-bmin[2])/cs))), 1) * cellPixels
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	bg := color.NRGBA{R: imageBackground[0], G: imageBackground[1], B: imageBackground[2], A: imageBackground[3]}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = bg.R, bg.G, bg.B, bg.A
	}
	return &ImageDraw{
		img:     img,
		bmin:    bmin,
		scale:   float32(cellPixels) / cs,
		palette: palette,
		list:    NewDuDisplayList(512),
	}
}

func (d *ImageDraw) Image() *image.NRGBA { return d.img }

// WriteBMP encodes the image as BMP.
func (d *ImageDraw) WriteBMP(w io.Writer) error {
	return bmp.Encode(w, d.img)
}

func (d *ImageDraw) AreaToCol(area int) Colorb {
	return d.palette.AreaToCol(area)
}

func (d *ImageDraw) Begin(prim DuDebugDrawPrimitives, size ...float32) {
	s := float32(1.0)
	if len(size) > 0 {
		s = size[0]
	}
	d.list.begin(prim, s)
}

func (d *ImageDraw) Vertex(pos []float32, color Colorb) {
	d.list.vertex(pos[0], pos[1], pos[2], color)
}

func (d *ImageDraw) Vertex1(x, y, z float32, color Colorb) {
	d.list.vertex(x, y, z, color)
}

func (d *ImageDraw) End() {
	l := d.list
	switch l.prim {
	case DU_DRAW_POINTS:
		for i := 0; i < l.Size(); i++ {
			p, c := l.at(i)
			d.point(p, l.primSize, c)
		}
	case DU_DRAW_LINES:
		for i := 0; i+1 < l.Size(); i += 2 {
			a, c := l.at(i)
			b, _ := l.at(i + 1)
			d.line(a, b, l.primSize, c)
		}
	case DU_DRAW_TRIS:
		for i := 0; i+2 < l.Size(); i += 3 {
			a, c := l.at(i)
			b, _ := l.at(i + 1)
			e, _ := l.at(i + 2)
			d.tri(a, b, e, c)
		}
	case DU_DRAW_QUADS:
		for i := 0; i+3 < l.Size(); i += 4 {
			a, c := l.at(i)
			b, _ := l.at(i + 1)
			e, _ := l.at(i + 2)
			f, _ := l.at(i + 3)
			d.tri(a, b, e, c)
			d.tri(a, e, f, c)
		}
	}
	l.clear()
}

func (d *ImageDraw) project(p []float32) (float32, float32) {
	return (p[0] - d.bmin[0]) * d.scale, (p[2] - d.bmin[2]) * d.scale
}

func (d *ImageDraw) blend(x, y int, c Colorb) {
	if !(image.Point{X: x, Y: y}).In(d.img.Rect) {
		return
	}
	i := d.img.PixOffset(x, y)
	a := uint32(c[3])
	for k := 0; k < 3; k++ {
		dst := uint32(d.img.Pix[i+k])
		d.img.Pix[i+k] = uint8((uint32(c[k])*a + dst*(255-a)) / 255)
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// tri fills the pixels whose centres lie inside the projected triangle.
func (d *ImageDraw) tri(a, b, c []float32, col Colorb) {
	ax, ay := d.project(a)
	bx, by := d.project(b)
	cx, cy := d.project(c)
	x0 := int(math.Floor(float64(min(ax, bx, cx))))
	x1 := int(math.Ceil(float64(max(ax, bx, cx))))
	y0 := int(math.Floor(float64(min(ay, by, cy))))
	y1 := int(math.Ceil(float64(max(ay, by, cy))))
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, d.img.Rect.Dx()), min(y1, d.img.Rect.Dy())
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			px, py := float32(x)+0.5, float32(y)+0.5
			w0 := edge(bx, by, cx, cy, px, py)
			w1 := edge(cx, cy, ax, ay, px, py)
			w2 := edge(ax, ay, bx, by, px, py)
			if (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0) {
				d.blend(x, y, col)
			}
		}
	}
}

func (d *ImageDraw) dot(px, py float32, size float32, col Colorb) {
	r := int(size / 2)
	x, y := int(px), int(py)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d.blend(x+dx, y+dy, col)
		}
	}
}

func (d *ImageDraw) point(p []float32, size float32, col Colorb) {
	px, py := d.project(p)
	d.dot(px, py, size, col)
}

func (d *ImageDraw) line(a, b []float32, width float32, col Colorb) {
	ax, ay := d.project(a)
	bx, by := d.project(b)
	steps := int(math.Ceil(float64(max(common.Abs(bx-ax), common.Abs(by-ay)))))
	if steps == 0 {
		d.dot(ax, ay, width, col)
		return
	}
	for i := 0; i <= steps; i++ {
		u := float32(i) / float32(steps)
		d.dot(ax+(bx-ax)*u, ay+(by-ay)*u, width, col)
	}
}

// RenderBMP draws one view over the xz extent of bmin..bmax and writes it as
// BMP.
func RenderBMP(w io.Writer, bmin, bmax [3]float32, cs float32, cellPixels int, palette Palette, draw func(dd DuDebugDraw)) error {
	dd := NewImageDraw(bmin, bmax, cs, cellPixels, palette)
	draw(dd)
	return dd.WriteBMP(w)
}
