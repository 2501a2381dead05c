package debug_utils

import (
	"fmt"
	"image/color"

	"github.com/mazznoer/csscolorparser"
)

// Colorb is an 8-bit RGBA colour, not premultiplied.
type Colorb [4]uint8

func (c Colorb) R() uint8 {
	return c[0]
}

func (c Colorb) G() uint8 {
	return c[1]
}

func (c Colorb) B() uint8 {
	return c[2]
}

func (c Colorb) A() uint8 {
	return c[3]
}

func (c Colorb) Int() uint32 {
	return uint32(c.R()) | (uint32(c.G()) << 8) | (uint32(c.B()) << 16) | (uint32(c.A()) << 24)
}

func (c *Colorb) FromInt(col uint32) {
	c[0] = uint8(col & 0xff)
	c[1] = uint8((col >> 8) & 0xff)
	c[2] = uint8((col >> 16) & 0xff)
	c[3] = uint8((col >> 24) & 0xff)
}

// RGBA implements color.Color.
func (c Colorb) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}.RGBA()
}

func DuRGBA[T int | int32 | uint8](r, g, b, a T) Colorb {
	return Colorb{uint8(r), uint8(g), uint8(b), uint8(a)}
}

func DuDarkenCol(col Colorb) Colorb {
	return Colorb{col[0] >> 1, col[1] >> 1, col[2] >> 1, col[3]}
}

func DuLerpCol(ca, cb Colorb, u uint32) Colorb {
	var res Colorb
	for i := range res {
		res[i] = uint8((uint32(ca[i])*(255-u) + uint32(cb[i])*u) / 255)
	}
	return res
}

func DuTransCol(c Colorb, a uint8) Colorb {
	c[3] = a
	return c
}

func Bit(a, b int) int {
	return (a & (1 << b)) >> b
}

// DuIntToCol spreads small integers (region ids, polygon indices) over
// distinct colours.
func DuIntToCol(i, a int) Colorb {
	r := Bit(i, 1) + Bit(i, 3)*2 + 1
	g := Bit(i, 2) + Bit(i, 4)*2 + 1
	b := Bit(i, 0) + Bit(i, 5)*2 + 1
	return DuRGBA(r*63, g*63, b*63, a)
}

// Palette maps poly area ids to colours. Areas without an entry fall back
// to DuIntToCol.
type Palette map[uint8]Colorb

// ParsePalette parses CSS colours keyed by area id.
func ParsePalette(src map[uint8]string) (Palette, error) {
	p := make(Palette, len(src))
	for area, s := range src {
		c, err := csscolorparser.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("area %d: %w", area, err)
		}
		p[area] = Colorb{to8(c.R), to8(c.G), to8(c.B), to8(c.A)}
	}
	return p, nil
}

func to8(f float64) uint8 {
	return uint8(f*255 + 0.5)
}

func (p Palette) AreaToCol(area int) Colorb {
	if c, ok := p[uint8(area)]; ok {
		return c
	}
	if area == 0 {
		// Treat zero area type as default.
		return DuRGBA(0, 192, 255, 255)
	}
	return DuIntToCol(area, 255)
}
