package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"floatclock/internal/clock"
)

// overlapAlpha is how strongly the overlap colour is laid over pixels that
// two glyphs share.
const overlapAlpha = 0.4

const halfBlock = "▀"

type pixel struct {
	c     colorful.Color
	owner int // slot index of the last glyph drawn here, -1 if none
}

// Canvas is a pixel buffer drawn with half blocks: every terminal cell holds
// two vertically stacked pixels.
type Canvas struct {
	W, H int
	bg   colorful.Color
	pix  []pixel
}

// NewCanvas creates a canvas covering cols x rows cells.
func NewCanvas(cols, rows int, bg string) *Canvas {
	cols, rows = maxi(cols, 0), maxi(rows, 0)
	c := &Canvas{W: cols, H: rows * 2, bg: parseColor(bg, colorful.Color{})}
	c.pix = make([]pixel, c.W*c.H)
	for i := range c.pix {
		c.pix[i] = pixel{c: c.bg, owner: -1}
	}
	return c
}

// DrawGlyph rasterises one slot: the glyph is scaled to fontScale of the
// canvas height, rotated about its centre and blended at the slot's opacity.
func (c *Canvas) DrawGlyph(v clock.SlotView, fontScale float64, overlap colorful.Color) {
	if v.Character == "" || v.Opacity <= 0 || c.W == 0 || c.H == 0 {
		return
	}
	g := lookupGlyph(v.Character)
	alpha := minf(v.Opacity, 1)
	col := parseColor(v.Color, colorful.Color{R: 1, G: 1, B: 1})

	gh := fontScale * float64(c.H)
	gw := gh * GlyphWidth / GlyphHeight
	if gh < 1 || gw < 1 {
		return
	}
	cx := (v.CenterX + v.OffsetX) * float64(c.W)
	cy := (0.5 + v.OffsetY) * float64(c.H)
	sin, cos := math.Sincos(v.Rotation * math.Pi / 180)
	r := math.Hypot(gw, gh) / 2

	y0, y1 := maxi(int(cy-r), 0), mini(int(cy+r)+1, c.H)
	x0, x1 := maxi(int(cx-r), 0), mini(int(cx+r)+1, c.W)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			// inverse rotation into glyph space
			u := dx*cos + dy*sin
			w := -dx*sin + dy*cos
			gx := int(math.Floor((u/gw + 0.5) * GlyphWidth))
			gy := int(math.Floor((w/gh + 0.5) * GlyphHeight))
			if !g.set(gx, gy) {
				continue
			}
			p := &c.pix[y*c.W+x]
			out := p.c.BlendRgb(col, alpha)
			if p.owner >= 0 && p.owner != v.Index {
				out = out.BlendRgb(overlap, overlapAlpha)
			}
			p.c = out
			p.owner = v.Index
		}
	}
}

// At returns the colour of pixel (x, y) and the slot that last drew it.
func (c *Canvas) At(x, y int) (colorful.Color, int) {
	p := c.pix[y*c.W+x]
	return p.c, p.owner
}

// String renders the canvas as rows of half blocks, merging runs of equal
// cells into one styled segment.
func (c *Canvas) String() string {
	rows := make([]string, 0, c.H/2)
	for y := 0; y+1 < c.H; y += 2 {
		var b strings.Builder
		runFg, runBg, n := "", "", 0
		flush := func() {
			if n == 0 {
				return
			}
			st := lipgloss.NewStyle().Background(lipgloss.Color(runBg))
			if runFg == runBg {
				b.WriteString(st.Render(strings.Repeat(" ", n)))
			} else {
				b.WriteString(st.Foreground(lipgloss.Color(runFg)).Render(strings.Repeat(halfBlock, n)))
			}
			n = 0
		}
		for x := 0; x < c.W; x++ {
			fg := c.pix[y*c.W+x].c.Clamped().Hex()
			bg := c.pix[(y+1)*c.W+x].c.Clamped().Hex()
			if n > 0 && (fg != runFg || bg != runBg) {
				flush()
			}
			runFg, runBg = fg, bg
			n++
		}
		flush()
		rows = append(rows, b.String())
	}
	return strings.Join(rows, "\n")
}

// RenderFace draws views, already in drawing order, onto a cols x rows canvas.
func RenderFace(views []clock.SlotView, fontScale float64, cols, rows int, t Theme) *Canvas {
	c := NewCanvas(cols, rows, string(t.Background))
	overlap := parseColor(string(t.Overlap), colorful.Color{R: 1, G: 1, B: 1})
	for _, v := range views {
		c.DrawGlyph(v, fontScale, overlap)
	}
	return c
}

// fade blends fg over bg at opacity and returns a lipgloss colour.
func fade(fg, bg lipgloss.Color, opacity float64) lipgloss.Color {
	f := parseColor(string(fg), colorful.Color{R: 1, G: 1, B: 1})
	b := parseColor(string(bg), colorful.Color{})
	return lipgloss.Color(b.BlendRgb(f, maxf(0, minf(opacity, 1))).Clamped().Hex())
}

func parseColor(hex string, fallback colorful.Color) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fallback
	}
	return c
}
