package debugdraw

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/ecs"
	"github.com/milk9111/tilecollide/phys"
	"golang.org/x/image/colornames"
)

const (
	normalLength = 6
	lineWidth    = 1
)

var (
	contactColor  = colornames.Red
	normalColor   = colornames.Orange
	crushColor    = colornames.Magenta
	wedgeColor    = colornames.Cyan
	boundsColor   = colornames.Dimgray
	touchingColor = colornames.Gold
	bodyColor     = colornames.Deepskyblue
	floorColor    = colornames.Lime
)

type line struct {
	a, b  cp.Vector
	color color.Color
}

type rect struct {
	r     common.Rect
	color color.Color
}

// Renderer records what the world reports during a Step and draws it on
// the next Draw. Call Begin before each Step.
type Renderer struct {
	CamX, CamY float64
	Zoom       float64

	lines []line
	rects []rect
	text  []string
}

var _ phys.DebugDrawer = (*Renderer)(nil)

func NewRenderer() *Renderer {
	return &Renderer{Zoom: 1}
}

// Begin drops everything recorded by the previous step.
func (r *Renderer) Begin() {
	r.lines = r.lines[:0]
	r.rects = r.rects[:0]
	r.text = r.text[:0]
}

func (r *Renderer) DrawContact(c phys.AppliedContact) {
	col := color.Color(contactColor)
	switch {
	case c.Type.IsCrush():
		col = crushColor
	case c.Type == phys.Wedge:
		col = wedgeColor
	}
	r.lines = append(r.lines, line{a: c.Collider.Line.P1, b: c.Collider.Line.P2, color: col})
	r.lines = append(r.lines, line{a: c.Position, b: c.Position.Add(c.OrthoN.Mult(normalLength)), color: normalColor})
}

func (r *Renderer) DrawSurface(s collider.Surface, c cp.FColor) {
	col := toNRGBA(c)
	r.lines = append(r.lines, line{a: s.Line.P1, b: s.Line.P2, color: col})

	// ghosts are drawn faint
	ghost := col
	ghost.A /= 4
	if !s.G0Virtual {
		r.lines = append(r.lines, line{a: s.G0, b: s.Line.P1, color: ghost})
	}
	if !s.G3Virtual {
		r.lines = append(r.lines, line{a: s.Line.P2, b: s.G3, color: ghost})
	}
}

func (r *Renderer) DrawQuadBounds(bounds common.Rect, touching bool) {
	col := color.Color(boundsColor)
	if touching {
		col = touchingColor
	}
	r.rects = append(r.rects, rect{r: bounds, color: col})
}

func (r *Renderer) DrawBody(h ecs.Handle, box common.Rect, flags phys.CollisionFlags) {
	col := color.Color(bodyColor)
	if flags.Has(phys.FlagFloor) {
		col = floorColor
	}
	r.rects = append(r.rects, rect{r: box, color: col})
	r.text = append(r.text, fmt.Sprintf("%s %s", h, flags))
}

// Printf adds a line to the text overlay.
func (r *Renderer) Printf(format string, args ...any) {
	r.text = append(r.text, fmt.Sprintf(format, args...))
}

func (r *Renderer) Draw(screen *ebiten.Image) {
	if r == nil || screen == nil {
		return
	}
	for _, l := range r.lines {
		x1, y1 := r.toScreen(l.a)
		x2, y2 := r.toScreen(l.b)
		vector.StrokeLine(screen, x1, y1, x2, y2, lineWidth, l.color, false)
	}
	for _, rc := range r.rects {
		x, y := r.toScreen(rc.r.TopLeft())
		zoom := float32(r.zoom())
		vector.StrokeRect(screen, x, y, float32(rc.r.Width)*zoom, float32(rc.r.Height)*zoom, lineWidth, rc.color, false)
	}
	for i, t := range r.text {
		ebitenutil.DebugPrintAt(screen, t, 10, 10+i*16)
	}
}

func (r *Renderer) zoom() float64 {
	if r.Zoom <= 0 {
		return 1
	}
	return r.Zoom
}

func (r *Renderer) toScreen(v cp.Vector) (float32, float32) {
	z := r.zoom()
	return float32((v.X - r.CamX) * z), float32((v.Y - r.CamY) * z)
}

func toNRGBA(c cp.FColor) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R) * 255),
		G: uint8(clamp01(c.G) * 255),
		B: uint8(clamp01(c.B) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
