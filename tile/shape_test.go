package tile

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
)

func TestShapeSurfaceTable(t *testing.T) {
	cases := []struct {
		name  string
		typ   Type
		count int
	}{
		{"empty", Empty, 0},
		{"solid", Solid, 4},
		{"half", Half, 4},
		{"halfvert", HalfVert, 4},
		{"slope", Slope, 3},
		{"shallow1", Shallow1, 3},
		{"shallow2", Shallow2, 4},
		{"steep1", Steep1, 4},
		{"steep2", Steep2, 3},
		{"oneway", Oneway, 1},
		{"onewayvert", OnewayVert, 1},
		{"levelboundary", LevelBoundary, 1},
		{"levelboundary_wall", LevelBoundaryWall, 1},
	}

	flips := []struct{ h, v bool }{{false, false}, {true, false}, {false, true}, {true, true}}

	for _, c := range cases {
		for _, f := range flips {
			shape := NewShape(c.typ, f.h, f.v)
			t.Run(shape.String(), func(t *testing.T) {
				lines, has := shape.Lines()
				center := flippedCentroid(c.typ, shape.FlipH, shape.FlipV)

				count := 0
				for _, dir := range common.Cardinals {
					if !has[dir] {
						continue
					}
					count++
					n := lines[dir].Normal()
					if n.Dot(dir.Vector()) <= 0 {
						t.Fatalf("surface %s normal %v does not face %s", dir, n, dir)
					}
					if n.Dot(lines[dir].Midpoint().Sub(center)) <= 0 {
						t.Fatalf("surface %s is wound inward", dir)
					}
				}
				if count != c.count {
					t.Fatalf("expected %d surfaces, got %d", c.count, count)
				}
			})
		}
	}
}

func flippedCentroid(typ Type, h, v bool) cp.Vector {
	var sum cp.Vector
	for _, p := range typ.Prototype().Points {
		p = p.Mult(common.TileSize)
		if h {
			p.X = common.TileSize - p.X
		}
		if v {
			p.Y = common.TileSize - p.Y
		}
		sum = sum.Add(p)
	}
	return sum.Mult(0.25)
}

func TestParseShape(t *testing.T) {
	cases := []struct {
		in   string
		want Shape
	}{
		{"solid", Shape{Type: Solid}},
		{"solid-hv", Shape{Type: Solid}},
		{"slope-h", Shape{Type: Slope, FlipH: true}},
		{"slope-hv", Shape{Type: Slope, FlipH: true, FlipV: true}},
		{"HALF-V", Shape{Type: Half, FlipV: true}},
		{"half-h", Shape{Type: Half}},
		{"oneway-v", Shape{Type: Oneway, FlipV: true}},
		{"onewayvert-hv", Shape{Type: OnewayVert, FlipH: true}},
		{"bogus", Shape{}},
		{"", Shape{}},
	}

	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := Parse(c.in); got != c.want {
				t.Fatalf("expected %+v, got %+v", c.want, got)
			}
		})
	}
}

func TestShapeStringRoundTrip(t *testing.T) {
	for _, s := range []string{"solid", "slope-h", "steep2-hv", "shallow1-v"} {
		if got := Parse(s).String(); got != s {
			t.Fatalf("expected %q, got %q", s, got)
		}
	}
}

func TestOneWayFacing(t *testing.T) {
	cases := []struct {
		shape string
		want  common.Cardinal
	}{
		{"oneway", common.North},
		{"oneway-v", common.South},
		{"onewayvert", common.East},
		{"onewayvert-h", common.West},
	}

	for _, c := range cases {
		t.Run(c.shape, func(t *testing.T) {
			s := Parse(c.shape)
			dir, ok := s.OneWayDir()
			if !ok || dir != c.want {
				t.Fatalf("expected facing %s, got %s", c.want, dir)
			}
			_, has := s.Lines()
			if !has[c.want] {
				t.Fatalf("expected a surface facing %s", c.want)
			}
		})
	}
}

func TestTouches(t *testing.T) {
	cases := []struct {
		shape string
		want  uint8
	}{
		{"solid", common.CardinalBits(common.North, common.East, common.South, common.West)},
		{"half", common.CardinalBits(common.East, common.South, common.West)},
		{"slope", common.CardinalBits(common.East, common.South)},
		{"slope-h", common.CardinalBits(common.West, common.South)},
		{"oneway", 0},
	}

	for _, c := range cases {
		t.Run(c.shape, func(t *testing.T) {
			if got := Parse(c.shape).Touches(); got != c.want {
				t.Fatalf("expected touches %04b, got %04b", c.want, got)
			}
		})
	}
}
