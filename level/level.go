package level

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/tile"
)

var ErrInvalidLevel = errors.New("level: invalid level")

// Level is a tile map stored as JSON. Tiles can come from grid layers, from
// explicit records, or both; records win where they overlap.
type Level struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Layers are flat row-major grids of Width*Height cells. Cell values
	// index into Palette; 0 is always empty.
	Layers    [][]int     `json:"layers,omitempty"`
	LayerMeta []LayerMeta `json:"layer_meta,omitempty"`
	Palette   []string    `json:"palette,omitempty"`

	Tiles     []TileRecord `json:"tiles,omitempty"`
	Platforms []Platform   `json:"platforms,omitempty"`

	// Border closes the given sides ("n", "e", "s", "w") with boundary tiles.
	Border string `json:"border,omitempty"`

	// player spawn in tile coordinates
	SpawnX int `json:"spawn_x,omitempty"`
	SpawnY int `json:"spawn_y,omitempty"`
}

type LayerMeta struct {
	Physics  bool   `json:"physics"`
	Material string `json:"material,omitempty"`
}

// TileRecord places one shape string at a grid position.
type TileRecord struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Shape    string `json:"shape"`
	Material string `json:"material,omitempty"`
}

// Platform is a rectangular region that moves at a constant velocity, in
// pixels.
type Platform struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	VelocityX float64 `json:"velocity_x,omitempty"`
	VelocityY float64 `json:"velocity_y,omitempty"`
	// Travel is how far either side of its start the platform goes before
	// turning back. Zero means it never turns.
	Travel   float64 `json:"travel,omitempty"`
	Material string  `json:"material,omitempty"`
}

// defaultPalette is used when a level has none: 1 is a solid block and 2 a
// slope.
var defaultPalette = []string{"empty", "solid", "slope"}

// Load reads a level from a JSON file at path.
func Load(path string) (*Level, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("level: read %s: %w", path, err)
	}
	return Parse(b)
}

// LoadFS reads a level from fsys, such as the embedded levels directory.
func LoadFS(fsys fs.FS, name string) (*Level, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("level: read %s: %w", name, err)
	}
	return Parse(b)
}

func Parse(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("level: unmarshal: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// Validate checks dimensions, layer sizes and record positions.
func (l *Level) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("level: dimensions %dx%d: %w", l.Width, l.Height, ErrInvalidLevel)
	}
	for i, layer := range l.Layers {
		if len(layer) != l.Width*l.Height {
			return fmt.Errorf("level: layer %d has %d cells, want %d: %w", i, len(layer), l.Width*l.Height, ErrInvalidLevel)
		}
	}
	for _, t := range l.Tiles {
		if t.X < 0 || t.Y < 0 || t.X >= l.Width || t.Y >= l.Height {
			return fmt.Errorf("level: tile %d,%d outside %dx%d: %w", t.X, t.Y, l.Width, l.Height, ErrInvalidLevel)
		}
	}
	for i, p := range l.Platforms {
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("level: platform %d has no area: %w", i, ErrInvalidLevel)
		}
	}
	return nil
}

func (l *Level) palette() []string {
	if len(l.Palette) > 0 {
		return l.Palette
	}
	return defaultPalette
}

// Records flattens the physics layers and explicit tiles into one record
// per occupied cell, ordered by row then column.
func (l *Level) Records() []TileRecord {
	if l == nil {
		return nil
	}
	cells := make(map[collider.GridPos]TileRecord)
	palette := l.palette()

	for i, layer := range l.Layers {
		meta := LayerMeta{Physics: true}
		if i < len(l.LayerMeta) {
			meta = l.LayerMeta[i]
		}
		if !meta.Physics {
			continue
		}
		for idx, v := range layer {
			if v <= 0 {
				continue
			}
			if v >= len(palette) {
				log.Printf("level: cell value %d has no palette entry", v)
				continue
			}
			p := collider.GridPos{X: idx % l.Width, Y: idx / l.Width}
			cells[p] = TileRecord{X: p.X, Y: p.Y, Shape: palette[v], Material: meta.Material}
		}
	}
	for _, t := range l.Tiles {
		cells[collider.GridPos{X: t.X, Y: t.Y}] = t
	}

	out := make([]TileRecord, 0, len(cells))
	for _, r := range cells {
		if tile.Parse(r.Shape).IsEmpty() {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}

func borderBits(s string) uint8 {
	var dirs []common.Cardinal
	for _, r := range s {
		switch r {
		case 'n', 'N':
			dirs = append(dirs, common.North)
		case 'e', 'E':
			dirs = append(dirs, common.East)
		case 's', 'S':
			dirs = append(dirs, common.South)
		case 'w', 'W':
			dirs = append(dirs, common.West)
		}
	}
	return common.CardinalBits(dirs...)
}

// BuildTileMap creates a tile map holding every record, with all edits
// already applied.
func (l *Level) BuildTileMap() (*collider.TileMap, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	m := collider.NewTileMap(l.Width, l.Height, l.Border != "")
	for _, r := range l.Records() {
		if err := m.SetTile(collider.GridPos{X: r.X, Y: r.Y}, r.Shape, r.Material); err != nil {
			return nil, fmt.Errorf("level: build: %w", err)
		}
	}
	if l.Border != "" {
		m.SetBorders(borderBits(l.Border))
	}
	m.ApplyChanges()
	return m, nil
}

// BuildPlatforms creates one moving region per platform.
func (l *Level) BuildPlatforms() []*collider.SimpleRegion {
	out := make([]*collider.SimpleRegion, 0, len(l.Platforms))
	for _, p := range l.Platforms {
		r := collider.NewSimpleRegion(common.Rect{Width: p.Width, Height: p.Height})
		r.Teleport(cp.Vector{X: p.X, Y: p.Y})
		r.SetVelocity(cp.Vector{X: p.VelocityX, Y: p.VelocityY})
		if p.Material != "" {
			r.SetMaterial(p.Material)
		}
		out = append(out, r)
	}
	return out
}

// Spawn is the player spawn point in pixels: the bottom center of the spawn
// tile.
func (l *Level) Spawn() cp.Vector {
	return cp.Vector{
		X: (float64(l.SpawnX) + 0.5) * common.TileSize,
		Y: float64(l.SpawnY+1) * common.TileSize,
	}
}
