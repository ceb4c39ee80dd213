package level

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/levels"
)

func writeLevel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "level.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write level: %v", err)
	}
	return path
}

func TestLoadRejectsInvalidLevels(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "no size", body: `{"width": 0, "height": 2}`},
		{name: "short layer", body: `{"width": 2, "height": 2, "layers": [[1, 1, 1]]}`},
		{name: "tile outside", body: `{"width": 2, "height": 2, "tiles": [{"x": 2, "y": 0, "shape": "solid"}]}`},
		{name: "flat platform", body: `{"width": 2, "height": 2, "platforms": [{"width": 16}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeLevel(t, tc.body))
			if !errors.Is(err, ErrInvalidLevel) {
				t.Fatalf("expected ErrInvalidLevel, got %v", err)
			}
		})
	}

	if _, err := Load(writeLevel(t, `{`)); err == nil || errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected a decode error, got %v", err)
	}
}

func TestRecordsMergeLayersAndTiles(t *testing.T) {
	lvl, err := Load(writeLevel(t, `{
		"width": 3, "height": 2,
		"layers": [[0, 0, 0, 1, 1, 2], [1, 1, 1, 1, 1, 1]],
		"layer_meta": [{"physics": true, "material": "stone"}, {"physics": false}],
		"tiles": [{"x": 1, "y": 1, "shape": "half", "material": "ice"}, {"x": 0, "y": 0, "shape": "bogus"}]
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := lvl.Records()
	want := []TileRecord{
		{X: 0, Y: 1, Shape: "solid", Material: "stone"},
		{X: 1, Y: 1, Shape: "half", Material: "ice"},
		{X: 2, Y: 1, Shape: "slope", Material: "stone"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("record %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestBuildTileMap(t *testing.T) {
	lvl, err := Load(writeLevel(t, `{"width": 2, "height": 1, "tiles": [{"x": 0, "y": 0, "shape": "solid"}, {"x": 1, "y": 0, "shape": "solid"}]}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, err := lvl.BuildTileMap()
	if err != nil {
		t.Fatalf("BuildTileMap: %v", err)
	}
	if m.PendingEdits() != 0 {
		t.Fatalf("expected edits applied, got %d pending", m.PendingEdits())
	}
	if m.ValidCount() != 2 {
		t.Fatalf("expected 2 valid quads, got %d", m.ValidCount())
	}
	q := m.Quad(0)
	if q == nil || q.Surface(common.East) != nil {
		t.Fatalf("expected no wall between the two solids")
	}
	if _, ok := m.Shape(collider.GridPos{X: 1, Y: 0}); !ok {
		t.Fatalf("expected a shape at 1,0")
	}
}

func TestEmbeddedLevelsLoad(t *testing.T) {
	names := levels.Names()
	if len(names) == 0 {
		t.Fatalf("expected embedded levels")
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			lvl, err := LoadFS(levels.LevelsFS, levels.FileName(name))
			if err != nil {
				t.Fatalf("LoadFS: %v", err)
			}
			if _, err := lvl.BuildTileMap(); err != nil {
				t.Fatalf("BuildTileMap: %v", err)
			}
			for _, p := range lvl.BuildPlatforms() {
				if p.BoundingBox().Width <= 0 {
					t.Fatalf("expected platform with area, got %+v", p.BoundingBox())
				}
			}
		})
	}
}

func TestSpawnIsTileBottomCenter(t *testing.T) {
	lvl := &Level{Width: 4, Height: 4, SpawnX: 1, SpawnY: 2}
	got := lvl.Spawn()
	if got.X != 24 || got.Y != 48 {
		t.Fatalf("expected (24, 48), got %v", got)
	}
}
