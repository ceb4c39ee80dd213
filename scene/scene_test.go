package scene

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/tilecollide/config"
	"github.com/milk9111/tilecollide/level"
	"github.com/milk9111/tilecollide/player"
)

func floorLevel(material string) *level.Level {
	lvl := &level.Level{Width: 8, Height: 4, SpawnX: 2, SpawnY: 2}
	for x := 0; x < lvl.Width; x++ {
		lvl.Tiles = append(lvl.Tiles, level.TileRecord{X: x, Y: 3, Shape: "solid", Material: material})
	}
	return lvl
}

func run(s *Scene, ticks int, in player.Input) {
	for i := 0; i < ticks; i++ {
		s.Update(in)
	}
}

func TestLoadLevel(t *testing.T) {
	lvl, err := LoadLevel("flat")
	if err != nil {
		t.Fatalf("LoadLevel: %v", err)
	}
	if lvl.Width != 16 || lvl.Height != 4 {
		t.Fatalf("expected 16x4, got %dx%d", lvl.Width, lvl.Height)
	}

	if _, err := LoadLevel(""); err != nil {
		t.Fatalf("expected the default level to load, got %v", err)
	}
	if _, err := LoadLevel("no-such-level"); err == nil {
		t.Fatalf("expected an error for a missing level")
	}
}

func TestPlayerLandsAndRests(t *testing.T) {
	s, err := New(floorLevel(""), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	run(s, 16, player.Input{})
	snap := s.Snapshot()
	if snap.State != "idle" {
		t.Fatalf("expected idle, got %s", snap.State)
	}
	if !snap.Grounded {
		t.Fatalf("expected grounded, got %+v", snap)
	}
	if math.Abs(snap.Y-48) > 1e-3 {
		t.Fatalf("expected to rest at y 48, got %v", snap.Y)
	}
	if snap.Tick != 16 {
		t.Fatalf("expected tick 16, got %d", snap.Tick)
	}
	if len(snap.Flags) == 0 || snap.Flags[0] != "floor" {
		t.Fatalf("expected floor flag, got %v", snap.Flags)
	}
}

func TestFilterDropsFloor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ghost.tengo")
	if err := os.WriteFile(path, []byte(`allow := false`), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	cfg := config.Default()
	cfg.Filters = map[string]string{"ghost": path}
	s, err := New(floorLevel("ghost"), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(s.Filters()) != 1 {
		t.Fatalf("expected one filter, got %d", len(s.Filters()))
	}

	run(s, 32, player.Input{})
	if y := s.Body.Position().Y; y <= 64 {
		t.Fatalf("expected to fall through the floor, got y %v", y)
	}
	if s.Snapshot().State != "falling" {
		t.Fatalf("expected falling, got %s", s.Snapshot().State)
	}
}

func TestPlatformPatrol(t *testing.T) {
	lvl := floorLevel("")
	lvl.Platforms = []level.Platform{{X: 0, Y: 0, Width: 16, Height: 4, VelocityX: 64, Travel: 8}}
	s, err := New(lvl, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(s.Platforms) != 1 {
		t.Fatalf("expected one platform, got %d", len(s.Platforms))
	}

	run(s, 12, player.Input{})
	p := s.Platforms[0].Region
	if v := p.Velocity().X; v != -64 {
		t.Fatalf("expected the platform to turn back, got velocity %v", v)
	}
	if x := p.Position().X; x != 4 {
		t.Fatalf("expected x 4, got %v", x)
	}
}

func TestResetAndReload(t *testing.T) {
	s, err := New(floorLevel(""), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	run(s, 8, player.Input{MoveX: 1})
	if s.Body.Position().X <= s.Level.Spawn().X {
		t.Fatalf("expected the player to move right, got x %v", s.Body.Position().X)
	}

	s.Reset()
	if got := s.Body.Position(); !got.Equal(s.Level.Spawn()) {
		t.Fatalf("expected reset to spawn %v, got %v", s.Level.Spawn(), got)
	}
	if s.Player.State() != "falling" {
		t.Fatalf("expected a fresh player, got %s", s.Player.State())
	}

	cfg := config.Default()
	cfg.Body.RunSpeed = 40
	cfg.World.Gravity = 100
	if err := s.Reload(cfg); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.Player.RunSpeed != 40 {
		t.Fatalf("expected run speed 40, got %v", s.Player.RunSpeed)
	}
	if g := s.Body.Gravity(); g.Y != 100 {
		t.Fatalf("expected gravity 100, got %v", g)
	}

	bad := config.Default()
	bad.World.TickRate = 0
	if err := s.Reload(bad); err == nil {
		t.Fatalf("expected invalid config to be rejected")
	}
}

func TestSampleConfigAndLevel(t *testing.T) {
	cfg, err := config.LoadPhysics(filepath.Join("..", "configs", "physics.yaml"))
	if err != nil {
		t.Fatalf("LoadPhysics: %v", err)
	}
	lvl, err := LoadLevel("sandbox")
	if err != nil {
		t.Fatalf("LoadLevel: %v", err)
	}
	s, err := New(lvl, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := s.Filters()["crumble"]; !ok {
		t.Fatalf("expected the crumble filter, got %v", s.Filters())
	}
	if len(s.Platforms) != 1 {
		t.Fatalf("expected one platform, got %d", len(s.Platforms))
	}

	run(s, 64, player.Input{MoveX: 1})
	if s.Body.Position().X <= lvl.Spawn().X {
		t.Fatalf("expected the player to move right, got x %v", s.Body.Position().X)
	}
}
