package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/phys"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "physics.yaml")
	want := Default()
	want.Materials = []MaterialConfig{{Name: "conveyor", Velocity: 40}}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load[Physics](path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.World != want.World || got.Body != want.Body {
		t.Fatalf("expected %+v %+v, got %+v %+v", want.World, want.Body, got.World, got.Body)
	}
	if len(got.Trackers) != len(want.Trackers) || got.Trackers[0] != want.Trackers[0] {
		t.Fatalf("expected trackers %+v, got %+v", want.Trackers, got.Trackers)
	}
	if len(got.Materials) != 1 || got.Materials[0] != want.Materials[0] {
		t.Fatalf("expected materials %+v, got %+v", want.Materials, got.Materials)
	}
}

func TestLoadPhysicsOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "physics.yaml", `
world:
  gravity: 900
body:
  width: 12
materials:
  - name: ice
    velocity: -20
`)
	p, err := LoadPhysics(path)
	if err != nil {
		t.Fatalf("LoadPhysics: %v", err)
	}
	if p.World.Gravity != 900 {
		t.Fatalf("expected gravity 900, got %v", p.World.Gravity)
	}
	if p.World.TickRate != 64 {
		t.Fatalf("expected default tick rate 64, got %d", p.World.TickRate)
	}
	if p.Body.Width != 12 || p.Body.Height != 28 {
		t.Fatalf("expected body 12x28, got %vx%v", p.Body.Width, p.Body.Height)
	}
	if len(p.Trackers) != 2 {
		t.Fatalf("expected default trackers kept, got %d", len(p.Trackers))
	}
	if m := p.MaterialTable()["ice"]; m.Velocity != -20 {
		t.Fatalf("expected ice velocity -20, got %v", m.Velocity)
	}
}

func TestLoadPhysicsResolvesFilterPaths(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "elsewhere", "ghost.tengo")
	path := writeFile(t, dir, "physics.yaml", `
filters:
  crumble: filters/crumble.tengo
  ghost: `+abs+`
`)
	p, err := LoadPhysics(path)
	if err != nil {
		t.Fatalf("LoadPhysics: %v", err)
	}
	if got, want := p.Filters["crumble"], filepath.Join(dir, "filters", "crumble.tengo"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := p.Filters["ghost"]; got != abs {
		t.Fatalf("expected absolute path kept, got %s", got)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(p *Physics)
	}{
		{name: "tick rate", modify: func(p *Physics) { p.World.TickRate = 0 }},
		{name: "bound iterations", modify: func(p *Physics) { p.World.MaxBoundIterations = -1 }},
		{name: "body size", modify: func(p *Physics) { p.Body.Height = 0 }},
		{name: "slip", modify: func(p *Physics) { p.Body.SlipLeeway = -1 }},
		{name: "response", modify: func(p *Physics) { p.Body.Response = "bounce" }},
		{name: "duplicate tracker", modify: func(p *Physics) { p.Trackers[1].Name = p.Trackers[0].Name }},
		{name: "empty range", modify: func(p *Physics) { p.Trackers[0].MaxAngle = p.Trackers[0].MinAngle }},
		{name: "friction", modify: func(p *Physics) { p.Trackers[0].KineticFriction = -1 }},
		{name: "material name", modify: func(p *Physics) { p.Materials = []MaterialConfig{{Velocity: 1}} }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Default()
			tc.modify(p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadPhysicsErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadPhysics(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	bad := writeFile(t, dir, "bad.yaml", "world:\n  tick_rate: 0\n")
	if _, err := LoadPhysics(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewBodyBuildsTrackers(t *testing.T) {
	p := Default()
	p.Body.SlipLeeway = 2
	p.Body.Response = "flatten"

	b, trackers := p.NewBody(cp.Vector{X: 32, Y: 64})
	if b.Position() != (cp.Vector{X: 32, Y: 64}) {
		t.Fatalf("expected body at (32, 64), got %v", b.Position())
	}
	if b.Gravity().Y != 512 {
		t.Fatalf("expected gravity 512, got %v", b.Gravity())
	}
	if b.Slip().Leeway != 2 {
		t.Fatalf("expected slip leeway 2, got %v", b.Slip().Leeway)
	}

	floor, ok := trackers["floor"]
	if !ok {
		t.Fatalf("expected a floor tracker")
	}
	if math.Abs(floor.Angles.Min.Degrees()+140) > 1e-9 || !floor.Angles.Inclusive {
		t.Fatalf("expected inclusive range from -140, got %+v", floor.Angles)
	}
	if !floor.Settings.SlopeSticking || floor.Settings.SurfaceFriction.Kinetic != 0.5 {
		t.Fatalf("expected floor settings carried over, got %+v", floor.Settings)
	}
	if len(b.Trackers()) != 2 {
		t.Fatalf("expected 2 trackers on the body, got %d", len(b.Trackers()))
	}

	p.Trackers[0].MaxSpeed = 99
	p.World.Gravity = 100
	p.ApplyBody(b)
	if b.Trackers()[0].Settings.MaxSpeed != 99 || b.Gravity().Y != 100 {
		t.Fatalf("expected reload to update the body")
	}
}

func TestApplyWorld(t *testing.T) {
	p := Default()
	p.World.MaxBoundIterations = 3
	p.Materials = []MaterialConfig{{Name: "belt", Velocity: 16}}

	w := phys.NewWorld()
	p.ApplyWorld(w)
	if w.MaxBoundIterations != 3 {
		t.Fatalf("expected 3 bound iterations, got %d", w.MaxBoundIterations)
	}
	if w.Materials()["belt"].Velocity != 16 {
		t.Fatalf("expected belt material, got %+v", w.Materials())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		kind FileKind
		ok   bool
	}{
		{path: "physics.yaml", kind: KindPhysics, ok: true},
		{path: "physics.YML", kind: KindPhysics, ok: true},
		{path: "filters/ice.tengo", kind: KindFilter, ok: true},
		{path: "level.json"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			kind, ok := Classify(tc.path)
			if kind != tc.kind || ok != tc.ok {
				t.Fatalf("expected %s/%v, got %s/%v", tc.kind, tc.ok, kind, ok)
			}
		})
	}
}

func TestWatchPhysicsDirs(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "filters")
	if err := os.Mkdir(scripts, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	w, err := WatchPhysics(filepath.Join(dir, "physics.yaml"), map[string]string{
		"crumble": filepath.Join(scripts, "crumble.tengo"),
		"ghost":   filepath.Join(scripts, "ghost.tengo"),
	})
	if err != nil {
		t.Fatalf("WatchPhysics: %v", err)
	}
	defer w.Close()

	got := w.Dirs()
	sort.Strings(got)
	want := []string{dir, scripts}
	sort.Strings(want)
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected dirs %v, got %v", want, got)
	}

	if err := w.TrackFilters(map[string]string{"bad": filepath.Join(scripts, "bad.lua")}); err == nil {
		t.Fatalf("expected a non-script filter to be rejected")
	}
	if _, err := WatchPhysics(filepath.Join(dir, "level.json"), nil); err == nil {
		t.Fatalf("expected a non-yaml config to be rejected")
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "physics.yaml")
	w, err := WatchPhysics(cfgPath, map[string]string{"ice": filepath.Join(dir, "ice.tengo")})
	if err != nil {
		t.Fatalf("WatchPhysics: %v", err)
	}
	defer w.Close()

	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "other.yaml", "ignored: true\n")
	for i := 0; i < 3; i++ {
		writeFile(t, dir, "physics.yaml", "world:\n  gravity: 1\n")
	}

	select {
	case c := <-w.Changes:
		if c.Path != cfgPath || c.Kind != KindPhysics {
			t.Fatalf("expected a physics change to %s, got %+v", cfgPath, c)
		}
	case err := <-w.Errors:
		t.Fatalf("watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a change")
	}

	// the burst of writes settles into one change
	select {
	case c := <-w.Changes:
		t.Fatalf("expected a single change, got another %+v", c)
	case <-time.After(3 * settle):
	}

	writeFile(t, dir, "ice.tengo", "allow := true")
	select {
	case c := <-w.Changes:
		if c.Kind != KindFilter {
			t.Fatalf("expected a filter change, got %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the filter change")
	}
}
