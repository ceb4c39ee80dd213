package scene

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/config"
	"github.com/milk9111/tilecollide/ecs"
	"github.com/milk9111/tilecollide/level"
	"github.com/milk9111/tilecollide/levels"
	"github.com/milk9111/tilecollide/phys"
	"github.com/milk9111/tilecollide/player"
	"github.com/milk9111/tilecollide/script"
)

// Platform is a moving region from the level.
type Platform struct {
	Region *collider.SimpleRegion
	Handle ecs.Handle

	origin cp.Vector
	travel float64
}

// Scene is one level loaded into a world with a player body.
type Scene struct {
	World   *phys.World
	Level   *level.Level
	Physics *config.Physics

	Map       *collider.TileMap
	MapHandle ecs.Handle
	Platforms []*Platform

	Body       *phys.Body
	BodyHandle ecs.Handle
	Trackers   map[string]*phys.SurfaceTracker
	Player     *player.Player

	filters map[string]*script.Filter
}

// LoadLevel reads a level from disk when name is an existing file, otherwise
// from the embedded levels.
func LoadLevel(name string) (*level.Level, error) {
	if name == "" {
		name = "sandbox"
	}
	if _, err := os.Stat(name); err == nil {
		return level.Load(name)
	}
	return level.LoadFS(levels.LevelsFS, levels.FileName(name))
}

func New(lvl *level.Level, cfg *config.Physics) (*Scene, error) {
	if lvl == nil {
		return nil, errors.New("scene: nil level")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := lvl.BuildTileMap()
	if err != nil {
		return nil, err
	}

	s := &Scene{
		World:   phys.NewWorld(),
		Level:   lvl,
		Physics: cfg,
		Map:     m,
	}
	cfg.ApplyWorld(s.World)
	s.MapHandle = s.World.AddRegion(m)

	for i, r := range lvl.BuildPlatforms() {
		s.Platforms = append(s.Platforms, &Platform{
			Region: r,
			Handle: s.World.AddRegion(r),
			origin: r.Position(),
			travel: lvl.Platforms[i].Travel,
		})
	}
	s.World.AddSystem(ecs.SystemFunc[*phys.World](s.patrolPlatforms))

	s.Body, s.Trackers = cfg.NewBody(lvl.Spawn())
	s.BodyHandle = s.World.AddBody(s.Body)
	s.Player = player.New(s.Body, s.Trackers["floor"], cfg.Body.RunSpeed, cfg.Body.JumpVel)

	if len(cfg.Filters) > 0 {
		filters, err := script.LoadAll(cfg.Filters)
		if err != nil {
			return nil, err
		}
		if err := s.SetFilters(filters); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// patrolPlatforms turns a platform around once it is Travel pixels from
// where it started, so it swings either side of its start. It runs after the
// regions moved, so the turn shows next tick.
func (s *Scene) patrolPlatforms(_ *phys.World) {
	for _, p := range s.Platforms {
		if p.travel <= 0 {
			continue
		}
		v := p.Region.Velocity()
		offset := p.Region.Position().Sub(p.origin)
		if offset.Length() >= p.travel && offset.Dot(v) > 0 {
			p.Region.SetVelocity(v.Neg())
		}
	}
}

// SetFilters installs the material filters on every region.
func (s *Scene) SetFilters(filters map[string]*script.Filter) error {
	s.filters = filters
	fn := script.ByMaterial(filters)
	for _, h := range s.World.Regions() {
		if err := s.World.SetPreContact(h, fn); err != nil {
			return fmt.Errorf("scene: set filters: %w", err)
		}
	}
	return nil
}

func (s *Scene) Filters() map[string]*script.Filter { return s.filters }

// Reload applies a new physics config to the running scene. The body keeps
// its position and velocity.
func (s *Scene) Reload(cfg *config.Physics) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.Physics = cfg
	cfg.ApplyWorld(s.World)
	cfg.ApplyBody(s.Body)
	s.Player.RunSpeed = cfg.Body.RunSpeed
	s.Player.JumpVel = cfg.Body.JumpVel
	log.Printf("Scene: reloaded physics config")
	return nil
}

// Reset puts the player back on the spawn point.
func (s *Scene) Reset() {
	for _, t := range s.Trackers {
		t.ForceEndContact()
	}
	s.Body.Teleport(s.Level.Spawn())
	s.Body.SetVelocity(cp.Vector{})
	s.Player = player.New(s.Body, s.Trackers["floor"], s.Physics.Body.RunSpeed, s.Physics.Body.JumpVel)
}

// Update runs one fixed tick with the given input.
func (s *Scene) Update(in player.Input) {
	s.Player.Update(in)
	s.World.Step(s.Physics.TickDuration())
	s.Player.AfterStep()
}

// Snapshot is the body's state after a tick.
type Snapshot struct {
	Tick     uint64   `yaml:"tick"`
	State    string   `yaml:"state"`
	X        float64  `yaml:"x"`
	Y        float64  `yaml:"y"`
	VelX     float64  `yaml:"vel_x"`
	VelY     float64  `yaml:"vel_y"`
	Flags    []string `yaml:"flags,omitempty"`
	Grounded bool     `yaml:"grounded"`
	Material string   `yaml:"material,omitempty"`
	Speed    float64  `yaml:"speed"`
}

func (s *Scene) Snapshot() Snapshot {
	pos := s.Body.Position()
	vel := s.Body.Velocity()
	snap := Snapshot{
		Tick:  s.World.Tick(),
		State: s.Player.State(),
		X:     round(pos.X),
		Y:     round(pos.Y),
		VelX:  round(vel.X),
		VelY:  round(vel.Y),
		Flags: s.Body.Flags().Names(),
	}
	if floor := s.Trackers["floor"]; floor != nil {
		snap.Speed = round(floor.Speed())
		if c, ok := floor.Contact(); ok {
			snap.Grounded = c.HasContact
			snap.Material = c.Material
		}
	}
	return snap
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
