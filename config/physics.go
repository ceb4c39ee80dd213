package config

import (
	"fmt"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/phys"
)

// Physics is everything the sandbox and simulator need to set up a world
// and its player body.
type Physics struct {
	World     WorldConfig      `yaml:"world"`
	Body      BodyConfig       `yaml:"body"`
	Trackers  []TrackerConfig  `yaml:"trackers"`
	Materials []MaterialConfig `yaml:"materials"`
	// Filters maps a material name to the tengo script vetoing its contacts.
	Filters map[string]string `yaml:"filters,omitempty"`
}

type WorldConfig struct {
	Gravity            float64 `yaml:"gravity"`
	TickRate           int     `yaml:"tick_rate"`
	MaxBoundIterations int     `yaml:"max_bound_iterations"`
}

type BodyConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	SlipLeeway   float64 `yaml:"slip_leeway"`
	SlipVertical bool    `yaml:"slip_vertical"`
	// Response is "standard" or "flatten".
	Response string  `yaml:"response"`
	RunSpeed float64 `yaml:"run_speed"`
	JumpVel  float64 `yaml:"jump_velocity"`
}

// TrackerConfig describes one surface tracker. Angles are in degrees.
type TrackerConfig struct {
	Name      string  `yaml:"name"`
	MinAngle  float64 `yaml:"min_angle"`
	MaxAngle  float64 `yaml:"max_angle"`
	Inclusive bool    `yaml:"inclusive"`

	MoveWithPlatforms bool `yaml:"move_with_platforms"`
	SlopeSticking     bool `yaml:"slope_sticking"`
	SlopeWallStop     bool `yaml:"slope_wall_stop"`
	HasFriction       bool `yaml:"has_friction"`
	UseSurfaceVel     bool `yaml:"use_surface_velocity"`

	StickAngleMax         float64 `yaml:"stick_angle_max"`
	StationaryFriction    float64 `yaml:"stationary_friction"`
	KineticFriction       float64 `yaml:"kinetic_friction"`
	MaxSpeed              float64 `yaml:"max_speed"`
	SlopeStickSpeedFactor float64 `yaml:"slope_stick_speed_factor"`
}

type MaterialConfig struct {
	Name     string  `yaml:"name"`
	Velocity float64 `yaml:"velocity"`
}

// Default is a player-sized body on 64Hz ticks with a floor tracker and a
// wall tracker.
func Default() *Physics {
	return &Physics{
		World: WorldConfig{
			Gravity:            512,
			TickRate:           64,
			MaxBoundIterations: phys.DefaultMaxBoundIterations,
		},
		Body: BodyConfig{
			Width:    8,
			Height:   28,
			Response: "standard",
			RunSpeed: 150,
			JumpVel:  220,
		},
		Trackers: []TrackerConfig{
			{
				Name:                  "floor",
				MinAngle:              -140,
				MaxAngle:              -40,
				Inclusive:             true,
				MoveWithPlatforms:     true,
				SlopeSticking:         true,
				SlopeWallStop:         true,
				HasFriction:           true,
				UseSurfaceVel:         true,
				StickAngleMax:         50,
				StationaryFriction:    1.2,
				KineticFriction:       0.5,
				MaxSpeed:              300,
				SlopeStickSpeedFactor: 0.25,
			},
			{
				Name:      "wall",
				MinAngle:  -40,
				MaxAngle:  40,
				Inclusive: false,
			},
		},
	}
}

func (p *Physics) Validate() error {
	if p.World.TickRate <= 0 {
		return fmt.Errorf("tick_rate %d: %w", p.World.TickRate, ErrInvalidConfig)
	}
	if p.World.MaxBoundIterations <= 0 {
		return fmt.Errorf("max_bound_iterations %d: %w", p.World.MaxBoundIterations, ErrInvalidConfig)
	}
	if p.Body.Width <= 0 || p.Body.Height <= 0 {
		return fmt.Errorf("body size %vx%v: %w", p.Body.Width, p.Body.Height, ErrInvalidConfig)
	}
	if p.Body.SlipLeeway < 0 {
		return fmt.Errorf("slip_leeway %v: %w", p.Body.SlipLeeway, ErrInvalidConfig)
	}
	if _, ok := parseResponse(p.Body.Response); !ok {
		return fmt.Errorf("response %q: %w", p.Body.Response, ErrInvalidConfig)
	}

	names := make(map[string]bool)
	for _, t := range p.Trackers {
		if names[t.Name] {
			return fmt.Errorf("tracker %q defined twice: %w", t.Name, ErrInvalidConfig)
		}
		names[t.Name] = true
		if t.MinAngle == t.MaxAngle {
			return fmt.Errorf("tracker %q has an empty angle range: %w", t.Name, ErrInvalidConfig)
		}
		if t.KineticFriction < 0 || t.StationaryFriction < 0 {
			return fmt.Errorf("tracker %q has negative friction: %w", t.Name, ErrInvalidConfig)
		}
	}

	for _, m := range p.Materials {
		if m.Name == "" {
			return fmt.Errorf("material with no name: %w", ErrInvalidConfig)
		}
	}
	return nil
}

// TickDuration is the fixed step length in seconds.
func (p *Physics) TickDuration() float64 {
	return 1 / float64(p.World.TickRate)
}

func parseResponse(s string) (phys.ResponseType, bool) {
	switch strings.ToLower(s) {
	case "", "standard":
		return phys.ResponseStandard, true
	case "flatten":
		return phys.ResponseFlatten, true
	}
	return phys.ResponseStandard, false
}

func (t TrackerConfig) Angles() common.AngleRange {
	return common.AngleRange{
		Min:       common.Degrees(t.MinAngle),
		Max:       common.Degrees(t.MaxAngle),
		Inclusive: t.Inclusive,
	}
}

func (t TrackerConfig) Settings() phys.TrackerSettings {
	s := phys.DefaultTrackerSettings()
	s.MoveWithPlatforms = t.MoveWithPlatforms
	s.SlopeSticking = t.SlopeSticking
	s.SlopeWallStop = t.SlopeWallStop
	s.HasFriction = t.HasFriction
	s.UseSurfaceVel = t.UseSurfaceVel
	s.StickAngleMax = common.Degrees(t.StickAngleMax)
	s.SurfaceFriction = phys.Friction{Stationary: t.StationaryFriction, Kinetic: t.KineticFriction}
	s.MaxSpeed = t.MaxSpeed
	if t.SlopeStickSpeedFactor != 0 {
		s.SlopeStickSpeedFactor = t.SlopeStickSpeedFactor
	}
	return s
}

func (p *Physics) MaterialTable() phys.MaterialTable {
	table := make(phys.MaterialTable, len(p.Materials))
	for _, m := range p.Materials {
		table[m.Name] = phys.SurfaceMaterial{Name: m.Name, Velocity: m.Velocity}
	}
	return table
}

// ApplyWorld copies the world-wide settings onto w.
func (p *Physics) ApplyWorld(w *phys.World) {
	w.MaxBoundIterations = p.World.MaxBoundIterations
	w.SetMaterials(p.MaterialTable())
}

// NewBody builds the configured body at pos with its trackers, keyed by
// tracker name.
func (p *Physics) NewBody(pos cp.Vector) (*phys.Body, map[string]*phys.SurfaceTracker) {
	b := phys.NewBody(pos, cp.Vector{X: p.Body.Width, Y: p.Body.Height}, cp.Vector{Y: p.World.Gravity})
	p.ApplyBody(b)

	trackers := make(map[string]*phys.SurfaceTracker, len(p.Trackers))
	for _, t := range p.Trackers {
		trackers[t.Name] = b.CreateTracker(t.Angles(), t.Settings())
	}
	return b, trackers
}

// ApplyBody updates an existing body in place, for hot reloads. Trackers are
// matched by position in the tracker list.
func (p *Physics) ApplyBody(b *phys.Body) {
	b.SetGravity(cp.Vector{Y: p.World.Gravity})
	if size := b.Box().Size(); size.X != p.Body.Width || size.Y != p.Body.Height {
		b.SetSize(cp.Vector{X: p.Body.Width, Y: p.Body.Height})
	}
	state := phys.SlipHorizontal
	if p.Body.SlipVertical {
		state = phys.SlipVertical
	}
	b.SetSlip(phys.Slip{State: state, Leeway: p.Body.SlipLeeway})
	resp, _ := parseResponse(p.Body.Response)
	b.SetResponse(resp)

	for i, t := range b.Trackers() {
		if i >= len(p.Trackers) {
			break
		}
		t.Angles = p.Trackers[i].Angles()
		t.Settings = p.Trackers[i].Settings()
	}
}
