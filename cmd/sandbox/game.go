package main

import (
	"fmt"
	"log"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/milk9111/tilecollide/config"
	"github.com/milk9111/tilecollide/debugdraw"
	"github.com/milk9111/tilecollide/phys"
	"github.com/milk9111/tilecollide/scene"
	"github.com/milk9111/tilecollide/script"
)

const (
	baseWidth  = 1280
	baseHeight = 720
	zoom       = 3
)

type Game struct {
	frames int
	paused bool
	quit   bool
	debug  bool

	input    *Input
	scene    *scene.Scene
	renderer *debugdraw.Renderer
	pauseUI  *ebitenui.UI

	configPath string
	watcher    *config.PhysicsWatcher
	watching   bool
}

func NewGame(s *scene.Scene, configPath string, debug bool) (*Game, error) {
	g := &Game{
		input:      NewInput(),
		scene:      s,
		renderer:   debugdraw.NewRenderer(),
		configPath: configPath,
	}
	g.renderer.Zoom = zoom
	g.setDebug(debug)
	g.pauseUI = NewPauseUI(g)

	if configPath != "" {
		w, err := config.WatchPhysics(configPath, s.Physics.Filters)
		if err != nil {
			return nil, fmt.Errorf("sandbox: watch config: %w", err)
		}
		g.watcher = w
		g.watching = true
	}
	return g, nil
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) setDebug(debug bool) {
	g.debug = debug
	mask := phys.DebugSurfaces | phys.DebugBodies
	if debug {
		mask = phys.DebugAll
	}
	g.scene.World.SetDebugDrawer(g.renderer, mask)
}

func (g *Game) Update() error {
	g.frames++
	g.pollWatcher()

	g.input.Update()
	if g.input.Pause {
		g.paused = !g.paused
	}
	if g.paused {
		g.pauseUI.Update()
		if g.quit {
			return ebiten.Termination
		}
		return nil
	}

	if g.input.ToggleDebug {
		g.setDebug(!g.debug)
	}
	if g.input.Reset {
		g.reset()
	}

	g.renderer.Begin()
	g.scene.Update(g.input.Player)
	g.logEvents()

	pos := g.scene.Body.Position()
	g.renderer.CamX = pos.X - baseWidth/(2*zoom)
	g.renderer.CamY = pos.Y - baseHeight/(2*zoom)
	return nil
}

func (g *Game) reset() {
	g.scene.Reset()
	log.Printf("Sandbox: reset to spawn")
}

// pollWatcher applies config and filter edits without blocking the frame.
func (g *Game) pollWatcher() {
	if !g.watching {
		return
	}
	for {
		select {
		case c, ok := <-g.watcher.Changes:
			if !ok {
				g.watching = false
				return
			}
			g.reload(c)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watching = false
				return
			}
			log.Printf("Sandbox: watcher: %v", err)
		default:
			return
		}
	}
}

func (g *Game) reload(c config.Change) {
	log.Printf("Sandbox: %s changed: %s", c.Kind, c.Path)
	switch c.Kind {
	case config.KindPhysics:
		cfg, err := config.LoadPhysics(g.configPath)
		if err != nil {
			log.Printf("Sandbox: reload %s: %v", c.Path, err)
			return
		}
		if err := g.scene.Reload(cfg); err != nil {
			log.Printf("Sandbox: reload %s: %v", c.Path, err)
			return
		}
		if err := g.watcher.TrackFilters(cfg.Filters); err != nil {
			log.Printf("Sandbox: watch filters: %v", err)
		}
		g.reloadFilters()
	case config.KindFilter:
		g.reloadFilters()
	}
}

func (g *Game) reloadFilters() {
	filters, err := script.LoadAll(g.scene.Physics.Filters)
	if err != nil {
		log.Printf("Sandbox: reload filters: %v", err)
		return
	}
	if err := g.scene.SetFilters(filters); err != nil {
		log.Printf("Sandbox: reload filters: %v", err)
		return
	}
	log.Printf("Sandbox: reloaded %d filters", len(filters))
}

func (g *Game) logEvents() {
	for _, e := range g.scene.World.Events() {
		if !g.debug || e.Kind == phys.EventPostContact {
			continue
		}
		log.Printf("Sandbox: %s body %s region %s", e.Kind, e.Body, e.Region)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.renderer.Draw(screen)

	snap := g.scene.Snapshot()
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("FPS: %.2f  tick %d  %s  (%.1f, %.1f)  speed %.1f",
		ebiten.ActualFPS(), snap.Tick, snap.State, snap.X, snap.Y, snap.Speed), 10, baseHeight-20)

	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
