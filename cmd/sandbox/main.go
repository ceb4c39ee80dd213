package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/tilecollide/config"
	"github.com/milk9111/tilecollide/scene"
)

func main() {
	debug := flag.Bool("debug", false, "draw contacts and quad bounds and log contact events")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	levelName := flag.String("level", "sandbox", "level name in levels/ (basename, .json optional) or a path to a level file")
	configPath := flag.String("config", "", "physics config YAML; reloaded when it or its filter scripts change")
	flag.Parse()

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	lvl, err := scene.LoadLevel(*levelName)
	if err != nil {
		log.Fatal(err)
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.LoadPhysics(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	s, err := scene.New(lvl, cfg)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("tilecollide sandbox")
	ebiten.SetTPS(cfg.World.TickRate)

	game, err := NewGame(s, *configPath, *debug)
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
