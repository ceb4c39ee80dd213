// Command simulate steps a level headlessly with scripted input and prints
// the player's state as YAML.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/milk9111/tilecollide/config"
	"github.com/milk9111/tilecollide/player"
	"github.com/milk9111/tilecollide/scene"
	"gopkg.in/yaml.v3"
)

type report struct {
	Level   string           `yaml:"level"`
	Ticks   int              `yaml:"ticks"`
	Events  map[string]int   `yaml:"events"`
	Samples []scene.Snapshot `yaml:"samples"`
}

func main() {
	levelName := flag.String("level", "sandbox", "level name in levels/ (basename, .json optional) or a path to a level file")
	configPath := flag.String("config", "", "physics config YAML")
	ticks := flag.Int("ticks", 256, "number of ticks to simulate")
	run := flag.Float64("run", 0, "horizontal input held for the whole run, -1 to 1")
	jumps := flag.String("jump", "", "comma separated ticks on which jump is pressed")
	every := flag.Int("every", 16, "record a sample every N ticks")
	flag.Parse()

	jumpTicks, err := parseTicks(*jumps)
	if err != nil {
		log.Fatal(err)
	}
	if *every <= 0 {
		log.Fatalf("simulate: -every must be positive, got %d", *every)
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

	out := simulate(s, *ticks, *every, *run, jumpTicks)
	out.Level = *levelName

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		log.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		log.Fatal(err)
	}
}

func simulate(s *scene.Scene, ticks, every int, run float64, jumps map[int]bool) report {
	out := report{Ticks: ticks, Events: map[string]int{}}
	for i := 0; i < ticks; i++ {
		s.Update(player.Input{MoveX: run, Jump: jumps[i]})
		for _, e := range s.World.Events() {
			out.Events[e.Kind.String()]++
		}
		if (i+1)%every == 0 || i == ticks-1 {
			out.Samples = append(out.Samples, s.Snapshot())
		}
	}
	return out
}

func parseTicks(s string) (map[int]bool, error) {
	out := map[int]bool{}
	if strings.TrimSpace(s) == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("simulate: bad jump tick %q", part)
		}
		out[n] = true
	}
	return out, nil
}
