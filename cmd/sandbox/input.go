package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/tilecollide/player"
)

// Input samples the keyboard once per tick.
type Input struct {
	Player player.Input

	Pause       bool
	Reset       bool
	ToggleDebug bool
}

func NewInput() *Input {
	return &Input{}
}

func (i *Input) Update() {
	i.Player = player.Input{}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		i.Player.MoveX -= 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		i.Player.MoveX += 1
	}
	i.Player.Jump = ebiten.IsKeyPressed(ebiten.KeySpace) || ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp)

	i.Pause = inpututil.IsKeyJustPressed(ebiten.KeyEscape)
	i.Reset = inpututil.IsKeyJustPressed(ebiten.KeyR)
	i.ToggleDebug = inpututil.IsKeyJustPressed(ebiten.KeyF1)
}
