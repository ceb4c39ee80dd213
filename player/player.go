package player

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/phys"
)

const (
	jumpBufferTicks = 10
	coyoteTicks     = 6 // allow jump within this many ticks after leaving ground
)

// Input is one tick of player intent.
type Input struct {
	MoveX float64
	Jump  bool
}

// state is the interface each concrete player state implements.
type state interface {
	HandleInput(p *Player, in Input)
	OnPhysics(p *Player)
	Name() string
}

type idleState struct{}

func (idleState) Name() string { return "idle" }
func (idleState) HandleInput(p *Player, in Input) {
	if p.jumpPressed(in) {
		p.jump(stateJumping)
		return
	}
	if in.MoveX != 0 {
		p.setState(stateRunning)
	}
}
func (idleState) OnPhysics(p *Player) {
	if !p.grounded() {
		p.coyote = coyoteTicks
		p.setState(stateFalling)
	}
}

type runningState struct{}

func (runningState) Name() string { return "running" }
func (runningState) HandleInput(p *Player, in Input) {
	if p.jumpPressed(in) {
		p.jump(stateJumping)
		return
	}
	if in.MoveX == 0 {
		p.setState(stateIdle)
	}
}
func (runningState) OnPhysics(p *Player) {
	if !p.grounded() {
		p.coyote = coyoteTicks
		p.setState(stateFalling)
	}
}

type jumpingState struct{}

func (jumpingState) Name() string { return "jumping" }
func (jumpingState) HandleInput(p *Player, in Input) {
	if !p.jumpPressed(in) {
		return
	}
	if !p.doubleJumped {
		p.doubleJumped = true
		p.jump(stateDoubleJumping)
		return
	}
	p.jumpBuffer = jumpBufferTicks
}
func (jumpingState) OnPhysics(p *Player) {
	if p.Body.Velocity().Y > 0 {
		p.setState(stateFalling)
	}
}

type doubleJumpingState struct{}

func (doubleJumpingState) Name() string { return "doublejump" }
func (doubleJumpingState) HandleInput(p *Player, in Input) {
	if p.jumpPressed(in) {
		// already double-jumped; record buffer for landing
		p.jumpBuffer = jumpBufferTicks
	}
}
func (doubleJumpingState) OnPhysics(p *Player) {
	if p.Body.Velocity().Y > 0 {
		p.setState(stateFalling)
	}
}

type fallingState struct{}

func (fallingState) Name() string { return "falling" }
func (fallingState) HandleInput(p *Player, in Input) {
	if !p.jumpPressed(in) {
		return
	}
	if p.coyote > 0 && !p.doubleJumped {
		p.coyote = 0
		p.jump(stateJumping)
		return
	}
	if !p.doubleJumped {
		p.doubleJumped = true
		p.jump(stateDoubleJumping)
		return
	}
	p.jumpBuffer = jumpBufferTicks
}
func (fallingState) OnPhysics(p *Player) {
	if !p.grounded() {
		return
	}
	p.doubleJumped = false
	if p.jumpBuffer > 0 {
		p.jumpBuffer = 0
		p.jump(stateJumping)
		return
	}
	if p.lastInput.MoveX != 0 {
		p.setState(stateRunning)
	} else {
		p.setState(stateIdle)
	}
}

// singletons for each state to avoid allocating on every transition
var (
	stateIdle          state = &idleState{}
	stateRunning       state = &runningState{}
	stateJumping       state = &jumpingState{}
	stateDoubleJumping state = &doubleJumpingState{}
	stateFalling       state = &fallingState{}
)

// Player drives a body from input: it runs along whatever the floor tracker
// holds and jumps off it.
type Player struct {
	Body  *phys.Body
	Floor *phys.SurfaceTracker

	RunSpeed float64
	JumpVel  float64

	state        state
	lastInput    Input
	prevJump     bool
	doubleJumped bool
	jumpBuffer   int
	coyote       int
	facingRight  bool
}

func New(body *phys.Body, floor *phys.SurfaceTracker, runSpeed, jumpVel float64) *Player {
	return &Player{
		Body:        body,
		Floor:       floor,
		RunSpeed:    runSpeed,
		JumpVel:     jumpVel,
		state:       stateFalling,
		facingRight: true,
	}
}

func (p *Player) State() string { return p.state.Name() }

func (p *Player) FacingRight() bool { return p.facingRight }

func (p *Player) setState(s state) {
	p.state = s
}

func (p *Player) grounded() bool {
	return p.Floor != nil && p.Floor.HasContact()
}

func (p *Player) jumpPressed(in Input) bool {
	return in.Jump && !p.prevJump
}

func (p *Player) jump(next state) {
	v := p.Body.Velocity()
	p.Body.SetVelocity(cp.Vector{X: v.X, Y: -p.JumpVel})
	if p.Floor != nil {
		p.Floor.ForceEndContact()
	}
	p.setState(next)
}

// Update applies one tick of input. Call it before the world steps.
func (p *Player) Update(in Input) {
	if in.MoveX < 0 {
		p.facingRight = false
	} else if in.MoveX > 0 {
		p.facingRight = true
	}
	if p.jumpBuffer > 0 {
		p.jumpBuffer--
	}
	if p.coyote > 0 {
		p.coyote--
	}

	speed := in.MoveX * p.RunSpeed
	if p.grounded() {
		p.Floor.SetSpeed(speed)
	} else {
		v := p.Body.Velocity()
		p.Body.SetVelocity(cp.Vector{X: speed, Y: v.Y})
	}

	p.state.HandleInput(p, in)
	p.prevJump = in.Jump
	p.lastInput = in
}

// AfterStep lets the current state react to the collision result. Call it
// after the world steps.
func (p *Player) AfterStep() {
	p.state.OnPhysics(p)
}
