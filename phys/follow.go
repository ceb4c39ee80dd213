package phys

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
)

// FollowPath is one surface a body can travel along while following terrain.
type FollowPath struct {
	Index       int
	SurfaceLine common.Line

	// TravelLine is the surface offset to where the body's bottom center
	// sits while standing on it.
	TravelLine common.Line
	StartPos   cp.Vector
	Angle      common.Angle
	DiffAngle  common.Angle
}

// FollowResult reports where a follow step left the body.
type FollowResult struct {
	Path         FollowPath
	Dist         float64
	Pos          cp.Vector
	TravelDir    float64
	OnNewSurface bool
}

// SurfaceFollow walks a body across connected surfaces for a fixed distance.
// Candidates are offered with AddSurface, the best one is chosen with
// PickSurfaceToFollow and travelled to with TravelTo. Finish spends whatever
// distance is left on the current surface.
type SurfaceFollow struct {
	curr       FollowPath
	travelDir  float64
	travelDist float64
	bodySize   cp.Vector

	angleMax   common.Angle
	angleRange common.AngleRange

	candidates []FollowPath
	taken      []FollowPath
}

func NewSurfaceFollow(initPath common.Line, initPos cp.Vector, travelDir, distance float64, angles common.AngleRange, maxAngle common.Angle, bodySize cp.Vector) *SurfaceFollow {
	f := &SurfaceFollow{
		curr: FollowPath{
			SurfaceLine: initPath,
			TravelLine:  travelForm(initPath, bodySize),
			StartPos:    initPos,
			Angle:       initPath.Angle(),
		},
		travelDir:  travelDir,
		travelDist: distance,
		bodySize:   bodySize,
		angleMax:   maxAngle,
		angleRange: angles,
	}
	f.taken = append(f.taken, f.curr)
	return f
}

func (f *SurfaceFollow) Remaining() float64 { return f.travelDist }

func (f *SurfaceFollow) Current() FollowPath { return f.curr }

func (f *SurfaceFollow) PathTaken() []FollowPath { return f.taken }

func (f *SurfaceFollow) Candidates() []FollowPath { return f.candidates }

func (f *SurfaceFollow) Reset() {
	f.candidates = f.candidates[:0]
}

type surfaceKind uint8

const (
	floorSurface surfaceKind = iota
	wallSurface
	ceilSurface
)

func kindOf(l common.Line) surfaceKind {
	if l.IsVertical() {
		return wallSurface
	}
	if l.Normal().Y < 0 {
		return floorSurface
	}
	return ceilSurface
}

// travelForm offsets a surface by the body's half extents so that following
// the result keeps the body's bottom center flush against the surface.
func travelForm(line common.Line, size cp.Vector) common.Line {
	n := line.Normal()
	halfX := size.X * 0.5
	slope := math.Tan(line.Angle().Radians())

	switch kindOf(line) {
	case floorSurface:
		line.P1.X -= halfX
		line.P2.X += halfX
		if !line.IsHorizontal() {
			line.P1.Y -= slope * halfX
			line.P2.Y += slope * halfX
		}
	case ceilSurface:
		line = line.Shift(cp.Vector{Y: size.Y})
		line.P2.X -= halfX
		line.P1.X += halfX
		if !line.IsHorizontal() {
			line.P2.Y -= slope * halfX
			line.P1.Y += slope * halfX
		}
	default:
		line = line.Shift(cp.Vector{X: n.X * halfX})
		if n.X < 0 {
			line.P1.Y += size.Y
		} else {
			line.P2.Y += size.Y
		}
	}
	return line
}

// AddSurface offers a candidate. It returns false when the surface can't be
// reached from the current one in the travel direction.
func (f *SurfaceFollow) AddSurface(path common.Line) bool {
	p, ok := f.validSurface(path, len(f.candidates))
	if !ok {
		return false
	}
	f.candidates = append(f.candidates, p)
	return true
}

func (f *SurfaceFollow) validSurface(path common.Line, index int) (FollowPath, bool) {
	if path.Equal(f.curr.SurfaceLine) {
		return FollowPath{}, false
	}

	travel := travelForm(path, f.bodySize)
	dirCurr := f.curr.TravelLine
	dirPath := travel

	var inter cp.Vector
	if common.VecNearlyEqual(dirCurr.P2, dirPath.P1) {
		inter = dirCurr.P2
	} else {
		inter = common.Intersection(dirPath, dirCurr)
	}

	if f.travelDir < 0 {
		dirCurr = dirCurr.Reverse()
		dirPath = dirPath.Reverse()
	}

	ahead := f.curr.SurfaceLine.P1
	if f.travelDir < 0 {
		ahead = f.curr.SurfaceLine.P2
	}

	var start cp.Vector
	found := false
	if !common.IsNaNVec(inter) {
		isAhead := inter.Sub(ahead).Dot(dirCurr.Tangent()) > 0
		if isAhead && (dirCurr.HasPoint(inter) || dirPath.HasPoint(inter)) {
			start = inter
			found = true
		}
	} else if common.Collinear(path, f.curr.SurfaceLine) {
		p := path.P1
		if f.travelDir < 0 {
			p = path.P2
		}
		switch kindOf(path) {
		case ceilSurface:
			p = p.Add(cp.Vector{Y: f.bodySize.Y})
		case wallSurface:
			p = p.Add(path.Normal().Mult(f.bodySize.X * 0.5))
		}
		isAhead := p.Sub(ahead).Dot(dirCurr.Tangent()) > 0
		if isAhead && dirCurr.HasPoint(p) {
			start = p
			found = true
		}
	}

	nextAng := common.AngleOf(dirPath.Tangent())
	currAng := common.AngleOf(dirCurr.Tangent())
	diff := nextAng.Sub(currAng)

	inRange := f.angleRange.Contains(common.AngleOf(path.Normal()))
	inMax := math.Abs(diff.Degrees()) < math.Abs(f.angleMax.Degrees())

	if !found || !inRange || !inMax {
		return FollowPath{}, false
	}
	return FollowPath{
		Index:       index,
		SurfaceLine: path,
		TravelLine:  travel,
		StartPos:    start,
		Angle:       nextAng,
		DiffAngle:   diff,
	}, true
}

func (f *SurfaceFollow) visited(line common.Line) bool {
	for _, p := range f.taken {
		if p.SurfaceLine.Equal(line) {
			return true
		}
	}
	return false
}

// PickSurfaceToFollow returns the index of the nearest candidate ahead of
// the body, breaking ties by the turn angle.
func (f *SurfaceFollow) PickSurfaceToFollow() (int, bool) {
	if f.travelDir == 0 {
		return 0, false
	}

	pick := -1
	currDir := f.curr.SurfaceLine.Tangent().Mult(f.travelDir)

	for i := range f.candidates {
		cand := &f.candidates[i]
		dirCand := cand.SurfaceLine
		if f.travelDir < 0 {
			dirCand = dirCand.Reverse()
		}

		// started at the far end already
		if common.VecNearlyEqual(cand.StartPos, dirCand.P2) {
			continue
		}
		if f.visited(cand.SurfaceLine) {
			continue
		}
		if currDir.Dot(cand.StartPos.Sub(f.curr.StartPos)) <= 0 {
			continue
		}
		if pick < 0 || comparePaths(f.travelDir, &f.curr, &f.candidates[pick], cand) {
			pick = i
		}
	}
	if pick < 0 {
		return 0, false
	}
	return pick, true
}

// comparePaths reports whether candidate is a better next surface than pick.
func comparePaths(travelDir float64, from, pick, candidate *FollowPath) bool {
	currDist := pick.StartPos.Distance(from.StartPos)
	candDist := candidate.StartPos.Distance(from.StartPos)
	if candDist < currDist {
		return true
	}

	ang := from.SurfaceLine.Angle()
	currAng := pick.SurfaceLine.Angle().Sub(ang)
	candAng := candidate.SurfaceLine.Angle().Sub(ang)
	if travelDir > 0 {
		return candAng < currAng
	}
	return candAng > currAng
}

// TravelTo moves toward candidate index, stopping short if the remaining
// distance runs out first. Candidates are cleared either way.
func (f *SurfaceFollow) TravelTo(index int) FollowResult {
	if index < 0 || index >= len(f.candidates) {
		return FollowResult{Path: f.curr, Dist: f.travelDist, Pos: f.curr.StartPos, TravelDir: f.travelDir}
	}

	path := f.candidates[index]
	unit := common.Unit(path.StartPos.Sub(f.curr.StartPos))
	dist := f.curr.StartPos.Distance(path.StartPos)

	var pos cp.Vector
	reached := dist <= f.travelDist
	if reached {
		pos = path.StartPos
		f.travelDist -= dist
		f.curr = path
		f.taken = append(f.taken, path)
	} else {
		pos = f.curr.StartPos.Add(unit.Mult(f.travelDist))
		f.travelDist = 0
	}
	f.Reset()

	return FollowResult{
		Path:         f.curr,
		Dist:         f.travelDist,
		Pos:          pos,
		TravelDir:    f.travelDir,
		OnNewSurface: reached,
	}
}

// Finish spends the remaining distance along the current surface.
func (f *SurfaceFollow) Finish() FollowResult {
	unit := f.curr.SurfaceLine.Tangent().Mult(f.travelDir)
	pos := f.curr.StartPos.Add(unit.Mult(f.travelDist))
	f.travelDist = 0
	f.Reset()

	return FollowResult{
		Path:      f.curr,
		Dist:      0,
		Pos:       pos,
		TravelDir: f.travelDir,
	}
}
