package main

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Area is an axis aligned rectangle described by its center and size.
type Area struct {
	X, Y          float32
	Width, Height float32
}

func newArea(x, y, width, height float32) Area {
	return Area{X: x, Y: y, Width: width, Height: height}
}

// Builds an area from its edges
func areaFromSides(left, right, top, bottom float32) Area {
	return Area{
		X:      (left + right) / 2,
		Y:      (top + bottom) / 2,
		Width:  right - left,
		Height: top - bottom,
	}
}

func (a Area) Center() mgl32.Vec2 { return mgl32.Vec2{a.X, a.Y} }
func (a Area) Left() float32      { return a.X - a.Width/2 }
func (a Area) Right() float32     { return a.X + a.Width/2 }
func (a Area) Top() float32       { return a.Y + a.Height/2 }
func (a Area) Bottom() float32    { return a.Y - a.Height/2 }
func (a Area) Size() mgl32.Vec2   { return mgl32.Vec2{a.Width, a.Height} }
func (a Area) Empty() bool        { return a.Width <= 0 || a.Height <= 0 }

func (a Area) WithOffset(offset mgl32.Vec2) Area {
	a.X += offset[0]
	a.Y += offset[1]
	return a
}

func (a Area) WithCenter(center mgl32.Vec2) Area {
	a.X, a.Y = center[0], center[1]
	return a
}

// Mirrored flips the area around the owner's origin when facing left.
func (a Area) Mirrored(f Facing) Area {
	if f == FacingLeft {
		a.X = -a.X
	}
	return a
}

// Intersection returns the overlapping region. Touching edges do not overlap.
func (a Area) Intersection(b Area) (Area, bool) {
	if a.Right() > b.Left() && a.Left() < b.Right() &&
		a.Top() > b.Bottom() && a.Bottom() < b.Top() {
		return areaFromSides(
			maxF32(a.Left(), b.Left()),
			minF32(a.Right(), b.Right()),
			minF32(a.Top(), b.Top()),
			maxF32(a.Bottom(), b.Bottom()),
		), true
	}
	return Area{}, false
}

func minF32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func absF32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minI(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func absI(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
