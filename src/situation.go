package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"
)

// ActionTracker follows one running instance of an action.
type ActionTracker struct {
	Id               ActionId
	StartFrame       int
	HasHit           bool
	Hits             int
	WasCancelledInto bool
	CancelWindows    []CancelWindow
}

func newActionTracker(id ActionId, start int, cancelled bool) *ActionTracker {
	return &ActionTracker{Id: id, StartFrame: start, WasCancelledInto: cancelled}
}

func (at *ActionTracker) clone() *ActionTracker {
	if at == nil {
		return nil
	}
	c := *at
	c.CancelWindows = slices.Clone(at.CancelWindows)
	return &c
}

// Situation is the read only view a script gets of its owner.
type Situation struct {
	Tracker       *ActionTracker
	Frame         int
	Grounded      bool
	Facing        Facing
	Stick         StickPosition
	AbsoluteStick StickPosition
	Held          ButtonSet
	Inventory     Inventory
	Resources     Gauges
	Conditions    []StatusCondition
	Stats         Stats
	Position      mgl32.Vec2
	Combo         Combo
	Stunned       bool
	// Cancel types currently open to the owner
	Windows []CancelType
}

func (s *Situation) Elapsed() int {
	if s.Tracker == nil {
		logger.Errorw("elapsed frames asked without an ongoing action", "frame", s.Frame)
		return 0
	}
	return s.Frame - s.Tracker.StartFrame
}

// Action speed stretches or compresses a script's timeline.
func (s *Situation) scaled(elapsed int) int {
	mult := s.Stats.ActionSpeedMultiplier
	if mult == 0 {
		mult = 1
	}
	return int(float32(elapsed) * mult)
}

// OnFrame is true on exactly one frame per script frame n, even when the
// speed multiplier skips or repeats frames.
func (s *Situation) OnFrame(n int) bool {
	e := s.Elapsed()
	if e == 0 {
		return n == 0
	}
	return s.scaled(e-1) < n && n <= s.scaled(e)
}

// AfterFrame stays true once the script timeline has passed n.
func (s *Situation) AfterFrame(n int) bool {
	return s.scaled(s.Elapsed()) > n
}

// firstAfter is true only on the first frame AfterFrame(n) holds.
func (s *Situation) firstAfter(n int) bool {
	e := s.Elapsed()
	if s.scaled(e) <= n {
		return false
	}
	return e == 0 || s.scaled(e-1) <= n
}

func (s *Situation) ElapsedBetween(from, to int) bool {
	e := s.scaled(s.Elapsed())
	return from <= e && e <= to
}

func (s *Situation) HasHit() bool {
	return s.Tracker != nil && s.Tracker.HasHit
}

func (s *Situation) Owns(id ItemId) bool {
	return s.Inventory.Contains(id)
}

func (s *Situation) Gauge(gt GaugeType) *Gauge {
	return s.Resources.Get(gt)
}

func (s *Situation) HasCondition(flag StatusFlag) bool {
	for _, c := range s.Conditions {
		if c.Flag == flag {
			return true
		}
	}
	return false
}

func (s *Situation) EndAt(n int) []ActionEvent {
	if s.AfterFrame(n) {
		return []ActionEvent{End()}
	}
	return nil
}

// CanStart is the starter gate. A free player may start anything, a busy one
// only what an open cancel admits.
func (s *Situation) CanStart(category ActionCategory, id ActionId) bool {
	if s.Stunned {
		return false
	}
	if s.Tracker == nil {
		return true
	}
	if category == CategoryMegaInterrupt {
		return true
	}
	for _, ct := range s.Windows {
		if ct.Admits(category, id) {
			return true
		}
	}
	return false
}
