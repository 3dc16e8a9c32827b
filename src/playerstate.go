package main

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type mainState uint8

const (
	mainStand mainState = iota
	mainCrouch
	mainAir
	// Knocked down, lying on the ground
	mainGround
)

type subState uint8

const (
	subIdle subState = iota
	subWalk
	subStun
	subMove
	subFreefall
)

type stunKind uint8

const (
	stunHit stunKind = iota
	stunBlock
)

// PlayerState is the per player state machine. Everything that changes it
// goes through the transition methods below.
type PlayerState struct {
	main      mainState
	sub       subState
	walkDir   Facing
	stun      stunKind
	until     int
	tracker   *ActionTracker
	freeSince int
	free      bool

	conditions  []StatusCondition
	unprocessed []ActionEvent
	oldestEvent int
}

func newPlayerState() PlayerState {
	return PlayerState{main: mainStand, sub: subIdle, free: true}
}

func (ps *PlayerState) Reset() {
	*ps = newPlayerState()
}

func (ps *PlayerState) String() string {
	names := [...]string{"Stand", "Crouch", "Air", "Ground"}
	subs := [...]string{"Idle", "Walk", "Stun", "Move", "Freefall"}
	s := names[ps.main] + "/" + subs[ps.sub]
	if ps.tracker != nil {
		s += fmt.Sprintf("(%s@%d)", ps.tracker.Id, ps.tracker.StartFrame)
	}
	return s
}

// Events

// AddEvents queues events for the consumers. Events left over from before
// the previous frame mean a consumer skipped them.
func (ps *PlayerState) AddEvents(events []ActionEvent, frame int) {
	if len(events) == 0 {
		return
	}
	if len(ps.unprocessed) == 0 {
		ps.oldestEvent = frame
	} else if ps.oldestEvent < frame-1 {
		logger.Errorw("action events were never drained",
			"since", ps.oldestEvent, "frame", frame, "count", len(ps.unprocessed))
	}
	ps.unprocessed = append(ps.unprocessed, events...)
}

// DrainMatchingEvents removes and returns the events pred accepts, keeping
// the relative order of both halves.
func (ps *PlayerState) DrainMatchingEvents(pred func(ev *ActionEvent) bool) []ActionEvent {
	var out []ActionEvent
	kept := ps.unprocessed[:0]
	for i := range ps.unprocessed {
		if pred(&ps.unprocessed[i]) {
			out = append(out, ps.unprocessed[i])
		} else {
			kept = append(kept, ps.unprocessed[i])
		}
	}
	ps.unprocessed = kept
	return out
}

func (ps *PlayerState) DrainEvents() []ActionEvent {
	out := ps.unprocessed
	ps.unprocessed = nil
	return out
}

func (ps *PlayerState) PendingEvents() int {
	return len(ps.unprocessed)
}

// Actions

func (ps *PlayerState) StartAction(tracker *ActionTracker) {
	switch ps.main {
	case mainGround:
		logger.Errorw("starting an action while knocked down", "action", tracker.Id)
		return
	case mainAir, mainStand, mainCrouch:
	}
	ps.sub = subMove
	ps.tracker = tracker
	ps.free = false
}

func (ps *PlayerState) Tracker() *ActionTracker {
	return ps.tracker
}

func (ps *PlayerState) ActionInProgress() bool {
	return ps.tracker != nil
}

func (ps *PlayerState) RegisterHit() {
	if ps.tracker != nil {
		ps.tracker.HasHit = true
		ps.tracker.Hits++
	}
}

func (ps *PlayerState) OpenCancelWindow(cr CancelRule, frame int) {
	if ps.tracker == nil {
		logger.Errorw("cancel window opened without an action", "frame", frame)
		return
	}
	ps.tracker.CancelWindows = append(pruneWindows(ps.tracker.CancelWindows, frame), cr.open(frame))
}

// CancelTypes lists what the player may cancel into right now.
func (ps *PlayerState) CancelTypes(frame int) []CancelType {
	var out []CancelType
	if ps.tracker != nil {
		for _, w := range ps.tracker.CancelWindows {
			if w.Open(frame) && (!w.RequireHit || ps.tracker.HasHit) {
				out = append(out, w.Cancel)
			}
		}
	}
	for _, c := range ps.conditions {
		if c.Flag == StatusCancel {
			out = append(out, c.Cancel)
		}
	}
	return out
}

// CancellableInto checks a candidate against the open windows.
func (ps *PlayerState) CancellableInto(frame int, category ActionCategory, id ActionId) bool {
	for _, ct := range ps.CancelTypes(frame) {
		if ct.Admits(category, id) {
			return true
		}
	}
	return false
}

// CancellableSince is the earliest frame an open window admitting the
// candidate opened.
func (ps *PlayerState) CancellableSince(frame int, category ActionCategory, id ActionId) (int, bool) {
	since, ok := 0, false
	consider := func(from int) {
		if !ok || from < since {
			since, ok = from, true
		}
	}
	if ps.tracker != nil {
		for _, w := range ps.tracker.CancelWindows {
			if w.Accepts(frame, ps.tracker.HasHit, category, id) {
				consider(w.From)
			}
		}
	}
	for _, c := range ps.conditions {
		if c.Flag == StatusCancel && c.Cancel.Admits(category, id) {
			consider(c.Since)
		}
	}
	return since, ok
}

func (ps *PlayerState) StopWalking() {
	if ps.sub == subWalk {
		ps.sub = subIdle
	}
}

// Recover makes the player actionable again.
func (ps *PlayerState) Recover(frame int) {
	if ps.main == mainGround {
		ps.main = mainCrouch
	}
	ps.sub = subIdle
	ps.tracker = nil
	ps.freeSince = frame
	ps.free = true
}

func (ps *PlayerState) FreeSince() (int, bool) {
	return ps.freeSince, ps.free
}

// Stun

func (ps *PlayerState) HitStun(until int) {
	ps.stunned(stunHit, until)
}

func (ps *PlayerState) BlockStun(until int) {
	ps.stunned(stunBlock, until)
}

func (ps *PlayerState) stunned(kind stunKind, until int) {
	switch ps.main {
	case mainAir:
		ps.sub = subFreefall
	case mainGround:
		logger.Errorw("stunned while knocked down")
		return
	default:
		ps.sub = subStun
		ps.stun = kind
		ps.until = until
	}
	ps.tracker = nil
	ps.free = false
}

func (ps *PlayerState) Launch() {
	ps.main = mainAir
	ps.sub = subFreefall
	ps.tracker = nil
	ps.free = false
}

// Throw puts the defender into the thrown state, the throw follow up action
// takes over from there.
func (ps *PlayerState) Throw() {
	ps.tracker = nil
	ps.sub = subIdle
	ps.free = false
}

func (ps *PlayerState) UnstunFrame() (int, bool) {
	if (ps.main == mainStand || ps.main == mainCrouch) && ps.sub == subStun {
		return ps.until, true
	}
	return 0, false
}

func (ps *PlayerState) IsStunned() bool {
	return ps.sub == subStun || ps.sub == subFreefall || ps.main == mainGround
}

func (ps *PlayerState) IsBlockStunned() bool {
	return ps.sub == subStun && ps.stun == stunBlock
}

// Ground and air

func (ps *PlayerState) Jump() {
	switch {
	case ps.main == mainAir:
	case ps.main == mainGround:
		logger.Errorw("jumping while knocked down")
	default:
		ps.main = mainAir
		if ps.sub != subMove {
			ps.sub = subIdle
		}
	}
}

func (ps *PlayerState) Land(frame int) {
	if ps.main != mainAir {
		return
	}
	if ps.sub == subFreefall {
		ps.main = mainGround
		ps.sub = subIdle
		ps.until = frame
		return
	}
	ps.main = mainStand
	ps.sub = subIdle
	ps.tracker = nil
	ps.freeSince = frame
	ps.free = true
	ps.ClearCondition(StatusAirActionCooldown)
}

func (ps *PlayerState) OtgSince() (int, bool) {
	if ps.main == mainGround {
		return ps.until, true
	}
	return 0, false
}

func (ps *PlayerState) IsGrounded() bool {
	return ps.main != mainAir
}

func (ps *PlayerState) IsCrouching() bool {
	return ps.main == mainCrouch
}

func (ps *PlayerState) Walk(dir Facing) {
	if ps.main != mainStand || (ps.sub != subIdle && ps.sub != subWalk) {
		return
	}
	ps.sub = subWalk
	ps.walkDir = dir
}

func (ps *PlayerState) WalkDirection() (Facing, bool) {
	if ps.main == mainStand && ps.sub == subWalk {
		return ps.walkDir, true
	}
	return 0, false
}

func (ps *PlayerState) Crouch() {
	if ps.sub == subIdle || ps.sub == subWalk {
		if ps.main == mainStand || ps.main == mainCrouch {
			ps.main = mainCrouch
			ps.sub = subIdle
		}
	}
}

func (ps *PlayerState) Stand() {
	if ps.sub == subIdle || ps.sub == subWalk {
		if ps.main == mainStand || ps.main == mainCrouch {
			ps.main = mainStand
			if ps.sub == subWalk {
				return
			}
			ps.sub = subIdle
		}
	}
}

// ForceStand keeps the sub state but stands the player up.
func (ps *PlayerState) ForceStand() {
	switch ps.main {
	case mainCrouch:
		ps.main = mainStand
	case mainAir, mainGround:
		logger.Errorw("forced to stand while not standing or crouching", "state", ps.String())
	case mainStand:
	}
}

// Blocking needs the player grounded and not in the middle of an action.
func (ps *PlayerState) CanBlock() bool {
	return ps.tracker == nil && (ps.main == mainStand || ps.main == mainCrouch)
}

// Conditions

func (ps *PlayerState) AddCondition(sc StatusCondition, frame int) {
	if sc.Expiration > 0 {
		sc.Expiration += frame
	}
	sc.Since = frame
	ps.conditions = append(ps.conditions, sc)
}

func (ps *PlayerState) ClearCondition(flag StatusFlag) {
	ps.dropConditions(func(c *StatusCondition) bool { return c.Flag == flag })
}

// Zero expiration lasts until cleared.
func (ps *PlayerState) ExpireConditions(frame int) {
	ps.dropConditions(func(c *StatusCondition) bool {
		return c.Expiration > 0 && c.Expiration <= frame
	})
}

func (ps *PlayerState) dropConditions(drop func(c *StatusCondition) bool) {
	kept := ps.conditions[:0]
	for i := range ps.conditions {
		if !drop(&ps.conditions[i]) {
			kept = append(kept, ps.conditions[i])
		}
	}
	ps.conditions = kept
}

func (ps *PlayerState) HasFlag(flag StatusFlag) bool {
	for _, c := range ps.conditions {
		if c.Flag == flag {
			return true
		}
	}
	return false
}

func (ps *PlayerState) Conditions() []StatusCondition {
	return ps.conditions
}

func (ps *PlayerState) IsIntangible() bool {
	return ps.main == mainGround || ps.HasFlag(StatusIntangible)
}

// CombinedEffects folds every condition's stat modifier together.
func (ps *PlayerState) CombinedEffects(base Stats) Stats {
	for i := range ps.conditions {
		base = base.Combine(ps.conditions[i].Effect)
	}
	return base
}

func (ps *PlayerState) Pushbox(c *Character) Area {
	switch ps.main {
	case mainCrouch, mainGround:
		return c.CrouchingPushbox
	case mainAir:
		return c.AirPushbox
	}
	return c.StandingPushbox
}

func (ps *PlayerState) clone() PlayerState {
	c := *ps
	c.tracker = ps.tracker.clone()
	c.conditions = slices.Clone(ps.conditions)
	c.unprocessed = slices.Clone(ps.unprocessed)
	return c
}
