package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"
)

// ActionId names a move within a character's moveset.
type ActionId string

type ActionCategory uint8

const (
	CategoryDash ActionCategory = iota
	CategoryJump
	CategoryOther
	CategoryNormal
	CategorySpecial
	CategorySuper
	CategoryForced
	CategoryFollowUp
	CategoryThrow
	CategoryMegaInterrupt
)

var categoryNames = [...]string{
	"Dash", "Jump", "Other", "Normal", "Special", "Super", "Forced", "FollowUp", "Throw", "MegaInterrupt",
}

func (ac ActionCategory) String() string {
	if int(ac) >= len(categoryNames) {
		return fmt.Sprintf("ActionCategory(%d)", uint8(ac))
	}
	return categoryNames[ac]
}

func categoryFromString(s string) (ActionCategory, bool) {
	for i, n := range categoryNames {
		if n == s {
			return ActionCategory(i), true
		}
	}
	return 0, false
}

// Script is the per frame behavior of an action. It must be a pure function
// of the situation.
type Script func(s *Situation) []ActionEvent

type Action struct {
	Id          ActionId
	Input       string
	Category    ActionCategory
	Requirement ActionRequirement
	Script      Script
	// Transient actions run once on activation without occupying the player
	Transient bool
	// Actions this one starts through StartAction, when known at build time
	Targets []ActionId
}

// Movement is an impulse when Duration is zero, otherwise it is applied every
// frame for Duration frames.
type Movement struct {
	Amount   mgl32.Vec2
	Duration int
}

func impulse(x, y float32) Movement {
	return Movement{Amount: mgl32.Vec2{x, y}}
}

type ActionEventKind uint8

const (
	EvNoop ActionEventKind = iota
	EvAnimation
	EvSound
	EvVfx
	EvCameraTilt
	EvCameraShake
	EvHitstop
	EvMovement
	EvTeleport
	EvSnapToOpponent
	EvSideSwitch
	EvModifyResource
	EvClearResource
	EvForceStand
	EvSpawnHitbox
	EvAllowCancel
	EvExpandHurtbox
	EvHitStun
	EvBlockStun
	EvLaunchStun
	EvStartAction
	EvCondition
	EvClearCondition
	EvConsumeItem
	EvLock
	EvEnd
)

var eventKindNames = [...]string{
	"Noop", "Animation", "Sound", "Vfx", "CameraTilt", "CameraShake", "Hitstop", "Movement",
	"Teleport", "SnapToOpponent", "SideSwitch", "ModifyResource", "ClearResource", "ForceStand",
	"SpawnHitbox", "AllowCancel", "ExpandHurtbox", "HitStun", "BlockStun", "LaunchStun",
	"StartAction", "Condition", "ClearCondition", "ConsumeItem", "Lock", "End",
}

func (k ActionEventKind) String() string {
	if int(k) >= len(eventKindNames) {
		return fmt.Sprintf("ActionEventKind(%d)", uint8(k))
	}
	return eventKindNames[k]
}

// ActionEvent is one effect requested by a script. Only the fields relevant
// to Kind are set.
type ActionEvent struct {
	Kind       ActionEventKind
	Name       string
	Action     ActionId
	Frames     int
	Amount     int
	Gauge      GaugeType
	Vec        mgl32.Vec2
	Movement   Movement
	Attack     *Attack
	Cancel     CancelRule
	Area       Area
	Condition  StatusCondition
	Flag       StatusFlag
	Item       ItemId
	SideSwitch bool
}

func (ev ActionEvent) String() string {
	switch ev.Kind {
	case EvAnimation, EvSound, EvVfx:
		return fmt.Sprintf("%v(%s)", ev.Kind, ev.Name)
	case EvStartAction:
		return fmt.Sprintf("StartAction(%s)", ev.Action)
	case EvModifyResource:
		return fmt.Sprintf("ModifyResource(%v, %d)", ev.Gauge, ev.Amount)
	case EvHitStun, EvBlockStun, EvHitstop, EvLock:
		return fmt.Sprintf("%v(%d)", ev.Kind, ev.Frames)
	}
	return ev.Kind.String()
}

// Presentation events are only forwarded, the core never acts on them.
func (ev ActionEvent) presentation() bool {
	switch ev.Kind {
	case EvAnimation, EvSound, EvVfx, EvCameraTilt, EvCameraShake, EvHitstop:
		return true
	}
	return false
}

func Animation(name string) ActionEvent { return ActionEvent{Kind: EvAnimation, Name: name} }
func Sound(name string) ActionEvent     { return ActionEvent{Kind: EvSound, Name: name} }
func Vfx(name string) ActionEvent       { return ActionEvent{Kind: EvVfx, Name: name} }
func CameraShake() ActionEvent          { return ActionEvent{Kind: EvCameraShake} }
func Hitstop(frames int) ActionEvent    { return ActionEvent{Kind: EvHitstop, Frames: frames} }
func End() ActionEvent                  { return ActionEvent{Kind: EvEnd} }
func Noop() ActionEvent                 { return ActionEvent{Kind: EvNoop} }
func ForceStand() ActionEvent           { return ActionEvent{Kind: EvForceStand} }
func HitStun(frames int) ActionEvent    { return ActionEvent{Kind: EvHitStun, Frames: frames} }
func BlockStun(frames int) ActionEvent  { return ActionEvent{Kind: EvBlockStun, Frames: frames} }
func Lock(frames int) ActionEvent       { return ActionEvent{Kind: EvLock, Frames: frames} }

func CameraTilt(v mgl32.Vec2) ActionEvent     { return ActionEvent{Kind: EvCameraTilt, Vec: v} }
func Move(m Movement) ActionEvent             { return ActionEvent{Kind: EvMovement, Movement: m} }
func Teleport(v mgl32.Vec2) ActionEvent       { return ActionEvent{Kind: EvTeleport, Vec: v} }
func LaunchStun(v mgl32.Vec2) ActionEvent     { return ActionEvent{Kind: EvLaunchStun, Vec: v} }
func StartAction(id ActionId) ActionEvent     { return ActionEvent{Kind: EvStartAction, Action: id} }
func SpawnHitbox(a Attack) ActionEvent        { return ActionEvent{Kind: EvSpawnHitbox, Attack: &a} }
func AllowCancel(cr CancelRule) ActionEvent   { return ActionEvent{Kind: EvAllowCancel, Cancel: cr} }
func ConsumeItem(id ItemId) ActionEvent       { return ActionEvent{Kind: EvConsumeItem, Item: id} }
func ClearCondition(f StatusFlag) ActionEvent { return ActionEvent{Kind: EvClearCondition, Flag: f} }

func SnapToOpponent(sideSwitch bool) ActionEvent {
	return ActionEvent{Kind: EvSnapToOpponent, SideSwitch: sideSwitch}
}

func SideSwitch() ActionEvent {
	return ActionEvent{Kind: EvSideSwitch}
}

func ModifyResource(gt GaugeType, amount int) ActionEvent {
	return ActionEvent{Kind: EvModifyResource, Gauge: gt, Amount: amount}
}

func ClearResource(gt GaugeType) ActionEvent {
	return ActionEvent{Kind: EvClearResource, Gauge: gt}
}

func ExpandHurtbox(area Area, frames int) ActionEvent {
	return ActionEvent{Kind: EvExpandHurtbox, Area: area, Frames: frames}
}

func Condition(sc StatusCondition) ActionEvent {
	return ActionEvent{Kind: EvCondition, Condition: sc}
}

type RequirementKind uint8

const (
	ReqNone RequirementKind = iota
	ReqGrounded
	ReqAirborne
	ReqAnyActionOngoing
	ReqActionOngoing
	ReqActionNotOngoing
	ReqItemOwned
	ReqResourceFull
	ReqResourceValue
	ReqButtonPressed
	ReqButtonNotPressed
	ReqStatusNotActive
	ReqStarter
	ReqAnd
	ReqOr
)

// ActionRequirement is a predicate tree over a Situation.
type ActionRequirement struct {
	Kind     RequirementKind
	Ids      []ActionId
	Item     ItemId
	Gauge    GaugeType
	Value    int
	Button   Button
	Flag     StatusFlag
	Category ActionCategory
	Children []ActionRequirement
}

func reqAnd(children ...ActionRequirement) ActionRequirement {
	return ActionRequirement{Kind: ReqAnd, Children: children}
}

func reqOr(children ...ActionRequirement) ActionRequirement {
	return ActionRequirement{Kind: ReqOr, Children: children}
}

func reqStarter(category ActionCategory) ActionRequirement {
	return ActionRequirement{Kind: ReqStarter, Category: category}
}

// Check evaluates the requirement. id is the action being considered, used by
// specific cancels.
func (r *ActionRequirement) Check(s *Situation, id ActionId) bool {
	switch r.Kind {
	case ReqNone:
		return true
	case ReqGrounded:
		return s.Grounded
	case ReqAirborne:
		return !s.Grounded
	case ReqAnyActionOngoing:
		return s.Tracker != nil
	case ReqActionOngoing:
		return s.Tracker != nil && slices.Contains(r.Ids, s.Tracker.Id)
	case ReqActionNotOngoing:
		return s.Tracker == nil || !slices.Contains(r.Ids, s.Tracker.Id)
	case ReqItemOwned:
		return s.Inventory.Contains(r.Item)
	case ReqResourceFull:
		g := s.Resources.Get(r.Gauge)
		return g != nil && g.IsFull()
	case ReqResourceValue:
		g := s.Resources.Get(r.Gauge)
		return g != nil && g.Current >= r.Value
	case ReqButtonPressed:
		return s.Held.Has(r.Button)
	case ReqButtonNotPressed:
		return !s.Held.Has(r.Button)
	case ReqStatusNotActive:
		return !s.HasCondition(r.Flag)
	case ReqStarter:
		return s.CanStart(r.Category, id)
	case ReqAnd:
		for i := range r.Children {
			if !r.Children[i].Check(s, id) {
				return false
			}
		}
		return true
	case ReqOr:
		for i := range r.Children {
			if r.Children[i].Check(s, id) {
				return true
			}
		}
		return false
	}
	return false
}

// costs reports resources that starting the action spends.
func (r *ActionRequirement) costs() []ActionRequirement {
	var out []ActionRequirement
	if r.Kind == ReqResourceValue {
		out = append(out, *r)
	}
	if r.Kind == ReqAnd {
		for i := range r.Children {
			out = append(out, r.Children[i].costs()...)
		}
	}
	return out
}
