package main

import (
	"github.com/pkg/errors"
)

type timingKind uint8

const (
	timingOnFrame timingKind = iota
	timingAfter
	timingAlways
)

type timing struct {
	kind      timingKind
	frame     int
	repeating bool
}

func (t timing) fires(s *Situation) bool {
	switch t.kind {
	case timingOnFrame:
		return s.OnFrame(t.frame)
	case timingAfter:
		if t.repeating {
			return s.AfterFrame(t.frame)
		}
		return s.firstAfter(t.frame)
	}
	return true
}

// eventBlob is every event registered under one timing key, constants first
// and generators in registration order.
type eventBlob struct {
	timing   timing
	constant []ActionEvent
	dynamic  []Script
}

type simpleState uint8

const (
	stateStand simpleState = iota
	stateCrouch
	stateAir
	stateAny
)

// ActionBuilder assembles an Action script out of timed event blobs.
type ActionBuilder struct {
	category      ActionCategory
	input         string
	button        *Button
	state         simpleState
	transient     bool
	blobs         []eventBlob
	costs         []ActionRequirement
	needsCharge   bool
	extra         []ActionRequirement
	followsUpFrom []ActionId
	items         []ItemId
	duration      int
}

func NewActionBuilder(category ActionCategory) *ActionBuilder {
	return &ActionBuilder{category: category}
}

func ButtonNormal(b Button) *ActionBuilder {
	ab := NewActionBuilder(CategoryNormal)
	ab.button = &b
	return ab
}

func (ab *ActionBuilder) Input(pattern string) *ActionBuilder {
	ab.input = pattern
	return ab
}

func (ab *ActionBuilder) Crouching() *ActionBuilder   { ab.state = stateCrouch; return ab }
func (ab *ActionBuilder) AirOnly() *ActionBuilder     { ab.state = stateAir; return ab }
func (ab *ActionBuilder) AirOrGround() *ActionBuilder { ab.state = stateAny; return ab }

// Transient actions do their thing and end without occupying the player.
func (ab *ActionBuilder) Transient() *ActionBuilder {
	ab.transient = true
	return ab
}

func (ab *ActionBuilder) FollowUpFrom(ids ...ActionId) *ActionBuilder {
	ab.followsUpFrom = append(ab.followsUpFrom, ids...)
	return ab
}

func (ab *ActionBuilder) Requirement(r ActionRequirement) *ActionBuilder {
	ab.extra = append(ab.extra, r)
	return ab
}

func (ab *ActionBuilder) Cost(gt GaugeType, amount int) *ActionBuilder {
	ab.costs = append(ab.costs, ActionRequirement{Kind: ReqResourceValue, Gauge: gt, Value: amount})
	return ab
}

func (ab *ActionBuilder) MeterCost(amount int) *ActionBuilder {
	return ab.Cost(GaugeMeter, amount)
}

func (ab *ActionBuilder) Charge() *ActionBuilder {
	ab.needsCharge = true
	return ab
}

// ItemRequirement gates the action on owning id. Consumable items are spent
// by the engine when the action starts.
func (ab *ActionBuilder) ItemRequirement(id ItemId) *ActionBuilder {
	ab.items = append(ab.items, id)
	return ab
}

func (ab *ActionBuilder) blob(t timing, events []ActionEvent, dynamic Script) *ActionBuilder {
	for i := range ab.blobs {
		if ab.blobs[i].timing == t {
			ab.blobs[i].constant = append(ab.blobs[i].constant, events...)
			if dynamic != nil {
				ab.blobs[i].dynamic = append(ab.blobs[i].dynamic, dynamic)
			}
			return ab
		}
	}
	b := eventBlob{timing: t, constant: events}
	if dynamic != nil {
		b.dynamic = []Script{dynamic}
	}
	ab.blobs = append(ab.blobs, b)
	return ab
}

func (ab *ActionBuilder) OnFrame(n int, events ...ActionEvent) *ActionBuilder {
	return ab.blob(timing{kind: timingOnFrame, frame: n}, events, nil)
}

func (ab *ActionBuilder) Immediate(events ...ActionEvent) *ActionBuilder {
	return ab.OnFrame(0, events...)
}

// After fires once, on the first frame the timeline is past n.
func (ab *ActionBuilder) After(n int, events ...ActionEvent) *ActionBuilder {
	return ab.blob(timing{kind: timingAfter, frame: n}, events, nil)
}

// Repeating fires on every frame past n.
func (ab *ActionBuilder) Repeating(n int, events ...ActionEvent) *ActionBuilder {
	return ab.blob(timing{kind: timingAfter, frame: n, repeating: true}, events, nil)
}

func (ab *ActionBuilder) Always(events ...ActionEvent) *ActionBuilder {
	return ab.blob(timing{kind: timingAlways}, events, nil)
}

func (ab *ActionBuilder) Dynamic(n int, f Script) *ActionBuilder {
	return ab.blob(timing{kind: timingOnFrame, frame: n}, nil, f)
}

func (ab *ActionBuilder) DynamicAfter(n int, f Script) *ActionBuilder {
	return ab.blob(timing{kind: timingAfter, frame: n}, nil, f)
}

func (ab *ActionBuilder) DynamicAlways(f Script) *ActionBuilder {
	return ab.blob(timing{kind: timingAlways}, nil, f)
}

func (ab *ActionBuilder) Animation(name string) *ActionBuilder {
	return ab.Immediate(Animation(name))
}

func (ab *ActionBuilder) Sound(name string) *ActionBuilder {
	return ab.Immediate(Sound(name))
}

func (ab *ActionBuilder) CancelAt(n int, cr CancelRule) *ActionBuilder {
	return ab.OnFrame(n, AllowCancel(cr))
}

func (ab *ActionBuilder) EndAt(n int) *ActionBuilder {
	ab.duration = n
	return ab
}

func (ab *ActionBuilder) buildInput() string {
	if ab.input != "" || ab.button == nil {
		return ab.input
	}
	in := string(ab.button.DSL())
	if ab.state == stateCrouch {
		// Holding down counts, which also makes it beat the standing version
		in = "[123]" + in
	}
	return in
}

func (ab *ActionBuilder) buildRequirement() ActionRequirement {
	reqs := append([]ActionRequirement(nil), ab.extra...)
	switch ab.state {
	case stateAir:
		reqs = append(reqs, ActionRequirement{Kind: ReqAirborne})
	case stateStand, stateCrouch:
		reqs = append(reqs, ActionRequirement{Kind: ReqGrounded})
	}
	reqs = append(reqs, ab.costs...)
	if ab.needsCharge {
		reqs = append(reqs, ActionRequirement{Kind: ReqResourceFull, Gauge: GaugeCharge})
	}
	for _, id := range ab.items {
		reqs = append(reqs, ActionRequirement{Kind: ReqItemOwned, Item: id})
	}
	if len(ab.followsUpFrom) > 0 {
		reqs = append(reqs, ActionRequirement{Kind: ReqActionOngoing, Ids: ab.followsUpFrom})
	}
	reqs = append(reqs, reqStarter(ab.category))
	return reqAnd(reqs...)
}

func (ab *ActionBuilder) buildScript() Script {
	var prelude []ActionEvent
	for _, c := range ab.costs {
		prelude = append(prelude, ModifyResource(c.Gauge, -c.Value))
	}
	if ab.needsCharge {
		prelude = append(prelude, ClearResource(GaugeCharge))
	}
	for _, id := range ab.items {
		prelude = append(prelude, ConsumeItem(id))
	}
	if !ab.transient && ab.state == stateStand {
		prelude = append(prelude, ForceStand())
	}

	blobs := make([]eventBlob, 0, len(ab.blobs)+2)
	if len(prelude) > 0 {
		blobs = append(blobs, eventBlob{timing: timing{kind: timingOnFrame}, constant: prelude})
	}
	blobs = append(blobs, ab.blobs...)
	if !ab.transient {
		// End keeps firing so a stale action can never revive
		blobs = append(blobs, eventBlob{
			timing:   timing{kind: timingAfter, frame: ab.duration, repeating: true},
			constant: []ActionEvent{End()},
		})
	}

	return func(s *Situation) []ActionEvent {
		var out []ActionEvent
		for i := range blobs {
			b := &blobs[i]
			if !b.timing.fires(s) {
				continue
			}
			out = append(out, b.constant...)
			for _, gen := range b.dynamic {
				out = append(out, gen(s)...)
			}
		}
		return out
	}
}

func (ab *ActionBuilder) Build(id ActionId) (Action, error) {
	if !ab.transient && ab.duration <= 0 {
		return Action{}, errors.Errorf("action %s has no duration", id)
	}
	if ab.transient && ab.duration > 0 {
		return Action{}, errors.Errorf("transient action %s has a duration", id)
	}
	in := ab.buildInput()
	if in != "" {
		if _, err := CompileMotion(in); err != nil {
			return Action{}, errors.Wrapf(err, "action %s", id)
		}
	}
	return Action{
		Id:          id,
		Input:       in,
		Category:    ab.category,
		Requirement: ab.buildRequirement(),
		Script:      ab.buildScript(),
		Transient:   ab.transient,
		Targets:     ab.targets(),
	}, nil
}

func (ab *ActionBuilder) targets() []ActionId {
	var out []ActionId
	for _, b := range ab.blobs {
		for _, ev := range b.constant {
			if ev.Kind == EvStartAction {
				out = append(out, ev.Action)
			}
		}
	}
	return out
}
