package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// appliedMovement is a sustained movement spread over several frames.
type appliedMovement struct {
	PerFrame mgl32.Vec2
	Until    int
}

type expandedHurtbox struct {
	Area  Area
	Until int
}

// Player is one side of the match. The character is shared and immutable,
// everything else belongs to the match state and is part of a snapshot.
type Player struct {
	slot      int
	char      *Character
	parser    *InputParser
	buffer    MoveBuffer
	state     PlayerState
	gauges    Gauges
	inventory Inventory
	combo     Combo
	streak    DefenseStreak
	spawner   *HitboxSpawner

	position  mgl32.Vec2
	velocity  mgl32.Vec2
	movements []appliedMovement
	facing    Facing
	expanded  []expandedHurtbox
	lastInput InputBits
}

func newPlayer(slot int, c *Character, ic InputConfig) (*Player, error) {
	parser, err := newInputParser(c.Inputs(), ic)
	if err != nil {
		return nil, errors.Wrapf(err, "player %d", slot+1)
	}
	p := &Player{
		slot:      slot,
		char:      c,
		parser:    parser,
		state:     newPlayerState(),
		inventory: c.startingInventory(),
		spawner:   newHitboxSpawner(slot),
	}
	p.gauges = newGauges(p.stats(), c.Gauges)
	return p, nil
}

// stats folds owned item effects and active conditions over the base stats.
func (p *Player) stats() Stats {
	s := p.char.BaseStats
	for _, st := range p.inventory.Items {
		if it, ok := p.char.Items[st.Id]; ok && it.Effect != nil {
			s = s.Combine(it.Effect)
		}
	}
	return p.state.CombinedEffects(s)
}

func (p *Player) situation(frame int) *Situation {
	return &Situation{
		Tracker:       p.state.Tracker(),
		Frame:         frame,
		Grounded:      p.state.IsGrounded(),
		Facing:        p.facing,
		Stick:         p.parser.StickPosition(),
		AbsoluteStick: p.parser.AbsoluteStick(),
		Held:          p.parser.Held(),
		Inventory:     p.inventory,
		Resources:     p.gauges,
		Conditions:    p.state.Conditions(),
		Stats:         p.stats(),
		Position:      p.position,
		Combo:         p.combo,
		Stunned:       p.state.IsStunned(),
		Windows:       p.state.CancelTypes(frame),
	}
}

// impulse is given facing right.
func (p *Player) impulse(v mgl32.Vec2) {
	p.velocity = p.velocity.Add(p.facing.MirrorVec(v))
}

func (p *Player) move(m Movement, frame int) {
	if m.Duration <= 0 {
		p.impulse(m.Amount)
		return
	}
	p.movements = append(p.movements, appliedMovement{
		PerFrame: p.facing.MirrorVec(m.Amount.Mul(1 / float32(m.Duration))),
		Until:    frame + m.Duration,
	})
}

// hurtboxes in world space, expanded boxes last.
func (p *Player) hurtboxes(frame int) []Area {
	base := p.char.Hurtboxes.For(&p.state)
	out := make([]Area, 0, len(base)+len(p.expanded))
	for _, a := range base {
		out = append(out, a.Mirrored(p.facing).WithOffset(p.position))
	}
	for _, e := range p.expanded {
		if frame < e.Until {
			out = append(out, e.Area.Mirrored(p.facing).WithOffset(p.position))
		}
	}
	return out
}

func (p *Player) pushbox() Area {
	return p.state.Pushbox(p.char).Mirrored(p.facing).WithOffset(p.position)
}

func (p *Player) expireHurtboxes(frame int) {
	kept := p.expanded[:0]
	for _, e := range p.expanded {
		if frame < e.Until {
			kept = append(kept, e)
		}
	}
	p.expanded = kept
}

func (p *Player) expireMovements(frame int) {
	kept := p.movements[:0]
	for _, m := range p.movements {
		if frame < m.Until {
			kept = append(kept, m)
		}
	}
	p.movements = kept
}

func (p *Player) clone() *Player {
	c := *p
	c.parser = p.parser.clone()
	c.buffer = p.buffer.clone()
	c.state = p.state.clone()
	c.inventory = p.inventory.clone()
	c.spawner = p.spawner.clone()
	c.movements = slices.Clone(p.movements)
	c.expanded = slices.Clone(p.expanded)
	return &c
}
