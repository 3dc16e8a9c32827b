package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/slices"
)

type bufferedMove struct {
	Frame int
	Id    ActionId
}

type ActivationKind uint8

const (
	ActivationContinuation ActivationKind = iota
	ActivationRaw
	ActivationLink
	ActivationCancel
)

func (ak ActivationKind) String() string {
	return [...]string{"Continuation", "Raw", "Link", "Cancel"}[ak]
}

type LinkPrecision uint8

const (
	LinkPerfect LinkPrecision = iota
	LinkGood
	LinkFine
)

func linkPrecision(delta int, cc CombatConfig) LinkPrecision {
	switch d := absI(delta); {
	case d <= cc.PerfectLinkDelta:
		return LinkPerfect
	case d <= cc.GoodLinkDelta:
		return LinkGood
	}
	return LinkFine
}

func (lp LinkPrecision) meterGain(cc CombatConfig) int {
	switch lp {
	case LinkPerfect:
		return cc.PerfectLinkMeter
	case LinkGood:
		return cc.GoodLinkMeter
	}
	return 0
}

func linkMessage(lp LinkPrecision, delta int) string {
	dir := "Early"
	if delta > 0 {
		dir = "Late"
	}
	switch lp {
	case LinkPerfect:
		return "Perfect link!"
	case LinkGood:
		return fmt.Sprintf("Good link! (%s)", dir)
	}
	return fmt.Sprintf("Linked (%s)", dir)
}

func cancelMessage(input, since int) string {
	switch {
	case input == since:
		return "Frame perfect cancel"
	case input > since:
		return fmt.Sprintf("Cancelled on frame %d", input-since)
	}
	return fmt.Sprintf("Cancel buffered for %d frames", since-input)
}

type MoveActivation struct {
	Kind      ActivationKind
	Id        ActionId
	Start     int
	Precision LinkPrecision
	Message   string
}

// MoveBuffer holds recognized inputs for a few frames so they can be
// started as soon as the player is able to.
type MoveBuffer struct {
	entries    []bufferedMove
	activation *MoveActivation
}

func (mb *MoveBuffer) add(ids []ActionId, frame int) {
	for _, id := range ids {
		mb.entries = append(mb.entries, bufferedMove{Frame: frame, Id: id})
	}
}

// clearOld drops stale entries, and everything if the clock went backwards
// because of a round restart.
func (mb *MoveBuffer) clearOld(frame, window int) {
	kept := mb.entries[:0]
	for _, e := range mb.entries {
		if e.Frame <= frame && frame-e.Frame < window {
			kept = append(kept, e)
		}
	}
	mb.entries = kept
}

func (mb *MoveBuffer) ClearAll() {
	mb.entries = nil
	mb.activation = nil
}

func (mb *MoveBuffer) Len() int {
	return len(mb.entries)
}

func (mb *MoveBuffer) clone() MoveBuffer {
	c := MoveBuffer{entries: slices.Clone(mb.entries)}
	if mb.activation != nil {
		a := *mb.activation
		c.activation = &a
	}
	return c
}

type candidate struct {
	stored int
	id     ActionId
	action *Action
}

// candidates are the buffered moves whose requirements pass right now.
func (mb *MoveBuffer) candidates(c *Character, s *Situation) []candidate {
	var out []candidate
	for _, e := range mb.entries {
		a, ok := c.Moves[e.Id]
		if !ok {
			continue
		}
		if a.Requirement.Check(s, e.Id) {
			out = append(out, candidate{stored: e.Frame, id: e.Id, action: a})
		}
	}
	return out
}

// best prefers the most specific input, then the greatest id. Among the
// same id the most recent buffer entry wins.
func best(cands []candidate, parser *InputParser) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	top := cands[0]
	for _, c := range cands[1:] {
		ct, cc := parser.Complexity(top.id), parser.Complexity(c.id)
		switch {
		case cc > ct, cc == ct && c.id > top.id, c.id == top.id && c.stored > top.stored:
			top = c
		}
	}
	return top, true
}

func (m *Match) manageBuffer(p *Player) {
	p.buffer.clearOld(m.frame, m.cfg.Input.BufferFrames)
	p.buffer.add(p.parser.DrainEvents(), m.frame)
}

// resolveActivation picks at most one action to start this frame. A scripted
// continuation beats a raw start or link, which beats a cancel.
func (m *Match) resolveActivation(p *Player) {
	if m.continuation(p) {
		return
	}
	if _, free := p.state.FreeSince(); free {
		m.plainStart(p)
		return
	}
	m.cancelStart(p)
}

func (m *Match) continuation(p *Player) bool {
	starts := p.state.DrainMatchingEvents(func(ev *ActionEvent) bool {
		return ev.Kind == EvStartAction
	})
	switch len(starts) {
	case 0:
		return false
	case 1:
		p.buffer.activation = &MoveActivation{
			Kind:  ActivationContinuation,
			Id:    starts[0].Action,
			Start: m.frame,
		}
		return true
	}
	ids := make([]ActionId, len(starts))
	for i, ev := range starts {
		ids[i] = ev.Action
	}
	logger.Errorw("conflicting continuations", "player", p.slot, "frame", m.frame, "ids", ids)
	p.impulse(mgl32.Vec2{-m.cfg.Combat.ThrowClashPushback, 0})
	m.notify(p.slot, "Twin starters")
	return true
}

func (m *Match) plainStart(p *Player) {
	freedom, _ := p.state.FreeSince()
	top, ok := best(p.buffer.candidates(p.char, p.situation(m.frame)), p.parser)
	if !ok {
		return
	}
	act := &MoveActivation{Kind: ActivationRaw, Id: top.id, Start: m.frame}
	delta := top.stored - freedom
	if absI(delta) < m.cfg.Input.BufferFrames {
		act.Kind = ActivationLink
		act.Start = freedom
		act.Precision = linkPrecision(delta, m.cfg.Combat)
		act.Message = linkMessage(act.Precision, delta)
	}
	p.buffer.activation = act
}

func (m *Match) cancelStart(p *Player) {
	if !p.state.ActionInProgress() {
		return
	}
	var able []candidate
	for _, c := range p.buffer.candidates(p.char, p.situation(m.frame)) {
		if p.state.CancellableInto(m.frame, c.action.Category, c.id) {
			able = append(able, c)
		}
	}
	top, ok := best(able, p.parser)
	if !ok {
		return
	}
	since, _ := p.state.CancellableSince(m.frame, top.action.Category, top.id)
	p.buffer.activation = &MoveActivation{
		Kind:    ActivationCancel,
		Id:      top.id,
		Start:   m.frame,
		Message: cancelMessage(top.stored, since),
	}
}

// activateMove starts the chosen action. A link starts in the past, so the
// frames between its start and now are caught up at once.
func (m *Match) activateMove(p *Player) {
	act := p.buffer.activation
	if act == nil {
		return
	}
	p.buffer.ClearAll()

	a, ok := p.char.Moves[act.Id]
	if !ok {
		logger.Errorw("activated action is not in the moveset", "player", p.slot, "action", act.Id)
		return
	}
	if _, otg := p.state.OtgSince(); otg {
		return
	}

	switch act.Kind {
	case ActivationLink:
		if p.combo.Ongoing() {
			p.gauges[GaugeMeter].Gain(act.Precision.meterGain(m.cfg.Combat))
			m.notify(p.slot, act.Message)
		}
		m.stats.link(p.slot, act.Precision)
	case ActivationCancel:
		if p.combo.Ongoing() {
			m.notify(p.slot, act.Message)
		}
	}
	logger.Debugw("action started", "player", p.slot, "action", act.Id,
		"kind", act.Kind, "start", act.Start, "frame", m.frame)

	if a.Transient {
		tr := newActionTracker(act.Id, m.frame, false)
		s := p.situation(m.frame)
		s.Tracker = tr
		p.state.AddEvents(a.Script(s), m.frame)
		return
	}

	tr := newActionTracker(act.Id, act.Start, act.Kind == ActivationCancel)
	p.state.StartAction(tr)
	p.spawner.DespawnOnNewAction()
	for f := act.Start; f < m.frame; f++ {
		p.state.AddEvents(a.Script(p.situation(f)), m.frame)
	}
}

// advanceAction runs the current action's script for this frame.
func (m *Match) advanceAction(p *Player) {
	tr := p.state.Tracker()
	if tr == nil {
		return
	}
	a, ok := p.char.Moves[tr.Id]
	if !ok {
		logger.Errorw("ongoing action is not in the moveset", "player", p.slot, "action", tr.Id)
		p.state.Recover(m.frame)
		return
	}
	p.state.AddEvents(a.Script(p.situation(m.frame)), m.frame)
}
