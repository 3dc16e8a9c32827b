package main

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

const framesPerSecond = 60

const (
	groundFriction = 0.03
	groundDrag     = 0.3
	// Frames without holding back or down before the charge is lost
	chargeClearFrames = 20
	snapDistance      = 0.6
)

type Notification struct {
	Frame   int
	Player  int
	Message string
}

// PresentationEvent is intent for the renderer. Player -1 is the stage.
type PresentationEvent struct {
	Player int
	ActionEvent
}

// FrameResult is everything a frame produced for the outside world.
type FrameResult struct {
	Frame         int
	Notifications []Notification
	Presentation  []PresentationEvent
	Connections   []ConnectionType
}

// Match is the whole simulation. Step is a pure function of the current
// state and the inputs, which is what rollback relies on.
type Match struct {
	cfg     *Config
	frame   int
	players [2]*Player
	bp      *broadPhase
	stats   *MatchStats
	result  FrameResult
}

func NewMatch(cfg *Config, chars [2]*Character) (*Match, error) {
	m := &Match{
		cfg:   cfg,
		bp:    newBroadPhase(cfg.Stage),
		stats: newMatchStats(chars[0].Name, chars[1].Name),
	}
	for i, c := range chars {
		if c == nil {
			return nil, errors.Errorf("player %d has no character", i+1)
		}
		p, err := newPlayer(i, c, cfg.Input)
		if err != nil {
			return nil, err
		}
		m.players[i] = p
	}
	m.Reset()
	return m, nil
}

// Reset puts both players back in their corners for a new round.
func (m *Match) Reset() {
	half := m.cfg.Stage.SpawnDistance / 2
	for i, p := range m.players {
		p.state.Reset()
		p.buffer.ClearAll()
		p.parser.Reset()
		p.spawner.Clear()
		p.combo.End()
		p.streak.Reset()
		p.gauges = newGauges(p.stats(), p.char.Gauges)
		p.movements, p.expanded = nil, nil
		p.velocity = mgl32.Vec2{}
		p.lastInput = 0
		p.facing = Facing(i)
		p.position = mgl32.Vec2{-p.facing.Sign() * half, m.cfg.Stage.GroundY}
	}
	m.frame = 0
}

func (m *Match) Frame() int { return m.frame }

func (m *Match) notify(slot int, msg string) {
	m.result.Notifications = append(m.result.Notifications, Notification{Frame: m.frame, Player: slot, Message: msg})
	logger.Debugw("notification", "frame", m.frame, "player", slot, "msg", msg)
}

func (m *Match) present(slot int, events ...ActionEvent) {
	for _, ev := range events {
		m.result.Presentation = append(m.result.Presentation, PresentationEvent{Player: slot, ActionEvent: ev})
	}
}

func (m *Match) opponent(p *Player) *Player {
	return m.players[1-p.slot]
}

// Step advances the match by one frame.
func (m *Match) Step(inputs [2]InputBits) FrameResult {
	m.frame++
	m.result = FrameResult{Frame: m.frame}

	for _, p := range m.players {
		p.parser.AddFrame(inputs[p.slot].Diff(p.lastInput), p.facing, m.frame)
		p.lastInput = inputs[p.slot]
		m.manageBuffer(p)
	}
	for _, p := range m.players {
		m.resolveActivation(p)
		m.activateMove(p)
		m.advanceAction(p)
	}
	for _, p := range m.players {
		m.processEvents(p)
	}

	m.physics()
	for _, p := range m.players {
		p.spawner.Update(p.position, m.cfg.Stage)
		p.spawner.DespawnExpired(m.frame)
	}

	placed := m.fillBroadPhase(m.frame)
	m.ClashParry(m.frame, placed)
	m.ApplyConnections(m.frame, m.DetectHits(m.frame, placed))
	for _, p := range m.players {
		p.spawner.DespawnExhausted()
	}

	m.recover()
	for _, p := range m.players {
		p.streak.Timeout(m.frame, m.cfg.Combat.StreakResetFrames)
		// Stun from this frame's hits is still queued on the defender
		opp := m.opponent(p)
		if p.combo.Ongoing() && !opp.state.IsStunned() && opp.state.PendingEvents() == 0 {
			m.stats.comboEnded(p.slot, p.combo)
			p.combo.End()
		}
	}
	return m.result
}

// processEvents consumes every queued event except StartAction, which is
// left for next frame's activation.
func (m *Match) processEvents(p *Player) {
	events := p.state.DrainMatchingEvents(func(ev *ActionEvent) bool {
		return ev.Kind != EvStartAction
	})
	for _, ev := range events {
		if ev.presentation() {
			m.present(p.slot, ev)
			continue
		}
		m.handleEvent(p, ev)
	}
}

func (m *Match) handleEvent(p *Player, ev ActionEvent) {
	frame := m.frame
	switch ev.Kind {
	case EvNoop:
	case EvMovement:
		p.move(ev.Movement, frame)
	case EvTeleport:
		p.position = p.position.Add(p.facing.MirrorVec(ev.Vec))
	case EvSnapToOpponent:
		opp := m.opponent(p)
		side := opp.facing.Sign()
		if ev.SideSwitch {
			side = -side
		}
		p.position = mgl32.Vec2{opp.position[0] + side*snapDistance, opp.position[1]}
		p.facing = FacingRight
		if side > 0 {
			p.facing = FacingLeft
		}
	case EvSideSwitch:
		opp := m.opponent(p)
		p.position[0] = 2*opp.position[0] - p.position[0]
		p.facing = p.facing.Opposite()
	case EvModifyResource:
		if g := p.gauges.Get(ev.Gauge); g != nil {
			g.Gain(ev.Amount)
		} else {
			logger.Errorw("resource the character does not have", "player", p.slot, "gauge", ev.Gauge)
		}
	case EvClearResource:
		if g := p.gauges.Get(ev.Gauge); g != nil {
			g.Clear()
		}
	case EvForceStand:
		p.state.ForceStand()
	case EvSpawnHitbox:
		p.spawner.Spawn(ev.Attack, frame, p.position, p.facing)
	case EvAllowCancel:
		p.state.OpenCancelWindow(ev.Cancel, frame)
	case EvExpandHurtbox:
		p.expanded = append(p.expanded, expandedHurtbox{Area: ev.Area, Until: frame + ev.Frames})
	case EvHitStun:
		p.state.HitStun(frame + ev.Frames)
	case EvBlockStun:
		p.state.BlockStun(frame + ev.Frames)
	case EvLaunchStun:
		p.state.Launch()
		p.impulse(ev.Vec)
	case EvCondition:
		p.state.AddCondition(ev.Condition, frame)
	case EvClearCondition:
		p.state.ClearCondition(ev.Flag)
	case EvConsumeItem:
		if it, ok := p.char.Items[ev.Item]; ok && it.Consumable {
			p.inventory.Remove(ev.Item)
		}
	case EvLock:
		p.state.AddCondition(StatusCondition{Flag: StatusMovementLock, Expiration: ev.Frames}, frame)
	case EvEnd:
		// Repeated ends after the action is gone are expected
		if p.state.ActionInProgress() {
			p.state.Recover(frame)
		}
	default:
		logger.Errorw("unhandled event", "player", p.slot, "event", ev.String())
	}
}

// physics moves both players and keeps them apart and inside the stage.
func (m *Match) physics() {
	for _, p := range m.players {
		m.stance(p)
		m.integrate(p)
		m.charge(p)
	}
	m.separate()
	for _, p := range m.players {
		opp := m.opponent(p)
		if p.state.IsGrounded() && !p.state.ActionInProgress() && !p.state.IsStunned() &&
			p.position[0] != opp.position[0] {
			if opp.position[0] > p.position[0] {
				p.facing = FacingRight
			} else {
				p.facing = FacingLeft
			}
		}
	}
}

// stance follows the absolute stick when the player is free on the ground.
func (m *Match) stance(p *Player) {
	if !p.state.IsGrounded() || p.state.ActionInProgress() || p.state.IsStunned() {
		return
	}
	switch p.parser.AbsoluteStick() {
	case StickW:
		p.state.Stand()
		p.state.Walk(FacingLeft)
	case StickE:
		p.state.Stand()
		p.state.Walk(FacingRight)
	case StickSW, StickS, StickSE:
		p.state.Crouch()
	default:
		p.state.StopWalking()
		p.state.Stand()
	}
}

func (m *Match) integrate(p *Player) {
	frame, st := m.frame, p.stats()
	if p.state.HasFlag(StatusMovementLock) {
		p.velocity = mgl32.Vec2{}
		p.movements = nil
		return
	}
	for _, mv := range p.movements {
		p.velocity = p.velocity.Add(mv.PerFrame)
	}
	p.expireMovements(frame)

	if dir, walking := p.state.WalkDirection(); walking {
		speed := st.WalkSpeed
		if dir != p.facing {
			speed *= st.BackWalkSpeedMult
		}
		p.velocity[0] = dir.Sign() * speed
	} else if p.state.IsGrounded() {
		speed := absF32(p.velocity[0])*(1-groundFriction) - groundDrag
		if speed < 0 {
			speed = 0
		}
		if p.velocity[0] < 0 {
			speed = -speed
		}
		p.velocity[0] = speed
	}
	if !p.state.IsGrounded() {
		p.velocity[1] -= st.Gravity
	}

	p.position = p.position.Add(p.velocity.Mul(1.0 / framesPerSecond))
	ground := m.cfg.Stage.GroundY
	switch {
	case p.position[1] <= ground && !p.state.IsGrounded() && p.velocity[1] <= 0:
		p.position[1] = ground
		p.velocity[1] = 0
		p.spawner.DespawnOnLanding()
		p.state.Land(frame)
	case p.position[1] <= ground:
		p.position[1] = ground
		p.velocity[1] = maxF32(p.velocity[1], 0)
	case p.state.IsGrounded():
		p.state.Jump()
	}
}

// Holding back or down builds charge, letting go loses it after a while.
func (m *Match) charge(p *Player) {
	g := p.gauges.Get(GaugeCharge)
	if g == nil {
		return
	}
	switch p.parser.StickPosition() {
	case StickSW, StickS, StickW:
		g.Gain(1)
		g.LastUpdate = m.frame
	default:
		if m.frame-g.LastUpdate > chargeClearFrames {
			g.Clear()
		}
	}
}

// separate resolves pushbox overlap by moving both players half the way,
// then clamps them to the walls.
func (m *Match) separate() {
	left, right := m.players[0], m.players[1]
	if right.position[0] < left.position[0] {
		left, right = right, left
	}
	if overlap, ok := left.pushbox().Intersection(right.pushbox()); ok {
		shift := overlap.Width / 2
		left.position[0] -= shift
		right.position[0] += shift
	}
	wall := m.cfg.Stage.Width / 2
	for _, p := range m.players {
		p.position[0] = maxF32(-wall, minF32(wall, p.position[0]))
	}
}

// recover ends stun and knockdown, and expires timed state.
func (m *Match) recover() {
	for _, p := range m.players {
		if until, ok := p.state.UnstunFrame(); ok && until <= m.frame {
			p.state.Recover(m.frame)
		}
		if since, ok := p.state.OtgSince(); ok && since+m.cfg.Combat.QuickRiseFrames <= m.frame {
			p.state.Recover(m.frame)
		}
		p.state.ExpireConditions(m.frame)
		p.expireHurtboxes(m.frame)
	}
}

// MatchSnapshot is a deep copy of everything Step mutates.
type MatchSnapshot struct {
	frame   int
	players [2]*Player
	stats   *MatchStats
}

func (m *Match) Snapshot() MatchSnapshot {
	s := MatchSnapshot{frame: m.frame, stats: m.stats.clone()}
	for i, p := range m.players {
		s.players[i] = p.clone()
	}
	return s
}

// Restore copies again, so one snapshot can be restored any number of times.
func (m *Match) Restore(s MatchSnapshot) {
	m.frame = s.frame
	m.stats = s.stats.clone()
	for i, p := range s.players {
		m.players[i] = p.clone()
	}
}

// Checksum hashes the gameplay relevant state.
func (m *Match) Checksum() uint32 {
	h := fnv.New32a()
	var buf [4]byte
	w := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}
	wi := func(v int) { w(uint32(int32(v))) }
	wf := func(v float32) { w(math.Float32bits(v)) }
	wb := func(v bool) { wi(Btoi(v)) }
	ws := func(s string) {
		wi(len(s))
		h.Write([]byte(s))
	}

	wi(m.frame)
	for _, p := range m.players {
		wf(p.position[0])
		wf(p.position[1])
		wf(p.velocity[0])
		wf(p.velocity[1])
		wi(int(p.facing))
		wi(int(p.lastInput))
		for _, g := range p.gauges {
			wi(g.Current)
			wi(g.LastUpdate)
		}
		for _, it := range p.inventory.Items {
			ws(string(it.Id))
			wi(it.Count)
		}
		ps := &p.state
		wi(int(ps.main))
		wi(int(ps.sub))
		wi(ps.until)
		wi(ps.freeSince)
		wb(ps.free)
		if tr := ps.tracker; tr != nil {
			ws(string(tr.Id))
			wi(tr.StartFrame)
			wi(tr.Hits)
			wi(len(tr.CancelWindows))
		}
		for _, c := range ps.conditions {
			wi(int(c.Flag))
			wi(c.Expiration)
		}
		wi(len(ps.unprocessed))
		for _, e := range p.buffer.entries {
			ws(string(e.Id))
			wi(e.Frame)
		}
		wi(p.combo.Hits)
		wb(p.combo.Ongoing())
		wi(p.streak.Streak)
		for _, hb := range p.spawner.Boxes() {
			wi(hb.Id)
			wf(hb.Position[0])
			wf(hb.Position[1])
			wi(hb.Tracker.Hits)
		}
		wi(len(p.expanded))
		wi(len(p.movements))
	}
	return h.Sum32()
}

// Players returns a copy of both players' public state, in slot order.
func (m *Match) Players() [2]PlayerView {
	var out [2]PlayerView
	for i, p := range m.players {
		out[i] = PlayerView{
			Position:  p.position,
			Facing:    p.facing,
			State:     p.state.String(),
			Health:    p.gauges[GaugeHealth].Current,
			Meter:     p.gauges[GaugeMeter].Current,
			Hitboxes:  p.spawner.Len(),
			Combo:     p.combo.Hits,
			Inventory: slices.Clone(p.inventory.Items),
		}
	}
	return out
}

type PlayerView struct {
	Position  mgl32.Vec2
	Facing    Facing
	State     string
	Health    int
	Meter     int
	Hitboxes  int
	Combo     int
	Inventory []ItemStack
}
