package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/solarlune/resolv"
	"golang.org/x/exp/slices"
)

type ConnectionType uint8

const (
	ConnStrike ConnectionType = iota
	ConnBlock
	ConnParry
	ConnThrow
	ConnTech
	ConnStunlock
)

var connectionNames = [...]string{"Strike", "Block", "Parry", "Throw", "Tech", "Stunlock"}

func (ct ConnectionType) String() string {
	return connectionNames[ct]
}

// AttackConnection is a hitbox that found its way to the opponent's body.
type AttackConnection struct {
	Kind     ConnectionType
	Attacker int
	Defender int
	Hitbox   *Hitbox
	Overlap  Area
}

type placedHitbox struct {
	hb  *Hitbox
	obj *resolv.Object
}

// fillBroadPhase puts every live box into the grid and returns the
// hitboxes in id order.
func (m *Match) fillBroadPhase(frame int) []placedHitbox {
	m.bp.Reset()
	var placed []placedHitbox
	for _, p := range m.players {
		for _, hb := range p.spawner.Boxes() {
			placed = append(placed, placedHitbox{hb: hb, obj: m.bp.AddHitbox(hb)})
		}
		for i, a := range p.hurtboxes(frame) {
			m.bp.AddHurtbox(hurtboxRef{slot: p.slot, index: i, area: a})
		}
	}
	slices.SortFunc(placed, func(a, b placedHitbox) bool { return a.hb.Id < b.hb.Id })
	return placed
}

// ClashParry makes opposing strikes that touch cancel each other out.
func (m *Match) ClashParry(frame int, placed []placedHitbox) {
	between := m.cfg.Combat.FramesBetweenHits
	for _, a := range placed {
		for _, b := range m.bp.nearbyHitboxes(a.obj) {
			if b.Id <= a.hb.Id || a.hb.Owner == b.Owner {
				continue
			}
			if !a.hb.Tracker.Active(frame, between) || !b.Tracker.Active(frame, between) {
				continue
			}
			if a.hb.Attack.Grab() || b.Attack.Grab() {
				continue
			}
			overlap, ok := a.hb.Area().Intersection(b.Area())
			if !ok {
				continue
			}
			m.present(-1, Sound("clash"), Vfx("clash"))
			for _, hb := range [...]*Hitbox{a.hb, b} {
				if !hb.Projectile() {
					m.players[hb.Owner].gauges[GaugeMeter].Gain(m.cfg.Combat.ClashMeterGain)
				}
				hb.Tracker.RegisterHit(frame)
			}
			m.stats.clash()
			logger.Debugw("clash", "frame", frame, "a", a.hb.Id, "b", b.Id, "at", overlap.Center())
		}
	}
}

// DetectHits finds every active hitbox touching the opponent and decides
// what kind of contact it is.
func (m *Match) DetectHits(frame int, placed []placedHitbox) []AttackConnection {
	var out []AttackConnection
	for _, ph := range placed {
		hb := ph.hb
		if !hb.Tracker.Active(frame, m.cfg.Combat.FramesBetweenHits) {
			continue
		}
		att, def := m.players[hb.Owner], m.players[1-hb.Owner]

		overlap, found := Area{}, false
		for _, ref := range m.bp.nearbyHurtboxes(ph.obj, def.slot) {
			if overlap, found = hb.Area().Intersection(ref.area); found {
				break
			}
		}
		if !found {
			continue
		}

		if def.state.IsIntangible() {
			if !hb.Tracker.HitIntangible {
				hb.Tracker.HitIntangible = true
				m.notify(def.slot, "Intangible")
			}
			continue
		}
		hb.Tracker.RegisterHit(frame)

		kind, reason := m.classify(att, def, hb)
		if reason != "" {
			m.notify(def.slot, "Avoid - "+reason)
		}
		if hb.Tracker.HitIntangible {
			m.notify(att.slot, "Meaty!")
		}
		out = append(out, AttackConnection{
			Kind:     kind,
			Attacker: att.slot,
			Defender: def.slot,
			Hitbox:   hb,
			Overlap:  overlap,
		})
	}
	return out
}

func (m *Match) classify(att, def *Player, hb *Hitbox) (ConnectionType, string) {
	if hb.Attack.Grab() {
		switch {
		case att.combo.Ongoing():
			return ConnStunlock, "Can't grab from stun"
		case def.parser.HeadIsClear() && def.state.CanBlock() && !def.state.ActionInProgress():
			return ConnTech, "Teched"
		}
		return ConnThrow, ""
	}
	if def.state.HasFlag(StatusParry) && def.state.IsGrounded() {
		return ConnParry, "Parry!"
	}
	low := def.position[1] + def.char.LowBlockHeight
	high := def.position[1] + def.char.HighBlockHeight
	height := hb.Attack.Block.HeightAgainst(hb.Area(), low, high)
	blocked, reason := guards(height, def.parser.StickPosition())
	if blocked && def.state.CanBlock() {
		return ConnBlock, reason
	}
	return ConnStrike, ""
}

// guards checks a facing relative stick against the attack height. Back
// guards high, down back guards low, mids are blocked by either.
func guards(height AttackHeight, stick StickPosition) (bool, string) {
	high, low := stick == StickW, stick == StickSW
	if !high && !low {
		return false, "Not blocking"
	}
	switch {
	case height == HeightMid, height == HeightLow && low, height == HeightHigh && high:
		return true, "Blocked!"
	}
	return false, "Hit " + height.String()
}

func (m *Match) hitstopFor(kind ConnectionType) int {
	switch kind {
	case ConnBlock:
		return m.cfg.Combat.OnBlockHitstop
	case ConnThrow, ConnTech:
		return m.cfg.Combat.OnThrowHitstop
	}
	return m.cfg.Combat.OnHitHitstop
}

// ApplyConnections turns connections into events. Everything is queued, the
// players act on it next frame.
func (m *Match) ApplyConnections(frame int, hits []AttackConnection) {
	cc := m.cfg.Combat
	if len(hits) >= 2 {
		throws := 0
		for _, h := range hits {
			if h.Kind == ConnThrow {
				throws++
			}
		}
		switch {
		case throws == len(hits):
			// Two grabs can't connect on the same frame
			for _, p := range m.players {
				p.impulse(mgl32.Vec2{-cc.ThrowClashPushback, 0})
				m.notify(p.slot, "Throw clash")
			}
			m.present(-1, Vfx("clash"))
			m.stats.throwClash()
			return
		case throws > 0:
			// Grab beats strike
			kept := hits[:0]
			for _, h := range hits {
				if h.Kind == ConnThrow {
					kept = append(kept, h)
				}
			}
			hits = kept
		}
	}

	for _, hit := range hits {
		att, def := m.players[hit.Attacker], m.players[hit.Defender]
		m.stats.connection(att.slot, hit.Kind)
		m.result.Connections = append(m.result.Connections, hit.Kind)

		avoided := true
		switch hit.Kind {
		case ConnStrike:
			att.state.RegisterHit()
			avoided = false
		case ConnThrow:
			att.state.RegisterHit()
			def.state.Throw()
			avoided = false
		case ConnBlock:
			att.state.RegisterHit()
			if dm := def.stats().DefenseMeter; dm != 0 {
				def.gauges[GaugeMeter].Gain(dm)
			}
			m.rewardDefense(def, frame)
		case ConnTech:
			m.rewardDefense(def, frame)
		case ConnStunlock:
		case ConnParry:
			m.present(def.slot, CameraShake(), Sound("clash"), Vfx("clash"))
			def.state.AddEvents([]ActionEvent{ModifyResource(GaugeMeter, cc.ParryMeterGain)}, frame)
			def.state.RegisterHit()
			continue
		}

		attStats := att.stats()
		eff := hit.Hitbox.Attack.OnHit(att.situation(frame), HitInfo{
			Avoided:       avoided,
			Airborne:      !def.state.IsGrounded(),
			HitboxPos:     hit.Overlap.Center(),
			DefenderStats: def.stats(),
			Hitstop:       m.hitstopFor(hit.Kind),
		})

		if !avoided {
			if att.combo.Ongoing() {
				att.combo.Hits++
			} else {
				att.combo.StartAt(def.gauges[GaugeHealth].Current)
				m.present(att.slot, Sound("opener"))
				m.notify(att.slot, "Opener!")
				m.stats.opener(att.slot)
				if attStats.OpenerDamageMultiplier > 1 {
					eff.Attacker = openerEvents(eff.Attacker, attStats)
					eff.Attacker = append(eff.Attacker, ModifyResource(GaugeMeter, attStats.OpenerMeterGain))
					eff.Defender = openerEvents(eff.Defender, attStats)
				}
			}
			def.streak.Reset()
			if di := def.stats().DirectInfluence; di > 0 {
				def.velocity = def.velocity.Add(def.parser.AbsoluteStick().Vec2().Mul(di))
			}
		}
		eff.Defender = scaleDamage(eff.Defender, attStats.DamageMultiplier)

		att.state.AddEvents(eff.Attacker, frame)
		def.state.AddEvents(eff.Defender, frame)
		def.spawner.DespawnOnHit()
		if hit.Hitbox.Attack.DespawnOnAnyContact {
			att.spawner.Despawn(hit.Hitbox.Id)
		}
		logger.Debugw("connection", "frame", frame, "kind", hit.Kind,
			"attacker", att.slot, "hitbox", hit.Hitbox.Id, "avoided", avoided)
	}
}

func (m *Match) rewardDefense(def *Player, frame int) {
	def.streak.Bump(frame)
	if r := def.streak.Reward(m.cfg.Combat); r > 0 {
		def.gauges[GaugeMeter].Gain(r)
		m.notify(def.slot, "Defense streak!")
	}
}

func openerEvents(events []ActionEvent, st Stats) []ActionEvent {
	out := make([]ActionEvent, len(events))
	for i, ev := range events {
		switch {
		case ev.Kind == EvModifyResource && ev.Gauge == GaugeHealth:
			ev.Amount = int(float32(ev.Amount) * st.OpenerDamageMultiplier)
		case ev.Kind == EvHitStun:
			ev.Frames += st.OpenerStunFrames
		}
		out[i] = ev
	}
	return out
}

func scaleDamage(events []ActionEvent, multiplier float32) []ActionEvent {
	out := make([]ActionEvent, len(events))
	for i, ev := range events {
		if ev.Kind == EvModifyResource && ev.Gauge == GaugeHealth {
			ev.Amount = int(float32(ev.Amount) * multiplier)
		}
		out[i] = ev
	}
	return out
}
