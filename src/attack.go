package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

type AttackHeight uint8

const (
	HeightLow AttackHeight = iota
	HeightMid
	HeightHigh
)

func (h AttackHeight) String() string {
	switch h {
	case HeightLow:
		return "Low"
	case HeightHigh:
		return "High"
	}
	return "Mid"
}

type BlockKind uint8

const (
	BlockDynamic BlockKind = iota
	BlockStrike
	BlockGrab
)

type BlockType struct {
	Kind   BlockKind
	Height AttackHeight
}

func strikeAt(h AttackHeight) BlockType { return BlockType{Kind: BlockStrike, Height: h} }
func grab() BlockType                   { return BlockType{Kind: BlockGrab} }

// HeightAgainst resolves the attack height. Dynamic heights compare the
// hitbox against the defender's block thresholds.
func (bt BlockType) HeightAgainst(hitbox Area, low, high float32) AttackHeight {
	if bt.Kind == BlockStrike {
		return bt.Height
	}
	switch {
	case hitbox.Bottom() > high:
		return HeightHigh
	case hitbox.Top() > low:
		return HeightMid
	}
	return HeightLow
}

// Lifetime decides when a spawned hitbox goes away. Frames counts from the
// spawn frame unless Forever is set.
type Lifetime struct {
	Frames           int
	Forever          bool
	DespawnOnHit     bool
	DespawnOnLanding bool
}

func framesLifetime(frames int) Lifetime {
	return Lifetime{Frames: frames, DespawnOnHit: true, DespawnOnLanding: true}
}

func eternalLifetime() Lifetime {
	return Lifetime{Forever: true}
}

func untilOwnerHit() Lifetime {
	return Lifetime{Forever: true, DespawnOnHit: true}
}

func (l Lifetime) valid() bool {
	return l.Forever || l.Frames > 0
}

type ToHit struct {
	Block      BlockType
	Hitbox     Area
	Lifetime   Lifetime
	Velocity   mgl32.Vec2
	Gravity    float32
	Projectile bool
	Hits       int
	// Resolving against anything, blocked or teched included, removes the box
	DespawnOnAnyContact bool
}

type HitInfo struct {
	Avoided       bool
	Airborne      bool
	HitboxPos     mgl32.Vec2
	DefenderStats Stats
	Hitstop       int
}

type HitEffect struct {
	Attacker []ActionEvent
	Defender []ActionEvent
}

type OnHitEffect func(s *Situation, hi HitInfo) HitEffect

type Attack struct {
	ToHit
	OnHit OnHitEffect
}

func (a *Attack) Grab() bool {
	return a.Block.Kind == BlockGrab
}

type Stun struct {
	Frames int
	// Relative stun is frame advantage over the attack's recovery
	Relative bool
}

func (st Stun) resolve(recovery int) int {
	if st.Relative {
		return maxI(recovery+st.Frames, 0)
	}
	return st.Frames
}

type hitStunKind uint8

const (
	hitStunFrames hitStunKind = iota
	hitStunLaunch
	hitStunKnockdown
)

// StrikeEffect holds the knobs of a regular strike's on hit closure.
type StrikeEffect struct {
	Damage           int
	ChipDamage       int
	SharpnessScaling int
	Height           AttackHeight
	HitStun          Stun
	BlockStun        Stun
	stunKind         hitStunKind
	launch           mgl32.Vec2
	AttackerPushHit  float32
	DefenderPushHit  float32
	AttackerPushBlk  float32
	DefenderPushBlk  float32
	Cancel           *CancelType
	CancelDuration   int
	ExtraOnHit       []ActionEvent
	DynamicOnHit     Script
}

func defaultStrike() StrikeEffect {
	se := StrikeEffect{
		Damage:     5,
		ChipDamage: 1,
		Height:     HeightMid,
		HitStun:    Stun{Frames: 15},
		BlockStun:  Stun{Frames: 10},
	}
	ct := specialCancel()
	se.Cancel = &ct
	se.distanceOnHit(0.7)
	se.distanceOnBlock(1.2)
	return se
}

func (se *StrikeEffect) distanceOnHit(d float32) {
	se.AttackerPushHit, se.DefenderPushHit = 0.3*d, 0.7*d
}

func (se *StrikeEffect) distanceOnBlock(d float32) {
	se.AttackerPushBlk, se.DefenderPushBlk = 0.3*d, 0.7*d
}

func (se StrikeEffect) build(recovery int) OnHitEffect {
	return func(s *Situation, hi HitInfo) HitEffect {
		cancel := Noop()
		if se.Cancel != nil {
			d := se.CancelDuration
			if d == 0 {
				d = recovery
			}
			cancel = Condition(StatusCondition{Flag: StatusCancel, Expiration: d, Cancel: *se.Cancel})
		}
		if hi.Avoided {
			chip := Noop()
			if hi.DefenderStats.ChipDamage && se.ChipDamage > 0 {
				chip = ModifyResource(GaugeHealth, -se.ChipDamage)
			}
			return HitEffect{
				Attacker: []ActionEvent{
					cancel,
					Move(impulse(-se.AttackerPushBlk, 0)),
					CameraTilt(mgl32.Vec2{-0.01, 0}),
					Hitstop(hi.Hitstop),
					Sound("block"),
				},
				Defender: []ActionEvent{
					chip,
					BlockStun(se.BlockStun.resolve(recovery)),
					Move(impulse(-se.DefenderPushBlk, 0)),
					Hitstop(hi.Hitstop),
				},
			}
		}

		damage := se.Damage
		if g := s.Gauge(GaugeSharpness); g != nil {
			damage += se.SharpnessScaling * g.Current
		}
		var stun ActionEvent
		switch se.stunKind {
		case hitStunLaunch:
			stun = LaunchStun(se.launch)
		case hitStunKnockdown:
			stun = LaunchStun(mgl32.Vec2{})
		default:
			stun = HitStun(se.HitStun.resolve(recovery))
		}
		spark := Vfx("hit")
		if !s.Combo.Ongoing() {
			spark = Vfx("opener_" + se.Height.String())
		}
		eff := HitEffect{
			Attacker: []ActionEvent{
				cancel,
				Move(impulse(-se.AttackerPushHit, 0)),
				CameraTilt(mgl32.Vec2{0.02, 0}),
				CameraShake(),
				Hitstop(hi.Hitstop),
				Sound("hit"),
				spark,
			},
			Defender: []ActionEvent{
				ModifyResource(GaugeHealth, -damage),
				stun,
				Move(impulse(-se.DefenderPushHit, 0)),
				Hitstop(hi.Hitstop),
			},
		}
		eff.Defender = append(eff.Defender, se.ExtraOnHit...)
		if se.DynamicOnHit != nil {
			eff.Attacker = append(eff.Attacker, se.DynamicOnHit(s)...)
		}
		return eff
	}
}

// ThrowEffect sends both players into their throw follow ups, or pushes
// them apart when the throw was teched.
type ThrowEffect struct {
	OnHitAction  ActionId
	TargetAction ActionId
	SideSwitch   bool
}

func (te ThrowEffect) build() OnHitEffect {
	return func(s *Situation, hi HitInfo) HitEffect {
		if hi.Avoided {
			return HitEffect{
				Attacker: []ActionEvent{
					Sound("tech"),
					Move(impulse(-2, 0)),
					Vfx("tech_ring"),
				},
				Defender: []ActionEvent{Move(impulse(-2, 0))},
			}
		}
		return HitEffect{
			Attacker: []ActionEvent{
				StartAction(te.OnHitAction),
				Sound("throw"),
			},
			Defender: []ActionEvent{
				SnapToOpponent(te.SideSwitch),
				StartAction(te.TargetAction),
			},
		}
	}
}

// HitBuilder assembles one hitbox spawn of an attack.
type HitBuilder struct {
	hitbox        Area
	lifetime      Lifetime
	hits          int
	velocity      mgl32.Vec2
	gravity       float32
	projectile    bool
	anyContact    bool
	expandHurtbox int
	strike        *StrikeEffect
	throw         *ThrowEffect
	additional    []ActionEvent
}

func NewHitBuilder() *HitBuilder {
	se := defaultStrike()
	return &HitBuilder{hits: 1, expandHurtbox: 5, strike: &se}
}

// Specials chip harder and may only be cancelled into supers.
func SpecialHit() *HitBuilder {
	hb := NewHitBuilder()
	hb.strike.ChipDamage = 2
	ct := superCancel()
	hb.strike.Cancel = &ct
	return hb
}

func ThrowHit(onHit, target ActionId, sideSwitch bool) *HitBuilder {
	return &HitBuilder{
		hits:  1,
		throw: &ThrowEffect{OnHitAction: onHit, TargetAction: target, SideSwitch: sideSwitch},
	}
}

func (hb *HitBuilder) Hitbox(a Area) *HitBuilder         { hb.hitbox = a; return hb }
func (hb *HitBuilder) ActiveFrames(n int) *HitBuilder    { hb.lifetime = framesLifetime(n); return hb }
func (hb *HitBuilder) Lifetime(l Lifetime) *HitBuilder   { hb.lifetime = l; return hb }
func (hb *HitBuilder) Hits(n int) *HitBuilder            { hb.hits = n; return hb }
func (hb *HitBuilder) Velocity(v mgl32.Vec2) *HitBuilder { hb.velocity = v; return hb }
func (hb *HitBuilder) Gravity(g float32) *HitBuilder     { hb.gravity = g; return hb }
func (hb *HitBuilder) Disjoint() *HitBuilder             { hb.expandHurtbox = 0; return hb }
func (hb *HitBuilder) DespawnOnAnyContact() *HitBuilder  { hb.anyContact = true; return hb }
func (hb *HitBuilder) Events(ev ...ActionEvent) *HitBuilder {
	hb.additional = append(hb.additional, ev...)
	return hb
}

func (hb *HitBuilder) Projectile(velocity mgl32.Vec2, gravity float32) *HitBuilder {
	hb.projectile = true
	hb.velocity = velocity
	hb.gravity = gravity
	hb.expandHurtbox = 0
	return hb
}

func (hb *HitBuilder) withStrike(f func(se *StrikeEffect)) *HitBuilder {
	if hb.strike == nil {
		logger.Errorw("strike property set on a throw")
		return hb
	}
	f(hb.strike)
	return hb
}

func (hb *HitBuilder) Damage(d int) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.Damage = d })
}

func (hb *HitBuilder) Chip(d int) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.ChipDamage = d })
}

func (hb *HitBuilder) HitStun(frames int) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.HitStun = Stun{Frames: frames} })
}

func (hb *HitBuilder) BlockStun(frames int) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.BlockStun = Stun{Frames: frames} })
}

func (hb *HitBuilder) AdvantageOnHit(frames int) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.HitStun = Stun{Frames: frames, Relative: true} })
}

func (hb *HitBuilder) AdvantageOnBlock(frames int) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.BlockStun = Stun{Frames: frames, Relative: true} })
}

func (hb *HitBuilder) Launcher(v mgl32.Vec2) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) {
		se.stunKind = hitStunLaunch
		se.DefenderPushHit = v[0]
		se.launch = mgl32.Vec2{0, v[1]}
	})
}

func (hb *HitBuilder) Knockdown() *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.stunKind = hitStunKnockdown })
}

func (hb *HitBuilder) Height(h AttackHeight) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.Height = h })
}

func (hb *HitBuilder) DistanceOnHit(d float32) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.distanceOnHit(d) })
}

func (hb *HitBuilder) DistanceOnBlock(d float32) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.distanceOnBlock(d) })
}

func (hb *HitBuilder) Sword() *HitBuilder {
	hb.withStrike(func(se *StrikeEffect) {
		se.ChipDamage = 5
		se.SharpnessScaling = 5
	})
	return hb.Disjoint()
}

func (hb *HitBuilder) CancelsTo(ct CancelType, window int) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) {
		se.Cancel = &ct
		se.CancelDuration = window
	})
}

func (hb *HitBuilder) NoCancels() *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.Cancel = nil })
}

func (hb *HitBuilder) OnHitEvents(ev ...ActionEvent) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.ExtraOnHit = append(se.ExtraOnHit, ev...) })
}

func (hb *HitBuilder) DynamicOnHit(f Script) *HitBuilder {
	return hb.withStrike(func(se *StrikeEffect) { se.DynamicOnHit = f })
}

func (hb *HitBuilder) blockType() BlockType {
	if hb.throw != nil {
		return grab()
	}
	return strikeAt(hb.strike.Height)
}

// build produces the events spawning this hit. recovery is the number of
// frames from the spawn to the end of the action.
func (hb *HitBuilder) build(recovery int) ([]ActionEvent, error) {
	if hb.hitbox.Empty() {
		return nil, errors.New("hitbox has no area")
	}
	if !hb.lifetime.valid() {
		return nil, errors.New("hitbox has no active frames")
	}
	if hb.hits <= 0 {
		return nil, errors.Errorf("hitbox with %d hits", hb.hits)
	}
	var onHit OnHitEffect
	if hb.throw != nil {
		if hb.throw.OnHitAction == "" || hb.throw.TargetAction == "" {
			return nil, errors.New("throw without follow up actions")
		}
		onHit = hb.throw.build()
	} else {
		onHit = hb.strike.build(recovery)
	}
	out := append([]ActionEvent(nil), hb.additional...)
	if hb.expandHurtbox > 0 {
		grown := hb.hitbox
		grown.Width += 0.1
		grown.Height += 0.1
		out = append(out, ExpandHurtbox(grown, hb.lifetime.Frames+hb.expandHurtbox))
	}
	out = append(out, SpawnHitbox(Attack{
		ToHit: ToHit{
			Block:               hb.blockType(),
			Hitbox:              hb.hitbox,
			Lifetime:            hb.lifetime,
			Velocity:            hb.velocity,
			Gravity:             hb.gravity,
			Projectile:          hb.projectile,
			Hits:                hb.hits,
			DespawnOnAnyContact: hb.anyContact,
		},
		OnHit: onHit,
	}))
	return out, nil
}

type frameHit struct {
	frame int
	hit   *HitBuilder
}

// AttackBuilder is an ActionBuilder that spawns hitboxes on given frames.
type AttackBuilder struct {
	*ActionBuilder
	hits []frameHit
}

func NewAttackBuilder(category ActionCategory) *AttackBuilder {
	return &AttackBuilder{ActionBuilder: NewActionBuilder(category)}
}

func NormalAttack(b Button) *AttackBuilder {
	return &AttackBuilder{ActionBuilder: ButtonNormal(b)}
}

func SpecialAttack() *AttackBuilder {
	return NewAttackBuilder(CategorySpecial)
}

func (atb *AttackBuilder) HitOnFrame(frame int, hb *HitBuilder) *AttackBuilder {
	if atb.state == stateAir && hb.strike != nil {
		hb.strike.Height = HeightHigh
	}
	atb.hits = append(atb.hits, frameHit{frame: frame, hit: hb})
	return atb
}

// AirOnly also turns every strike into an overhead.
func (atb *AttackBuilder) AirOnly() *AttackBuilder {
	atb.ActionBuilder.AirOnly()
	for _, fh := range atb.hits {
		if fh.hit.strike != nil {
			fh.hit.strike.Height = HeightHigh
		}
	}
	return atb
}

func (atb *AttackBuilder) Build(id ActionId) (Action, error) {
	if len(atb.hits) == 0 {
		return Action{}, errors.Errorf("attack %s has no hits", id)
	}
	for i, fh := range atb.hits {
		evs, err := fh.hit.build(atb.duration - fh.frame)
		if err != nil {
			return Action{}, errors.Wrapf(err, "attack %s hit %d", id, i)
		}
		atb.OnFrame(fh.frame, evs...)
	}
	a, err := atb.ActionBuilder.Build(id)
	if err != nil {
		return a, err
	}
	for _, fh := range atb.hits {
		if te := fh.hit.throw; te != nil {
			a.Targets = append(a.Targets, te.OnHitAction, te.TargetAction)
		}
	}
	return a, nil
}
