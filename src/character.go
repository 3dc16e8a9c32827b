package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Hurtboxes per stance, relative to the player's feet when facing right.
type Hurtboxes struct {
	Stand  []Area
	Crouch []Area
	Air    []Area
}

func (h *Hurtboxes) For(ps *PlayerState) []Area {
	switch {
	case !ps.IsGrounded():
		return h.Air
	case ps.IsCrouching():
		return h.Crouch
	}
	return h.Stand
}

type actionBuilder interface {
	Build(id ActionId) (Action, error)
}

// Character is immutable once built, every player using it shares it.
type Character struct {
	Name      string
	Moves     map[ActionId]*Action
	Items     map[ItemId]Item
	Hurtboxes Hurtboxes

	StandingPushbox  Area
	CrouchingPushbox Area
	AirPushbox       Area

	BaseStats     Stats
	Gauges        map[GaugeType]int
	StartingItems []ItemId

	// Block thresholds above the feet
	LowBlockHeight  float32
	HighBlockHeight float32

	errs []error
}

func newCharacter(name string) *Character {
	standing := newArea(0, 0.9, 0.6, 1.8)
	return &Character{
		Name:  name,
		Moves: make(map[ActionId]*Action),
		Items: make(map[ItemId]Item),
		Hurtboxes: Hurtboxes{
			Stand:  []Area{standing, newArea(0.1, 1.65, 0.35, 0.3)},
			Crouch: []Area{newArea(0, 0.6, 0.7, 1.2)},
			Air:    []Area{newArea(0, 0.9, 0.6, 1.4)},
		},
		StandingPushbox:  standing,
		CrouchingPushbox: newArea(0, 0.6, 0.7, 1.2),
		AirPushbox:       newArea(0, 0.9, 0.5, 1.2),
		BaseStats:        defaultStats(),
		Gauges:           make(map[GaugeType]int),
		LowBlockHeight:   0.5,
		HighBlockHeight:  1.2,
	}
}

// Add builds and registers a move. Errors are collected and reported by
// Validate so a moveset definition can stay a flat list.
func (c *Character) Add(id ActionId, b actionBuilder) {
	if _, dup := c.Moves[id]; dup {
		c.errs = append(c.errs, errors.Errorf("duplicate action %s", id))
		return
	}
	a, err := b.Build(id)
	if err != nil {
		c.errs = append(c.errs, err)
		return
	}
	c.Moves[id] = &a
}

func (c *Character) AddItem(it Item) {
	c.Items[it.Id] = it
}

// Validate reports the first definition error in the moveset.
func (c *Character) Validate() error {
	if len(c.errs) > 0 {
		return errors.Wrapf(c.errs[0], "character %s", c.Name)
	}
	for _, id := range c.MoveIds() {
		for _, t := range c.Moves[id].Targets {
			if _, ok := c.Moves[t]; !ok {
				return errors.Errorf("character %s: action %s starts unknown action %s", c.Name, id, t)
			}
		}
	}
	for _, id := range c.StartingItems {
		if _, ok := c.Items[id]; !ok {
			return errors.Errorf("character %s: unknown starting item %s", c.Name, id)
		}
	}
	return nil
}

func (c *Character) MoveIds() []ActionId {
	ids := maps.Keys(c.Moves)
	slices.Sort(ids)
	return ids
}

// Inputs maps every action with a motion to its pattern, for the parser.
func (c *Character) Inputs() map[ActionId]string {
	out := make(map[ActionId]string, len(c.Moves))
	for id, a := range c.Moves {
		if a.Input != "" {
			out[id] = a.Input
		}
	}
	return out
}

func (c *Character) startingInventory() Inventory {
	var inv Inventory
	for _, id := range c.StartingItems {
		inv.Add(id, 1)
	}
	return inv
}

const (
	jumpSpeed        = 8
	dashSpeed        = 12
	dashFrames       = 30
	chargeFullFrames = 45
	ammoCapacity     = 6
)

// newDummy is the built in training character.
func newDummy(ic InputConfig) (*Character, error) {
	c := newCharacter("dummy")
	c.Gauges[GaugeCharge] = chargeFullFrames
	c.Gauges[GaugeAmmo] = ammoCapacity
	c.BaseStats.DefenseMeter = 2

	c.AddItem(Item{Id: "pistol", Cost: 150, Category: "gun"})
	c.AddItem(Item{Id: "bomb", Cost: 50, Category: "consumable", Consumable: true})
	c.AddItem(Item{Id: "gi", Cost: 300, Category: "gi", Effect: &Stats{DefenseMeter: 3}})
	c.StartingItems = []ItemId{"bomb", "pistol"}

	addMovement(c, ic)
	addNormals(c)
	addSpecials(c)
	addThrows(c)
	return c, c.Validate()
}

func addMovement(c *Character, ic InputConfig) {
	jump := func(input string, x float32) actionBuilder {
		ab := NewActionBuilder(CategoryJump).Input(input)
		ab.Animation("jump")
		ab.Immediate(Move(impulse(x, jumpSpeed)))
		return ab.EndAt(5)
	}
	c.Add("jump_neutral", jump("8", 0))
	c.Add("jump_forward", jump("9", 3))
	c.Add("jump_back", jump("7", -3))

	dash := NewActionBuilder(CategoryDash).Input("656")
	dash.Animation("dash")
	dash.Immediate(
		Move(impulse(dashSpeed, 0)),
		// A throw right out of the dash start
		Condition(karaTo(ic.KaraWindow, "throw")),
	)
	c.Add("dash_forward", dash.EndAt(dashFrames))

	back := NewActionBuilder(CategoryDash).Input("454")
	back.Animation("back_dash")
	back.Immediate(Move(impulse(-dashSpeed, 0)), Condition(StatusCondition{Flag: StatusIntangible, Expiration: 8}))
	c.Add("dash_back", back.EndAt(dashFrames))

	parry := NewActionBuilder(CategoryOther).Input("g")
	parry.Animation("parry")
	parry.Immediate(Condition(StatusCondition{Flag: StatusParry, Expiration: 10}))
	c.Add("parry", parry.EndAt(25))
}

func addNormals(c *Character) {
	jab := NormalAttack(ButtonFast)
	jab.Animation("jab")
	jab.HitOnFrame(5, NewHitBuilder().Hitbox(newArea(0.6, 1.3, 0.4, 0.2)).ActiveFrames(3))
	jab.EndAt(20)
	c.Add("jab", jab)

	low := NormalAttack(ButtonFast)
	low.Crouching()
	low.Animation("crouch_jab")
	low.HitOnFrame(6, NewHitBuilder().Hitbox(newArea(0.6, 0.2, 0.5, 0.2)).ActiveFrames(3).Height(HeightLow))
	low.EndAt(22)
	c.Add("crouch_jab", low)

	strong := NormalAttack(ButtonStrong)
	strong.Animation("strong")
	strong.HitOnFrame(9, NewHitBuilder().
		Hitbox(newArea(0.7, 1.1, 0.6, 0.3)).
		ActiveFrames(4).
		Damage(12).
		AdvantageOnHit(3).
		AdvantageOnBlock(-4))
	strong.EndAt(32)
	c.Add("strong", strong)

	// Overhead
	cmd := NewAttackBuilder(CategoryNormal)
	cmd.Input("6f")
	cmd.Animation("overhead")
	cmd.HitOnFrame(18, NewHitBuilder().Hitbox(newArea(0.5, 1.4, 0.5, 0.5)).ActiveFrames(3).Height(HeightHigh).Damage(8))
	cmd.EndAt(40)
	c.Add("overhead", cmd)

	air := NormalAttack(ButtonStrong)
	air.AirOnly()
	air.Animation("air_strong")
	air.HitOnFrame(7, NewHitBuilder().Hitbox(newArea(0.4, 0.6, 0.5, 0.5)).ActiveFrames(6).Damage(10))
	air.EndAt(30)
	c.Add("air_strong", air)

	sweep := NewAttackBuilder(CategoryNormal)
	sweep.Input("[123]s")
	sweep.Crouching()
	sweep.Animation("sweep")
	sweep.HitOnFrame(10, NewHitBuilder().Hitbox(newArea(0.8, 0.15, 0.8, 0.3)).ActiveFrames(4).Height(HeightLow).Knockdown().NoCancels())
	sweep.EndAt(45)
	c.Add("sweep", sweep)
}

func addSpecials(c *Character) {
	fireball := SpecialAttack()
	fireball.Input("236f")
	fireball.Animation("fireball")
	fireball.HitOnFrame(12, SpecialHit().
		Hitbox(newArea(0.5, 1.2, 0.3, 0.3)).
		Projectile(mgl32.Vec2{5, 0}, 0).
		Lifetime(Lifetime{Frames: 180, DespawnOnHit: true}).
		DespawnOnAnyContact())
	fireball.EndAt(45)
	c.Add("fireball", fireball)

	upper := SpecialAttack()
	upper.Input("623f")
	upper.Animation("uppercut")
	upper.Immediate(Condition(StatusCondition{Flag: StatusIntangible, Expiration: 5}))
	upper.HitOnFrame(4, SpecialHit().Hitbox(newArea(0.4, 1.4, 0.5, 1.0)).ActiveFrames(8).Damage(15).Launcher(mgl32.Vec2{1, 6}))
	upper.EndAt(50)
	c.Add("uppercut", upper)

	slam := SpecialAttack()
	slam.Input("6s")
	slam.Charge()
	slam.Animation("charge_slam")
	slam.HitOnFrame(8, SpecialHit().Hitbox(newArea(0.8, 1.0, 0.8, 0.6)).ActiveFrames(5).Damage(20).Knockdown())
	slam.EndAt(40)
	c.Add("charge_slam", slam)

	super := NewAttackBuilder(CategorySuper)
	super.Input("236s")
	super.MeterCost(50)
	super.Animation("super")
	super.Immediate(CameraShake(), Condition(StatusCondition{Flag: StatusIntangible, Expiration: 10}))
	super.HitOnFrame(10, NewHitBuilder().
		Hitbox(newArea(1.0, 1.0, 1.2, 1.2)).
		ActiveFrames(25).
		Hits(3).
		Damage(20).
		NoCancels())
	super.EndAt(60)
	c.Add("super", super)

	shot := SpecialAttack()
	shot.Input("4g")
	shot.ItemRequirement("pistol")
	shot.Cost(GaugeAmmo, 1)
	shot.Animation("shoot")
	shot.HitOnFrame(6, SpecialHit().
		Hitbox(newArea(0.6, 1.3, 0.2, 0.1)).
		Projectile(mgl32.Vec2{15, 0}, 0).
		Lifetime(Lifetime{Frames: 60}).
		DespawnOnAnyContact().
		Damage(8).
		Chip(0))
	shot.EndAt(24)
	c.Add("gunshot", shot)

	bomb := SpecialAttack()
	bomb.Input("2g")
	bomb.ItemRequirement("bomb")
	bomb.Animation("bomb_toss")
	bomb.HitOnFrame(10, SpecialHit().
		Hitbox(newArea(0.4, 1.5, 0.4, 0.4)).
		Projectile(mgl32.Vec2{3, 6}, 16.0/framesPerSecond).
		Lifetime(eternalLifetime()).
		DespawnOnAnyContact().
		Damage(25).
		Knockdown())
	bomb.EndAt(35)
	c.Add("bomb", bomb)

	reload := NewActionBuilder(CategoryOther).Input("6g")
	reload.ItemRequirement("pistol")
	reload.Animation("reload")
	reload.OnFrame(30, ModifyResource(GaugeAmmo, ammoCapacity))
	c.Add("reload", reload.EndAt(40))
}

func addThrows(c *Character) {
	throw := NewAttackBuilder(CategoryThrow)
	throw.Input("w")
	throw.Animation("throw_startup")
	throw.HitOnFrame(3, ThrowHit("throw_hit", "throw_target", false).Hitbox(newArea(0.5, 1.0, 0.4, 0.5)).ActiveFrames(2))
	throw.EndAt(30)
	c.Add("throw", throw)

	back := NewAttackBuilder(CategoryThrow)
	back.Input("4w")
	back.Animation("throw_startup")
	back.HitOnFrame(3, ThrowHit("throw_hit", "throw_target", true).Hitbox(newArea(0.5, 1.0, 0.4, 0.5)).ActiveFrames(2))
	back.EndAt(30)
	c.Add("back_throw", back)

	hit := NewActionBuilder(CategoryFollowUp)
	hit.Animation("throw_hit")
	hit.OnFrame(25, CameraShake())
	c.Add("throw_hit", hit.EndAt(40))

	target := NewActionBuilder(CategoryFollowUp).AirOrGround()
	target.Animation("thrown")
	target.Immediate(Lock(25))
	target.OnFrame(25, ModifyResource(GaugeHealth, -25), LaunchStun(mgl32.Vec2{-2, 4}))
	c.Add("throw_target", target.EndAt(30))
}
