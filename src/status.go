package main

import (
	"fmt"

	"golang.org/x/exp/slices"
)

type GaugeType uint8

const (
	GaugeHealth GaugeType = iota
	GaugeMeter
	GaugeCharge
	GaugeSharpness
	GaugeAmmo
	numGauges
)

var gaugeNames = [...]string{"Health", "Meter", "Charge", "Sharpness", "Ammo"}

func (gt GaugeType) String() string {
	if gt >= numGauges {
		return fmt.Sprintf("GaugeType(%d)", uint8(gt))
	}
	return gaugeNames[gt]
}

type Gauge struct {
	Current int
	Max     int
	// Charge bookkeeping, frame of the last increment
	LastUpdate int
}

func (g *Gauge) Gain(amount int) {
	g.Current += amount
	if g.Current > g.Max {
		g.Current = g.Max
	}
	if g.Current < 0 {
		g.Current = 0
	}
}

func (g *Gauge) Clear()       { g.Current = 0 }
func (g Gauge) IsFull() bool  { return g.Max > 0 && g.Current >= g.Max }
func (g Gauge) Enabled() bool { return g.Max > 0 }
func (g Gauge) Fraction() float32 {
	if g.Max == 0 {
		return 0
	}
	return float32(g.Current) / float32(g.Max)
}

// Gauges is indexed by GaugeType. A zero max means the character has no such gauge.
type Gauges [numGauges]Gauge

func newGauges(stats Stats, extra map[GaugeType]int) Gauges {
	var g Gauges
	g[GaugeHealth] = Gauge{Current: stats.MaxHealth, Max: stats.MaxHealth}
	g[GaugeMeter] = Gauge{Current: stats.StartingMeter, Max: 100}
	for gt, max := range extra {
		g[gt] = Gauge{Max: max}
		if gt == GaugeAmmo {
			// Guns come loaded
			g[gt].Current = max
		}
	}
	return g
}

func (g *Gauges) Get(gt GaugeType) *Gauge {
	if gt >= numGauges || !g[gt].Enabled() {
		return nil
	}
	return &g[gt]
}

// Stats are per character tunables, conditions can modify them temporarily.
type Stats struct {
	MaxHealth     int
	StartingMeter int

	DamageMultiplier float32
	ChipDamage       bool
	DefenseMeter     int

	WalkSpeed         float32
	BackWalkSpeedMult float32
	Gravity           float32
	JumpForceMult     float32

	OpenerDamageMultiplier float32
	OpenerMeterGain        int
	OpenerStunFrames       int

	ActionSpeedMultiplier float32
	DirectInfluence       float32
}

func defaultStats() Stats {
	return Stats{
		MaxHealth:              250,
		DamageMultiplier:       1,
		ChipDamage:             true,
		WalkSpeed:              3,
		BackWalkSpeedMult:      0.7,
		Gravity:                16.0 / framesPerSecond,
		JumpForceMult:          1,
		OpenerDamageMultiplier: 1.5,
		OpenerMeterGain:        25,
		OpenerStunFrames:       5,
		ActionSpeedMultiplier:  1,
	}
}

// Combine folds a modifier into the stats. Multipliers multiply, the rest adds.
func (s Stats) Combine(mod *Stats) Stats {
	if mod == nil {
		return s
	}
	s.MaxHealth += mod.MaxHealth
	s.StartingMeter += mod.StartingMeter
	s.DefenseMeter += mod.DefenseMeter
	s.ChipDamage = s.ChipDamage || mod.ChipDamage
	s.WalkSpeed += mod.WalkSpeed
	s.Gravity += mod.Gravity
	s.OpenerMeterGain += mod.OpenerMeterGain
	s.OpenerStunFrames += mod.OpenerStunFrames
	s.DirectInfluence += mod.DirectInfluence
	mul := func(a, b float32) float32 {
		if b == 0 {
			return a
		}
		return a * b
	}
	s.DamageMultiplier = mul(s.DamageMultiplier, mod.DamageMultiplier)
	s.BackWalkSpeedMult = mul(s.BackWalkSpeedMult, mod.BackWalkSpeedMult)
	s.JumpForceMult = mul(s.JumpForceMult, mod.JumpForceMult)
	s.OpenerDamageMultiplier = mul(s.OpenerDamageMultiplier, mod.OpenerDamageMultiplier)
	s.ActionSpeedMultiplier = mul(s.ActionSpeedMultiplier, mod.ActionSpeedMultiplier)
	return s
}

type StatusFlag uint8

const (
	StatusNone StatusFlag = iota
	StatusIntangible
	StatusParry
	StatusMovementLock
	StatusWeaken
	StatusAirActionCooldown
	StatusCancel
)

var statusNames = [...]string{"None", "Intangible", "Parry", "MovementLock", "Weaken", "AirActionCooldown", "Cancel"}

func (sf StatusFlag) String() string {
	if int(sf) >= len(statusNames) {
		return fmt.Sprintf("StatusFlag(%d)", uint8(sf))
	}
	return statusNames[sf]
}

// StatusCondition is a timed flag. Expiration is relative when emitted and
// made absolute when the player state stores it.
type StatusCondition struct {
	Flag       StatusFlag
	Effect     *Stats
	Expiration int
	Cancel     CancelType
	Since      int
}

// Kara cancel window into specific follow ups
func karaTo(window int, ids ...ActionId) StatusCondition {
	return StatusCondition{
		Flag:       StatusCancel,
		Expiration: window,
		Cancel:     specificCancel(ids...),
	}
}

type ItemId string

type Item struct {
	Id       ItemId
	Cost     int
	Category string
	Effect   *Stats
	// Consumable items are removed when used by an action
	Consumable bool
}

// Inventory counts owned items, sorted for deterministic iteration.
type Inventory struct {
	Money int
	Items []ItemStack
}

type ItemStack struct {
	Id    ItemId
	Count int
}

func (inv *Inventory) Count(id ItemId) int {
	for _, s := range inv.Items {
		if s.Id == id {
			return s.Count
		}
	}
	return 0
}

func (inv *Inventory) Contains(id ItemId) bool {
	return inv.Count(id) > 0
}

func (inv *Inventory) Add(id ItemId, n int) {
	for i := range inv.Items {
		if inv.Items[i].Id == id {
			inv.Items[i].Count += n
			return
		}
	}
	inv.Items = append(inv.Items, ItemStack{Id: id, Count: n})
	slices.SortFunc(inv.Items, func(a, b ItemStack) bool { return a.Id < b.Id })
}

func (inv *Inventory) Remove(id ItemId) bool {
	for i := range inv.Items {
		if inv.Items[i].Id == id && inv.Items[i].Count > 0 {
			inv.Items[i].Count--
			if inv.Items[i].Count == 0 {
				inv.Items = slices.Delete(inv.Items, i, i+1)
			}
			return true
		}
	}
	return false
}

func (inv Inventory) clone() Inventory {
	inv.Items = slices.Clone(inv.Items)
	return inv
}

// Combo tracks the attacker's ongoing combo.
type Combo struct {
	Hits           int
	StartingHealth int
	ongoing        bool
}

func (c *Combo) Ongoing() bool { return c.ongoing }

func (c *Combo) StartAt(health int) {
	*c = Combo{Hits: 1, StartingHealth: health, ongoing: true}
}

func (c *Combo) End() { *c = Combo{} }

// DefenseStreak rewards consecutive successful defense.
type DefenseStreak struct {
	Streak    int
	LastEvent int
	active    bool
}

func (d *DefenseStreak) Reward(cc CombatConfig) int {
	if d.Streak > cc.StreakMinimum {
		return cc.StreakRewardFloor + cc.StreakRewardRamp*(d.Streak-cc.StreakMinimum-1)
	}
	return 0
}

func (d *DefenseStreak) Bump(frame int) {
	d.Streak++
	d.LastEvent = frame
	d.active = true
}

func (d *DefenseStreak) Reset() { *d = DefenseStreak{} }

func (d *DefenseStreak) Timeout(frame, after int) {
	if d.active && d.LastEvent+after < frame {
		d.Reset()
	}
}
