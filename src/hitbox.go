package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/solarlune/resolv"
	"golang.org/x/exp/slices"
)

// HitTracker limits how often a live hitbox may connect.
type HitTracker struct {
	Hits          int
	LastHitFrame  int
	HasLastHit    bool
	HitIntangible bool
}

func (ht *HitTracker) Active(frame, framesBetweenHits int) bool {
	if ht.Hits <= 0 {
		return false
	}
	return !ht.HasLastHit || ht.LastHitFrame+framesBetweenHits <= frame
}

func (ht *HitTracker) RegisterHit(frame int) {
	if ht.Hits > 0 {
		ht.Hits--
	}
	ht.LastHitFrame = frame
	ht.HasLastHit = true
}

// Hitbox is a spawned attack living in the arena.
type Hitbox struct {
	Id         int
	Owner      int
	Attack     *Attack
	Offset     mgl32.Vec2
	Position   mgl32.Vec2
	Velocity   mgl32.Vec2
	Facing     Facing
	Tracker    HitTracker
	SpawnFrame int
	// Only meaningful unless the lifetime is Forever
	DespawnFrame int
}

// Area is the hitbox in world space.
func (hb *Hitbox) Area() Area {
	return newArea(hb.Position[0], hb.Position[1], hb.Attack.Hitbox.Width, hb.Attack.Hitbox.Height)
}

func (hb *Hitbox) Projectile() bool {
	return hb.Attack.Projectile
}

// HitboxSpawner owns one player's live hitboxes.
type HitboxSpawner struct {
	owner  int
	serial int
	boxes  []*Hitbox
}

func newHitboxSpawner(owner int) *HitboxSpawner {
	return &HitboxSpawner{owner: owner}
}

// Spawn places attack relative to the owner. The hitbox offset and velocity
// are given facing right.
func (hs *HitboxSpawner) Spawn(attack *Attack, frame int, ownerPos mgl32.Vec2, facing Facing) *Hitbox {
	hs.serial++
	offset := facing.MirrorVec(attack.Hitbox.Center())
	hb := &Hitbox{
		// Interleaved so ids never collide between players
		Id:         hs.serial*2 + hs.owner,
		Owner:      hs.owner,
		Attack:     attack,
		Offset:     offset,
		Position:   ownerPos.Add(offset),
		Velocity:   facing.MirrorVec(attack.Velocity),
		Facing:     facing,
		Tracker:    HitTracker{Hits: attack.Hits},
		SpawnFrame: frame,
	}
	if !attack.Lifetime.Forever {
		hb.DespawnFrame = frame + attack.Lifetime.Frames
	}
	hs.boxes = append(hs.boxes, hb)
	logger.Debugw("hitbox spawned", "owner", hs.owner, "id", hb.Id, "frame", frame,
		"projectile", attack.Projectile, "pos", hb.Position)
	return hb
}

// Update moves every box. Melee boxes follow the owner, projectiles fly
// on their own and are dropped once they leave the arena.
func (hs *HitboxSpawner) Update(ownerPos mgl32.Vec2, sc StageConfig) {
	hs.filter(func(hb *Hitbox) bool {
		if !hb.Projectile() {
			hb.Position = ownerPos.Add(hb.Offset)
			return true
		}
		hb.Velocity[1] -= hb.Attack.Gravity
		hb.Position = hb.Position.Add(hb.Velocity.Mul(1.0 / framesPerSecond))
		return absF32(hb.Position[0]) <= sc.Width/2+projectileMargin && hb.Position[1] >= sc.GroundY-projectileMargin
	})
}

func (hs *HitboxSpawner) DespawnExpired(frame int) {
	hs.filter(func(hb *Hitbox) bool {
		return hb.Attack.Lifetime.Forever || frame < hb.DespawnFrame
	})
}

// DespawnOnHit runs when the owner gets hit.
func (hs *HitboxSpawner) DespawnOnHit() {
	hs.filter(func(hb *Hitbox) bool { return !hb.Attack.Lifetime.DespawnOnHit })
}

func (hs *HitboxSpawner) DespawnOnLanding() {
	hs.filter(func(hb *Hitbox) bool { return !hb.Attack.Lifetime.DespawnOnLanding })
}

// DespawnOnNewAction drops what the previous action left attached to the
// owner. Projectiles keep flying.
func (hs *HitboxSpawner) DespawnOnNewAction() {
	hs.filter(func(hb *Hitbox) bool { return hb.Projectile() })
}

func (hs *HitboxSpawner) DespawnExhausted() {
	hs.filter(func(hb *Hitbox) bool { return hb.Tracker.Hits > 0 })
}

func (hs *HitboxSpawner) Despawn(id int) {
	hs.filter(func(hb *Hitbox) bool { return hb.Id != id })
}

func (hs *HitboxSpawner) Clear() {
	hs.boxes = nil
}

func (hs *HitboxSpawner) Boxes() []*Hitbox {
	return hs.boxes
}

func (hs *HitboxSpawner) Len() int {
	return len(hs.boxes)
}

func (hs *HitboxSpawner) filter(keep func(hb *Hitbox) bool) {
	kept := hs.boxes[:0]
	for _, hb := range hs.boxes {
		if keep(hb) {
			kept = append(kept, hb)
		}
	}
	for i := len(kept); i < len(hs.boxes); i++ {
		hs.boxes[i] = nil
	}
	hs.boxes = kept
}

func (hs *HitboxSpawner) clone() *HitboxSpawner {
	c := &HitboxSpawner{owner: hs.owner, serial: hs.serial, boxes: make([]*Hitbox, len(hs.boxes))}
	for i, hb := range hs.boxes {
		b := *hb
		c.boxes[i] = &b
	}
	return c
}

// Resolv tags
const (
	tagHitbox  = "hitbox"
	tagHurtbox = "hurtbox"
)

var slotTags = [2]string{"p1", "p2"}

// hurtboxRef ties a broad phase object back to a player's hurtbox.
type hurtboxRef struct {
	slot  int
	index int
	area  Area
}

// broadPhase buckets boxes into a resolv grid. It only narrows candidates,
// the overlap itself is decided by Area.Intersection.
type broadPhase struct {
	space   *resolv.Space
	scale   float64
	originX float64
	originY float64
	objects []*resolv.Object
}

func newBroadPhase(sc StageConfig) *broadPhase {
	// Boxes reaching past the walls or under the floor still get cells
	w := int((float64(sc.Width) + 2*broadPhaseMargin) * broadPhaseScale)
	h := int((float64(sc.Height) + 2*broadPhaseMargin) * broadPhaseScale)
	return &broadPhase{
		space:   resolv.NewSpace(w, h, sc.CellSize, sc.CellSize),
		scale:   broadPhaseScale,
		originX: float64(sc.Width)/2 + broadPhaseMargin,
		originY: broadPhaseMargin - float64(sc.GroundY),
	}
}

// Reset removes everything, the grid is rebuilt every frame from the
// authoritative boxes so it never needs to be part of a snapshot.
func (bp *broadPhase) Reset() {
	if len(bp.objects) > 0 {
		bp.space.Remove(bp.objects...)
	}
	bp.objects = bp.objects[:0]
}

func (bp *broadPhase) add(a Area, data interface{}, tags ...string) *resolv.Object {
	x := (float64(a.Left()) + bp.originX) * bp.scale
	y := (float64(a.Bottom()) + bp.originY) * bp.scale
	w, h := float64(a.Width)*bp.scale, float64(a.Height)*bp.scale
	obj := resolv.NewObject(x, y, w, h, tags...)
	obj.SetShape(resolv.NewRectangle(0, 0, w, h))
	obj.Data = data
	bp.space.Add(obj)
	bp.objects = append(bp.objects, obj)
	return obj
}

func (bp *broadPhase) AddHitbox(hb *Hitbox) *resolv.Object {
	return bp.add(hb.Area(), hb, tagHitbox, slotTags[hb.Owner])
}

func (bp *broadPhase) AddHurtbox(ref hurtboxRef) *resolv.Object {
	return bp.add(ref.area, ref, tagHurtbox, slotTags[ref.slot])
}

// Hitboxes near obj, sorted by id.
func (bp *broadPhase) nearbyHitboxes(obj *resolv.Object) []*Hitbox {
	var out []*Hitbox
	if c := obj.Check(0, 0, tagHitbox); c != nil {
		for _, o := range c.Objects {
			if hb, ok := o.Data.(*Hitbox); ok && o != obj {
				out = append(out, hb)
			}
		}
	}
	slices.SortFunc(out, func(a, b *Hitbox) bool { return a.Id < b.Id })
	return slices.Compact(out)
}

// Hurtboxes of slot near obj, in the character's hurtbox order.
func (bp *broadPhase) nearbyHurtboxes(obj *resolv.Object, slot int) []hurtboxRef {
	var out []hurtboxRef
	if c := obj.Check(0, 0, tagHurtbox); c != nil {
		for _, o := range c.Objects {
			if ref, ok := o.Data.(hurtboxRef); ok && ref.slot == slot {
				out = append(out, ref)
			}
		}
	}
	slices.SortFunc(out, func(a, b hurtboxRef) bool { return a.index < b.index })
	return slices.Compact(out)
}

const (
	// Grid units per world unit
	broadPhaseScale  = 16
	broadPhaseMargin = 4
	projectileMargin = 2
)
