package main

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Data handlers
func luaRegister(l *lua.LState, name string, f func(*lua.LState) int) {
	l.Register(name, f)
}
func strArg(l *lua.LState, argi int) string {
	if !lua.LVCanConvToString(l.Get(argi)) {
		l.RaiseError("\nArgument %v is not a string: %v\n", argi, l.Get(argi))
	}
	return l.ToString(argi)
}
func numArg(l *lua.LState, argi int) float64 {
	num, ok := l.Get(argi).(lua.LNumber)
	if !ok {
		l.RaiseError("\nArgument %v is not a number: %v\n", argi, l.Get(argi))
	}
	return float64(num)
}
func tableArg(l *lua.LState, argi int) *lua.LTable {
	t, ok := l.Get(argi).(*lua.LTable)
	if !ok {
		l.RaiseError("\nArgument %v is not a table: %v\n", argi, l.Get(argi))
	}
	return t
}

// Table fields

func fieldNum(t *lua.LTable, key string, def float64) float64 {
	if n, ok := t.RawGetString(key).(lua.LNumber); ok {
		return float64(n)
	}
	return def
}
func fieldInt(t *lua.LTable, key string, def int) int {
	return int(fieldNum(t, key, float64(def)))
}
func fieldF32(t *lua.LTable, key string, def float32) float32 {
	return float32(fieldNum(t, key, float64(def)))
}
func fieldStr(t *lua.LTable, key, def string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return def
}
func fieldBool(t *lua.LTable, key string) bool {
	return lua.LVAsBool(t.RawGetString(key))
}
func fieldTable(t *lua.LTable, key string) *lua.LTable {
	if sub, ok := t.RawGetString(key).(*lua.LTable); ok {
		return sub
	}
	return nil
}

// fieldList walks the array part of a table in order.
func fieldList(t *lua.LTable, key string, f func(i int, v *lua.LTable)) {
	list := fieldTable(t, key)
	if list == nil {
		return
	}
	for i := 1; i <= list.Len(); i++ {
		if v, ok := list.RawGetInt(i).(*lua.LTable); ok {
			f(i, v)
		}
	}
}

func stringList(t *lua.LTable, key string) []string {
	var out []string
	if list := fieldTable(t, key); list != nil {
		for i := 1; i <= list.Len(); i++ {
			out = append(out, lua.LVAsString(list.RawGetInt(i)))
		}
	}
	return out
}

// Hash parts iterate in map order, so keys are sorted before use.
func numberMap(t *lua.LTable) map[string]float64 {
	out := make(map[string]float64)
	t.ForEach(func(k, v lua.LValue) {
		if n, ok := v.(lua.LNumber); ok {
			out[lua.LVAsString(k)] = float64(n)
		}
	})
	return out
}

func areaField(t *lua.LTable) Area {
	return newArea(fieldF32(t, "x", 0), fieldF32(t, "y", 0), fieldF32(t, "w", 0), fieldF32(t, "h", 0))
}

func vecField(t *lua.LTable, key string) (mgl32.Vec2, bool) {
	v := fieldTable(t, key)
	if v == nil {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{
		float32(lua.LVAsNumber(v.RawGetInt(1))),
		float32(lua.LVAsNumber(v.RawGetInt(2))),
	}, true
}

func nameIndex(names []string, s string) (int, bool) {
	i := slices.Index(names, s)
	return i, i >= 0
}

func gaugeFromString(s string) (GaugeType, bool) {
	i, ok := nameIndex(gaugeNames[:], s)
	return GaugeType(i), ok
}

func statusFromString(s string) (StatusFlag, bool) {
	i, ok := nameIndex(statusNames[:], s)
	return StatusFlag(i), ok
}

func heightFromString(s string) (AttackHeight, bool) {
	for _, h := range [...]AttackHeight{HeightLow, HeightMid, HeightHigh} {
		if h.String() == s {
			return h, true
		}
	}
	return 0, false
}

// luaMoveset builds one character from the functions a moveset script calls.
// Scripts only run at load time, the resulting actions are plain Go.
type luaMoveset struct {
	char *Character
	ic   InputConfig
}

func (lm *luaMoveset) register(l *lua.LState) {
	luaRegister(l, "character", func(l *lua.LState) int {
		t := tableArg(l, 1)
		c := lm.char
		c.Name = fieldStr(t, "name", c.Name)
		c.BaseStats.MaxHealth = fieldInt(t, "health", c.BaseStats.MaxHealth)
		c.BaseStats.WalkSpeed = fieldF32(t, "walkSpeed", c.BaseStats.WalkSpeed)
		c.BaseStats.DefenseMeter = fieldInt(t, "defenseMeter", c.BaseStats.DefenseMeter)
		c.LowBlockHeight = fieldF32(t, "lowBlock", c.LowBlockHeight)
		c.HighBlockHeight = fieldF32(t, "highBlock", c.HighBlockHeight)
		for _, id := range stringList(t, "items") {
			c.StartingItems = append(c.StartingItems, ItemId(id))
		}
		return 0
	})
	luaRegister(l, "gauge", func(l *lua.LState) int {
		gt, ok := gaugeFromString(strArg(l, 1))
		if !ok {
			l.RaiseError("\nUnknown gauge: %v\n", l.Get(1))
		}
		lm.char.Gauges[gt] = int(numArg(l, 2))
		return 0
	})
	luaRegister(l, "item", func(l *lua.LState) int {
		t := tableArg(l, 1)
		it := Item{
			Id:         ItemId(fieldStr(t, "id", "")),
			Cost:       fieldInt(t, "cost", 0),
			Category:   fieldStr(t, "category", ""),
			Consumable: fieldBool(t, "consumable"),
		}
		if it.Id == "" {
			l.RaiseError("\nItem without an id\n")
		}
		if dm := fieldInt(t, "defenseMeter", 0); dm != 0 {
			it.Effect = &Stats{DefenseMeter: dm}
		}
		lm.char.AddItem(it)
		return 0
	})
	luaRegister(l, "move", func(l *lua.LState) int {
		id := ActionId(strArg(l, 1))
		b, err := lm.move(tableArg(l, 2))
		if err != nil {
			l.RaiseError("\nMove %v: %v\n", id, err.Error())
		}
		lm.char.Add(id, b)
		return 0
	})
}

func (lm *luaMoveset) move(t *lua.LTable) (actionBuilder, error) {
	cat, ok := categoryFromString(fieldStr(t, "category", "Other"))
	if !ok {
		return nil, errors.Errorf("unknown category %q", fieldStr(t, "category", ""))
	}
	var atb *AttackBuilder
	ab := NewActionBuilder(cat)
	if fieldTable(t, "hits") != nil || fieldTable(t, "throw") != nil {
		atb = &AttackBuilder{ActionBuilder: ab}
	}

	if btn := fieldStr(t, "button", ""); btn != "" {
		ev, ok := eventFromRune(rune(btn[0]))
		if !ok || ev.Kind != EventPress {
			return nil, errors.Errorf("unknown button %q", btn)
		}
		ab.button = &ev.Button
	}
	ab.Input(fieldStr(t, "input", ""))
	switch {
	case fieldBool(t, "crouching"):
		ab.Crouching()
	case fieldBool(t, "air"):
		ab.AirOnly()
	case fieldBool(t, "anywhere"):
		ab.AirOrGround()
	}
	if fieldBool(t, "transient") {
		ab.Transient()
	}
	if anim := fieldStr(t, "animation", ""); anim != "" {
		ab.Animation(anim)
	}
	if snd := fieldStr(t, "sound", ""); snd != "" {
		ab.Sound(snd)
	}
	if d := fieldInt(t, "duration", 0); d > 0 {
		ab.EndAt(d)
	}
	if cost := fieldTable(t, "cost"); cost != nil {
		costs := numberMap(cost)
		names := maps.Keys(costs)
		slices.Sort(names)
		for _, name := range names {
			gt, ok := gaugeFromString(name)
			if !ok {
				return nil, errors.Errorf("unknown gauge %q", name)
			}
			ab.Cost(gt, int(costs[name]))
		}
	}
	if it := fieldStr(t, "item", ""); it != "" {
		ab.ItemRequirement(ItemId(it))
	}
	if fieldBool(t, "charge") {
		ab.Charge()
	}
	for _, id := range stringList(t, "from") {
		ab.FollowUpFrom(ActionId(id))
	}

	var err error
	fieldList(t, "events", func(i int, ev *lua.LTable) {
		if err != nil {
			return
		}
		var e ActionEvent
		if e, err = luaEvent(ev, lm.ic); err != nil {
			err = errors.Wrapf(err, "event %d", i)
			return
		}
		n := fieldInt(ev, "frame", 0)
		if after := fieldInt(ev, "after", -1); after >= 0 {
			ab.After(after, e)
		} else {
			ab.OnFrame(n, e)
		}
	})
	fieldList(t, "cancels", func(i int, cr *lua.LTable) {
		if err != nil {
			return
		}
		var rule CancelRule
		if rule, err = luaCancel(cr); err != nil {
			err = errors.Wrapf(err, "cancel %d", i)
			return
		}
		ab.CancelAt(fieldInt(cr, "frame", 0), rule)
	})
	if err != nil {
		return nil, err
	}

	if atb == nil {
		return ab, nil
	}
	fieldList(t, "hits", func(i int, h *lua.LTable) {
		if err != nil {
			return
		}
		var hb *HitBuilder
		if hb, err = luaHit(h, cat); err != nil {
			err = errors.Wrapf(err, "hit %d", i)
			return
		}
		atb.HitOnFrame(fieldInt(h, "frame", 0), hb)
	})
	if th := fieldTable(t, "throw"); th != nil {
		hb := ThrowHit(ActionId(fieldStr(th, "onHit", "")), ActionId(fieldStr(th, "target", "")), fieldBool(th, "sideSwitch"))
		hb.Hitbox(areaField(th)).ActiveFrames(fieldInt(th, "active", 2))
		atb.HitOnFrame(fieldInt(th, "frame", 0), hb)
	}
	if fieldBool(t, "air") {
		atb.AirOnly()
	}
	return atb, err
}

func luaHit(h *lua.LTable, cat ActionCategory) (*HitBuilder, error) {
	hb := NewHitBuilder()
	if cat == CategorySpecial {
		hb = SpecialHit()
	}
	hb.Hitbox(areaField(h))
	hb.ActiveFrames(fieldInt(h, "active", 1))
	hb.Hits(fieldInt(h, "count", 1))
	hb.Damage(fieldInt(h, "damage", 5))
	if v, ok := h.RawGetString("chip").(lua.LNumber); ok {
		hb.Chip(int(v))
	}
	if v, ok := h.RawGetString("hitstun").(lua.LNumber); ok {
		hb.HitStun(int(v))
	}
	if v, ok := h.RawGetString("blockstun").(lua.LNumber); ok {
		hb.BlockStun(int(v))
	}
	if v, ok := h.RawGetString("onHit").(lua.LNumber); ok {
		hb.AdvantageOnHit(int(v))
	}
	if v, ok := h.RawGetString("onBlock").(lua.LNumber); ok {
		hb.AdvantageOnBlock(int(v))
	}
	if s := fieldStr(h, "height", ""); s != "" {
		height, ok := heightFromString(s)
		if !ok {
			return nil, errors.Errorf("unknown height %q", s)
		}
		hb.Height(height)
	}
	if v, ok := vecField(h, "launch"); ok {
		hb.Launcher(v)
	}
	if fieldBool(h, "knockdown") {
		hb.Knockdown()
	}
	if fieldBool(h, "noCancels") {
		hb.NoCancels()
	}
	if v, ok := vecField(h, "projectile"); ok {
		hb.Projectile(v, fieldF32(h, "gravity", 0))
	}
	switch {
	case fieldBool(h, "forever"):
		hb.Lifetime(eternalLifetime())
	case fieldBool(h, "untilOwnerHit"):
		hb.Lifetime(untilOwnerHit())
	}
	if fieldBool(h, "anyContact") {
		hb.DespawnOnAnyContact()
	}
	return hb, nil
}

func luaCancel(t *lua.LTable) (CancelRule, error) {
	var ct CancelType
	switch kind := fieldStr(t, "type", "Special"); kind {
	case "Special":
		ct = specialCancel()
	case "Super":
		ct = superCancel()
	case "Anything":
		ct = anyCancel()
	case "Specific":
		ids := stringList(t, "ids")
		if len(ids) == 0 {
			return CancelRule{}, errors.New("specific cancel without ids")
		}
		for _, id := range ids {
			ct.Ids = append(ct.Ids, ActionId(id))
		}
		ct.Kind = CancelSpecific
	default:
		return CancelRule{}, errors.Errorf("unknown cancel type %q", kind)
	}
	cr := cancelRule(ct, fieldInt(t, "duration", 0))
	if fieldBool(t, "onHit") {
		cr = cr.OnHit()
	}
	return cr, nil
}

func luaEvent(t *lua.LTable, ic InputConfig) (ActionEvent, error) {
	vec := mgl32.Vec2{fieldF32(t, "x", 0), fieldF32(t, "y", 0)}
	switch kind := fieldStr(t, "kind", ""); kind {
	case "animation":
		return Animation(fieldStr(t, "name", "")), nil
	case "sound":
		return Sound(fieldStr(t, "name", "")), nil
	case "vfx":
		return Vfx(fieldStr(t, "name", "")), nil
	case "shake":
		return CameraShake(), nil
	case "move":
		return Move(Movement{Amount: vec, Duration: fieldInt(t, "duration", 0)}), nil
	case "teleport":
		return Teleport(vec), nil
	case "snap":
		return SnapToOpponent(fieldBool(t, "sideSwitch")), nil
	case "sideSwitch":
		return SideSwitch(), nil
	case "forceStand":
		return ForceStand(), nil
	case "lock":
		return Lock(fieldInt(t, "frames", 0)), nil
	case "launch":
		return LaunchStun(vec), nil
	case "start":
		return StartAction(ActionId(fieldStr(t, "action", ""))), nil
	case "kara":
		var ids []ActionId
		for _, id := range stringList(t, "ids") {
			ids = append(ids, ActionId(id))
		}
		return Condition(karaTo(ic.KaraWindow, ids...)), nil
	case "resource", "clearResource":
		gt, ok := gaugeFromString(fieldStr(t, "gauge", ""))
		if !ok {
			return ActionEvent{}, errors.Errorf("unknown gauge %q", fieldStr(t, "gauge", ""))
		}
		if kind == "clearResource" {
			return ClearResource(gt), nil
		}
		return ModifyResource(gt, fieldInt(t, "amount", 0)), nil
	case "condition", "clearCondition":
		flag, ok := statusFromString(fieldStr(t, "flag", ""))
		if !ok || flag == StatusNone || flag == StatusCancel {
			return ActionEvent{}, errors.Errorf("unknown status %q", fieldStr(t, "flag", ""))
		}
		if kind == "clearCondition" {
			return ClearCondition(flag), nil
		}
		return Condition(StatusCondition{Flag: flag, Expiration: fieldInt(t, "frames", 0)}), nil
	}
	return ActionEvent{}, errors.Errorf("unknown event kind %q", fieldStr(t, "kind", ""))
}

func newLuaMoveset(ic InputConfig) (*luaMoveset, *lua.LState) {
	lm := &luaMoveset{char: newCharacter("unnamed"), ic: ic}
	l := lua.NewState()
	lm.register(l)
	return lm, l
}

// loadLuaCharacter runs a moveset script file.
func loadLuaCharacter(path string, ic InputConfig) (*Character, error) {
	lm, l := newLuaMoveset(ic)
	defer l.Close()
	if err := l.DoFile(path); err != nil {
		return nil, errors.Wrapf(err, "moveset %s", path)
	}
	return lm.char, lm.char.Validate()
}

func loadLuaCharacterString(src string, ic InputConfig) (*Character, error) {
	lm, l := newLuaMoveset(ic)
	defer l.Close()
	if err := l.DoString(src); err != nil {
		return nil, errors.Wrap(err, "moveset")
	}
	return lm.char, lm.char.Validate()
}
