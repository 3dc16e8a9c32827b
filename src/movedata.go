package main

import (
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// loadJSONCharacter reads a data only moveset. Moves are plain normals and
// specials described by their hits, anything scripted belongs in Lua.
func loadJSONCharacter(path string, ic InputConfig) (*Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "moveset %s", path)
	}
	return parseJSONCharacter(data, ic)
}

func parseJSONCharacter(data []byte, ic InputConfig) (*Character, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("moveset is not valid json")
	}
	root := gjson.ParseBytes(data)
	c := newCharacter(root.Get("name").String())
	if c.Name == "" {
		return nil, errors.New("moveset without a name")
	}
	if v := root.Get("health"); v.Exists() {
		c.BaseStats.MaxHealth = int(v.Int())
	}
	if v := root.Get("walkSpeed"); v.Exists() {
		c.BaseStats.WalkSpeed = float32(v.Float())
	}
	var err error
	root.Get("gauges").ForEach(func(k, v gjson.Result) bool {
		if gt, ok := gaugeFromString(k.String()); ok {
			c.Gauges[gt] = int(v.Int())
		} else {
			err = errors.Errorf("unknown gauge %q", k.String())
		}
		return err == nil
	})
	if err != nil {
		return nil, err
	}

	// Object order is document order, which keeps loading deterministic
	root.Get("moves").ForEach(func(k, v gjson.Result) bool {
		var b actionBuilder
		if b, err = jsonMove(v, ic); err != nil {
			err = errors.Wrapf(err, "move %s", k.String())
			return false
		}
		c.Add(ActionId(k.String()), b)
		return true
	})
	if err != nil {
		return nil, err
	}
	return c, c.Validate()
}

func jsonMove(v gjson.Result, ic InputConfig) (actionBuilder, error) {
	cat, ok := categoryFromString(v.Get("category").String())
	if !ok {
		return nil, errors.Errorf("unknown category %q", v.Get("category").String())
	}
	atb := NewAttackBuilder(cat)
	if btn := v.Get("button").String(); btn != "" {
		ev, ok := eventFromRune(rune(btn[0]))
		if !ok || ev.Kind != EventPress {
			return nil, errors.Errorf("unknown button %q", btn)
		}
		atb.button = &ev.Button
	}
	atb.Input(v.Get("input").String())
	if v.Get("crouching").Bool() {
		atb.Crouching()
	}
	if anim := v.Get("animation").String(); anim != "" {
		atb.Animation(anim)
	}
	atb.EndAt(int(v.Get("duration").Int()))
	if m := v.Get("meter"); m.Exists() {
		atb.MeterCost(int(m.Int()))
	}
	if kara := v.Get("kara"); kara.Exists() {
		var ids []ActionId
		for _, id := range kara.Array() {
			ids = append(ids, ActionId(id.String()))
		}
		atb.Immediate(Condition(karaTo(ic.KaraWindow, ids...)))
	}

	var err error
	v.Get("hits").ForEach(func(_, h gjson.Result) bool {
		var hb *HitBuilder
		if hb, err = jsonHit(h, cat); err != nil {
			return false
		}
		atb.HitOnFrame(int(h.Get("frame").Int()), hb)
		return true
	})
	if err != nil {
		return nil, err
	}
	if v.Get("air").Bool() {
		atb.AirOnly()
	}
	if len(atb.hits) == 0 {
		return atb.ActionBuilder, nil
	}
	return atb, nil
}

func jsonHit(h gjson.Result, cat ActionCategory) (*HitBuilder, error) {
	hb := NewHitBuilder()
	if cat == CategorySpecial {
		hb = SpecialHit()
	}
	hb.Hitbox(newArea(
		float32(h.Get("x").Float()),
		float32(h.Get("y").Float()),
		float32(h.Get("w").Float()),
		float32(h.Get("h").Float()),
	))
	hb.ActiveFrames(int(h.Get("active").Int()))
	if n := h.Get("count"); n.Exists() {
		hb.Hits(int(n.Int()))
	}
	if d := h.Get("damage"); d.Exists() {
		hb.Damage(int(d.Int()))
	}
	if d := h.Get("chip"); d.Exists() {
		hb.Chip(int(d.Int()))
	}
	if d := h.Get("onHit"); d.Exists() {
		hb.AdvantageOnHit(int(d.Int()))
	}
	if d := h.Get("onBlock"); d.Exists() {
		hb.AdvantageOnBlock(int(d.Int()))
	}
	if s := h.Get("height").String(); s != "" {
		height, ok := heightFromString(s)
		if !ok {
			return nil, errors.Errorf("unknown height %q", s)
		}
		hb.Height(height)
	}
	if l := h.Get("launch"); l.IsArray() {
		hb.Launcher(jsonVec(l))
	}
	if h.Get("knockdown").Bool() {
		hb.Knockdown()
	}
	if p := h.Get("projectile"); p.IsArray() {
		hb.Projectile(jsonVec(p), float32(h.Get("gravity").Float()))
		hb.DespawnOnAnyContact()
	}
	return hb, nil
}

func jsonVec(r gjson.Result) mgl32.Vec2 {
	return mgl32.Vec2{float32(r.Get("0").Float()), float32(r.Get("1").Float())}
}

// parseInputToken reads a frame of input such as "2f": a stick digit
// followed by the held buttons. An empty token is neutral.
func parseInputToken(tok string) (InputBits, error) {
	sp, held := StickNeutral, ButtonSet(0)
	for i, r := range tok {
		if i == 0 {
			if s, ok := StickFromDigit(r); ok {
				sp = s
				continue
			}
		}
		ev, ok := eventFromRune(r)
		if !ok || ev.Kind != EventPress {
			return 0, errors.Errorf("bad input token %q", tok)
		}
		held = held.With(ev.Button)
	}
	return bitsFromState(sp, held), nil
}

// loadReplay reads scripted inputs:
//
//	{"frames": [{"p1": "6", "p2": "", "hold": 3}, {"p1": "6f"}]}
//
// hold repeats a frame, one by default.
func loadReplay(path string) ([][2]InputBits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "replay %s", path)
	}
	return parseReplay(data)
}

func parseReplay(data []byte) ([][2]InputBits, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("replay is not valid json")
	}
	var out [][2]InputBits
	var err error
	gjson.GetBytes(data, "frames").ForEach(func(i, f gjson.Result) bool {
		var in [2]InputBits
		for slot, key := range [...]string{"p1", "p2"} {
			if in[slot], err = parseInputToken(f.Get(key).String()); err != nil {
				err = errors.Wrapf(err, "frame %d", i.Int())
				return false
			}
		}
		hold := 1
		if h := f.Get("hold"); h.Exists() {
			hold = int(h.Int())
		}
		for ; hold > 0; hold-- {
			out = append(out, in)
		}
		return true
	})
	return out, err
}
