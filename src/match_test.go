package main

import (
	"testing"

	"golang.org/x/exp/slices"
)

// newTestMatch puts two dummies within jab range of each other.
func newTestMatch(t *testing.T) *Match {
	t.Helper()
	dummy, err := newDummy(defaultConfigValues().Input)
	if err != nil {
		t.Fatalf("newDummy: %v", err)
	}
	return newMatchOf(t, dummy)
}

func newMatchOf(t *testing.T, c *Character) *Match {
	t.Helper()
	m, err := NewMatch(defaultConfigValues(), [2]*Character{c, c})
	if err != nil {
		t.Fatalf("NewMatch: %v", err)
	}
	m.players[0].position[0] = -0.5
	m.players[1].position[0] = 0.35
	return m
}

// play steps the match up to and including frame last.
func play(m *Match, last int, inputs func(frame int) [2]InputBits) []FrameResult {
	var out []FrameResult
	for m.Frame() < last {
		out = append(out, m.Step(inputs(m.Frame()+1)))
	}
	return out
}

func connectionsOn(results []FrameResult, frame int) []ConnectionType {
	for _, r := range results {
		if r.Frame == frame {
			return r.Connections
		}
	}
	return nil
}

func notified(results []FrameResult, slot int, msg string) bool {
	return timesNotified(results, slot, msg) > 0
}

func timesNotified(results []FrameResult, slot int, msg string) int {
	n := 0
	for _, r := range results {
		for _, note := range r.Notifications {
			if note.Player == slot && note.Message == msg {
				n++
			}
		}
	}
	return n
}

func TestMatchResetPlacesPlayers(t *testing.T) {
	m := newTestMatch(t)
	m.Reset()
	views := m.Players()
	if views[0].Position[0] != -2 || views[1].Position[0] != 2 {
		t.Fatalf("spawn positions %v %v", views[0].Position, views[1].Position)
	}
	if views[0].Facing != FacingRight || views[1].Facing != FacingLeft {
		t.Fatalf("players should face each other")
	}
	if views[0].Health != 250 || m.Frame() != 0 {
		t.Fatalf("health %d frame %d", views[0].Health, m.Frame())
	}
	if !slices.Equal(views[0].Inventory, []ItemStack{{Id: "bomb", Count: 1}, {Id: "pistol", Count: 1}}) {
		t.Fatalf("starting inventory %v", views[0].Inventory)
	}
}

func TestJabConnectsAsOpener(t *testing.T) {
	m := newTestMatch(t)
	results := play(m, 20, func(frame int) [2]InputBits {
		if frame == 10 {
			return [2]InputBits{stickBits(StickNeutral, ButtonFast), 0}
		}
		return [2]InputBits{}
	})

	if got := connectionsOn(results, 15); !slices.Equal(got, []ConnectionType{ConnStrike}) {
		t.Fatalf("connections on frame 15 = %v, want [Strike]", got)
	}
	if !notified(results, 0, "Opener!") {
		t.Fatalf("expected an opener notification")
	}
	// 5 damage scaled by the opener multiplier
	if got := m.Players()[1].Health; got != 243 {
		t.Fatalf("defender health = %d, want 243", got)
	}
	if !m.players[1].state.IsStunned() {
		t.Fatalf("defender should be in hit stun")
	}
	if !m.players[0].combo.Ongoing() {
		t.Fatalf("combo should last while the defender is stunned")
	}
	if m.stats.Openers[0] != 1 || m.stats.Connections[0][ConnStrike] != 1 {
		t.Fatalf("stats %+v", m.stats)
	}

	play(m, 60, func(int) [2]InputBits { return [2]InputBits{} })
	if m.players[0].combo.Ongoing() {
		t.Fatalf("combo should end once the defender recovers")
	}
	if m.stats.LongestCombo[0] != 1 {
		t.Fatalf("longest combo = %d, want 1", m.stats.LongestCombo[0])
	}
}

func TestOpenerIsFlaggedOncePerCombo(t *testing.T) {
	m := newTestMatch(t)
	results := play(m, 45, func(frame int) [2]InputBits {
		if frame == 10 || frame == 29 {
			return [2]InputBits{stickBits(StickNeutral, ButtonFast), 0}
		}
		return [2]InputBits{}
	})

	if m.stats.Connections[0][ConnStrike] != 2 {
		t.Fatalf("strikes = %d, want 2", m.stats.Connections[0][ConnStrike])
	}
	if n := timesNotified(results, 0, "Opener!"); n != 1 {
		t.Fatalf("opener notified %d times, want 1", n)
	}
	if m.stats.Openers[0] != 1 {
		t.Fatalf("openers = %d, want 1", m.stats.Openers[0])
	}
}

func TestOpposingJabsClash(t *testing.T) {
	m := newTestMatch(t)
	results := play(m, 20, func(frame int) [2]InputBits {
		if frame == 10 {
			jab := stickBits(StickNeutral, ButtonFast)
			return [2]InputBits{jab, jab}
		}
		return [2]InputBits{}
	})

	for _, r := range results {
		if len(r.Connections) != 0 {
			t.Fatalf("frame %d: clashing jabs connected: %v", r.Frame, r.Connections)
		}
	}
	if m.stats.Clashes != 1 {
		t.Fatalf("clashes = %d, want 1", m.stats.Clashes)
	}
	for slot, v := range m.Players() {
		if v.Meter != 20 || v.Health != 250 {
			t.Fatalf("player %d: meter %d health %d, want 20 250", slot, v.Meter, v.Health)
		}
	}
}

func TestHoldingBackBlocksJab(t *testing.T) {
	m := newTestMatch(t)
	results := play(m, 20, func(frame int) [2]InputBits {
		var in [2]InputBits
		if frame == 10 {
			in[0] = stickBits(StickNeutral, ButtonFast)
		}
		if frame >= 14 {
			// Player two faces left, so back is right
			in[1] = stickBits(StickE)
		}
		return in
	})

	if got := connectionsOn(results, 15); !slices.Equal(got, []ConnectionType{ConnBlock}) {
		t.Fatalf("connections on frame 15 = %v, want [Block]", got)
	}
	def := m.Players()[1]
	if def.Health != 249 {
		t.Fatalf("chip damage left %d health, want 249", def.Health)
	}
	if def.Meter != 2 {
		t.Fatalf("defense meter = %d, want 2", def.Meter)
	}
	if m.players[0].combo.Ongoing() {
		t.Fatalf("a blocked hit is not a combo")
	}
}

func TestParryBeatsStrike(t *testing.T) {
	m := newTestMatch(t)
	results := play(m, 17, func(frame int) [2]InputBits {
		var in [2]InputBits
		if frame == 10 {
			in[0] = stickBits(StickNeutral, ButtonFast)
		}
		if frame == 12 {
			in[1] = stickBits(StickNeutral, ButtonGimmick)
		}
		return in
	})

	if got := connectionsOn(results, 15); !slices.Equal(got, []ConnectionType{ConnParry}) {
		t.Fatalf("connections on frame 15 = %v, want [Parry]", got)
	}
	if got := m.Players()[1].Meter; got != 30 {
		t.Fatalf("parry meter = %d, want 30", got)
	}
	if m.Players()[1].Health != 250 {
		t.Fatalf("parried hit dealt damage")
	}
}

func TestThrowOutcomes(t *testing.T) {
	t.Run("neutral defender techs", func(t *testing.T) {
		m := newTestMatch(t)
		results := play(m, 16, func(frame int) [2]InputBits {
			if frame == 10 {
				return [2]InputBits{stickBits(StickNeutral, ButtonWrestling), 0}
			}
			return [2]InputBits{}
		})
		if got := connectionsOn(results, 13); !slices.Equal(got, []ConnectionType{ConnTech}) {
			t.Fatalf("connections on frame 13 = %v, want [Tech]", got)
		}
		if !notified(results, 1, "Avoid - Teched") {
			t.Fatalf("expected tech notification")
		}
	})

	t.Run("crouching defender is thrown", func(t *testing.T) {
		m := newTestMatch(t)
		results := play(m, 16, func(frame int) [2]InputBits {
			in := [2]InputBits{0, stickBits(StickS)}
			if frame == 10 {
				in[0] = stickBits(StickNeutral, ButtonWrestling)
			}
			return in
		})
		if got := connectionsOn(results, 13); !slices.Equal(got, []ConnectionType{ConnThrow}) {
			t.Fatalf("connections on frame 13 = %v, want [Throw]", got)
		}
		att, def := m.players[0].state.Tracker(), m.players[1].state.Tracker()
		if att == nil || att.Id != "throw_hit" {
			t.Fatalf("attacker should be in throw_hit, got %v", att)
		}
		if def == nil || def.Id != "throw_target" {
			t.Fatalf("defender should be in throw_target, got %v", def)
		}
	})

	t.Run("simultaneous throws clash", func(t *testing.T) {
		m := newTestMatch(t)
		results := play(m, 16, func(frame int) [2]InputBits {
			if frame == 10 {
				w := stickBits(StickNeutral, ButtonWrestling)
				return [2]InputBits{w, w}
			}
			return [2]InputBits{}
		})
		if got := connectionsOn(results, 13); len(got) != 0 {
			t.Fatalf("clashing throws should not connect, got %v", got)
		}
		if m.stats.ThrowClashes != 1 {
			t.Fatalf("throw clashes = %d, want 1", m.stats.ThrowClashes)
		}
		if !notified(results, 0, "Throw clash") || !notified(results, 1, "Throw clash") {
			t.Fatalf("both players should be told about the clash")
		}
	})

	t.Run("throw beats strike", func(t *testing.T) {
		m := newTestMatch(t)
		results := play(m, 16, func(frame int) [2]InputBits {
			var in [2]InputBits
			if frame == 10 {
				in[0] = stickBits(StickNeutral, ButtonFast)
			}
			if frame == 12 {
				in[1] = stickBits(StickNeutral, ButtonWrestling)
			}
			return in
		})
		if got := connectionsOn(results, 15); !slices.Equal(got, []ConnectionType{ConnThrow}) {
			t.Fatalf("connections on frame 15 = %v, want only the throw", got)
		}
		if m.Players()[1].Health != 250 {
			t.Fatalf("the strike should have been dropped")
		}
	})
}

func scriptedInputs(frame int) [2]InputBits {
	var in [2]InputBits
	switch {
	case frame < 20:
		in[0] = stickBits(StickE)
	case frame == 20:
		in[0] = stickBits(StickS)
	case frame == 21:
		in[0] = stickBits(StickSE)
	case frame == 22:
		in[0] = stickBits(StickE)
	case frame == 23:
		in[0] = stickBits(StickE, ButtonFast)
	case frame%17 == 0:
		in[0] = stickBits(StickNeutral, ButtonStrong)
	}
	switch {
	case frame%30 < 10:
		in[1] = stickBits(StickS)
	case frame%30 == 15:
		in[1] = stickBits(StickS, ButtonFast)
	case frame%45 == 40:
		in[1] = stickBits(StickN)
	}
	return in
}

func TestMatchIsDeterministic(t *testing.T) {
	a, b := newTestMatch(t), newTestMatch(t)
	for f := 1; f <= 240; f++ {
		a.Step(scriptedInputs(f))
		b.Step(scriptedInputs(f))
		if a.Checksum() != b.Checksum() {
			t.Fatalf("checksums diverged on frame %d", f)
		}
	}
}

func TestSnapshotRestoreReplaysIdentically(t *testing.T) {
	m := newTestMatch(t)
	play(m, 60, scriptedInputs)
	snap := m.Snapshot()
	before := m.Checksum()

	play(m, 180, scriptedInputs)
	want := m.Checksum()
	wantStats := *m.stats

	for i := 0; i < 2; i++ {
		m.Restore(snap)
		if m.Frame() != 60 || m.Checksum() != before {
			t.Fatalf("restore %d: frame %d checksum %08x, want 60 %08x", i, m.Frame(), m.Checksum(), before)
		}
		play(m, 180, scriptedInputs)
		if got := m.Checksum(); got != want {
			t.Fatalf("replay %d: checksum %08x, want %08x", i, got, want)
		}
		if *m.stats != wantStats {
			t.Fatalf("replay %d: stats diverged", i)
		}
	}
}
