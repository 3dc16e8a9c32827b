package main

import (
	"testing"
)

func TestLinkPrecision(t *testing.T) {
	cc := defaultConfigValues().Combat
	tests := []struct {
		delta int
		want  LinkPrecision
		msg   string
	}{
		{delta: 0, want: LinkPerfect, msg: "Perfect link!"},
		{delta: -2, want: LinkGood, msg: "Good link! (Early)"},
		{delta: 3, want: LinkGood, msg: "Good link! (Late)"},
		{delta: 5, want: LinkFine, msg: "Linked (Late)"},
	}
	for _, tt := range tests {
		got := linkPrecision(tt.delta, cc)
		if got != tt.want {
			t.Fatalf("linkPrecision(%d) = %v, want %v", tt.delta, got, tt.want)
		}
		if msg := linkMessage(got, tt.delta); msg != tt.msg {
			t.Fatalf("linkMessage(%d) = %q, want %q", tt.delta, msg, tt.msg)
		}
	}
	if LinkPerfect.meterGain(cc) != 30 || LinkGood.meterGain(cc) != 10 || LinkFine.meterGain(cc) != 0 {
		t.Fatalf("unexpected link meter gains")
	}
}

func TestCancelMessage(t *testing.T) {
	tests := []struct {
		input, since int
		want         string
	}{
		{input: 7, since: 7, want: "Frame perfect cancel"},
		{input: 9, since: 7, want: "Cancelled on frame 2"},
		{input: 4, since: 7, want: "Cancel buffered for 3 frames"},
	}
	for _, tt := range tests {
		if got := cancelMessage(tt.input, tt.since); got != tt.want {
			t.Fatalf("cancelMessage(%d, %d) = %q, want %q", tt.input, tt.since, got, tt.want)
		}
	}
}

func TestMoveBufferDropsStaleEntries(t *testing.T) {
	var mb MoveBuffer
	mb.add([]ActionId{"jab"}, 10)
	mb.add([]ActionId{"fireball"}, 14)
	mb.clearOld(15, 6)
	if mb.Len() != 2 {
		t.Fatalf("buffer has %d entries, want 2", mb.Len())
	}
	mb.clearOld(16, 6)
	if mb.Len() != 1 || mb.entries[0].Id != "fireball" {
		t.Fatalf("buffer kept %v", mb.entries)
	}
	// A restarted round moves the clock backwards
	mb.clearOld(2, 6)
	if mb.Len() != 0 {
		t.Fatalf("entries from the future survived: %v", mb.entries)
	}
}

func TestBestPrefersComplexInputs(t *testing.T) {
	ip, err := newInputParser(map[ActionId]string{
		"jab":      "f",
		"fireball": "236f",
		"strong":   "s",
	}, testInputConfig())
	if err != nil {
		t.Fatalf("newInputParser: %v", err)
	}
	tests := []struct {
		name  string
		cands []candidate
		want  candidate
	}{
		{
			name:  "complexity",
			cands: []candidate{{stored: 5, id: "jab"}, {stored: 4, id: "fireball"}},
			want:  candidate{stored: 4, id: "fireball"},
		},
		{
			name:  "greatest id",
			cands: []candidate{{stored: 5, id: "jab"}, {stored: 5, id: "strong"}},
			want:  candidate{stored: 5, id: "strong"},
		},
		{
			name:  "latest entry",
			cands: []candidate{{stored: 3, id: "jab"}, {stored: 6, id: "jab"}},
			want:  candidate{stored: 6, id: "jab"},
		},
	}
	for _, tt := range tests {
		got, ok := best(tt.cands, ip)
		if !ok || got.id != tt.want.id || got.stored != tt.want.stored {
			t.Fatalf("%s: best = %+v, want %+v", tt.name, got, tt.want)
		}
	}
	if _, ok := best(nil, ip); ok {
		t.Fatalf("best of nothing should fail")
	}
}

func TestBufferedJabLinksOnRecovery(t *testing.T) {
	m := newTestMatch(t)
	m.Reset()
	play(m, 32, func(frame int) [2]InputBits {
		if frame == 10 || frame == 29 {
			return [2]InputBits{stickBits(StickNeutral, ButtonFast), 0}
		}
		return [2]InputBits{}
	})

	// The first jab ends on frame 31, two frames after the second press
	tr := m.players[0].state.Tracker()
	if tr == nil || tr.Id != "jab" || tr.StartFrame != 31 {
		t.Fatalf("expected a jab starting on frame 31, got %+v", tr)
	}
	if m.stats.Links[0][LinkGood] != 1 {
		t.Fatalf("links %v, want one good link", m.stats.Links[0])
	}
}

func TestLateBufferIsARawStart(t *testing.T) {
	m := newTestMatch(t)
	m.Reset()
	play(m, 45, func(frame int) [2]InputBits {
		if frame == 10 || frame == 44 {
			return [2]InputBits{stickBits(StickNeutral, ButtonFast), 0}
		}
		return [2]InputBits{}
	})

	tr := m.players[0].state.Tracker()
	if tr == nil || tr.StartFrame != 44 {
		t.Fatalf("expected a raw jab on frame 44, got %+v", tr)
	}
	if m.stats.Links[0] != [3]int{} {
		t.Fatalf("raw start counted as a link: %v", m.stats.Links[0])
	}
}

// A character whose "lead" hands over to "follow" on its third frame, with
// a cancel window open the whole time.
func newContinuationCharacter(t *testing.T) *Character {
	t.Helper()
	c := newCharacter("relay")
	c.Add("lead", NewActionBuilder(CategoryNormal).
		Input("f").
		CancelAt(0, cancelRule(anyCancel(), 30)).
		OnFrame(3, StartAction("follow")).
		EndAt(20))
	c.Add("split", NewActionBuilder(CategoryNormal).
		Input("g").
		OnFrame(3, StartAction("follow"), StartAction("other")).
		EndAt(20))
	c.Add("follow", NewActionBuilder(CategoryOther).EndAt(30))
	c.Add("other", NewActionBuilder(CategorySpecial).Input("s").EndAt(30))
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return c
}

func TestActivationPriority(t *testing.T) {
	press := func(presses map[int]Button) func(int) [2]InputBits {
		return func(frame int) [2]InputBits {
			if b, ok := presses[frame]; ok {
				return [2]InputBits{stickBits(StickNeutral, b), 0}
			}
			return [2]InputBits{}
		}
	}

	t.Run("cancel while the window is open", func(t *testing.T) {
		m := newMatchOf(t, newContinuationCharacter(t))
		play(m, 12, press(map[int]Button{10: ButtonFast, 12: ButtonStrong}))
		tr := m.players[0].state.Tracker()
		if tr == nil || tr.Id != "other" || tr.StartFrame != 12 || !tr.WasCancelledInto {
			t.Fatalf("expected a cancel into other on frame 12, got %+v", tr)
		}
	})

	t.Run("continuation beats a cancel", func(t *testing.T) {
		m := newMatchOf(t, newContinuationCharacter(t))
		play(m, 20, press(map[int]Button{10: ButtonFast, 14: ButtonStrong}))
		tr := m.players[0].state.Tracker()
		if tr == nil || tr.Id != "follow" || tr.StartFrame != 14 {
			t.Fatalf("expected follow from frame 14, got %+v", tr)
		}
	})

	t.Run("twin continuations start nothing", func(t *testing.T) {
		m := newMatchOf(t, newContinuationCharacter(t))
		results := play(m, 14, press(map[int]Button{10: ButtonGimmick}))
		if !notified(results, 0, "Twin starters") {
			t.Fatalf("expected a twin starters notification")
		}
		if tr := m.players[0].state.Tracker(); tr == nil || tr.Id != "split" {
			t.Fatalf("conflicting starts replaced the action: %+v", tr)
		}
		play(m, 40, press(nil))
		if tr := m.players[0].state.Tracker(); tr != nil {
			t.Fatalf("expected split to end without a follow up, got %+v", tr)
		}
	})
}

func TestJabCancelsIntoFireballOnHit(t *testing.T) {
	m := newTestMatch(t)
	results := play(m, 18, func(frame int) [2]InputBits {
		var in [2]InputBits
		switch frame {
		case 10:
			in[0] = stickBits(StickNeutral, ButtonFast)
		case 14:
			in[0] = stickBits(StickS)
		case 15:
			in[0] = stickBits(StickSE)
		case 16:
			in[0] = stickBits(StickE)
		case 17, 18:
			in[0] = stickBits(StickE, ButtonFast)
		}
		return in
	})

	// The hit on 15 opens the window on 16, the motion completes on 17
	if !notified(results, 0, "Cancelled on frame 1") {
		t.Fatalf("expected a cancel notification")
	}
	tr := m.players[0].state.Tracker()
	if tr == nil || tr.Id != "fireball" || tr.StartFrame != 17 || !tr.WasCancelledInto {
		t.Fatalf("expected a fireball cancelled into on frame 17, got %+v", tr)
	}
}
