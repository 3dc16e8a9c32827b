package main

import (
	"testing"

	"golang.org/x/exp/slices"
)

func testInputConfig() InputConfig {
	return InputConfig{BufferFrames: 6, MotionWindowFrames: 12, HistoryFrames: 60, KaraWindow: 3}
}

func stickBits(sp StickPosition, buttons ...Button) InputBits {
	return bitsFromState(sp, buttonSetOf(buttons...))
}

// feed plays one InputBits per frame starting at frame 1 and returns the
// events drained after the last frame.
func feed(ip *InputParser, facing Facing, frames ...InputBits) []ActionId {
	var prev InputBits
	for i, in := range frames {
		ip.AddFrame(in.Diff(prev), facing, i+1)
		prev = in
		if i < len(frames)-1 {
			ip.DrainEvents()
		}
	}
	return ip.DrainEvents()
}

func TestInputBitsRoundTripThroughStickAndButtons(t *testing.T) {
	for sp := StickSW; sp <= StickNE; sp++ {
		in := stickBits(sp, ButtonFast, ButtonGimmick)
		if got := in.Stick(); got != sp {
			t.Fatalf("Stick() = %v, want %v", got, sp)
		}
		if !in.Buttons().Has(ButtonFast) || !in.Buttons().Has(ButtonGimmick) || in.Buttons().Has(ButtonStrong) {
			t.Fatalf("Buttons() = %08b for %v", in.Buttons(), sp)
		}
	}

	var opposing InputBits
	opposing.KeysToBits(true, true, true, true, 0)
	if got := opposing.Stick(); got != StickN {
		t.Fatalf("opposing directions resolved to %v, want N", got)
	}
}

func TestInputHistoryDropsOldRecords(t *testing.T) {
	h := newInputHistory(10)
	h.Tick(1)
	h.Push(diffFromEvents(Point(StickS)))
	h.Tick(5)
	h.Push(InputDiff{})
	if h.Len() != 1 {
		t.Fatalf("empty diff should not be recorded, have %d records", h.Len())
	}
	h.Tick(20)
	if h.Len() != 0 {
		t.Fatalf("expected records older than the retention to be dropped, have %d", h.Len())
	}
	if h.Head().Stick != StickS {
		t.Fatalf("head lost the held stick: %v", h.Head().Stick)
	}
}

func TestInputParserRecognizesMotionsInIdOrder(t *testing.T) {
	ip, err := newInputParser(map[ActionId]string{
		"jab":      "f",
		"fireball": "236f",
		"dash":     "656",
	}, testInputConfig())
	if err != nil {
		t.Fatalf("newInputParser: %v", err)
	}

	got := feed(ip, FacingRight,
		stickBits(StickS),
		stickBits(StickSE),
		stickBits(StickE),
		stickBits(StickE, ButtonFast),
	)
	want := []ActionId{"fireball", "jab"}
	if !slices.Equal(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if ip.Complexity("fireball") != 4 || ip.Complexity("jab") != 1 {
		t.Fatalf("unexpected complexity: fireball %d jab %d", ip.Complexity("fireball"), ip.Complexity("jab"))
	}
}

func repeat(in InputBits, n int) []InputBits {
	out := make([]InputBits, n)
	for i := range out {
		out[i] = in
	}
	return out
}

func framesOf(groups ...[]InputBits) []InputBits {
	var out []InputBits
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestInputParserCommands(t *testing.T) {
	down, downFwd, fwd := stickBits(StickS), stickBits(StickSE), stickBits(StickE)
	neutral := stickBits(StickNeutral)

	tests := []struct {
		name   string
		inputs map[ActionId]string
		frames []InputBits
		want   []ActionId
	}{
		{
			name:   "hadouken",
			inputs: map[ActionId]string{"move": "236f"},
			frames: []InputBits{down, downFwd, fwd, stickBits(StickE, ButtonFast)},
			want:   []ActionId{"move"},
		},
		{
			name:   "hadouken waits for the button",
			inputs: map[ActionId]string{"move": "236f"},
			frames: []InputBits{down, downFwd, fwd},
		},
		{
			name:   "inputs expire",
			inputs: map[ActionId]string{"move": "236f"},
			frames: framesOf([]InputBits{down, downFwd}, repeat(fwd, 14), []InputBits{stickBits(StickE, ButtonFast)}),
		},
		{
			name:   "normal",
			inputs: map[ActionId]string{"move": "f"},
			frames: []InputBits{stickBits(StickNeutral, ButtonFast)},
			want:   []ActionId{"move"},
		},
		{
			name:   "command normal",
			inputs: map[ActionId]string{"move": "2f"},
			frames: []InputBits{down, stickBits(StickS, ButtonFast)},
			want:   []ActionId{"move"},
		},
		{
			name:   "slow command normal",
			inputs: map[ActionId]string{"move": "2f"},
			frames: append(repeat(down, 30), stickBits(StickS, ButtonFast)),
			want:   []ActionId{"move"},
		},
		{
			name:   "multidirection skipping first",
			inputs: map[ActionId]string{"move": "[41]6f"},
			frames: []InputBits{stickBits(StickSW), fwd, stickBits(StickE, ButtonFast)},
			want:   []ActionId{"move"},
		},
		{
			name:   "multidirection skipping second",
			inputs: map[ActionId]string{"move": "[41]6f"},
			frames: []InputBits{stickBits(StickW), fwd, stickBits(StickE, ButtonFast)},
			want:   []ActionId{"move"},
		},
		{
			name:   "multiple events",
			inputs: map[ActionId]string{"move": "2f", "second": "f"},
			frames: []InputBits{down, stickBits(StickS, ButtonFast)},
			want:   []ActionId{"move", "second"},
		},
		{
			name:   "sticky head",
			inputs: map[ActionId]string{"move": "6+f"},
			frames: []InputBits{fwd, stickBits(StickE, ButtonFast)},
			want:   []ActionId{"move"},
		},
		{
			name:   "sticky head limits",
			inputs: map[ActionId]string{"move": "6+f"},
			frames: []InputBits{fwd, neutral, stickBits(StickNeutral, ButtonFast)},
		},
		{
			name:   "plain head is not limited",
			inputs: map[ActionId]string{"move": "6f"},
			frames: []InputBits{fwd, neutral, stickBits(StickNeutral, ButtonFast)},
			want:   []ActionId{"move"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ip, err := newInputParser(tt.inputs, testInputConfig())
			if err != nil {
				t.Fatalf("newInputParser: %v", err)
			}
			if got := feed(ip, FacingRight, tt.frames...); !slices.Equal(got, tt.want) {
				t.Fatalf("events = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInputParserMirrorsWhenFacingLeft(t *testing.T) {
	ip, err := newInputParser(map[ActionId]string{"fireball": "236f"}, testInputConfig())
	if err != nil {
		t.Fatalf("newInputParser: %v", err)
	}

	got := feed(ip, FacingLeft,
		stickBits(StickS),
		stickBits(StickSW),
		stickBits(StickW),
		stickBits(StickW, ButtonFast),
	)
	if !slices.Equal(got, []ActionId{"fireball"}) {
		t.Fatalf("events = %v, want fireball", got)
	}
	if ip.StickPosition() != StickE || ip.AbsoluteStick() != StickW {
		t.Fatalf("relative %v absolute %v", ip.StickPosition(), ip.AbsoluteStick())
	}
}

func TestInputParserSideSwitchFlipsHeldStick(t *testing.T) {
	ip, err := newInputParser(map[ActionId]string{"dash": "66"}, testInputConfig())
	if err != nil {
		t.Fatalf("newInputParser: %v", err)
	}
	back := stickBits(StickW)
	ip.AddFrame(back.Diff(0), FacingRight, 1)
	if ip.StickPosition() != StickW {
		t.Fatalf("expected back before the switch, got %v", ip.StickPosition())
	}
	ip.AddFrame(back.Diff(back), FacingLeft, 2)
	if ip.StickPosition() != StickE {
		t.Fatalf("expected forward after the switch, got %v", ip.StickPosition())
	}
}

func TestInputParserCloneIsIndependent(t *testing.T) {
	ip, err := newInputParser(map[ActionId]string{"jab": "f"}, testInputConfig())
	if err != nil {
		t.Fatalf("newInputParser: %v", err)
	}
	ip.AddFrame(stickBits(StickS).Diff(0), FacingRight, 1)
	c := ip.clone()

	ip.AddFrame(stickBits(StickS, ButtonFast).Diff(stickBits(StickS)), FacingRight, 2)
	if len(c.DrainEvents()) != 0 {
		t.Fatalf("clone saw events added after it was taken")
	}
	if !slices.Equal(ip.DrainEvents(), []ActionId{"jab"}) {
		t.Fatalf("original lost its event")
	}
	if c.Held().Has(ButtonFast) {
		t.Fatalf("clone history changed")
	}
}

func TestInputParserRejectsBadPattern(t *testing.T) {
	if _, err := newInputParser(map[ActionId]string{"broken": "2[3"}, testInputConfig()); err == nil {
		t.Fatalf("expected error for malformed pattern")
	}
}
