package main

import (
	"errors"
	"testing"
)

type inputStep struct {
	frame  int
	events []InputEvent
}

func at(frame int, events ...InputEvent) inputStep {
	return inputStep{frame: frame, events: events}
}

func historyOf(steps ...inputStep) *InputHistory {
	h := newInputHistory(60)
	for _, s := range steps {
		h.Tick(s.frame)
		h.Push(diffFromEvents(s.events...))
	}
	return h
}

func mustCompile(t *testing.T, pattern string) *MotionInput {
	t.Helper()
	mi, err := CompileMotion(pattern)
	if err != nil {
		t.Fatalf("compile %q: %v", pattern, err)
	}
	return mi
}

func TestMotionTriggeredBy(t *testing.T) {
	down, downFwd, fwd := Point(StickS), Point(StickSE), Point(StickE)
	f, s := Press(ButtonFast), Press(ButtonStrong)

	tests := []struct {
		name    string
		pattern string
		steps   []inputStep
		want    bool
	}{
		{
			name:    "quarter circle",
			pattern: "236f",
			steps:   []inputStep{at(1, down), at(2, downFwd), at(3, fwd), at(4, f)},
			want:    true,
		},
		{
			name:    "button on the last direction frame",
			pattern: "236f",
			steps:   []inputStep{at(1, down), at(2, downFwd), at(3, fwd, f)},
			want:    true,
		},
		{
			name:    "button outside the window",
			pattern: "236f",
			steps:   []inputStep{at(1, down), at(2, downFwd), at(3, fwd), at(20, f)},
			want:    false,
		},
		{
			name:    "wrong order",
			pattern: "236f",
			steps:   []inputStep{at(1, fwd), at(2, downFwd), at(3, down), at(4, f)},
			want:    false,
		},
		{
			name:    "held direction satisfies a leading requirement",
			pattern: "2f",
			steps:   []inputStep{at(1, down), at(40, f)},
			want:    true,
		},
		{
			name:    "sticky direction released before the button",
			pattern: "2+f",
			steps:   []inputStep{at(1, down), at(2, Point(StickNeutral)), at(3, f)},
			want:    false,
		},
		{
			name:    "sticky direction kept",
			pattern: "2+f",
			steps:   []inputStep{at(1, down), at(3, f)},
			want:    true,
		},
		{
			name:    "all group on one frame",
			pattern: "(fs)",
			steps:   []inputStep{at(1, f, s)},
			want:    true,
		},
		{
			name:    "all group across frames",
			pattern: "(fs)",
			steps:   []inputStep{at(1, f), at(3, s)},
			want:    true,
		},
		{
			name:    "all group missing a button",
			pattern: "(fs)",
			steps:   []inputStep{at(3, s)},
			want:    false,
		},
		{
			name:    "any group",
			pattern: "[123]f",
			steps:   []inputStep{at(1, Point(StickSW)), at(2, f)},
			want:    true,
		},
		{
			name:    "allowed sticks reject neutral",
			pattern: "f|123",
			steps:   []inputStep{at(1, f)},
			want:    false,
		},
		{
			name:    "allowed sticks accept crouch",
			pattern: "f|123",
			steps:   []inputStep{at(1, down), at(2, f)},
			want:    true,
		},
		{
			name:    "multi direction takes the second option",
			pattern: "[41]6f",
			steps:   []inputStep{at(1, Point(StickW)), at(2, fwd), at(3, f)},
			want:    true,
		},
		{
			name:    "multi direction takes the first option",
			pattern: "[41]6f",
			steps:   []inputStep{at(1, Point(StickSW)), at(2, fwd), at(3, f)},
			want:    true,
		},
		{
			name:    "multi direction skips neutral",
			pattern: "[41]6f",
			steps:   []inputStep{at(1, Point(StickW)), at(2, Point(StickNeutral)), at(3, fwd), at(4, f)},
			want:    true,
		},
		{
			name:    "multi direction out of order",
			pattern: "[41]6f",
			steps:   []inputStep{at(1, fwd), at(2, Point(StickW)), at(3, f)},
			want:    false,
		},
		{
			name:    "release",
			pattern: "F",
			steps:   []inputStep{at(1, f), at(5, Release(ButtonFast))},
			want:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mi := mustCompile(t, tt.pattern)
			if got := mi.triggeredBy(historyOf(tt.steps...)); got != tt.want {
				t.Fatalf("triggeredBy(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestMotionContainedInLooksBackThroughIdleFrames(t *testing.T) {
	h := historyOf(at(1, Point(StickS)), at(2, Point(StickSE)), at(3, Point(StickE)), at(4, Press(ButtonFast)))
	h.Tick(8)
	mi := mustCompile(t, "236f")

	if mi.triggeredBy(h) {
		t.Fatalf("expected no trigger on a frame without input")
	}
	if !mi.ContainedIn(h) {
		t.Fatalf("expected motion to still be contained in the history")
	}

	h.Tick(30)
	if mi.ContainedIn(h) {
		t.Fatalf("expected motion to fall out of the window")
	}
}

func TestCompileMotionErrors(t *testing.T) {
	tests := []struct {
		pattern string
		pos     int
	}{
		{pattern: "", pos: 0},
		{pattern: "[12", pos: 3},
		{pattern: "2]", pos: 1},
		{pattern: "+2", pos: 0},
		{pattern: "2x", pos: 1},
		{pattern: "(2]", pos: 2},
		{pattern: "[]", pos: 1},
		{pattern: "[1[2]]", pos: 2},
		{pattern: "2f|Z", pos: 3},
	}

	for _, tt := range tests {
		_, err := CompileMotion(tt.pattern)
		var me *MotionError
		if !errors.As(err, &me) {
			t.Fatalf("CompileMotion(%q) error = %v, want *MotionError", tt.pattern, err)
		}
		if me.Pos != tt.pos {
			t.Fatalf("CompileMotion(%q) position = %d, want %d (%s)", tt.pattern, me.Pos, tt.pos, me.Reason)
		}
	}
}

func TestCompileMotionMetadataAndComplexity(t *testing.T) {
	mi := mustCompile(t, "6f|A")
	if !mi.Absolute {
		t.Fatalf("expected absolute motion")
	}

	for pattern, want := range map[string]int{
		"236f":   4,
		"[123]f": 2,
		"(fs)":   1,
		"2+8":    2,
	} {
		if got := mustCompile(t, pattern).Complexity(); got != want {
			t.Fatalf("Complexity(%q) = %d, want %d", pattern, got, want)
		}
	}
}
