package main

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/pkg/errors"
)

// InputFrame is the accumulated controller state.
type InputFrame struct {
	Stick StickPosition
	Held  ButtonSet
}

func neutralFrame() InputFrame {
	return InputFrame{Stick: StickNeutral}
}

func (f *InputFrame) Apply(d InputDiff) {
	if d.StickMoved {
		f.Stick = d.Stick
	}
	f.Held = (f.Held | d.Pressed) &^ d.Released
}

func (f InputFrame) IsClear() bool {
	return f.Stick == StickNeutral && f.Held.Empty()
}

func (f InputFrame) Mirrored() InputFrame {
	f.Stick = f.Stick.Mirror()
	return f
}

// InputDiff is the change observed between two frames.
type InputDiff struct {
	StickMoved bool
	Stick      StickPosition
	Pressed    ButtonSet
	Released   ButtonSet
}

func (d InputDiff) Empty() bool {
	return !d.StickMoved && d.Pressed.Empty() && d.Released.Empty()
}

func (d InputDiff) Mirrored() InputDiff {
	if d.StickMoved {
		d.Stick = d.Stick.Mirror()
	}
	return d
}

// Events lists the diff in canonical order: stick, presses, releases.
func (d InputDiff) Events() []InputEvent {
	var out []InputEvent
	if d.StickMoved {
		out = append(out, Point(d.Stick))
	}
	for _, b := range d.Pressed.Buttons() {
		out = append(out, Press(b))
	}
	for _, b := range d.Released.Buttons() {
		out = append(out, Release(b))
	}
	return out
}

func diffFromEvents(events ...InputEvent) InputDiff {
	var d InputDiff
	for _, ev := range events {
		switch ev.Kind {
		case EventPoint:
			d.StickMoved, d.Stick = true, ev.Stick
		case EventPress:
			d.Pressed = d.Pressed.With(ev.Button)
			d.Released = d.Released.Without(ev.Button)
		case EventRelease:
			d.Released = d.Released.With(ev.Button)
			d.Pressed = d.Pressed.Without(ev.Button)
		}
	}
	return d
}

type InputRecord struct {
	Frame  int
	Events []InputEvent
	Before InputFrame
	After  InputFrame
}

// InputHistory keeps recent diffs along with the state they produced.
type InputHistory struct {
	records []InputRecord
	head    InputFrame
	now     int
	retain  int
}

func newInputHistory(retain int) *InputHistory {
	return &InputHistory{head: neutralFrame(), retain: retain}
}

func (h *InputHistory) Head() InputFrame { return h.head }
func (h *InputHistory) Now() int         { return h.now }
func (h *InputHistory) Len() int         { return len(h.records) }

// Tick moves the history clock and drops records that can no longer match.
func (h *InputHistory) Tick(frame int) {
	if frame < h.now {
		// Round restart or rollback into an older round
		h.records = h.records[:0]
	}
	h.now = frame
	cut := 0
	for cut < len(h.records) && h.now-h.records[cut].Frame > h.retain {
		cut++
	}
	if cut > 0 {
		h.records = append(h.records[:0], h.records[cut:]...)
	}
}

func (h *InputHistory) Push(d InputDiff) {
	if d.Empty() {
		return
	}
	before := h.head
	h.head.Apply(d)
	h.records = append(h.records, InputRecord{
		Frame:  h.now,
		Events: d.Events(),
		Before: before,
		After:  h.head,
	})
}

func (h *InputHistory) clone() *InputHistory {
	c := *h
	c.records = make([]InputRecord, len(h.records))
	for i, r := range h.records {
		r.Events = slices.Clone(r.Events)
		c.records[i] = r
	}
	return &c
}

// InputParser turns controller diffs into recognized actions. Relative
// motions are matched against a history mirrored to face right.
type InputParser struct {
	motions  map[string]*MotionInput
	actions  map[string][]ActionId
	patterns []string
	relative *InputHistory
	absolute *InputHistory
	facing   Facing
	events   []ActionId
}

func newInputParser(inputs map[ActionId]string, ic InputConfig) (*InputParser, error) {
	ip := &InputParser{
		motions:  make(map[string]*MotionInput),
		actions:  make(map[string][]ActionId),
		relative: newInputHistory(ic.HistoryFrames),
		absolute: newInputHistory(ic.HistoryFrames),
	}
	ids := maps.Keys(inputs)
	slices.Sort(ids)
	for _, id := range ids {
		pattern := inputs[id]
		if pattern == "" {
			continue
		}
		if _, ok := ip.motions[pattern]; !ok {
			mi, err := CompileMotion(pattern)
			if err != nil {
				return nil, errors.Wrapf(err, "action %s", id)
			}
			if ic.MotionWindowFrames > 0 {
				mi.window = ic.MotionWindowFrames
			}
			ip.motions[pattern] = mi
			ip.patterns = append(ip.patterns, pattern)
		}
		ip.actions[pattern] = append(ip.actions[pattern], id)
	}
	slices.Sort(ip.patterns)
	return ip, nil
}

// AddFrame feeds one frame of absolute input into the parser.
func (ip *InputParser) AddFrame(d InputDiff, facing Facing, frame int) {
	ip.relative.Tick(frame)
	ip.absolute.Tick(frame)
	ip.flip(facing)
	ip.absolute.Push(d)
	if ip.facing == FacingLeft {
		d = d.Mirrored()
	}
	ip.relative.Push(d)
	ip.parseInputs()
}

// A side switch changes what forward means without the stick moving, so the
// relative history gets a synthetic stick event.
func (ip *InputParser) flip(facing Facing) {
	if ip.facing == facing {
		return
	}
	ip.facing = facing
	head := ip.relative.Head()
	if head.Stick.Mirror() == head.Stick {
		return
	}
	ip.relative.Push(InputDiff{StickMoved: true, Stick: head.Stick.Mirror()})
}

func (ip *InputParser) parseInputs() {
	for _, pattern := range ip.patterns {
		mi := ip.motions[pattern]
		hist := ip.relative
		if mi.Absolute {
			hist = ip.absolute
		}
		if mi.triggeredBy(hist) {
			ip.events = append(ip.events, ip.actions[pattern]...)
		}
	}
}

// DrainEvents returns recognized actions in id order and clears them.
func (ip *InputParser) DrainEvents() []ActionId {
	out := ip.events
	ip.events = nil
	slices.Sort(out)
	return slices.Compact(out)
}

func (ip *InputParser) Complexity(id ActionId) int {
	for _, pattern := range ip.patterns {
		if slices.Contains(ip.actions[pattern], id) {
			return ip.motions[pattern].Complexity()
		}
	}
	return 0
}

// HeadIsClear is true when nothing is held, which is what teches throws.
func (ip *InputParser) HeadIsClear() bool {
	return ip.absolute.Head().IsClear()
}

func (ip *InputParser) StickPosition() StickPosition {
	return ip.relative.Head().Stick
}

func (ip *InputParser) AbsoluteStick() StickPosition {
	return ip.absolute.Head().Stick
}

func (ip *InputParser) Held() ButtonSet {
	return ip.absolute.Head().Held
}

func (ip *InputParser) Reset() {
	ip.relative = newInputHistory(ip.relative.retain)
	ip.absolute = newInputHistory(ip.absolute.retain)
	ip.facing = FacingRight
	ip.events = nil
}

// Compiled motions are shared, only histories are copied.
func (ip *InputParser) clone() *InputParser {
	c := *ip
	c.relative = ip.relative.clone()
	c.absolute = ip.absolute.clone()
	c.events = slices.Clone(ip.events)
	return &c
}
