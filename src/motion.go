package main

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Frames allowed between two consecutive events of a motion
const defaultMotionWindow = 12

type groupMode uint8

const (
	groupNone groupMode = iota
	groupAny
	groupAll
)

type requirementGroup struct {
	mode   groupMode
	sticky bool
	events []InputEvent
}

func (rg *requirementGroup) accepts(ev InputEvent) bool {
	return slices.Contains(rg.events, ev)
}

func (rg *requirementGroup) heldIn(f InputFrame) bool {
	switch rg.mode {
	case groupAny:
		for _, e := range rg.events {
			if e.Held(f) {
				return true
			}
		}
	case groupAll:
		for _, e := range rg.events {
			if !e.Held(f) {
				return false
			}
		}
		return true
	}
	return false
}

// MotionInput is a compiled motion pattern. Groups are stored newest
// requirement first, so the last written requirement is matched first.
type MotionInput struct {
	Pattern  string
	Absolute bool
	groups   []requirementGroup
	allowed  []StickPosition
	window   int
}

type MotionError struct {
	Pattern string
	Pos     int
	Reason  string
}

func (e *MotionError) Error() string {
	return fmt.Sprintf("motion input %q: %s at %d", e.Pattern, e.Reason, e.Pos)
}

func eventFromRune(r rune) (InputEvent, bool) {
	if sp, ok := StickFromDigit(r); ok {
		return Point(sp), true
	}
	switch r {
	case 'f':
		return Press(ButtonFast), true
	case 'F':
		return Release(ButtonFast), true
	case 's':
		return Press(ButtonStrong), true
	case 'S':
		return Release(ButtonStrong), true
	case 'w':
		return Press(ButtonWrestling), true
	case 'W':
		return Release(ButtonWrestling), true
	case 'g':
		return Press(ButtonGimmick), true
	case 'G':
		return Release(ButtonGimmick), true
	case '.':
		return Press(ButtonStart), true
	case ',':
		return Press(ButtonSelect), true
	}
	return InputEvent{}, false
}

// CompileMotion parses the motion input notation.
func CompileMotion(pattern string) (*MotionInput, error) {
	fail := func(pos int, reason string) (*MotionInput, error) {
		return nil, &MotionError{Pattern: pattern, Pos: pos, Reason: reason}
	}
	body, meta, hasMeta := strings.Cut(pattern, "|")
	if body == "" {
		return fail(0, "empty pattern")
	}

	mi := &MotionInput{Pattern: pattern, window: defaultMotionWindow}
	var groups []requirementGroup
	var open *requirementGroup
	var closer rune
	for pos, r := range body {
		switch r {
		case '[', '(':
			if open != nil {
				return fail(pos, "nested group")
			}
			open = &requirementGroup{mode: groupAny}
			closer = ']'
			if r == '(' {
				open.mode = groupAll
				closer = ')'
			}
		case ']', ')':
			if open == nil {
				return fail(pos, "closing bracket without opener")
			}
			if r != closer {
				return fail(pos, "mismatched bracket")
			}
			if len(open.events) == 0 {
				return fail(pos, "empty group")
			}
			groups = append(groups, *open)
			open = nil
		case '+':
			if len(groups) == 0 {
				return fail(pos, "sticky modifier as first symbol")
			}
			if open != nil {
				return fail(pos, "sticky modifier inside group")
			}
			groups[len(groups)-1].sticky = true
		default:
			ev, ok := eventFromRune(r)
			if !ok {
				return fail(pos, fmt.Sprintf("unknown symbol %q", r))
			}
			if open != nil {
				open.events = append(open.events, ev)
			} else {
				groups = append(groups, requirementGroup{mode: groupAny, events: []InputEvent{ev}})
			}
		}
	}
	if open != nil {
		return fail(len(body), "unclosed group")
	}

	if hasMeta {
		for i, r := range meta {
			if r == 'A' {
				mi.Absolute = true
			} else if sp, ok := StickFromDigit(r); ok {
				mi.allowed = append(mi.allowed, sp)
			} else {
				return fail(len(body)+1+i, fmt.Sprintf("unknown metadata character %q", r))
			}
		}
	}

	for i, j := 0, len(groups)-1; i < j; i, j = i+1, j-1 {
		groups[i], groups[j] = groups[j], groups[i]
	}
	mi.groups = groups
	return mi, nil
}

// Requirement group count, used to prefer specific commands
func (mi *MotionInput) Complexity() int {
	return len(mi.groups)
}

func (mi *MotionInput) stickAllowed(sp StickPosition) bool {
	return len(mi.allowed) == 0 || slices.Contains(mi.allowed, sp)
}

// ContainedIn reports whether the history ends with this motion. The newest
// consumed event must be within the motion window of the history head.
func (mi *MotionInput) ContainedIn(h *InputHistory) bool {
	recs := h.records
	for i := len(recs) - 1; i >= 0; i-- {
		if h.now-recs[i].Frame > mi.window {
			break
		}
		if mi.matchAt(recs, i) {
			return true
		}
	}
	return false
}

// triggeredBy is true when the newest history record completes the motion.
func (mi *MotionInput) triggeredBy(h *InputHistory) bool {
	n := len(h.records)
	if n == 0 || h.records[n-1].Frame != h.now {
		return false
	}
	return mi.matchAt(h.records, n-1)
}

func (mi *MotionInput) matchAt(recs []InputRecord, anchor int) bool {
	if len(mi.groups) == 0 {
		logger.Errorw("motion input without requirements", "pattern", mi.Pattern)
		return false
	}
	m := motionMatcher{mi: mi, recs: recs}
	return m.search(0, matchCursor{rec: anchor, frame: recs[anchor].Frame}, true)
}

type matchCursor struct {
	rec   int
	used  uint32
	frame int
}

type motionMatcher struct {
	mi   *MotionInput
	recs []InputRecord
}

// search walks requirement groups newest first, consuming history backwards
// from cur. Anchored searches must consume from cur.rec itself.
func (m *motionMatcher) search(g int, cur matchCursor, anchored bool) bool {
	groups := m.mi.groups
	if g == len(groups) {
		return true
	}
	// Leading requirements may be satisfied by what is already held
	if !anchored && m.heldPrefix(g, m.recs[cur.rec].Before) {
		return true
	}
	grp := &groups[g]
	switch grp.mode {
	case groupAny:
		return m.searchAny(g, grp, cur, anchored)
	case groupAll:
		if next, ok := m.completeAll(grp, cur, anchored); ok {
			return m.search(g+1, next, false)
		}
		return false
	}
	logger.Errorw("requirement group without mode", "pattern", m.mi.Pattern, "group", g)
	return false
}

func (m *motionMatcher) heldPrefix(g int, state InputFrame) bool {
	if !m.mi.stickAllowed(state.Stick) {
		return false
	}
	for i := g; i < len(m.mi.groups); i++ {
		if !m.mi.groups[i].heldIn(state) {
			return false
		}
	}
	return true
}

func (m *motionMatcher) searchAny(g int, grp *requirementGroup, cur matchCursor, anchored bool) bool {
	for r := cur.rec; r >= 0; r-- {
		rec := &m.recs[r]
		if cur.frame-rec.Frame > m.mi.window {
			break
		}
		if anchored && r != cur.rec {
			break
		}
		if !m.mi.stickAllowed(rec.After.Stick) {
			continue
		}
		for e, ev := range rec.Events {
			if r == cur.rec && cur.used&(1<<e) != 0 {
				continue
			}
			if !grp.accepts(ev) {
				continue
			}
			if grp.sticky && m.negatedBetween([]InputEvent{ev}, r, e, cur.rec) {
				continue
			}
			next := matchCursor{rec: r, used: 1 << e, frame: rec.Frame}
			if r == cur.rec {
				next.used |= cur.used
			}
			if m.search(g+1, next, false) {
				return true
			}
		}
	}
	return false
}

// completeAll consumes history until every event of the group has been seen.
func (m *motionMatcher) completeAll(grp *requirementGroup, cur matchCursor, anchored bool) (matchCursor, bool) {
	remaining := make([]InputEvent, len(grp.events))
	copy(remaining, grp.events)
	var matched []InputEvent
	last := cur.frame
	for r := cur.rec; r >= 0; r-- {
		rec := &m.recs[r]
		if last-rec.Frame > m.mi.window {
			break
		}
		used := uint32(0)
		if r == cur.rec {
			used = cur.used
		}
		consumed := false
		for e, ev := range rec.Events {
			if used&(1<<e) != 0 {
				continue
			}
			for i, want := range remaining {
				if want == ev {
					remaining = append(remaining[:i], remaining[i+1:]...)
					matched = append(matched, ev)
					used |= 1 << e
					consumed = true
					break
				}
			}
		}
		if consumed {
			if !m.mi.stickAllowed(rec.After.Stick) {
				return matchCursor{}, false
			}
			last = rec.Frame
		} else if anchored && r == cur.rec {
			return matchCursor{}, false
		}
		if len(remaining) == 0 {
			if grp.sticky && m.negatedBetween(matched, r, -1, cur.rec) {
				return matchCursor{}, false
			}
			return matchCursor{rec: r, used: used, frame: rec.Frame}, true
		}
	}
	return matchCursor{}, false
}

// negatedBetween looks for an event undoing one of held after position
// (rec, idx) and before the record at until.
func (m *motionMatcher) negatedBetween(held []InputEvent, rec, idx, until int) bool {
	for r := rec; r < until; r++ {
		for e, ev := range m.recs[r].Events {
			if r == rec && e <= idx {
				continue
			}
			for _, h := range held {
				if h.Negates(ev) {
					return true
				}
			}
		}
	}
	return false
}
