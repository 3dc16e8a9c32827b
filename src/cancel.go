package main

import (
	"golang.org/x/exp/slices"
)

type CancelKind uint8

const (
	CancelSpecial CancelKind = iota
	CancelSuper
	CancelSpecific
	CancelAnything
)

// CancelType names what may interrupt the current action.
type CancelType struct {
	Kind CancelKind
	Ids  []ActionId
}

func specialCancel() CancelType { return CancelType{Kind: CancelSpecial} }
func superCancel() CancelType   { return CancelType{Kind: CancelSuper} }
func anyCancel() CancelType     { return CancelType{Kind: CancelAnything} }
func specificCancel(ids ...ActionId) CancelType {
	return CancelType{Kind: CancelSpecific, Ids: ids}
}

// Admits checks a starter category and id against the cancel type.
// Special cancels also accept supers.
func (ct CancelType) Admits(category ActionCategory, id ActionId) bool {
	switch ct.Kind {
	case CancelSpecial:
		return category == CategorySpecial || category == CategorySuper
	case CancelSuper:
		return category == CategorySuper
	case CancelSpecific:
		return slices.Contains(ct.Ids, id)
	case CancelAnything:
		return true
	}
	return false
}

// CancelRule is what an action declares, the window is what it becomes.
type CancelRule struct {
	Type       CancelType
	Duration   int
	RequireHit bool
}

func cancelRule(ct CancelType, duration int) CancelRule {
	return CancelRule{Type: ct, Duration: duration}
}

func (cr CancelRule) OnHit() CancelRule {
	cr.RequireHit = true
	return cr
}

type CancelWindow struct {
	From, To   int
	RequireHit bool
	Cancel     CancelType
}

func (cr CancelRule) open(frame int) CancelWindow {
	return CancelWindow{
		From:       frame,
		To:         frame + cr.Duration,
		RequireHit: cr.RequireHit,
		Cancel:     cr.Type,
	}
}

// Both ends of the window are inclusive.
func (cw CancelWindow) Open(frame int) bool {
	return cw.From <= frame && frame <= cw.To
}

func (cw CancelWindow) Accepts(frame int, hasHit bool, category ActionCategory, id ActionId) bool {
	if !cw.Open(frame) {
		return false
	}
	if cw.RequireHit && !hasHit {
		return false
	}
	return cw.Cancel.Admits(category, id)
}

// pruneWindows drops windows that closed before frame.
func pruneWindows(windows []CancelWindow, frame int) []CancelWindow {
	out := windows[:0]
	for _, w := range windows {
		if w.To >= frame {
			out = append(out, w)
		}
	}
	return out
}
