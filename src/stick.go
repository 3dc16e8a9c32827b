package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// StickPosition uses numpad notation, 5 is neutral.
type StickPosition int8

const (
	StickSW StickPosition = iota + 1
	StickS
	StickSE
	StickW
	StickNeutral
	StickE
	StickNW
	StickN
	StickNE
)

var stickNames = [...]string{"", "SW", "S", "SE", "W", "Neutral", "E", "NW", "N", "NE"}

func (sp StickPosition) String() string {
	if sp < StickSW || sp > StickNE {
		return fmt.Sprintf("StickPosition(%d)", int8(sp))
	}
	return stickNames[sp]
}

// StickFromVec converts a signed direction (each axis in -1..1) to a stick position.
func StickFromVec(x, y int) StickPosition {
	x, y = clampI(x, -1, 1), clampI(y, -1, 1)
	return StickPosition(5 + x + 3*y)
}

func (sp StickPosition) Vec() (x, y int) {
	if sp < StickSW || sp > StickNE {
		return 0, 0
	}
	i := int(sp) - 1
	return i%3 - 1, i/3 - 1
}

func (sp StickPosition) Vec2() mgl32.Vec2 {
	x, y := sp.Vec()
	return mgl32.Vec2{float32(x), float32(y)}
}

// Mirror swaps left and right.
func (sp StickPosition) Mirror() StickPosition {
	x, y := sp.Vec()
	return StickFromVec(-x, y)
}

func (sp StickPosition) Digit() rune {
	return rune('0' + sp)
}

func StickFromDigit(r rune) (StickPosition, bool) {
	if r < '1' || r > '9' {
		return 0, false
	}
	return StickPosition(r - '0'), true
}

// Pointing away from the opponent, facing relative
func (sp StickPosition) Back() bool {
	x, _ := sp.Vec()
	return x < 0
}

func (sp StickPosition) Down() bool {
	_, y := sp.Vec()
	return y < 0
}

type Button uint8

const (
	ButtonStart Button = iota
	ButtonSelect
	ButtonFast
	ButtonStrong
	ButtonWrestling
	ButtonGimmick
	numButtons
)

var buttonNames = [...]string{"Start", "Select", "Fast", "Strong", "Wrestling", "Gimmick"}

func (b Button) String() string {
	if b >= numButtons {
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
	return buttonNames[b]
}

// Character used by the motion input notation
func (b Button) DSL() rune {
	switch b {
	case ButtonStart:
		return '.'
	case ButtonSelect:
		return ','
	case ButtonFast:
		return 'f'
	case ButtonStrong:
		return 's'
	case ButtonWrestling:
		return 'w'
	case ButtonGimmick:
		return 'g'
	}
	return '?'
}

// ButtonSet is a bitmask of held buttons.
type ButtonSet uint8

func buttonSetOf(buttons ...Button) ButtonSet {
	var bs ButtonSet
	for _, b := range buttons {
		bs = bs.With(b)
	}
	return bs
}

func (bs ButtonSet) Has(b Button) bool          { return bs&(1<<b) != 0 }
func (bs ButtonSet) With(b Button) ButtonSet    { return bs | 1<<b }
func (bs ButtonSet) Without(b Button) ButtonSet { return bs &^ (1 << b) }
func (bs ButtonSet) Empty() bool                { return bs == 0 }

func (bs ButtonSet) Buttons() []Button {
	var out []Button
	for b := Button(0); b < numButtons; b++ {
		if bs.Has(b) {
			out = append(out, b)
		}
	}
	return out
}

type InputEventKind uint8

const (
	EventPoint InputEventKind = iota
	EventPress
	EventRelease
)

// InputEvent is a single observed change in controller state.
type InputEvent struct {
	Kind   InputEventKind
	Stick  StickPosition
	Button Button
}

func Point(sp StickPosition) InputEvent { return InputEvent{Kind: EventPoint, Stick: sp} }
func Press(b Button) InputEvent         { return InputEvent{Kind: EventPress, Button: b} }
func Release(b Button) InputEvent       { return InputEvent{Kind: EventRelease, Button: b} }

func (ie InputEvent) Mirror() InputEvent {
	if ie.Kind == EventPoint {
		ie.Stick = ie.Stick.Mirror()
	}
	return ie
}

// Negates reports whether other undoes ie. Releasing negates a press of the
// same button, pointing anywhere else negates a point.
func (ie InputEvent) Negates(other InputEvent) bool {
	switch ie.Kind {
	case EventPoint:
		return other.Kind == EventPoint && other.Stick != ie.Stick
	case EventPress:
		return other.Kind == EventRelease && other.Button == ie.Button
	case EventRelease:
		return other.Kind == EventPress && other.Button == ie.Button
	}
	return false
}

// Held reports whether the accumulated frame state already satisfies the event.
func (ie InputEvent) Held(f InputFrame) bool {
	switch ie.Kind {
	case EventPoint:
		return f.Stick == ie.Stick
	case EventPress:
		return f.Held.Has(ie.Button)
	}
	return false
}

func (ie InputEvent) String() string {
	switch ie.Kind {
	case EventPoint:
		return string(ie.Stick.Digit())
	case EventPress:
		return string(ie.Button.DSL())
	case EventRelease:
		r := ie.Button.DSL()
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		return string(r)
	}
	return "?"
}

type Facing int8

const (
	FacingRight Facing = iota
	FacingLeft
)

func (f Facing) Opposite() Facing {
	if f == FacingLeft {
		return FacingRight
	}
	return FacingLeft
}

func (f Facing) Sign() float32 {
	if f == FacingLeft {
		return -1
	}
	return 1
}

func (f Facing) MirrorStick(sp StickPosition) StickPosition {
	if f == FacingLeft {
		return sp.Mirror()
	}
	return sp
}

func (f Facing) MirrorVec(v mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{v[0] * f.Sign(), v[1]}
}

func (f Facing) String() string {
	if f == FacingLeft {
		return "Left"
	}
	return "Right"
}

// InputBits is the per frame controller state exchanged over the network.
type InputBits uint16

const (
	IB_PU InputBits = 1 << iota
	IB_PD
	IB_PL
	IB_PR
	IB_F
	IB_S
	IB_W
	IB_G
	IB_ST
	IB_SE
	IB_anybutton = IB_F | IB_S | IB_W | IB_G | IB_ST | IB_SE
)

var buttonBits = [numButtons]InputBits{
	ButtonStart:     IB_ST,
	ButtonSelect:    IB_SE,
	ButtonFast:      IB_F,
	ButtonStrong:    IB_S,
	ButtonWrestling: IB_W,
	ButtonGimmick:   IB_G,
}

func Btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Save local inputs as input bits to send or record
func (ibit *InputBits) KeysToBits(U, D, L, R bool, held ButtonSet) {
	*ibit = InputBits(Btoi(U) | Btoi(D)<<1 | Btoi(L)<<2 | Btoi(R)<<3)
	for b := Button(0); b < numButtons; b++ {
		if held.Has(b) {
			*ibit |= buttonBits[b]
		}
	}
}

// Stick resolves the directional bits into an absolute stick position.
// Up beats down and opposing horizontals cancel out.
func (ibit InputBits) Stick() StickPosition {
	U, D := ibit&IB_PU != 0, ibit&IB_PD != 0
	L, R := ibit&IB_PL != 0, ibit&IB_PR != 0
	if U && D {
		D = false
	}
	if L && R {
		L, R = false, false
	}
	return StickFromVec(Btoi(R)-Btoi(L), Btoi(U)-Btoi(D))
}

func (ibit InputBits) Buttons() ButtonSet {
	var bs ButtonSet
	for b := Button(0); b < numButtons; b++ {
		if ibit&buttonBits[b] != 0 {
			bs = bs.With(b)
		}
	}
	return bs
}

func bitsFromState(sp StickPosition, held ButtonSet) InputBits {
	x, y := sp.Vec()
	var ib InputBits
	ib.KeysToBits(y > 0, y < 0, x < 0, x > 0, held)
	return ib
}

// Diff produces the diff needed to go from prev to ibit, stick first.
func (ibit InputBits) Diff(prev InputBits) InputDiff {
	var d InputDiff
	if sp := ibit.Stick(); sp != prev.Stick() {
		d.Stick = sp
		d.StickMoved = true
	}
	old, cur := prev.Buttons(), ibit.Buttons()
	d.Pressed = cur &^ old
	d.Released = old &^ cur
	return d
}
