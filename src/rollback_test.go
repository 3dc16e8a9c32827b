package main

import (
	"testing"
)

func TestInputCodec(t *testing.T) {
	in := [2]InputBits{stickBits(StickSE, ButtonFast), stickBits(StickN, ButtonStrong, ButtonGimmick)}
	got := decodeInputs([][]byte{encodeInputs(in[0]), encodeInputs(in[1])})
	if got != in {
		t.Fatalf("decodeInputs = %v, want %v", got, in)
	}
	if readI32([]byte{1, 2}) != 0 {
		t.Fatalf("short buffers should decode to zero")
	}
	if v := readI32(writeI32(-123456)); v != -123456 {
		t.Fatalf("readI32(writeI32) = %d", v)
	}
}

func TestRollbackSessionSaveLoad(t *testing.T) {
	m := newTestMatch(t)
	r := NewRollbackSession(m, defaultConfigValues().Rollback)
	play(m, 30, scriptedInputs)

	sum := r.SaveGameState(1)
	if uint32(sum) != m.Checksum() {
		t.Fatalf("SaveGameState returned %08x, match checksum %08x", uint32(sum), m.Checksum())
	}
	play(m, 90, scriptedInputs)
	r.LoadGameState(1)
	if m.Frame() != 30 || int(m.Checksum()) != sum {
		t.Fatalf("LoadGameState restored frame %d checksum %08x", m.Frame(), m.Checksum())
	}

	// Unknown states are logged and ignored
	r.LoadGameState(7)
	if m.Frame() != 30 {
		t.Fatalf("loading an unknown state changed the match")
	}
}

func TestSyncTestMatchesPlainStepping(t *testing.T) {
	m, plain := newTestMatch(t), newTestMatch(t)
	rs, err := newRollbackSystem(m, defaultConfigValues().Rollback)
	if err != nil {
		t.Fatalf("newRollbackSystem: %v", err)
	}
	defer rs.Close()

	// Every few frames the backend rolls back and resimulates, panicking
	// if a checksum differs
	for f := 1; f <= 40; f++ {
		if _, err := rs.runFrame(scriptedInputs(f)); err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		plain.Step(scriptedInputs(f))
	}
	if m.Frame() != 40 || m.Checksum() != plain.Checksum() {
		t.Fatalf("sync test ended on frame %d checksum %08x, want 40 %08x", m.Frame(), m.Checksum(), plain.Checksum())
	}
}
