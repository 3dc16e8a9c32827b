package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tidwall/gjson"
)

func TestDisplayName(t *testing.T) {
	tests := []struct{ in, want string }{
		{in: "jump_forward", want: "Jump Forward"},
		{in: "jab", want: "Jab"},
		{in: "throw_hit", want: "Throw Hit"},
	}
	for _, tt := range tests {
		if got := displayName(tt.in); got != tt.want {
			t.Fatalf("displayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFrameDataReport(t *testing.T) {
	ic := defaultConfigValues().Input
	dummy, err := newDummy(ic)
	if err != nil {
		t.Fatalf("newDummy: %v", err)
	}
	data, err := FrameDataReport(dummy, ic)
	if err != nil {
		t.Fatalf("FrameDataReport: %v", err)
	}
	if got := gjson.GetBytes(data, "character").String(); got != "Dummy" {
		t.Fatalf("character = %q, want Dummy", got)
	}

	jab := gjson.GetBytes(data, "moves.jab")
	if !jab.Exists() {
		t.Fatalf("report has no jab: %s", data)
	}
	tests := []struct {
		path string
		want int64
	}{
		{path: "startup", want: 5},
		{path: "active", want: 3},
		{path: "total", want: 21},
		{path: "complexity", want: 1},
	}
	for _, tt := range tests {
		if got := jab.Get(tt.path).Int(); got != tt.want {
			t.Fatalf("jab %s = %d, want %d", tt.path, got, tt.want)
		}
	}
	if got := jab.Get("category").String(); got != "Normal" {
		t.Fatalf("jab category = %q", got)
	}
	if gjson.GetBytes(data, "moves.parry.startup").Exists() {
		t.Fatalf("parry has no hitbox but reports a startup")
	}
	if n := len(gjson.GetBytes(data, "moves").Map()); n != len(dummy.Moves) {
		t.Fatalf("report lists %d moves, dummy has %d", n, len(dummy.Moves))
	}
}

func TestMatchStatsSaveAccumulates(t *testing.T) {
	file := filepath.Join(t.TempDir(), "stats.json")
	ms := newMatchStats("dummy", "dummy.v2")
	ms.opener(0)
	ms.connection(0, ConnStrike)
	ms.connection(0, ConnStrike)
	ms.connection(1, ConnBlock)
	ms.link(1, LinkPerfect)
	ms.throwClash()
	ms.comboEnded(0, Combo{Hits: 4})

	for i := 0; i < 2; i++ {
		if err := ms.Save(file); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	tests := []struct {
		path string
		want int64
	}{
		{path: "matches", want: 2},
		{path: "throwClashes", want: 2},
		{path: "characters.dummy.played", want: 2},
		{path: "characters.dummy.openers", want: 2},
		{path: "characters.dummy.connections.Strike", want: 4},
		{path: "characters.dummy.longestCombo", want: 4},
		{path: `characters.dummy\.v2.connections.Block`, want: 2},
		{path: `characters.dummy\.v2.links.perfect`, want: 2},
	}
	for _, tt := range tests {
		if got := gjson.GetBytes(data, tt.path).Int(); got != tt.want {
			t.Fatalf("%s = %d, want %d", tt.path, got, tt.want)
		}
	}
}
