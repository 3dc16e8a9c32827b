package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const numConnectionTypes = int(ConnStunlock) + 1

// MatchStats tallies what happened during a match. It changes every frame
// so it is rolled back with the rest of the state.
type MatchStats struct {
	Names        [2]string
	Connections  [2][numConnectionTypes]int
	Openers      [2]int
	Links        [2][3]int
	LongestCombo [2]int
	Clashes      int
	ThrowClashes int
}

func newMatchStats(p1, p2 string) *MatchStats {
	return &MatchStats{Names: [2]string{p1, p2}}
}

func (ms *MatchStats) clone() *MatchStats {
	c := *ms
	return &c
}

func (ms *MatchStats) connection(slot int, kind ConnectionType) {
	ms.Connections[slot][kind]++
}

func (ms *MatchStats) opener(slot int) { ms.Openers[slot]++ }
func (ms *MatchStats) clash()          { ms.Clashes++ }
func (ms *MatchStats) throwClash()     { ms.ThrowClashes++ }

func (ms *MatchStats) link(slot int, lp LinkPrecision) {
	ms.Links[slot][lp]++
}

func (ms *MatchStats) comboEnded(slot int, c Combo) {
	if c.Hits > ms.LongestCombo[slot] {
		ms.LongestCombo[slot] = c.Hits
	}
}

// displayName turns an id like "jump_forward" into "Jump Forward".
func displayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "_", " "))
}

// sjson paths treat dots and wildcards as syntax.
func pathKey(s string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return r.Replace(s)
}

// Save adds this match to the running totals kept in file.
func (ms *MatchStats) Save(file string) error {
	data, _ := os.ReadFile(file)
	if len(data) == 0 {
		data = []byte(`{}`)
	}
	var err error
	add := func(path string, n int) {
		if err != nil {
			return
		}
		cur := gjson.GetBytes(data, path).Int()
		data, err = sjson.SetBytes(data, path, cur+int64(n))
	}

	add("matches", 1)
	add("clashes", ms.Clashes)
	add("throwClashes", ms.ThrowClashes)
	for slot, name := range ms.Names {
		base := "characters." + pathKey(name)
		add(base+".played", 1)
		add(base+".openers", ms.Openers[slot])
		for kind, n := range ms.Connections[slot] {
			add(base+".connections."+ConnectionType(kind).String(), n)
		}
		for lp, n := range ms.Links[slot] {
			add(base+".links."+[...]string{"perfect", "good", "fine"}[lp], n)
		}
		if gjson.GetBytes(data, base+".longestCombo").Int() < int64(ms.LongestCombo[slot]) && err == nil {
			data, err = sjson.SetBytes(data, base+".longestCombo", ms.LongestCombo[slot])
		}
	}
	if err != nil {
		return errors.Wrap(err, "failed to update stats")
	}
	return os.WriteFile(file, data, 0o644)
}

const maxProbeFrames = 600

// moveData is what probing a move's script reveals.
type moveData struct {
	startup, active, end int
	hasHit, hasEnd       bool
}

// probeMove runs the script on a synthetic timeline, the same way the match
// would for an uninterrupted action.
func probeMove(c *Character, a *Action) moveData {
	var md moveData
	tr := newActionTracker(a.Id, 0, false)
	s := &Situation{
		Tracker:   tr,
		Grounded:  true,
		Stats:     c.BaseStats,
		Resources: newGauges(c.BaseStats, c.Gauges),
		Inventory: c.startingInventory(),
	}
	for f := 0; f < maxProbeFrames; f++ {
		s.Frame = f
		for _, ev := range a.Script(s) {
			switch ev.Kind {
			case EvSpawnHitbox:
				if !md.hasHit {
					md.hasHit = true
					md.startup = f
					md.active = ev.Attack.Lifetime.Frames
				}
			case EvEnd:
				if !md.hasEnd {
					md.hasEnd = true
					md.end = f
				}
			}
		}
		if md.hasEnd || a.Transient {
			break
		}
	}
	return md
}

// FrameDataReport describes every move of c as JSON.
func FrameDataReport(c *Character, ic InputConfig) ([]byte, error) {
	data := []byte(`{}`)
	var err error
	set := func(path string, v interface{}) {
		if err == nil {
			data, err = sjson.SetBytes(data, path, v)
		}
	}
	set("character", displayName(c.Name))

	parser, perr := newInputParser(c.Inputs(), ic)
	if perr != nil {
		return nil, perr
	}
	for _, id := range c.MoveIds() {
		a := c.Moves[id]
		base := "moves." + pathKey(string(id))
		set(base+".name", displayName(string(id)))
		set(base+".category", a.Category.String())
		if a.Input != "" {
			set(base+".input", a.Input)
			set(base+".complexity", parser.Complexity(id))
		}
		md := probeMove(c, a)
		if md.hasHit {
			set(base+".startup", md.startup)
			set(base+".active", md.active)
		}
		if md.hasEnd {
			set(base+".total", md.end)
		}
		if a.Transient {
			set(base+".transient", true)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "frame data for %s", c.Name)
	}
	return data, nil
}
