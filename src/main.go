package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var Version = "development"
var BuildTime = ""

// Checks if error is not null, if there is an error it is reported and the program exits.
func chk(err error) {
	if err != nil {
		logger.Errorw("fatal", "err", err)
		syncLogger()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Extended version of 'chk()'
func chkEX(err error, txt string, crash bool) bool {
	if err != nil {
		logger.Errorw(txt, "err", err)
		if crash {
			chk(errors.Wrap(err, strings.TrimSpace(txt)))
		}
		return true
	}
	return false
}

// loadMoveset picks a loader by extension. No extension is the built in dummy.
func loadMoveset(path string, ic InputConfig) (*Character, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "":
		return newDummy(ic)
	case ".lua":
		return loadLuaCharacter(path, ic)
	case ".json":
		return loadJSONCharacter(path, ic)
	}
	return nil, errors.Errorf("unsupported moveset %q", path)
}

func main() {
	os.Mkdir("save", os.ModeSticky|0755)

	flags := processCommandLine(os.Args[1:])
	if _, ok := flags["-config"]; !ok {
		flags["-config"] = "save/config.ini"
	}
	if _, ok := flags["-stats"]; !ok {
		flags["-stats"] = "save/stats.json"
	}

	cfg, err := loadConfig(flags["-config"])
	chk(err)
	if v, ok := flags["-log"]; ok {
		cfg.Debug.LogFile = v
	}
	if _, ok := flags["-verbose"]; ok {
		cfg.Debug.Verbose = true
	}
	if _, ok := flags["-synctest"]; ok {
		cfg.Rollback.DesyncTest = true
	}
	chk(initLogger(cfg.Debug.LogFile, cfg.Debug.Verbose))
	defer syncLogger()
	logger.Infow("starting", "version", Version, "build", BuildTime)

	var chars [2]*Character
	for i, key := range [...]string{"-p1", "-p2"} {
		path := flags[key]
		if path == "" {
			path = flags["-moves"]
		}
		chars[i], err = loadMoveset(path, cfg.Input)
		chkEX(err, fmt.Sprintf("Player %d moveset: ", i+1), true)
	}

	if out, ok := flags["-report"]; ok {
		data, err := FrameDataReport(chars[0], cfg.Input)
		chk(err)
		if out == "" || out == "true" || out == "-" {
			fmt.Println(string(data))
			return
		}
		chk(os.WriteFile(out, data, 0o644))
		return
	}

	var replay [][2]InputBits
	if path, ok := flags["-inputs"]; ok {
		replay, err = loadReplay(path)
		chk(err)
	}
	frames := len(replay)
	if v, ok := flags["-frames"]; ok {
		frames, err = strconv.Atoi(v)
		chkEX(err, "Invalid -frames: ", true)
	}
	if frames <= 0 {
		frames = 60 * framesPerSecond
	}

	m, err := NewMatch(cfg, chars)
	chk(err)
	chk(runMatch(m, cfg, replay, frames))

	for i, pv := range m.Players() {
		fmt.Printf("P%d %-12s health %4d meter %4d  %s\n", i+1, chars[i].Name, pv.Health, pv.Meter, pv.State)
	}
	if out := flags["-stats"]; out != "" {
		chkEX(m.stats.Save(out), "Could not save stats: ", false)
	}
}

// runMatch steps the match with the replay, padding with neutral input.
// In sync test mode every frame goes through the rollback session.
func runMatch(m *Match, cfg *Config, replay [][2]InputBits, frames int) error {
	var rs *RollbackSystem
	if cfg.Rollback.DesyncTest {
		var err error
		if rs, err = newRollbackSystem(m, cfg.Rollback); err != nil {
			return err
		}
		defer rs.Close()
	}
	for f := 0; f < frames; f++ {
		var in [2]InputBits
		if f < len(replay) {
			in = replay[f]
		}
		var res FrameResult
		if rs != nil {
			var err error
			if res, err = rs.runFrame(in); err != nil {
				return err
			}
		} else {
			res = m.Step(in)
		}
		for _, n := range res.Notifications {
			fmt.Printf("%6d P%d %s\n", n.Frame, n.Player+1, n.Message)
		}
		for _, pv := range m.Players() {
			if pv.Health <= 0 {
				logger.Infow("knockout", "frame", m.Frame())
				return nil
			}
		}
	}
	return nil
}

// Loops through given command line arguments and processes them for later use
func processCommandLine(args []string) map[string]string {
	flags := make(map[string]string)
	boolFlags := map[string]bool{
		"-synctest": true,
		"-verbose":  true,
	}
	key := ""
	player := 1
	flagsEncountered := false
	r1, _ := regexp.Compile("^-[h%?]$")
	r2, _ := regexp.Compile("^-")
	for _, a := range args {
		_, err := strconv.ParseFloat(a, 64)
		isNumber := err == nil

		if key != "" && (isNumber || !r2.MatchString(a)) {
			flags[key] = a
			key = ""
		} else if r2.MatchString(a) {
			flagsEncountered = true
			if r1.MatchString(a) {
				fmt.Print(`Options (case sensitive):
-h -?                   Help
-config <file>          Loads config from <file> (default save/config.ini)
-moves <file>           Moveset for both players (.lua or .json)
-p<n> <file>            Moveset for player n
-inputs <file>          Replays scripted inputs from a json file
-frames <num>           Number of frames to simulate
-synctest               Runs every frame through a rollback sync test
-report [file]          Writes player 1's frame data as json and exits
-stats <file>           Accumulates match statistics into <file>
-log <file>             Log file
-verbose                Logs every gameplay notification
`)
				os.Exit(0)
			}
			if _, isBool := boolFlags[a]; isBool {
				flags[a] = "true"
			} else {
				flags[a] = ""
				key = a
			}
		} else if !flagsEncountered && player <= 2 {
			flags[fmt.Sprintf("-p%v", player)] = a
			player += 1
		}
	}
	if key != "" {
		flags[key] = "true"
	}
	return flags
}
