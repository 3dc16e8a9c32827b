package main

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

//go:embed resources/defaultConfig.ini
var defaultConfig []byte

type InputConfig struct {
	// Frames a recognized input waits in the move buffer
	BufferFrames int `ini:"BufferFrames"`
	// Max gap between two consecutive events of a motion
	MotionWindowFrames int `ini:"MotionWindowFrames"`
	HistoryFrames      int `ini:"HistoryFrames"`
	KaraWindow         int `ini:"KaraWindow"`
}

type CombatConfig struct {
	FramesBetweenHits  int     `ini:"FramesBetweenHits"`
	ClashMeterGain     int     `ini:"ClashMeterGain"`
	ParryMeterGain     int     `ini:"ParryMeterGain"`
	PerfectLinkMeter   int     `ini:"PerfectLinkMeter"`
	GoodLinkMeter      int     `ini:"GoodLinkMeter"`
	PerfectLinkDelta   int     `ini:"PerfectLinkDelta"`
	GoodLinkDelta      int     `ini:"GoodLinkDelta"`
	StreakResetFrames  int     `ini:"StreakResetFrames"`
	StreakMinimum      int     `ini:"StreakMinimum"`
	StreakRewardFloor  int     `ini:"StreakRewardFloor"`
	StreakRewardRamp   int     `ini:"StreakRewardRamp"`
	ThrowClashPushback float32 `ini:"ThrowClashPushback"`
	ChipDamage         int     `ini:"ChipDamage"`
	OnHitHitstop       int     `ini:"OnHitHitstop"`
	OnBlockHitstop     int     `ini:"OnBlockHitstop"`
	OnThrowHitstop     int     `ini:"OnThrowHitstop"`
	QuickRiseFrames    int     `ini:"QuickRiseFrames"`
}

type StageConfig struct {
	Width         float32 `ini:"Width"`
	Height        float32 `ini:"Height"`
	GroundY       float32 `ini:"GroundY"`
	SpawnDistance float32 `ini:"SpawnDistance"`
	// Broad phase grid cell, in grid units
	CellSize int `ini:"CellSize"`
}

type RollbackProperties struct {
	FrameDelay            int  `ini:"FrameDelay"`
	DisconnectNotifyStart int  `ini:"DisconnectNotifyStart"`
	DisconnectTimeout     int  `ini:"DisconnectTimeout"`
	LogsEnabled           bool `ini:"LogsEnabled"`
	DesyncTest            bool `ini:"DesyncTest"`
	DesyncTestFrames      int  `ini:"DesyncTestFrames"`
}

type DebugConfig struct {
	LogFile string `ini:"LogFile"`
	Verbose bool   `ini:"Verbose"`
}

type Config struct {
	Def      string             `ini:"-"`
	IniFile  *ini.File          `ini:"-"`
	Input    InputConfig        `ini:"Input"`
	Combat   CombatConfig       `ini:"Combat"`
	Stage    StageConfig        `ini:"Stage"`
	Rollback RollbackProperties `ini:"Rollback"`
	Debug    DebugConfig        `ini:"Debug"`
}

var iniOptions = ini.LoadOptions{
	Insensitive:                false,
	IgnoreInlineComment:        false,
	SkipUnrecognizableLines:    true,
	AllowShadows:               false,
	UnparseableSections:        []string{},
	AllowPythonMultilineValues: false,
}

// Loads the embedded defaults and layers the file at def over them, if it
// exists.
func loadConfig(def string) (*Config, error) {
	sources := []interface{}{defaultConfig}
	if def != "" {
		if _, err := os.Stat(def); err == nil {
			sources = append(sources, def)
		}
	}
	iniFile, err := ini.LoadSources(iniOptions, sources[0], sources[1:]...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config %q", def)
	}
	var c Config
	if err := iniFile.MapTo(&c); err != nil {
		return nil, errors.Wrap(err, "failed to map config")
	}
	c.Def = def
	c.IniFile = iniFile
	c.normalize()
	return &c, nil
}

// defaultConfigValues is the embedded configuration alone.
func defaultConfigValues() *Config {
	c, err := loadConfig("")
	if err != nil {
		panic(err)
	}
	return c
}

// Normalize values
func (c *Config) normalize() {
	in := &c.Input
	in.BufferFrames = clampI(in.BufferFrames, 1, 60)
	in.MotionWindowFrames = clampI(in.MotionWindowFrames, 1, 120)
	// History has to outlive the longest motion window
	in.HistoryFrames = clampI(in.HistoryFrames, in.MotionWindowFrames, 600)
	in.KaraWindow = clampI(in.KaraWindow, 0, 30)

	cc := &c.Combat
	cc.FramesBetweenHits = clampI(cc.FramesBetweenHits, 1, 120)
	cc.GoodLinkDelta = maxI(cc.GoodLinkDelta, cc.PerfectLinkDelta)
	cc.StreakMinimum = maxI(cc.StreakMinimum, 0)
	cc.StreakResetFrames = maxI(cc.StreakResetFrames, 1)
	cc.QuickRiseFrames = maxI(cc.QuickRiseFrames, 1)

	st := &c.Stage
	if st.Width <= 0 {
		st.Width = 20
	}
	if st.Height <= 0 {
		st.Height = 10
	}
	st.SpawnDistance = minF32(absF32(st.SpawnDistance), st.Width)
	st.CellSize = clampI(st.CellSize, 1, 256)

	rb := &c.Rollback
	rb.FrameDelay = clampI(rb.FrameDelay, 0, 20)
	if rb.DesyncTestFrames < 1 {
		rb.DesyncTestFrames = 8
	}
}

// Save writes the config back, preserving the comments of the source file.
func (c *Config) Save(file string) error {
	if c.IniFile == nil {
		return errors.New("config was not loaded from an ini file")
	}
	if err := c.IniFile.ReflectFrom(c); err != nil {
		return errors.Wrap(err, "failed to reflect config")
	}
	// Normalize all true/false to 1/0
	for _, section := range c.IniFile.Sections() {
		for _, key := range section.Keys() {
			switch key.Value() {
			case "true":
				key.SetValue("1")
			case "false":
				key.SetValue("0")
			}
		}
	}
	return c.IniFile.SaveTo(file)
}
