package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	c := defaultConfigValues()
	if c.Input.BufferFrames != 6 || c.Input.MotionWindowFrames != 12 || c.Input.KaraWindow != 3 {
		t.Fatalf("input defaults %+v", c.Input)
	}
	if c.Combat.FramesBetweenHits != 10 || c.Combat.ParryMeterGain != 30 || c.Combat.ThrowClashPushback != 10 {
		t.Fatalf("combat defaults %+v", c.Combat)
	}
	if c.Stage.SpawnDistance != 4 || c.Rollback.DesyncTest {
		t.Fatalf("stage %+v rollback %+v", c.Stage, c.Rollback)
	}
	if c.Debug.LogFile != "save/wagcore.log" {
		t.Fatalf("log file = %q", c.Debug.LogFile)
	}
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	data := "[Input]\nBufferFrames = 9\n\n[Rollback]\nDesyncTest = 1\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if c.Input.BufferFrames != 9 {
		t.Fatalf("BufferFrames = %d, want 9", c.Input.BufferFrames)
	}
	if !c.Rollback.DesyncTest {
		t.Fatalf("DesyncTest not overlaid")
	}
	// Untouched keys keep their defaults
	if c.Input.MotionWindowFrames != 12 || c.Combat.ChipDamage != 1 {
		t.Fatalf("defaults lost: %+v %+v", c.Input, c.Combat)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	c, err := loadConfig(filepath.Join(t.TempDir(), "absent.ini"))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if c.Input.BufferFrames != 6 {
		t.Fatalf("BufferFrames = %d, want 6", c.Input.BufferFrames)
	}
}

func TestConfigNormalize(t *testing.T) {
	c := defaultConfigValues()
	c.Input.BufferFrames = 0
	c.Input.MotionWindowFrames = 30
	c.Input.HistoryFrames = 10
	c.Combat.PerfectLinkDelta = 5
	c.Combat.GoodLinkDelta = 2
	c.Stage.Width = -1
	c.Stage.SpawnDistance = -50
	c.Rollback.DesyncTestFrames = 0
	c.normalize()

	if c.Input.BufferFrames != 1 {
		t.Fatalf("BufferFrames = %d, want 1", c.Input.BufferFrames)
	}
	if c.Input.HistoryFrames != 30 {
		t.Fatalf("history shorter than the motion window: %d", c.Input.HistoryFrames)
	}
	if c.Combat.GoodLinkDelta != 5 {
		t.Fatalf("GoodLinkDelta = %d, want 5", c.Combat.GoodLinkDelta)
	}
	if c.Stage.Width != 20 || c.Stage.SpawnDistance != 20 {
		t.Fatalf("stage %+v", c.Stage)
	}
	if c.Rollback.DesyncTestFrames != 8 {
		t.Fatalf("DesyncTestFrames = %d, want 8", c.Rollback.DesyncTestFrames)
	}
}

func TestConfigSaveRoundTrip(t *testing.T) {
	c := defaultConfigValues()
	c.Combat.ClashMeterGain = 42
	c.Debug.Verbose = true

	path := filepath.Join(t.TempDir(), "saved.ini")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got.Combat.ClashMeterGain != 42 || !got.Debug.Verbose {
		t.Fatalf("saved values lost: %+v %+v", got.Combat, got.Debug)
	}

	var empty Config
	if err := empty.Save(path); err == nil {
		t.Fatalf("expected error saving a config with no ini file")
	}
}
