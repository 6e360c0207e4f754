package main

import (
	"os"
	"path/filepath"
	"testing"

	"partyrace/config"
)

func TestOverrideOnlyChangedFlags(t *testing.T) {
	cmd := serveCmd()
	if err := cmd.Flags().Parse([]string{"--addr=:9000", "--tick-rate=30"}); err != nil {
		t.Fatal(err)
	}
	s := config.DefaultSettings()
	s.LogLevel = "debug"
	flags := config.Settings{Addr: ":9000", TickRate: 30}
	override(cmd, &s, flags)

	if s.Addr != ":9000" || s.TickRate != 30 {
		t.Fatalf("flags not applied: %+v", s)
	}
	if s.LogLevel != "debug" || s.TuningFile != "config/racing.json" {
		t.Fatalf("unset flags overrode settings: %+v", s)
	}
}

func TestLoadTrack(t *testing.T) {
	tr, err := loadTrack("", 3)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Len() != ringAnchors {
		t.Fatalf("ring has %d anchors, want %d", tr.Len(), ringAnchors)
	}

	path := filepath.Join(t.TempDir(), "track.json")
	scene := `[
		{"name":"tragnet.001","material":"tragnet","position":{"x":10,"y":0,"z":0}},
		{"name":"barrier","material":"stone","position":{"x":5,"y":0,"z":5}},
		{"name":"tragnet.000","material":"tragnet","position":{"x":0,"y":0,"z":0}}
	]`
	if err := os.WriteFile(path, []byte(scene), 0o600); err != nil {
		t.Fatal(err)
	}
	tr, err = loadTrack(path, 2)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Len() != 2 || tr.Anchor(1).Position.X != 10 {
		t.Fatalf("unexpected track: %d anchors", tr.Len())
	}

	if _, err := loadTrack(filepath.Join(t.TempDir(), "missing.json"), 2); err == nil {
		t.Fatal("missing track file accepted")
	}
}
