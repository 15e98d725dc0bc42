package config

import (
	"os"
	"path/filepath"
	"testing"

	tu "tdsr/internal/testutil"
)

func TestLoadCreatesDefaults(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "HOME", tmp)()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, ".tdsr.cfg")); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Rate() != 50 || cfg.Volume() != 80 || cfg.VoiceIdx() != 0 {
		t.Fatalf("defaults = rate %d volume %d voice %d", cfg.Rate(), cfg.Volume(), cfg.VoiceIdx())
	}
	if cfg.CursorDelay() != 300 {
		t.Fatalf("cursor delay = %d, want 300 ms", cfg.CursorDelay())
	}
	if cfg.ProcessSymbols() || !cfg.KeyEcho() || !cfg.CursorTracking() || !cfg.LinePause() {
		t.Fatal("boolean defaults wrong")
	}
	if cfg.Symbols['!'] != "bang" || cfg.Symbols['='] != "equals" {
		t.Fatalf("symbol table incomplete: %v", cfg.Symbols)
	}
}

func TestSetAndSaveRoundTrip(t *testing.T) {
	defer tu.WithEnv(t, "HOME", t.TempDir())()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cfg.Set("speech", "rate", "75")
	cfg.Set("speech", "line_pause", "false")
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	again, err := Load()
	if err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if again.Rate() != 75 {
		t.Fatalf("rate = %d, want 75", again.Rate())
	}
	if again.LinePause() {
		t.Fatal("line pause should persist as false")
	}
}

func TestMalformedOptionRevertsToDefault(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "HOME", tmp)()

	content := "[speech]\nrate = banana\nvolume = 30\ncursor_delay = -5\n" +
		"[symbols]\n33 = bang\nnotanumber = nope\n"
	if err := os.WriteFile(filepath.Join(tmp, ".tdsr.cfg"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Rate() != 50 {
		t.Fatalf("malformed rate should default to 50, got %d", cfg.Rate())
	}
	if cfg.Volume() != 30 {
		t.Fatalf("valid option lost: volume = %d", cfg.Volume())
	}
	if cfg.CursorDelay() != 300 {
		t.Fatalf("negative delay should default, got %d", cfg.CursorDelay())
	}
	if cfg.Symbols['!'] != "bang" {
		t.Fatal("valid symbol lost")
	}
	if len(cfg.Symbols) != 1 {
		t.Fatalf("bad symbol key should be skipped, table = %v", cfg.Symbols)
	}
}

func TestClamping(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "HOME", tmp)()

	content := "[speech]\nrate = 250\nvolume = -3\n"
	if err := os.WriteFile(filepath.Join(tmp, ".tdsr.cfg"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Rate() != 100 || cfg.Volume() != 0 {
		t.Fatalf("clamping wrong: rate %d volume %d", cfg.Rate(), cfg.Volume())
	}
}

func TestPluginTables(t *testing.T) {
	tmp := t.TempDir()
	defer tu.WithEnv(t, "HOME", tmp)()

	content := "[plugins]\ngitstatus = g\n[commands]\ngitstatus = ^git\n"
	if err := os.WriteFile(filepath.Join(tmp, ".tdsr.cfg"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Plugins["gitstatus"] != "g" {
		t.Fatalf("plugins = %v", cfg.Plugins)
	}
	if cfg.PluginCommands["gitstatus"] != "^git" {
		t.Fatalf("commands = %v", cfg.PluginCommands)
	}
}
