// Package config manages the persistent screen reader settings stored as
// INI at ~/.tdsr.cfg: speech parameters, symbol pronunciation, and plugin
// bindings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/ini.v1"

	"tdsr/internal/system"
)

// Config wraps the INI file plus the derived lookup tables.
type Config struct {
	file *ini.File
	path string

	// Symbols maps a codepoint to its spoken name, e.g. '!' -> "bang".
	Symbols map[rune]string

	// Plugins maps plugin name to its trigger key.
	Plugins map[string]string

	// PluginCommands maps plugin name to a regex the last command must match.
	PluginCommands map[string]string
}

// Load reads ~/.tdsr.cfg, creating it with defaults when missing.
// Malformed individual options fall back to their defaults; the rest of the
// file still loads.
func Load() (*Config, error) {
	path := Path()
	var file *ini.File
	if _, err := os.Stat(path); err == nil {
		file, err = ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		system.Logger.Debug("config file not found, writing defaults", "path", path)
		file = defaultFile()
		if err := file.SaveTo(path); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	c := &Config{
		file:           file,
		path:           path,
		Symbols:        make(map[rune]string),
		Plugins:        make(map[string]string),
		PluginCommands: make(map[string]string),
	}
	c.parseSymbols()
	c.parsePlugins()
	return c, nil
}

// Path returns the config file location. HOME is preferred; the user config
// dir is the fallback when HOME is unset.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		if base, berr := os.UserConfigDir(); berr == nil {
			return filepath.Join(base, ".tdsr.cfg")
		}
		home = "."
	}
	return filepath.Join(home, ".tdsr.cfg")
}

// PluginDir returns the directory plugin scripts live in (~/.tdsr/plugins).
func PluginDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".tdsr", "plugins")
}

// Save persists the current settings back to disk.
func (c *Config) Save() error {
	if err := c.file.SaveTo(c.path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Set writes one key and refreshes the derived tables when a table section
// changed.
func (c *Config) Set(section, key, value string) {
	c.file.Section(section).Key(key).SetValue(value)
	if section == "symbols" {
		c.parseSymbols()
	}
	if section == "plugins" || section == "commands" {
		c.parsePlugins()
	}
}

func (c *Config) parseSymbols() {
	c.Symbols = make(map[rune]string)
	for _, k := range c.file.Section("symbols").Keys() {
		code, err := strconv.ParseUint(k.Name(), 10, 32)
		if err != nil {
			system.Logger.Error("bad symbol codepoint", "key", k.Name())
			continue
		}
		c.Symbols[rune(code)] = k.String()
	}
}

func (c *Config) parsePlugins() {
	c.Plugins = make(map[string]string)
	c.PluginCommands = make(map[string]string)
	for _, k := range c.file.Section("plugins").Keys() {
		c.Plugins[k.Name()] = k.String()
	}
	for _, k := range c.file.Section("commands").Keys() {
		c.PluginCommands[k.Name()] = k.String()
	}
}

func (c *Config) getBool(key string, def bool) bool {
	k := c.file.Section("speech").Key(key)
	if _, err := k.Bool(); err != nil && k.String() != "" {
		system.Logger.Error("malformed option, using default", "key", key, "value", k.String())
	}
	return k.MustBool(def)
}

func (c *Config) getInt(key string, def int) int {
	k := c.file.Section("speech").Key(key)
	if _, err := k.Int(); err != nil && k.String() != "" {
		system.Logger.Error("malformed option, using default", "key", key, "value", k.String())
	}
	return k.MustInt(def)
}

// Rate is the speech rate, 0..100 where 50 is normal.
func (c *Config) Rate() int { return clampPercent(c.getInt("rate", 50)) }

// Volume is the speech volume, 0..100.
func (c *Config) Volume() int { return clampPercent(c.getInt("volume", 80)) }

// VoiceIdx is the backend voice index.
func (c *Config) VoiceIdx() int {
	v := c.getInt("voice_idx", 0)
	if v < 0 {
		return 0
	}
	return v
}

// CursorDelay is the cursor-settle delay in milliseconds.
func (c *Config) CursorDelay() int {
	v := c.getInt("cursor_delay", 300)
	if v < 0 {
		return 300
	}
	return v
}

// ProcessSymbols reports whether punctuation is spoken as words.
func (c *Config) ProcessSymbols() bool { return c.getBool("process_symbols", false) }

// KeyEcho reports whether typed keys are echoed as speech.
func (c *Config) KeyEcho() bool { return c.getBool("key_echo", true) }

// CursorTracking reports whether the review cursor follows the terminal
// cursor.
func (c *Config) CursorTracking() bool { return c.getBool("cursor_tracking", true) }

// LinePause reports whether each output line is spoken as its own utterance.
func (c *Config) LinePause() bool { return c.getBool("line_pause", true) }

// RepeatedSymbols reports whether repeated-character runs are condensed.
func (c *Config) RepeatedSymbols() bool { return c.getBool("repeated_symbols", false) }

// RepeatedSymbolsValues is the set of characters eligible for condensing.
func (c *Config) RepeatedSymbolsValues() string {
	return c.file.Section("speech").Key("repeated_symbols_values").MustString("-=!#")
}

// PromptPattern is the regex plugins use to find the shell prompt.
func (c *Config) PromptPattern() string {
	return c.file.Section("speech").Key("prompt").MustString(".*")
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func defaultFile() *ini.File {
	f := ini.Empty()
	sp := f.Section("speech")
	sp.Key("rate").SetValue("50")
	sp.Key("volume").SetValue("80")
	sp.Key("voice_idx").SetValue("0")
	sp.Key("cursor_delay").SetValue("300")
	sp.Key("process_symbols").SetValue("false")
	sp.Key("key_echo").SetValue("true")
	sp.Key("cursor_tracking").SetValue("true")
	sp.Key("line_pause").SetValue("true")
	sp.Key("repeated_symbols").SetValue("false")
	sp.Key("repeated_symbols_values").SetValue("-=!#")
	sp.Key("prompt").SetValue(".*")

	sym := f.Section("symbols")
	for code, name := range defaultSymbols {
		sym.Key(strconv.Itoa(code)).SetValue(name)
	}

	f.Section("plugins")
	f.Section("commands")
	return f
}

var defaultSymbols = map[int]string{
	32: "space", 33: "bang", 34: "quote", 35: "number", 36: "dollar",
	37: "percent", 38: "and", 39: "tick", 40: "left paren", 41: "right paren",
	42: "star", 43: "plus", 44: "comma", 45: "dash", 46: "dot", 47: "slash",
	58: "colon", 59: "semi", 60: "less", 61: "equals", 62: "greater",
	63: "question", 64: "at", 91: "left bracket", 92: "backslash",
	93: "right bracket", 94: "caret", 95: "line", 96: "grav",
	123: "left brace", 124: "bar", 125: "right brace", 126: "tilda",
}
