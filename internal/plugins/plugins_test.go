package plugins

import (
	"os"
	"path/filepath"
	"testing"

	"tdsr/internal/term"
)

func testScreen(lines ...string) *term.Screen {
	s := term.NewScreen(20, len(lines))
	for y, line := range lines {
		for x, ch := range line {
			s.Buffer[y][x] = term.Cell{Ch: ch}
		}
	}
	return s
}

func TestCollectLinesStopsAtPrompt(t *testing.T) {
	m := NewManager(nil, nil, t.TempDir(), `\$\s*$`)
	screen := testScreen(
		"user@host:~ $",
		"total 4",
		"drwxr-xr-x docs",
		"",
	)

	lines := m.collectLines(screen)
	// Bottom to top: blank, listing, listing, then the prompt stops it.
	if len(lines) != 4 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[1] != "drwxr-xr-x docs" || lines[3] != "user@host:~ $" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestBadPromptPatternFallsBack(t *testing.T) {
	m := NewManager(nil, nil, t.TempDir(), "([")
	screen := testScreen("only row")
	if got := m.collectLines(screen); len(got) != 1 {
		t.Fatalf("lines = %v", got)
	}
}

func TestHasAndUnknownKey(t *testing.T) {
	m := NewManager(map[string]string{"stat": "g"}, nil, t.TempDir(), ".*")
	if !m.Has("g") {
		t.Fatal("expected plugin on g")
	}
	if m.Has("z") {
		t.Fatal("no plugin should be on z")
	}
	if _, err := m.Execute("z", testScreen("x"), ""); err == nil {
		t.Fatal("unknown key should error")
	}
}

func TestCommandFilterSkipsExecution(t *testing.T) {
	m := NewManager(
		map[string]string{"stat": "g"},
		map[string]string{"stat": "^git"},
		t.TempDir(), ".*",
	)
	lines, err := m.Execute("g", testScreen("x"), "ls -la")
	if err != nil {
		t.Fatalf("filtered execute should be silent, got %v", err)
	}
	if lines != nil {
		t.Fatalf("lines = %v, want none", lines)
	}
}

func TestMissingScriptErrors(t *testing.T) {
	m := NewManager(map[string]string{"stat": "g"}, nil, t.TempDir(), ".*")
	if _, err := m.Execute("g", testScreen("x"), "git status"); err == nil {
		t.Fatal("missing script should error")
	}
}

func TestScriptPathNesting(t *testing.T) {
	m := NewManager(nil, nil, "/base", ".*")
	if got := m.scriptPath("simple"); got != filepath.Join("/base", "simple.py") {
		t.Fatalf("path = %q", got)
	}
	if got := m.scriptPath("me.mine"); got != filepath.Join("/base", "me", "mine.py") {
		t.Fatalf("path = %q", got)
	}
}

func TestExecuteRunsScript(t *testing.T) {
	if _, err := os.Stat("/usr/bin/python3"); err != nil {
		t.Skip("python3 not installed")
	}
	dir := t.TempDir()
	script := "import json,sys\n" +
		"req = json.loads(sys.stdin.readline())\n" +
		"print(json.dumps({\"speak\": [req[\"lines\"][0]]}))\n"
	if err := os.WriteFile(filepath.Join(dir, "echo.py"), []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	m := NewManager(map[string]string{"echo": "e"}, nil, dir, ".*")
	lines, err := m.Execute("e", testScreen("bottom row"), "")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(lines) != 1 || lines[0] != "bottom row" {
		t.Fatalf("lines = %v", lines)
	}
}
