package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	t.Setenv("WACHATS_HOME", "")
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".wachats", "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestBaseDirOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("WACHATS_HOME", tmpDir)
	if got := ConfigPath(); got != filepath.Join(tmpDir, "config.toml") {
		t.Errorf("ConfigPath() = %q", got)
	}
}

func TestLogPath(t *testing.T) {
	got := LogPath("test")
	if !strings.HasSuffix(got, filepath.Join("profiles", "test", "logs", "wachats.log")) {
		t.Errorf("LogPath(test) = %q, want suffix profiles/test/logs/wachats.log", got)
	}
}

func TestEnsureDirAndList(t *testing.T) {
	t.Setenv("WACHATS_HOME", t.TempDir())

	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Errorf("List() = %v before any profile exists, want empty", names)
	}

	for _, n := range []string{"main", "staging"} {
		if err := EnsureDir(n); err != nil {
			t.Fatal(err)
		}
	}
	info, err := os.Stat(LogDir("main"))
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("log dir is not a directory")
	}

	names, err = List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "main" || names[1] != "staging" {
		t.Errorf("List() = %v, want [main staging]", names)
	}
}
