package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp", "/tmp"},
		{"~", home},
		{"~/voice-studio/data", filepath.Join(home, "voice-studio", "data")},
	}
	for _, c := range cases {
		got, err := ExpandHome(c.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", c.in, err)
		}
		if runtime.GOOS == "windows" && c.in != "" && c.in != "/tmp" {
			if filepath.Base(got) != filepath.Base(c.want) {
				t.Fatalf("ExpandHome(%q)=%q", c.in, got)
			}
			continue
		}
		if got != c.want {
			t.Fatalf("ExpandHome(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestDataDir(t *testing.T) {
	cases := []struct {
		goos string
		env  map[string]string
		want string
	}{
		{"linux", map[string]string{"HOME": "/home/u"}, filepath.Join("/home/u", ".local", "share", "voice-studio", "data")},
		{"linux", map[string]string{"HOME": "/home/u", "XDG_DATA_HOME": "/xdg"}, filepath.Join("/xdg", "voice-studio", "data")},
		{"darwin", map[string]string{"HOME": "/Users/u"}, filepath.Join("/Users/u", "Library", "Application Support", "voice-studio", "data")},
		{"windows", map[string]string{"LOCALAPPDATA": "/lad"}, filepath.Join("/lad", "voice-studio", "data")},
		{"windows", map[string]string{"USERPROFILE": "/up"}, filepath.Join("/up", "AppData", "Local", "voice-studio", "data")},
		{"windows", map[string]string{"LOCALAPPDATA": "/lad", "USERPROFILE": "/up"}, filepath.Join("/lad", "voice-studio", "data")},
	}
	for _, c := range cases {
		got, err := DataDir(c.goos, envFrom(c.env))
		if err != nil || got != c.want {
			t.Fatalf("%s %v: got %q err=%v want %q", c.goos, c.env, got, err, c.want)
		}
	}
	if _, err := DataDir("plan9", envFrom(nil)); err == nil {
		t.Fatalf("expected unsupported platform error")
	}
}

func TestDataDir_NilGetenvReadsProcessEnv(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_DATA_HOME", xdg)
	got, err := DataDir("linux", nil)
	if err != nil || got != filepath.Join(xdg, AppName, "data") {
		t.Fatalf("got %q err=%v", got, err)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a", "output")
	for i := 0; i < 2; i++ {
		if err := EnsureDir(p); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if fi, err := os.Stat(p); err != nil || !fi.IsDir() {
		t.Fatalf("not a dir: %v", err)
	}
	if !PathExists(p) || PathExists(filepath.Join(p, "missing")) {
		t.Fatalf("PathExists disagrees with filesystem")
	}
}

func TestEnsureDir_UnderRegularFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "runtime-config.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(filepath.Join(file, "output")); err == nil {
		t.Fatalf("expected error creating a directory below a file")
	}
	if err := EnsureDir(file); err == nil {
		t.Fatalf("expected error for an existing regular file")
	}
}
