package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type recordRunner struct {
	stdout string
	err    error
	name   string
	args   []string
}

func (r *recordRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.name, r.args = name, args
	return []byte(r.stdout), nil, r.err
}

func writeScript(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\necho RUNNING\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return p
}

func TestParseCheckOutput(t *testing.T) {
	cases := []struct {
		out                string
		installed, running bool
		ok                 bool
	}{
		{"RUNNING\n", true, true, true},
		{"checking...\nNOT RUNNING\n", true, false, true},
		{"  NOT INSTALLED  \r\n", false, false, true},
		{"NOT INSTALLED\nRUNNING\n", true, true, true},
		{"RUNNING\nNOT RUNNING", true, false, true},
		{"docker: command not found", false, false, false},
		{"", false, false, false},
	}
	for _, c := range cases {
		st, ok := ParseCheckOutput(c.out)
		if ok != c.ok || st.Installed != c.installed || st.Running != c.running {
			t.Fatalf("%q: got %+v ok=%v", c.out, st, ok)
		}
	}
}

func TestScriptNames(t *testing.T) {
	for goos, want := range map[string]string{
		"linux": "docker_check_linux.sh", "darwin": "docker_check_macos.sh", "windows": "docker_check_win.bat",
	} {
		if got, err := CheckScriptName(goos); err != nil || got != want {
			t.Fatalf("%s: %q %v", goos, got, err)
		}
	}
	if _, err := InstallScriptName("plan9"); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("err=%v", err)
	}
}

func TestScriptPath_MakesExecutable(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "docker_check_linux.sh")
	p, err := ScriptPath(dir, "docker_check_linux.sh", "linux")
	if err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(p)
	if err != nil || fi.Mode().Perm()&0o100 == 0 {
		t.Fatalf("mode=%v err=%v", fi.Mode(), err)
	}
	if _, err := ScriptPath(dir, "missing.sh", "linux"); err == nil {
		t.Fatalf("expected error for missing script")
	}
}

func TestForOS(t *testing.T) {
	r := &recordRunner{}
	if _, _, err := ForOS("linux", r).Run(context.Background(), "/s/install.sh"); err != nil {
		t.Fatal(err)
	}
	if r.name != "pkexec" || !reflect.DeepEqual(r.args, []string{"sh", "/s/install.sh"}) {
		t.Fatalf("linux: %s %v", r.name, r.args)
	}

	_, _, _ = ForOS("darwin", r).Run(context.Background(), "/Apps/Voice Studio/install.sh")
	want := `do shell script "sh '/Apps/Voice Studio/install.sh'" with administrator privileges`
	if r.name != "osascript" || len(r.args) != 2 || r.args[1] != want {
		t.Fatalf("darwin: %s %v", r.name, r.args)
	}

	_, _, _ = ForOS("windows", r).Run(context.Background(), `C:\s\install.bat`)
	if r.name != "cmd" || r.args[1] != `C:\s\install.bat` {
		t.Fatalf("windows: %s %v", r.name, r.args)
	}

	if _, _, err := ForOS("plan9", r).Run(context.Background(), "x"); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("err=%v", err)
	}
}

func TestAppleScriptCommand_EscapesQuotes(t *testing.T) {
	got := appleScriptCommand(`/tmp/it's "x".sh`)
	want := `do shell script "sh '/tmp/it'\\''s \"x\".sh'" with administrator privileges`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestScriptProbe(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "docker_check_linux.sh")
	r := &recordRunner{stdout: "NOT RUNNING\n"}
	st, err := ScriptProbe{Dir: dir, GOOS: "linux", Runner: r}.Check(context.Background())
	if err != nil || !st.Installed || st.Running {
		t.Fatalf("status=%+v err=%v", st, err)
	}
	if r.name != "sh" {
		t.Fatalf("runner=%s", r.name)
	}
	r.err = errors.New("exit status 1")
	if _, err := (ScriptProbe{Dir: dir, GOOS: "linux", Runner: r}).Check(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInstaller(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "docker_install_linux.sh")
	r := &recordRunner{}
	in := Installer{Dir: dir, GOOS: "linux", Exec: ForOS("linux", r), Log: zerolog.Nop()}
	if err := in.Install(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r.name != "pkexec" || r.args[1] != script {
		t.Fatalf("ran %s %v", r.name, r.args)
	}
	r.err = errors.New("dismissed")
	if err := in.Install(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
