package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDetectDataPaths(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout is linux-specific")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	paths, err := DetectDataPaths()
	if err != nil {
		t.Fatalf("DetectDataPaths() error = %v", err)
	}

	want := filepath.Join(xdg, "wakechat")
	if paths.BaseDir != want {
		t.Errorf("BaseDir = %v, want %v", paths.BaseDir, want)
	}
	if paths.DBPath != filepath.Join(want, "state.db") {
		t.Errorf("DBPath = %v", paths.DBPath)
	}
}

func TestPathsIn(t *testing.T) {
	base := t.TempDir()
	paths := PathsIn(filepath.Join(base, "nested"))

	if paths.ConfigExists() {
		t.Error("ConfigExists() should be false before the file is written")
	}
	if err := paths.EnsureBaseDir(); err != nil {
		t.Fatalf("EnsureBaseDir() error = %v", err)
	}
	if err := os.WriteFile(paths.ConfigPath, []byte("api_base: http://x\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !paths.ConfigExists() {
		t.Error("ConfigExists() should be true after the file is written")
	}
}
