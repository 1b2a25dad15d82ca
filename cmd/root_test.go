package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{
			name:    "version flag",
			args:    []string{"--version"},
			wantErr: false,
		},
		{
			name:    "help flag",
			args:    []string{"--help"},
			wantErr: false,
		},
		{
			name:    "unknown command",
			args:    []string{"nonexistent-command"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			rootCmd.SetArgs(tt.args)
			var stdout, stderr bytes.Buffer
			rootCmd.SetOut(&stdout)
			rootCmd.SetErr(&stderr)

			err := rootCmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("rootCmd.Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"ask", "attach", "chat", "delete", "export", "healthcheck", "inspect", "list", "new", "show", "switch", "wake"}

	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	c := newCLI(t)
	c.mustRun("list")

	if cfg.APIBase != c.fb.URL() {
		t.Errorf("cfg.APIBase = %q, want %q", cfg.APIBase, c.fb.URL())
	}
	if cfg.DBPath != c.db {
		t.Errorf("cfg.DBPath = %q, want %q", cfg.DBPath, c.db)
	}
	if cfg.PersistDelay.Milliseconds() != 10 {
		t.Errorf("cfg.PersistDelay = %s, want 10ms from the config file", cfg.PersistDelay)
	}
}

func TestLoadConfig_InvalidAPI(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("--api", "ftp://example.com", "list")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("error = %v, want invalid configuration", err)
	}
}
