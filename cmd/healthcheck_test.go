package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/wakechat/internal/backend"
	"github.com/iksnae/wakechat/testutil"
)

func TestHealthcheckCommand(t *testing.T) {
	// Test that the command exists and can be invoked
	cmd := healthcheckCmd
	if cmd == nil {
		t.Fatal("healthcheckCmd is nil")
	}

	if cmd.Use != "healthcheck" {
		t.Errorf("healthcheckCmd.Use = %q, want %q", cmd.Use, "healthcheck")
	}

	// Test that details flag exists
	flag := cmd.Flags().Lookup("details")
	if flag == nil {
		t.Error("healthcheckCmd should have --details flag")
	}
}

func TestHealthcheckCommand_Passes(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("healthcheck", "--details")
	for _, want := range []string{"Configuration loaded", "Found 1 session(s)", "Backend: fake", "Health check passed"} {
		if !strings.Contains(out, want) {
			t.Errorf("healthcheck output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, c.fb.URL()) {
		t.Errorf("--details should print the backend URL:\n%s", out)
	}
}

func TestHealthcheckCommand_BackendDown(t *testing.T) {
	c := newCLI(t)
	c.fb.Handle("GET /health", testutil.Fail(503, "sleeping"))

	out, err := c.run("healthcheck")
	if err == nil {
		t.Fatal("healthcheck should fail when the backend is unavailable")
	}
	if !strings.Contains(out, "Backend not reachable") {
		t.Errorf("healthcheck output missing warning:\n%s", out)
	}
	// the probe never wakes or retries
	if got := c.fb.Calls("GET /health"); got != 1 {
		t.Errorf("health calls = %d, want 1", got)
	}
}

func TestPrintHealth(t *testing.T) {
	tests := []struct {
		name   string
		status backend.HealthStatus
		want   []string
	}{
		{
			name:   "ok",
			status: backend.HealthStatus{OK: true, Backend: "qdrant", Collection: "docs", VectorDim: 384},
			want:   []string{"qdrant (ok)", "docs, vector dim 384, reranker false"},
		},
		{
			name:   "degraded",
			status: backend.HealthStatus{Backend: "memory", Reranker: true},
			want:   []string{"memory (degraded)", "reranker true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printHealth(&buf, tt.status)
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("printHealth() missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}
