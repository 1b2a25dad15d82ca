package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/iksnae/wakechat/internal"
	"github.com/iksnae/wakechat/testutil"
	"github.com/spf13/pflag"
)

// cli runs commands against a fake backend and a temporary state database
type cli struct {
	t      *testing.T
	fb     *testutil.FakeBackend
	dir    string
	db     string
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	for _, env := range []string{internal.EnvAPIBase, internal.EnvDBPath, internal.EnvLogLevel, internal.EnvLogFile} {
		t.Setenv(env, "")
	}
	t.Setenv("XDG_CONFIG_HOME", dir)

	c := &cli{
		t:      t,
		fb:     testutil.NewFakeBackend(t),
		dir:    dir,
		db:     filepath.Join(dir, "state.db"),
		config: testutil.CreateFileFixture(t, dir, "config.yaml", []byte("log_level: error\npersist_delay: 10ms\n")),
	}
	return c
}

// run executes the root command with the fake backend and database flags prepended
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	return c.runWithInput("", args...)
}

func (c *cli) runWithInput(input string, args ...string) (string, error) {
	c.t.Helper()
	resetFlags()

	full := append([]string{"--config", c.config, "--db", c.db, "--api", c.fb.URL()}, args...)
	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(full)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(bytes.NewBufferString(input))

	err := rootCmd.Execute()
	return stdout.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	if err != nil {
		c.t.Fatalf("%v failed: %v\n%s", args, err, out)
	}
	return out
}

func (c *cli) sessions() []internal.SessionSummary {
	c.t.Helper()
	var list []internal.SessionSummary
	testutil.JSONUnmarshal(c.t, []byte(c.mustRun("list", "--json")), &list)
	return list
}

// resetFlags restores every flag to its default, since values persist between Execute calls
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	rootCmd.Flags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}
