package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/require"

	"aisdlc/internal/claude"
	"aisdlc/internal/config"
	"aisdlc/internal/lock"
	"aisdlc/internal/output"
	"aisdlc/internal/project"
)

// testApp bundles an App rooted in a temp dir with its captured output.
type testApp struct {
	*App
	out   *bytes.Buffer
	agent *claude.MockExecutor
}

// newTestApp creates an uninitialized project whose agent returns "OUTPUT".
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	buf := &bytes.Buffer{}
	app := NewApp(t.TempDir(), output.NewPrinterWithWriter(buf))
	app.Getenv = func(string) string { return "" }
	agent := &claude.MockExecutor{Output: "OUTPUT"}
	app.Agent = agent
	t.Cleanup(app.Close)
	return &testApp{App: app, out: buf, agent: agent}
}

// newInitializedApp runs init in a fresh project.
func newInitializedApp(t *testing.T) *testApp {
	t.Helper()
	ta := newTestApp(t)
	require.NoError(t, ta.run("init"))
	ta.out.Reset()
	return ta
}

// run executes args through a fresh root command.
func (ta *testApp) run(args ...string) error {
	rootCmd := NewRootCommand(ta.App)
	rootCmd.SetOut(ta.out)
	rootCmd.SetErr(ta.out)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// writeConfig replaces the manifest with DefaultConfig modified by mutate.
func (ta *testApp) writeConfig(t *testing.T, mutate func(cfg *config.Config)) {
	t.Helper()
	cfg := config.DefaultConfig()
	mutate(cfg)
	data, err := toml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ta.Root, config.FileName), data, 0644))
}

func (ta *testApp) lockRecord() lock.Record {
	return lock.NewReader(filepath.Join(ta.Root, project.LockFileName), nil).Read()
}

func (ta *testApp) stepFile(slug, step string) string {
	return filepath.Join(ta.Root, "doing", slug, step+"-"+slug+".md")
}

// requireExitCode asserts err is an ExitError with code.
func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	got, ok := IsExitError(err)
	require.True(t, ok, "error should be an ExitError, got %v", err)
	require.Equal(t, code, got)
}
