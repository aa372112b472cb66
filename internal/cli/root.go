// Package cli implements the aisdlc command tree.
//
// Commands are built around an [App] that carries the loaded configuration
// and the collaborators each command needs. Dependencies are created lazily
// so that init can run before a manifest exists, and tests can substitute the
// agent and provider before any command runs.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aisdlc/internal/claude"
	"aisdlc/internal/config"
	"aisdlc/internal/history"
	"aisdlc/internal/lifecycle"
	"aisdlc/internal/lock"
	"aisdlc/internal/output"
	"aisdlc/internal/project"
	"aisdlc/internal/provider"
	"aisdlc/internal/workflow"
	"aisdlc/internal/workstream"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// DebugEnvVar enables verbose output when set to a non-empty value.
const DebugEnvVar = "AISDLC_DEBUG"

// App holds dependencies shared by every command.
type App struct {
	Root    string
	Printer *output.Printer
	Loader  *config.Loader
	Getenv  provider.Getenv

	// Agent replaces the agent subprocess executor when set.
	Agent claude.Executor

	// Generator replaces the configured direct-API provider when set.
	Generator provider.Generator

	// Populated by load.
	Config   *config.Config
	Paths    *project.Paths
	Executor *lifecycle.Executor
	Journal  *history.Journal
}

// NewApp creates an App rooted at root.
func NewApp(root string, printer *output.Printer) *App {
	return &App{
		Root:    root,
		Printer: printer,
		Loader:  config.NewLoader(),
		Getenv:  os.Getenv,
	}
}

// ExecuteResult is the outcome of running the command tree.
type ExecuteResult struct {
	ExitCode int
	Err      error
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "aisdlc",
		Short: "AI-assisted software development lifecycle",
		Long: `aisdlc walks a feature through an ordered sequence of markdown documents
(idea, PRD, architecture, tasks, tests), generating each one from the last
with an external AI agent.

Run "aisdlc init" once per project, then "aisdlc new <title>" and
"aisdlc next" until every step exists, and finally "aisdlc done".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			app.Printer.SetVerbose(verbose || os.Getenv(DebugEnvVar) != "")
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")

	rootCmd.AddCommand(
		newInitCommand(app),
		newNewCommand(app),
		newNextCommand(app),
		newStatusCommand(app),
		newDoneCommand(app),
		newContextCommand(app),
		newHistoryCommand(app),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the CLI against the current directory and exits.
func Execute() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app := NewApp(project.FindRoot(wd), output.NewPrinter())
	result := Run(context.Background(), app, os.Args[1:])
	os.Exit(result.ExitCode)
}

// Run executes args against app and converts the error into an exit code.
func Run(ctx context.Context, app *App, args []string) ExecuteResult {
	defer app.Close()

	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsExitError(err); ok {
			return ExecuteResult{ExitCode: code, Err: err}
		}
		app.Printer.Error("%v", err)
		return ExecuteResult{ExitCode: 1, Err: err}
	}
	return ExecuteResult{ExitCode: 0}
}

// Close releases resources opened by load.
func (a *App) Close() {
	if a.Journal != nil {
		_ = a.Journal.Close()
		a.Journal = nil
	}
}

// load reads the manifest and wires the lifecycle executor. It is a no-op
// once the executor exists.
func (a *App) load() error {
	if a.Executor != nil {
		return nil
	}

	cfg, err := a.Loader.Load(a.Root)
	if err != nil {
		return a.fail(err)
	}
	a.Config = cfg
	a.Paths = project.NewPaths(a.Root, cfg)

	agent := a.Agent
	if agent == nil {
		agent = claude.NewExecutor(claude.ExecutorConfigFrom(cfg))
	}
	runner := workflow.NewRunner(agent, a.Printer, cfg)
	if cfg.DirectAPIEnabled() {
		runner.SetGenerator(a.generator(cfg))
	}

	reader := lock.NewReader(a.Paths.Lock(), func(msg string) { a.Printer.Warning("%s", msg) })
	workstreams := workstream.NewManager(a.Paths.ActiveDir(), a.Paths.DoneDir())

	exec := lifecycle.NewExecutor(cfg, workstreams, a.Paths.PromptTemplate, reader, lock.NewWriter(a.Paths.Lock()))
	exec.SetGenerator(runner)
	exec.SetWarn(func(msg string) { a.Printer.Warning("%s", msg) })
	exec.SetProgressCallback(func(position, total int, from, to string) {
		a.Printer.StepStart(position, total, from, to)
	})

	if cfg.History.Enabled {
		j, err := history.Open(a.Paths.History())
		if err != nil {
			a.Printer.Warning("history disabled: %v", err)
		} else {
			a.Journal = j
			exec.SetJournal(j)
		}
	}

	a.Executor = exec
	return nil
}

// generator returns the configured provider. Misconfiguration yields a
// generator that always fails so next falls back to a manual prompt file.
func (a *App) generator(cfg *config.Config) provider.Generator {
	if a.Generator != nil {
		return a.Generator
	}
	g, err := provider.New(cfg.AIProvider, a.Getenv)
	if err != nil {
		return unavailableGenerator{name: cfg.AIProvider.Name, err: err}
	}
	return g
}

type unavailableGenerator struct {
	name string
	err  error
}

func (g unavailableGenerator) Name() string { return g.name }

func (g unavailableGenerator) Generate(ctx context.Context, req provider.Request) (string, error) {
	return "", g.err
}

// statusBar prints the compact progress line for the active workstream.
func (a *App) statusBar() {
	st := a.Executor.Status()
	if !st.Active {
		return
	}
	labels := make([]string, len(st.Steps))
	for i, s := range st.Steps {
		labels[i] = s.Step.Label
	}
	a.Printer.StatusBar(labels, st.Current.Index)
}
