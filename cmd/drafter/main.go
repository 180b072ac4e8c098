// ABOUTME: CLI entrypoint for the drafter document generator with run, TUI, and server modes.
// ABOUTME: Wires together the phase store, LLM client, orchestrator, sqlite archive, and signal handling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/drafter/generate"
	"github.com/2389-research/drafter/llm"
	"github.com/2389-research/drafter/orchestrate"
	"github.com/2389-research/drafter/phase"
	"github.com/2389-research/drafter/prompt"
	"github.com/2389-research/drafter/store"
	"github.com/2389-research/drafter/tui"
	"github.com/2389-research/drafter/web"
)

var version = "dev"

// config holds all CLI configuration parsed from flags and positional arguments.
type config struct {
	serverMode  bool
	port        int
	tuiMode     bool
	dataDir     string
	outDir      string
	model       string
	baseURL     string
	verbose     bool
	showVersion bool
	specFile    string
}

func main() {
	loadDotEnv(".env")

	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Printf("drafter %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

// parseFlags parses command-line flags and returns a populated config.
func parseFlags() config {
	var cfg config

	fs := flag.NewFlagSet("drafter", flag.ContinueOnError)
	fs.BoolVar(&cfg.serverMode, "server", false, "Start HTTP server mode")
	fs.IntVar(&cfg.port, "port", 2389, "Server port (default: 2389)")
	fs.BoolVar(&cfg.tuiMode, "tui", false, "Run with interactive terminal UI")
	fs.StringVar(&cfg.dataDir, "data-dir", "", "Data directory for persistent state (default: $XDG_DATA_HOME/drafter)")
	fs.StringVar(&cfg.outDir, "out", ".", "Directory for the assembled document")
	fs.StringVar(&cfg.model, "model", "", "Override the model named in the spec file")
	fs.StringVar(&cfg.baseURL, "base-url", "", "Custom API base URL for the LLM provider")
	fs.BoolVar(&cfg.verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if fs.NArg() > 0 {
		cfg.specFile = fs.Arg(0)
	}

	return cfg
}

// run dispatches to the appropriate mode based on the config.
// Returns an exit code: 0 for success, 1 for failure.
func run(cfg config) int {
	if cfg.serverMode {
		return runServer(cfg)
	}

	if cfg.specFile == "" {
		printHelp(os.Stderr, version)
		return 0
	}

	// Any mode that generates needs an LLM backend. Check before opening
	// the archive or touching the spec.
	if os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "error: no LLM API key found")
		fmt.Fprintln(os.Stderr, "Set OPENAI_API_KEY (and optionally OPENAI_BASE_URL)")
		return 1
	}

	if cfg.tuiMode {
		return runDraftWithTUI(cfg)
	}

	return runDraft(cfg)
}

// runEnv bundles the collaborators a generation run needs.
type runEnv struct {
	db     *store.DB
	run    *store.Run
	client *llm.Client
	phases *phase.Store
	orch   *orchestrate.Orchestrator
	names  []string
	topic  string
}

// buildRunEnv loads the spec file and wires the archive, LLM client, phase
// store, and orchestrator for one document run.
func buildRunEnv(cfg config) (*runEnv, error) {
	rs, err := loadRunSpec(cfg.specFile)
	if err != nil {
		return nil, err
	}
	if cfg.model != "" {
		rs.Model = cfg.model
	}

	dataDir, err := resolveDataDir(cfg.dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := store.Open(filepath.Join(dataDir, "drafter.db"))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	run, err := db.CreateRun(rs.Topic, rs.Description, rs.Model)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create run: %w", err)
	}

	client, err := buildClient(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	phases := phase.NewStore()
	source := generate.NewLLMSource(client,
		generate.WithSourceProvider("openai"),
		generate.WithSystemPromptFunc(prompt.SystemForPhase),
	)
	gen := generate.New(phases, source)

	builder := prompt.NewBuilder(prompt.Spec{
		Topic:       rs.Topic,
		Description: rs.Description,
		Audience:    rs.Audience,
		Constraints: rs.Constraints,
	}, phase.Params{
		Model:       rs.Model,
		Temperature: rs.Temperature,
		MaxTokens:   rs.MaxTokens,
	})

	orch := orchestrate.New(phases, gen, builder)

	return &runEnv{
		db:     db,
		run:    run,
		client: client,
		phases: phases,
		orch:   orch,
		names:  rs.Phases,
		topic:  rs.Topic,
	}, nil
}

// buildClient creates the LLM client from the environment, honoring a
// -base-url override.
func buildClient(cfg config) (*llm.Client, error) {
	if cfg.baseURL != "" {
		adapter := llm.NewOpenAIAdapter(os.Getenv("OPENAI_API_KEY"), llm.WithOpenAIBaseURL(cfg.baseURL))
		return llm.NewClient(llm.WithProvider("openai", adapter)), nil
	}
	return llm.FromEnv()
}

// runDraft executes a headless run: phases stream concurrently to completion
// with status transitions reported on stderr, then the document is assembled.
func runDraft(cfg config) int {
	env, err := buildRunEnv(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer env.db.Close()
	defer env.client.Close()

	ctx, cancel := signalContext()
	defer cancel()

	// Report status transitions while the run streams.
	events := env.phases.Subscribe()
	defer env.phases.Unsubscribe(events)
	go func() {
		for evt := range events {
			switch evt.Kind {
			case phase.EventStatusChanged:
				fmt.Fprintf(os.Stderr, "[%s] %s\n", evt.Phase, evt.Status)
			case phase.EventContentDelta:
				if cfg.verbose {
					fmt.Print(evt.Chunk)
				}
			}
		}
	}()

	runErr := env.orch.RunAll(ctx, env.names)

	code := 0
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		code = 1
	}

	if err := archiveRun(env, cfg.outDir, runErr == nil); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	return code
}

// runDraftWithTUI executes a run inside the Bubble Tea TUI, where phases can
// be interrupted, steered, and regenerated interactively.
func runDraftWithTUI(cfg config) int {
	env, err := buildRunEnv(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer env.db.Close()
	defer env.client.Close()

	ctx, cancel := signalContext()
	defer cancel()

	model := tui.NewStreamModel(ctx, env.orch, env.topic, env.names)

	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// A quit before completion leaves no result on the channel.
	completed := false
	select {
	case res := <-model.ResultCh():
		completed = res.Err == nil
	default:
	}

	if err := archiveRun(env, cfg.outDir, completed); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if !completed {
		return 1
	}
	return 0
}

// archiveRun records every phase's final attempt in the sqlite archive and,
// when the run completed, writes the assembled document and stamps the run.
func archiveRun(env *runEnv, outDir string, completed bool) error {
	snapshots := make(map[string]phase.Snapshot, len(env.names))
	for _, name := range env.names {
		snap, err := env.phases.Get(name)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", name, err)
		}
		snapshots[name] = snap

		if _, err := env.db.RecordAttempt(env.run.RunID, snap, outcomeFor(snap.Status)); err != nil {
			return fmt.Errorf("record attempt %s: %w", name, err)
		}
	}

	if !completed {
		return nil
	}

	path, err := store.WriteDocument(outDir, env.run.RunID, env.topic, env.names, snapshots)
	if err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := env.db.CompleteRun(env.run.RunID); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}

	fmt.Printf("Document written to %s\n", path)
	return nil
}

// outcomeFor maps a final phase status to the archive outcome label.
func outcomeFor(status phase.Status) string {
	switch status {
	case phase.StatusComplete:
		return "completed"
	case phase.StatusError:
		return "errored"
	case phase.StatusInterrupted, phase.StatusSteering:
		return "cancelled"
	default:
		return string(status)
	}
}

// runServer starts the HTTP archive/admin server.
func runServer(cfg config) int {
	dataDir, err := resolveDataDir(cfg.dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: resolve data dir: %v\n", err)
		return 1
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: create data dir: %v\n", err)
		return 1
	}

	db, err := store.Open(filepath.Join(dataDir, "drafter.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: open archive: %v\n", err)
		return 1
	}
	defer db.Close()

	server := web.NewServer(web.Config{DB: db})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.port)

	ctx, cancel := signalContext()
	defer cancel()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server,
	}

	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	fmt.Fprintf(os.Stderr, "listening on %s\n", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	return 0
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
