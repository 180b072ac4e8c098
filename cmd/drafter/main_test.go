// ABOUTME: Tests for CLI mode dispatch, outcome mapping, and run archiving.
// ABOUTME: Exercises run() exit codes and archiveRun against a real sqlite archive.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2389-research/drafter/phase"
	"github.com/2389-research/drafter/store"
)

func TestRunWithoutSpecFileShowsHelp(t *testing.T) {
	if code := run(config{}); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestRunRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if code := run(config{specFile: "spec.yaml"}); code != 1 {
		t.Errorf("expected exit code 1 without API key, got %d", code)
	}
}

func TestOutcomeFor(t *testing.T) {
	tests := []struct {
		status phase.Status
		want   string
	}{
		{phase.StatusComplete, "completed"},
		{phase.StatusError, "errored"},
		{phase.StatusInterrupted, "cancelled"},
		{phase.StatusSteering, "cancelled"},
		{phase.StatusStreaming, "streaming"},
	}

	for _, tt := range tests {
		if got := outcomeFor(tt.status); got != tt.want {
			t.Errorf("outcomeFor(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestArchiveRunWritesDocumentAndStampsRun(t *testing.T) {
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "drafter.db"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer db.Close()

	dbRun, err := db.CreateRun("Retry design", "background", "test-model")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	phases := phase.NewStore()
	for _, name := range []string{"plan", "design"} {
		if err := phases.Register(name); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
		if err := phases.CaptureContext(name, "prompt for "+name, phase.Params{Model: "test-model"}); err != nil {
			t.Fatalf("capture context: %v", err)
		}
		if err := phases.AppendContent(name, "## "+name+" content"); err != nil {
			t.Fatalf("append content: %v", err)
		}
		if err := phases.SetStatus(name, phase.StatusComplete); err != nil {
			t.Fatalf("set status: %v", err)
		}
	}

	outDir := filepath.Join(dir, "out")
	env := &runEnv{db: db, run: dbRun, phases: phases, names: []string{"plan", "design"}, topic: "Retry design"}

	if err := archiveRun(env, outDir, true); err != nil {
		t.Fatalf("archiveRun failed: %v", err)
	}

	// Document written with both sections
	doc, err := os.ReadFile(filepath.Join(outDir, dbRun.RunID+".md"))
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	if !strings.Contains(string(doc), "## plan content") || !strings.Contains(string(doc), "## design content") {
		t.Errorf("document missing phase content:\n%s", doc)
	}

	// Attempts archived
	attempts, err := db.ListAttempts(dbRun.RunID)
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	for _, a := range attempts {
		if a.Outcome != "completed" {
			t.Errorf("attempt %s: expected outcome completed, got %q", a.Phase, a.Outcome)
		}
	}

	// Run stamped complete
	got, err := db.GetRun(dbRun.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.CompletedAt == nil {
		t.Error("expected run completed_at to be set")
	}
}

func TestArchiveRunSkipsDocumentWhenIncomplete(t *testing.T) {
	dir := t.TempDir()

	db, err := store.Open(filepath.Join(dir, "drafter.db"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer db.Close()

	dbRun, err := db.CreateRun("Retry design", "", "test-model")
	if err != nil {
		t.Fatalf("create run: %v", err)
	}

	phases := phase.NewStore()
	if err := phases.Register("plan"); err != nil {
		t.Fatalf("register: %v", err)
	}

	outDir := filepath.Join(dir, "out")
	env := &runEnv{db: db, run: dbRun, phases: phases, names: []string{"plan"}, topic: "Retry design"}

	if err := archiveRun(env, outDir, false); err != nil {
		t.Fatalf("archiveRun failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, dbRun.RunID+".md")); !os.IsNotExist(err) {
		t.Error("expected no document for an incomplete run")
	}

	got, err := db.GetRun(dbRun.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.CompletedAt != nil {
		t.Error("expected run to stay open")
	}
}
