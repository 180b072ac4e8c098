// ABOUTME: SQLite-backed persistence for runs, attempts, presets, credentials, and projects.
// ABOUTME: The phase store stays in-memory and authoritative; this archive is written at attempt boundaries.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/2389-research/drafter/phase"
)

const timeFormat = "2006-01-02T15:04:05Z07:00"

// Run is one document generation run.
type Run struct {
	RunID       string
	Topic       string
	Description string
	Model       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Attempt is the archived record of one phase generation attempt, including
// cancelled partials so steering history survives the process.
type Attempt struct {
	AttemptID  string
	RunID      string
	Phase      string
	Outcome    string
	Prompt     string
	Content    string
	ChunkCount int
	ErrMessage string
	RecordedAt time.Time
}

// Preset is a named bundle of request parameters selectable per run.
type Preset struct {
	PresetID    string
	Name        string
	Model       string
	Temperature *float64
	MaxTokens   *int
	CreatedAt   time.Time
}

// Credential is a stored provider API credential.
type Credential struct {
	CredentialID string
	Name         string
	Provider     string
	APIKey       string
	BaseURL      string
	CreatedAt    time.Time
}

// Project groups runs around one document topic.
type Project struct {
	ProjectID   string
	Name        string
	Topic       string
	Description string
	CreatedAt   time.Time
}

// DB is a SQLite-backed archive database.
type DB struct {
	db *sql.DB
}

// Open opens or creates the archive database at the given path and runs
// migrations.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			description TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at TEXT NOT NULL,
			completed_at TEXT
		);

		CREATE TABLE IF NOT EXISTS attempts (
			attempt_id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			phase TEXT NOT NULL,
			outcome TEXT NOT NULL,
			prompt TEXT NOT NULL,
			content TEXT NOT NULL,
			chunk_count INTEGER NOT NULL,
			err_message TEXT NOT NULL DEFAULT '',
			recorded_at TEXT NOT NULL,
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);

		CREATE TABLE IF NOT EXISTS presets (
			preset_id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			model TEXT NOT NULL,
			temperature REAL,
			max_tokens INTEGER,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS credentials (
			credential_id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			provider TEXT NOT NULL,
			api_key TEXT NOT NULL,
			base_url TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS projects (
			project_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			topic TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// CreateRun inserts a new run and returns it with a fresh ULID.
func (d *DB) CreateRun(topic, description, model string) (*Run, error) {
	run := &Run{
		RunID:       phase.NewULID().String(),
		Topic:       topic,
		Description: description,
		Model:       model,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := d.db.Exec(
		`INSERT INTO runs (run_id, topic, description, model, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Topic, run.Description, run.Model, run.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// CompleteRun stamps a run's completion time.
func (d *DB) CompleteRun(runID string) error {
	_, err := d.db.Exec(
		`UPDATE runs SET completed_at = ? WHERE run_id = ?`,
		time.Now().UTC().Format(timeFormat), runID,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// GetRun fetches one run by ID.
func (d *DB) GetRun(runID string) (*Run, error) {
	row := d.db.QueryRow(
		`SELECT run_id, topic, description, model, created_at, completed_at FROM runs WHERE run_id = ?`,
		runID,
	)
	var run Run
	var created string
	var completed sql.NullString
	if err := row.Scan(&run.RunID, &run.Topic, &run.Description, &run.Model, &created, &completed); err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(timeFormat, created)
	if completed.Valid {
		t, _ := time.Parse(timeFormat, completed.String)
		run.CompletedAt = &t
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (d *DB) ListRuns() ([]Run, error) {
	rows, err := d.db.Query(
		`SELECT run_id, topic, description, model, created_at, completed_at FROM runs ORDER BY run_id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var created string
		var completed sql.NullString
		if err := rows.Scan(&run.RunID, &run.Topic, &run.Description, &run.Model, &created, &completed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(timeFormat, created)
		if completed.Valid {
			t, _ := time.Parse(timeFormat, completed.String)
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordAttempt archives the terminal state of one phase attempt. Cancelled
// attempts carry their partial output in Content.
func (d *DB) RecordAttempt(runID string, snap phase.Snapshot, outcome string) (*Attempt, error) {
	att := &Attempt{
		AttemptID:  attemptIDFor(snap),
		RunID:      runID,
		Phase:      snap.Name,
		Outcome:    outcome,
		Content:    snap.Content,
		ChunkCount: snap.ChunkCount,
		ErrMessage: snap.ErrMessage,
		RecordedAt: time.Now().UTC(),
	}
	if snap.Context != nil {
		att.Prompt = snap.Context.OriginalPrompt
	}
	if snap.Cancellation != nil {
		att.Content = snap.Cancellation.PartialOutput
	}

	_, err := d.db.Exec(
		`INSERT INTO attempts (attempt_id, run_id, phase, outcome, prompt, content, chunk_count, err_message, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(attempt_id) DO UPDATE SET
			outcome = excluded.outcome,
			content = excluded.content,
			chunk_count = excluded.chunk_count,
			err_message = excluded.err_message,
			recorded_at = excluded.recorded_at`,
		att.AttemptID, att.RunID, att.Phase, att.Outcome, att.Prompt,
		att.Content, att.ChunkCount, att.ErrMessage, att.RecordedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return att, nil
}

// attemptIDFor uses the phase's attempt ULID when set, else mints a fresh one
// so pre-launch failures still archive.
func attemptIDFor(snap phase.Snapshot) string {
	if snap.AttemptID == (ulid.ULID{}) {
		return phase.NewULID().String()
	}
	return snap.AttemptID.String()
}

// ListAttempts returns the archived attempts for a run in recording order.
func (d *DB) ListAttempts(runID string) ([]Attempt, error) {
	rows, err := d.db.Query(
		`SELECT attempt_id, run_id, phase, outcome, prompt, content, chunk_count, err_message, recorded_at
		 FROM attempts WHERE run_id = ? ORDER BY attempt_id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var att Attempt
		var recorded string
		if err := rows.Scan(&att.AttemptID, &att.RunID, &att.Phase, &att.Outcome, &att.Prompt,
			&att.Content, &att.ChunkCount, &att.ErrMessage, &recorded); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		att.RecordedAt, _ = time.Parse(timeFormat, recorded)
		attempts = append(attempts, att)
	}
	return attempts, rows.Err()
}
