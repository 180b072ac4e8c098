// ABOUTME: CRUD operations for presets, credentials, and projects in the archive database.
// ABOUTME: These back the web admin surfaces; IDs are UUIDs, names are unique where it matters.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("not found")

// CreatePreset inserts a named parameter preset.
func (d *DB) CreatePreset(name, model string, temperature *float64, maxTokens *int) (*Preset, error) {
	p := &Preset{
		PresetID:    uuid.New().String(),
		Name:        name,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := d.db.Exec(
		`INSERT INTO presets (preset_id, name, model, temperature, max_tokens, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.PresetID, p.Name, p.Model, p.Temperature, p.MaxTokens, p.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert preset: %w", err)
	}
	return p, nil
}

// GetPreset fetches one preset by ID.
func (d *DB) GetPreset(id string) (*Preset, error) {
	row := d.db.QueryRow(
		`SELECT preset_id, name, model, temperature, max_tokens, created_at FROM presets WHERE preset_id = ?`, id,
	)
	return scanPreset(row)
}

// GetPresetByName fetches one preset by its unique name.
func (d *DB) GetPresetByName(name string) (*Preset, error) {
	row := d.db.QueryRow(
		`SELECT preset_id, name, model, temperature, max_tokens, created_at FROM presets WHERE name = ?`, name,
	)
	return scanPreset(row)
}

func scanPreset(row *sql.Row) (*Preset, error) {
	var p Preset
	var created string
	var temp sql.NullFloat64
	var maxTok sql.NullInt64
	if err := row.Scan(&p.PresetID, &p.Name, &p.Model, &temp, &maxTok, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get preset: %w", err)
	}
	if temp.Valid {
		v := temp.Float64
		p.Temperature = &v
	}
	if maxTok.Valid {
		v := int(maxTok.Int64)
		p.MaxTokens = &v
	}
	p.CreatedAt, _ = time.Parse(timeFormat, created)
	return &p, nil
}

// ListPresets returns all presets ordered by name.
func (d *DB) ListPresets() ([]Preset, error) {
	rows, err := d.db.Query(
		`SELECT preset_id, name, model, temperature, max_tokens, created_at FROM presets ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	defer rows.Close()

	var presets []Preset
	for rows.Next() {
		var p Preset
		var created string
		var temp sql.NullFloat64
		var maxTok sql.NullInt64
		if err := rows.Scan(&p.PresetID, &p.Name, &p.Model, &temp, &maxTok, &created); err != nil {
			return nil, fmt.Errorf("scan preset: %w", err)
		}
		if temp.Valid {
			v := temp.Float64
			p.Temperature = &v
		}
		if maxTok.Valid {
			v := int(maxTok.Int64)
			p.MaxTokens = &v
		}
		p.CreatedAt, _ = time.Parse(timeFormat, created)
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// DeletePreset removes a preset by ID.
func (d *DB) DeletePreset(id string) error {
	res, err := d.db.Exec(`DELETE FROM presets WHERE preset_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateCredential inserts a provider credential.
func (d *DB) CreateCredential(name, provider, apiKey, baseURL string) (*Credential, error) {
	c := &Credential{
		CredentialID: uuid.New().String(),
		Name:         name,
		Provider:     provider,
		APIKey:       apiKey,
		BaseURL:      baseURL,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := d.db.Exec(
		`INSERT INTO credentials (credential_id, name, provider, api_key, base_url, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.CredentialID, c.Name, c.Provider, c.APIKey, c.BaseURL, c.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert credential: %w", err)
	}
	return c, nil
}

// GetCredential fetches one credential by ID.
func (d *DB) GetCredential(id string) (*Credential, error) {
	row := d.db.QueryRow(
		`SELECT credential_id, name, provider, api_key, base_url, created_at FROM credentials WHERE credential_id = ?`, id,
	)
	var c Credential
	var created string
	if err := row.Scan(&c.CredentialID, &c.Name, &c.Provider, &c.APIKey, &c.BaseURL, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	c.CreatedAt, _ = time.Parse(timeFormat, created)
	return &c, nil
}

// ListCredentials returns all credentials ordered by name. API keys come back
// as stored; redaction is the presentation layer's job.
func (d *DB) ListCredentials() ([]Credential, error) {
	rows, err := d.db.Query(
		`SELECT credential_id, name, provider, api_key, base_url, created_at FROM credentials ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		var c Credential
		var created string
		if err := rows.Scan(&c.CredentialID, &c.Name, &c.Provider, &c.APIKey, &c.BaseURL, &created); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		c.CreatedAt, _ = time.Parse(timeFormat, created)
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// DeleteCredential removes a credential by ID.
func (d *DB) DeleteCredential(id string) error {
	res, err := d.db.Exec(`DELETE FROM credentials WHERE credential_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateProject inserts a project.
func (d *DB) CreateProject(name, topic, description string) (*Project, error) {
	if name == "" {
		return nil, errors.New("project name must not be empty")
	}
	p := &Project{
		ProjectID:   uuid.New().String(),
		Name:        name,
		Topic:       topic,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := d.db.Exec(
		`INSERT INTO projects (project_id, name, topic, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ProjectID, p.Name, p.Topic, p.Description, p.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// GetProject fetches one project by ID.
func (d *DB) GetProject(id string) (*Project, error) {
	row := d.db.QueryRow(
		`SELECT project_id, name, topic, description, created_at FROM projects WHERE project_id = ?`, id,
	)
	var p Project
	var created string
	if err := row.Scan(&p.ProjectID, &p.Name, &p.Topic, &p.Description, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	p.CreatedAt, _ = time.Parse(timeFormat, created)
	return &p, nil
}

// ListProjects returns all projects, newest first.
func (d *DB) ListProjects() ([]Project, error) {
	rows, err := d.db.Query(
		`SELECT project_id, name, topic, description, created_at FROM projects ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var created string
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.Topic, &p.Description, &created); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt, _ = time.Parse(timeFormat, created)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project by ID.
func (d *DB) DeleteProject(id string) error {
	res, err := d.db.Exec(`DELETE FROM projects WHERE project_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
