// ABOUTME: Document writer assembling completed phase content into a single markdown file.
// ABOUTME: Consumes final phase snapshots; phases that did not complete are annotated, not silently dropped.
package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/2389-research/drafter/phase"
)

// AssembleDocument joins completed phase content into one markdown document
// in the given phase order. Errored phases contribute a note instead of
// content so the document records what is missing.
func AssembleDocument(title string, names []string, snapshots map[string]phase.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	b.WriteString(fmt.Sprintf("_Generated %s_\n", time.Now().UTC().Format("2006-01-02")))

	for _, name := range names {
		snap, ok := snapshots[name]
		if !ok {
			continue
		}
		b.WriteString("\n---\n\n")
		switch snap.Status {
		case phase.StatusComplete:
			b.WriteString(strings.TrimRight(snap.Content, "\n"))
			b.WriteString("\n")
		case phase.StatusError:
			b.WriteString(fmt.Sprintf("> The %s section failed to generate: %s\n", name, snap.ErrMessage))
		default:
			b.WriteString(fmt.Sprintf("> The %s section was not finished (status: %s).\n", name, snap.Status))
		}
	}
	return b.String()
}

// WriteDocument assembles and writes the document under dir, returning the
// written path. The filename carries the run ID so reruns never clobber.
func WriteDocument(dir, runID, title string, names []string, snapshots map[string]phase.Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.md", runID))
	doc := AssembleDocument(title, names, snapshots)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	log.Printf("component=store.document action=write path=%s bytes=%d", path, len(doc))
	return path, nil
}
