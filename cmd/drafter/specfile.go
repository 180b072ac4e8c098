// ABOUTME: Loads the YAML document spec that describes what a run should produce.
// ABOUTME: Applies defaults for model and phase order, and validates phase names up front.
package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/drafter/prompt"
)

// defaultModel is used when neither the spec file nor the -model flag names one.
const defaultModel = "gpt-4o"

// runSpec mirrors the YAML document spec file.
type runSpec struct {
	Topic       string   `yaml:"topic"`
	Description string   `yaml:"description"`
	Audience    string   `yaml:"audience"`
	Constraints string   `yaml:"constraints"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   *int     `yaml:"max_tokens"`
	Phases      []string `yaml:"phases"`
}

// loadRunSpec reads and validates a YAML spec file. Missing model defaults to
// defaultModel; missing phases default to the standard five-phase order.
func loadRunSpec(path string) (runSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runSpec{}, fmt.Errorf("read spec file: %w", err)
	}

	var rs runSpec
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return runSpec{}, fmt.Errorf("parse spec file %s: %w", path, err)
	}

	if strings.TrimSpace(rs.Topic) == "" {
		return runSpec{}, fmt.Errorf("spec file %s: topic is required", path)
	}
	if rs.Model == "" {
		rs.Model = defaultModel
	}
	if len(rs.Phases) == 0 {
		rs.Phases = append([]string(nil), prompt.PhaseNames...)
	}
	for _, name := range rs.Phases {
		if prompt.SystemForPhase(name) == "" {
			return runSpec{}, fmt.Errorf("spec file %s: unknown phase %q", path, name)
		}
	}

	return rs, nil
}
