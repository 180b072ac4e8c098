// ABOUTME: Minimal .env reader so OPENAI_API_KEY can live next to the spec file.
// ABOUTME: Real environment variables always win over file values.
package main

import (
	"bufio"
	"os"
	"strings"
)

// loadDotEnv applies KEY=VALUE pairs from path to the process environment,
// skipping any key that is already set. A missing file is not an error; a
// drafter checkout without a .env is the normal case.
func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := parseDotEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		os.Setenv(key, value)
	}
}

// parseDotEnvLine extracts one assignment from a .env line. Blank lines,
// comments, and lines without an = are reported as not-ok. An "export "
// prefix is tolerated so a sourced shell file parses too, and matching
// single or double quotes around the value are stripped.
func parseDotEnvLine(raw string) (key, value string, ok bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")

	// Values may themselves contain =, so split on the first one only.
	key, value, ok = strings.Cut(line, "=")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key == "" {
		return "", "", false
	}

	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return key, value, true
}
