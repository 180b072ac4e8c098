// ABOUTME: Help display for the drafter CLI with grouped flags, examples, and environment status.
// ABOUTME: Provides printHelp for polished usage output and envStatus for API key detection.
package main

import (
	"fmt"
	"io"
	"os"
)

const drafterASCII = `
      __           ______
  ___/ /______ _  / _/ /____  ____
 / _  / __/ _ ` + "`" + `/ / _/ __/ -_)/ __/
 \_,_/_/  \_,_/ /_/ \__/\__//_/
`

// printHelp writes a formatted help message to w, including usage patterns,
// grouped flags, examples, environment status, and a docs link.
func printHelp(w io.Writer, ver string) {
	fmt.Fprint(w, drafterASCII)
	fmt.Fprintf(w, "drafter %s — steerable concurrent document generator\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  drafter <spec.yaml>                 Generate a document, streaming to the terminal")
	fmt.Fprintln(w, "  drafter -tui <spec.yaml>            Generate with the interactive TUI (cancel/steer/regenerate)")
	fmt.Fprintln(w, "  drafter -server [-port 2389]        Start the HTTP archive/admin server")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Run Flags:")
	fmt.Fprintln(w, "  -model <name>         Override the model named in the spec file")
	fmt.Fprintln(w, "  -base-url <url>       Custom API base URL for the LLM provider")
	fmt.Fprintln(w, "  -out <dir>            Directory for the assembled document (default: current directory)")
	fmt.Fprintln(w, "  -data-dir <dir>       Persistent state directory (default: $XDG_DATA_HOME/drafter)")
	fmt.Fprintln(w, "  -tui                  Run with interactive terminal UI")
	fmt.Fprintln(w, "  -verbose              Verbose output")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Server Flags:")
	fmt.Fprintln(w, "  -server               Start HTTP server mode")
	fmt.Fprintln(w, "  -port <port>          Server port (default: 2389)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  drafter examples/retry_design.yaml")
	fmt.Fprintln(w, "  drafter -tui -model gpt-4o examples/retry_design.yaml")
	fmt.Fprintln(w, "  drafter -server -port 8080")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  OPENAI_API_KEY        %s\n", envStatus("OPENAI_API_KEY"))
	fmt.Fprintf(w, "  OPENAI_BASE_URL       %s\n", envStatus("OPENAI_BASE_URL"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  OPENAI_API_KEY is required for document generation.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Docs: https://github.com/2389-research/drafter")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
