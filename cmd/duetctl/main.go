// Command duetctl is the maintenance CLI for duet.
//
// Usage:
//
//	duetctl                     Show help
//	duetctl events              JSONL event log viewer
//	duetctl stats               Gateway request journal summary
//	duetctl search <query>      Results-only search against the backend
package main

import (
	"fmt"
	"os"
)

const usage = `duetctl: duet debug & maintenance CLI

Usage:
  duetctl <command> [flags]

Commands:
  events      JSONL event log viewer
  stats       Gateway request journal summary
  search      Vector vs reranked results for a query

Environment:
  DUET_HOME          Data directory (default: ~/.duet)
  DUET_BACKEND_URL   Backend root URL for search

Run 'duetctl <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "events":
		runEvents()
	case "stats":
		runStats()
	case "search":
		runSearch()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "duetctl: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
