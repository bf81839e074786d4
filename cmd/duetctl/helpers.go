package main

import (
	"fmt"
	"os"

	"github.com/abelbrown/duet/internal/config"
)

// loadConfig loads the config or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// fatalf prints to stderr and exits non-zero.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}

// formatMs renders a duration in milliseconds with precision scaled to size.
func formatMs(ms float64) string {
	return fmt.Sprintf("%.*fms", durPrecision(ms), ms)
}
