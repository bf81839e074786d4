package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/abelbrown/duet/internal/journal"
)

func runStats() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	since := fs.Duration("since", 24*time.Hour, "Summarize requests newer than this")
	recent := fs.Int("recent", 10, "Number of recent requests to list")
	prune := fs.Duration("prune", 0, "Delete requests older than this before summarizing (0 = keep all)")
	path := fs.String("db", cfg.Gateway.Journal, "Journal database path")
	fs.Parse(os.Args[1:])

	if *path == "" {
		fatalf("no journal configured (gateway.journal is empty)")
	}
	if _, err := os.Stat(*path); err != nil {
		fatalf("journal not found at %s; run duetd first", *path)
	}

	j, err := journal.Open(*path)
	if err != nil {
		fatalf("open journal: %v", err)
	}
	defer j.Close()

	ctx := context.Background()

	if *prune > 0 {
		n, err := j.Prune(ctx, time.Now().Add(-*prune))
		if err != nil {
			fatalf("prune: %v", err)
		}
		fmt.Printf("Pruned %d requests older than %s\n\n", n, *prune)
	}

	// --- Route summary ---

	summary, err := j.Summary(ctx, time.Now().Add(-*since))
	if err != nil {
		fatalf("summary: %v", err)
	}
	fmt.Printf("Requests in the last %s:\n", *since)
	if len(summary) == 0 {
		fmt.Println("  (none)")
	} else {
		tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "  ROUTE\tCOUNT\tERRORS\tMEAN\tMAX")
		for _, s := range summary {
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%s\t%s\n", s.Route, s.Count, s.Errors,
				formatMs(ms(s.MeanDur)), formatMs(ms(s.MaxDur)))
		}
		tw.Flush()
	}

	// --- Recent requests ---

	if *recent <= 0 {
		return
	}
	entries, err := j.Recent(ctx, *recent)
	if err != nil {
		fatalf("recent: %v", err)
	}
	fmt.Printf("\nMost recent %d:\n", len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("  %s  %-12s %3d  %8s  req=%dB resp=%dB",
			e.At.Format("01-02 15:04:05"), e.Route, e.Status, formatMs(ms(e.Dur)), e.RequestBytes, e.ResponseBytes)
		if e.UpstreamStatus != 0 {
			line += fmt.Sprintf("  upstream=%d", e.UpstreamStatus)
		}
		if e.Err != "" {
			line += "  err=" + e.Err
		}
		fmt.Println(line)
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
