package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/duet/internal/backend"
	"github.com/abelbrown/duet/internal/ui"
)

func runSearch() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	topK := fs.Int("k", cfg.UI.SearchTopK, "Number of results per column")
	url := fs.String("url", cfg.Backend.URL, "Backend root URL")
	timeout := fs.Duration("timeout", 30*time.Second, "Request timeout")
	fs.Parse(os.Args[1:])

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: duetctl search [flags] <query>")
		os.Exit(2)
	}

	client := backend.NewClient(*url, *timeout)

	start := time.Now()
	resp, err := client.Search(context.Background(), backend.SearchRequest{Query: query, TopK: *topK})
	if err != nil {
		fatalf("search: %v", err)
	}

	fmt.Printf("Query: %q (%s)\n", query, formatMs(ms(time.Since(start))))
	fmt.Print(ui.PlainResults(resp))
}
