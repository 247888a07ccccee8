// Package main is the comiclist entry point.
//
// Usage:
//
//	comiclist search <query>     — paginated volume search
//	comiclist suggest <query>    — one suggestion query
//	comiclist owned <subcommand> — manage the saved list
//	comiclist configure          — store the API key
//	comiclist version            — print version
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/comiclist/comiclist/internal/comicvine"
	"github.com/comiclist/comiclist/internal/dispatch"
	"github.com/comiclist/comiclist/internal/observability"
	"github.com/comiclist/comiclist/internal/owned"
	"github.com/comiclist/comiclist/internal/search"
)

const (
	version = "0.1.0"
	appName = "comiclist"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch cmd := os.Args[1]; cmd {
	case "search":
		runSearch(os.Args[2:])
	case "suggest":
		runSuggest(os.Args[2:])
	case "owned":
		runOwned(os.Args[2:])
	case "configure":
		runConfigure()
	case "version":
		fmt.Printf("%s v%s\n", appName, version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%s v%s — Comic Vine catalog search with a personal owned list

Usage:
  %s <command>

Commands:
  search <query>            Search volumes; Enter loads the next page, q quits
  suggest <query>           Print search suggestions for a query
  owned list                Print the saved list
  owned add <id> <title>    Save a volume
  owned remove <id>         Remove a volume from the saved list
  configure                 Store the Comic Vine API key
  version                   Print version
`, appName, version, appName)
}

// session builds the catalog client from persisted config.
func catalogSession(log *observability.Logger) *comicvine.Session {
	cfg, err := loadPersistedConfig()
	if err != nil || cfg == nil || cfg.APIKey == "" {
		fmt.Fprintf(os.Stderr, "no API key configured; run `%s configure` first\n", appName)
		os.Exit(1)
	}
	opts := []comicvine.Option{comicvine.WithLogger(log)}
	if cfg.BaseURL != "" {
		opts = append(opts, comicvine.WithBaseURL(cfg.BaseURL))
	}
	return comicvine.NewSession(cfg.APIKey, opts...)
}

func runSearch(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: comiclist search <query>")
		os.Exit(1)
	}
	query := strings.Join(args, " ")
	log := observability.NewLogger("search", nil)

	ui := dispatch.NewSerialQueue()
	defer ui.Close()

	session, err := search.NewSession(catalogSession(log), query, ui, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "starting search: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	printed := 0
	for {
		done := make(chan error, 1)
		if !session.NextPage(func(err error) { done <- err }) {
			return // a fetch is already in flight; cannot happen in this loop
		}
		if err := <-done; err != nil {
			fmt.Fprintf(os.Stderr, "fetching page: %v\n", err)
		}

		total := session.NumberOfResults()
		for i := printed; i < total; i++ {
			r := session.ResultAt(i)
			line := r.Title
			if r.PublisherName != "" {
				line += " — " + r.PublisherName
			}
			fmt.Printf("%3d. %s\n", i+1, line)
		}
		if total == printed {
			fmt.Println("no further results")
			return
		}
		printed = total

		fmt.Print("-- Enter for next page, q to quit: ")
		var input string
		fmt.Scanln(&input)
		if strings.TrimSpace(input) == "q" {
			return
		}
	}
}

func runSuggest(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: comiclist suggest <query>")
		os.Exit(1)
	}
	query := strings.Join(args, " ")
	log := observability.NewLogger("suggest", nil)

	ui := dispatch.NewSerialQueue()
	defer ui.Close()

	delivered := make(chan []string, 1)
	pipeline := search.NewSuggestionPipeline(search.SuggestionConfig{
		Catalog: catalogSession(log),
		UI:      ui,
		OnSuggestions: func(titles []string) {
			delivered <- titles
		},
		Logger: log,
	})
	defer pipeline.Close()

	pipeline.SetQuery(query)

	select {
	case titles := <-delivered:
		if len(titles) == 0 {
			fmt.Println("no suggestions")
			return
		}
		for _, title := range titles {
			fmt.Println(title)
		}
	case <-time.After(30 * time.Second):
		fmt.Fprintln(os.Stderr, "timed out waiting for suggestions")
		os.Exit(1)
	}
}

func runOwned(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: comiclist owned list|add|remove")
		os.Exit(1)
	}
	log := observability.NewLogger("owned", nil)

	dir := dataDir()
	if dir == "" {
		fmt.Fprintln(os.Stderr, "cannot determine data directory")
		os.Exit(1)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create data dir: %v\n", err)
		os.Exit(1)
	}

	list, err := owned.Open(dir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening owned list: %v\n", err)
		os.Exit(1)
	}
	defer list.Close()

	switch sub := args[0]; sub {
	case "list":
		summaries, err := list.All()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if len(summaries) == 0 {
			fmt.Println("no saved volumes")
			return
		}
		for _, s := range summaries {
			line := fmt.Sprintf("%d\t%s", s.Identifier, s.Title)
			if s.PublisherName != "" {
				line += " — " + s.PublisherName
			}
			fmt.Println(line)
		}

	case "add":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: comiclist owned add <id> <title>")
			os.Exit(1)
		}
		identifier, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad identifier %q\n", args[1])
			os.Exit(1)
		}
		summary := comicvine.VolumeSummary{
			Identifier: identifier,
			Title:      strings.Join(args[2:], " "),
		}
		saved, err := list.Contains(identifier)
		if err == nil && saved {
			fmt.Println("already saved")
			return
		}
		if err == nil {
			err = list.Add(summary)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Println("saved")

	case "remove":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: comiclist owned remove <id>")
			os.Exit(1)
		}
		identifier, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad identifier %q\n", args[1])
			os.Exit(1)
		}
		if err := list.Remove(identifier); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Println("removed")

	default:
		fmt.Fprintf(os.Stderr, "unknown owned subcommand: %s\n", sub)
		os.Exit(1)
	}
}
