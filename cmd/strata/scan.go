package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dusk-indust/strata/internal/config"
	"github.com/dusk-indust/strata/internal/extract"
	"github.com/dusk-indust/strata/internal/scan"
)

func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	root := fs.String("root", ".", "repository root to scan")
	workers := fs.Int("workers", 0, "parse worker count (0 = one per CPU)")
	noPersist := fs.Bool("no-persist", false, "skip writing the cluster record")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	abs, err := filepath.Abs(*root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	cfg, err := config.Load(abs)
	if err != nil {
		return err
	}
	opts := cfg.ScanOptions()
	if *workers > 0 {
		opts.Workers = *workers
	}
	opts.Persist = !*noPersist

	result, err := runPipeline(abs, opts, *quiet)
	if err != nil {
		return err
	}

	if cfg.Store == "kuzu" {
		if err := persistKuzu(abs, result); err != nil {
			fmt.Printf("  warning: graph store not persisted: %v\n", err)
		}
	}

	printSummary(result)
	return nil
}

// runPipeline executes one scan, printing progress lines unless quiet.
func runPipeline(root string, opts scan.Options, quiet bool) (*scan.Result, error) {
	parser := extract.NewTreeSitterParser()
	defer parser.Close()

	var reporter *scan.ProgressReporter
	var drain sync.WaitGroup
	if !quiet {
		reporter = scan.NewProgressReporter()
		drain.Add(1)
		go func() {
			defer drain.Done()
			for ev := range reporter.Subscribe() {
				fmt.Println(scan.FormatProgress(ev))
			}
		}()
	}

	scanner := scan.NewScanner(root, parser, opts, reporter)
	result, err := scanner.Run(context.Background())
	if reporter != nil {
		reporter.Close()
		drain.Wait()
	}
	return result, err
}

func printSummary(result *scan.Result) {
	fmt.Printf("\n%d files, %d dependencies, %d clusters",
		result.Stats.TotalFiles, result.Stats.TotalDependencies, len(result.Clusters))
	if result.Match != nil {
		fmt.Printf(" (%d matched, %d orphaned)", len(result.Match.MatchedIDs), len(result.Match.Orphaned))
	}
	fmt.Printf(" in %s\n", result.Duration.Round(time.Millisecond))

	for _, c := range result.Clusters {
		fmt.Printf("  %-12s %-28s %-14s %d files\n", c.ID, c.Name, c.Layer, len(c.Files))
	}
	if result.Match != nil {
		for _, o := range result.Match.Orphaned {
			fmt.Printf("  orphaned: %s %s (%d files)\n", o.ID, o.Name, len(o.Files))
		}
	}
}
