package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dusk-indust/strata/internal/status"
)

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	root := fs.String("root", ".", "repository root")
	if err := fs.Parse(args); err != nil {
		return err
	}

	abs, err := filepath.Abs(*root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}

	ws, err := status.Report(abs)
	if err != nil {
		return err
	}

	fmt.Printf("Workspace: %s\n\n", ws.Root)
	if ws.HasConfig {
		fmt.Printf("  config        %s\n", ws.ConfigPath)
	} else {
		fmt.Println("  config        none (run 'strata init')")
	}

	if !ws.HasClusterFile {
		fmt.Println("  clusters      none (run 'strata scan')")
		return nil
	}

	fmt.Printf("  clusters      %d\n", ws.ClusterCount)
	layers := make([]string, 0, len(ws.Layers))
	for l := range ws.Layers {
		layers = append(layers, l)
	}
	sort.Strings(layers)
	for _, l := range layers {
		fmt.Printf("    %-12s%d\n", l, ws.Layers[l])
	}
	fmt.Printf("  last scan     %s\n", ws.LastScan.Format("2006-01-02 15:04:05"))
	return nil
}
