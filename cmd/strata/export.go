package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/strata/internal/config"
	"github.com/dusk-indust/strata/internal/export"
)

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	root := fs.String("root", ".", "repository root to scan")
	out := fs.String("o", "", "output file (default: config output.report, else stdout)")
	mermaid := fs.Bool("mermaid", false, "emit a Mermaid diagram instead of the JSON report")
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
	opts.Persist = true

	result, err := runPipeline(abs, opts, true)
	if err != nil {
		return err
	}

	if *mermaid {
		diagram := export.GenerateMermaid(result.Graph, result.Clusters)
		dest := firstNonEmpty(*out, cfg.Output.Diagram)
		if dest != "" {
			dest = resolvePath(abs, dest)
		}
		return writeOutput(diagram, dest)
	}

	report := export.BuildReport(abs, result)
	dest := firstNonEmpty(*out, cfg.Output.Report)
	if dest == "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	return export.WriteReport(report, resolvePath(abs, dest))
}

func writeOutput(content, dest string) error {
	if dest == "" {
		_, err := fmt.Print(content)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(content), 0o644)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolvePath keeps absolute paths and anchors relative ones at the repo root.
func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
