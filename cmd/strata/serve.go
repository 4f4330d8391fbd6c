package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dusk-indust/strata/internal/extract"
	"github.com/dusk-indust/strata/internal/jobs"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8137", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parser := extract.NewTreeSitterParser()
	defer parser.Close()

	runner := jobs.NewRunner(jobs.NewJobStore(), parser)
	server := jobs.NewServer(jobs.DefaultCard(version, "http://"+*addr), runner)

	ctx := context.Background()
	if err := server.Start(ctx, *addr); err != nil {
		return err
	}
	fmt.Printf("strata scan service listening on %s\n", *addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
