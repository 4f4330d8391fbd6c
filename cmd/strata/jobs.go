package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dusk-indust/strata/internal/jobs"
)

const jobsUsage = `usage: strata jobs <subcommand> [flags]

subcommands:
  submit -repo <path>    submit a scan job
  get -id <job-id>       print one job
  list [-state <state>]  list jobs
  cancel -id <job-id>    cancel a running job
  watch -id <job-id>     stream a job's progress until it finishes
`

func runJobs(args []string) error {
	if len(args) == 0 {
		fmt.Print(jobsUsage)
		return nil
	}

	sub, rest := args[0], args[1:]
	fs := flag.NewFlagSet("jobs "+sub, flag.ContinueOnError)
	endpoint := fs.String("endpoint", "http://localhost:8137", "scan service endpoint")
	repo := fs.String("repo", "", "repository to scan (submit)")
	id := fs.String("id", "", "job ID (get, cancel, watch)")
	state := fs.String("state", "", "state filter (list)")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	client := jobs.NewHTTPClient()
	ctx := context.Background()

	switch sub {
	case "submit":
		if *repo == "" {
			return fmt.Errorf("jobs submit: -repo is required")
		}
		abs, err := filepath.Abs(*repo)
		if err != nil {
			return err
		}
		job, err := client.SubmitScan(ctx, *endpoint, jobs.SubmitScanRequest{
			Repo:   abs,
			Params: jobs.ScanParams{Persist: true},
		})
		if err != nil {
			return err
		}
		fmt.Printf("submitted %s (%s)\n", job.ID, job.Status.State)
		return nil

	case "get":
		if *id == "" {
			return fmt.Errorf("jobs get: -id is required")
		}
		job, err := client.GetJob(ctx, *endpoint, jobs.GetJobRequest{ID: *id})
		if err != nil {
			return err
		}
		return printJSON(job)

	case "list":
		resp, err := client.ListJobs(ctx, *endpoint, jobs.ListJobsRequest{State: *state})
		if err != nil {
			return err
		}
		for _, job := range resp.Jobs {
			fmt.Printf("%s  %-10s %s\n", job.ID, job.Status.State, job.Repo)
		}
		fmt.Printf("%d job(s)\n", resp.TotalSize)
		return nil

	case "cancel":
		if *id == "" {
			return fmt.Errorf("jobs cancel: -id is required")
		}
		job, err := client.CancelJob(ctx, *endpoint, jobs.CancelJobRequest{ID: *id})
		if err != nil {
			return err
		}
		fmt.Printf("cancel requested for %s (was %s)\n", job.ID, job.Status.State)
		return nil

	case "watch":
		if *id == "" {
			return fmt.Errorf("jobs watch: -id is required")
		}
		events, err := client.StreamJob(ctx, *endpoint, *id)
		if err != nil {
			return err
		}
		for ev := range events {
			switch {
			case ev.Err != nil:
				fmt.Fprintf(os.Stderr, "  stream: %v\n", ev.Err)
			case ev.Progress != nil:
				fmt.Printf("  %s %s %s\n", ev.Progress.Status, ev.Progress.Phase, ev.Progress.Message)
			case ev.Job != nil:
				fmt.Printf("%s: %s\n", ev.Job.ID, ev.Job.Status.State)
				if ev.Job.Report != nil {
					fmt.Printf("  %d files, %d dependencies, %d clusters\n",
						ev.Job.Report.Stats.TotalFiles,
						ev.Job.Report.Stats.TotalDependencies,
						len(ev.Job.Report.Clusters))
				}
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown jobs subcommand %q\n\n%s", sub, jobsUsage)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}
