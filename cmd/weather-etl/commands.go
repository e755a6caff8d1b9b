package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-etl/internal/pipeline"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "weather-etl",
		Short:        "Hourly weather extract, transform and load into S3",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCommand(), newRunCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the scheduler and the run status API (default)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "run",
		Short:        "Execute a single pipeline run and exit",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rec, err := a.runner.RunNow(ctx, pipeline.TriggerCLI)
			if err != nil {
				return fmt.Errorf("run %s failed: %w", rec.ID, err)
			}
			log.Printf("INFO: run %s uploaded s3://%s/%s", rec.ID, a.cfg.BucketName, rec.ObjectKey)
			return nil
		},
	}
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
