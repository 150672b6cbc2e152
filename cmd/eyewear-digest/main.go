package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/deusflow/eyewear-digest/internal/app"
	"github.com/deusflow/eyewear-digest/internal/config"
	"github.com/deusflow/eyewear-digest/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "eyewear-digest",
		Short:         "Monthly eyewear press digest",
		Long:          `Collects a month of eyewear press coverage from feeds and web search, sorts it into Trends, New Products and Brands per publication, and mails the digest.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand(), newWindowCommand())
	return root
}

func newRunCommand() *cobra.Command {
	var (
		month   string
		dryRun  bool
		outPath string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the digest and send it (or write it with --dry-run)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger.Init(cfg.LogLevel, cfg.Debug)

			opts := app.Options{Month: month, DryRun: dryRun, Format: format}
			if dryRun {
				var out io.Writer = cmd.OutOrStdout()
				if outPath != "" {
					f, err := os.Create(outPath)
					if err != nil {
						return fmt.Errorf("create %s: %w", outPath, err)
					}
					defer f.Close()
					out = f
				}
				opts.Out = out
			}

			return app.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "reporting month as YYYY-MM (default: previous month)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render the report without sending mail")
	cmd.Flags().StringVar(&outPath, "out", "", "dry-run output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", app.FormatHTML, "dry-run output format: html or text")
	return cmd
}

func newWindowCommand() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Print the reporting window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			w, err := app.ResolveWindow(month, time.Now(), cfg.Location)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), w.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "reporting month as YYYY-MM (default: previous month)")
	return cmd
}
