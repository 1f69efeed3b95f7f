// Package main provides the rubric CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

// globalOpts are flags shared by every command
type globalOpts struct {
	configPath string
	provider   string
	model      string
	strategy   string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:   "rubric",
		Short: "Grade LLM outputs against weighted rubrics with an LLM judge",
		Long: `rubric scores a text against weighted natural-language criteria by asking
a judge model for a MET/UNMET verdict per criterion (or one holistic score),
then aggregates the verdicts into a normalized score.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config (default: $RUBRIC_CONFIG)")
	flags.StringVar(&opts.provider, "provider", "", "Judge provider, overrides config")
	flags.StringVar(&opts.model, "model", "", "Judge model, overrides config")
	flags.StringVar(&opts.strategy, "strategy", "", "Grading strategy: per_criterion, one_shot or rubric_as_judge")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level, overrides config")

	rootCmd.AddCommand(
		newGradeCmd(opts),
		newServeCmd(opts),
		newHistoryCmd(opts),
		newCalibrateCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}
