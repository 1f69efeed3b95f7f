package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/snow-ghost/rubric/pkg/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(g *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect stored evaluation reports",
	}

	var (
		strategy string
		limit    int
		since    time.Duration
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored evaluations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), g, func(store *history.Store) error {
				f := history.Filter{Strategy: strategy, Limit: limit}
				if since > 0 {
					f.Since = time.Now().Add(-since)
				}
				records, err := store.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), records)
			})
		},
	}
	listCmd.Flags().StringVar(&strategy, "filter-strategy", "", "Only show this strategy")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records")
	listCmd.Flags().DurationVar(&since, "since", 0, "Only show records newer than this, e.g. 24h")

	showCmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print one stored evaluation as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), g, func(store *history.Store) error {
				rec, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored evaluation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd.Context(), g, func(store *history.Store) error {
				return store.Delete(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

// withHistory opens only the store; no judge is needed to read history
func withHistory(ctx context.Context, g *globalOpts, fn func(*history.Store) error) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.New("history is disabled: set history.path in the config or RUBRIC_HISTORY_PATH")
	}

	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(store)
}

func printRecords(out io.Writer, records []*history.Record) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTRATEGY\tMODEL\tSCORE\tRAW")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%.3f\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Strategy, r.Model, r.Report.Score, r.Report.RawScore)
	}
	return tw.Flush()
}
