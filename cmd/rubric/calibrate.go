package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/snow-ghost/rubric/testkit"
	"github.com/spf13/cobra"
)

type calibrateOpts struct {
	casesPath string
	sample    bool
	outputFmt string
}

func newCalibrateCmd(g *globalOpts) *cobra.Command {
	opts := calibrateOpts{}

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Check the configured judge against cases with known scores",
		Long: `Grades every calibration case and compares the score with the expected one.
Exits non-zero when any case falls outside its tolerance.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalibrate(cmd.Context(), g, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.casesPath, "cases", "", "Path to calibration cases YAML or JSON")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "Use the built-in sample cases")
	cmd.Flags().StringVarP(&opts.outputFmt, "output", "o", "text", "Output format: text or json")
	cmd.MarkFlagsOneRequired("cases", "sample")
	cmd.MarkFlagsMutuallyExclusive("cases", "sample")

	return cmd
}

func runCalibrate(ctx context.Context, g *globalOpts, opts calibrateOpts, out io.Writer) error {
	cases := testkit.SampleCasesFixed()
	if !opts.sample {
		var err error
		if cases, err = testkit.LoadCases(opts.casesPath); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	grader, err := a.grader("")
	if err != nil {
		return err
	}

	metrics, results, passed, err := testkit.NewRunner().Run(ctx, grader, cases)
	if err != nil {
		return err
	}

	if opts.outputFmt == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"metrics": metrics, "results": results, "passed": passed}); err != nil {
			return err
		}
	} else if err := printCalibration(out, metrics, results); err != nil {
		return err
	}

	if !passed {
		return fmt.Errorf("calibration failed: %.0f of %.0f cases outside tolerance", metrics["cases_failed"], metrics["cases_total"])
	}
	return nil
}

func printCalibration(out io.Writer, metrics map[string]float64, results []testkit.CaseResult) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tSCORE\tWANT\tRESULT")
	for _, r := range results {
		status := "ok"
		switch {
		case r.Error != "":
			status = "error: " + r.Error
		case !r.Passed:
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%s\n", r.Name, r.Score, r.Want, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(out)
	for _, k := range keys {
		fmt.Fprintf(out, "%s: %g\n", k, metrics[k])
	}
	return nil
}
