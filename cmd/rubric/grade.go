package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/snow-ghost/rubric/core"
	"github.com/snow-ghost/rubric/pkg/history"
	"github.com/snow-ghost/rubric/rubric"
	"github.com/spf13/cobra"
)

type gradeOpts struct {
	rubricPath string
	inputPath  string
	text       string
	query      string
	outputFmt  string
	save       bool
}

func newGradeCmd(g *globalOpts) *cobra.Command {
	opts := gradeOpts{}

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a text against a rubric file",
		Long: `Grades a text against the criteria in a rubric file. The text comes from
--text, from --input, or from stdin when --input is "-". Reasoning wrapped in
<think> or <thinking> tags is kept out of the judge's view.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGrade(cmd.Context(), g, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.rubricPath, "rubric", "r", "", "Path to rubric YAML or JSON (required)")
	cmd.Flags().StringVarP(&opts.inputPath, "input", "i", "", `File to grade, "-" for stdin`)
	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Text to grade")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "Prompt that produced the text")
	cmd.Flags().StringVarP(&opts.outputFmt, "output", "o", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Store the report in the history database")
	_ = cmd.MarkFlagRequired("rubric")
	cmd.MarkFlagsMutuallyExclusive("input", "text")

	return cmd
}

func runGrade(ctx context.Context, g *globalOpts, opts gradeOpts, stdin io.Reader, out io.Writer) error {
	r, err := rubric.Load(opts.rubricPath)
	if err != nil {
		return err
	}

	text, err := readInput(opts, stdin)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, opts.save)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	grader, err := a.grader("")
	if err != nil {
		return err
	}

	report, err := r.Grade(ctx, grader, text, opts.query)
	if err != nil {
		return fmt.Errorf("grading failed: %w", err)
	}

	if opts.save {
		if a.history == nil {
			return errors.New("--save needs history.path in the config or RUBRIC_HISTORY_PATH")
		}
		rec := &history.Record{
			Strategy: cfg.Grader.Strategy,
			Model:    cfg.Judge.Model,
			Query:    opts.query,
			Criteria: r.Criteria(),
			Report:   report,
		}
		if err := a.history.Save(ctx, rec); err != nil {
			return err
		}
		a.logger.Info("Report saved", "id", rec.ID)
	}

	return printReport(out, opts.outputFmt, report)
}

func readInput(opts gradeOpts, stdin io.Reader) (string, error) {
	switch opts.inputPath {
	case "":
		return opts.text, nil
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(opts.inputPath)
		if err != nil {
			return "", fmt.Errorf("failed to read input file %s: %w", opts.inputPath, err)
		}
		return string(data), nil
	}
}

func printReport(out io.Writer, format string, report core.EvaluationReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "text":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	fmt.Fprintf(out, "Score: %.3f (raw %.3f)\n", report.Score, report.RawScore)
	if len(report.Report) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tWEIGHT\tVERDICT\tREQUIREMENT\tREASON")
	for i, r := range report.Report {
		fmt.Fprintf(tw, "%d\t%g\t%s\t%s\t%s\n", i+1, r.Weight, r.Verdict, r.Requirement, r.Reason)
	}
	return tw.Flush()
}
