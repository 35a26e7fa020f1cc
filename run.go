package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lean_canvas_coach/canvas"
	"lean_canvas_coach/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process an inputs file through the workflow",
	Long: `Run reads the founder's answers from a YAML file (field key to answer),
drafts a Lean Canvas and, on request, critiques and revises it and runs
framework analyses. The assembled Markdown report is written to --out or
stdout.

Field keys: target_customer, customer_problem, proposed_solution,
competitors, core_technology, differentiation, market_info.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputsPath, _ := cmd.Flags().GetString("inputs")
		feedback, _ := cmd.Flags().GetBool("feedback")
		revise, _ := cmd.Flags().GetBool("revise")
		analyses, _ := cmd.Flags().GetStringSlice("analysis")
		outPath, _ := cmd.Flags().GetString("out")
		htmlPath, _ := cmd.Flags().GetString("html")
		snapPath, _ := cmd.Flags().GetString("snapshot")

		var frameworks []canvas.Framework
		for _, key := range analyses {
			f, err := canvas.ParseFramework(key)
			if err != nil {
				return err
			}
			frameworks = append(frameworks, f)
		}
		rec, err := canvas.LoadInputs(inputsPath)
		if err != nil {
			return err
		}

		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		sess, err := a.newSession(uuid.NewString())
		if err != nil {
			return err
		}
		if err := sess.Submit(rec).Err(); err != nil {
			return err
		}

		steps := []step{{"draft", sess.GenerateDraft}}
		if feedback || revise {
			steps = append(steps, step{"feedback", sess.GenerateFeedback})
		}
		if revise {
			steps = append(steps, step{"revision", sess.GenerateRevision})
		}
		for _, f := range frameworks {
			steps = append(steps, step{"analysis " + f.Key(), func(ctx context.Context) (string, error) {
				return sess.RunAnalysis(ctx, f)
			}})
		}

		for _, st := range steps {
			log.Printf("[cli] %s", st.name)
			if err := runStep(cmd.Context(), a.cfg.LLM.Timeout, st.run); err != nil {
				return fmt.Errorf("%s: %w", st.name, err)
			}
		}

		snap := report.FromSession(sess, time.Now())
		md := report.Markdown(snap)
		if outPath == "" {
			fmt.Print(md)
		} else if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
			return err
		}
		if htmlPath != "" {
			page, err := report.Page("Lean Canvas report", md)
			if err != nil {
				return err
			}
			if err := os.WriteFile(htmlPath, []byte(page), 0o644); err != nil {
				return err
			}
		}
		if snapPath != "" {
			data, err := report.YAML(snap)
			if err != nil {
				return err
			}
			if err := os.WriteFile(snapPath, data, 0o644); err != nil {
				return err
			}
		}
		log.Printf("[cli] done stage=%s", sess.State.Stage())
		return nil
	},
}

// step is one model-backed action of a run.
type step struct {
	name string
	run  func(context.Context) (string, error)
}

func runStep(parent context.Context, timeout time.Duration, run func(context.Context) (string, error)) error {
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}
	_, err := run(ctx)
	return err
}

func init() {
	runCmd.Flags().String("inputs", "", "YAML file with the founder's answers (required)")
	runCmd.Flags().Bool("feedback", false, "critique the draft")
	runCmd.Flags().Bool("revise", false, "critique and revise the draft")
	runCmd.Flags().StringSlice("analysis", nil, "framework analysis to run on the final canvas (value-proposition, 4p, 3c, swot); repeatable")
	runCmd.Flags().String("out", "", "write the Markdown report here instead of stdout")
	runCmd.Flags().String("html", "", "also write the report as a standalone HTML page")
	runCmd.Flags().String("snapshot", "", "also write the session snapshot as YAML")
	_ = runCmd.MarkFlagRequired("inputs")

	rootCmd.AddCommand(runCmd)
}
