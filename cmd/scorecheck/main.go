// Command scorecheck validates scoring tables and scores answer files offline,
// using the same engine the API serves.
//
// Usage:
//
//	scorecheck validate configs/scoring_table.json
//	scorecheck score --table configs/scoring_table.json answers.json
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/phrazzld/careerpath-api/internal/scoring"
	"github.com/spf13/cobra"
)

const defaultTablePath = "configs/scoring_table.json"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scorecheck",
		Short:        "Inspect career assessment scoring tables",
		SilenceUsage: true,
	}
	root.AddCommand(newValidateCmd(), newScoreCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <table>",
		Short: "Check that a scoring table loads and only names catalog traits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, table, err := loadEngine(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "OK %s\n", args[0])
			fmt.Fprintf(out, "questions: %d\n", engine.QuestionCount())
			fmt.Fprintf(out, "traits:    %d of %d\n", len(table.Traits()), len(domain.TraitNames()))

			var unscored []string
			for _, trait := range domain.TraitNames() {
				if engine.Denominator(trait) == 0 {
					unscored = append(unscored, trait)
				}
			}
			for _, trait := range unscored {
				fmt.Fprintf(out, "warning: %s can never score above 0\n", trait)
			}
			return nil
		},
	}
}

func newScoreCmd() *cobra.Command {
	var (
		tablePath string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "score <answers.json>",
		Short: "Score an answers file against a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := loadEngine(tablePath)
			if err != nil {
				return err
			}

			answers, err := readAnswers(args[0])
			if err != nil {
				return err
			}

			breakdown := engine.Breakdown(answers)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(breakdown)
			}
			writeBreakdown(cmd.OutOrStdout(), engine, breakdown)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tablePath, "table", "t", defaultTablePath, "path to the scoring table (.json, .yaml)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the breakdown as JSON")
	return cmd
}

func loadEngine(path string) (*scoring.Engine, scoring.Table, error) {
	table, err := scoring.LoadTable(path)
	if err != nil {
		return nil, nil, err
	}
	engine, err := scoring.NewEngine(table)
	if err != nil {
		return nil, nil, err
	}
	return engine, table, nil
}

func readAnswers(path string) (*domain.AnswerSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	answers := domain.NewAnswerSet()
	if err := json.Unmarshal(data, answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return answers, nil
}

// writeBreakdown prints traits from highest to lowest score.
func writeBreakdown(w io.Writer, engine *scoring.Engine, breakdown []domain.TraitScore) {
	sorted := append([]domain.TraitScore(nil), breakdown...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Normalized > sorted[j].Normalized
	})
	for _, ts := range sorted {
		fmt.Fprintf(w, "%-28s %6.2f  (%g/%g)\n", ts.Name, ts.Normalized, ts.Raw, engine.Denominator(ts.Name))
	}
}
