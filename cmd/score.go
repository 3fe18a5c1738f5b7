package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/mockview/internal/observability"
	"github.com/abhisek/mockview/internal/report"
	"github.com/abhisek/mockview/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score [answer]",
	Short: "Score a single answer",
	Long:  "Score a single answer with the quality estimator. The answer is read from stdin when no argument is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		question, _ := cmd.Flags().GetString("question")
		asJSON, _ := cmd.Flags().GetBool("json")
		heuristic, _ := cmd.Flags().GetBool("heuristic")

		answer := strings.Join(args, " ")
		if answer == "" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read answer: %w", err)
			}
			answer = strings.TrimSpace(string(b))
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := observability.NewLogger(cmd.ErrOrStderr(), cfg.Log, "text")
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		var scores scoring.Scores
		if heuristic {
			scores = scoring.Heuristic(answer)
		} else {
			st, err := openStore(cmd, cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			provider := buildProvider(ctx, cfg, st.EventRepo(), logger)
			scores = scoring.NewEstimator(provider, logger).Estimate(ctx, answer, question, role)
		}

		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(scores.Metric(1).Rounded())
		}
		lipgloss.Fprintln(out, report.Scores(scores, report.DefaultWidth))
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringP("role", "r", "", "Role the answer is for")
	scoreCmd.Flags().StringP("question", "q", "", "Question being answered")
	scoreCmd.Flags().Bool("json", false, "Print the scores as JSON")
	scoreCmd.Flags().Bool("heuristic", false, "Skip the LLM and use the heuristic scorer")
}
