package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/evaluation"
	"github.com/abhisek/mockview/internal/interview"
	"github.com/abhisek/mockview/internal/observability"
	"github.com/abhisek/mockview/internal/report"
	"github.com/abhisek/mockview/internal/store"
	"github.com/abhisek/mockview/internal/ui/theme"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored interview sessions",
}

// openSessions opens the store and a provider-less service over it.
func openSessions(cmd *cobra.Command) (*interview.Service, *store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cmd.ErrOrStderr(), cfg.Log, "text")
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(cmd, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	svc, err := interview.NewService(interview.Deps{
		Store:      st.SessionRepo(),
		Aggregator: evaluation.NewAggregator(cfg.Evaluation.Weights, cfg.Evaluation.Calibration, nil),
		Logger:     logger,
	}, interview.Config{DifficultyWindow: cfg.Difficulty.Window})
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return svc, st, nil
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cmd, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		list, err := st.SessionRepo().ListSessions(cmd.Context(), store.ListOpts{
			UserID: user,
			Status: domain.Status(status),
			Limit:  limit,
		})
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), report.Sessions(list))
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		sess, err := svc.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		lipgloss.Fprintln(out, theme.Title.Render(fmt.Sprintf("%s · %s · %s", sess.Role, sess.Level, sess.Status)))
		lipgloss.Fprintln(out, theme.Subtitle.Render(fmt.Sprintf("started %s · difficulty %.1f",
			sess.CreatedAt.Local().Format("2006-01-02 15:04"), domain.Round1(sess.CurrentDifficulty))))
		lipgloss.Fprintln(out)
		lipgloss.Fprintln(out, report.Transcript(sess))
		return nil
	},
}

var sessionsReportCmd = &cobra.Command{
	Use:   "report <id>",
	Short: "Show the evaluation of a session",
	Long:  "Show the final evaluation of a completed session, or the live evaluation of an active one.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		sess, err := svc.Get(ctx, args[0])
		if err != nil {
			return err
		}
		header := report.Header{
			Role:     sess.Role,
			Level:    sess.Level,
			Answers:  len(sess.PerformanceHistory),
			Duration: sess.Duration,
		}

		out := cmd.OutOrStdout()
		if sess.Evaluation != nil {
			lipgloss.Fprintln(out, report.Evaluation(header, *sess.Evaluation, report.DefaultWidth))
			return nil
		}
		snap, err := svc.Snapshot(ctx, sess.ID)
		if err != nil {
			return err
		}
		lipgloss.Fprintln(out, report.Snapshot(header, *snap, report.DefaultWidth))
		return nil
	},
}

var sessionsAbandonCmd = &cobra.Command{
	Use:   "abandon <id>",
	Short: "Abandon an active session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, st, err := openSessions(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := svc.Abandon(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s abandoned.\n", args[0])
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().StringP("user", "u", "", "Only sessions of this user")
	sessionsListCmd.Flags().IntP("limit", "n", interview.DefaultListLimit, "Number of sessions to show")
	sessionsListCmd.Flags().String("status", "", "Filter by status (active, completed, abandoned)")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsReportCmd)
	sessionsCmd.AddCommand(sessionsAbandonCmd)
}
