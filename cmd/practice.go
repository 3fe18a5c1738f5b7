package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/mockview/internal/api"
	"github.com/abhisek/mockview/internal/domain"
	"github.com/abhisek/mockview/internal/interview"
	"github.com/abhisek/mockview/internal/observability"
	"github.com/abhisek/mockview/internal/report"
	"github.com/abhisek/mockview/internal/screens/practice"
	"github.com/abhisek/mockview/internal/ui/theme"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Run an interview in the terminal",
	Long: "Run an interview in the terminal. Type an answer and press enter.\n" +
		"Commands: /status shows the live evaluation, /retry asks the interviewer again after a failure,\n" +
		"/end finishes with the report, /quit abandons.\n" +
		"Without a terminal on stdin, or with --plain, answers are read line by line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		level, _ := cmd.Flags().GetString("level")
		user, _ := cmd.Flags().GetString("user")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := observability.NewLogger(cmd.ErrOrStderr(), cfg.Log, "text")
		if err != nil {
			return err
		}

		st, err := openStore(cmd, cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()
		svc, err := buildService(ctx, cfg, st.SessionRepo(), st.EventRepo(), logger)
		if err != nil {
			return err
		}

		start := interview.StartInput{UserID: user, Role: role, Level: level}
		plain, _ := cmd.Flags().GetBool("plain")
		if plain || !isTerminal(cmd.InOrStdin()) {
			return runPractice(ctx, svc, cmd.InOrStdin(), cmd.OutOrStdout(), start)
		}
		return runPracticeTUI(ctx, svc, cmd.OutOrStdout(), start)
	},
}

func init() {
	practiceCmd.Flags().StringP("role", "r", "", "Role to interview for (nodejs, react, fullstack, devops)")
	practiceCmd.Flags().StringP("level", "l", "mid", "Seniority: junior, mid or senior")
	practiceCmd.Flags().StringP("user", "u", "", "User id to file the session under")
	practiceCmd.Flags().Bool("plain", false, "Read answers line by line instead of the interactive screen")
	_ = practiceCmd.MarkFlagRequired("role")
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// runPracticeTUI drives one interview through the interactive screen and
// prints the final report once the screen closes.
func runPracticeTUI(ctx context.Context, svc *interview.Service, out io.Writer, start interview.StartInput) error {
	res, err := svc.Start(ctx, start)
	if err != nil {
		return err
	}

	screen := practice.New(ctx, svc, res)
	if _, err := tea.NewProgram(screen).Run(); err != nil {
		return fmt.Errorf("practice screen: %w", err)
	}

	switch screen.Outcome() {
	case practice.OutcomeCompleted:
		lipgloss.Fprintln(out, report.Evaluation(screen.Header(), screen.Result().Evaluation, report.DefaultWidth))
		lipgloss.Fprintln(out, theme.Hint.Render("Session "+res.SessionID))
	case practice.OutcomeAbandoned:
		lipgloss.Fprintln(out, theme.Hint.Render("Session abandoned."))
	case practice.OutcomeFailed:
		return screen.Err()
	}
	return nil
}

// runPractice drives one interview over a line-based reader.
func runPractice(ctx context.Context, svc *interview.Service, in io.Reader, out io.Writer, start interview.StartInput) error {
	res, err := svc.Start(ctx, start)
	if err != nil {
		return err
	}

	header := report.Header{Role: res.Role, Level: res.Level}
	lipgloss.Fprintln(out, theme.Title.Render(fmt.Sprintf("Mock interview · %s · %s", res.Role, res.Level)))
	lipgloss.Fprintln(out, theme.Hint.Render("/status for a live evaluation, /retry after a failed reply, /end to finish, /quit to abandon"))
	lipgloss.Fprintln(out)
	lipgloss.Fprintln(out, theme.Interviewer.Render("Interviewer: ")+theme.Body.Render(res.OpeningQuestion))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	pending := false
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		var (
			ans *interview.AnswerResult
			err error
		)
		switch line {
		case "":
			if !pending {
				continue
			}
			ans, err = svc.Retry(ctx, res.SessionID)
		case "/retry":
			ans, err = svc.Retry(ctx, res.SessionID)
		case "/end":
			return finishPractice(ctx, svc, out, res.SessionID, header)
		case "/quit":
			if err := svc.Abandon(ctx, res.SessionID); err != nil {
				return err
			}
			lipgloss.Fprintln(out, theme.Hint.Render("Session abandoned."))
			return nil
		case "/status":
			snap, err := svc.Snapshot(ctx, res.SessionID)
			if err != nil {
				return err
			}
			header.Answers = snap.QuestionsAnswered
			lipgloss.Fprintln(out, report.Snapshot(header, *snap, report.DefaultWidth))
			continue
		default:
			ans, err = svc.Answer(ctx, res.SessionID, line)
		}

		switch {
		case errors.Is(err, domain.ErrUnavailable):
			pending = true
			lipgloss.Fprintln(out, theme.Hint.Render(api.MsgUnavailable+" Press enter to retry."))
			continue
		case errors.Is(err, domain.ErrTurnPending):
			lipgloss.Fprintln(out, theme.Hint.Render(api.MsgTurnPending))
			continue
		case errors.Is(err, domain.ErrInvalidInput):
			lipgloss.Fprintln(out, theme.Hint.Render(err.Error()))
			continue
		case err != nil:
			return err
		}
		pending = false

		m := ans.Metric.Rounded()
		lipgloss.Fprintln(out, theme.Hint.Render(fmt.Sprintf("depth %.1f · clarity %.1f · confidence %.1f · difficulty %.1f",
			m.TechnicalDepth, m.Clarity, m.Confidence, domain.Round1(ans.Difficulty))))
		lipgloss.Fprintln(out, theme.Interviewer.Render("Interviewer: ")+theme.Body.Render(ans.Response))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read answer: %w", err)
	}
	return finishPractice(ctx, svc, out, res.SessionID, header)
}

func finishPractice(ctx context.Context, svc *interview.Service, out io.Writer, sessionID string, header report.Header) error {
	res, err := svc.End(ctx, sessionID)
	if err != nil {
		return err
	}
	sess, err := svc.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	header.Answers = len(sess.PerformanceHistory)
	header.Duration = res.Duration

	lipgloss.Fprintln(out)
	lipgloss.Fprintln(out, report.Evaluation(header, res.Evaluation, report.DefaultWidth))
	lipgloss.Fprintln(out, theme.Hint.Render("Session "+sessionID))
	return nil
}
