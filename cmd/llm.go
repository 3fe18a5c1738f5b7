package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/mockview/internal/llm"
	"github.com/abhisek/mockview/internal/store"
	"github.com/abhisek/mockview/internal/ui/theme"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

// withEvents opens the store for an llm subcommand.
func withEvents(cmd *cobra.Command, fn func(store.EventRepo) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(cmd, cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()
	return fn(st.EventRepo())
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		out := cmd.OutOrStdout()

		return withEvents(cmd, func(repo store.EventRepo) error {
			events, err := repo.QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No LLM events found.")
				return nil
			}

			lipgloss.Fprintln(out, theme.Subtitle.Render(fmt.Sprintf("%-5s  %-19s  %-16s  %-28s  %-6s  %-6s  %-7s  %s",
				"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")))
			lipgloss.Fprintln(out, theme.Subtitle.Render(strings.Repeat("─", 104)))
			for _, e := range events {
				ok := theme.Plus.Render("✓")
				if !e.Success {
					ok = theme.Minus.Render("✗")
				}
				lipgloss.Fprintln(out, fmt.Sprintf("%-5d  %-19s  %-16s  %-28s  %-6d  %-6d  %-7d  %s",
					e.ID,
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Purpose,
					truncate(e.Model, 28),
					e.InputTokens,
					e.OutputTokens,
					e.LatencyMs,
					ok,
				))
			}
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}
		out := cmd.OutOrStdout()

		return withEvents(cmd, func(repo store.EventRepo) error {
			e, err := repo.GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}

			sep := theme.Subtitle.Render(strings.Repeat("─", 60))
			fmt.Fprintf(out, "ID:        %d\n", e.ID)
			fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
			fmt.Fprintf(out, "Model:     %s\n", e.Model)
			fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
			fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
			fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
			fmt.Fprintf(out, "Success:   %v\n", e.Success)
			if e.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
			}

			for _, part := range []struct{ title, body string }{
				{"REQUEST", e.RequestBody},
				{"RESPONSE", e.ResponseBody},
			} {
				lipgloss.Fprintln(out)
				lipgloss.Fprintln(out, sep)
				lipgloss.Fprintln(out, theme.Heading.UnsetMarginTop().Render(part.title))
				lipgloss.Fprintln(out, sep)
				body := part.body
				if body == "" {
					body = "(not captured)"
				}
				fmt.Fprintln(out, body)
			}
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		return withEvents(cmd, func(repo store.EventRepo) error {
			ctx := cmd.Context()
			stats, err := repo.LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			if len(stats) == 0 {
				fmt.Fprintln(out, "No LLM usage recorded yet.")
				return nil
			}

			rule := theme.Subtitle.Render(strings.Repeat("─", 80))
			lipgloss.Fprintln(out, theme.Title.Render("Usage by Purpose"))
			lipgloss.Fprintln(out, rule)
			fmt.Fprintf(out, "%-18s  %6s  %6s  %10s  %10s  %10s  %8s\n",
				"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
			lipgloss.Fprintln(out, rule)

			var totalCalls, totalFailed, totalIn, totalOut int
			for _, st := range stats {
				fmt.Fprintf(out, "%-18s  %6d  %6d  %10d  %10d  %10d  %8d\n",
					st.Purpose, st.Calls, st.Failures, st.InputTokens, st.OutputTokens,
					st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
				totalCalls += st.Calls
				totalFailed += st.Failures
				totalIn += st.InputTokens
				totalOut += st.OutputTokens
			}
			lipgloss.Fprintln(out, rule)
			fmt.Fprintf(out, "%-18s  %6d  %6d  %10d  %10d  %10d\n",
				"TOTAL", totalCalls, totalFailed, totalIn, totalOut, totalIn+totalOut)

			modelUsage, err := repo.LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}
			if len(modelUsage) == 0 {
				return nil
			}

			fmt.Fprintln(out)
			lipgloss.Fprintln(out, theme.Title.Render("Estimated Cost (USD)"))
			lipgloss.Fprintln(out, rule)
			fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
			lipgloss.Fprintln(out, rule)

			var totalCost float64
			var unknown []string
			for _, mu := range modelUsage {
				cost := llm.LookupCost(mu.Model)
				if cost == nil {
					unknown = append(unknown, mu.Model)
					fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
						truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
					continue
				}
				c := cost.Cost(mu.InputTokens, mu.OutputTokens)
				totalCost += c
				fmt.Fprintf(out, "%-32s  %6d  %10d  %10d  %10s\n",
					truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
			}

			lipgloss.Fprintln(out, rule)
			label := "TOTAL"
			if len(unknown) > 0 {
				label = "TOTAL (partial)"
			}
			fmt.Fprintf(out, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(totalCost))
			if len(unknown) > 0 {
				fmt.Fprintf(out, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
			}
			return nil
		})
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (answer-scoring, interviewer-turn)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
