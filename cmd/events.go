package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/paperz/internal/store"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect paper service request events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent request events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		op, _ := cmd.Flags().GetString("op")
		since, _ := cmd.Flags().GetDuration("since")
		failed, _ := cmd.Flags().GetBool("failed")

		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		opts := store.QueryOpts{Limit: limit}
		if since > 0 {
			opts.From = time.Now().Add(-since)
		}
		events, err := st.EventRepo().QueryRequestEvents(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("No request events found.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-28s  %-36s  %-7s  %s\n",
			"ID", "Timestamp", "Operation", "Target", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 108))

		for _, e := range events {
			if op != "" && !strings.HasPrefix(e.Operation, op) {
				continue
			}
			if failed && e.Success {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Printf("%-5d  %-19s  %-28s  %-36s  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Operation, 28),
				truncate(e.Target, 36),
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var eventsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View a single request event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		_, st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		e, err := st.EventRepo().GetRequestEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		fmt.Printf("ID:        %d\n", e.ID)
		fmt.Printf("Sequence:  %d\n", e.Sequence)
		fmt.Printf("Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Operation: %s\n", e.Operation)
		fmt.Printf("Target:    %s\n", e.Target)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	eventsListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	eventsListCmd.Flags().StringP("op", "o", "", "Filter by operation prefix (e.g. submit_answer)")
	eventsListCmd.Flags().Duration("since", 0, "Only show events newer than this (e.g. 1h)")
	eventsListCmd.Flags().Bool("failed", false, "Only show failed requests")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsViewCmd)
}
