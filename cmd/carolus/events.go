package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent library events",
	Args:  cobra.NoArgs,
	RunE:  runEventsCmd,
}

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show what happened to one movie",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(historyCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}

func runEventsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	client := NewClient(serverURL)
	events, err := client.Events(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, events)
	}
	printEvents(out, events)
	return nil
}

func printEvents(w io.Writer, events *ListEventsResponse) {
	if len(events.Items) == 0 {
		fmt.Fprintln(w, "No events")
		return
	}

	fmt.Fprintf(w, "Recent Events (%d):\n\n", len(events.Items))
	fmt.Fprintf(w, "  %-12s %-20s %-15s\n", "TIME", "TYPE", "ENTITY")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 49))

	for _, e := range events.Items {
		entity := fmt.Sprintf("%s/%d", e.EntityType, e.EntityID)
		fmt.Fprintf(w, "  %-12s %-20s %-15s\n", formatTimeAgo(e.OccurredAt), e.Type, entity)
	}
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid movie ID: %s", args[0])
	}

	client := NewClient(serverURL)
	history, err := client.History(id)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, history)
	}
	if len(history.Items) == 0 {
		fmt.Fprintf(out, "No history for movie %d\n", id)
		return nil
	}

	fmt.Fprintf(out, "History of movie %d:\n\n", id)
	for _, e := range history.Items {
		fmt.Fprintf(out, "  %s  %-15s %s\n", e.OccurredAt.Local().Format("2006-01-02 15:04"), e.Type, historyDetail(e))
	}
	return nil
}

// historyDetail picks the most useful payload field for one line of output.
func historyDetail(e EventResponse) string {
	var p struct {
		Title   string `json:"title"`
		Path    string `json:"path"`
		OldPath string `json:"old_path"`
		NewPath string `json:"new_path"`
	}
	if len(e.Payload) == 0 || json.Unmarshal(e.Payload, &p) != nil {
		return ""
	}
	switch {
	case p.NewPath != "":
		return p.OldPath + " -> " + p.NewPath
	case p.Path != "":
		return p.Path
	default:
		return p.Title
	}
}
