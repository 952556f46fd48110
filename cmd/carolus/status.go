package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Server and library status",
	Args:  cobra.NoArgs,
	RunE:  runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, status)
	}
	printStatus(out, serverURL, status)
	return nil
}

func printStatus(w io.Writer, server string, s *StatusResponse) {
	fmt.Fprintf(w, "carolus %s | Server: %s (%s)\n\n", s.Version, server, s.Status)

	fmt.Fprintln(w, "Library")
	fmt.Fprintf(w, "  Movies:  %d\n", s.Movies)
	fmt.Fprintf(w, "  Roots:   %s\n", strings.Join(s.Roots, ", "))
	fmt.Fprintln(w)

	scan := "idle"
	switch {
	case s.Scanning:
		scan = "running"
	case s.ScanPending:
		scan = "queued"
	}
	fmt.Fprintln(w, "Scan")
	fmt.Fprintf(w, "  State:   %s\n", scan)

	r := s.LastScan
	if r == nil {
		fmt.Fprintln(w, "  Last:    never")
		return
	}
	fmt.Fprintf(w, "  Last:    #%d %s (took %s)\n", r.Run, formatTimeAgo(r.StartedAt), r.Duration)
	fmt.Fprintf(w, "  Found %d | added %d | updated %d | moved %d | removed %d | failed %d\n",
		r.Found, r.Added, r.Updated, r.Moved, r.Removed, r.Failed)
}
