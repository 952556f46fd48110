package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Queue a library scan",
	Args:  cobra.NoArgs,
	RunE:  runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	out := cmd.OutOrStdout()

	resp, err := client.Scan()
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			if jsonOutput {
				return printJSON(out, ScanResponse{Status: "pending"})
			}
			fmt.Fprintln(out, "A scan is already queued")
			return nil
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	if jsonOutput {
		return printJSON(out, resp)
	}
	fmt.Fprintln(out, "Scan queued")
	return nil
}
