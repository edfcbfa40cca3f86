// ABOUTME: QR command printing a link to a QR image for the diary page.
// ABOUTME: The code carries the page URL, entry count and a timestamp.

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/diary/internal/qr"
	"github.com/spf13/cobra"
)

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Print a QR code link for sharing the diary page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		size, _ := cmd.Flags().GetInt("size")
		showPayload, _ := cmd.Flags().GetBool("payload")

		count, err := app.Entries.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count entries: %w", err)
		}

		payload := qr.NewPayload(cfg.PageURL, count, time.Now())
		link, err := qr.Link(cfg.QREndpoint, payload, size)
		if err != nil {
			return err
		}

		if showPayload {
			data, _ := json.MarshalIndent(payload, "", "  ")
			fmt.Println(string(data))
		}
		fmt.Println(link)
		return nil
	},
}

func init() {
	qrCmd.Flags().Int("size", qr.DefaultSize, "image edge in pixels")
	qrCmd.Flags().Bool("payload", false, "also print the encoded JSON")
	rootCmd.AddCommand(qrCmd)
}
