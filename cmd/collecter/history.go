package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasonw-lab/collecter/internal/config"
	"github.com/jasonw-lab/collecter/internal/database"
	"github.com/jasonw-lab/collecter/internal/model"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously recorded download outcomes",
		Long: `History lists download outcomes recorded by earlier collect runs.

Records live in a local SQLite database under the XDG data directory.
Each destination filename holds its latest outcome, so a re-run after a
failure replaces the failed record with the successful one.

Examples:
  # Show the 20 most recent records
  collecter history

  # Show everything
  collecter history --limit 0

  # Show the record for one file
  collecter history --image widget-blue.jpg`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("image", "", "Show only the record for this imageFile value")
	cmd.Flags().IntP("limit", "n", 20, "Maximum records to show (0 shows all)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	imageFile, err := cmd.Flags().GetString("image")
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	// Reading history must not create an empty database.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         false,
	})
	if err != nil {
		return fmt.Errorf("no download history yet: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if imageFile != "" {
		rec, err := db.GetByImageFile(ctx, imageFile)
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "No record for %s\n", imageFile)
			return nil
		}
		printRecordDetail(cmd, rec)
		return nil
	}

	records, err := db.ListRecent(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No download history yet")
		return nil
	}

	for i := range records {
		printRecordLine(cmd, &records[i])
	}
	return nil
}

// printRecordLine prints a one-line summary of a record.
func printRecordLine(cmd *cobra.Command, rec *database.DownloadRecord) {
	line := fmt.Sprintf("%s  %-6s  %s",
		rec.CreatedAt.Format("2006-01-02 15:04:05"),
		rec.Status.String(),
		rec.ImageFile,
	)
	if rec.Status == model.StatusFailed && rec.Error != "" {
		line += "  (" + rec.Error + ")"
	} else if rec.Normalized {
		line += "  (normalized to " + rec.DetectedFormat + ")"
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}

// printRecordDetail prints the full record for a single file.
func printRecordDetail(cmd *cobra.Command, rec *database.DownloadRecord) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "File:     %s\n", rec.ImageFile)
	fmt.Fprintf(out, "Title:    %s\n", rec.Title)
	fmt.Fprintf(out, "Status:   %s\n", rec.Status)
	fmt.Fprintf(out, "Recorded: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))

	if rec.SourceURL != "" {
		fmt.Fprintf(out, "Source:   %s\n", rec.SourceURL)
	}
	if rec.DetectedFormat != "" {
		fmt.Fprintf(out, "Format:   %s (normalized: %t)\n", rec.DetectedFormat, rec.Normalized)
	}
	if rec.ContentHash != "" {
		fmt.Fprintf(out, "Hash:     %s\n", rec.ContentHash)
	}
	if rec.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", rec.Error)
	}

	if !rec.Meta.Empty() {
		var parts []string
		if rec.Meta.CameraMake != "" || rec.Meta.CameraModel != "" {
			parts = append(parts, strings.TrimSpace(rec.Meta.CameraMake+" "+rec.Meta.CameraModel))
		}
		if rec.Meta.Software != "" {
			parts = append(parts, rec.Meta.Software)
		}
		if rec.Meta.TakenAt != "" {
			parts = append(parts, "taken "+rec.Meta.TakenAt)
		}
		fmt.Fprintf(out, "EXIF:     %s\n", strings.Join(parts, ", "))
	}
}
