package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jasonw-lab/collecter/internal/database"
	"github.com/jasonw-lab/collecter/internal/model"
)

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history" {
			t.Errorf("expected use 'history', got %q", cmd.Use)
		}
	})

	t.Run("has image flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("image") == nil {
			t.Fatal("expected image flag")
		}
	})

	t.Run("has limit flag with default 20", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("limit")
		if flag == nil {
			t.Fatal("expected limit flag")
		}
		if flag.DefValue != "20" {
			t.Errorf("expected default '20', got %q", flag.DefValue)
		}
		if flag.Shorthand != "n" {
			t.Errorf("expected shorthand 'n', got %q", flag.Shorthand)
		}
	})
}

func TestPrintRecordLine(t *testing.T) {
	t.Parallel()

	t.Run("failed record shows the error", func(t *testing.T) {
		t.Parallel()

		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		printRecordLine(cmd, &database.DownloadRecord{
			ImageFile: "widget.jpg",
			Status:    model.StatusFailed,
			Error:     "all candidates blocked",
			CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		})

		out := buf.String()
		if !strings.Contains(out, "widget.jpg") || !strings.Contains(out, "all candidates blocked") {
			t.Errorf("unexpected line: %q", out)
		}
	})

	t.Run("normalized record shows the detected format", func(t *testing.T) {
		t.Parallel()

		cmd := NewHistoryCmd()
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		printRecordLine(cmd, &database.DownloadRecord{
			ImageFile:      "widget.jpg",
			Status:         model.StatusDone,
			Normalized:     true,
			DetectedFormat: "png",
			CreatedAt:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		})

		if !strings.Contains(buf.String(), "normalized to png") {
			t.Errorf("unexpected line: %q", buf.String())
		}
	})
}

func TestPrintRecordDetail(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	printRecordDetail(cmd, &database.DownloadRecord{
		ImageFile:      "widget.jpg",
		Title:          "Blue Widget",
		Status:         model.StatusDone,
		SourceURL:      "https://img.example/widget.jpg",
		ContentHash:    "abc123",
		DetectedFormat: "jpeg",
		Meta: model.ImageMeta{
			CameraMake:  "Canon",
			CameraModel: "EOS R5",
		},
		CreatedAt: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	})

	out := buf.String()
	for _, want := range []string{
		"File:     widget.jpg",
		"Title:    Blue Widget",
		"Status:   done",
		"Source:   https://img.example/widget.jpg",
		"Hash:     abc123",
		"Canon EOS R5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
