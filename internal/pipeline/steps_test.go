package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jasonw-lab/collecter/internal/config"
	"github.com/jasonw-lab/collecter/internal/fetch"
	"github.com/jasonw-lab/collecter/internal/imagefile"
	"github.com/jasonw-lab/collecter/internal/model"
)

// fakeResolver returns a fixed candidate list or error.
type fakeResolver struct {
	candidates []string
	err        error
}

func (f *fakeResolver) Candidates(_ context.Context, _ string) ([]string, error) {
	return f.candidates, f.err
}

// fakeDownloader simulates per-URL download outcomes. URLs present in
// failures return an error; others write content to the destination.
type fakeDownloader struct {
	failures map[string]error
	requests []fetch.Request
}

func (f *fakeDownloader) Download(_ context.Context, req fetch.Request) error {
	f.requests = append(f.requests, req)
	if err, ok := f.failures[req.URL]; ok {
		return err
	}
	return os.WriteFile(req.Dest, []byte("content from "+req.URL), 0600)
}

// fakeValidator rejects files whose content matches any entry of reject.
type fakeValidator struct {
	reject map[string]bool
}

func (f *fakeValidator) Validate(path string) (imagefile.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imagefile.Result{}, err
	}
	if f.reject[string(data)] {
		return imagefile.Result{}, fmt.Errorf("%w: rejected", imagefile.ErrInvalidImage)
	}
	return imagefile.Result{Format: "jpeg"}, nil
}

func testRow() model.ProductRow {
	return model.ProductRow{Title: "Blue Widget", ImageFile: "widget.jpg"}
}

func TestResolveStep_Do(t *testing.T) {
	t.Parallel()

	t.Run("stores candidates on the result", func(t *testing.T) {
		t.Parallel()

		step := NewResolveStep(&fakeResolver{candidates: []string{"https://a.example/a.jpg"}})
		result := model.NewRowResult(testRow())

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(result.Candidates) != 1 {
			t.Errorf("Candidates = %v", result.Candidates)
		}
	})

	t.Run("zero candidates fails with ErrNoCandidates", func(t *testing.T) {
		t.Parallel()

		step := NewResolveStep(&fakeResolver{candidates: nil})
		result := model.NewRowResult(testRow())

		err := step.Do(context.Background(), result)
		if !errors.Is(err, ErrNoCandidates) {
			t.Fatalf("Do() error = %v, want ErrNoCandidates", err)
		}
		// The error message names the query so the diagnostics line reads
		// "no image found for: <title>".
		want := "no image found for: Blue Widget"
		if err.Error() != want {
			t.Errorf("error = %q, want %q", err.Error(), want)
		}
	})

	t.Run("resolver error propagates", func(t *testing.T) {
		t.Parallel()

		resolverErr := errors.New("handshake failed")
		step := NewResolveStep(&fakeResolver{err: resolverErr})
		result := model.NewRowResult(testRow())

		if err := step.Do(context.Background(), result); !errors.Is(err, resolverErr) {
			t.Errorf("Do() error = %v, want resolver error", err)
		}
	})
}

func TestDownloadStep_Do(t *testing.T) {
	t.Parallel()

	t.Run("first working candidate wins", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		downloader := &fakeDownloader{}
		step := NewDownloadStep(downloader, &fakeValidator{}, outputDir)

		result := model.NewRowResult(testRow())
		result.Candidates = []string{"https://a.example/1.jpg", "https://a.example/2.jpg"}

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		if result.SourceURL != "https://a.example/1.jpg" {
			t.Errorf("SourceURL = %q", result.SourceURL)
		}
		if result.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1", result.Attempts)
		}
		if result.OutputPath != filepath.Join(outputDir, "widget.jpg") {
			t.Errorf("OutputPath = %q", result.OutputPath)
		}
		if len(downloader.requests) != 1 {
			t.Errorf("downloader saw %d requests, want 1", len(downloader.requests))
		}
	})

	t.Run("falls back past download failures", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		downloader := &fakeDownloader{failures: map[string]error{
			"https://a.example/1.jpg": &fetch.StatusError{URL: "https://a.example/1.jpg", StatusCode: 403},
			"https://a.example/2.jpg": errors.New("connection reset"),
		}}
		step := NewDownloadStep(downloader, &fakeValidator{}, outputDir)

		result := model.NewRowResult(testRow())
		result.Candidates = []string{
			"https://a.example/1.jpg",
			"https://a.example/2.jpg",
			"https://a.example/3.jpg",
		}

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if result.SourceURL != "https://a.example/3.jpg" {
			t.Errorf("SourceURL = %q", result.SourceURL)
		}
		if result.Attempts != 3 {
			t.Errorf("Attempts = %d, want 3", result.Attempts)
		}
	})

	t.Run("invalid file is deleted before the next attempt", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		downloader := &fakeDownloader{}
		validator := &fakeValidator{reject: map[string]bool{
			"content from https://a.example/1.jpg": true,
		}}
		step := NewDownloadStep(downloader, validator, outputDir)

		result := model.NewRowResult(testRow())
		result.Candidates = []string{"https://a.example/1.jpg", "https://a.example/2.jpg"}

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if result.SourceURL != "https://a.example/2.jpg" {
			t.Errorf("SourceURL = %q", result.SourceURL)
		}

		data, err := os.ReadFile(result.OutputPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "content from https://a.example/2.jpg" {
			t.Errorf("final content = %q", string(data))
		}
	})

	t.Run("exhaustion fails with ErrAllCandidatesBlocked and no file remains", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		downloader := &fakeDownloader{}
		validator := &fakeValidator{reject: map[string]bool{
			"content from https://a.example/1.jpg": true,
			"content from https://a.example/2.jpg": true,
		}}
		step := NewDownloadStep(downloader, validator, outputDir)

		result := model.NewRowResult(testRow())
		result.Candidates = []string{"https://a.example/1.jpg", "https://a.example/2.jpg"}

		if err := step.Do(context.Background(), result); !errors.Is(err, ErrAllCandidatesBlocked) {
			t.Fatalf("Do() error = %v, want ErrAllCandidatesBlocked", err)
		}

		dest := filepath.Join(outputDir, "widget.jpg")
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Error("expected no file at destination after exhaustion")
		}
	})

	t.Run("candidate attempts stop at the cap", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		failures := make(map[string]error)
		candidates := make([]string, 15)
		for i := range candidates {
			url := fmt.Sprintf("https://a.example/%d.jpg", i)
			candidates[i] = url
			failures[url] = errors.New("blocked")
		}

		downloader := &fakeDownloader{failures: failures}
		step := NewDownloadStep(downloader, &fakeValidator{}, outputDir)

		result := model.NewRowResult(testRow())
		result.Candidates = candidates

		if err := step.Do(context.Background(), result); !errors.Is(err, ErrAllCandidatesBlocked) {
			t.Fatalf("Do() error = %v, want ErrAllCandidatesBlocked", err)
		}
		if result.Attempts != config.DefaultMaxCandidates {
			t.Errorf("Attempts = %d, want %d", result.Attempts, config.DefaultMaxCandidates)
		}
	})

	t.Run("host override changes referer and headers", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		downloader := &fakeDownloader{}
		hosts := &config.File{
			Hosts: map[string]config.HostConfig{
				"cdn.example.com": {
					Referer: "https://shop.example/",
					Headers: map[string]string{"X-Custom": "yes"},
				},
			},
		}
		step := NewDownloadStep(downloader, &fakeValidator{}, outputDir,
			WithDownloadHosts(hosts),
			WithDownloadReferer("https://duckduckgo.com/"),
		)

		result := model.NewRowResult(testRow())
		result.Candidates = []string{"https://cdn.example.com/a.jpg"}

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("Do() error = %v", err)
		}

		req := downloader.requests[0]
		if req.Referer != "https://shop.example/" {
			t.Errorf("Referer = %q, want host override", req.Referer)
		}
		if req.Headers["X-Custom"] != "yes" {
			t.Errorf("Headers = %v", req.Headers)
		}
	})

	t.Run("default referer applies to unlisted hosts", func(t *testing.T) {
		t.Parallel()

		outputDir := t.TempDir()
		downloader := &fakeDownloader{}
		step := NewDownloadStep(downloader, &fakeValidator{}, outputDir,
			WithDownloadReferer("https://duckduckgo.com/"),
		)

		result := model.NewRowResult(testRow())
		result.Candidates = []string{"https://other.example/a.jpg"}

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if downloader.requests[0].Referer != "https://duckduckgo.com/" {
			t.Errorf("Referer = %q, want default", downloader.requests[0].Referer)
		}
	})

	t.Run("cancelled context stops attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		outputDir := t.TempDir()
		downloader := &fakeDownloader{}
		step := NewDownloadStep(downloader, &fakeValidator{}, outputDir)

		result := model.NewRowResult(testRow())
		result.Candidates = []string{"https://a.example/1.jpg"}

		if err := step.Do(ctx, result); !errors.Is(err, context.Canceled) {
			t.Fatalf("Do() error = %v, want context.Canceled", err)
		}
		if len(downloader.requests) != 0 {
			t.Error("expected no download attempts after cancellation")
		}
	})
}

func TestMetadataStep_Do(t *testing.T) {
	t.Parallel()

	t.Run("hashes the downloaded file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "widget.jpg")
		if err := os.WriteFile(path, []byte("image bytes"), 0600); err != nil {
			t.Fatal(err)
		}

		result := model.NewRowResult(testRow())
		result.OutputPath = path

		step := NewMetadataStep()
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if result.ContentHash == "" {
			t.Error("expected ContentHash to be set")
		}
	})

	t.Run("no output path is a no-op", func(t *testing.T) {
		t.Parallel()

		result := model.NewRowResult(testRow())

		step := NewMetadataStep()
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if result.ContentHash != "" {
			t.Error("expected no hash without an output path")
		}
	})

	t.Run("missing file never fails the row", func(t *testing.T) {
		t.Parallel()

		result := model.NewRowResult(testRow())
		result.OutputPath = filepath.Join(t.TempDir(), "absent.jpg")

		step := NewMetadataStep()
		if err := step.Do(context.Background(), result); err != nil {
			t.Errorf("Do() error = %v, want nil", err)
		}
	})
}
