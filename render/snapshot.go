package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"cml-linkmap/utils"
)

// Snapshotter captures a PNG of a saved map with a headless browser.
type Snapshotter struct {
	ChromeBin string
	Width     int
	Height    int
	// Settle is how long tiles get to load before the capture.
	Settle time.Duration
	Retry  *utils.RetryConfig
	Logger *utils.Logger
}

// allocatorOptions returns the exec allocator flags for a headless capture.
func (s *Snapshotter) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(s.width(), s.height()),
	)
	if bin := s.chromeBinary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	return opts
}

// Capture renders htmlPath and writes the screenshot to pngPath.
func (s *Snapshotter) Capture(ctx context.Context, htmlPath, pngPath string) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("snapshot: resolve %q: %w", htmlPath, err)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, s.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	retry := s.Retry
	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1, Logger: s.Logger}
	}

	var buf []byte
	err = retry.Do(ctx, "map-snapshot", func() error {
		tabCtx, cancel := context.WithTimeout(browserCtx, 60*time.Second)
		defer cancel()

		return chromedp.Run(tabCtx,
			chromedp.Navigate("file://"+abs),
			chromedp.WaitVisible("#map", chromedp.ByID),
			chromedp.Sleep(s.settle()),
			chromedp.CaptureScreenshot(&buf),
		)
	})
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(pngPath), 0755); err != nil {
		return fmt.Errorf("snapshot: create output dir: %w", err)
	}
	if err := os.WriteFile(pngPath, buf, 0644); err != nil {
		return fmt.Errorf("snapshot: write %q: %w", pngPath, err)
	}
	if s.Logger != nil {
		s.Logger.Info("[snapshot] Saved %s", pngPath)
	}
	return nil
}

func (s *Snapshotter) width() int {
	if s.Width > 0 {
		return s.Width
	}
	return 1600
}

func (s *Snapshotter) height() int {
	if s.Height > 0 {
		return s.Height
	}
	return 1000
}

func (s *Snapshotter) settle() time.Duration {
	if s.Settle > 0 {
		return s.Settle
	}
	return 3 * time.Second
}

// chromeBinary returns the configured browser or the first one found on PATH.
// An empty result lets chromedp apply its own lookup.
func (s *Snapshotter) chromeBinary() string {
	if s.ChromeBin != "" {
		return s.ChromeBin
	}
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}
