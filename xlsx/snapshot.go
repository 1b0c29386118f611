package xlsx

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/aerissecure/reportassistant/sheet"
)

// Snapshotter renders worksheet ranges to PNG through a headless browser.
// Start must be called before Render and Close after the last Render.
type Snapshotter struct {
	Bin      string // browser binary; empty lets the launcher find or fetch one
	Headless bool
	Timeout  time.Duration

	launcher *launcher.Launcher
	browser  *rod.Browser
}

// Start launches the browser and connects to it.
func (s *Snapshotter) Start(ctx context.Context) error {
	l := launcher.New().Headless(s.Headless)
	if s.Bin != "" {
		l = l.Bin(s.Bin)
	}
	url, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connect to browser: %w", err)
	}
	s.launcher = l
	s.browser = browser
	return nil
}

// Close shuts the browser down.
func (s *Snapshotter) Close() error {
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.launcher.Kill()
	s.browser, s.launcher = nil, nil
	return err
}

// Render implements sheet.Renderer. The workbook at path is parsed from disk,
// so every style saved into it shows up in the image.
func (s *Snapshotter) Render(path string, rng sheet.Range) ([]byte, error) {
	if s.browser == nil {
		return nil, fmt.Errorf("snapshotter not started")
	}
	doc, rs, err := RenderFile(path, rng)
	if err != nil {
		return nil, err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()
	if s.Timeout > 0 {
		page = page.Timeout(s.Timeout)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             int(math.Ceil(rs.Width())) + 16,
		Height:            int(math.Ceil(rs.Height())) + 16,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if err := page.SetDocumentContent(doc); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	table, err := page.Element("table")
	if err != nil {
		return nil, fmt.Errorf("find table: %w", err)
	}
	png, err := table.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", path, err)
	}
	return png, nil
}

// RenderFile parses rng out of the workbook at path and returns its HTML.
func RenderFile(path string, rng sheet.Range) (string, RenderSheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", RenderSheet{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", RenderSheet{}, err
	}
	rs, err := ParseRange(f, info.Size(), rng)
	if err != nil {
		return "", RenderSheet{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return RenderHTML(rs), rs, nil
}
