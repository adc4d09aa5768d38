package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/pders01/visionqa/internal/logging"
)

// Config controls the headless browser
type Config struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	Headless  bool          `mapstructure:"headless"`
	RemoteURL string        `mapstructure:"remote_url"`
	Width     int           `mapstructure:"width"`
	Height    int           `mapstructure:"height"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Timeout:  60 * time.Second,
		Headless: true,
		Width:    1280,
		Height:   800,
	}
}

// Browser captures full-page screenshots with one shared Chrome instance.
// Chrome is launched on first use; Close releases it.
type Browser struct {
	cfg    Config
	logger logging.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

var _ Capturer = (*Browser)(nil)

// NewBrowser creates a capturer; logger may be nil
func NewBrowser(cfg Config, logger logging.Logger) *Browser {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Width <= 0 {
		cfg.Width = def.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = def.Height
	}
	return &Browser{cfg: cfg, logger: logging.OrNop(logger)}
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil {
		return b.browser, nil
	}

	wsURL := b.cfg.RemoteURL
	if wsURL == "" {
		l := launcher.New().Headless(b.cfg.Headless)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.lnch = l
		b.logger.Debug("launched local chrome", "url", wsURL)
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = browser
	return browser, nil
}

// Capture loads target in a fresh tab and returns a full-page PNG
func (b *Browser) Capture(ctx context.Context, target string) ([]byte, error) {
	browser, err := b.connect()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  b.cfg.Width,
		Height: b.cfg.Height,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: set viewport: %w", err)
	}

	if err := page.Navigate(target); err != nil {
		return nil, fmt.Errorf("browser: navigate %s: %w", target, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("browser: wait load %s: %w", target, err)
	}

	shot, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot %s: %w", target, err)
	}

	b.logger.Debug("captured screenshot", "target", target, "bytes", len(shot))
	return shot, nil
}

// Close shuts down Chrome if it was started
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}
