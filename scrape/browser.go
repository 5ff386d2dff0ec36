package scrape

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// launchBrowser starts Chrome, connects, and opens a stealth page with a
// desktop viewport. The returned cleanup closes the page, the browser, and
// the launcher's process tree; callers must defer it on every exit path.
func launchBrowser(cfg Config) (*rod.Page, func(), error) {
	l := launcher.New().
		Headless(!cfg.Headful).
		Set("disable-blink-features", "AutomationControlled")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("scrape: launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, nil, fmt.Errorf("scrape: connect browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, nil, fmt.Errorf("scrape: open page: %w", err)
	}

	// The guide renders a desktop layout; a small default viewport hides
	// the affordances the navigator clicks.
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1400,
		Height:            900,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		page.Close()
		browser.Close()
		l.Cleanup()
		return nil, nil, fmt.Errorf("scrape: set viewport: %w", err)
	}

	cleanup := func() {
		page.Close()
		browser.Close()
		l.Cleanup()
	}
	return page, cleanup, nil
}
