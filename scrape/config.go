package scrape

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures a scrape run.
type Config struct {
	// BaseURL of the guide site.
	BaseURL string `yaml:"base_url"`
	// ZipCode is the default location code, used when neither a CLI override
	// nor a persisted value exists.
	ZipCode string `yaml:"zip_code"`
	// Market is the market-name hint matched against the lineup picker.
	Market string `yaml:"market"`
	// Headful runs a visible browser instead of headless Chrome.
	Headful bool `yaml:"headful"`

	// CaptureTimeout bounds the wait for both API captures. Default: 15s.
	CaptureTimeout time.Duration `yaml:"capture_timeout"`
	// StepTimeout bounds the wait for each navigation affordance. Default: 5s.
	StepTimeout time.Duration `yaml:"step_timeout"`
	// SettleDelay is the pause after each click so the SPA can react. Default: 2s.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// Windows is the number of schedule blocks per run. Default: 4.
	Windows int `yaml:"windows"`
	// BlockMinutes is the duration of one schedule block. Default: 360.
	BlockMinutes int `yaml:"block_minutes"`
	// WindowPause is the politeness delay between blocks. Default: 1s.
	WindowPause time.Duration `yaml:"window_pause"`

	Selectors Selectors `yaml:"selectors"`
}

// Selectors locates the guide site's UI affordances. These are presentation
// details and the most likely thing to rot; they are overridable from the
// config file so a site redesign does not require a rebuild.
type Selectors struct {
	OverlayClose string `yaml:"overlay_close"`
	AddLineup    string `yaml:"add_lineup"`
	GuestView    string `yaml:"guest_view"` // XPath
	Broadcast    string `yaml:"broadcast"`
	ZipInput     string `yaml:"zip_input"`
	ZipSubmit    string `yaml:"zip_submit"`
	Market       string `yaml:"market"` // XPath template, %s = market name
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.defaults()
	return &cfg, nil
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://titantv.com"
	}
	if c.ZipCode == "" {
		c.ZipCode = os.Getenv("GUIDEGRAB_ZIP")
	}
	if c.ZipCode == "" {
		c.ZipCode = "46725"
	}
	if c.Market == "" {
		c.Market = os.Getenv("GUIDEGRAB_MARKET")
	}
	if c.Market == "" {
		c.Market = "Fort Wayne"
	}
	if c.CaptureTimeout <= 0 {
		c.CaptureTimeout = 15 * time.Second
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = 5 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.Windows <= 0 {
		c.Windows = 4
	}
	if c.BlockMinutes <= 0 {
		c.BlockMinutes = 360
	}
	if c.WindowPause <= 0 {
		c.WindowPause = time.Second
	}
	c.Selectors.defaults()
}

func (s *Selectors) defaults() {
	if s.OverlayClose == "" {
		s.OverlayClose = "span.zw3zih"
	}
	if s.AddLineup == "" {
		s.AddLineup = `img[title="Click to Add a New Lineup"]`
	}
	if s.GuestView == "" {
		s.GuestView = `//button[contains(., "View as Guest")]`
	}
	if s.Broadcast == "" {
		s.Broadcast = `img[alt="Broadcast"]`
	}
	if s.ZipInput == "" {
		s.ZipInput = `input[placeholder="Enter Your ZIP Code"]`
	}
	if s.ZipSubmit == "" {
		s.ZipSubmit = `input[placeholder="Enter Your ZIP Code"] + img`
	}
	if s.Market == "" {
		s.Market = `//div[contains(text(), "%s")]`
	}
}
