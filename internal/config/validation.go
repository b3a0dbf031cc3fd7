package config

import (
	"fmt"

	"github.com/law-makers/nepafeed/internal/proxy"
	urlutil "github.com/law-makers/nepafeed/internal/utils/url"
	"github.com/law-makers/nepafeed/pkg/models"
)

func validate(c *Config) error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if err := urlutil.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	switch c.Mode {
	case models.ModeAuto, models.ModeAPI, models.ModeStatic, models.ModeBrowser:
	default:
		return fmt.Errorf("unknown mode %q (want auto, api, static or browser)", c.Mode)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be > 0 requests per second")
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be > 0")
	}
	if c.DOMWait <= 0 || c.DOMWait > DefaultMaxDOMWait {
		return fmt.Errorf("dom wait must be between 0 and %s", DefaultMaxDOMWait)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if _, err := proxy.Parse(c.Proxy); err != nil {
		return err
	}
	return nil
}
