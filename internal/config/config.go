package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/law-makers/nepafeed/internal/pipeline"
	"github.com/law-makers/nepafeed/internal/utils/headers"
	"github.com/law-makers/nepafeed/pkg/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	Quiet    bool

	// HTTP
	HTTPTimeout time.Duration
	UserAgent   string
	Proxy       string
	Headers     map[string]string

	// Upstream
	BaseURL    string
	APIPath    string
	SearchPath string

	// Rate Limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Retrieval
	Mode               models.RetrievalMode
	Browser            bool
	BrowserHeadless    bool
	ChromePath         string
	DOMWait            time.Duration
	PoolAcquireTimeout time.Duration

	// Caching
	CacheMaxEntries int
	CacheTTL        time.Duration

	// Output
	OutputDir string
	FeedTitle string
	FeedLink  string
	CSV       bool

	// Plan
	PlanPath string
	Plan     pipeline.Plan
}

// Defaults returns a Config populated with built-in defaults.
func Defaults() *Config {
	return &Config{
		LogLevel:           DefaultLogLevel,
		JSONLog:            DefaultJSONLog,
		HTTPTimeout:        DefaultHTTPTimeout,
		UserAgent:          DefaultUserAgent,
		Headers:            map[string]string{},
		BaseURL:            DefaultBaseURL,
		APIPath:            DefaultAPIPath,
		SearchPath:         DefaultSearchPath,
		RateLimitRPS:       DefaultRateLimitRPS,
		RateLimitBurst:     DefaultRateLimitBurst,
		Mode:               models.RetrievalMode(DefaultMode),
		BrowserHeadless:    DefaultBrowserHeadless,
		DOMWait:            DefaultDOMWait,
		PoolAcquireTimeout: DefaultPoolAcquireTTL,
		CacheMaxEntries:    DefaultCacheMaxEntries,
		CacheTTL:           DefaultCacheTTL,
		OutputDir:          DefaultOutputDir,
		FeedTitle:          DefaultFeedTitle,
	}
}

// Load builds a Config by combining defaults, the plan file, environment
// variables and CLI flags, in increasing order of precedence.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Defaults()

	cfg.PlanPath = env("CONFIG")
	if f := lookup(cmd, "config"); f != nil && f.Changed {
		cfg.PlanPath = f.Value.String()
	}

	if cfg.PlanPath != "" {
		plan, err := ReadPlanFile(cfg.PlanPath)
		if err != nil {
			return nil, err
		}
		cfg.Plan = plan.Plan
		if err := cfg.applyFileOptions(plan.Options); err != nil {
			return nil, fmt.Errorf("plan options: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.applyFlags(cmd); err != nil {
		return nil, err
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.FeedLink == "" {
		cfg.FeedLink = cfg.BaseURL
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyFileOptions overlays the plan file's options. Zero values in the
// file keep what is already set.
func (c *Config) applyFileOptions(o FileOptions) error {
	overlay := Config{
		LogLevel:       o.LogLevel,
		UserAgent:      o.UserAgent,
		Proxy:          o.Proxy,
		Headers:        o.Headers,
		BaseURL:        o.BaseURL,
		APIPath:        o.APIPath,
		SearchPath:     o.SearchPath,
		RateLimitRPS:   o.RPS,
		RateLimitBurst: o.Burst,
		Mode:           models.RetrievalMode(strings.ToLower(o.Mode)),
		Browser:        o.Browser,
		ChromePath:     o.ChromePath,
		OutputDir:      o.OutputDir,
		FeedTitle:      o.FeedTitle,
		FeedLink:       o.FeedLink,
		CSV:            o.CSV,
	}

	var err error
	if o.DOMWait != "" {
		if overlay.DOMWait, err = time.ParseDuration(o.DOMWait); err != nil {
			return fmt.Errorf("domWait: %w", err)
		}
	}
	if o.Timeout != "" {
		if overlay.HTTPTimeout, err = time.ParseDuration(o.Timeout); err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
	}

	return mergo.Merge(c, overlay, mergo.WithOverride)
}

func (c *Config) applyEnv() error {
	for name, dst := range map[string]*string{
		"USER_AGENT":  &c.UserAgent,
		"PROXY":       &c.Proxy,
		"CHROME_PATH": &c.ChromePath,
		"BASE_URL":    &c.BaseURL,
		"OUTPUT_DIR":  &c.OutputDir,
		"LOG_LEVEL":   &c.LogLevel,
	} {
		if v := env(name); v != "" {
			*dst = v
		}
	}

	if v := env("MODE"); v != "" {
		c.Mode = models.RetrievalMode(strings.ToLower(v))
	}
	if v := env("BROWSER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sBROWSER: %w", DefaultEnvPrefix, err)
		}
		c.Browser = b
	}
	if v := env("RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRPS: %w", DefaultEnvPrefix, err)
		}
		c.RateLimitRPS = rps
	}
	return nil
}

func (c *Config) applyFlags(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	for name, dst := range map[string]*string{
		"user-agent": &c.UserAgent,
		"proxy":      &c.Proxy,
		"base-url":   &c.BaseURL,
		"out":        &c.OutputDir,
		"feed-title": &c.FeedTitle,
	} {
		if f := lookup(cmd, name); f != nil && f.Changed && f.Value.String() != "" {
			*dst = f.Value.String()
		}
	}

	if f := lookup(cmd, "mode"); f != nil && f.Changed {
		c.Mode = models.RetrievalMode(strings.ToLower(f.Value.String()))
	}
	for name, dst := range map[string]*time.Duration{
		"timeout":  &c.HTTPTimeout,
		"dom-wait": &c.DOMWait,
	} {
		if f := lookup(cmd, name); f != nil && f.Changed {
			d, err := time.ParseDuration(f.Value.String())
			if err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
			*dst = d
		}
	}
	if f := lookup(cmd, "rps"); f != nil && f.Changed {
		rps, err := strconv.ParseFloat(f.Value.String(), 64)
		if err != nil {
			return fmt.Errorf("--rps: %w", err)
		}
		c.RateLimitRPS = rps
	}
	for name, dst := range map[string]*bool{
		"json":    &c.JSONLog,
		"quiet":   &c.Quiet,
		"browser": &c.Browser,
		"csv":     &c.CSV,
	} {
		if f := lookup(cmd, name); f != nil && f.Changed {
			*dst = f.Value.String() == "true"
		}
	}
	if f := lookup(cmd, "verbose"); f != nil && f.Value.String() == "true" {
		c.LogLevel = "debug"
	}
	if f := lookup(cmd, "header"); f != nil && f.Changed {
		values, err := cmd.Flags().GetStringArray("header")
		if err != nil {
			return err
		}
		for k, v := range headers.ParseHeaders(values) {
			c.Headers[k] = v
		}
	}
	return nil
}

func lookup(cmd *cobra.Command, name string) *pflag.Flag {
	if cmd == nil {
		return nil
	}
	return cmd.Flags().Lookup(name)
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(DefaultEnvPrefix + name))
}
