package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel         = "error"
	DefaultJSONLog          = false
	DefaultUserAgent        = "nepafeed/1.0 (https://github.com/law-makers/nepafeed)"
	DefaultHTTPTimeout      = 30 * time.Second
	DefaultBaseURL          = "https://eplanning.blm.gov"
	DefaultAPIPath          = "/eplanning-api/search"
	DefaultSearchPath       = "/eplanning-ui/search"
	DefaultOutputDir        = "./feeds"
	DefaultFeedTitle        = "BLM NEPA Projects"
	DefaultMode             = "auto"
	DefaultRateLimitRPS     = 1.0
	DefaultRateLimitBurst   = 1
	DefaultBrowserHeadless  = true
	DefaultDOMWait          = 15 * time.Second
	DefaultMaxDOMWait       = 2 * time.Minute
	DefaultPoolAcquireTTL   = 30 * time.Second
	DefaultCacheMaxEntries  = 256
	DefaultCacheTTL         = 0 // lives for the run
	DefaultEnvPrefix        = "NEPAFEED_"
	DefaultStateFeedDir     = "by-state"
	DefaultNationalFeedName = "feed.xml"
	DefaultSummaryName      = "summary.json"
	DefaultCSVName          = "records.csv"
)
