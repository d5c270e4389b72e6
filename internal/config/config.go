package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"github.com/Another0Noob/title-dedupe/internal/match"
)

const (
	EnvConfigPath = "DEDUPE_CONFIG"
	EnvAddr       = "DEDUPE_ADDR"
)

type MatcherConfig struct {
	ExactMatchAlwaysGroups  bool
	HighSimilarityThreshold float64
	ContainmentThreshold    float64
	Strategy                string
}

type VariationConfig struct {
	Enabled       bool
	BaseThreshold float64
}

type ReportConfig struct {
	Format string
	Dir    string
}

type ServerConfig struct {
	Addr        string
	MaxUploadMB int
	QueueSize   int
	RatePerSec  float64
	RateBurst   int
	JobTimeout  time.Duration
}

type Config struct {
	Matcher   MatcherConfig
	Variation VariationConfig
	Report    ReportConfig
	Server    ServerConfig
}

func Default() Config {
	opts := match.DefaultOptions()
	return Config{
		Matcher: MatcherConfig{
			ExactMatchAlwaysGroups:  opts.ExactMatchAlwaysGroups,
			HighSimilarityThreshold: opts.HighSimilarityThreshold,
			ContainmentThreshold:    opts.ContainmentThreshold,
			Strategy:                string(opts.Strategy),
		},
		Variation: VariationConfig{
			Enabled:       true,
			BaseThreshold: match.DefaultVariationThreshold,
		},
		Report: ReportConfig{
			Format: "text",
			Dir:    ".",
		},
		Server: ServerConfig{
			Addr:        ":39039",
			MaxUploadMB: 10,
			QueueSize:   100,
			RatePerSec:  2,
			RateBurst:   5,
			JobTimeout:  5 * time.Minute,
		},
	}
}

// Load reads an INI file on top of Default. Keys that are absent keep their
// default value; keys that are present but malformed are an error.
func Load(path string) (Config, error) {
	c := Default()
	f, err := ini.Load(path)
	if err != nil {
		return c, fmt.Errorf("load config %s: %w", path, err)
	}

	sec := f.Section("matcher")
	if err := boolKey(sec, "exact_match_always_groups", &c.Matcher.ExactMatchAlwaysGroups); err != nil {
		return c, err
	}
	if err := floatKey(sec, "high_similarity_threshold", &c.Matcher.HighSimilarityThreshold); err != nil {
		return c, err
	}
	if err := floatKey(sec, "containment_threshold", &c.Matcher.ContainmentThreshold); err != nil {
		return c, err
	}
	stringKey(sec, "strategy", &c.Matcher.Strategy)

	sec = f.Section("variation")
	if err := boolKey(sec, "enabled", &c.Variation.Enabled); err != nil {
		return c, err
	}
	if err := floatKey(sec, "base_threshold", &c.Variation.BaseThreshold); err != nil {
		return c, err
	}

	sec = f.Section("report")
	stringKey(sec, "format", &c.Report.Format)
	stringKey(sec, "dir", &c.Report.Dir)

	sec = f.Section("server")
	stringKey(sec, "addr", &c.Server.Addr)
	if err := intKey(sec, "max_upload_mb", &c.Server.MaxUploadMB); err != nil {
		return c, err
	}
	if err := intKey(sec, "queue_size", &c.Server.QueueSize); err != nil {
		return c, err
	}
	if err := floatKey(sec, "rate_per_sec", &c.Server.RatePerSec); err != nil {
		return c, err
	}
	if err := intKey(sec, "rate_burst", &c.Server.RateBurst); err != nil {
		return c, err
	}
	if sec.HasKey("job_timeout") {
		d, err := sec.Key("job_timeout").Duration()
		if err != nil {
			return c, fmt.Errorf("server.job_timeout: %w", err)
		}
		c.Server.JobTimeout = d
	}

	return c, nil
}

// LoadEnv loads .env style files into the process environment. Missing
// files are ignored.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load env %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from environment variables.
func (c *Config) ApplyEnv() {
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Server.Addr = addr
	}
}

// MatchOptions builds validated matcher options.
func (c Config) MatchOptions() (match.Options, error) {
	strategy, err := match.ParseStrategy(c.Matcher.Strategy)
	if err != nil {
		return match.Options{}, err
	}
	opts := match.Options{
		ExactMatchAlwaysGroups:  c.Matcher.ExactMatchAlwaysGroups,
		HighSimilarityThreshold: c.Matcher.HighSimilarityThreshold,
		ContainmentThreshold:    c.Matcher.ContainmentThreshold,
		Strategy:                strategy,
	}
	if c.Variation.Enabled {
		t := c.Variation.BaseThreshold
		if math.IsNaN(t) || t < 0 || t > 1 {
			return match.Options{}, fmt.Errorf("%w: variation base threshold %v not in [0,1]", match.ErrConfiguration, t)
		}
		opts.Exclude = match.SeriesVariation(t)
	}
	if err := opts.Validate(); err != nil {
		return match.Options{}, err
	}
	return opts, nil
}

// Validate rejects server limits the job queue cannot work with.
func (s ServerConfig) Validate() error {
	switch {
	case s.Addr == "":
		return fmt.Errorf("%w: server address is empty", match.ErrConfiguration)
	case s.MaxUploadMB < 1:
		return fmt.Errorf("%w: max_upload_mb must be positive, got %d", match.ErrConfiguration, s.MaxUploadMB)
	case s.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", match.ErrConfiguration, s.QueueSize)
	case s.RatePerSec <= 0 || s.RateBurst < 1:
		return fmt.Errorf("%w: rate limit %v/s burst %d", match.ErrConfiguration, s.RatePerSec, s.RateBurst)
	case s.JobTimeout <= 0:
		return fmt.Errorf("%w: job_timeout must be positive, got %s", match.ErrConfiguration, s.JobTimeout)
	}
	return nil
}

func stringKey(sec *ini.Section, name string, dst *string) {
	if sec.HasKey(name) {
		*dst = sec.Key(name).String()
	}
}

func boolKey(sec *ini.Section, name string, dst *bool) error {
	if !sec.HasKey(name) {
		return nil
	}
	v, err := sec.Key(name).Bool()
	if err != nil {
		return fmt.Errorf("%s.%s: %w", sec.Name(), name, err)
	}
	*dst = v
	return nil
}

func floatKey(sec *ini.Section, name string, dst *float64) error {
	if !sec.HasKey(name) {
		return nil
	}
	v, err := sec.Key(name).Float64()
	if err != nil {
		return fmt.Errorf("%s.%s: %w", sec.Name(), name, err)
	}
	*dst = v
	return nil
}

func intKey(sec *ini.Section, name string, dst *int) error {
	if !sec.HasKey(name) {
		return nil
	}
	v, err := sec.Key(name).Int()
	if err != nil {
		return fmt.Errorf("%s.%s: %w", sec.Name(), name, err)
	}
	*dst = v
	return nil
}
