package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration file (citeflow.yml).
// Unset keys keep their defaults.
type FileConfig struct {
	ReferencesDir         string `yaml:"references_dir,omitempty"`
	OutputBib             string `yaml:"output_bib,omitempty"`
	RejectedDir           string `yaml:"rejected_dir,omitempty"`
	RejectedLog           string `yaml:"rejected_log,omitempty"`
	SkipDOI               *bool  `yaml:"skip_doi,omitempty"`
	Interactive           *bool  `yaml:"interactive,omitempty"`
	DOITimeoutSeconds     int    `yaml:"doi_timeout_seconds,omitempty"`
	ScholarTimeoutSeconds int    `yaml:"scholar_timeout_seconds,omitempty"`
	RunLog                string `yaml:"run_log,omitempty"`
	Summary               string `yaml:"summary,omitempty"`
	S2APIKey              string `yaml:"s2_api_key,omitempty"`
}

// Environment variables consulted by ApplyEnv.
const (
	EnvDOITimeout     = "DOI_TIMEOUT_SECONDS"
	EnvScholarTimeout = "SCHOLAR_TIMEOUT_SECONDS"
	EnvS2APIKey       = "S2_API_KEY"
)

// Load reads the YAML file at path on top of the defaults.
// Returns the defaults (not an error) if path is empty or the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return fc.apply(), nil
}

// apply builds a Config from the file values. Paths derived from the
// references directory follow it unless they are set explicitly.
func (fc FileConfig) apply() *Config {
	dir := DefaultReferencesDir
	if fc.ReferencesDir != "" {
		dir = ExpandPath(fc.ReferencesDir)
	}
	cfg := ForReferencesDir(dir)

	if fc.OutputBib != "" {
		cfg.OutputBib = ExpandPath(fc.OutputBib)
	}
	if fc.RejectedDir != "" {
		cfg.RejectedDir = ExpandPath(fc.RejectedDir)
	}
	if fc.RejectedLog != "" {
		cfg.RejectedLog = ExpandPath(fc.RejectedLog)
	}
	if fc.SkipDOI != nil {
		cfg.SkipDOI = *fc.SkipDOI
	}
	if fc.Interactive != nil {
		cfg.Interactive = *fc.Interactive
	}
	if fc.DOITimeoutSeconds > 0 {
		cfg.DOITimeout = time.Duration(fc.DOITimeoutSeconds) * time.Second
	}
	if fc.ScholarTimeoutSeconds > 0 {
		cfg.ScholarTimeout = time.Duration(fc.ScholarTimeoutSeconds) * time.Second
	}
	if fc.RunLog != "" {
		cfg.RunLogPath = ExpandPath(fc.RunLog)
	}
	if fc.Summary != "" {
		cfg.SummaryPath = ExpandPath(fc.Summary)
	}
	cfg.S2APIKey = fc.S2APIKey
	return cfg
}

// ApplyEnv overrides timeouts and the API key from the environment.
// Values that don't parse as positive integers are ignored.
func (c *Config) ApplyEnv() {
	if secs, ok := envSeconds(EnvDOITimeout); ok {
		c.DOITimeout = secs
	}
	if secs, ok := envSeconds(EnvScholarTimeout); ok {
		c.ScholarTimeout = secs
	}
	if key := os.Getenv(EnvS2APIKey); key != "" {
		c.S2APIKey = key
	}
}

func envSeconds(name string) (time.Duration, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
