package main

import (
	"github.com/matsen/citeflow/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration: defaults, then the config file
(--config), then DOI_TIMEOUT_SECONDS, SCHOLAR_TIMEOUT_SECONDS and S2_API_KEY
from the environment.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

// ConfigResponse is the response for the config command.
type ConfigResponse struct {
	ReferencesDir  string `json:"references_dir"`
	OutputBib      string `json:"output_bib"`
	RejectedDir    string `json:"rejected_dir"`
	RejectedLog    string `json:"rejected_log"`
	SkipDOI        bool   `json:"skip_doi"`
	Interactive    bool   `json:"interactive"`
	DOITimeout     string `json:"doi_timeout"`
	ScholarTimeout string `json:"scholar_timeout"`
	RunLog         string `json:"run_log,omitempty"`
	Summary        string `json:"summary,omitempty"`
	S2APIKey       string `json:"s2_api_key,omitempty"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	cfg.ApplyEnv()

	resp := newConfigResponse(cfg)
	if !humanOutput {
		return outputJSON(resp)
	}

	outputHuman("references-dir:   %s\n", resp.ReferencesDir)
	outputHuman("output-bib:       %s\n", resp.OutputBib)
	outputHuman("rejected-dir:     %s\n", resp.RejectedDir)
	outputHuman("rejected-log:     %s\n", resp.RejectedLog)
	outputHuman("skip-doi:         %t\n", resp.SkipDOI)
	outputHuman("interactive:      %t\n", resp.Interactive)
	outputHuman("doi-timeout:      %s\n", resp.DOITimeout)
	outputHuman("scholar-timeout:  %s\n", resp.ScholarTimeout)
	outputHuman("run-log:          %s\n", orNone(resp.RunLog))
	outputHuman("summary:          %s\n", orNone(resp.Summary))
	outputHuman("s2-api-key:       %s\n", orNone(resp.S2APIKey))
	return nil
}

func newConfigResponse(cfg *config.Config) ConfigResponse {
	return ConfigResponse{
		ReferencesDir:  cfg.ReferencesDir,
		OutputBib:      cfg.OutputBib,
		RejectedDir:    cfg.RejectedDir,
		RejectedLog:    cfg.RejectedLog,
		SkipDOI:        cfg.SkipDOI,
		Interactive:    cfg.Interactive,
		DOITimeout:     cfg.DOITimeout.String(),
		ScholarTimeout: cfg.ScholarTimeout.String(),
		RunLog:         cfg.RunLogPath,
		Summary:        cfg.SummaryPath,
		S2APIKey:       maskKey(cfg.S2APIKey),
	}
}

// maskKey hides all but the last four characters of an API key.
func maskKey(key string) string {
	if len(key) <= 4 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
