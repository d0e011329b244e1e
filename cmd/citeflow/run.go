package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/matsen/citeflow/internal/config"
	"github.com/matsen/citeflow/internal/doi"
	"github.com/matsen/citeflow/internal/ledger"
	"github.com/matsen/citeflow/internal/pipeline"
	"github.com/matsen/citeflow/internal/s2"
	"github.com/spf13/cobra"
)

var (
	runReferencesDir string
	runOutput        string
	runSkipDOI       bool
	runNoInteractive bool
	runLogPath       string
	runSummaryPath   string
	runTerminalLog   string
)

func init() {
	f := runCmd.Flags()
	f.StringVar(&runReferencesDir, "references-dir", config.DefaultReferencesDir, "Directory containing reference PDFs")
	f.StringVar(&runOutput, "output", "", "Bibliography file (default <references-dir>/references.bib)")
	f.BoolVar(&runSkipDOI, "skip-doi", false, "Disable DOI lookup")
	f.BoolVar(&runNoInteractive, "no-interactive", false, "Accept defaults instead of prompting")
	f.StringVar(&runLogPath, "run-log", "", "Append an NDJSON record per PDF to this file")
	f.StringVar(&runSummaryPath, "summary", "", "Write a run summary to this file")
	f.StringVar(&runTerminalLog, "terminal-log", "", "Copy log output to this file (default <references-dir>/citations.log, \"-\" disables)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract citations for every PDF in the references directory",
	Long: `Extract citations for every PDF in the references directory.

PDFs are processed one at a time in name order. The S2_API_KEY environment
variable (or a .env file) raises the Semantic Scholar rate limit.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

// RunResult is the response for the run command.
type RunResult struct {
	ledger.Stats
	Bibliography string `json:"bibliography"`
}

func runRun(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg := mustBuildConfig(cmd)

	teePath := runTerminalLog
	switch teePath {
	case "":
		teePath = filepath.Join(cfg.ReferencesDir, config.TerminalLogFile)
	case "-":
		teePath = ""
	}
	logger, closeLog, err := newLogger(os.Stderr, teePath, verbose)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer closeLog()

	p := pipeline.New(cfg, pipeline.Deps{
		DOI:    doi.NewClient(),
		Search: s2.NewClient(s2.WithAPIKey(cfg.S2APIKey)),
	}, logger)

	stats, err := p.ProcessDirectory(cmd.Context())
	if err != nil {
		logger.Warn("Run stopped early", "error", err)
	}

	if humanOutput {
		outputHuman("Completed processing. %d citation(s) accepted.\n", stats.Accepted)
	} else {
		outputJSON(RunResult{Stats: stats, Bibliography: cfg.OutputBib})
	}
	if err != nil {
		exitWithError(ExitError, "interrupted: %v", err)
	}
	return nil
}

// mustBuildConfig layers the config file, the environment and the command
// line flags, then validates the result. Exits on error.
func mustBuildConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	cfg.ApplyEnv()
	applyRunFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return cfg
}

// applyRunFlags overrides cfg with the flags set on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("references-dir") {
		cfg.Rebase(config.ExpandPath(runReferencesDir))
	}
	if flags.Changed("output") {
		cfg.OutputBib = config.ExpandPath(runOutput)
	}
	if flags.Changed("skip-doi") {
		cfg.SkipDOI = runSkipDOI
	}
	if flags.Changed("no-interactive") {
		cfg.Interactive = !runNoInteractive
	}
	if flags.Changed("run-log") {
		cfg.RunLogPath = config.ExpandPath(runLogPath)
	}
	if flags.Changed("summary") {
		cfg.SummaryPath = config.ExpandPath(runSummaryPath)
	}
}
