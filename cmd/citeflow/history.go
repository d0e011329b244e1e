package main

import (
	"github.com/matsen/citeflow/internal/config"
	"github.com/matsen/citeflow/internal/ledger"
	"github.com/spf13/cobra"
)

var (
	historyRunLog string
	historyDB     string
)

func init() {
	historyCmd.Flags().StringVar(&historyRunLog, "run-log", "", "Run log to read (default: run_log from the config file)")
	historyCmd.Flags().StringVar(&historyDB, "db", ":memory:", "SQLite index path")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [pdf]",
	Short: "Summarize past runs from the run log",
	Long: `Summarize past runs from the run log.

The run log is loaded into a SQLite index and counted by status and by
strategy. With a PDF name, lists every recorded outcome for that file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

// HistoryResult is the response for the history command.
type HistoryResult struct {
	Indexed    int             `json:"indexed"`
	ByStatus   []ledger.Count  `json:"by_status"`
	ByStrategy []ledger.Count  `json:"by_strategy"`
	Document   string          `json:"pdf,omitempty"`
	Records    []ledger.Record `json:"records,omitempty"`
}

func runHistory(cmd *cobra.Command, args []string) error {
	path := historyRunLog
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			exitWithError(ExitConfigError, "loading config: %v", err)
		}
		path = cfg.RunLogPath
	}
	if path == "" {
		exitWithError(ExitConfigError, "no run log configured\n\nPass --run-log or set run_log in the config file.")
	}

	idx, err := ledger.OpenIndex(historyDB)
	if err != nil {
		exitWithError(ExitError, "opening index: %v", err)
	}
	defer idx.Close()

	n, err := idx.RebuildFromRunLog(config.ExpandPath(path))
	if err != nil {
		exitWithError(ExitDataError, "indexing run log: %v", err)
	}

	result := HistoryResult{Indexed: n}
	if result.ByStatus, err = idx.CountByStatus(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if result.ByStrategy, err = idx.CountByStrategy(); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if len(args) == 1 {
		result.Document = args[0]
		if result.Records, err = idx.History(args[0]); err != nil {
			exitWithError(ExitError, "%v", err)
		}
	}

	if !humanOutput {
		return outputJSON(result)
	}

	outputHuman("Indexed %d run log entries\n\n", result.Indexed)
	outputHuman("By status:\n")
	for _, c := range result.ByStatus {
		outputHuman("  %-10s %d\n", c.Key, c.Count)
	}
	outputHuman("\nBy strategy:\n")
	for _, c := range result.ByStrategy {
		outputHuman("  %-10s %d\n", c.Key, c.Count)
	}
	if result.Document != "" {
		outputHuman("\n%s:\n", result.Document)
		if len(result.Records) == 0 {
			outputHuman("  no entries\n")
		}
		for _, r := range result.Records {
			line := "  " + r.Timestamp + "  " + r.Status + " (" + r.Strategy + ")"
			if r.Reason != "" {
				line += ": " + r.Reason
			}
			outputHuman("%s\n", line)
		}
	}
	return nil
}
