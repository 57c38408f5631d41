package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionString = "dev"

// globalFlags are the persistent flags shared by every command. Empty values
// leave the config file and environment in charge.
type globalFlags struct {
	configPath string
	dataDir    string
	store      string
	redisURL   string
	logLevel   string
	logFormat  string
}

// NewRootCmd builds the command tree. Running the root with paths is the same
// as "optimo run".
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	var includeHidden bool

	root := &cobra.Command{
		Use:   "optimo [paths...]",
		Short: "Multi-variant OCR with line-level consensus",
		Long: `optimo runs every document through several OCR variants, merges the
recognized lines into a consensus, and appends one decision per document to
the JSONL decision log (optionally mirrored to SQL and a Redis stream).

Examples:
  # Process files and directories
  optimo ./scans letter.pdf

  # Watch a folder and serve /healthz and /metrics
  optimo watch ./inbox

  # Check the decision log and export it
  optimo verify
  optimo export --out decisions.xlsx`,
		Version:       versionString,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g, args, includeHidden)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	pf.StringVar(&g.dataDir, "data-dir", "", "data directory (default \"data\")")
	pf.StringVar(&g.store, "store", "", "SQL mirror DSN: postgres URL, sqlite path, or \"local\" for <data>/optimo.sqlite")
	pf.StringVar(&g.redisURL, "redis", "", "Redis URL for the decision stream mirror")
	pf.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&g.logFormat, "log-format", "", "text or json")
	root.Flags().BoolVar(&includeHidden, "hidden", false, "include hidden files when walking directories")

	root.AddCommand(
		newRunCmd(g),
		newWatchCmd(g),
		newExportCmd(g),
		newVerifyCmd(g),
	)
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
