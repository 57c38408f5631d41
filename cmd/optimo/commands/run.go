package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/optimo/internal/ingest"
)

const runUsage = "usage: optimo run <file-or-directory>... (nothing to do)"

func newRunCmd(g *globalFlags) *cobra.Command {
	var includeHidden bool
	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Process a batch of documents",
		Long: `Process every given file, and every supported file under every given
directory, appending one decision per document to the decision log.

The batch stops at the first failing document; decisions already appended
stay in the log.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, g, args, includeHidden)
		},
	}
	cmd.Flags().BoolVar(&includeHidden, "hidden", false, "include hidden files when walking directories")
	return cmd
}

func runBatch(cmd *cobra.Command, g *globalFlags, args []string, includeHidden bool) error {
	if len(args) == 0 {
		newPrinter(cmd).Usage(runUsage)
		return nil
	}

	a, err := loadApp(cmd, g)
	if err != nil {
		return newPrinter(cmd).Failure(err)
	}

	paths, stats, err := ingest.ExpandPaths(args, ingest.Options{IncludeHidden: includeHidden})
	if err != nil {
		return a.out.Failure(err)
	}
	if len(paths) == 0 {
		a.out.Usage(runUsage)
		return nil
	}
	a.logger.Debug("inputs expanded", "documents", len(paths), "scanned", stats.Scanned, "duplicates", stats.Duplicates)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := a.buildEnv(ctx)
	if err != nil {
		return a.out.Failure(err)
	}
	defer rt.Close()

	sum, err := rt.orch.ProcessDocuments(ctx, paths)
	if err != nil {
		if n := len(sum.Records); n > 0 {
			a.out.Warning("%d decision(s) appended to %s before the failure", n, rt.log.Path())
		}
		return a.out.Failure(err)
	}
	a.out.BatchSummary(sum.RunID, sum.Converged, sum.Empty, sum.Elapsed, rt.log.Path())
	return nil
}
