package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/optimo/constants"
	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/export"
	"github.com/joseph-ayodele/optimo/internal/server"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		out       string
		fromStore bool
		filter    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export decisions to an XLSX workbook",
		Long: `Write the decision log (or, with --from-store, the SQL mirror) to an XLSX
workbook with one row per decision and a per-decision summary sheet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, g)
			if err != nil {
				return newPrinter(cmd).Failure(err)
			}
			if filter != "" && filter != string(constants.DecisionEmpty) && filter != string(constants.DecisionConverged) {
				return a.out.Failure(common.NewAppError(common.StageConfig, fmt.Sprintf("unknown decision %q", filter), common.ErrInvalidInput))
			}

			var src export.Source = export.LogSource{Path: a.paths.LogFile, Decision: constants.Decision(filter)}
			if fromStore {
				if a.cfg.Store.DSN == "" {
					return a.out.Failure(common.NewAppError(common.StageConfig, "--from-store needs --store or DB_URL", common.ErrInvalidInput))
				}
				db, decisions, err := server.ConnectDB(cmd.Context(), a.cfg.Store, a.logger)
				if err != nil {
					return a.out.Failure(err)
				}
				defer server.CloseDB(db, a.logger)
				src = export.StoreSource{Repo: decisions, Decision: constants.Decision(filter)}
			}

			data, err := export.NewService(a.logger).ExportXLSX(cmd.Context(), src)
			if err != nil {
				return a.out.Failure(err)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return a.out.Failure(err)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return a.out.Failure(err)
			}
			a.out.Success("exported to %s", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "decisions.xlsx", "output workbook")
	cmd.Flags().BoolVar(&fromStore, "from-store", false, "read the SQL mirror instead of the log")
	cmd.Flags().StringVar(&filter, "decision", "", "only export this decision (empty or ocr_converged)")
	return cmd
}
