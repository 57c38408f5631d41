package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/optimo/internal/common"
	"github.com/joseph-ayodele/optimo/internal/decision"
	"github.com/joseph-ayodele/optimo/internal/server"
	"github.com/joseph-ayodele/optimo/internal/sink"
)

// maxReported caps the table of invalid lines.
const maxReported = 50

func newVerifyCmd(g *globalFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Validate the decision log against the record schema",
		Long: `Check every line of the decision log against the record JSON schema and
the rule that "empty" means zero lines. With a store configured, also compare
the number of mirrored decisions with the log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, g)
			if err != nil {
				return newPrinter(cmd).Failure(err)
			}
			if file == "" {
				file = a.paths.LogFile
			}

			var (
				total int
				bad   [][]string
			)
			err = sink.Scan(file, func(n int, raw []byte) error {
				total++
				if verr := decision.ValidateLine(raw); verr != nil {
					bad = append(bad, []string{strconv.Itoa(n), firstLine(verr.Error())})
				}
				return nil
			})
			if err != nil {
				return a.out.Failure(common.NewAppError(common.StagePersistence, "read "+file, err))
			}

			if a.cfg.Store.DSN != "" {
				if err := compareStore(cmd, a, total-len(bad)); err != nil {
					return a.out.Failure(err)
				}
			}

			if len(bad) > 0 {
				shown := bad
				if len(shown) > maxReported {
					shown = shown[:maxReported]
				}
				a.out.Table([]string{"LINE", "ERROR"}, shown)
				return a.out.Failure(fmt.Errorf("%d of %d line(s) in %s are invalid", len(bad), total, file))
			}
			a.out.Success("%d decision(s) valid in %s", total, file)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "log to verify (default <data>/observations.jsonl)")
	return cmd
}

func compareStore(cmd *cobra.Command, a *app, valid int) error {
	db, decisions, err := server.ConnectDB(cmd.Context(), a.cfg.Store, a.logger)
	if err != nil {
		return err
	}
	defer server.CloseDB(db, a.logger)

	n, err := decisions.Count(cmd.Context())
	if err != nil {
		return err
	}
	if n != valid {
		a.out.Warning("store holds %d decision(s), log holds %d valid", n, valid)
		return nil
	}
	a.out.Success("store in sync (%d decision(s))", n)
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
