package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect sync run history",
	Long:  "Lists sync runs, optionally filtered by status. Use 'runs show' for one run with its scored contacts.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		filter, err := runFilter(status, limit)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs")
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its scored contacts as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		limit, _ := cmd.Flags().GetInt("results")
		results, err := st.ListResults(ctx, run.ID, limit)
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*model.Run
			Results []model.ScoreRecord `json:"results"`
		}{Run: run, Results: results})
	},
}

func runFilter(status string, limit int) (store.RunFilter, error) {
	filter := store.RunFilter{Limit: limit}
	switch s := model.RunStatus(status); s {
	case "":
	case model.RunStatusRunning, model.RunStatusComplete, model.RunStatusFailed:
		filter.Status = s
	default:
		return filter, eris.Errorf("runs: unknown status %q (want running, complete or failed)", status)
	}
	return filter, nil
}

func init() {
	runsCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsShowCmd.Flags().Int("results", 100, "max number of scored contacts to include")

	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROFILE\tSTATUS\tCONTACTS\tUPDATED\tFAILED\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t--------\t-------\t------\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		status := string(r.Status)
		if r.DryRun {
			status += " (dry)"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.ProfileName,
			status,
			r.Stats.Contacts,
			r.Stats.Updated,
			r.Stats.Failed,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of an ID or hash for compact
// display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
