package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadscore-cli/internal/export"
	"github.com/sells-group/leadscore-cli/internal/icp"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/pipeline"
	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/pkg/salesforce"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Score Salesforce contacts and write the scores back",
	Long:  "Reads contacts from Salesforce, enriches them from external sources, scores them with the active profile and updates the score fields.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("sync"); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		contactIDs, _ := cmd.Flags().GetStringSlice("contact")
		output, _ := cmd.Flags().GetString("output")
		formatName, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}

		fallback, err := configuredProfile("")
		if err != nil {
			return eris.Wrap(err, "sync: load profile")
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "sync: init store")
		}
		defer st.Close() //nolint:errcheck

		sf, err := initSalesforce()
		if err != nil {
			return eris.Wrap(err, "sync: init salesforce")
		}

		profiles := icp.NewCache(icp.StoreLoader(st, fallback))
		active, err := profiles.Get(ctx)
		if err != nil {
			return eris.Wrap(err, "sync: load profile")
		}

		enr := initEnrichment(ctx, active.Engine.Profile())
		defer enr.Close()

		fields := salesforce.NewFieldMapCache(sf, model.DefaultScoreFields(cfg.Sync.ScoreObject))
		s := pipeline.New(sf, st, profiles, enr.enricher, fields, cfg.Sync)

		report, err := s.Run(ctx, pipeline.Options{Limit: limit, ContactIDs: contactIDs, DryRun: dryRun})
		if err != nil {
			return err
		}

		enr.logStats()

		formatSyncReport(cmd.OutOrStdout(), report)

		if output != "" {
			w, closeOut, err := openOutput(output, format)
			if err != nil {
				return eris.Wrap(err, "sync")
			}
			defer closeOut()
			return export.WriteResults(w, format, leadResults(report.Results))
		}
		return nil
	},
}

// leadResults keys each result by its contact ID for export.
func leadResults(results []pipeline.LeadResult) []scoring.BulkResult {
	out := make([]scoring.BulkResult, len(results))
	for i, r := range results {
		out[i] = scoring.BulkResult{ID: r.Lead.ContactID, ScoringResult: r.Result}
	}
	return out
}

func formatSyncReport(out io.Writer, report *pipeline.Report) {
	run := report.Run
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", run.ID)
	_, _ = fmt.Fprintf(w, "Profile:\t%s (%s)\n", run.ProfileName, truncateID(run.ProfileHash))
	if run.DryRun {
		_, _ = fmt.Fprintln(w, "Mode:\tdry run (CRM not updated)")
	}
	_, _ = fmt.Fprintf(w, "Contacts:\t%d\n", run.Stats.Contacts)
	_, _ = fmt.Fprintf(w, "Scored:\t%d\n", run.Stats.Scored)
	_, _ = fmt.Fprintf(w, "Updated:\t%d\n", run.Stats.Updated)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", run.Stats.Failed)
	for _, tier := range slices.Sorted(maps.Keys(run.Stats.Tiers)) {
		_, _ = fmt.Fprintf(w, "  %s:\t%d\n", tier, run.Stats.Tiers[tier])
	}
	_ = w.Flush()
}

func init() {
	syncCmd.Flags().Int("limit", 0, "max contacts to score (0 uses sync.limit)")
	syncCmd.Flags().Bool("dry-run", false, "score and record results without updating Salesforce")
	syncCmd.Flags().StringSlice("contact", nil, "restrict the sync to these contact IDs")
	syncCmd.Flags().String("output", "", "also write the scored contacts to this file")
	syncCmd.Flags().String("format", "csv", "format for --output: table, csv, json or xlsx")
	rootCmd.AddCommand(syncCmd)
}
