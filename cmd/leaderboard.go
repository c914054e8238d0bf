package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/deals"
	"github.com/sells-group/leadscore-cli/internal/export"
	"github.com/sells-group/leadscore-cli/internal/scoring"
	"github.com/sells-group/leadscore-cli/pkg/salesforce"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Rank deal owners by closed deals",
	Long:  "Aggregates closed Salesforce opportunities per owner and ranks them by won value, won count or win rate.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("leaderboard"); err != nil {
			return err
		}

		sortBy, _ := cmd.Flags().GetString("sort-by")
		key, err := scoring.ParseSortKey(sortBy)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		minSample, _ := cmd.Flags().GetInt("min-sample")
		days, _ := cmd.Flags().GetInt("days")
		output, _ := cmd.Flags().GetString("output")
		formatName, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}

		sf, err := initSalesforce()
		if err != nil {
			return eris.Wrap(err, "leaderboard: init salesforce")
		}
		opps, err := salesforce.QueryClosedOpportunities(ctx, sf, days)
		if err != nil {
			return eris.Wrap(err, "leaderboard")
		}

		board := scoring.Leaderboard(deals.Aggregate(opps), scoring.LeaderboardOptions{
			SortBy:    key,
			Limit:     limit,
			MinSample: minSample,
		})
		zap.L().Info("leaderboard: ranked owners",
			zap.Int("opportunities", len(opps)),
			zap.Int("entries", len(board)),
			zap.String("sort_by", string(key)),
		)

		w, closeOut, err := openOutput(output, format)
		if err != nil {
			return eris.Wrap(err, "leaderboard")
		}
		defer closeOut()
		return export.WriteLeaderboard(w, format, board)
	},
}

func init() {
	leaderboardCmd.Flags().String("sort-by", "value", "ranking metric: value, count or win_rate")
	leaderboardCmd.Flags().Int("limit", scoring.DefaultLeaderboardLimit, "max number of entries")
	leaderboardCmd.Flags().Int("min-sample", scoring.DefaultMinSample, "closed deals needed before win rate ranks ahead")
	leaderboardCmd.Flags().Int("days", 365, "only deals closed in the last N days (0 for all)")
	leaderboardCmd.Flags().String("format", "table", "output format: table, csv, json or xlsx")
	leaderboardCmd.Flags().String("output", "", "write output to file instead of stdout")
	rootCmd.AddCommand(leaderboardCmd)
}
