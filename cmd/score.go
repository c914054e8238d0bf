package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscore-cli/internal/export"
	"github.com/sells-group/leadscore-cli/internal/input"
	"github.com/sells-group/leadscore-cli/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score leads from local files",
	Long: `Scores a single person and company, a company on its own, or a bulk file
of up to 1000 items against the active ideal customer profile.

  leadscore score --person p.json --company c.json
  leadscore score --company c.json --company-only
  leadscore score --input leads.csv --format xlsx --output scores.xlsx`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("score"); err != nil {
			return err
		}
		opts, err := scoreOptionsFromFlags(cmd)
		if err != nil {
			return err
		}

		w, closeOut, err := openOutput(opts.output, opts.format)
		if err != nil {
			return eris.Wrap(err, "score")
		}
		defer closeOut()

		return runScore(w, opts)
	},
}

type scoreOptions struct {
	personPath  string
	companyPath string
	inputPath   string
	companyOnly bool
	profile     string
	format      export.Format
	output      string
}

func scoreOptionsFromFlags(cmd *cobra.Command) (scoreOptions, error) {
	var opts scoreOptions
	opts.personPath, _ = cmd.Flags().GetString("person")
	opts.companyPath, _ = cmd.Flags().GetString("company")
	opts.inputPath, _ = cmd.Flags().GetString("input")
	opts.companyOnly, _ = cmd.Flags().GetBool("company-only")
	opts.profile, _ = cmd.Flags().GetString("profile")
	opts.output, _ = cmd.Flags().GetString("output")

	format, _ := cmd.Flags().GetString("format")
	f, err := export.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	opts.format = f
	return opts, nil
}

func runScore(w io.Writer, opts scoreOptions) error {
	switch {
	case opts.inputPath != "" && (opts.personPath != "" || opts.companyPath != ""):
		return eris.New("score: --input cannot be combined with --person or --company")
	case opts.companyOnly && opts.companyPath == "":
		return eris.New("score: --company-only requires --company")
	case opts.companyOnly && opts.personPath != "":
		return eris.New("score: --company-only cannot be combined with --person")
	case opts.inputPath == "" && opts.personPath == "" && opts.companyPath == "":
		return eris.New("score: one of --input, --person or --company is required")
	}

	profile, err := configuredProfile(opts.profile)
	if err != nil {
		return eris.Wrap(err, "score: load profile")
	}
	engine := scoring.NewEngine(profile)

	if opts.companyOnly {
		company, err := input.LoadCompany(opts.companyPath)
		if err != nil {
			return eris.Wrap(err, "score")
		}
		return export.WriteCompanyResult(w, opts.format, engine.CompanyScore(company))
	}

	var items []scoring.BulkItem
	if opts.inputPath != "" {
		items, err = input.LoadBulk(opts.inputPath)
		if err != nil {
			return eris.Wrap(err, "score")
		}
	} else {
		var item scoring.BulkItem
		if opts.personPath != "" {
			if item.Person, err = input.LoadPerson(opts.personPath); err != nil {
				return eris.Wrap(err, "score")
			}
		}
		if opts.companyPath != "" {
			if item.Company, err = input.LoadCompany(opts.companyPath); err != nil {
				return eris.Wrap(err, "score")
			}
		}
		items = []scoring.BulkItem{item}
	}

	results := engine.BulkScore(items)
	zap.L().Info("score: scored leads",
		zap.String("profile", profile.Name),
		zap.Int("count", len(results)),
	)
	return export.WriteResults(w, opts.format, results)
}

func init() {
	scoreCmd.Flags().String("person", "", "path to a person JSON document")
	scoreCmd.Flags().String("company", "", "path to a company JSON document")
	scoreCmd.Flags().String("input", "", "path to a bulk JSON or CSV file")
	scoreCmd.Flags().Bool("company-only", false, "score the company on its own")
	scoreCmd.Flags().String("profile", "", "built-in profile name or path to a profile YAML (defaults to config)")
	scoreCmd.Flags().String("format", "table", "output format: table, csv, json or xlsx")
	scoreCmd.Flags().String("output", "", "write output to file instead of stdout")
	rootCmd.AddCommand(scoreCmd)
}
