package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadscore-cli/internal/icp"
	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/scoring"
)

var icpCmd = &cobra.Command{
	Use:   "icp",
	Short: "Inspect and edit the ideal customer profile",
	Long:  "Commands for showing, validating and applying scoring profiles. Applied profiles are versioned in the store and used by sync.",
}

// -- icp show --

var icpShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active profile as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		builtin, _ := cmd.Flags().GetString("builtin")
		if builtin != "" {
			p, err := icp.Builtin(builtin)
			if err != nil {
				return err
			}
			return writeProfile(cmd.OutOrStdout(), p, 0)
		}

		if err := cfg.Validate("icp"); err != nil {
			return err
		}
		fallback, err := configuredProfile("")
		if err != nil {
			return eris.Wrap(err, "icp show")
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		active, err := icp.NewCache(icp.StoreLoader(st, fallback)).Get(ctx)
		if err != nil {
			return eris.Wrap(err, "icp show")
		}
		return writeProfile(cmd.OutOrStdout(), active.Engine.Profile(), active.Version)
	},
}

// -- icp validate --

var icpValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a profile YAML without applying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := icp.LoadFile(args[0])
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %q is valid (hash %s)\n", p.Name, truncateID(icp.Hash(p)))
		return nil
	},
}

// -- icp apply --

var icpApplyCmd = &cobra.Command{
	Use:   "apply <file>",
	Short: "Validate a profile YAML and make it the active profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("icp"); err != nil {
			return err
		}

		p, err := icp.LoadFile(args[0])
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pv, err := icp.NewEditor(st, nil).Apply(ctx, p)
		if err != nil {
			return eris.Wrap(err, "icp apply")
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Applied %q as version %d\n", pv.Name, pv.Version)
		return nil
	},
}

// -- icp history --

var icpHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List applied profile versions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("icp"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		versions, err := st.ListProfileVersions(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "icp history")
		}
		if len(versions) == 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No applied profiles; sync uses the configured profile.")
			return nil
		}
		formatProfileHistory(cmd.OutOrStdout(), versions)
		return nil
	},
}

func writeProfile(w io.Writer, p scoring.Profile, version int) error {
	doc, err := icp.Marshal(p)
	if err != nil {
		return err
	}
	if version > 0 {
		_, _ = fmt.Fprintf(w, "# version %d, hash %s\n", version, icp.Hash(p))
	} else {
		_, _ = fmt.Fprintf(w, "# hash %s\n", icp.Hash(p))
	}
	_, err = w.Write(doc)
	return eris.Wrap(err, "icp: write profile")
}

func formatProfileHistory(out io.Writer, versions []model.ProfileVersion) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tNAME\tHASH\tAPPLIED")
	_, _ = fmt.Fprintln(w, "-------\t----\t----\t-------")
	for _, v := range versions {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			v.Version,
			v.Name,
			truncateID(v.Hash),
			v.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func init() {
	icpShowCmd.Flags().String("builtin", "", "show a built-in profile (canonical or legacy) instead of the active one")
	icpHistoryCmd.Flags().Int("limit", 20, "max number of versions to display")

	icpCmd.AddCommand(icpShowCmd)
	icpCmd.AddCommand(icpValidateCmd)
	icpCmd.AddCommand(icpApplyCmd)
	icpCmd.AddCommand(icpHistoryCmd)
	rootCmd.AddCommand(icpCmd)
}
