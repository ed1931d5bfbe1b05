package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/ClientClean/internal/phone"
)

func (a *app) codesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List the accepted country codes",
		Long: `Lists the country codes numbers are matched against, in match order,
with the digit count a full number must have. Set EXPORT_COUNTRY_CODES to
change the table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := a.table.Entries()
			w := cmd.OutOrStdout()

			if asJSON {
				type code struct {
					Prefix string `json:"prefix"`
					Length int    `json:"length"`
					Region string `json:"region"`
				}
				out := make([]code, len(entries))
				for i, e := range entries {
					out[i] = code{Prefix: e.Prefix, Length: e.Length, Region: phone.Region(e.Prefix)}
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "PREFIX\tDIGITS\tREGION")
			for _, e := range entries {
				fmt.Fprintf(tw, "+%s\t%d\t%s\n", e.Prefix, e.Length, phone.Region(e.Prefix))
			}
			fmt.Fprintf(tw, "\nLocal numbers starting with 01 get +%s.\n", a.table.LocalPrefix())
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
