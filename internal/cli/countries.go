package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// countriesCmd represents the countries command
var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List destination countries in the reference data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tNAME\tPOPULATION\tCURRENCY\tEVENTS")
		for _, code := range a.ref.Countries() {
			c := a.ref.Context(code)
			marker := ""
			if code == a.ref.DefaultCountry() {
				marker = " (default)"
			}
			fmt.Fprintf(tw, "%s%s\t%s\t%s\t%s %s\t%d\n",
				code, marker, c.Country.Name, humanize.Comma(c.Population()),
				c.Currency.Code, c.Currency.Symbol, len(c.Country.Events))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}
