package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ledger/internal/catalog"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/log"
)

var categoriesFile string

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the category catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFile()
		path := categoriesFile
		if path == "" {
			path = config.Load().CatalogFile
		}

		cat, err := cli.LoadCatalog(path, log.Discard())
		if err != nil {
			return err
		}
		return printCategories(cmd.OutOrStdout(), cat)
	},
}

func printCategories(out io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VALUE\tLABEL\tCOLOR\tICON")
	for i, c := range cat.All() {
		value := c.Value
		if i == 0 {
			value += " (default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", value, c.Label, c.Color, c.Icon)
	}
	return tw.Flush()
}
