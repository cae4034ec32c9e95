package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ledger/internal/backend"
)

var rootCmd = &cobra.Command{
	Use:          "ledger",
	Short:        "Personal finance ledger",
	Long:         `Records income and expense entries and reports running totals.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "storage backend: "+strings.Join(backend.GetBackendTypeStrings(), " or ")+" (overrides DATA_BACKEND)")
	categoriesCmd.Flags().StringVar(&categoriesFile, "file", "", "catalog YAML file (overrides LEDGER_CATALOG_FILE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(categoriesCmd)
}
