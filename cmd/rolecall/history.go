package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rolecall/rolecall/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently sent postings",
	Long:  "Reads the digest archive and prints the most recently sent postings.",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum rows to print")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Archive.Enabled {
		fmt.Fprintln(os.Stderr, "archive is disabled; enable archive in config to keep history")
		os.Exit(1)
	}

	arch, err := store.OpenArchive(cfg.Archive.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open archive: %v\n", err)
		os.Exit(1)
	}
	defer arch.Close()

	rows, err := arch.Recent(historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read archive: %v\n", err)
		os.Exit(1)
	}
	if len(rows) == 0 {
		fmt.Println("No postings in the archive yet.")
		return nil
	}

	fmt.Printf("%-12s %-6s %-42s %-22s %s\n", "Sent", "Score", "Title", "Company", "Source")
	fmt.Println(strings.Repeat("─", 96))
	for _, r := range rows {
		fmt.Printf("%-12s %-6d %-42s %-22s %s\n",
			r.SentAt.Format("2006-01-02"), r.Score, truncate(r.Title, 42), truncate(r.Company, 22), r.Source)
	}
	fmt.Printf("\nTotal: %d postings\n", len(rows))
	return nil
}
