package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured job sources.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-18s %s\n", "Kind", "Target")
	fmt.Println(strings.Repeat("─", 60))

	count := 0
	row := func(kind, target string) {
		fmt.Printf("%-18s %s\n", kind, target)
		count++
	}

	for _, b := range cfg.Sources.Greenhouse.Boards {
		row("greenhouse", b)
	}
	for _, b := range cfg.Sources.Lever.Boards {
		row("lever", b)
	}
	for _, b := range cfg.Sources.Ashby.Boards {
		row("ashby", b)
	}
	for _, c := range cfg.Sources.SmartRecruiters.Companies {
		row("smartrecruiters", c)
	}
	if cfg.Sources.Remotive.Enabled {
		row("remotive", "search: "+cfg.Sources.Remotive.Search)
	}
	if cfg.Sources.RemoteOK.Enabled {
		row("remoteok", "full feed")
	}
	if cfg.Sources.Jobicy.Enabled {
		row("jobicy", fmt.Sprintf("tag: %s, geo: %s", cfg.Sources.Jobicy.Tag, cfg.Sources.Jobicy.Geo))
	}
	for _, f := range cfg.Sources.RSS.Feeds {
		row("rss", fmt.Sprintf("%s (%s)", f.Name, f.URL))
	}
	if cfg.Sources.LinkedIn.Enabled {
		row("linkedin", strings.Join(cfg.Sources.LinkedIn.Keywords, ", "))
	}

	fmt.Printf("\nTotal: %d sources\n", count)
	return nil
}
