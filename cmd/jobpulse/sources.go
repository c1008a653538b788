package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobpulse/internal/aggregator"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured job sources",
	Long:  "Reads the config and prints a table of all configured sources and the active profile.",
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
	profile, err := buildProfile(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid profile: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-12s %-10s %-10s %-8s %s\n", "Source", "Status", "Rate/s", "Retries", "Key")
	fmt.Println(strings.Repeat("─", 52))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		rate := "unlimited"
		if s.RateLimit > 0 {
			rate = fmt.Sprintf("%g", s.RateLimit)
		}
		key := "-"
		if s.APIKey != "" {
			key = "set"
		}
		fmt.Printf("%-12s %-10s %-10s %-8d %s\n", s.Name, status, rate, s.Retries, key)
	}
	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)

	allow := "none"
	if len(profile.AllowList) > 0 {
		allow = strings.Join(profile.AllowList, ", ")
	}
	fmt.Printf("\nProfile: %s\n", profile.Name)
	fmt.Printf("  page cap:        %d\n", profile.PageCap)
	fmt.Printf("  adapter timeout: %s\n", profile.AdapterTimeout)
	fmt.Printf("  allow-list:      %s\n", allow)
	fmt.Printf("  strategy:        %s\n", profile.Strategy)
	if profile.Strategy == aggregator.PreferSource {
		fmt.Printf("  default source:  %s\n", profile.DefaultSource)
	}
	return nil
}
