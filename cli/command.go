package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vulntriage/vulntriage/config"
	"github.com/vulntriage/vulntriage/internal"
)

var (
	rootCmd = &cobra.Command{
		Use:   "vulntriage [OPTIONS]",
		Short: "CVE risk triage",
		Long: `Vulntriage classifies vulnerabilities into prioritized response tiers (P0-P3),
backed by the CISA KEV catalog, live search evidence and a language model`,
	}

	versions = "v0.1.0"

	inputFile  string
	outfile    string
	skipUpdate bool
	noSearch   bool
	upgradeall bool
)

func Execute() error {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [OPTIONS] [TEXT]",
		Short: "Triage the CVEs of an intelligence text",
		Long: `Examples:
  # Triage a single CVE
  $ vulntriage analyze "Apache HTTP Server path traversal (CVE-2021-41773)"

  # Triage every CVE of an intelligence file
  $ vulntriage analyze -f advisory.txt

  # Triage from stdin, without the live search step
  $ cat advisory.txt | vulntriage analyze --no-search

  # Skip the KEV catalog refresh
  $ vulntriage analyze --skip "CVE-2024-3400"`,
		Run: func(cmd *cobra.Command, args []string) {

			ctx := config.Ctx
			ctx = context.WithValue(ctx, "output", outfile)
			ctx = context.WithValue(ctx, "skip", skipUpdate)
			ctx = context.WithValue(ctx, "nosearch", noSearch)

			rawText, err := gatherInput(args)
			if err != nil {
				log.Printf("%v", err)
				os.Exit(1)
			}

			if rawText == "" {
				fmt.Println("Require an intelligence text, a file (-f) or stdin.")
				os.Exit(1)
			}

			internal.DoTriage(ctx, rawText)
		},
	}

	// Upgrade KEV catalog database
	dataupgradeCmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade KEV catalog database",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := config.Ctx
			ctx = context.WithValue(ctx, "reset", upgradeall)

			internal.DoUpgrade(ctx)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and quit",
		Args:  NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(versions)
		},
	}

	analyzeCmd.Flags().StringVarP(&inputFile, "file", "f", "", "path of intelligence text file")
	analyzeCmd.Flags().StringVarP(&outfile, "output", "o", "output", "output file location")
	analyzeCmd.Flags().BoolVar(&skipUpdate, "skip", false, "skip the KEV catalog updating")
	analyzeCmd.Flags().BoolVar(&noSearch, "no-search", false, "disable the live search enrichment")

	dataupgradeCmd.Flags().BoolVarP(&upgradeall, "all", "a", false, "Reset the database")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(dataupgradeCmd)
	rootCmd.AddCommand(versionCmd)
	return rootCmd.Execute()
}

func gatherInput(args []string) (string, error) {
	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %v", inputFile, err)
		}
		return string(data), nil
	}

	if len(args) > 0 {
		return args[0], nil
	}

	// Read stdin when piped
	stat, err := os.Stdin.Stat()
	if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	return "", nil
}
