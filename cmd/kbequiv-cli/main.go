// Command kbequiv-cli queries a kbequiv server from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/persistorai/kbequiv/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3040"

var (
	apiClient *client.Client
	flagURL   string
	flagKey   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("kbequiv-cli version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("kbequiv-cli version %s-dev", version)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "kbequiv-cli",
		Short:   "kbequiv CLI: resolve ontology terms to their equivalence sets",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(flagFmt); err != nil {
				return err
			}
			s := resolveSettings(cmd, os.LookupEnv, defaultConfigPath())
			flagURL, flagKey = s.URL, s.APIKey

			var opts []client.Option
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
			return nil
		},
		SilenceUsage: true,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "kbequiv server URL (env: KBEQUIV_URL)")
	root.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: KBEQUIV_API_KEY)")
	root.PersistentFlags().StringVar(&flagFmt, "format", formatJSONName, "Output format: json|table|quiet")

	initCmd := newInitCmd()
	initCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error { return nil } // skip client setup

	root.AddCommand(initCmd)
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newFeaturesCmd())
	root.AddCommand(newTermsCmd())
	root.AddCommand(newDiseasesCmd())
	root.AddCommand(newHealthCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
