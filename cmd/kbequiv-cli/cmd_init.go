package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/kbequiv/client"
)

func newInitCmd() *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up kbequiv CLI configuration",
		Long:  "Setup wizard that writes ~/.kbequiv/config.yaml. Passing --url or --api-key skips the prompts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			nonInteractive := flags.Changed("url") || flags.Changed("api-key")
			return runInit(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), initOptions{
				path:           defaultConfigPath(),
				url:            flagURL,
				apiKey:         flagKey,
				nonInteractive: nonInteractive,
				skipCheck:      skipCheck,
			})
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Save without testing the connection")
	return cmd
}

type initOptions struct {
	path           string
	url            string
	apiKey         string
	nonInteractive bool
	skipCheck      bool
}

func runInit(ctx context.Context, in io.Reader, out io.Writer, opts initOptions) error {
	if opts.path == "" {
		return fmt.Errorf("cannot determine home directory")
	}

	if !opts.nonInteractive {
		fmt.Fprintln(out, "\n  kbequiv setup")
		fmt.Fprintln(out, "  ─────────────")
		fmt.Fprintln(out)

		reader := bufio.NewReader(in)

		fmt.Fprintf(out, "  Server URL [%s]: ", defaultURL)
		line, _ := reader.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			opts.url = line
		}

		fmt.Fprint(out, "  API key (blank if the server has none): ")
		keyLine, _ := reader.ReadString('\n')
		opts.apiKey = strings.TrimSpace(keyLine)
	}

	if opts.url == "" {
		opts.url = defaultURL
	}

	if !opts.skipCheck {
		ver, err := testConnection(ctx, opts.url, opts.apiKey)
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		fmt.Fprintf(out, "  ✓ Connected (v%s)\n", ver)
	}

	if err := writeConfig(opts.path, opts.url, opts.apiKey); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	fmt.Fprintf(out, "Config saved to %s\n", opts.path)
	if !opts.nonInteractive {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  Next steps:")
		fmt.Fprintln(out, "    kbequiv-cli doctor          # Full diagnostic check")
		fmt.Fprintln(out, "    kbequiv-cli resolve KRAS    # Resolve a name")
		fmt.Fprintln(out)
	}
	return nil
}

// testConnection checks liveness and, when a key is given, that the key is accepted.
func testConnection(ctx context.Context, url, apiKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var opts []client.Option
	if apiKey != "" {
		opts = append(opts, client.WithAPIKey(apiKey))
	}
	c := client.New(url, opts...)

	h, err := c.Health(ctx)
	if err != nil {
		return "", err
	}
	if res := checkAuth(ctx, c); !res.Passed {
		return "", fmt.Errorf("authentication %s", res.Detail)
	}
	if h.Version == "" {
		return "unknown", nil
	}
	return h.Version, nil
}
