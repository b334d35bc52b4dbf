package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/kbequiv/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server readiness, and auth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), cmd.OutOrStdout(), defaultConfigPath(), apiClient)
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor(ctx context.Context, w io.Writer, cfgPath string, c *client.Client) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	fmt.Fprintln(w, "\nkbequiv doctor")
	fmt.Fprintln(w, "==============")

	var results []checkResult

	if _, err := loadConfigFile(cfgPath); err != nil {
		results = append(results, checkResult{
			Name: "Config file", Detail: "not found (" + cfgPath + ")",
			Hint: "Run: kbequiv-cli init",
		})
	} else {
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: cfgPath})
	}

	results = append(results, checkResult{Name: "Server URL", Passed: flagURL != "", Detail: flagURL})

	if flagKey == "" {
		results = append(results, checkResult{
			Name: "API key", Detail: "not set",
			Hint: "Set --api-key, KBEQUIV_API_KEY, or run kbequiv-cli init",
		})
	} else {
		results = append(results, checkResult{Name: "API key", Passed: true, Detail: "configured"})
	}

	h, err := c.Health(ctx)
	if err != nil {
		results = append(results, checkResult{
			Name: "Server reachable", Detail: err.Error(),
			Hint: "Is kbequiv running? Check the URL.",
		})
		printChecks(w, results)
		return fmt.Errorf("server unreachable")
	}
	results = append(results, checkResult{
		Name: "Server reachable", Passed: true,
		Detail: fmt.Sprintf("v%s, %s backend", h.Version, h.Backend),
	})

	if rd, err := c.Ready(ctx); err != nil {
		detail := err.Error()
		if rd != nil {
			detail = fmt.Sprintf("%s %v", rd.Status, rd.Checks)
		}
		results = append(results, checkResult{Name: "Oracle ready", Detail: detail, Hint: "Check the server's backend connection"})
	} else {
		results = append(results, checkResult{Name: "Oracle ready", Passed: true, Detail: rd.Checks["oracle"]})
	}

	results = append(results, checkAuth(ctx, c))

	printChecks(w, results)

	for _, r := range results {
		if !r.Passed {
			return fmt.Errorf("%s check failed", r.Name)
		}
	}
	return nil
}

// checkAuth sends a resolve with no name: an authorized request is rejected
// by validation before any oracle query runs.
func checkAuth(ctx context.Context, c *client.Client) checkResult {
	_, err := c.Resolve(ctx, &client.ResolveRequest{})
	switch {
	case err == nil, client.IsInvalidRequest(err):
		return checkResult{Name: "Authentication", Passed: true, Detail: "accepted"}
	case client.IsUnauthorized(err):
		return checkResult{Name: "Authentication", Detail: "rejected", Hint: "Check your API key"}
	default:
		return checkResult{Name: "Authentication", Detail: err.Error()}
	}
}

func printChecks(w io.Writer, results []checkResult) {
	for _, r := range results {
		mark := "✓"
		if !r.Passed {
			mark = "✗"
		}
		line := fmt.Sprintf("  %s %-18s", mark, r.Name)
		if r.Detail != "" {
			line += " " + r.Detail
		}
		fmt.Fprintln(w, line)
		if r.Hint != "" {
			fmt.Fprintf(w, "      → %s\n", r.Hint)
		}
	}
	fmt.Fprintln(w)
}
