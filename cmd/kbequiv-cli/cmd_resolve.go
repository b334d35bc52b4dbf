package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/kbequiv/client"
)

func newResolveCmd() *cobra.Command {
	var (
		class       string
		aliasDepth  int
		dirDepth    int
		equivEdges  []string
		directEdges []string
	)

	cmd := &cobra.Command{
		Use:   "resolve <name>",
		Short: "Resolve a name to its equivalence set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &client.ResolveRequest{
				Name:             args[0],
				TargetClass:      class,
				EquivalencyEdges: splitList(equivEdges),
				DirectionalEdges: splitList(directEdges),
			}
			if cmd.Flags().Changed("alias-depth") {
				req.AliasDepth = client.Depth(aliasDepth)
			}
			if cmd.Flags().Changed("directional-depth") {
				req.DirectionalDepth = client.Depth(dirDepth)
			}

			res, err := apiClient.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&class, "class", "", "Restrict the result to one vertex class")
	cmd.Flags().IntVar(&aliasDepth, "alias-depth", 0, "Alias traversal depth (server default when unset)")
	cmd.Flags().IntVar(&dirDepth, "directional-depth", 0, "Directional traversal depth (server default when unset)")
	cmd.Flags().StringSliceVar(&equivEdges, "equivalency-edges", nil, "Edge classes treated as equivalence")
	cmd.Flags().StringSliceVar(&directEdges, "directional-edges", nil, "Edge classes followed directionally")

	return cmd
}

// namedCmd builds a command that resolves one name through a preset endpoint.
func namedCmd(use, short string, fetch func(ctx context.Context, name string) (*client.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func newFeaturesCmd() *cobra.Command {
	return namedCmd("features <gene>", "List Feature records equivalent to a gene name",
		func(ctx context.Context, name string) (*client.Result, error) {
			return apiClient.EquivalentFeatures(ctx, name)
		})
}

func newTermsCmd() *cobra.Command {
	return namedCmd("terms <term>", "Expand a vocabulary term with its subclasses and aliases",
		func(ctx context.Context, name string) (*client.Result, error) {
			return apiClient.TermTree(ctx, name)
		})
}

func newDiseasesCmd() *cobra.Command {
	return namedCmd("diseases <name>", "Expand a disease with its subclasses and aliases",
		func(ctx context.Context, name string) (*client.Result, error) {
			return apiClient.DiseaseTree(ctx, name)
		})
}

// splitList flattens comma separated values and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
