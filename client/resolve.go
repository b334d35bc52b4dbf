package client

import (
	"context"
	"net/url"
)

// Resolve computes the equivalence set of req.Name.
func (c *Client) Resolve(ctx context.Context, req *ResolveRequest) (*Result, error) {
	var res Result
	if err := c.post(ctx, "/api/v1/resolve", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EquivalentFeatures returns the Feature records equivalent to a gene name.
func (c *Client) EquivalentFeatures(ctx context.Context, gene string) (*Result, error) {
	return c.named(ctx, "/api/v1/features/", gene, "/equivalents")
}

// TermTree returns a vocabulary term with its subclass tree and aliases.
func (c *Client) TermTree(ctx context.Context, term string) (*Result, error) {
	return c.named(ctx, "/api/v1/terms/", term, "/tree")
}

// DiseaseTree returns a disease with its subclass tree and aliases.
func (c *Client) DiseaseTree(ctx context.Context, disease string) (*Result, error) {
	return c.named(ctx, "/api/v1/diseases/", disease, "/tree")
}

func (c *Client) named(ctx context.Context, prefix, name, suffix string) (*Result, error) {
	var res Result
	if err := c.get(ctx, prefix+url.PathEscape(name)+suffix, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
