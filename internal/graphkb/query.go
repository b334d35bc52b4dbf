package graphkb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/sirupsen/logrus"
)

type queryResponse struct {
	Result []Record `json:"result"`
}

// Query posts body to /query and pages through the results until a page comes back shorter
// than the configured page size. Results of successful queries are cached by body; cached
// records are shared and must not be modified.
func (c *Client) Query(ctx context.Context, body map[string]any) ([]Record, error) {
	key, err := cacheKey(body)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if records, ok := c.cache.Get(key); ok {
			c.cacheHits.Add(1)
			return records, nil
		}
	}

	var records []Record

	for {
		page := maps.Clone(body)
		page["limit"] = c.cfg.PageSize
		page["skip"] = len(records)

		var resp queryResponse
		if err := c.post(ctx, "query", page, &resp, true); err != nil {
			return nil, err
		}

		records = append(records, resp.Result...)

		if len(resp.Result) < c.cfg.PageSize {
			break
		}
	}

	c.log.WithFields(logrus.Fields{
		"target":  body["target"],
		"records": len(records),
	}).Debug("graphkb.query")

	if c.cache != nil {
		c.cache.Add(key, records)
	}

	return records, nil
}

// cacheKey hashes the canonical JSON encoding of body; map keys marshal in sorted order.
func cacheKey(body map[string]any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal query: %w", err)
	}

	sum := sha256.Sum256(append([]byte("/query"), data...))

	return hex.EncodeToString(sum[:]), nil
}
