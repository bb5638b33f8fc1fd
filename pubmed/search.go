package pubmed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search returns every PMID matching query, each once, in the order
// Entrez first reported it.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	total, _, err := c.esearch(ctx, query, 0, 0)
	if err != nil {
		return nil, err
	}
	c.logger.Info("search", "query", query, "count", total)

	seen := make(map[string]struct{}, total)
	ids := make([]string, 0, total)
	for start := 0; start < total; start += c.batchSize {
		_, page, err := c.esearch(ctx, query, start, c.batchSize)
		if err != nil {
			return nil, err
		}
		for _, id := range page {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	c.logger.Info("search finished", "query", query, "ids", len(ids))
	return ids, nil
}

func (c *Client) esearch(ctx context.Context, query string, start, max int) (int, []string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "json")
	params.Set("retstart", strconv.Itoa(start))
	params.Set("retmax", strconv.Itoa(max))

	raw, err := c.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return 0, nil, err
	}

	var resp esearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	count, err := strconv.Atoi(resp.Result.Count)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: count %q", ErrBadResponse, resp.Result.Count)
	}
	return count, resp.Result.IDList, nil
}
