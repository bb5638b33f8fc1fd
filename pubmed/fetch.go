package pubmed

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/poiesic/litmine/core"
)

// Fetch downloads the records for pmids in chunks and returns them as
// documents. A chunk that fails after retries is logged and skipped, so the
// result may be shorter than the input. Records without a PMID are dropped.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]*core.Document, error) {
	docs := make([]*core.Document, 0, len(pmids))
	for start := 0; start < len(pmids); start += c.fetchSize {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		chunk := pmids[start:min(start+c.fetchSize, len(pmids))]

		records, err := c.efetch(ctx, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return docs, ctx.Err()
			}
			c.logger.Error("error fetching records, skipping chunk",
				"first", chunk[0], "size", len(chunk), "err", err)
			continue
		}
		for _, rec := range records {
			if rec.PMID == "" {
				continue
			}
			docs = append(docs, rec.Document())
		}
	}

	c.logger.Info("fetch finished", "requested", len(pmids), "fetched", len(docs))
	return docs, nil
}

func (c *Client) efetch(ctx context.Context, pmids []string) ([]Record, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("rettype", "medline")
	params.Set("retmode", "text")

	raw, err := c.get(ctx, "efetch.fcgi", params)
	if err != nil {
		return nil, err
	}
	return ParseMedline(bytes.NewReader(raw))
}
