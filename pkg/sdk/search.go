package docmind

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/search/filter"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
)

// Search runs a hybrid query over the owner's chunks.
func (c *Client) Search(
	ctx context.Context, ownerID, query string, opts SearchOptions,
) (hits []SearchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	fs, err := filter.New(map[string]string{
		domain.MetaSource:   opts.Filters.Source,
		domain.MetaCategory: opts.Filters.Category,
		domain.MetaClient:   opts.Filters.Client,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	req, err := request.NewWithLimits(query, ownerID, request.OptionalTopK(opts.TopK), fs, c.limits)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := c.searchSvc.Search(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i := range results {
		out[i] = fromInternalResult(&results[i])
	}
	return out, nil
}

func fromInternalResult(r *result.Result) SearchResult {
	return SearchResult{
		ID:         r.ID(),
		Score:      r.Score(),
		Content:    r.Content(),
		DocumentID: r.DocumentID(),
		Filename:   r.Filename(),
		ChunkIndex: r.ChunkIndex(),
		Metadata:   fromInternalMetadata(r.Metadata()),
	}
}
