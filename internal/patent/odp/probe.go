package odp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/sadskatr/patent-database/internal/patent/types"
)

// ProbePayload is the fixed request used to check connectivity
func ProbePayload() *types.QueryPayload {
	return &types.QueryPayload{
		Q: types.FieldTypeLabel + ":Utility",
		Filters: []types.Filter{
			{Name: types.FieldStatusDescription, Value: []string{"Patented Case"}},
		},
		Pagination: types.Pagination{Offset: 0, Limit: 1},
		Fields:     []string{"applicationNumberText", types.FieldFilingDate},
	}
}

// Probe sends ProbePayload once, without 429 retries, bounded by the probe
// timeout. It returns the upstream total count.
func (c *Client) Probe(ctx context.Context) (int, error) {
	if !c.HasAPIKey() {
		return 0, types.ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.ProbeTimeout)
	defer cancel()

	body, err := json.Marshal(ProbePayload())
	if err != nil {
		return 0, fmt.Errorf("failed to marshal probe payload: %w", err)
	}

	c.logger.Info("testing ODP connection", zap.String("url", c.config.SearchURL()))

	status, respBody, err := c.post(ctx, opProbe, body)
	if err != nil {
		c.logger.Error("probe failed", zap.Error(err))
		return 0, &types.UpstreamError{Err: err}
	}
	if status != http.StatusOK {
		c.logger.Error("probe returned an error", zap.Int("status", status))
		return 0, &types.UpstreamError{StatusCode: status, Body: string(respBody)}
	}

	page, err := decodePage(respBody)
	if err != nil {
		c.logger.Warn("probe response not decodable", zap.Error(err))
		return 0, &types.UpstreamError{StatusCode: status, Body: string(respBody), Err: err}
	}

	c.logger.Info("probe succeeded", zap.Int("count", page.Count), zap.Int("returned", len(page.Records)))
	return page.Count, nil
}
