package folio

import (
	"context"

	"harvester/internal/services/harvest/domain"
)

// AggregatorSetting resolves aggregator connection details by id.
// Fetched on demand per run, never cached
func (c *Client) AggregatorSetting(ctx context.Context, id string) (domain.AggregatorSetting, error) {
	b, err := c.get(ctx, c.opts.AggregatorPath+"/"+id, nil)
	if err != nil {
		return domain.AggregatorSetting{}, err
	}
	var s domain.AggregatorSetting
	if err := decodeJSON(b, "aggregator setting "+id, &s); err != nil {
		return domain.AggregatorSetting{}, err
	}
	return s, nil
}
