package folio

import (
	"context"
	"fmt"
	"net/url"
)

// ConfigValue queries the tenant config store for (module, configName).
// ok=false means the store answered with zero matching entries; an error
// means the query itself failed and the caller decides whether to fall back
func (c *Client) ConfigValue(ctx context.Context, module, name string) (string, bool, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("(module = %s and configName = %s)", module, name))
	q.Set("limit", "1")

	b, err := c.get(ctx, c.opts.ConfigPath, q)
	if err != nil {
		return "", false, err
	}
	var page configPage
	if err := decodeJSON(b, "config entries", &page); err != nil {
		return "", false, err
	}
	if len(page.Configs) == 0 {
		return "", false, nil
	}
	return page.Configs[0].Value, true, nil
}
