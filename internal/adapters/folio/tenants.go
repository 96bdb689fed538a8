package folio

import (
	"context"

	perr "harvester/internal/platform/errors"
)

const (
	// InterfaceName is the capability interface a tenant must declare for
	// the harvester to pick it up
	InterfaceName = "erm-usage-harvester"

	// InterfaceVersion is the required interface version
	InterfaceVersion = "1.0"
)

// Tenants lists all tenant ids known to the gateway
func (c *Client) Tenants(ctx context.Context) ([]string, error) {
	b, err := c.get(ctx, c.opts.TenantsPath, nil)
	if err != nil {
		return nil, err
	}
	var descs []tenantDesc
	if err := decodeJSON(b, "tenant collection", &descs); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.ID)
	}
	return out, nil
}

// HasHarvesterInterface checks that the tenant declared the harvester
// capability interface at the required version
func (c *Client) HasHarvesterInterface(ctx context.Context, tenant string) error {
	b, err := c.get(ctx, c.opts.TenantsPath+"/"+tenant+"/interfaces", nil)
	if err != nil {
		return perr.Wrapf(err, perr.CodeOf(err), "failed retrieving interfaces for tenant %s", tenant)
	}
	var descs []interfaceDesc
	if err := decodeJSON(b, "interface collection", &descs); err != nil {
		return err
	}
	for _, d := range descs {
		if d.ID == InterfaceName && d.Version == InterfaceVersion {
			return nil
		}
	}
	return perr.NotFoundf("interface %s %s not found for tenant %s", InterfaceName, InterfaceVersion, tenant)
}
