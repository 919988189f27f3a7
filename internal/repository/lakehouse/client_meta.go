package lakehouse

import (
	"context"
	"fmt"
	"sort"
)

// client_meta.go implements the facet listings of clientImpl

const (
	showVClustersQuery = "show vclusters;"
	showUsersQuery     = "show users;"
)

func (c *clientImpl) ListVirtualClusters(ctx context.Context, workspace string) ([]string, error) {
	return c.listNames(ctx, workspace, showVClustersQuery)
}

func (c *clientImpl) ListUsers(ctx context.Context, workspace string) ([]string, error) {
	return c.listNames(ctx, workspace, showUsersQuery)
}

// listNames returns the sorted "name" column of a show statement.
func (c *clientImpl) listNames(ctx context.Context, workspace, query string) ([]string, error) {
	res, err := c.Query(ctx, workspace, query, DefaultCacheTTL)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		v, ok := row["name"]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			names = append(names, s)
		} else {
			names = append(names, fmt.Sprint(v))
		}
	}
	sort.Strings(names)
	return names, nil
}
