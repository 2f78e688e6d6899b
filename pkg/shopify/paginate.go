package shopify

import (
	"context"
	"encoding/json"
	"fmt"
)

// EachPage walks a cursor-paginated connection strictly sequentially,
// calling fn with each page's nodes in API order. The end cursor from
// each response is threaded back verbatim into the "cursor" variable
// for the next request; the walk ends when hasNextPage goes false.
func EachPage[T any](ctx context.Context, c *Client, req Request, unwrap func(json.RawMessage) (Connection[T], error), fn func(page int, nodes []T) error) error {
	var cursor *string
	for page := 1; ; page++ {
		vars := make(map[string]any, len(req.Variables)+1)
		for k, v := range req.Variables {
			vars[k] = v
		}
		if cursor != nil {
			vars["cursor"] = *cursor
		}

		data, _, err := c.Execute(ctx, Request{Operation: req.Operation, Query: req.Query, Variables: vars})
		if err != nil {
			return err
		}

		conn, err := unwrap(data)
		if err != nil {
			return fmt.Errorf("%s page %d: %w", req.Operation, page, err)
		}

		if err := fn(page, conn.Nodes()); err != nil {
			return err
		}

		if !conn.PageInfo.HasNextPage {
			return nil
		}
		if conn.PageInfo.EndCursor == nil {
			// Following a nil cursor would refetch page one forever.
			return fmt.Errorf("%s page %d: hasNextPage with no endCursor", req.Operation, page)
		}
		cursor = conn.PageInfo.EndCursor
	}
}

// CollectPages drains a paginated connection into one slice. The result
// is never nil, so empty sub-collections marshal as [].
func CollectPages[T any](ctx context.Context, c *Client, req Request, unwrap func(json.RawMessage) (Connection[T], error)) ([]T, error) {
	nodes := make([]T, 0)
	err := EachPage(ctx, c, req, unwrap, func(_ int, page []T) error {
		nodes = append(nodes, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}
