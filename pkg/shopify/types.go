package shopify

// PageInfo reports whether a connection has further pages and the
// cursor to resume from. Cursors are opaque and threaded back verbatim.
type PageInfo struct {
	HasNextPage bool    `json:"hasNextPage"`
	EndCursor   *string `json:"endCursor"`
}

// Edge wraps one node of a connection.
type Edge[T any] struct {
	Node T `json:"node"`
}

// Connection is the {edges:[{node}], pageInfo} envelope every paginated
// Admin API field uses.
type Connection[T any] struct {
	Edges    []Edge[T] `json:"edges"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// Nodes unwraps the edge envelopes in API order.
func (c Connection[T]) Nodes() []T {
	nodes := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		nodes = append(nodes, e.Node)
	}
	return nodes
}

// Cost mirrors the extensions.cost envelope attached to every GraphQL
// response. RequestedQueryCost is what the query asked for before
// execution; ActualQueryCost is what it consumed.
type Cost struct {
	RequestedQueryCost float64        `json:"requestedQueryCost"`
	ActualQueryCost    float64        `json:"actualQueryCost"`
	ThrottleStatus     ThrottleStatus `json:"throttleStatus"`
}

// ThrottleStatus is the API's view of the cost bucket: total capacity,
// what is left right now, and how many points restore per second.
type ThrottleStatus struct {
	MaximumAvailable   float64 `json:"maximumAvailable"`
	CurrentlyAvailable float64 `json:"currentlyAvailable"`
	RestoreRate        float64 `json:"restoreRate"`
}

// ResponseError is one entry of a GraphQL errors array.
type ResponseError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}
