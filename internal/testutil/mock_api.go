// Package testutil provides mock remote APIs for testing the export
// and generation commands.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior of one scripted endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock server standing in for any of the
// remote APIs the commands call.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
}

// NewMockAPI creates a new mock API server. Paths without a scripted
// handler answer 404.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		http.Error(w, fmt.Sprintf("no handler for %s", r.URL.Path), http.StatusNotFound)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockAPI) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockAPI) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// healthyCost is a throttle envelope with plenty of capacity left.
func healthyCost(requested int) map[string]any {
	return map[string]any{
		"requestedQueryCost": requested,
		"actualQueryCost":    requested,
		"throttleStatus": map[string]any{
			"maximumAvailable":   1000.0,
			"currentlyAvailable": 950.0,
			"restoreRate":        50.0,
		},
	}
}

// AdminGraphQLHandler serves a paged products connection for the
// Products operation and empty connections for every sub-resource
// operation, so an export resolves cleanly against it. Pages are cut
// by the "first" variable using an offset cursor.
func AdminGraphQLHandler(handles []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")

		if !strings.Contains(req.Query, "query Products(") {
			// Sub-resource operations yield empty connections.
			writeGraphQL(w, emptyConnectionData(req.Query), healthyCost(1))
			return
		}

		first := len(handles)
		if v, ok := req.Variables["first"].(float64); ok && v > 0 {
			first = int(v)
		}

		offset := 0
		if cursor, ok := req.Variables["cursor"].(string); ok {
			offset, _ = strconv.Atoi(cursor)
		}

		end := offset + first
		if end > len(handles) {
			end = len(handles)
		}

		edges := make([]map[string]any, 0, end-offset)
		for i, handle := range handles[offset:end] {
			edges = append(edges, map[string]any{
				"node": map[string]any{
					"id":     fmt.Sprintf("gid://shopify/Product/%d", offset+i+1),
					"handle": handle,
					"title":  fmt.Sprintf("Product %d", offset+i+1),
					"status": "ACTIVE",
				},
			})
		}

		pageInfo := map[string]any{"hasNextPage": end < len(handles)}
		if end < len(handles) {
			pageInfo["endCursor"] = strconv.Itoa(end)
		}

		writeGraphQL(w, map[string]any{
			"products": map[string]any{"edges": edges, "pageInfo": pageInfo},
		}, healthyCost(first))
	}
}

// emptyConnectionData builds an empty connection for whichever
// sub-resource the query asks for.
func emptyConnectionData(query string) map[string]any {
	connection := map[string]any{
		"edges":    []any{},
		"pageInfo": map[string]any{"hasNextPage": false},
	}

	if strings.Contains(query, "query VariantMetafields(") {
		return map[string]any{
			"productVariant": map[string]any{"metafields": connection},
		}
	}

	field := "variants"
	switch {
	case strings.Contains(query, "query ProductMedia("):
		field = "media"
	case strings.Contains(query, "query ProductMetafields("):
		field = "metafields"
	}

	return map[string]any{
		"product": map[string]any{field: connection},
	}
}

func writeGraphQL(w http.ResponseWriter, data map[string]any, cost map[string]any) {
	json.NewEncoder(w).Encode(map[string]any{
		"data":       data,
		"extensions": map[string]any{"cost": cost},
	})
}

// GenerationEchoHandler answers generation calls with one result per
// numbered product in the prompt, deriving the copy from each title so
// order mixups are detectable.
func GenerationEchoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		const marker = ". Title: "
		var titles []string
		for _, line := range strings.Split(req.Prompt, "\n") {
			line = strings.TrimSpace(line)
			if i := strings.Index(line, marker); i > 0 {
				titles = append(titles, line[i+len(marker):])
			}
		}

		products := make([]map[string]string, 0, len(titles))
		for _, title := range titles {
			products = append(products, map[string]string{
				"description":     "short copy for " + title,
				"longDescription": "long copy for " + title,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"subtype":        "success",
			"result":         map[string]any{"products": products},
			"total_cost_usd": 0.01,
			"usage":          map[string]any{"input_tokens": 100, "output_tokens": 50},
		})
	}
}

// GenerationFailureBody builds a non-success generation envelope.
func GenerationFailureBody(subtype, message string) string {
	body, _ := json.Marshal(map[string]string{"subtype": subtype, "message": message})
	return string(body)
}

// SanityWindowHandler serves ordered slice windows over a fixed list
// of document IDs, the way the content lake answers a GROQ slice. The
// slice bounds are read from the query text.
func SanityWindowHandler(ids []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groq := r.URL.Query().Get("query")

		from, to, ok := parseSliceWindow(groq)
		if !ok {
			http.Error(w, "no slice window in query", http.StatusBadRequest)
			return
		}
		if from > len(ids) {
			from = len(ids)
		}
		if to > len(ids) {
			to = len(ids)
		}

		window := make([]map[string]string, 0, to-from)
		for _, id := range ids[from:to] {
			window = append(window, map[string]string{"_id": id, "_type": "post"})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"result": window, "ms": 1.0})
	}
}

// parseSliceWindow extracts the [from...to] suffix of a GROQ query.
func parseSliceWindow(groq string) (int, int, bool) {
	open := strings.LastIndex(groq, "[")
	if open < 0 || !strings.HasSuffix(groq, "]") {
		return 0, 0, false
	}

	bounds := strings.Split(groq[open+1:len(groq)-1], "...")
	if len(bounds) != 2 {
		return 0, 0, false
	}

	from, err := strconv.Atoi(bounds[0])
	if err != nil {
		return 0, 0, false
	}
	to, err := strconv.Atoi(bounds[1])
	if err != nil {
		return 0, 0, false
	}

	return from, to, true
}

// ShopCategoriesHandler serves paged categories with no product
// links: categories.json pages a fixed list of titles, and the link
// resource always comes back empty.
func ShopCategoriesHandler(m *MockAPI, titles []string) {
	m.SetHandler("/categories.json", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if page < 1 || limit < 1 {
			http.Error(w, "bad page or limit", http.StatusBadRequest)
			return
		}

		from := (page - 1) * limit
		to := from + limit
		if from > len(titles) {
			from = len(titles)
		}
		if to > len(titles) {
			to = len(titles)
		}

		categories := make([]map[string]any, 0, to-from)
		for i, title := range titles[from:to] {
			categories = append(categories, map[string]any{
				"id":        from + i + 1,
				"title":     title,
				"isVisible": true,
				"depth":     1,
				"sortOrder": from + i + 1,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"categories": categories})
	})

	m.SetHandler("/categories/products.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"categoriesProducts": []any{}})
	})
}
