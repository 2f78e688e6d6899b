package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{
		BaseURL: server.URL,
		Dataset: "production",
		Version: "2024-01-01",
		Token:   "sk-test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return client
}

func TestNewValidation(t *testing.T) {
	valid := Config{
		ProjectID: "zq9xr2ab",
		Dataset:   "production",
		Version:   "2024-01-01",
		Token:     "sk-test",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing_project_id",
			mutate:  func(c *Config) { c.ProjectID = "" },
			wantErr: true,
		},
		{
			name:    "missing_dataset",
			mutate:  func(c *Config) { c.Dataset = "" },
			wantErr: true,
		},
		{
			name:    "missing_version",
			mutate:  func(c *Config) { c.Version = "" },
			wantErr: true,
		},
		{
			name:    "missing_token",
			mutate:  func(c *Config) { c.Token = "" },
			wantErr: true,
		},
		{
			name: "base_url_stands_in_for_project_id",
			mutate: func(c *Config) {
				c.ProjectID = ""
				c.BaseURL = "http://127.0.0.1:9999"
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			_, err := New(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewProjectHost(t *testing.T) {
	client, err := New(Config{
		ProjectID: "zq9xr2ab",
		Dataset:   "production",
		Version:   "2024-01-01",
		Token:     "sk-test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	want := "https://zq9xr2ab.api.sanity.io"
	if client.baseURL != want {
		t.Errorf("baseURL = %q, want %q", client.baseURL, want)
	}
}

func TestQuerySuccess(t *testing.T) {
	var gotPath, gotQuery, gotType, gotAuth string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotType = r.URL.Query().Get("$type")
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]string{{"_id": "a1", "_type": "post"}},
			"ms":     2.8,
		})
	})

	groq := "*[_type == $type] | order(_id) [0...10]"
	raw, err := client.Query(context.Background(), groq, map[string]any{"type": "post"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if want := "/v2024-01-01/data/query/production"; gotPath != want {
		t.Errorf("path = %q, want %q", gotPath, want)
	}
	if gotQuery != groq {
		t.Errorf("query param = %q, want %q", gotQuery, groq)
	}
	if want := `"post"`; gotType != want {
		t.Errorf("$type param = %q, want %q", gotType, want)
	}
	if want := "Bearer sk-test"; gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}

	var docs []map[string]string
	if err := json.Unmarshal(raw, &docs); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(docs) != 1 || docs[0]["_id"] != "a1" {
		t.Errorf("result = %v, want one document with _id a1", docs)
	}
}

func TestQueryGROQError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"description": "unexpected token at position 12",
				"type":        "queryParseError",
			},
		})
	})

	_, err := client.Query(context.Background(), "*[broken", nil)
	if err == nil {
		t.Fatal("Query() error = nil, want *QueryError")
	}

	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("error = %v, want *QueryError", err)
	}
	if queryErr.Type != "queryParseError" {
		t.Errorf("Type = %q, want %q", queryErr.Type, "queryParseError")
	}
	if !strings.Contains(err.Error(), "unexpected token") {
		t.Errorf("Error() = %q, want the reported description", err.Error())
	}
}

func TestQueryHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.Query(context.Background(), "*", nil)
	if err == nil {
		t.Fatal("Query() error = nil, want *HTTPError")
	}

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("error = %v, want *HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want %d", httpErr.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestQueryNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := New(Config{
		BaseURL: server.URL,
		Dataset: "production",
		Version: "2024-01-01",
		Token:   "sk-test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Query(context.Background(), "*", nil)
	if err == nil {
		t.Fatal("Query() error = nil, want network error")
	}
	if !strings.Contains(err.Error(), "query dataset production") {
		t.Errorf("Error() = %q, want wrapped network error", err.Error())
	}
}
