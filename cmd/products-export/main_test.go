package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/wiebekaai/ecommerce-skills/internal/testutil"
	"github.com/wiebekaai/ecommerce-skills/pkg/config"
)

const graphqlPath = "/admin/api/2024-07/graphql.json"

func setShopifyEnv(t *testing.T, endpoint string) {
	t.Helper()
	t.Setenv("SHOPIFY_STORE_DOMAIN", "test-store.myshopify.com")
	t.Setenv("SHOPIFY_ADMIN_TOKEN", "shpat_test")
	t.Setenv("SHOPIFY_API_VERSION", "2024-07")
	t.Setenv("SHOPIFY_API_URL", endpoint)
}

func TestRunMissingEnv(t *testing.T) {
	t.Setenv("SHOPIFY_STORE_DOMAIN", "")
	t.Setenv("SHOPIFY_ADMIN_TOKEN", "")
	t.Setenv("SHOPIFY_API_VERSION", "")
	t.Setenv("SHOPIFY_API_URL", "")

	var buf bytes.Buffer
	err := run(&buf, 0, 0, "")
	if err == nil {
		t.Fatal("run() with empty environment should fail")
	}

	var missing *config.MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("run() error = %v, want MissingError", err)
	}
	if len(missing.Vars) != 3 {
		t.Errorf("missing vars = %v, want all three", missing.Vars)
	}
	if buf.Len() != 0 {
		t.Errorf("stdout not empty after config failure: %q", buf.String())
	}
}

func TestRunExportsProducts(t *testing.T) {
	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)

	handles := []string{"oak-table", "linen-pillow", "brass-lamp"}
	mock.SetHandler(graphqlPath, testutil.AdminGraphQLHandler(handles))
	setShopifyEnv(t, mock.URL()+graphqlPath)

	var buf bytes.Buffer
	if err := run(&buf, 2, 2, ""); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(handles) {
		t.Fatalf("emitted %d lines, want %d", len(lines), len(handles))
	}
	for i, line := range lines {
		var product struct {
			Handle   string            `json:"handle"`
			Variants []json.RawMessage `json:"variants"`
		}
		if err := json.Unmarshal([]byte(line), &product); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i+1, err)
		}
		if product.Handle != handles[i] {
			t.Errorf("line %d handle = %q, want %q", i+1, product.Handle, handles[i])
		}
		if product.Variants == nil {
			t.Errorf("line %d: variants missing, want empty array", i+1)
		}
	}
}

func TestRunPropagatesAPIFailure(t *testing.T) {
	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)

	mock.SetResponse(graphqlPath, testutil.MockResponse{
		StatusCode: 500,
		Body:       `{"errors":"internal"}`,
	})
	setShopifyEnv(t, mock.URL()+graphqlPath)

	var buf bytes.Buffer
	err := run(&buf, 2, 2, "")
	if err == nil {
		t.Fatal("run() against a failing API should return an error")
	}
	if buf.Len() != 0 {
		t.Errorf("stdout not empty after failed run: %q", buf.String())
	}
}
