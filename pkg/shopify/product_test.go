package shopify

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/wiebekaai/ecommerce-skills/pkg/pipeline"
)

// Writing a record to one output line and parsing that line back must
// reproduce the in-memory record exactly.
func TestExportedProductRoundTrip(t *testing.T) {
	record := ExportedProduct{
		Product: Product{
			ID:              "gid://shopify/Product/42",
			Handle:          "walnut-desk",
			Title:           "Walnut Desk",
			DescriptionHTML: "<p>Solid walnut, <strong>oiled</strong> finish &amp; steel legs.</p>",
			Vendor:          "Atelier Noord",
			ProductType:     "Desk",
			Tags:            []string{"furniture", "desk", "walnut"},
			Status:          "ACTIVE",
			CreatedAt:       "2024-03-01T09:30:00Z",
			UpdatedAt:       "2024-06-12T17:05:11Z",
		},
		Variants: []Variant{
			{
				ID:                "gid://shopify/ProductVariant/421",
				Title:             "160cm",
				SKU:               "DESK-W-160",
				Price:             "1290.00",
				CompareAtPrice:    strPtr("1390.00"),
				InventoryQuantity: 7,
				Metafields: []Metafield{
					{Namespace: "specs", Key: "length_cm", Value: "160", Type: "number_integer"},
				},
			},
			{
				ID:         "gid://shopify/ProductVariant/422",
				Title:      "180cm",
				SKU:        "DESK-W-180",
				Price:      "1450.00",
				Metafields: []Metafield{},
			},
		},
		Media: []Media{
			{ID: "gid://shopify/MediaImage/77", MediaContentType: "IMAGE", Alt: "Desk front", URL: "https://cdn.example/desk.jpg"},
		},
		Metafields: []Metafield{
			{Namespace: "care", Key: "instructions", Value: "Oil twice a year", Type: "multi_line_text_field"},
		},
	}

	var buf bytes.Buffer
	if err := pipeline.NewEmitter(&buf).Emit(record); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	line := strings.TrimRight(buf.String(), "\n")
	if strings.Contains(line, "\n") {
		t.Fatalf("record serialized to more than one line: %q", line)
	}

	var parsed ExportedProduct
	if err := json.Unmarshal([]byte(line), &parsed); err != nil {
		t.Fatalf("parse emitted line: %v", err)
	}

	if !reflect.DeepEqual(parsed, record) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", parsed, record)
	}
}

func TestExportedProductEmptyCollectionsMarshalAsArrays(t *testing.T) {
	record := ExportedProduct{
		Product:    Product{ID: "gid://shopify/Product/1", Handle: "bare", Title: "Bare"},
		Variants:   []Variant{},
		Media:      []Media{},
		Metafields: []Metafield{},
	}

	out, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{`"variants":[]`, `"media":[]`, `"metafields":[]`} {
		if !strings.Contains(string(out), want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	if strings.Contains(string(out), "null") {
		t.Errorf("output contains null collections: %s", out)
	}
}

func TestMediaNodeFlatten(t *testing.T) {
	raw := []byte(`{
		"id": "gid://shopify/MediaImage/5",
		"mediaContentType": "IMAGE",
		"alt": "Side view",
		"preview": {"image": {"url": "https://cdn.example/side.jpg"}}
	}`)

	var node mediaNode
	if err := json.Unmarshal(raw, &node); err != nil {
		t.Fatal(err)
	}

	got := node.flatten()
	want := Media{ID: "gid://shopify/MediaImage/5", MediaContentType: "IMAGE", Alt: "Side view", URL: "https://cdn.example/side.jpg"}
	if got != want {
		t.Errorf("flatten() = %+v, want %+v", got, want)
	}
}
