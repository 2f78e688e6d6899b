package shopify

// Product is the top-level catalog record as returned by the products
// connection. Timestamps stay in the API's ISO 8601 form; nothing here
// interprets them.
type Product struct {
	ID              string   `json:"id"`
	Handle          string   `json:"handle"`
	Title           string   `json:"title"`
	DescriptionHTML string   `json:"descriptionHtml"`
	Vendor          string   `json:"vendor,omitempty"`
	ProductType     string   `json:"productType,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Status          string   `json:"status,omitempty"`
	CreatedAt       string   `json:"createdAt,omitempty"`
	UpdatedAt       string   `json:"updatedAt,omitempty"`
}

// Variant is one sellable variant of a product, enriched with its own
// metafields.
type Variant struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	SKU               string      `json:"sku,omitempty"`
	Price             string      `json:"price,omitempty"`
	CompareAtPrice    *string     `json:"compareAtPrice,omitempty"`
	InventoryQuantity int         `json:"inventoryQuantity"`
	Metafields        []Metafield `json:"metafields"`
}

// Media is one media attachment, flattened to its preview image URL.
type Media struct {
	ID               string `json:"id"`
	MediaContentType string `json:"mediaContentType,omitempty"`
	Alt              string `json:"alt,omitempty"`
	URL              string `json:"url,omitempty"`
}

// mediaNode is the nested wire shape media arrives in.
type mediaNode struct {
	ID               string `json:"id"`
	MediaContentType string `json:"mediaContentType"`
	Alt              string `json:"alt"`
	Preview          struct {
		Image struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"preview"`
}

func (m mediaNode) flatten() Media {
	return Media{
		ID:               m.ID,
		MediaContentType: m.MediaContentType,
		Alt:              m.Alt,
		URL:              m.Preview.Image.URL,
	}
}

// Metafield is one namespaced key/value attached to a product or
// variant. Values are opaque strings; Type names the remote type.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type,omitempty"`
}

// ExportedProduct is the fully resolved record written to the output:
// the base product plus every sub-collection. Sub-collections are
// always present in the output, empty rather than null, so consumers
// can rely on the keys existing.
type ExportedProduct struct {
	Product
	Variants   []Variant   `json:"variants"`
	Media      []Media     `json:"media"`
	Metafields []Metafield `json:"metafields"`
}
