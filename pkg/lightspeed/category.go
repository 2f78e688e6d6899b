package lightspeed

// Category is one category resource, trimmed to the fields the export
// keeps.
type Category struct {
	ID          int64  `json:"id"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	IsVisible   bool   `json:"isVisible"`
	Depth       int    `json:"depth"`
	SortOrder   int    `json:"sortOrder"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// CategoryProduct links one product into a category.
type CategoryProduct struct {
	ID        int64 `json:"id"`
	SortOrder int   `json:"sortOrder"`
	ProductID int64 `json:"productId"`
}

// categoryProductNode is the wire shape of one link; the product
// reference arrives as a nested resource envelope.
type categoryProductNode struct {
	ID        int64 `json:"id"`
	SortOrder int   `json:"sortOrder"`
	Product   struct {
		Resource struct {
			ID int64 `json:"id"`
		} `json:"resource"`
	} `json:"product"`
}

func (n categoryProductNode) flatten() CategoryProduct {
	return CategoryProduct{
		ID:        n.ID,
		SortOrder: n.SortOrder,
		ProductID: n.Product.Resource.ID,
	}
}

// ExportedCategory is one output line of the category export: the
// category plus its product links. Products is always present, empty
// when the category has none or the export skips them.
type ExportedCategory struct {
	Category
	Products []CategoryProduct `json:"products"`
}
