package shopify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Resolver fetches a product's paginated sub-collections and merges
// them into one enriched record. Sub-collections are queried by the
// product's id rather than inline with the products page, keeping each
// request inside the per-query cost limit.
type Resolver struct {
	client *Client
	logger zerolog.Logger
}

// NewResolver creates a resolver on top of an Admin API client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		logger: log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve fetches variants, media and metafields for one product
// concurrently and returns the merged record. A partial record is never
// returned: the first sub-fetch error fails the product, after the
// remaining sub-fetches have been observed.
func (r *Resolver) Resolve(ctx context.Context, product Product) (*ExportedProduct, error) {
	record := &ExportedProduct{
		Product:    product,
		Variants:   []Variant{},
		Media:      []Media{},
		Metafields: []Metafield{},
	}

	var g errgroup.Group

	g.Go(func() error {
		variants, err := r.variants(ctx, product.ID)
		if err != nil {
			return err
		}
		record.Variants = variants
		return nil
	})

	g.Go(func() error {
		media, err := r.media(ctx, product.ID)
		if err != nil {
			return err
		}
		record.Media = media
		return nil
	})

	g.Go(func() error {
		metafields, err := CollectPages(ctx, r.client, Request{
			Operation: "ProductMetafields",
			Query:     productMetafieldsQuery,
			Variables: map[string]any{"id": product.ID},
		}, unwrapProductMetafields)
		if err != nil {
			return err
		}
		record.Metafields = metafields
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", product.Handle, err)
	}

	r.logger.Debug().
		Str("handle", product.Handle).
		Int("variants", len(record.Variants)).
		Int("media", len(record.Media)).
		Int("metafields", len(record.Metafields)).
		Msg("Record resolved")

	return record, nil
}

// variants drains the product's variant connection, then fetches each
// variant's metafields concurrently.
func (r *Resolver) variants(ctx context.Context, productID string) ([]Variant, error) {
	variants, err := CollectPages(ctx, r.client, Request{
		Operation: "ProductVariants",
		Query:     productVariantsQuery,
		Variables: map[string]any{"id": productID},
	}, unwrapVariants)
	if err != nil {
		return nil, err
	}

	var g errgroup.Group
	for i := range variants {
		i := i
		g.Go(func() error {
			metafields, err := CollectPages(ctx, r.client, Request{
				Operation: "VariantMetafields",
				Query:     variantMetafieldsQuery,
				Variables: map[string]any{"id": variants[i].ID},
			}, unwrapVariantMetafields)
			if err != nil {
				return err
			}
			variants[i].Metafields = metafields
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return variants, nil
}

func (r *Resolver) media(ctx context.Context, productID string) ([]Media, error) {
	nodes, err := CollectPages(ctx, r.client, Request{
		Operation: "ProductMedia",
		Query:     productMediaQuery,
		Variables: map[string]any{"id": productID},
	}, unwrapMedia)
	if err != nil {
		return nil, err
	}

	media := make([]Media, 0, len(nodes))
	for _, n := range nodes {
		media = append(media, n.flatten())
	}
	return media, nil
}

func unwrapProducts(data json.RawMessage) (Connection[Product], error) {
	var env struct {
		Products Connection[Product] `json:"products"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Connection[Product]{}, fmt.Errorf("decode products connection: %w", err)
	}
	return env.Products, nil
}

func unwrapVariants(data json.RawMessage) (Connection[Variant], error) {
	var env struct {
		Product *struct {
			Variants Connection[Variant] `json:"variants"`
		} `json:"product"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Connection[Variant]{}, fmt.Errorf("decode variants connection: %w", err)
	}
	if env.Product == nil {
		return Connection[Variant]{}, fmt.Errorf("product missing from variants response")
	}
	return env.Product.Variants, nil
}

func unwrapMedia(data json.RawMessage) (Connection[mediaNode], error) {
	var env struct {
		Product *struct {
			Media Connection[mediaNode] `json:"media"`
		} `json:"product"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Connection[mediaNode]{}, fmt.Errorf("decode media connection: %w", err)
	}
	if env.Product == nil {
		return Connection[mediaNode]{}, fmt.Errorf("product missing from media response")
	}
	return env.Product.Media, nil
}

func unwrapProductMetafields(data json.RawMessage) (Connection[Metafield], error) {
	var env struct {
		Product *struct {
			Metafields Connection[Metafield] `json:"metafields"`
		} `json:"product"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Connection[Metafield]{}, fmt.Errorf("decode metafields connection: %w", err)
	}
	if env.Product == nil {
		return Connection[Metafield]{}, fmt.Errorf("product missing from metafields response")
	}
	return env.Product.Metafields, nil
}

func unwrapVariantMetafields(data json.RawMessage) (Connection[Metafield], error) {
	var env struct {
		ProductVariant *struct {
			Metafields Connection[Metafield] `json:"metafields"`
		} `json:"productVariant"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Connection[Metafield]{}, fmt.Errorf("decode variant metafields connection: %w", err)
	}
	if env.ProductVariant == nil {
		return Connection[Metafield]{}, fmt.Errorf("variant missing from metafields response")
	}
	return env.ProductVariant.Metafields, nil
}
