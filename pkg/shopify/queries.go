package shopify

// DefaultPageSize is the products-per-page default for the export.
// Sub-connections use fixed sizes inlined in their queries; each stays
// comfortably inside the per-query cost limit.
const DefaultPageSize = 50

const productsQuery = `query Products($first: Int!, $cursor: String) {
  products(first: $first, after: $cursor) {
    edges {
      node {
        id
        handle
        title
        descriptionHtml
        vendor
        productType
        tags
        status
        createdAt
        updatedAt
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

const productVariantsQuery = `query ProductVariants($id: ID!, $cursor: String) {
  product(id: $id) {
    variants(first: 100, after: $cursor) {
      edges {
        node {
          id
          title
          sku
          price
          compareAtPrice
          inventoryQuantity
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`

const productMediaQuery = `query ProductMedia($id: ID!, $cursor: String) {
  product(id: $id) {
    media(first: 50, after: $cursor) {
      edges {
        node {
          id
          mediaContentType
          alt
          preview {
            image {
              url
            }
          }
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`

const productMetafieldsQuery = `query ProductMetafields($id: ID!, $cursor: String) {
  product(id: $id) {
    metafields(first: 100, after: $cursor) {
      edges {
        node {
          namespace
          key
          value
          type
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`

const variantMetafieldsQuery = `query VariantMetafields($id: ID!, $cursor: String) {
  productVariant(id: $id) {
    metafields(first: 100, after: $cursor) {
      edges {
        node {
          namespace
          key
          value
          type
        }
      }
      pageInfo {
        hasNextPage
        endCursor
      }
    }
  }
}`
