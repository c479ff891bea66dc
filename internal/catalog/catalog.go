// Package catalog holds the immutable storefront snapshot used for a run and
// the cascades that resolve campaign hints to products.
package catalog

import (
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID             int64            `json:"id"`
	Title          string           `json:"title"`
	Handle         string           `json:"handle"`
	URL            string           `json:"url"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	VariantCount   int              `json:"variant_count"`
	Available      bool             `json:"available"`
}

type Collection struct {
	ID     int64                `json:"id"`
	Title  string               `json:"title"`
	Handle string               `json:"handle"`
	URL    string               `json:"url"`
	Type   enums.CollectionType `json:"type"`
}

// Link is one product/collection membership. Products outside every
// collection still get a link with a nil CollectionID.
type Link struct {
	CollectionID     *int64               `json:"collection_id,omitempty"`
	CollectionTitle  string               `json:"collection_title,omitempty"`
	CollectionHandle string               `json:"collection_handle,omitempty"`
	CollectionType   enums.CollectionType `json:"collection_type,omitempty"`
	CollectionURL    string               `json:"collection_url,omitempty"`
	ProductID        int64                `json:"product_id"`
	ProductTitle     string               `json:"product_title"`
	ProductHandle    string               `json:"product_handle"`
	ProductURL       string               `json:"product_url"`
}

func (l Link) HasCollection() bool {
	return l.CollectionID != nil
}

// Catalog is read-only once built.
type Catalog struct {
	products    []Product
	collections []Collection
	links       []Link
	productByID map[int64]int
}

func New(products []Product, collections []Collection, links []Link) *Catalog {
	c := &Catalog{
		products:    append([]Product(nil), products...),
		collections: append([]Collection(nil), collections...),
		links:       append([]Link(nil), links...),
		productByID: make(map[int64]int, len(products)),
	}
	for i, p := range c.products {
		if _, ok := c.productByID[p.ID]; !ok {
			c.productByID[p.ID] = i
		}
	}
	return c
}

// BuildLinks expands collection membership into the covering link set.
// membership maps a collection ID to its product IDs in storefront order.
func BuildLinks(products []Product, collections []Collection, membership map[int64][]int64) []Link {
	productByID := make(map[int64]Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	linked := make(map[int64]bool, len(products))
	links := make([]Link, 0, len(products))
	for _, col := range collections {
		for _, pid := range membership[col.ID] {
			p, ok := productByID[pid]
			if !ok {
				continue
			}
			id := col.ID
			links = append(links, Link{
				CollectionID:     &id,
				CollectionTitle:  col.Title,
				CollectionHandle: col.Handle,
				CollectionType:   col.Type,
				CollectionURL:    col.URL,
				ProductID:        p.ID,
				ProductTitle:     p.Title,
				ProductHandle:    p.Handle,
				ProductURL:       p.URL,
			})
			linked[p.ID] = true
		}
	}
	for _, p := range products {
		if linked[p.ID] {
			continue
		}
		links = append(links, Link{
			ProductID:     p.ID,
			ProductTitle:  p.Title,
			ProductHandle: p.Handle,
			ProductURL:    p.URL,
		})
	}
	return links
}

func (c *Catalog) Products() []Product {
	return c.products
}

func (c *Catalog) Collections() []Collection {
	return c.collections
}

func (c *Catalog) Links() []Link {
	return c.links
}

func (c *Catalog) Product(id int64) (Product, bool) {
	idx, ok := c.productByID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[idx], true
}

// ProductURL falls back to the first link mentioning the product.
func (c *Catalog) ProductURL(id int64) string {
	if p, ok := c.Product(id); ok && p.URL != "" {
		return p.URL
	}
	for _, l := range c.links {
		if l.ProductID == id {
			return l.ProductURL
		}
	}
	return ""
}

// ProductTitle falls back to the first link mentioning the product.
func (c *Catalog) ProductTitle(id int64) string {
	if p, ok := c.Product(id); ok && p.Title != "" {
		return p.Title
	}
	for _, l := range c.links {
		if l.ProductID == id {
			return l.ProductTitle
		}
	}
	return ""
}
