package feeds

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/angelmondragon/campaign-attribution/internal/catalog"
	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	"github.com/angelmondragon/campaign-attribution/pkg/validators"
	"github.com/shopspring/decimal"
)

type rawCatalog struct {
	CustomCollections []json.RawMessage `json:"custom_collections"`
	SmartCollections  []json.RawMessage `json:"smart_collections"`
	Products          []json.RawMessage `json:"products"`
	Collects          []rawCollect      `json:"collects"`
}

type rawCollection struct {
	ID     int64  `json:"id" validate:"required"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

type rawProduct struct {
	ID       int64        `json:"id" validate:"required"`
	Title    string       `json:"title"`
	Handle   string       `json:"handle"`
	Variants []rawVariant `json:"variants"`
}

type rawVariant struct {
	Price             flexString `json:"price"`
	CompareAtPrice    flexString `json:"compare_at_price"`
	InventoryQuantity int64      `json:"inventory_quantity"`
}

// rawCollect accepts both the storefront's one-pair collects and grouped
// {collection_id, product_ids} entries.
type rawCollect struct {
	CollectionID int64   `json:"collection_id"`
	ProductID    int64   `json:"product_id"`
	ProductIDs   []int64 `json:"product_ids"`
}

// DecodeCatalog reads a catalog snapshot. storeURL prefixes product and
// collection handles; an empty value yields relative paths.
func DecodeCatalog(r io.Reader, storeURL string) (*catalog.Catalog, error) {
	var rc rawCatalog
	if err := json.NewDecoder(r).Decode(&rc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode catalog feed")
	}
	base := strings.TrimRight(strings.TrimSpace(storeURL), "/")

	problems := &recordErrors{feed: "catalog"}
	var collections []catalog.Collection
	seenCollections := map[int64]bool{}
	addCollections := func(list []json.RawMessage, kind enums.CollectionType) {
		for i, raw := range list {
			var col rawCollection
			if err := json.Unmarshal(raw, &col); err != nil {
				problems.add(i, fmt.Errorf("%s collection: %w", kind, err))
				continue
			}
			if err := validators.Struct(col); err != nil {
				problems.add(i, fmt.Errorf("%s collection: %w", kind, err))
				continue
			}
			if seenCollections[col.ID] {
				continue
			}
			seenCollections[col.ID] = true
			collections = append(collections, catalog.Collection{
				ID:     col.ID,
				Title:  col.Title,
				Handle: col.Handle,
				URL:    fmt.Sprintf("%s/collections/%s", base, col.Handle),
				Type:   kind,
			})
		}
	}
	addCollections(rc.CustomCollections, enums.CollectionTypeCustom)
	addCollections(rc.SmartCollections, enums.CollectionTypeSmart)

	var products []catalog.Product
	seenProducts := map[int64]bool{}
	for i, raw := range rc.Products {
		var rp rawProduct
		if err := json.Unmarshal(raw, &rp); err != nil {
			problems.add(i, fmt.Errorf("product: %w", err))
			continue
		}
		if err := validators.Struct(rp); err != nil {
			problems.add(i, fmt.Errorf("product: %w", err))
			continue
		}
		if seenProducts[rp.ID] {
			continue
		}
		seenProducts[rp.ID] = true
		products = append(products, rp.toProduct(base))
	}

	membership := map[int64][]int64{}
	for _, c := range rc.Collects {
		if c.ProductID != 0 {
			membership[c.CollectionID] = append(membership[c.CollectionID], c.ProductID)
		}
		membership[c.CollectionID] = append(membership[c.CollectionID], c.ProductIDs...)
	}

	links := catalog.BuildLinks(products, collections, membership)
	return catalog.New(products, collections, links), problems.err()
}

// toProduct prices the product at its cheapest variant; it is available when
// any variant has stock.
func (rp rawProduct) toProduct(base string) catalog.Product {
	p := catalog.Product{
		ID:           rp.ID,
		Title:        rp.Title,
		Handle:       rp.Handle,
		URL:          fmt.Sprintf("%s/products/%s", base, rp.Handle),
		VariantCount: len(rp.Variants),
	}
	var minPrice, minCompare *decimal.Decimal
	for _, v := range rp.Variants {
		if v.Price != "" {
			if price, err := v.Price.Decimal(); err == nil && (minPrice == nil || price.LessThan(*minPrice)) {
				minPrice = &price
			}
		}
		if v.CompareAtPrice != "" {
			if cmp, err := v.CompareAtPrice.Decimal(); err == nil && (minCompare == nil || cmp.LessThan(*minCompare)) {
				minCompare = &cmp
			}
		}
		if v.InventoryQuantity > 0 {
			p.Available = true
		}
	}
	if minPrice != nil {
		p.Price = *minPrice
	}
	p.CompareAtPrice = minCompare
	return p
}
