// Package ledger holds the immutable order line-items of a run and the
// registry that lets each line item be credited to at most one campaign.
package ledger

import (
	"fmt"
	"sort"
	"time"

	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/shopspring/decimal"
)

// Key uniquely identifies a line item across all orders.
type Key struct {
	OrderID    int64 `json:"order_id"`
	LineItemID int64 `json:"line_item_id"`
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d", k.OrderID, k.LineItemID)
}

// LineItem is a sold unit line. ProductID is zero for custom items.
type LineItem struct {
	OrderID       int64           `json:"order_id"`
	OrderNumber   int64           `json:"order_number"`
	LineItemID    int64           `json:"line_item_id"`
	ProductID     int64           `json:"product_id"`
	VariantID     int64           `json:"variant_id"`
	SKU           string          `json:"sku"`
	Title         string          `json:"title"`
	VariantTitle  string          `json:"variant_title"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (li LineItem) Key() Key {
	return Key{OrderID: li.OrderID, LineItemID: li.LineItemID}
}

// Ledger is the ordered, read-only set of line items for one analysis run.
type Ledger struct {
	items     []LineItem
	index     map[Key]int
	byProduct map[int64][]int
}

// New indexes items in the given order. Duplicate keys are rejected.
func New(items []LineItem) (*Ledger, error) {
	l := &Ledger{
		items:     make([]LineItem, 0, len(items)),
		index:     make(map[Key]int, len(items)),
		byProduct: make(map[int64][]int),
	}
	for _, item := range items {
		key := item.Key()
		if _, dup := l.index[key]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "duplicate line item").
				WithDetails(map[string]any{"key": key.String()})
		}
		l.index[key] = len(l.items)
		if item.ProductID != 0 {
			l.byProduct[item.ProductID] = append(l.byProduct[item.ProductID], len(l.items))
		}
		l.items = append(l.items, item)
	}
	return l, nil
}

func (l *Ledger) Len() int {
	return len(l.items)
}

func (l *Ledger) Items() []LineItem {
	return l.items
}

func (l *Ledger) Get(key Key) (LineItem, bool) {
	idx, ok := l.index[key]
	if !ok {
		return LineItem{}, false
	}
	return l.items[idx], true
}

// ForProduct returns the product's line items in ledger order.
func (l *Ledger) ForProduct(productID int64) []LineItem {
	idxs := l.byProduct[productID]
	out := make([]LineItem, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, l.items[idx])
	}
	return out
}

// Window returns the product's line items with from < created_at <= to, or
// from <= created_at <= to when inclusiveStart is set.
func (l *Ledger) Window(productID int64, from, to time.Time, inclusiveStart bool) []LineItem {
	var out []LineItem
	for _, idx := range l.byProduct[productID] {
		item := l.items[idx]
		if item.CreatedAt.After(to) {
			continue
		}
		if item.CreatedAt.Before(from) || (!inclusiveStart && item.CreatedAt.Equal(from)) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// CountBetween counts line items created within [from, to].
func (l *Ledger) CountBetween(from, to time.Time) int {
	n := 0
	for _, item := range l.items {
		if !item.CreatedAt.Before(from) && !item.CreatedAt.After(to) {
			n++
		}
	}
	return n
}

// ProductIDs lists every product with sales, sorted ascending.
func (l *Ledger) ProductIDs() []int64 {
	ids := make([]int64, 0, len(l.byProduct))
	for id := range l.byProduct {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
