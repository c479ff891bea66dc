package feeds

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/ledger"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	"github.com/angelmondragon/campaign-attribution/pkg/validators"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              int64                 `json:"id"`
	OrderNumber     int64                 `json:"order_number"`
	CreatedAt       time.Time             `json:"created_at"`
	CustomerID      int64                 `json:"customer_id,omitempty"`
	Email           string                `json:"email,omitempty"`
	TotalPrice      decimal.Decimal       `json:"total_price"`
	Currency        string                `json:"currency"`
	FinancialStatus enums.FinancialStatus `json:"financial_status"`
	LineItems       []ledger.LineItem     `json:"line_items"`
	Refunds         []Refund              `json:"refunds,omitempty"`
}

// Refund is the storefront refund sub-record of an order.
type Refund struct {
	ID               int64         `json:"id"`
	CreatedAt        time.Time     `json:"created_at"`
	ProcessedAt      time.Time     `json:"processed_at"`
	Note             string        `json:"note"`
	ProcessingMethod string        `json:"processing_method"`
	LineItemCount    int           `json:"refund_line_items_count"`
	Transactions     []Transaction `json:"transactions"`
}

type Transaction struct {
	Kind   enums.TransactionKind `json:"kind"`
	Amount decimal.Decimal       `json:"amount"`
}

type rawOrder struct {
	ID              int64         `json:"id" validate:"required"`
	OrderNumber     int64         `json:"order_number"`
	CreatedAt       string        `json:"created_at" validate:"required"`
	Email           string        `json:"email"`
	TotalPrice      flexString    `json:"total_price"`
	Currency        string        `json:"currency"`
	FinancialStatus string        `json:"financial_status"`
	Customer        *rawCustomer  `json:"customer"`
	LineItems       []rawLineItem `json:"line_items" validate:"dive"`
	Refunds         []rawRefund   `json:"refunds" validate:"dive"`
}

type rawCustomer struct {
	ID int64 `json:"id"`
}

type rawLineItem struct {
	ID            int64      `json:"id" validate:"required"`
	ProductID     *int64     `json:"product_id"`
	VariantID     *int64     `json:"variant_id"`
	SKU           string     `json:"sku"`
	Title         string     `json:"title"`
	VariantTitle  string     `json:"variant_title"`
	Price         flexString `json:"price"`
	Quantity      int        `json:"quantity" validate:"gte=0"`
	TotalDiscount flexString `json:"total_discount"`
}

type rawRefund struct {
	ID               int64             `json:"id" validate:"required"`
	CreatedAt        string            `json:"created_at" validate:"required"`
	ProcessedAt      string            `json:"processed_at"`
	Note             *string           `json:"note"`
	ProcessingMethod string            `json:"processing_method"`
	RefundLineItems  []json.RawMessage `json:"refund_line_items"`
	Transactions     []rawTransaction  `json:"transactions"`
}

type rawTransaction struct {
	Kind   string     `json:"kind"`
	Amount flexString `json:"amount"`
}

// DecodeOrders reads an orders feed. Invalid orders are skipped and reported
// through the returned error together with every valid order.
func DecodeOrders(r io.Reader) ([]Order, error) {
	list, err := decodeList(r, "orders")
	if err != nil {
		return nil, err
	}

	problems := &recordErrors{feed: "orders"}
	orders := make([]Order, 0, len(list))
	for i, raw := range list {
		var ro rawOrder
		if err := json.Unmarshal(raw, &ro); err != nil {
			problems.add(i, err)
			continue
		}
		order, err := ro.toOrder()
		if err != nil {
			problems.add(i, err)
			continue
		}
		orders = append(orders, order)
	}
	return orders, problems.err()
}

func (ro rawOrder) toOrder() (Order, error) {
	if err := validators.Struct(ro); err != nil {
		return Order{}, err
	}
	created, err := parseTimestamp(ro.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	total, err := ro.TotalPrice.Decimal()
	if err != nil {
		return Order{}, fmt.Errorf("total_price: %w", err)
	}

	order := Order{
		ID:              ro.ID,
		OrderNumber:     ro.OrderNumber,
		CreatedAt:       created,
		Email:           ro.Email,
		TotalPrice:      total,
		Currency:        strings.ToUpper(strings.TrimSpace(ro.Currency)),
		FinancialStatus: enums.FinancialStatus(strings.ToLower(strings.TrimSpace(ro.FinancialStatus))),
	}
	if ro.Customer != nil {
		order.CustomerID = ro.Customer.ID
	}

	for _, rli := range ro.LineItems {
		price, err := rli.Price.Decimal()
		if err != nil {
			return Order{}, fmt.Errorf("line item %d price: %w", rli.ID, err)
		}
		item := ledger.LineItem{
			OrderID:       ro.ID,
			OrderNumber:   ro.OrderNumber,
			LineItemID:    rli.ID,
			SKU:           rli.SKU,
			Title:         rli.Title,
			VariantTitle:  rli.VariantTitle,
			Price:         price,
			Quantity:      rli.Quantity,
			TotalDiscount: rli.TotalDiscount.DecimalOrZero(),
			CreatedAt:     created,
		}
		if rli.ProductID != nil {
			item.ProductID = *rli.ProductID
		}
		if rli.VariantID != nil {
			item.VariantID = *rli.VariantID
		}
		order.LineItems = append(order.LineItems, item)
	}

	for _, rr := range ro.Refunds {
		refund, err := rr.toRefund()
		if err != nil {
			return Order{}, fmt.Errorf("refund %d: %w", rr.ID, err)
		}
		order.Refunds = append(order.Refunds, refund)
	}
	return order, nil
}

func (rr rawRefund) toRefund() (Refund, error) {
	created, err := parseTimestamp(rr.CreatedAt)
	if err != nil {
		return Refund{}, err
	}
	processed := created
	if strings.TrimSpace(rr.ProcessedAt) != "" {
		if processed, err = parseTimestamp(rr.ProcessedAt); err != nil {
			return Refund{}, err
		}
	}

	refund := Refund{
		ID:               rr.ID,
		CreatedAt:        created,
		ProcessedAt:      processed,
		ProcessingMethod: strings.ToLower(strings.TrimSpace(rr.ProcessingMethod)),
		LineItemCount:    len(rr.RefundLineItems),
	}
	if rr.Note != nil {
		refund.Note = *rr.Note
	}
	for _, tx := range rr.Transactions {
		amount, err := tx.Amount.Decimal()
		if err != nil {
			return Refund{}, fmt.Errorf("transaction amount: %w", err)
		}
		refund.Transactions = append(refund.Transactions, Transaction{
			Kind:   enums.TransactionKind(strings.ToLower(strings.TrimSpace(tx.Kind))),
			Amount: amount,
		})
	}
	return refund, nil
}

// LineItems flattens the orders' line items in feed order.
func LineItems(orders []Order) []ledger.LineItem {
	var items []ledger.LineItem
	for _, o := range orders {
		items = append(items, o.LineItems...)
	}
	return items
}
