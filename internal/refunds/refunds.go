// Package refunds derives refund and dispute statistics from the order feed,
// independently of campaign attribution.
package refunds

import (
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/campaign-attribution/internal/feeds"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	topReasonLimit   = 5
	noReasonProvided = "No reason provided"
	chargebackMethod = "chargeback"
)

var disputeTerms = []string{"dispute", "chargeback", "fraud", "unauthorized"}

// Refund is one refund sub-record with its transaction total.
type Refund struct {
	ID               int64           `json:"refund_id"`
	OrderID          int64           `json:"order_id"`
	OrderNumber      int64           `json:"order_number"`
	CreatedAt        time.Time       `json:"created_at"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Reason           string          `json:"reason"`
	ProcessingMethod string          `json:"processing_method,omitempty"`
	LineItemCount    int             `json:"refund_line_items_count"`
	IsDispute        bool            `json:"is_dispute"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// Analysis is the refund block of the run summary. Rates are percentages.
type Analysis struct {
	TotalRefunds          int           `json:"total_refunds"`
	TotalRefundValue      float64       `json:"total_refund_value"`
	RefundRate            float64       `json:"refund_rate_pct"`
	TotalDisputes         int           `json:"total_disputes"`
	DisputeValue          float64       `json:"dispute_value"`
	DisputeRate           float64       `json:"dispute_rate_pct"`
	RefundValuePercentage float64       `json:"refund_value_pct"`
	TopReasons            []ReasonCount `json:"top_refund_reasons"`
}

// Extract flattens every order's refunds in feed order.
func Extract(orders []feeds.Order) []Refund {
	var out []Refund
	for _, order := range orders {
		chargedBack := order.FinancialStatus == enums.FinancialStatusChargedBack
		for _, r := range order.Refunds {
			amount := decimal.Zero
			for _, tx := range r.Transactions {
				if tx.Kind == enums.TransactionKindRefund {
					amount = amount.Add(tx.Amount)
				}
			}
			createdAt := r.CreatedAt
			if createdAt.IsZero() {
				createdAt = r.ProcessedAt
			}
			out = append(out, Refund{
				ID:               r.ID,
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				CreatedAt:        createdAt,
				Amount:           amount,
				Currency:         order.Currency,
				Reason:           r.Note,
				ProcessingMethod: r.ProcessingMethod,
				LineItemCount:    r.LineItemCount,
				IsDispute:        chargedBack || isDispute(r.ProcessingMethod, r.Note),
			})
		}
	}
	return out
}

func isDispute(method, reason string) bool {
	if strings.EqualFold(strings.TrimSpace(method), chargebackMethod) {
		return true
	}
	reason = strings.ToLower(reason)
	for _, term := range disputeTerms {
		if strings.Contains(reason, term) {
			return true
		}
	}
	return false
}

// Analyze aggregates refunds against the full order set of the period.
func Analyze(refunds []Refund, orders []feeds.Order) Analysis {
	out := Analysis{TopReasons: []ReasonCount{}}

	orderValue := decimal.Zero
	for _, o := range orders {
		orderValue = orderValue.Add(o.TotalPrice)
	}

	refundValue := decimal.Zero
	disputeValue := decimal.Zero
	reasons := make(map[string]int)
	for _, r := range refunds {
		out.TotalRefunds++
		refundValue = refundValue.Add(r.Amount)
		if r.IsDispute {
			out.TotalDisputes++
			disputeValue = disputeValue.Add(r.Amount)
		}
		reason := r.Reason
		if reason == "" {
			reason = noReasonProvided
		}
		reasons[reason]++
	}

	out.TotalRefundValue = refundValue.InexactFloat64()
	out.DisputeValue = disputeValue.InexactFloat64()
	if n := len(orders); n > 0 {
		out.RefundRate = float64(out.TotalRefunds) / float64(n) * 100
		out.DisputeRate = float64(out.TotalDisputes) / float64(n) * 100
	}
	if orderValue.IsPositive() {
		out.RefundValuePercentage = refundValue.Div(orderValue).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	out.TopReasons = topReasons(reasons, topReasonLimit)
	return out
}

// topReasons orders by count descending, then reason ascending.
func topReasons(counts map[string]int, limit int) []ReasonCount {
	out := make([]ReasonCount, 0, len(counts))
	for reason, n := range counts {
		out = append(out, ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
