package ledger

import (
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	"github.com/shopspring/decimal"
)

func item(order, line, product int64, at time.Time) LineItem {
	return LineItem{
		OrderID:    order,
		LineItemID: line,
		ProductID:  product,
		Title:      "Blue Hoodie",
		Price:      decimal.NewFromInt(50),
		Quantity:   1,
		CreatedAt:  at,
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.February, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsDuplicateKeys(t *testing.T) {
	_, err := New([]LineItem{item(1, 1, 10, day(1)), item(1, 1, 11, day(2))})
	if err == nil {
		t.Fatalf("expected duplicate key error")
	}
	if pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %s", pkgerrors.CodeOf(err))
	}
}

func TestWindowBoundaries(t *testing.T) {
	l, err := New([]LineItem{
		item(1, 1, 10, day(15)),
		item(2, 1, 10, day(22)),
		item(3, 1, 10, day(23)),
		item(4, 1, 11, day(16)),
		item(5, 1, 0, day(16)),
	})
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}

	inclusive := l.Window(10, day(15), day(22), true)
	if len(inclusive) != 2 {
		t.Fatalf("expected both boundary items, got %d", len(inclusive))
	}
	exclusive := l.Window(10, day(22), day(23), false)
	if len(exclusive) != 1 || exclusive[0].OrderID != 3 {
		t.Fatalf("expected only order 3 after an exclusive start, got %+v", exclusive)
	}
	if got := l.ForProduct(0); len(got) != 0 {
		t.Fatalf("items without product must not be indexed, got %d", len(got))
	}
	if got := l.CountBetween(day(15), day(16)); got != 3 {
		t.Fatalf("expected 3 items in range, got %d", got)
	}
	if ids := l.ProductIDs(); len(ids) != 2 || ids[0] != 10 || ids[1] != 11 {
		t.Fatalf("unexpected product ids %v", ids)
	}
	if _, ok := l.Get(Key{OrderID: 4, LineItemID: 1}); !ok {
		t.Fatalf("expected lookup by key")
	}
}

func TestClaimTxCommitAndIsolation(t *testing.T) {
	reg := NewClaimRegistry()
	key := Key{OrderID: 1, LineItemID: 1}

	first := reg.Begin("campaign-a")
	if !first.Claim(key, enums.WindowAttribution) {
		t.Fatalf("expected first claim to succeed")
	}
	if first.Claim(key, enums.WindowExtended) {
		t.Fatalf("a transaction must not stage the same key twice")
	}
	if reg.IsClaimed(key) {
		t.Fatalf("staged claims must not be visible before commit")
	}
	if err := first.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	second := reg.Begin("campaign-b")
	if second.Claim(key, enums.WindowAttribution) {
		t.Fatalf("committed key must not be claimable again")
	}
	if owner, _ := reg.Owner(key); owner != "campaign-a" {
		t.Fatalf("expected campaign-a to own the key, got %q", owner)
	}
	if err := first.Commit(); err == nil {
		t.Fatalf("expected double commit to fail")
	}
}

func TestClaimTxRollbackDiscards(t *testing.T) {
	reg := NewClaimRegistry()
	tx := reg.Begin("campaign-a")
	tx.Claim(Key{OrderID: 1, LineItemID: 1}, enums.WindowAttribution)
	tx.Rollback()

	if reg.Len() != 0 {
		t.Fatalf("rollback must leave the registry untouched")
	}
	if tx.Claim(Key{OrderID: 2, LineItemID: 1}, enums.WindowAttribution) {
		t.Fatalf("closed transaction must refuse claims")
	}
	tx.Rollback()
}

func TestClaimTxConflictingCommit(t *testing.T) {
	reg := NewClaimRegistry()
	key := Key{OrderID: 9, LineItemID: 3}
	a := reg.Begin("a")
	b := reg.Begin("b")
	a.Claim(key, enums.WindowAttribution)
	b.Claim(key, enums.WindowAttribution)

	if err := a.Commit(); err != nil {
		t.Fatalf("commit a: %v", err)
	}
	if err := b.Commit(); pkgerrors.CodeOf(err) != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on second commit, got %v", err)
	}
	claims := reg.Claims()
	if len(claims) != 1 || claims[0].Campaign != "a" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}
