package ledger

import (
	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
)

// Claim credits one line item to one campaign.
type Claim struct {
	Key      Key                     `json:"key"`
	Campaign string                  `json:"campaign"`
	Window   enums.AttributionWindow `json:"window"`
}

// ClaimRegistry is the run-scoped set of claimed line items. It only grows,
// and a key is owned by exactly one campaign.
type ClaimRegistry struct {
	claims map[Key]Claim
	order  []Key
}

func NewClaimRegistry() *ClaimRegistry {
	return &ClaimRegistry{claims: make(map[Key]Claim)}
}

func (r *ClaimRegistry) IsClaimed(key Key) bool {
	_, ok := r.claims[key]
	return ok
}

func (r *ClaimRegistry) Owner(key Key) (string, bool) {
	c, ok := r.claims[key]
	return c.Campaign, ok
}

func (r *ClaimRegistry) Len() int {
	return len(r.order)
}

// Claims returns every committed claim in commit order.
func (r *ClaimRegistry) Claims() []Claim {
	out := make([]Claim, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.claims[key])
	}
	return out
}

// Begin opens a staging transaction for one campaign. Staged claims are
// invisible to other transactions until Commit.
func (r *ClaimRegistry) Begin(campaign string) *Tx {
	return &Tx{
		registry: r,
		campaign: campaign,
		staged:   make(map[Key]int),
	}
}

// Tx stages a single campaign's claims.
type Tx struct {
	registry *ClaimRegistry
	campaign string
	staged   map[Key]int
	claims   []Claim
	done     bool
}

// Claim stages key in window. It reports false when the key is already owned
// by a committed claim or staged earlier in this transaction.
func (tx *Tx) Claim(key Key, window enums.AttributionWindow) bool {
	if tx.done || tx.registry.IsClaimed(key) {
		return false
	}
	if _, ok := tx.staged[key]; ok {
		return false
	}
	tx.staged[key] = len(tx.claims)
	tx.claims = append(tx.claims, Claim{Key: key, Campaign: tx.campaign, Window: window})
	return true
}

// Has reports whether key is staged by this transaction.
func (tx *Tx) Has(key Key) bool {
	_, ok := tx.staged[key]
	return ok
}

// Claims returns the staged claims in claim order.
func (tx *Tx) Claims() []Claim {
	return append([]Claim(nil), tx.claims...)
}

// Commit publishes every staged claim atomically.
func (tx *Tx) Commit() error {
	if tx.done {
		return pkgerrors.New(pkgerrors.CodeConflict, "claim transaction already closed")
	}
	for _, c := range tx.claims {
		if owner, ok := tx.registry.Owner(c.Key); ok {
			tx.done = true
			return pkgerrors.New(pkgerrors.CodeConflict, "line item already claimed").
				WithDetails(map[string]any{"key": c.Key.String(), "owner": owner})
		}
	}
	for _, c := range tx.claims {
		tx.registry.claims[c.Key] = c
		tx.registry.order = append(tx.registry.order, c.Key)
	}
	tx.done = true
	return nil
}

// Rollback discards staged claims. It is safe to call after Commit.
func (tx *Tx) Rollback() {
	if tx.done {
		return
	}
	tx.staged = map[Key]int{}
	tx.claims = nil
	tx.done = true
}
