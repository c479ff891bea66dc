package catalog

import (
	"regexp"
	"strings"

	"github.com/angelmondragon/campaign-attribution/internal/ledger"
)

// MatchSource names the cascade step that resolved a product hint.
type MatchSource string

const (
	SourceSoldTitle       MatchSource = "sold_title"
	SourceCatalogTitle    MatchSource = "catalog_title"
	SourceCatalogContains MatchSource = "catalog_contains"
)

// CollectionMatch lists the links of every collection that matched a code.
// Title and URL come from the first matching link.
type CollectionMatch struct {
	Title      string
	URL        string
	Links      []Link
	ProductIDs []int64
}

func (m CollectionMatch) Found() bool {
	return len(m.Links) > 0
}

type ProductMatch struct {
	ProductID int64
	Title     string
	URL       string
	Source    MatchSource
}

type collectionStrategy func(links []Link, code, digits string) []Link

type productStrategy func(c *Catalog, hint string, sold []ledger.LineItem) (ProductMatch, bool)

// Matcher resolves campaign hints against a catalog snapshot. Strategies are
// tried in order and the first non-empty result wins.
type Matcher struct {
	catalog    *Catalog
	collection []collectionStrategy
	product    []productStrategy
}

func NewMatcher(c *Catalog) *Matcher {
	return &Matcher{
		catalog: c,
		collection: []collectionStrategy{
			titleContainsCode,
			titleMatchesLooseCode,
			titleContainsDigits,
		},
		product: []productStrategy{
			soldTitleEquals,
			catalogTitleEquals,
			catalogTitleContains,
		},
	}
}

// MatchCollection resolves a "C<digits>" code to the products of every matching collection.
func (m *Matcher) MatchCollection(code string) CollectionMatch {
	code = strings.TrimSpace(code)
	if code == "" {
		return CollectionMatch{}
	}
	digits := strings.TrimPrefix(strings.ToUpper(code), "C")

	var collectionLinks []Link
	for _, l := range m.catalog.links {
		if l.HasCollection() {
			collectionLinks = append(collectionLinks, l)
		}
	}

	for _, strategy := range m.collection {
		matched := strategy(collectionLinks, code, digits)
		if len(matched) == 0 {
			continue
		}
		out := CollectionMatch{
			Title: matched[0].CollectionTitle,
			URL:   matched[0].CollectionURL,
			Links: matched,
		}
		seen := make(map[int64]bool, len(matched))
		for _, l := range matched {
			if seen[l.ProductID] {
				continue
			}
			seen[l.ProductID] = true
			out.ProductIDs = append(out.ProductIDs, l.ProductID)
		}
		return out
	}
	return CollectionMatch{}
}

// MatchProduct resolves a single-product hint. Sold titles are preferred over
// catalog titles so the match points at a product that actually has sales.
func (m *Matcher) MatchProduct(hint string, sold []ledger.LineItem) (ProductMatch, bool) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return ProductMatch{}, false
	}
	for _, strategy := range m.product {
		if match, ok := strategy(m.catalog, hint, sold); ok {
			return match, true
		}
	}
	return ProductMatch{}, false
}

func titleContainsCode(links []Link, code, _ string) []Link {
	needle := strings.ToLower(code)
	return filterLinks(links, func(l Link) bool {
		return strings.Contains(strings.ToLower(l.CollectionTitle), needle)
	})
}

func titleMatchesLooseCode(links []Link, _, digits string) []Link {
	if digits == "" {
		return nil
	}
	re, err := regexp.Compile(`(?i)C\s*` + regexp.QuoteMeta(digits) + `\b`)
	if err != nil {
		return nil
	}
	return filterLinks(links, func(l Link) bool {
		return re.MatchString(l.CollectionTitle)
	})
}

func titleContainsDigits(links []Link, _, digits string) []Link {
	if digits == "" {
		return nil
	}
	numeric := filterLinks(links, func(l Link) bool {
		return strings.Contains(l.CollectionTitle, digits)
	})
	ads := filterLinks(numeric, func(l Link) bool {
		return strings.Contains(strings.ToLower(l.CollectionTitle), "ads collection")
	})
	if len(ads) > 0 {
		return ads
	}
	return numeric
}

func soldTitleEquals(c *Catalog, hint string, sold []ledger.LineItem) (ProductMatch, bool) {
	for _, item := range sold {
		if item.ProductID == 0 || !strings.EqualFold(item.Title, hint) {
			continue
		}
		return ProductMatch{
			ProductID: item.ProductID,
			Title:     item.Title,
			URL:       c.ProductURL(item.ProductID),
			Source:    SourceSoldTitle,
		}, true
	}
	return ProductMatch{}, false
}

func catalogTitleEquals(c *Catalog, hint string, _ []ledger.LineItem) (ProductMatch, bool) {
	for _, l := range c.links {
		if strings.EqualFold(l.ProductTitle, hint) {
			return linkMatch(l, SourceCatalogTitle), true
		}
	}
	return ProductMatch{}, false
}

func catalogTitleContains(c *Catalog, hint string, _ []ledger.LineItem) (ProductMatch, bool) {
	needle := strings.ToLower(hint)
	for _, l := range c.links {
		if strings.Contains(strings.ToLower(l.ProductTitle), needle) {
			return linkMatch(l, SourceCatalogContains), true
		}
	}
	return ProductMatch{}, false
}

func linkMatch(l Link, source MatchSource) ProductMatch {
	return ProductMatch{
		ProductID: l.ProductID,
		Title:     l.ProductTitle,
		URL:       l.ProductURL,
		Source:    source,
	}
}

func filterLinks(links []Link, keep func(Link) bool) []Link {
	var out []Link
	for _, l := range links {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
