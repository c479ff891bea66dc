// Package campaigns parses free-form ad campaign names into the structured
// fields the attribution engine needs: kind, collection code, product hint and
// launch date.
package campaigns

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/campaign-attribution/pkg/enums"
)

const collectionMarker = "COLLECTION"

// Parsed is the structured view of a campaign name. LaunchDate is nil when the
// name carries no usable date.
type Parsed struct {
	Name           string
	Kind           enums.CampaignKind
	CollectionCode string
	ProductHint    string
	LaunchDate     *time.Time
}

// IsCollection reports whether the name targets a collection rather than a single product.
func (p Parsed) IsCollection() bool {
	return p.Kind == enums.CampaignKindCollection
}

// Parse never fails; unmatched names degrade to best-effort substrings.
func Parse(name string, now time.Time, loc *time.Location) Parsed {
	parsed := Parsed{
		Name:        name,
		Kind:        enums.CampaignKindSingleProduct,
		ProductHint: ExtractProductName(name),
		LaunchDate:  ExtractLaunchDate(name, now, loc),
	}
	if IsCollection(name) {
		parsed.Kind = enums.CampaignKindCollection
		parsed.CollectionCode = ExtractCollectionCode(name)
	}
	return parsed
}

var codePattern = regexp.MustCompile(`(?i)C\d+`)

func IsCollection(name string) bool {
	return strings.Contains(strings.ToUpper(name), collectionMarker) || codePattern.MatchString(name)
}

// codeStrategies are tried in order; the first pattern that matches supplies the digits.
var codeStrategies = []*regexp.Regexp{
	regexp.MustCompile(`(?i)C(\d+)\s+ADS`),
	regexp.MustCompile(`(?i)C(\d+)\s+ADS\s+Collection`),
	regexp.MustCompile(`(?i)C(\d+)\s+Collection`),
	regexp.MustCompile(`(?i)-\s+C(\d+)\s+ADS`),
	regexp.MustCompile(`(?i)-\s+C(\d+)`),
	regexp.MustCompile(`(?i)Collection\s+\(.*\)\s+-\s+C(\d+)`),
	regexp.MustCompile(`(?i)Collection\s+C(\d+)`),
	// bare code; also covers names that only carry the COLLECTION marker
	regexp.MustCompile(`(?i)C(\d+)`),
}

// ExtractCollectionCode returns the normalised "C<digits>" code or "" when none is present.
func ExtractCollectionCode(name string) string {
	for _, re := range codeStrategies {
		if m := re.FindStringSubmatch(name); m != nil {
			return "C" + m[1]
		}
	}
	return ""
}

type hintStrategy func(name string) (string, bool)

var (
	singleProductTemplate = regexp.MustCompile(`^\d+\s+[A-Za-z]+\s+-\s+(.*?)\s+-\s+\d+\.\d+\s+-\s+SINGLE PRODUCT`)
	collectionTemplate    = regexp.MustCompile(`^\d+\s+[A-Za-z]+\s+-\s+C(\d+)\s+ADS`)
	datePrefix            = regexp.MustCompile(`^\d+\s+[A-Za-z]+(\s*-\s*|\s+)`)
	scoreSuffix           = regexp.MustCompile(`\s+-\s+\d+\.\d+.*$|\s*-\s*\d+\.\d+.*$`)
	kindSuffix            = regexp.MustCompile(`\s*-\s*SINGLE PRODUCT.*$|\s*-\s*COLLECTION.*$`)
)

var hintStrategies = []hintStrategy{
	func(name string) (string, bool) {
		m := singleProductTemplate.FindStringSubmatch(name)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	},
	func(name string) (string, bool) {
		m := collectionTemplate.FindStringSubmatch(name)
		if m == nil {
			return "", false
		}
		return "Collection C" + m[1], true
	},
	func(name string) (string, bool) {
		hint := datePrefix.ReplaceAllString(name, "")
		hint = scoreSuffix.ReplaceAllString(hint, "")
		hint = kindSuffix.ReplaceAllString(hint, "")
		return strings.TrimSpace(hint), true
	},
}

// ExtractProductName returns the product hint embedded in a campaign name.
func ExtractProductName(name string) string {
	for _, strategy := range hintStrategies {
		if hint, ok := strategy(name); ok {
			return hint
		}
	}
	return strings.TrimSpace(name)
}

var launchPrefix = regexp.MustCompile(`^(\d+)\s+([A-Za-z]+)`)

// ExtractLaunchDate resolves a leading "<day> <month>" against the year of now.
// Dates that would land after now are moved to the previous year. The result is
// midnight in loc, or nil when the name has no valid date.
func ExtractLaunchDate(name string, now time.Time, loc *time.Location) *time.Time {
	if loc == nil {
		loc = time.UTC
	}
	m := launchPrefix.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return nil
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	month, ok := parseMonth(m[2])
	if !ok {
		return nil
	}

	now = now.In(loc)
	launch, ok := calendarDate(now.Year(), month, day, loc)
	if !ok {
		return nil
	}
	if launch.After(now) {
		if launch, ok = calendarDate(now.Year()-1, month, day, loc); !ok {
			return nil
		}
	}
	return &launch
}

// calendarDate rejects dates time.Date would normalise, such as 31 April.
func calendarDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func parseMonth(value string) (time.Month, bool) {
	value = strings.ToLower(value)
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if value == full || value == full[:3] {
			return m, true
		}
	}
	return 0, false
}
