package feeds

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is one ad-platform insight row. Spend is in the platform currency.
type Campaign struct {
	Name        string          `json:"campaign_name"`
	Spend       decimal.Decimal `json:"spend"`
	Impressions int64           `json:"impressions"`
	Clicks      int64           `json:"clicks"`
	DateStart   *time.Time      `json:"date_start,omitempty"`
	DateStop    *time.Time      `json:"date_stop,omitempty"`
	Status      string          `json:"status,omitempty"`
}

type rawInsight struct {
	CampaignName string     `json:"campaign_name"`
	Spend        flexString `json:"spend"`
	Impressions  flexString `json:"impressions"`
	Clicks       flexString `json:"clicks"`
	DateStart    string     `json:"date_start"`
	DateStop     string     `json:"date_stop"`
}

type rawCampaignStatus struct {
	Name            string `json:"name"`
	Status          string `json:"status"`
	EffectiveStatus string `json:"effective_status"`
}

// DecodeCampaigns reads insight rows in feed order. Rows without a campaign
// name are dropped; missing or invalid counters are zero. Dates resolve in loc.
func DecodeCampaigns(r io.Reader, loc *time.Location) ([]Campaign, error) {
	if loc == nil {
		loc = time.UTC
	}
	list, err := decodeList(r, "data")
	if err != nil {
		return nil, err
	}

	problems := &recordErrors{feed: "insights"}
	campaigns := make([]Campaign, 0, len(list))
	for i, raw := range list {
		var ri rawInsight
		if err := json.Unmarshal(raw, &ri); err != nil {
			problems.add(i, err)
			continue
		}
		name := strings.TrimSpace(ri.CampaignName)
		if name == "" {
			continue
		}
		c := Campaign{
			Name:        name,
			Spend:       ri.Spend.DecimalOrZero(),
			Impressions: ri.Impressions.Int64OrZero(),
			Clicks:      ri.Clicks.Int64OrZero(),
		}
		if c.DateStart, err = parseDay(ri.DateStart, loc); err != nil {
			problems.add(i, err)
		}
		if c.DateStop, err = parseDay(ri.DateStop, loc); err != nil {
			problems.add(i, err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, problems.err()
}

// DecodeCampaignStatuses reads the campaign list and maps names to their
// effective status, falling back to the configured status.
func DecodeCampaignStatuses(r io.Reader) (map[string]string, error) {
	list, err := decodeList(r, "data")
	if err != nil {
		return nil, err
	}
	problems := &recordErrors{feed: "campaigns"}
	statuses := make(map[string]string, len(list))
	for i, raw := range list {
		var rs rawCampaignStatus
		if err := json.Unmarshal(raw, &rs); err != nil {
			problems.add(i, err)
			continue
		}
		name := strings.TrimSpace(rs.Name)
		if name == "" {
			continue
		}
		status := rs.EffectiveStatus
		if status == "" {
			status = rs.Status
		}
		if _, ok := statuses[name]; !ok {
			statuses[name] = status
		}
	}
	return statuses, problems.err()
}

// ApplyStatuses copies known statuses onto the campaigns in place.
func ApplyStatuses(campaigns []Campaign, statuses map[string]string) {
	for i := range campaigns {
		if status, ok := statuses[campaigns[i].Name]; ok {
			campaigns[i].Status = status
		}
	}
}
