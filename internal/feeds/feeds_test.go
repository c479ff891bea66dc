package feeds

import (
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/campaign-attribution/pkg/errors"
	"github.com/angelmondragon/campaign-attribution/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersJSON = `{"orders":[
 {"id":1,"order_number":1001,"created_at":"2024-02-20T10:00:00+01:00","total_price":"50.00","currency":"eur",
  "financial_status":"PAID","customer":{"id":77},
  "line_items":[{"id":11,"product_id":5,"variant_id":6,"title":"Blue Hoodie","price":"50.00","quantity":1,"total_discount":null}],
  "refunds":[{"id":900,"created_at":"2024-02-25T09:00:00Z","note":"Customer dispute","processing_method":"Chargeback",
    "refund_line_items":[{"id":1},{"id":2}],
    "transactions":[{"kind":"refund","amount":"20.00"},{"kind":"void","amount":5}]}]},
 {"id":2,"created_at":"not-a-date","line_items":[]},
 {"id":3,"order_number":1003,"created_at":"2024-02-21T00:00:00Z","total_price":12.5,"currency":"EUR",
  "line_items":[{"id":31,"product_id":null,"title":"Gift Card","price":12.5,"quantity":1}]},
 {"order_number":1004,"created_at":"2024-02-21T00:00:00Z"}
]}`

func TestDecodeOrders(t *testing.T) {
	orders, err := DecodeOrders(strings.NewReader(ordersJSON))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	assert.Len(t, RecordErrors(err), 2)
	assert.True(t, Partial(err))
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, int64(77), first.CustomerID)
	assert.Equal(t, "EUR", first.Currency)
	assert.Equal(t, enums.FinancialStatusPaid, first.FinancialStatus)
	require.Len(t, first.LineItems, 1)
	li := first.LineItems[0]
	assert.Equal(t, int64(5), li.ProductID)
	assert.True(t, li.Price.Equal(first.TotalPrice))
	assert.True(t, li.TotalDiscount.IsZero())
	assert.True(t, li.CreatedAt.Equal(time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC)))

	require.Len(t, first.Refunds, 1)
	refund := first.Refunds[0]
	assert.Equal(t, "chargeback", refund.ProcessingMethod)
	assert.Equal(t, 2, refund.LineItemCount)
	assert.Equal(t, refund.CreatedAt, refund.ProcessedAt)
	require.Len(t, refund.Transactions, 2)
	assert.Equal(t, enums.TransactionKindVoid, refund.Transactions[1].Kind)

	assert.Equal(t, int64(0), orders[1].LineItems[0].ProductID)
	assert.Len(t, LineItems(orders), 2)
}

func TestDecodeOrdersBareArray(t *testing.T) {
	orders, err := DecodeOrders(strings.NewReader(`[{"id":9,"created_at":"2024-01-01T00:00:00Z","line_items":[{"id":1,"price":"bad"}]}]`))
	require.Error(t, err)
	assert.True(t, Partial(err))
	assert.Empty(t, orders)

	_, err = DecodeOrders(strings.NewReader(`{"orders":{}}`))
	require.Error(t, err)
	assert.False(t, Partial(err))

	orders, err = DecodeOrders(strings.NewReader(`  `))
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestDecodeCatalog(t *testing.T) {
	raw := `{
	 "custom_collections":[{"id":100,"title":"Spring C12 ADS Collection","handle":"c12"}],
	 "smart_collections":[{"id":101,"title":"Best sellers","handle":"best"},{"title":"missing id"}],
	 "products":[
	  {"id":1,"title":"Blue Hoodie","handle":"blue-hoodie","variants":[{"price":"55.00","inventory_quantity":0},{"price":"50.00","compare_at_price":"70.00","inventory_quantity":3}]},
	  {"id":2,"title":"Red Cap","handle":"red-cap","variants":[]},
	  {"id":1,"title":"Duplicate","handle":"dup"}
	 ],
	 "collects":[{"collection_id":100,"product_id":1},{"collection_id":101,"product_ids":[1]}]
	}`

	c, err := DecodeCatalog(strings.NewReader(raw), "https://acme.myshopify.com/")
	require.Error(t, err)
	assert.Len(t, RecordErrors(err), 1)

	require.Len(t, c.Products(), 2)
	require.Len(t, c.Collections(), 2)
	assert.Equal(t, enums.CollectionTypeSmart, c.Collections()[1].Type)
	assert.Equal(t, "https://acme.myshopify.com/collections/c12", c.Collections()[0].URL)

	hoodie, ok := c.Product(1)
	require.True(t, ok)
	assert.Equal(t, "50", hoodie.Price.String())
	require.NotNil(t, hoodie.CompareAtPrice)
	assert.Equal(t, "70", hoodie.CompareAtPrice.String())
	assert.True(t, hoodie.Available)
	assert.Equal(t, 2, hoodie.VariantCount)
	assert.Equal(t, "https://acme.myshopify.com/products/blue-hoodie", hoodie.URL)

	redCap, ok := c.Product(2)
	require.True(t, ok)
	assert.False(t, redCap.Available)
	assert.True(t, redCap.Price.IsZero())

	// two memberships for the hoodie plus one collection-less link for the cap
	require.Len(t, c.Links(), 3)
	assert.False(t, c.Links()[2].HasCollection())
}

func TestDecodeCampaigns(t *testing.T) {
	raw := `{"data":[
	 {"campaign_name":"15 FEBRUARY - Blue Hoodie - 8.5 - SINGLE PRODUCT","spend":"12.34","impressions":"1000","clicks":"25","date_start":"2024-02-15","date_stop":"2024-03-01"},
	 {"campaign_name":"  ","spend":"1"},
	 {"campaign_name":"10 MARCH - C12 ADS","spend":"abc","impressions":12.0},
	 {"campaign_name":"Bad date","date_start":"15/02/2024"}
	]}`

	campaigns, err := DecodeCampaigns(strings.NewReader(raw), time.UTC)
	require.Error(t, err)
	assert.Len(t, RecordErrors(err), 1)
	require.Len(t, campaigns, 3)

	first := campaigns[0]
	assert.Equal(t, "12.34", first.Spend.String())
	assert.Equal(t, int64(1000), first.Impressions)
	assert.Equal(t, int64(25), first.Clicks)
	require.NotNil(t, first.DateStart)
	assert.True(t, first.DateStart.Equal(time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)))

	second := campaigns[1]
	assert.True(t, second.Spend.IsZero())
	assert.Equal(t, int64(12), second.Impressions)
	assert.Nil(t, second.DateStart)
	assert.Nil(t, campaigns[2].DateStart)
}

func TestCampaignStatuses(t *testing.T) {
	statuses, err := DecodeCampaignStatuses(strings.NewReader(`{"data":[
	 {"name":"A","status":"PAUSED","effective_status":"CAMPAIGN_PAUSED"},
	 {"name":"B","status":"ACTIVE"},
	 {"name":"A","status":"ACTIVE"}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, "CAMPAIGN_PAUSED", statuses["A"])

	campaigns := []Campaign{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	ApplyStatuses(campaigns, statuses)
	assert.Equal(t, "ACTIVE", campaigns[1].Status)
	assert.Empty(t, campaigns[2].Status)
}
