package pdf

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		RequestID:    "a1b2c3d4",
		CreatedAt:    time.Date(2026, 8, 12, 9, 30, 0, 0, time.UTC),
		AgentName:    "Jane Doe",
		AgentPDA:     "PDA-017",
		DivisionName: "North",
		BuyerCode:    "B042",
		BuyerName:    "Acme Retail",
		SiteCode:     "S01",
		SiteName:     "Main Warehouse",
		InvoiceRef:   "INV-2026-0042",
		Reason:       "Volume discount for quarterly order",
		Amount:       decimal.RequireFromString("149.50"),
		Status:       "pending",
		RequiredRole: "division_manager",
		Lines: []Line{
			{SKU: "SKU-1", Name: "Widget", SellPrice: decimal.RequireFromString("10.00"), Quantity: 10, LineAmount: decimal.RequireFromString("95.00")},
			{SKU: "SKU-2", Name: "Gadget", SellPrice: decimal.RequireFromString("27.25"), Quantity: 2, LineAmount: decimal.RequireFromString("54.50")},
		},
		Approvals: []Trail{
			{ActedAt: time.Date(2026, 8, 12, 11, 0, 0, 0, time.UTC), ApproverName: "Tom Lead", ApproverRole: "team_lead", Action: "approved", Comment: "fine by me"},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(sampleDocument())
	require.NoError(t, err)
	require.NotEmpty(t, out)
	// Every PDF starts with this magic.
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRenderMinimalDocument(t *testing.T) {
	// Legacy requests may have no lines, no site, and no trail yet.
	doc := Document{
		RequestID: "deadbeef",
		CreatedAt: time.Now(),
		AgentName: "Jane Doe",
		BuyerCode: "B001",
		BuyerName: "Acme",
		Amount:    decimal.RequireFromString("42.00"),
		Status:    "pending",
	}
	out, err := Render(doc)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
