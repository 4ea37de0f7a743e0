// Package pdf renders the one-page financial approval document that is
// attached to every notification email and served inline per request.
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// Line is one article row of the document.
type Line struct {
	SKU        string
	Name       string
	SellPrice  decimal.Decimal
	Quantity   int
	LineAmount decimal.Decimal
}

// Trail is one entry of the approval history section.
type Trail struct {
	ActedAt      time.Time
	ApproverName string
	ApproverRole string
	Action       string
	Comment      string
}

// Document is the full snapshot the renderer consumes. The caller maps the
// persisted request into it; the renderer holds no domain logic.
type Document struct {
	RequestID    string
	CreatedAt    time.Time
	AgentName    string
	AgentPDA     string
	DivisionName string
	BuyerCode    string
	BuyerName    string
	SiteCode     string
	SiteName     string
	InvoiceRef   string
	Reason       string
	Amount       decimal.Decimal
	Status       string
	RequiredRole string
	Lines        []Line
	Approvals    []Trail
}

// Render produces the PDF bytes for a request snapshot.
func Render(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, "FINANCIAL APPROVAL REQUEST", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("#%s  -  %s", doc.RequestID, doc.CreatedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, fmt.Sprintf("Agent: %s  -  PDA: %s", doc.AgentName, orDash(doc.AgentPDA)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Division: "+orDash(doc.DivisionName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Buyer: %s  %s", doc.BuyerCode, doc.BuyerName), "", 1, "L", false, 0, "")
	site := "-"
	if doc.SiteCode != "" {
		site = doc.SiteCode + " - " + doc.SiteName
	}
	pdf.CellFormat(0, 5, "Site: "+site, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Invoice ref: "+orDash(doc.InvoiceRef), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Reason: "+orDash(doc.Reason), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Articles", "B", 1, "L", false, 0, "")
	pdf.Ln(1)

	widths := []float64{30, 65, 22, 14, 22, 25}
	headers := []string{"SKU", "Article", "Price", "Qty", "Discount", "Amount"}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 5, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.Lines {
		listTotal := line.SellPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		discount := "0.00%"
		if listTotal.IsPositive() {
			pct := decimal.NewFromInt(1).Sub(line.LineAmount.Div(listTotal)).Mul(decimal.NewFromInt(100))
			if pct.IsNegative() {
				pct = decimal.Zero
			}
			discount = pct.StringFixed(2) + "%"
		}
		pdf.CellFormat(widths[0], 5, orDash(line.SKU), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 5, orDash(line.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 5, line.SellPrice.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 5, fmt.Sprintf("%d", line.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 5, discount, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 5, line.LineAmount.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(0, 7, "Total: EUR "+doc.Amount.StringFixed(2), "T", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s  -  Awaiting: %s", doc.Status, doc.RequiredRole), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Approvals", "B", 1, "L", false, 0, "")
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "", 9)
	if len(doc.Approvals) == 0 {
		pdf.CellFormat(0, 5, "- no action yet -", "", 1, "L", false, 0, "")
	}
	for _, t := range doc.Approvals {
		entry := fmt.Sprintf("%s - %s (%s) - %s", t.ActedAt.Format("2006-01-02 15:04"), t.ApproverName, t.ApproverRole, t.Action)
		if t.Comment != "" {
			entry += " - " + t.Comment
		}
		pdf.CellFormat(0, 5, entry, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render request pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
