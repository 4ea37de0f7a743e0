package approval

import (
	"fmt"

	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput is one submitted line of a multi-item request. LineAmount, when
// present, is taken verbatim (it may already carry a discount); otherwise
// the line is priced from the catalog.
type ItemInput struct {
	ArticleID  uuid.UUID
	Quantity   int
	LineAmount *decimal.Decimal
}

// LineItem is a normalized line ready for persistence.
type LineItem struct {
	ArticleID  uuid.UUID
	Quantity   int
	LineAmount decimal.Decimal
}

// PriceLookup resolves an article's catalog sell price. The second return
// is false when the article is unknown or has no price.
type PriceLookup func(articleID uuid.UUID) (decimal.Decimal, bool)

// NormalizeItems turns submitted items into line items plus their decimal
// total. Pure transform: the caller supplies catalog prices and performs
// persistence. The sum of the returned line amounts is the request total.
func NormalizeItems(items []ItemInput, price PriceLookup) ([]LineItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: at least one item is required", apperror.ErrValidation)
	}

	normalized := make([]LineItem, 0, len(items))
	total := decimal.Zero

	for i, item := range items {
		if item.ArticleID == uuid.Nil {
			return nil, decimal.Zero, fmt.Errorf("%w: item %d has no article", apperror.ErrValidation, i+1)
		}
		if item.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: item %d has non-positive quantity", apperror.ErrValidation, i+1)
		}

		var lineAmount decimal.Decimal
		if item.LineAmount != nil {
			lineAmount = *item.LineAmount
		} else {
			sellPrice, ok := price(item.ArticleID)
			if !ok {
				return nil, decimal.Zero, fmt.Errorf("%w: item %d references article %s with no catalog price", apperror.ErrValidation, i+1, item.ArticleID)
			}
			lineAmount = sellPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		if lineAmount.IsNegative() {
			return nil, decimal.Zero, fmt.Errorf("%w: item %d has negative amount", apperror.ErrValidation, i+1)
		}

		normalized = append(normalized, LineItem{
			ArticleID:  item.ArticleID,
			Quantity:   item.Quantity,
			LineAmount: lineAmount,
		})
		total = total.Add(lineAmount)
	}

	return normalized, total, nil
}

// NormalizeLegacy validates the single-article input shape that predates
// multi-item requests. The supplied amount is the total; no line item rows
// are persisted for this shape.
func NormalizeLegacy(amount decimal.Decimal, quantity int) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount must not be negative", apperror.ErrValidation)
	}
	if quantity <= 0 {
		return decimal.Zero, fmt.Errorf("%w: quantity must be positive", apperror.ErrValidation)
	}
	return amount, nil
}
