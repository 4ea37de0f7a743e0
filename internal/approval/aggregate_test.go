package approval

import (
	"testing"

	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedPrices(prices map[uuid.UUID]string) PriceLookup {
	return func(articleID uuid.UUID) (decimal.Decimal, bool) {
		raw, ok := prices[articleID]
		if !ok {
			return decimal.Zero, false
		}
		return decimal.RequireFromString(raw), true
	}
}

func TestNormalizeItemsPricedFromCatalog(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	lookup := fixedPrices(map[uuid.UUID]string{a: "10.50", b: "3.25"})

	items, total, err := NormalizeItems([]ItemInput{
		{ArticleID: a, Quantity: 2},
		{ArticleID: b, Quantity: 4},
	}, lookup)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.True(t, items[0].LineAmount.Equal(decimal.RequireFromString("21.00")))
	assert.True(t, items[1].LineAmount.Equal(decimal.RequireFromString("13.00")))
	assert.True(t, total.Equal(decimal.RequireFromString("34.00")))
}

func TestNormalizeItemsVerbatimLineAmount(t *testing.T) {
	a := uuid.New()
	// A discounted line amount overrides the catalog price entirely.
	discounted := decimal.RequireFromString("8.00")
	lookup := fixedPrices(map[uuid.UUID]string{a: "10.50"})

	items, total, err := NormalizeItems([]ItemInput{
		{ArticleID: a, Quantity: 2, LineAmount: &discounted},
	}, lookup)
	require.NoError(t, err)
	assert.True(t, items[0].LineAmount.Equal(discounted))
	assert.True(t, total.Equal(discounted))
}

func TestNormalizeItemsTotalIsSumOfLines(t *testing.T) {
	lookup := fixedPrices(map[uuid.UUID]string{})
	var inputs []ItemInput
	expected := decimal.Zero
	for i := 1; i <= 5; i++ {
		amount := decimal.NewFromInt(int64(i * 7)).Div(decimal.NewFromInt(4))
		inputs = append(inputs, ItemInput{ArticleID: uuid.New(), Quantity: i, LineAmount: &amount})
		expected = expected.Add(amount)
	}

	items, total, err := NormalizeItems(inputs, lookup)
	require.NoError(t, err)

	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineAmount)
	}
	assert.True(t, total.Equal(sum))
	assert.True(t, total.Equal(expected))
}

func TestNormalizeItemsValidation(t *testing.T) {
	a := uuid.New()
	negative := decimal.RequireFromString("-1.00")
	lookup := fixedPrices(map[uuid.UUID]string{a: "10.00"})

	testCases := []struct {
		name  string
		items []ItemInput
	}{
		{name: "empty list", items: nil},
		{name: "nil article", items: []ItemInput{{ArticleID: uuid.Nil, Quantity: 1}}},
		{name: "zero quantity", items: []ItemInput{{ArticleID: a, Quantity: 0}}},
		{name: "negative quantity", items: []ItemInput{{ArticleID: a, Quantity: -2}}},
		{name: "unpriced article", items: []ItemInput{{ArticleID: uuid.New(), Quantity: 1}}},
		{name: "negative line amount", items: []ItemInput{{ArticleID: a, Quantity: 1, LineAmount: &negative}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := NormalizeItems(tc.items, lookup)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestNormalizeLegacy(t *testing.T) {
	amount, err := NormalizeLegacy(decimal.RequireFromString("42.00"), 3)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("42.00")))

	_, err = NormalizeLegacy(decimal.RequireFromString("-0.01"), 1)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = NormalizeLegacy(decimal.RequireFromString("10.00"), 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
