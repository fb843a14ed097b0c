package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/receiptd/internal/model"
)

func TestEvaluate(t *testing.T) {
	pack := Compile(RawPack{
		Version: "test",
		Vendors: []RawRule{
			{Pattern: "starbucks", Category: "Meals", Confidence: floatPtr(0.9)},
			{Pattern: "amzn|amazon", Category: "Supplies", Confidence: floatPtr(0.6)},
		},
		Keywords: []RawRule{
			{Pattern: "toner|printer|paper", Category: "Office Expense", Confidence: floatPtr(0.65)},
			{Pattern: "latte|espresso", Category: "Meals"},
		},
	})
	require.Equal(t, 4, pack.Len())

	tests := []struct {
		name           string
		vendorText     string
		lineItems      []model.LineItem
		wantCategory   string
		wantCategoryID int
		wantConfidence float64
		wantSource     model.MatchSource
		wantNil        bool
	}{
		{
			name:           "vendor rule hits raw OCR vendor text",
			vendorText:     "STARBUCKS STORE #4521",
			wantCategory:   "Meals",
			wantCategoryID: 20,
			wantConfidence: 0.9,
			wantSource:     model.MatchVendor,
		},
		{
			name:           "vendor alternation matches",
			vendorText:     "AMZN Mktp US*TA1234",
			wantCategory:   "Supplies",
			wantCategoryID: 17,
			wantConfidence: 0.6,
			wantSource:     model.MatchVendor,
		},
		{
			name:       "keyword rule hits line items",
			vendorText: "BIG BOX RETAIL",
			lineItems: []model.LineItem{
				{Description: "HP 67XL Black Toner", Total: 34.99},
			},
			wantCategory:   "Office Expense",
			wantCategoryID: 12,
			wantConfidence: 0.65,
			wantSource:     model.MatchKeyword,
		},
		{
			name:       "higher confidence wins across sources",
			vendorText: "STARBUCKS RESERVE",
			lineItems: []model.LineItem{
				{Description: "printer paper", Total: 12.00},
			},
			wantCategory:   "Meals",
			wantCategoryID: 20,
			wantConfidence: 0.9,
			wantSource:     model.MatchVendor,
		},
		{
			name:       "keyword does not match substrings",
			vendorText: "DECAPITATOR SUPPLY CO",
			lineItems: []model.LineItem{
				// "flatten" contains "latte" but not on a word boundary.
				{Description: "flatten tool", Total: 5.00},
			},
			wantNil: true,
		},
		{
			name:       "no rule matches",
			vendorText: "UNKNOWN VENDOR LLC",
			wantNil:    true,
		},
		{
			name:    "empty vendor and no line items",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := Evaluate(pack, tt.vendorText, tt.lineItems)

			if tt.wantNil {
				assert.Nil(t, match)
				return
			}

			require.NotNil(t, match)
			assert.Equal(t, tt.wantCategory, match.Category)
			assert.Equal(t, tt.wantCategoryID, match.CategoryID)
			assert.InDelta(t, tt.wantConfidence, match.Confidence, 0.0001)
			assert.Equal(t, tt.wantSource, match.Source)
		})
	}
}

func TestEvaluateTieBreak(t *testing.T) {
	// Two rules at the same confidence both match; the first in pack order
	// must win.
	pack := Compile(RawPack{
		Vendors: []RawRule{
			{Pattern: "costco", Category: "Supplies", Confidence: floatPtr(0.7)},
			{Pattern: "costco wholesale", Category: "Meals", Confidence: floatPtr(0.7)},
		},
	})
	require.Equal(t, 2, pack.Len())

	match := Evaluate(pack, "COSTCO WHOLESALE #512", nil)
	require.NotNil(t, match)
	assert.Equal(t, "Supplies", match.Category)
	assert.Equal(t, "costco", match.Pattern)
}

func TestEvaluateVendorRulesIgnoreLineItems(t *testing.T) {
	pack := Compile(RawPack{
		Vendors: []RawRule{
			{Pattern: "starbucks", Category: "Meals", Confidence: floatPtr(0.9)},
		},
	})

	match := Evaluate(pack, "OFFICE DEPOT", []model.LineItem{
		{Description: "starbucks gift card", Total: 25.00},
	})
	assert.Nil(t, match)
}

func TestEvaluateEmptyPack(t *testing.T) {
	assert.Nil(t, Evaluate(nil, "STARBUCKS", nil))
	assert.Nil(t, Evaluate(&Pack{}, "STARBUCKS", nil))
}
