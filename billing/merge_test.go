package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinePrice(t *testing.T) {
	// base 100, gst 18, discount 10% of 118 = 11.80
	requireAmount(t, "106.20", LinePrice(d("50"), d("2"), d("18"), d("10")))
	requireAmount(t, "33.33", LinePrice(d("33.333"), d("1"), decimal.Zero, decimal.Zero))
	requireAmount(t, "0.00", LinePrice(d("12"), decimal.Zero, d("5"), decimal.Zero))
}

func TestMergeDuplicateCode(t *testing.T) {
	items, err := MergeOrAppend(nil, LineItem{Code: "A", MRPPrice: d("10"), GSTPercent: d("5"), Quantity: d("2")})
	require.NoError(t, err)
	require.Len(t, items, 1)
	firstID := items[0].ID
	require.NotEmpty(t, firstID)
	requireAmount(t, "21.00", items[0].Price)

	merged, err := MergeOrAppend(items, LineItem{Code: "A", MRPPrice: d("99"), Quantity: d("3")})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, firstID, merged[0].ID)
	assert.True(t, merged[0].Quantity.Equal(d("5")))
	// repriced from the existing line's MRP and GST, not the new entry's
	requireAmount(t, "52.50", merged[0].Price)

	// input is not mutated
	assert.True(t, items[0].Quantity.Equal(d("2")))
}

func TestMergeAppendsNewCode(t *testing.T) {
	items, err := MergeOrAppend(nil, LineItem{Code: "A", MRPPrice: d("1"), Quantity: d("1")})
	require.NoError(t, err)
	items, err = MergeOrAppend(items, LineItem{Code: "B", MRPPrice: d("2"), Quantity: d("1")})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].ID, items[1].ID)

	_, ok := FindByCode(items, "B")
	assert.True(t, ok)
}

func TestMergeNeverGrowsForDuplicates(t *testing.T) {
	items := []LineItem{{ID: "1", Code: "A", Quantity: d("1")}, {ID: "2", Code: "B", Quantity: d("1")}}
	for i := 0; i < 10; i++ {
		var err error
		items, err = MergeOrAppend(items, LineItem{Code: "B", Quantity: d("0.5")})
		require.NoError(t, err)
		require.Len(t, items, 2)
	}
	assert.True(t, items[1].Quantity.Equal(d("6")))
}

func TestMergeRejectsNonPositiveQuantity(t *testing.T) {
	_, err := MergeOrAppend(nil, LineItem{Code: "A", Quantity: decimal.Zero})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveAndSetQuantity(t *testing.T) {
	items := []LineItem{
		{ID: "1", Code: "A", MRPPrice: d("10"), Quantity: d("1")},
		{ID: "2", Code: "B", MRPPrice: d("4"), Quantity: d("1")},
	}

	out, ok, err := SetQuantity(items, "2", d("3"))
	require.NoError(t, err)
	require.True(t, ok)
	requireAmount(t, "12.00", out[1].Price)
	assert.True(t, items[1].Quantity.Equal(d("1")))

	_, ok, err = SetQuantity(items, "missing", d("3"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = SetQuantity(items, "1", d("-3"))
	require.ErrorIs(t, err, ErrInvalidQuantity)

	out, ok = RemoveLine(items, "1")
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "B", out[0].Code)
	require.Len(t, items, 2)

	_, ok = RemoveLine(items, "nope")
	assert.False(t, ok)
}
