package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	all := All()
	require.Len(t, all, Count())

	// Ids are 1..N with no gaps; order follows id.
	for i, c := range all {
		assert.Equal(t, i+1, c.ID)
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Description)
	}

	// Mutating the returned slice must not affect the table.
	all[0].Name = "mutated"
	name, ok := NameOf(1)
	require.True(t, ok)
	assert.Equal(t, "Advertising", name)
}

func TestIDOf(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantID int
		wantOK bool
	}{
		{name: "exact name", input: "Meals", wantID: 20, wantOK: true},
		{name: "case insensitive", input: "meals", wantID: 20, wantOK: true},
		{name: "surrounding whitespace", input: "  Travel  ", wantID: 19, wantOK: true},
		{name: "unknown name", input: "Snacks", wantOK: false},
		{name: "empty", input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := IDOf(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestNameOf(t *testing.T) {
	name, ok := NameOf(12)
	require.True(t, ok)
	assert.Equal(t, "Office Expense", name)

	_, ok = NameOf(0)
	assert.False(t, ok)

	_, ok = NameOf(999)
	assert.False(t, ok)
}

func TestLookup(t *testing.T) {
	cat, ok := Lookup("other expenses")
	require.True(t, ok)
	assert.Equal(t, 23, cat.ID)
	assert.Equal(t, "Other Expenses", cat.Name)

	_, ok = Lookup("nonsense")
	assert.False(t, ok)
}
