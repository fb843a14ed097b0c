package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerloom/receiptd/internal/model"
)

func floatPtr(f float64) *float64 {
	return &f
}

func TestCompile(t *testing.T) {
	t.Run("compiles vendor and keyword rules in order", func(t *testing.T) {
		pack := Compile(RawPack{
			Version: "v1",
			Vendors: []RawRule{
				{Pattern: "starbucks", Category: "Meals", Confidence: floatPtr(0.9)},
			},
			Keywords: []RawRule{
				{Pattern: "latte|espresso", Category: "Meals"},
			},
		})

		require.Equal(t, 2, pack.Len())
		assert.Equal(t, 0, pack.Skipped)
		assert.Equal(t, "v1", pack.Version)

		vendor := pack.Rules()[0]
		assert.Equal(t, model.MatchVendor, vendor.Source)
		assert.Equal(t, 20, vendor.CategoryID)
		assert.Equal(t, "Meals", vendor.Category)
		assert.InDelta(t, 0.9, vendor.Confidence, 0.0001)

		keyword := pack.Rules()[1]
		assert.Equal(t, model.MatchKeyword, keyword.Source)
		assert.InDelta(t, DefaultKeywordConfidence, keyword.Confidence, 0.0001)
	})

	t.Run("applies default confidences", func(t *testing.T) {
		pack := Compile(RawPack{
			Vendors:  []RawRule{{Pattern: "uber", Category: "Travel"}},
			Keywords: []RawRule{{Pattern: "taxi", Category: "Travel"}},
		})

		require.Equal(t, 2, pack.Len())
		assert.InDelta(t, DefaultVendorConfidence, pack.Rules()[0].Confidence, 0.0001)
		assert.InDelta(t, DefaultKeywordConfidence, pack.Rules()[1].Confidence, 0.0001)
	})

	t.Run("clamps out of range confidence", func(t *testing.T) {
		pack := Compile(RawPack{
			Vendors: []RawRule{
				{Pattern: "a", Category: "Meals", Confidence: floatPtr(1.5)},
				{Pattern: "b", Category: "Meals", Confidence: floatPtr(-0.5)},
			},
		})

		require.Equal(t, 2, pack.Len())
		assert.Equal(t, 1.0, pack.Rules()[0].Confidence)
		assert.Equal(t, 0.0, pack.Rules()[1].Confidence)
	})

	t.Run("skips rule with invalid pattern", func(t *testing.T) {
		pack := Compile(RawPack{
			Vendors: []RawRule{
				{Pattern: "[unclosed", Category: "Meals"},
				{Pattern: "starbucks", Category: "Meals"},
			},
		})

		assert.Equal(t, 1, pack.Len())
		assert.Equal(t, 1, pack.Skipped)
		assert.Equal(t, "starbucks", pack.Rules()[0].Pattern)
	})

	t.Run("skips rule with unknown category", func(t *testing.T) {
		pack := Compile(RawPack{
			Vendors: []RawRule{
				{Pattern: "starbucks", Category: "Snacks"},
			},
		})

		assert.Equal(t, 0, pack.Len())
		assert.Equal(t, 1, pack.Skipped)
	})

	t.Run("categoryMap overrides name resolution", func(t *testing.T) {
		pack := Compile(RawPack{
			CategoryMap: map[string]int{"Coffee": 20},
			Vendors: []RawRule{
				{Pattern: "starbucks", Category: "Coffee"},
			},
		})

		require.Equal(t, 1, pack.Len())
		assert.Equal(t, 20, pack.Rules()[0].CategoryID)
		assert.Equal(t, "Meals", pack.Rules()[0].Category)
	})

	t.Run("categoryMap pointing at unknown id skips the rule", func(t *testing.T) {
		pack := Compile(RawPack{
			CategoryMap: map[string]int{"Coffee": 999},
			Vendors: []RawRule{
				{Pattern: "starbucks", Category: "Coffee"},
			},
		})

		assert.Equal(t, 0, pack.Len())
		assert.Equal(t, 1, pack.Skipped)
	})
}

func TestParse(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		pack, err := Parse([]byte(`{
			"version": "2024-06-01",
			"vendors": [{"pattern": "starbucks", "category": "Meals", "confidence": 0.9}],
			"keywords": [{"pattern": "toner|printer", "category": "Office Expense"}]
		}`))

		require.NoError(t, err)
		assert.Equal(t, "2024-06-01", pack.Version)
		assert.Equal(t, 2, pack.Len())
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := Parse([]byte(`{"vendors": [`))
		assert.Error(t, err)
	})
}

func TestParseYAML(t *testing.T) {
	pack, err := ParseYAML([]byte(`
version: v2
vendors:
  - pattern: starbucks
    category: Meals
    confidence: 0.9
keywords:
  - pattern: latte
    category: Meals
`))

	require.NoError(t, err)
	assert.Equal(t, "v2", pack.Version)
	assert.Equal(t, 2, pack.Len())
	assert.InDelta(t, 0.9, pack.Rules()[0].Confidence, 0.0001)
}

func TestLoad(t *testing.T) {
	t.Run("picks parser by extension", func(t *testing.T) {
		dir := t.TempDir()

		jsonPath := filepath.Join(dir, "rules.json")
		require.NoError(t, os.WriteFile(jsonPath, []byte(
			`{"version":"j1","vendors":[{"pattern":"uber","category":"Travel"}]}`,
		), 0o600))

		yamlPath := filepath.Join(dir, "rules.yaml")
		require.NoError(t, os.WriteFile(yamlPath, []byte(
			"version: y1\nvendors:\n  - pattern: uber\n    category: Travel\n",
		), 0o600))

		jsonPack, err := Load(jsonPath)
		require.NoError(t, err)
		assert.Equal(t, "j1", jsonPack.Version)

		yamlPack, err := Load(yamlPath)
		require.NoError(t, err)
		assert.Equal(t, "y1", yamlPack.Version)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}
