// internal/lore/directive_test.go
package lore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuzo/zxi/internal/models"
)

func TestParseDirective(t *testing.T) {
	d, err := ParseDirective("Add Moon Blade (Rare)")
	require.NoError(t, err)
	assert.Equal(t, "Add", d.Verb)
	assert.Equal(t, "Moon Blade", d.Item)
	assert.Equal(t, models.RarityRare, d.Rarity)
}

func TestParseDirectiveAllRarities(t *testing.T) {
	for _, rarity := range []models.Rarity{
		models.RarityNormal, models.RarityRare, models.RarityLegendary, models.RaritySecret,
	} {
		d, err := ParseDirective("Add Test Item (" + string(rarity) + ")")
		require.NoError(t, err)
		assert.Equal(t, rarity, d.Rarity)
	}
}

func TestParseDirectiveRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"Add Moon Blade",
		"Add Moon Blade (Epic)",
		"Remove Moon Blade (Rare)",
		"Moon Blade (Rare)",
	}
	for _, body := range cases {
		_, err := ParseDirective(body)
		assert.Error(t, err, "body %q should be rejected", body)
	}
}

func TestParseDirectiveTrimsWhitespace(t *testing.T) {
	d, err := ParseDirective("  Add  Coal Ring  (Normal)  ")
	require.NoError(t, err)
	assert.Equal(t, "Coal Ring", d.Item)
}

func TestFindDirectiveBodies(t *testing.T) {
	text := `Outcome: You win. [INV_UPDATE: Add A (Normal)] And also [INV_UPDATE: Add B (Rare)]`
	bodies := FindDirectiveBodies(text)
	require.Len(t, bodies, 2)
	assert.Equal(t, "Add A (Normal)", bodies[0])
	assert.Equal(t, "Add B (Rare)", bodies[1])
}

func TestExtractDirectivesSkipsMalformed(t *testing.T) {
	text := `[INV_UPDATE: Add Good Item (Legendary)] [INV_UPDATE: Add Bad Item (Epic)]`
	directives := ExtractDirectives(text)
	require.Len(t, directives, 1)
	assert.Equal(t, "Good Item", directives[0].Item)
}

func TestDirectiveString(t *testing.T) {
	d := models.InventoryDirective{Verb: "Add", Item: "Moon Blade", Rarity: models.RarityRare}
	assert.Equal(t, "Add Moon Blade (Rare)", d.String())
}
