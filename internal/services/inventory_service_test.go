// internal/services/inventory_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chuzo/zxi/internal/errors"
	"github.com/chuzo/zxi/internal/models"
)

func grant(t *testing.T, env *testEnv, userID, item string, rarity models.Rarity, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		require.NoError(t, env.inventory.Grant(context.Background(), userID, models.InventoryDirective{
			Verb: "Add", Item: item, Rarity: rarity,
		}))
	}
}

func TestGrantMergesStacks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1")

	grant(t, env, "u1", "Ember Token", models.RarityNormal, 3)

	items, err := env.inventory.Inventory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestGrantRejectsUnknownRarity(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	err := env.inventory.Grant(context.Background(), "u1", models.InventoryDirective{
		Verb: "Add", Item: "Odd Thing", Rarity: "Mythic",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestCanCraftReportsMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1")
	env.seedRecipe(t, models.Recipe{
		ResultItem:   "Forgemaster Sigil",
		ResultRarity: models.RarityLegendary,
		Description:  "Proof of a completed trial.",
		Requirements: map[string]int{"Ember Token": 2, "Crucible Shard": 1},
	})

	grant(t, env, "u1", "Ember Token", models.RarityNormal, 1)

	check, err := env.inventory.CanCraft(ctx, "u1", "Forgemaster Sigil")
	require.NoError(t, err)
	assert.False(t, check.CanDo)
	assert.Equal(t, map[string]int{"Ember Token": 1, "Crucible Shard": 1}, check.Missing)
}

func TestCraftConsumesAndGrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1")
	env.seedRecipe(t, models.Recipe{
		ResultItem:   "Forgemaster Sigil",
		ResultRarity: models.RarityLegendary,
		Requirements: map[string]int{"Ember Token": 2, "Crucible Shard": 1},
	})

	grant(t, env, "u1", "Ember Token", models.RarityNormal, 3)
	grant(t, env, "u1", "Crucible Shard", models.RarityRare, 1)

	recipe, err := env.inventory.Craft(ctx, "u1", "Forgemaster Sigil")
	require.NoError(t, err)
	assert.Equal(t, models.RarityLegendary, recipe.ResultRarity)

	items, err := env.inventory.Inventory(ctx, "u1")
	require.NoError(t, err)

	quantities := make(map[string]int)
	for _, item := range items {
		quantities[item.Name] = item.Quantity
	}
	assert.Equal(t, 1, quantities["Ember Token"], "two tokens consumed")
	assert.Zero(t, quantities["Crucible Shard"], "empty stacks are hidden")
	assert.Equal(t, 1, quantities["Forgemaster Sigil"])
}

func TestCraftFailsWithoutComponents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedUser(t, "u1")
	env.seedRecipe(t, models.Recipe{
		ResultItem:   "Forgemaster Sigil",
		ResultRarity: models.RarityLegendary,
		Requirements: map[string]int{"Ember Token": 2},
	})

	grant(t, env, "u1", "Ember Token", models.RarityNormal, 1)

	_, err := env.inventory.Craft(ctx, "u1", "Forgemaster Sigil")
	require.Error(t, err)
	assert.True(t, apperrors.IsConflictError(err))

	// Nothing was consumed.
	items, err := env.inventory.Inventory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestCraftUnknownRecipe(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	_, err := env.inventory.Craft(context.Background(), "u1", "Imaginary Item")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestLoadRecipeBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	book := []models.Recipe{
		{
			ResultItem:   "Tide Charm",
			ResultRarity: models.RarityRare,
			Description:  "A keepsake of the Pearl Throne.",
			Requirements: map[string]int{"Coal Ring": 1},
		},
		{
			// Malformed entries are skipped, not fatal.
			ResultItem:   "Broken Entry",
			ResultRarity: "Mythic",
		},
	}
	require.NoError(t, env.fs.SaveJSONFile("", "recipes.json", book))

	require.NoError(t, env.inventory.LoadRecipeBook(ctx))

	recipes, err := env.inventory.Recipes(ctx)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Tide Charm", recipes[0].ResultItem)
}

func TestLoadRecipeBookMissingFile(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.inventory.LoadRecipeBook(context.Background()))

	recipes, err := env.inventory.Recipes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recipes)
}
