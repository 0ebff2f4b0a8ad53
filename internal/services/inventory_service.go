// internal/services/inventory_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	apperrors "github.com/chuzo/zxi/internal/errors"
	"github.com/chuzo/zxi/internal/models"
	"github.com/chuzo/zxi/internal/storage"
	"github.com/chuzo/zxi/internal/utils"
)

// recipesFile is the optional recipe book in the data directory. When it
// exists its contents replace the recipe table on startup, so world
// authors can ship recipes next to the lore file.
const recipesFile = "recipes.json"

// CraftCheck reports whether a recipe can be crafted and what is missing.
type CraftCheck struct {
	Recipe  models.Recipe  `json:"recipe"`
	CanDo   bool           `json:"can_craft"`
	Missing map[string]int `json:"missing,omitempty"` // component -> shortfall
}

// InventoryService manages per-user item stacks and the crafting book.
type InventoryService struct {
	inventory *storage.SQLiteInventoryRepository
	recipes   *storage.SQLiteRecipeRepository
	fs        *storage.FileStorage
	logger    *utils.Logger
}

func NewInventoryService(db *sql.DB, fileStorage *storage.FileStorage) *InventoryService {
	return &InventoryService{
		inventory: storage.NewSQLiteInventoryRepository(db),
		recipes:   storage.NewSQLiteRecipeRepository(db),
		fs:        fileStorage,
		logger:    utils.GetLogger(),
	}
}

// LoadRecipeBook imports recipes from the data directory's recipes.json.
// Missing file is not an error; the table keeps whatever it already has.
func (s *InventoryService) LoadRecipeBook(ctx context.Context) error {
	if s.fs == nil || !s.fs.FileExists("", recipesFile) {
		return nil
	}

	var book []models.Recipe
	if err := s.fs.LoadJSONFile("", recipesFile, &book); err != nil {
		return apperrors.WrapError(err, "failed to load recipe book", apperrors.ErrorTypeError)
	}

	for _, recipe := range book {
		if recipe.ResultItem == "" || !recipe.ResultRarity.Valid() {
			s.logger.Warn("Skipping malformed recipe", map[string]interface{}{
				"result_item": recipe.ResultItem,
				"rarity":      string(recipe.ResultRarity),
			})
			continue
		}
		if err := s.recipes.Upsert(ctx, recipe); err != nil {
			return err
		}
	}

	s.logger.Info("Recipe book loaded", map[string]interface{}{"recipes": len(book)})
	return nil
}

// Inventory returns the user's item stacks.
func (s *InventoryService) Inventory(ctx context.Context, userID string) ([]models.InventoryEntry, error) {
	return s.inventory.Items(ctx, userID)
}

// Grant applies one parsed inventory directive to the user's inventory.
func (s *InventoryService) Grant(ctx context.Context, userID string, directive models.InventoryDirective) error {
	if !directive.Rarity.Valid() {
		return apperrors.NewValidationError(
			fmt.Sprintf("unknown rarity: %s", directive.Rarity), nil)
	}
	return s.inventory.Grant(ctx, userID, directive.Item, directive.Rarity, 1)
}

// Recipes returns the crafting book sorted by result item.
func (s *InventoryService) Recipes(ctx context.Context) ([]models.Recipe, error) {
	return s.recipes.List(ctx)
}

// CanCraft checks the user's stock against the recipe for item and
// returns the shortfall per component.
func (s *InventoryService) CanCraft(ctx context.Context, userID, item string) (*CraftCheck, error) {
	recipe, err := s.recipes.Get(ctx, item)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no recipe for %s", item), nil)
	}

	owned, err := s.inventory.Quantities(ctx, userID)
	if err != nil {
		return nil, err
	}

	missing := make(map[string]int)
	for component, required := range recipe.Requirements {
		if owned[component] < required {
			missing[component] = required - owned[component]
		}
	}

	check := &CraftCheck{Recipe: *recipe, CanDo: len(missing) == 0}
	if len(missing) > 0 {
		check.Missing = missing
	}
	return check, nil
}

// Craft consumes the recipe's components and grants its result. The
// whole exchange is one transaction; a missing component aborts it
// without effect.
func (s *InventoryService) Craft(ctx context.Context, userID, item string) (*models.Recipe, error) {
	check, err := s.CanCraft(ctx, userID, item)
	if err != nil {
		return nil, err
	}
	if !check.CanDo {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("missing components for %s: %s", item, missingSummary(check.Missing)), nil)
	}

	if err := s.inventory.ApplyCraft(ctx, userID, check.Recipe); err != nil {
		return nil, apperrors.WrapError(err, "crafting failed", apperrors.ErrorTypeConflict)
	}

	s.logger.Info("Item crafted", map[string]interface{}{
		"user_id": userID,
		"item":    item,
		"rarity":  string(check.Recipe.ResultRarity),
	})

	return &check.Recipe, nil
}

func missingSummary(missing map[string]int) string {
	parts := make([]string, 0, len(missing))
	for component, qty := range missing {
		parts = append(parts, fmt.Sprintf("%dx %s", qty, component))
	}
	sort.Strings(parts)

	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
