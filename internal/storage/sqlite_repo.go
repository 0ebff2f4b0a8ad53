// internal/storage/sqlite_repo.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chuzo/zxi/internal/models"
)

// SQLiteUserRepository persists users and their settings.
type SQLiteUserRepository struct {
	db *sql.DB
}

func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Upsert inserts the user or refreshes its identity fields and
// last-active timestamp. Settings are preserved on conflict.
func (r *SQLiteUserRepository) Upsert(ctx context.Context, user models.User) error {
	settingsBytes, err := json.Marshal(user.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `
		INSERT INTO users (user_id, username, first_name, last_name, settings_json, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username=excluded.username,
			first_name=excluded.first_name,
			last_name=excluded.last_name,
			last_active=excluded.last_active
	`
	_, err = r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.FirstName, user.LastName,
		string(settingsBytes), user.CreatedAt, user.LastActive,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT user_id, username, first_name, last_name, settings_json, created_at, last_active FROM users WHERE user_id = ?`
	var u models.User
	var settingsStr string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Username, &u.FirstName, &u.LastName, &settingsStr, &u.CreatedAt, &u.LastActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(settingsStr), &u.Settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return &u, nil
}

func (r *SQLiteUserRepository) UpdateSettings(ctx context.Context, userID string, settings models.UserSettings) error {
	settingsBytes, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET settings_json = ?, last_active = ? WHERE user_id = ?`,
		string(settingsBytes), time.Now(), userID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SQLiteUserRepository) Touch(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active = ? WHERE user_id = ?`, time.Now(), userID)
	return err
}

// ---------------------------------------------------------
// SQLiteProgressRepository
// ---------------------------------------------------------

// SQLiteProgressRepository tracks which lore entries a user has discovered.
type SQLiteProgressRepository struct {
	db *sql.DB
}

func NewSQLiteProgressRepository(db *sql.DB) *SQLiteProgressRepository {
	return &SQLiteProgressRepository{db: db}
}

// MarkDiscovered records a discovery. Returns false when the entry was
// already known to the user.
func (r *SQLiteProgressRepository) MarkDiscovered(ctx context.Context, userID, category, name string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_progress (user_id, category, entry_name, discovered_at) VALUES (?, ?, ?, ?)`,
		userID, category, name, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark discovered: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DiscoveredNames returns the entry names the user has discovered in a category.
func (r *SQLiteProgressRepository) DiscoveredNames(ctx context.Context, userID, category string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_name FROM user_progress WHERE user_id = ? AND category = ? ORDER BY entry_name ASC`,
		userID, category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// All returns every discovery the user has made, newest first.
func (r *SQLiteProgressRepository) All(ctx context.Context, userID string) ([]models.ProgressEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, category, entry_name, discovered_at FROM user_progress WHERE user_id = ? ORDER BY discovered_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.ProgressEntry
	for rows.Next() {
		var e models.ProgressEntry
		if err := rows.Scan(&e.UserID, &e.Category, &e.Name, &e.DiscoveredAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByCategory returns discovery counts keyed by category.
func (r *SQLiteProgressRepository) CountByCategory(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM user_progress WHERE user_id = ? GROUP BY category`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

// ---------------------------------------------------------
// SQLiteInventoryRepository
// ---------------------------------------------------------

// SQLiteInventoryRepository persists per-user item stacks.
type SQLiteInventoryRepository struct {
	db *sql.DB
}

func NewSQLiteInventoryRepository(db *sql.DB) *SQLiteInventoryRepository {
	return &SQLiteInventoryRepository{db: db}
}

// Grant adds quantity of an item to the user's inventory, creating the
// stack when it does not exist yet.
func (r *SQLiteInventoryRepository) Grant(ctx context.Context, userID, itemName string, rarity models.Rarity, quantity int) error {
	now := time.Now()
	query := `
		INSERT INTO inventory (user_id, item_name, rarity, quantity, acquired_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, item_name) DO UPDATE SET
			quantity=quantity+excluded.quantity,
			rarity=excluded.rarity,
			updated_at=excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, userID, itemName, string(rarity), quantity, now, now)
	if err != nil {
		return fmt.Errorf("failed to grant item: %w", err)
	}
	return nil
}

// Items returns the user's inventory ordered by item name.
func (r *SQLiteInventoryRepository) Items(ctx context.Context, userID string) ([]models.InventoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, item_name, rarity, quantity, acquired_at, updated_at FROM inventory WHERE user_id = ? AND quantity > 0 ORDER BY item_name ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.InventoryEntry
	for rows.Next() {
		var e models.InventoryEntry
		var rarity string
		if err := rows.Scan(&e.UserID, &e.Name, &rarity, &e.Quantity, &e.AcquiredAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Rarity = models.Rarity(rarity)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Quantities returns item name -> owned quantity for the user.
func (r *SQLiteInventoryRepository) Quantities(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_name, quantity FROM inventory WHERE user_id = ? AND quantity > 0`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	owned := make(map[string]int)
	for rows.Next() {
		var name string
		var qty int
		if err := rows.Scan(&name, &qty); err != nil {
			return nil, err
		}
		owned[name] = qty
	}
	return owned, rows.Err()
}

// ApplyCraft consumes the recipe's components and grants the result in a
// single transaction. It fails without side effects when any component
// stack is short.
func (r *SQLiteInventoryRepository) ApplyCraft(ctx context.Context, userID string, recipe models.Recipe) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for component, required := range recipe.Requirements {
		var owned int
		err := tx.QueryRowContext(ctx,
			`SELECT quantity FROM inventory WHERE user_id = ? AND item_name = ?`,
			userID, component,
		).Scan(&owned)
		if err == sql.ErrNoRows {
			owned = 0
		} else if err != nil {
			return err
		}
		if owned < required {
			return fmt.Errorf("missing component: need %d x %s, have %d", required, component, owned)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE inventory SET quantity = quantity - ?, updated_at = ? WHERE user_id = ? AND item_name = ?`,
			required, time.Now(), userID, component,
		); err != nil {
			return err
		}
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO inventory (user_id, item_name, rarity, quantity, acquired_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id, item_name) DO UPDATE SET
			quantity=quantity+1,
			updated_at=excluded.updated_at
	`, userID, recipe.ResultItem, string(recipe.ResultRarity), now, now); err != nil {
		return err
	}

	return tx.Commit()
}

// ---------------------------------------------------------
// SQLiteRecipeRepository
// ---------------------------------------------------------

// SQLiteRecipeRepository stores the crafting recipe book.
type SQLiteRecipeRepository struct {
	db *sql.DB
}

func NewSQLiteRecipeRepository(db *sql.DB) *SQLiteRecipeRepository {
	return &SQLiteRecipeRepository{db: db}
}

func (r *SQLiteRecipeRepository) Upsert(ctx context.Context, recipe models.Recipe) error {
	reqBytes, err := json.Marshal(recipe.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}

	query := `
		INSERT INTO crafting_recipes (result_item, result_rarity, description, requirements_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(result_item) DO UPDATE SET
			result_rarity=excluded.result_rarity,
			description=excluded.description,
			requirements_json=excluded.requirements_json
	`
	_, err = r.db.ExecContext(ctx, query,
		recipe.ResultItem, string(recipe.ResultRarity), recipe.Description, string(reqBytes))
	if err != nil {
		return fmt.Errorf("failed to upsert recipe: %w", err)
	}
	return nil
}

func (r *SQLiteRecipeRepository) Get(ctx context.Context, resultItem string) (*models.Recipe, error) {
	query := `SELECT result_item, result_rarity, description, requirements_json FROM crafting_recipes WHERE result_item = ?`
	var recipe models.Recipe
	var rarity, reqStr string
	err := r.db.QueryRowContext(ctx, query, resultItem).Scan(
		&recipe.ResultItem, &rarity, &recipe.Description, &reqStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	recipe.ResultRarity = models.Rarity(rarity)
	if err := json.Unmarshal([]byte(reqStr), &recipe.Requirements); err != nil {
		return nil, fmt.Errorf("failed to parse requirements: %w", err)
	}
	return &recipe, nil
}

func (r *SQLiteRecipeRepository) List(ctx context.Context) ([]models.Recipe, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT result_item, result_rarity, description, requirements_json FROM crafting_recipes ORDER BY result_item ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []models.Recipe
	for rows.Next() {
		var recipe models.Recipe
		var rarity, reqStr string
		if err := rows.Scan(&recipe.ResultItem, &rarity, &recipe.Description, &reqStr); err != nil {
			return nil, err
		}
		recipe.ResultRarity = models.Rarity(rarity)
		if err := json.Unmarshal([]byte(reqStr), &recipe.Requirements); err != nil {
			return nil, fmt.Errorf("failed to parse requirements: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

func (r *SQLiteRecipeRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crafting_recipes`).Scan(&count)
	return count, err
}

// ---------------------------------------------------------
// SQLiteRelationshipRepository
// ---------------------------------------------------------

// SQLiteRelationshipRepository tracks per-user character affinity.
type SQLiteRelationshipRepository struct {
	db *sql.DB
}

func NewSQLiteRelationshipRepository(db *sql.DB) *SQLiteRelationshipRepository {
	return &SQLiteRelationshipRepository{db: db}
}

// interactionsPerLevel controls how fast affinity grows.
const interactionsPerLevel = 5

// RecordInteraction bumps the interaction counter for a character and
// returns the updated relationship. Level rises one step every
// interactionsPerLevel interactions, capped at 10.
func (r *SQLiteRelationshipRepository) RecordInteraction(ctx context.Context, userID, characterName string) (*models.Relationship, error) {
	now := time.Now()
	query := `
		INSERT INTO character_relationships (user_id, character_name, level, interactions, last_interaction)
		VALUES (?, ?, 0, 1, ?)
		ON CONFLICT(user_id, character_name) DO UPDATE SET
			interactions=interactions+1,
			level=MIN(10, (interactions+1)/` + fmt.Sprint(interactionsPerLevel) + `),
			last_interaction=excluded.last_interaction
	`
	if _, err := r.db.ExecContext(ctx, query, userID, characterName, now); err != nil {
		return nil, fmt.Errorf("failed to record interaction: %w", err)
	}

	return r.Get(ctx, userID, characterName)
}

func (r *SQLiteRelationshipRepository) Get(ctx context.Context, userID, characterName string) (*models.Relationship, error) {
	query := `SELECT user_id, character_name, level, interactions, last_interaction FROM character_relationships WHERE user_id = ? AND character_name = ?`
	var rel models.Relationship
	err := r.db.QueryRowContext(ctx, query, userID, characterName).Scan(
		&rel.UserID, &rel.CharacterName, &rel.Level, &rel.Interactions, &rel.LastInteraction,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}

func (r *SQLiteRelationshipRepository) ListByUser(ctx context.Context, userID string) ([]models.Relationship, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, character_name, level, interactions, last_interaction FROM character_relationships WHERE user_id = ? ORDER BY interactions DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []models.Relationship
	for rows.Next() {
		var rel models.Relationship
		if err := rows.Scan(&rel.UserID, &rel.CharacterName, &rel.Level, &rel.Interactions, &rel.LastInteraction); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// ---------------------------------------------------------
// SQLiteSessionRepository
// ---------------------------------------------------------

// SQLiteSessionRepository persists quest playthrough state.
type SQLiteSessionRepository struct {
	db *sql.DB
}

func NewSQLiteSessionRepository(db *sql.DB) *SQLiteSessionRepository {
	return &SQLiteSessionRepository{db: db}
}

func (r *SQLiteSessionRepository) Insert(ctx context.Context, session models.QuestSession) error {
	choicesBytes, err := json.Marshal(session.Choices)
	if err != nil {
		return fmt.Errorf("failed to marshal choices: %w", err)
	}
	grantsBytes, err := json.Marshal(session.Grants)
	if err != nil {
		return fmt.Errorf("failed to marshal grants: %w", err)
	}

	query := `
		INSERT INTO quest_sessions (id, user_id, quest_title, scene_index, choices_json, grants_json, status, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.QuestTitle, session.SceneIndex,
		string(choicesBytes), string(grantsBytes), string(session.Status),
		session.StartedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) Update(ctx context.Context, session models.QuestSession) error {
	choicesBytes, err := json.Marshal(session.Choices)
	if err != nil {
		return fmt.Errorf("failed to marshal choices: %w", err)
	}
	grantsBytes, err := json.Marshal(session.Grants)
	if err != nil {
		return fmt.Errorf("failed to marshal grants: %w", err)
	}

	query := `
		UPDATE quest_sessions
		SET scene_index = ?, choices_json = ?, grants_json = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		session.SceneIndex, string(choicesBytes), string(grantsBytes),
		string(session.Status), time.Now(), session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (r *SQLiteSessionRepository) scanSession(row *sql.Row) (*models.QuestSession, error) {
	var s models.QuestSession
	var choicesStr, grantsStr, status string
	err := row.Scan(
		&s.ID, &s.UserID, &s.QuestTitle, &s.SceneIndex,
		&choicesStr, &grantsStr, &status, &s.StartedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.Status = models.SessionStatus(status)
	if err := json.Unmarshal([]byte(choicesStr), &s.Choices); err != nil {
		return nil, fmt.Errorf("failed to parse choices: %w", err)
	}
	if err := json.Unmarshal([]byte(grantsStr), &s.Grants); err != nil {
		return nil, fmt.Errorf("failed to parse grants: %w", err)
	}
	return &s, nil
}

const sessionColumns = `id, user_id, quest_title, scene_index, choices_json, grants_json, status, started_at, updated_at`

func (r *SQLiteSessionRepository) Get(ctx context.Context, sessionID string) (*models.QuestSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM quest_sessions WHERE id = ?`
	return r.scanSession(r.db.QueryRowContext(ctx, query, sessionID))
}

// GetActive returns the user's in-flight session, or nil when none.
func (r *SQLiteSessionRepository) GetActive(ctx context.Context, userID string) (*models.QuestSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM quest_sessions WHERE user_id = ? AND status = 'active' ORDER BY started_at DESC LIMIT 1`
	return r.scanSession(r.db.QueryRowContext(ctx, query, userID))
}

// CompletedTitles returns the distinct quest titles the user has finished.
func (r *SQLiteSessionRepository) CompletedTitles(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT quest_title FROM quest_sessions WHERE user_id = ? AND status = 'completed'`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	titles := make(map[string]bool)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles[title] = true
	}
	return titles, rows.Err()
}

func (r *SQLiteSessionRepository) ListByUser(ctx context.Context, userID string) ([]models.QuestSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM quest_sessions WHERE user_id = ? ORDER BY started_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.QuestSession
	for rows.Next() {
		var s models.QuestSession
		var choicesStr, grantsStr, status string
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.QuestTitle, &s.SceneIndex,
			&choicesStr, &grantsStr, &status, &s.StartedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		s.Status = models.SessionStatus(status)
		if err := json.Unmarshal([]byte(choicesStr), &s.Choices); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(grantsStr), &s.Grants); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
