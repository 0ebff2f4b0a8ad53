// internal/api/handlers.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chuzo/zxi/internal/lore"
	"github.com/chuzo/zxi/internal/models"
	"github.com/chuzo/zxi/internal/services"
)

// Handler serves the API endpoints.
type Handler struct {
	LoreService      *services.LoreService
	QuestService     *services.QuestService
	InventoryService *services.InventoryService
	CharacterService *services.CharacterService
	ProgressService  *services.ProgressService
	UserService      *services.UserService
	WebSocketHandler *WebSocketHandler
	Response         *ResponseHelper

	startedAt time.Time
}

// NewHandler wires the handler with its services.
func NewHandler(
	loreService *services.LoreService,
	questService *services.QuestService,
	inventoryService *services.InventoryService,
	characterService *services.CharacterService,
	progressService *services.ProgressService,
	userService *services.UserService,
) *Handler {
	h := &Handler{
		LoreService:      loreService,
		QuestService:     questService,
		InventoryService: inventoryService,
		CharacterService: characterService,
		ProgressService:  progressService,
		UserService:      userService,
		Response:         NewResponseHelper(),
		startedAt:        time.Now(),
	}
	h.WebSocketHandler = NewWebSocketHandler(questService)
	return h
}

// userID resolves the acting user from header, query or form.
func userID(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return c.Query("user_id")
}

// requireUserID aborts with 400 when no user is identified.
func (h *Handler) requireUserID(c *gin.Context) (string, bool) {
	id := userID(c)
	if id == "" {
		h.Response.BadRequest(c, "user_id is required (X-User-ID header or user_id query)")
		return "", false
	}
	return id, true
}

// Healthz reports service liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"lore_loaded_at": h.LoreService.LoadedAt().Format(time.RFC3339),
	})
}

// ------------------------------------------------
// Lore endpoints
// ------------------------------------------------

// GetLoreCategories lists the corpus categories with content.
func (h *Handler) GetLoreCategories(c *gin.Context) {
	h.Response.Success(c, h.LoreService.Corpus().Categories())
}

// GetLoreCategory lists entry names within one category.
func (h *Handler) GetLoreCategory(c *gin.Context) {
	category := c.Param("category")
	switch category {
	case lore.CategoryWorld, lore.CategoryEvents, lore.CategoryThemes,
		lore.CategoryCharacters, lore.CategoryFactions, lore.CategoryItems,
		lore.CategoryQuests:
	default:
		h.Response.NotFound(c, "unknown category: "+category)
		return
	}
	entries := h.LoreService.Corpus().EntriesByCategory(category)
	h.Response.Success(c, gin.H{"category": category, "entries": entries})
}

// GetLoreEntry returns one entry's content by name, any category.
func (h *Handler) GetLoreEntry(c *gin.Context) {
	name := c.Param("name")
	content, category := h.LoreService.Corpus().Entry(name)
	if category == "" {
		h.Response.NotFound(c, "no lore entry named "+name)
		return
	}

	// Discovery is recorded when the caller identifies itself.
	if id := userID(c); id != "" {
		if _, err := h.ProgressService.MarkDiscoveredIn(c.Request.Context(), id, category, name); err != nil {
			h.Response.FromAppError(c, err)
			return
		}
	}

	h.Response.Success(c, gin.H{
		"name":     name,
		"category": category,
		"content":  content,
		"related":  h.LoreService.Corpus().RelatedCharacters(name),
	})
}

// SearchLore runs a full-text search across categories. With the spoiler
// filter enabled, results are limited to what the caller has discovered.
func (h *Handler) SearchLore(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		h.Response.BadRequest(c, "query parameter q is required")
		return
	}

	hits := h.LoreService.Search(query)

	if id := userID(c); id != "" {
		user, err := h.UserService.GetUser(c.Request.Context(), id)
		if err == nil && user.Settings.SpoilerFilter {
			hits, err = h.filterToDiscovered(c, id, hits)
			if err != nil {
				h.Response.FromAppError(c, err)
				return
			}
		}
	}

	h.Response.Success(c, hits)
}

// filterToDiscovered drops search hits the user has not discovered yet.
func (h *Handler) filterToDiscovered(c *gin.Context, id string, hits map[string][]string) (map[string][]string, error) {
	entries, err := h.ProgressService.Collection(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		seen[entry.Name] = true
	}

	filtered := make(map[string][]string, len(hits))
	for category, names := range hits {
		var kept []string
		for _, name := range names {
			if seen[name] {
				kept = append(kept, name)
			}
		}
		if len(kept) > 0 {
			filtered[category] = kept
		}
	}
	return filtered, nil
}

// ReloadLore re-reads the lore file on demand.
func (h *Handler) ReloadLore(c *gin.Context) {
	if err := h.LoreService.Reload(); err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"loaded_at": h.LoreService.LoadedAt()}, "lore reloaded")
}

// LintLore reports format issues in the loaded lore source.
func (h *Handler) LintLore(c *gin.Context) {
	issues := h.LoreService.Lint()
	h.Response.Success(c, gin.H{"issues": issues, "count": len(issues)})
}

// ExportLore writes a corpus snapshot and returns its path.
func (h *Handler) ExportLore(c *gin.Context) {
	path, err := h.LoreService.ExportSnapshot()
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Created(c, gin.H{"file": path}, "corpus exported")
}

// ------------------------------------------------
// Character endpoints
// ------------------------------------------------

// GetCharacters lists character names.
func (h *Handler) GetCharacters(c *gin.Context) {
	h.Response.Success(c, h.CharacterService.List())
}

// GetCharacter returns one character's profile.
func (h *Handler) GetCharacter(c *gin.Context) {
	profile, err := h.CharacterService.Get(c.Param("name"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, profile)
}

// ChatRequest is the character chat body.
type ChatRequest struct {
	UserID string `json:"user_id"`
	Topic  string `json:"topic"`
}

// ChatWithCharacter produces an in-character reply about a topic.
func (h *Handler) ChatWithCharacter(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = userID(c)
	}
	if req.UserID == "" || req.Topic == "" {
		h.Response.BadRequest(c, "user_id and topic are required")
		return
	}

	reply, rel, err := h.CharacterService.Chat(c.Request.Context(), req.UserID, c.Param("name"), req.Topic)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"reply": reply, "relationship": rel})
}

// GetRelationships lists the user's character relationships.
func (h *Handler) GetRelationships(c *gin.Context) {
	rels, err := h.CharacterService.Relationships(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, rels)
}

// ------------------------------------------------
// Quest endpoints
// ------------------------------------------------

// GetQuests lists quests with the user's completion flags.
func (h *Handler) GetQuests(c *gin.Context) {
	id, ok := h.requireUserID(c)
	if !ok {
		return
	}
	quests, err := h.QuestService.AvailableQuests(c.Request.Context(), id)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, quests)
}

// StartQuest begins a quest session.
func (h *Handler) StartQuest(c *gin.Context) {
	id, ok := h.requireUserID(c)
	if !ok {
		return
	}
	view, err := h.QuestService.Start(c.Request.Context(), id, c.Param("title"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Created(c, view, "quest started")
}

// GetQuestSession returns the active session's current scene.
func (h *Handler) GetQuestSession(c *gin.Context) {
	id, ok := h.requireUserID(c)
	if !ok {
		return
	}
	view, err := h.QuestService.Current(c.Request.Context(), id)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, view)
}

// ChoiceRequest is the quest choice body.
type ChoiceRequest struct {
	UserID   string `json:"user_id"`
	ChoiceID string `json:"choice_id"`
}

// MakeQuestChoice applies a choice in the active session.
func (h *Handler) MakeQuestChoice(c *gin.Context) {
	var req ChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if req.UserID == "" {
		req.UserID = userID(c)
	}
	if req.UserID == "" || req.ChoiceID == "" {
		h.Response.BadRequest(c, "user_id and choice_id are required")
		return
	}

	view, err := h.QuestService.Choose(c.Request.Context(), req.UserID, req.ChoiceID)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, view)
}

// AbandonQuest ends the active session.
func (h *Handler) AbandonQuest(c *gin.Context) {
	id, ok := h.requireUserID(c)
	if !ok {
		return
	}
	if err := h.QuestService.Abandon(c.Request.Context(), id); err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, nil, "quest abandoned")
}

// GetQuestHistory lists the user's sessions, newest first.
func (h *Handler) GetQuestHistory(c *gin.Context) {
	id, ok := h.requireUserID(c)
	if !ok {
		return
	}
	sessions, err := h.QuestService.History(c.Request.Context(), id)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, sessions)
}

// ------------------------------------------------
// User endpoints
// ------------------------------------------------

// RegisterUserRequest is the user registration body.
type RegisterUserRequest struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RegisterUser creates or refreshes a user record.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	user, err := h.UserService.EnsureUser(c.Request.Context(), req.ID, req.Username, req.FirstName, req.LastName)
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Created(c, user, "user registered")
}

// GetUserProfile returns the user record.
func (h *Handler) GetUserProfile(c *gin.Context) {
	user, err := h.UserService.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, user)
}

// GetInventory returns the user's item stacks.
func (h *Handler) GetInventory(c *gin.Context) {
	items, err := h.InventoryService.Inventory(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, items)
}

// GetStatus returns per-category discovery counts.
func (h *Handler) GetStatus(c *gin.Context) {
	stats, err := h.ProgressService.Status(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, stats)
}

// GetCollection returns everything the user has discovered.
func (h *Handler) GetCollection(c *gin.Context) {
	entries, err := h.ProgressService.Collection(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, entries)
}

// Discover reveals a random undiscovered lore entry.
func (h *Handler) Discover(c *gin.Context) {
	discovery, err := h.ProgressService.Discover(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, discovery)
}

// GetSettings returns the user's preferences.
func (h *Handler) GetSettings(c *gin.Context) {
	user, err := h.UserService.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, user.Settings)
}

// UpdateSettings stores the user's preferences.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var settings models.UserSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	if err := h.UserService.UpdateSettings(c.Request.Context(), c.Param("user_id"), settings); err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, settings, "settings updated")
}

// ------------------------------------------------
// Crafting endpoints
// ------------------------------------------------

// GetRecipes lists the crafting book.
func (h *Handler) GetRecipes(c *gin.Context) {
	recipes, err := h.InventoryService.Recipes(c.Request.Context())
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, recipes)
}

// CheckCraft reports whether the user can craft an item and what is missing.
func (h *Handler) CheckCraft(c *gin.Context) {
	id, ok := h.requireUserID(c)
	if !ok {
		return
	}
	check, err := h.InventoryService.CanCraft(c.Request.Context(), id, c.Param("item"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, check)
}

// Craft consumes components and grants the crafted item.
func (h *Handler) Craft(c *gin.Context) {
	id, ok := h.requireUserID(c)
	if !ok {
		return
	}
	recipe, err := h.InventoryService.Craft(c.Request.Context(), id, c.Param("item"))
	if err != nil {
		h.Response.FromAppError(c, err)
		return
	}
	h.Response.Success(c, gin.H{
		"crafted": recipe.ResultItem,
		"rarity":  recipe.ResultRarity,
	}, "item crafted")
}

// ------------------------------------------------
// WebSocket endpoints
// ------------------------------------------------

// QuestWebSocket upgrades to the interactive quest socket.
func (h *Handler) QuestWebSocket(c *gin.Context) {
	h.WebSocketHandler.QuestWebSocket(c)
}

// GetWebSocketStatus reports live socket counts.
func (h *Handler) GetWebSocketStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.WebSocketHandler.Status())
}
