// internal/api/handlers_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuzo/zxi/internal/services"
	"github.com/chuzo/zxi/internal/storage"
)

const testCorpus = `Aldric
• Backstory & Role: Gatekeeper of the Ember Halls, once a guild duelist.
• Personality & Motivations: Stoic and methodical, he tests every challenger the same way.
• Item & Quest Connections:
• Potential Items: Coal Ring, Ember Token
• Quests: The Ember Trial
__________

Sera, the Tidecaller
• Role: Envoy of the Pearl Throne
• Backstory: Raised in the tide courts, she speaks for the sea itself.
• Personality: Playful and quirky, fond of riddles nobody asked for.
• Relationships: A counterweight to Aldric and the guild politics he guards.
• Significance in Lore: Holds the only map of the drowned archives.
__________

The World of Fangen
• Overview: A realm where elemental magic shapes every facet of life.
Key Historical Events
• The Sundering: The cataclysm that split the old empire into the elemental dominions.

Quest: The Ember Trial
A test of nerve set by the Forge Guilds.
Scene 1: The Gate of Coals
Setting: A basalt causeway lit by rivers of slag.
Aldric (gatekeeper): "Only the steady of hand pass my gate."
Option 1a: Walk the causeway barefoot
Player: "Heat is only another teacher."
Outcome: You cross unburned and the gate grinds open. [INV_UPDATE: Add Ember Token (Normal)]
Option 1b: Challenge Aldric to open the gate himself
Outcome: Aldric laughs and relents, tossing you a keepsake. [INV_UPDATE: Add Coal Ring (Normal)]
Scene 2: The Heart of the Forge
Setting: The central forge, where a fire spirit coils in the crucible.
Option 2a: Offer the spirit your token
Outcome: The spirit accepts and seals itself into a blade. [INV_UPDATE: Add Emberfang Blade (Rare)]
Option 2b: Seize the crucible with bare hands
Outcome: The spirit sears your palm but yields a shard. [INV_UPDATE: Add Crucible Shard (Rare)]
`

// envelope mirrors APIResponse with the payload left raw for the test
// to decode.
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
}

func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	loreFile := filepath.Join(dir, "lore.txt")
	require.NoError(t, os.WriteFile(loreFile, []byte(testCorpus), 0644))

	fs, err := storage.NewFileStorage(dir)
	require.NoError(t, err)

	db, err := storage.InitSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	loreService, err := services.NewLoreService(loreFile, fs)
	require.NoError(t, err)

	inventoryService := services.NewInventoryService(db, fs)
	progressService := services.NewProgressService(db, loreService)
	handler := NewHandler(
		loreService,
		services.NewQuestService(db, loreService, inventoryService, progressService),
		inventoryService,
		services.NewCharacterService(db, loreService, progressService),
		progressService,
		services.NewUserService(db),
	)

	r := gin.New()
	registerRoutes(r, handler)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, user string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func registerTestUser(t *testing.T, r *gin.Engine, id string) {
	t.Helper()
	w, _ := doJSON(t, r, http.MethodPost, "/api/users", "", gin.H{"id": id, "username": id})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestHealthz(t *testing.T) {
	r := setupAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["lore_loaded_at"])
}

func TestResponseEnvelope(t *testing.T) {
	r := setupAPI(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/lore/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, w.Header().Get("X-Request-ID"))

	var categories []string
	require.NoError(t, json.Unmarshal(env.Data, &categories))
	assert.Contains(t, categories, "characters")
	assert.Contains(t, categories, "quests")
}

func TestGetLoreCategory(t *testing.T) {
	r := setupAPI(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/lore/characters", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Category string   `json:"category"`
		Entries  []string `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "characters", data.Category)
	assert.Contains(t, data.Entries, "Aldric")

	w, env = doJSON(t, r, http.MethodGet, "/api/lore/spells", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
}

func TestGetLoreEntryRecordsDiscovery(t *testing.T) {
	r := setupAPI(t)
	registerTestUser(t, r, "u1")

	w, env := doJSON(t, r, http.MethodGet, "/api/lore/entry/The%20Sundering", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Name     string `json:"name"`
		Category string `json:"category"`
		Content  string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "events", data.Category)
	assert.Contains(t, data.Content, "cataclysm")

	w, env = doJSON(t, r, http.MethodGet, "/api/users/u1/collection", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "The Sundering", entries[0].Name)
}

func TestGetLoreEntryNotFound(t *testing.T) {
	r := setupAPI(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/lore/entry/Nothing", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestSearchLoreRequiresQuery(t *testing.T) {
	r := setupAPI(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/lore/search", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, env := doJSON(t, r, http.MethodGet, "/api/lore/search?q=crucible", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var hits map[string][]string
	require.NoError(t, json.Unmarshal(env.Data, &hits))
	assert.Contains(t, hits["items"], "Crucible Shard")
}

func TestSearchLoreSpoilerFilter(t *testing.T) {
	r := setupAPI(t)
	registerTestUser(t, r, "u1")

	w, _ := doJSON(t, r, http.MethodPut, "/api/users/u1/settings", "",
		gin.H{"notification_level": "important", "spoiler_filter": true})
	require.Equal(t, http.StatusOK, w.Code)

	// Nothing discovered yet: the hit is hidden.
	w, env := doJSON(t, r, http.MethodGet, "/api/lore/search?q=sundering", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hits map[string][]string
	require.NoError(t, json.Unmarshal(env.Data, &hits))
	assert.Empty(t, hits["events"])

	// Viewing the entry discovers it, so it reappears.
	w, _ = doJSON(t, r, http.MethodGet, "/api/lore/entry/The%20Sundering", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/lore/search?q=sundering", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &hits))
	assert.Contains(t, hits["events"], "The Sundering")
}

func TestLintLore(t *testing.T) {
	r := setupAPI(t)

	w, env := doJSON(t, r, http.MethodGet, "/api/lore/lint", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Zero(t, data.Count)
}

func TestChatWithCharacter(t *testing.T) {
	r := setupAPI(t)
	registerTestUser(t, r, "u1")

	w, env := doJSON(t, r, http.MethodPost, "/api/characters/Aldric/chat", "u1",
		gin.H{"topic": "the forge"})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Reply struct {
			Text  string `json:"text"`
			Trait string `json:"trait"`
		} `json:"reply"`
		Relationship struct {
			Interactions int `json:"interactions"`
		} `json:"relationship"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "stoic", data.Reply.Trait)
	assert.Contains(t, data.Reply.Text, "the forge")
	assert.Equal(t, 1, data.Relationship.Interactions)

	// Topic is mandatory.
	w, _ = doJSON(t, r, http.MethodPost, "/api/characters/Aldric/chat", "u1", gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuestFlowOverHTTP(t *testing.T) {
	r := setupAPI(t)
	registerTestUser(t, r, "u1")

	w, env := doJSON(t, r, http.MethodPost, "/api/quests/The%20Ember%20Trial/start", "u1", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var view struct {
		QuestTitle  string `json:"quest_title"`
		SceneNumber int    `json:"scene_number"`
		Choices     []struct {
			ID string `json:"id"`
		} `json:"choices"`
		Final bool `json:"final"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "The Ember Trial", view.QuestTitle)
	assert.Equal(t, 1, view.SceneNumber)
	require.Len(t, view.Choices, 2)

	// A second start conflicts with the active session.
	w, _ = doJSON(t, r, http.MethodPost, "/api/quests/The%20Ember%20Trial/start", "u1", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w, env = doJSON(t, r, http.MethodPost, "/api/quests/session/choice", "u1",
		gin.H{"choice_id": "1a"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 2, view.SceneNumber)

	w, env = doJSON(t, r, http.MethodPost, "/api/quests/session/choice", "u1",
		gin.H{"choice_id": "2a"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.True(t, view.Final)

	// Both directive grants landed in the inventory.
	w, env = doJSON(t, r, http.MethodGet, "/api/users/u1/inventory", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var items []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	assert.Contains(t, names, "Ember Token")
	assert.Contains(t, names, "Emberfang Blade")
}

func TestQuestEndpointsRequireUser(t *testing.T) {
	r := setupAPI(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/quests", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/quests/The%20Ember%20Trial/start", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCraftEndpoints(t *testing.T) {
	r := setupAPI(t)
	registerTestUser(t, r, "u1")

	w, _ := doJSON(t, r, http.MethodGet, "/api/craft/Forgemaster%20Sigil/check", "u1", nil)
	require.Equal(t, http.StatusNotFound, w.Code, "no recipe book seeded")

	w, env := doJSON(t, r, http.MethodGet, "/api/craft/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recipes []struct{}
	require.NoError(t, json.Unmarshal(env.Data, &recipes))
	assert.Empty(t, recipes)
}

func TestUpdateSettingsValidatesLevel(t *testing.T) {
	r := setupAPI(t)
	registerTestUser(t, r, "u1")

	w, _ := doJSON(t, r, http.MethodPut, "/api/users/u1/settings", "",
		gin.H{"notification_level": "loud"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/api/users/u1/settings", "",
		gin.H{"notification_level": "none"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env := doJSON(t, r, http.MethodGet, "/api/users/u1/settings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings struct {
		NotificationLevel string `json:"notification_level"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	assert.Equal(t, "none", settings.NotificationLevel)
}

func TestDiscoverEndpoint(t *testing.T) {
	r := setupAPI(t)
	registerTestUser(t, r, "u1")

	w, env := doJSON(t, r, http.MethodPost, "/api/users/u1/discover", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var discovery struct {
		Category string `json:"category"`
		Name     string `json:"name"`
		New      bool   `json:"new"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &discovery))
	assert.True(t, discovery.New)
	assert.NotEmpty(t, discovery.Name)
}

func TestWebSocketStatus(t *testing.T) {
	r := setupAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ws/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.EqualValues(t, 0, body["connections"])
	assert.EqualValues(t, 0, body["users"])
}
