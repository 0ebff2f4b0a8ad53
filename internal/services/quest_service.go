// internal/services/quest_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/chuzo/zxi/internal/errors"
	"github.com/chuzo/zxi/internal/lore"
	"github.com/chuzo/zxi/internal/models"
	"github.com/chuzo/zxi/internal/storage"
	"github.com/chuzo/zxi/internal/utils"
)

// QuestService runs branching quest sessions over the parsed corpus.
type QuestService struct {
	loreService      *LoreService
	inventoryService *InventoryService
	progressService  *ProgressService
	sessions         *storage.SQLiteSessionRepository
	logger           *utils.Logger
}

func NewQuestService(db *sql.DB, loreService *LoreService, inventoryService *InventoryService, progressService *ProgressService) *QuestService {
	return &QuestService{
		loreService:      loreService,
		inventoryService: inventoryService,
		progressService:  progressService,
		sessions:         storage.NewSQLiteSessionRepository(db),
		logger:           utils.GetLogger(),
	}
}

// AvailableQuests lists all quests with the user's completion flag.
func (s *QuestService) AvailableQuests(ctx context.Context, userID string) ([]models.QuestSummary, error) {
	corpus := s.loreService.Corpus()
	completed, err := s.sessions.CompletedTitles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var summaries []models.QuestSummary
	for _, title := range corpus.QuestTitles() {
		quest := corpus.Quests[title]
		summaries = append(summaries, models.QuestSummary{
			Title:       title,
			Description: quest.Description,
			SceneCount:  len(quest.Scenes),
			Completed:   completed[title],
		})
	}
	return summaries, nil
}

// Start begins a quest session at its first scene. A user runs at most
// one session at a time; completed quests may be replayed.
func (s *QuestService) Start(ctx context.Context, userID, questTitle string) (*models.SceneView, error) {
	active, err := s.sessions.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperrors.NewConflictError(
			fmt.Sprintf("a quest is already in progress: %s", active.QuestTitle), nil)
	}

	quest, err := s.loreService.Quest(questTitle)
	if err != nil {
		return nil, err
	}
	if len(quest.Scenes) == 0 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("quest has no scenes: %s", questTitle), nil)
	}

	now := time.Now()
	session := models.QuestSession{
		ID:         uuid.NewString(),
		UserID:     userID,
		QuestTitle: questTitle,
		SceneIndex: 0,
		Choices:    []string{},
		Grants:     []models.InventoryDirective{},
		Status:     models.SessionActive,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("Quest started", map[string]interface{}{
		"user_id": userID,
		"quest":   questTitle,
		"session": session.ID,
	})

	view := renderScene(quest, 0)
	return &view, nil
}

// Current returns the scene the user's active session is on.
func (s *QuestService) Current(ctx context.Context, userID string) (*models.SceneView, error) {
	session, quest, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := renderScene(quest, session.SceneIndex)
	return &view, nil
}

// Choose applies a choice in the active session: validates it against
// the current scene, grants its inventory directives and advances the
// story. Returns the next scene, or a final view when the quest ends.
func (s *QuestService) Choose(ctx context.Context, userID, choiceID string) (*models.SceneView, error) {
	session, quest, err := s.activeSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	scene := quest.Scenes[session.SceneIndex]
	choice, ok := quest.Choice(scene.Number, strings.ToLower(choiceID))
	if !ok {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("no choice %q in scene %d", choiceID, scene.Number), nil)
	}

	for _, directive := range choice.Directives {
		if err := s.inventoryService.Grant(ctx, userID, directive); err != nil {
			return nil, err
		}
		if _, err := s.progressService.MarkDiscoveredIn(ctx, userID, lore.CategoryItems, directive.Item); err != nil && !apperrors.IsNotFoundError(err) {
			return nil, err
		}
		session.Grants = append(session.Grants, directive)
	}

	session.Choices = append(session.Choices, choice.ID)
	session.SceneIndex++
	session.UpdatedAt = time.Now()

	finished := session.SceneIndex >= len(quest.Scenes)
	if finished {
		session.Status = models.SessionCompleted
	}
	if err := s.sessions.Update(ctx, *session); err != nil {
		return nil, err
	}

	if finished {
		if _, err := s.progressService.MarkDiscoveredIn(ctx, userID, lore.CategoryQuests, quest.Title); err != nil && !apperrors.IsNotFoundError(err) {
			return nil, err
		}
		s.logger.Info("Quest completed", map[string]interface{}{
			"user_id": userID,
			"quest":   quest.Title,
			"grants":  len(session.Grants),
		})

		view := finalView(quest, choice)
		return &view, nil
	}

	view := renderScene(quest, session.SceneIndex)
	view.Narrative = joinNarrative(choice.Outcome, view.Narrative)
	return &view, nil
}

// Abandon ends the active session. Items granted along the way stay in
// the inventory.
func (s *QuestService) Abandon(ctx context.Context, userID string) error {
	session, _, err := s.activeSession(ctx, userID)
	if err != nil {
		return err
	}

	session.Status = models.SessionAbandoned
	session.UpdatedAt = time.Now()
	if err := s.sessions.Update(ctx, *session); err != nil {
		return err
	}

	s.logger.Info("Quest abandoned", map[string]interface{}{
		"user_id": userID,
		"quest":   session.QuestTitle,
	})
	return nil
}

// History returns the user's past and present sessions.
func (s *QuestService) History(ctx context.Context, userID string) ([]models.QuestSession, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// activeSession loads the user's active session together with its quest
// script. A session whose quest vanished from the corpus (lore reload)
// is reported as a conflict so the client can abandon it.
func (s *QuestService) activeSession(ctx context.Context, userID string) (*models.QuestSession, *models.QuestScript, error) {
	session, err := s.sessions.GetActive(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, apperrors.NewNotFoundError("no active quest session", nil)
	}

	quest, err := s.loreService.Quest(session.QuestTitle)
	if err != nil {
		return nil, nil, apperrors.NewConflictError(
			fmt.Sprintf("quest no longer exists: %s", session.QuestTitle), err)
	}
	if session.SceneIndex >= len(quest.Scenes) {
		return nil, nil, apperrors.NewConflictError(
			fmt.Sprintf("session is past the end of %s", session.QuestTitle), nil)
	}

	return session, quest, nil
}

// renderScene builds the player-facing view of the scene at index i.
func renderScene(quest *models.QuestScript, i int) models.SceneView {
	scene := quest.Scenes[i]

	var b strings.Builder
	if scene.Setting != "" {
		b.WriteString(scene.Setting)
	}
	for _, line := range scene.Dialogue {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("%s: %q", line.Speaker, line.Text))
	}

	choices := make([]models.ChoiceView, 0, len(scene.Choices))
	for _, c := range scene.Choices {
		choices = append(choices, models.ChoiceView{ID: c.ID, Text: c.Description})
	}

	return models.SceneView{
		QuestTitle:  quest.Title,
		SceneNumber: scene.Number,
		SceneTitle:  scene.Title,
		Narrative:   b.String(),
		Choices:     choices,
		Final:       false,
	}
}

// finalView wraps the last choice's outcome as the closing scene.
func finalView(quest *models.QuestScript, last *models.ChoiceOption) models.SceneView {
	lastScene := quest.Scenes[len(quest.Scenes)-1]
	return models.SceneView{
		QuestTitle:  quest.Title,
		SceneNumber: lastScene.Number,
		SceneTitle:  lastScene.Title,
		Narrative:   last.Outcome,
		Choices:     nil,
		Final:       true,
	}
}

func joinNarrative(outcome, next string) string {
	outcome = strings.TrimSpace(outcome)
	if outcome == "" {
		return next
	}
	if next == "" {
		return outcome
	}
	return outcome + "\n\n" + next
}
