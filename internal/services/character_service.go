// internal/services/character_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/chuzo/zxi/internal/lore"
	"github.com/chuzo/zxi/internal/models"
	"github.com/chuzo/zxi/internal/storage"
)

var traitWordRe = regexp.MustCompile(`[a-z]+`)

// CharacterService serves character profiles and in-character replies,
// tracking a per-user relationship with each character.
type CharacterService struct {
	loreService     *LoreService
	progressService *ProgressService
	relationships   *storage.SQLiteRelationshipRepository
}

func NewCharacterService(db *sql.DB, loreService *LoreService, progressService *ProgressService) *CharacterService {
	return &CharacterService{
		loreService:     loreService,
		progressService: progressService,
		relationships:   storage.NewSQLiteRelationshipRepository(db),
	}
}

// List returns the names of all known characters.
func (s *CharacterService) List() []string {
	return s.loreService.Corpus().CharacterNames()
}

// Get returns a character's full profile.
func (s *CharacterService) Get(name string) (*models.CharacterProfile, error) {
	return s.loreService.Character(name)
}

// Chat produces an in-character reply about the given topic, marks the
// character discovered for the user and bumps the relationship.
func (s *CharacterService) Chat(ctx context.Context, userID, characterName, topic string) (*models.DialogueReply, *models.Relationship, error) {
	profile, err := s.loreService.Character(characterName)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.progressService.MarkDiscoveredIn(ctx, userID, lore.CategoryCharacters, characterName); err != nil {
		return nil, nil, err
	}

	rel, err := s.relationships.RecordInteraction(ctx, userID, characterName)
	if err != nil {
		return nil, nil, err
	}

	trait, text := dialogueFor(profile, topic)
	reply := &models.DialogueReply{
		Character: characterName,
		Text:      text,
		Trait:     trait,
	}
	return reply, rel, nil
}

// Relationships returns the user's relationships, most-interacted first.
func (s *CharacterService) Relationships(ctx context.Context, userID string) ([]models.Relationship, error) {
	return s.relationships.ListByUser(ctx, userID)
}

// dialogueFor picks a reply voice from the profile's personality traits.
func dialogueFor(profile *models.CharacterProfile, topic string) (string, string) {
	traits := make(map[string]bool)
	for _, w := range traitWordRe.FindAllString(strings.ToLower(profile.Personality), -1) {
		traits[w] = true
	}

	switch {
	case traits["playful"] || traits["quirky"] || traits["eccentric"]:
		return "playful", fmt.Sprintf(
			"*with a mischievous grin* Ah, curious about %s, are you? Well, let me tell you something interesting...", topic)
	case traits["stoic"] || traits["cold"] || traits["methodical"]:
		return "stoic", fmt.Sprintf(
			"*stares intently* %s? I will speak of it, though few deserve such knowledge.", topic)
	case traits["arrogant"] || traits["cunning"]:
		return "arrogant", fmt.Sprintf(
			"*smirks confidently* You wish to know of %s? Most wouldn't even comprehend it, but perhaps you might...", topic)
	case traits["fierce"] || traits["protective"] || traits["loyal"]:
		return "fierce", fmt.Sprintf(
			"*stands tall* %s is a matter of honor and duty. Listen carefully to what I tell you.", topic)
	default:
		return "neutral", fmt.Sprintf(
			"You ask about %s? Very well, I shall share what I know.", topic)
	}
}
