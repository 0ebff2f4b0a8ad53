// internal/models/quest.go
package models

import (
	"fmt"
	"time"
)

// InventoryDirective is a parsed [INV_UPDATE: Add <item> (<rarity>)] marker.
type InventoryDirective struct {
	Verb   string `json:"verb"` // only "Add" is defined by the corpus format
	Item   string `json:"item"`
	Rarity Rarity `json:"rarity"`
}

// String renders the directive body in its canonical corpus form.
func (d InventoryDirective) String() string {
	return fmt.Sprintf("%s %s (%s)", d.Verb, d.Item, d.Rarity)
}

// DialogueLine is one NPC line within a scene.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// ChoiceOption is one player choice inside a scene.
type ChoiceOption struct {
	ID             string               `json:"id"` // "<scene><letter>", e.g. "1a"
	Description    string               `json:"description"`
	PlayerDialogue string               `json:"player_dialogue,omitempty"`
	Outcome        string               `json:"outcome"`
	Directives     []InventoryDirective `json:"directives,omitempty"`
}

// Scene is one beat of a quest script.
type Scene struct {
	Number   int            `json:"number"`
	Title    string         `json:"title"`
	Setting  string         `json:"setting"`
	Dialogue []DialogueLine `json:"dialogue,omitempty"`
	Choices  []ChoiceOption `json:"choices"`
}

// QuestScript is a full branching quest parsed from the corpus.
type QuestScript struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Scenes      []Scene `json:"scenes"`
}

// Choice returns the choice with the given id in scene number n, if any.
func (q *QuestScript) Choice(n int, choiceID string) (*ChoiceOption, bool) {
	for i := range q.Scenes {
		if q.Scenes[i].Number != n {
			continue
		}
		for j := range q.Scenes[i].Choices {
			if q.Scenes[i].Choices[j].ID == choiceID {
				return &q.Scenes[i].Choices[j], true
			}
		}
	}
	return nil, false
}

// SessionStatus is the lifecycle state of a quest session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionAbandoned SessionStatus = "abandoned"
)

// QuestSession is one user's run through a quest.
type QuestSession struct {
	ID         string               `json:"id"`
	UserID     string               `json:"user_id"`
	QuestTitle string               `json:"quest_title"`
	SceneIndex int                  `json:"scene_index"` // 0-based index into the script's scenes
	Choices    []string             `json:"choices"`     // chosen option ids, in order
	Grants     []InventoryDirective `json:"grants"`      // directives applied so far
	Status     SessionStatus        `json:"status"`
	StartedAt  time.Time            `json:"started_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ChoiceView is a choice as presented to the player.
type ChoiceView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SceneView is a rendered scene ready for the API layer.
type SceneView struct {
	QuestTitle  string       `json:"quest_title"`
	SceneNumber int          `json:"scene_number"`
	SceneTitle  string       `json:"scene_title"`
	Narrative   string       `json:"narrative"`
	Choices     []ChoiceView `json:"choices"`
	Final       bool         `json:"final"`
}

// QuestSummary is a quest list entry with per-user completion state.
type QuestSummary struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SceneCount  int    `json:"scene_count"`
	Completed   bool   `json:"completed"`
}
