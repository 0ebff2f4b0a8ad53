// internal/models/character.go
package models

import "time"

// CharacterProfile holds everything the corpus knows about a character.
type CharacterProfile struct {
	Name             string `json:"name"`
	Role             string `json:"role,omitempty"`
	Backstory        string `json:"backstory"`
	Personality      string `json:"personality"`
	Relationships    string `json:"relationships,omitempty"`
	Significance     string `json:"significance,omitempty"`
	ItemConnections  string `json:"item_connections,omitempty"`
	QuestConnections string `json:"quest_connections,omitempty"`
}

// Relationship tracks a user's standing with a character.
type Relationship struct {
	UserID          string    `json:"user_id"`
	CharacterName   string    `json:"character_name"`
	Level           int       `json:"level"`
	Interactions    int       `json:"interactions"`
	LastInteraction time.Time `json:"last_interaction"`
}

// DialogueReply is a character's in-voice response to a user message.
type DialogueReply struct {
	Character string `json:"character"`
	Text      string `json:"text"`
	Trait     string `json:"trait,omitempty"` // dominant personality trait that shaped the reply
}
