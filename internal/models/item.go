// internal/models/item.go
package models

import "time"

// Rarity is the narrative power tier of an item.
type Rarity string

const (
	RarityNormal    Rarity = "Normal"
	RarityRare      Rarity = "Rare"
	RarityLegendary Rarity = "Legendary"
	RaritySecret    Rarity = "Secret"
)

// ParseRarity maps a string onto a known tier.
func ParseRarity(s string) (Rarity, bool) {
	switch Rarity(s) {
	case RarityNormal, RarityRare, RarityLegendary, RaritySecret:
		return Rarity(s), true
	}
	return "", false
}

// Valid reports whether r is one of the four known tiers.
func (r Rarity) Valid() bool {
	_, ok := ParseRarity(string(r))
	return ok
}

// ItemInfo describes an item found in the lore corpus.
type ItemInfo struct {
	Name        string `json:"name"`
	Rarity      Rarity `json:"rarity"`
	Description string `json:"description"`
}

// InventoryEntry is one item stack in a user's inventory.
type InventoryEntry struct {
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Rarity     Rarity    `json:"rarity"`
	Quantity   int       `json:"quantity"`
	AcquiredAt time.Time `json:"acquired_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Recipe describes a craftable item and its component requirements.
type Recipe struct {
	ResultItem   string         `json:"result_item"`
	ResultRarity Rarity         `json:"result_rarity"`
	Description  string         `json:"description"`
	Requirements map[string]int `json:"requirements"` // component name -> quantity
}
