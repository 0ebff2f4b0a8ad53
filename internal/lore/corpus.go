// internal/lore/corpus.go
package lore

import (
	"sort"
	"strings"

	"github.com/chuzo/zxi/internal/models"
)

// Lore categories. Only categories with content are reported by Categories.
const (
	CategoryWorld      = "world"
	CategoryEvents     = "events"
	CategoryThemes     = "themes"
	CategoryCharacters = "characters"
	CategoryFactions   = "factions"
	CategoryItems      = "items"
	CategoryQuests     = "quests"
)

// Corpus is the parsed lore of Fangen: world notes, characters, items and
// branching quest scripts, indexed by name.
type Corpus struct {
	World      map[string]string
	Events     map[string]string
	Themes     map[string]string
	Factions   map[string]string
	Characters map[string]*models.CharacterProfile
	Items      map[string]*models.ItemInfo
	ItemTiers  map[string]string // tier name -> crafting description
	Quests     map[string]*models.QuestScript
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		World:      make(map[string]string),
		Events:     make(map[string]string),
		Themes:     make(map[string]string),
		Factions:   make(map[string]string),
		Characters: make(map[string]*models.CharacterProfile),
		Items:      make(map[string]*models.ItemInfo),
		ItemTiers:  make(map[string]string),
		Quests:     make(map[string]*models.QuestScript),
	}
}

// Categories lists the categories that currently have content.
func (c *Corpus) Categories() []string {
	var out []string
	if len(c.World) > 0 {
		out = append(out, CategoryWorld)
	}
	if len(c.Events) > 0 {
		out = append(out, CategoryEvents)
	}
	if len(c.Themes) > 0 {
		out = append(out, CategoryThemes)
	}
	if len(c.Characters) > 0 {
		out = append(out, CategoryCharacters)
	}
	if len(c.Factions) > 0 {
		out = append(out, CategoryFactions)
	}
	if len(c.Items) > 0 {
		out = append(out, CategoryItems)
	}
	if len(c.Quests) > 0 {
		out = append(out, CategoryQuests)
	}
	return out
}

// CharacterNames returns all character names, sorted.
func (c *Corpus) CharacterNames() []string {
	names := make([]string, 0, len(c.Characters))
	for name := range c.Characters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ItemNames returns all item names, sorted.
func (c *Corpus) ItemNames() []string {
	names := make([]string, 0, len(c.Items))
	for name := range c.Items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// QuestTitles returns all quest titles, sorted.
func (c *Corpus) QuestTitles() []string {
	titles := make([]string, 0, len(c.Quests))
	for title := range c.Quests {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// EntriesByCategory returns the entry names for a category, sorted.
func (c *Corpus) EntriesByCategory(category string) []string {
	var names []string
	switch strings.ToLower(category) {
	case CategoryWorld:
		names = mapKeys(c.World)
	case CategoryEvents:
		names = mapKeys(c.Events)
	case CategoryThemes:
		names = mapKeys(c.Themes)
	case CategoryFactions:
		names = mapKeys(c.Factions)
	case CategoryCharacters:
		names = c.CharacterNames()
	case CategoryItems:
		names = c.ItemNames()
	case CategoryQuests:
		names = c.QuestTitles()
	}
	sort.Strings(names)
	return names
}

// Has reports whether an entry exists under the given category.
func (c *Corpus) Has(category, name string) bool {
	switch strings.ToLower(category) {
	case CategoryWorld:
		_, ok := c.World[name]
		return ok
	case CategoryEvents:
		_, ok := c.Events[name]
		return ok
	case CategoryThemes:
		_, ok := c.Themes[name]
		return ok
	case CategoryFactions:
		_, ok := c.Factions[name]
		return ok
	case CategoryCharacters:
		_, ok := c.Characters[name]
		return ok
	case CategoryItems:
		_, ok := c.Items[name]
		return ok
	case CategoryQuests:
		_, ok := c.Quests[name]
		return ok
	}
	return false
}

// Entry looks an entry up by name across all categories. The second return
// value is the category it was found in.
func (c *Corpus) Entry(name string) (interface{}, string) {
	if v, ok := c.World[name]; ok {
		return v, CategoryWorld
	}
	if v, ok := c.Events[name]; ok {
		return v, CategoryEvents
	}
	if v, ok := c.Themes[name]; ok {
		return v, CategoryThemes
	}
	if v, ok := c.Factions[name]; ok {
		return v, CategoryFactions
	}
	if v, ok := c.Characters[name]; ok {
		return v, CategoryCharacters
	}
	if v, ok := c.Items[name]; ok {
		return v, CategoryItems
	}
	if v, ok := c.Quests[name]; ok {
		return v, CategoryQuests
	}
	return nil, ""
}

// Search scans every category for entries whose name or content contains the
// query, case-insensitively. Results are entry names grouped by category.
func (c *Corpus) Search(query string) map[string][]string {
	q := strings.ToLower(strings.TrimSpace(query))
	results := make(map[string][]string)
	if q == "" {
		return results
	}

	addText := func(category string, entries map[string]string) {
		for name, content := range entries {
			if strings.Contains(strings.ToLower(name), q) ||
				strings.Contains(strings.ToLower(content), q) {
				results[category] = append(results[category], name)
			}
		}
	}

	addText(CategoryWorld, c.World)
	addText(CategoryEvents, c.Events)
	addText(CategoryThemes, c.Themes)
	addText(CategoryFactions, c.Factions)

	for name, profile := range c.Characters {
		if strings.Contains(strings.ToLower(name), q) ||
			strings.Contains(strings.ToLower(profile.Backstory), q) ||
			strings.Contains(strings.ToLower(profile.Personality), q) ||
			strings.Contains(strings.ToLower(profile.Role), q) {
			results[CategoryCharacters] = append(results[CategoryCharacters], name)
		}
	}

	for name, item := range c.Items {
		if strings.Contains(strings.ToLower(name), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			results[CategoryItems] = append(results[CategoryItems], name)
		}
	}

	for title, quest := range c.Quests {
		if strings.Contains(strings.ToLower(title), q) ||
			strings.Contains(strings.ToLower(quest.Description), q) {
			results[CategoryQuests] = append(results[CategoryQuests], title)
		}
	}

	for category := range results {
		sort.Strings(results[category])
	}

	return results
}

// RelatedCharacters finds characters mentioned in a lore entry's content.
func (c *Corpus) RelatedCharacters(entryName string) []string {
	entry, category := c.Entry(entryName)
	if entry == nil {
		return nil
	}

	var text string
	switch v := entry.(type) {
	case string:
		text = v
	case *models.CharacterProfile:
		text = v.Backstory + " " + v.Relationships + " " + v.Significance
	case *models.ItemInfo:
		text = v.Description
	case *models.QuestScript:
		var sb strings.Builder
		sb.WriteString(v.Description)
		for _, scene := range v.Scenes {
			sb.WriteString(" " + scene.Setting)
			for _, line := range scene.Dialogue {
				sb.WriteString(" " + line.Speaker)
			}
		}
		text = sb.String()
	}

	var related []string
	for _, name := range c.CharacterNames() {
		if category == CategoryCharacters && name == entryName {
			continue
		}
		if strings.Contains(text, name) {
			related = append(related, name)
		}
	}
	return related
}

// EntryCount returns the number of entries in a category.
func (c *Corpus) EntryCount(category string) int {
	return len(c.EntriesByCategory(category))
}

func mapKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
