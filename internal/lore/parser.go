// internal/lore/parser.go
package lore

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chuzo/zxi/internal/models"
)

// The corpus is prose with a loose bullet-and-header structure. Parsing is
// total: sections that do not match are skipped, never fatal. Lint reports
// what Parse silently tolerates.
var (
	characterRe = regexp.MustCompile(`(?s)([A-Z][A-Za-z, ]+)\n•\s*Backstory\s*&?\s*Role:\s*(.*?)•\s*Personality\s*&?\s*Motivations:\s*(.*?)(?:•\s*Item\s*&?\s*Quest Connections:|•\s*Relationships:)`)
	expandedCharRe = regexp.MustCompile(`(?s)([A-Z][A-Za-z, ]*)\n•\s*Role:\s*(.*?)•\s*Backstory:\s*(.*?)•\s*Personality:\s*(.*?)•\s*Relationships:\s*(.*?)•\s*Significance in Lore:\s*(.*?)(?:_{10,}|$)`)
	itemQuestConnRe  = regexp.MustCompile(`(?s)•\s*Item\s*&?\s*Quest Connections:(.*?)(?:_{10,}|$)`)
	potentialItemsRe = regexp.MustCompile(`(?s)•\s*Potential Items:(.*?)(?:•\s*Quests:|$)`)
	questConnRe      = regexp.MustCompile(`(?s)•\s*Quests:(.*)$`)

	worldOverviewRe = regexp.MustCompile(`(?s)The World of Fangen\n•\s*Overview:\s*(.*?)(?:Key Historical Events|\n\n)`)
	eventsSectionRe = regexp.MustCompile(`(?s)Key Historical Events\n(.*?)(?:\n\n|$)`)
	themesSectionRe = regexp.MustCompile(`(?s)Elemental and Mystical Themes\n(.*?)(?:\n\n|$)`)
	cultureSectionRe = regexp.MustCompile(`(?s)Cultural and Social Dynamics\n(.*?)(?:\n\n|$)`)
	bulletPairRe     = regexp.MustCompile(`(?s)•\s*([^:•\n]+):\s*([^•]+)`)

	itemTiersRe = regexp.MustCompile(`(?s)Item Crafting\s*&?\s*Evolution:\s*(.*?)(?:\d\.\s*Quest Narratives:|Quest Narratives:|$)`)

	questHeaderRe = regexp.MustCompile(`(?m)^Quest:\s*(.+)$`)
	sceneHeaderRe = regexp.MustCompile(`(?m)^Scene\s*(\d+):\s*(.+)$`)
	settingRe     = regexp.MustCompile(`(?m)^Setting:\s*(.+)$`)
	dialogueRe    = regexp.MustCompile(`(?m)^([A-Z][A-Za-z, ']*?)(?:\s*\([^)]*\))?:\s*"([^"]+)"`)
	playerLineRe  = regexp.MustCompile(`Player:\s*"([^"]+)"`)
	outcomeRe     = regexp.MustCompile(`(?s)Outcome:\s*(.*)$`)
	separatorRe   = regexp.MustCompile(`_{10,}`)
)

// Parse parses the raw lore corpus into structured data.
func Parse(src []byte) (*Corpus, error) {
	content := strings.ReplaceAll(string(src), "\r\n", "\n")

	c := NewCorpus()
	parseCharacterProfiles(c, content)
	parseWorldHistory(c, content)
	parseItemTiers(c, content)
	parseQuests(c, content)
	collectQuestItems(c)

	return c, nil
}

// parseCharacterProfiles extracts both the short and the expanded character
// profile formats.
func parseCharacterProfiles(c *Corpus, content string) {
	for _, m := range characterRe.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		profile := &models.CharacterProfile{
			Name:        name,
			Backstory:   strings.TrimSpace(m[2]),
			Personality: strings.TrimSpace(m[3]),
		}

		// Connections live after the profile block, keyed off the name.
		if pos := strings.Index(content, name); pos >= 0 {
			if conn := itemQuestConnRe.FindStringSubmatch(content[pos:]); conn != nil {
				connText := conn[1]
				if im := potentialItemsRe.FindStringSubmatch(connText); im != nil {
					profile.ItemConnections = strings.TrimSpace(im[1])
				}
				if qm := questConnRe.FindStringSubmatch(connText); qm != nil {
					profile.QuestConnections = strings.TrimSpace(qm[1])
				}
			}
		}

		c.Characters[name] = profile
	}

	for _, m := range expandedCharRe.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])

		if existing, ok := c.Characters[name]; ok {
			existing.Role = strings.TrimSpace(m[2])
			existing.Relationships = strings.TrimSpace(m[5])
			existing.Significance = strings.TrimSpace(m[6])
			continue
		}

		c.Characters[name] = &models.CharacterProfile{
			Name:          name,
			Role:          strings.TrimSpace(m[2]),
			Backstory:     strings.TrimSpace(m[3]),
			Personality:   strings.TrimSpace(m[4]),
			Relationships: strings.TrimSpace(m[5]),
			Significance:  strings.TrimSpace(m[6]),
		}
	}
}

// parseWorldHistory extracts the world overview plus the bullet sections for
// events, themes and factions.
func parseWorldHistory(c *Corpus, content string) {
	if m := worldOverviewRe.FindStringSubmatch(content); m != nil {
		c.World["Overview"] = strings.TrimSpace(m[1])
	}

	parseBulletSection(eventsSectionRe, content, c.Events)
	parseBulletSection(themesSectionRe, content, c.Themes)
	parseBulletSection(cultureSectionRe, content, c.Factions)
}

func parseBulletSection(sectionRe *regexp.Regexp, content string, dst map[string]string) {
	m := sectionRe.FindStringSubmatch(content)
	if m == nil {
		return
	}
	for _, pair := range bulletPairRe.FindAllStringSubmatch(m[1], -1) {
		dst[strings.TrimSpace(pair[1])] = strings.TrimSpace(pair[2])
	}
}

// parseItemTiers extracts the crafting tier descriptions.
func parseItemTiers(c *Corpus, content string) {
	m := itemTiersRe.FindStringSubmatch(content)
	if m == nil {
		return
	}
	for _, pair := range bulletPairRe.FindAllStringSubmatch(m[1], -1) {
		c.ItemTiers[strings.TrimSpace(pair[1])] = strings.TrimSpace(pair[2])
	}
}

// parseQuests splits the corpus into quest blocks on "Quest:" headers and
// parses each block's scenes.
func parseQuests(c *Corpus, content string) {
	headers := questHeaderRe.FindAllStringSubmatchIndex(content, -1)

	for i, h := range headers {
		title := strings.TrimSpace(content[h[2]:h[3]])
		if title == "" {
			continue
		}

		blockEnd := len(content)
		if i+1 < len(headers) {
			blockEnd = headers[i+1][0]
		}
		block := content[h[1]:blockEnd]

		quest := &models.QuestScript{Title: title}

		sceneHeaders := sceneHeaderRe.FindAllStringSubmatchIndex(block, -1)
		if len(sceneHeaders) > 0 {
			quest.Description = strings.TrimSpace(block[:sceneHeaders[0][0]])
		} else {
			quest.Description = strings.TrimSpace(block)
		}

		for j, sh := range sceneHeaders {
			bodyEnd := len(block)
			if j+1 < len(sceneHeaders) {
				bodyEnd = sceneHeaders[j+1][0]
			}

			number, err := strconv.Atoi(block[sh[2]:sh[3]])
			if err != nil {
				continue
			}

			scene := parseScene(number, strings.TrimSpace(block[sh[4]:sh[5]]), block[sh[1]:bodyEnd])
			quest.Scenes = append(quest.Scenes, scene)
		}

		c.Quests[title] = quest
	}
}

// parseScene parses one scene body: setting line, NPC dialogue and the
// "Option <N><letter>:" choice blocks.
func parseScene(number int, title, body string) models.Scene {
	scene := models.Scene{
		Number: number,
		Title:  title,
	}

	if m := settingRe.FindStringSubmatch(body); m != nil {
		scene.Setting = strings.TrimSpace(m[1])
	}

	optionHeaders := optionRe.FindAllStringSubmatchIndex(body, -1)

	// NPC dialogue belongs to the narration before the first option.
	narration := body
	if len(optionHeaders) > 0 {
		narration = body[:optionHeaders[0][0]]
	}
	for _, m := range dialogueRe.FindAllStringSubmatch(narration, -1) {
		speaker := strings.TrimSpace(m[1])
		if speaker == "Player" || speaker == "Setting" || speaker == "Outcome" {
			continue
		}
		scene.Dialogue = append(scene.Dialogue, models.DialogueLine{
			Speaker: speaker,
			Text:    strings.TrimSpace(m[2]),
		})
	}

	for j, oh := range optionHeaders {
		chunkEnd := len(body)
		if j+1 < len(optionHeaders) {
			chunkEnd = optionHeaders[j+1][0]
		}
		chunk := body[oh[1]:chunkEnd]

		// The last option of a quest's last scene runs to the end of the
		// block; a separator there belongs to the next section, not to
		// the outcome.
		if sep := separatorRe.FindStringIndex(chunk); sep != nil {
			chunk = chunk[:sep[0]]
		}

		choice := models.ChoiceOption{
			ID:          strings.ToLower(body[oh[2]:oh[3]]),
			Description: strings.TrimSpace(body[oh[4]:oh[5]]),
		}

		if pm := playerLineRe.FindStringSubmatch(chunk); pm != nil {
			choice.PlayerDialogue = strings.TrimSpace(pm[1])
		}
		if om := outcomeRe.FindStringSubmatch(chunk); om != nil {
			choice.Outcome = strings.TrimSpace(om[1])
			choice.Directives = ExtractDirectives(choice.Outcome)
		}

		scene.Choices = append(scene.Choices, choice)
	}

	return scene
}

// collectQuestItems registers every item granted by a quest directive, so
// the items category reflects what the quests can actually hand out.
func collectQuestItems(c *Corpus) {
	for _, quest := range c.Quests {
		for _, scene := range quest.Scenes {
			for _, choice := range scene.Choices {
				for _, d := range choice.Directives {
					if _, exists := c.Items[d.Item]; exists {
						continue
					}
					c.Items[d.Item] = &models.ItemInfo{
						Name:        d.Item,
						Rarity:      d.Rarity,
						Description: "An item from the world of Fangen.",
					}
				}
			}
		}
	}
}
