// internal/lore/directive.go
package lore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chuzo/zxi/internal/models"
)

// Inline quest-script markers. INV_UPDATE bodies follow the literal pattern
// "Add <name> (<rarity>)"; choice markers are "Option <N><letter>:".
var (
	invUpdateRe     = regexp.MustCompile(`\[INV_UPDATE:\s*([^\]]+)\]`)
	directiveBodyRe = regexp.MustCompile(`^Add\s+(.+?)\s+\(([A-Za-z]+)\)$`)
	optionRe        = regexp.MustCompile(`(?m)^[ \t]*•?[ \t]*Option[ \t]*(\d+[A-Za-z]?):[ \t]*(.+)$`)
)

// ParseDirective parses one INV_UPDATE body, e.g. "Add Moon Blade (Rare)".
func ParseDirective(body string) (models.InventoryDirective, error) {
	body = strings.TrimSpace(body)

	m := directiveBodyRe.FindStringSubmatch(body)
	if m == nil {
		return models.InventoryDirective{}, fmt.Errorf("malformed inventory directive: %q", body)
	}

	rarity, ok := models.ParseRarity(m[2])
	if !ok {
		return models.InventoryDirective{}, fmt.Errorf("unknown rarity %q in directive %q", m[2], body)
	}

	return models.InventoryDirective{
		Verb:   "Add",
		Item:   strings.TrimSpace(m[1]),
		Rarity: rarity,
	}, nil
}

// FindDirectiveBodies returns the raw bodies of every [INV_UPDATE: ...]
// marker in text, in order of appearance.
func FindDirectiveBodies(text string) []string {
	var bodies []string
	for _, m := range invUpdateRe.FindAllStringSubmatch(text, -1) {
		bodies = append(bodies, strings.TrimSpace(m[1]))
	}
	return bodies
}

// ExtractDirectives parses every well-formed directive in text. Malformed
// bodies are skipped; Lint is the strict surface.
func ExtractDirectives(text string) []models.InventoryDirective {
	var out []models.InventoryDirective
	for _, body := range FindDirectiveBodies(text) {
		d, err := ParseDirective(body)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}
