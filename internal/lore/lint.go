// internal/lore/lint.go
package lore

import (
	"fmt"
	"strings"
)

// Issue is one content-lint finding.
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// Lint checks the well-formedness of a raw lore corpus: every INV_UPDATE
// directive must match "Add <name> (<rarity>)" with a known rarity, choice
// ids must be unique within a scene, and every quest needs at least one
// scene with at least one choice.
func Lint(src []byte) []Issue {
	content := strings.ReplaceAll(string(src), "\r\n", "\n")
	var issues []Issue

	// Directive syntax
	for _, m := range invUpdateRe.FindAllStringSubmatchIndex(content, -1) {
		body := strings.TrimSpace(content[m[2]:m[3]])
		if _, err := ParseDirective(body); err != nil {
			issues = append(issues, Issue{
				Line:    lineOf(content, m[0]),
				Message: err.Error(),
			})
		}
	}

	// Quest structure
	headers := questHeaderRe.FindAllStringSubmatchIndex(content, -1)
	for i, h := range headers {
		title := strings.TrimSpace(content[h[2]:h[3]])
		questLine := lineOf(content, h[0])

		blockEnd := len(content)
		if i+1 < len(headers) {
			blockEnd = headers[i+1][0]
		}
		block := content[h[1]:blockEnd]

		sceneHeaders := sceneHeaderRe.FindAllStringSubmatchIndex(block, -1)
		if len(sceneHeaders) == 0 {
			issues = append(issues, Issue{
				Line:    questLine,
				Message: fmt.Sprintf("quest %q has no scenes", title),
			})
			continue
		}

		for j, sh := range sceneHeaders {
			bodyEnd := len(block)
			if j+1 < len(sceneHeaders) {
				bodyEnd = sceneHeaders[j+1][0]
			}
			body := block[sh[1]:bodyEnd]
			sceneLine := lineOf(content, h[1]+sh[0])

			options := optionRe.FindAllStringSubmatchIndex(body, -1)
			if len(options) == 0 {
				issues = append(issues, Issue{
					Line:    sceneLine,
					Message: fmt.Sprintf("quest %q scene %s has no choices", title, block[sh[2]:sh[3]]),
				})
				continue
			}

			seen := make(map[string]bool)
			for _, o := range options {
				id := strings.ToLower(body[o[2]:o[3]])
				if seen[id] {
					issues = append(issues, Issue{
						Line:    lineOf(content, h[1]+sh[1]+o[0]),
						Message: fmt.Sprintf("duplicate choice id %q in quest %q scene %s", id, title, block[sh[2]:sh[3]]),
					})
				}
				seen[id] = true
			}
		}
	}

	return issues
}

func lineOf(content string, idx int) int {
	return 1 + strings.Count(content[:idx], "\n")
}
