// internal/lore/lint_test.go
package lore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLintCleanCorpus(t *testing.T) {
	issues := Lint([]byte(sampleCorpus))
	assert.Empty(t, issues)
}

func TestLintBadRarity(t *testing.T) {
	src := `Quest: Broken
Scene 1: Start
Option 1a: Do the thing
Outcome: Done. [INV_UPDATE: Add Strange Orb (Mythic)]
`
	issues := Lint([]byte(src))
	require.Len(t, issues, 1)
	assert.Equal(t, 4, issues[0].Line)
	assert.Contains(t, issues[0].Message, "Mythic")
}

func TestLintMalformedDirectiveBody(t *testing.T) {
	src := `Quest: Broken
Scene 1: Start
Option 1a: Do the thing
Outcome: Done. [INV_UPDATE: Gain Strange Orb (Rare)]
`
	issues := Lint([]byte(src))
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "malformed inventory directive")
}

func TestLintQuestWithoutScenes(t *testing.T) {
	src := `Quest: Hollow Quest
Just some flavor text and nothing else.
`
	issues := Lint([]byte(src))
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Line)
	assert.Contains(t, issues[0].Message, `quest "Hollow Quest" has no scenes`)
}

func TestLintSceneWithoutChoices(t *testing.T) {
	src := `Quest: Stuck
Scene 1: Dead End
Setting: A room with no doors.
`
	issues := Lint([]byte(src))
	require.Len(t, issues, 1)
	assert.Equal(t, 2, issues[0].Line)
	assert.Contains(t, issues[0].Message, "has no choices")
}

func TestLintDuplicateChoiceIDs(t *testing.T) {
	src := `Quest: Echo
Scene 1: Repeats
Option 1a: First path
Outcome: Fine.
Option 1a: Second path with the same id
Outcome: Also fine.
`
	issues := Lint([]byte(src))
	require.Len(t, issues, 1)
	assert.Equal(t, 5, issues[0].Line)
	assert.Contains(t, issues[0].Message, `duplicate choice id "1a"`)
}

func TestLintReportsEveryIssue(t *testing.T) {
	src := `Quest: Multi
Scene 1: Bad
Option 1a: Path
Outcome: [INV_UPDATE: Add X (Wrong)]
Option 1a: Path again
Outcome: Fine.

Quest: Empty One
Nothing here.
`
	issues := Lint([]byte(src))
	require.Len(t, issues, 3)

	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.String())
	}
	joined := strings.Join(messages, "\n")
	assert.Contains(t, joined, "Wrong")
	assert.Contains(t, joined, "duplicate choice id")
	assert.Contains(t, joined, `quest "Empty One" has no scenes`)
}
