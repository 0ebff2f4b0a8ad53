// cmd/lorelint/main.go
//
// lorelint checks a Fangen lore file for format problems: malformed
// [INV_UPDATE: ...] directives, unknown rarities, quests without scenes,
// scenes without choices and duplicate choice ids.
//
// Usage: lorelint <lore-file>
package main

import (
	"fmt"
	"os"

	"github.com/chuzo/zxi/internal/lore"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: lorelint <lore-file>")
		os.Exit(2)
	}

	src, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "lorelint: %v\n", err)
		os.Exit(2)
	}

	issues := lore.Lint(src)
	for _, issue := range issues {
		fmt.Printf("%s: %s\n", os.Args[1], issue)
	}

	if len(issues) > 0 {
		fmt.Fprintf(os.Stderr, "%d issue(s) found\n", len(issues))
		os.Exit(1)
	}

	corpus, err := lore.Parse(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lorelint: parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ok: %d characters, %d items, %d quests\n",
		len(corpus.Characters), len(corpus.Items), len(corpus.Quests))
}
