// internal/services/lore_service.go
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	apperrors "github.com/chuzo/zxi/internal/errors"
	"github.com/chuzo/zxi/internal/lore"
	"github.com/chuzo/zxi/internal/models"
	"github.com/chuzo/zxi/internal/storage"
	"github.com/chuzo/zxi/internal/utils"
)

// LoreService owns the parsed corpus and keeps it fresh when the lore
// file changes on disk.
type LoreService struct {
	loreFile string
	fs       *storage.FileStorage
	logger   *utils.Logger

	mu       sync.RWMutex
	corpus   *lore.Corpus
	raw      []byte
	loadedAt time.Time

	watcherMu  sync.Mutex
	watcher    *fsnotify.Watcher
	debounceMu sync.Mutex
	debounce   *time.Timer
}

// NewLoreService loads the corpus from loreFile. fileStorage is used for
// corpus snapshot exports and may share the data directory with other
// services.
func NewLoreService(loreFile string, fileStorage *storage.FileStorage) (*LoreService, error) {
	s := &LoreService{
		loreFile: loreFile,
		fs:       fileStorage,
		logger:   utils.GetLogger(),
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}

	return s, nil
}

// Reload re-reads and re-parses the lore file, swapping the corpus in
// one step so readers never see a partial parse.
func (s *LoreService) Reload() error {
	raw, err := os.ReadFile(s.loreFile)
	if err != nil {
		return fmt.Errorf("failed to read lore file: %w", err)
	}

	corpus, err := lore.Parse(raw)
	if err != nil {
		return apperrors.WrapError(err, "failed to parse lore file", apperrors.ErrorTypeError)
	}

	s.mu.Lock()
	s.corpus = corpus
	s.raw = raw
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("Lore corpus loaded", map[string]interface{}{
		"file":       s.loreFile,
		"characters": len(corpus.Characters),
		"items":      len(corpus.Items),
		"quests":     len(corpus.Quests),
	})

	return nil
}

// Corpus returns the current corpus. The returned value is replaced, not
// mutated, on reload, so callers may hold it across calls.
func (s *LoreService) Corpus() *lore.Corpus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus
}

// LoadedAt reports when the corpus was last (re)loaded.
func (s *LoreService) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Lint runs the corpus linter over the currently loaded source text.
func (s *LoreService) Lint() []lore.Issue {
	s.mu.RLock()
	raw := s.raw
	s.mu.RUnlock()
	return lore.Lint(raw)
}

// Search looks up the query across all corpus categories.
func (s *LoreService) Search(query string) map[string][]string {
	return s.Corpus().Search(query)
}

// Character returns a character profile by name.
func (s *LoreService) Character(name string) (*models.CharacterProfile, error) {
	profile, ok := s.Corpus().Characters[name]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("character not found: %s", name), nil)
	}
	return profile, nil
}

// Item returns item info by name.
func (s *LoreService) Item(name string) (*models.ItemInfo, error) {
	item, ok := s.Corpus().Items[name]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("item not found: %s", name), nil)
	}
	return item, nil
}

// Quest returns a quest script by title.
func (s *LoreService) Quest(title string) (*models.QuestScript, error) {
	quest, ok := s.Corpus().Quests[title]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("quest not found: %s", title), nil)
	}
	return quest, nil
}

// ExportSnapshot writes the parsed corpus as JSON under the exports
// directory and returns the file name.
func (s *LoreService) ExportSnapshot() (string, error) {
	if s.fs == nil {
		return "", apperrors.NewProcessingError("file storage not configured", nil)
	}

	corpus := s.Corpus()
	filename := fmt.Sprintf("corpus_%s.json", time.Now().Format("20060102_150405"))
	if err := s.fs.SaveJSONFile("exports", filename, corpus); err != nil {
		return "", apperrors.WrapError(err, "failed to export corpus snapshot", apperrors.ErrorTypeError)
	}

	return filepath.Join("exports", filename), nil
}

// StartWatcher begins watching the lore file's directory and reloads the
// corpus shortly after the file is written. Events are debounced because
// editors fire several in a row for one save.
func (s *LoreService) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, not the file: rename-based saves replace
	// the inode and would silently detach a file watch.
	dir := filepath.Dir(s.loreFile)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.watcherMu.Lock()
	s.watcher = watcher
	s.watcherMu.Unlock()

	// The loop holds its own reference: StopWatcher may nil the field
	// concurrently, and a closed watcher ends the loop via its channels.
	go s.watchLoop(ctx, watcher)

	s.logger.Info("Lore file watcher started", map[string]interface{}{"dir": dir})
	return nil
}

func (s *LoreService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	target := filepath.Clean(s.loreFile)

	for {
		select {
		case <-ctx.Done():
			s.StopWatcher()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				s.scheduleReload()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("Lore watcher error", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *LoreService) scheduleReload() {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()

	if s.debounce != nil {
		s.debounce.Stop()
	}

	s.debounce = time.AfterFunc(500*time.Millisecond, func() {
		if err := s.Reload(); err != nil {
			s.logger.Error("Lore reload failed", map[string]interface{}{"error": err.Error()})
		}
	})
}

// StopWatcher stops the file watcher. Safe to call when no watcher runs,
// and safe to call more than once.
func (s *LoreService) StopWatcher() {
	s.watcherMu.Lock()
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	s.watcherMu.Unlock()

	s.debounceMu.Lock()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounceMu.Unlock()
}
