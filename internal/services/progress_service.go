// internal/services/progress_service.go
package services

import (
	"context"
	"database/sql"
	"math/rand"

	apperrors "github.com/chuzo/zxi/internal/errors"
	"github.com/chuzo/zxi/internal/models"
	"github.com/chuzo/zxi/internal/storage"
)

// Discovery is a lore entry revealed to a user.
type Discovery struct {
	Category string      `json:"category"`
	Name     string      `json:"name"`
	Content  interface{} `json:"content"`
	New      bool        `json:"new"`
}

// ProgressService tracks which parts of the corpus each user has seen.
type ProgressService struct {
	loreService *LoreService
	progress    *storage.SQLiteProgressRepository
}

func NewProgressService(db *sql.DB, loreService *LoreService) *ProgressService {
	return &ProgressService{
		loreService: loreService,
		progress:    storage.NewSQLiteProgressRepository(db),
	}
}

// MarkDiscovered records that the user has seen a named entry. Unknown
// entries are rejected so progress rows always match the corpus.
func (s *ProgressService) MarkDiscovered(ctx context.Context, userID, name string) (bool, error) {
	_, category := s.loreService.Corpus().Entry(name)
	if category == "" {
		return false, apperrors.NewNotFoundError("no lore entry named "+name, nil)
	}
	return s.progress.MarkDiscovered(ctx, userID, category, name)
}

// MarkDiscoveredIn records a discovery under an explicit category. Callers
// that know where an entry came from use this instead of MarkDiscovered,
// which would resolve a name shared across categories to the wrong one.
func (s *ProgressService) MarkDiscoveredIn(ctx context.Context, userID, category, name string) (bool, error) {
	if !s.loreService.Corpus().Has(category, name) {
		return false, apperrors.NewNotFoundError("no lore entry named "+name+" in "+category, nil)
	}
	return s.progress.MarkDiscovered(ctx, userID, category, name)
}

// Discover picks a random corpus entry the user has not seen yet and
// marks it discovered. When everything is known it returns a random
// already-seen entry with New=false.
func (s *ProgressService) Discover(ctx context.Context, userID string) (*Discovery, error) {
	corpus := s.loreService.Corpus()

	type candidate struct {
		category string
		name     string
	}
	var undiscovered []candidate
	var all []candidate

	for _, category := range corpus.Categories() {
		seen := make(map[string]bool)
		names, err := s.progress.DiscoveredNames(ctx, userID, category)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			seen[n] = true
		}
		for _, name := range corpus.EntriesByCategory(category) {
			c := candidate{category: category, name: name}
			all = append(all, c)
			if !seen[name] {
				undiscovered = append(undiscovered, c)
			}
		}
	}

	if len(all) == 0 {
		return nil, apperrors.NewNotFoundError("the corpus is empty", nil)
	}

	pool := undiscovered
	isNew := true
	if len(pool) == 0 {
		pool = all
		isNew = false
	}

	pick := pool[rand.Intn(len(pool))]
	if isNew {
		if _, err := s.progress.MarkDiscovered(ctx, userID, pick.category, pick.name); err != nil {
			return nil, err
		}
	}

	content, _ := corpus.Entry(pick.name)
	return &Discovery{
		Category: pick.category,
		Name:     pick.name,
		Content:  content,
		New:      isNew,
	}, nil
}

// Collection returns everything the user has discovered, newest first.
func (s *ProgressService) Collection(ctx context.Context, userID string) ([]models.ProgressEntry, error) {
	return s.progress.All(ctx, userID)
}

// Status returns per-category discovery counts against the corpus totals.
func (s *ProgressService) Status(ctx context.Context, userID string) ([]models.CategoryStat, error) {
	corpus := s.loreService.Corpus()
	counts, err := s.progress.CountByCategory(ctx, userID)
	if err != nil {
		return nil, err
	}

	var stats []models.CategoryStat
	for _, category := range corpus.Categories() {
		stats = append(stats, models.CategoryStat{
			Category:   category,
			Discovered: counts[category],
			Total:      corpus.EntryCount(category),
		})
	}
	return stats, nil
}
