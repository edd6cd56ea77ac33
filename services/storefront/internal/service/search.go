package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/malikadeel12/TheGiftOasis-Frontend/services/storefront/internal/repository"
)

// MaxRecentSearches is how many search terms are remembered per client.
const MaxRecentSearches = 5

// RecordSearchInput holds a submitted search term.
type RecordSearchInput struct {
	Term string `json:"term" validate:"max=200"`
}

// SearchService remembers each client's recent search terms, most recent
// first, without duplicates.
type SearchService struct {
	repo  repository.SearchRepository
	locks *keyedMutex
}

// NewSearchService creates a new search service.
func NewSearchService(repo repository.SearchRepository) *SearchService {
	return &SearchService{repo: repo, locks: newKeyedMutex()}
}

// Recent returns up to MaxRecentSearches terms.
func (s *SearchService) Recent(ctx context.Context, clientID string) ([]string, error) {
	terms, err := s.repo.List(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("recent searches: %w", err)
	}
	if len(terms) > MaxRecentSearches {
		terms = terms[:MaxRecentSearches]
	}
	return terms, nil
}

// Record moves term to the front of the list. Blank terms are ignored.
func (s *SearchService) Record(ctx context.Context, clientID, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.Recent(ctx, clientID)
	}

	unlock := s.locks.Lock(clientID)
	defer unlock()

	saved, err := s.repo.List(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("record search: %w", err)
	}

	updated := make([]string, 0, MaxRecentSearches)
	updated = append(updated, term)
	for _, t := range saved {
		if len(updated) == MaxRecentSearches {
			break
		}
		if t != term {
			updated = append(updated, t)
		}
	}

	if err := s.repo.Save(ctx, clientID, updated); err != nil {
		return nil, fmt.Errorf("record search: %w", err)
	}
	return updated, nil
}

// Clear forgets all recent searches.
func (s *SearchService) Clear(ctx context.Context, clientID string) error {
	if err := s.repo.Delete(ctx, clientID); err != nil {
		return fmt.Errorf("clear searches: %w", err)
	}
	return nil
}
