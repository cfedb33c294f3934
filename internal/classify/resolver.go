package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// Resolver finds or creates categories by name, serializing creation per
// category key so concurrent resolutions of the same logical category never
// produce duplicates. A Resolver is scoped to a single classification run:
// its cache is seeded from the user's categories at construction and grows as
// new ones are resolved.
type Resolver struct {
	store service.Storage
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string]*model.Category
}

// NewResolver creates a resolver seeded with the user's existing categories.
func NewResolver(store service.Storage, categories []model.Category) *Resolver {
	cache := make(map[string]*model.Category, len(categories))
	for i := range categories {
		cat := categories[i]
		cache[categoryKey(cat.Type, cat.Name)] = &cat
	}
	return &Resolver{
		store: store,
		locks: make(map[string]*sync.Mutex),
		cache: cache,
	}
}

func categoryKey(categoryType model.CategoryType, name string) string {
	return string(categoryType) + "-" + strings.ToLower(name)
}

// lockFor returns the mutex serializing resolution of one category key.
func (r *Resolver) lockFor(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}

func (r *Resolver) cached(key string) *model.Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache[key]
}

func (r *Resolver) remember(key string, cat *model.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = cat
}

// Resolve returns the user's category for (type, name), matched
// case-insensitively, creating it when absent. Creation is double-checked
// under the per-key lock to close the race between lookup and lock
// acquisition.
func (r *Resolver) Resolve(ctx context.Context, userID, name string, categoryType model.CategoryType) (*model.Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: category name", common.ErrInvalidInput)
	}

	key := categoryKey(categoryType, name)
	if cat := r.cached(key); cat != nil {
		return cat, nil
	}

	cat, err := r.store.FindCategoryByName(ctx, userID, categoryType, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	if cat != nil {
		r.remember(key, cat)
		return cat, nil
	}

	lock := r.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	// Another waiter may have resolved the category while we were blocked.
	if cat := r.cached(key); cat != nil {
		return cat, nil
	}
	cat, err = r.store.FindCategoryByName(ctx, userID, categoryType, name)
	if err != nil {
		return nil, fmt.Errorf("failed to re-check category %q: %w", name, err)
	}
	if cat == nil {
		style := StyleFor(name, categoryType)
		cat = &model.Category{
			UserID: userID,
			Name:   name,
			Type:   categoryType,
			Icon:   style.Icon,
			Color:  style.Color,
		}
		if createErr := r.store.CreateCategory(ctx, cat); createErr != nil {
			// A concurrent request outside this run may have won the insert.
			if errors.Is(createErr, common.ErrDuplicateEntry) {
				existing, findErr := r.store.FindCategoryByName(ctx, userID, categoryType, name)
				if findErr == nil && existing != nil {
					r.remember(key, existing)
					return existing, nil
				}
			}
			return nil, fmt.Errorf("failed to create category %q: %w", name, createErr)
		}
	}

	r.remember(key, cat)
	return cat, nil
}
