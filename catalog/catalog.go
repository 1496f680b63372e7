package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"food-order-bot/apperr"
	"food-order-bot/models"
)

// Catalog is the read-only menu lookup used by the extractor and the order aggregate.
// Name, partial and category lookups skip unavailable items; GetItem does not.
type Catalog interface {
	FindItemsByExactName(name string) []models.MenuItem
	FindItemsByPartialName(fragment string) []models.MenuItem
	GetItem(id string) (*models.MenuItem, error)
	GetCategory(id string) (*models.Category, error)
	PopularItems(ctx context.Context, n int) ([]models.MenuItem, error)
	Categories() []models.Category
	ItemsInCategory(categoryID string) []models.MenuItem
	ItemsByCourse(course models.Course) []models.MenuItem
	ItemsByTag(tag string) []models.MenuItem
	Items() []models.MenuItem
}

// Source provides the menu rows a Service snapshots
type Source interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Items(ctx context.Context) ([]models.MenuItem, error)
}

// Ranker orders item ids by popularity (most ordered first)
type Ranker interface {
	PopularItemIDs(ctx context.Context, n int) ([]string, error)
}

// Service serves lookups from an in-memory snapshot of the menu
type Service struct {
	mu         sync.RWMutex
	categories []models.Category
	items      []models.MenuItem
	itemIdx    map[string]int
	catIdx     map[string]int
	ranker     Ranker
}

// New builds a service over a fixed menu. ranker may be nil.
func New(categories []models.Category, items []models.MenuItem, ranker Ranker) *Service {
	s := &Service{ranker: ranker}
	s.swap(categories, items)
	return s
}

// Load snapshots the menu from src
func Load(ctx context.Context, src Source, ranker Ranker) (*Service, error) {
	s := &Service{ranker: ranker}
	if err := s.Reload(ctx, src); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the snapshot. Readers see either the old or the new menu, never a mix.
func (s *Service) Reload(ctx context.Context, src Source) error {
	cats, err := src.Categories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	items, err := src.Items(ctx)
	if err != nil {
		return fmt.Errorf("load menu items: %w", err)
	}
	s.swap(cats, items)
	return nil
}

func (s *Service) swap(categories []models.Category, items []models.MenuItem) {
	cats := append([]models.Category(nil), categories...)
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].SortOrder < cats[j].SortOrder })
	catIdx := make(map[string]int, len(cats))
	for i, c := range cats {
		catIdx[c.ID] = i
	}

	its := append([]models.MenuItem(nil), items...)
	rank := func(m models.MenuItem) int {
		if i, ok := catIdx[m.CategoryID]; ok {
			return i
		}
		return len(cats)
	}
	sort.SliceStable(its, func(i, j int) bool { return rank(its[i]) < rank(its[j]) })
	itemIdx := make(map[string]int, len(its))
	for i := range its {
		sort.SliceStable(its[i].Options, func(a, b int) bool {
			return its[i].Options[a].SortOrder < its[i].Options[b].SortOrder
		})
		itemIdx[its[i].ID] = i
	}

	s.mu.Lock()
	s.categories, s.catIdx = cats, catIdx
	s.items, s.itemIdx = its, itemIdx
	s.mu.Unlock()
}

func (s *Service) filter(keep func(*models.MenuItem) bool) []models.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MenuItem
	for i := range s.items {
		if s.items[i].IsAvailable && keep(&s.items[i]) {
			out = append(out, s.items[i])
		}
	}
	return out
}

// FindItemsByExactName matches names case-insensitively
func (s *Service) FindItemsByExactName(name string) []models.MenuItem {
	name = strings.TrimSpace(name)
	return s.filter(func(m *models.MenuItem) bool { return strings.EqualFold(m.Name, name) })
}

// FindItemsByPartialName matches a substring of the name or description, case-insensitively
func (s *Service) FindItemsByPartialName(fragment string) []models.MenuItem {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if fragment == "" {
		return nil
	}
	return s.filter(func(m *models.MenuItem) bool {
		return strings.Contains(strings.ToLower(m.Name), fragment) ||
			strings.Contains(strings.ToLower(m.Description), fragment)
	})
}

func (s *Service) GetItem(id string) (*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.itemIdx[id]
	if !ok {
		return nil, apperr.NotFound("menu item", id)
	}
	item := s.items[i]
	return &item, nil
}

func (s *Service) GetCategory(id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.catIdx[id]
	if !ok {
		return nil, apperr.NotFound("category", id)
	}
	c := s.categories[i]
	return &c, nil
}

func (s *Service) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Category(nil), s.categories...)
}

func (s *Service) Items() []models.MenuItem {
	return s.filter(func(*models.MenuItem) bool { return true })
}

func (s *Service) ItemsInCategory(categoryID string) []models.MenuItem {
	return s.filter(func(m *models.MenuItem) bool { return m.CategoryID == categoryID })
}

func (s *Service) ItemsByCourse(course models.Course) []models.MenuItem {
	s.mu.RLock()
	ids := map[string]bool{}
	for _, c := range s.categories {
		if c.Course == course {
			ids[c.ID] = true
		}
	}
	s.mu.RUnlock()
	return s.filter(func(m *models.MenuItem) bool { return ids[m.CategoryID] })
}

func (s *Service) ItemsByTag(tag string) []models.MenuItem {
	return s.filter(func(m *models.MenuItem) bool { return m.HasTag(tag) })
}

// PopularItems returns up to n available items, ranked by the Ranker and padded
// with menu order when the ranking is short or unavailable.
func (s *Service) PopularItems(ctx context.Context, n int) ([]models.MenuItem, error) {
	if n <= 0 {
		return nil, nil
	}
	var ranked []string
	if s.ranker != nil {
		ids, err := s.ranker.PopularItemIDs(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("rank popular items: %w", err)
		}
		ranked = ids
	}

	out := make([]models.MenuItem, 0, n)
	seen := map[string]bool{}
	for _, id := range ranked {
		item, err := s.GetItem(id)
		if err != nil || !item.IsAvailable || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, *item)
		if len(out) == n {
			return out, nil
		}
	}
	for _, item := range s.Items() {
		if len(out) == n {
			break
		}
		if !seen[item.ID] {
			seen[item.ID] = true
			out = append(out, item)
		}
	}
	return out, nil
}
