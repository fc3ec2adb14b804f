package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"haul/internal/domain"
	"haul/internal/logging"
	"haul/internal/redis"
)

const defaultPageSize = 20

// LoadFilters narrows the fetched loads. Nil bounds and empty strings are
// inactive.
type LoadFilters struct {
	MinPrice    *float64 `json:"minPrice,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`
	MinWeight   *float64 `json:"minWeight,omitempty"`
	MaxWeight   *float64 `json:"maxWeight,omitempty"`
	CargoType   string   `json:"cargoType,omitempty"`
	Origin      string   `json:"origin,omitempty"`
	Destination string   `json:"destination,omitempty"`
}

// ActiveCount returns how many filters are set.
func (f LoadFilters) ActiveCount() int {
	n := 0
	for _, b := range []*float64{f.MinPrice, f.MaxPrice, f.MinWeight, f.MaxWeight} {
		if b != nil {
			n++
		}
	}
	for _, s := range []string{f.CargoType, f.Origin, f.Destination} {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// ApplyFilters returns the loads matching search and filters, in their
// original order. It does not modify loads.
func ApplyFilters(loads []domain.Load, search string, f LoadFilters) []domain.Load {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]domain.Load, 0, len(loads))
	for _, l := range loads {
		if search != "" && !matchesSearch(l, search) {
			continue
		}
		if !matchesFilters(l, f) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func matchesSearch(l domain.Load, q string) bool {
	for _, field := range []string{l.OriginCity, l.DestinationCity, l.CargoType, l.DisplayID} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func matchesFilters(l domain.Load, f LoadFilters) bool {
	if f.MinPrice != nil && l.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && l.Price > *f.MaxPrice {
		return false
	}
	if f.MinWeight != nil && l.Weight < *f.MinWeight {
		return false
	}
	if f.MaxWeight != nil && l.Weight > *f.MaxWeight {
		return false
	}
	return containsFold(l.CargoType, f.CargoType) &&
		containsFold(l.OriginCity, f.Origin) &&
		containsFold(l.DestinationCity, f.Destination)
}

func containsFold(field, sub string) bool {
	sub = strings.TrimSpace(sub)
	return sub == "" || strings.Contains(strings.ToLower(field), strings.ToLower(sub))
}

// LoadService keeps the paginated load directory. Search and filters apply
// only to pages already fetched.
type LoadService struct {
	backend  LoadBackend
	cache    redis.LoadCacheInterface
	pageSize int
	log      *slog.Logger

	mu         sync.RWMutex
	loads      []domain.Load
	pagination domain.Pagination
	search     string
	filters    LoadFilters
	// fetching counts requests in flight; gen changes on every reset so
	// pages requested before it are dropped.
	fetching int
	gen      uint64
}

// NewLoadService creates a new LoadService. cache may be nil.
func NewLoadService(backend LoadBackend, cache redis.LoadCacheInterface, pageSize int, log *slog.Logger) *LoadService {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &LoadService{
		backend:  backend,
		cache:    cache,
		pageSize: pageSize,
		log:      log,
	}
}

// FetchPage fetches one page. reset replaces the fetched set; otherwise the
// page is appended as-is.
func (s *LoadService) FetchPage(ctx context.Context, page int, reset bool) error {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	s.fetching++
	if reset {
		s.gen++
	}
	gen := s.gen
	s.mu.Unlock()

	_, err := s.fetch(ctx, page, reset, gen)
	return err
}

// fetch requests page and applies it unless a reset happened since gen.
// The caller has already counted the request in fetching.
func (s *LoadService) fetch(ctx context.Context, page int, reset bool, gen uint64) (bool, error) {
	resp, err := s.backend.ListLoads(ctx, page, s.pageSize)

	s.mu.Lock()
	s.fetching--
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if gen != s.gen {
		s.mu.Unlock()
		logging.Info(ctx, s.log, "loads_fetch", "dropped page fetched before refresh", "page", page)
		return false, nil
	}
	if reset {
		s.loads = append([]domain.Load(nil), resp.Loads...)
	} else {
		s.loads = append(s.loads, resp.Loads...)
	}
	s.pagination = resp.Pagination
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.SetLoadsBatch(ctx, resp.Loads); err != nil {
			logging.Warn(ctx, s.log, "loads_cache", "failed to cache page", err, "page", page)
		}
	}
	return true, nil
}

// Refresh reloads the first page.
func (s *LoadService) Refresh(ctx context.Context) error {
	return s.FetchPage(ctx, 1, true)
}

// LoadMore appends the next page. It reports false when there is nothing
// more to fetch or a fetch is already running.
func (s *LoadService) LoadMore(ctx context.Context) (bool, error) {
	s.mu.Lock()
	p := s.pagination
	if s.fetching > 0 || p.Page >= p.Pages {
		s.mu.Unlock()
		return false, nil
	}
	s.fetching++
	gen := s.gen
	s.mu.Unlock()

	return s.fetch(ctx, p.Page+1, false, gen)
}

// SetSearch sets the free-text search.
func (s *LoadService) SetSearch(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = q
}

// SetFilters replaces the active filters.
func (s *LoadService) SetFilters(f LoadFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
}

// ClearFilters removes every filter and the search text.
func (s *LoadService) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = LoadFilters{}
	s.search = ""
}

// ActiveFilterCount returns the number of active filters.
func (s *LoadService) ActiveFilterCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters.ActiveCount()
}

// Visible returns the fetched loads that pass search and filters.
func (s *LoadService) Visible() []domain.Load {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ApplyFilters(s.loads, s.search, s.filters)
}

// All returns every fetched load.
func (s *LoadService) All() []domain.Load {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Load(nil), s.loads...)
}

// Pagination returns the pagination of the last fetched page.
func (s *LoadService) Pagination() domain.Pagination {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// Get returns a load, served from cache when fresh.
func (s *LoadService) Get(ctx context.Context, id string) (*domain.Load, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidLoadID
	}

	if s.cache != nil {
		cached, err := s.cache.GetLoad(ctx, id)
		if err != nil {
			logging.Warn(ctx, s.log, "loads_cache", "cache read failed", err, "load_id", id)
		} else if cached != nil {
			return cached, nil
		}
	}

	load, err := s.backend.GetLoad(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLoad(ctx, load); err != nil {
			logging.Warn(ctx, s.log, "loads_cache", "cache write failed", err, "load_id", id)
		}
	}
	return load, nil
}
