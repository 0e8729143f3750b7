// Package service provides business logic for the application.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/custograph/custograph/internal/cache"
	"github.com/custograph/custograph/internal/filter"
	"github.com/custograph/custograph/internal/handler/dto"
	"github.com/custograph/custograph/internal/metrics"
	"github.com/custograph/custograph/internal/model"
	"github.com/custograph/custograph/internal/pagination"
	"github.com/custograph/custograph/internal/repository"
)

// Service errors.
var (
	ErrInvalidFilter = errors.New("invalid filter parameters")
	ErrInvalidCursor = errors.New("invalid pagination cursor")
	ErrPageNotFound  = errors.New("page not found")
)

// UserStore executes filtered user listings against the store.
type UserStore interface {
	ListAppUsers(ctx context.Context, spec filter.Spec, order repository.Ordering, limit, offset int) (*repository.UserPage, error)
	ListAppUsersCursor(ctx context.Context, spec filter.Spec, cursor string, limit int) ([]model.AppUser, string, error)
}

// PageCache stores serialized response pages keyed by request signature.
type PageCache interface {
	GetPage(ctx context.Context, key string) ([]byte, error)
	SetPage(ctx context.Context, key string, payload []byte, ttl time.Duration) error
}

// AppUserService orchestrates the listing pipeline: cache lookup, filter
// construction, query execution, pagination, and cache store. Concurrent
// identical requests may both miss and both recompute; the page is a
// pure function of the request signature, so the last write wins without
// harm.
type AppUserService struct {
	store   UserStore
	cache   PageCache
	ttl     time.Duration
	metrics metrics.Recorder
}

// NewAppUserService creates a new AppUserService. A zero ttl falls back
// to the default page TTL.
func NewAppUserService(store UserStore, pageCache PageCache, ttl time.Duration, recorder metrics.Recorder) *AppUserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if ttl <= 0 {
		ttl = cache.DefaultPageTTL
	}
	return &AppUserService{
		store:   store,
		cache:   pageCache,
		ttl:     ttl,
		metrics: recorder,
	}
}

// ListInput identifies one listing request: its path and the full query
// parameter set, both of which feed the cache signature.
type ListInput struct {
	Path  string
	Query url.Values
}

// List serves a page-number listing request. On a cache hit the cached
// envelope is returned with zero query time; on a miss the page is
// computed, stored with the service TTL, and returned.
func (s *AppUserService) List(ctx context.Context, in ListInput) (*dto.AppUserListResponse, error) {
	key := cache.PageKey(cache.Signature(in.Path, in.Query))

	payload, err := s.cache.GetPage(ctx, key)
	if err == nil {
		var resp dto.AppUserListResponse
		if unmarshalErr := json.Unmarshal(payload, &resp); unmarshalErr == nil {
			resp.Meta = dto.Meta{CacheHit: true}
			s.metrics.IncListCacheHit()
			return &resp, nil
		}
		// A corrupt entry is recomputed and overwritten below.
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}
	s.metrics.IncListCacheMiss()

	spec := filter.Build(in.Query)
	order := repository.ParseOrdering(in.Query.Get("ordering"))
	params := pagination.ParseParams(in.Query.Get("page"), in.Query.Get("page_size"))

	queryStart := time.Now()
	page, err := s.store.ListAppUsers(ctx, spec, order, params.Size, params.Offset())
	queryTime := time.Since(queryStart)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidFilter) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidFilter, err)
		}
		return nil, fmt.Errorf("listing query failed: %w", err)
	}
	s.metrics.ObserveQueryDuration(queryTime)
	s.metrics.ObserveResultCount(len(page.Users))

	pages := pagination.Pages(page.Total, params.Size)
	if params.Page > pages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageNotFound, params.Page, pages)
	}

	resp := &dto.AppUserListResponse{
		Count:   page.Total,
		Page:    params.Page,
		Pages:   pages,
		Results: dto.ToAppUserResponses(page.Users),
		Meta:    dto.Meta{QueryTime: queryTime.Seconds()},
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize page: %w", err)
	}
	if err := s.cache.SetPage(ctx, key, encoded, s.ttl); err != nil {
		return nil, fmt.Errorf("cache store failed: %w", err)
	}

	return resp, nil
}

// ListCursor serves a cursor-mode listing request with a fixed page size
// and stable created-descending ordering.
func (s *AppUserService) ListCursor(ctx context.Context, in ListInput) (*dto.AppUserCursorResponse, error) {
	key := cache.PageKey(cache.Signature(in.Path, in.Query))

	payload, err := s.cache.GetPage(ctx, key)
	if err == nil {
		var resp dto.AppUserCursorResponse
		if unmarshalErr := json.Unmarshal(payload, &resp); unmarshalErr == nil {
			resp.Meta = dto.Meta{CacheHit: true}
			s.metrics.IncListCacheHit()
			return &resp, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		return nil, fmt.Errorf("cache lookup failed: %w", err)
	}
	s.metrics.IncListCacheMiss()

	spec := filter.Build(in.Query)

	queryStart := time.Now()
	users, next, err := s.store.ListAppUsersCursor(ctx, spec, in.Query.Get("cursor"), pagination.CursorPageSize)
	queryTime := time.Since(queryStart)
	if err != nil {
		switch {
		case errors.Is(err, pagination.ErrInvalidCursor):
			return nil, fmt.Errorf("%w: %s", ErrInvalidCursor, err)
		case errors.Is(err, repository.ErrInvalidFilter):
			return nil, fmt.Errorf("%w: %s", ErrInvalidFilter, err)
		}
		return nil, fmt.Errorf("listing query failed: %w", err)
	}
	s.metrics.ObserveQueryDuration(queryTime)
	s.metrics.ObserveResultCount(len(users))

	resp := &dto.AppUserCursorResponse{
		NextCursor: next,
		Results:    dto.ToAppUserResponses(users),
		Meta:       dto.Meta{QueryTime: queryTime.Seconds()},
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize page: %w", err)
	}
	if err := s.cache.SetPage(ctx, key, encoded, s.ttl); err != nil {
		return nil, fmt.Errorf("cache store failed: %w", err)
	}

	return resp, nil
}
