package views

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/resolver"
	"github.com/yigit/schoolconsole/internal/app/resource"
	"github.com/yigit/schoolconsole/internal/app/table"
	"github.com/yigit/schoolconsole/internal/config"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

// DefaultMaxOpen bounds the number of views kept at once
const DefaultMaxOpen = 256

// Config tunes the views a Registry opens
type Config struct {
	Resolver        resolver.Options
	Debounce        time.Duration
	DefaultPageSize int
	ClientPageSize  int
	MaxOpen         int
}

// ConfigFrom reads the view settings out of the console configuration
func ConfigFrom(cfg *config.Config, lgr zerolog.Logger) Config {
	return Config{
		Resolver: resolver.Options{
			Mode:           resolver.Mode(cfg.Resolver.Mode),
			LookupPageSize: cfg.Resolver.LookupPageSize,
			Logger:         lgr,
		},
		Debounce:        cfg.Table.DebounceWindow,
		DefaultPageSize: cfg.Table.DefaultPageSize,
		ClientPageSize:  cfg.Backend.ClientPageSize,
		MaxOpen:         cfg.Table.MaxOpenViews,
	}
}

type entry struct {
	view     View
	lastUsed time.Time
}

// Registry holds the open views by id. Views do not share state.
type Registry struct {
	cols   *resource.Collections
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	views map[string]*entry
}

// NewRegistry creates an empty registry over cols
func NewRegistry(cols *resource.Collections, cfg Config, lgr zerolog.Logger) *Registry {
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = DefaultMaxOpen
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = table.DefaultDebounce
	}
	return &Registry{
		cols:   cols,
		cfg:    cfg,
		logger: lgr.With().Str("component", "views").Logger(),
		now:    time.Now,
		views:  make(map[string]*entry),
	}
}

func viewNotFound(id string) error {
	return &apperrors.CustomError{
		Err:        apperrors.ErrNotFound,
		Message:    "view " + id + " is not open",
		Resource:   "views",
		StatusCode: 404,
	}
}

// Open creates a view of resourceName, loads its first page and returns its id.
// When the registry is full the least recently used view is closed.
func (r *Registry) Open(ctx context.Context, resourceName string, req OpenRequest) (string, interface{}, error) {
	view, err := r.build(resourceName, req)
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	r.mu.Lock()
	for len(r.views) >= r.cfg.MaxOpen {
		r.evictOldest()
	}
	r.views[id] = &entry{view: view, lastUsed: r.now()}
	r.mu.Unlock()

	snap, err := view.Update(ctx, Patch{Refresh: true})
	if err != nil {
		_ = r.Close(id)
		return "", nil, err
	}
	r.logger.Debug().Str("view", id).Str("resource", resourceName).Msg("View opened")
	return id, snap, nil
}

// evictOldest closes the least recently used view. Caller holds mu.
func (r *Registry) evictOldest() {
	ids := make([]string, 0, len(r.views))
	for id := range r.views {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.views[ids[i]].lastUsed.Before(r.views[ids[j]].lastUsed)
	})
	if len(ids) == 0 {
		return
	}
	oldest := ids[0]
	r.views[oldest].view.Close()
	delete(r.views, oldest)
	r.logger.Info().Str("view", oldest).Msg("Evicted least recently used view")
}

// Get returns an open view
func (r *Registry) Get(id string) (View, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.views[id]
	if !ok {
		return nil, viewNotFound(id)
	}
	e.lastUsed = r.now()
	return e.view, nil
}

// Update applies p to view id and returns its snapshot
func (r *Registry) Update(ctx context.Context, id string, p Patch) (interface{}, error) {
	view, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	return view.Update(ctx, p)
}

// Close closes view id
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	e, ok := r.views[id]
	delete(r.views, id)
	r.mu.Unlock()
	if !ok {
		return viewNotFound(id)
	}
	e.view.Close()
	return nil
}

// CloseAll closes every view
func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := r.views
	r.views = make(map[string]*entry)
	r.mu.Unlock()
	for _, e := range open {
		e.view.Close()
	}
}

// Len returns the number of open views
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
