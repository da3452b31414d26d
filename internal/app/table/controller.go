// Package table owns the state of one list view and keeps its visible
// rows in step with that state.
package table

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/query"
	"github.com/yigit/schoolconsole/internal/app/resource"
	"github.com/yigit/schoolconsole/internal/pkg/helpers"
)

// DefaultDebounce is the search debounce window
const DefaultDebounce = 300 * time.Millisecond

// DefaultSearchField is the field free-text search is matched against
const DefaultSearchField = "search"

// ErrClosed is returned by operations on a closed controller
var ErrClosed = errors.New("table controller closed")

// EnrichFunc turns fetched records into the rows a view displays
type EnrichFunc[T, R any] func(ctx context.Context, records []T) []R

// Identity publishes records unchanged
func Identity[T any]() EnrichFunc[T, T] {
	return func(_ context.Context, records []T) []T { return records }
}

// Options configures a Controller
type Options[T, R any] struct {
	Source resource.Lister[T]
	Enrich EnrichFunc[T, R]

	Mode           query.Mode
	PageSize       int
	ClientPageSize int
	Sort           *query.Sort
	// Filters and Search seed the editable state
	Filters []query.Filter
	Search  string
	// BaseFilters always apply and are not part of the editable state
	BaseFilters []query.Filter
	SearchField string
	Debounce    time.Duration
	Logger      zerolog.Logger
}

// State is the editable view state
type State struct {
	Search    string         `json:"search"`
	Filters   []query.Filter `json:"filters"`
	Sort      query.Sort     `json:"sort"`
	PageIndex int            `json:"pageIndex"`
	PageSize  int            `json:"pageSize"`
	Mode      query.Mode     `json:"mode"`
}

// Snapshot is what the view renders
type Snapshot[R any] struct {
	Rows      []R    `json:"rows"`
	Total     int64  `json:"total"`
	PageIndex int    `json:"pageIndex"`
	PageSize  int    `json:"pageSize"`
	PageCount int    `json:"pageCount"`
	Loading   bool   `json:"loading"`
	Error     string `json:"error,omitempty"`
	State     State  `json:"state"`
	// Truncated is set in client mode when the backend matched more rows
	// than one client-size fetch returned. Total then counts fetched rows
	// and BackendTotal counts matches.
	Truncated    bool  `json:"truncated,omitempty"`
	BackendTotal int64 `json:"backendTotal,omitempty"`

	Err error `json:"-"`
}

// clientCache holds the full result of one filter/sort state in client mode
type clientCache[T any] struct {
	key     string
	records []T
	total   int64
}

// Controller keeps one view's rows in step with its state.
// Responses for superseded state are discarded.
type Controller[T, R any] struct {
	src            resource.Lister[T]
	enrich         EnrichFunc[T, R]
	baseFilters    []query.Filter
	searchField    string
	clientPageSize int
	debounce       time.Duration
	logger         zerolog.Logger

	base context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	timer    *time.Timer
	pending  *string
	cache    *clientCache[T]
	snapshot Snapshot[R]
	closed   bool
}

// New creates a controller. Nothing is fetched until Refresh or a state change.
func New[T, R any](opts Options[T, R]) (*Controller[T, R], error) {
	if opts.Source == nil {
		return nil, errors.New("table: source is required")
	}
	if opts.Enrich == nil {
		return nil, errors.New("table: enrich func is required")
	}
	if opts.Mode == "" {
		opts.Mode = query.ModeServer
	}
	if opts.PageSize <= 0 {
		opts.PageSize = helpers.DefaultPageSize
	}
	if opts.ClientPageSize <= 0 {
		opts.ClientPageSize = query.DefaultClientPageSize
	}
	if opts.SearchField == "" {
		opts.SearchField = DefaultSearchField
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	sortSpec := query.DefaultSort
	if opts.Sort != nil {
		sortSpec = *opts.Sort
	}

	base, stop := context.WithCancel(context.Background())
	c := &Controller[T, R]{
		src:            opts.Source,
		enrich:         opts.Enrich,
		baseFilters:    append([]query.Filter(nil), opts.BaseFilters...),
		searchField:    opts.SearchField,
		clientPageSize: opts.ClientPageSize,
		debounce:       opts.Debounce,
		logger:         opts.Logger.With().Str("component", "table").Logger(),
		base:           base,
		stop:           stop,
		state: State{
			Search:   opts.Search,
			Filters:  append([]query.Filter(nil), opts.Filters...),
			Sort:     sortSpec,
			PageSize: opts.PageSize,
			Mode:     opts.Mode,
		},
	}

	if _, err := c.descriptor(c.state); err != nil {
		stop()
		return nil, err
	}
	c.snapshot = Snapshot[R]{Rows: []R{}, PageSize: opts.PageSize, PageCount: 1, State: c.state}
	return c, nil
}

// State returns the current view state
func (c *Controller[T, R]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyState()
}

// Snapshot returns the last published result
func (c *Controller[T, R]) Snapshot() Snapshot[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Refresh re-fetches the current state, bypassing the client-mode cache
func (c *Controller[T, R]) Refresh(ctx context.Context) (Snapshot[R], error) {
	c.mu.Lock()
	c.cache = nil
	c.mu.Unlock()
	return c.apply(ctx, func(*State) {})
}

// Update applies several state changes with a single fetch
func (c *Controller[T, R]) Update(ctx context.Context, mutate func(*State)) (Snapshot[R], error) {
	return c.apply(ctx, mutate)
}

// SetPage moves to a 0-based page. In client mode this re-slices the cached set.
func (c *Controller[T, R]) SetPage(ctx context.Context, index int) (Snapshot[R], error) {
	return c.apply(ctx, func(s *State) { s.PageIndex = index })
}

// SetPageSize changes the page size and returns to the first page
func (c *Controller[T, R]) SetPageSize(ctx context.Context, size int) (Snapshot[R], error) {
	return c.apply(ctx, func(s *State) {
		s.PageSize = size
		s.PageIndex = 0
	})
}

// SetSort changes the sort and returns to the first page
func (c *Controller[T, R]) SetSort(ctx context.Context, field string, order query.Order) (Snapshot[R], error) {
	return c.apply(ctx, func(s *State) {
		s.Sort = query.Sort{Field: field, Order: order}
		s.PageIndex = 0
	})
}

// SetFilters replaces the selected filters and returns to the first page
func (c *Controller[T, R]) SetFilters(ctx context.Context, filters ...query.Filter) (Snapshot[R], error) {
	return c.apply(ctx, func(s *State) {
		s.Filters = append([]query.Filter(nil), filters...)
		s.PageIndex = 0
	})
}

// SetMode switches between server and client pagination
func (c *Controller[T, R]) SetMode(ctx context.Context, mode query.Mode) (Snapshot[R], error) {
	return c.apply(ctx, func(s *State) {
		s.Mode = mode
		s.PageIndex = 0
	})
}

// SetSearch records search text and schedules a fetch once input has been
// quiet for the debounce window. Each call restarts the window.
func (c *Controller[T, R]) SetSearch(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.pending = &text
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.debounce == 0 {
		c.timer = nil
		go c.FlushSearch(c.base)
		return
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		if _, err := c.FlushSearch(c.base); err != nil {
			c.logger.Warn().Err(err).Msg("Debounced search rejected")
		}
	})
}

// FlushSearch applies pending search text now instead of waiting out the window
func (c *Controller[T, R]) FlushSearch(ctx context.Context) (Snapshot[R], error) {
	c.mu.Lock()
	if c.pending == nil {
		snap := c.snapshot
		c.mu.Unlock()
		return snap, nil
	}
	text := *c.pending
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	return c.apply(ctx, func(s *State) {
		s.Search = text
		s.PageIndex = 0
	})
}

// Close cancels pending work. The last snapshot stays readable.
func (c *Controller[T, R]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.stop()
}

func (c *Controller[T, R]) copyState() State {
	s := c.state
	s.Filters = append([]query.Filter(nil), c.state.Filters...)
	return s
}

func (c *Controller[T, R]) descriptor(s State) (query.Descriptor, error) {
	b := query.New().
		Filters(c.baseFilters...).
		Filters(s.Filters...).
		SortBy(s.Sort.Field, s.Sort.Order).
		Page(s.PageIndex, s.PageSize).
		Mode(s.Mode).
		ClientPageSize(c.clientPageSize)
	if s.Search != "" {
		b.Contains(c.searchField, s.Search)
	}
	return b.Build()
}

// apply validates the mutated state, makes it current and fetches it.
// The current page is part of every request.
func (c *Controller[T, R]) apply(ctx context.Context, mutate func(*State)) (Snapshot[R], error) {
	c.mu.Lock()
	if c.closed {
		snap := c.snapshot
		c.mu.Unlock()
		return snap, ErrClosed
	}

	next := c.copyState()
	mutate(&next)
	q, err := c.descriptor(next)
	if err != nil {
		snap := c.snapshot
		c.mu.Unlock()
		return snap, err
	}

	c.state = next
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	defer cancel()

	if next.Mode == query.ModeClient && c.cache != nil && c.cache.key == q.ResultKey() {
		records, total := c.cache.records, c.cache.total
		c.mu.Unlock()
		c.publishClient(fetchCtx, gen, next, q, records, total)
		return c.Snapshot(), nil
	}

	c.snapshot.Loading = true
	c.snapshot.State = next
	c.mu.Unlock()

	page, err := c.src.List(fetchCtx, q)
	if err != nil {
		c.publishError(gen, next, err)
		return c.Snapshot(), nil
	}

	if next.Mode == query.ModeClient {
		c.mu.Lock()
		if gen == c.gen {
			c.cache = &clientCache[T]{key: q.ResultKey(), records: page.Data, total: page.Total}
		}
		c.mu.Unlock()
		if page.Total > int64(len(page.Data)) {
			c.logger.Warn().
				Int("fetched", len(page.Data)).
				Int64("total", page.Total).
				Int("clientPageSize", q.ClientPageSize()).
				Msg("Client-mode fetch truncated, rows beyond the first page are not shown")
		}
		c.publishClient(fetchCtx, gen, next, q, page.Data, page.Total)
		return c.Snapshot(), nil
	}

	rows := c.enrich(fetchCtx, page.Data)
	c.publish(gen, Snapshot[R]{
		Rows:      rows,
		Total:     page.Total,
		PageIndex: next.PageIndex,
		PageSize:  next.PageSize,
		PageCount: helpers.PageCount(page.Total, next.PageSize),
		State:     next,
	})
	return c.Snapshot(), nil
}

// publishClient slices the client-mode set down to the current page.
// backendTotal is what the backend reported matching.
func (c *Controller[T, R]) publishClient(ctx context.Context, gen uint64, s State, q query.Descriptor, records []T, backendTotal int64) {
	start, end := q.Window(len(records))
	rows := c.enrich(ctx, records[start:end])
	total := int64(len(records))
	snap := Snapshot[R]{
		Rows:      rows,
		Total:     total,
		PageIndex: s.PageIndex,
		PageSize:  s.PageSize,
		PageCount: helpers.PageCount(total, s.PageSize),
		State:     s,
	}
	if backendTotal > total {
		snap.Truncated = true
		snap.BackendTotal = backendTotal
	}
	c.publish(gen, snap)
}

func (c *Controller[T, R]) publishError(gen uint64, s State, err error) {
	if gen == c.currentGen() {
		c.logger.Warn().Err(err).Msg("List failed")
	}
	c.publish(gen, Snapshot[R]{
		Rows:      []R{},
		PageIndex: s.PageIndex,
		PageSize:  s.PageSize,
		PageCount: 1,
		Error:     err.Error(),
		Err:       err,
		State:     s,
	})
}

func (c *Controller[T, R]) currentGen() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// publish stores snap unless a newer state has been applied since gen
func (c *Controller[T, R]) publish(gen uint64, snap Snapshot[R]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.logger.Debug().Uint64("generation", gen).Uint64("current", c.gen).Msg("Discarding stale response")
		return
	}
	if snap.Rows == nil {
		snap.Rows = []R{}
	}
	c.snapshot = snap
	c.cancel = nil
}
