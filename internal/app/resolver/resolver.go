// Package resolver denormalizes foreign keys into display-ready projections
// and builds the id/label lists that selection controls consume.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/query"
	"github.com/yigit/schoolconsole/internal/app/resource"
	"github.com/yigit/schoolconsole/internal/config"
)

// UnresolvedName labels a foreign key whose record is deleted or not loaded
const UnresolvedName = "Unknown"

// DefaultLookupPageSize caps every lookup list
const DefaultLookupPageSize = 100

// Mode selects where joins happen
type Mode string

const (
	// ModeBackend trusts summaries embedded by the backend
	ModeBackend Mode = config.ResolverModeBackend
	// ModeClient looks related records up and joins in memory
	ModeClient Mode = config.ResolverModeClient
)

// Lookup names a related collection the resolver can load
type Lookup string

const (
	LookupDepartments Lookup = "departments"
	LookupSubjects    Lookup = "subjects"
	LookupTeachers    Lookup = "teachers"
)

// Sources are the collections lookups are read from
type Sources struct {
	Departments resource.Lister[models.Department]
	Subjects    resource.Lister[models.Subject]
	Users       resource.Lister[models.User]
}

// SourcesFrom adapts the typed collections
func SourcesFrom(cols *resource.Collections) Sources {
	return Sources{
		Departments: cols.Departments,
		Subjects:    cols.Subjects,
		Users:       cols.Users,
	}
}

// Options configures a Resolver
type Options struct {
	Mode           Mode
	LookupPageSize int
	Logger         zerolog.Logger
}

// Resolver joins related records for one view. Its lookup cache lives as long as the view.
type Resolver struct {
	src      Sources
	mode     Mode
	pageSize int
	logger   zerolog.Logger

	// loadMu serializes lookup loading so concurrent resolves share one fetch
	loadMu sync.Mutex

	mu          sync.RWMutex
	departments map[int64]models.DepartmentSummary
	subjects    map[int64]models.SubjectSummary
	teachers    map[int64]models.UserSummary
	loaded      map[Lookup]bool
}

// New creates a resolver over src
func New(src Sources, opts Options) *Resolver {
	if opts.Mode == "" {
		opts.Mode = ModeBackend
	}
	if opts.LookupPageSize <= 0 || opts.LookupPageSize > DefaultLookupPageSize {
		opts.LookupPageSize = DefaultLookupPageSize
	}
	return &Resolver{
		src:      src,
		mode:     opts.Mode,
		pageSize: opts.LookupPageSize,
		logger:   opts.Logger.With().Str("component", "resolver").Logger(),
		loaded:   make(map[Lookup]bool),
	}
}

// Mode returns the join strategy in use
func (r *Resolver) Mode() Mode {
	return r.mode
}

// Invalidate drops every cached lookup
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.departments, r.subjects, r.teachers = nil, nil, nil
	r.loaded = make(map[Lookup]bool)
}

func (r *Resolver) isLoaded(l Lookup) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded[l]
}

// Load fetches the named lookups that are not cached yet, in parallel.
// A failed lookup stays unloaded and is retried on the next call; the
// returned error only reports what failed.
func (r *Resolver) Load(ctx context.Context, lookups ...Lookup) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	var (
		errMu sync.Mutex
		errs  []error
	)
	g, gCtx := errgroup.WithContext(ctx)

	for _, l := range lookups {
		l := l
		if r.isLoaded(l) {
			continue
		}
		g.Go(func() error {
			if err := r.loadOne(gCtx, l); err != nil {
				r.logger.Warn().Err(err).Str("lookup", string(l)).Msg("Lookup failed, rendering unresolved placeholders")
				errMu.Lock()
				errs = append(errs, fmt.Errorf("load %s: %w", l, err))
				errMu.Unlock()
			}
			// lookup failures must not cancel sibling lookups
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (r *Resolver) lookupQuery(b *query.Builder) (query.Descriptor, error) {
	return b.SortBy("id", query.OrderAsc).Page(0, r.pageSize).Build()
}

func (r *Resolver) loadOne(ctx context.Context, l Lookup) error {
	switch l {
	case LookupDepartments:
		if r.src.Departments == nil {
			return errors.New("no department source")
		}
		q, err := r.lookupQuery(query.New())
		if err != nil {
			return err
		}
		page, err := r.src.Departments.List(ctx, q)
		if err != nil {
			return err
		}
		m := make(map[int64]models.DepartmentSummary, len(page.Data))
		for _, d := range page.Data {
			m[d.ID] = d.Summary()
		}
		r.mu.Lock()
		r.departments, r.loaded[l] = m, true
		r.mu.Unlock()

	case LookupSubjects:
		if r.src.Subjects == nil {
			return errors.New("no subject source")
		}
		q, err := r.lookupQuery(query.New())
		if err != nil {
			return err
		}
		page, err := r.src.Subjects.List(ctx, q)
		if err != nil {
			return err
		}
		m := make(map[int64]models.SubjectSummary, len(page.Data))
		for _, s := range page.Data {
			m[s.ID] = s.Summary()
		}
		r.mu.Lock()
		r.subjects, r.loaded[l] = m, true
		r.mu.Unlock()

	case LookupTeachers:
		if r.src.Users == nil {
			return errors.New("no user source")
		}
		q, err := r.lookupQuery(query.New().Eq("role", string(models.RoleTeacher)))
		if err != nil {
			return err
		}
		page, err := r.src.Users.List(ctx, q)
		if err != nil {
			return err
		}
		m := make(map[int64]models.UserSummary, len(page.Data))
		for _, u := range page.Data {
			if u.Role == models.RoleTeacher {
				m[u.ID] = u.Summary()
			}
		}
		r.mu.Lock()
		r.teachers, r.loaded[l] = m, true
		r.mu.Unlock()

	default:
		return fmt.Errorf("unknown lookup %q", l)
	}
	return nil
}

// Options returns id/label pairs for a selection control, sorted by label
func (r *Resolver) Options(ctx context.Context, l Lookup) ([]dto.Option, error) {
	if err := r.Load(ctx, l); err != nil {
		return []dto.Option{}, err
	}

	r.mu.RLock()
	opts := make([]dto.Option, 0)
	switch l {
	case LookupDepartments:
		for id, d := range r.departments {
			opts = append(opts, dto.Option{Value: id, Label: d.Name})
		}
	case LookupSubjects:
		for id, s := range r.subjects {
			opts = append(opts, dto.Option{Value: id, Label: s.Name})
		}
	case LookupTeachers:
		for id, u := range r.teachers {
			opts = append(opts, dto.Option{Value: id, Label: u.Name})
		}
	}
	r.mu.RUnlock()

	sort.Slice(opts, func(i, j int) bool {
		if opts[i].Label == opts[j].Label {
			return opts[i].Value < opts[j].Value
		}
		return opts[i].Label < opts[j].Label
	})
	return opts, nil
}

// FilterValues returns the distinct names offered by a name filter.
// The set comes from the loaded related list, not from the rows being filtered.
func (r *Resolver) FilterValues(ctx context.Context, l Lookup) ([]string, error) {
	opts, err := r.Options(ctx, l)
	seen := make(map[string]bool, len(opts))
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		if !seen[o.Label] {
			seen[o.Label] = true
			names = append(names, o.Label)
		}
	}
	return names, err
}
