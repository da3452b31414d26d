// Package views keeps the open table views of the console, one Table
// Controller and one resolver cache per view.
package views

import (
	"context"
	"fmt"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/query"
	"github.com/yigit/schoolconsole/internal/app/resolver"
	"github.com/yigit/schoolconsole/internal/app/table"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

// ResourceTeachers is a users view restricted to the teacher role
const ResourceTeachers = "teachers"

// OpenRequest is the initial state of a new view
type OpenRequest struct {
	Mode     query.Mode     `json:"mode,omitempty"`
	PageSize int            `json:"pageSize,omitempty"`
	Sort     *query.Sort    `json:"sort,omitempty"`
	Filters  []query.Filter `json:"filters,omitempty"`
	Search   string         `json:"search,omitempty"`
}

// Patch changes a view. Absent fields are left alone.
// Changing filters, sort, page size or mode returns to the first page
// unless PageIndex is set too.
type Patch struct {
	Search      *string         `json:"search,omitempty"`
	FlushSearch bool            `json:"flushSearch,omitempty"`
	Filters     *[]query.Filter `json:"filters,omitempty"`
	Sort        *query.Sort     `json:"sort,omitempty"`
	PageIndex   *int            `json:"pageIndex,omitempty"`
	PageSize    *int            `json:"pageSize,omitempty"`
	Mode        *query.Mode     `json:"mode,omitempty"`
	Refresh     bool            `json:"refresh,omitempty"`
}

func (p Patch) changesState() bool {
	return p.Filters != nil || p.Sort != nil || p.PageIndex != nil || p.PageSize != nil || p.Mode != nil
}

// View is one open table
type View interface {
	Resource() string
	// Snapshot returns the table.Snapshot of the view's row type
	Snapshot() interface{}
	Update(ctx context.Context, p Patch) (interface{}, error)
	Close()
}

type tableView[T, R any] struct {
	resource string
	ctrl     *table.Controller[T, R]
	resolver *resolver.Resolver
}

func (v *tableView[T, R]) Resource() string {
	return v.resource
}

func (v *tableView[T, R]) Snapshot() interface{} {
	return v.ctrl.Snapshot()
}

func (v *tableView[T, R]) Update(ctx context.Context, p Patch) (interface{}, error) {
	if p.Search != nil {
		v.ctrl.SetSearch(*p.Search)
	}
	if p.FlushSearch {
		if _, err := v.ctrl.FlushSearch(ctx); err != nil {
			return v.ctrl.Snapshot(), err
		}
	}

	switch {
	case p.changesState():
		snap, err := v.ctrl.Update(ctx, func(s *table.State) {
			reset := false
			if p.Filters != nil {
				s.Filters = append([]query.Filter(nil), (*p.Filters)...)
				reset = true
			}
			if p.Sort != nil {
				s.Sort = *p.Sort
				reset = true
			}
			if p.PageSize != nil {
				s.PageSize = *p.PageSize
				reset = true
			}
			if p.Mode != nil {
				s.Mode = *p.Mode
				reset = true
			}
			if reset {
				s.PageIndex = 0
			}
			if p.PageIndex != nil {
				s.PageIndex = *p.PageIndex
			}
		})
		return snap, err
	case p.Refresh:
		v.resolver.Invalidate()
		snap, err := v.ctrl.Refresh(ctx)
		return snap, err
	}
	return v.ctrl.Snapshot(), nil
}

func (v *tableView[T, R]) Close() {
	v.ctrl.Close()
}

// build creates the view of resourceName without fetching
func (r *Registry) build(resourceName string, req OpenRequest) (View, error) {
	res := resolver.New(resolver.SourcesFrom(r.cols), r.cfg.Resolver)

	switch resourceName {
	case models.ResourceClasses:
		return newTableView(resourceName, res, tableOptions(r, req, table.Options[models.Class, resolver.ClassView]{
			Source: r.cols.Classes,
			Enrich: res.ResolveClasses,
		}))
	case models.ResourceSubjects:
		return newTableView(resourceName, res, tableOptions(r, req, table.Options[models.Subject, resolver.SubjectView]{
			Source: r.cols.Subjects,
			Enrich: res.ResolveSubjects,
		}))
	case models.ResourceDepartments:
		return newTableView(resourceName, res, tableOptions(r, req, table.Options[models.Department, models.Department]{
			Source: r.cols.Departments,
			Enrich: table.Identity[models.Department](),
		}))
	case models.ResourceUsers:
		return newTableView(resourceName, res, tableOptions(r, req, table.Options[models.User, models.User]{
			Source: r.cols.Users,
			Enrich: table.Identity[models.User](),
		}))
	case ResourceTeachers:
		opts := tableOptions(r, req, table.Options[models.User, models.User]{
			Source: r.cols.Users,
			Enrich: table.Identity[models.User](),
		})
		opts.BaseFilters = []query.Filter{{Field: "role", Operator: query.OperatorEq, Value: string(models.RoleTeacher)}}
		return newTableView(resourceName, res, opts)
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrUnknownResource, resourceName)
}

func tableOptions[T, R any](r *Registry, req OpenRequest, opts table.Options[T, R]) table.Options[T, R] {
	opts.Mode = req.Mode
	opts.PageSize = req.PageSize
	if opts.PageSize <= 0 {
		opts.PageSize = r.cfg.DefaultPageSize
	}
	opts.ClientPageSize = r.cfg.ClientPageSize
	opts.Sort = req.Sort
	opts.Filters = req.Filters
	opts.Search = req.Search
	opts.Debounce = r.cfg.Debounce
	opts.Logger = r.logger
	return opts
}

func newTableView[T, R any](resourceName string, res *resolver.Resolver, opts table.Options[T, R]) (View, error) {
	ctrl, err := table.New(opts)
	if err != nil {
		return nil, err
	}
	return &tableView[T, R]{resource: resourceName, ctrl: ctrl, resolver: res}, nil
}
