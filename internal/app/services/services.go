// Package services submits console forms: typed payloads are normalized and
// validated before they reach the backend, and deletes are refused while
// dependent records exist.
//
// Services defined in this package:
// - DepartmentService: create/update/delete departments
// - SubjectService: create/update/delete subjects
// - ClassService: create/update/delete classes
// - UserService: create/update/delete users
package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yigit/schoolconsole/internal/app/query"
	"github.com/yigit/schoolconsole/internal/app/resource"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
	"github.com/yigit/schoolconsole/internal/pkg/validation"
)

// Services bundles the record services of every resource
type Services struct {
	Departments *DepartmentService
	Subjects    *SubjectService
	Classes     *ClassService
	Users       *UserService
}

// NewServices wires every record service to cols. The services share one submission guard.
func NewServices(cols *resource.Collections, lgr zerolog.Logger) *Services {
	guard := newSubmissionGuard()
	lgr = lgr.With().Str("component", "services").Logger()
	return &Services{
		Departments: &DepartmentService{cols: cols, guard: guard, logger: lgr},
		Subjects:    &SubjectService{cols: cols, guard: guard, logger: lgr},
		Classes:     &ClassService{cols: cols, guard: guard, logger: lgr},
		Users:       &UserService{cols: cols, guard: guard, logger: lgr},
	}
}

type formKeyCtx struct{}

// WithFormKey scopes the double-submit guard to one form instance.
// Without it every create form of a resource shares a key, as does every edit form of a record.
func WithFormKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, formKeyCtx{}, key)
}

func formKey(ctx context.Context, resourceName, fallback string) string {
	if key, ok := ctx.Value(formKeyCtx{}).(string); ok {
		return resourceName + "/" + key
	}
	return resourceName + "/" + fallback
}

func recordKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

// submissionGuard tracks forms whose submit has not returned yet
type submissionGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func newSubmissionGuard() *submissionGuard {
	return &submissionGuard{inflight: make(map[string]struct{})}
}

// acquire marks key in flight. The returned func releases it.
func (g *submissionGuard) acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, fmt.Errorf("%s: %w", key, apperrors.ErrSubmissionInFlight)
	}
	g.inflight[key] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
	}, nil
}

// normalizer is implemented by payloads with fields to fix up before validation
type normalizer interface {
	Normalize()
}

// submit normalizes and validates payload, then runs send under the guard
func submit[T any](ctx context.Context, guard *submissionGuard, key, resourceName string, payload interface{}, send func() (T, error)) (T, error) {
	var zero T
	if n, ok := payload.(normalizer); ok {
		n.Normalize()
	}
	if err := validation.Struct(resourceName, payload); err != nil {
		return zero, err
	}

	release, err := guard.acquire(key)
	if err != nil {
		return zero, err
	}
	defer release()

	return send()
}

// dependentCount is the read side of a collection a delete check needs
type dependentCount interface {
	Count(ctx context.Context, q query.Descriptor) (int64, error)
}

// refuseWithDependents returns a conflict error when records in deps reference id through field
func refuseWithDependents(ctx context.Context, deps dependentCount, resourceName, depName, field string, id int64) error {
	q, err := query.New().EqInt(field, id).Build()
	if err != nil {
		return err
	}
	n, err := deps.Count(ctx, q)
	if err != nil {
		return fmt.Errorf("check %s referencing %s %d: %w", depName, resourceName, id, err)
	}
	if n > 0 {
		return apperrors.NewConflictError(resourceName,
			fmt.Sprintf("cannot delete: %d %s still reference this record", n, depName))
	}
	return nil
}
