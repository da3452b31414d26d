package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/query"
	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
	"github.com/yigit/schoolconsole/internal/pkg/validation"
)

// Page is one list answer: the requested slice plus the total match count
type Page[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}

// Lister is the read side a table needs
type Lister[T any] interface {
	List(ctx context.Context, q query.Descriptor) (Page[T], error)
}

// normalizer is implemented by records that fix up loosely typed fields on receipt
type normalizer interface {
	Normalize()
}

// Collection is a typed view of one backend resource
type Collection[T any] struct {
	client *Client
	name   string
}

// NewCollection binds a record type to a resource name
func NewCollection[T any](client *Client, name string) *Collection[T] {
	return &Collection[T]{client: client, name: name}
}

// Name returns the resource name
func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) basePath() string {
	return "/api/" + c.name
}

func (c *Collection[T]) recordPath(id int64) string {
	return c.basePath() + "/" + strconv.FormatInt(id, 10)
}

// List returns the records matching q. Safe to retry.
func (c *Collection[T]) List(ctx context.Context, q query.Descriptor) (Page[T], error) {
	raw, err := c.client.do(ctx, request{
		operation:  "list",
		resource:   c.name,
		method:     http.MethodGet,
		path:       c.basePath(),
		query:      q.Values(),
		idempotent: true,
	})
	if err != nil {
		return Page[T]{}, err
	}

	var env dto.ListResponse[T]
	if err := decode(c.name, raw, &env); err != nil {
		return Page[T]{}, err
	}
	for i := range env.Data {
		if err := c.narrow(&env.Data[i]); err != nil {
			return Page[T]{}, fmt.Errorf("record %d: %w", i, err)
		}
	}
	if env.Data == nil {
		env.Data = []T{}
	}
	return Page[T]{Data: env.Data, Total: env.Total}, nil
}

// GetOne returns a single record. Safe to retry.
func (c *Collection[T]) GetOne(ctx context.Context, id int64) (T, error) {
	var zero T
	if id <= 0 {
		return zero, apperrors.NewNotFoundError(c.name, id)
	}
	raw, err := c.client.do(ctx, request{
		operation:  "get_one",
		resource:   c.name,
		method:     http.MethodGet,
		path:       c.recordPath(id),
		idempotent: true,
		id:         id,
	})
	if err != nil {
		return zero, err
	}
	return c.decodeOne(raw)
}

// Create sends payload and returns the stored record with its server-assigned
// id and timestamps. Never retried: a lost response may still have created a row.
func (c *Collection[T]) Create(ctx context.Context, payload interface{}) (T, error) {
	var zero T
	raw, err := c.client.do(ctx, request{
		operation: "create",
		resource:  c.name,
		method:    http.MethodPost,
		path:      c.basePath(),
		body:      payload,
	})
	if err != nil {
		return zero, err
	}
	return c.decodeOne(raw)
}

// Update applies a partial or full payload to record id
func (c *Collection[T]) Update(ctx context.Context, id int64, payload interface{}) (T, error) {
	var zero T
	if id <= 0 {
		return zero, apperrors.NewNotFoundError(c.name, id)
	}
	raw, err := c.client.do(ctx, request{
		operation: "update",
		resource:  c.name,
		method:    http.MethodPatch,
		path:      c.recordPath(id),
		body:      payload,
		id:        id,
	})
	if err != nil {
		return zero, err
	}
	return c.decodeOne(raw)
}

// Delete removes record id. A backend refusal because of dependents is a conflict error.
func (c *Collection[T]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperrors.NewNotFoundError(c.name, id)
	}
	_, err := c.client.do(ctx, request{
		operation: "delete",
		resource:  c.name,
		method:    http.MethodDelete,
		path:      c.recordPath(id),
		id:        id,
	})
	return err
}

// Count returns how many records match q without transferring them
func (c *Collection[T]) Count(ctx context.Context, q query.Descriptor) (int64, error) {
	page, err := c.List(ctx, q.ForCount())
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

func (c *Collection[T]) decodeOne(raw []byte) (T, error) {
	var env dto.DataResponse[T]
	if err := decode(c.name, raw, &env); err != nil {
		return env.Data, err
	}
	if err := c.narrow(&env.Data); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// narrow normalizes a received record and checks it against its schema
func (c *Collection[T]) narrow(rec *T) error {
	if n, ok := any(rec).(normalizer); ok {
		n.Normalize()
	}
	if err := validation.Struct(c.name, rec); err != nil {
		var ce *apperrors.CustomError
		if errors.As(err, &ce) {
			ce.Message = "record does not match the " + c.name + " schema"
		}
		return err
	}
	return nil
}

// Collections bundles the typed collections of every console resource
type Collections struct {
	Departments *Collection[models.Department]
	Subjects    *Collection[models.Subject]
	Classes     *Collection[models.Class]
	Users       *Collection[models.User]
}

// NewCollections binds every console resource to client
func NewCollections(client *Client) *Collections {
	return &Collections{
		Departments: NewCollection[models.Department](client, models.ResourceDepartments),
		Subjects:    NewCollection[models.Subject](client, models.ResourceSubjects),
		Classes:     NewCollection[models.Class](client, models.ResourceClasses),
		Users:       NewCollection[models.User](client, models.ResourceUsers),
	}
}
