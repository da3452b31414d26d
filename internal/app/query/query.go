// Package query turns declarative filter, sort and pagination intent into
// a descriptor the resource client can put on the wire.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
	"github.com/yigit/schoolconsole/internal/pkg/helpers"
)

// Operator is a filter comparison
type Operator string

const (
	OperatorEq       Operator = "eq"
	OperatorContains Operator = "contains"
)

// Order is a sort direction
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Mode decides where pagination happens
type Mode string

const (
	// ModeServer asks the backend for one page plus the total count
	ModeServer Mode = "server"
	// ModeClient fetches every matching row and slices locally
	ModeClient Mode = "client"
)

const (
	DefaultSortField      = "id"
	DefaultClientPageSize = 1000
)

// Filter is one {field, operator, value} restriction
type Filter struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

// Sort is a {field, order} specification
type Sort struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// DefaultSort is applied when no sort is given
var DefaultSort = Sort{Field: DefaultSortField, Order: OrderDesc}

// Pagination carries a 0-based page index
type Pagination struct {
	PageIndex int  `json:"pageIndex"`
	PageSize  int  `json:"pageSize"`
	Mode      Mode `json:"mode"`
}

// Builder accumulates query intent; Build validates it
type Builder struct {
	filters        []Filter
	sort           *Sort
	pagination     Pagination
	clientPageSize int
}

// New returns an empty builder: no restriction, default sort, first server page
func New() *Builder {
	return &Builder{
		pagination: Pagination{
			PageSize: helpers.DefaultPageSize,
			Mode:     ModeServer,
		},
		clientPageSize: DefaultClientPageSize,
	}
}

// Where appends a filter clause. Clauses are never deduplicated.
func (b *Builder) Where(field string, op Operator, value string) *Builder {
	b.filters = append(b.filters, Filter{Field: field, Operator: op, Value: value})
	return b
}

// Eq appends an equality clause
func (b *Builder) Eq(field, value string) *Builder {
	return b.Where(field, OperatorEq, value)
}

// EqInt appends an equality clause on a numeric value
func (b *Builder) EqInt(field string, value int64) *Builder {
	return b.Where(field, OperatorEq, strconv.FormatInt(value, 10))
}

// Contains appends a substring clause
func (b *Builder) Contains(field, value string) *Builder {
	return b.Where(field, OperatorContains, value)
}

// Filters appends several clauses at once
func (b *Builder) Filters(filters ...Filter) *Builder {
	b.filters = append(b.filters, filters...)
	return b
}

// SortBy replaces the sort specification
func (b *Builder) SortBy(field string, order Order) *Builder {
	b.sort = &Sort{Field: field, Order: order}
	return b
}

// Page sets the 0-based page index and page size
func (b *Builder) Page(index, size int) *Builder {
	b.pagination.PageIndex = index
	b.pagination.PageSize = size
	return b
}

// Mode selects server or client pagination
func (b *Builder) Mode(mode Mode) *Builder {
	b.pagination.Mode = mode
	return b
}

// ClientPageSize sets the page size requested in client mode
func (b *Builder) ClientPageSize(size int) *Builder {
	b.clientPageSize = size
	return b
}

// Build validates the accumulated intent and returns its descriptor
func (b *Builder) Build() (Descriptor, error) {
	d := Descriptor{
		Sort:           DefaultSort,
		Pagination:     b.pagination,
		clientPageSize: b.clientPageSize,
	}

	for _, f := range b.filters {
		f.Field = strings.TrimSpace(f.Field)
		if f.Field == "" {
			return Descriptor{}, invalid("filter field is required")
		}
		switch f.Operator {
		case OperatorEq, OperatorContains:
		default:
			return Descriptor{}, invalid(fmt.Sprintf("unsupported operator %q on %s", f.Operator, f.Field))
		}
		// An empty value is the cleared-search case: no restriction
		if f.Value == "" {
			continue
		}
		d.Filters = append(d.Filters, f)
	}
	// Stable so the most recently appended clause stays last within its field
	sort.SliceStable(d.Filters, func(i, j int) bool {
		return d.Filters[i].Field < d.Filters[j].Field
	})

	if b.sort != nil {
		if strings.TrimSpace(b.sort.Field) == "" {
			return Descriptor{}, invalid("sort field is required")
		}
		if b.sort.Order != OrderAsc && b.sort.Order != OrderDesc {
			return Descriptor{}, invalid(fmt.Sprintf("unsupported sort order %q", b.sort.Order))
		}
		d.Sort = *b.sort
	}

	switch d.Pagination.Mode {
	case "":
		d.Pagination.Mode = ModeServer
	case ModeServer, ModeClient:
	default:
		return Descriptor{}, invalid(fmt.Sprintf("unsupported pagination mode %q", d.Pagination.Mode))
	}
	if d.Pagination.PageIndex < 0 {
		return Descriptor{}, invalid("page index cannot be negative")
	}
	if d.Pagination.PageSize <= 0 {
		d.Pagination.PageSize = helpers.DefaultPageSize
	}
	if d.Pagination.Mode == ModeServer && d.Pagination.PageSize > helpers.MaxPageSize {
		return Descriptor{}, invalid(fmt.Sprintf("page size %d exceeds %d", d.Pagination.PageSize, helpers.MaxPageSize))
	}
	if d.clientPageSize <= 0 {
		d.clientPageSize = DefaultClientPageSize
	}

	return d, nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", apperrors.ErrInvalidQuery, msg)
}

// Descriptor is a validated, order-independent query
type Descriptor struct {
	Filters    []Filter   `json:"filters"`
	Sort       Sort       `json:"sort"`
	Pagination Pagination `json:"pagination"`

	clientPageSize int
}

// Values encodes the descriptor as backend query parameters.
//
//	eq        filter[field]=value
//	contains  filter[field][contains]=value
//	sort      sort=field:order
//	page      page=N&pageSize=M (1-based page)
func (d Descriptor) Values() url.Values {
	v := url.Values{}
	for _, f := range d.Filters {
		key := "filter[" + f.Field + "]"
		if f.Operator == OperatorContains {
			key += "[contains]"
		}
		v.Add(key, f.Value)
	}

	s := d.Sort
	if s.Field == "" {
		s = DefaultSort
	}
	v.Set("sort", s.Field+":"+string(s.Order))

	if d.Pagination.Mode == ModeClient {
		v.Set("page", "1")
		v.Set("pageSize", strconv.Itoa(d.ClientPageSize()))
	} else {
		v.Set("page", strconv.Itoa(d.Pagination.PageIndex+1))
		v.Set("pageSize", strconv.Itoa(d.Pagination.PageSize))
	}
	return v
}

// Encode returns the canonical query string
func (d Descriptor) Encode() string {
	return d.Values().Encode()
}

// ResultKey identifies the rows a request returns.
// In client mode the page is excluded since every page comes from one fetch.
func (d Descriptor) ResultKey() string {
	v := d.Values()
	if d.Pagination.Mode == ModeClient {
		v.Del("page")
		v.Del("pageSize")
	}
	return string(d.Pagination.Mode) + "?" + v.Encode()
}

// ClientPageSize is the page size sent when paginating locally
func (d Descriptor) ClientPageSize() int {
	if d.clientPageSize <= 0 {
		return DefaultClientPageSize
	}
	return d.clientPageSize
}

// WithPage returns a copy pointing at another page
func (d Descriptor) WithPage(index int) Descriptor {
	d.Pagination.PageIndex = index
	d.Filters = append([]Filter(nil), d.Filters...)
	return d
}

// ForCount returns a copy that asks only for the total: first server page of one row
func (d Descriptor) ForCount() Descriptor {
	d = d.WithPage(0)
	d.Pagination.PageSize = 1
	d.Pagination.Mode = ModeServer
	return d
}

// Window returns the [start, end) slice bounds of the current page over total rows
func (d Descriptor) Window(total int) (start, end int) {
	return helpers.CalculateSliceIndices(d.Pagination.PageIndex+1, d.Pagination.PageSize, total)
}

// FieldLookup returns the candidate values of a record field
type FieldLookup func(field string) []string

// Matches evaluates every clause against a record (logical AND).
// eq compares exactly; contains is case-insensitive.
func (d Descriptor) Matches(lookup FieldLookup) bool {
	return MatchAll(d.Filters, lookup)
}

// MatchAll reports whether every filter holds for the record behind lookup
func MatchAll(filters []Filter, lookup FieldLookup) bool {
	for _, f := range filters {
		if f.Value == "" {
			continue
		}
		if !matchOne(f, lookup(f.Field)) {
			return false
		}
	}
	return true
}

func matchOne(f Filter, candidates []string) bool {
	needle := strings.ToLower(f.Value)
	for _, c := range candidates {
		switch f.Operator {
		case OperatorEq:
			if c == f.Value {
				return true
			}
		case OperatorContains:
			if strings.Contains(strings.ToLower(c), needle) {
				return true
			}
		}
	}
	return false
}
