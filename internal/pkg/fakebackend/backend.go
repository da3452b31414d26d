// Package fakebackend is an in-memory implementation of the backend HTTP
// contract the console talks to. Tests and local development run against it.
package fakebackend

import (
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yigit/schoolconsole/internal/app/models"
	"github.com/yigit/schoolconsole/internal/app/models/dto"
	"github.com/yigit/schoolconsole/internal/app/query"
	"github.com/yigit/schoolconsole/internal/pkg/helpers"
)

// Options tunes the fake's behavior
type Options struct {
	// EmbedRelations joins subject/teacher/department summaries into responses
	EmbedRelations bool
	// Now replaces the clock used for timestamps
	Now func() time.Time
}

// Backend holds the records and the router serving them
type Backend struct {
	mu sync.Mutex

	opts        Options
	departments map[int64]models.Department
	subjects    map[int64]models.Subject
	classes     map[int64]models.Class
	users       map[int64]models.User
	lastID      map[string]int64

	// enrolled counts per class feed the capacity and overview analytics
	enrolled map[int64]int64
	trends   []dto.EnrollmentTrend
	activity []dto.RecentActivity

	failures map[string]int
	requests map[string]int

	router *gin.Engine
}

// New creates an empty backend
func New(opts Options) *Backend {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }
	}
	b := &Backend{
		opts:        opts,
		departments: make(map[int64]models.Department),
		subjects:    make(map[int64]models.Subject),
		classes:     make(map[int64]models.Class),
		users:       make(map[int64]models.User),
		lastID:      make(map[string]int64),
		enrolled:    make(map[int64]int64),
		failures:    make(map[string]int),
		requests:    make(map[string]int),
	}
	b.router = b.setupRouter()
	return b
}

// Handler returns the HTTP handler serving the backend contract
func (b *Backend) Handler() http.Handler {
	return b.router
}

// Fail makes every request to path answer with status until cleared with 0
func (b *Backend) Fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, path)
		return
	}
	b.failures[path] = status
}

// Requests returns how many requests reached path
func (b *Backend) Requests(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[path]
}

func (b *Backend) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), b.countAndFail())

	api := router.Group("/api")
	{
		for _, name := range models.Resources {
			res := name
			api.GET("/"+res, func(c *gin.Context) { b.list(c, res) })
			api.GET("/"+res+"/:id", func(c *gin.Context) { b.getOne(c, res) })
			api.POST("/"+res, func(c *gin.Context) { b.create(c, res) })
			api.PATCH("/"+res+"/:id", func(c *gin.Context) { b.update(c, res) })
			api.PUT("/"+res+"/:id", func(c *gin.Context) { b.update(c, res) })
			api.DELETE("/"+res+"/:id", func(c *gin.Context) { b.remove(c, res) })
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("/overview", b.overview)
			analytics.GET("/enrollment-trends", b.enrollmentTrends)
			analytics.GET("/classes-by-department", b.classesByDepartment)
			analytics.GET("/capacity-status", b.capacityStatus)
			analytics.GET("/user-distribution", b.userDistribution)
			analytics.GET("/recent-activity", b.recentActivity)
		}
	}
	return router
}

func (b *Backend) countAndFail() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		b.mu.Lock()
		b.requests[path]++
		status, failing := b.failures[path]
		b.mu.Unlock()

		if failing {
			c.AbortWithStatusJSON(status, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeBackendError, "injected failure"),
			))
			return
		}
		c.Next()
	}
}

func (b *Backend) nextID(resource string) int64 {
	b.lastID[resource]++
	return b.lastID[resource]
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func notFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeRecordNotFound, resource+" record not found"),
	))
}

func validationFailed(c *gin.Context, fields map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponse(
		dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "validation failed"),
	).WithFieldErrors(fields))
}

var filterKey = regexp.MustCompile(`^filter\[([^\]]+)\](?:\[(eq|contains)\])?$`)

// parseListQuery reads the wire form produced by query.Descriptor.Values
func parseListQuery(c *gin.Context) (filters []query.Filter, sortSpec query.Sort, page, size int) {
	for key, values := range c.Request.URL.Query() {
		m := filterKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		op := query.OperatorEq
		if m[2] == string(query.OperatorContains) {
			op = query.OperatorContains
		}
		for _, v := range values {
			filters = append(filters, query.Filter{Field: m[1], Operator: op, Value: v})
		}
	}

	sortSpec = query.DefaultSort
	if raw := c.Query("sort"); raw != "" {
		field, order, _ := strings.Cut(raw, ":")
		sortSpec = query.Sort{Field: field, Order: query.Order(order)}
	}

	// Client-mode tables fetch everything in one page
	page, size = helpers.ParsePaginationParams(c, query.DefaultClientPageSize)
	return filters, sortSpec, page, size
}

// row is a record reduced to what filtering and sorting need
type row struct {
	id     int64
	fields map[string][]string
	record interface{}
}

func (r row) lookup(field string) []string {
	return r.fields[field]
}

func sortRows(rows []row, s query.Sort) {
	sort.SliceStable(rows, func(i, j int) bool {
		less := compareField(rows[i], rows[j], s.Field)
		if s.Order == query.OrderDesc {
			return compareField(rows[j], rows[i], s.Field)
		}
		return less
	})
}

func compareField(a, b row, field string) bool {
	if field == "id" {
		return a.id < b.id
	}
	av, bv := first(a.fields[field]), first(b.fields[field])
	an, aerr := strconv.ParseFloat(av, 64)
	bn, berr := strconv.ParseFloat(bv, 64)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return strings.ToLower(av) < strings.ToLower(bv)
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
