package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/schoolconsole/internal/pkg/apperrors"
)

func TestBuild_DefaultsAreNoRestriction(t *testing.T) {
	d, err := New().Build()
	require.NoError(t, err)

	assert.Empty(t, d.Filters)
	assert.Equal(t, Sort{Field: "id", Order: OrderDesc}, d.Sort)
	assert.Equal(t, ModeServer, d.Pagination.Mode)

	v := d.Values()
	assert.Equal(t, "id:desc", v.Get("sort"))
	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "10", v.Get("pageSize"))
	for key := range v {
		assert.NotContains(t, key, "filter[")
	}
}

func TestBuild_EmptyValueIsDropped(t *testing.T) {
	d, err := New().Contains("name", "").Eq("role", "teacher").Build()
	require.NoError(t, err)

	require.Len(t, d.Filters, 1)
	assert.Equal(t, "role", d.Filters[0].Field)
}

func TestBuild_OrderIndependent(t *testing.T) {
	a, err := New().Eq("role", "teacher").Contains("name", "ann").Build()
	require.NoError(t, err)
	b, err := New().Contains("name", "ann").Eq("role", "teacher").Build()
	require.NoError(t, err)

	assert.Equal(t, a.Encode(), b.Encode())
	assert.Equal(t, a.ResultKey(), b.ResultKey())
}

func TestBuild_SameFieldClausesKept(t *testing.T) {
	d, err := New().Eq("subject", "Genetics").Eq("subject", "Algebra").Build()
	require.NoError(t, err)

	require.Len(t, d.Filters, 2)
	// most recently appended stays last
	assert.Equal(t, []string{"Genetics", "Algebra"}, d.Values()["filter[subject]"])
}

func TestValues_Encoding(t *testing.T) {
	d, err := New().
		Eq("role", "teacher").
		Contains("search", "smith").
		SortBy("name", OrderAsc).
		Page(2, 20).
		Build()
	require.NoError(t, err)

	v := d.Values()
	assert.Equal(t, "teacher", v.Get("filter[role]"))
	assert.Equal(t, "smith", v.Get("filter[search][contains]"))
	assert.Equal(t, "name:asc", v.Get("sort"))
	assert.Equal(t, "3", v.Get("page"))
	assert.Equal(t, "20", v.Get("pageSize"))

	parsed, err := url.ParseQuery(d.Encode())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
}

func TestValues_ClientModeRequestsFullSet(t *testing.T) {
	d, err := New().Mode(ModeClient).ClientPageSize(500).Page(4, 10).Build()
	require.NoError(t, err)

	v := d.Values()
	assert.Equal(t, "1", v.Get("page"))
	assert.Equal(t, "500", v.Get("pageSize"))

	other := d.WithPage(0)
	assert.Equal(t, d.ResultKey(), other.ResultKey(), "page changes must not change the client-mode fetch")

	start, end := d.Window(45)
	assert.Equal(t, 40, start)
	assert.Equal(t, 45, end)
}

func TestBuild_Invalid(t *testing.T) {
	cases := []*Builder{
		New().Where("role", Operator("gt"), "1"),
		New().Where("", OperatorEq, "x"),
		New().SortBy("name", Order("sideways")),
		New().SortBy("", OrderAsc),
		New().Page(-1, 10),
		New().Page(0, 500),
		New().Mode(Mode("infinite")),
	}
	for i, b := range cases {
		_, err := b.Build()
		assert.ErrorIs(t, err, apperrors.ErrInvalidQuery, "case %d", i)
	}
}

func TestMatches(t *testing.T) {
	record := map[string][]string{
		"role":   {"teacher"},
		"search": {"Ann Smith", "ann@school.edu"},
	}
	lookup := func(field string) []string { return record[field] }

	d, err := New().Eq("role", "teacher").Contains("search", "SMITH").Build()
	require.NoError(t, err)
	assert.True(t, d.Matches(lookup))

	d, err = New().Eq("role", "Teacher").Build()
	require.NoError(t, err)
	assert.False(t, d.Matches(lookup), "eq is exact")

	d, err = New().Eq("missing", "x").Build()
	require.NoError(t, err)
	assert.False(t, d.Matches(lookup))
}
