package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClass_CapacityDefaults(t *testing.T) {
	cases := map[string]Capacity{
		`{"capacity": 30}`:    30,
		`{"capacity": "25"}`:  25,
		`{"capacity": 12.9}`:  12,
		`{"capacity": 0}`:     DefaultCapacity,
		`{"capacity": -4}`:    DefaultCapacity,
		`{"capacity": null}`:  DefaultCapacity,
		`{"capacity": "abc"}`: DefaultCapacity,
		`{}`:                  DefaultCapacity,
	}

	for body, want := range cases {
		var c Class
		require.NoError(t, json.Unmarshal([]byte(body), &c), body)
		c.Normalize()
		assert.Equal(t, want, c.Capacity, body)
	}
}

func TestRoleAndStatusValid(t *testing.T) {
	assert.True(t, RoleTeacher.Valid())
	assert.False(t, Role("principal").Valid())
	assert.True(t, ClassStatusInactive.Valid())
	assert.False(t, ClassStatus("archived").Valid())
}
