package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParams(t *testing.T) {
	params := map[string]interface{}{
		"name":     "notepad",
		"count":    float64(3),
		"str_num":  "2.5",
		"flag":     true,
		"str_bool": "true",
		"secs":     0.5,
	}

	assert.Equal(t, "notepad", stringParam(params, "name", ""))
	assert.Equal(t, "fallback", stringParam(params, "missing", "fallback"))
	assert.Equal(t, "fallback", stringParam(params, "count", "fallback"))

	assert.Equal(t, 3, intParam(params, "count", 0))
	assert.Equal(t, 2.5, numberParam(params, "str_num", 0))
	assert.Equal(t, 7, intParam(params, "missing", 7))

	assert.True(t, boolParam(params, "flag", false))
	assert.True(t, boolParam(params, "str_bool", false))
	assert.True(t, boolParam(params, "missing", true))

	assert.Equal(t, 500*time.Millisecond, secondsParam(params, "secs", time.Minute))
	assert.Equal(t, time.Minute, secondsParam(params, "missing", time.Minute))
}

func TestTaskRegistry_MostRecent(t *testing.T) {
	r, err := newTaskRegistry(0)
	assert.NoError(t, err)

	_, ok := r.get("")
	assert.False(t, ok)
	assert.Equal(t, 0, r.len())
}
