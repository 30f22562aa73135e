package server

import (
	"strconv"
	"time"
)

// stringParam extracts a string argument, falling back to def.
func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}

// numberParam extracts a numeric argument. JSON numbers arrive as
// float64; numeric strings are accepted too.
func numberParam(params map[string]interface{}, key string, def float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func intParam(params map[string]interface{}, key string, def int) int {
	return int(numberParam(params, key, float64(def)))
}

func boolParam(params map[string]interface{}, key string, def bool) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// secondsParam reads a duration given in seconds.
func secondsParam(params map[string]interface{}, key string, def time.Duration) time.Duration {
	secs := numberParam(params, key, -1)
	if secs < 0 {
		return def
	}
	return time.Duration(secs * float64(time.Second))
}
