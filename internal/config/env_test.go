package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	p, err := ApplyEnv(Default(), lookupMap(map[string]string{
		"PROJFIND_EXCLUDE_DIRS":  "vendor",
		"PROJFIND_EXCLUDE_TYPES": "",
		"PROJFIND_MATCH_CASE":    "off",
		"PROJFIND_MAX_FILE_SIZE": "2MiB",
		"PROJFIND_LOG_LEVEL":     "DEBUG",
		"PROJFIND_UNKNOWN":       "ignored",
	}))
	require.NoError(t, err)

	assert.Equal(t, "vendor", p.Projects.ExcludeDirs)
	assert.Empty(t, p.Projects.ExcludeTypes, "empty value is still an override")
	assert.False(t, p.Search.MatchCase)
	assert.Equal(t, int64(2<<20), p.Search.MaxFileSize)
	assert.Equal(t, "debug", p.Search.LogLevel)
}

func TestApplyEnv_NoOverrides(t *testing.T) {
	p, err := ApplyEnv(Default(), lookupMap(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestApplyEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bool":  {"PROJFIND_MATCH_CASE": "maybe"},
		"size":  {"PROJFIND_MAX_FILE_SIZE": "huge"},
		"level": {"PROJFIND_LOG_LEVEL": "loud"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ApplyEnv(Default(), lookupMap(env))
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}
