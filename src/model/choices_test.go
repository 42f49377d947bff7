package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoicesAcceptOnlyDeclaredValues(t *testing.T) {
	for _, l := range Levels() {
		parsed, err := ParseLevel(string(l))
		require.NoError(t, err)
		assert.Equal(t, l, parsed)
	}
	for _, e := range Environments() {
		parsed, err := ParseEnvironment(string(e))
		require.NoError(t, err)
		assert.Equal(t, e, parsed)
	}

	_, err := ParseLevel("FATAL")
	assert.EqualError(t, err, `"FATAL" is not a valid choice.`)
	_, err = ParseEnvironment("production")
	assert.Error(t, err)

	var payload struct {
		Level Level `json:"level"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"level":"TRACE"}`), &payload))
	require.NoError(t, json.Unmarshal([]byte(`{"level":"DEBUG"}`), &payload))
	assert.Equal(t, LevelDebug, payload.Level)
}
