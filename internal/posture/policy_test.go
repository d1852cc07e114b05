package posture

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyMarshalHidesSentinelIndex(t *testing.T) {
	p := Policy{
		ID:     "floor",
		Name:   "System Floor",
		Index:  SentinelIndex,
		Action: Action{Type: ActionBlock},
	}

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.NotContains(t, out, "index")
}

func TestPolicyMarshalKeepsRealIndex(t *testing.T) {
	p := Policy{ID: "p1", Name: "SSH", Index: 100}

	b, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, float64(100), out["index"])
}
