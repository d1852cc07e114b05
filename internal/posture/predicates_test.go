package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// zonePolicy builds an unconstrained policy between two zones for tests.
func zonePolicy(id string, index int, action ActionType) Policy {
	return Policy{
		ID:    id,
		Name:  id,
		Index: index,
		Action: Action{
			Type: action,
		},
		Source:      Selector{"zoneId": "z-src", "type": "ZONE"},
		Destination: Selector{"zoneId": "z-dst", "type": "ZONE"},
		Metadata:    Metadata{Origin: OriginUserDefined},
	}
}

func TestAllowsReturnTraffic(t *testing.T) {
	p := zonePolicy("p1", 10, ActionAllow)
	assert.False(t, AllowsReturnTraffic(p))

	p.Action.AllowReturnTraffic = true
	assert.True(t, AllowsReturnTraffic(p))

	p.Action.AllowReturnTraffic = false
	p.ConnectionStateFilter = []string{"ESTABLISHED"}
	assert.True(t, AllowsReturnTraffic(p))

	p.ConnectionStateFilter = []string{"related"}
	assert.True(t, AllowsReturnTraffic(p), "state tokens compare case-insensitively")

	p.ConnectionStateFilter = []string{"NEW"}
	assert.False(t, AllowsReturnTraffic(p))

	// BLOCK never allows return traffic regardless of flags.
	p = zonePolicy("p2", 10, ActionBlock)
	p.Action.AllowReturnTraffic = true
	assert.False(t, AllowsReturnTraffic(p))
}

func TestIsBlanket(t *testing.T) {
	p := zonePolicy("p1", 10, ActionAllow)
	assert.True(t, IsBlanket(p), "bare zone pair is a blanket")

	// Empty state filter is equivalent to an absent one.
	p.ConnectionStateFilter = []string{}
	assert.True(t, IsBlanket(p))

	p.ConnectionStateFilter = []string{"ESTABLISHED"}
	assert.False(t, IsBlanket(p), "state-gated policy is conditional")

	p = zonePolicy("p2", 10, ActionAllow)
	p.Source["networks"] = []any{"10.0.0.0/8"}
	assert.False(t, IsBlanket(p), "source constraint breaks blanket")

	p = zonePolicy("p3", 10, ActionAllow)
	p.IPProtocolScope.ProtocolFilter = map[string]any{"protocol": "TCP"}
	assert.False(t, IsBlanket(p), "protocol constraint breaks blanket")

	p = zonePolicy("p4", 10, ActionAllow)
	p.IPProtocolScope.ProtocolFilter = map[string]any{
		"protocol": "ANY",
		"ports":    map[string]any{"from": float64(1), "to": float64(65535)},
	}
	assert.True(t, IsBlanket(p), "sentinel protocol with full port span is unconditional")
}

func TestIsReturnBlanket(t *testing.T) {
	p := zonePolicy("p1", 10, ActionAllow)
	p.ConnectionStateFilter = []string{"ESTABLISHED", "RELATED"}
	assert.True(t, IsReturnBlanket(p))

	// Explicit flag without any state filter also qualifies.
	p = zonePolicy("p2", 10, ActionAllow)
	p.Action.AllowReturnTraffic = true
	assert.True(t, IsReturnBlanket(p))

	// Extra state tokens widen the match and disqualify.
	p = zonePolicy("p3", 10, ActionAllow)
	p.ConnectionStateFilter = []string{"ESTABLISHED", "NEW"}
	assert.False(t, IsReturnBlanket(p))

	p = zonePolicy("p4", 10, ActionAllow)
	p.ConnectionStateFilter = []string{"ESTABLISHED"}
	p.Destination["addresses"] = []any{"172.16.0.1"}
	assert.False(t, IsReturnBlanket(p), "destination constraint disqualifies")

	p = zonePolicy("p5", 10, ActionBlock)
	p.ConnectionStateFilter = []string{"ESTABLISHED"}
	assert.False(t, IsReturnBlanket(p), "block policies never pass return traffic")
}
