package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func derived(p Policy) Policy {
	p.Metadata.Origin = OriginDerived
	return p
}

func disabled(p Policy) Policy {
	f := false
	p.Enabled = &f
	return p
}

func TestDefaultAction_NoPolicies(t *testing.T) {
	assert.Equal(t, PostureNone, DefaultAction(nil))
	assert.Equal(t, PostureNone, DefaultAction([]Policy{}))
}

func TestDefaultAction_OnlyInertPolicies(t *testing.T) {
	// Presence of any policy, even inert ones, marks the pair as
	// configured, and a configured pair with no effective rule blocks.
	pair := []Policy{
		disabled(zonePolicy("p1", 10, ActionAllow)),
		derived(zonePolicy("p2", 20, ActionAllow)),
	}
	assert.Equal(t, PostureBlockAll, DefaultAction(pair))
}

func TestDefaultAction_FirstBlanketAllowWins(t *testing.T) {
	pair := []Policy{
		zonePolicy("block-late", 200, ActionBlock),
		zonePolicy("allow-early", 100, ActionAllow),
	}
	assert.Equal(t, PostureAllowAll, DefaultAction(pair))
}

func TestDefaultAction_SingleBlanketBlock(t *testing.T) {
	// One enabled USER_DEFINED unconstrained BLOCK at index 100.
	pair := []Policy{zonePolicy("p1", 100, ActionBlock)}
	assert.Equal(t, PostureBlockAll, DefaultAction(pair))
}

func TestDefaultAction_DerivedAllowDoesNotShadowBlock(t *testing.T) {
	// A derived unconditional ALLOW at a lower index changes nothing:
	// derived policies carry no operator intent.
	pair := []Policy{
		zonePolicy("block", 100, ActionBlock),
		derived(zonePolicy("derived-allow", 50, ActionAllow)),
	}
	assert.Equal(t, PostureBlockAll, DefaultAction(pair))
}

func TestDefaultAction_ReturnBlanketBeforeBlock(t *testing.T) {
	ret := zonePolicy("return", 10, ActionAllow)
	ret.ConnectionStateFilter = []string{"ESTABLISHED"}

	pair := []Policy{
		zonePolicy("block", 100, ActionBlock),
		ret,
	}
	assert.Equal(t, PostureAllowReturn, DefaultAction(pair))
}

func TestDefaultAction_ReturnBlanketAfterBlockIgnored(t *testing.T) {
	// A return blanket below the blocking fallback never evaluates.
	ret := zonePolicy("return", 300, ActionAllow)
	ret.ConnectionStateFilter = []string{"ESTABLISHED"}

	pair := []Policy{
		zonePolicy("block", 100, ActionBlock),
		ret,
	}
	assert.Equal(t, PostureBlockAll, DefaultAction(pair))
}

func TestDefaultAction_NoBlanketAtAll(t *testing.T) {
	narrow := zonePolicy("narrow", 10, ActionAllow)
	narrow.IPProtocolScope.ProtocolFilter = map[string]any{"protocol": "TCP"}

	pair := []Policy{narrow}
	assert.Equal(t, PostureBlockAll, DefaultAction(pair))

	// Adding a return blanket anywhere flips it to Allow Return.
	ret := zonePolicy("return", 500, ActionAllow)
	ret.ConnectionStateFilter = []string{"RELATED"}
	pair = append(pair, ret)
	assert.Equal(t, PostureAllowReturn, DefaultAction(pair))
}

func TestDefaultAction_DisabledBlanketSkipped(t *testing.T) {
	pair := []Policy{
		disabled(zonePolicy("allow", 10, ActionAllow)),
		zonePolicy("block", 20, ActionBlock),
	}
	assert.Equal(t, PostureBlockAll, DefaultAction(pair))
}

func TestDefaultAction_SentinelIndexSortsLast(t *testing.T) {
	floor := zonePolicy("floor", SentinelIndex, ActionBlock)
	allow := zonePolicy("allow", 100, ActionAllow)
	assert.Equal(t, PostureAllowAll, DefaultAction([]Policy{floor, allow}))
}

func TestDefaultAction_Deterministic(t *testing.T) {
	ret := zonePolicy("return", 10, ActionAllow)
	ret.ConnectionStateFilter = []string{"ESTABLISHED"}
	pair := []Policy{zonePolicy("block", 100, ActionBlock), ret, derived(zonePolicy("d", 5, ActionAllow))}

	first := DefaultAction(pair)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DefaultAction(pair))
	}
	// Input order must be untouched (stable sort works on a copy).
	assert.Equal(t, "block", pair[0].ID)
	assert.Equal(t, "return", pair[1].ID)
}
