package posture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairPolicy(id string, src, dst string, index int, action ActionType) Policy {
	p := zonePolicy(id, index, action)
	p.Source = Selector{"zoneId": src, "type": "ZONE"}
	p.Destination = Selector{"zoneId": dst, "type": "ZONE"}
	return p
}

func TestBuildMatrix(t *testing.T) {
	zones := []Zone{
		{ID: "z-ext", Name: "External"},
		{ID: "z-int", Name: "Internal"},
	}
	policies := []Policy{
		pairPolicy("p1", "z-ext", "z-int", 100, ActionBlock),
		pairPolicy("p2", "z-ext", "z-int", 200, ActionBlock),
		pairPolicy("p3", "z-int", "z-ext", 100, ActionAllow),
	}

	m := BuildMatrix(zones, policies, DefaultDisplayConfig())

	// Canonical ordering puts Internal before External.
	require.Len(t, m.Zones, 2)
	assert.Equal(t, "Internal", m.Zones[0].Name)

	cell := m.Cells[CellKey("z-ext", "z-int")]
	require.NotNil(t, cell)
	assert.Equal(t, PostureBlockAll, cell.DefaultAction)
	assert.Equal(t, 2, cell.PolicyCount)

	cell = m.Cells[CellKey("z-int", "z-ext")]
	require.NotNil(t, cell)
	assert.Equal(t, PostureAllowAll, cell.DefaultAction)
	assert.Equal(t, 1, cell.PolicyCount)

	// Pairs with zero policies of any kind get no cell, not Block All.
	assert.Nil(t, m.Cells[CellKey("z-int", "z-int")])
	assert.Nil(t, m.Cells[CellKey("z-ext", "z-ext")])
}

func TestBuildMatrix_NormalizesZoneLabels(t *testing.T) {
	zones := []Zone{
		{ID: "z-vpn", Name: "vpn"},
		{ID: "z-dmz", Name: "dmz"},
	}
	policies := []Policy{
		pairPolicy("p1", "z-vpn", "z-dmz", 10, ActionAllow),
	}

	m := BuildMatrix(zones, policies, DefaultDisplayConfig())

	require.Len(t, m.Zones, 2)
	names := []string{m.Zones[0].Name, m.Zones[1].Name}
	assert.Contains(t, names, "VPN")
	assert.Contains(t, names, "DMZ")
	// Cells stay keyed by id, labeling never touches identity.
	require.NotNil(t, m.Cells[CellKey("z-vpn", "z-dmz")])
}

func TestBuildMatrix_ConfiguredLabelOverride(t *testing.T) {
	display := DefaultDisplayConfig()
	display.Labels["guest"] = "Guest Wi-Fi"

	m := BuildMatrix(
		[]Zone{{ID: "z-g", Name: "guest"}},
		[]Policy{pairPolicy("p1", "z-g", "z-g", 10, ActionBlock)},
		display,
	)

	require.Len(t, m.Zones, 1)
	assert.Equal(t, "Guest Wi-Fi", m.Zones[0].Name)
}

func TestBuildMatrix_SameZonePair(t *testing.T) {
	zones := []Zone{{ID: "z-int", Name: "Internal"}}
	policies := []Policy{
		pairPolicy("intra", "z-int", "z-int", 10, ActionBlock),
	}

	m := BuildMatrix(zones, policies, DefaultDisplayConfig())

	cell := m.Cells[CellKey("z-int", "z-int")]
	require.NotNil(t, cell, "intra-zone policies are valid")
	assert.Equal(t, PostureBlockAll, cell.DefaultAction)
	assert.Equal(t, 1, cell.PolicyCount)
}

func TestBuildMatrix_CountsInertPolicies(t *testing.T) {
	zones := []Zone{
		{ID: "a", Name: "Internal"},
		{ID: "b", Name: "External"},
	}
	policies := []Policy{
		derived(pairPolicy("d1", "a", "b", 10, ActionAllow)),
	}

	m := BuildMatrix(zones, policies, DefaultDisplayConfig())
	cell := m.Cells[CellKey("a", "b")]
	require.NotNil(t, cell)
	// Derived policies count toward the cell tally but not the posture.
	assert.Equal(t, 1, cell.PolicyCount)
	assert.Equal(t, PostureBlockAll, cell.DefaultAction)
}

func TestSelectPair_AllPoliciesSelector(t *testing.T) {
	policies := []Policy{
		pairPolicy("p1", "a", "b", 10, ActionAllow),
		pairPolicy("p2", "b", "a", 20, ActionBlock),
	}
	assert.Len(t, SelectPair(policies, "", ""), 2)
	assert.Len(t, SelectPair(policies, "a", "b"), 1)
	assert.Empty(t, SelectPair(policies, "a", "a"))
}
