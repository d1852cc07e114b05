// Package policyview derives the filtered, sorted and grouped table
// view of a policy collection. It is a pure projection; the matrix view
// is computed elsewhere from the unfiltered list.
package policyview

import (
	"sort"
	"strings"

	"github.com/parapet-sh/parapet/internal/posture"
)

// Filter selects which policies appear in the table. Toggles combine
// with AND semantics across dimensions.
type Filter struct {
	// Origin dimension: device built-ins (derived) vs custom policies.
	BuiltIn bool `json:"builtIn"`
	Custom  bool `json:"custom"`

	// State dimension: in-use vs paused.
	Active bool `json:"active"`
	Paused bool `json:"paused"`

	// IP family dimension. A policy spanning both families passes when
	// either toggle is on; a single-family policy needs its own.
	IPv4 bool `json:"ipv4"`
	IPv6 bool `json:"ipv6"`
}

// DefaultFilter shows everything.
func DefaultFilter() Filter {
	return Filter{BuiltIn: true, Custom: true, Active: true, Paused: true, IPv4: true, IPv6: true}
}

// Match reports whether a policy passes the filter.
func (f Filter) Match(p posture.Policy) bool {
	if p.IsDerived() {
		if !f.BuiltIn {
			return false
		}
	} else if !f.Custom {
		return false
	}

	if p.IsEnabled() {
		if !f.Active {
			return false
		}
	} else if !f.Paused {
		return false
	}

	v4 := p.SpansFamily(posture.IPv4)
	v6 := p.SpansFamily(posture.IPv6)
	if v4 && v6 {
		return f.IPv4 || f.IPv6
	}
	if v4 {
		return f.IPv4
	}
	return f.IPv6
}

// originRank orders policies user-defined first, then system, then
// derived. Unknown origins rank with system-defined.
func originRank(o posture.Origin) int {
	switch o {
	case posture.OriginUserDefined:
		return 0
	case posture.OriginDerived:
		return 2
	default:
		return 1
	}
}

// Sort orders policies by origin rank, then name, in place.
func Sort(policies []posture.Policy) {
	sort.SliceStable(policies, func(i, j int) bool {
		ri, rj := originRank(policies[i].Metadata.Origin), originRank(policies[j].Metadata.Origin)
		if ri != rj {
			return ri < rj
		}
		return policies[i].Name < policies[j].Name
	})
}

// Mixed marks a group dimension on which members disagree.
const Mixed = "Mixed"

// Group is one expandable table row: all policies sharing a display
// name, with per-dimension values collapsed to Mixed when members
// disagree.
type Group struct {
	Name     string           `json:"name"`
	Action   string           `json:"action"`
	Protocol string           `json:"protocol"`
	Policies []posture.Policy `json:"policies"`
}

// uniform collapses member values to one display value or Mixed.
func uniform(values []string) string {
	if len(values) == 0 {
		return ""
	}
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return Mixed
		}
	}
	return first
}

// protocolLabel renders a policy's protocol dimension for grouping.
func protocolLabel(p posture.Policy) string {
	name := strings.TrimSpace(p.ProtocolName())
	if name == "" || !posture.IsMeaningfulValue(name) {
		return "Any"
	}
	return strings.ToUpper(name)
}

// Build applies the filter, sorts, and groups policies sharing a
// display name into one row, preserving sort order of first appearance.
func Build(policies []posture.Policy, f Filter) []Group {
	var filtered []posture.Policy
	for _, p := range policies {
		if f.Match(p) {
			filtered = append(filtered, p)
		}
	}
	Sort(filtered)

	index := make(map[string]int)
	var groups []Group
	for _, p := range filtered {
		i, ok := index[p.Name]
		if !ok {
			i = len(groups)
			index[p.Name] = i
			groups = append(groups, Group{Name: p.Name})
		}
		groups[i].Policies = append(groups[i].Policies, p)
	}

	for i := range groups {
		actions := make([]string, 0, len(groups[i].Policies))
		protocols := make([]string, 0, len(groups[i].Policies))
		for _, p := range groups[i].Policies {
			actions = append(actions, string(p.Action.Type))
			protocols = append(protocols, protocolLabel(p))
		}
		groups[i].Action = uniform(actions)
		groups[i].Protocol = uniform(protocols)
	}
	return groups
}
