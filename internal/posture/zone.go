package posture

import (
	"sort"
	"strings"
)

// Zone is a named network security domain used as the unit of firewall
// scoping. Identity is the ID; Name is display-only.
type Zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayConfig controls how zones are labelled and ordered for
// rendering. It is threaded explicitly through callers rather than held
// as package state so formatting stays pure and testable.
type DisplayConfig struct {
	// CanonicalOrder lists well-known zone names first, in this order.
	// Zones not listed sort alphabetically after.
	CanonicalOrder []string

	// Labels maps a lowercased zone name to its display label, fixing
	// case for known abbreviations (vpn -> VPN).
	Labels map[string]string
}

// DefaultDisplayConfig returns the stock zone ordering and label fixes.
func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		CanonicalOrder: []string{"Internal", "External", "Gateway", "VPN", "Hotspot", "DMZ"},
		Labels: map[string]string{
			"vpn":     "VPN",
			"dmz":     "DMZ",
			"lan":     "LAN",
			"wan":     "WAN",
			"hotspot": "Hotspot",
		},
	}
}

// Label returns the display label for a zone name.
func (c DisplayConfig) Label(name string) string {
	if l, ok := c.Labels[strings.ToLower(name)]; ok {
		return l
	}
	return name
}

// rank returns the canonical position of a zone name, or len(order) for
// custom zones.
func (c DisplayConfig) rank(name string) int {
	for i, n := range c.CanonicalOrder {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return len(c.CanonicalOrder)
}

// SortZones returns a sorted copy of zones: canonical zones first in
// their fixed sequence, custom zones alphabetically after.
func (c DisplayConfig) SortZones(zones []Zone) []Zone {
	sorted := make([]Zone, len(zones))
	copy(sorted, zones)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := c.rank(sorted[i].Name), c.rank(sorted[j].Name)
		if ri != rj {
			return ri < rj
		}
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})
	return sorted
}
