package posture

// Cell is one entry of the zone matrix.
type Cell struct {
	DefaultAction Posture `json:"defaultAction,omitempty"`
	PolicyCount   int     `json:"policyCount"`
}

// Matrix is the full zone×zone posture view. Cells is keyed by
// srcZoneID + "/" + dstZoneID; pairs with no policy of any kind have no
// entry, which renders as "no policy" rather than Block All.
type Matrix struct {
	Zones []Zone           `json:"zones"`
	Cells map[string]*Cell `json:"cells"`
}

// CellKey builds the lookup key for a zone pair.
func CellKey(srcID, dstID string) string {
	return srcID + "/" + dstID
}

// SelectPair returns the policies scoped to the given zone pair. An
// empty source and destination is the "all policies" selector and
// passes every policy through unfiltered.
func SelectPair(policies []Policy, srcID, dstID string) []Policy {
	if srcID == "" && dstID == "" {
		return policies
	}
	var out []Policy
	for _, p := range policies {
		if p.SourceZone() == srcID && p.DestinationZone() == dstID {
			out = append(out, p)
		}
	}
	return out
}

// BuildMatrix computes the posture matrix over the cross product of all
// zones, including each zone paired with itself. The full unfiltered
// policy list must be supplied; table-view filtering never feeds the
// matrix.
func BuildMatrix(zones []Zone, policies []Policy, display DisplayConfig) Matrix {
	m := Matrix{
		Zones: display.SortZones(zones),
		Cells: make(map[string]*Cell),
	}
	for i := range m.Zones {
		m.Zones[i].Name = display.Label(m.Zones[i].Name)
	}

	for _, src := range m.Zones {
		for _, dst := range m.Zones {
			pair := SelectPair(policies, src.ID, dst.ID)
			if len(pair) == 0 {
				continue
			}
			m.Cells[CellKey(src.ID, dst.ID)] = &Cell{
				DefaultAction: DefaultAction(pair),
				PolicyCount:   len(pair),
			}
		}
	}
	return m
}
