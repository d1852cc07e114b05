package posture

import "strings"

// AllowsReturnTraffic reports whether the policy grants passage to
// reply traffic: an ALLOW that either sets the explicit return flag or
// filters on ESTABLISHED/RELATED connection state.
func AllowsReturnTraffic(p Policy) bool {
	if p.Action.Type != ActionAllow {
		return false
	}
	if p.Action.AllowReturnTraffic {
		return true
	}
	for _, s := range p.ConnectionStateFilter {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case StateEstablished, StateRelated:
			return true
		}
	}
	return false
}

// selectorUnconstrained reports whether a selector carries nothing
// beyond its zone identity.
func selectorUnconstrained(s Selector) bool {
	return !HasNonTrivialKeys(s, selectorIdentityKeys)
}

// IsBlanket reports whether the policy matches all traffic for its zone
// pair: no source or destination constraint past the zone reference, no
// connection-state gate (an unconditional blanket must match new flows
// too; absent and empty filters are equivalent), and no protocol or
// port constraint.
func IsBlanket(p Policy) bool {
	if !selectorUnconstrained(p.Source) || !selectorUnconstrained(p.Destination) {
		return false
	}
	if IsMeaningfulValue(p.ConnectionStateFilter) {
		return false
	}
	return !HasProtocolConstraint(p.IPProtocolScope.ProtocolFilter)
}

// IsReturnBlanket reports whether the policy unconditionally passes
// return traffic for its zone pair: it allows return traffic, carries
// no selector or protocol constraint, and any connection-state filter
// present is restricted to ESTABLISHED/RELATED, so no extra state token
// can sneak a wider match through undetected.
func IsReturnBlanket(p Policy) bool {
	if !AllowsReturnTraffic(p) {
		return false
	}
	if !selectorUnconstrained(p.Source) || !selectorUnconstrained(p.Destination) {
		return false
	}
	if HasProtocolConstraint(p.IPProtocolScope.ProtocolFilter) {
		return false
	}
	for _, s := range p.ConnectionStateFilter {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case StateEstablished, StateRelated:
		default:
			return false
		}
	}
	return true
}
