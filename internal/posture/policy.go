package posture

import (
	"encoding/json"
	"math"
)

// SentinelIndex is the priority index the gateway assigns to system
// floor policies. It is not a meaningful priority and is hidden from
// display.
const SentinelIndex = math.MaxInt32

// Origin describes where a policy came from.
type Origin string

const (
	OriginUserDefined   Origin = "USER_DEFINED"
	OriginSystemDefined Origin = "SYSTEM_DEFINED"

	// OriginDerived marks device-synthesized per-rule artifacts. They
	// are rendered but never directly controllable, and they carry no
	// operator intent, so baseline posture reasoning excludes them.
	OriginDerived Origin = "DERIVED"
)

// ActionType is a policy's verdict for matching traffic.
type ActionType string

const (
	ActionAllow ActionType = "ALLOW"
	ActionBlock ActionType = "BLOCK"
)

// Connection state tokens that mark return traffic.
const (
	StateEstablished = "ESTABLISHED"
	StateRelated     = "RELATED"
)

// Action is the disposition a policy applies.
type Action struct {
	Type ActionType `json:"type"`

	// AllowReturnTraffic explicitly grants passage to reply traffic of
	// connections initiated in the opposite direction.
	AllowReturnTraffic bool `json:"allowReturnTraffic,omitempty"`
}

// Selector is a policy's source or destination match. The gateway
// serializes it as an open object: a zone reference plus whatever
// address/network constraints the rule carries, so it is kept as a raw
// map and classified structurally.
type Selector map[string]any

// Keys of a selector that only identify the zone and never constrain
// traffic beyond the zone pair itself.
var selectorIdentityKeys = []string{"zoneId", "zone_id", "zoneName", "zone", "id", "type", "name"}

// ZoneID returns the zone reference of the selector, checking the
// synonymous key spellings gateways emit.
func (s Selector) ZoneID() string {
	for _, k := range []string{"zoneId", "zone_id", "zone"} {
		if v, ok := s[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ProtocolScope narrows a policy to an IP family and optionally a
// protocol/port filter. The filter is an open object for the same
// reason Selector is.
type ProtocolScope struct {
	IPVersion      string         `json:"ipVersion,omitempty"`
	ProtocolFilter map[string]any `json:"protocolFilter,omitempty"`
}

// IP family values for ProtocolScope.IPVersion. Anything else (or
// empty) is treated as spanning both families.
const (
	IPv4 = "IPV4"
	IPv6 = "IPV6"
)

// Metadata carries the gateway's bookkeeping for a policy.
type Metadata struct {
	Origin Origin `json:"origin,omitempty"`
}

// Policy is a single firewall rule as reported by the gateway.
type Policy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Index is the evaluation priority; lower evaluates first.
	Index int `json:"index"`

	// Enabled is tri-state on the wire; absent means enabled.
	Enabled *bool `json:"enabled,omitempty"`

	Action      Action   `json:"action"`
	Source      Selector `json:"source"`
	Destination Selector `json:"destination"`

	IPProtocolScope ProtocolScope `json:"ipProtocolScope"`

	// ConnectionStateFilter gates the policy on conntrack states.
	// An empty slice is treated identically to an absent field.
	ConnectionStateFilter []string `json:"connectionStateFilter,omitempty"`

	Metadata Metadata `json:"metadata"`

	// LoggingEnabled is the one field this system's write path mutates.
	LoggingEnabled bool `json:"loggingEnabled"`
}

// MarshalJSON omits the sentinel floor index. It is a placeholder the
// gateway assigns to system floor policies, not a real priority, and is
// never shown.
func (p Policy) MarshalJSON() ([]byte, error) {
	type policyAlias Policy
	out := struct {
		policyAlias
		Index *int `json:"index,omitempty"`
	}{policyAlias: policyAlias(p)}
	if p.Index != SentinelIndex {
		out.Index = &p.Index
	}
	return json.Marshal(out)
}

// IsEnabled reports whether the policy participates in evaluation.
func (p *Policy) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// IsDerived reports whether the policy is a device-synthesized artifact.
func (p *Policy) IsDerived() bool {
	return p.Metadata.Origin == OriginDerived
}

// SourceZone returns the source zone reference.
func (p *Policy) SourceZone() string {
	return p.Source.ZoneID()
}

// DestinationZone returns the destination zone reference.
func (p *Policy) DestinationZone() string {
	return p.Destination.ZoneID()
}

// ProtocolName returns the named protocol of the policy's filter, or ""
// when the scope carries none.
func (p *Policy) ProtocolName() string {
	for _, k := range []string{"protocol", "name"} {
		if v, ok := p.IPProtocolScope.ProtocolFilter[k].(string); ok {
			return v
		}
	}
	return ""
}

// SpansFamily reports whether the policy applies to the given IP family.
// A policy with no family restriction spans both.
func (p *Policy) SpansFamily(family string) bool {
	switch p.IPProtocolScope.IPVersion {
	case IPv4, IPv6:
		return p.IPProtocolScope.IPVersion == family
	default:
		return true
	}
}
