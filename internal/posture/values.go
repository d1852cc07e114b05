package posture

import (
	"strconv"
	"strings"
)

// Sentinel strings a gateway uses to say "no constraint". Compared
// case-insensitively.
var anySentinels = map[string]bool{
	"ANY":           true,
	"ALL":           true,
	"ALL_TRAFFIC":   true,
	"ALL_PROTOCOLS": true,
	"ALL_PORTS":     true,
	"ALL_ADDRESSES": true,
}

// isSentinel reports whether s is one of the "match everything" tokens.
func isSentinel(s string) bool {
	return anySentinels[strings.ToUpper(strings.TrimSpace(s))]
}

// IsMeaningfulValue reports whether a field value actually constrains
// traffic. Nil, empty or whitespace strings, sentinel tokens, empty
// collections, and collections/objects whose every element is itself
// non-meaningful all count as "no constraint". Everything else is
// meaningful. Recursion terminates because decoded JSON is finite.
func IsMeaningfulValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		t := strings.TrimSpace(val)
		return t != "" && !isSentinel(t)
	case []any:
		for _, e := range val {
			if IsMeaningfulValue(e) {
				return true
			}
		}
		return false
	case []string:
		for _, e := range val {
			if IsMeaningfulValue(e) {
				return true
			}
		}
		return false
	case map[string]any:
		for _, e := range val {
			if IsMeaningfulValue(e) {
				return true
			}
		}
		return false
	case Selector:
		return IsMeaningfulValue(map[string]any(val))
	default:
		// Numbers, booleans and any other concrete value constrain.
		return true
	}
}

// HasNonTrivialKeys reports whether obj carries at least one key outside
// allowed whose value is meaningful. Used to test a policy selector for
// constraints beyond the bare zone reference.
func HasNonTrivialKeys(obj map[string]any, allowed []string) bool {
	for k, v := range obj {
		if containsFold(allowed, k) {
			continue
		}
		if IsMeaningfulValue(v) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, e := range list {
		if strings.EqualFold(e, s) {
			return true
		}
	}
	return false
}

// PortRange is the canonical bounds of a port-range object after
// normalizing the synonymous key spellings gateways emit.
type PortRange struct {
	From int
	To   int
}

var (
	portFromKeys = []string{"from", "start", "min", "portFrom", "port_start", "fromPort", "low"}
	portToKeys   = []string{"to", "end", "max", "portTo", "port_end", "toPort", "high"}
)

// NormalizePortRange resolves a port-range object into one canonical
// {from, to} shape. It reports false when v is not an object or neither
// bound resolves to a number. Normalization happens once, here, so the
// classification logic never repeats synonym lists.
func NormalizePortRange(v any) (PortRange, bool) {
	obj, ok := asObject(v)
	if !ok {
		return PortRange{}, false
	}

	from, okFrom := lookupNumber(obj, portFromKeys)
	to, okTo := lookupNumber(obj, portToKeys)
	if !okFrom || !okTo {
		return PortRange{}, false
	}
	return PortRange{From: from, To: to}, true
}

func asObject(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case Selector:
		return val, true
	default:
		return nil, false
	}
}

func lookupNumber(obj map[string]any, keys []string) (int, bool) {
	for _, k := range keys {
		for name, v := range obj {
			if !strings.EqualFold(name, k) {
				continue
			}
			if n, ok := toInt(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// IsAnyPortRange reports whether a port-range object denotes all ports:
// both bounds resolve numerically and span at least [1, 65535].
func IsAnyPortRange(v any) bool {
	r, ok := NormalizePortRange(v)
	return ok && r.From <= 1 && r.To >= 65535
}

// IsAnyPortsValue reports whether a ports field places no constraint:
// absent, an empty list, a list of sentinel tokens only, or a range
// object covering every port.
func IsAnyPortsValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case []any:
		for _, e := range val {
			s, ok := e.(string)
			if !ok || !isSentinel(s) {
				return false
			}
		}
		return true
	case []string:
		for _, e := range val {
			if !isSentinel(e) {
				return false
			}
		}
		return true
	default:
		return IsAnyPortRange(v)
	}
}

// Keys of a protocol filter recognized as port-range carriers.
var portRangeKeys = []string{"ports", "portRange", "portRanges", "port_ranges", "sourcePorts", "destinationPorts"}

// HasProtocolConstraint reports whether a protocol filter narrows
// traffic. No filter means no constraint; a filter whose named protocol
// is empty or a sentinel and whose remaining fields are all "any ports"
// ranges or otherwise non-meaningful also means no constraint.
func HasProtocolConstraint(filter map[string]any) bool {
	if len(filter) == 0 {
		return false
	}

	for k, v := range filter {
		if containsFold([]string{"protocol", "name"}, k) {
			if s, ok := v.(string); ok {
				if IsMeaningfulValue(s) {
					return true
				}
				continue
			}
			if IsMeaningfulValue(v) {
				return true
			}
			continue
		}
		if containsFold(portRangeKeys, k) {
			// An empty object or other non-meaningful value under a
			// ports key constrains nothing, same as everywhere else.
			if IsAnyPortsValue(v) || !IsMeaningfulValue(v) {
				continue
			}
			return true
		}
		if IsMeaningfulValue(v) {
			return true
		}
	}
	return false
}
