package posture

import "sort"

// Posture is the inferred default disposition for a zone pair in the
// absence of a more specific matching rule.
type Posture string

const (
	// PostureNone means the pair has no configured policy and the
	// engine holds no opinion. Distinct from BlockAll.
	PostureNone Posture = ""

	PostureAllowAll    Posture = "Allow All"
	PostureBlockAll    Posture = "Block All"
	PostureAllowReturn Posture = "Allow Return"
)

// DefaultAction derives the baseline posture for one zone pair from the
// policies scoped to it.
//
// Only enabled, non-derived policies are candidates. The first blanket
// policy in priority order is the pair's fallback: being unconditional,
// no lower-index policy with a narrower match could have already
// resolved the traffic it covers. When that fallback allows, the pair
// is Allow All. When it blocks, or no blanket exists, the pair denies
// by default, unless a return blanket positioned before the fallback
// (or anywhere, when none exists) lets stateful replies through, in
// which case the pair is Allow Return.
//
// A pair with policies but no candidates (all disabled or derived) is
// Block All: presence implies a configured pair. A pair with no
// policies at all yields PostureNone.
func DefaultAction(pair []Policy) Posture {
	var candidates []Policy
	for _, p := range pair {
		if p.IsEnabled() && !p.IsDerived() {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		if len(pair) > 0 {
			return PostureBlockAll
		}
		return PostureNone
	}

	// Ties keep input order; gateways emit duplicates of the sentinel
	// floor index.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Index < candidates[j].Index
	})

	catchAll := -1
	for i, p := range candidates {
		if IsBlanket(p) {
			catchAll = i
			break
		}
	}

	if catchAll >= 0 && candidates[catchAll].Action.Type == ActionAllow {
		return PostureAllowAll
	}

	// Deny by default. Anything evaluated before the blocking fallback
	// can still pass established replies.
	limit := len(candidates)
	if catchAll >= 0 {
		limit = catchAll
	}
	for _, p := range candidates[:limit] {
		if IsReturnBlanket(p) {
			return PostureAllowReturn
		}
	}
	return PostureBlockAll
}
