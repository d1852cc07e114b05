// Package posture derives the implicit default traffic disposition for
// every (source zone, destination zone) pair of a gateway's firewall
// policy set, using only structural inspection of the policies.
//
// The packet path itself is never consulted: a policy that carries no
// constraint beyond its zone pair (a "blanket" policy) is, by
// definition, the first rule that resolves all remaining traffic for
// that pair, so the lowest-priority-index blanket policy determines the
// pair's baseline. Everything in this package is pure; callers hold the
// policy collection and recompute on every load.
package posture
