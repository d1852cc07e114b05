// Package session owns the service's single in-memory policy
// collection and coordinates all mutations against it. The zone matrix
// and table views are pure projections recomputed from this collection;
// nothing is cached across loads and the gateway stays authoritative.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/parapet-sh/parapet/internal/audit"
	"github.com/parapet-sh/parapet/internal/clock"
	"github.com/parapet-sh/parapet/internal/events"
	"github.com/parapet-sh/parapet/internal/gateway"
	"github.com/parapet-sh/parapet/internal/logging"
	"github.com/parapet-sh/parapet/internal/metrics"
	"github.com/parapet-sh/parapet/internal/policyview"
	"github.com/parapet-sh/parapet/internal/posture"
)

// DefaultErrorTTL is how long a transient mutation error stays visible.
const DefaultErrorTTL = 5 * time.Second

var (
	// ErrNotLoaded means no collection has been fetched yet (or the
	// last fetch failed). Callers surface a retry affordance.
	ErrNotLoaded = errors.New("policy collection not loaded")

	// ErrMutationInFlight means another toggle is outstanding. Toggle
	// controls stay disabled until the pending mutation resolves.
	ErrMutationInFlight = errors.New("a logging mutation is already in flight")

	// ErrDerivedPolicy rejects mutations against device-synthesized
	// policies, mirroring the gateway's server-side check.
	ErrDerivedPolicy = errors.New("derived policies are not controllable")

	// ErrPolicyPaused rejects mutations against disabled policies.
	ErrPolicyPaused = errors.New("policy is paused")

	// ErrUnknownPolicy means the id is not in the collection.
	ErrUnknownPolicy = errors.New("unknown policy")
)

// Options configures a Store.
type Options struct {
	Clock    clock.Clock
	Logger   *logging.Logger
	Hub      *events.Hub
	Audit    *audit.Store
	Display  posture.DisplayConfig
	ErrorTTL time.Duration
	Actor    string
}

// Store holds the session-lifetime policy collection.
type Store struct {
	gw      gateway.Client
	clk     clock.Clock
	log     *logging.Logger
	hub     *events.Hub
	audit   *audit.Store
	display posture.DisplayConfig
	errTTL  time.Duration
	actor   string

	mu         sync.RWMutex
	zones      []posture.Zone
	policies   []posture.Policy
	totalCount int
	loaded     bool

	toggling  bool
	lastErr   string
	lastErrAt time.Time
}

// New creates a Store backed by the given gateway client.
func New(gw gateway.Client, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithComponent("session")
	}
	if opts.ErrorTTL <= 0 {
		opts.ErrorTTL = DefaultErrorTTL
	}
	if opts.Actor == "" {
		opts.Actor = "operator"
	}
	if len(opts.Display.CanonicalOrder) == 0 && opts.Display.Labels == nil {
		opts.Display = posture.DefaultDisplayConfig()
	}
	return &Store{
		gw:      gw,
		clk:     opts.Clock,
		log:     opts.Logger,
		hub:     opts.Hub,
		audit:   opts.Audit,
		display: opts.Display,
		errTTL:  opts.ErrorTTL,
		actor:   opts.Actor,
	}
}

// Load fetches the full snapshot from the gateway and replaces the
// collection wholesale. On failure the previous state is left exactly
// as it was; there is no partial render and no automatic retry.
func (s *Store) Load(ctx context.Context, reason string) error {
	start := s.clk.Now()
	snap, err := s.gw.FetchPolicies(ctx)
	metrics.Get().GatewayDuration.WithLabelValues("fetch").Observe(s.clk.Since(start).Seconds())
	if err != nil {
		metrics.Get().GatewayRequests.WithLabelValues("fetch", "error").Inc()
		s.log.Error("policy snapshot fetch failed", "error", err)
		return fmt.Errorf("fetch policies: %w", err)
	}
	metrics.Get().GatewayRequests.WithLabelValues("fetch", "ok").Inc()

	s.mu.Lock()
	s.zones = snap.Zones
	s.policies = snap.Policies
	s.totalCount = snap.TotalCount
	s.loaded = true
	zones, policies := len(s.zones), len(s.policies)
	s.mu.Unlock()

	s.log.Info("policy collection replaced", "zones", zones, "policies", policies, "reason", reason)
	if s.hub != nil {
		s.hub.EmitReloaded(zones, policies, reason)
	}
	return nil
}

// Loaded reports whether a collection is available.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Snapshot returns a copy of the current collection.
func (s *Store) Snapshot() (*gateway.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	snap := &gateway.Snapshot{
		Zones:      make([]posture.Zone, len(s.zones)),
		Policies:   make([]posture.Policy, len(s.policies)),
		TotalCount: s.totalCount,
	}
	copy(snap.Zones, s.zones)
	copy(snap.Policies, s.policies)
	return snap, nil
}

// Matrix recomputes the zone posture matrix from the unfiltered
// collection.
func (s *Store) Matrix() (posture.Matrix, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return posture.Matrix{}, ErrNotLoaded
	}
	m := posture.BuildMatrix(s.zones, s.policies, s.display)
	metrics.Get().MatrixBuilds.Inc()
	metrics.Get().PostureResolutions.Add(float64(len(m.Cells)))
	return m, nil
}

// View recomputes the filtered, grouped table view.
func (s *Store) View(f policyview.Filter) ([]policyview.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return policyview.Build(s.policies, f), nil
}

// MutationInFlight reports whether a toggle is outstanding; the UI
// disables further toggle controls while true.
func (s *Store) MutationInFlight() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toggling
}

// TransientError returns the current error banner, or "" once it has
// aged out.
func (s *Store) TransientError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastErr == "" || s.clk.Since(s.lastErrAt) > s.errTTL {
		return ""
	}
	return s.lastErr
}

// setTransientError records an error banner and pushes it to the event
// stream. It clears itself by aging out rather than by timer, so a
// mock clock drives expiry in tests.
func (s *Store) setTransientError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.lastErrAt = s.clk.Now()
	s.mu.Unlock()
	if s.hub != nil {
		s.hub.EmitError(msg)
	}
}

// beginMutation sets the in-flight flag, failing if one is pending.
func (s *Store) beginMutation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	if s.toggling {
		return ErrMutationInFlight
	}
	s.toggling = true
	return nil
}

func (s *Store) endMutation() {
	s.mu.Lock()
	s.toggling = false
	s.mu.Unlock()
}

// find returns a copy of the policy with the given id.
func (s *Store) find(id string) (posture.Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.policies {
		if p.ID == id {
			return p, true
		}
	}
	return posture.Policy{}, false
}

// patch applies updated logging flags to the named policies in place.
func (s *Store) patch(ids []string, enabled bool) {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.policies {
		if set[s.policies[i].ID] {
			s.policies[i].LoggingEnabled = enabled
		}
	}
}

func (s *Store) recordAudit(action, resource, outcome string, details map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(audit.Event{
		Timestamp: s.clk.Now().UTC(),
		Actor:     s.actor,
		Action:    action,
		Resource:  resource,
		Details:   details,
		Outcome:   outcome,
	}); err != nil {
		s.log.Warn("audit record failed", "error", err)
	}
}
