package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/parapet-sh/parapet/internal/gateway"
	"github.com/parapet-sh/parapet/internal/metrics"
	"github.com/parapet-sh/parapet/internal/posture"
)

// Eligible returns the subset of candidates a toggle to target may
// actually submit: enabled, non-derived policies whose current logging
// flag differs. Already-matching policies are excluded so re-running a
// toggle never re-sends them.
func Eligible(candidates []posture.Policy, target bool) []posture.Policy {
	var out []posture.Policy
	for _, p := range candidates {
		if p.IsDerived() || !p.IsEnabled() {
			continue
		}
		if p.LoggingEnabled == target {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Outcome is the result of a bulk mutation. It is a closed sum: either
// the optimistic patch was applied to exactly the submitted ids, or the
// collection diverged and was reloaded. Callers must handle both.
type Outcome interface {
	outcome()
}

// Applied means every submitted update succeeded and the collection was
// patched in place, no reload.
type Applied struct {
	IDs []string `json:"ids"`
}

// Diverged means the gateway reported partial failure. The aggregate
// counts cannot identify which ids failed, so the collection was
// reloaded wholesale before this value was returned.
type Diverged struct {
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
	Reason  string `json:"reason"`
}

func (Applied) outcome()  {}
func (Diverged) outcome() {}

// ToggleLogging flips the logging flag on a single policy. On success
// the one record is patched in place; on failure the prior state is
// preserved exactly and the error is surfaced transiently. There is no
// optimistic pre-apply.
func (s *Store) ToggleLogging(ctx context.Context, id string, enabled bool) error {
	if err := s.beginMutation(); err != nil {
		return err
	}
	defer s.endMutation()

	p, ok := s.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPolicy, id)
	}
	if p.IsDerived() {
		return ErrDerivedPolicy
	}
	if !p.IsEnabled() {
		return ErrPolicyPaused
	}
	if p.LoggingEnabled == enabled {
		// Idempotent: nothing to send.
		return nil
	}

	start := s.clk.Now()
	updated, err := s.gw.SetLogging(ctx, id, enabled, p.Metadata.Origin)
	metrics.Get().GatewayDuration.WithLabelValues("set_logging").Observe(s.clk.Since(start).Seconds())
	if err != nil {
		metrics.Get().GatewayRequests.WithLabelValues("set_logging", "error").Inc()
		metrics.Get().LoggingMutations.WithLabelValues("single", "error").Inc()
		s.setTransientError(err.Error())
		s.recordAudit("logging.toggle", "policy/"+id, "failed", map[string]any{
			"enabled": enabled,
			"error":   err.Error(),
		})
		return err
	}
	metrics.Get().GatewayRequests.WithLabelValues("set_logging", "ok").Inc()
	metrics.Get().LoggingMutations.WithLabelValues("single", "applied").Inc()

	s.patch([]string{id}, updated.LoggingEnabled)
	s.log.Info("policy logging toggled", "policy", id, "enabled", updated.LoggingEnabled)
	if s.hub != nil {
		s.hub.EmitLoggingChanged(id, updated.LoggingEnabled)
	}
	s.recordAudit("logging.toggle", "policy/"+id, "applied", map[string]any{
		"enabled": enabled,
	})
	return nil
}

// PreviewBulk returns the policies a bulk toggle would submit, for the
// confirmation step. Bulk mutations are never fired directly from the
// toggle control; the caller confirms this count first.
func (s *Store) PreviewBulk(ids []string, enabled bool) ([]posture.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return Eligible(s.subset(ids), enabled), nil
}

// subset resolves ids against the collection. Callers hold s.mu.
func (s *Store) subset(ids []string) []posture.Policy {
	if ids == nil {
		out := make([]posture.Policy, len(s.policies))
		copy(out, s.policies)
		return out
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	var out []posture.Policy
	for _, p := range s.policies {
		if set[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// BulkSetLogging submits one batched logging mutation for the eligible
// subset of the named policies (all policies when ids is nil).
//
// Three endings:
//   - transport error: nothing is assumed changed; no reload, no patch,
//     the error is surfaced transiently and returned.
//   - partial failure: the aggregate counts cannot say which ids
//     failed, so the collection is reloaded from the gateway before
//     returning Diverged.
//   - full success: the submitted ids are patched optimistically,
//     avoiding a flickering reload, and Applied is returned.
func (s *Store) BulkSetLogging(ctx context.Context, ids []string, enabled bool) (Outcome, error) {
	if err := s.beginMutation(); err != nil {
		return nil, err
	}
	defer s.endMutation()

	s.mu.RLock()
	eligible := Eligible(s.subset(ids), enabled)
	s.mu.RUnlock()

	if len(eligible) == 0 {
		return Applied{}, nil
	}

	updates := make([]gateway.LoggingUpdate, 0, len(eligible))
	submitted := make([]string, 0, len(eligible))
	for _, p := range eligible {
		updates = append(updates, gateway.LoggingUpdate{ID: p.ID, LoggingEnabled: enabled})
		submitted = append(submitted, p.ID)
	}

	opID := uuid.NewString()
	start := s.clk.Now()
	result, err := s.gw.BulkSetLogging(ctx, updates)
	metrics.Get().GatewayDuration.WithLabelValues("bulk_logging").Observe(s.clk.Since(start).Seconds())
	if err != nil {
		metrics.Get().GatewayRequests.WithLabelValues("bulk_logging", "error").Inc()
		metrics.Get().LoggingMutations.WithLabelValues("bulk", "error").Inc()
		s.setTransientError(err.Error())
		s.recordAudit("logging.bulk", "policies", "failed", map[string]any{
			"operation": opID,
			"submitted": len(submitted),
			"error":     err.Error(),
		})
		return nil, err
	}
	metrics.Get().GatewayRequests.WithLabelValues("bulk_logging", "ok").Inc()

	if result.Failed > 0 {
		// State may have partially diverged; optimistic patching is
		// unsafe. Reload and report the combined count.
		reason := fmt.Sprintf("%d updated, %d failed", result.Success, result.Failed)
		metrics.Get().LoggingMutations.WithLabelValues("bulk", "diverged").Inc()
		metrics.Get().ForcedReloads.Inc()
		if err := s.Load(ctx, "bulk partial failure"); err != nil {
			s.log.Error("forced reload after partial failure failed", "error", err)
		}
		s.setTransientError(reason)
		if s.hub != nil {
			s.hub.EmitBulkResult(opID, result.Success, result.Failed, true)
		}
		s.recordAudit("logging.bulk", "policies", "diverged", map[string]any{
			"operation": opID,
			"submitted": len(submitted),
			"success":   result.Success,
			"failed":    result.Failed,
		})
		return Diverged{Success: result.Success, Failed: result.Failed, Reason: reason}, nil
	}

	s.patch(submitted, enabled)
	metrics.Get().LoggingMutations.WithLabelValues("bulk", "applied").Inc()
	s.log.Info("bulk logging applied", "operation", opID, "policies", len(submitted), "enabled", enabled)
	if s.hub != nil {
		s.hub.EmitBulkResult(opID, result.Success, 0, false)
	}
	s.recordAudit("logging.bulk", "policies", "applied", map[string]any{
		"operation": opID,
		"submitted": len(submitted),
	})
	return Applied{IDs: submitted}, nil
}
