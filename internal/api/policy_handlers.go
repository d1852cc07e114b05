package api

import (
	"errors"
	"net/http"

	"github.com/parapet-sh/parapet/internal/gateway"
	"github.com/parapet-sh/parapet/internal/policyview"
	"github.com/parapet-sh/parapet/internal/session"
)

// boolParam reads a true/false query parameter, defaulting when absent.
func boolParam(r *http.Request, name string, def bool) bool {
	switch r.URL.Query().Get(name) {
	case "true":
		return true
	case "false":
		return false
	default:
		return def
	}
}

// filterFromQuery maps query parameters onto a table filter. Absent
// toggles default to on.
func filterFromQuery(r *http.Request) policyview.Filter {
	f := policyview.DefaultFilter()
	f.BuiltIn = boolParam(r, "builtin", f.BuiltIn)
	f.Custom = boolParam(r, "custom", f.Custom)
	f.Active = boolParam(r, "active", f.Active)
	f.Paused = boolParam(r, "paused", f.Paused)
	f.IPv4 = boolParam(r, "ipv4", f.IPv4)
	f.IPv6 = boolParam(r, "ipv6", f.IPv6)
	return f
}

// handlePolicies returns the filtered, sorted, grouped table view.
func (s *Server) handlePolicies(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.View(filterFromQuery(r))
	if err != nil {
		WriteRetryableError(w, http.StatusServiceUnavailable, "policy collection not loaded")
		return
	}
	if groups == nil {
		groups = []policyview.Group{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"groups": groups,
		"count":  len(groups),
	})
}

// toggleRequest is a single-policy logging mutation.
type toggleRequest struct {
	LoggingEnabled bool `json:"loggingEnabled"`
}

// handleToggleLogging flips logging on one policy.
func (s *Server) handleToggleLogging(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "%s", err.Error())
		return
	}

	if err := s.store.ToggleLogging(r.Context(), id, req.LoggingEnabled); err != nil {
		writeMutationError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"id":             id,
		"loggingEnabled": req.LoggingEnabled,
	})
}

// bulkRequest is a batched logging mutation. IDs nil means the whole
// collection. Confirmed must be set; toggle controls never fire bulk
// mutations directly.
type bulkRequest struct {
	IDs            []string `json:"ids"`
	LoggingEnabled bool     `json:"loggingEnabled"`
	Confirmed      bool     `json:"confirmed"`
}

// handleBulkLogging previews or executes a bulk logging mutation.
func (s *Server) handleBulkLogging(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "%s", err.Error())
		return
	}

	if !req.Confirmed {
		eligible, err := s.store.PreviewBulk(req.IDs, req.LoggingEnabled)
		if err != nil {
			writeMutationError(w, err)
			return
		}
		ids := make([]string, 0, len(eligible))
		for _, p := range eligible {
			ids = append(ids, p.ID)
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"confirmationRequired": true,
			"eligible":             len(ids),
			"ids":                  ids,
		})
		return
	}

	outcome, err := s.store.BulkSetLogging(r.Context(), req.IDs, req.LoggingEnabled)
	if err != nil {
		writeMutationError(w, err)
		return
	}

	switch o := outcome.(type) {
	case session.Applied:
		ids := o.IDs
		if ids == nil {
			ids = []string{}
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"outcome": "applied",
			"ids":     ids,
		})
	case session.Diverged:
		WriteJSON(w, http.StatusOK, map[string]any{
			"outcome": "diverged",
			"success": o.Success,
			"failed":  o.Failed,
			"message": o.Reason,
		})
	default:
		WriteError(w, http.StatusInternalServerError, "unexpected bulk outcome")
	}
}

// writeMutationError maps coordinator errors onto HTTP responses. Raw
// gateway messages pass through untouched.
func writeMutationError(w http.ResponseWriter, err error) {
	var se *gateway.StatusError
	switch {
	case errors.Is(err, session.ErrNotLoaded):
		WriteRetryableError(w, http.StatusServiceUnavailable, "policy collection not loaded")
	case errors.Is(err, session.ErrMutationInFlight):
		WriteError(w, http.StatusConflict, "%s", err.Error())
	case errors.Is(err, session.ErrUnknownPolicy):
		WriteError(w, http.StatusNotFound, "%s", err.Error())
	case errors.Is(err, session.ErrDerivedPolicy):
		WriteError(w, http.StatusForbidden, "%s", err.Error())
	case errors.Is(err, session.ErrPolicyPaused):
		WriteError(w, http.StatusConflict, "%s", err.Error())
	case errors.As(err, &se):
		WriteError(w, http.StatusBadGateway, "%s", se.Message)
	default:
		WriteError(w, http.StatusBadGateway, "%s", err.Error())
	}
}
