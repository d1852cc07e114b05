package api

import (
	"net/http"
	"strconv"

	"github.com/parapet-sh/parapet/internal/audit"
)

const defaultAuditLimit = 100

// handleAudit returns recent audit events, newest first.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			WriteError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	if s.audit == nil {
		WriteError(w, http.StatusNotFound, "audit store not configured")
		return
	}

	events, err := s.audit.List(limit)
	if err != nil {
		s.logger.Error("failed to list audit events", "error", err)
		WriteError(w, http.StatusInternalServerError, "failed to list audit events")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}
