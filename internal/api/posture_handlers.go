package api

import (
	"errors"
	"net/http"

	"github.com/parapet-sh/parapet/internal/gateway"
	"github.com/parapet-sh/parapet/internal/session"
)

// SnapshotResponse is the collection state plus the UI flags derived
// from it.
type SnapshotResponse struct {
	*gateway.Snapshot
	MutationInFlight bool   `json:"mutationInFlight"`
	TransientError   string `json:"transientError,omitempty"`
}

// handleSnapshot returns the current in-memory collection.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot()
	if err != nil {
		// Load failure is fatal to this view: no partial render, the
		// UI shows a retry affordance instead.
		WriteRetryableError(w, http.StatusServiceUnavailable, "policy collection not loaded")
		return
	}
	WriteJSON(w, http.StatusOK, SnapshotResponse{
		Snapshot:         snap,
		MutationInFlight: s.store.MutationInFlight(),
		TransientError:   s.store.TransientError(),
	})
}

// handleRefresh re-fetches the collection from the gateway. Every retry
// is a distinct user action; nothing here retries automatically.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Load(r.Context(), "user refresh"); err != nil {
		var se *gateway.StatusError
		if errors.As(err, &se) {
			WriteRetryableError(w, http.StatusBadGateway, "%s", se.Message)
			return
		}
		WriteRetryableError(w, http.StatusBadGateway, "%s", err.Error())
		return
	}
	s.handleSnapshot(w, r)
}

// handleMatrix returns the zone posture matrix, recomputed from the
// unfiltered collection.
func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.Matrix()
	if err != nil {
		if errors.Is(err, session.ErrNotLoaded) {
			WriteRetryableError(w, http.StatusServiceUnavailable, "policy collection not loaded")
			return
		}
		WriteError(w, http.StatusInternalServerError, "%s", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, m)
}
