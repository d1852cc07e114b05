// Package events is the in-process event bus feeding the dashboard's
// websocket stream: collection reloads, logging mutations and transient
// errors fan out to connected browsers through it.
package events

import "time"

// EventType identifies the kind of event.
type EventType string

const (
	// EventReloaded fires after the policy collection is replaced from
	// the gateway, whether by explicit refresh or forced reconciliation.
	EventReloaded EventType = "collection.reloaded"

	// EventLoggingChanged fires after a single-policy logging toggle
	// is applied in place.
	EventLoggingChanged EventType = "policy.logging"

	// EventBulkResult fires after a bulk logging mutation completes,
	// with its aggregate outcome.
	EventBulkResult EventType = "bulk.result"

	// EventError carries a transient, user-visible error banner.
	EventError EventType = "error"
)

// Event is a single bus message.
type Event struct {
	Type      EventType `json:"type"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// ReloadedData describes a collection replacement.
type ReloadedData struct {
	Zones    int    `json:"zones"`
	Policies int    `json:"policies"`
	Reason   string `json:"reason,omitempty"`
}

// LoggingChangedData describes a single logging toggle.
type LoggingChangedData struct {
	PolicyID       string `json:"policyId"`
	LoggingEnabled bool   `json:"loggingEnabled"`
}

// BulkResultData describes the outcome of a bulk mutation.
type BulkResultData struct {
	OperationID string `json:"operationId"`
	Success     int    `json:"success"`
	Failed      int    `json:"failed"`
	Reloaded    bool   `json:"reloaded"`
}

// ErrorData is a transient error banner.
type ErrorData struct {
	Message string `json:"message"`
}
