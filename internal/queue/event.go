// Package queue defines the audit-event payloads exchanged over the
// message broker, the publisher used by the service layer and the
// background consumer that turns events into the audit log.
package queue

import "time"

// auditQueueName is the durable queue all audit events flow through.
const auditQueueName = "user.audit"

// AuditEvent records one successful, security-relevant operation under
// the actor who performed it. Audit entries are a distinct category
// from application logs: they are emitted only on success paths and
// persisted separately so they stay queryable on their own.
type AuditEvent struct {
	Action   string            `json:"action"`              // e.g. "user.created", "auth.login"
	ActorID  string            `json:"actor_id"`            // requesting user
	TargetID string            `json:"target_id,omitempty"` // subject of the action, if any
	Context  map[string]string `json:"context,omitempty"`   // extra structured detail
	At       string            `json:"at"`                  // RFC3339 UTC timestamp
}

// NewAuditEvent stamps an event with the current UTC time.
func NewAuditEvent(action, actorID, targetID string, ctx map[string]string) AuditEvent {
	return AuditEvent{
		Action:   action,
		ActorID:  actorID,
		TargetID: targetID,
		Context:  ctx,
		At:       time.Now().UTC().Format(time.RFC3339),
	}
}
