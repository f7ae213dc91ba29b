// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"funil_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is registered.
type LeadCreated struct {
	BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	UnitID   uuid.UUID `json:"unitId"`
	SourceID uuid.UUID `json:"sourceId"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// ActivityCommitted is published after an activity and its derived lead
// changes commit. External realtime/caching layers subscribe to recompute
// funnel aggregates.
type ActivityCommitted struct {
	BaseEvent
	ActivityID   uuid.UUID `json:"activityId"`
	LeadID       uuid.UUID `json:"leadId"`
	UnitID       uuid.UUID `json:"unitId"`
	ActivityType string    `json:"activityType"`
}

func (e ActivityCommitted) EventName() string { return "leads.activity.committed" }

// LeadStatusChanged is published when an activity moves a lead to a new status.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	UnitID    uuid.UUID `json:"unitId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// ActivityDeactivated is published when an activity is soft-deleted.
// Aggregates that folded over the activity must be recomputed.
type ActivityDeactivated struct {
	BaseEvent
	ActivityID uuid.UUID `json:"activityId"`
	LeadID     uuid.UUID `json:"leadId"`
	UnitID     uuid.UUID `json:"unitId"`
}

func (e ActivityDeactivated) EventName() string { return "leads.activity.deactivated" }

// NextContactDue is published by the worker when a lead's next-contact
// reminder fires and is still current.
type NextContactDue struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	UnitID uuid.UUID `json:"unitId"`
}

func (e NextContactDue) EventName() string { return "leads.next-contact.due" }

// =============================================================================
// Funnel Domain Events
// =============================================================================

// FunnelInvalidated is published after cached funnel buckets for a scope
// have been dropped. Realtime consumers use it to trigger refetches.
type FunnelInvalidated struct {
	BaseEvent
	Scope string `json:"scope"`
}

func (e FunnelInvalidated) EventName() string { return "funnel.invalidated" }
