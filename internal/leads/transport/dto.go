// Package transport defines request/response DTOs for the leads module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateLeadRequest registers a new lead in the funnel.
type CreateLeadRequest struct {
	Name             string    `json:"name" validate:"required,min=2"`
	Phone            string    `json:"phone" validate:"required"`
	Email            *string   `json:"email,omitempty" validate:"omitempty,email"`
	UnitID           uuid.UUID `json:"unitId" validate:"required"`
	SourceID         uuid.UUID `json:"sourceId" validate:"required"`
	RegistrationName string    `json:"registrationName" validate:"required"`
}

// SubmitActivityRequest records an interaction against a lead. Required
// fields depend on the activity type; the service validates per type.
type SubmitActivityRequest struct {
	Type            string     `json:"type" validate:"required"`
	ContactChannel  *string    `json:"contactChannel,omitempty"`
	Result          *string    `json:"result,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	ScheduledDate   *time.Time `json:"scheduledDate,omitempty"`
	ResourceUnitID  *uuid.UUID `json:"resourceUnitId,omitempty"`
	ProfessorID     *uuid.UUID `json:"professorId,omitempty"`
	RoomID          *uuid.UUID `json:"roomId,omitempty"`
	NextContactDate *time.Time `json:"nextContactDate,omitempty"`
	LossReasons     []string   `json:"lossReasons,omitempty"`
}

// LeadResponse is the API view of a lead.
type LeadResponse struct {
	ID                    uuid.UUID  `json:"id"`
	Name                  string     `json:"name"`
	Phone                 string     `json:"phone"`
	Email                 *string    `json:"email,omitempty"`
	UnitID                uuid.UUID  `json:"unitId"`
	SourceID              uuid.UUID  `json:"sourceId"`
	RegistrationName      string     `json:"registrationName"`
	Status                string     `json:"status"`
	ScheduledDate         *time.Time `json:"scheduledDate,omitempty"`
	NextContactDate       *time.Time `json:"nextContactDate,omitempty"`
	ValorizationConfirmed bool       `json:"valorizationConfirmed"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// ActivityResponse is the API view of one activity-log entry.
type ActivityResponse struct {
	ID             uuid.UUID  `json:"id"`
	LeadID         uuid.UUID  `json:"leadId"`
	Type           string     `json:"type"`
	ContactChannel *string    `json:"contactChannel,omitempty"`
	Result         *string    `json:"result,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	ScheduledDate  *time.Time `json:"scheduledDate,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// LeadSnapshot is returned by activity submission: the lead as committed,
// plus the activity that was recorded. Duplicate marks the no-op path for
// retried identical submissions.
type LeadSnapshot struct {
	Lead      LeadResponse      `json:"lead"`
	Activity  *ActivityResponse `json:"activity,omitempty"`
	Duplicate bool              `json:"duplicate"`
}

// BoardColumn is one kanban column: a funnel status and its leads.
type BoardColumn struct {
	Status string         `json:"status"`
	Leads  []LeadResponse `json:"leads"`
}
