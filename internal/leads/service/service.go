// Package service implements the lead lifecycle state machine.
package service

import (
	"context"
	"time"

	"funil_backend/internal/events"
	"funil_backend/internal/leads/domain"
	"funil_backend/internal/leads/repository"
	"funil_backend/internal/leads/transport"
	"funil_backend/platform/apperr"
	"funil_backend/platform/phone"
	"funil_backend/platform/sanitize"

	"github.com/google/uuid"
)

// duplicateWindow is how long an identical-intent resubmission is treated
// as a retry rather than a genuine new activity. Network retries and
// double-clicks are indistinguishable from real re-submission.
const duplicateWindow = 30 * time.Second

// Store is the persistence collaborator for the state machine.
// Implemented by the leads repository; faked in tests.
type Store interface {
	Create(ctx context.Context, lead repository.Lead) (*repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Lead, error)
	ListBoard(ctx context.Context, unitID *uuid.UUID) ([]repository.Lead, error)
	GetLastActivity(ctx context.Context, leadID uuid.UUID) (*repository.Activity, error)
	CommitActivity(ctx context.Context, params repository.CommitActivityParams) (*repository.Activity, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*repository.Activity, error)
	ListByLead(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
}

// ReminderScheduler enqueues next-contact reminders for delayed delivery.
type ReminderScheduler interface {
	ScheduleNextContactReminder(ctx context.Context, leadID uuid.UUID, runAt time.Time) error
}

// VisitMailer sends the visit confirmation for a committed booking.
type VisitMailer interface {
	SendVisitConfirmation(ctx context.Context, to, name string, visitAt time.Time) error
}

// Service provides business logic for leads and their activity log.
type Service struct {
	store    Store
	bus      events.Bus
	reminder ReminderScheduler
	mailer   VisitMailer
}

// New creates a new leads service.
func New(store Store, bus events.Bus, reminder ReminderScheduler, mailer VisitMailer) *Service {
	return &Service{
		store:    store,
		bus:      bus,
		reminder: reminder,
		mailer:   mailer,
	}
}

// Create registers a new lead in the novo-cadastro stage.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (*transport.LeadResponse, error) {
	lead := repository.Lead{
		ID:               uuid.New(),
		Name:             sanitize.Text(req.Name),
		Phone:            phone.NormalizeE164(req.Phone),
		Email:            req.Email,
		UnitID:           req.UnitID,
		SourceID:         req.SourceID,
		RegistrationName: sanitize.Text(req.RegistrationName),
		Status:           domain.StatusNovoCadastro,
	}

	saved, err := s.store.Create(ctx, lead)
	if err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    saved.ID,
			UnitID:    saved.UnitID,
			SourceID:  saved.SourceID,
		})
	}

	resp := toLeadResponse(saved)
	return &resp, nil
}

// GetByID returns a lead by id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toLeadResponse(lead)
	return &resp, nil
}

// Board returns kanban columns in funnel order. Empty columns are included
// so the board renders every stage.
func (s *Service) Board(ctx context.Context, unitID *uuid.UUID) ([]transport.BoardColumn, error) {
	leads, err := s.store.ListBoard(ctx, unitID)
	if err != nil {
		return nil, err
	}

	order := []domain.Status{
		domain.StatusNovoCadastro,
		domain.StatusTentativaContato,
		domain.StatusContatoEfetivo,
		domain.StatusAtendimentoAgendado,
		domain.StatusAtendimentoRealizado,
		domain.StatusNegociacao,
		domain.StatusMatriculado,
		domain.StatusPerdido,
	}

	byStatus := make(map[domain.Status][]transport.LeadResponse)
	for i := range leads {
		byStatus[leads[i].Status] = append(byStatus[leads[i].Status], toLeadResponse(&leads[i]))
	}

	columns := make([]transport.BoardColumn, 0, len(order))
	for _, status := range order {
		column := transport.BoardColumn{Status: string(status), Leads: byStatus[status]}
		if column.Leads == nil {
			column.Leads = []transport.LeadResponse{}
		}
		columns = append(columns, column)
	}
	return columns, nil
}

// ListActivities returns the active activity log for a lead.
func (s *Service) ListActivities(ctx context.Context, leadID uuid.UUID) ([]transport.ActivityResponse, error) {
	if _, err := s.store.GetByID(ctx, leadID); err != nil {
		return nil, err
	}
	acts, err := s.store.ListByLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.ActivityResponse, len(acts))
	for i := range acts {
		resp[i] = toActivityResponse(&acts[i])
	}
	return resp, nil
}

// SubmitActivity validates and applies one activity against a lead.
// The activity row, the derived lead update and any loss reasons commit
// atomically; a rejected submission leaves the lead untouched.
func (s *Service) SubmitActivity(ctx context.Context, leadID, userID uuid.UUID, req transport.SubmitActivityRequest) (*transport.LeadSnapshot, error) {
	input, err := parseActivityInput(req)
	if err != nil {
		return nil, err
	}

	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	if !domain.CanRecord(lead.Status, input.Type) {
		return nil, apperr.Validation("activity " + string(input.Type) + " is not allowed for status " + string(lead.Status))
	}

	// Identical-intent resubmission inside the window is a no-op success,
	// not a duplicate write.
	last, err := s.store.GetLastActivity(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if last != nil && sameIntent(last, input) && time.Since(last.CreatedAt) < duplicateWindow {
		resp := toLeadResponse(lead)
		lastResp := toActivityResponse(last)
		return &transport.LeadSnapshot{Lead: resp, Activity: &lastResp, Duplicate: true}, nil
	}

	oldStatus := lead.Status
	newStatus, ok := domain.NextStatus(lead.Status, input.Type, input.Result)
	if !ok {
		return nil, apperr.Validation("transition not allowed from status " + string(lead.Status))
	}

	updated := *lead
	updated.Status = newStatus
	applySideEffects(&updated, input)

	activity := repository.Activity{
		ID:             uuid.New(),
		LeadID:         lead.ID,
		UserID:         userID,
		Type:           input.Type,
		ContactChannel: input.Channel,
		Result:         input.ResultPtr(),
		Notes:          sanitize.TextPtr(input.Notes),
		ScheduledDate:  input.ScheduledDate,
		ResourceUnitID: input.ResourceUnitID,
		ProfessorID:    input.ProfessorID,
		RoomID:         input.RoomID,
	}

	lossReasons := make([]repository.LossReason, 0, len(input.LossReasons))
	for _, reason := range input.LossReasons {
		lossReasons = append(lossReasons, repository.LossReason{
			ID:                  uuid.New(),
			ActivityID:          activity.ID,
			Reason:              sanitize.Text(reason),
			PreviousStatus:      oldStatus,
			TotalReasonsInEvent: len(input.LossReasons),
		})
	}

	saved, err := s.store.CommitActivity(ctx, repository.CommitActivityParams{
		Lead:              updated,
		Activity:          activity,
		LossReasons:       lossReasons,
		ExpectedStatus:    oldStatus,
		CheckSlotConflict: input.Type == domain.ActivityScheduling,
	})
	if err != nil {
		return nil, err
	}

	s.publishCommitted(ctx, &updated, saved, oldStatus)
	s.scheduleFollowUps(ctx, &updated, input)

	resp := toLeadResponse(&updated)
	actResp := toActivityResponse(saved)
	return &transport.LeadSnapshot{Lead: resp, Activity: &actResp}, nil
}

// DeactivateActivity soft-deletes an activity, keeping the row for audit.
func (s *Service) DeactivateActivity(ctx context.Context, id uuid.UUID) error {
	act, err := s.store.Deactivate(ctx, id)
	if err != nil {
		return err
	}

	if s.bus != nil {
		lead, err := s.store.GetByID(ctx, act.LeadID)
		unitID := uuid.Nil
		if err == nil {
			unitID = lead.UnitID
		}
		s.bus.Publish(ctx, events.ActivityDeactivated{
			BaseEvent:  events.NewBaseEvent(),
			ActivityID: act.ID,
			LeadID:     act.LeadID,
			UnitID:     unitID,
		})
	}
	return nil
}

// applySideEffects mutates the derived lead snapshot per activity type.
func applySideEffects(lead *repository.Lead, input activityInput) {
	switch input.Type {
	case domain.ActivityContactAttempt, domain.ActivityEffectiveContact:
		if input.NextContactDate != nil {
			lead.NextContactDate = input.NextContactDate
		}
	case domain.ActivityScheduling:
		// A new booking replaces any previous pending one and resets the
		// valorization flag for the fresh visit.
		lead.ScheduledDate = input.ScheduledDate
		lead.ScheduledUnitID = input.ResourceUnitID
		lead.ScheduledProfessorID = input.ProfessorID
		lead.ScheduledRoomID = input.RoomID
		lead.ValorizationConfirmed = false
	case domain.ActivityAttendance, domain.ActivityEnrollment:
		lead.ScheduledDate = nil
		lead.ScheduledUnitID = nil
		lead.ScheduledProfessorID = nil
		lead.ScheduledRoomID = nil
		if input.Result == domain.ResultNegociacao {
			lead.NextContactDate = input.NextContactDate
		}
	}
}

func (s *Service) publishCommitted(ctx context.Context, lead *repository.Lead, act *repository.Activity, oldStatus domain.Status) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(ctx, events.ActivityCommitted{
		BaseEvent:    events.NewBaseEvent(),
		ActivityID:   act.ID,
		LeadID:       lead.ID,
		UnitID:       lead.UnitID,
		ActivityType: string(act.Type),
	})

	if lead.Status != oldStatus {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			UnitID:    lead.UnitID,
			OldStatus: string(oldStatus),
			NewStatus: string(lead.Status),
		})
	}
}

func (s *Service) scheduleFollowUps(ctx context.Context, lead *repository.Lead, input activityInput) {
	if s.reminder != nil && lead.NextContactDate != nil && lead.NextContactDate.After(time.Now()) {
		_ = s.reminder.ScheduleNextContactReminder(ctx, lead.ID, *lead.NextContactDate)
	}

	if s.mailer != nil && input.Type == domain.ActivityScheduling && lead.Email != nil && input.ScheduledDate != nil {
		_ = s.mailer.SendVisitConfirmation(ctx, *lead.Email, lead.Name, *input.ScheduledDate)
	}
}

// sameIntent reports whether a previous activity matches the submitted one
// closely enough to be a retried duplicate.
func sameIntent(last *repository.Activity, input activityInput) bool {
	if last.Type != input.Type {
		return false
	}
	if !equalPtr(last.ContactChannel, input.Channel) {
		return false
	}
	if !equalPtr(last.Result, input.ResultPtr()) {
		return false
	}
	if (last.ScheduledDate == nil) != (input.ScheduledDate == nil) {
		return false
	}
	if last.ScheduledDate != nil && !last.ScheduledDate.Equal(*input.ScheduledDate) {
		return false
	}
	return true
}

func equalPtr[T comparable](a, b *T) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func toLeadResponse(lead *repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:                    lead.ID,
		Name:                  lead.Name,
		Phone:                 lead.Phone,
		Email:                 lead.Email,
		UnitID:                lead.UnitID,
		SourceID:              lead.SourceID,
		RegistrationName:      lead.RegistrationName,
		Status:                string(lead.Status),
		ScheduledDate:         lead.ScheduledDate,
		NextContactDate:       lead.NextContactDate,
		ValorizationConfirmed: lead.ValorizationConfirmed,
		CreatedAt:             lead.CreatedAt,
	}
}

func toActivityResponse(act *repository.Activity) transport.ActivityResponse {
	resp := transport.ActivityResponse{
		ID:            act.ID,
		LeadID:        act.LeadID,
		Type:          string(act.Type),
		Notes:         act.Notes,
		ScheduledDate: act.ScheduledDate,
		CreatedAt:     act.CreatedAt,
	}
	if act.ContactChannel != nil {
		ch := string(*act.ContactChannel)
		resp.ContactChannel = &ch
	}
	if act.Result != nil {
		res := string(*act.Result)
		resp.Result = &res
	}
	return resp
}
