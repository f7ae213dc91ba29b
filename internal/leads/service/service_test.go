package service

import (
	"context"
	"testing"
	"time"

	"funil_backend/internal/leads/domain"
	"funil_backend/internal/leads/repository"
	"funil_backend/internal/leads/transport"
	"funil_backend/platform/apperr"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store with the same commit semantics as the
// postgres repository: optimistic status check and slot conflict re-check.
type fakeStore struct {
	leads      map[uuid.UUID]repository.Lead
	activities []repository.Activity
	reasons    []repository.LossReason
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeStore) Create(_ context.Context, lead repository.Lead) (*repository.Lead, error) {
	lead.CreatedAt = time.Now()
	f.leads[lead.ID] = lead
	return &lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead not found")
	}
	return &lead, nil
}

func (f *fakeStore) ListBoard(_ context.Context, unitID *uuid.UUID) ([]repository.Lead, error) {
	items := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		if unitID == nil || lead.UnitID == *unitID {
			items = append(items, lead)
		}
	}
	return items, nil
}

func (f *fakeStore) GetLastActivity(_ context.Context, leadID uuid.UUID) (*repository.Activity, error) {
	var last *repository.Activity
	for i := range f.activities {
		act := f.activities[i]
		if act.LeadID != leadID || !act.Active {
			continue
		}
		if last == nil || act.CreatedAt.After(last.CreatedAt) {
			last = &f.activities[i]
		}
	}
	return last, nil
}

func (f *fakeStore) CommitActivity(_ context.Context, params repository.CommitActivityParams) (*repository.Activity, error) {
	current, ok := f.leads[params.Lead.ID]
	if !ok {
		return nil, apperr.NotFound("lead not found")
	}
	if current.Status != params.ExpectedStatus {
		return nil, apperr.Conflict("lead changed since it was read")
	}

	if params.CheckSlotConflict && params.Activity.ScheduledDate != nil {
		slot := *params.Activity.ScheduledDate
		for _, other := range f.leads {
			if other.ID == params.Lead.ID || other.ScheduledDate == nil {
				continue
			}
			if !sameResource(other, params.Activity) {
				continue
			}
			diff := other.ScheduledDate.Sub(slot)
			if diff > -time.Hour && diff < time.Hour {
				return nil, apperr.Conflict("timeslot already booked")
			}
		}
	}

	f.leads[params.Lead.ID] = params.Lead
	act := params.Activity
	act.Active = true
	act.CreatedAt = time.Now()
	f.activities = append(f.activities, act)
	f.reasons = append(f.reasons, params.LossReasons...)
	return &act, nil
}

func sameResource(lead repository.Lead, act repository.Activity) bool {
	if act.ResourceUnitID != nil && lead.ScheduledUnitID != nil && *act.ResourceUnitID == *lead.ScheduledUnitID {
		return true
	}
	if act.ProfessorID != nil && lead.ScheduledProfessorID != nil && *act.ProfessorID == *lead.ScheduledProfessorID {
		return true
	}
	if act.RoomID != nil && lead.ScheduledRoomID != nil && *act.RoomID == *lead.ScheduledRoomID {
		return true
	}
	return false
}

func (f *fakeStore) Deactivate(_ context.Context, id uuid.UUID) (*repository.Activity, error) {
	for i := range f.activities {
		if f.activities[i].ID == id {
			f.activities[i].Active = false
			return &f.activities[i], nil
		}
	}
	return nil, apperr.NotFound("activity not found")
}

func (f *fakeStore) ListByLead(_ context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	items := make([]repository.Activity, 0)
	for _, act := range f.activities {
		if act.LeadID == leadID && act.Active {
			items = append(items, act)
		}
	}
	return items, nil
}

func seedLead(store *fakeStore, status domain.Status) uuid.UUID {
	id := uuid.New()
	store.leads[id] = repository.Lead{
		ID:       id,
		Name:     "Maria Souza",
		Phone:    "+5511999990000",
		UnitID:   uuid.New(),
		SourceID: uuid.New(),
		Status:   status,
	}
	return id
}

func strPtr(s string) *string { return &s }

func TestSubmitActivityUnknownLead(t *testing.T) {
	svc := New(newFakeStore(), nil, nil, nil)

	_, err := svc.SubmitActivity(context.Background(), uuid.New(), uuid.New(), transport.SubmitActivityRequest{
		Type:           string(domain.ActivityContactAttempt),
		ContactChannel: strPtr("phone"),
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestSubmitActivityValidationRejectsBeforeWrite(t *testing.T) {
	store := newFakeStore()
	leadID := seedLead(store, domain.StatusNovoCadastro)
	svc := New(store, nil, nil, nil)

	tests := []struct {
		name string
		req  transport.SubmitActivityRequest
	}{
		{"attempt without channel", transport.SubmitActivityRequest{
			Type: string(domain.ActivityContactAttempt),
		}},
		{"unknown channel", transport.SubmitActivityRequest{
			Type:           string(domain.ActivityContactAttempt),
			ContactChannel: strPtr("fax"),
		}},
		{"scheduling without date", transport.SubmitActivityRequest{
			Type:           string(domain.ActivityScheduling),
			ResourceUnitID: uuidPtr(uuid.New()),
		}},
		{"scheduling in the past", transport.SubmitActivityRequest{
			Type:           string(domain.ActivityScheduling),
			ScheduledDate:  timePtr(time.Now().Add(-time.Hour)),
			ResourceUnitID: uuidPtr(uuid.New()),
		}},
		{"scheduling without resource", transport.SubmitActivityRequest{
			Type:          string(domain.ActivityScheduling),
			ScheduledDate: timePtr(time.Now().Add(24 * time.Hour)),
		}},
		{"unknown activity type", transport.SubmitActivityRequest{Type: "visita"}},
	}

	for _, tc := range tests {
		_, err := svc.SubmitActivity(context.Background(), leadID, uuid.New(), tc.req)
		if !apperr.Is(err, apperr.KindValidation) {
			t.Errorf("%s: expected Validation, got %v", tc.name, err)
		}
	}

	if len(store.activities) != 0 {
		t.Errorf("rejected submissions must not write: %d activities stored", len(store.activities))
	}
	if store.leads[leadID].Status != domain.StatusNovoCadastro {
		t.Error("rejected submissions must leave the lead unchanged")
	}
}

func TestSubmitAttendancePerdido(t *testing.T) {
	store := newFakeStore()
	leadID := seedLead(store, domain.StatusAtendimentoAgendado)
	lead := store.leads[leadID]
	visit := time.Now().Add(48 * time.Hour)
	unitID := uuid.New()
	lead.ScheduledDate = &visit
	lead.ScheduledUnitID = &unitID
	store.leads[leadID] = lead

	svc := New(store, nil, nil, nil)

	// Zero loss reasons is rejected before any write.
	_, err := svc.SubmitActivity(context.Background(), leadID, uuid.New(), transport.SubmitActivityRequest{
		Type:   string(domain.ActivityAttendance),
		Result: strPtr("perdido"),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation for zero loss reasons, got %v", err)
	}

	snap, err := svc.SubmitActivity(context.Background(), leadID, uuid.New(), transport.SubmitActivityRequest{
		Type:        string(domain.ActivityAttendance),
		Result:      strPtr("perdido"),
		LossReasons: []string{"preco"},
	})
	if err != nil {
		t.Fatalf("SubmitActivity: %v", err)
	}
	if snap.Lead.Status != string(domain.StatusPerdido) {
		t.Errorf("status = %q, want perdido", snap.Lead.Status)
	}
	if snap.Lead.ScheduledDate != nil {
		t.Error("scheduledDate must be cleared on attendance")
	}
	if len(store.reasons) != 1 || store.reasons[0].TotalReasonsInEvent != 1 {
		t.Errorf("loss reasons not recorded with denominator: %+v", store.reasons)
	}
	if store.reasons[0].PreviousStatus != domain.StatusAtendimentoAgendado {
		t.Errorf("loss reason previousStatus = %q", store.reasons[0].PreviousStatus)
	}
}

func TestSubmitSchedulingConflict(t *testing.T) {
	store := newFakeStore()
	unitID := uuid.New()

	bookedID := seedLead(store, domain.StatusAtendimentoAgendado)
	booked := store.leads[bookedID]
	slot := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	booked.ScheduledDate = &slot
	booked.ScheduledUnitID = &unitID
	store.leads[bookedID] = booked

	leadID := seedLead(store, domain.StatusContatoEfetivo)
	svc := New(store, nil, nil, nil)

	// Half an hour into the existing visit: conflict.
	within := slot.Add(30 * time.Minute)
	_, err := svc.SubmitActivity(context.Background(), leadID, uuid.New(), transport.SubmitActivityRequest{
		Type:           string(domain.ActivityScheduling),
		ScheduledDate:  &within,
		ResourceUnitID: &unitID,
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if store.leads[leadID].Status != domain.StatusContatoEfetivo {
		t.Error("conflicting submission must leave the lead unchanged")
	}

	// One hour later the slot is free again.
	free := slot.Add(time.Hour)
	snap, err := svc.SubmitActivity(context.Background(), leadID, uuid.New(), transport.SubmitActivityRequest{
		Type:           string(domain.ActivityScheduling),
		ScheduledDate:  &free,
		ResourceUnitID: &unitID,
	})
	if err != nil {
		t.Fatalf("SubmitActivity: %v", err)
	}
	if snap.Lead.Status != string(domain.StatusAtendimentoAgendado) {
		t.Errorf("status = %q, want atendimento-agendado", snap.Lead.Status)
	}
	if snap.Lead.ValorizationConfirmed {
		t.Error("a new booking must reset valorizationConfirmed")
	}
}

func TestSubmitActivityDuplicateGuard(t *testing.T) {
	store := newFakeStore()
	leadID := seedLead(store, domain.StatusNovoCadastro)
	svc := New(store, nil, nil, nil)

	req := transport.SubmitActivityRequest{
		Type:           string(domain.ActivityContactAttempt),
		ContactChannel: strPtr("whatsapp"),
	}

	first, err := svc.SubmitActivity(context.Background(), leadID, uuid.New(), req)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if first.Duplicate {
		t.Fatal("first submission should not be a duplicate")
	}

	second, err := svc.SubmitActivity(context.Background(), leadID, uuid.New(), req)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("identical retry within the window must be a no-op success")
	}
	if len(store.activities) != 1 {
		t.Errorf("duplicate retry must not write: %d activities stored", len(store.activities))
	}
}

func TestSubmitActivityTerminalStatusRejected(t *testing.T) {
	store := newFakeStore()
	leadID := seedLead(store, domain.StatusMatriculado)
	svc := New(store, nil, nil, nil)

	_, err := svc.SubmitActivity(context.Background(), leadID, uuid.New(), transport.SubmitActivityRequest{
		Type:           string(domain.ActivityContactAttempt),
		ContactChannel: strPtr("phone"),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected Validation on terminal lead, got %v", err)
	}
	if store.leads[leadID].Status != domain.StatusMatriculado {
		t.Error("terminal lead must stay unchanged")
	}
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func timePtr(t time.Time) *time.Time { return &t }
