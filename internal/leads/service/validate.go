package service

import (
	"strings"
	"time"

	"funil_backend/internal/leads/domain"
	"funil_backend/internal/leads/transport"
	"funil_backend/platform/apperr"

	"github.com/google/uuid"
)

// activityInput is the parsed, per-type-validated form of a submission.
type activityInput struct {
	Type            domain.ActivityType
	Channel         *domain.ContactChannel
	Result          domain.AttendanceResult
	Notes           *string
	ScheduledDate   *time.Time
	ResourceUnitID  *uuid.UUID
	ProfessorID     *uuid.UUID
	RoomID          *uuid.UUID
	NextContactDate *time.Time
	LossReasons     []string
}

func (in activityInput) ResultPtr() *domain.AttendanceResult {
	if in.Result == "" {
		return nil
	}
	result := in.Result
	return &result
}

// parseActivityInput enforces the required fields per activity type.
// All failures are apperr.Validation and happen before any write.
func parseActivityInput(req transport.SubmitActivityRequest) (activityInput, error) {
	activityType := domain.ActivityType(req.Type)
	if !domain.IsKnownActivityType(activityType) {
		return activityInput{}, apperr.Validation("unknown activity type: " + req.Type)
	}

	input := activityInput{
		Type:            activityType,
		Notes:           req.Notes,
		ScheduledDate:   req.ScheduledDate,
		ResourceUnitID:  req.ResourceUnitID,
		ProfessorID:     req.ProfessorID,
		RoomID:          req.RoomID,
		NextContactDate: req.NextContactDate,
		LossReasons:     trimmedReasons(req.LossReasons),
	}

	switch activityType {
	case domain.ActivityContactAttempt, domain.ActivityEffectiveContact:
		if req.ContactChannel == nil {
			return activityInput{}, apperr.Validation("contactChannel is required for contact activities")
		}
		channel := domain.ContactChannel(*req.ContactChannel)
		if !domain.IsKnownChannel(channel) {
			return activityInput{}, apperr.Validation("unknown contact channel: " + *req.ContactChannel)
		}
		input.Channel = &channel

	case domain.ActivityScheduling:
		if req.ScheduledDate == nil {
			return activityInput{}, apperr.Validation("scheduledDate is required for scheduling")
		}
		if !req.ScheduledDate.After(time.Now()) {
			return activityInput{}, apperr.Validation("scheduledDate must be in the future")
		}
		hasUnit := req.ResourceUnitID != nil
		hasPair := req.ProfessorID != nil && req.RoomID != nil
		if !hasUnit && !hasPair {
			return activityInput{}, apperr.Validation("scheduling requires a unit or a professor and room pair")
		}

	case domain.ActivityAttendance:
		if req.Result == nil {
			return activityInput{}, apperr.Validation("result is required for attendance")
		}
		result := domain.AttendanceResult(*req.Result)
		if !domain.IsKnownResult(result) {
			return activityInput{}, apperr.Validation("unknown attendance result: " + *req.Result)
		}
		input.Result = result

		switch result {
		case domain.ResultNegociacao:
			if req.NextContactDate == nil {
				return activityInput{}, apperr.Validation("nextContactDate is required when result is negociacao")
			}
		case domain.ResultPerdido:
			if len(input.LossReasons) == 0 {
				return activityInput{}, apperr.Validation("at least one loss reason is required when result is perdido")
			}
		case domain.ResultMatriculado:
			if req.Notes == nil || strings.TrimSpace(*req.Notes) == "" {
				return activityInput{}, apperr.Validation("notes are required when result is matriculado")
			}
		}
	}

	return input, nil
}

func trimmedReasons(reasons []string) []string {
	out := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		if trimmed := strings.TrimSpace(reason); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
