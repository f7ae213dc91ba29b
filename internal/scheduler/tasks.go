package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskNextContactReminder = "leads.next-contact.reminder"

const TaskFunnelInvalidate = "funnel.invalidate"

type NextContactReminderPayload struct {
	LeadID string `json:"leadId"`
}

type FunnelInvalidatePayload struct {
	Scope string `json:"scope"`
}

func NewNextContactReminderTask(payload NextContactReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNextContactReminder, data), nil
}

func ParseNextContactReminderPayload(task *asynq.Task) (NextContactReminderPayload, error) {
	var payload NextContactReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NextContactReminderPayload{}, err
	}
	return payload, nil
}

func NewFunnelInvalidateTask(payload FunnelInvalidatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFunnelInvalidate, data), nil
}

func ParseFunnelInvalidatePayload(task *asynq.Task) (FunnelInvalidatePayload, error) {
	var payload FunnelInvalidatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FunnelInvalidatePayload{}, err
	}
	return payload, nil
}
