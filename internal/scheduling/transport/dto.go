// Package transport defines the slot availability wire types.
package transport

import "github.com/google/uuid"

// SlotsResponse lists the free start times for one resource and date.
type SlotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// PairSlot is a free professor+room start time.
type PairSlot struct {
	Time          string    `json:"time"`
	ProfessorID   uuid.UUID `json:"professorId"`
	ProfessorName string    `json:"professorName"`
}

// PairSlotsResponse lists the free inaugural-class pairs for one date.
type PairSlotsResponse struct {
	Date  string     `json:"date"`
	Slots []PairSlot `json:"slots"`
}
