package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/carepoint/hospital-scheduling/internal/schedule"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is the canonical record of one booking. The ledger owns the
// only mutable copy; queries return value copies.
type Appointment struct {
	ID        uuid.UUID
	PatientID string
	DoctorID  string
	Slot      schedule.Slot
	Reason    string
	Status    Status

	// Clinical fields, set only on completion.
	Diagnosis    string
	Prescription string
	Notes        string

	// SlotWithdrawn marks a scheduled appointment whose slot was removed by a
	// later availability regeneration. The record is kept, never dropped.
	SlotWithdrawn bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
