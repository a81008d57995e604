package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carepoint/hospital-scheduling/internal/appointment"
	"github.com/carepoint/hospital-scheduling/internal/booking"
	"github.com/carepoint/hospital-scheduling/internal/records"
)

type BookAppointmentRequest struct {
	PatientID string `json:"patient_id" validate:"required"`
	DoctorID  string `json:"doctor_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Start     string `json:"start" validate:"required,datetime=15:04"`
	Reason    string `json:"reason" validate:"max=500"`
}

type SetAvailabilityRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Open        string `json:"open" validate:"required,datetime=15:04"`
	Close       string `json:"close" validate:"required,datetime=15:04"`
	SlotMinutes int    `json:"slot_minutes" validate:"gte=0,lte=480"`
}

type MedicationRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Dosage   string `json:"dosage" validate:"max=100"`
	Duration string `json:"duration" validate:"max=100"`
}

type LabResultRequest struct {
	Result      string `json:"result" validate:"required,max=500"`
	NormalRange string `json:"normal_range" validate:"max=100"`
}

type CompleteAppointmentRequest struct {
	Diagnosis    string                      `json:"diagnosis" validate:"required,max=2000"`
	Prescription string                      `json:"prescription" validate:"max=2000"`
	Notes        string                      `json:"notes" validate:"max=4000"`
	Medications  []MedicationRequest         `json:"medications" validate:"dive"`
	LabResults   map[string]LabResultRequest `json:"lab_results" validate:"dive"`
}

func (r CompleteAppointmentRequest) toCompletion() booking.Completion {
	c := booking.Completion{
		Diagnosis:    r.Diagnosis,
		Prescription: r.Prescription,
		Notes:        r.Notes,
	}
	for _, m := range r.Medications {
		c.Medications = append(c.Medications, records.Medication{
			Name:     m.Name,
			Dosage:   m.Dosage,
			Duration: m.Duration,
		})
	}
	if len(r.LabResults) > 0 {
		c.LabResults = make(map[string]records.LabResult, len(r.LabResults))
		for name, lr := range r.LabResults {
			c.LabResults[name] = records.LabResult{
				Result:      lr.Result,
				NormalRange: lr.NormalRange,
			}
		}
	}
	return c
}

type RescheduleAppointmentRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Start string `json:"start" validate:"required,datetime=15:04"`
}

type AppointmentResponse struct {
	ID            uuid.UUID `json:"id"`
	PatientID     string    `json:"patient_id"`
	DoctorID      string    `json:"doctor_id"`
	Date          string    `json:"date"`
	Start         string    `json:"start"`
	Reason        string    `json:"reason,omitempty"`
	Status        string    `json:"status"`
	Diagnosis     string    `json:"diagnosis,omitempty"`
	Prescription  string    `json:"prescription,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	SlotWithdrawn bool      `json:"slot_withdrawn,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.Slot.Date,
		Start:         a.Slot.Start,
		Reason:        a.Reason,
		Status:        string(a.Status),
		Diagnosis:     a.Diagnosis,
		Prescription:  a.Prescription,
		Notes:         a.Notes,
		SlotWithdrawn: a.SlotWithdrawn,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func toAppointmentResponses(list []appointment.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}

type AvailabilityResponse struct {
	DoctorID string   `json:"doctor_id"`
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
}

type SetAvailabilityResponse struct {
	DoctorID  string                `json:"doctor_id"`
	Date      string                `json:"date"`
	Slots     []string              `json:"slots"`
	Withdrawn []AppointmentResponse `json:"withdrawn_appointments,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
