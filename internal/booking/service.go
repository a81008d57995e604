package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/carepoint/hospital-scheduling/internal/appointment"
	"github.com/carepoint/hospital-scheduling/internal/directory"
	"github.com/carepoint/hospital-scheduling/internal/lock"
	"github.com/carepoint/hospital-scheduling/internal/records"
	"github.com/carepoint/hospital-scheduling/internal/schedule"
)

// ErrSlotContended is returned when the slot lock could not be acquired in
// time. The caller should retry; the engine never queues behind a holder.
var ErrSlotContended = errors.New("slot is currently being booked, please retry")

// Store is the optional durability sink. Saves happen after the in-memory
// state change; a failed save is reported but never rolls the change back.
type Store interface {
	SaveAppointment(ctx context.Context, a appointment.Appointment) error
	SaveCalendarDay(ctx context.Context, doctorID string, day schedule.DaySnapshot) error
}

// Service is the façade callers book through. It validates inputs against
// the directory, resolves the doctor's calendar, and performs reserve plus
// record creation as one logical unit. Permission checks are assumed to have
// passed before any call; the service enforces only slot and state-machine
// invariants.
type Service struct {
	dir       *directory.Directory
	calendars *schedule.Registry
	ledger    *appointment.Ledger
	history   *records.Store
	locker    lock.Locker
	store     Store // nil means in-memory only
}

func NewService(dir *directory.Directory, calendars *schedule.Registry, ledger *appointment.Ledger, history *records.Store, locker lock.Locker, store Store) *Service {
	return &Service{
		dir:       dir,
		calendars: calendars,
		ledger:    ledger,
		history:   history,
		locker:    locker,
		store:     store,
	}
}

// SetAvailability publishes (or republishes) a doctor's bookable window for a
// date. Scheduled appointments whose slot the regeneration removed are
// flagged, never dropped; the flagged records are returned so callers can
// surface them.
func (s *Service) SetAvailability(ctx context.Context, doctorID, date, open, close string, slotMinutes int) (starts []string, flagged []appointment.Appointment, err error) {
	if _, err := s.dir.Doctor(doctorID); err != nil {
		return nil, nil, err
	}
	if slotMinutes == 0 {
		slotMinutes = schedule.DefaultSlotMinutes
	}

	cal := s.calendars.GetOrCreate(doctorID)
	starts, withdrawn, err := cal.GenerateAvailability(date, open, close, slotMinutes)
	if err != nil {
		return nil, nil, err
	}

	for _, start := range withdrawn {
		slot := schedule.Slot{Date: date, Start: start}
		flagged = append(flagged, s.ledger.MarkSlotWithdrawn(doctorID, slot)...)
	}

	if err := s.persistDay(ctx, cal, date); err != nil {
		return starts, flagged, err
	}
	for _, a := range flagged {
		if err := s.persistAppointment(ctx, a); err != nil {
			return starts, flagged, err
		}
	}
	return starts, flagged, nil
}

// Availability lists the doctor's free slot starts for a date.
func (s *Service) Availability(doctorID, date string) ([]string, error) {
	if _, err := s.dir.Doctor(doctorID); err != nil {
		return nil, err
	}
	cal, ok := s.calendars.Get(doctorID)
	if !ok {
		return nil, nil
	}
	return cal.AvailableSlots(date), nil
}

// Book reserves the slot and creates the appointment record. A failed
// reservation creates nothing: there is never an appointment without a
// reserved slot.
func (s *Service) Book(ctx context.Context, patientID, doctorID, date, start, reason string) (appointment.Appointment, error) {
	if _, err := s.dir.Patient(patientID); err != nil {
		return appointment.Appointment{}, err
	}
	if _, err := s.dir.Doctor(doctorID); err != nil {
		return appointment.Appointment{}, err
	}

	cal, ok := s.calendars.Get(doctorID)
	if !ok {
		return appointment.Appointment{}, schedule.ErrSlotNotFound
	}

	slot := schedule.Slot{Date: date, Start: start}
	var created appointment.Appointment

	err := s.locker.WithSlotLock(ctx, doctorID, slot, func(lockCtx context.Context) error {
		if err := cal.Reserve(slot.Date, slot.Start); err != nil {
			return err
		}
		created = s.ledger.Create(patientID, doctorID, slot, reason)

		if err := s.persistAppointment(lockCtx, created); err != nil {
			return err
		}
		return s.persistDay(lockCtx, cal, slot.Date)
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return appointment.Appointment{}, ErrSlotContended
		}
		return created, err
	}

	return created, nil
}

// Cancel moves the appointment to cancelled and frees its slot for rebooking.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (appointment.Appointment, error) {
	a, err := s.ledger.Cancel(id)
	if err != nil {
		return appointment.Appointment{}, err
	}

	if err := s.persistAppointment(ctx, a); err != nil {
		return a, err
	}
	if cal, ok := s.calendars.Get(a.DoctorID); ok {
		if err := s.persistDay(ctx, cal, a.Slot.Date); err != nil {
			return a, err
		}
	}
	return a, nil
}

// Completion carries the clinical outcome recorded when a visit completes.
type Completion struct {
	Diagnosis    string
	Prescription string
	Notes        string
	Medications  []records.Medication
	LabResults   map[string]records.LabResult
}

// Complete closes out a scheduled appointment with its clinical outcome and
// appends a medical record when a diagnosis was made. The slot stays occupied.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, c Completion) (appointment.Appointment, error) {
	a, err := s.ledger.Complete(id, c.Diagnosis, c.Prescription, c.Notes)
	if err != nil {
		return appointment.Appointment{}, err
	}

	if c.Diagnosis != "" {
		rec := s.history.Add(a.PatientID, a.DoctorID, a.ID, c.Diagnosis, c.Prescription)
		for _, m := range c.Medications {
			if err := s.history.AddMedication(rec.ID, m); err != nil {
				return a, err
			}
		}
		for name, lr := range c.LabResults {
			if err := s.history.AddLabResult(rec.ID, name, lr); err != nil {
				return a, err
			}
		}
	}

	if err := s.persistAppointment(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

// Reschedule moves a scheduled appointment to a new slot on the same doctor's
// calendar. The new slot is reserved before the old one is released.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDate, newStart string) (appointment.Appointment, error) {
	current, err := s.ledger.Get(id)
	if err != nil {
		return appointment.Appointment{}, err
	}

	newSlot := schedule.Slot{Date: newDate, Start: newStart}
	var moved appointment.Appointment

	err = s.locker.WithSlotLock(ctx, current.DoctorID, newSlot, func(lockCtx context.Context) error {
		var err error
		moved, err = s.ledger.Reschedule(id, newDate, newStart)
		if err != nil {
			return err
		}

		if err := s.persistAppointment(lockCtx, moved); err != nil {
			return err
		}
		if cal, ok := s.calendars.Get(moved.DoctorID); ok {
			if err := s.persistDay(lockCtx, cal, current.Slot.Date); err != nil {
				return err
			}
			if newDate != current.Slot.Date {
				if err := s.persistDay(lockCtx, cal, newDate); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockNotAcquired) {
			return appointment.Appointment{}, ErrSlotContended
		}
		return moved, err
	}

	return moved, nil
}

// Appointment returns a read-only copy of one record.
func (s *Service) Appointment(id uuid.UUID) (appointment.Appointment, error) {
	return s.ledger.Get(id)
}

func (s *Service) AppointmentsByPatient(patientID string) []appointment.Appointment {
	return s.ledger.ByPatient(patientID)
}

func (s *Service) AppointmentsByDoctor(doctorID string) []appointment.Appointment {
	return s.ledger.ByDoctor(doctorID)
}

func (s *Service) AppointmentsByStatus(status appointment.Status) []appointment.Appointment {
	return s.ledger.ByStatus(status)
}

func (s *Service) AppointmentsByDate(doctorID, date string) []appointment.Appointment {
	return s.ledger.ByDate(doctorID, date)
}

// PatientHistory returns the patient's medical records in creation order.
func (s *Service) PatientHistory(patientID string) []records.MedicalRecord {
	return s.history.ByPatient(patientID)
}

func (s *Service) persistAppointment(ctx context.Context, a appointment.Appointment) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveAppointment(ctx, a); err != nil {
		return fmt.Errorf("appointment %s applied but not persisted: %w", a.ID, err)
	}
	return nil
}

func (s *Service) persistDay(ctx context.Context, cal *schedule.Calendar, date string) error {
	if s.store == nil {
		return nil
	}
	for _, day := range cal.Snapshot() {
		if day.Date != date {
			continue
		}
		if err := s.store.SaveCalendarDay(ctx, cal.DoctorID(), day); err != nil {
			return fmt.Errorf("calendar day %s/%s applied but not persisted: %w", cal.DoctorID(), date, err)
		}
	}
	return nil
}
