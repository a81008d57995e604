package appointment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carepoint/hospital-scheduling/internal/schedule"
)

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSlotWithdrawn     = errors.New("appointment slot was withdrawn by an availability change")
)

// CalendarResolver locates the owning doctor's calendar so that cancel and
// reschedule can release or move the reserved slot.
type CalendarResolver interface {
	Get(doctorID string) (*schedule.Calendar, bool)
}

// Ledger is the authoritative store of all appointment records. Ids are
// random UUIDs, never derived from collection length, so cancellations and
// concurrent creates cannot collide.
type Ledger struct {
	calendars CalendarResolver

	mu        sync.RWMutex
	byID      map[uuid.UUID]*Appointment
	byPatient map[string][]uuid.UUID
	byDoctor  map[string][]uuid.UUID
}

func NewLedger(calendars CalendarResolver) *Ledger {
	return &Ledger{
		calendars: calendars,
		byID:      make(map[uuid.UUID]*Appointment),
		byPatient: make(map[string][]uuid.UUID),
		byDoctor:  make(map[string][]uuid.UUID),
	}
}

// Create stores a new scheduled appointment. The caller must have already
// reserved the slot on the doctor's calendar.
func (l *Ledger) Create(patientID, doctorID string, slot schedule.Slot, reason string) Appointment {
	now := time.Now().UTC()
	a := &Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Slot:      slot,
		Reason:    reason,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.index(a)
	return *a
}

func (l *Ledger) index(a *Appointment) {
	l.byID[a.ID] = a
	l.byPatient[a.PatientID] = append(l.byPatient[a.PatientID], a.ID)
	l.byDoctor[a.DoctorID] = append(l.byDoctor[a.DoctorID], a.ID)
}

// Get returns a copy of the appointment.
func (l *Ledger) Get(id uuid.UUID) (Appointment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return *a, nil
}

// Complete moves a scheduled appointment to completed and stores the clinical
// fields. The slot stays reserved: a completed appointment still occupies its
// historical slot record.
func (l *Ledger) Complete(id uuid.UUID, diagnosis, prescription, notes string) (Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.Status.Terminal() {
		return Appointment{}, fmt.Errorf("%w: cannot complete %s appointment", ErrInvalidTransition, a.Status)
	}
	// An orphaned appointment has no live slot to complete against; it must
	// be rescheduled or cancelled first.
	if a.SlotWithdrawn {
		return Appointment{}, fmt.Errorf("%w: appointment %s", ErrSlotWithdrawn, a.ID)
	}

	a.Status = StatusCompleted
	a.Diagnosis = diagnosis
	a.Prescription = prescription
	a.Notes = notes
	a.UpdatedAt = time.Now().UTC()
	return *a, nil
}

// Cancel moves a scheduled appointment to cancelled and frees its slot.
// This is the only transition that releases a slot.
func (l *Ledger) Cancel(id uuid.UUID) (Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.Status.Terminal() {
		return Appointment{}, fmt.Errorf("%w: cannot cancel %s appointment", ErrInvalidTransition, a.Status)
	}

	a.Status = StatusCancelled
	a.UpdatedAt = time.Now().UTC()

	// A withdrawn appointment holds no reservation. If the start was later
	// regenerated and booked by someone else, releasing here would free
	// their live reservation.
	if !a.SlotWithdrawn {
		l.resolveCalendar(a.DoctorID).Release(a.Slot.Date, a.Slot.Start)
	}
	return *a, nil
}

// Reschedule moves a scheduled appointment to a new slot on the same doctor's
// calendar. The new slot is reserved before the old one is released, so a
// failed reservation leaves the original reservation untouched.
func (l *Ledger) Reschedule(id uuid.UUID, newDate, newStart string) (Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if a.Status.Terminal() {
		return Appointment{}, fmt.Errorf("%w: cannot reschedule %s appointment", ErrInvalidTransition, a.Status)
	}

	cal := l.resolveCalendar(a.DoctorID)
	if err := cal.Reserve(newDate, newStart); err != nil {
		return Appointment{}, err
	}
	// Same guard as Cancel: a withdrawn appointment's old start may now be
	// held by someone else.
	if !a.SlotWithdrawn {
		cal.Release(a.Slot.Date, a.Slot.Start)
	}

	a.Slot = schedule.Slot{Date: newDate, Start: newStart}
	a.SlotWithdrawn = false
	a.UpdatedAt = time.Now().UTC()
	return *a, nil
}

// MarkSlotWithdrawn flags every scheduled appointment holding the given slot
// after an availability regeneration removed it. Returns the flagged records.
func (l *Ledger) MarkSlotWithdrawn(doctorID string, slot schedule.Slot) []Appointment {
	l.mu.Lock()
	defer l.mu.Unlock()

	var flagged []Appointment
	for _, id := range l.byDoctor[doctorID] {
		a := l.byID[id]
		if a.Status == StatusScheduled && a.Slot == slot {
			a.SlotWithdrawn = true
			a.UpdatedAt = time.Now().UTC()
			flagged = append(flagged, *a)
		}
	}
	return flagged
}

// resolveCalendar panics if a live appointment references a doctor with no
// calendar: that is corrupted state, not a recoverable condition.
func (l *Ledger) resolveCalendar(doctorID string) *schedule.Calendar {
	cal, ok := l.calendars.Get(doctorID)
	if !ok {
		panic(fmt.Sprintf("appointment ledger: no calendar for doctor %s", doctorID))
	}
	return cal
}

// ByPatient returns copies of the patient's appointments in creation order.
func (l *Ledger) ByPatient(patientID string) []Appointment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byPatient[patientID], nil)
}

// ByDoctor returns copies of the doctor's appointments in creation order.
func (l *Ledger) ByDoctor(doctorID string) []Appointment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byDoctor[doctorID], nil)
}

// ByStatus returns every appointment currently in the given status.
func (l *Ledger) ByStatus(status Status) []Appointment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Appointment
	for _, a := range l.byID {
		if a.Status == status {
			out = append(out, *a)
		}
	}
	return out
}

// ByDate returns the doctor's appointments on a given date.
func (l *Ledger) ByDate(doctorID, date string) []Appointment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.collect(l.byDoctor[doctorID], func(a *Appointment) bool {
		return a.Slot.Date == date
	})
}

func (l *Ledger) collect(ids []uuid.UUID, keep func(*Appointment) bool) []Appointment {
	var out []Appointment
	for _, id := range ids {
		a := l.byID[id]
		if keep == nil || keep(a) {
			out = append(out, *a)
		}
	}
	return out
}

// All returns a copy of every record, for persistence snapshots.
func (l *Ledger) All() []Appointment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Appointment, 0, len(l.byID))
	for _, a := range l.byID {
		out = append(out, *a)
	}
	return out
}

// Restore inserts a persisted record as-is and rebuilds the indices for it.
func (l *Ledger) Restore(a Appointment) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byID[a.ID]; exists {
		return fmt.Errorf("duplicate appointment id %s", a.ID)
	}
	stored := a
	l.index(&stored)
	return nil
}
