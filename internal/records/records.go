// Package records keeps the medical history written when appointments are
// completed. It is an append-only store; entries are never deleted.
package records

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrRecordNotFound = errors.New("medical record not found")

type Medication struct {
	Name       string
	Dosage     string
	Duration   string
	Prescribed time.Time
}

type LabResult struct {
	Result      string
	NormalRange string
	TestedAt    time.Time
}

type MedicalRecord struct {
	ID            uuid.UUID
	PatientID     string
	DoctorID      string
	AppointmentID uuid.UUID
	Diagnosis     string
	Treatment     string
	Medications   []Medication
	LabResults    map[string]LabResult
	CreatedAt     time.Time
}

// Store holds medical records indexed by patient.
type Store struct {
	mu        sync.RWMutex
	byID      map[uuid.UUID]*MedicalRecord
	byPatient map[string][]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		byID:      make(map[uuid.UUID]*MedicalRecord),
		byPatient: make(map[string][]uuid.UUID),
	}
}

// Add stores a new record and returns a copy with its assigned id.
func (s *Store) Add(patientID, doctorID string, appointmentID uuid.UUID, diagnosis, treatment string) MedicalRecord {
	r := &MedicalRecord{
		ID:            uuid.New(),
		PatientID:     patientID,
		DoctorID:      doctorID,
		AppointmentID: appointmentID,
		Diagnosis:     diagnosis,
		Treatment:     treatment,
		LabResults:    make(map[string]LabResult),
		CreatedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[r.ID] = r
	s.byPatient[patientID] = append(s.byPatient[patientID], r.ID)
	return copyRecord(r)
}

func (s *Store) AddMedication(id uuid.UUID, m Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return ErrRecordNotFound
	}
	if m.Prescribed.IsZero() {
		m.Prescribed = time.Now().UTC()
	}
	r.Medications = append(r.Medications, m)
	return nil
}

func (s *Store) AddLabResult(id uuid.UUID, testName string, result LabResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok {
		return ErrRecordNotFound
	}
	if result.TestedAt.IsZero() {
		result.TestedAt = time.Now().UTC()
	}
	r.LabResults[testName] = result
	return nil
}

func (s *Store) Get(id uuid.UUID) (MedicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return MedicalRecord{}, ErrRecordNotFound
	}
	return copyRecord(r), nil
}

// ByPatient returns the patient's history in creation order.
func (s *Store) ByPatient(patientID string) []MedicalRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []MedicalRecord
	for _, id := range s.byPatient[patientID] {
		out = append(out, copyRecord(s.byID[id]))
	}
	return out
}

func copyRecord(r *MedicalRecord) MedicalRecord {
	out := *r
	out.Medications = append([]Medication(nil), r.Medications...)
	out.LabResults = make(map[string]LabResult, len(r.LabResults))
	for k, v := range r.LabResults {
		out.LabResults[k] = v
	}
	return out
}
