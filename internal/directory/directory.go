package directory

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrDuplicateID     = errors.New("id already registered")
)

// Directory is the in-memory registry of patients, doctors, and admins.
// Callers receive value copies; the directory owns the canonical records.
type Directory struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	doctors  map[string]*Doctor
	admins   map[string]*Admin
}

func New() *Directory {
	return &Directory{
		patients: make(map[string]*Patient),
		doctors:  make(map[string]*Doctor),
		admins:   make(map[string]*Admin),
	}
}

func (d *Directory) AddPatient(p Patient) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.patients[p.ID]; exists {
		return ErrDuplicateID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	d.patients[p.ID] = &p
	return nil
}

func (d *Directory) AddDoctor(doc Doctor) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.doctors[doc.ID]; exists {
		return ErrDuplicateID
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	d.doctors[doc.ID] = &doc
	return nil
}

func (d *Directory) AddAdmin(a Admin) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.admins[a.ID]; exists {
		return ErrDuplicateID
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	d.admins[a.ID] = &a
	return nil
}

func (d *Directory) Patient(id string) (Patient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.patients[id]
	if !ok {
		return Patient{}, ErrPatientNotFound
	}
	return *p, nil
}

func (d *Directory) Doctor(id string) (Doctor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	doc, ok := d.doctors[id]
	if !ok {
		return Doctor{}, ErrDoctorNotFound
	}
	return *doc, nil
}

// Doctors lists every registered doctor sorted by id.
func (d *Directory) Doctors() []Doctor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Doctor, 0, len(d.doctors))
	for _, doc := range d.doctors {
		out = append(out, *doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdatePatient applies the non-nil fields of the update.
func (d *Directory) UpdatePatient(id string, upd PatientUpdate) (Patient, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.patients[id]
	if !ok {
		return Patient{}, ErrPatientNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Email != nil {
		p.Email = *upd.Email
	}
	if upd.Age != nil {
		p.Age = *upd.Age
	}
	if upd.Gender != nil {
		p.Gender = *upd.Gender
	}
	if upd.Phone != nil {
		p.Phone = *upd.Phone
	}
	if upd.Address != nil {
		p.Address = *upd.Address
	}
	if upd.BloodType != nil {
		p.BloodType = *upd.BloodType
	}
	return *p, nil
}

// AddDoctorQualification appends to the doctor's profile.
func (d *Directory) AddDoctorQualification(id string, q Qualification) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	doc.Qualifications = append(doc.Qualifications, q)
	return nil
}

// AddPatientAllergy records an allergy on the patient's profile.
func (d *Directory) AddPatientAllergy(id, allergy string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.patients[id]
	if !ok {
		return ErrPatientNotFound
	}
	p.AddAllergy(allergy)
	return nil
}
