package directory

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Account is the shared contract across the three user kinds. The scheduling
// core never inspects anything beyond the id it stores.
type Account interface {
	AccountID() string
	AccountRole() Role
	DisplayName() string
}

type Patient struct {
	ID        string
	Name      string
	Email     string
	Age       int
	Gender    string
	Phone     string
	Address   string
	BloodType string
	Allergies []string
	CreatedAt time.Time
}

func (p Patient) AccountID() string   { return p.ID }
func (p Patient) AccountRole() Role   { return RolePatient }
func (p Patient) DisplayName() string { return p.Name }

// AddAllergy records an allergy once; duplicates are ignored.
func (p *Patient) AddAllergy(allergy string) {
	for _, a := range p.Allergies {
		if a == allergy {
			return
		}
	}
	p.Allergies = append(p.Allergies, allergy)
}

type Qualification struct {
	Title       string
	Institution string
	Year        int
}

type Doctor struct {
	ID              string
	Name            string
	Email           string
	Specialization  string
	LicenseNumber   string
	YearsExperience int
	ConsultationFee float64
	Qualifications  []Qualification
	CreatedAt       time.Time
}

func (d Doctor) AccountID() string   { return d.ID }
func (d Doctor) AccountRole() Role   { return RoleDoctor }
func (d Doctor) DisplayName() string { return d.Name }

type Admin struct {
	ID        string
	Name      string
	Email     string
	Level     string
	CreatedAt time.Time
}

func (a Admin) AccountID() string   { return a.ID }
func (a Admin) AccountRole() Role   { return RoleAdmin }
func (a Admin) DisplayName() string { return a.Name }

// PatientUpdate carries the optional fields of a personal-info update.
// Nil means leave unchanged.
type PatientUpdate struct {
	Name      *string
	Email     *string
	Age       *int
	Gender    *string
	Phone     *string
	Address   *string
	BloodType *string
}
