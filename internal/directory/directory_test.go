package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndGet(t *testing.T) {
	d := New()

	require.NoError(t, d.AddPatient(Patient{ID: "PAT001", Name: "Alice Smith", Age: 34}))
	require.NoError(t, d.AddDoctor(Doctor{ID: "DOC001", Name: "Dr. Sarah Johnson", Specialization: "Cardiology"}))
	require.NoError(t, d.AddAdmin(Admin{ID: "ADM001", Name: "Root", Level: "super"}))

	p, err := d.Patient("PAT001")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", p.Name)
	assert.False(t, p.CreatedAt.IsZero())

	doc, err := d.Doctor("DOC001")
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", doc.Specialization)

	_, err = d.Patient("PAT999")
	assert.ErrorIs(t, err, ErrPatientNotFound)
	_, err = d.Doctor("DOC999")
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestAdd_DuplicateID(t *testing.T) {
	d := New()

	require.NoError(t, d.AddPatient(Patient{ID: "PAT001"}))
	assert.ErrorIs(t, d.AddPatient(Patient{ID: "PAT001"}), ErrDuplicateID)

	require.NoError(t, d.AddDoctor(Doctor{ID: "DOC001"}))
	assert.ErrorIs(t, d.AddDoctor(Doctor{ID: "DOC001"}), ErrDuplicateID)
}

func TestDoctors_SortedByID(t *testing.T) {
	d := New()
	require.NoError(t, d.AddDoctor(Doctor{ID: "DOC003"}))
	require.NoError(t, d.AddDoctor(Doctor{ID: "DOC001"}))
	require.NoError(t, d.AddDoctor(Doctor{ID: "DOC002"}))

	docs := d.Doctors()
	require.Len(t, docs, 3)
	assert.Equal(t, "DOC001", docs[0].ID)
	assert.Equal(t, "DOC003", docs[2].ID)
}

func TestUpdatePatient_AppliesOnlyProvidedFields(t *testing.T) {
	d := New()
	require.NoError(t, d.AddPatient(Patient{ID: "PAT001", Name: "Alice Smith", Phone: "555-0100", BloodType: "O+"}))

	phone := "555-0199"
	age := 35
	updated, err := d.UpdatePatient("PAT001", PatientUpdate{Phone: &phone, Age: &age})
	require.NoError(t, err)

	assert.Equal(t, "555-0199", updated.Phone)
	assert.Equal(t, 35, updated.Age)
	// Fields left nil keep their previous values.
	assert.Equal(t, "Alice Smith", updated.Name)
	assert.Equal(t, "O+", updated.BloodType)

	_, err = d.UpdatePatient("PAT999", PatientUpdate{Phone: &phone})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestAddPatientAllergy_Deduplicates(t *testing.T) {
	d := New()
	require.NoError(t, d.AddPatient(Patient{ID: "PAT001"}))

	require.NoError(t, d.AddPatientAllergy("PAT001", "penicillin"))
	require.NoError(t, d.AddPatientAllergy("PAT001", "penicillin"))
	require.NoError(t, d.AddPatientAllergy("PAT001", "latex"))

	p, err := d.Patient("PAT001")
	require.NoError(t, err)
	assert.Equal(t, []string{"penicillin", "latex"}, p.Allergies)

	assert.ErrorIs(t, d.AddPatientAllergy("PAT999", "latex"), ErrPatientNotFound)
}

func TestAddDoctorQualification(t *testing.T) {
	d := New()
	require.NoError(t, d.AddDoctor(Doctor{ID: "DOC001"}))

	q := Qualification{Title: "MD", Institution: "Johns Hopkins", Year: 2010}
	require.NoError(t, d.AddDoctorQualification("DOC001", q))

	doc, err := d.Doctor("DOC001")
	require.NoError(t, err)
	require.Len(t, doc.Qualifications, 1)
	assert.Equal(t, "MD", doc.Qualifications[0].Title)

	assert.ErrorIs(t, d.AddDoctorQualification("DOC999", q), ErrDoctorNotFound)
}

func TestAccountRoles(t *testing.T) {
	accounts := []Account{
		Patient{ID: "PAT001", Name: "Alice Smith"},
		Doctor{ID: "DOC001", Name: "Dr. Sarah Johnson"},
		Admin{ID: "ADM001", Name: "Root"},
	}

	assert.Equal(t, RolePatient, accounts[0].AccountRole())
	assert.Equal(t, RoleDoctor, accounts[1].AccountRole())
	assert.Equal(t, RoleAdmin, accounts[2].AccountRole())
	assert.Equal(t, "PAT001", accounts[0].AccountID())
	assert.Equal(t, "Dr. Sarah Johnson", accounts[1].DisplayName())
}
