package store

import (
	"context"
	"fmt"

	"github.com/carepoint/hospital-scheduling/internal/directory"
)

// EnsureDirectorySchema creates the people tables if they do not exist.
func (s *PgStore) EnsureDirectorySchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS doctors (
			id               text PRIMARY KEY,
			name             text NOT NULL,
			email            text NOT NULL DEFAULT '',
			specialization   text NOT NULL DEFAULT '',
			license_number   text NOT NULL DEFAULT '',
			years_experience int  NOT NULL DEFAULT 0,
			consultation_fee numeric NOT NULL DEFAULT 0,
			created_at       timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS patients (
			id         text PRIMARY KEY,
			name       text NOT NULL,
			email      text NOT NULL DEFAULT '',
			age        int  NOT NULL DEFAULT 0,
			gender     text NOT NULL DEFAULT '',
			phone      text NOT NULL DEFAULT '',
			address    text NOT NULL DEFAULT '',
			blood_type text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure directory schema: %w", err)
	}
	return nil
}

func (s *PgStore) SaveDoctor(ctx context.Context, d directory.Doctor) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO doctors (id, name, email, specialization, license_number, years_experience, consultation_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name             = EXCLUDED.name,
			email            = EXCLUDED.email,
			specialization   = EXCLUDED.specialization,
			license_number   = EXCLUDED.license_number,
			years_experience = EXCLUDED.years_experience,
			consultation_fee = EXCLUDED.consultation_fee
	`, d.ID, d.Name, d.Email, d.Specialization, d.LicenseNumber, d.YearsExperience, d.ConsultationFee)
	if err != nil {
		return fmt.Errorf("save doctor: %w", err)
	}
	return nil
}

func (s *PgStore) SavePatient(ctx context.Context, p directory.Patient) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO patients (id, name, email, age, gender, phone, address, blood_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name       = EXCLUDED.name,
			email      = EXCLUDED.email,
			age        = EXCLUDED.age,
			gender     = EXCLUDED.gender,
			phone      = EXCLUDED.phone,
			address    = EXCLUDED.address,
			blood_type = EXCLUDED.blood_type
	`, p.ID, p.Name, p.Email, p.Age, p.Gender, p.Phone, p.Address, p.BloodType)
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}

func (s *PgStore) LoadDoctors(ctx context.Context) ([]directory.Doctor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, specialization, license_number, years_experience, consultation_fee, created_at
		FROM doctors
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	defer rows.Close()

	var result []directory.Doctor
	for rows.Next() {
		var d directory.Doctor
		err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Specialization, &d.LicenseNumber,
			&d.YearsExperience, &d.ConsultationFee, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PgStore) LoadPatients(ctx context.Context) ([]directory.Patient, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, age, gender, phone, address, blood_type, created_at
		FROM patients
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	var result []directory.Patient
	for rows.Next() {
		var p directory.Patient
		err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Age, &p.Gender, &p.Phone,
			&p.Address, &p.BloodType, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
