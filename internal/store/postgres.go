// Package store persists ledger and calendar state to Postgres so a restart
// reconstructs identical booking state.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepoint/hospital-scheduling/internal/appointment"
	"github.com/carepoint/hospital-scheduling/internal/schedule"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (s *PgStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS appointments (
			id               uuid PRIMARY KEY,
			patient_id       text NOT NULL,
			doctor_id        text NOT NULL,
			date             text NOT NULL,
			start_time       text NOT NULL,
			reason           text NOT NULL DEFAULT '',
			status           text NOT NULL,
			diagnosis        text NOT NULL DEFAULT '',
			prescription     text NOT NULL DEFAULT '',
			notes            text NOT NULL DEFAULT '',
			slot_withdrawn   boolean NOT NULL DEFAULT false,
			created_at       timestamptz NOT NULL,
			updated_at       timestamptz NOT NULL
		);

		CREATE TABLE IF NOT EXISTS calendar_days (
			doctor_id    text NOT NULL,
			date         text NOT NULL,
			open_time    text NOT NULL,
			close_time   text NOT NULL,
			slot_minutes int  NOT NULL,
			starts       text[] NOT NULL,
			booked       text[] NOT NULL,
			PRIMARY KEY (doctor_id, date)
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PgStore) SaveAppointment(ctx context.Context, a appointment.Appointment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO appointments
			(id, patient_id, doctor_id, date, start_time, reason, status,
			 diagnosis, prescription, notes, slot_withdrawn, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			date           = EXCLUDED.date,
			start_time     = EXCLUDED.start_time,
			status         = EXCLUDED.status,
			diagnosis      = EXCLUDED.diagnosis,
			prescription   = EXCLUDED.prescription,
			notes          = EXCLUDED.notes,
			slot_withdrawn = EXCLUDED.slot_withdrawn,
			updated_at     = EXCLUDED.updated_at
	`, a.ID, a.PatientID, a.DoctorID, a.Slot.Date, a.Slot.Start, a.Reason, a.Status,
		a.Diagnosis, a.Prescription, a.Notes, a.SlotWithdrawn, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save appointment: %w", err)
	}
	return nil
}

func (s *PgStore) SaveCalendarDay(ctx context.Context, doctorID string, day schedule.DaySnapshot) error {
	booked := day.Booked
	if booked == nil {
		booked = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO calendar_days
			(doctor_id, date, open_time, close_time, slot_minutes, starts, booked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (doctor_id, date) DO UPDATE SET
			open_time    = EXCLUDED.open_time,
			close_time   = EXCLUDED.close_time,
			slot_minutes = EXCLUDED.slot_minutes,
			starts       = EXCLUDED.starts,
			booked       = EXCLUDED.booked
	`, doctorID, day.Date, day.Open, day.Close, day.SlotMinutes, day.Starts, booked)
	if err != nil {
		return fmt.Errorf("save calendar day: %w", err)
	}
	return nil
}

func scanAppointment(row pgx.Row) (appointment.Appointment, error) {
	var a appointment.Appointment
	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Slot.Date,
		&a.Slot.Start,
		&a.Reason,
		&a.Status,
		&a.Diagnosis,
		&a.Prescription,
		&a.Notes,
		&a.SlotWithdrawn,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// LoadAppointments returns every stored record in creation order.
func (s *PgStore) LoadAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, date, start_time, reason, status,
		       diagnosis, prescription, notes, slot_withdrawn, created_at, updated_at
		FROM appointments
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	defer rows.Close()

	var result []appointment.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CalendarDay pairs a doctor with one persisted day of calendar state.
type CalendarDay struct {
	DoctorID string
	Day      schedule.DaySnapshot
}

// LoadCalendarDays returns every stored calendar day.
func (s *PgStore) LoadCalendarDays(ctx context.Context) ([]CalendarDay, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT doctor_id, date, open_time, close_time, slot_minutes, starts, booked
		FROM calendar_days
		ORDER BY doctor_id, date
	`)
	if err != nil {
		return nil, fmt.Errorf("load calendar days: %w", err)
	}
	defer rows.Close()

	var result []CalendarDay
	for rows.Next() {
		var cd CalendarDay
		err := rows.Scan(
			&cd.DoctorID,
			&cd.Day.Date,
			&cd.Day.Open,
			&cd.Day.Close,
			&cd.Day.SlotMinutes,
			&cd.Day.Starts,
			&cd.Day.Booked,
		)
		if err != nil {
			return nil, fmt.Errorf("scan calendar day: %w", err)
		}
		result = append(result, cd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
