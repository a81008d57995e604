package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/carepoint/hospital-scheduling/internal/db"
	"github.com/carepoint/hospital-scheduling/internal/directory"
	"github.com/carepoint/hospital-scheduling/internal/schedule"
	"github.com/carepoint/hospital-scheduling/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	pg := store.NewPgStore(pool)
	if err := pg.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	if err := pg.EnsureDirectorySchema(context.Background()); err != nil {
		log.Fatalf("ensure directory schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	doctorIDs, err := seedDoctors(context.Background(), pg, 50)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pg, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAvailability(context.Background(), pg, doctorIDs, 7); err != nil {
		log.Fatalf("seed availability: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pg *store.PgStore, count int) ([]string, error) {
	log.Printf("seeding %d doctors", count)

	specializations := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		d := directory.Doctor{
			ID:              fmt.Sprintf("DOC%03d", i+1),
			Name:            "Dr. " + gofakeit.Name(),
			Email:           gofakeit.Email(),
			Specialization:  specializations[gofakeit.Number(0, len(specializations)-1)],
			LicenseNumber:   fmt.Sprintf("MD%05d", gofakeit.Number(10000, 99999)),
			YearsExperience: gofakeit.Number(1, 35),
			ConsultationFee: float64(gofakeit.Number(80, 400)),
		}
		if err := pg.SaveDoctor(ctx, d); err != nil {
			return nil, err
		}
		ids = append(ids, d.ID)
	}

	log.Println("doctors seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pg *store.PgStore, count int) error {
	log.Printf("seeding %d patients", count)

	bloodTypes := []string{"O+", "O-", "A+", "A-", "B+", "B-", "AB+", "AB-"}

	for i := 0; i < count; i++ {
		p := directory.Patient{
			ID:        fmt.Sprintf("PAT%05d", i+1),
			Name:      gofakeit.Name(),
			Email:     gofakeit.Email(),
			Age:       gofakeit.Number(1, 95),
			Gender:    gofakeit.Gender(),
			Phone:     gofakeit.Phone(),
			Address:   gofakeit.Address().Address,
			BloodType: bloodTypes[gofakeit.Number(0, len(bloodTypes)-1)],
		}
		if err := pg.SavePatient(ctx, p); err != nil {
			return err
		}
		if (i+1)%500 == 0 {
			log.Printf("patients seeded: %d/%d", i+1, count)
		}
	}

	log.Println("patients seeded")
	return nil
}

// seedAvailability publishes a working day per doctor for the next few days,
// directly as calendar snapshots.
func seedAvailability(ctx context.Context, pg *store.PgStore, doctorIDs []string, days int) error {
	log.Printf("seeding availability for %d doctors over %d days", len(doctorIDs), days)

	for _, doctorID := range doctorIDs {
		cal := schedule.NewCalendar(doctorID)
		for d := 1; d <= days; d++ {
			date := time.Now().AddDate(0, 0, d).Format(schedule.DateLayout)
			openHour := gofakeit.Number(8, 10)
			closeHour := gofakeit.Number(15, 18)
			open := fmt.Sprintf("%02d:00", openHour)
			close := fmt.Sprintf("%02d:00", closeHour)

			if _, _, err := cal.GenerateAvailability(date, open, close, schedule.DefaultSlotMinutes); err != nil {
				return err
			}
		}
		for _, day := range cal.Snapshot() {
			if err := pg.SaveCalendarDay(ctx, doctorID, day); err != nil {
				return err
			}
		}
	}

	log.Println("availability seeded")
	return nil
}
