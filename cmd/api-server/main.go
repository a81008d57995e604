package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/carepoint/hospital-scheduling/internal/api"
	"github.com/carepoint/hospital-scheduling/internal/appointment"
	"github.com/carepoint/hospital-scheduling/internal/booking"
	"github.com/carepoint/hospital-scheduling/internal/config"
	"github.com/carepoint/hospital-scheduling/internal/db"
	"github.com/carepoint/hospital-scheduling/internal/directory"
	"github.com/carepoint/hospital-scheduling/internal/lock"
	"github.com/carepoint/hospital-scheduling/internal/records"
	redisclient "github.com/carepoint/hospital-scheduling/internal/redis"
	"github.com/carepoint/hospital-scheduling/internal/schedule"
	"github.com/carepoint/hospital-scheduling/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir := directory.New()
	calendars := schedule.NewRegistry()
	ledger := appointment.NewLedger(calendars)
	history := records.NewStore()

	var pgPool *pgxpool.Pool
	var bookingStore booking.Store

	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatalf("postgres connection error: %v", err)
		}
		defer pgPool.Close()
		log.Println("connected to Postgres")

		pg := store.NewPgStore(pgPool)
		if err := pg.EnsureSchema(rootCtx); err != nil {
			log.Fatalf("schema error: %v", err)
		}
		if err := pg.EnsureDirectorySchema(rootCtx); err != nil {
			log.Fatalf("schema error: %v", err)
		}
		if err := reloadState(rootCtx, pg, dir, calendars, ledger); err != nil {
			log.Fatalf("state reload error: %v", err)
		}
		bookingStore = pg
	} else {
		log.Println("POSTGRES_DSN not set, running in-memory only")
		seedDemoData(dir)
	}

	var rdb *redis.Client
	locker := lock.NewLocalLocker()

	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatalf("redis connection error: %v", err)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
		log.Println("connected to Redis, using distributed slot locks")
	}

	svc := booking.NewService(dir, calendars, ledger, history, locker, bookingStore)

	router := api.NewRouter(api.RouterConfig{
		Service:   svc,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
		JWTSecret: cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// reloadState rebuilds the directory, calendars, and ledger from Postgres so
// a restart resumes with identical booking state.
func reloadState(ctx context.Context, pg *store.PgStore, dir *directory.Directory, calendars *schedule.Registry, ledger *appointment.Ledger) error {
	doctors, err := pg.LoadDoctors(ctx)
	if err != nil {
		return err
	}
	for _, d := range doctors {
		if err := dir.AddDoctor(d); err != nil {
			return err
		}
	}

	patients, err := pg.LoadPatients(ctx)
	if err != nil {
		return err
	}
	for _, p := range patients {
		if err := dir.AddPatient(p); err != nil {
			return err
		}
	}

	days, err := pg.LoadCalendarDays(ctx)
	if err != nil {
		return err
	}
	for _, cd := range days {
		if err := calendars.GetOrCreate(cd.DoctorID).Restore(cd.Day); err != nil {
			return err
		}
	}

	appts, err := pg.LoadAppointments(ctx)
	if err != nil {
		return err
	}
	for _, a := range appts {
		if err := ledger.Restore(a); err != nil {
			return err
		}
	}

	log.Printf("state reloaded: %d doctors, %d patients, %d calendar days, %d appointments",
		len(doctors), len(patients), len(days), len(appts))
	return nil
}

// seedDemoData installs a small fixed roster for in-memory dev runs.
func seedDemoData(dir *directory.Directory) {
	demoDoctors := []directory.Doctor{
		{ID: "DOC001", Name: "Dr. Sarah Johnson", Email: "sarah@hospital.example", Specialization: "Cardiology", LicenseNumber: "MD12345", YearsExperience: 15, ConsultationFee: 200},
		{ID: "DOC002", Name: "Dr. Michael Chen", Email: "michael@hospital.example", Specialization: "Pediatrics", LicenseNumber: "MD67890", YearsExperience: 8, ConsultationFee: 150},
		{ID: "DOC003", Name: "Dr. Emily Rodriguez", Email: "emily@hospital.example", Specialization: "Neurology", LicenseNumber: "MD54321", YearsExperience: 12, ConsultationFee: 250},
	}
	demoPatients := []directory.Patient{
		{ID: "PAT001", Name: "Alice Smith", Email: "alice@example.com", Age: 28, Gender: "Female", Phone: "555-0101", Address: "123 Main St", BloodType: "O+"},
		{ID: "PAT002", Name: "Bob Wilson", Email: "bob@example.com", Age: 45, Gender: "Male", Phone: "555-0102", Address: "456 Oak Ave", BloodType: "A-"},
		{ID: "PAT003", Name: "Carol Davis", Email: "carol@example.com", Age: 35, Gender: "Female", Phone: "555-0103", Address: "789 Pine Rd", BloodType: "B+"},
	}

	for _, d := range demoDoctors {
		if err := dir.AddDoctor(d); err != nil {
			log.Printf("demo doctor %s: %v", d.ID, err)
		}
	}
	for _, p := range demoPatients {
		if err := dir.AddPatient(p); err != nil {
			log.Printf("demo patient %s: %v", p.ID, err)
		}
	}
	log.Printf("demo data seeded: %d doctors, %d patients", len(demoDoctors), len(demoPatients))
}
