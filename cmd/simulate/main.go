// simulate drives concurrent booking traffic against a running api-server and
// reports success/conflict counts, latency percentiles, and whether any slot
// ended up double booked.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type simConfig struct {
	BaseURL  string
	Workers  int
	Duration time.Duration
	Doctors  []string
	Patients []string
	Date     string
}

func loadSimConfig() simConfig {
	cfg := simConfig{
		BaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		Workers:  getEnvInt("SIM_WORKERS", 16),
		Duration: getEnvDuration("SIM_DURATION", 30*time.Second),
		Date:     getEnv("SIM_DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")),
	}

	cfg.Doctors = strings.Split(getEnv("SIM_DOCTORS", "DOC001,DOC002,DOC003"), ",")
	for i := 1; i <= getEnvInt("SIM_PATIENTS", 50); i++ {
		cfg.Patients = append(cfg.Patients, fmt.Sprintf("PAT%03d", i))
	}
	return cfg
}

type metrics struct {
	total     int64
	success   int64
	conflict  int64
	errored   int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (m *metrics) record(latency time.Duration, status int) {
	atomic.AddInt64(&m.total, 1)
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&m.success, 1)
	case status == http.StatusConflict:
		atomic.AddInt64(&m.conflict, 1)
	default:
		atomic.AddInt64(&m.errored, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, latency)
	m.mu.Unlock()
}

func (m *metrics) percentile(p int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(m.latencies))
	copy(sorted, m.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cfg := loadSimConfig()

	log.Printf("simulate: base_url=%s workers=%d duration=%s date=%s doctors=%d patients=%d",
		cfg.BaseURL, cfg.Workers, cfg.Duration, cfg.Date, len(cfg.Doctors), len(cfg.Patients))

	// Publish one contended window per doctor so workers fight over few slots.
	client := &http.Client{Timeout: 5 * time.Second}
	for _, doc := range cfg.Doctors {
		if err := setAvailability(client, cfg, doc); err != nil {
			log.Fatalf("set availability for %s: %v", doc, err)
		}
	}

	var m metrics
	deadline := time.Now().Add(cfg.Duration)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for time.Now().Before(deadline) {
				doc := cfg.Doctors[rng.Intn(len(cfg.Doctors))]
				pat := cfg.Patients[rng.Intn(len(cfg.Patients))]
				start := fmt.Sprintf("%02d:%02d", 9+rng.Intn(2), 30*rng.Intn(2))

				status, latency := book(client, cfg, pat, doc, start)
				m.record(latency, status)
			}
		}(time.Now().UnixNano() + int64(w))
	}

	wg.Wait()

	log.Printf("requests=%d success=%d conflict=%d error=%d",
		atomic.LoadInt64(&m.total), atomic.LoadInt64(&m.success),
		atomic.LoadInt64(&m.conflict), atomic.LoadInt64(&m.errored))
	log.Printf("latency p50=%s p95=%s p99=%s", m.percentile(50), m.percentile(95), m.percentile(99))

	if err := verifyNoDoubleBooking(client, cfg); err != nil {
		log.Fatalf("INVARIANT VIOLATED: %v", err)
	}
	log.Println("no double booking detected")
}

func setAvailability(client *http.Client, cfg simConfig, doctorID string) error {
	body, _ := json.Marshal(map[string]any{
		"date":         cfg.Date,
		"open":         "09:00",
		"close":        "11:00",
		"slot_minutes": 30,
	})
	resp, err := client.Post(cfg.BaseURL+"/doctors/"+doctorID+"/availability", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, payload)
	}
	return nil
}

func book(client *http.Client, cfg simConfig, patientID, doctorID, start string) (int, time.Duration) {
	body, _ := json.Marshal(map[string]any{
		"patient_id": patientID,
		"doctor_id":  doctorID,
		"date":       cfg.Date,
		"start":      start,
		"reason":     "load test",
	})

	begin := time.Now()
	resp, err := client.Post(cfg.BaseURL+"/appointments", "application/json", bytes.NewReader(body))
	latency := time.Since(begin)
	if err != nil {
		return 0, latency
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, latency
}

// verifyNoDoubleBooking lists each doctor's appointments for the simulated
// date and checks that no slot is held by two live records.
func verifyNoDoubleBooking(client *http.Client, cfg simConfig) error {
	for _, doc := range cfg.Doctors {
		resp, err := client.Get(cfg.BaseURL + "/doctors/" + doc + "/appointments?date=" + cfg.Date)
		if err != nil {
			return err
		}

		var appts []struct {
			Start  string `json:"start"`
			Status string `json:"status"`
		}
		err = json.NewDecoder(resp.Body).Decode(&appts)
		resp.Body.Close()
		if err != nil {
			return err
		}

		seen := make(map[string]int)
		for _, a := range appts {
			if a.Status != "cancelled" {
				seen[a.Start]++
			}
		}
		for start, n := range seen {
			if n > 1 {
				return fmt.Errorf("doctor %s slot %s %s held by %d live appointments", doc, cfg.Date, start, n)
			}
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
