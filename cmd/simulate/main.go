package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/KennPulvera/LNY-july20/internal/booking"
	"github.com/KennPulvera/LNY-july20/internal/db"
)

// The simulator hammers the public create endpoint with many workers
// racing for a small set of slots, then verifies in Postgres that no
// active slot ended up double-booked.

type SimConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
	Branches   int
	Days       int
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Rejected  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

// Record classifies one attempt. Slot conflicts come back as 400 with a
// slot_taken or slot_being_booked error code, so the body code is what
// separates a lost race from a rejected payload.
func (om *OperationMetrics) Record(latency time.Duration, status int, errCode string) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case status == http.StatusCreated:
		atomic.AddInt64(&om.Success, 1)
	case errCode == "slot_taken" || errCode == "slot_being_booked":
		atomic.AddInt64(&om.Conflict, 1)
	case status == http.StatusBadRequest:
		atomic.AddInt64(&om.Rejected, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

func loadSimConfig() SimConfig {
	sc := SimConfig{
		APIBaseURL: "http://127.0.0.1:8080",
		Duration:   30 * time.Second,
		Workers:    16,
		Branches:   2,
		Days:       3,
	}
	if v := os.Getenv("SIM_API_BASE_URL"); v != "" {
		sc.APIBaseURL = v
	}
	if v := os.Getenv("SIM_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			sc.Duration = d
		}
	}
	if v := os.Getenv("SIM_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sc.Workers = n
		}
	}
	return sc
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	sc := loadSimConfig()
	log.Printf("simulate starting workers=%d duration=%s target=%s", sc.Workers, sc.Duration, sc.APIBaseURL)

	gofakeit.Seed(time.Now().UnixNano())

	// A deliberately tiny slot universe so workers collide constantly.
	branches := booking.Branches[:sc.Branches]
	var days []time.Time
	day := booking.DateOnly(time.Now()).AddDate(0, 0, 1)
	for len(days) < sc.Days {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}

	metrics := &OperationMetrics{}
	ctx, cancel := context.WithTimeout(context.Background(), sc.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < sc.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}
			for ctx.Err() == nil {
				attemptCreate(ctx, client, sc.APIBaseURL, branches, days, metrics)
			}
		}()
	}
	wg.Wait()

	report(metrics)

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		if err := verifyNoDoubleBooking(dsn); err != nil {
			log.Fatalf("verification failed: %v", err)
		}
		log.Println("verification passed: no double-booked public slots")
	}
}

func attemptCreate(ctx context.Context, client *http.Client, baseURL string, branches []booking.Branch, days []time.Time, metrics *OperationMetrics) {
	payload := map[string]any{
		"guardianName":     gofakeit.Name(),
		"guardianEmail":    gofakeit.Email(),
		"guardianPhone":    fmt.Sprintf("09%09d", rand.Intn(1000000000)),
		"guardianRelation": "Mother",
		"childName":        gofakeit.FirstName(),
		"childBirthday":    "2020-05-15",
		"branchLocation":   string(branches[rand.Intn(len(branches))]),
		"serviceType":      "Initial Assessment",
		"appointmentDate":  days[rand.Intn(len(days))].Format("2006-01-02"),
		"selectedTime":     booking.TimeSlots[rand.Intn(len(booking.TimeSlots))],
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/bookings", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			metrics.Record(time.Since(start), 0, "")
		}
		return
	}

	var result struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&result)
	_ = resp.Body.Close()

	metrics.Record(time.Since(start), resp.StatusCode, result.Error)
}

func report(m *OperationMetrics) {
	avg, p50, p95 := m.Stats()
	log.Printf("requests total=%d created=%d conflict=%d rejected=%d error=%d",
		m.Total, m.Success, m.Conflict, m.Rejected, m.Error)
	log.Printf("latency avg=%s p50=%s p95=%s", avg, p50, p95)
}

// verifyNoDoubleBooking asserts the core invariant directly against the
// database after the run.
func verifyNoDoubleBooking(dsn string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	row := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM (
			SELECT appointment_date, time_slot, branch
			FROM bookings
			WHERE service_type <> 'Online Consultation'
			  AND status <> 'cancelled'
			  AND NOT assessment_deleted
			  AND created_via = 'public'
			  AND time_slot <> 'To be scheduled'
			GROUP BY appointment_date, time_slot, branch
			HAVING count(*) > 1
		) doubled
	`)

	var doubled int
	if err := row.Scan(&doubled); err != nil {
		return err
	}
	if doubled > 0 {
		return fmt.Errorf("%d public slots are double-booked", doubled)
	}
	return nil
}
