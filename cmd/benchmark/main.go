package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	usersFile   string
	concurrency int
	duration    time.Duration
	workload    string
	idempotent  bool
)

// Metrics
var (
	totalRequests uint64
	success200    uint64
	fail403       uint64 // Daily limit reached
	fail400       uint64 // Below minimum or insufficient balance
	fail409       uint64 // Idempotency key in flight
	failOther     uint64
)

type seededUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.StringVar(&usersFile, "users", "seed_users.json", "User ids written by the seeder")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.StringVar(&workload, "workload", "uniform", "Workload type: uniform | hotspot")
	flag.BoolVar(&idempotent, "idempotent", false, "Send an Idempotency-Key with every request")
}

func main() {
	flag.Parse()

	users, err := loadUsers(usersFile)
	if err != nil {
		log.Fatalf("load users: %v", err)
	}
	if len(users) == 0 {
		log.Fatal("no users to withdraw for, run the seeder first")
	}
	log.Printf("Starting Benchmark: %s | Workers: %d | Duration: %s | Users: %d", workload, concurrency, duration, len(users))

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start, users)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func loadUsers(path string) ([]seededUser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var users []seededUser
	if err := json.NewDecoder(file).Decode(&users); err != nil {
		return nil, err
	}
	return users, nil
}

func worker(wg *sync.WaitGroup, start time.Time, users []seededUser) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}

	for time.Since(start) < duration {
		user := pickUser(users)
		amount := int64(40)
		if user.Role == "customer" {
			amount = 120
		}

		payload := map[string]interface{}{
			"user_id": user.ID,
			"amount":  amount,
		}
		body, _ := json.Marshal(payload)

		req, _ := http.NewRequest("POST", targetURL+"/api/v1/withdrawals", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		if idempotent {
			req.Header.Set("Idempotency-Key", fmt.Sprintf("bench-%s-%d", user.ID, time.Now().UnixNano()))
		}

		resp, err := client.Do(req)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}

		atomic.AddUint64(&totalRequests, 1)
		switch resp.StatusCode {
		case 200:
			atomic.AddUint64(&success200, 1)
		case 403:
			atomic.AddUint64(&fail403, 1)
		case 400:
			atomic.AddUint64(&fail400, 1)
		case 409:
			atomic.AddUint64(&fail409, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
		resp.Body.Close()
	}
}

func pickUser(users []seededUser) seededUser {
	if workload == "hotspot" && len(users) >= 2 {
		// Hotspot: 90% of traffic targets the first customer/vendor pair
		if rand.Float32() < 0.90 {
			return users[rand.Intn(2)]
		}
	}
	return users[rand.Intn(len(users))]
}

func printResults(d time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	s200 := atomic.LoadUint64(&success200)
	f403 := atomic.LoadUint64(&fail403)
	f400 := atomic.LoadUint64(&fail400)
	f409 := atomic.LoadUint64(&fail409)
	fErr := atomic.LoadUint64(&failOther)

	tps := 0.0
	limitRate := 0.0
	if total > 0 {
		tps = float64(total) / d.Seconds()
		limitRate = float64(f403) / float64(total) * 100
	}

	results := map[string]interface{}{
		"workload":           workload,
		"duration_sec":       d.Seconds(),
		"total_requests":     total,
		"throughput_tps":     tps,
		"success":            s200,
		"limit_exceeded":     f403,
		"limit_rate_pct":     limitRate,
		"rejected_balance":   f400,
		"idempotency_in_use": f409,
		"errors":             fErr,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(results)

	filename := fmt.Sprintf("results_%s.json", workload)
	file, _ := os.Create(filename)
	defer file.Close()
	json.NewEncoder(file).Encode(results)
}
