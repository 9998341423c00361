package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

const TotalReferrals = 500

type seededUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

var client = &http.Client{Timeout: 5 * time.Second}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API Base URL")
	count := flag.Int("referrals", TotalReferrals, "Number of completed referrals to create")
	out := flag.String("out", "seed_users.json", "File receiving the seeded user ids")
	flag.Parse()

	log.Println("--- Seeding Ledger ---")

	// Each completed referral yields one customer and one vendor, both holding the reward.
	users := make([]seededUser, 0, *count*2)
	for i := 0; i < *count; i++ {
		var registered struct {
			ID string `json:"id"`
		}
		if err := post(*baseURL+"/api/v1/users", map[string]any{
			"role":  "customer",
			"name":  fmt.Sprintf("customer-%d", i),
			"phone": fmt.Sprintf("+9100000%05d", i),
		}, http.StatusCreated, &registered); err != nil {
			log.Fatalf("register customer %d: %v", i, err)
		}

		var referral struct {
			VendorID string `json:"vendor_id"`
		}
		if err := post(*baseURL+"/api/v1/referrals", map[string]any{
			"customer_id":     registered.ID,
			"vendor_name":     fmt.Sprintf("vendor-%d", i),
			"vendor_location": "Bengaluru",
		}, http.StatusCreated, &referral); err != nil {
			log.Fatalf("initiate referral %d: %v", i, err)
		}

		if err := post(*baseURL+"/api/v1/referrals/"+referral.VendorID+"/registration", map[string]any{
			"vendor_details":     map[string]string{"name": fmt.Sprintf("vendor-%d", i)},
			"agreement_accepted": true,
		}, http.StatusOK, nil); err != nil {
			log.Fatalf("complete referral %d: %v", i, err)
		}

		users = append(users,
			seededUser{ID: registered.ID, Role: "customer"},
			seededUser{ID: referral.VendorID, Role: "vendor"},
		)
	}

	file, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer file.Close()
	if err := json.NewEncoder(file).Encode(users); err != nil {
		log.Fatalf("write %s: %v", *out, err)
	}

	log.Printf("Successfully seeded %d users into %s.", len(users), *out)
}

func post(url string, payload any, want int, dst any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
