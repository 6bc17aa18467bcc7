package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Fires concurrent booking requests at one slot of a running api-server.
// The conflict check is advisory (validated against the caller's last-seen
// snapshot, last write wins at the store), so under enough concurrency more
// than one request can win; this tool makes that window observable.
func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "api-server base URL")
		date      = flag.String("date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "target date (YYYY-MM-DD)")
		startTime = flag.String("time", "18:00:00", "target start time (HH:MM:SS)")
		slotIndex = flag.Int("slot", 0, "target slot index")
		workers   = flag.Int("n", 20, "number of concurrent booking attempts")
	)
	flag.Parse()

	log.SetFlags(log.LstdFlags)
	log.Printf("simulating %d concurrent attempts on %s %s slot %d", *workers, *date, *startTime, *slotIndex)

	gofakeit.Seed(time.Now().UnixNano())
	client := &http.Client{Timeout: 10 * time.Second}

	type outcome struct {
		status int
		body   string
	}
	results := make([]outcome, *workers)

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			payload, _ := json.Marshal(map[string]any{
				"date":      *date,
				"startTime": *startTime,
				"slotIndex": *slotIndex,
				"title":     gofakeit.Name(),
			})

			resp, err := client.Post(*baseURL+"/bookings", "application/json", bytes.NewReader(payload))
			if err != nil {
				results[i] = outcome{status: -1, body: err.Error()}
				return
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			results[i] = outcome{status: resp.StatusCode, body: string(body)}
		}(i)
	}
	wg.Wait()

	counts := make(map[int]int)
	for _, res := range results {
		counts[res.status]++
	}

	fmt.Println("outcome summary:")
	for status, n := range counts {
		fmt.Printf("  status=%d count=%d\n", status, n)
	}
	if counts[http.StatusCreated] > 1 {
		fmt.Printf("NOTE: %d requests won the same slot, the advisory check raced and last write wins\n", counts[http.StatusCreated])
	}
}
