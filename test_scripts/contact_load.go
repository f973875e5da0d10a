package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Contact is the enquiry posted by the storefront contact form.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// outcome of one POST as the storefront sees it
type outcome int

const (
	created outcome = iota
	queued
	failed
)

// randomName generates a random 6-letter name
func randomName() string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	name := make([]byte, 6)
	for i := range name {
		name[i] = letters[rand.Intn(len(letters))]
	}
	name[0] = name[0] - 32
	return string(name)
}

// postContact sends one contact and classifies the response envelope.
func postContact(baseURL string, contact Contact) (outcome, error) {
	body, err := json.Marshal(contact)
	if err != nil {
		return failed, fmt.Errorf("failed to marshal contact: %w", err)
	}

	resp, err := http.Post(baseURL+"/api/contacts", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return failed, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var env struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return failed, fmt.Errorf("status %d with unreadable body: %w", resp.StatusCode, err)
	}

	switch {
	case resp.StatusCode == http.StatusCreated && env.Success:
		return created, nil
	case resp.StatusCode == http.StatusOK && !env.Success:
		return queued, nil
	}
	return failed, fmt.Errorf("status %d: %s (%s)", resp.StatusCode, env.Message, env.Error)
}

// Posts contacts against a running server and reports how many were stored
// directly and how many went to the pending log. Stop the database halfway
// through to watch writes switch to queued.
//
//	go run test_scripts/contact_load.go 500 http://localhost:8080
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run test_scripts/contact_load.go <number_of_contacts> [server_url]")
		os.Exit(1)
	}

	total, err := strconv.Atoi(os.Args[1])
	if err != nil || total <= 0 {
		fmt.Printf("Error: invalid number of contacts '%s'\n", os.Args[1])
		os.Exit(1)
	}

	serverURL := "http://localhost:8080"
	if len(os.Args) >= 3 {
		serverURL = strings.TrimRight(os.Args[2], "/")
	}

	fmt.Printf("Posting %d contacts to %s\n", total, serverURL)

	startTime := time.Now()
	counts := map[outcome]int{}
	reportInterval := max(1, total/10)

	for i := 0; i < total; i++ {
		name := randomName()
		result, err := postContact(serverURL, Contact{
			Name:    name,
			Email:   strings.ToLower(name) + "@example.com",
			Message: fmt.Sprintf("Is the oak sideboard #%d still in stock?", i+1),
		})
		counts[result]++
		if err != nil {
			fmt.Printf("Error posting contact %d: %v\n", i+1, err)
		}

		if (i+1)%reportInterval == 0 || i == total-1 {
			rate := float64(i+1) / time.Since(startTime).Seconds()
			fmt.Printf("Progress: %d/%d (%.1f/sec) - created: %d, queued: %d, failed: %d\n",
				i+1, total, rate, counts[created], counts[queued], counts[failed])
		}
	}

	elapsed := time.Since(startTime)
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("Created:   %d\n", counts[created])
	fmt.Printf("Queued:    %d\n", counts[queued])
	fmt.Printf("Failed:    %d\n", counts[failed])
	fmt.Printf("Total time: %v (%v per contact)\n", elapsed, elapsed/time.Duration(total))

	if counts[failed] > 0 {
		os.Exit(1)
	}
}
