package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Exercises a running server. Seed a user first with cmd/seed and pass its id
// as the first argument.
func main() {
	baseURL := os.Getenv("KADIG_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	userID := "demo-user"
	if len(os.Args) > 1 {
		userID = os.Args[1]
	}

	waitForServer(baseURL)

	checkEndpoint(baseURL, "GET", "/health", nil, 200)
	checkEndpoint(baseURL, "GET", "/portfolio/"+userID, nil, 200)

	summary := updatePrices(baseURL, map[string]interface{}{"userId": userID, "forceUpdate": true})
	fmt.Printf("Updated %v of %v holdings across %v portfolios\n", summary["updated"], summary["total"], summary["portfolios"])
	if errs, ok := summary["errors"]; ok {
		fmt.Printf("Provider errors: %v\n", errs)
	}
	if unmatched, ok := summary["unmatched"]; ok {
		fmt.Printf("Unmatched holdings: %v\n", unmatched)
	}

	// A second run should be served from cache and agree on the counts.
	again := updatePrices(baseURL, map[string]interface{}{"userId": userID})
	if again["total"] != summary["total"] {
		log.Fatalf("total changed between runs: %v vs %v", summary["total"], again["total"])
	}

	checkEndpoint(baseURL, "GET", "/portfolio/"+userID, nil, 200)

	// Malformed bodies are rejected before any work happens.
	req, _ := http.NewRequest("POST", baseURL+"/update-prices", bytes.NewBufferString(`{"userId":`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 400 {
		log.Fatalf("Expected 400 for malformed body, got %d", resp.StatusCode)
	}

	fmt.Println("ALL TESTS PASSED")
}

func waitForServer(baseURL string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatalf("server at %s did not come up", baseURL)
}

func checkEndpoint(baseURL, method, path string, body interface{}, expectedStatus int) []byte {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return respBody
}

func updatePrices(baseURL string, body map[string]interface{}) map[string]interface{} {
	raw := checkEndpoint(baseURL, "POST", "/update-prices", body, 200)
	var res map[string]interface{}
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Fatalf("decode summary: %v", err)
	}
	if res["success"] != true {
		log.Fatalf("expected success=true, got %v", res["success"])
	}
	return res
}
