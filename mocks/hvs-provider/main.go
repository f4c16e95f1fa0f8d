package main

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort      = "8082"
	defaultAPIKey    = "hvs-provider-secret-key"
	defaultLatencyMs = "100"
)

// StatusPayload is the verification result nested under "status" in the
// response envelope.
type StatusPayload struct {
	Name       string  `json:"name"`
	Outcome    string  `json:"outcome"`
	StartDate  string  `json:"start_date"`
	ExpiryDate *string `json:"expiry_date"`
	Conditions string  `json:"conditions"`
	Details    string  `json:"details"`
	Title      string  `json:"title"`
}

type CheckResponse struct {
	Status StatusPayload `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

var (
	apiKey    = getEnv("API_KEY", defaultAPIKey)
	latencyMs = getEnvInt("LATENCY_MS", defaultLatencyMs)
)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/api/v1/rtw/check", handleCheck)

	log.Printf("🏛️  Mock HVS provider starting on port %s", port)
	log.Printf("📝 API Key: %s", apiKey)
	log.Printf("⏱️  Simulated latency: %dms", latencyMs)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "hvs-provider",
		"version": "1.0.0",
	})
}

// testStatuses contains predefined responses for specific share codes.
// These "magic" codes let integration runs steer the mock's behavior.
var testStatuses = map[string]func(forename, surname string) *StatusPayload{
	// A settled-status holder with no conditions.
	"ACCEPTED1": func(forename, surname string) *StatusPayload {
		return &StatusPayload{
			Name:      fmt.Sprintf("%s, %s", surname, forename),
			Outcome:   "ACCEPTED",
			StartDate: "2020-07-01",
			Title:     "EU Settlement Scheme",
			Details:   "Holder has settled status under the EU Settlement Scheme.",
		}
	},
	// A student-visa holder with working-hour conditions and a near expiry.
	"STUDENT12": func(forename, surname string) *StatusPayload {
		expiry := time.Now().AddDate(0, 6, 0).Format("2006-01-02")
		return &StatusPayload{
			Name:       fmt.Sprintf("%s, %s", surname, forename),
			Outcome:    "CONDITIONAL",
			StartDate:  time.Now().AddDate(-1, 0, 0).Format("2006-01-02"),
			ExpiryDate: &expiry,
			Conditions: "Limited to 20 hours work per week during term time",
			Title:      "Student Visa",
			Details:    "Sponsored student. Re-check before visa expiry.",
		}
	},
	// A sponsored worker whose permission already expired.
	"EXPIRED12": func(forename, surname string) *StatusPayload {
		expiry := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
		return &StatusPayload{
			Name:       fmt.Sprintf("%s, %s", surname, forename),
			Outcome:    "CONDITIONAL",
			StartDate:  time.Now().AddDate(-3, 0, 0).Format("2006-01-02"),
			ExpiryDate: &expiry,
			Conditions: "Employment restricted to sponsoring employer",
			Title:      "Skilled Worker Visa",
			Details:    "Permission has lapsed. Do not employ.",
		}
	},
	// Provider says the details do not match any record.
	"NOTFOUND1": func(forename, surname string) *StatusPayload {
		return &StatusPayload{
			Outcome: "NOT_FOUND",
			Details: "No matching right to work record was found.",
		}
	},
	// Explicit rejection with a reason.
	"REJECTED1": func(forename, surname string) *StatusPayload {
		return &StatusPayload{
			Outcome: "REJECTED",
			Details: "The share code has been revoked by the subject.",
		}
	},
}

// errorCodes map share codes to raw HTTP failures, for resiliency tests.
var errorCodes = map[string]int{
	"SERVERERR": http.StatusInternalServerError,
	"THROTTLE1": http.StatusTooManyRequests,
}

func handleCheck(w http.ResponseWriter, r *http.Request) {
	// Simulate latency
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)

	log.Printf("📥 Incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	authHeader := r.Header.Get("X-API-Key")
	if authHeader == "" {
		sendError(w, "Missing X-API-Key header", http.StatusUnauthorized)
		return
	}
	if authHeader != apiKey {
		sendError(w, "Invalid API key", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	shareCode := strings.ToUpper(q.Get("share_code"))
	forename := q.Get("forename")
	surname := q.Get("surname")

	if shareCode == "" {
		sendError(w, "share_code is required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("02-01-2006", q.Get("dob")); err != nil {
		sendError(w, "dob must be in DD-MM-YYYY format", http.StatusBadRequest)
		return
	}

	// Raw HTTP failure codes for resiliency tests.
	if code, ok := errorCodes[shareCode]; ok {
		sendError(w, "Simulated provider failure", code)
		return
	}

	var status StatusPayload
	if testFn, ok := testStatuses[shareCode]; ok {
		status = *testFn(forename, surname)
		log.Printf("🧪 Using test status for: %s", shareCode)
	} else {
		status = generateStatus(shareCode, forename, surname)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(CheckResponse{Status: status})

	log.Printf("✅ Check complete: %s -> %s", shareCode, status.Outcome)
}

// generateStatus derives a deterministic but pseudo-random result from the
// share code, so unlisted codes still behave consistently across runs.
func generateStatus(shareCode, forename, surname string) StatusPayload {
	hash := sha256.Sum256([]byte(shareCode))
	hashInt := int(hash[0])

	if forename == "" {
		forename = "John"
	}
	if surname == "" {
		surname = "Smith"
	}
	name := fmt.Sprintf("%s, %s", surname, forename)

	// Roughly one in eight codes is unknown to the provider.
	if hashInt%8 == 0 {
		return StatusPayload{
			Outcome: "NOT_FOUND",
			Details: "No matching right to work record was found.",
		}
	}

	startYears := 1 + (hashInt % 5)
	start := time.Now().AddDate(-startYears, 0, 0).Format("2006-01-02")

	// One in four gets a conditional, time-limited status.
	if hashInt%4 == 0 {
		expiry := time.Now().AddDate(0, 1+(hashInt%18), 0).Format("2006-01-02")
		return StatusPayload{
			Name:       name,
			Outcome:    "CONDITIONAL",
			StartDate:  start,
			ExpiryDate: &expiry,
			Conditions: "Limited to 20 hours work per week during term time",
			Title:      "Student Visa",
			Details:    "Sponsored student. Re-check before visa expiry.",
		}
	}

	titles := []string{"EU Settlement Scheme", "Indefinite Leave to Remain", "British Citizen"}
	return StatusPayload{
		Name:      name,
		Outcome:   "ACCEPTED",
		StartDate: start,
		Title:     titles[hashInt%len(titles)],
		Details:   "Right to work confirmed.",
	}
}

func sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
	log.Printf("❌ Error response: %d - %s", code, message)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}
