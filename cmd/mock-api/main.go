package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
)

// Local stand-in for the data.gov.in resource endpoint so the sync pipeline
// can run offline. Serves data/mock_records.json with the real protocol:
// api-key, format, limit, offset and a JSON-encoded filters object.
func main() {
	dataPath := "data/mock_records.json"
	if p := os.Getenv("NREGAHUB_MOCK_DATA"); p != "" {
		dataPath = p
	}

	http.HandleFunc("/resource/", func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile(dataPath)
		if err != nil {
			http.Error(w, "cannot read mock data: "+err.Error(), http.StatusInternalServerError)
			return
		}

		var records []map[string]any
		if err := json.Unmarshal(b, &records); err != nil {
			http.Error(w, "mock data invalid JSON: "+err.Error(), http.StatusInternalServerError)
			return
		}

		q := r.URL.Query()

		if q.Get("api-key") == "" {
			http.Error(w, `{"message":"api key missing"}`, http.StatusForbidden)
			return
		}

		if f := q.Get("filters"); f != "" {
			var filters map[string]string
			if err := json.Unmarshal([]byte(f), &filters); err != nil {
				http.Error(w, "bad filters: "+err.Error(), http.StatusBadRequest)
				return
			}
			records = applyFilters(records, filters)
		}

		total := len(records)
		offset := parseIntOr(q.Get("offset"), 0)
		limit := parseIntOr(q.Get("limit"), 10)

		if offset > len(records) {
			offset = len(records)
		}
		end := offset + limit
		if end > len(records) {
			end = len(records)
		}
		page := records[offset:end]

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": page,
			"total":   total,
		})
	})

	log.Println("mock-api listening on http://localhost:9000")
	log.Fatal(http.ListenAndServe(":9000", nil))
}

func applyFilters(records []map[string]any, filters map[string]string) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		match := true
		for k, want := range filters {
			got, ok := rec[k]
			if !ok || fmt.Sprintf("%v", got) != want {
				match = false
				break
			}
		}
		if match {
			out = append(out, rec)
		}
	}
	return out
}

func parseIntOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
