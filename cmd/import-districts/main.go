package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"nregahub/internal/district"
	"nregahub/pkg/database"
	"nregahub/pkg/models"
)

// Catalog bootstrap: load districts from a CSV with a header row of
// district_code,name,state,population,latitude,longitude (extra columns
// ignored, order free).
func main() {
	var (
		in = flag.String("districts", "data/districts.csv", "input CSV path for the district catalog")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	created, updated, err := importDistricts(ctx, district.NewRepo(db), *in)
	if err != nil {
		log.Fatalf("import districts failed: %v", err)
	}

	log.Printf("imported catalog from %s: %d created, %d updated", *in, created, updated)
}

func importDistricts(ctx context.Context, repo *district.Repo, path string) (created, updated int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return 0, 0, err
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return created, updated, err
		}
		if len(row) == 0 {
			continue
		}

		code := valueAt(header, row, "district_code")
		name := valueAt(header, row, "name")
		state := valueAt(header, row, "state")
		if code == "" || name == "" || state == "" {
			continue
		}

		d := models.District{
			Name:         name,
			State:        state,
			DistrictCode: code,
		}

		if v := valueAt(header, row, "population"); v != "" {
			pop, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return created, updated, fmt.Errorf("parse population for %s: %w", code, err)
			}
			d.Population = &pop
		}
		if v := valueAt(header, row, "latitude"); v != "" {
			lat, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return created, updated, fmt.Errorf("parse latitude for %s: %w", code, err)
			}
			d.Latitude = &lat
		}
		if v := valueAt(header, row, "longitude"); v != "" {
			lon, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return created, updated, fmt.Errorf("parse longitude for %s: %w", code, err)
			}
			d.Longitude = &lon
		}

		wasCreated, err := repo.Upsert(ctx, d)
		if err != nil {
			return created, updated, err
		}
		if wasCreated {
			created++
		} else {
			updated++
		}
	}

	return created, updated, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
