package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"nregahub/pkg/database"
)

func main() {
	var (
		districtsOut = flag.String("districts", "data/districts.csv", "output CSV path for the district catalog")
		statsOut     = flag.String("stats", "data/statistics.csv", "output CSV path for period statistics")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportDistricts(ctx, db, *districtsOut); err != nil {
		log.Fatalf("export districts failed: %v", err)
	}
	if err := exportStatistics(ctx, db, *statsOut); err != nil {
		log.Fatalf("export statistics failed: %v", err)
	}

	log.Printf("exported districts to %s and statistics to %s", *districtsOut, *statsOut)
}

func exportDistricts(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"district_code", "name", "state", "population", "latitude", "longitude"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT district_code, name, state, population, latitude, longitude
        FROM districts
        ORDER BY state, name
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code, name, state string
			population        sql.NullInt64
			latitude          sql.NullFloat64
			longitude         sql.NullFloat64
		)
		if err := rows.Scan(&code, &name, &state, &population, &latitude, &longitude); err != nil {
			return err
		}

		pop := ""
		if population.Valid {
			pop = strconv.FormatInt(population.Int64, 10)
		}
		lat := ""
		if latitude.Valid {
			lat = strconv.FormatFloat(latitude.Float64, 'f', -1, 64)
		}
		lon := ""
		if longitude.Valid {
			lon = strconv.FormatFloat(longitude.Float64, 'f', -1, 64)
		}

		if err := w.Write([]string{code, name, state, pop, lat, lon}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportStatistics(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"district_code", "year", "month",
		"job_cards_issued", "total_workers", "active_workers",
		"work_days", "avg_days_per_household",
		"total_expenditure", "wage_expenditure", "material_expenditure",
		"employment_rate", "works_completed", "works_in_progress",
		"updated_at",
	}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT d.district_code, ps.year, ps.month,
               ps.job_cards_issued, ps.total_workers, ps.active_workers,
               ps.work_days, ps.avg_days_per_household,
               ps.total_expenditure, ps.wage_expenditure, ps.material_expenditure,
               ps.employment_rate, ps.works_completed, ps.works_in_progress,
               ps.updated_at
        FROM period_statistics ps
        JOIN districts d ON d.id = ps.district_id
        ORDER BY d.district_code, ps.year DESC, ps.month DESC
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code                           string
			year, month                    int
			jobCards, workers, active      int
			workDays, avgDays              string
			totalExp, wageExp, materialExp string
			rate                           string
			completed, inProgress          int
			updatedAt                      time.Time
		)
		if err := rows.Scan(
			&code, &year, &month,
			&jobCards, &workers, &active,
			&workDays, &avgDays,
			&totalExp, &wageExp, &materialExp,
			&rate, &completed, &inProgress,
			&updatedAt,
		); err != nil {
			return err
		}

		monthStr := ""
		if month != 0 {
			monthStr = strconv.Itoa(month)
		}

		if err := w.Write([]string{
			code, strconv.Itoa(year), monthStr,
			strconv.Itoa(jobCards), strconv.Itoa(workers), strconv.Itoa(active),
			workDays, avgDays,
			totalExp, wageExp, materialExp,
			rate, strconv.Itoa(completed), strconv.Itoa(inProgress),
			updatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
