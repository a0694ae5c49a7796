package main

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"nregahub/internal/district"
	"nregahub/internal/stats"
	"nregahub/pkg/database"
	"nregahub/pkg/models"
)

type seedDistrict struct {
	name string
	code string
	pop  int64
	lat  float64
	lon  float64
}

var maharashtra = []seedDistrict{
	{"Mumbai", "MH-MUM", 12442373, 19.0760, 72.8777},
	{"Pune", "MH-PUN", 9429408, 18.5204, 73.8567},
	{"Nagpur", "MH-NAG", 4653570, 21.1458, 79.0882},
	{"Thane", "MH-THA", 11060148, 19.2183, 72.9781},
	{"Nashik", "MH-NAS", 6109052, 19.9975, 73.7898},
	{"Aurangabad", "MH-AUR", 3701282, 19.8762, 75.3433},
	{"Solapur", "MH-SOL", 4317756, 17.6599, 75.9064},
	{"Amravati", "MH-AMR", 2888445, 20.9374, 77.7796},
	{"Kolhapur", "MH-KOL", 3876001, 16.7050, 74.2433},
	{"Ahmednagar", "MH-AHM", 4543083, 19.0948, 74.7480},
}

// Loads a sample Maharashtra catalog with three years of generated monthly
// statistics. For demos and local development only.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	districts := district.NewRepo(db)
	statsRepo := stats.NewRepo(db)

	for _, sd := range maharashtra {
		pop, lat, lon := sd.pop, sd.lat, sd.lon
		created, err := districts.Upsert(ctx, models.District{
			Name:         sd.name,
			State:        "Maharashtra",
			DistrictCode: sd.code,
			Population:   &pop,
			Latitude:     &lat,
			Longitude:    &lon,
		})
		if err != nil {
			log.Fatalf("seed district %s: %v", sd.code, err)
		}
		if !created {
			log.Printf("district %s already present, skipping statistics", sd.code)
			continue
		}

		d, err := districts.GetByCode(ctx, sd.code)
		if err != nil || d == nil {
			log.Fatalf("reload district %s: %v", sd.code, err)
		}

		for year := 2023; year <= 2025; year++ {
			for month := 1; month <= 12; month++ {
				m := month
				if _, err := statsRepo.Upsert(ctx, models.PeriodStatistic{
					DistrictID: d.ID,
					Year:       year,
					Month:      &m,
					Metrics:    randomMetrics(),
				}); err != nil {
					log.Fatalf("seed statistics for %s: %v", sd.code, err)
				}
			}
		}

		log.Printf("seeded %s with 36 monthly records", sd.name)
	}

	log.Println("sample data loaded")
}

func randomMetrics() models.Metrics {
	return models.Metrics{
		JobCardsIssued:      5000 + rand.Intn(45000),
		TotalWorkers:        3000 + rand.Intn(37000),
		ActiveWorkers:       2000 + rand.Intn(33000),
		WorkDays:            randDecimal(50000, 500000),
		AvgDaysPerHousehold: randDecimal(40, 100),
		TotalExpenditure:    randDecimal(10000000, 100000000),
		WageExpenditure:     randDecimal(7000000, 70000000),
		MaterialExpenditure: randDecimal(3000000, 30000000),
		EmploymentRate:      randDecimal(60, 95),
		WorksCompleted:      100 + rand.Intn(900),
		WorksInProgress:     50 + rand.Intn(450),
	}
}

func randDecimal(lo, hi float64) decimal.Decimal {
	v := lo + rand.Float64()*(hi-lo)
	return decimal.NewFromFloat(v).Round(2)
}
