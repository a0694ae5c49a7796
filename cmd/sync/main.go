package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"nregahub/internal/district"
	"nregahub/internal/feed"
	"nregahub/internal/govdata"
	"nregahub/internal/ingest"
	"nregahub/internal/stats"
	"nregahub/pkg/database"
	"nregahub/pkg/logging"
	"nregahub/pkg/utils"
)

func main() {
	var (
		state        = flag.String("state", "Maharashtra", "state to sync (ignored with -all or -district)")
		districtCode = flag.String("district", "", "sync a single district by code")
		allStates    = flag.Bool("all", false, "sync every district in the catalog")
		bulk         = flag.Bool("bulk", false, "one large fetch partitioned locally instead of one fetch per district")
		skipExisting = flag.Bool("skip-existing", false, "skip districts that already have statistics")
		force        = flag.Bool("force", false, "bypass the 24h response cache")
		feedAddr     = flag.String("feed", "", "feed server address for live progress events (e.g. localhost:7070)")
		timeout      = flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	)
	flag.Parse()

	log := logging.New("sync-cli")

	cfg, err := utils.LoadAPIConfig()
	if err != nil {
		log.Error().Err(err).Msg("configuration error")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Error().Err(err).Msg("db migrate failed")
		os.Exit(1)
	}

	client := govdata.NewClient(cfg, govdata.NewCache())
	syncer := ingest.NewSyncer(client, district.NewRepo(db), stats.NewRepo(db))

	if *feedAddr != "" {
		pub, err := feed.Dial(*feedAddr)
		if err != nil {
			log.Warn().Err(err).Str("addr", *feedAddr).Msg("feed unavailable, continuing without it")
		} else {
			defer pub.Close()
			syncer.Feed = pub
		}
	}

	opts := ingest.Options{
		DistrictCode: *districtCode,
		Bulk:         *bulk,
		SkipExisting: *skipExisting,
		ForceRefresh: *force,
	}
	switch {
	case *districtCode != "":
	case *allStates:
		opts.AllStates = true
	default:
		opts.State = *state
	}

	report, err := syncer.Run(ctx, opts)
	if err != nil {
		log.Error().Err(err).Msg("sync failed")
		os.Exit(1)
	}

	fmt.Printf("\nSync complete (%s)\n", report.Scope)
	fmt.Println("  " + report.Summary())
	if len(report.ExampleFailures) > 0 {
		fmt.Printf("  example failures (%d of %d+):\n", len(report.ExampleFailures), report.Unmatched+report.Errors)
		for _, f := range report.ExampleFailures {
			fmt.Println("    - " + f)
		}
	}
}
