package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"nregahub/internal/district"
	"nregahub/internal/govdata"
	"nregahub/internal/stats"
	"nregahub/pkg/logging"
	"nregahub/pkg/models"
)

// maxExampleFailures caps how many per-record failures land verbatim in the
// report; everything is still counted.
const maxExampleFailures = 5

// EventSink receives progress events during a run. Nil sink = no feed.
type EventSink interface {
	Publish(v any)
}

// ProgressEvent is broadcast on the live feed as districts complete.
type ProgressEvent struct {
	Type     string             `json:"type"` // "sync.district" or "sync.report"
	District string             `json:"district,omitempty"`
	State    string             `json:"state,omitempty"`
	Records  int                `json:"records,omitempty"`
	At       time.Time          `json:"at"`
	Report   *models.SyncReport `json:"report,omitempty"`
}

// Options selects the scope and strategy of one sync run.
type Options struct {
	DistrictCode string // exactly one district
	State        string // every district of one state
	AllStates    bool   // the whole catalog
	Bulk         bool   // one large fetch, partition locally
	SkipExisting bool   // leave out districts that already have rows
	ForceRefresh bool   // bypass the 24h cache
}

func (o Options) scope() string {
	switch {
	case o.DistrictCode != "":
		return "district:" + o.DistrictCode
	case o.State != "":
		return "state:" + o.State
	default:
		return "all"
	}
}

// Syncer drives one ingestion run: fetch, normalize, match, upsert, tally.
// Strictly sequential; per-record failures never abort the batch.
type Syncer struct {
	Client    *govdata.Client
	Districts *district.Repo
	Stats     *stats.Repo

	// PacingDelay spaces out per-district fetches in targeted mode.
	PacingDelay time.Duration
	Feed        EventSink

	log zerolog.Logger
}

func NewSyncer(client *govdata.Client, districts *district.Repo, statsRepo *stats.Repo) *Syncer {
	return &Syncer{
		Client:      client,
		Districts:   districts,
		Stats:       statsRepo,
		PacingDelay: time.Second,
		log:         logging.New("sync"),
	}
}

// Run executes one sync pass and returns its report. The returned error is
// non-nil only for fatal failures: unknown scope, catalog access failure, or
// a first-page fetch failure with nothing accumulated.
func (s *Syncer) Run(ctx context.Context, opts Options) (*models.SyncReport, error) {
	report := &models.SyncReport{
		Scope:     opts.scope(),
		StartedAt: time.Now().UTC(),
	}

	targets, err := s.resolveScope(ctx, opts)
	if err != nil {
		return nil, err
	}

	catalog, err := s.Districts.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	matcher := NewMatcher(catalog)

	if opts.SkipExisting {
		have, err := s.Stats.DistrictIDsWithData(ctx)
		if err != nil {
			return nil, fmt.Errorf("skip-existing lookup: %w", err)
		}
		kept := targets[:0]
		for _, d := range targets {
			if _, ok := have[d.ID]; ok {
				report.SkippedDistricts++
				continue
			}
			kept = append(kept, d)
		}
		targets = kept
	}

	normalizer := NewNormalizer()

	if opts.Bulk {
		err = s.runBulk(ctx, opts, targets, matcher, normalizer, report)
	} else {
		err = s.runTargeted(ctx, opts, targets, matcher, normalizer, report)
	}
	if err != nil {
		return nil, err
	}

	report.CoercionFallbacks = normalizer.Fallbacks()

	report.TotalDistricts, err = s.Districts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}
	report.DistrictsWithData, err = s.Stats.CountDistrictsWithData(ctx)
	if err != nil {
		return nil, fmt.Errorf("coverage: %w", err)
	}

	report.FinishedAt = time.Now().UTC()
	s.publish(ProgressEvent{
		Type:   "sync.report",
		At:     report.FinishedAt,
		Report: report,
	})
	s.log.Info().Str("scope", report.Scope).Msg(report.Summary())

	return report, nil
}

func (s *Syncer) resolveScope(ctx context.Context, opts Options) ([]models.District, error) {
	switch {
	case opts.DistrictCode != "":
		d, err := s.Districts.GetByCode(ctx, opts.DistrictCode)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, fmt.Errorf("district %q not in catalog", opts.DistrictCode)
		}
		return []models.District{*d}, nil
	case opts.State != "":
		return s.Districts.List(ctx, opts.State)
	default:
		return s.Districts.List(ctx, "")
	}
}

// runBulk does one large fetch per scope and partitions the combined record
// set locally through the matcher. Fewer API calls than targeted mode at the
// cost of client-side matching.
func (s *Syncer) runBulk(ctx context.Context, opts Options, targets []models.District, matcher *Matcher, normalizer *Normalizer, report *models.SyncReport) error {
	records, err := s.Client.FetchState(ctx, opts.State, opts.ForceRefresh)
	if err != nil {
		return err
	}
	report.Fetched = len(records)
	s.log.Info().Int("records", len(records)).Msg("bulk fetch complete")

	inScope := make(map[string]struct{}, len(targets))
	for _, d := range targets {
		inScope[d.ID] = struct{}{}
	}

	for _, rec := range records {
		s.processRecord(ctx, rec, matcher, normalizer, report, inScope, true)
	}
	return nil
}

// runTargeted fetches each district separately with server-side filtering,
// pacing requests to stay inside upstream rate limits.
func (s *Syncer) runTargeted(ctx context.Context, opts Options, targets []models.District, matcher *Matcher, normalizer *Normalizer, report *models.SyncReport) error {
	for i, d := range targets {
		if i > 0 {
			time.Sleep(s.PacingDelay)
		}

		records, err := s.Client.FetchDistrict(ctx, d.DistrictCode, 0, opts.ForceRefresh)
		if err != nil {
			// nothing fetched at all yet: nothing to fall back to
			if report.Fetched == 0 && i == 0 {
				return err
			}
			report.Errors++
			s.addFailure(report, fmt.Sprintf("fetch %s: %v", d.DistrictCode, err))
			continue
		}

		report.Fetched += len(records)
		before := report.Created + report.Updated

		for _, rec := range records {
			s.processRecord(ctx, rec, matcher, normalizer, report, nil, false)
		}

		s.publish(ProgressEvent{
			Type:     "sync.district",
			District: d.DistrictCode,
			State:    d.State,
			Records:  report.Created + report.Updated - before,
			At:       time.Now().UTC(),
		})
		s.log.Info().
			Str("district", d.DistrictCode).
			Int("records", len(records)).
			Msgf("[%d/%d] synced", i+1, len(targets))
	}
	return nil
}

// processRecord runs normalize -> match -> upsert for one raw record.
// inScope, when non-nil, drops records for districts outside the run's scope
// (bulk mode with skip-existing). synthesize allows bulk mode to grow the
// catalog from records the matcher cannot place.
func (s *Syncer) processRecord(ctx context.Context, rec models.RawRecord, matcher *Matcher, normalizer *Normalizer, report *models.SyncReport, inScope map[string]struct{}, synthesize bool) {
	norm := normalizer.Normalize(rec)

	if norm.DistrictCode == "" && (norm.DistrictName == "" || norm.StateName == "") {
		report.Errors++
		recordsProcessed.WithLabelValues("error").Inc()
		s.addFailure(report, "record has neither district code nor name+state")
		return
	}

	d, ok := matcher.Match(norm.DistrictCode, norm.DistrictName, norm.StateName)
	if !ok && synthesize && norm.DistrictName != "" && norm.StateName != "" {
		d, ok = s.synthesizeDistrict(ctx, norm, matcher, report, inScope)
	}
	if !ok {
		report.Unmatched++
		recordsProcessed.WithLabelValues("unmatched").Inc()
		s.addFailure(report, fmt.Sprintf("no district for code=%q name=%q state=%q",
			norm.DistrictCode, norm.DistrictName, norm.StateName))
		return
	}

	if inScope != nil {
		if _, keep := inScope[d.ID]; !keep {
			return
		}
	}

	created, err := s.Stats.Upsert(ctx, models.PeriodStatistic{
		DistrictID: d.ID,
		Year:       norm.Year,
		Month:      norm.Month,
		Metrics:    norm.Metrics,
	})
	if err != nil {
		report.Errors++
		recordsProcessed.WithLabelValues("error").Inc()
		s.addFailure(report, fmt.Sprintf("upsert %s %d: %v", d.DistrictCode, norm.Year, err))
		return
	}

	if created {
		report.Created++
		recordsProcessed.WithLabelValues("created").Inc()
	} else {
		report.Updated++
		recordsProcessed.WithLabelValues("updated").Inc()
	}
}

// synthesizeDistrict creates a catalog row for a bulk-feed record the
// matcher cannot place, using the record's own code when it carries one and
// a derived code otherwise. The new district joins the matcher and the run's
// scope so the rest of the batch resolves against it.
func (s *Syncer) synthesizeDistrict(ctx context.Context, norm Normalized, matcher *Matcher, report *models.SyncReport, inScope map[string]struct{}) (*models.District, bool) {
	code := norm.DistrictCode
	if code == "" {
		code = SynthesizeCode(norm.StateName, norm.DistrictName)
	}

	if _, err := s.Districts.Upsert(ctx, models.District{
		Name:         norm.DistrictName,
		State:        norm.StateName,
		DistrictCode: code,
	}); err != nil {
		report.Errors++
		s.addFailure(report, fmt.Sprintf("synthesize district %s: %v", code, err))
		return nil, false
	}

	d, err := s.Districts.GetByCode(ctx, code)
	if err != nil || d == nil {
		report.Errors++
		s.addFailure(report, fmt.Sprintf("synthesize district %s: read back failed: %v", code, err))
		return nil, false
	}

	matcher.Add(*d)
	if inScope != nil {
		inScope[d.ID] = struct{}{}
	}
	report.Synthesized++
	districtsSynthesized.Inc()
	s.log.Info().
		Str("district", code).
		Str("state", d.State).
		Msg("synthesized catalog entry")
	return d, true
}

func (s *Syncer) addFailure(report *models.SyncReport, msg string) {
	if len(report.ExampleFailures) < maxExampleFailures {
		report.ExampleFailures = append(report.ExampleFailures, msg)
	}
	s.log.Debug().Msg(msg)
}

func (s *Syncer) publish(ev ProgressEvent) {
	if s.Feed != nil {
		s.Feed.Publish(ev)
	}
}
