package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nregahub/pkg/models"
)

// AliasTable maps a canonical field name to the ordered list of raw field
// names that have carried it across API schema revisions. Resolution takes
// the first alias present with a non-empty value.
type AliasTable map[string][]string

// DefaultAliases covers the field-name drift observed across releases of
// the district-performance resource. Upstream renames fields without notice;
// new spellings get appended here, call sites never change.
func DefaultAliases() AliasTable {
	return AliasTable{
		"year":          {"financial_year", "fin_year", "year"},
		"month":         {"month", "month_name"},
		"district_code": {"district_code", "dist_code", "districtcode"},
		"district_name": {"district_name", "districtname", "dist_name"},
		"state_name":    {"state_name", "statename", "state"},

		"job_cards_issued":       {"total_job_cards_issued", "total_job_cards", "job_cards_issued"},
		"total_workers":          {"total_workers", "total_no_of_workers", "workers"},
		"active_workers":         {"total_active_workers", "active_workers", "no_of_active_workers"},
		"work_days":              {"person_days_generated", "persondays_generated", "total_work_days"},
		"avg_days_per_household": {"average_days_per_household", "avg_days_per_household"},
		"total_expenditure":      {"total_expenditure", "total_exp"},
		"wage_expenditure":       {"wage_expenditure", "wages"},
		"material_expenditure":   {"material_expenditure", "material_and_skilled_wages"},
		"employment_rate":        {"employment_rate", "payment_percentage"},
		"works_completed":        {"works_completed", "number_of_completed_works"},
		"works_in_progress":      {"works_in_progress", "number_of_ongoing_works"},

		// inputs for rate derivation when employment_rate itself is absent
		"households_worked": {"total_households_worked", "households_worked"},
		"active_job_cards":  {"total_no_of_active_job_cards", "active_job_cards"},
	}
}

// RateFormula derives the employment rate when the feed omits it. Upstream
// releases have computed it differently, so the formula is swappable.
type RateFormula func(householdsWorked, activeJobCards decimal.Decimal) decimal.Decimal

// DefaultRateFormula: households that got work / active job cards * 100,
// zero when the denominator is zero.
func DefaultRateFormula(householdsWorked, activeJobCards decimal.Decimal) decimal.Decimal {
	if activeJobCards.IsZero() {
		return decimal.Zero
	}
	return householdsWorked.Div(activeJobCards).Mul(decimal.NewFromInt(100))
}

// tokens the feed uses for "no value"
var sentinels = map[string]struct{}{
	"na": {}, "n/a": {}, "-": {}, "nil": {}, "null": {},
}

var monthNames = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

// Normalized is one raw record resolved to canonical typed values, ready
// for district matching and upsert.
type Normalized struct {
	DistrictCode string
	DistrictName string
	StateName    string
	Year         int
	Month        *int
	Metrics      models.Metrics
}

// Normalizer turns RawRecords into Normalized values. It is not safe for
// concurrent use; the pipeline is sequential and each run gets its own.
type Normalizer struct {
	Aliases AliasTable
	Rate    RateFormula
	Now     func() time.Time

	fallbacks int
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		Aliases: DefaultAliases(),
		Rate:    DefaultRateFormula,
		Now:     time.Now,
	}
}

// Fallbacks reports how many sentinel hits and parse failures were coerced
// to defaults since construction. Surfaced in the SyncReport so silent data
// loss stays auditable.
func (n *Normalizer) Fallbacks() int { return n.fallbacks }

func (n *Normalizer) Normalize(rec models.RawRecord) Normalized {
	// upstream key casing drifts too
	lowered := make(models.RawRecord, len(rec))
	for k, v := range rec {
		lowered[strings.ToLower(strings.TrimSpace(k))] = v
	}

	out := Normalized{
		DistrictCode: n.resolveString(lowered, "district_code"),
		DistrictName: n.resolveString(lowered, "district_name"),
		StateName:    n.resolveString(lowered, "state_name"),
		Year:         n.parseYear(lowered),
		Month:        n.parseMonth(lowered),
	}

	out.Metrics = models.Metrics{
		JobCardsIssued:      n.safeInt(lowered, "job_cards_issued"),
		TotalWorkers:        n.safeInt(lowered, "total_workers"),
		ActiveWorkers:       n.safeInt(lowered, "active_workers"),
		WorkDays:            n.safeDecimal(lowered, "work_days"),
		AvgDaysPerHousehold: n.safeDecimal(lowered, "avg_days_per_household"),
		TotalExpenditure:    n.safeDecimal(lowered, "total_expenditure"),
		WageExpenditure:     n.safeDecimal(lowered, "wage_expenditure"),
		MaterialExpenditure: n.safeDecimal(lowered, "material_expenditure"),
		WorksCompleted:      n.safeInt(lowered, "works_completed"),
		WorksInProgress:     n.safeInt(lowered, "works_in_progress"),
	}

	if _, ok := n.resolve(lowered, "employment_rate"); ok {
		out.Metrics.EmploymentRate = n.safeDecimal(lowered, "employment_rate")
	} else {
		households := n.safeDecimal(lowered, "households_worked")
		cards := n.safeDecimal(lowered, "active_job_cards")
		out.Metrics.EmploymentRate = n.Rate(households, cards)
	}

	return out
}

// resolve returns the first alias present with a non-empty value. An alias
// holding only an empty string is skipped here; the numeric accessors treat
// that case as a sentinel via presentEmpty so it still shows up in the
// fallback tally.
func (n *Normalizer) resolve(rec models.RawRecord, canonical string) (any, bool) {
	for _, alias := range n.Aliases[canonical] {
		v, ok := rec[alias]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// presentEmpty reports whether some alias of canonical is in the record but
// carries only an empty or whitespace string. The feed emits "" alongside
// its other no-value tokens, so for numeric fields it counts as a coerced
// sentinel rather than an absent one.
func (n *Normalizer) presentEmpty(rec models.RawRecord, canonical string) bool {
	for _, alias := range n.Aliases[canonical] {
		if s, ok := rec[alias].(string); ok && strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}

func (n *Normalizer) resolveString(rec models.RawRecord, canonical string) string {
	v, ok := n.resolve(rec, canonical)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

// parseYear accepts a plain year, a "YYYY-YY" financial-year string, or a
// bare numeric string. Two-digit years are promoted to four. Missing or
// unparseable input defaults to the current processing year.
func (n *Normalizer) parseYear(rec models.RawRecord) int {
	v, ok := n.resolve(rec, "year")
	if !ok {
		return n.Now().Year()
	}

	var raw string
	switch t := v.(type) {
	case float64:
		return promoteYear(int(t))
	case string:
		raw = strings.TrimSpace(t)
	default:
		return n.Now().Year()
	}

	// financial year: "2024-25" -> 2024
	if i := strings.Index(raw, "-"); i > 0 {
		raw = raw[:i]
	}

	y, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n.fallbacks++
		coercionFallbacks.Inc()
		return n.Now().Year()
	}
	return promoteYear(y)
}

func promoteYear(y int) int {
	if y >= 0 && y < 100 {
		return y + 2000
	}
	return y
}

// parseMonth accepts an integer, a numeric string, or an English month name
// or abbreviation in any casing. Anything else yields nil, never a guess.
func (n *Normalizer) parseMonth(rec models.RawRecord) *int {
	v, ok := n.resolve(rec, "month")
	if !ok {
		return nil
	}

	var m int
	switch t := v.(type) {
	case float64:
		m = int(t)
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		if num, err := strconv.Atoi(s); err == nil {
			m = num
		} else if named, found := monthNames[s]; found {
			m = named
		} else {
			return nil
		}
	default:
		return nil
	}

	if m < 1 || m > 12 {
		return nil
	}
	return &m
}

func (n *Normalizer) safeInt(rec models.RawRecord, canonical string) int {
	v, ok := n.resolve(rec, canonical)
	if !ok {
		if n.presentEmpty(rec, canonical) {
			n.fallbacks++
			coercionFallbacks.Inc()
		}
		return 0
	}

	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		s := cleanNumeric(t)
		if _, sentinel := sentinels[strings.ToLower(s)]; sentinel || s == "" {
			n.fallbacks++
			coercionFallbacks.Inc()
			return 0
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		// some releases report counts as "1234.0"
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f)
		}
		n.fallbacks++
		coercionFallbacks.Inc()
		return 0
	default:
		n.fallbacks++
		coercionFallbacks.Inc()
		return 0
	}
}

func (n *Normalizer) safeDecimal(rec models.RawRecord, canonical string) decimal.Decimal {
	v, ok := n.resolve(rec, canonical)
	if !ok {
		if n.presentEmpty(rec, canonical) {
			n.fallbacks++
			coercionFallbacks.Inc()
		}
		return decimal.Zero
	}

	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t)
	case string:
		s := cleanNumeric(t)
		if _, sentinel := sentinels[strings.ToLower(s)]; sentinel || s == "" {
			n.fallbacks++
			coercionFallbacks.Inc()
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			n.fallbacks++
			coercionFallbacks.Inc()
			return decimal.Zero
		}
		return d
	default:
		n.fallbacks++
		coercionFallbacks.Inc()
		return decimal.Zero
	}
}

// cleanNumeric strips thousands separators and embedded whitespace.
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	return strings.Join(strings.Fields(s), "")
}
