package ingest

import (
	"strings"

	"nregahub/pkg/models"
)

// codePadWidth is the width short numeric census codes get zero-padded to.
const codePadWidth = 4

// Matcher resolves a raw district identifier to a catalog District. It is
// built once per orchestration batch from the full catalog.
//
// Code match is authoritative: district names are not unique across states,
// codes are. The (name, state) pair is only consulted for feeds that omit
// codes entirely.
type Matcher struct {
	byCode      map[string]*models.District
	byNameState map[string]*models.District
}

func NewMatcher(districts []models.District) *Matcher {
	m := &Matcher{
		byCode:      make(map[string]*models.District, len(districts)*4),
		byNameState: make(map[string]*models.District, len(districts)),
	}
	for _, d := range districts {
		m.Add(d)
	}
	return m
}

// Add registers one district under its code variants and (name, state) key.
// First registration wins so repeated builds stay deterministic. The
// orchestrator also calls this mid-run when it synthesizes a catalog entry,
// so later records for the same district resolve without another round trip.
func (m *Matcher) Add(d models.District) {
	stored := d
	for _, v := range codeVariants(stored.DistrictCode) {
		if _, exists := m.byCode[v]; !exists {
			m.byCode[v] = &stored
		}
	}
	key := nameStateKey(stored.Name, stored.State)
	if _, exists := m.byNameState[key]; !exists {
		m.byNameState[key] = &stored
	}
}

// Match attempts code resolution first, then the (name, state) fallback.
func (m *Matcher) Match(code, name, state string) (*models.District, bool) {
	code = strings.TrimSpace(code)
	if code != "" {
		for _, v := range codeVariants(code) {
			if d, ok := m.byCode[v]; ok {
				return d, true
			}
		}
	}

	if name != "" && state != "" {
		if d, ok := m.byNameState[nameStateKey(name, state)]; ok {
			return d, true
		}
	}

	return nil, false
}

// codeVariants returns the four lookup spellings of a code: as-is, upper,
// lower, and zero-left-padded.
func codeVariants(code string) []string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	variants := []string{code}
	for _, v := range []string{strings.ToUpper(code), strings.ToLower(code), padCode(code)} {
		if v != code {
			variants = append(variants, v)
		}
	}
	return variants
}

func padCode(code string) string {
	for len(code) < codePadWidth {
		code = "0" + code
	}
	return code
}

// SynthesizeCode derives a district code from the state and district names
// for bulk-feed rows that carry no code at all: first two letters of the
// state, a dash, first three of the district, uppercased.
func SynthesizeCode(state, name string) string {
	return codePrefix(state, 2) + "-" + codePrefix(name, 3)
}

func codePrefix(s string, n int) string {
	r := []rune(strings.ToUpper(strings.TrimSpace(s)))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func nameStateKey(name, state string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(state))
}
