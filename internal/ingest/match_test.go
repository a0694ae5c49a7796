package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nregahub/pkg/models"
)

func catalog() []models.District {
	return []models.District{
		{ID: "a", Name: "Pune", State: "Maharashtra", DistrictCode: "MH-PUN"},
		{ID: "b", Name: "Nagpur", State: "Maharashtra", DistrictCode: "MH-NAG"},
		{ID: "c", Name: "Salem", State: "Tamil Nadu", DistrictCode: "123"},
	}
}

func TestMatcherCodeVariants(t *testing.T) {
	m := NewMatcher(catalog())

	tests := []struct {
		code string
		want string
	}{
		{"MH-PUN", "a"},
		{"mh-pun", "a"},
		{"Mh-Pun", "a"}, // upper variant
		{"MH-PUN ", "a"},
		{" mh-nag", "b"},
		{"123", "c"},
		{"0123", "c"}, // zero-padded variant of the stored code
	}

	for _, tt := range tests {
		d, ok := m.Match(tt.code, "", "")
		require.True(t, ok, "code %q", tt.code)
		assert.Equal(t, tt.want, d.ID, "code %q", tt.code)
	}
}

func TestMatcherCodeBeatsNameState(t *testing.T) {
	m := NewMatcher(catalog())

	// code points at Pune, name+state at Nagpur: code is authoritative
	d, ok := m.Match("MH-PUN", "Nagpur", "Maharashtra")
	require.True(t, ok)
	assert.Equal(t, "a", d.ID)
}

func TestMatcherNameStateFallback(t *testing.T) {
	m := NewMatcher(catalog())

	d, ok := m.Match("", "pune", "MAHARASHTRA")
	require.True(t, ok)
	assert.Equal(t, "a", d.ID)

	// unknown code falls through to name+state
	d, ok = m.Match("ZZ-XXX", "Salem", "Tamil Nadu")
	require.True(t, ok)
	assert.Equal(t, "c", d.ID)
}

func TestMatcherUnmatched(t *testing.T) {
	m := NewMatcher(catalog())

	_, ok := m.Match("ZZ-XXX", "Nowhere", "Noland")
	assert.False(t, ok)

	_, ok = m.Match("", "", "")
	assert.False(t, ok)

	// name alone is not enough: names collide across states
	_, ok = m.Match("", "Pune", "")
	assert.False(t, ok)
}

func TestMatcherZeroPaddedIncoming(t *testing.T) {
	m := NewMatcher([]models.District{
		{ID: "x", Name: "Kolar", State: "Karnataka", DistrictCode: "0042"},
	})

	d, ok := m.Match("42", "", "")
	require.True(t, ok)
	assert.Equal(t, "x", d.ID)
}

func TestMatcherAddRegistersMidRun(t *testing.T) {
	m := NewMatcher(catalog())

	_, ok := m.Match("NL-NOW", "Nowhere", "Noland")
	require.False(t, ok)

	m.Add(models.District{ID: "d", Name: "Nowhere", State: "Noland", DistrictCode: "NL-NOW"})

	byCode, ok := m.Match("nl-now", "", "")
	require.True(t, ok)
	assert.Equal(t, "d", byCode.ID)

	byName, ok := m.Match("", "Nowhere", "Noland")
	require.True(t, ok)
	assert.Equal(t, "d", byName.ID)
}

func TestSynthesizeCode(t *testing.T) {
	tests := []struct {
		state, name string
		want        string
	}{
		{"Noland", "Quiet Valley", "NO-QUI"},
		{"maharashtra", "pune", "MA-PUN"},
		{" Goa ", " Po ", "GO-PO"}, // shorter than the prefix widths
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SynthesizeCode(tt.state, tt.name))
	}
}
