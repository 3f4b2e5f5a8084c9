package satsuki_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyhavoc/satsuki"
)

func TestMatchIdentical(t *testing.T) {
	fn := &satsuki.Function{Name: "a", Address: 0x1000, Data: []byte{0x55, 0x8b, 0xec, 0xc3}}

	score, err := fn.Match(fn)
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)
}

func TestMatchSameLengthOneDiff(t *testing.T) {
	a := &satsuki.Function{Name: "a", Data: []byte{0x55, 0x8b, 0xec, 0xc3}}
	b := &satsuki.Function{Name: "a", Data: []byte{0x55, 0x8b, 0xec, 0x90}}

	score, err := a.Match(b)
	require.NoError(t, err)
	assert.Less(t, score, 100.0)
	assert.Equal(t, 75.0, score)
}

func TestMatchShorterOther(t *testing.T) {
	// Positions past the end of the shorter side never match.
	a := &satsuki.Function{Name: "a", Data: []byte{0x55, 0x8b, 0xec, 0xc3}}
	b := &satsuki.Function{Name: "a", Data: []byte{0x55, 0x8b}}

	score, err := a.Match(b)
	require.NoError(t, err)
	assert.Equal(t, 50.0, score)
}

func TestMatchPrefixOfLongerIsNotPerfect(t *testing.T) {
	// Every byte of a matches, but b is longer: reporting 100% here would
	// hide the size difference, so it is an error instead.
	a := &satsuki.Function{Name: "a", Data: []byte{0x55, 0x8b}}
	b := &satsuki.Function{Name: "a", Data: []byte{0x55, 0x8b, 0xec, 0xc3}}

	_, err := a.Match(b)
	var cerr *satsuki.ConsistencyError
	require.ErrorAs(t, err, &cerr)
}

func TestMatchEmptyFunction(t *testing.T) {
	a := &satsuki.Function{Name: "a"}
	b := &satsuki.Function{Name: "a", Data: []byte{0x90}}

	_, err := a.Match(b)
	var cerr *satsuki.ConsistencyError
	require.ErrorAs(t, err, &cerr)
}

func TestMatchInsertionCollapsesScore(t *testing.T) {
	// One inserted byte shifts everything after it; the score is positional
	// equality, not an alignment-aware diff.
	a := &satsuki.Function{Name: "a", Data: []byte{0x01, 0x02, 0x03, 0x04, 0x05}}
	b := &satsuki.Function{Name: "a", Data: []byte{0x01, 0x90, 0x02, 0x03, 0x04, 0x05}}

	score, err := a.Match(b)
	require.NoError(t, err)
	assert.Equal(t, 20.0, score)
}
