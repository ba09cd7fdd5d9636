package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSets(t *testing.T) {
	got, err := parseSets([]string{"Kp=0.5", " F_max = 0.2 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Kp": 0.5, "F_max": 0.2}, got)

	for _, bad := range []string{"Kp", "=1", "Kp=fast"} {
		_, err := parseSets([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseGrid(t *testing.T) {
	got, err := parseGrid([]string{"Kp=0.01, 0.05,0.1", "Ki=0"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]float64{"Kp": {0.01, 0.05, 0.1}, "Ki": {0}}, got)

	for _, bad := range []string{"Kp", "Kp=", "Kp=1,x"} {
		_, err := parseGrid([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestDescribe(t *testing.T) {
	mean, std, lo, hi := describe([]float64{1, 2, 3, 4})
	assert.Equal(t, 2.5, mean)
	assert.InDelta(t, 1.118034, std, 1e-6)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 4.0, hi)
}
