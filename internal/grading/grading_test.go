package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLetterThresholds(t *testing.T) {
	cases := []struct {
		score  float64
		letter string
	}{
		{100, "A"},
		{90, "A"},
		{89.999, "B"},
		{80, "B"},
		{79.999, "C"},
		{70, "C"},
		{69.999, "D"},
		{60, "D"},
		{59.999, "F"},
		{0, "F"},
	}

	for _, tc := range cases {
		require.Equal(t, tc.letter, Letter(tc.score), "score %v", tc.score)
	}
}

func TestApplyLatePenalty(t *testing.T) {
	require.Equal(t, 64.0, ApplyLatePenalty(80, 20))
	require.Equal(t, 80.0, ApplyLatePenalty(80, 0))
	require.Equal(t, 80.0, ApplyLatePenalty(80, -5))
	require.Equal(t, 0.0, ApplyLatePenalty(50, 100))
}

func TestPercentage(t *testing.T) {
	require.Nil(t, Percentage(nil, 100))

	grade := 80.0
	pct := Percentage(&grade, 100)
	require.NotNil(t, pct)
	require.Equal(t, 80.0, *pct)

	half := 40.0
	pct = Percentage(&half, 50)
	require.NotNil(t, pct)
	require.Equal(t, 80.0, *pct)

	require.Nil(t, Percentage(&grade, 0))
}

func TestValidScore(t *testing.T) {
	require.True(t, ValidScore(0))
	require.True(t, ValidScore(100))
	require.False(t, ValidScore(-0.1))
	require.False(t, ValidScore(100.1))
}
