package services

import (
	"testing"

	"racquet-league-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMatchPoints(t *testing.T) {
	tests := []struct {
		name       string
		basePoints int
		setsPlayed int
		want       int
	}{
		{"two sets divides by five", 100, 2, 20},
		{"three sets divides by six", 100, 3, 17},
		{"rounding up", 99, 2, 20},
		{"rounding down", 62, 3, 10},
		{"zero base", 0, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateMatchPoints(tt.basePoints, tt.setsPlayed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.PointsAwarded)
			assert.Equal(t, tt.basePoints, got.BasePoints)
		})
	}
}

func TestCalculateMatchPointsRejectsBadSetCounts(t *testing.T) {
	for _, sets := range []int{0, 1, 4, -1} {
		_, err := CalculateMatchPoints(100, sets)
		assert.ErrorIs(t, err, ErrInvalidSetsPlayed, "sets_played=%d", sets)
	}
}

func TestGetPointsForPosition(t *testing.T) {
	profile := &models.ScoringProfile{
		ParticipationPoints: 10,
		Entries: []models.ScoringEntry{
			{Position: 1, Points: 100},
			{Position: 2, Points: 60},
			// position 3 deliberately missing
			{Position: 4, Points: 20},
		},
	}

	assert.Equal(t, 100, GetPointsForPosition(profile, 1))
	assert.Equal(t, 60, GetPointsForPosition(profile, 2))
	// a hole inside the configured range earns nothing
	assert.Equal(t, 0, GetPointsForPosition(profile, 3))
	assert.Equal(t, 20, GetPointsForPosition(profile, 4))
	// beyond the highest configured position earns participation points
	assert.Equal(t, 10, GetPointsForPosition(profile, 5))
	assert.Equal(t, 10, GetPointsForPosition(profile, 50))
}

func TestGetPointsForPositionEmptyProfile(t *testing.T) {
	profile := &models.ScoringProfile{ParticipationPoints: 5}
	// no entries configured: everything is "beyond the highest"
	assert.Equal(t, 5, GetPointsForPosition(profile, 1))
	assert.Equal(t, 5, GetPointsForPosition(profile, 9))
}

func TestFinalPoints(t *testing.T) {
	assert.Equal(t, 200, FinalPoints(100, 2.0))
	assert.Equal(t, 150, FinalPoints(100, 1.5))
	assert.Equal(t, 20, FinalPoints(10, 2.0))
	assert.Equal(t, 25, FinalPoints(10, 2.5))
	assert.Equal(t, 0, FinalPoints(0, 3.0))
	// rounds, never truncates
	assert.Equal(t, 33, FinalPoints(65, 0.5))
}
