package services

import (
	"testing"
	"time"

	"racquet-league-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestEffectiveRollingWeeks(t *testing.T) {
	// club override wins over the chain default
	club := &models.Club{RollingWeeks: intPtr(4)}
	assert.Equal(t, 4, EffectiveRollingWeeks(club, 12))

	// nil override inherits the chain default
	assert.Equal(t, 12, EffectiveRollingWeeks(&models.Club{}, 12))
	assert.Equal(t, 12, EffectiveRollingWeeks(nil, 12))

	// explicit zero means unbounded even with a chain default set
	assert.Equal(t, 0, EffectiveRollingWeeks(&models.Club{RollingWeeks: intPtr(0)}, 12))
}

func completedTournament(id string, effectiveDate time.Time) models.Tournament {
	return models.Tournament{
		ID:        id,
		Status:    models.TournamentCompleted,
		StartTime: effectiveDate,
	}
}

func TestBuildRankingsSeedsEveryCohortPlayer(t *testing.T) {
	players := []models.Player{
		{ID: "a", Name: "Alice"},
		{ID: "b", Name: "Bob"},
		{ID: "c", Name: "Cara"},
	}
	rankings := BuildRankings(players, nil, nil, nil, nil)

	require.Len(t, rankings, 3)
	for _, r := range rankings {
		assert.Equal(t, 0, r.Points)
	}
	// all tied at zero: name order, distinct positions
	assert.Equal(t, "Alice", rankings[0].PlayerName)
	assert.Equal(t, 1, rankings[0].Position)
	assert.Equal(t, "Bob", rankings[1].PlayerName)
	assert.Equal(t, 2, rankings[1].Position)
	assert.Equal(t, "Cara", rankings[2].PlayerName)
	assert.Equal(t, 3, rankings[2].Position)
}

func TestBuildRankingsSumsResultsAndMatches(t *testing.T) {
	now := time.Now()
	players := []models.Player{
		{ID: "a", Name: "Alice"},
		{ID: "b", Name: "Bob"},
	}
	tournaments := []models.Tournament{completedTournament("t1", now.AddDate(0, 0, -7))}
	results := map[string][]models.TournamentResult{
		"t1": {
			{TournamentID: "t1", Position: 1, PlayerID: "a", FinalPoints: 200},
			{TournamentID: "t1", Position: 2, PlayerID: "b", FinalPoints: 120},
		},
	}
	matches := []models.Match{
		{ClubID: "c1", PlayedAt: now.AddDate(0, 0, -1), Team1Player1: "b", Team2Player1: "a", WinnerTeam: 1, PointsAwarded: 20},
	}

	rankings := BuildRankings(players, tournaments, results, matches, nil)

	require.Len(t, rankings, 2)
	assert.Equal(t, "a", rankings[0].PlayerID)
	assert.Equal(t, 200, rankings[0].Points)
	// Bob gets result points plus the match win; Alice lost the match and
	// earns nothing from it
	assert.Equal(t, "b", rankings[1].PlayerID)
	assert.Equal(t, 140, rankings[1].Points)
}

func TestBuildRankingsCouplesShareResultPoints(t *testing.T) {
	now := time.Now()
	players := []models.Player{
		{ID: "a", Name: "Alice"},
		{ID: "b", Name: "Bob"},
	}
	partner := "b"
	tournaments := []models.Tournament{completedTournament("t1", now)}
	results := map[string][]models.TournamentResult{
		"t1": {{TournamentID: "t1", Position: 1, PlayerID: "a", Player2ID: &partner, FinalPoints: 150}},
	}

	rankings := BuildRankings(players, tournaments, results, nil, nil)

	require.Len(t, rankings, 2)
	assert.Equal(t, 150, rankings[0].Points)
	assert.Equal(t, 150, rankings[1].Points)
}

func TestBuildRankingsRollingWindow(t *testing.T) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -7*4) // 4-week window
	players := []models.Player{
		{ID: "a", Name: "Alice"},
		{ID: "b", Name: "Bob"},
	}
	tournaments := []models.Tournament{
		completedTournament("recent", now.AddDate(0, 0, -7)),
		completedTournament("stale", now.AddDate(0, 0, -7*8)),
	}
	results := map[string][]models.TournamentResult{
		"recent": {{TournamentID: "recent", Position: 1, PlayerID: "a", FinalPoints: 100}},
		"stale":  {{TournamentID: "stale", Position: 1, PlayerID: "b", FinalPoints: 500}},
	}
	matches := []models.Match{
		{PlayedAt: now.AddDate(0, 0, -7*8), Team1Player1: "b", Team2Player1: "a", WinnerTeam: 1, PointsAwarded: 50},
	}

	rankings := BuildRankings(players, tournaments, results, matches, &cutoff)

	require.Len(t, rankings, 2)
	assert.Equal(t, "a", rankings[0].PlayerID)
	assert.Equal(t, 100, rankings[0].Points)
	assert.Equal(t, 0, rankings[1].Points, "events outside the window must not count")
}

func TestBuildRankingsWindowUsesEndTimeWhenSet(t *testing.T) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -7*4)
	players := []models.Player{{ID: "a", Name: "Alice"}}

	// started before the window but finished inside it
	endTime := now.AddDate(0, 0, -7)
	tr := completedTournament("t1", now.AddDate(0, 0, -7*10))
	tr.EndTime = &endTime

	results := map[string][]models.TournamentResult{
		"t1": {{TournamentID: "t1", Position: 1, PlayerID: "a", FinalPoints: 80}},
	}
	rankings := BuildRankings(players, []models.Tournament{tr}, results, nil, &cutoff)

	require.Len(t, rankings, 1)
	assert.Equal(t, 80, rankings[0].Points)
}

func TestBuildRankingsSkipsIncompleteTournaments(t *testing.T) {
	players := []models.Player{{ID: "a", Name: "Alice"}}
	tr := completedTournament("t1", time.Now())
	tr.Status = models.TournamentInProgress
	results := map[string][]models.TournamentResult{
		"t1": {{TournamentID: "t1", Position: 1, PlayerID: "a", FinalPoints: 100}},
	}

	rankings := BuildRankings(players, []models.Tournament{tr}, results, nil, nil)

	require.Len(t, rankings, 1)
	assert.Equal(t, 0, rankings[0].Points)
}

func TestBuildRankingsIgnoresPlayersOutsideCohort(t *testing.T) {
	// results naming deleted or out-of-cohort players are skipped, not ranked
	players := []models.Player{{ID: "a", Name: "Alice"}}
	tr := completedTournament("t1", time.Now())
	results := map[string][]models.TournamentResult{
		"t1": {
			{TournamentID: "t1", Position: 1, PlayerID: "ghost", FinalPoints: 300},
			{TournamentID: "t1", Position: 2, PlayerID: "a", FinalPoints: 100},
		},
	}
	matches := []models.Match{
		{PlayedAt: time.Now(), Team1Player1: "ghost", Team2Player1: "a", WinnerTeam: 1, PointsAwarded: 25},
	}

	rankings := BuildRankings(players, []models.Tournament{tr}, results, matches, nil)

	require.Len(t, rankings, 1)
	assert.Equal(t, "a", rankings[0].PlayerID)
	assert.Equal(t, 100, rankings[0].Points)
}

func TestBuildRankingsTieBreak(t *testing.T) {
	players := []models.Player{
		{ID: "p2", Name: "zoe"},
		{ID: "p1", Name: "Adam"},
		{ID: "p3", Name: "adam"},
	}
	rankings := BuildRankings(players, nil, nil, nil, nil)

	require.Len(t, rankings, 3)
	// case-insensitive name, then id
	assert.Equal(t, "p1", rankings[0].PlayerID)
	assert.Equal(t, "p3", rankings[1].PlayerID)
	assert.Equal(t, "p2", rankings[2].PlayerID)
	assert.Equal(t, []int{1, 2, 3}, []int{rankings[0].Position, rankings[1].Position, rankings[2].Position})
}
