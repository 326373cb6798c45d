package services

import (
	"testing"
	"time"

	"racquet-league-system/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.Player{},
		&models.Club{},
		&models.ScoringProfile{},
		&models.ScoringEntry{},
		&models.Tournament{},
		&models.TournamentRegistration{},
		&models.TournamentResult{},
	))
	return db
}

func resultProfile() *models.ScoringProfile {
	return &models.ScoringProfile{
		ParticipationPoints: 10,
		Entries: []models.ScoringEntry{
			{Position: 1, Points: 100},
			{Position: 2, Points: 60},
		},
	}
}

func TestBuildResultsFreezesPoints(t *testing.T) {
	tr := &models.Tournament{ID: "t1", PointsMultiplier: 2.0}
	partner := "p2"
	entries := []ResultEntry{
		{Position: 1, PlayerID: "p1", Player2ID: &partner},
		{Position: 2, PlayerID: "p3"},
		{Position: 7, PlayerID: "p4"},
	}

	results, err := BuildResults(tr, resultProfile(), entries)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 100, results[0].BasePoints)
	assert.Equal(t, 2.0, results[0].Multiplier)
	assert.Equal(t, 200, results[0].FinalPoints)
	require.NotNil(t, results[0].Player2ID)
	assert.Equal(t, "p2", *results[0].Player2ID)

	assert.Equal(t, 60, results[1].BasePoints)
	assert.Equal(t, 120, results[1].FinalPoints)

	// beyond the highest configured position: participation points
	assert.Equal(t, 10, results[2].BasePoints)
	assert.Equal(t, 20, results[2].FinalPoints)
}

func TestBuildResultsSkipsEmptyPlayerIDs(t *testing.T) {
	tr := &models.Tournament{ID: "t1", PointsMultiplier: 1.0}
	entries := []ResultEntry{
		{Position: 1, PlayerID: "p1"},
		{Position: 2, PlayerID: ""},
		{Position: 3, PlayerID: "p3"},
	}

	results, err := BuildResults(tr, resultProfile(), entries)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].PlayerID)
	assert.Equal(t, "p3", results[1].PlayerID)
}

func TestBuildResultsRejectsBadInput(t *testing.T) {
	tr := &models.Tournament{ID: "t1", PointsMultiplier: 1.0}

	_, err := BuildResults(tr, resultProfile(), []ResultEntry{{Position: 0, PlayerID: "p1"}})
	assert.Error(t, err)

	_, err = BuildResults(tr, resultProfile(), []ResultEntry{
		{Position: 1, PlayerID: "p1"},
		{Position: 1, PlayerID: "p2"},
	})
	assert.Error(t, err)

	// all entries empty is an error, not an empty result set
	_, err = BuildResults(tr, resultProfile(), []ResultEntry{{Position: 1, PlayerID: ""}})
	assert.Error(t, err)

	_, err = BuildResults(tr, resultProfile(), nil)
	assert.Error(t, err)
}

func TestReplaceResultsResubmissionOverwrites(t *testing.T) {
	db := newTestDB(t)
	club := models.Club{ID: "c1", Name: "Center Court", Slug: "center-court"}
	require.NoError(t, db.Create(&club).Error)
	tournament := models.Tournament{
		ID:               "t1",
		Name:             "Spring Open",
		ClubID:           club.ID,
		StartTime:        time.Now(),
		Gender:           models.GenderMixed,
		Level:            models.LevelIntermediate,
		PointsMultiplier: 2.0,
		Status:           models.TournamentInProgress,
	}
	require.NoError(t, db.Create(&tournament).Error)

	first, err := BuildResults(&tournament, resultProfile(), []ResultEntry{
		{Position: 1, PlayerID: "p1"},
		{Position: 2, PlayerID: "p2"},
		{Position: 3, PlayerID: "p3"},
	})
	require.NoError(t, err)
	require.NoError(t, replaceResults(db, &tournament, first))

	// corrected standings: fewer entries, different order
	second, err := BuildResults(&tournament, resultProfile(), []ResultEntry{
		{Position: 1, PlayerID: "p2"},
		{Position: 2, PlayerID: "p1"},
	})
	require.NoError(t, err)
	require.NoError(t, replaceResults(db, &tournament, second))

	var stored []models.TournamentResult
	require.NoError(t, db.Where("tournament_id = ?", tournament.ID).
		Order("position ASC").
		Find(&stored).Error)
	require.Len(t, stored, 2, "resubmission must leave exactly the second set, no merge")
	assert.Equal(t, "p2", stored[0].PlayerID)
	assert.Equal(t, 1, stored[0].Position)
	assert.Equal(t, "p1", stored[1].PlayerID)
	assert.Equal(t, 2, stored[1].Position)

	var fresh models.Tournament
	require.NoError(t, db.First(&fresh, "id = ?", tournament.ID).Error)
	assert.Equal(t, models.TournamentCompleted, fresh.Status)
}
