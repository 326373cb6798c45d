package services

import (
	"testing"

	"racquet-league-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func player(id, gender, level string) *models.Player {
	return &models.Player{ID: id, Name: "Player " + id, Gender: gender, Level: level}
}

func openTournament() *models.Tournament {
	return &models.Tournament{
		ID:               "t1",
		Status:           models.TournamentUpcoming,
		RegistrationType: models.RegistrationIndividual,
		Gender:           models.GenderMale,
		Level:            models.LevelIntermediate,
		MaxParticipants:  4,
	}
}

func TestValidateRegistrationAccepts(t *testing.T) {
	err := ValidateRegistration(openTournament(), player("p1", "male", "intermediate"), nil, nil)
	assert.Nil(t, err)
}

func TestValidateRegistrationClosedTournament(t *testing.T) {
	for _, status := range []string{models.TournamentInProgress, models.TournamentCompleted} {
		tr := openTournament()
		tr.Status = status
		err := ValidateRegistration(tr, player("p1", "male", "intermediate"), nil, nil)
		require.NotNil(t, err, "status=%s", status)
		assert.Equal(t, 403, err.Status)
	}
}

func TestValidateRegistrationCohort(t *testing.T) {
	tr := openTournament()

	err := ValidateRegistration(tr, player("p1", "female", "intermediate"), nil, nil)
	require.NotNil(t, err)
	assert.Equal(t, 403, err.Status)

	err = ValidateRegistration(tr, player("p1", "male", "beginner"), nil, nil)
	require.NotNil(t, err)
	assert.Equal(t, 403, err.Status)
}

func TestValidateRegistrationMixedAcceptsAnyGender(t *testing.T) {
	tr := openTournament()
	tr.Gender = models.GenderMixed

	for _, gender := range []string{"male", "female", "other"} {
		err := ValidateRegistration(tr, player("p1", gender, "intermediate"), nil, nil)
		assert.Nil(t, err, "gender=%s", gender)
	}
	// level filter still applies
	err := ValidateRegistration(tr, player("p1", "female", "advanced"), nil, nil)
	require.NotNil(t, err)
	assert.Equal(t, 403, err.Status)
}

func TestValidateRegistrationPartnerRules(t *testing.T) {
	tr := openTournament()
	tr.RegistrationType = models.RegistrationCouple
	p := player("p1", "male", "intermediate")

	// couple requires a partner
	err := ValidateRegistration(tr, p, nil, nil)
	require.NotNil(t, err)
	assert.Equal(t, 400, err.Status)

	// partner must match the cohort too
	err = ValidateRegistration(tr, p, player("p2", "male", "advanced"), nil)
	require.NotNil(t, err)
	assert.Equal(t, 403, err.Status)

	// partner must be a different player
	err = ValidateRegistration(tr, p, player("p1", "male", "intermediate"), nil)
	require.NotNil(t, err)
	assert.Equal(t, 400, err.Status)

	// valid couple
	err = ValidateRegistration(tr, p, player("p2", "male", "intermediate"), nil)
	assert.Nil(t, err)

	// individual tournaments reject partners
	tr.RegistrationType = models.RegistrationIndividual
	err = ValidateRegistration(tr, p, player("p2", "male", "intermediate"), nil)
	require.NotNil(t, err)
	assert.Equal(t, 400, err.Status)
}

func TestValidateRegistrationDuplicates(t *testing.T) {
	tr := openTournament()
	tr.RegistrationType = models.RegistrationCouple
	partnerID := "p9"
	existing := []models.TournamentRegistration{
		{TournamentID: "t1", PlayerID: "p1", PartnerID: &partnerID},
	}

	// already registered as primary
	err := ValidateRegistration(tr, player("p1", "male", "intermediate"), player("p3", "male", "intermediate"), existing)
	require.NotNil(t, err)
	assert.Equal(t, 409, err.Status)

	// already registered as a partner in someone else's entry
	err = ValidateRegistration(tr, player("p9", "male", "intermediate"), player("p3", "male", "intermediate"), existing)
	require.NotNil(t, err)
	assert.Equal(t, 409, err.Status)

	// new partner already taken
	err = ValidateRegistration(tr, player("p3", "male", "intermediate"), player("p9", "male", "intermediate"), existing)
	require.NotNil(t, err)
	assert.Equal(t, 409, err.Status)
}

func TestValidateRegistrationCapacity(t *testing.T) {
	tr := openTournament()
	tr.MaxParticipants = 2
	existing := []models.TournamentRegistration{
		{TournamentID: "t1", PlayerID: "p1"},
	}

	// one slot left
	err := ValidateRegistration(tr, player("p2", "male", "intermediate"), nil, existing)
	assert.Nil(t, err)

	existing = append(existing, models.TournamentRegistration{TournamentID: "t1", PlayerID: "p2"})
	err = ValidateRegistration(tr, player("p3", "male", "intermediate"), nil, existing)
	require.NotNil(t, err)
	assert.Equal(t, 403, err.Status)

	// zero means unlimited
	tr.MaxParticipants = 0
	err = ValidateRegistration(tr, player("p3", "male", "intermediate"), nil, existing)
	assert.Nil(t, err)
}

// mapLookup builds a PlayerLookup over an in-memory roster and records the
// order in which ids were fetched.
func mapLookup(roster map[string]*models.Player, fetched *[]string) PlayerLookup {
	return func(id string) (*models.Player, bool, error) {
		if fetched != nil {
			*fetched = append(*fetched, id)
		}
		p, ok := roster[id]
		return p, ok, nil
	}
}

func TestResolveRegistrationStatusGateBeatsUnknownPlayer(t *testing.T) {
	tr := openTournament()
	tr.Status = models.TournamentInProgress
	lookup := mapLookup(map[string]*models.Player{}, nil)

	_, _, rErr, err := ResolveRegistration(tr, "ghost", nil, lookup, nil)
	require.NoError(t, err)
	require.NotNil(t, rErr)
	assert.Equal(t, 403, rErr.Status, "closed tournament must fail before the player lookup")
}

func TestResolveRegistrationPlayerCohortBeatsUnknownPartner(t *testing.T) {
	tr := openTournament()
	tr.RegistrationType = models.RegistrationCouple
	roster := map[string]*models.Player{
		"p1": player("p1", "female", "intermediate"), // wrong gender for the cohort
	}
	var fetched []string
	ghost := "ghost"

	_, _, rErr, err := ResolveRegistration(tr, "p1", &ghost, mapLookup(roster, &fetched), nil)
	require.NoError(t, err)
	require.NotNil(t, rErr)
	assert.Equal(t, 403, rErr.Status, "player cohort must fail before the partner lookup")
	assert.Equal(t, []string{"p1"}, fetched, "partner must not be fetched once the player fails")
}

func TestResolveRegistrationLookupOrder(t *testing.T) {
	tr := openTournament()

	// unknown player on an open tournament is still a 404
	_, _, rErr, err := ResolveRegistration(tr, "ghost", nil, mapLookup(nil, nil), nil)
	require.NoError(t, err)
	require.NotNil(t, rErr)
	assert.Equal(t, 404, rErr.Status)

	// unknown partner surfaces once every player-side check has passed
	tr.RegistrationType = models.RegistrationCouple
	roster := map[string]*models.Player{"p1": player("p1", "male", "intermediate")}
	ghost := "ghost"
	_, _, rErr, err = ResolveRegistration(tr, "p1", &ghost, mapLookup(roster, nil), nil)
	require.NoError(t, err)
	require.NotNil(t, rErr)
	assert.Equal(t, 404, rErr.Status)

	// individual tournaments reject a partner id without ever fetching it
	tr.RegistrationType = models.RegistrationIndividual
	var fetched []string
	_, _, rErr, err = ResolveRegistration(tr, "p1", &ghost, mapLookup(roster, &fetched), nil)
	require.NoError(t, err)
	require.NotNil(t, rErr)
	assert.Equal(t, 400, rErr.Status)
	assert.Equal(t, []string{"p1"}, fetched)
}

func TestResolveRegistrationSuccess(t *testing.T) {
	tr := openTournament()
	tr.RegistrationType = models.RegistrationCouple
	roster := map[string]*models.Player{
		"p1": player("p1", "male", "intermediate"),
		"p2": player("p2", "male", "intermediate"),
	}
	partnerID := "p2"

	p, partner, rErr, err := ResolveRegistration(tr, "p1", &partnerID, mapLookup(roster, nil), nil)
	require.NoError(t, err)
	require.Nil(t, rErr)
	require.NotNil(t, p)
	require.NotNil(t, partner)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "p2", partner.ID)
}

func TestValidateRegistrationDuplicateBeatsCapacity(t *testing.T) {
	// a full tournament still reports 409 for an already-registered player,
	// not 403 for capacity
	tr := openTournament()
	tr.MaxParticipants = 1
	existing := []models.TournamentRegistration{
		{TournamentID: "t1", PlayerID: "p1"},
	}
	err := ValidateRegistration(tr, player("p1", "male", "intermediate"), nil, existing)
	require.NotNil(t, err)
	assert.Equal(t, 409, err.Status)
}
