package services

import (
	"racquet-league-system/models"
)

// RegistrationError carries the HTTP status for a failed registration check so
// handlers can map each failure mode distinctly.
type RegistrationError struct {
	Status  int
	Message string
}

func (e *RegistrationError) Error() string { return e.Message }

func regErr(status int, msg string) *RegistrationError {
	return &RegistrationError{Status: status, Message: msg}
}

// matchesCohort checks a player against a tournament's cohort filter: gender
// must match unless the tournament is mixed, level must match exactly.
func matchesCohort(t *models.Tournament, p *models.Player) bool {
	if t.Gender != models.GenderMixed && t.Gender != p.Gender {
		return false
	}
	return t.Level == p.Level
}

// ValidateRegistration runs the ordered registration checks over rows already
// fetched from the store. The first failing check wins; nothing is persisted
// here. partner is nil for individual tournaments.
func ValidateRegistration(t *models.Tournament, player, partner *models.Player, existing []models.TournamentRegistration) *RegistrationError {
	if t == nil {
		return regErr(404, "tournament not found")
	}
	if t.Status != models.TournamentUpcoming {
		return regErr(403, "registration closed: tournament has started or finished")
	}
	if player == nil {
		return regErr(404, "player not found")
	}
	if !matchesCohort(t, player) {
		return regErr(403, "player does not match the tournament's gender/level cohort")
	}
	if t.RegistrationType == models.RegistrationCouple && partner == nil {
		return regErr(400, "partner_id is required for couple tournaments")
	}
	if t.RegistrationType == models.RegistrationIndividual && partner != nil {
		return regErr(400, "partner_id is not allowed for individual tournaments")
	}
	if partner != nil {
		if !matchesCohort(t, partner) {
			return regErr(403, "partner does not match the tournament's gender/level cohort")
		}
		if partner.ID == player.ID {
			return regErr(400, "partner must be a different player")
		}
	}
	for i := range existing {
		if existing[i].Covers(player.ID) {
			return regErr(409, "player is already registered in this tournament")
		}
	}
	if partner != nil {
		for i := range existing {
			if existing[i].Covers(partner.ID) {
				return regErr(409, "partner is already registered in this tournament")
			}
		}
	}
	if t.MaxParticipants > 0 && len(existing) >= t.MaxParticipants {
		return regErr(403, "tournament is full")
	}
	return nil
}

// PlayerLookup fetches a player by id; the bool reports existence, the error
// is an infrastructure failure.
type PlayerLookup func(id string) (*models.Player, bool, error)

// ResolveRegistration runs the full ordered registration sequence, performing
// row lookups lazily so an earlier failing check always wins over a later
// missing row: a closed tournament reports 403 before an unknown player's 404,
// and a cohort-mismatched player reports 403 before an unknown partner's 404.
// Returns the resolved player and partner on success.
func ResolveRegistration(t *models.Tournament, playerID string, partnerID *string, lookup PlayerLookup, existing []models.TournamentRegistration) (*models.Player, *models.Player, *RegistrationError, error) {
	if t == nil {
		return nil, nil, regErr(404, "tournament not found"), nil
	}
	if t.Status != models.TournamentUpcoming {
		return nil, nil, regErr(403, "registration closed: tournament has started or finished"), nil
	}
	player, found, err := lookup(playerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !found {
		return nil, nil, regErr(404, "player not found"), nil
	}
	if !matchesCohort(t, player) {
		return nil, nil, regErr(403, "player does not match the tournament's gender/level cohort"), nil
	}
	wantsPartner := partnerID != nil && *partnerID != ""
	if t.RegistrationType == models.RegistrationCouple && !wantsPartner {
		return nil, nil, regErr(400, "partner_id is required for couple tournaments"), nil
	}
	if t.RegistrationType == models.RegistrationIndividual && wantsPartner {
		return nil, nil, regErr(400, "partner_id is not allowed for individual tournaments"), nil
	}
	var partner *models.Player
	if wantsPartner {
		p, found, err := lookup(*partnerID)
		if err != nil {
			return nil, nil, nil, err
		}
		if !found {
			return nil, nil, regErr(404, "partner not found"), nil
		}
		partner = p
	}
	if vErr := ValidateRegistration(t, player, partner, existing); vErr != nil {
		return nil, nil, vErr, nil
	}
	return player, partner, nil, nil
}
