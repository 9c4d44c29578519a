package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirdesai22/regdesk/internal/errs"
	"github.com/sirdesai22/regdesk/internal/models"
)

const (
	minNameLen = 3
	minTagLen  = 2
	maxTagLen  = 6
)

// TeamInput is the user-supplied part of a team.
type TeamInput struct {
	Name          string          `json:"name"`
	Tag           string          `json:"tag"`
	Players       []models.Player `json:"players"`
	ReservePlayer *models.Reserve `json:"reservePlayer"`
	Contacts      models.Contacts `json:"contacts"`
}

// normalize trims every text field, upper-cases the tag and forces player
// positions to 1..5 by slot.
func (in TeamInput) normalize() TeamInput {
	out := TeamInput{
		Name: strings.TrimSpace(in.Name),
		Tag:  strings.ToUpper(strings.TrimSpace(in.Tag)),
		Contacts: models.Contacts{
			Telegram: strings.TrimSpace(in.Contacts.Telegram),
			VK:       strings.TrimSpace(in.Contacts.VK),
			Email:    strings.TrimSpace(in.Contacts.Email),
		},
	}
	out.Players = make([]models.Player, len(in.Players))
	for i, p := range in.Players {
		out.Players[i] = models.Player{
			PlayerID: strings.TrimSpace(p.PlayerID),
			Nickname: strings.TrimSpace(p.Nickname),
			Position: i + 1,
		}
	}
	if in.ReservePlayer != nil {
		out.ReservePlayer = &models.Reserve{
			PlayerID: strings.TrimSpace(in.ReservePlayer.PlayerID),
			Nickname: strings.TrimSpace(in.ReservePlayer.Nickname),
		}
	}
	return out
}

// validateTeam checks a normalized input against the current teams.
// selfID is excluded from the tag uniqueness check; pass 0 on create.
func validateTeam(in TeamInput, teams []models.Team, selfID int64) error {
	var v errs.ValidationErrors

	if utf8.RuneCountInString(in.Name) < minNameLen {
		v.Add("name", fmt.Sprintf("must be at least %d characters", minNameLen))
	}

	switch n := utf8.RuneCountInString(in.Tag); {
	case n < minTagLen || n > maxTagLen:
		v.Add("tag", fmt.Sprintf("must be %d-%d characters", minTagLen, maxTagLen))
	case strings.IndexFunc(in.Tag, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		v.Add("tag", "must not contain spaces")
	default:
		for _, t := range teams {
			if t.ID != selfID && strings.EqualFold(t.Tag, in.Tag) {
				v.Add("tag", fmt.Sprintf("tag %q is already taken", in.Tag))
				break
			}
		}
	}

	if len(in.Players) != models.PlayersPerTeam {
		v.Add("players", fmt.Sprintf("exactly %d players are required", models.PlayersPerTeam))
	}
	for i, p := range in.Players {
		if p.PlayerID == "" {
			v.Add(fmt.Sprintf("players[%d].playerId", i), "is required")
		}
		if p.Nickname == "" {
			v.Add(fmt.Sprintf("players[%d].nickname", i), "is required")
		}
	}

	switch r := in.ReservePlayer; {
	case r == nil:
		v.Add("reservePlayer", "is required")
	default:
		if r.PlayerID == "" {
			v.Add("reservePlayer.playerId", "is required")
		}
		if r.Nickname == "" {
			v.Add("reservePlayer.nickname", "is required")
		}
	}

	if in.Contacts.Telegram == "" && in.Contacts.VK == "" {
		v.Add("contacts", "telegram or vk is required")
	}

	return v.Err()
}
