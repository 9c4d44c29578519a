package elastic

import (
	"time"

	"github.com/sirdesai22/regdesk/internal/models"
)

type TeamDoc struct {
	TeamID       int64     `json:"team_id"`
	Name         string    `json:"name"`
	Tag          string    `json:"tag"`
	Status       string    `json:"status"`
	Players      []string  `json:"players"`
	Reserve      string    `json:"reserve,omitempty"`
	Telegram     string    `json:"telegram,omitempty"`
	VK           string    `json:"vk,omitempty"`
	Email        string    `json:"email,omitempty"`
	Action       string    `json:"action"`
	Source       string    `json:"source"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BuildTeamDoc flattens an envelope into the teams_v1 document. Players are
// stored as "nickname (id)".
func BuildTeamDoc(env models.Envelope) TeamDoc {
	t := env.Data
	doc := TeamDoc{
		TeamID:       t.ID,
		Name:         t.Name,
		Tag:          t.Tag,
		Status:       string(t.Status),
		Players:      make([]string, 0, len(t.Players)),
		Telegram:     t.Contacts.Telegram,
		VK:           t.Contacts.VK,
		Email:        t.Contacts.Email,
		Action:       string(env.Action),
		Source:       env.Source,
		RegisteredAt: t.RegistrationTime,
		UpdatedAt:    env.Timestamp,
	}
	for _, p := range t.Players {
		doc.Players = append(doc.Players, p.Nickname+" ("+p.PlayerID+")")
	}
	if t.ReservePlayer != nil {
		doc.Reserve = t.ReservePlayer.Nickname + " (" + t.ReservePlayer.PlayerID + ")"
	}
	return doc
}
