package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirdesai22/regdesk/internal/models"
)

var teamHeader = []interface{}{
	"id", "name", "tag", "status", "players", "reserve",
	"telegram", "vk", "email", "registrationDate", "action", "updatedAt",
}

// TeamRow renders one envelope as a sheet row in teamHeader order.
func TeamRow(env models.Envelope) []interface{} {
	t := env.Data
	players := make([]string, 0, len(t.Players))
	for _, p := range t.Players {
		players = append(players, fmt.Sprintf("%d. %s (%s)", p.Position, p.Nickname, p.PlayerID))
	}
	reserve := ""
	if t.ReservePlayer != nil {
		reserve = fmt.Sprintf("%s (%s)", t.ReservePlayer.Nickname, t.ReservePlayer.PlayerID)
	}
	return []interface{}{
		t.ID, t.Name, t.Tag, string(t.Status), strings.Join(players, "\n"), reserve,
		t.Contacts.Telegram, t.Contacts.VK, t.Contacts.Email, t.RegistrationDate,
		string(env.Action), env.Timestamp.UTC().Format(time.RFC3339),
	}
}

// findTeamRow returns the 1-based sheet row holding team id, or 0.
// Row 1 is the header.
func findTeamRow(values [][]interface{}, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i := 1; i < len(values); i++ {
		if get(values[i], 0) == want {
			return i + 1
		}
	}
	return 0
}

func get(row []interface{}, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(fmt.Sprint(row[idx]))
	}
	return ""
}

// UpsertTeam rewrites the team's row, appending it (and the header on an
// empty tab) when the team is not in the sheet yet.
func (c *Client) UpsertTeam(ctx context.Context, env models.Envelope) error {
	values, err := c.readColumn(ctx, "A")
	if err != nil {
		return fmt.Errorf("read %s: %w", c.tab, err)
	}
	row := TeamRow(env)
	if n := findTeamRow(values, env.Data.ID); n > 0 {
		return c.updateRow(ctx, n, row)
	}
	if len(values) == 0 {
		if err := c.appendRow(ctx, teamHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return c.appendRow(ctx, row)
}
