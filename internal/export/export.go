// Package export renders teams as CSV and the primary record as JSON.
package export

import (
	"bufio"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sirdesai22/regdesk/internal/models"
)

const bom = "\ufeff"

var (
	teamColumns   = []string{"id", "name", "tag", "status", "telegram", "vk", "email", "registrationDate"}
	playerColumns = []string{"teamId", "teamName", "position", "nickname", "playerId", "role"}
)

// ReservePosition is the position the reserve player is exported under.
const ReservePosition = 6

// TeamsCSV writes one row per team. Text fields are always quoted so
// spreadsheet tools never reinterpret them.
func TeamsCSV(w io.Writer, teams []models.Team) error {
	cw := newWriter(w)
	cw.header(teamColumns)
	for _, t := range teams {
		cw.row(
			num(t.ID), quote(t.Name), quote(t.Tag), quote(string(t.Status)),
			quote(t.Contacts.Telegram), quote(t.Contacts.VK), quote(t.Contacts.Email),
			quote(t.RegistrationDate),
		)
	}
	return cw.flush()
}

// PlayersCSV writes one row per player; the reserve is listed last with
// position 6.
func PlayersCSV(w io.Writer, teams []models.Team) error {
	cw := newWriter(w)
	cw.header(playerColumns)
	for _, t := range teams {
		for _, p := range t.Players {
			cw.row(num(t.ID), quote(t.Name), strconv.Itoa(p.Position), quote(p.Nickname), quote(p.PlayerID), quote("main"))
		}
		if r := t.ReservePlayer; r != nil {
			cw.row(num(t.ID), quote(t.Name), strconv.Itoa(ReservePosition), quote(r.Nickname), quote(r.PlayerID), quote("reserve"))
		}
	}
	return cw.flush()
}

type dump struct {
	models.Dataset
	ExportDate time.Time `json:"exportDate"`
}

// DataJSON writes the full primary record with an export timestamp.
func DataJSON(w io.Writer, d models.Dataset, exportedAt time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dump{Dataset: d, ExportDate: exportedAt.UTC()})
}

type writer struct {
	bw *bufio.Writer
}

func newWriter(w io.Writer) *writer {
	bw := bufio.NewWriter(w)
	bw.WriteString(bom)
	return &writer{bw: bw}
}

func (w *writer) header(cols []string) { w.row(cols...) }

func (w *writer) row(fields ...string) {
	w.bw.WriteString(strings.Join(fields, ","))
	w.bw.WriteByte('\n')
}

func (w *writer) flush() error { return w.bw.Flush() }

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func num(n int64) string { return strconv.FormatInt(n, 10) }
