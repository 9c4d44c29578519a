package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirdesai22/regdesk/internal/models"
)

func sampleTeams() []models.Team {
	return []models.Team{
		{
			ID:     1,
			Name:   `The "Best", Team`,
			Tag:    "BST",
			Status: models.StatusConfirmed,
			Players: []models.Player{
				{PlayerID: "101", Nickname: "ace", Position: 1},
				{PlayerID: "102", Nickname: "bo,lt", Position: 2},
			},
			ReservePlayer:    &models.Reserve{PlayerID: "900", Nickname: "bench"},
			Contacts:         models.Contacts{Telegram: "@best"},
			RegistrationDate: "09.03.2024",
		},
	}
}

func TestTeamsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TeamsCSV(&buf, sampleTeams()))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"))
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,tag,status,telegram,vk,email,registrationDate", lines[0])
	assert.Equal(t, `1,"The ""Best"", Team","BST","confirmed","@best","","","09.03.2024"`, lines[1])
}

func TestTeamsCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TeamsCSV(&buf, nil))
	assert.Equal(t, "\ufeffid,name,tag,status,telegram,vk,email,registrationDate\n", buf.String())
}

func TestPlayersCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PlayersCSV(&buf, sampleTeams()))

	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(buf.String(), "\ufeff"), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `1,"The ""Best"", Team",2,"bo,lt","102","main"`, lines[2])
	assert.Equal(t, `1,"The ""Best"", Team",6,"bench","900","reserve"`, lines[3])
}

func TestDataJSON(t *testing.T) {
	d := models.DefaultDataset()
	d.Teams = sampleTeams()
	d.LastID = 1
	at := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, DataJSON(&buf, d, at))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2024-03-09T12:00:00Z", got["exportDate"])
	assert.EqualValues(t, 1, got["lastId"])
	assert.Len(t, got["teams"], 1)
	assert.Contains(t, got, "tournament")
	assert.Contains(t, got, "settings")
}
