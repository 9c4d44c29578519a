package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamClone_IsDeep(t *testing.T) {
	orig := Team{
		ID:            1,
		Players:       []Player{{PlayerID: "1", Nickname: "a", Position: 1}},
		ReservePlayer: &Reserve{PlayerID: "r", Nickname: "res"},
	}
	c := orig.Clone()
	c.Players[0].Nickname = "changed"
	c.ReservePlayer.Nickname = "changed"

	assert.Equal(t, "a", orig.Players[0].Nickname)
	assert.Equal(t, "res", orig.ReservePlayer.Nickname)
}

func TestDatasetClone_IsDeep(t *testing.T) {
	d := DefaultDataset()
	d.Teams = append(d.Teams, Team{ID: 1, Name: "Alpha", Players: []Player{{Nickname: "x"}}})

	c := d.Clone()
	c.Teams[0].Name = "Beta"
	c.Teams[0].Players[0].Nickname = "y"
	c.Teams = append(c.Teams, Team{ID: 2})

	assert.Len(t, d.Teams, 1)
	assert.Equal(t, "Alpha", d.Teams[0].Name)
	assert.Equal(t, "x", d.Teams[0].Players[0].Nickname)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusConfirmed.Valid())
	assert.False(t, TeamStatus("archived").Valid())
	assert.True(t, TournamentClosed.Valid())
	assert.False(t, TournamentStatus("paused").Valid())
}
