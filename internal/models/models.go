package models

import (
	"time"
)

// ---------------- TEAMS ----------------

type TeamStatus string

const (
	StatusPending   TeamStatus = "pending"
	StatusConfirmed TeamStatus = "confirmed"
	StatusRejected  TeamStatus = "rejected"
)

func (s TeamStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

type SyncState string

const (
	SyncUnsynced SyncState = "unsynced"
	SyncSynced   SyncState = "synced"
	SyncFailed   SyncState = "failed"
)

// PlayersPerTeam is the fixed size of a primary roster.
const PlayersPerTeam = 5

type Player struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Position int    `json:"position"` // 1..5
}

type Reserve struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

type Contacts struct {
	Telegram string `json:"telegram,omitempty"`
	VK       string `json:"vk,omitempty"`
	Email    string `json:"email,omitempty"`
}

type Team struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Tag              string     `json:"tag"` // upper-case, unique ignoring case
	Status           TeamStatus `json:"status"`
	Players          []Player   `json:"players"`
	ReservePlayer    *Reserve   `json:"reservePlayer,omitempty"`
	Contacts         Contacts   `json:"contacts"`
	RegistrationDate string     `json:"registrationDate"` // dd.mm.yyyy
	RegistrationTime time.Time  `json:"registrationTime"`
	SyncState        SyncState  `json:"syncState"`
	SyncAttempts     int        `json:"syncAttempts"`
}

// Clone returns a deep copy of t.
func (t Team) Clone() Team {
	c := t
	c.Players = append([]Player(nil), t.Players...)
	if t.ReservePlayer != nil {
		r := *t.ReservePlayer
		c.ReservePlayer = &r
	}
	return c
}

// ---------------- TOURNAMENT ----------------

type TournamentStatus string

const (
	TournamentRegistration TournamentStatus = "registration"
	TournamentOngoing      TournamentStatus = "ongoing"
	TournamentFinished     TournamentStatus = "finished"
	TournamentClosed       TournamentStatus = "closed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentRegistration, TournamentOngoing, TournamentFinished, TournamentClosed:
		return true
	}
	return false
}

type Tournament struct {
	Name             string           `json:"name"`
	Status           TournamentStatus `json:"status"`
	StartDate        string           `json:"startDate"`
	RegEndDate       string           `json:"regEndDate"`
	Format           string           `json:"format"`
	PrizePool        string           `json:"prizePool"`
	Description      string           `json:"description"`
	MaxTeams         int              `json:"maxTeams"`
	RegistrationOpen bool             `json:"registrationOpen"`
}

// ---------------- PRIMARY RECORD ----------------

type Settings struct {
	RegistrationOpen bool `json:"registrationOpen"`
	MaxTeams         int  `json:"maxTeams"` // 0 means unlimited
	RequireApproval  bool `json:"requireApproval"`
	EnableSync       bool `json:"enableSync"`
}

// Dataset is the primary data record: everything the record store owns.
type Dataset struct {
	Teams      []Team     `json:"teams"`
	Tournament Tournament `json:"tournament"`
	LastID     int64      `json:"lastId"`
	Settings   Settings   `json:"settings"`
}

// Clone returns a deep copy of d.
func (d Dataset) Clone() Dataset {
	c := d
	c.Teams = make([]Team, len(d.Teams))
	for i, t := range d.Teams {
		c.Teams[i] = t.Clone()
	}
	return c
}

// DefaultDataset is the record written on first start and by a full reset.
func DefaultDataset() Dataset {
	return Dataset{
		Teams: []Team{},
		Tournament: Tournament{
			Name:             "Astra Tournament S1",
			Status:           TournamentRegistration,
			StartDate:        "15.11.2023",
			RegEndDate:       "10.11.2023",
			Format:           "5x5, Single Elimination",
			PrizePool:        "50.000 RUB",
			Description:      "Standoff 2 tournament by Astra Org.",
			MaxTeams:         32,
			RegistrationOpen: true,
		},
		LastID: 0,
		Settings: Settings{
			RegistrationOpen: true,
			MaxTeams:         32,
			RequireApproval:  true,
			EnableSync:       true,
		},
	}
}

// ---------------- SECONDARY RECORDS ----------------

// SystemSettings is the secondary settings record (admin credential, endpoint, flags).
type SystemSettings struct {
	AdminPasswordHash   []byte `json:"adminPasswordHash"`
	AdminPasswordSalt   []byte `json:"adminPasswordSalt"`
	AdminEmail          string `json:"adminEmail"`
	SyncEndpoint        string `json:"googleSheetsUrl"`
	EnableNotifications bool   `json:"enableEmailNotifications"`
	EnableAutoBackup    bool   `json:"enableAutoBackup"`
}

type Backup struct {
	TakenAt  time.Time `json:"takenAt"`
	Snapshot Dataset   `json:"snapshot"`
}

type Session struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}
