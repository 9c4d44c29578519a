package models

import (
	"time"

	"github.com/google/uuid"
)

// ---------------- SYNC QUEUE (outbound replication) ----------------

type SyncAction string

const (
	ActionRegister SyncAction = "register"
	ActionUpdate   SyncAction = "update"
)

type SyncQueueItem struct {
	ID            uuid.UUID  `json:"id"`
	TeamID        int64      `json:"teamId"`
	Action        SyncAction `json:"action"`
	Payload       Team       `json:"payload"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt *time.Time `json:"lastAttemptAt,omitempty"`
	EnqueuedAt    time.Time  `json:"enqueuedAt"`
}

// Envelope is the body posted to the external endpoint.
type Envelope struct {
	Action    SyncAction `json:"action"`
	Data      Team       `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Version   string     `json:"version"`
}
