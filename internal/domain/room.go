// Package domain contains the durable data model and the error taxonomy.
// No transport or lifecycle logic here.
package domain

import "time"

type (
	RoomName string
	RoomID   string
)

const MaxRoomNameLen = 50

// RoomKind selects the media layout a room was created for.
type RoomKind string

const (
	RoomVoice RoomKind = "voice"
	RoomVideo RoomKind = "video"
)

// RoomSettings are per-room allowances persisted with the record.
type RoomSettings struct {
	MaxParticipants  int  `json:"maxParticipants"`
	AllowScreenShare bool `json:"allowScreenShare"`
	AllowReactions   bool `json:"allowReactions"`
}

func DefaultRoomSettings() RoomSettings {
	return RoomSettings{MaxParticipants: 50, AllowScreenShare: true, AllowReactions: true}
}

// Participant is the persisted participant entry on a room record.
// Best-effort bookkeeping: live presence is owned by the in-memory membership table.
type Participant struct {
	ID           string    `json:"id"`
	JoinedAt     time.Time `json:"joinedAt"`
	MicEnabled   bool      `json:"micEnabled"`
	VideoEnabled bool      `json:"videoEnabled"`
}

// RoomRecord is the durable room row owned by the directory store.
type RoomRecord struct {
	ID           RoomID        `json:"id"`
	Name         RoomName      `json:"name"`
	Kind         RoomKind      `json:"type"`
	IsPrivate    bool          `json:"isPrivate"`
	Password     string        `json:"password,omitempty"`
	Creator      string        `json:"creator"`
	CreatedAt    time.Time     `json:"createdAt"`
	Participants []Participant `json:"participants"`
	Settings     RoomSettings  `json:"settings"`
}

// HasParticipant reports whether the persisted list already holds id.
func (r *RoomRecord) HasParticipant(id string) bool {
	for _, p := range r.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// RoomPatch carries optional record updates for Store.Update.
type RoomPatch struct {
	Password *string
	Settings *RoomSettings
}
