// Package protocol defines the closed wire vocabulary exchanged over the
// signaling socket. Every message is a typed struct carrying its own type tag;
// dispatch happens on the Type constant, never on ad-hoc string literals.
package protocol

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/sastranest/nest/internal/domain"
)

const (
	TypeHello                   = "hello"
	TypeCreateRoom              = "create-room"
	TypeRoomCreated             = "room-created"
	TypeJoinRoom                = "join-room"
	TypeRoomJoined              = "room-joined"
	TypeRoomListUpdated         = "room-list-updated"
	TypeParticipantJoined       = "participant-joined"
	TypeParticipantLeft         = "participant-left"
	TypeUpdateMediaStatus       = "update-media-status"
	TypeParticipantMediaUpdated = "participant-media-updated"
	TypeSignal                  = "signal"
	TypeScreenShare             = "screen-share"
	TypeScreenShareUpdate       = "screen-share-update"
	TypeReaction                = "reaction"
	TypeDeleteRoom              = "delete-room"
	TypeRoomDeleted             = "room-deleted"
	TypeLeaveRoom               = "leave-room"
	TypeLeftRoom                = "left-room"
	TypeError                   = "error"
)

// Room list update actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Envelope is the minimal view used to pick a branch before decoding the
// full payload.
type Envelope struct {
	Type string `json:"type"`
}

// ParticipantView is the live view of a connected participant.
type ParticipantView struct {
	ID           string `json:"id"`
	Handle       string `json:"handle"`
	MicEnabled   bool   `json:"micEnabled"`
	VideoEnabled bool   `json:"videoEnabled"`
}

// RoomSummary is the public discovery view of a room.
type RoomSummary struct {
	ID               domain.RoomID   `json:"id"`
	Name             domain.RoomName `json:"name"`
	Kind             domain.RoomKind `json:"type"`
	IsPrivate        bool            `json:"isPrivate"`
	Creator          string          `json:"creator"`
	CreatedAt        string          `json:"createdAt"`
	ParticipantCount int             `json:"participantCount"`
}

// RoomDetail merges the durable record with the live participant view.
type RoomDetail struct {
	RoomSummary
	Settings           domain.RoomSettings `json:"settings"`
	ActiveParticipants []ParticipantView   `json:"activeParticipants"`
}

// --- server to client ---

type Hello struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
	Handle   string `json:"handle"`
}

type RoomCreated struct {
	Type string     `json:"type"`
	Room RoomDetail `json:"room"`
}

type RoomJoined struct {
	Type string     `json:"type"`
	Room RoomDetail `json:"room"`
}

type RoomListUpdated struct {
	Type     string          `json:"type"`
	Action   string          `json:"action"`
	Room     *RoomDetail     `json:"room,omitempty"`
	RoomName domain.RoomName `json:"roomName,omitempty"`
}

type ParticipantJoined struct {
	Type        string          `json:"type"`
	Participant ParticipantView `json:"participant"`
}

type ParticipantLeft struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
}

type ParticipantMediaUpdated struct {
	Type         string `json:"type"`
	ClientID     string `json:"clientId"`
	MicEnabled   bool   `json:"micEnabled"`
	VideoEnabled bool   `json:"videoEnabled"`
}

type ScreenShareUpdate struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
	Enabled  bool   `json:"enabled"`
}

type ReactionEvent struct {
	Type      string `json:"type"`
	ClientID  string `json:"clientId"`
	Emoji     string `json:"emoji"`
	Timestamp int64  `json:"timestamp"`
}

type RoomDeleted struct {
	Type     string          `json:"type"`
	RoomName domain.RoomName `json:"roomName"`
}

type LeftRoom struct {
	Type string `json:"type"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// --- client to server ---

type CreateRoom struct {
	Type     string          `json:"type"`
	Name     string          `json:"name"`
	Password string          `json:"password,omitempty"`
	RoomType domain.RoomKind `json:"roomType,omitempty"`
}

type JoinRoom struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

type UpdateMediaStatus struct {
	Type         string `json:"type"`
	MicEnabled   *bool  `json:"micEnabled,omitempty"`
	VideoEnabled *bool  `json:"videoEnabled,omitempty"`
}

type ScreenShare struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

type Reaction struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji"`
}

type DeleteRoom struct {
	Type     string `json:"type"`
	RoomName string `json:"roomName"`
}

type LeaveRoom struct {
	Type string `json:"type"`
}

// Signal is the directed courier message, relayed verbatim between peers.
// The server fills From; clients fill To. Data is opaque to the server.
type Signal struct {
	Type string          `json:"type"`
	To   string          `json:"to,omitempty"`
	From string          `json:"from,omitempty"`
	Data json.RawMessage `json:"data"`
}

// SignalData is the decoded payload of a Signal: exactly one of SDP or
// Candidate is set.
type SignalData struct {
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}
