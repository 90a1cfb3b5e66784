package orch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sastranest/nest/internal/app"
	"github.com/sastranest/nest/internal/protocol"
)

// UpdateMedia mutates the session's mic/camera flags (nil leaves a flag
// unchanged), mirrors them into the persisted participant entry and tells the
// rest of the room.
func (o *Orchestrator) UpdateMedia(ctx context.Context, sid app.SessionID, mic, video *bool) {
	s, ok := o.Registry.UpdateMedia(sid, mic, video)
	if !ok || s.Room == "" {
		return
	}
	if err := o.Directory.UpdateParticipant(ctx, s.Room, string(sid), mic, video); err != nil {
		// Persisted flags are best-effort bookkeeping; the live state already moved on.
		return
	}
	o.Relay.ToRoom(s.Room, protocol.Encode(protocol.ParticipantMediaUpdated{
		Type:         protocol.TypeParticipantMediaUpdated,
		ClientID:     string(sid),
		MicEnabled:   s.MicEnabled,
		VideoEnabled: s.VideoEnabled,
	}), sid)
}

// ScreenShare announces a screen-share toggle to the rest of the room.
func (o *Orchestrator) ScreenShare(sid app.SessionID, enabled bool) {
	room, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	o.Relay.ToRoom(room, protocol.Encode(protocol.ScreenShareUpdate{
		Type:     protocol.TypeScreenShareUpdate,
		ClientID: string(sid),
		Enabled:  enabled,
	}), sid)
}

// React fans a reaction out to the rest of the room, stamped server-side.
// Reactions are never persisted.
func (o *Orchestrator) React(sid app.SessionID, emoji string) {
	room, ok := o.Registry.RoomOf(sid)
	if !ok {
		return
	}
	o.Relay.ToRoom(room, protocol.Encode(protocol.ReactionEvent{
		Type:      protocol.TypeReaction,
		ClientID:  string(sid),
		Emoji:     emoji,
		Timestamp: time.Now().UnixMilli(),
	}), sid)
}

// RelaySignal couriers a session description or ICE candidate to exactly one
// peer. A missing target is dropped silently; the sender is not notified.
func (o *Orchestrator) RelaySignal(sid app.SessionID, to string, data json.RawMessage) {
	o.Relay.To(app.SessionID(to), protocol.Encode(protocol.Signal{
		Type: protocol.TypeSignal,
		From: string(sid),
		Data: data,
	}))
}
