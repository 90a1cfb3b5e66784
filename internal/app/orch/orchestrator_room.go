package orch

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/app"
	"github.com/sastranest/nest/internal/directory"
	"github.com/sastranest/nest/internal/domain"
	"github.com/sastranest/nest/internal/protocol"
)

func validateRoomName(raw string) (domain.RoomName, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", domain.ErrNameEmpty
	}
	if len(name) > domain.MaxRoomNameLen {
		return "", domain.ErrNameTooLong
	}
	return domain.RoomName(name), nil
}

// CreateRoom durably creates the record, moves the creator into the new
// room's live set and fans the room-list update out to everyone else.
func (o *Orchestrator) CreateRoom(ctx context.Context, sid app.SessionID, rawName, password string, kind domain.RoomKind) error {
	name, err := validateRoomName(rawName)
	if err != nil {
		return err
	}

	rec, err := o.Directory.Create(ctx, directory.CreateParams{
		Name:     name,
		Kind:     kind,
		Password: password,
		Creator:  string(sid),
	})
	if err != nil {
		return err
	}
	log.Info().Str("module", "orch").Str("room", string(name)).Str("sid", string(sid)).Msg("room created")

	if prev, ok := o.Registry.RoomOf(sid); ok {
		o.leave(ctx, sid, prev)
	}
	if rec, err = o.Directory.Join(ctx, rec.Name, string(sid), password); err != nil {
		return err
	}
	o.Members.Add(rec.Name, sid)
	o.Registry.SetRoom(sid, rec.Name)

	det := o.detail(rec)
	o.Relay.To(sid, protocol.Encode(protocol.RoomCreated{Type: protocol.TypeRoomCreated, Room: det}))
	o.Relay.ToAll(protocol.Encode(protocol.RoomListUpdated{
		Type:   protocol.TypeRoomListUpdated,
		Action: protocol.ActionCreated,
		Room:   &det,
	}), sid)
	return nil
}

// JoinRoom admits the session to an existing room. Error order follows the
// admission checks: unknown room, full room, wrong password. The persisted
// participant entry is written before the live set is touched.
func (o *Orchestrator) JoinRoom(ctx context.Context, sid app.SessionID, rawName, password string) error {
	name, err := validateRoomName(rawName)
	if err != nil {
		return err
	}

	if _, err := o.Directory.GetByName(ctx, name); err != nil {
		return err
	}
	if o.Members.Count(name) >= o.Capacity && !o.Members.Has(name, sid) {
		return domain.ErrRoomFull
	}

	rec, err := o.Directory.Join(ctx, name, string(sid), password)
	if err != nil {
		return err
	}

	if prev, ok := o.Registry.RoomOf(sid); ok && prev != name {
		o.leave(ctx, sid, prev)
	}
	o.Members.Add(name, sid)
	o.Registry.SetRoom(sid, name)
	log.Info().Str("module", "orch").Str("room", string(name)).Str("sid", string(sid)).Msg("joined room")

	det := o.detail(rec)
	o.Relay.To(sid, protocol.Encode(protocol.RoomJoined{Type: protocol.TypeRoomJoined, Room: det}))

	if s, ok := o.Registry.Get(sid); ok {
		o.Relay.ToRoom(name, protocol.Encode(protocol.ParticipantJoined{
			Type:        protocol.TypeParticipantJoined,
			Participant: participantView(s),
		}), sid)
	}
	o.Relay.ToAll(protocol.Encode(protocol.RoomListUpdated{
		Type:   protocol.TypeRoomListUpdated,
		Action: protocol.ActionUpdated,
		Room:   &det,
	}), "")
	return nil
}

// LeaveRoom handles the explicit leave-room request. The directed left-room
// acknowledgment goes out before any broadcast the leave produces.
func (o *Orchestrator) LeaveRoom(ctx context.Context, sid app.SessionID) {
	o.Relay.To(sid, protocol.Encode(protocol.LeftRoom{Type: protocol.TypeLeftRoom}))
	if room, ok := o.Registry.RoomOf(sid); ok {
		o.leave(ctx, sid, room)
	}
}

// leave is the shared leave path, also invoked on disconnect, on switching
// rooms and on room deletion fallout. Idempotent: leaving a room the session
// is not live in is a no-op, with no duplicate broadcasts.
func (o *Orchestrator) leave(ctx context.Context, sid app.SessionID, room domain.RoomName) {
	if !o.Members.Has(room, sid) {
		return
	}

	// Durable write first; the live set only changes on durable success
	// or when the durable side has nothing to say about the room.
	if err := o.Directory.Leave(ctx, room, string(sid)); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("room", string(room)).Msg("durable leave")
	}

	remaining, removed := o.Members.Remove(room, sid)
	o.Registry.ClearRoom(sid)
	if !removed {
		return
	}
	log.Info().Str("module", "orch").Str("room", string(room)).Str("sid", string(sid)).Int("remaining", remaining).Msg("left room")

	o.Relay.ToRoom(room, protocol.Encode(protocol.ParticipantLeft{
		Type:     protocol.TypeParticipantLeft,
		ClientID: string(sid),
	}), sid)

	// A dormant room (no live members) is not announced; the durable
	// record is untouched either way.
	if remaining > 0 {
		if rec, err := o.Directory.GetByName(ctx, room); err == nil {
			det := o.detail(rec)
			o.Relay.ToAll(protocol.Encode(protocol.RoomListUpdated{
				Type:   protocol.TypeRoomListUpdated,
				Action: protocol.ActionUpdated,
				Room:   &det,
			}), "")
		}
	}
}

// DeleteRoom removes the durable record, force-evicts every live member and
// announces the deletion to all sessions.
func (o *Orchestrator) DeleteRoom(ctx context.Context, sid app.SessionID, rawName string) error {
	name, err := validateRoomName(rawName)
	if err != nil {
		return err
	}
	rec, err := o.Directory.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if err := o.Directory.Delete(ctx, rec.ID, string(sid)); err != nil {
		return err
	}
	log.Info().Str("module", "orch").Str("room", string(name)).Str("sid", string(sid)).Msg("room deleted")

	deleted := protocol.Encode(protocol.RoomDeleted{Type: protocol.TypeRoomDeleted, RoomName: name})
	o.Relay.To(sid, deleted)
	for _, member := range o.Members.Drop(name) {
		o.Registry.ClearRoom(member)
		if member != sid {
			o.Relay.To(member, deleted)
		}
	}
	o.Relay.ToAll(protocol.Encode(protocol.RoomListUpdated{
		Type:     protocol.TypeRoomListUpdated,
		Action:   protocol.ActionDeleted,
		RoomName: name,
	}), "")
	return nil
}
