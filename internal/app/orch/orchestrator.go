// Package orch coordinates the durable room directory with the live
// registries and owns every wire message the server emits. For each room
// mutation the durable write happens first and the live-set update only
// proceeds on durable success; the directed reply to the actor is always sent
// before any broadcast about the same mutation.
package orch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/app"
	"github.com/sastranest/nest/internal/directory"
	"github.com/sastranest/nest/internal/domain"
	"github.com/sastranest/nest/internal/protocol"
)

// DefaultCapacity bounds concurrently live participants per room, checked
// against the live membership set, never the persisted list.
const DefaultCapacity = 4

type Orchestrator struct {
	Registry  *app.Registry
	Members   *app.Membership
	Directory directory.Store
	Relay     *app.Relay
	Capacity  int
}

func New(registry *app.Registry, members *app.Membership, store directory.Store, relay *app.Relay) *Orchestrator {
	return &Orchestrator{
		Registry:  registry,
		Members:   members,
		Directory: store,
		Relay:     relay,
		Capacity:  DefaultCapacity,
	}
}

// Connect registers an admitted transport and greets the new session with
// its identifier and handle.
func (o *Orchestrator) Connect(conn app.Sender) app.Session {
	s := o.Registry.Open(conn)
	o.Relay.To(s.ID, protocol.Encode(protocol.Hello{
		Type:     protocol.TypeHello,
		ClientID: string(s.ID),
		Handle:   s.Handle,
	}))
	return s
}

// Disconnect runs the leave path for whatever room the session occupied,
// then removes it and closes the transport. Invoked unconditionally when the
// socket closes; there is no graceful shutdown negotiation.
func (o *Orchestrator) Disconnect(ctx context.Context, sid app.SessionID) {
	if room, ok := o.Registry.RoomOf(sid); ok {
		o.leave(ctx, sid, room)
	}
	if conn, ok := o.Registry.Remove(sid); ok {
		conn.Close()
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
}

func participantView(s app.Session) protocol.ParticipantView {
	return protocol.ParticipantView{
		ID:           string(s.ID),
		Handle:       s.Handle,
		MicEnabled:   s.MicEnabled,
		VideoEnabled: s.VideoEnabled,
	}
}

func summary(rec *domain.RoomRecord, live int) protocol.RoomSummary {
	return protocol.RoomSummary{
		ID:               rec.ID,
		Name:             rec.Name,
		Kind:             rec.Kind,
		IsPrivate:        rec.IsPrivate,
		Creator:          rec.Creator,
		CreatedAt:        rec.CreatedAt.Format(time.RFC3339),
		ParticipantCount: live,
	}
}

// detail merges the durable record with the live participant view.
func (o *Orchestrator) detail(rec *domain.RoomRecord) protocol.RoomDetail {
	views := make([]protocol.ParticipantView, 0, o.Members.Count(rec.Name))
	for _, sid := range o.Members.Members(rec.Name) {
		if s, ok := o.Registry.Get(sid); ok {
			views = append(views, participantView(s))
		}
	}
	return protocol.RoomDetail{
		RoomSummary:        summary(rec, len(views)),
		Settings:           rec.Settings,
		ActiveParticipants: views,
	}
}

// RoomList is the public discovery view: durable records with live counts.
func (o *Orchestrator) RoomList(ctx context.Context) ([]protocol.RoomSummary, error) {
	recs, err := o.Directory.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]protocol.RoomSummary, 0, len(recs))
	for i := range recs {
		out = append(out, summary(&recs[i], o.Members.Count(recs[i].Name)))
	}
	return out, nil
}

// RoomInfo is the per-room detail view with the live participant list.
func (o *Orchestrator) RoomInfo(ctx context.Context, name domain.RoomName) (*protocol.RoomDetail, error) {
	rec, err := o.Directory.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	det := o.detail(rec)
	return &det, nil
}
