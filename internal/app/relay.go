package app

import (
	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/domain"
)

// Relay fans frames out to room members, to everyone, or to a single session.
// Delivery is best effort: a closed or backpressured transport is skipped and
// logged, never retried, and never stalls delivery to the others.
type Relay struct {
	registry *Registry
	members  *Membership
}

func NewRelay(registry *Registry, members *Membership) *Relay {
	return &Relay{registry: registry, members: members}
}

// ToRoom delivers to every live member of the room except exclude.
func (r *Relay) ToRoom(room domain.RoomName, frame Frame, exclude SessionID) {
	for _, sid := range r.members.Members(room) {
		if sid == exclude {
			continue
		}
		r.To(sid, frame)
	}
}

// ToAll delivers to every open session except exclude.
func (r *Relay) ToAll(frame Frame, exclude SessionID) {
	for sid, conn := range r.registry.eachConn() {
		if sid == exclude {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("sid", string(sid)).Msg("dropped frame")
		}
	}
}

// To delivers to exactly one session. A missing target is silently dropped;
// the sender gets no delivery-failure notice.
func (r *Relay) To(sid SessionID, frame Frame) bool {
	conn, ok := r.registry.conn(sid)
	if !ok {
		log.Warn().Str("module", "app.relay").Str("sid", string(sid)).Msg("relay target not connected")
		return false
	}
	if err := conn.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.relay").Str("sid", string(sid)).Msg("dropped frame")
		return false
	}
	return true
}
