package peer

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/protocol"
)

// PortFactory builds the media session for a new peer link.
type PortFactory func(peerID string) (SessionPort, error)

// SendFunc couriers a signal payload to one remote participant.
type SendFunc func(to string, data protocol.SignalData)

// ShouldOffer is the deterministic tie-break: of any pair, exactly the side
// with the lexicographically smaller handle initiates the offer, so no pair
// ever has both sides offering under normal operation.
func ShouldOffer(localHandle, remoteHandle string) bool {
	return localHandle < remoteHandle
}

// Engine runs one negotiation link per remote participant in the local
// session's room.
type Engine struct {
	mu          sync.Mutex
	localHandle string
	newPort     PortFactory
	send        SendFunc
	links       map[string]*Link
}

func NewEngine(localHandle string, newPort PortFactory, send SendFunc) *Engine {
	return &Engine{
		localHandle: localHandle,
		newPort:     newPort,
		send:        send,
		links:       make(map[string]*Link),
	}
}

// ensureLink returns the link for peerID, creating it on first contact.
// Links created for an unknown sender (directed signal arriving before the
// roster update) never initiate; they only answer.
func (e *Engine) ensureLink(peerID, handle string) (*Link, error) {
	if l, ok := e.links[peerID]; ok {
		return l, nil
	}
	port, err := e.newPort(peerID)
	if err != nil {
		return nil, fmt.Errorf("peer %s: %w", peerID, err)
	}
	l := &Link{peerID: peerID, handle: handle, state: StateStable, port: port}
	port.OnICECandidate(func(c webrtc.ICECandidateInit) {
		e.send(peerID, protocol.SignalData{Candidate: &c})
	})
	e.links[peerID] = l
	log.Info().Str("module", "peer").Str("peer", peerID).Str("handle", handle).Msg("peer link created")
	return l, nil
}

// AddPeer registers a participant observed in the room and, when the local
// handle wins the tie-break, initiates the offer.
func (e *Engine) AddPeer(peerID, handle string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.ensureLink(peerID, handle)
	if err != nil {
		return err
	}
	if !ShouldOffer(e.localHandle, handle) {
		return nil
	}
	if l.state != StateStable {
		return nil
	}
	sdp, err := l.offer()
	if err != nil {
		return err
	}
	e.send(peerID, protocol.SignalData{SDP: sdp})
	return nil
}

// HandleSignal feeds a relayed session description or ICE candidate into the
// sender's link.
func (e *Engine) HandleSignal(from string, data protocol.SignalData) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, err := e.ensureLink(from, "")
	if err != nil {
		return err
	}

	switch {
	case data.SDP != nil && data.SDP.Type == webrtc.SDPTypeOffer:
		answer, err := l.onOffer(*data.SDP)
		if err != nil {
			return err
		}
		if answer != nil {
			e.send(from, protocol.SignalData{SDP: answer})
		}
	case data.SDP != nil && data.SDP.Type == webrtc.SDPTypeAnswer:
		return l.onAnswer(*data.SDP)
	case data.Candidate != nil:
		return l.onCandidate(*data.Candidate)
	default:
		log.Warn().Str("module", "peer").Str("peer", from).Msg("empty signal payload")
	}
	return nil
}

// RemovePeer tears down the link for a departed participant.
func (e *Engine) RemovePeer(peerID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.links[peerID]; ok {
		l.close()
		delete(e.links, peerID)
		log.Info().Str("module", "peer").Str("peer", peerID).Msg("peer link closed")
	}
}

// Reset tears down every link; used when the local session leaves its room.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, l := range e.links {
		l.close()
		delete(e.links, id)
	}
}

// State reports the signaling state of one link.
func (e *Engine) State(peerID string) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.links[peerID]
	if !ok {
		return StateStable, false
	}
	return l.state, true
}

// Collisions reports how many incoming offers a link has discarded.
func (e *Engine) Collisions(peerID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.links[peerID]; ok {
		return l.collisions
	}
	return 0
}
