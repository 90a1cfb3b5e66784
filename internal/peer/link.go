// Package peer implements the negotiation protocol every participant runs
// against each other participant in its room: offer/answer exchange with a
// deterministic tie-break, collision discard and ICE candidate buffering.
// The relay server is used purely as a directed-message courier.
package peer

import (
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// State is the signaling state of a single peer link.
type State int

const (
	StateStable State = iota
	StateHaveLocalOffer
	StateHaveRemoteOffer
)

func (s State) String() string {
	switch s {
	case StateStable:
		return "stable"
	case StateHaveLocalOffer:
		return "have-local-offer"
	case StateHaveRemoteOffer:
		return "have-remote-offer"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionPort abstracts the local media session behind a link (a pion
// PeerConnection in production, a fake in tests).
type SessionPort interface {
	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
	OnICECandidate(func(webrtc.ICECandidateInit))
	Close()
}

// Link is the client-local negotiation state for one remote participant.
// All methods are called under the owning engine's lock.
type Link struct {
	peerID     string
	handle     string
	state      State
	remoteSet  bool
	pending    []webrtc.ICECandidateInit
	collisions int
	port       SessionPort
}

func (l *Link) State() State { return l.state }

// offer creates and applies a local offer, moving the link to
// have-local-offer. Only the side with the smaller handle calls this.
func (l *Link) offer() (*webrtc.SessionDescription, error) {
	sdp, err := l.port.CreateOffer()
	if err != nil {
		return nil, err
	}
	if err := l.port.SetLocalDescription(sdp); err != nil {
		return nil, err
	}
	l.state = StateHaveLocalOffer
	return &sdp, nil
}

// onOffer handles an incoming offer. In stable the link answers immediately;
// in any other state the offer is a collision and is discarded, the local
// offer in flight taking precedence.
func (l *Link) onOffer(sdp webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if l.state != StateStable {
		l.collisions++
		log.Warn().Str("module", "peer").Str("peer", l.peerID).
			Stringer("state", l.state).Msg("offer collision, discarding incoming offer")
		return nil, nil
	}
	l.state = StateHaveRemoteOffer
	if err := l.port.SetRemoteDescription(sdp); err != nil {
		l.state = StateStable
		return nil, err
	}
	l.remoteSet = true
	if err := l.flush(); err != nil {
		return nil, err
	}
	answer, err := l.port.CreateAnswer()
	if err != nil {
		return nil, err
	}
	if err := l.port.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	l.state = StateStable
	return &answer, nil
}

// onAnswer applies an answer to a local offer, settles the link and flushes
// buffered candidates in arrival order.
func (l *Link) onAnswer(sdp webrtc.SessionDescription) error {
	if l.state != StateHaveLocalOffer {
		log.Warn().Str("module", "peer").Str("peer", l.peerID).
			Stringer("state", l.state).Msg("unexpected answer, discarding")
		return nil
	}
	if err := l.port.SetRemoteDescription(sdp); err != nil {
		return err
	}
	l.remoteSet = true
	l.state = StateStable
	return l.flush()
}

// onCandidate applies the candidate immediately when a remote description is
// set, and buffers it in arrival order otherwise.
func (l *Link) onCandidate(c webrtc.ICECandidateInit) error {
	if !l.remoteSet {
		l.pending = append(l.pending, c)
		return nil
	}
	return l.port.AddICECandidate(c)
}

func (l *Link) flush() error {
	for _, c := range l.pending {
		if err := l.port.AddICECandidate(c); err != nil {
			return err
		}
	}
	l.pending = nil
	return nil
}

// close tears the link down, discarding any buffered candidates.
func (l *Link) close() {
	l.pending = nil
	l.port.Close()
}
