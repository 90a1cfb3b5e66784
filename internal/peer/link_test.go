package peer

import (
	"fmt"
	"testing"

	"github.com/pion/webrtc/v4"
)

// fakePort is a scripted SessionPort recording every call.
type fakePort struct {
	offers     int
	answers    int
	localSet   []webrtc.SessionDescription
	remoteSet  []webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
	onICE      func(webrtc.ICECandidateInit)
	closed     bool
}

func (p *fakePort) CreateOffer() (webrtc.SessionDescription, error) {
	p.offers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: fmt.Sprintf("offer-%d", p.offers)}, nil
}

func (p *fakePort) CreateAnswer() (webrtc.SessionDescription, error) {
	p.answers++
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: fmt.Sprintf("answer-%d", p.answers)}, nil
}

func (p *fakePort) SetLocalDescription(sdp webrtc.SessionDescription) error {
	p.localSet = append(p.localSet, sdp)
	return nil
}

func (p *fakePort) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	p.remoteSet = append(p.remoteSet, sdp)
	return nil
}

func (p *fakePort) AddICECandidate(c webrtc.ICECandidateInit) error {
	p.candidates = append(p.candidates, c)
	return nil
}

func (p *fakePort) OnICECandidate(fn func(webrtc.ICECandidateInit)) { p.onICE = fn }

func (p *fakePort) Close() { p.closed = true }

func offerSDP(s string) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: s}
}

func answerSDP(s string) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: s}
}

func candidate(s string) webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{Candidate: s}
}

func TestLink_OfferMovesToHaveLocalOffer(t *testing.T) {
	port := &fakePort{}
	l := &Link{peerID: "p1", port: port}

	sdp, err := l.offer()
	if err != nil {
		t.Fatalf("offer failed: %v", err)
	}
	if sdp == nil || sdp.Type != webrtc.SDPTypeOffer {
		t.Fatalf("Expected an offer description, got %+v", sdp)
	}
	if l.state != StateHaveLocalOffer {
		t.Errorf("Expected have-local-offer, got %s", l.state)
	}
	if len(port.localSet) != 1 {
		t.Errorf("Expected local description applied, got %d", len(port.localSet))
	}
}

func TestLink_AnswerSettlesLink(t *testing.T) {
	port := &fakePort{}
	l := &Link{peerID: "p1", port: port}
	l.offer()

	if err := l.onAnswer(answerSDP("a")); err != nil {
		t.Fatalf("onAnswer failed: %v", err)
	}
	if l.state != StateStable {
		t.Errorf("Expected stable, got %s", l.state)
	}
	if !l.remoteSet {
		t.Error("Expected remote description marked set")
	}
}

func TestLink_UnexpectedAnswerDiscarded(t *testing.T) {
	port := &fakePort{}
	l := &Link{peerID: "p1", port: port}

	if err := l.onAnswer(answerSDP("a")); err != nil {
		t.Fatalf("Expected stray answer to be dropped without error, got %v", err)
	}
	if len(port.remoteSet) != 0 {
		t.Error("Expected no remote description applied")
	}
}

func TestLink_IncomingOfferAnswered(t *testing.T) {
	port := &fakePort{}
	l := &Link{peerID: "p1", port: port}

	answer, err := l.onOffer(offerSDP("o"))
	if err != nil {
		t.Fatalf("onOffer failed: %v", err)
	}
	if answer == nil || answer.Type != webrtc.SDPTypeAnswer {
		t.Fatalf("Expected an answer, got %+v", answer)
	}
	if l.state != StateStable {
		t.Errorf("Expected stable after answering, got %s", l.state)
	}
	if len(port.remoteSet) != 1 || len(port.localSet) != 1 {
		t.Error("Expected both descriptions applied")
	}
}

func TestLink_CollisionDiscardsIncomingOffer(t *testing.T) {
	port := &fakePort{}
	l := &Link{peerID: "p1", port: port}
	l.offer()

	answer, err := l.onOffer(offerSDP("colliding"))
	if err != nil {
		t.Fatalf("Expected collision to be handled without error, got %v", err)
	}
	if answer != nil {
		t.Error("Expected no answer for a colliding offer")
	}
	if l.collisions != 1 {
		t.Errorf("Expected 1 collision recorded, got %d", l.collisions)
	}
	if l.state != StateHaveLocalOffer {
		t.Errorf("Expected local offer to stay in flight, got %s", l.state)
	}
	if len(port.remoteSet) != 0 {
		t.Error("Expected colliding offer never applied")
	}
}

func TestLink_CandidatesBufferedUntilRemoteSet(t *testing.T) {
	port := &fakePort{}
	l := &Link{peerID: "p1", port: port}
	l.offer()

	l.onCandidate(candidate("c1"))
	l.onCandidate(candidate("c2"))
	if len(port.candidates) != 0 {
		t.Fatalf("Expected candidates held back, got %d applied", len(port.candidates))
	}

	if err := l.onAnswer(answerSDP("a")); err != nil {
		t.Fatalf("onAnswer failed: %v", err)
	}
	if len(port.candidates) != 2 {
		t.Fatalf("Expected 2 candidates flushed, got %d", len(port.candidates))
	}
	// Arrival order is preserved.
	if port.candidates[0].Candidate != "c1" || port.candidates[1].Candidate != "c2" {
		t.Errorf("Expected [c1 c2], got %v", port.candidates)
	}

	// Later candidates apply immediately.
	l.onCandidate(candidate("c3"))
	if len(port.candidates) != 3 {
		t.Errorf("Expected direct application after settle, got %d", len(port.candidates))
	}
}

func TestLink_CloseDiscardsBuffer(t *testing.T) {
	port := &fakePort{}
	l := &Link{peerID: "p1", port: port}
	l.onCandidate(candidate("c1"))

	l.close()
	if !port.closed {
		t.Error("Expected port closed")
	}
	if l.pending != nil {
		t.Error("Expected buffered candidates discarded")
	}
}
