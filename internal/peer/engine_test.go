package peer

import (
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/sastranest/nest/internal/protocol"
)

type sentSignal struct {
	to   string
	data protocol.SignalData
}

func newTestEngine(localHandle string) (*Engine, *fakePort, *[]sentSignal) {
	port := &fakePort{}
	sent := &[]sentSignal{}
	e := NewEngine(localHandle,
		func(string) (SessionPort, error) { return port, nil },
		func(to string, data protocol.SignalData) {
			*sent = append(*sent, sentSignal{to: to, data: data})
		})
	return e, port, sent
}

func TestShouldOffer(t *testing.T) {
	if !ShouldOffer("Alice1", "Bob2") {
		t.Error("Expected the smaller handle to offer")
	}
	if ShouldOffer("Bob2", "Alice1") {
		t.Error("Expected the larger handle to wait")
	}
	if ShouldOffer("Alice1", "Alice1") {
		t.Error("Expected equal handles not to offer")
	}
}

func TestEngine_SmallerHandleOffers(t *testing.T) {
	e, port, sent := newTestEngine("Alice1")

	if err := e.AddPeer("peer-b", "Bob2"); err != nil {
		t.Fatalf("AddPeer failed: %v", err)
	}
	if port.offers != 1 {
		t.Errorf("Expected one offer created, got %d", port.offers)
	}
	if len(*sent) != 1 || (*sent)[0].to != "peer-b" || (*sent)[0].data.SDP == nil {
		t.Fatalf("Expected offer sent to peer-b, got %+v", *sent)
	}
	if (*sent)[0].data.SDP.Type != webrtc.SDPTypeOffer {
		t.Errorf("Expected an SDP offer, got %s", (*sent)[0].data.SDP.Type)
	}
	if state, _ := e.State("peer-b"); state != StateHaveLocalOffer {
		t.Errorf("Expected have-local-offer, got %s", state)
	}
}

func TestEngine_LargerHandleWaits(t *testing.T) {
	e, port, sent := newTestEngine("Bob2")

	if err := e.AddPeer("peer-a", "Alice1"); err != nil {
		t.Fatalf("AddPeer failed: %v", err)
	}
	if port.offers != 0 {
		t.Errorf("Expected no offer from the larger handle, got %d", port.offers)
	}
	if len(*sent) != 0 {
		t.Errorf("Expected nothing sent, got %+v", *sent)
	}
}

func TestEngine_AnswersIncomingOffer(t *testing.T) {
	e, _, sent := newTestEngine("Bob2")
	e.AddPeer("peer-a", "Alice1")

	offer := offerSDP("o")
	if err := e.HandleSignal("peer-a", protocol.SignalData{SDP: &offer}); err != nil {
		t.Fatalf("HandleSignal failed: %v", err)
	}
	if len(*sent) != 1 || (*sent)[0].data.SDP == nil || (*sent)[0].data.SDP.Type != webrtc.SDPTypeAnswer {
		t.Fatalf("Expected an answer back, got %+v", *sent)
	}
	if state, _ := e.State("peer-a"); state != StateStable {
		t.Errorf("Expected stable after answering, got %s", state)
	}
}

func TestEngine_OfferAnswerRoundTrip(t *testing.T) {
	e, _, sent := newTestEngine("Alice1")
	e.AddPeer("peer-b", "Bob2")

	answer := answerSDP("a")
	if err := e.HandleSignal("peer-b", protocol.SignalData{SDP: &answer}); err != nil {
		t.Fatalf("HandleSignal failed: %v", err)
	}
	if state, _ := e.State("peer-b"); state != StateStable {
		t.Errorf("Expected stable after the answer, got %s", state)
	}
	// The offer was the only outbound signal.
	if len(*sent) != 1 {
		t.Errorf("Expected a single outbound signal, got %d", len(*sent))
	}
}

func TestEngine_CollisionDiscard(t *testing.T) {
	e, port, sent := newTestEngine("Alice1")
	e.AddPeer("peer-b", "Bob2")

	offer := offerSDP("colliding")
	if err := e.HandleSignal("peer-b", protocol.SignalData{SDP: &offer}); err != nil {
		t.Fatalf("HandleSignal failed: %v", err)
	}
	if e.Collisions("peer-b") != 1 {
		t.Errorf("Expected 1 collision, got %d", e.Collisions("peer-b"))
	}
	// No answer went out for the discarded offer.
	if len(*sent) != 1 {
		t.Errorf("Expected only the original offer outbound, got %d", len(*sent))
	}
	if len(port.remoteSet) != 0 {
		t.Error("Expected the colliding offer never applied")
	}
}

func TestEngine_SignalFromUnknownSenderCreatesLink(t *testing.T) {
	e, _, sent := newTestEngine("Bob2")

	offer := offerSDP("o")
	if err := e.HandleSignal("stranger", protocol.SignalData{SDP: &offer}); err != nil {
		t.Fatalf("HandleSignal failed: %v", err)
	}
	if _, ok := e.State("stranger"); !ok {
		t.Fatal("Expected a link created on demand")
	}
	if len(*sent) != 1 || (*sent)[0].data.SDP.Type != webrtc.SDPTypeAnswer {
		t.Errorf("Expected the on-demand link to answer, got %+v", *sent)
	}
}

func TestEngine_CandidateForwarding(t *testing.T) {
	e, port, sent := newTestEngine("Bob2")
	e.AddPeer("peer-a", "Alice1")

	offer := offerSDP("o")
	e.HandleSignal("peer-a", protocol.SignalData{SDP: &offer})

	c := candidate("c1")
	if err := e.HandleSignal("peer-a", protocol.SignalData{Candidate: &c}); err != nil {
		t.Fatalf("HandleSignal failed: %v", err)
	}
	if len(port.candidates) != 1 || port.candidates[0].Candidate != "c1" {
		t.Errorf("Expected candidate applied, got %v", port.candidates)
	}

	// Locally gathered candidates are couriered to the peer.
	port.onICE(candidate("local-c"))
	last := (*sent)[len(*sent)-1]
	if last.to != "peer-a" || last.data.Candidate == nil || last.data.Candidate.Candidate != "local-c" {
		t.Errorf("Expected local candidate sent to peer-a, got %+v", last)
	}
}

func TestEngine_RemovePeerClosesLink(t *testing.T) {
	e, port, _ := newTestEngine("Alice1")
	e.AddPeer("peer-b", "Bob2")

	e.RemovePeer("peer-b")
	if !port.closed {
		t.Error("Expected port closed")
	}
	if _, ok := e.State("peer-b"); ok {
		t.Error("Expected link removed")
	}
	// Removing again is a no-op.
	e.RemovePeer("peer-b")
}

func TestEngine_ResetClosesEverything(t *testing.T) {
	ports := map[string]*fakePort{}
	e := NewEngine("Alice1",
		func(peerID string) (SessionPort, error) {
			p := &fakePort{}
			ports[peerID] = p
			return p, nil
		},
		func(string, protocol.SignalData) {})

	e.AddPeer("peer-b", "Bob2")
	e.AddPeer("peer-c", "Carol3")

	e.Reset()
	for id, p := range ports {
		if !p.closed {
			t.Errorf("Expected port for %s closed", id)
		}
	}
	if _, ok := e.State("peer-b"); ok {
		t.Error("Expected all links removed")
	}
}
