package app

import (
	"testing"

	"github.com/sastranest/nest/internal/domain"
)

func TestRelay_To(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg, NewMembership())
	sender := &fakeSender{}
	s := reg.Open(sender)

	if !relay.To(s.ID, Frame("hi")) {
		t.Fatal("Expected delivery to succeed")
	}
	if len(sender.frames) != 1 || string(sender.frames[0]) != "hi" {
		t.Errorf("Expected one frame 'hi', got %v", sender.frames)
	}

	if relay.To("missing", Frame("hi")) {
		t.Error("Expected delivery to an unknown session to fail silently")
	}
}

func TestRelay_ToDroppedOnBackpressure(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg, NewMembership())
	sender := &fakeSender{fail: true}
	s := reg.Open(sender)

	if relay.To(s.ID, Frame("hi")) {
		t.Error("Expected failed send to report false")
	}
}

func TestRelay_ToRoomExcludes(t *testing.T) {
	reg := NewRegistry()
	members := NewMembership()
	relay := NewRelay(reg, members)
	room := domain.RoomName("Standup")

	a, b, c := &fakeSender{}, &fakeSender{}, &fakeSender{}
	sa, sb := reg.Open(a), reg.Open(b)
	reg.Open(c)
	members.Add(room, sa.ID)
	members.Add(room, sb.ID)

	relay.ToRoom(room, Frame("hi"), sa.ID)

	if len(a.frames) != 0 {
		t.Error("Expected excluded member to receive nothing")
	}
	if len(b.frames) != 1 {
		t.Errorf("Expected room member to receive the frame, got %d", len(b.frames))
	}
	if len(c.frames) != 0 {
		t.Error("Expected non-member to receive nothing")
	}
}

func TestRelay_ToAllExcludes(t *testing.T) {
	reg := NewRegistry()
	relay := NewRelay(reg, NewMembership())

	a, b := &fakeSender{}, &fakeSender{}
	sa := reg.Open(a)
	reg.Open(b)

	relay.ToAll(Frame("hi"), sa.ID)

	if len(a.frames) != 0 {
		t.Error("Expected excluded session to receive nothing")
	}
	if len(b.frames) != 1 {
		t.Errorf("Expected other session to receive the frame, got %d", len(b.frames))
	}
}

func TestRelay_SlowReceiverDoesNotBlockOthers(t *testing.T) {
	reg := NewRegistry()
	members := NewMembership()
	relay := NewRelay(reg, members)
	room := domain.RoomName("Standup")

	stuck, healthy := &fakeSender{fail: true}, &fakeSender{}
	s1, s2 := reg.Open(stuck), reg.Open(healthy)
	members.Add(room, s1.ID)
	members.Add(room, s2.ID)

	relay.ToRoom(room, Frame("hi"), "")

	if len(healthy.frames) != 1 {
		t.Errorf("Expected healthy member to receive the frame, got %d", len(healthy.frames))
	}
}
