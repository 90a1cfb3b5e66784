package app

import (
	"errors"
	"regexp"
	"testing"

	"github.com/sastranest/nest/internal/domain"
)

// fakeSender records delivered frames; shared by the registry and relay tests.
type fakeSender struct {
	frames []Frame
	fail   bool
	closed bool
}

func (f *fakeSender) TrySend(frame Frame) error {
	if f.fail {
		return errors.New("send failed")
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSender) Close() { f.closed = true }

func TestRegistry_Open(t *testing.T) {
	r := NewRegistry()
	s := r.Open(&fakeSender{})

	if s.ID == "" {
		t.Fatal("Expected a session id")
	}
	if s.Handle == "" {
		t.Error("Expected a handle")
	}
	if !s.MicEnabled {
		t.Error("Expected mic to default on")
	}
	if s.VideoEnabled {
		t.Error("Expected camera to default off")
	}
	if s.Room != "" {
		t.Errorf("Expected no room, got %q", s.Room)
	}

	got, ok := r.Get(s.ID)
	if !ok {
		t.Fatal("Expected session to be retrievable")
	}
	if got.Handle != s.Handle {
		t.Errorf("Expected handle %q, got %q", s.Handle, got.Handle)
	}
}

func TestRegistry_RoomLifecycle(t *testing.T) {
	r := NewRegistry()
	s := r.Open(&fakeSender{})

	if _, ok := r.RoomOf(s.ID); ok {
		t.Error("Expected no room before SetRoom")
	}
	if !r.SetRoom(s.ID, domain.RoomName("Standup")) {
		t.Fatal("Expected SetRoom to succeed")
	}
	room, ok := r.RoomOf(s.ID)
	if !ok || room != "Standup" {
		t.Errorf("Expected room Standup, got %q ok=%v", room, ok)
	}

	r.ClearRoom(s.ID)
	if _, ok := r.RoomOf(s.ID); ok {
		t.Error("Expected no room after ClearRoom")
	}

	if r.SetRoom("missing", "Standup") {
		t.Error("Expected SetRoom on unknown session to fail")
	}
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	sender := &fakeSender{}
	s := r.Open(sender)

	conn, ok := r.Remove(s.ID)
	if !ok {
		t.Fatal("Expected removal to succeed")
	}
	if conn != sender {
		t.Error("Expected the original transport back")
	}
	if _, ok := r.Get(s.ID); ok {
		t.Error("Expected session to be gone")
	}
	if _, ok := r.Remove(s.ID); ok {
		t.Error("Expected second removal to fail")
	}
}

func TestRegistry_UpdateMedia(t *testing.T) {
	r := NewRegistry()
	s := r.Open(&fakeSender{})

	off, on := false, true
	got, ok := r.UpdateMedia(s.ID, &off, &on)
	if !ok {
		t.Fatal("Expected update to succeed")
	}
	if got.MicEnabled || !got.VideoEnabled {
		t.Errorf("Expected mic off video on, got mic=%v video=%v", got.MicEnabled, got.VideoEnabled)
	}

	// nil leaves a flag unchanged
	got, _ = r.UpdateMedia(s.ID, nil, &off)
	if got.MicEnabled {
		t.Error("Expected mic to stay off")
	}
	if got.VideoEnabled {
		t.Error("Expected video to turn off")
	}

	if _, ok := r.UpdateMedia("missing", &on, nil); ok {
		t.Error("Expected update on unknown session to fail")
	}
}

func TestNewHandle_Shape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+[1-9][0-9]{0,2}$`)
	for i := 0; i < 200; i++ {
		h := NewHandle()
		if !pattern.MatchString(h) {
			t.Fatalf("Handle %q does not match AdjectiveNounNumber", h)
		}
	}
}
