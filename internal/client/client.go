// Package client is the Go signaling client: it speaks the wire vocabulary,
// tracks the joined room roster and drives a negotiation engine against every
// other participant, using the server purely as a courier for directed
// signals.
package client

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/domain"
	"github.com/sastranest/nest/internal/peer"
	"github.com/sastranest/nest/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Event is a decoded server message surfaced to the application.
type Event struct {
	Type    string
	Payload any
}

// Client manages the WebSocket connection to the coordination server.
type Client struct {
	serverURL string
	newPort   peer.PortFactory
	conn      *websocket.Conn
	outgoing  chan []byte
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	clientID string
	handle   string
	room     *protocol.RoomDetail
	engine   *peer.Engine
}

func New(serverURL string, newPort peer.PortFactory) *Client {
	return &Client{
		serverURL: serverURL,
		newPort:   newPort,
		outgoing:  make(chan []byte, 16),
		events:    make(chan Event, 16),
		done:      make(chan struct{}),
	}
}

// Connect dials the server and starts the read and write pumps. The hello
// greeting arrives asynchronously on Events.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.serverURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", c.serverURL, err)
	}
	c.conn = conn
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.readPump()
	go c.writePump()
	return nil
}

// Events is the stream of decoded server messages.
func (c *Client) Events() <-chan Event {
	return c.events
}

// ID returns the server-assigned session identifier, empty before hello.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Handle returns the server-assigned display handle, empty before hello.
func (c *Client) Handle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Room returns the currently joined room, nil when in the lobby.
func (c *Client) Room() *protocol.RoomDetail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.events)
	}()
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if err := c.handleMessage(data); err != nil {
			log.Warn().Err(err).Str("module", "client").Msg("message handling failed")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case frame := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Close shuts the connection down and tears the negotiation links down.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.engine != nil {
			c.engine.Reset()
		}
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) enqueue(v any) {
	frame := protocol.Encode(v)
	select {
	case c.outgoing <- frame:
	case <-c.done:
	}
}

// --- outbound operations ---

func (c *Client) CreateRoom(name, password string, kind domain.RoomKind) {
	c.enqueue(protocol.CreateRoom{Type: protocol.TypeCreateRoom, Name: name, Password: password, RoomType: kind})
}

func (c *Client) JoinRoom(name, password string) {
	c.enqueue(protocol.JoinRoom{Type: protocol.TypeJoinRoom, Name: name, Password: password})
}

func (c *Client) LeaveRoom() {
	c.enqueue(protocol.LeaveRoom{Type: protocol.TypeLeaveRoom})
}

func (c *Client) DeleteRoom(name string) {
	c.enqueue(protocol.DeleteRoom{Type: protocol.TypeDeleteRoom, RoomName: name})
}

func (c *Client) UpdateMedia(mic, video *bool) {
	c.enqueue(protocol.UpdateMediaStatus{Type: protocol.TypeUpdateMediaStatus, MicEnabled: mic, VideoEnabled: video})
}

func (c *Client) ScreenShare(enabled bool) {
	c.enqueue(protocol.ScreenShare{Type: protocol.TypeScreenShare, Enabled: enabled})
}

func (c *Client) React(emoji string) {
	c.enqueue(protocol.Reaction{Type: protocol.TypeReaction, Emoji: emoji})
}

// sendSignal couriers a negotiation payload to one remote participant.
func (c *Client) sendSignal(to string, data protocol.SignalData) {
	c.enqueue(protocol.Signal{Type: protocol.TypeSignal, To: to, Data: protocol.EncodeSignalData(data)})
}

// --- inbound dispatch ---

func (c *Client) handleMessage(data []byte) error {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("envelope: %w", err)
	}

	switch env.Type {
	case protocol.TypeHello:
		var m protocol.Hello
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.onHello(m)
		c.emit(env.Type, m)
	case protocol.TypeRoomCreated:
		var m protocol.RoomCreated
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.onRoomEntered(m.Room)
		c.emit(env.Type, m)
	case protocol.TypeRoomJoined:
		var m protocol.RoomJoined
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.onRoomEntered(m.Room)
		c.emit(env.Type, m)
	case protocol.TypeParticipantJoined:
		var m protocol.ParticipantJoined
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.onParticipantJoined(m.Participant)
		c.emit(env.Type, m)
	case protocol.TypeParticipantLeft:
		var m protocol.ParticipantLeft
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.onParticipantLeft(m.ClientID)
		c.emit(env.Type, m)
	case protocol.TypeSignal:
		var m protocol.Signal
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		return c.onSignal(m)
	case protocol.TypeRoomDeleted:
		var m protocol.RoomDeleted
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.onRoomExited()
		c.emit(env.Type, m)
	case protocol.TypeLeftRoom:
		var m protocol.LeftRoom
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.onRoomExited()
		c.emit(env.Type, m)
	case protocol.TypeRoomListUpdated:
		var m protocol.RoomListUpdated
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.emit(env.Type, m)
	case protocol.TypeParticipantMediaUpdated:
		var m protocol.ParticipantMediaUpdated
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.applyMediaUpdate(m)
		c.emit(env.Type, m)
	case protocol.TypeScreenShareUpdate:
		var m protocol.ScreenShareUpdate
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.emit(env.Type, m)
	case protocol.TypeReaction:
		var m protocol.ReactionEvent
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		c.emit(env.Type, m)
	case protocol.TypeError:
		var m protocol.ErrorMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		log.Warn().Str("module", "client").Str("message", m.Message).Msg("server error")
		c.emit(env.Type, m)
	default:
		log.Warn().Str("module", "client").Str("type", env.Type).Msg("unknown message type")
	}
	return nil
}

func (c *Client) emit(typ string, payload any) {
	select {
	case c.events <- Event{Type: typ, Payload: payload}:
	default:
		log.Warn().Str("module", "client").Str("type", typ).Msg("event dropped, consumer slow")
	}
}

func (c *Client) onHello(m protocol.Hello) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientID = m.ClientID
	c.handle = m.Handle
	c.engine = peer.NewEngine(m.Handle, c.newPort, c.sendSignal)
}

// onRoomEntered stores the roster and registers every existing participant
// with the engine; the tie-break decides which side of each pair offers.
func (c *Client) onRoomEntered(room protocol.RoomDetail) {
	c.mu.Lock()
	c.room = &room
	engine, self := c.engine, c.clientID
	c.mu.Unlock()
	if engine == nil {
		return
	}
	for _, p := range room.ActiveParticipants {
		if p.ID == self {
			continue
		}
		if err := engine.AddPeer(p.ID, p.Handle); err != nil {
			log.Error().Err(err).Str("module", "client").Str("peer", p.ID).Msg("add peer failed")
		}
	}
}

func (c *Client) onParticipantJoined(p protocol.ParticipantView) {
	c.mu.Lock()
	if c.room != nil {
		c.room.ActiveParticipants = append(c.room.ActiveParticipants, p)
		c.room.ParticipantCount = len(c.room.ActiveParticipants)
	}
	engine := c.engine
	c.mu.Unlock()
	if engine == nil {
		return
	}
	if err := engine.AddPeer(p.ID, p.Handle); err != nil {
		log.Error().Err(err).Str("module", "client").Str("peer", p.ID).Msg("add peer failed")
	}
}

func (c *Client) onParticipantLeft(id string) {
	c.mu.Lock()
	if c.room != nil {
		kept := c.room.ActiveParticipants[:0]
		for _, p := range c.room.ActiveParticipants {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		c.room.ActiveParticipants = kept
		c.room.ParticipantCount = len(kept)
	}
	engine := c.engine
	c.mu.Unlock()
	if engine != nil {
		engine.RemovePeer(id)
	}
}

func (c *Client) onSignal(m protocol.Signal) error {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()
	if engine == nil {
		return fmt.Errorf("signal before hello")
	}
	var data protocol.SignalData
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return fmt.Errorf("signal payload from %s: %w", m.From, err)
	}
	return engine.HandleSignal(m.From, data)
}

func (c *Client) onRoomExited() {
	c.mu.Lock()
	c.room = nil
	engine := c.engine
	c.mu.Unlock()
	if engine != nil {
		engine.Reset()
	}
}

func (c *Client) applyMediaUpdate(m protocol.ParticipantMediaUpdated) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room == nil {
		return
	}
	for i := range c.room.ActiveParticipants {
		if c.room.ActiveParticipants[i].ID == m.ClientID {
			c.room.ActiveParticipants[i].MicEnabled = m.MicEnabled
			c.room.ActiveParticipants[i].VideoEnabled = m.VideoEnabled
			return
		}
	}
}
