package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/sastranest/nest/internal/app"
	"github.com/sastranest/nest/internal/protocol"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sid app.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		cancel()
		ctl.Orch.Disconnect(context.Background(), sid)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	pongWait := ctl.Cfg.PingPeriod + 10*time.Second
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	flood := rate.NewLimiter(rate.Limit(ctl.Cfg.MsgRate), ctl.Cfg.MsgBurst)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			if !flood.Allow() {
				log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("message rate exceeded, dropping")
				continue
			}
			ctl.dispatch(sid, c, data)
		}
	}
}

// dispatch decodes the envelope and routes to the matching handler. Malformed
// payloads are logged and dropped; they never terminate the connection.
func (ctl *SignalWSController) dispatch(sid app.SessionID, c *WsSignalConn, data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		return
	}

	switch env.Type {
	case protocol.TypeCreateRoom:
		ctl.handleCreateRoom(sid, c, data)
	case protocol.TypeJoinRoom:
		ctl.handleJoinRoom(sid, c, data)
	case protocol.TypeLeaveRoom:
		ctl.Orch.LeaveRoom(context.Background(), sid)
	case protocol.TypeDeleteRoom:
		ctl.handleDeleteRoom(sid, c, data)
	case protocol.TypeSignal:
		ctl.handleSignal(sid, c, data)
	case protocol.TypeUpdateMediaStatus:
		ctl.handleUpdateMedia(sid, c, data)
	case protocol.TypeScreenShare:
		ctl.handleScreenShare(sid, c, data)
	case protocol.TypeReaction:
		ctl.handleReaction(sid, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	b := protocol.Encode(protocol.Error(err.Error()))
	if sendErr := c.TrySend(b); sendErr != nil {
		log.Warn().Err(sendErr).Str("module", "signal").Msg("error reply dropped")
	}
}

func (ctl *SignalWSController) badPayload(c *WsSignalConn, err error, kind string) {
	log.Error().Err(err).Str("module", "signal").Str("kind", kind).Msg("bad payload")
	ctl.sendError(c, errInvalidPayload)
}
