// Package signal is the WebSocket transport adapter: it upgrades connections,
// consults the admission rate limiter, pumps frames and decodes the wire
// vocabulary into orchestrator calls.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/app"
	"github.com/sastranest/nest/internal/app/orch"
	"github.com/sastranest/nest/internal/config"
	"github.com/sastranest/nest/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *app.RateLimiter
	Cfg     *config.Config
}

func NewSignalWSController(o *orch.Orchestrator, limiter *app.RateLimiter, cfg *config.Config) *SignalWSController {
	return &SignalWSController{Orch: o, Limiter: limiter, Cfg: cfg}
}

// WsSignalConn owns the socket and a buffered outbound channel. Sends are
// non-blocking so one slow participant never delays delivery to others.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan app.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f app.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleSignal accepts the socket, runs the admission gate, registers the
// session and starts the pumps.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	addr := c.ClientIP()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	if !ctl.Limiter.Allow(addr) {
		log.Warn().Str("module", "signal").Str("addr", addr).Msg("rate limited connection")
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, domain.ErrRateLimited.Error())
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = ws.Close()
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan app.Frame, 32),
	}

	sess := ctl.Orch.Connect(conn)
	log.Info().Str("module", "signal").Str("sid", string(sess.ID)).Str("addr", addr).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess.ID, conn)
}
