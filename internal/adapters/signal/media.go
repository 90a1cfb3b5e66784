package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/sastranest/nest/internal/app"
	"github.com/sastranest/nest/internal/protocol"
)

func (ctl *SignalWSController) handleSignal(sid app.SessionID, c *WsSignalConn, data []byte) {
	var p protocol.Signal
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(c, err, protocol.TypeSignal)
		return
	}
	if p.To == "" {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("signal without target")
		return
	}
	ctl.Orch.RelaySignal(sid, p.To, p.Data)
}

func (ctl *SignalWSController) handleUpdateMedia(sid app.SessionID, c *WsSignalConn, data []byte) {
	var p protocol.UpdateMediaStatus
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(c, err, protocol.TypeUpdateMediaStatus)
		return
	}
	ctl.Orch.UpdateMedia(context.Background(), sid, p.MicEnabled, p.VideoEnabled)
}

func (ctl *SignalWSController) handleScreenShare(sid app.SessionID, c *WsSignalConn, data []byte) {
	var p protocol.ScreenShare
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(c, err, protocol.TypeScreenShare)
		return
	}
	ctl.Orch.ScreenShare(sid, p.Enabled)
}

func (ctl *SignalWSController) handleReaction(sid app.SessionID, c *WsSignalConn, data []byte) {
	var p protocol.Reaction
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(c, err, protocol.TypeReaction)
		return
	}
	ctl.Orch.React(sid, p.Emoji)
}
