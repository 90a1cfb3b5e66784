package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sastranest/nest/internal/app"
	"github.com/sastranest/nest/internal/protocol"
)

var errInvalidPayload = errors.New("bad_payload")

func (ctl *SignalWSController) handleCreateRoom(sid app.SessionID, c *WsSignalConn, data []byte) {
	var p protocol.CreateRoom
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(c, err, protocol.TypeCreateRoom)
		return
	}
	if err := ctl.Orch.CreateRoom(context.Background(), sid, p.Name, p.Password, p.RoomType); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *SignalWSController) handleJoinRoom(sid app.SessionID, c *WsSignalConn, data []byte) {
	var p protocol.JoinRoom
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(c, err, protocol.TypeJoinRoom)
		return
	}
	if err := ctl.Orch.JoinRoom(context.Background(), sid, p.Name, p.Password); err != nil {
		ctl.sendError(c, err)
	}
}

func (ctl *SignalWSController) handleDeleteRoom(sid app.SessionID, c *WsSignalConn, data []byte) {
	var p protocol.DeleteRoom
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.badPayload(c, err, protocol.TypeDeleteRoom)
		return
	}
	if err := ctl.Orch.DeleteRoom(context.Background(), sid, p.RoomName); err != nil {
		ctl.sendError(c, err)
	}
}
