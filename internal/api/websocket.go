package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/design-review/backend/internal/upload"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WebSocket message types for the progress protocol
const (
	// Client -> Server messages
	MsgTypeSubscribe = "subscribe"
	MsgTypePing      = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeProgress  = "progress"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

const wsWriteTimeout = 10 * time.Second

// WSMessage is the envelope for every WebSocket frame
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// SubscribePayload narrows a connection to the given file IDs. An empty list
// means every file.
type SubscribePayload struct {
	FileIDs []string `json:"fileIds"`
}

// WSErrorResponse is the payload of an error frame
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler broadcasts tracker events to connected clients
type WebSocketHandler struct {
	tracker  *upload.Tracker
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler creates a new progress WebSocket handler
func NewWebSocketHandler(tracker *upload.Tracker, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		tracker: tracker,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		logger: logger,
	}
}

// HandleProgressSocket upgrades the connection and forwards tracker events
// until the client disconnects
func (wsh *WebSocketHandler) HandleProgressSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	sub := wsh.tracker.Subscribe(256)
	defer sub.Close()

	wsh.logger.Debug("progress socket connected", zap.String("remote", c.RealIP()))

	// The reader goroutine owns reads; all writes happen on this goroutine.
	incoming := make(chan WSMessage)
	readDone := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(readDone)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsh.logger.Debug("progress socket read failed", zap.Error(err))
				}
				return
			}
			select {
			case incoming <- msg:
			case <-stop:
				return
			}
		}
	}()

	if err := wsh.send(ws, WSMessage{Type: MsgTypeConnected}); err != nil {
		return nil
	}

	var filter map[string]bool
	for {
		select {
		case <-readDone:
			wsh.logger.Debug("progress socket disconnected")
			return nil
		case <-sub.Done():
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return nil
		case msg := <-incoming:
			switch msg.Type {
			case MsgTypePing:
				err = wsh.send(ws, WSMessage{Type: MsgTypePong, ID: msg.ID})
			case MsgTypeSubscribe:
				var payload SubscribePayload
				if jerr := json.Unmarshal(msg.Payload, &payload); jerr != nil {
					err = wsh.sendError(ws, "Invalid subscribe payload: "+jerr.Error(), "INVALID_PAYLOAD")
					break
				}
				filter = nil
				if len(payload.FileIDs) > 0 {
					filter = make(map[string]bool, len(payload.FileIDs))
					for _, id := range payload.FileIDs {
						filter[id] = true
					}
				}
				err = wsh.send(ws, WSMessage{Type: MsgTypeSubscribe, ID: msg.ID})
			default:
				err = wsh.sendError(ws, "Unknown message type: "+msg.Type, "INVALID_TYPE")
			}
		case ev := <-sub.C:
			if filter != nil && !filter[ev.File.ID] {
				continue
			}
			err = wsh.send(ws, WSMessage{Type: MsgTypeProgress, ID: ev.File.ID, Payload: mustJSON(ev.File)})
		}
		if err != nil {
			wsh.logger.Debug("progress socket write failed", zap.Error(err))
			return nil
		}
	}
}

func (wsh *WebSocketHandler) send(ws *websocket.Conn, msg WSMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return ws.WriteJSON(msg)
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, message, code string) error {
	return wsh.send(ws, WSMessage{
		Type:    MsgTypeError,
		Payload: mustJSON(WSErrorResponse{Message: message, Code: code}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
