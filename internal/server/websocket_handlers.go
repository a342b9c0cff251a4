package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second

	wsResponseType = "stopwatch_response"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketRequest is a stopwatch command sent by a client.
type WebSocketRequest struct {
	Type      string `json:"type"` // create, start, stop, lap, reset, get, list
	ID        string `json:"id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WebSocketResponse answers exactly one WebSocketRequest.
type WebSocketResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "completed", "error"
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// webSocketHandler upgrades the connection and serves stopwatch commands on it.
func (s *Server) webSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn)
	slog.Info("WebSocket connection closed", "remote_addr", r.RemoteAddr)
}

// handleWebSocketConnection reads commands until the client goes away.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage runs one command and writes its response.
func (s *Server) handleWebSocketMessage(conn WebSocketConnWriter, data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketResponse(conn, WebSocketResponse{
			Type:      wsResponseType,
			Status:    "error",
			Error:     fmt.Sprintf("Failed to parse request: %v", err),
			ErrorType: errTypeInvalidRequest,
		})
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = strconv.FormatInt(s.clock.Now().UnixNano(), 10)
	}

	result, err := s.dispatch(operation(req.Type), req.ID)
	if err != nil {
		_, errType := classifyError(err)
		if errType == errTypeInternal {
			errType = errTypeInvalidRequest
		}
		s.sendWebSocketResponse(conn, WebSocketResponse{
			Type:      wsResponseType,
			Status:    "error",
			Error:     err.Error(),
			ErrorType: errType,
			RequestID: requestID,
		})
		return
	}

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      wsResponseType,
		Status:    "completed",
		Result:    result,
		RequestID: requestID,
	})
}

func (s *Server) dispatch(op operation, id string) (interface{}, error) {
	switch op {
	case opCreate:
		return s.create(id)
	case opGet:
		return s.get(id)
	case opList:
		return s.list(), nil
	case opStart, opStop, opLap, opReset:
		return s.perform(op, id)
	default:
		return nil, fmt.Errorf("unsupported request type: %q", op)
	}
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
