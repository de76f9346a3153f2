package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/layoutgen/pkg/design"
	"github.com/matzehuels/layoutgen/pkg/errors"
	"github.com/matzehuels/layoutgen/pkg/httputil"
	"github.com/matzehuels/layoutgen/pkg/status"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Message types on the WebSocket.
const (
	MsgGenerate = "generate-layout"
	MsgStatus   = "status"
	MsgResult   = "layout-result"
	MsgError    = "error"
)

// InitMessage is sent to every client right after the upgrade.
const InitMessage = "Connected to layout designer"

type inbound struct {
	Type    string             `json:"type"`
	Content design.PageContent `json:"content"`
}

type statusMessage struct {
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

type resultMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type errorMessage struct {
	Type            string          `json:"type"`
	Message         string          `json:"message"`
	OriginalMessage json.RawMessage `json:"originalMessage,omitempty"`
}

// wsConn is one WebSocket client. Writes are serialized; generations started
// from it run under ctx, which is cancelled when the connection closes.
type wsConn struct {
	conn   *websocket.Conn
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	once sync.Once
	wg   sync.WaitGroup
}

func (c *wsConn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Emit implements status.Sink.
func (c *wsConn) Emit(e status.Event) {
	if err := c.send(statusMessage{Type: MsgStatus, Status: e.Prefix, Message: e.Message, Timestamp: e.Time}); err != nil {
		c.logger.Debug("drop status event", "error", err)
	}
}

// Close cancels in-flight generations and closes the socket.
func (c *wsConn) Close() error {
	var err error
	c.once.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an error response.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(httputil.MaxBodyBytes)

	ctx, cancel := context.WithCancel(context.Background())
	c := &wsConn{conn: conn, ctx: ctx, cancel: cancel}
	id, err := s.conns.Add(c)
	if err != nil {
		cancel()
		conn.Close()
		s.logger.Error("register websocket connection", "error", err)
		return
	}
	c.logger = s.logger.With("conn", id)
	c.logger.Debug("websocket connected", "remote", r.RemoteAddr)

	defer func() {
		s.conns.Remove(id)
		c.Close()
		c.wg.Wait()
		c.logger.Debug("websocket closed")
	}()

	if err := c.send(statusMessage{Type: MsgStatus, Status: status.Init, Message: InitMessage}); err != nil {
		return
	}

	go c.keepAlive()
	s.readLoop(c)
}

func (c *wsConn) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (s *Server) readLoop(c *wsConn) {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read", "error", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.dispatch(c, data)
	}
}

// dispatch handles one client message. Generations run in their own
// goroutine so the read loop keeps noticing disconnects.
func (s *Server) dispatch(c *wsConn, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.send(errorMessage{Type: MsgError, Message: errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid message").Error()})
		return
	}

	switch msg.Type {
	case MsgGenerate:
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			s.generate(c, msg.Content)
		}()
	default:
		c.send(errorMessage{Type: MsgError, Message: "Unknown message type", OriginalMessage: json.RawMessage(data)})
	}
}

func (s *Server) generate(c *wsConn, content design.PageContent) {
	sc := s.newScope(c)
	logger := c.logger.With("request", sc.RequestID)
	logger.Info("generation started", "images", len(content.Images))

	sc.Emit(status.LayoutDesign, "Starting layout design generation")
	def, err := s.session.Run(c.ctx, sc, content)
	if err != nil {
		logger.Warn("generation failed", "error", err)
		c.send(errorMessage{Type: MsgError, Message: errors.UserMessage(err)})
		return
	}
	logger.Info("generation finished", "nodes", len(def))
	if err := c.send(resultMessage{Type: MsgResult, Data: def}); err != nil {
		logger.Warn("send result", "error", err)
	}
}
