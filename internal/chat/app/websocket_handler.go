package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// SessionFactory build an unstarted Session for one connection
type SessionFactory func(profile string, listener ChangeListener) *Session

// ChatWebsocketHandler each websocket connection is one context
type ChatWebsocketHandler struct {
	newSession   SessionFactory
	pingInterval time.Duration

	mu   sync.Mutex
	live map[*Session]*wsConn
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(newSession SessionFactory) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		newSession:   newSession,
		pingInterval: time.Minute,
		live:         make(map[*Session]*wsConn),
	}
}

// wsConn serialize writes, the underlying conn allows one writer at a time
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) writeControl(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(messageType, data, time.Now().Add(time.Second))
}

// HandleConnection run one context for the lifetime of conn
// ?profile= picks the identity scope; connections sharing a profile share a user.
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	out := &wsConn{conn: conn}
	profile := conn.Query("profile")

	session := h.newSession(profile, func(v domain.View) {
		if err := out.writeJSON(stateResponse(v)); err != nil {
			logger.Log.Debug("push state failed", zap.Error(err))
		}
	})

	h.track(session, out)
	closeCtx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.untrack(session)
		// the offline write must not depend on the request context
		if err := session.Close(context.Background()); err != nil {
			logger.Log.Error("close session", zap.Error(err))
		}
		conn.Close()
		logger.Log.Info("websocket close", zap.String("context", session.ID()))
	}()

	if err := session.Start(ctx); err != nil {
		logger.Log.Error("start session", zap.Error(err))
		return
	}
	logger.Log.Info("websocket open", zap.String("context", session.ID()), zap.String("profile", profile))

	conn.SetPingHandler(func(appData string) error {
		return out.writeControl(websocket.PongMessage, []byte(appData))
	})

	go func() {
		ticker := time.NewTicker(h.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := out.writeControl(websocket.PingMessage, []byte("ping")); err != nil {
					logger.Log.Debug("ping failed", zap.Error(err))
					return
				}
			case <-closeCtx.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("connection closed", zap.Error(err))
			} else {
				logger.Log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			h.sendError(out, "unsupported message type")
			continue
		}
		h.textMessageAction(ctx, out, session, message)
	}
}

func (h *ChatWebsocketHandler) track(s *Session, c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live[s] = c
}

func (h *ChatWebsocketHandler) untrack(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.live, s)
}

// Live number of open connections
func (h *ChatWebsocketHandler) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// CloseAll tear down every open context (offline write first) and close its connection
func (h *ChatWebsocketHandler) CloseAll(ctx context.Context) error {
	h.mu.Lock()
	live := make(map[*Session]*wsConn, len(h.live))
	for s, c := range h.live {
		live[s] = c
	}
	h.mu.Unlock()

	for s, c := range live {
		if err := s.Close(ctx); err != nil {
			logger.Log.Error("close session", zap.String("context", s.ID()), zap.Error(err))
		}
		_ = c.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
		// unblock the read loop so the connection goroutine exits
		_ = c.conn.SetReadDeadline(time.Now())
	}
	return nil
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, out *wsConn, session *Session, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		h.sendError(out, "invalid json")
		return
	}

	if session.Closed() {
		h.sendError(out, domain.ErrContextClosed.Error())
		return
	}

	facade := session.Facade()
	switch domain.Action(req.Action) {
	case domain.SendMessage:
		if strings.TrimSpace(req.Content) == "" {
			h.sendError(out, domain.ErrInvalidInput.Error())
			return
		}
		facade.SendMessage(ctx, req.Content)
	case domain.SetUsername:
		if strings.TrimSpace(req.Username) == "" {
			h.sendError(out, domain.ErrInvalidInput.Error())
			return
		}
		facade.SetUsername(ctx, req.Username)
	case domain.JoinRoom:
		facade.JoinRoom(req.RoomID)
	case domain.Focus:
		session.Presence().Focus(ctx)
	case domain.Blur:
		session.Presence().Blur(ctx)
	case domain.GetSnapshot:
		if err := out.writeJSON(stateResponse(facade.View())); err != nil {
			logger.Log.Debug("write snapshot failed", zap.Error(err))
		}
	default:
		h.sendError(out, "unknown action")
	}
}

func (h *ChatWebsocketHandler) sendError(out *wsConn, errMsg string) {
	if err := out.writeJSON(domain.WSResponse{Action: "error", Success: false, Error: errMsg}); err != nil {
		logger.Log.Debug("write error response failed", zap.Error(err))
	}
}

func stateResponse(v domain.View) domain.WSResponse {
	return domain.WSResponse{
		Action:  string(domain.NotifyState),
		Success: true,
		Payload: map[string]interface{}{
			"messages":      v.Messages,
			"users":         v.Users,
			"rooms":         v.Rooms,
			"currentUser":   v.CurrentUser,
			"currentRoomId": v.CurrentRoomID,
			"clock":         v.Clock,
			"degraded":      v.Degraded,
		},
	}
}
