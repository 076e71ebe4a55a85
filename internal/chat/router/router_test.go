package router

import (
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"tab_chat_sync/internal/chat/app"
	"tab_chat_sync/internal/chat/domain"
	"tab_chat_sync/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateway struct {
	app     *fiber.App
	handler *app.ChatWebsocketHandler
	addr    string
}

func startGateway(t *testing.T) *gateway {
	t.Helper()
	logger.SetNewNop()

	backend := app.NewMemoryBackend()
	rooms := domain.DefaultRooms()
	handler := app.NewChatWebsocketHandler(func(profile string, listener app.ChangeListener) *app.Session {
		return app.NewSession(app.SessionConfig{
			Store:        backend.Store("gw", profile),
			Feed:         backend.Feed,
			PollInterval: time.Hour,
			Options: []app.EngineOption{
				app.WithRooms(rooms),
				app.WithChangeListener(listener),
			},
		})
	})

	r := fiber.New(fiber.Config{DisableStartupMessage: true})
	RegisterRoutes(r, rooms, handler)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = r.Listener(ln)
	}()

	t.Cleanup(func() {
		_ = handler.CloseAll(context.Background())
		_ = r.Shutdown()
	})
	return &gateway{app: r, handler: handler, addr: ln.Addr().String()}
}

func (g *gateway) dial(t *testing.T, profile string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+g.addr+"/ws?profile="+profile, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil read responses until match accepts one
func readUntil(t *testing.T, conn *websocket.Conn, match func(domain.WSResponse) bool) domain.WSResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var resp domain.WSResponse
		require.NoError(t, json.Unmarshal(data, &resp))
		if match(resp) {
			return resp
		}
	}
}

func stateHasMessage(text string) func(domain.WSResponse) bool {
	return func(resp domain.WSResponse) bool {
		if resp.Action != string(domain.NotifyState) {
			return false
		}
		msgs, _ := resp.Payload["messages"].([]interface{})
		for _, raw := range msgs {
			m, _ := raw.(map[string]interface{})
			if m["text"] == text {
				return true
			}
		}
		return false
	}
}

func isError(resp domain.WSResponse) bool {
	return resp.Action == "error"
}

func TestRoutes_HTTP(t *testing.T) {
	g := startGateway(t)

	resp, err := g.app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = g.app.Test(httptest.NewRequest("GET", "/rooms", nil))
	require.NoError(t, err)
	var rooms []domain.Room
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rooms))
	assert.Len(t, rooms, 3)

	resp, err = g.app.Test(httptest.NewRequest("GET", "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func TestRoutes_SwaggerDoc(t *testing.T) {
	g := startGateway(t)

	resp, err := g.app.Test(httptest.NewRequest("GET", "/swagger/doc.json", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var doc struct {
		Paths map[string]interface{} `json:"paths"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Contains(t, doc.Paths, "/healthz")
	assert.Contains(t, doc.Paths, "/rooms")
}

func TestWebsocket_MessageReachesOtherConnection(t *testing.T) {
	g := startGateway(t)
	alice := g.dial(t, "alice")
	bob := g.dial(t, "bob")

	require.NoError(t, alice.WriteJSON(domain.WSRequest{Action: string(domain.SendMessage), Content: "hi bob"}))

	resp := readUntil(t, bob, stateHasMessage("hi bob"))
	assert.True(t, resp.Success)
	assert.Equal(t, "general", resp.Payload["currentRoomId"])
}

func TestWebsocket_InvalidRequests(t *testing.T) {
	g := startGateway(t)
	conn := g.dial(t, "carol")

	require.NoError(t, conn.WriteJSON(domain.WSRequest{Action: string(domain.SendMessage), Content: "   "}))
	resp := readUntil(t, conn, isError)
	assert.Equal(t, domain.ErrInvalidInput.Error(), resp.Error)

	require.NoError(t, conn.WriteJSON(domain.WSRequest{Action: "dance"}))
	resp = readUntil(t, conn, isError)
	assert.Equal(t, "unknown action", resp.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	resp = readUntil(t, conn, isError)
	assert.Equal(t, "invalid json", resp.Error)
}

func TestWebsocket_SnapshotAndRoomSwitch(t *testing.T) {
	g := startGateway(t)
	conn := g.dial(t, "dave")

	require.NoError(t, conn.WriteJSON(domain.WSRequest{Action: string(domain.JoinRoom), RoomID: "random"}))
	require.NoError(t, conn.WriteJSON(domain.WSRequest{Action: string(domain.SetUsername), Username: "Dave"}))
	require.NoError(t, conn.WriteJSON(domain.WSRequest{Action: string(domain.GetSnapshot)}))

	resp := readUntil(t, conn, func(resp domain.WSResponse) bool {
		cu, _ := resp.Payload["currentUser"].(map[string]interface{})
		return resp.Payload["currentRoomId"] == "random" && cu["username"] == "Dave"
	})
	assert.Equal(t, string(domain.NotifyState), resp.Action)
}

func TestWebsocket_DisconnectReleasesContext(t *testing.T) {
	g := startGateway(t)
	conn := g.dial(t, "erin")
	readUntil(t, conn, func(resp domain.WSResponse) bool { return resp.Action == string(domain.NotifyState) })
	assert.Equal(t, 1, g.handler.Live())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	conn.Close()

	assert.Eventually(t, func() bool { return g.handler.Live() == 0 }, 3*time.Second, 20*time.Millisecond)
}

func TestWebsocket_CloseAllEndsConnections(t *testing.T) {
	g := startGateway(t)
	conn := g.dial(t, "frank")
	readUntil(t, conn, func(resp domain.WSResponse) bool { return resp.Action == string(domain.NotifyState) })

	require.NoError(t, g.handler.CloseAll(context.Background()))
	assert.Eventually(t, func() bool { return g.handler.Live() == 0 }, 3*time.Second, 20*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
			break
		}
	}
}
