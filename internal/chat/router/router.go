package router

import (
	"context"

	_ "tab_chat_sync/docs"
	"tab_chat_sync/internal/chat/app"
	"tab_chat_sync/internal/chat/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes register the chat gateway routes
// @title Tab Chat Sync Gateway API
// @version 1.0
// @description Websocket chat gateway; every connection to /ws is one synchronized context
// @host localhost:8084
// @BasePath /
func RegisterRoutes(r *fiber.App, rooms []domain.Room, chatWebsocket *app.ChatWebsocketHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/healthz", Healthz)
	r.Get("/rooms", ListRooms(rooms))

	r.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))
}

// Healthz godoc
// @Summary Liveness check
// @Tags Gateway
// @Produce json
// @Success 200 {object} map[string]string "status ok"
// @Router /healthz [get]
func Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ListRooms godoc
// @Summary List chat rooms
// @Description Rooms a context can join with the join_room websocket action
// @Tags Gateway
// @Produce json
// @Success 200 {array} domain.Room "configured rooms"
// @Router /rooms [get]
func ListRooms(rooms []domain.Room) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(rooms)
	}
}
