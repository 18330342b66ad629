package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func MapAPIs(app *fiber.App, baseURL string) {
	api := app.Group(baseURL).Name("API")
	{
		calls := api.Group("/calls").Name("Calls API")
		{
			calls.Get("/ws", authMiddleware, websocket.New(callGateway))

			calls.Get("/:room", authMiddleware, getCallSession)
			calls.Get("/:room/chat", authMiddleware, listChatHistory)
			calls.Post("/:room/chat", authMiddleware, newChatMessage)
		}
	}
}
