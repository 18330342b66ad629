package api

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/skillsphere/videocall/pkg/internal/models"
	"github.com/skillsphere/videocall/pkg/internal/services"
)

func callGateway(c *websocket.Conn) {
	userID, _ := c.Locals("principal").(string)
	if len(userID) == 0 {
		_ = c.Close()
		return
	}
	name, _ := c.Locals("principal_name").(string)
	ip, _ := c.Locals("client_ip").(string)
	userAgent, _ := c.Locals("user_agent").(string)

	// Push connection
	client := services.ConnectClient(userID, name, c, ip, userAgent)
	defer services.DisconnectClient(client)

	if room := c.Query("room"); len(room) > 0 {
		if err := services.JoinCallRoom(context.Background(), client, room); err != nil {
			_ = client.Push(models.EventPacketFromError(err))
		}
	}

	// Event loop
	var packet models.EventPacket

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			break
		} else if err := jsoniter.Unmarshal(raw, &packet); err != nil {
			_ = client.Push(models.EventPacket{
				Action:  "error",
				Message: "unable to unmarshal your command, requires json request",
			})
			continue
		}

		if reply := services.DealCommand(packet, client); reply != nil {
			if err := client.Push(*reply); err != nil {
				break
			}
		}
	}
}
