package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/skillsphere/videocall/pkg/internal/services"
	"github.com/skillsphere/videocall/pkg/internal/web/exts"
)

func getCallSession(c *fiber.Ctx) error {
	room := c.Params("room")
	if !services.ValidateRoomID(room) {
		return fiber.NewError(fiber.StatusBadRequest, services.ErrInvalidRoom.Error())
	}

	session, err := services.Sessions.GetByRoomIDWithParticipants(c.UserContext(), room)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(session)
}

func listChatHistory(c *fiber.Ctx) error {
	take := c.QueryInt("take", 100)
	offset := c.QueryInt("offset", 0)
	room := c.Params("room")

	if !services.ValidateRoomID(room) {
		return fiber.NewError(fiber.StatusBadRequest, services.ErrInvalidRoom.Error())
	}

	session, err := services.Sessions.GetByRoomID(c.UserContext(), room)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	messages, err := services.Chats.History(c.UserContext(), session.ID, take, offset)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(messages)
}

func newChatMessage(c *fiber.Ctx) error {
	user, _ := c.Locals("principal").(string)
	name, _ := c.Locals("principal_name").(string)
	room := c.Params("room")

	var data struct {
		Message string `json:"message" validate:"required,max=4096"`
	}

	if err := exts.BindAndValidate(c, &data); err != nil {
		return err
	}

	sender := &services.CallClient{UserID: user, Name: name}
	if err := services.NewChatMessage(c.UserContext(), sender, room, data.Message); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}
