package handler

import (
	"errors"
	"log"

	"github.com/vaibhavisno-one/Chat-App/internal/model"
	"github.com/vaibhavisno-one/Chat-App/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messageSvc *service.MessageService
}

func NewMessageHandler(messageSvc *service.MessageService) *MessageHandler {
	return &MessageHandler{messageSvc: messageSvc}
}

// SidebarUsers handles GET /messages/users — the teammates the caller may
// open a direct chat with.
func (h *MessageHandler) SidebarUsers(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	users, err := h.messageSvc.SidebarCandidates(c.Context(), userID)
	if err != nil {
		return messageError(c, err)
	}
	if users == nil {
		users = []*model.MemberProfile{}
	}
	return c.JSON(users)
}

// Send handles POST /messages/send/:chatId. chatId is a user id for direct
// messages and a team id for team messages.
func (h *MessageHandler) Send(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	chatID := c.Params("chatId")

	if _, err := uuid.Parse(chatID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid chat id"})
	}

	var req model.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "message_type must be direct or team"})
	}

	msg, err := h.messageSvc.Send(c.Context(), userID, chatID, &req)
	if err != nil {
		return messageError(c, err)
	}

	return c.Status(201).JSON(msg)
}

// DirectHistory handles GET /messages/direct/:userId.
func (h *MessageHandler) DirectHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	otherID := c.Params("userId")

	if _, err := uuid.Parse(otherID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid user id"})
	}

	msgs, err := h.messageSvc.DirectHistory(c.Context(), userID, otherID)
	if err != nil {
		return messageError(c, err)
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return c.JSON(msgs)
}

// TeamHistory handles GET /messages/team/:teamId.
func (h *MessageHandler) TeamHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	teamID := c.Params("teamId")

	if _, err := uuid.Parse(teamID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid team id"})
	}

	msgs, err := h.messageSvc.TeamHistory(c.Context(), userID, teamID)
	if err != nil {
		return messageError(c, err)
	}
	if msgs == nil {
		msgs = []*model.Message{}
	}
	return c.JSON(msgs)
}

func messageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidMessageType):
		return c.Status(400).JSON(fiber.Map{"error": "invalid message type"})
	case errors.Is(err, service.ErrSelfChat):
		return c.Status(400).JSON(fiber.Map{"error": "you cannot send messages to yourself"})
	case errors.Is(err, service.ErrNotInTeam):
		return c.Status(403).JSON(fiber.Map{"error": "you must be in a team to send messages"})
	case errors.Is(err, service.ErrNotTeammates):
		return c.Status(403).JSON(fiber.Map{"error": "user is not in your current team"})
	case errors.Is(err, service.ErrWrongTeam):
		return c.Status(403).JSON(fiber.Map{"error": "you can only use your own team's channel"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	case errors.Is(err, service.ErrTeamNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "team not found"})
	default:
		log.Printf("[Message] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal server error"})
	}
}
