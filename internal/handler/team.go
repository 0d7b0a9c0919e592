package handler

import (
	"errors"
	"log"

	"github.com/vaibhavisno-one/Chat-App/internal/model"
	"github.com/vaibhavisno-one/Chat-App/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TeamHandler struct {
	teamSvc *service.TeamService
}

func NewTeamHandler(teamSvc *service.TeamService) *TeamHandler {
	return &TeamHandler{teamSvc: teamSvc}
}

// Create handles POST /teams.
func (h *TeamHandler) Create(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req model.CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	team, err := h.teamSvc.Create(c.Context(), userID, req.Name)
	if err != nil {
		return teamError(c, err)
	}

	return c.Status(201).JSON(team)
}

// Join handles POST /teams/join.
func (h *TeamHandler) Join(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req model.JoinTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "code is required"})
	}

	team, err := h.teamSvc.Join(c.Context(), userID, req.Code)
	if err != nil {
		return teamError(c, err)
	}

	return c.JSON(team)
}

// Members handles GET /teams/:teamId/members.
func (h *TeamHandler) Members(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	teamID := c.Params("teamId")

	if _, err := uuid.Parse(teamID); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid team id"})
	}

	members, err := h.teamSvc.Members(c.Context(), teamID, userID)
	if err != nil {
		return teamError(c, err)
	}
	if members == nil {
		members = []*model.MemberProfile{}
	}
	return c.JSON(members)
}

func teamError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNameRequired):
		return c.Status(400).JSON(fiber.Map{"error": "team name is required"})
	case errors.Is(err, service.ErrTeamNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "team not found"})
	case errors.Is(err, service.ErrNotTeamMember):
		return c.Status(403).JSON(fiber.Map{"error": "you are not a member of this team"})
	case errors.Is(err, service.ErrUserNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	case errors.Is(err, service.ErrCodeExhausted):
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate a unique team code, please try again"})
	default:
		log.Printf("[Team] %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "internal server error"})
	}
}
