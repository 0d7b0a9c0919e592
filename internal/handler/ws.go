package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/vaibhavisno-one/Chat-App/internal/model"
	"github.com/vaibhavisno-one/Chat-App/internal/repository"
	"github.com/vaibhavisno-one/Chat-App/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	readDeadline  = 60 * time.Second
	sendQueueSize = 64
)

type WSHandler struct {
	hub     *service.Hub
	users   service.UserStore
	authSvc *service.AuthService
}

func NewWSHandler(hub *service.Hub, users service.UserStore, authSvc *service.AuthService) *WSHandler {
	return &WSHandler{hub: hub, users: users, authSvc: authSvc}
}

// Upgrade gates the HTTP→websocket handshake. A missing or invalid token is
// not a rejection: the connection proceeds anonymously and simply carries no
// presence.
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID := ""
	if token := c.Query("token"); token != "" {
		id, err := h.authSvc.ValidateAccessToken(token)
		if err != nil {
			log.Printf("[WS] rejected token on upgrade: %v", err)
		} else {
			userID = id
		}
	}
	c.Locals("user_id", userID)

	return c.Next()
}

// Handler runs one websocket connection: register with the hub, auto-join the
// user's team room as of connect time, then pump events until the peer goes
// away.
func (h *WSHandler) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("user_id").(string)

		client := &service.Client{
			Conn:   conn,
			ID:     uuid.NewString(),
			UserID: userID,
			Send:   make(chan []byte, sendQueueSize),
		}

		h.hub.Register(client)
		defer h.hub.Unregister(client)

		if userID != "" {
			h.autoJoinTeamRoom(client)
		}

		go h.writePump(client)
		h.readPump(client)
	})
}

// autoJoinTeamRoom puts an identified connection into its team's room based on
// the user's membership at connect time. Later joins or leaves arrive as
// explicit room events from the client.
func (h *WSHandler) autoJoinTeamRoom(client *service.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	teamID, err := h.users.GetTeamID(ctx, client.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("[WS] team lookup for user %s: %v", client.UserID, err)
		}
		return
	}
	if teamID != nil {
		h.hub.JoinRoom(client, *teamID)
	}
}

func (h *WSHandler) writePump(client *service.Client) {
	for data := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *WSHandler) readPump(client *service.Client) {
	for {
		_ = client.Conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, data, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] connection %s read error: %v", client.ID, err)
			}
			return
		}

		var event model.WSEvent
		if err := json.Unmarshal(data, &event); err != nil {
			log.Printf("[WS] connection %s sent malformed event", client.ID)
			continue
		}

		h.handleEvent(client, &event)
	}
}

func (h *WSHandler) handleEvent(client *service.Client, event *model.WSEvent) {
	switch event.Type {
	case model.EventPing:
		if data, err := json.Marshal(model.WSEvent{Type: model.EventPong}); err == nil {
			select {
			case client.Send <- data:
			default:
			}
		}
	case model.EventJoinTeamRoom:
		var req model.RoomRequest
		if err := json.Unmarshal(event.Data, &req); err != nil || req.TeamID == "" {
			return
		}
		if h.canJoinRoom(client, req.TeamID) {
			h.hub.JoinRoom(client, req.TeamID)
		}
	case model.EventLeaveTeamRoom:
		var req model.RoomRequest
		if err := json.Unmarshal(event.Data, &req); err != nil || req.TeamID == "" {
			return
		}
		h.hub.LeaveRoom(client, req.TeamID)
	default:
		log.Printf("[WS] connection %s sent unknown event %q", client.ID, event.Type)
	}
}

// canJoinRoom re-checks membership so a connection cannot sit in a room for a
// team it never belonged to. Anonymous connections hold no memberships.
func (h *WSHandler) canJoinRoom(client *service.Client, teamID string) bool {
	if client.UserID == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	current, err := h.users.GetTeamID(ctx, client.UserID)
	if err != nil {
		log.Printf("[WS] room check for user %s: %v", client.UserID, err)
		return false
	}
	return current != nil && *current == teamID
}
