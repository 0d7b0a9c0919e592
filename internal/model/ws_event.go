package model

import "encoding/json"

type WSEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Realtime event names, shared with the frontend.
const (
	EventOnlineUsers   = "getOnlineUsers"
	EventNewMessage    = "newMessage"
	EventJoinTeamRoom  = "joinTeamRoom"
	EventLeaveTeamRoom = "leaveTeamRoom"
	EventPing          = "ping"
	EventPong          = "pong"
)

// RoomRequest is the payload of joinTeamRoom / leaveTeamRoom events.
type RoomRequest struct {
	TeamID string `json:"team_id"`
}
