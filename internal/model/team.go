package model

import "time"

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	OwnerID   string    `json:"owner_id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMember reports whether userID is in the membership set.
func (t *Team) HasMember(userID string) bool {
	for _, id := range t.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// Request types

type CreateTeamRequest struct {
	Name string `json:"name" validate:"required"`
}

type JoinTeamRequest struct {
	Code string `json:"code" validate:"required"`
}
