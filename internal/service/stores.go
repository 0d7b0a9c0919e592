package service

import (
	"context"
	"time"

	"github.com/vaibhavisno-one/Chat-App/internal/model"
)

// Store interfaces consumed by the services. The pgx repositories implement
// them; tests substitute in-memory fakes.

type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, fullName, email, passwordHash string) (*model.User, error)
	GetTeamID(ctx context.Context, userID string) (*string, error)
	SetTeamID(ctx context.Context, userID string, teamID *string) error
	UpdateProfilePic(ctx context.Context, userID, url string) (*model.User, error)
	MemberProfiles(ctx context.Context, teamID string) ([]*model.MemberProfile, error)
	SidebarCandidates(ctx context.Context, teamID, excludeUserID string) ([]*model.MemberProfile, error)
}

type TeamStore interface {
	Create(ctx context.Context, name, code, ownerID string) (*model.Team, error)
	GetByID(ctx context.Context, id string) (*model.Team, error)
	GetByCode(ctx context.Context, code string) (*model.Team, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, teamID, userID string) (bool, error)
	RemoveMember(ctx context.Context, teamID, userID string) error
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
}

type MessageStore interface {
	Insert(ctx context.Context, msg *model.Message) (*model.Message, error)
	ListDirect(ctx context.Context, teamID, userA, userB string) ([]*model.Message, error)
	ListTeam(ctx context.Context, teamID string) ([]*model.Message, error)
}

type SessionStore interface {
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (string, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
}

// Notifier receives newly persisted messages for realtime fan-out.
type Notifier interface {
	DeliverDirect(userID string, msg *model.Message)
	BroadcastTeam(teamID string, msg *model.Message)
}

// Uploader hands an inline image payload to the object-storage collaborator
// and returns the durable URL to persist.
type Uploader interface {
	Upload(ctx context.Context, image string) (string, error)
}
