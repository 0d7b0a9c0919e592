package service

import (
	"context"
	"errors"

	"github.com/vaibhavisno-one/Chat-App/internal/repository"
)

var (
	ErrNotInTeam    = errors.New("not in a team")
	ErrSelfChat     = errors.New("cannot chat with yourself")
	ErrUserNotFound = errors.New("user not found")
	ErrNotTeammates = errors.New("not in the same team")
	ErrWrongTeam    = errors.New("not your team")
)

// Gate holds the authorization predicates consulted before any message read
// or write. Team membership is re-derived from the store on every call; it can
// change between requests, so nothing here is cached.
type Gate struct {
	users UserStore
}

func NewGate(users UserStore) *Gate {
	return &Gate{users: users}
}

// CanDirectMessage checks that sender may address receiver 1:1.
func (g *Gate) CanDirectMessage(ctx context.Context, senderID string, senderTeamID *string, receiverID string) error {
	if senderTeamID == nil {
		return ErrNotInTeam
	}
	if senderID == receiverID {
		return ErrSelfChat
	}
	receiverTeamID, err := g.users.GetTeamID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if receiverTeamID == nil || *receiverTeamID != *senderTeamID {
		return ErrNotTeammates
	}
	return nil
}

// CanTeamMessage checks that a sender in senderTeamID may post to the channel
// of targetTeamID.
func (g *Gate) CanTeamMessage(senderTeamID *string, targetTeamID string) error {
	if senderTeamID == nil || *senderTeamID != targetTeamID {
		return ErrWrongTeam
	}
	return nil
}

// CanViewDirectThread applies the direct-message checks symmetrically for a
// viewer fetching history with another user.
func (g *Gate) CanViewDirectThread(ctx context.Context, viewerID string, viewerTeamID *string, otherUserID string) error {
	return g.CanDirectMessage(ctx, viewerID, viewerTeamID, otherUserID)
}

// CanViewTeamThread checks that the viewer may read the requested team channel.
func (g *Gate) CanViewTeamThread(viewerTeamID *string, requestedTeamID string) error {
	return g.CanTeamMessage(viewerTeamID, requestedTeamID)
}
