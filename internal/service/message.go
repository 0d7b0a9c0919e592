package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/vaibhavisno-one/Chat-App/internal/model"
	"github.com/vaibhavisno-one/Chat-App/internal/repository"
)

var ErrInvalidMessageType = errors.New("invalid message type")

// MessageService validates, persists and fans out chat messages. The gate
// runs before any write; the store trusts this layer.
type MessageService struct {
	messages MessageStore
	users    UserStore
	teams    TeamStore
	gate     *Gate
	notifier Notifier
	uploader Uploader
}

func NewMessageService(messages MessageStore, users UserStore, teams TeamStore, gate *Gate, notifier Notifier, uploader Uploader) *MessageService {
	return &MessageService{
		messages: messages,
		users:    users,
		teams:    teams,
		gate:     gate,
		notifier: notifier,
		uploader: uploader,
	}
}

// Send authorizes, persists and pushes one message. chatID is the receiver's
// user id for direct messages and the team id for team messages.
func (s *MessageService) Send(ctx context.Context, senderID, chatID string, req *model.SendMessageRequest) (*model.Message, error) {
	senderTeamID, err := s.senderTeam(ctx, senderID)
	if err != nil {
		return nil, err
	}

	var msg *model.Message
	switch model.MessageType(req.MessageType) {
	case model.MessageDirect:
		if err := s.gate.CanDirectMessage(ctx, senderID, senderTeamID, chatID); err != nil {
			return nil, err
		}
		msg = model.NewDirectMessage(senderID, chatID, *senderTeamID, req.Text, "")
	case model.MessageTeam:
		if err := s.gate.CanTeamMessage(senderTeamID, chatID); err != nil {
			return nil, err
		}
		msg = model.NewTeamMessage(senderID, chatID, req.Text, "")
	default:
		return nil, ErrInvalidMessageType
	}

	if req.Image != "" {
		url, err := s.uploader.Upload(ctx, req.Image)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		msg.Image = url
	}

	stored, err := s.messages.Insert(ctx, msg)
	if err != nil {
		return nil, err
	}

	// Fire-and-forget push. The sender already has the stored record from
	// this call, so direct delivery targets the receiver only.
	switch stored.Type {
	case model.MessageDirect:
		s.notifier.DeliverDirect(*stored.ReceiverID, stored)
	case model.MessageTeam:
		s.notifier.BroadcastTeam(stored.TeamID, stored)
	}

	return stored, nil
}

// DirectHistory returns the viewer's 1:1 thread with otherUserID, oldest
// first.
func (s *MessageService) DirectHistory(ctx context.Context, viewerID, otherUserID string) ([]*model.Message, error) {
	viewerTeamID, err := s.senderTeam(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.CanViewDirectThread(ctx, viewerID, viewerTeamID, otherUserID); err != nil {
		return nil, err
	}
	return s.messages.ListDirect(ctx, *viewerTeamID, viewerID, otherUserID)
}

// TeamHistory returns the team channel history, oldest first.
func (s *MessageService) TeamHistory(ctx context.Context, viewerID, teamID string) ([]*model.Message, error) {
	viewerTeamID, err := s.senderTeam(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.CanViewTeamThread(viewerTeamID, teamID); err != nil {
		return nil, err
	}
	return s.messages.ListTeam(ctx, teamID)
}

// SidebarCandidates returns the users the caller may open a direct chat with:
// their teammates, minus themselves. Without a team the list is empty rather
// than an error.
func (s *MessageService) SidebarCandidates(ctx context.Context, userID string) ([]*model.MemberProfile, error) {
	teamID, err := s.users.GetTeamID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if teamID == nil {
		return []*model.MemberProfile{}, nil
	}

	if _, err := s.teams.GetByID(ctx, *teamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Pointer refers to a vanished team record.
			log.Printf("[Message] user %s points at missing team %s", userID, *teamID)
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	return s.users.SidebarCandidates(ctx, *teamID, userID)
}

func (s *MessageService) senderTeam(ctx context.Context, userID string) (*string, error) {
	teamID, err := s.users.GetTeamID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return teamID, nil
}
