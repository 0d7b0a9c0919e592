package service

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"strings"

	"github.com/vaibhavisno-one/Chat-App/internal/model"
	"github.com/vaibhavisno-one/Chat-App/internal/repository"
)

var (
	ErrNameRequired  = errors.New("team name is required")
	ErrTeamNotFound  = errors.New("team not found")
	ErrNotTeamMember = errors.New("not a team member")
	ErrCodeExhausted = errors.New("could not generate a unique team code")
)

const (
	// Join codes are short enough to share by voice, long enough that
	// collisions stay rare. Ambiguous characters (0/O, 1/I/L) are excluded.
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 8
	maxCodeTries = 5
)

type TeamService struct {
	teams TeamStore
	users UserStore
}

func NewTeamService(teams TeamStore, users UserStore) *TeamService {
	return &TeamService{teams: teams, users: users}
}

// Create makes a new team owned by ownerID and points the owner's team field
// at it. An owner already in another team leaves it: membership and pointer
// must agree, and a user holds at most one membership. The records live in
// separate places, so every step past the first is guarded by a compensation.
func (s *TeamService) Create(ctx context.Context, ownerID, name string) (*model.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	previousTeamID, err := s.currentTeam(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeTries; attempt++ {
		code := generateCode()

		// Pre-check the candidate. The unique index on teams.code is the
		// real backstop; this only keeps insert failures rare.
		if _, err := s.teams.GetByCode(ctx, code); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		var team *model.Team
		err := runSaga(ctx, append(
			s.leaveTeamSteps(ownerID, previousTeamID),
			sagaStep{
				name: "create team",
				run: func(ctx context.Context) error {
					t, err := s.teams.Create(ctx, name, code, ownerID)
					if err != nil {
						return err
					}
					team = t
					return nil
				},
				undo: func(ctx context.Context) error {
					return s.teams.Delete(ctx, team.ID)
				},
			},
			sagaStep{
				name: "set owner team pointer",
				run: func(ctx context.Context) error {
					return s.users.SetTeamID(ctx, ownerID, &team.ID)
				},
			},
		))
		if err != nil {
			if repository.UniqueViolation(err, "teams_code_key") {
				// Lost the insert race on the code — try a fresh one.
				log.Printf("[Team] code collision on insert, retrying (attempt %d)", attempt+1)
				continue
			}
			return nil, err
		}

		log.Printf("[Team] created %q (%s) owner=%s", team.Name, team.Code, ownerID)
		return team, nil
	}

	return nil, ErrCodeExhausted
}

// Join adds userID to the team identified by code, leaving their previous
// team if they have one. Joining a team the user is already in re-affirms the
// team pointer and succeeds — this also repairs a pointer that drifted from
// the member set.
func (s *TeamService) Join(ctx context.Context, userID, code string) (*model.Team, error) {
	team, err := s.teams.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	if team.HasMember(userID) {
		if err := s.users.SetTeamID(ctx, userID, &team.ID); err != nil {
			return nil, err
		}
		return team, nil
	}

	previousTeamID, err := s.currentTeam(ctx, userID)
	if err != nil {
		return nil, err
	}

	var added bool
	err = runSaga(ctx, append(
		s.leaveTeamSteps(userID, previousTeamID),
		sagaStep{
			name: "add member",
			run: func(ctx context.Context) error {
				a, err := s.teams.AddMember(ctx, team.ID, userID)
				added = a
				return err
			},
			undo: func(ctx context.Context) error {
				// Only remove what this saga inserted; a concurrent join
				// owns its own row.
				if !added {
					return nil
				}
				return s.teams.RemoveMember(ctx, team.ID, userID)
			},
		},
		sagaStep{
			name: "set member team pointer",
			run: func(ctx context.Context) error {
				return s.users.SetTeamID(ctx, userID, &team.ID)
			},
		},
	))
	if err != nil {
		return nil, err
	}

	log.Printf("[Team] %s joined %q (%s)", userID, team.Name, team.Code)
	return s.teams.GetByID(ctx, team.ID)
}

// Members returns the restricted projection of the team's members. Only
// members may look.
func (s *TeamService) Members(ctx context.Context, teamID, requesterID string) ([]*model.MemberProfile, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	member, err := s.teams.IsMember(ctx, teamID, requesterID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotTeamMember
	}
	return s.users.MemberProfiles(ctx, teamID)
}

// leaveTeamSteps returns the saga step removing the user's membership in
// previousTeamID, or nothing when there is no previous team. The compensation
// restores the old membership so a failed switch leaves both records where
// they started.
func (s *TeamService) leaveTeamSteps(userID string, previousTeamID *string) []sagaStep {
	if previousTeamID == nil {
		return nil
	}
	oldTeamID := *previousTeamID
	return []sagaStep{{
		name: "leave previous team",
		run: func(ctx context.Context) error {
			return s.teams.RemoveMember(ctx, oldTeamID, userID)
		},
		undo: func(ctx context.Context) error {
			_, err := s.teams.AddMember(ctx, oldTeamID, userID)
			return err
		},
	}}
}

func (s *TeamService) currentTeam(ctx context.Context, userID string) (*string, error) {
	teamID, err := s.users.GetTeamID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return teamID, nil
}

func generateCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failing means the process is unusable
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}

func isUniqueViolation(err error) bool {
	return repository.UniqueViolation(err, "")
}
