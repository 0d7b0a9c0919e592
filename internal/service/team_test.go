package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTeamService_Create(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner", "Owner", nil)
	svc := NewTeamService(teams, users)

	team, err := svc.Create(context.Background(), "owner", "  Alpha Squad  ")
	req.NoError(err)
	req.Equal("Alpha Squad", team.Name)
	req.Equal("owner", team.OwnerID)
	req.True(team.HasMember("owner"))
	req.Len(team.Code, codeLength)
	for _, c := range team.Code {
		req.Contains(codeAlphabet, string(c))
	}

	// Both records agree after the two-step write.
	teamID, err := users.GetTeamID(context.Background(), "owner")
	req.NoError(err)
	req.NotNil(teamID)
	req.Equal(team.ID, *teamID)
}

func TestTeamService_Create_EmptyName(t *testing.T) {
	req := require.New(t)
	svc := NewTeamService(newMemTeams(), newMemUsers())

	_, err := svc.Create(context.Background(), "owner", "   ")
	req.ErrorIs(err, ErrNameRequired)
}

func TestTeamService_Create_RollbackOnPointerFailure(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner", "Owner", nil)
	users.setTeamErr["owner"] = errors.New("write timeout")
	svc := NewTeamService(teams, users)

	_, err := svc.Create(context.Background(), "owner", "Alpha")
	req.Error(err)
	req.Contains(err.Error(), "write timeout")

	// The compensation removed the half-created team.
	req.Empty(teams.teams)
	teamID, err := users.GetTeamID(context.Background(), "owner")
	req.NoError(err)
	req.Nil(teamID)
}

func TestTeamService_Create_RetriesOnCodeCollision(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner", "Owner", nil)
	teams.failCreates = 2 // lose the insert race twice, then win
	svc := NewTeamService(teams, users)

	team, err := svc.Create(context.Background(), "owner", "Alpha")
	req.NoError(err)
	req.Len(teams.teams, 1)
	req.True(team.HasMember("owner"))
}

func TestTeamService_Create_CodeExhausted(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner", "Owner", nil)
	teams.failCreates = maxCodeTries
	svc := NewTeamService(teams, users)

	_, err := svc.Create(context.Background(), "owner", "Alpha")
	req.ErrorIs(err, ErrCodeExhausted)
}

func TestTeamService_Join(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner", "Owner", nil)
	users.add("joiner", "Joiner", nil)
	svc := NewTeamService(teams, users)

	team, err := svc.Create(context.Background(), "owner", "Alpha")
	req.NoError(err)

	joined, err := svc.Join(context.Background(), "joiner", team.Code)
	req.NoError(err)
	req.Equal(team.ID, joined.ID)
	req.True(joined.HasMember("joiner"))

	teamID, err := users.GetTeamID(context.Background(), "joiner")
	req.NoError(err)
	req.NotNil(teamID)
	req.Equal(team.ID, *teamID)
}

func TestTeamService_Join_Idempotent(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner", "Owner", nil)
	users.add("joiner", "Joiner", nil)
	svc := NewTeamService(teams, users)

	team, err := svc.Create(context.Background(), "owner", "Alpha")
	req.NoError(err)

	_, err = svc.Join(context.Background(), "joiner", team.Code)
	req.NoError(err)
	again, err := svc.Join(context.Background(), "joiner", team.Code)
	req.NoError(err)

	// Exactly one membership entry, pointer still correct.
	count := 0
	for _, id := range again.Members {
		if id == "joiner" {
			count++
		}
	}
	req.Equal(1, count)
}

func TestTeamService_Join_RollbackOnPointerFailure(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner", "Owner", nil)
	users.add("joiner", "Joiner", nil)
	svc := NewTeamService(teams, users)

	team, err := svc.Create(context.Background(), "owner", "Alpha")
	req.NoError(err)

	users.setTeamErr["joiner"] = errors.New("write timeout")
	_, err = svc.Join(context.Background(), "joiner", team.Code)
	req.Error(err)

	// Membership was compensated away; the joiner is back where they started.
	reloaded, err := teams.GetByID(context.Background(), team.ID)
	req.NoError(err)
	req.False(reloaded.HasMember("joiner"))
	teamID, err := users.GetTeamID(context.Background(), "joiner")
	req.NoError(err)
	req.Nil(teamID)
}

func TestTeamService_Join_SwitchTeams(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner1", "Owner One", nil)
	users.add("owner2", "Owner Two", nil)
	users.add("alice", "Alice", nil)
	svc := NewTeamService(teams, users)

	team1, err := svc.Create(context.Background(), "owner1", "Alpha")
	req.NoError(err)
	team2, err := svc.Create(context.Background(), "owner2", "Beta")
	req.NoError(err)

	_, err = svc.Join(context.Background(), "alice", team1.Code)
	req.NoError(err)
	joined, err := svc.Join(context.Background(), "alice", team2.Code)
	req.NoError(err)
	req.True(joined.HasMember("alice"))

	// Switching teams moves the membership, it does not duplicate it: the
	// pointer and the member sets must agree for every team.
	old, err := teams.GetByID(context.Background(), team1.ID)
	req.NoError(err)
	req.False(old.HasMember("alice"))
	teamID, err := users.GetTeamID(context.Background(), "alice")
	req.NoError(err)
	req.NotNil(teamID)
	req.Equal(team2.ID, *teamID)
}

func TestTeamService_Join_SwitchRollbackRestoresOldTeam(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner1", "Owner One", nil)
	users.add("owner2", "Owner Two", nil)
	users.add("alice", "Alice", nil)
	svc := NewTeamService(teams, users)

	team1, err := svc.Create(context.Background(), "owner1", "Alpha")
	req.NoError(err)
	team2, err := svc.Create(context.Background(), "owner2", "Beta")
	req.NoError(err)
	_, err = svc.Join(context.Background(), "alice", team1.Code)
	req.NoError(err)

	users.setTeamErr["alice"] = errors.New("write timeout")
	_, err = svc.Join(context.Background(), "alice", team2.Code)
	req.Error(err)

	// The failed switch unwound completely: old membership restored, no
	// membership in the target team, pointer unchanged.
	old, err := teams.GetByID(context.Background(), team1.ID)
	req.NoError(err)
	req.True(old.HasMember("alice"))
	target, err := teams.GetByID(context.Background(), team2.ID)
	req.NoError(err)
	req.False(target.HasMember("alice"))
	teamID, err := users.GetTeamID(context.Background(), "alice")
	req.NoError(err)
	req.NotNil(teamID)
	req.Equal(team1.ID, *teamID)
}

func TestTeamService_Create_LeavesPreviousTeam(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner1", "Owner One", nil)
	users.add("alice", "Alice", nil)
	svc := NewTeamService(teams, users)

	team1, err := svc.Create(context.Background(), "owner1", "Alpha")
	req.NoError(err)
	_, err = svc.Join(context.Background(), "alice", team1.Code)
	req.NoError(err)

	// Creating a team while in another one moves the creator, same as a join.
	own, err := svc.Create(context.Background(), "alice", "Alice's Team")
	req.NoError(err)
	req.True(own.HasMember("alice"))

	old, err := teams.GetByID(context.Background(), team1.ID)
	req.NoError(err)
	req.False(old.HasMember("alice"))
	teamID, err := users.GetTeamID(context.Background(), "alice")
	req.NoError(err)
	req.NotNil(teamID)
	req.Equal(own.ID, *teamID)
}

func TestTeamService_Create_MembershipConflictIsNotRetried(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner1", "Owner One", nil)
	users.add("alice", "Alice", nil)
	svc := NewTeamService(teams, users)

	team1, err := svc.Create(context.Background(), "owner1", "Alpha")
	req.NoError(err)
	_, err = svc.Join(context.Background(), "alice", team1.Code)
	req.NoError(err)

	// Drifted state: alice holds a membership row but her pointer is gone.
	// The one-membership-per-user violation her create then hits must surface
	// as its own failure, not be mistaken for a join-code collision and
	// burned through the retry loop.
	req.NoError(users.SetTeamID(context.Background(), "alice", nil))

	_, err = svc.Create(context.Background(), "alice", "Alice's Team")
	req.Error(err)
	req.NotErrorIs(err, ErrCodeExhausted)
	req.Contains(err.Error(), "team_members_user_key")
	req.Len(teams.teams, 1)
}

func TestTeamService_Join_UnknownCode(t *testing.T) {
	req := require.New(t)
	svc := NewTeamService(newMemTeams(), newMemUsers())

	_, err := svc.Join(context.Background(), "joiner", "NOSUCHCD")
	req.ErrorIs(err, ErrTeamNotFound)
}

func TestTeamService_Members(t *testing.T) {
	req := require.New(t)
	users := newMemUsers()
	teams := newMemTeams()
	users.add("owner", "Owner", nil)
	users.add("joiner", "Joiner", nil)
	users.add("outsider", "Outsider", nil)
	svc := NewTeamService(teams, users)

	team, err := svc.Create(context.Background(), "owner", "Alpha")
	req.NoError(err)
	_, err = svc.Join(context.Background(), "joiner", team.Code)
	req.NoError(err)

	profiles, err := svc.Members(context.Background(), team.ID, "owner")
	req.NoError(err)
	req.Len(profiles, 2)

	_, err = svc.Members(context.Background(), team.ID, "outsider")
	req.ErrorIs(err, ErrNotTeamMember)

	_, err = svc.Members(context.Background(), "team-missing", "owner")
	req.ErrorIs(err, ErrTeamNotFound)
}

func TestGenerateCode(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code := generateCode()
		req.Len(code, codeLength)
		for _, c := range code {
			req.True(strings.ContainsRune(codeAlphabet, c), "unexpected character %q", c)
		}
		seen[code] = true
	}
	// 50 draws from a 31^8 space collide essentially never.
	req.Len(seen, 50)
}
