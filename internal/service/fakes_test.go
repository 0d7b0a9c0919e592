package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vaibhavisno-one/Chat-App/internal/model"
	"github.com/vaibhavisno-one/Chat-App/internal/repository"
)

// In-memory stores backing the service tests. They mirror the behavior the
// pgx repositories promise: repository.ErrNotFound for missing rows and a
// "duplicate key" error on unique violations.

type memUsers struct {
	mu         sync.Mutex
	users      map[string]*model.User
	setTeamErr map[string]error // forced SetTeamID failure per user id
}

func newMemUsers() *memUsers {
	return &memUsers{
		users:      make(map[string]*model.User),
		setTeamErr: make(map[string]error),
	}
}

func (m *memUsers) add(id, fullName string, teamID *string) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{
		ID:       id,
		FullName: fullName,
		Email:    id + "@example.com",
		TeamID:   teamID,
	}
	m.users[id] = u
	return u
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, fullName, email, passwordHash string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, errors.New(`duplicate key value violates unique constraint "users_email_key"`)
		}
	}
	u := &model.User{
		ID:           fmt.Sprintf("user-%d", len(m.users)+1),
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetTeamID(_ context.Context, userID string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.TeamID, nil
}

func (m *memUsers) SetTeamID(_ context.Context, userID string, teamID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.setTeamErr[userID]; err != nil {
		return err
	}
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.TeamID = teamID
	return nil
}

func (m *memUsers) UpdateProfilePic(_ context.Context, userID, url string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.ProfilePic = url
	return u, nil
}

func (m *memUsers) MemberProfiles(_ context.Context, teamID string) ([]*model.MemberProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MemberProfile
	for _, u := range m.users {
		if u.TeamID != nil && *u.TeamID == teamID {
			out = append(out, &model.MemberProfile{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic, Email: u.Email})
		}
	}
	return out, nil
}

func (m *memUsers) SidebarCandidates(_ context.Context, teamID, excludeUserID string) ([]*model.MemberProfile, error) {
	profiles, _ := m.MemberProfiles(context.Background(), teamID)
	out := make([]*model.MemberProfile, 0, len(profiles))
	for _, p := range profiles {
		if p.ID != excludeUserID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memTeams struct {
	mu          sync.Mutex
	teams       map[string]*model.Team
	byCode      map[string]string
	nextID      int
	failCreates int // remaining Create calls to fail with a unique violation
}

func newMemTeams() *memTeams {
	return &memTeams{
		teams:  make(map[string]*model.Team),
		byCode: make(map[string]string),
	}
}

func (m *memTeams) Create(_ context.Context, name, code, ownerID string) (*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreates > 0 {
		m.failCreates--
		return nil, errors.New(`duplicate key value violates unique constraint "teams_code_key"`)
	}
	if _, taken := m.byCode[code]; taken {
		return nil, errors.New(`duplicate key value violates unique constraint "teams_code_key"`)
	}
	if m.memberOfAnyLocked(ownerID) {
		return nil, errors.New(`duplicate key value violates unique constraint "team_members_user_key"`)
	}
	m.nextID++
	t := &model.Team{
		ID:        fmt.Sprintf("team-%d", m.nextID),
		Name:      name,
		Code:      code,
		OwnerID:   ownerID,
		Members:   []string{ownerID},
		CreatedAt: time.Now(),
	}
	m.teams[t.ID] = t
	m.byCode[code] = t.ID
	return copyTeam(t), nil
}

func (m *memTeams) GetByID(_ context.Context, id string) (*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTeam(t), nil
}

func (m *memTeams) GetByCode(_ context.Context, code string) (*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyTeam(m.teams[id]), nil
}

func (m *memTeams) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(m.byCode, t.Code)
	delete(m.teams, id)
	return nil
}

func (m *memTeams) AddMember(_ context.Context, teamID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if t.HasMember(userID) {
		return false, nil
	}
	if m.memberOfAnyLocked(userID) {
		return false, errors.New(`duplicate key value violates unique constraint "team_members_user_key"`)
	}
	t.Members = append(t.Members, userID)
	return true, nil
}

// memberOfAnyLocked mirrors the unique user_id index on team_members: a user
// holds at most one membership across all teams. Caller holds m.mu.
func (m *memTeams) memberOfAnyLocked(userID string) bool {
	for _, t := range m.teams {
		if t.HasMember(userID) {
			return true
		}
	}
	return false
}

func (m *memTeams) RemoveMember(_ context.Context, teamID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return repository.ErrNotFound
	}
	for i, id := range t.Members {
		if id == userID {
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memTeams) IsMember(_ context.Context, teamID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return false, repository.ErrNotFound
	}
	return t.HasMember(userID), nil
}

func copyTeam(t *model.Team) *model.Team {
	cp := *t
	cp.Members = append([]string(nil), t.Members...)
	return &cp
}

type memMessages struct {
	mu       sync.Mutex
	messages []*model.Message
	nextID   int64
}

func newMemMessages() *memMessages {
	return &memMessages{}
}

func (m *memMessages) Insert(_ context.Context, msg *model.Message) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *msg
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	m.messages = append(m.messages, &stored)
	return &stored, nil
}

func (m *memMessages) ListDirect(_ context.Context, teamID, userA, userB string) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Message
	for _, msg := range m.messages {
		if msg.Type != model.MessageDirect || msg.TeamID != teamID || msg.ReceiverID == nil {
			continue
		}
		pair := (msg.SenderID == userA && *msg.ReceiverID == userB) ||
			(msg.SenderID == userB && *msg.ReceiverID == userA)
		if pair {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMessages) ListTeam(_ context.Context, teamID string) ([]*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Message
	for _, msg := range m.messages {
		if msg.Type == model.MessageTeam && msg.TeamID == teamID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// memNotifier records fan-out calls instead of pushing frames.
type memNotifier struct {
	mu     sync.Mutex
	direct map[string][]*model.Message
	team   map[string][]*model.Message
}

func newMemNotifier() *memNotifier {
	return &memNotifier{
		direct: make(map[string][]*model.Message),
		team:   make(map[string][]*model.Message),
	}
}

func (n *memNotifier) DeliverDirect(userID string, msg *model.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.direct[userID] = append(n.direct[userID], msg)
}

func (n *memNotifier) BroadcastTeam(teamID string, msg *model.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.team[teamID] = append(n.team[teamID], msg)
}

type memUploader struct {
	url string
	err error
}

func (u *memUploader) Upload(_ context.Context, _ string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}
