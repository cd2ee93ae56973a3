package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"campus-chat/internal/models"
	"campus-chat/internal/repositories"
)

type LoungeRepositoryMock struct {
	mock.Mock
}

func (m *LoungeRepositoryMock) CreateForParent(ctx context.Context, parentType models.ParentType, parentID, name, createdBy string) (models.Lounge, error) {
	args := m.Called(ctx, parentType, parentID, name, createdBy)
	var lounge models.Lounge
	if val := args.Get(0); val != nil {
		lounge = val.(models.Lounge)
	}
	return lounge, args.Error(1)
}

func (m *LoungeRepositoryMock) GetLounge(ctx context.Context, loungeID uuid.UUID) (models.LoungeDetails, error) {
	args := m.Called(ctx, loungeID)
	var lounge models.LoungeDetails
	if val := args.Get(0); val != nil {
		lounge = val.(models.LoungeDetails)
	}
	return lounge, args.Error(1)
}

func (m *LoungeRepositoryMock) AddMember(ctx context.Context, loungeID uuid.UUID, userID string) error {
	args := m.Called(ctx, loungeID, userID)
	return args.Error(0)
}

func (m *LoungeRepositoryMock) RemoveMember(ctx context.Context, loungeID uuid.UUID, userID string) error {
	args := m.Called(ctx, loungeID, userID)
	return args.Error(0)
}

func (m *LoungeRepositoryMock) IsMember(ctx context.Context, loungeID uuid.UUID, userID string) (bool, error) {
	args := m.Called(ctx, loungeID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *LoungeRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Lounge, error) {
	args := m.Called(ctx, userID)
	var list []models.Lounge
	if val := args.Get(0); val != nil {
		list = val.([]models.Lounge)
	}
	return list, args.Error(1)
}

func (m *LoungeRepositoryMock) DeleteForParent(ctx context.Context, parentType models.ParentType, parentID string) (uuid.UUID, error) {
	args := m.Called(ctx, parentType, parentID)
	var id uuid.UUID
	if val := args.Get(0); val != nil {
		id = val.(uuid.UUID)
	}
	return id, args.Error(1)
}

type MatchRepositoryMock struct {
	mock.Mock
}

func (m *MatchRepositoryMock) CreateOrGetMatch(ctx context.Context, userID, otherID string, via models.MatchVia) (models.Match, error) {
	args := m.Called(ctx, userID, otherID, via)
	var match models.Match
	if val := args.Get(0); val != nil {
		match = val.(models.Match)
	}
	return match, args.Error(1)
}

func (m *MatchRepositoryMock) GetMatch(ctx context.Context, matchID uuid.UUID) (models.Match, error) {
	args := m.Called(ctx, matchID)
	var match models.Match
	if val := args.Get(0); val != nil {
		match = val.(models.Match)
	}
	return match, args.Error(1)
}

func (m *MatchRepositoryMock) ListForUser(ctx context.Context, userID string) ([]models.Match, error) {
	args := m.Called(ctx, userID)
	var list []models.Match
	if val := args.Get(0); val != nil {
		list = val.([]models.Match)
	}
	return list, args.Error(1)
}

// MessageRepositoryMock serves both message tables. The SeenTracker methods are
// only expected for private match stores.
type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) ListOrdered(ctx context.Context, surfaceID uuid.UUID) ([]models.Message, error) {
	args := m.Called(ctx, surfaceID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Latest(ctx context.Context, surfaceID uuid.UUID) (models.Message, error) {
	args := m.Called(ctx, surfaceID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkSeen(ctx context.Context, surfaceID uuid.UUID, viewerID string) (int64, error) {
	args := m.Called(ctx, surfaceID, viewerID)
	var n int64
	if val := args.Get(0); val != nil {
		n = val.(int64)
	}
	return n, args.Error(1)
}

func (m *MessageRepositoryMock) CountUnseen(ctx context.Context, surfaceID uuid.UUID, viewerID string) (int, error) {
	args := m.Called(ctx, surfaceID, viewerID)
	return args.Int(0), args.Error(1)
}

// HubMock records real-time fan-out calls.
type HubMock struct {
	mock.Mock
}

func (m *HubMock) Publish(room, event string, payload any) {
	m.Called(room, event, payload)
}

func (m *HubMock) CloseRoom(room string) {
	m.Called(room)
}

func (m *HubMock) LeaveUser(room, userID string) {
	m.Called(room, userID)
}

var (
	_ repositories.LoungeRepository  = (*LoungeRepositoryMock)(nil)
	_ repositories.MatchRepository   = (*MatchRepositoryMock)(nil)
	_ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
	_ repositories.SeenTracker       = (*MessageRepositoryMock)(nil)
)
