package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"teamchat-service/internal/models"
	"teamchat-service/internal/repositories"
)

type RoomRepositoryMock struct {
	mock.Mock
}

func (m *RoomRepositoryMock) CreateRoom(ctx context.Context, creatorID int, kind models.RoomKind, name string, avatarURL string, memberIDs []int) (models.Room, error) {
	args := m.Called(ctx, creatorID, kind, name, avatarURL, memberIDs)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	args := m.Called(ctx, roomID)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepositoryMock) ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.RoomSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.RoomSummary)
	}
	return list, args.Error(1)
}

func (m *RoomRepositoryMock) GetMemberIDs(ctx context.Context, roomID int) ([]int, error) {
	args := m.Called(ctx, roomID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *RoomRepositoryMock) IsMember(ctx context.Context, roomID int, userID int) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, roomID int, senderID int, senderName string, senderAvatar string, body string) (models.Message, error) {
	args := m.Called(ctx, roomID, senderID, senderName, senderAvatar, body)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRoomMessages(ctx context.Context, roomID int) ([]models.Message, error) {
	args := m.Called(ctx, roomID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var list []models.User
	if val := args.Get(0); val != nil {
		list = val.([]models.User)
	}
	return list, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) CreateNotification(ctx context.Context, recipientID int, kind models.NotificationKind, message string, roomID int) (models.Notification, error) {
	args := m.Called(ctx, recipientID, kind, message, roomID)
	var n models.Notification
	if val := args.Get(0); val != nil {
		n = val.(models.Notification)
	}
	return n, args.Error(1)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) SetRead(ctx context.Context, notificationID int, userID int, read bool) error {
	args := m.Called(ctx, notificationID, userID, read)
	return args.Error(0)
}

type PushSubscriptionRepositoryMock struct {
	mock.Mock
}

func (m *PushSubscriptionRepositoryMock) Register(ctx context.Context, userID int, endpoint string, deviceID string) (models.PushSubscription, error) {
	args := m.Called(ctx, userID, endpoint, deviceID)
	var sub models.PushSubscription
	if val := args.Get(0); val != nil {
		sub = val.(models.PushSubscription)
	}
	return sub, args.Error(1)
}

func (m *PushSubscriptionRepositoryMock) Deactivate(ctx context.Context, subscriptionID int, userID int) error {
	args := m.Called(ctx, subscriptionID, userID)
	return args.Error(0)
}

func (m *PushSubscriptionRepositoryMock) ListActiveForUser(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	args := m.Called(ctx, userID)
	var list []models.PushSubscription
	if val := args.Get(0); val != nil {
		list = val.([]models.PushSubscription)
	}
	return list, args.Error(1)
}

var (
	_ repositories.RoomRepository             = (*RoomRepositoryMock)(nil)
	_ repositories.MessageRepository          = (*MessageRepositoryMock)(nil)
	_ repositories.UserRepository             = (*UserRepositoryMock)(nil)
	_ repositories.NotificationRepository     = (*NotificationRepositoryMock)(nil)
	_ repositories.PushSubscriptionRepository = (*PushSubscriptionRepositoryMock)(nil)
)
